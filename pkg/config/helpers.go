package config

import (
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/glorpus-work/fetchcache/pkg/errors"
)

// EnvPrefix is prepended to the upper-cased key to form the override variable,
// e.g. retry.attempts is read from FETCHCACHE_RETRY_ATTEMPTS.
const EnvPrefix = "FETCHCACHE_"

type setting struct {
	get    func(s *Settings) string
	set    func(s *Settings, value string) error
	secret bool
}

// redacted replaces secret values in ToMap output.
const redacted = "********"

func secretSetting(field func(s *Settings) *string) setting {
	st := stringSetting(field)
	st.secret = true
	return st
}

func stringSetting(field func(s *Settings) *string) setting {
	return setting{
		get: func(s *Settings) string { return *field(s) },
		set: func(s *Settings, value string) error {
			*field(s) = value
			return nil
		},
	}
}

func intSetting(key string, field func(s *Settings) *int) setting {
	return setting{
		get: func(s *Settings) string { return strconv.Itoa(*field(s)) },
		set: func(s *Settings, value string) error {
			n, err := strconv.Atoi(value)
			if err != nil {
				return errors.Wrapf(errors.ErrInvalidIntValue, "%s: %s", key, value)
			}
			*field(s) = n
			return nil
		},
	}
}

func durationSetting(key string, field func(s *Settings) *time.Duration) setting {
	return setting{
		get: func(s *Settings) string { return field(s).String() },
		set: func(s *Settings, value string) error {
			d, err := time.ParseDuration(value)
			if err != nil {
				return errors.Wrapf(errors.ErrInvalidDurationValue, "%s: %s", key, value)
			}
			*field(s) = d
			return nil
		},
	}
}

func boolSetting(key string, field func(s *Settings) *bool) setting {
	return setting{
		get: func(s *Settings) string { return strconv.FormatBool(*field(s)) },
		set: func(s *Settings, value string) error {
			b, err := strconv.ParseBool(value)
			if err != nil {
				return errors.Wrapf(errors.ErrInvalidBoolValue, "%s: %s", key, value)
			}
			*field(s) = b
			return nil
		},
	}
}

var settings = map[string]setting{
	"cache_dir":          stringSetting(func(s *Settings) *string { return &s.CacheDir }),
	"cache_ttl":          durationSetting("cache_ttl", func(s *Settings) *time.Duration { return &s.CacheTTL }),
	"memory_entries":     intSetting("memory_entries", func(s *Settings) *int { return &s.MemoryEntries }),
	"http_timeout":       durationSetting("http_timeout", func(s *Settings) *time.Duration { return &s.HTTPTimeout }),
	"connect_timeout":    durationSetting("connect_timeout", func(s *Settings) *time.Duration { return &s.ConnectTimeout }),
	"max_concurrent":     intSetting("max_concurrent", func(s *Settings) *int { return &s.MaxConcurrent }),
	"retry.attempts":     intSetting("retry.attempts", func(s *Settings) *int { return &s.Retry.Attempts }),
	"retry.backoff":      durationSetting("retry.backoff", func(s *Settings) *time.Duration { return &s.Retry.Backoff }),
	"retry.max_backoff":  durationSetting("retry.max_backoff", func(s *Settings) *time.Duration { return &s.Retry.MaxBackoff }),
	"user_agent":         stringSetting(func(s *Settings) *string { return &s.UserAgent }),
	"pinned_ca_file":     stringSetting(func(s *Settings) *string { return &s.PinnedCAFile }),
	"auth.type":          stringSetting(func(s *Settings) *string { return &s.Auth.Type }),
	"auth.username":      stringSetting(func(s *Settings) *string { return &s.Auth.Username }),
	"auth.password":      secretSetting(func(s *Settings) *string { return &s.Auth.Password }),
	"auth.token":         secretSetting(func(s *Settings) *string { return &s.Auth.Token }),
	"auth.header":        stringSetting(func(s *Settings) *string { return &s.Auth.Header }),
	"auth.value":         secretSetting(func(s *Settings) *string { return &s.Auth.Value }),
	"skip_dead":          boolSetting("skip_dead", func(s *Settings) *bool { return &s.SkipDead }),
	"cancel_on_shutdown": boolSetting("cancel_on_shutdown", func(s *Settings) *bool { return &s.CancelOnShutdown }),
	"output_format":      stringSetting(func(s *Settings) *string { return &s.OutputFormat }),
	"log_level":          stringSetting(func(s *Settings) *string { return &s.LogLevel }),
}

// Keys returns every configuration key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetValue sets a configuration value by key. Nested keys use a dot, e.g. retry.attempts.
// The value is parsed according to the setting's type; the result is not validated.
func (c *Config) SetValue(key, value string) error {
	s, ok := settings[key]
	if !ok {
		return errors.ErrUnknownConfigKeyWithName(key)
	}
	return s.set(&c.Settings, value)
}

// GetValue returns the value of key as a string.
func (c *Config) GetValue(key string) (string, error) {
	s, ok := settings[key]
	if !ok {
		return "", errors.ErrUnknownConfigKeyWithName(key)
	}
	return s.get(&c.Settings), nil
}

// ToMap returns every setting keyed by name.
// This is useful for displaying the configuration. Non-empty secrets are redacted.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string, len(settings))
	for k, s := range settings {
		v := s.get(&c.Settings)
		if s.secret && v != "" {
			v = redacted
		}
		result[k] = v
	}
	return result
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// ApplyEnv overrides settings from FETCHCACHE_* environment variables and validates the result.
func (c *Config) ApplyEnv() error {
	for _, key := range Keys() {
		value, ok := os.LookupEnv(EnvName(key))
		if !ok {
			continue
		}
		if err := c.SetValue(key, value); err != nil {
			return errors.Wrapf(err, "environment variable %s", EnvName(key))
		}
	}
	if err := c.Validate(); err != nil {
		return errors.Wrap(errors.ErrConfigValidation, err.Error())
	}
	return nil
}
