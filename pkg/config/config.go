// Package config provides configuration management for fetchcache.
// It handles loading, validating and saving the YAML settings that control the
// cache, the HTTP transport and the dispatch pool. Values in the file can be
// overridden through FETCHCACHE_* environment variables.
package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/fetchcache/pkg/auth"
	"github.com/glorpus-work/fetchcache/pkg/errors"
	"github.com/glorpus-work/fetchcache/pkg/fsutil"
)

// Config represents the application configuration.
type Config struct {
	Settings Settings `yaml:"settings"`
}

// RetryConfig controls how the transport retries failed fetches.
type RetryConfig struct {
	Attempts   int           `yaml:"attempts"`
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

// AuthConfig holds the credentials sent with every fetch. Only the fields of Type are used.
type AuthConfig struct {
	Type     string `yaml:"type,omitempty"` // basic, bearer, header
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Token    string `yaml:"token,omitempty"`
	Header   string `yaml:"header,omitempty"`
	Value    string `yaml:"value,omitempty"`
}

// Authenticator builds the configured authenticator. It returns nil when no type is set.
func (a AuthConfig) Authenticator() (auth.Authenticator, error) {
	t, err := auth.ParseType(a.Type)
	if err != nil {
		return nil, err
	}
	return auth.New(t, auth.Credentials{
		Username: a.Username,
		Password: a.Password,
		Token:    a.Token,
		Header:   a.Header,
		Value:    a.Value,
	})
}

// Settings represents general application settings.
type Settings struct {
	// Cache settings
	CacheDir      string        `yaml:"cache_dir,omitempty"`
	CacheTTL      time.Duration `yaml:"cache_ttl"` // 0 never expires
	MemoryEntries int           `yaml:"memory_entries"`

	// Network settings
	HTTPTimeout    time.Duration `yaml:"http_timeout"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	MaxConcurrent  int           `yaml:"max_concurrent"`
	Retry          RetryConfig   `yaml:"retry"`
	UserAgent      string        `yaml:"user_agent,omitempty"`
	PinnedCAFile   string        `yaml:"pinned_ca_file,omitempty"`
	Auth           AuthConfig    `yaml:"auth,omitempty"`

	// Delivery settings
	SkipDead         bool `yaml:"skip_dead"`
	CancelOnShutdown bool `yaml:"cancel_on_shutdown"`

	// Output settings
	OutputFormat string `yaml:"output_format"` // text, json
	LogLevel     string `yaml:"log_level"`     // error, warn, info, debug
}

// Default configuration values.
const (
	// DefaultCacheTTL is the default time-to-live for cached entries.
	DefaultCacheTTL = 24 * time.Hour

	// DefaultMemoryEntries is the default capacity of the in-memory cache.
	DefaultMemoryEntries = 256

	// DefaultHTTPTimeout is the default time to wait for response headers.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultConnectTimeout is the default dial timeout.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultMaxConcurrent is the default size of the dispatch pool.
	DefaultMaxConcurrent = 8

	// DefaultRetryAttempts is the default number of retries after the first attempt.
	DefaultRetryAttempts = 5

	// DefaultRetryBackoff is the default initial retry interval.
	DefaultRetryBackoff = 250 * time.Millisecond

	// DefaultRetryMaxBackoff caps the retry interval.
	DefaultRetryMaxBackoff = 10 * time.Second

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	cacheDir, err := fsutil.GetCacheDir()
	if err != nil {
		// Fallback to temp directory if we can't determine the user cache dir
		cacheDir = filepath.Join(os.TempDir(), fsutil.AppName)
	}

	return &Config{
		Settings: Settings{
			CacheDir:       cacheDir,
			CacheTTL:       DefaultCacheTTL,
			MemoryEntries:  DefaultMemoryEntries,
			HTTPTimeout:    DefaultHTTPTimeout,
			ConnectTimeout: DefaultConnectTimeout,
			MaxConcurrent:  DefaultMaxConcurrent,
			Retry: RetryConfig{
				Attempts:   DefaultRetryAttempts,
				Backoff:    DefaultRetryBackoff,
				MaxBackoff: DefaultRetryMaxBackoff,
			},
			OutputFormat: "text",
			LogLevel:     "info",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	// Validate the config file path
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	// Ensure the path is clean and absolute
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
// Keys absent from the document keep their default values.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigValidation, err.Error())
	}

	return config, nil
}

// SaveConfig saves configuration to a file.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := fsutil.EnsureDirMode(filepath.Dir(absPath), fsutil.DirModePrivate); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	tempPath := absPath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}

	_ = encoder.Close()
	_ = file.Close()

	// Atomically replace the config file
	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigFileRename, err.Error())
	}

	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfigMarshal, err.Error())
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	return validateSettings(c.Settings)
}

func validateSettings(s Settings) error {
	if s.HTTPTimeout < 0 {
		return errors.ErrHTTPTimeoutNegative
	}
	if s.ConnectTimeout < 0 {
		return errors.ErrConnectTimeoutInvalid
	}
	if s.CacheTTL < 0 {
		return errors.ErrCacheTTLNegative
	}
	if s.MemoryEntries < 1 {
		return errors.ErrMemoryEntriesInvalid
	}
	if s.MaxConcurrent < 1 {
		return errors.ErrMaxConcurrentInvalid
	}
	if s.Retry.Attempts < 0 {
		return errors.ErrRetryAttemptsNegative
	}
	if s.Retry.Backoff < 0 || s.Retry.MaxBackoff < 0 {
		return errors.ErrRetryBackoffNegative
	}
	if _, err := s.Auth.Authenticator(); err != nil {
		return err
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[s.OutputFormat] {
		return errors.ErrInvalidOutputFormatWithDetails(s.OutputFormat)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return errors.ErrInvalidLogLevelWithDetails(s.LogLevel)
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	path, err := fsutil.GetConfigPath()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user config directory")
	}
	return path, nil
}

// GetCacheDir returns the cache directory from settings.
func (c *Config) GetCacheDir() string {
	return c.Settings.CacheDir
}

// applyDefaults fills in values that were explicitly emptied in the file.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Settings.CacheDir == "" {
		c.Settings.CacheDir = defaults.Settings.CacheDir
	}
	if c.Settings.MemoryEntries == 0 {
		c.Settings.MemoryEntries = defaults.Settings.MemoryEntries
	}
	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = defaults.Settings.HTTPTimeout
	}
	if c.Settings.ConnectTimeout == 0 {
		c.Settings.ConnectTimeout = defaults.Settings.ConnectTimeout
	}
	if c.Settings.MaxConcurrent == 0 {
		c.Settings.MaxConcurrent = defaults.Settings.MaxConcurrent
	}
	if c.Settings.OutputFormat == "" {
		c.Settings.OutputFormat = defaults.Settings.OutputFormat
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
}
