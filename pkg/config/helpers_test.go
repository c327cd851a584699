package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/fetchcache/pkg/errors"
)

func TestSetValue(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		check   func(t *testing.T, s Settings)
		wantErr error
	}{
		{
			key:   "cache_dir",
			value: "/var/cache/fetchcache",
			check: func(t *testing.T, s Settings) { assert.Equal(t, "/var/cache/fetchcache", s.CacheDir) },
		},
		{
			key:   "cache_ttl",
			value: "90m",
			check: func(t *testing.T, s Settings) { assert.Equal(t, 90*time.Minute, s.CacheTTL) },
		},
		{
			key:   "retry.attempts",
			value: "3",
			check: func(t *testing.T, s Settings) { assert.Equal(t, 3, s.Retry.Attempts) },
		},
		{
			key:   "retry.max_backoff",
			value: "2s",
			check: func(t *testing.T, s Settings) { assert.Equal(t, 2*time.Second, s.Retry.MaxBackoff) },
		},
		{
			key:   "skip_dead",
			value: "true",
			check: func(t *testing.T, s Settings) { assert.True(t, s.SkipDead) },
		},
		{
			key:     "skip_dead",
			value:   "maybe",
			wantErr: errors.ErrInvalidBoolValue,
		},
		{
			key:     "memory_entries",
			value:   "lots",
			wantErr: errors.ErrInvalidIntValue,
		},
		{
			key:     "http_timeout",
			value:   "soon",
			wantErr: errors.ErrInvalidDurationValue,
		},
		{
			key:     "color_output",
			value:   "true",
			wantErr: errors.ErrUnknownConfigKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := DefaultConfig()
			err := cfg.SetValue(tt.key, tt.value)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg.Settings)
		})
	}
}

func TestGetValue(t *testing.T) {
	cfg := DefaultConfig()

	v, err := cfg.GetValue("retry.backoff")
	require.NoError(t, err)
	assert.Equal(t, "250ms", v)

	v, err = cfg.GetValue("cancel_on_shutdown")
	require.NoError(t, err)
	assert.Equal(t, "false", v)

	_, err = cfg.GetValue("nope")
	assert.ErrorIs(t, err, errors.ErrUnknownConfigKey)
}

func TestSetThenGetRoundTripsEveryKey(t *testing.T) {
	cfg := DefaultConfig()
	for _, key := range Keys() {
		v, err := cfg.GetValue(key)
		require.NoError(t, err, key)
		require.NoError(t, cfg.SetValue(key, v), key)
	}
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestToMap(t *testing.T) {
	m := DefaultConfig().ToMap()
	assert.Len(t, m, len(Keys()))
	assert.Equal(t, "8", m["max_concurrent"])
	assert.Equal(t, "info", m["log_level"])
	assert.Empty(t, m["auth.token"])
}

func TestToMap_RedactsSecrets(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.SetValue("auth.type", "bearer"))
	require.NoError(t, cfg.SetValue("auth.token", "s3cret"))

	m := cfg.ToMap()
	assert.Equal(t, "bearer", m["auth.type"])
	assert.Equal(t, redacted, m["auth.token"])

	v, err := cfg.GetValue("auth.token")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v, "GetValue returns the stored secret")
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "FETCHCACHE_CACHE_DIR", EnvName("cache_dir"))
	assert.Equal(t, "FETCHCACHE_RETRY_MAX_BACKOFF", EnvName("retry.max_backoff"))
	assert.Equal(t, "FETCHCACHE_AUTH_TOKEN", EnvName("auth.token"))
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("FETCHCACHE_LOG_LEVEL", "debug")
	t.Setenv("FETCHCACHE_RETRY_ATTEMPTS", "2")
	t.Setenv("FETCHCACHE_CANCEL_ON_SHUTDOWN", "1")

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, "debug", cfg.Settings.LogLevel)
	assert.Equal(t, 2, cfg.Settings.Retry.Attempts)
	assert.True(t, cfg.Settings.CancelOnShutdown)
}

func TestApplyEnv_Invalid(t *testing.T) {
	t.Run("unparsable", func(t *testing.T) {
		t.Setenv("FETCHCACHE_MAX_CONCURRENT", "many")
		err := DefaultConfig().ApplyEnv()
		assert.ErrorIs(t, err, errors.ErrInvalidIntValue)
		assert.Contains(t, err.Error(), "FETCHCACHE_MAX_CONCURRENT")
	})

	t.Run("fails validation", func(t *testing.T) {
		t.Setenv("FETCHCACHE_MAX_CONCURRENT", "0")
		err := DefaultConfig().ApplyEnv()
		assert.ErrorIs(t, err, errors.ErrConfigValidation)
	})
}
