// Package errors defines the sentinel errors shared by fetchcache packages and
// small helpers for wrapping them with context. Callers match categories with
// the standard library's errors.Is / errors.As.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Request and coordination errors.
var (
	ErrEmptyURL      = fmt.Errorf("url cannot be empty")
	ErrNilRequest    = fmt.Errorf("request cannot be nil")
	ErrNilSubscriber = fmt.Errorf("subscriber cannot be nil")
	ErrNilCache      = fmt.Errorf("cache cannot be nil")
	ErrNilTransport  = fmt.Errorf("transport cannot be nil")
	ErrShutdown      = fmt.Errorf("coordinator is shut down")
	ErrPoolClosed    = fmt.Errorf("dispatch pool is closed")
)

// Fetch outcome errors. Every failed fetch carries exactly one of these categories.
var (
	// ErrTransport is the category for network, IO and protocol failures.
	ErrTransport = fmt.Errorf("transport failed")

	// ErrUnexpectedStatus is returned by the HTTP transport for non-2xx responses.
	ErrUnexpectedStatus = fmt.Errorf("unexpected status code")

	// ErrEmptyBody is returned when a fetch succeeded but produced no payload.
	ErrEmptyBody = fmt.Errorf("response body is empty or cannot be converted to a value")

	// ErrTransform is the category for payloads that could not be converted.
	ErrTransform = fmt.Errorf("transform failed")

	// ErrNoTransform is returned when no transform is registered for the request kind.
	ErrNoTransform = fmt.Errorf("no transform registered for request kind")

	// ErrDecode is returned when image bytes cannot be decoded into the requested format.
	ErrDecode = fmt.Errorf("image decode failed")

	// ErrImageTooLarge is returned when a decoded image would exceed the memory budget.
	ErrImageTooLarge = fmt.Errorf("image exceeds memory budget")

	// ErrParse is returned when a structured payload cannot be parsed.
	ErrParse = fmt.Errorf("parse failed")

	// ErrUnexpectedContentType is returned when the response content type is not allowed.
	ErrUnexpectedContentType = fmt.Errorf("unexpected content type")

	// ErrStoreFailed is returned when a fetched payload could not be persisted to the cache.
	ErrStoreFailed = fmt.Errorf("unable to store bytes into cache")
)

// Cache errors.
var (
	ErrCacheDirectory = fmt.Errorf("cache directory cannot be empty")
	ErrCacheFormat    = fmt.Errorf("unsupported cache entry format")
	ErrNoDecoder      = fmt.Errorf("cache decoder cannot be nil")
)

// Authentication errors.
var (
	ErrAuth            = fmt.Errorf("request authentication failed")
	ErrUnknownAuthType = fmt.Errorf("unknown authentication type")
	ErrAuthCredentials = fmt.Errorf("missing authentication credentials")
)

// TLS pinning errors.
var (
	ErrNoPinnedCertificate = fmt.Errorf("no pinned certificate found")
	ErrCertificateChain    = fmt.Errorf("certificate chain is invalid")
)

// Config errors.
var (
	ErrEmptyConfigPath       = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath     = fmt.Errorf("invalid config file path")
	ErrConfigParse           = fmt.Errorf("failed to parse config")
	ErrConfigValidation      = fmt.Errorf("invalid configuration")
	ErrConfigEncode          = fmt.Errorf("failed to encode config")
	ErrConfigDirectory       = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate      = fmt.Errorf("failed to create config file")
	ErrConfigFileRename      = fmt.Errorf("failed to rename temporary config file")
	ErrConfigFileExists      = fmt.Errorf("configuration file already exists")
	ErrConfigMarshal         = fmt.Errorf("failed to marshal config to YAML")
	ErrUnknownConfigKey      = fmt.Errorf("unknown configuration key")
	ErrInvalidBoolValue      = fmt.Errorf("invalid boolean value")
	ErrHTTPTimeoutNegative   = fmt.Errorf("http_timeout cannot be negative")
	ErrCacheTTLNegative      = fmt.Errorf("cache_ttl cannot be negative")
	ErrMaxConcurrentInvalid  = fmt.Errorf("max_concurrent must be at least 1")
	ErrRetryAttemptsNegative = fmt.Errorf("retry.attempts cannot be negative")
	ErrInvalidOutputFormat   = fmt.Errorf("invalid output format")
	ErrInvalidLogLevel       = fmt.Errorf("invalid log level")
	ErrInvalidIntValue       = fmt.Errorf("invalid integer value")
	ErrInvalidDurationValue  = fmt.Errorf("invalid duration value")
	ErrConnectTimeoutInvalid = fmt.Errorf("connect_timeout cannot be negative")
	ErrMemoryEntriesInvalid  = fmt.Errorf("memory_entries must be at least 1")
	ErrRetryBackoffNegative  = fmt.Errorf("retry.backoff and retry.max_backoff cannot be negative")
)

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Join attaches a category sentinel to a concrete cause so that both match errors.Is.
func Join(category, cause error) error {
	if cause == nil {
		return category
	}
	return fmt.Errorf("%w: %w", category, cause)
}

// ErrInvalidOutputFormatWithDetails is a helper to create a wrapped error with the invalid format and valid options.
func ErrInvalidOutputFormatWithDetails(format string) error {
	return fmt.Errorf("%w: '%s', must be one of: text, json", ErrInvalidOutputFormat, format)
}

// ErrInvalidLogLevelWithDetails is a helper to create a wrapped error with the invalid level and valid options.
func ErrInvalidLogLevelWithDetails(level string) error {
	return fmt.Errorf("%w: '%s', must be one of: error, warn, info, debug", ErrInvalidLogLevel, level)
}

// ErrUnknownConfigKeyWithName is a helper to create a wrapped error naming the unknown key.
func ErrUnknownConfigKeyWithName(key string) error {
	return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
}
