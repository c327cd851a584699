package transport

import (
	"crypto/tls"
	"time"

	"github.com/glorpus-work/fetchcache/pkg/auth"
)

// Options configures the HTTP transport.
type Options struct {
	// ConnectTimeout bounds dialing and the TLS handshake.
	// Default: 10s
	ConnectTimeout time.Duration

	// ResponseTimeout bounds the wait for response headers after the request is written.
	// Default: 30s
	ResponseTimeout time.Duration

	// RetryAttempts is the maximum number of retries after the first attempt.
	// Default: 5
	RetryAttempts int

	// RetryBackoff is the initial backoff duration.
	// Default: 250ms
	RetryBackoff time.Duration

	// RetryMaxBackoff is the maximum backoff duration.
	// Default: 10s
	RetryMaxBackoff time.Duration

	// UserAgent is sent with every request. Default: DefaultUserAgent().
	UserAgent string

	// TLSConfig replaces the default TLS settings, e.g. with a pinned CA.
	TLSConfig *tls.Config

	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 16
	MaxIdleConnsPerHost int

	// MaxBodyBytes bounds both the bytes read off the wire and the decoded body size.
	// Zero means unlimited.
	MaxBodyBytes int64

	// Auth adds credentials to every request. Nil sends none.
	Auth auth.Authenticator
}

// DefaultOptions returns options with the library defaults.
func DefaultOptions() Options {
	return Options{
		ConnectTimeout:      10 * time.Second,
		ResponseTimeout:     30 * time.Second,
		RetryAttempts:       5,
		RetryBackoff:        250 * time.Millisecond,
		RetryMaxBackoff:     10 * time.Second,
		UserAgent:           DefaultUserAgent(),
		MaxIdleConnsPerHost: 16,
	}
}

// withDefaults fills zero fields from DefaultOptions. RetryAttempts is kept as given so zero disables retries.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = d.ConnectTimeout
	}
	if o.ResponseTimeout <= 0 {
		o.ResponseTimeout = d.ResponseTimeout
	}
	if o.RetryAttempts < 0 {
		o.RetryAttempts = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = d.RetryBackoff
	}
	if o.RetryMaxBackoff <= 0 {
		o.RetryMaxBackoff = d.RetryMaxBackoff
	}
	if o.RetryMaxBackoff < o.RetryBackoff {
		o.RetryMaxBackoff = o.RetryBackoff
	}
	if o.UserAgent == "" {
		o.UserAgent = d.UserAgent
	}
	if o.MaxIdleConnsPerHost <= 0 {
		o.MaxIdleConnsPerHost = d.MaxIdleConnsPerHost
	}
	return o
}
