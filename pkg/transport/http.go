// Package transport fetches resources over HTTP for the download coordinator.
//
// Each fetch runs on its own goroutine and reports through a completion callback
// that is invoked exactly once. Transport failures and 5xx responses are retried
// with exponential backoff; other non-2xx responses fail immediately. Compressed
// bodies (gzip, br, zstd) are decoded before they are returned.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/glorpus-work/fetchcache/internal/logger"
	"github.com/glorpus-work/fetchcache/pkg/errors"
	"github.com/glorpus-work/fetchcache/pkg/request"
)

// Request is what the transport needs to know about a fetch.
type Request struct {
	URL     string
	Headers []request.Header
}

// Result is the outcome of one fetch. Err is nil only for a 2xx response.
// Body holds whatever was read, including the body of an error response.
type Result struct {
	StatusCode  int
	ContentType string
	Body        []byte
	Attempts    int
	Err         error
}

// HTTP is a transport backed by net/http.
type HTTP struct {
	client *http.Client
	opts   Options
}

// NewHTTP creates an HTTP transport. Zero option fields take their defaults.
func NewHTTP(opts Options) *HTTP {
	opts = opts.withDefaults()

	dialer := &net.Dialer{
		Timeout:   opts.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSClientConfig:       opts.TLSConfig,
		TLSHandshakeTimeout:   opts.ConnectTimeout,
		ResponseHeaderTimeout: opts.ResponseTimeout,
		MaxIdleConnsPerHost:   opts.MaxIdleConnsPerHost,
		MaxIdleConns:          opts.MaxIdleConnsPerHost * 2,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
		// Content-Encoding is decoded by this package since requests set Accept-Encoding themselves.
		DisableCompression: true,
	}

	return &HTTP{
		client: &http.Client{Transport: tr},
		opts:   opts,
	}
}

// Options returns the effective options.
func (h *HTTP) Options() Options {
	return h.opts
}

// Fetch starts req on a new goroutine and calls done with the result.
func (h *HTTP) Fetch(ctx context.Context, req Request, done func(Result)) {
	go func() {
		done(h.Do(ctx, req))
	}()
}

// Do performs req synchronously, retrying as configured.
func (h *HTTP) Do(ctx context.Context, req Request) Result {
	var last Result

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = h.opts.RetryBackoff
	b.MaxInterval = h.opts.RetryMaxBackoff
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(h.opts.RetryAttempts)), ctx)

	attempt := 0
	op := func() error {
		attempt++
		last = h.once(ctx, req)
		last.Attempts = attempt
		if last.Err == nil {
			return nil
		}
		if !retryable(ctx, last) {
			return backoff.Permanent(last.Err)
		}
		return last.Err
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("retrying fetch", logger.Fields{
			"url":     req.URL,
			"attempt": attempt,
			"wait":    wait.String(),
			"error":   err.Error(),
		})
	}

	// The final attempt's outcome is already in last.
	_ = backoff.RetryNotify(op, policy, notify)
	return last
}

func (h *HTTP) once(ctx context.Context, req Request) Result {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, http.NoBody)
	if err != nil {
		return Result{Err: errors.Join(errors.ErrTransport, err)}
	}
	for _, hdr := range req.Headers {
		httpReq.Header.Add(hdr.Name, hdr.Value)
	}
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", h.opts.UserAgent)
	}
	if h.opts.Auth != nil {
		if err := h.opts.Auth.Apply(httpReq); err != nil {
			return Result{Err: errors.Join(errors.ErrAuth, err)}
		}
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return Result{Err: errors.Join(errors.ErrTransport, err)}
	}
	defer resp.Body.Close()

	res := Result{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}

	body, err := h.readBody(resp)
	res.Body = body
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		res.Err = errors.Wrapf(errors.ErrUnexpectedStatus, "%s returned %d", req.URL, resp.StatusCode)
		return res
	}
	if err != nil {
		res.Err = errors.Join(errors.ErrTransport, err)
	}
	return res
}

// readBody reads and decodes the response body. On error it returns the bytes read so far.
func (h *HTTP) readBody(resp *http.Response) ([]byte, error) {
	var wire io.Reader = resp.Body
	if h.opts.MaxBodyBytes > 0 {
		wire = io.LimitReader(resp.Body, h.opts.MaxBodyBytes+1)
	}
	raw, err := io.ReadAll(wire)
	if h.opts.MaxBodyBytes > 0 && int64(len(raw)) > h.opts.MaxBodyBytes {
		return raw[:h.opts.MaxBodyBytes], errors.Wrapf(errors.ErrTransport, "response exceeds %d bytes on the wire", h.opts.MaxBodyBytes)
	}
	if err != nil {
		return raw, errors.Wrap(err, "failed to read response body")
	}

	rc, err := decodeBody(resp.Header.Get("Content-Encoding"), bytes.NewReader(raw))
	if err != nil {
		return raw, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if h.opts.MaxBodyBytes > 0 {
		r = io.LimitReader(rc, h.opts.MaxBodyBytes+1)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return body, errors.Wrap(err, "failed to decode response body")
	}
	if h.opts.MaxBodyBytes > 0 && int64(len(body)) > h.opts.MaxBodyBytes {
		return body[:h.opts.MaxBodyBytes], errors.Wrapf(errors.ErrTransport, "body exceeds %d bytes", h.opts.MaxBodyBytes)
	}
	return body, nil
}

// retryable reports whether a failed attempt may succeed if repeated.
func retryable(ctx context.Context, res Result) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(res.Err, errors.ErrAuth) {
		return false
	}
	if res.StatusCode == 0 {
		var certErr *tls.CertificateVerificationError
		return !errors.As(res.Err, &certErr) && !errors.Is(res.Err, errors.ErrCertificateChain)
	}
	return res.StatusCode >= 500 || res.StatusCode == http.StatusTooManyRequests || res.StatusCode == http.StatusRequestTimeout
}
