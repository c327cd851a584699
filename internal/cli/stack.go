package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/glorpus-work/fetchcache/internal/logger"
	"github.com/glorpus-work/fetchcache/pkg/cache"
	"github.com/glorpus-work/fetchcache/pkg/config"
	"github.com/glorpus-work/fetchcache/pkg/download"
	"github.com/glorpus-work/fetchcache/pkg/errors"
	"github.com/glorpus-work/fetchcache/pkg/pool"
	"github.com/glorpus-work/fetchcache/pkg/request"
	"github.com/glorpus-work/fetchcache/pkg/tlspin"
	"github.com/glorpus-work/fetchcache/pkg/transform"
	"github.com/glorpus-work/fetchcache/pkg/transport"
)

// stack is everything a fetch needs, built from one configuration. Each request kind has its
// own coordinator and cache namespace, so a URL fetched as one kind is never served as another.
type stack struct {
	pool         *pool.Bounded
	coordinators map[request.Kind]*download.Coordinator[any, int]
}

// decodeEntry rebuilds a cached value of kind by running its transform. Entries recorded
// under another kind are rejected, which makes them cache misses.
func decodeEntry(kind request.Kind, transforms transform.Set[any]) cache.DecodeFunc[any] {
	return func(body []byte, meta cache.Meta) (any, error) {
		if meta.Kind != kind.String() {
			return nil, errors.Wrapf(errors.ErrCacheFormat, "entry for %s is %q, want %s", meta.URL, meta.Kind, kind)
		}
		t, ok := transforms.For(kind)
		if !ok {
			return nil, errors.Wrapf(errors.ErrNoTransform, "%s", kind)
		}
		format := request.PreferredFormat()
		if meta.Format != "" {
			if f, err := request.ParseFormat(meta.Format); err == nil {
				format = f
			}
		}
		return t.Convert(transform.Input{
			Body:        body,
			ContentType: meta.ContentType,
			Format:      format,
		})
	}
}

// kindDir is the disk namespace of kind below the configured cache directory.
func kindDir(cfg *config.Config, kind request.Kind) string {
	return filepath.Join(cfg.Settings.CacheDir, kind.String())
}

func newDiskEngine(cfg *config.Config, kind request.Kind, transforms transform.Set[any]) (*cache.DiskEngine[any], error) {
	return cache.NewDiskEngine(kindDir(cfg, kind), cfg.Settings.CacheTTL, decodeEntry(kind, transforms))
}

// newCacheManager exposes every kind's disk namespace as one cache.
func newCacheManager(cfg *config.Config) (*cache.Composite, error) {
	transforms := transform.Default()
	managers := make([]cache.Manager, 0, len(request.Kinds()))
	for _, kind := range request.Kinds() {
		disk, err := newDiskEngine(cfg, kind, transforms)
		if err != nil {
			return nil, err
		}
		managers = append(managers, disk)
	}
	return cache.NewComposite(cfg.Settings.CacheDir, managers...), nil
}

func newTransport(cfg *config.Config) (*transport.HTTP, error) {
	opts := transport.Options{
		ConnectTimeout:  cfg.Settings.ConnectTimeout,
		ResponseTimeout: cfg.Settings.HTTPTimeout,
		RetryAttempts:   cfg.Settings.Retry.Attempts,
		RetryBackoff:    cfg.Settings.Retry.Backoff,
		RetryMaxBackoff: cfg.Settings.Retry.MaxBackoff,
		UserAgent:       cfg.Settings.UserAgent,
	}

	if cfg.Settings.PinnedCAFile != "" {
		tlsConfig, err := tlspin.ConfigFromFile(cfg.Settings.PinnedCAFile, tlspin.Options{})
		if err != nil {
			return nil, err
		}
		opts.TLSConfig = tlsConfig
		logger.Debug("Using pinned CA", logger.Fields{"file": cfg.Settings.PinnedCAFile})
	}

	authenticator, err := cfg.Settings.Auth.Authenticator()
	if err != nil {
		return nil, err
	}
	if authenticator != nil {
		opts.Auth = authenticator
		logger.Debug("Authenticating requests", logger.Fields{"type": string(authenticator.Type())})
	}

	return transport.NewHTTP(opts), nil
}

// newStack wires transport, pool and one coordinator with its tiered cache per kind. Fetches inherit ctx.
func newStack(ctx context.Context, cfg *config.Config) (*stack, error) {
	transforms := transform.Default()

	httpTransport, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}

	st := &stack{
		pool:         pool.NewBounded(cfg.Settings.MaxConcurrent),
		coordinators: make(map[request.Kind]*download.Coordinator[any, int]),
	}
	for _, kind := range request.Kinds() {
		t, ok := transforms.For(kind)
		if !ok {
			return nil, errors.Wrapf(errors.ErrNoTransform, "%s", kind)
		}

		disk, err := newDiskEngine(cfg, kind, transforms)
		if err != nil {
			return nil, err
		}
		memory, err := cache.NewMemoryEngine(cfg.Settings.MemoryEntries, cfg.Settings.CacheTTL, decodeEntry(kind, transforms))
		if err != nil {
			return nil, err
		}

		coordinator, err := download.New[any, int](
			cache.NewTiered[any](memory, disk),
			httpTransport,
			transform.NewSet(t),
			download.WithPool(st.pool),
			download.WithContext(ctx),
			download.WithSkipDead(cfg.Settings.SkipDead),
			download.WithCancelOnShutdown(cfg.Settings.CancelOnShutdown),
		)
		if err != nil {
			return nil, err
		}
		st.coordinators[kind] = coordinator
	}

	return st, nil
}

// coordinator returns the coordinator serving kind.
func (s *stack) coordinator(kind request.Kind) *download.Coordinator[any, int] {
	return s.coordinators[kind]
}

// close shuts the coordinator down and waits for pending deliveries and GC, at most timeout.
func (s *stack) close(timeout time.Duration) {
	for _, c := range s.coordinators {
		c.Shutdown()
	}

	done := make(chan struct{})
	go func() {
		s.pool.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		logger.Warn("Timed out waiting for background tasks", logger.Fields{"timeout": timeout.String()})
	}
	s.pool.Close()
}
