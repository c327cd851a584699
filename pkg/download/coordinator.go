// Package download coordinates cache lookups, coalesced fetches and result delivery.
//
// A Coordinator serves each dispatched request from its cache when it can. On a miss the
// request joins the coalescing group for its URL; only the first member of a group starts
// a fetch. The fetched bytes are transformed and stored once, and the single outcome is
// delivered to every member of the group.
package download

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/glorpus-work/fetchcache/internal/logger"
	"github.com/glorpus-work/fetchcache/pkg/cache"
	"github.com/glorpus-work/fetchcache/pkg/coalesce"
	"github.com/glorpus-work/fetchcache/pkg/errors"
	"github.com/glorpus-work/fetchcache/pkg/pool"
	"github.com/glorpus-work/fetchcache/pkg/request"
	"github.com/glorpus-work/fetchcache/pkg/transform"
	"github.com/glorpus-work/fetchcache/pkg/transport"
)

// Option configures a Coordinator.
type Option func(*options)

type options struct {
	pool             Pool
	registry         any
	skipDead         bool
	cancelOnShutdown bool
	ctx              context.Context
}

// WithPool runs cache-hit deliveries and shutdown GC on p instead of the caller's goroutine.
func WithPool(p Pool) Option {
	return func(o *options) { o.pool = p }
}

// WithRegistry shares a coalescing registry between coordinators of the same entry type.
func WithRegistry[E any](r *coalesce.Registry[E]) Option {
	return func(o *options) { o.registry = r }
}

// WithSkipDead suppresses callbacks for subscribers that report they are no longer alive.
func WithSkipDead(skip bool) Option {
	return func(o *options) { o.skipDead = skip }
}

// WithCancelOnShutdown cancels in-flight fetches when Shutdown is called.
func WithCancelOnShutdown(cancel bool) Option {
	return func(o *options) { o.cancelOnShutdown = cancel }
}

// WithContext sets the parent context of every fetch.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// Stats counts what a coordinator has done since it was created.
type Stats struct {
	Hits        int64
	Misses      int64
	Fetches     int64
	Coalesced   int64
	Failures    int64
	SkippedDead int64
}

// Coordinator is the entry point for requests. It is safe for concurrent use.
type Coordinator[E, M any] struct {
	cache      Cache[E]
	transport  Transport
	transforms transform.Set[E]
	pool       Pool
	registry   *coalesce.Registry[E]

	skipDead         bool
	cancelOnShutdown bool
	ctx              context.Context
	cancel           context.CancelFunc
	closed           atomic.Bool

	hits, misses, fetches, coalesced, failures, skippedDead atomic.Int64
}

// New creates a coordinator. Without WithPool, cache hits are delivered on the caller's goroutine.
func New[E, M any](c Cache[E], t Transport, transforms transform.Set[E], opts ...Option) (*Coordinator[E, M], error) {
	if c == nil {
		return nil, errors.ErrNilCache
	}
	if t == nil {
		return nil, errors.ErrNilTransport
	}

	o := options{ctx: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}

	registry := coalesce.New[E]()
	if o.registry != nil {
		r, ok := o.registry.(*coalesce.Registry[E])
		if !ok {
			return nil, fmt.Errorf("registry type %T does not match coordinator entry type", o.registry)
		}
		registry = r
	}
	if o.pool == nil {
		o.pool = pool.Inline{}
	}

	ctx, cancel := context.WithCancel(o.ctx)
	return &Coordinator[E, M]{
		cache:            c,
		transport:        t,
		transforms:       transforms,
		pool:             o.pool,
		registry:         registry,
		skipDead:         o.skipDead,
		cancelOnShutdown: o.cancelOnShutdown,
		ctx:              ctx,
		cancel:           cancel,
	}, nil
}

// Dispatch serves req from the cache or joins the in-flight fetch for its URL.
// Validation errors are returned synchronously and nothing is delivered for them;
// every other outcome reaches sub through exactly one of its callbacks.
func (c *Coordinator[E, M]) Dispatch(req *request.Request[M], sub Subscriber[E, M]) error {
	switch {
	case req == nil:
		return errors.ErrNilRequest
	case req.URL == "":
		return errors.ErrEmptyURL
	case sub == nil:
		return errors.ErrNilSubscriber
	case c.closed.Load():
		return errors.ErrShutdown
	}

	if v, ok := c.cache.Get(req.URL); ok {
		c.hits.Add(1)
		logger.Debug("cache hit", logger.Fields{"url": req.URL})
		c.pool.Submit(func() { c.deliverCached(sub, req, v) })
		return nil
	}
	c.misses.Add(1)
	logger.Debug("cache miss", logger.Fields{"url": req.URL})

	first, err := c.registry.Subscribe(req.URL, &binding[E, M]{coord: c, sub: sub, req: req})
	if err != nil {
		return err
	}
	if !first {
		c.coalesced.Add(1)
		return nil
	}

	c.fetches.Add(1)
	c.transport.Fetch(c.ctx, transport.Request{URL: req.URL, Headers: req.Headers}, func(res transport.Result) {
		c.complete(req, res)
	})
	return nil
}

// Shutdown stops accepting requests and schedules cache garbage collection.
// In-flight fetches still complete unless the coordinator was built with WithCancelOnShutdown.
func (c *Coordinator[E, M]) Shutdown() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	logger.Debug("shutting down coordinator", logger.Fields{"in_flight": c.registry.InFlight()})
	c.pool.Submit(c.cache.RunGC)
	if c.cancelOnShutdown {
		c.cancel()
	}
}

// Closed reports whether Shutdown has been called.
func (c *Coordinator[E, M]) Closed() bool {
	return c.closed.Load()
}

// InFlight returns the number of URLs currently being fetched.
func (c *Coordinator[E, M]) InFlight() int {
	return c.registry.InFlight()
}

// Stats returns a snapshot of the counters.
func (c *Coordinator[E, M]) Stats() Stats {
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Fetches:     c.fetches.Load(),
		Coalesced:   c.coalesced.Load(),
		Failures:    c.failures.Load(),
		SkippedDead: c.skippedDead.Load(),
	}
}

func (c *Coordinator[E, M]) complete(req *request.Request[M], res transport.Result) {
	out := c.resolve(req, res)
	if out.Err != nil {
		c.failures.Add(1)
	}
	n := c.registry.Complete(req.URL, out)
	logger.Debug("fetch completed", logger.Fields{
		"url":         req.URL,
		"subscribers": n,
		"success":     out.Err == nil,
	})
}

// resolve turns a transport result into the outcome shared by the whole group.
func (c *Coordinator[E, M]) resolve(req *request.Request[M], res transport.Result) coalesce.Outcome[E] {
	var zero E

	if res.Err != nil {
		return coalesce.Failure[E](zero, &TransportError{
			URL:        req.URL,
			StatusCode: res.StatusCode,
			Body:       res.Body,
			Err:        res.Err,
		})
	}
	if len(res.Body) == 0 {
		return coalesce.Failure(zero, errors.ErrEmptyBody)
	}

	t, ok := c.transforms.For(req.Kind)
	if !ok {
		return coalesce.Failure(zero, errors.Join(errors.ErrTransform, errors.Wrapf(errors.ErrNoTransform, "%s", req.Kind)))
	}

	contentType := res.ContentType
	if contentType == "" {
		contentType = req.ContentType
	}
	value, err := convert(t, transform.Input{Body: res.Body, ContentType: contentType, Format: req.Format})
	if err != nil {
		return coalesce.Failure(zero, errors.Join(errors.ErrTransform, err))
	}

	stored, err := c.store(cache.Entry[E]{
		URL:         req.URL,
		Body:        res.Body,
		ContentType: contentType,
		Kind:        req.Kind,
		Format:      req.Format,
		Value:       value,
	})
	if err != nil {
		logger.Debug("store failed", logger.Fields{"url": req.URL, "error": err.Error()})
		return coalesce.Failure(zero, errors.Join(errors.ErrStoreFailed, err))
	}
	return coalesce.Success(stored)
}

func (c *Coordinator[E, M]) store(entry cache.Entry[E]) (E, error) {
	if vs, ok := c.cache.(ValueStorer[E]); ok {
		return vs.StoreEntry(entry)
	}
	return c.cache.Store(entry.URL, entry.Body)
}

// convert runs t, turning a panic into an error so one bad payload cannot take down the process.
func convert[E any](t transform.Transform[E], in transform.Input) (value E, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			var zero E
			value, err = zero, fmt.Errorf("transform panicked: %v", rec)
		}
	}()
	return t.Convert(in)
}

func (c *Coordinator[E, M]) deliverCached(sub Subscriber[E, M], req *request.Request[M], value E) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("subscriber callback panicked", logger.Fields{
				"url":   req.URL,
				"panic": fmt.Sprint(rec),
			})
		}
	}()
	c.deliver(sub, req, value, nil)
}

func (c *Coordinator[E, M]) deliver(sub Subscriber[E, M], req *request.Request[M], value E, err error) {
	if c.skipDead && !sub.IsAlive() {
		c.skippedDead.Add(1)
		logger.Debug("skipping dead subscriber", logger.Fields{"url": req.URL})
		return
	}
	if err != nil {
		sub.OnFailure(value, req, err)
		return
	}
	sub.OnSuccess(value, req)
}
