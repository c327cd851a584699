package download

import (
	"context"

	"github.com/glorpus-work/fetchcache/pkg/cache"
	"github.com/glorpus-work/fetchcache/pkg/request"
	"github.com/glorpus-work/fetchcache/pkg/transport"
)

//go:generate mockgen -destination=./mocks/interfaces.go -package=mocks -source=interfaces.go

// Cache is consulted before every fetch and written after every successful transform.
type Cache[E any] interface {
	Get(url string) (E, bool)
	// Store persists body and returns the entry that will be handed to subscribers.
	Store(url string, body []byte) (E, error)
	RunGC()
}

// ValueStorer is implemented by caches that can keep an already transformed value,
// sparing a second conversion of the same bytes.
type ValueStorer[E any] interface {
	StoreEntry(entry cache.Entry[E]) (E, error)
}

// Transport performs fetches. done must be called exactly once per Fetch.
type Transport interface {
	Fetch(ctx context.Context, req transport.Request, done func(transport.Result))
}

// Pool runs delivery and maintenance tasks.
type Pool interface {
	Submit(task func())
}

// Subscriber is a caller waiting on a request. Exactly one of OnSuccess or OnFailure
// is invoked per dispatch.
type Subscriber[E, M any] interface {
	// IsAlive reports whether the subscriber still wants a result.
	IsAlive() bool
	OnSuccess(value E, req *request.Request[M])
	OnFailure(value E, req *request.Request[M], err error)
}
