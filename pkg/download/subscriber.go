package download

import (
	"github.com/glorpus-work/fetchcache/pkg/request"
)

// SubscriberFuncs adapts plain functions to Subscriber. A nil Alive means always alive;
// nil callbacks are skipped.
type SubscriberFuncs[E, M any] struct {
	Alive   func() bool
	Success func(value E, req *request.Request[M])
	Failure func(value E, req *request.Request[M], err error)
}

// IsAlive implements Subscriber.
func (f SubscriberFuncs[E, M]) IsAlive() bool {
	if f.Alive == nil {
		return true
	}
	return f.Alive()
}

// OnSuccess implements Subscriber.
func (f SubscriberFuncs[E, M]) OnSuccess(value E, req *request.Request[M]) {
	if f.Success != nil {
		f.Success(value, req)
	}
}

// OnFailure implements Subscriber.
func (f SubscriberFuncs[E, M]) OnFailure(value E, req *request.Request[M], err error) {
	if f.Failure != nil {
		f.Failure(value, req, err)
	}
}

// binding pairs a subscriber with the request it dispatched, so a coalesced
// outcome reaches every subscriber together with its own request.
type binding[E, M any] struct {
	coord *Coordinator[E, M]
	sub   Subscriber[E, M]
	req   *request.Request[M]
}

func (b *binding[E, M]) OnSuccess(value E) {
	b.coord.deliver(b.sub, b.req, value, nil)
}

func (b *binding[E, M]) OnFailure(value E, err error) {
	b.coord.deliver(b.sub, b.req, value, err)
}
