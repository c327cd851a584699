// Package coalesce groups concurrent subscribers waiting on the same URL so that
// a single completion is fanned out to all of them.
package coalesce

import (
	"fmt"
	"sync"

	"github.com/glorpus-work/fetchcache/internal/logger"
	"github.com/glorpus-work/fetchcache/pkg/errors"
)

// Subscriber receives the terminal outcome of a coalesced fetch.
type Subscriber[V any] interface {
	OnSuccess(value V)
	OnFailure(value V, err error)
}

// Outcome is the result of one completed fetch. A nil Err means success.
type Outcome[V any] struct {
	Value V
	Err   error
}

// Success builds a successful outcome.
func Success[V any](value V) Outcome[V] {
	return Outcome[V]{Value: value}
}

// Failure builds a failed outcome.
func Failure[V any](value V, err error) Outcome[V] {
	return Outcome[V]{Value: value, Err: err}
}

// Registry maps a URL to the subscribers waiting on its in-flight fetch.
// A group exists from its first subscription until Complete detaches it.
type Registry[V any] struct {
	mu     sync.Mutex
	groups map[string][]Subscriber[V]
}

// New creates an empty registry.
func New[V any]() *Registry[V] {
	return &Registry[V]{
		groups: make(map[string][]Subscriber[V]),
	}
}

// Subscribe adds s to the group for url. isFirst reports whether the group was
// created by this call, in which case the caller must start the fetch.
func (r *Registry[V]) Subscribe(url string, s Subscriber[V]) (bool, error) {
	if url == "" {
		return false, errors.ErrEmptyURL
	}
	if s == nil {
		return false, errors.ErrNilSubscriber
	}

	r.mu.Lock()
	group, exists := r.groups[url]
	r.groups[url] = append(group, s)
	size := len(group) + 1
	r.mu.Unlock()

	if !exists {
		logger.Debug("created coalescing group", logger.Fields{"url": url})
	} else {
		logger.Debug("joined coalescing group", logger.Fields{"url": url, "subscribers": size})
	}
	return !exists, nil
}

// Complete removes the group for url and delivers out to every subscriber that was in it.
// Subscribers that arrive afterwards start a new group. It returns the number notified.
func (r *Registry[V]) Complete(url string, out Outcome[V]) int {
	r.mu.Lock()
	group, exists := r.groups[url]
	delete(r.groups, url)
	r.mu.Unlock()

	if !exists {
		return 0
	}

	logger.Debug("fanning out outcome", logger.Fields{
		"url":         url,
		"subscribers": len(group),
		"success":     out.Err == nil,
	})

	for _, s := range group {
		deliver(url, s, out)
	}
	return len(group)
}

// InFlight returns the number of URLs with an open group.
func (r *Registry[V]) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.groups)
}

// Pending returns the number of subscribers waiting on url.
func (r *Registry[V]) Pending(url string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.groups[url])
}

func deliver[V any](url string, s Subscriber[V], out Outcome[V]) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("subscriber callback panicked", logger.Fields{
				"url":   url,
				"panic": fmt.Sprint(rec),
			})
		}
	}()

	if out.Err == nil {
		s.OnSuccess(out.Value)
		return
	}
	s.OnFailure(out.Value, out.Err)
}
