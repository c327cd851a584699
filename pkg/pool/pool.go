// Package pool provides a bounded executor for delivery callbacks and background maintenance.
package pool

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/glorpus-work/fetchcache/internal/logger"
	"github.com/glorpus-work/fetchcache/pkg/errors"
)

// Bounded runs submitted tasks on goroutines, at most Size at a time.
// Submit never blocks the caller.
type Bounded struct {
	sem  *semaphore.Weighted
	size int64

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewBounded creates a pool running at most size tasks concurrently. size < 1 is treated as 1.
func NewBounded(size int) *Bounded {
	if size < 1 {
		size = 1
	}
	return &Bounded{
		sem:  semaphore.NewWeighted(int64(size)),
		size: int64(size),
	}
}

// Size returns the concurrency limit.
func (p *Bounded) Size() int {
	return int(p.size)
}

// Submit schedules task. After Close, tasks are dropped and ErrPoolClosed is logged.
func (p *Bounded) Submit(task func()) {
	if task == nil {
		return
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		logger.Warn("dropping task", logger.Fields{"error": errors.ErrPoolClosed.Error()})
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		// Acquire only fails for a cancelled context.
		_ = p.sem.Acquire(context.Background(), 1)
		defer p.sem.Release(1)

		defer func() {
			if rec := recover(); rec != nil {
				logger.Errorf("pool task panicked: %v", rec)
			}
		}()
		task()
	}()
}

// Wait blocks until every submitted task has finished.
func (p *Bounded) Wait() {
	p.wg.Wait()
}

// Close stops accepting tasks. Tasks already submitted still run.
func (p *Bounded) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

// Closed reports whether Close has been called.
func (p *Bounded) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Inline runs tasks synchronously on the caller's goroutine.
type Inline struct{}

// Submit runs task immediately.
func (Inline) Submit(task func()) {
	if task != nil {
		task()
	}
}
