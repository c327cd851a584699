package coalesce

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/glorpus-work/fetchcache/pkg/errors"
)

type recorder struct {
	mu        sync.Mutex
	successes []string
	failures  []error
	panicOn   bool
}

func (r *recorder) OnSuccess(v string) {
	if r.panicOn {
		panic("boom")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, v)
}

func (r *recorder) OnFailure(_ string, err error) {
	if r.panicOn {
		panic("boom")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, err)
}

func (r *recorder) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.successes) + len(r.failures)
}

func TestSubscribe_FirstCreatesGroup(t *testing.T) {
	reg := New[string]()

	first, err := reg.Subscribe("a.jpg", &recorder{})
	require.NoError(t, err)
	assert.True(t, first)

	second, err := reg.Subscribe("a.jpg", &recorder{})
	require.NoError(t, err)
	assert.False(t, second)

	other, err := reg.Subscribe("b.json", &recorder{})
	require.NoError(t, err)
	assert.True(t, other)

	assert.Equal(t, 2, reg.InFlight())
	assert.Equal(t, 2, reg.Pending("a.jpg"))
	assert.Equal(t, 1, reg.Pending("b.json"))
	assert.Equal(t, 0, reg.Pending("c.png"))
}

func TestSubscribe_Validation(t *testing.T) {
	reg := New[string]()

	_, err := reg.Subscribe("", &recorder{})
	assert.ErrorIs(t, err, errors.ErrEmptyURL)

	_, err = reg.Subscribe("a.jpg", nil)
	assert.ErrorIs(t, err, errors.ErrNilSubscriber)

	assert.Equal(t, 0, reg.InFlight())
}

func TestComplete_FansOutSuccess(t *testing.T) {
	reg := New[string]()
	subs := []*recorder{{}, {}, {}}
	for _, s := range subs {
		_, err := reg.Subscribe("a.jpg", s)
		require.NoError(t, err)
	}

	n := reg.Complete("a.jpg", Success("pixels"))
	assert.Equal(t, 3, n)

	for _, s := range subs {
		assert.Equal(t, []string{"pixels"}, s.successes)
		assert.Empty(t, s.failures)
	}
	assert.Equal(t, 0, reg.InFlight())
}

func TestComplete_FansOutFailure(t *testing.T) {
	reg := New[string]()
	a, b := &recorder{}, &recorder{}
	_, _ = reg.Subscribe("b.json", a)
	_, _ = reg.Subscribe("b.json", b)

	n := reg.Complete("b.json", Failure("", errors.ErrEmptyBody))
	assert.Equal(t, 2, n)

	for _, s := range []*recorder{a, b} {
		require.Len(t, s.failures, 1)
		assert.ErrorIs(t, s.failures[0], errors.ErrEmptyBody)
		assert.Empty(t, s.successes)
	}
}

func TestComplete_UnknownURLIsNoop(t *testing.T) {
	reg := New[string]()
	assert.Equal(t, 0, reg.Complete("missing", Success("x")))
}

func TestComplete_DeliversOnce(t *testing.T) {
	reg := New[string]()
	s := &recorder{}
	_, _ = reg.Subscribe("a.jpg", s)

	assert.Equal(t, 1, reg.Complete("a.jpg", Success("v1")))
	assert.Equal(t, 0, reg.Complete("a.jpg", Success("v2")))
	assert.Equal(t, []string{"v1"}, s.successes)
}

func TestSubscribe_AfterCompleteStartsNewGroup(t *testing.T) {
	reg := New[string]()
	_, _ = reg.Subscribe("a.jpg", &recorder{})
	reg.Complete("a.jpg", Success("v1"))

	late := &recorder{}
	first, err := reg.Subscribe("a.jpg", late)
	require.NoError(t, err)
	assert.True(t, first)
	assert.Empty(t, late.successes)
}

func TestComplete_PanickingSubscriberDoesNotStopFanOut(t *testing.T) {
	reg := New[string]()
	bad := &recorder{panicOn: true}
	good := &recorder{}
	_, _ = reg.Subscribe("a.jpg", bad)
	_, _ = reg.Subscribe("a.jpg", good)

	assert.NotPanics(t, func() {
		assert.Equal(t, 2, reg.Complete("a.jpg", Success("v")))
	})
	assert.Equal(t, []string{"v"}, good.successes)
}

// Callbacks run outside the registry lock, so a subscriber may re-subscribe from its callback.
type resubscriber struct {
	reg   *Registry[string]
	first atomic.Bool
}

func (r *resubscriber) OnSuccess(string) {
	first, _ := r.reg.Subscribe("a.jpg", &recorder{})
	r.first.Store(first)
}

func (r *resubscriber) OnFailure(string, error) {}

func TestComplete_CallbackMayResubscribe(t *testing.T) {
	reg := New[string]()
	s := &resubscriber{reg: reg}
	_, _ = reg.Subscribe("a.jpg", s)

	reg.Complete("a.jpg", Success("v"))
	assert.True(t, s.first.Load())
	assert.Equal(t, 1, reg.Pending("a.jpg"))
}

func TestSubscribe_ConcurrentExactlyOneFirst(t *testing.T) {
	reg := New[string]()
	const workers = 64

	var firsts atomic.Int32
	subs := make([]*recorder, workers)
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		subs[i] = &recorder{}
		s := subs[i]
		g.Go(func() error {
			first, err := reg.Subscribe("a.jpg", s)
			if first {
				firsts.Add(1)
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), firsts.Load())
	assert.Equal(t, workers, reg.Pending("a.jpg"))
	assert.Equal(t, workers, reg.Complete("a.jpg", Success("v")))
	for _, s := range subs {
		assert.Equal(t, 1, s.calls())
	}
}

func TestRegistry_ManyURLs(t *testing.T) {
	reg := New[string]()
	for i := 0; i < 10; i++ {
		_, err := reg.Subscribe(fmt.Sprintf("u%d", i), &recorder{})
		require.NoError(t, err)
	}
	assert.Equal(t, 10, reg.InFlight())
	for i := 0; i < 10; i++ {
		reg.Complete(fmt.Sprintf("u%d", i), Success("ok"))
	}
	assert.Equal(t, 0, reg.InFlight())
}
