package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/fetchcache/pkg/errors"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func upperDecode(body []byte, _ Meta) (string, error) {
	if len(body) == 0 {
		return "", errors.ErrEmptyBody
	}
	return strings.ToUpper(string(body)), nil
}

func TestNewMemoryEngine_InvalidSize(t *testing.T) {
	_, err := NewMemoryEngine[string](0, 0, upperDecode)
	assert.Error(t, err)
}

func TestMemoryEngine_StoreAndGet(t *testing.T) {
	m, err := NewMemoryEngine(8, 0, upperDecode)
	require.NoError(t, err)

	_, ok := m.Get("a")
	assert.False(t, ok)

	v, err := m.Store("a", []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, "ABC", v)

	got, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, "ABC", got)

	_, err = m.Store("b", nil)
	assert.ErrorIs(t, err, errors.ErrEmptyBody)
	_, ok = m.Get("b")
	assert.False(t, ok)
}

func TestMemoryEngine_StoreEntryKeepsValue(t *testing.T) {
	m, err := NewMemoryEngine[string](8, 0, nil)
	require.NoError(t, err)

	v, err := m.StoreEntry(Entry[string]{URL: "a", Body: []byte("ignored"), Value: "decoded"})
	require.NoError(t, err)
	assert.Equal(t, "decoded", v)

	got, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, "decoded", got)

	_, err = m.StoreEntry(Entry[string]{Value: "x"})
	assert.ErrorIs(t, err, errors.ErrEmptyURL)

	_, err = m.Store("raw", []byte("x"))
	assert.ErrorIs(t, err, errors.ErrNoDecoder)
}

func TestMemoryEngine_EvictsLeastRecentlyUsed(t *testing.T) {
	m, err := NewMemoryEngine(2, 0, upperDecode)
	require.NoError(t, err)

	_, _ = m.Store("a", []byte("a"))
	_, _ = m.Store("b", []byte("b"))
	_, ok := m.Get("a")
	require.True(t, ok)
	_, _ = m.Store("c", []byte("c"))

	_, ok = m.Get("b")
	assert.False(t, ok, "b was least recently used")
	_, ok = m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, m.Len())
}

func TestMemoryEngine_TTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	m, err := NewMemoryEngine(8, time.Minute, upperDecode)
	require.NoError(t, err)
	m.now = clock.Now

	_, _ = m.Store("old", []byte("old"))
	clock.now = clock.now.Add(45 * time.Second)
	_, _ = m.Store("new", []byte("new"))
	clock.now = clock.now.Add(30 * time.Second)

	_, ok := m.Get("old")
	assert.False(t, ok)
	_, ok = m.Get("new")
	assert.True(t, ok)

	_, _ = m.Store("old", []byte("old"))
	clock.now = clock.now.Add(50 * time.Second)
	assert.Equal(t, 1, m.GC())
	assert.Equal(t, 1, m.Len())
	_, ok = m.Get("old")
	assert.True(t, ok)
}

func TestMemoryEngine_ZeroTTL(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	m, err := NewMemoryEngine(8, 0, upperDecode)
	require.NoError(t, err)
	m.now = clock.Now

	_, _ = m.Store("a", []byte("a"))
	clock.now = clock.now.Add(1000 * time.Hour)
	assert.Equal(t, 0, m.GC())
	_, ok := m.Get("a")
	assert.True(t, ok)
}

func TestMemoryEngine_RunGCAndPurge(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	m, err := NewMemoryEngine(8, time.Second, upperDecode)
	require.NoError(t, err)
	m.now = clock.Now

	_, _ = m.Store("a", []byte("a"))
	_, _ = m.Store("b", []byte("b"))
	clock.now = clock.now.Add(time.Minute)
	m.RunGC()
	assert.Equal(t, 0, m.Len())

	_, _ = m.Store("c", []byte("c"))
	m.Purge()
	assert.Equal(t, 0, m.Len())
}
