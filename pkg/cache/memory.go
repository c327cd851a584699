package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/glorpus-work/fetchcache/internal/logger"
	"github.com/glorpus-work/fetchcache/pkg/errors"
	"github.com/glorpus-work/fetchcache/pkg/request"
)

type memoryEntry[V any] struct {
	value    V
	storedAt time.Time
}

// MemoryEngine keeps transformed values in a size-bounded LRU. Entries older than the TTL
// are treated as misses and removed by RunGC. A zero TTL never expires entries.
type MemoryEngine[V any] struct {
	entries *lru.Cache[string, memoryEntry[V]]
	ttl     time.Duration
	decode  DecodeFunc[V]
	now     func() time.Time
}

// NewMemoryEngine creates an engine holding at most size entries.
func NewMemoryEngine[V any](size int, ttl time.Duration, decode DecodeFunc[V]) (*MemoryEngine[V], error) {
	entries, err := lru.New[string, memoryEntry[V]](size)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create memory cache with %d entries", size)
	}
	return &MemoryEngine[V]{
		entries: entries,
		ttl:     ttl,
		decode:  decode,
		now:     time.Now,
	}, nil
}

// Get returns the value for url if present and not expired.
func (m *MemoryEngine[V]) Get(url string) (V, bool) {
	var zero V
	e, ok := m.entries.Get(url)
	if !ok {
		return zero, false
	}
	if m.expired(e) {
		m.entries.Remove(url)
		return zero, false
	}
	return e.value, true
}

// Store decodes body and keeps the result.
func (m *MemoryEngine[V]) Store(url string, body []byte) (V, error) {
	var zero V
	if m.decode == nil {
		return zero, errors.ErrNoDecoder
	}
	v, err := m.decode(body, Meta{URL: url, Kind: request.KindRaw.String(), Size: int64(len(body))})
	if err != nil {
		return zero, errors.Wrapf(err, "failed to decode %s", url)
	}
	m.add(url, v)
	return v, nil
}

// StoreEntry keeps the already transformed value.
func (m *MemoryEngine[V]) StoreEntry(entry Entry[V]) (V, error) {
	if entry.URL == "" {
		var zero V
		return zero, errors.ErrEmptyURL
	}
	m.add(entry.URL, entry.Value)
	return entry.Value, nil
}

func (m *MemoryEngine[V]) add(url string, v V) {
	if evicted := m.entries.Add(url, memoryEntry[V]{value: v, storedAt: m.now()}); evicted {
		logger.Debug("memory cache evicted oldest entry", logger.Fields{"size": m.entries.Len()})
	}
}

// RunGC removes expired entries.
func (m *MemoryEngine[V]) RunGC() {
	removed := m.GC()
	if removed > 0 {
		logger.Debug("memory cache gc", logger.Fields{"removed": removed})
	}
}

// GC removes expired entries and returns how many were removed.
func (m *MemoryEngine[V]) GC() int {
	if m.ttl <= 0 {
		return 0
	}
	removed := 0
	for _, key := range m.entries.Keys() {
		if e, ok := m.entries.Peek(key); ok && m.expired(e) {
			m.entries.Remove(key)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries, including expired ones not yet collected.
func (m *MemoryEngine[V]) Len() int {
	return m.entries.Len()
}

// Purge removes every entry.
func (m *MemoryEngine[V]) Purge() {
	m.entries.Purge()
}

func (m *MemoryEngine[V]) expired(e memoryEntry[V]) bool {
	return m.ttl > 0 && m.now().Sub(e.storedAt) > m.ttl
}
