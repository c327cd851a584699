// Package cache provides the cache engines consulted by the download coordinator:
// an in-memory LRU, a directory-backed store, and a two-level combination of both.
package cache

import (
	"time"

	"github.com/glorpus-work/fetchcache/pkg/request"
)

// Entry is a payload handed to a cache after a successful fetch.
type Entry[V any] struct {
	URL         string
	Body        []byte
	ContentType string
	Kind        request.Kind
	// Format is the pixel format the image request declared. Other kinds ignore it.
	Format request.PixelFormat
	// Value is the already transformed payload.
	Value V
}

// DecodeFunc turns stored bytes back into a value. It is used when an engine only has bytes,
// either because a caller stored raw bytes or because an entry was read back from disk.
type DecodeFunc[V any] func(body []byte, meta Meta) (V, error)

// Engine is the contract shared by every cache engine in this package.
type Engine[V any] interface {
	Get(url string) (V, bool)
	Store(url string, body []byte) (V, error)
	StoreEntry(entry Entry[V]) (V, error)
	RunGC()
}

// Manager defines the maintenance operations of a persistent cache.
type Manager interface {
	Clean(options CleanOptions) (*CleanResult, error)
	GetInfo() (*Info, error)
	GetDirectory() string
	SetDirectory(dir string) error
}

// CleanOptions specifies which entries to remove.
type CleanOptions struct {
	All     bool
	Expired bool
	Invalid bool
}

// CleanResult contains information about what was cleaned.
type CleanResult struct {
	TotalFreed     int64
	ExpiredFreed   int64
	InvalidFreed   int64
	EntriesRemoved int
}

// Info represents cache information.
type Info struct {
	Directory      string
	TTL            time.Duration
	TotalSize      int64
	Entries        int
	ExpiredEntries int
	InvalidEntries int
	OldestEntry    time.Time
	NewestEntry    time.Time
}
