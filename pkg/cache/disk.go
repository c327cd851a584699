package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/fetchcache/internal/logger"
	"github.com/glorpus-work/fetchcache/pkg/errors"
	"github.com/glorpus-work/fetchcache/pkg/fsutil"
	"github.com/glorpus-work/fetchcache/pkg/request"
)

// Meta is the sidecar metadata written next to every disk entry.
type Meta struct {
	URL           string    `yaml:"url"`
	ContentType   string    `yaml:"content_type,omitempty"`
	Kind          string    `yaml:"kind"`
	Format        string    `yaml:"format,omitempty"` // image entries only
	Size          int64     `yaml:"size"`
	StoredAt      time.Time `yaml:"stored_at"`
	FormatVersion string    `yaml:"format_version"`
}

var supportedFormats = mustConstraint(SupportedFormats)

func mustConstraint(c string) version.Constraints {
	constraints, err := version.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return constraints
}

// DiskEngine stores payloads as files named after the SHA-256 of their URL.
// Values are rebuilt from bytes on every Get through the decode function.
type DiskEngine[V any] struct {
	mu        sync.Mutex
	directory string
	ttl       time.Duration
	decode    DecodeFunc[V]
	now       func() time.Time
}

// NewDiskEngine creates an engine rooted at dir, creating it if needed. A zero TTL never expires entries.
func NewDiskEngine[V any](dir string, ttl time.Duration, decode DecodeFunc[V]) (*DiskEngine[V], error) {
	if dir == "" {
		return nil, errors.ErrCacheDirectory
	}
	if decode == nil {
		return nil, errors.ErrNoDecoder
	}
	if err := fsutil.EnsureDirMode(dir, CacheDirPerm); err != nil {
		return nil, errors.Wrapf(err, "failed to create cache directory %s", dir)
	}
	return &DiskEngine[V]{
		directory: dir,
		ttl:       ttl,
		decode:    decode,
		now:       time.Now,
	}, nil
}

// NewDefaultDiskEngine creates an engine in the user cache directory.
func NewDefaultDiskEngine[V any](ttl time.Duration, decode DecodeFunc[V]) (*DiskEngine[V], error) {
	dir, err := fsutil.GetCacheDir()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get user cache directory")
	}
	return NewDiskEngine(dir, ttl, decode)
}

// Key returns the file name stem used for url.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

func (d *DiskEngine[V]) paths(url string) (string, string) {
	d.mu.Lock()
	dir := d.directory
	d.mu.Unlock()
	stem := filepath.Join(dir, Key(url))
	return stem + bodySuffix, stem + metaSuffix
}

// Get reads and decodes the entry for url. Missing, expired, foreign-version and
// undecodable entries are all misses.
func (d *DiskEngine[V]) Get(url string) (V, bool) {
	var zero V
	bodyPath, metaPath := d.paths(url)

	meta, err := readMeta(metaPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Debug("unreadable cache metadata", logger.Fields{"url": url, "error": err.Error()})
		}
		return zero, false
	}
	if meta.URL != url || !validFormat(meta) || d.expired(meta) {
		return zero, false
	}

	body, err := os.ReadFile(bodyPath)
	if err != nil {
		logger.Debug("unreadable cache body", logger.Fields{"url": url, "error": err.Error()})
		return zero, false
	}

	v, err := d.decode(body, *meta)
	if err != nil {
		logger.Debug("cached entry failed to decode", logger.Fields{"url": url, "error": err.Error()})
		return zero, false
	}
	return v, true
}

// Store writes raw bytes and returns them decoded.
func (d *DiskEngine[V]) Store(url string, body []byte) (V, error) {
	var zero V
	meta := d.newMeta(Entry[V]{URL: url, Body: body, Kind: request.KindRaw})
	v, err := d.decode(body, meta)
	if err != nil {
		return zero, errors.Wrapf(err, "failed to decode %s", url)
	}
	if err := d.write(url, body, meta); err != nil {
		return zero, err
	}
	return v, nil
}

// StoreEntry writes the entry's bytes and returns its already transformed value.
func (d *DiskEngine[V]) StoreEntry(entry Entry[V]) (V, error) {
	var zero V
	if entry.URL == "" {
		return zero, errors.ErrEmptyURL
	}
	if err := d.write(entry.URL, entry.Body, d.newMeta(entry)); err != nil {
		return zero, err
	}
	return entry.Value, nil
}

func (d *DiskEngine[V]) newMeta(entry Entry[V]) Meta {
	meta := Meta{
		URL:           entry.URL,
		ContentType:   entry.ContentType,
		Kind:          entry.Kind.String(),
		Size:          int64(len(entry.Body)),
		StoredAt:      d.now().UTC(),
		FormatVersion: FormatVersion,
	}
	if entry.Kind == request.KindImage {
		meta.Format = entry.Format.String()
	}
	return meta
}

// write stores the body before its metadata; Get only trusts entries whose metadata exists.
func (d *DiskEngine[V]) write(url string, body []byte, meta Meta) error {
	bodyPath, metaPath := d.paths(url)

	buf := &bytes.Buffer{}
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	if err := enc.Encode(meta); err != nil {
		return errors.Wrapf(err, "failed to encode cache metadata for %s", url)
	}
	if err := enc.Close(); err != nil {
		return errors.Wrapf(err, "failed to encode cache metadata for %s", url)
	}

	if err := fsutil.WriteFileAtomic(bodyPath, body, fsutil.FileModeSecure); err != nil {
		return errors.Wrapf(err, "failed to write cache body for %s", url)
	}
	if err := fsutil.WriteFileAtomic(metaPath, buf.Bytes(), fsutil.FileModeSecure); err != nil {
		_ = os.Remove(bodyPath)
		return errors.Wrapf(err, "failed to write cache metadata for %s", url)
	}
	return nil
}

// Remove deletes the entry for url. A missing entry is not an error.
func (d *DiskEngine[V]) Remove(url string) error {
	bodyPath, metaPath := d.paths(url)
	var result *multierror.Error
	for _, p := range []string{metaPath, bodyPath} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// RunGC removes expired and foreign-version entries, logging any failures.
func (d *DiskEngine[V]) RunGC() {
	result, err := d.Clean(CleanOptions{Expired: true, Invalid: true})
	if err != nil {
		logger.Warn("disk cache gc finished with errors", logger.Fields{"error": err.Error()})
	}
	if result != nil && result.EntriesRemoved > 0 {
		logger.Debug("disk cache gc", logger.Fields{
			"removed": result.EntriesRemoved,
			"freed":   result.TotalFreed,
		})
	}
}

type scannedEntry struct {
	stem    string
	meta    *Meta
	size    int64
	expired bool
	invalid bool
}

// scan lists every entry in the directory. Bodies without metadata and metadata that
// cannot be parsed are reported as invalid.
func (d *DiskEngine[V]) scan(dir string) ([]scannedEntry, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read cache directory %s", dir)
	}

	byStem := make(map[string]*scannedEntry)
	get := func(stem string) *scannedEntry {
		e, ok := byStem[stem]
		if !ok {
			e = &scannedEntry{stem: stem}
			byStem[stem] = e
		}
		return e
	}

	for _, f := range files {
		if !f.Type().IsRegular() {
			continue
		}
		name := f.Name()
		var stem string
		switch {
		case strings.HasSuffix(name, metaSuffix):
			stem = strings.TrimSuffix(name, metaSuffix)
		case strings.HasSuffix(name, bodySuffix):
			stem = strings.TrimSuffix(name, bodySuffix)
		default:
			continue
		}
		e := get(stem)
		if info, err := f.Info(); err == nil {
			e.size += info.Size()
		}
		if strings.HasSuffix(name, metaSuffix) {
			meta, err := readMeta(filepath.Join(dir, name))
			if err != nil {
				continue
			}
			e.meta = meta
		}
	}

	entries := make([]scannedEntry, 0, len(byStem))
	for _, e := range byStem {
		switch {
		case e.meta == nil || !validFormat(e.meta) || Key(e.meta.URL) != e.stem:
			e.invalid = true
		case d.expired(e.meta):
			e.expired = true
		}
		entries = append(entries, *e)
	}
	return entries, nil
}

// Clean removes entries according to options. With no option set, everything is removed.
func (d *DiskEngine[V]) Clean(options CleanOptions) (*CleanResult, error) {
	if !options.Expired && !options.Invalid {
		options.All = true
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	entries, err := d.scan(d.directory)
	if err != nil {
		return nil, err
	}

	result := &CleanResult{}
	var errs *multierror.Error
	for _, e := range entries {
		remove := options.All || (options.Expired && e.expired) || (options.Invalid && e.invalid)
		if !remove {
			continue
		}
		stem := filepath.Join(d.directory, e.stem)
		failed := false
		for _, p := range []string{stem + metaSuffix, stem + bodySuffix} {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				errs = multierror.Append(errs, err)
				failed = true
			}
		}
		if failed {
			continue
		}
		result.EntriesRemoved++
		result.TotalFreed += e.size
		switch {
		case e.expired:
			result.ExpiredFreed += e.size
		case e.invalid:
			result.InvalidFreed += e.size
		}
	}
	return result, errs.ErrorOrNil()
}

// GetInfo summarizes the entries in the cache directory.
func (d *DiskEngine[V]) GetInfo() (*Info, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	info := &Info{Directory: d.directory, TTL: d.ttl}
	entries, err := d.scan(d.directory)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		info.TotalSize += e.size
		info.Entries++
		if e.expired {
			info.ExpiredEntries++
		}
		if e.invalid {
			info.InvalidEntries++
			continue
		}
		if info.OldestEntry.IsZero() || e.meta.StoredAt.Before(info.OldestEntry) {
			info.OldestEntry = e.meta.StoredAt
		}
		if e.meta.StoredAt.After(info.NewestEntry) {
			info.NewestEntry = e.meta.StoredAt
		}
	}
	return info, nil
}

// GetDirectory returns the cache directory path.
func (d *DiskEngine[V]) GetDirectory() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.directory
}

// SetDirectory sets the cache directory path.
func (d *DiskEngine[V]) SetDirectory(dir string) error {
	if dir == "" {
		return errors.ErrCacheDirectory
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.directory = dir
	return nil
}

func (d *DiskEngine[V]) expired(meta *Meta) bool {
	return d.ttl > 0 && d.now().Sub(meta.StoredAt) > d.ttl
}

func readMeta(path string) (*Meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var meta Meta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, errors.Join(errors.ErrCacheFormat, err)
	}
	return &meta, nil
}

func validFormat(meta *Meta) bool {
	v, err := version.NewVersion(meta.FormatVersion)
	if err != nil {
		return false
	}
	return supportedFormats.Check(v)
}
