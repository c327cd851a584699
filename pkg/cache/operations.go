package cache

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/glorpus-work/fetchcache/internal/logger"
	"github.com/glorpus-work/fetchcache/pkg/errors"
)

// Operation renders cache maintenance results as human-readable messages.
type Operation struct {
	manager Manager
}

// NewOperation creates a new cache operation instance.
func NewOperation(manager Manager) *Operation {
	return &Operation{
		manager: manager,
	}
}

// Clean removes entries and describes what was freed.
func (op *Operation) Clean(all, expired, invalid bool) (string, error) {
	options := CleanOptions{
		All:     all,
		Expired: expired,
		Invalid: invalid,
	}

	logger.Debug("Cleaning cache", logger.Fields{
		"all":     options.All,
		"expired": options.Expired,
		"invalid": options.Invalid,
	})

	result, err := op.manager.Clean(options)
	if err != nil {
		return "", errors.Wrap(err, "failed to clean cache")
	}

	if result.EntriesRemoved == 0 {
		return "No entries were removed from the cache.", nil
	}

	msg := fmt.Sprintf("Successfully cleaned cache. Removed %d entries and freed %s of disk space.",
		result.EntriesRemoved, formatBytes(result.TotalFreed))
	if result.ExpiredFreed > 0 {
		msg += fmt.Sprintf("\n- Expired: %s", formatBytes(result.ExpiredFreed))
	}
	if result.InvalidFreed > 0 {
		msg += fmt.Sprintf("\n- Invalid: %s", formatBytes(result.InvalidFreed))
	}
	return msg, nil
}

// GetInfo describes the cache contents.
func (op *Operation) GetInfo() (string, error) {
	info, err := op.manager.GetInfo()
	if err != nil {
		return "", errors.Wrap(err, "failed to get cache info")
	}

	ttl := "never expires"
	if info.TTL > 0 {
		ttl = info.TTL.String()
	}

	return fmt.Sprintf(`Cache Information:
  Directory:    %s
  Total Size:   %s
  Entries:      %d (%d expired, %d invalid)
  TTL:          %s
  Oldest Entry: %s
  Newest Entry: %s`,
		info.Directory,
		formatBytes(info.TotalSize),
		info.Entries,
		info.ExpiredEntries,
		info.InvalidEntries,
		ttl,
		formatTime(info.OldestEntry),
		formatTime(info.NewestEntry),
	), nil
}

// GetDirectory returns the cache directory path.
func (op *Operation) GetDirectory() string {
	return op.manager.GetDirectory()
}

// SetDirectory sets a new cache directory.
func (op *Operation) SetDirectory(dir string) error {
	if dir == "" {
		return errors.ErrCacheDirectory
	}

	logger.Debug("Setting cache directory", logger.Fields{"directory": dir})
	return op.manager.SetDirectory(dir)
}

func formatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "none"
	}
	return fmt.Sprintf("%s (%s)", t.Local().Format(time.RFC1123), humanize.Time(t))
}
