package cache

import (
	"path/filepath"

	"github.com/hashicorp/go-multierror"

	"github.com/glorpus-work/fetchcache/pkg/errors"
)

// Composite presents several managers rooted in subdirectories of one directory as a single
// Manager. Each child keeps its subdirectory name when the root moves.
type Composite struct {
	root     string
	managers []Manager
}

// NewComposite groups managers under root.
func NewComposite(root string, managers ...Manager) *Composite {
	return &Composite{root: root, managers: managers}
}

// Clean cleans every child and sums the results. Children that fail do not stop the others.
func (c *Composite) Clean(options CleanOptions) (*CleanResult, error) {
	total := &CleanResult{}
	var errs *multierror.Error
	for _, m := range c.managers {
		result, err := m.Clean(options)
		if err != nil {
			errs = multierror.Append(errs, err)
		}
		if result == nil {
			continue
		}
		total.EntriesRemoved += result.EntriesRemoved
		total.TotalFreed += result.TotalFreed
		total.ExpiredFreed += result.ExpiredFreed
		total.InvalidFreed += result.InvalidFreed
	}
	return total, errs.ErrorOrNil()
}

// GetInfo sums the children's entry counts and sizes and spans their oldest and newest entries.
func (c *Composite) GetInfo() (*Info, error) {
	total := &Info{Directory: c.root}
	for _, m := range c.managers {
		info, err := m.GetInfo()
		if err != nil {
			return nil, err
		}
		if info.TTL > total.TTL {
			total.TTL = info.TTL
		}
		total.TotalSize += info.TotalSize
		total.Entries += info.Entries
		total.ExpiredEntries += info.ExpiredEntries
		total.InvalidEntries += info.InvalidEntries
		if !info.OldestEntry.IsZero() && (total.OldestEntry.IsZero() || info.OldestEntry.Before(total.OldestEntry)) {
			total.OldestEntry = info.OldestEntry
		}
		if info.NewestEntry.After(total.NewestEntry) {
			total.NewestEntry = info.NewestEntry
		}
	}
	return total, nil
}

// GetDirectory returns the root directory.
func (c *Composite) GetDirectory() string {
	return c.root
}

// SetDirectory moves the root and every child along with it.
func (c *Composite) SetDirectory(dir string) error {
	if dir == "" {
		return errors.ErrCacheDirectory
	}
	for _, m := range c.managers {
		if err := m.SetDirectory(filepath.Join(dir, filepath.Base(m.GetDirectory()))); err != nil {
			return err
		}
	}
	c.root = dir
	return nil
}
