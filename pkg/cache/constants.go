package cache

import (
	"os"

	"github.com/glorpus-work/fetchcache/pkg/fsutil"
)

const (
	// FormatVersion is written into every disk entry's metadata.
	FormatVersion = "1.0"

	// SupportedFormats is the version constraint a disk entry must satisfy to be served.
	SupportedFormats = ">= 1.0, < 2.0"

	bodySuffix = ".bin"
	metaSuffix = ".meta.yaml"
)

// CacheDirPerm is the permission mode for the disk cache directory (rwxr-x---).
var CacheDirPerm os.FileMode = fsutil.DirModeSecure
