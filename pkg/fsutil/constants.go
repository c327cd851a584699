package fsutil

import "os"

// File and directory permission constants used for cache entries and config files.
const (
	// FileModeDefault is used for files other users may read. -rw-r--r--
	FileModeDefault os.FileMode = 0o644
	// FileModeSecure is used for cached payloads and metadata. -rw-r-----
	FileModeSecure os.FileMode = 0o640

	// DirModeDefault is used for directories created on demand. drwxr-xr-x
	DirModeDefault os.FileMode = 0o755
	// DirModeSecure is used for the cache root. drwxr-x---
	DirModeSecure os.FileMode = 0o750
	// DirModePrivate is used for the config directory. drwx------
	DirModePrivate os.FileMode = 0o700
)
