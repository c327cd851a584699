// Package fsutil provides the file system helpers used by the disk cache and config layers.
package fsutil

import "os"

// EnsureDir creates a directory and all necessary parents with DirModeDefault.
func EnsureDir(path string) error {
	return os.MkdirAll(path, DirModeDefault)
}

// EnsureDirMode creates a directory and all necessary parents with the given mode.
func EnsureDirMode(path string, mode os.FileMode) error {
	return os.MkdirAll(path, mode)
}
