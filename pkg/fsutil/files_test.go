package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	tempDir := t.TempDir()
	target := filepath.Join(tempDir, "entries", "abc.bin")

	require.NoError(t, WriteFileAtomic(target, []byte("payload"), FileModeSecure))

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(target)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(FileModeSecure), info.Mode().Perm())
	}

	// Overwrite replaces content and leaves no temporary files behind
	require.NoError(t, WriteFileAtomic(target, []byte("second"), FileModeSecure))
	content, err = os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))

	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFileAtomic_EmptyPath(t *testing.T) {
	err := WriteFileAtomic("", []byte("x"), FileModeSecure)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "destination path cannot be empty")
}

func TestMove_File_SameFilesystem(t *testing.T) {
	tempDir := t.TempDir()

	srcFile := filepath.Join(tempDir, "source.txt")
	dstFile := filepath.Join(tempDir, "nested", "destination.txt")

	content := "Hello, World!"
	require.NoError(t, os.WriteFile(srcFile, []byte(content), 0o644))

	require.NoError(t, Move(srcFile, dstFile))

	movedContent, err := os.ReadFile(dstFile)
	require.NoError(t, err)
	assert.Equal(t, content, string(movedContent))

	_, err = os.Stat(srcFile)
	assert.True(t, os.IsNotExist(err))
}

func TestMove_Directory(t *testing.T) {
	tempDir := t.TempDir()
	srcDir := filepath.Join(tempDir, "dir")
	require.NoError(t, os.Mkdir(srcDir, DirModeDefault))

	err := Move(srcDir, filepath.Join(tempDir, "other"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestMove_SourceDoesNotExist(t *testing.T) {
	tempDir := t.TempDir()

	err := Move(filepath.Join(tempDir, "nonexistent.txt"), filepath.Join(tempDir, "destination.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stat source")
}

func TestMove_InvalidPaths(t *testing.T) {
	err := Move("", "destination.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source and destination paths cannot be empty")

	err = Move("source.txt", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source and destination paths cannot be empty")
}

func TestIsCrossFilesystemError(t *testing.T) {
	assert.False(t, isCrossFilesystemError(nil))
	assert.False(t, isCrossFilesystemError(errors.New("regular error")))

	exdev := &os.LinkError{Op: "rename", Old: "a", New: "b", Err: syscall.EXDEV}
	assert.True(t, isCrossFilesystemError(exdev))

	other := &os.LinkError{Op: "rename", Old: "a", New: "b", Err: syscall.ENOENT}
	assert.False(t, isCrossFilesystemError(other))
}

func TestCopy(t *testing.T) {
	tempDir := t.TempDir()

	srcFile := filepath.Join(tempDir, "source.txt")
	dstFile := filepath.Join(tempDir, "destination.txt")

	content := "Copy test content"
	require.NoError(t, os.WriteFile(srcFile, []byte(content), 0o644))

	require.NoError(t, Copy(srcFile, dstFile))

	copiedContent, err := os.ReadFile(dstFile)
	require.NoError(t, err)
	assert.Equal(t, content, string(copiedContent))

	_, err = os.Stat(srcFile)
	require.NoError(t, err)
}
