package fsutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	dir, err := GetCacheDir()
	require.NoError(t, err)
	assert.Equal(t, AppName, filepath.Base(dir))
}

func TestGetConfigPath(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)

	dir, err := GetConfigDir()
	require.NoError(t, err)
	assert.Equal(t, AppName, filepath.Base(dir))

	path, err := GetConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ConfigFileName), path)
}
