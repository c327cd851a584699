package fsutil

import (
	"os"
	"path/filepath"
)

const (
	// AppName is the name of the application used in paths
	AppName = "fetchcache"

	// ConfigFileName is the name of the YAML config file inside the config directory.
	ConfigFileName = "config.yaml"
)

// GetCacheDir returns the platform-specific cache directory for the application
// On Linux: ~/.cache/fetchcache/
// On macOS: ~/Library/Caches/fetchcache/
// On Windows: %LocalAppData%\fetchcache\
func GetCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, AppName), nil
}

// GetConfigDir returns the platform-specific config directory for the application.
func GetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}

// GetConfigPath returns the default location of the config file.
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}
