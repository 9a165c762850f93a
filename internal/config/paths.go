// Package config provides filesystem paths for Vikflow state.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	// AppName is the application name used for directories.
	AppName = "vikflow"
	// ProfilesFileName is the profile metadata file name.
	ProfilesFileName = "profiles.yaml"
)

// Paths holds all the application paths.
type Paths struct {
	ConfigDir    string
	CacheDir     string
	ProfilesFile string
}

// GetPaths returns the application paths following the XDG Base Directory
// specification, with platform-appropriate fallbacks.
func GetPaths() Paths {
	return Paths{
		ConfigDir:    getConfigDir(),
		CacheDir:     getCacheDir(),
		ProfilesFile: filepath.Join(getConfigDir(), ProfilesFileName),
	}
}

// getConfigDir returns the configuration directory path.
func getConfigDir() string {
	// Check for explicit override
	if dir := os.Getenv("VIKFLOW_CONFIG_DIR"); dir != "" {
		return dir
	}

	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, AppName)
		}
		if userProfile := os.Getenv("USERPROFILE"); userProfile != "" {
			return filepath.Join(userProfile, "AppData", "Roaming", AppName)
		}
	case "darwin":
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			return filepath.Join(xdgConfig, AppName)
		}
		if home := os.Getenv("HOME"); home != "" {
			// Prefer ~/.config/vikflow when it already exists
			xdgPath := filepath.Join(home, ".config", AppName)
			if _, err := os.Stat(xdgPath); err == nil {
				return xdgPath
			}
			return filepath.Join(home, "Library", "Application Support", AppName)
		}
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			return filepath.Join(xdgConfig, AppName)
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".config", AppName)
		}
	}

	// Last resort fallback
	return filepath.Join(".", "."+AppName)
}

// getCacheDir returns the cache directory path.
func getCacheDir() string {
	switch runtime.GOOS {
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, AppName, "cache")
		}
		if userProfile := os.Getenv("USERPROFILE"); userProfile != "" {
			return filepath.Join(userProfile, "AppData", "Local", AppName, "cache")
		}
	case "darwin":
		if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
			return filepath.Join(xdgCache, AppName)
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, "Library", "Caches", AppName)
		}
	default:
		if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
			return filepath.Join(xdgCache, AppName)
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".cache", AppName)
		}
	}

	return filepath.Join(".", "."+AppName, "cache")
}

// EnsureDirs creates all necessary directories if they don't exist.
func (p Paths) EnsureDirs() error {
	dirs := []string{p.ConfigDir, p.CacheDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	return nil
}
