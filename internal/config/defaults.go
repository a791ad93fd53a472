package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// PlatformDataDir returns the platform-specific data directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/ots/
//   - Linux:   ~/.local/share/ots/
//   - Windows: %APPDATA%\ots\
//
// Falls back to ~/.ots if platform detection fails.
func PlatformDataDir() string {
	switch runtime.GOOS {
	case "darwin":
		return macOSDataDir()
	case "linux":
		return linuxDataDir()
	case "windows":
		return windowsDataDir()
	default:
		return fallbackDataDir()
	}
}

// PlatformCacheDir returns the platform-specific cache directory.
//
// Platform paths:
//   - macOS:   ~/Library/Caches/ots/
//   - Linux:   ~/.cache/ots/
//   - Windows: %LOCALAPPDATA%\ots\cache\
func PlatformCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return macOSCacheDir()
	case "linux":
		return linuxCacheDir()
	case "windows":
		return windowsCacheDir()
	default:
		return filepath.Join(fallbackDataDir(), "cache")
	}
}

// PlatformConfigDir returns the platform-specific config directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/ots/
//   - Linux:   ~/.config/ots/
//   - Windows: %APPDATA%\ots\
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		return macOSDataDir() // macOS uses same dir for config and data
	case "linux":
		return linuxConfigDir()
	case "windows":
		return windowsDataDir() // Windows uses same dir for config and data
	default:
		return fallbackDataDir()
	}
}

// PlatformLogDir returns the platform-specific log directory.
//
// Platform paths:
//   - macOS:   ~/Library/Logs/ots/
//   - Linux:   ~/.local/share/ots/logs/
//   - Windows: %LOCALAPPDATA%\ots\logs\
func PlatformLogDir() string {
	switch runtime.GOOS {
	case "darwin":
		return macOSLogDir()
	case "linux":
		return filepath.Join(linuxDataDir(), "logs")
	case "windows":
		return windowsLogDir()
	default:
		return filepath.Join(fallbackDataDir(), "logs")
	}
}

func macOSDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Library", "Application Support", "ots")
}

func macOSCacheDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Library", "Caches", "ots")
}

func macOSLogDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Library", "Logs", "ots")
}

func linuxDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "ots")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "ots")
}

func linuxConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "ots")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "ots")
}

func linuxCacheDir() string {
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return filepath.Join(xdgCache, "ots")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "ots")
}

func windowsDataDir() string {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "ots")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "AppData", "Roaming", "ots")
}

func windowsCacheDir() string {
	if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
		return filepath.Join(localAppData, "ots", "cache")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "AppData", "Local", "ots", "cache")
}

func windowsLogDir() string {
	if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
		return filepath.Join(localAppData, "ots", "logs")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "AppData", "Local", "ots", "logs")
}

func fallbackDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".ots")
}

// DefaultPaths collects the default file paths for the current platform.
type DefaultPaths struct {
	DataDir   string
	ConfigDir string
	CacheDir  string
	LogDir    string

	ConfigFile    string
	CacheFile     string
	WhitelistFile string
	LogFile       string
}

// GetDefaultPaths returns all default paths for the current platform.
func GetDefaultPaths() *DefaultPaths {
	dataDir := PlatformDataDir()
	configDir := PlatformConfigDir()
	cacheDir := PlatformCacheDir()
	logDir := PlatformLogDir()

	return &DefaultPaths{
		DataDir:   dataDir,
		ConfigDir: configDir,
		CacheDir:  cacheDir,
		LogDir:    logDir,

		ConfigFile:    filepath.Join(configDir, "config.toml"),
		CacheFile:     filepath.Join(cacheDir, "proofs.db"),
		WhitelistFile: filepath.Join(configDir, "whitelist.toml"),
		LogFile:       filepath.Join(logDir, "ots.log"),
	}
}

// DefaultExcludePatterns returns default glob exclude patterns for watch
// mode, so the watcher doesn't stamp its own bookkeeping files or noisy
// VCS/editor churn.
func DefaultExcludePatterns() []string {
	return []string{
		".*",
		"*/.*",
		"*~",
		"*.tmp",
		"*.temp",
		"*.swp",
		"*.ots",
		".git/*",
		".svn/*",
		".hg/*",
		"node_modules/*",
	}
}

// SupportedConfigFormats returns the list of config file extensions Load
// will recognise when searching standard locations.
func SupportedConfigFormats() []string {
	return []string{"toml"}
}

// FindConfigFile searches standard locations for a config file, returning
// the first match or "" if none exists.
func FindConfigFile() string {
	paths := GetDefaultPaths()
	searchDirs := []string{".", paths.ConfigDir}

	for _, dir := range searchDirs {
		for _, ext := range SupportedConfigFormats() {
			path := filepath.Join(dir, "config."+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}
