// Package config handles configuration loading and validation for the
// ots CLI: calendar endpoints, cache location, oracle endpoint, and
// timeout/concurrency policy, loaded from TOML before the core proof
// engine is invoked.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Version is the current config schema version.
const Version = 1

// Config holds the ots CLI's ambient configuration: calendar endpoints,
// quorum policy, cache location, the block-header oracle, and the
// calendar whitelist.
type Config struct {
	Version int `toml:"version"`

	// Calendars lists calendar base URLs to submit to and query.
	Calendars []string `toml:"calendars"`

	// RequiredCalendars is the m in the m-of-n quorum policy. Zero means
	// require all configured calendars.
	RequiredCalendars int `toml:"required_calendars"`

	// TimeoutSec bounds a single calendar round trip, in seconds.
	TimeoutSec int `toml:"timeout_sec"`

	// CacheDir is where pending/completed proof fragments are persisted
	// between invocations.
	CacheDir string `toml:"cache_dir"`

	// CacheBackend selects the proof cache implementation: "file" or
	// "sqlite".
	CacheBackend string `toml:"cache_backend"`

	// OracleURL is the block-header oracle's base URL (an Esplora-style
	// REST endpoint).
	OracleURL string `toml:"oracle_url"`

	// NoBitcoin disables Bitcoin block-header verification (--no-bitcoin).
	NoBitcoin bool `toml:"no_bitcoin"`

	// WhitelistPath points at a calendar whitelist document (SUPPLEMENTED
	// FEATURES: calendar whitelist validation).
	WhitelistPath string `toml:"whitelist_path"`

	// NoDefaultWhitelist disables the built-in whitelist check.
	NoDefaultWhitelist bool `toml:"no_default_whitelist"`

	// WatchPaths lists directories the watch subcommand monitors.
	WatchPaths []string `toml:"watch_paths"`

	// LogPath is the path to the CLI's log file; empty means stderr.
	LogPath string `toml:"log_path"`

	// LogLevel is the minimum slog level name: debug, info, warn, error.
	LogLevel string `toml:"log_level"`
}

// DefaultCalendars are the well-known public calendars used when none are
// configured.
var DefaultCalendars = []string{
	"https://alice.btc.calendar.opentimestamps.org",
	"https://bob.btc.calendar.opentimestamps.org",
	"https://finney.calendar.eternitywall.com",
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	paths := GetDefaultPaths()
	return &Config{
		Version:           Version,
		Calendars:         append([]string(nil), DefaultCalendars...),
		RequiredCalendars: 2,
		TimeoutSec:        30,
		CacheDir:          paths.CacheDir,
		CacheBackend:      "file",
		OracleURL:         "https://blockstream.info/api",
		WhitelistPath:     paths.WhitelistFile,
		WatchPaths:        []string{},
		LogPath:           paths.LogFile,
		LogLevel:          "info",
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return GetDefaultPaths().ConfigFile
}

// Load reads configuration from path, or ConfigPath if path is empty.
// If the file doesn't exist, returns default configuration.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, err
	}

	cfg.CacheDir = expandPath(cfg.CacheDir)
	cfg.WhitelistPath = expandPath(cfg.WhitelistPath)
	cfg.LogPath = expandPath(cfg.LogPath)

	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// Timeout returns TimeoutSec as a time.Duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Calendars = append([]string(nil), c.Calendars...)
	clone.WatchPaths = append([]string(nil), c.WatchPaths...)
	return &clone
}

// SaveConfig writes cfg as TOML to path, creating parent directories as
// needed.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// ApplyEnvOverrides layers OTS_* environment variables over the loaded
// configuration. The proof engine itself never reads the environment;
// this is strictly a CLI convenience.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("OTS_CALENDAR"); v != "" {
		c.Calendars = []string{v}
	}
	if v := os.Getenv("OTS_ORACLE_URL"); v != "" {
		c.OracleURL = v
	}
	if v := os.Getenv("OTS_CACHE_DIR"); v != "" {
		c.CacheDir = v
	}
	if v := os.Getenv("OTS_NO_BITCOIN"); v == "true" || v == "1" {
		c.NoBitcoin = true
	}
}

// EnsureDirectories creates the cache and log directories the
// configuration names.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.CacheDir}
	if c.LogPath != "" {
		dirs = append(dirs, filepath.Dir(c.LogPath))
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	return nil
}
