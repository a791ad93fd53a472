package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "nonexistent.toml"))
	require.NoError(t, err)
	require.Len(t, cfg.Calendars, len(DefaultCalendars))
}

func TestLoadParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
calendars = ["https://cal.example"]
required_calendars = 1
timeout_sec = 10
cache_dir = "` + dir + `"
oracle_url = "https://oracle.example"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"https://cal.example"}, cfg.Calendars)
	require.Equal(t, 10*time.Second, cfg.Timeout())
}

func TestValidateRejectsEmptyCalendars(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Calendars = nil
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsBadCacheBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheBackend = "memcached"
	require.Error(t, cfg.Validate())
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("OTS_CALENDAR", "https://env.example")
	cfg := LoadFromEnv()
	require.Equal(t, []string{"https://env.example"}, cfg.Calendars)
}

func TestMerge(t *testing.T) {
	dst := DefaultConfig()
	src := &Config{OracleURL: "https://override.example"}

	merged := Merge(dst, src)
	require.Equal(t, "https://override.example", merged.OracleURL)
	require.Len(t, merged.Calendars, len(dst.Calendars))
}

func TestSaveConfigThenLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := DefaultConfig()
	cfg.OracleURL = "https://saved.example"
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://saved.example", loaded.OracleURL)
}
