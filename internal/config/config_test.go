package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "data.json", cfg.Content.DataFile)
	assert.Equal(t, StorageCookie, cfg.Theme.Storage)
	assert.Equal(t, "theme", cfg.Theme.Key)
	assert.Equal(t, 0.1, cfg.Reveal.Threshold)
	assert.Equal(t, "0px", cfg.Reveal.RootMargin)
	assert.Equal(t, 30*time.Second, cfg.Content.Timeout())
	assert.Equal(t, 30*time.Minute, cfg.Reveal.TTL())
	require.NoError(t, cfg.Validate())
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoad_ParsesTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.toml")
	content := `
[server]
port = "9000"

[content]
data_url = "https://example.com/data.json"
about_format = "markdown"
watch = false

[theme]
storage = "sqlite"
db_path = "/tmp/prefs.db"

[reveal]
threshold = 0.25
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("PORT", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "https://example.com/data.json", cfg.Content.DataURL)
	assert.Equal(t, "markdown", cfg.Content.AboutFormat)
	assert.False(t, cfg.Content.Watch)
	assert.Equal(t, StorageSQLite, cfg.Theme.Storage)
	assert.Equal(t, "/tmp/prefs.db", cfg.Theme.DBPath)
	assert.Equal(t, 0.25, cfg.Reveal.Threshold)
	// untouched keys keep defaults
	assert.Equal(t, DefaultDataFile, cfg.Content.DataFile)
	assert.Equal(t, DefaultCookieName, cfg.Theme.CookieName)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FOLIO_THEME_STORAGE", "memory")
	t.Setenv("FOLIO_LOG_LEVEL", "debug")
	t.Setenv("PORT", "3000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Theme.Storage)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "3000", cfg.Server.Port)

	t.Setenv("FOLIO_SERVER_PORT", "4000")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "4000", cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"mode":      func(c *Config) { c.Server.Mode = "prod" },
		"storage":   func(c *Config) { c.Theme.Storage = "redis" },
		"format":    func(c *Config) { c.Content.AboutFormat = "rst" },
		"log":       func(c *Config) { c.Log.Format = "xml" },
		"level":     func(c *Config) { c.Log.Level = "loud" },
		"duration":  func(c *Config) { c.Reveal.PageTTL = "soon" },
		"threshold": func(c *Config) { c.Reveal.Threshold = 1.5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "folio.toml")
	cfg := DefaultConfig()
	cfg.Server.Port = "9999"

	require.NoError(t, cfg.Write(path))
	assert.ErrorIs(t, cfg.Write(path), os.ErrExist)

	t.Setenv("PORT", "")
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9999", loaded.Server.Port)
	assert.Equal(t, cfg.Theme, loaded.Theme)
}
