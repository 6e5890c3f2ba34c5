package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/internal/store"
	"github.com/Zachkp/folio/internal/theme"
)

func withConfig(t *testing.T) {
	t.Helper()
	cfg = config.DefaultConfig()
	cfg.Theme.DBPath = filepath.Join(t.TempDir(), "folio.db")
	logger = slog.New(slog.DiscardHandler)
	buildOpts.theme = ""
	t.Cleanup(func() { buildOpts.theme = "" })
}

func TestCopyTreeOverwrites(t *testing.T) {
	dst := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dst, "css"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dst, "css", "style.css"), []byte("old"), 0644))

	n, err := copyTree(dst, fstest.MapFS{
		"css/style.css": {Data: []byte("body{}")},
		"js/site.js":    {Data: []byte("x")},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), n)

	got, err := os.ReadFile(filepath.Join(dst, "css", "style.css"))
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(got))
	assert.FileExists(t, filepath.Join(dst, "js", "site.js"))
}

func TestBuildThemeDefaultsToLight(t *testing.T) {
	withConfig(t)

	p, err := buildTheme()
	require.NoError(t, err)
	assert.Equal(t, theme.Light, p)
	assert.NoFileExists(t, cfg.Theme.DBPath)
}

func TestBuildThemeFromStore(t *testing.T) {
	withConfig(t)
	db, err := store.OpenSQLite(cfg.Theme.DBPath, nil)
	require.NoError(t, err)
	require.NoError(t, db.Set(cfg.Theme.Key, "dark"))
	require.NoError(t, db.Close())

	p, err := buildTheme()
	require.NoError(t, err)
	assert.Equal(t, theme.Dark, p)

	buildOpts.theme = "light"
	p, err = buildTheme()
	require.NoError(t, err)
	assert.Equal(t, theme.Light, p)
}

func TestBuildThemeRejectsUnknownFlag(t *testing.T) {
	withConfig(t)
	buildOpts.theme = "sepia"

	_, err := buildTheme()
	assert.ErrorIs(t, err, theme.ErrInvalid)
}

func TestBuildCopiesDataVerbatim(t *testing.T) {
	withConfig(t)
	dir := t.TempDir()
	t.Chdir(dir)

	// a projects-only document with a number and a key the renderer ignores
	src := []byte(`{"personal": {"name": "Ada", "social_links": {"mastodon": "https://example.social/@ada"}},
  "skills": ["Go", 42],
  "projects": [{"title": "Engine"}]}`)
	cfg.Content.DataFile = filepath.Join(dir, "data.json")
	cfg.Build.OutputDir = filepath.Join(dir, "public")
	require.NoError(t, os.WriteFile(cfg.Content.DataFile, src, 0644))

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(io.Discard)
	require.NoError(t, runBuild(cmd, nil))

	got, err := os.ReadFile(filepath.Join(cfg.Build.OutputDir, "data.json"))
	require.NoError(t, err)
	assert.Equal(t, string(src), string(got))

	index, err := os.ReadFile(filepath.Join(cfg.Build.OutputDir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "Engine")
	assert.FileExists(t, filepath.Join(cfg.Build.OutputDir, "static", "js", "site.js"))
}
