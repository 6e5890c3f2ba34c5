package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Zachkp/folio/internal/portfolio"
	"github.com/Zachkp/folio/internal/site"
	"github.com/Zachkp/folio/internal/store"
	"github.com/Zachkp/folio/internal/theme"
	"github.com/Zachkp/folio/web"
)

var buildOpts struct {
	out   string
	theme string
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Render the portfolio into a static directory",
	Long: `Render the portfolio into a static directory holding index.html,
data.json, the static assets and, when present, the images directory.

The rendered theme is --theme, else the preference saved with
"folio theme set", else light. In the browser a choice kept in local
storage wins, then the OS color scheme; the rendered theme is what is left
when neither is known.`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringVarP(&buildOpts.out, "out", "o", "", "Output directory (default: build.output_dir)")
	buildCmd.Flags().StringVar(&buildOpts.theme, "theme", "", "Initial theme: light or dark")
}

func runBuild(cmd *cobra.Command, args []string) error {
	out := buildOpts.out
	if out == "" {
		out = cfg.Build.OutputDir
	}

	pref, err := buildTheme()
	if err != nil {
		return err
	}

	// data.json is written as fetched, byte for byte
	data, err := newFetcher().FetchRaw(cmd.Context())
	if err != nil {
		return fmt.Errorf("load portfolio data: %w", err)
	}
	pipeline, err := newPipeline(portfolio.Bytes(data), nil, site.Endpoints{})
	if err != nil {
		return err
	}
	page := pipeline.Render(cmd.Context(), site.Request{System: pref})
	if page.Stage != site.StageRendered {
		return fmt.Errorf("render failed: %w", page.Err)
	}
	body, err := page.HTML()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(out, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	var total uint64
	for name, content := range map[string][]byte{"index.html": body, "data.json": data} {
		if err := os.WriteFile(filepath.Join(out, name), content, 0644); err != nil {
			return err
		}
		total += uint64(len(content))
	}

	n, err := copyTree(filepath.Join(out, "static"), web.Static())
	if err != nil {
		return fmt.Errorf("copy static assets: %w", err)
	}
	total += n
	if info, err := os.Stat("images"); err == nil && info.IsDir() {
		n, err := copyTree(filepath.Join(out, "images"), os.DirFS("images"))
		if err != nil {
			return fmt.Errorf("copy images: %w", err)
		}
		total += n
	}

	logger.Info("site built", "dir", out, "theme", page.Theme, "size", humanize.Bytes(total))
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// buildTheme picks the initial theme of a static build.
func buildTheme() (theme.Preference, error) {
	if buildOpts.theme != "" {
		return theme.Parse(buildOpts.theme)
	}
	if _, err := os.Stat(cfg.Theme.DBPath); err != nil {
		return theme.Light, nil
	}
	db, err := store.OpenSQLite(cfg.Theme.DBPath, logger)
	if err != nil {
		return "", err
	}
	defer db.Close()

	v, ok, err := db.Get(cfg.Theme.Key)
	if err != nil || !ok {
		return theme.Light, err
	}
	p, err := theme.Parse(v)
	if err != nil {
		logger.Warn("ignoring stored theme", "value", v)
		return theme.Light, nil
	}
	return p, nil
}

// copyTree copies every regular file of fsys under dst, overwriting, and
// returns the bytes written.
func copyTree(dst string, fsys fs.FS) (uint64, error) {
	var total uint64
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dst, filepath.FromSlash(path))
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		total += uint64(len(data))
		return os.WriteFile(target, data, 0644)
	})
	return total, err
}
