package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/internal/portfolio"
	"github.com/Zachkp/folio/internal/render"
	"github.com/Zachkp/folio/internal/reveal"
	"github.com/Zachkp/folio/internal/site"
)

var (
	version = "dev"
	commit  = "unknown"
)

var (
	cfg        *config.Config
	logger     *slog.Logger
	globalOpts struct {
		verbose    bool
		configPath string
	}
)

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Single-page portfolio renderer",
	Long: `folio renders a single-page portfolio from a JSON document.

It serves the page with a persistent light/dark theme and scroll-reveal
sections, or builds it into a static directory.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return setupLogger()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ./folio.toml)")
}

// setupLogger builds the slog logger from the log section of the config.
func setupLogger() error {
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger = slog.New(handler)
	slog.SetDefault(logger)
	return nil
}

// newFetcher fetches from content.data_url when set, else reads
// content.data_file.
func newFetcher() portfolio.Source {
	if cfg.Content.DataURL != "" {
		return portfolio.NewHTTPFetcher(cfg.Content.DataURL, &http.Client{Timeout: cfg.Content.Timeout()})
	}
	return portfolio.NewFileFetcher(cfg.Content.DataFile)
}

func newPipeline(fetcher portfolio.Fetcher, registry *reveal.Registry, endpoints site.Endpoints) (*site.Pipeline, error) {
	return site.New(site.Options{
		TemplatePath: cfg.Content.TemplateFile,
		Fetcher:      fetcher,
		Registry:     registry,
		Reveal: reveal.Options{
			Threshold:  cfg.Reveal.Threshold,
			RootMargin: cfg.Reveal.RootMargin,
		},
		AboutFormat: render.Format(cfg.Content.AboutFormat),
		ThemeKey:    cfg.Theme.Key,
		Endpoints:   endpoints,
		Logger:      logger,
	})
}
