package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/internal/reveal"
	"github.com/Zachkp/folio/internal/server"
	"github.com/Zachkp/folio/internal/site"
	"github.com/Zachkp/folio/internal/store"
)

const (
	sweepInterval = time.Minute
	pruneInterval = 24 * time.Hour
)

var serveOpts struct {
	port string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the portfolio over HTTP",
	Long: `Serve the portfolio page, its static assets and the theme and reveal
endpoints. The port comes from --port, server.port, FOLIO_SERVER_PORT or PORT.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveOpts.port, "port", "p", "", "Port to listen on")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveOpts.port != "" {
		cfg.Server.Port = serveOpts.port
	}
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := reveal.NewRegistry(cfg.Reveal.TTL(), logger)
	go registry.Run(ctx, sweepInterval)

	pipeline, err := newPipeline(newFetcher(), registry, site.Endpoints{
		Theme:  server.ThemePath,
		Reveal: server.RevealPath,
	})
	if err != nil {
		return err
	}
	if cfg.Content.Watch {
		if err := pipeline.Watch(ctx); err != nil {
			logger.Warn("template hot reload disabled", "error", err)
		}
	}

	prefs, closePrefs, err := openPrefs(ctx)
	if err != nil {
		return err
	}
	defer closePrefs()

	srv := server.New(server.Deps{
		Config:   cfg,
		Pipeline: pipeline,
		Registry: registry,
		Prefs:    prefs,
		Logger:   logger,
	})
	return srv.ListenAndServe(ctx)
}

// openPrefs opens the server-side preference backend. The cookie backend
// has none and returns a nil store.
func openPrefs(ctx context.Context) (store.KV, func(), error) {
	switch cfg.Theme.Storage {
	case config.StorageMemory:
		return store.NewMemory(), func() {}, nil
	case config.StorageSQLite:
		db, err := store.OpenSQLite(cfg.Theme.DBPath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open preference store: %w", err)
		}
		go prune(ctx, db)
		return db, func() { db.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}

// prune drops stale visitor preferences once at startup and then daily.
func prune(ctx context.Context, db *store.SQLite) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		if _, err := db.PruneOlderThan(cfg.Theme.PruneAge()); err != nil {
			logger.Warn("could not prune preferences", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
