// Package server exposes the portfolio page and its two small JSON
// endpoints over gin.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/internal/reveal"
	"github.com/Zachkp/folio/internal/site"
	"github.com/Zachkp/folio/internal/store"
	"github.com/Zachkp/folio/internal/theme"
	"github.com/Zachkp/folio/web"
)

// Route paths the page script talks to.
const (
	ThemePath  = "/api/theme"
	RevealPath = "/api/reveal"
)

// colorSchemeHint is the client hint carrying the OS color scheme.
const colorSchemeHint = "Sec-CH-Prefers-Color-Scheme"

// Deps are the collaborators of a Server.
type Deps struct {
	Config   *config.Config
	Pipeline *site.Pipeline
	Registry *reveal.Registry
	// Prefs is the server-side preference backend; nil keeps preferences
	// in cookies.
	Prefs  store.KV
	Logger *slog.Logger
}

// Server wires the routes.
type Server struct {
	cfg      *config.Config
	pipeline *site.Pipeline
	registry *reveal.Registry
	prefs    store.KV
	logger   *slog.Logger
	engine   *gin.Engine
}

// New builds the gin engine and registers every route.
func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		cfg:      d.Config,
		pipeline: d.Pipeline,
		registry: d.Registry,
		prefs:    d.Prefs,
		logger:   d.Logger,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.logger))
	r.Use(s.visitorMiddleware())

	r.StaticFS("/static", http.FS(web.Static()))
	if info, err := os.Stat("images"); err == nil && info.IsDir() {
		r.Static("/images", "./images")
	}

	r.GET("/", s.handleIndex)
	r.GET("/data.json", s.handleData)
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.POST(ThemePath, s.handleTheme)
	r.POST(RevealPath, s.handleReveal)

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves on the configured port until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Server.Port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", "http://localhost:"+s.cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleIndex(c *gin.Context) {
	// Critical-CH makes a hint-capable browser retry the first visit with the
	// hint, so the color scheme is known before anything is stored.
	c.Header("Accept-CH", colorSchemeHint)
	c.Header("Critical-CH", colorSchemeHint)
	c.Header("Vary", colorSchemeHint+", Cookie")
	c.Header("Cache-Control", "no-store")

	page := s.pipeline.Render(c.Request.Context(), site.Request{
		Storage: s.storageFor(c),
		System:  systemPreference(c),
	})
	body, err := page.HTML()
	if err != nil {
		s.logger.Error("could not serialize page", "error", err)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", body)
}

// systemPreference reads the color-scheme client hint.
func systemPreference(c *gin.Context) theme.Preference {
	p, err := theme.Parse(strings.Trim(c.GetHeader(colorSchemeHint), `"`))
	if err != nil {
		return ""
	}
	return p
}

func (s *Server) handleData(c *gin.Context) {
	path := s.cfg.Content.DataFile
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "portfolio data not found"})
		return
	}
	c.Header("Content-Type", "application/json")
	c.File(path)
}

type themeRequest struct {
	Checked *bool `json:"checked" binding:"required"`
}

func (s *Server) handleTheme(c *gin.Context) {
	var req themeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected {\"checked\": bool}"})
		return
	}
	themes := theme.NewController(s.storageFor(c), s.logger, theme.WithKey(s.cfg.Theme.Key))
	p := themes.Toggle(*req.Checked)
	c.JSON(http.StatusOK, gin.H{"theme": p})
}

type revealRequest struct {
	PageID  string         `json:"page_id" binding:"required"`
	Entries []reveal.Entry `json:"entries"`
}

func (s *Server) handleReveal(c *gin.Context) {
	var req revealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected {\"page_id\": string, \"entries\": [...]}"})
		return
	}
	if s.registry == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "reveal tracking disabled"})
		return
	}
	revealed, err := s.registry.Intersect(req.PageID, req.Entries)
	if errors.Is(err, reveal.ErrUnknownPage) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown page"})
		return
	}
	if err != nil {
		s.logger.Error("reveal failed", "page_id", req.PageID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reveal failed"})
		return
	}
	if revealed == nil {
		revealed = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"revealed": revealed})
}

// isAssetPath reports whether path is a static asset.
func isAssetPath(path string) bool {
	return strings.HasPrefix(path, "/static/") ||
		strings.HasPrefix(path, "/images/") ||
		strings.HasPrefix(path, "/favicon")
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelDebug
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		} else if !isAssetPath(c.Request.URL.Path) {
			level = slog.LevelInfo
		}
		logger.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
