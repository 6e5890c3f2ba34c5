// Package site runs the per-page-load pipeline: theme, content, reveal.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/dustin/go-humanize"
	"golang.org/x/net/html"

	"github.com/Zachkp/folio/internal/dom"
	"github.com/Zachkp/folio/internal/portfolio"
	"github.com/Zachkp/folio/internal/render"
	"github.com/Zachkp/folio/internal/reveal"
	"github.com/Zachkp/folio/internal/theme"
	"github.com/Zachkp/folio/web"
)

// Endpoints are stamped on <body> so the page script knows where to report.
type Endpoints struct {
	Theme  string
	Reveal string
}

// Options configure a Pipeline.
type Options struct {
	// TemplatePath is the page template file; empty uses the bundled one.
	TemplatePath string
	Fetcher      portfolio.Fetcher
	// Registry keeps reveal state between requests; nil skips registration.
	Registry    *reveal.Registry
	Reveal      reveal.Options
	AboutFormat render.Format
	ThemeKey    string
	Endpoints   Endpoints
	Logger      *slog.Logger
}

// Pipeline renders pages from a cached template.
type Pipeline struct {
	mu   sync.RWMutex
	tmpl *html.Node

	opts   Options
	logger *slog.Logger
}

// New loads the template and returns a pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("site: no document fetcher")
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.AboutFormat == "" {
		opts.AboutFormat = render.FormatText
	}
	if opts.ThemeKey == "" {
		opts.ThemeKey = theme.DefaultKey
	}
	if opts.Reveal.Threshold == 0 {
		opts.Reveal.Threshold = reveal.DefaultThreshold
	}
	if opts.Reveal.RootMargin == "" {
		opts.Reveal.RootMargin = reveal.DefaultOptions().RootMargin
	}
	p := &Pipeline{opts: opts, logger: opts.Logger}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// TemplatePath returns the configured template file, or "" when bundled.
func (p *Pipeline) TemplatePath() string { return p.opts.TemplatePath }

// Reload re-reads and re-parses the template. On failure the previous
// template stays in use.
func (p *Pipeline) Reload() error {
	data := web.Template()
	source := "bundled"
	if p.opts.TemplatePath != "" {
		var err error
		data, err = os.ReadFile(p.opts.TemplatePath)
		if err != nil {
			return fmt.Errorf("read template: %w", err)
		}
		source = p.opts.TemplatePath
	}

	doc, err := dom.Parse(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse template %s: %w", source, err)
	}

	p.mu.Lock()
	p.tmpl = doc
	p.mu.Unlock()

	p.logger.Debug("template loaded", "source", source, "size", humanize.Bytes(uint64(len(data))))
	return nil
}

func (p *Pipeline) template() *html.Node {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return dom.Clone(p.tmpl)
}

// Request carries the per-visitor inputs of one page load.
type Request struct {
	// Storage holds the visitor's theme preference; nil means none.
	Storage theme.Storage
	// System is the reported color-scheme preference, "" if unknown.
	System theme.Preference
}

// Stage names how far a page load got.
type Stage int

const (
	// StageTemplate: the toggle was missing; only the theme attribute is set.
	StageTemplate Stage = iota
	// StageThemed: theme applied, document not rendered.
	StageThemed
	// StagePartial: rendering stopped at a missing anchor.
	StagePartial
	// StageRendered: all content populated and reveal registered.
	StageRendered
)

// Page is the outcome of one page load.
type Page struct {
	Doc         *html.Node
	Theme       theme.Preference
	ThemeSource theme.Source
	PageID      string
	Stage       Stage
	// Err is the failure that stopped the load early, already logged.
	Err error
}

// HTML renders the page document.
func (p *Page) HTML() ([]byte, error) {
	var buf bytes.Buffer
	if err := dom.Render(&buf, p.Doc); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

// Render runs one page load. Failures never escape: they are logged, kept
// in Page.Err, and the page is returned as far as it got.
func (p *Pipeline) Render(ctx context.Context, req Request) *Page {
	page := &Page{Doc: p.template()}

	themes := theme.NewController(req.Storage, p.logger, theme.WithKey(p.opts.ThemeKey))
	pref, source := themes.ResolveSource(req.System)
	page.Theme, page.ThemeSource = pref, source
	if err := themes.Apply(page.Doc, pref); err != nil {
		p.logger.Error("theme toggle missing from template", "error", err)
		page.Err = err
		page.Stage = StageTemplate
		return page
	}
	p.stampBody(page)
	page.Stage = StageThemed

	doc, err := p.opts.Fetcher.Fetch(ctx)
	if err != nil {
		p.logger.Error("could not load portfolio data", "error", err)
		page.Err = err
		return page
	}

	rc := render.NewContext(page.Doc,
		render.WithAboutFormat(p.opts.AboutFormat),
		render.WithLogger(p.logger),
	)
	if err := render.Populate(rc, doc); err != nil {
		p.logger.Error("could not populate page", "error", err)
		page.Err = err
		page.Stage = StagePartial
		return page
	}
	page.Stage = StageRendered

	p.observe(page)
	return page
}

// observe registers reveal watchers over the final section set.
func (p *Pipeline) observe(page *Page) {
	if p.opts.Registry == nil {
		return
	}
	obs := reveal.NewObserver(p.opts.Reveal)
	if obs.Observe(page.Doc) == 0 {
		return
	}
	page.PageID = p.opts.Registry.Register(obs)
	if body := dom.ByTag(page.Doc, "body"); body != nil {
		dom.SetAttr(body, "data-page-id", page.PageID)
	}
}

// stampBody records what the page script needs on <body>: where the theme
// came from, the reveal settings and the report endpoints.
func (p *Pipeline) stampBody(page *Page) {
	body := dom.ByTag(page.Doc, "body")
	if body == nil {
		return
	}
	dom.SetAttr(body, "data-theme-source", string(page.ThemeSource))
	dom.SetAttr(body, "data-reveal-threshold", strconv.FormatFloat(p.opts.Reveal.Threshold, 'f', -1, 64))
	dom.SetAttr(body, "data-reveal-root-margin", p.opts.Reveal.RootMargin)
	if p.opts.Endpoints.Theme != "" {
		dom.SetAttr(body, "data-theme-endpoint", p.opts.Endpoints.Theme)
	}
	if p.opts.Endpoints.Reveal != "" {
		dom.SetAttr(body, "data-reveal-endpoint", p.opts.Endpoints.Reveal)
	}
}
