// Package theme resolves, applies and persists the light/dark preference.
package theme

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/net/html"

	"github.com/Zachkp/folio/internal/dom"
)

// Preference is the two-valued theme flag.
type Preference string

const (
	Light Preference = "light"
	Dark  Preference = "dark"
)

// DefaultKey is the storage key holding the preference.
const DefaultKey = "theme"

// Attribute is set on the root element and read by the stylesheet.
const Attribute = "data-theme"

// DefaultToggleID is the id of the checkbox reflecting the preference.
const DefaultToggleID = "theme-switch"

// ErrInvalid is returned for values that are neither dark nor light.
var ErrInvalid = errors.New("invalid theme preference")

// ErrMissingToggle is returned when the page has no toggle control.
var ErrMissingToggle = errors.New("missing theme toggle")

// Parse converts s to a Preference.
func Parse(s string) (Preference, error) {
	switch Preference(strings.ToLower(strings.TrimSpace(s))) {
	case Dark:
		return Dark, nil
	case Light:
		return Light, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalid, s)
}

// FromChecked maps the toggle state to a preference: checked is dark.
func FromChecked(checked bool) Preference {
	if checked {
		return Dark
	}
	return Light
}

// Checked reports whether the toggle should be checked.
func (p Preference) Checked() bool { return p == Dark }

func (p Preference) String() string { return string(p) }

// Storage is a string key-value store. Get reports ok=false for a key that
// was never written.
type Storage interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Controller owns the preference for one storage.
type Controller struct {
	store    Storage
	key      string
	toggleID string
	logger   *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(c *Controller) { c.key = key }
}

// WithToggleID overrides the toggle control id.
func WithToggleID(id string) Option {
	return func(c *Controller) { c.toggleID = id }
}

// NewController returns a controller over store. A nil logger discards.
func NewController(store Storage, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Controller{
		store:    store,
		key:      DefaultKey,
		toggleID: DefaultToggleID,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stored returns the persisted preference. Unreadable storage and invalid
// values count as no preference.
func (c *Controller) Stored() (Preference, bool) {
	if c.store == nil {
		return "", false
	}
	v, ok, err := c.store.Get(c.key)
	if err != nil {
		c.logger.Debug("theme storage unavailable", "key", c.key, "error", err)
		return "", false
	}
	if !ok {
		return "", false
	}
	p, err := Parse(v)
	if err != nil {
		c.logger.Debug("ignoring stored theme", "value", v)
		return "", false
	}
	return p, true
}

// Source tells where a resolved preference came from.
type Source string

const (
	SourceStored  Source = "stored"
	SourceSystem  Source = "system"
	SourceDefault Source = "default"
)

// Resolve picks the effective preference: the stored one, else the system
// one (pass "" when the system reports nothing), else light.
func (c *Controller) Resolve(system Preference) Preference {
	p, _ := c.ResolveSource(system)
	return p
}

// ResolveSource is Resolve that also reports which rule decided.
func (c *Controller) ResolveSource(system Preference) (Preference, Source) {
	if p, ok := c.Stored(); ok {
		return p, SourceStored
	}
	if system == Dark || system == Light {
		return system, SourceSystem
	}
	return Light, SourceDefault
}

// Apply sets the theme attribute on the root element and syncs the toggle.
func (c *Controller) Apply(doc *html.Node, p Preference) error {
	root := dom.ByTag(doc, "html")
	if root == nil {
		root = doc
	}
	dom.SetAttr(root, Attribute, p.String())

	toggle := dom.ByID(doc, c.toggleID)
	if toggle == nil {
		return fmt.Errorf("%w: #%s", ErrMissingToggle, c.toggleID)
	}
	if p.Checked() {
		dom.SetAttr(toggle, "checked", "")
	} else {
		dom.RemoveAttr(toggle, "checked")
	}
	return nil
}

// Init resolves and applies the preference in one pass.
func (c *Controller) Init(doc *html.Node, system Preference) (Preference, error) {
	p := c.Resolve(system)
	return p, c.Apply(doc, p)
}

// Toggle records an explicit choice from the toggle control. A storage
// failure is logged and otherwise ignored: the returned preference is still
// the new one, so callers re-apply it for the current page.
func (c *Controller) Toggle(checked bool) Preference {
	p := FromChecked(checked)
	if c.store == nil {
		return p
	}
	if err := c.store.Set(c.key, p.String()); err != nil {
		c.logger.Warn("theme preference not persisted", "key", c.key, "theme", p, "error", err)
	}
	return p
}
