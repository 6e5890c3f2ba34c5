// Package render populates a parsed page template from a portfolio document.
//
// Every step writes user-controlled values through text nodes or attribute
// assignment, so fields holding markup are displayed, not executed.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"

	"github.com/Zachkp/folio/internal/dom"
	"github.com/Zachkp/folio/internal/portfolio"
)

// ErrMissingAnchor is returned when the template lacks an insertion point.
var ErrMissingAnchor = errors.New("missing anchor element")

// Class names shared with the stylesheet and the reveal controller.
const (
	SectionClass = "content-section"
	GridClass    = "grid-list"
)

// Format selects how the about text is inserted.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

// Anchors names the element ids the renderer writes into.
type Anchors struct {
	HeroName   string
	HeroTitle  string
	HeroImage  string
	FooterName string
	Socials    string
	About      string
	Sections   string
	Skills     string
	Contact    string
}

// DefaultAnchors returns the ids the bundled template provides.
func DefaultAnchors() Anchors {
	return Anchors{
		HeroName:   "hero-name",
		HeroTitle:  "hero-title",
		HeroImage:  "hero-img",
		FooterName: "footer-name",
		Socials:    "hero-socials",
		About:      "about-text",
		Sections:   "main-sections",
		Skills:     "skills-container",
		Contact:    "contact-email",
	}
}

// Context is the state every render step works against.
type Context struct {
	Doc         *html.Node
	Anchors     Anchors
	AboutFormat Format
	Logger      *slog.Logger

	markdown goldmark.Markdown
}

// Option configures a Context.
type Option func(*Context)

// WithAnchors overrides the anchor ids.
func WithAnchors(a Anchors) Option {
	return func(c *Context) { c.Anchors = a }
}

// WithAboutFormat selects plain text or markdown for the about text.
func WithAboutFormat(f Format) Option {
	return func(c *Context) { c.AboutFormat = f }
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Context) { c.Logger = l }
}

// NewContext returns a render context over doc.
func NewContext(doc *html.Node, opts ...Option) *Context {
	c := &Context{
		Doc:         doc,
		Anchors:     DefaultAnchors(),
		AboutFormat: FormatText,
		Logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.AboutFormat == FormatMarkdown {
		c.markdown = goldmark.New()
	}
	return c
}

// anchor returns the element with the given id or ErrMissingAnchor.
func (c *Context) anchor(id string) (*html.Node, error) {
	n := dom.ByID(c.Doc, id)
	if n == nil {
		return nil, fmt.Errorf("%w: #%s", ErrMissingAnchor, id)
	}
	return n, nil
}

// Step is one population pass.
type Step func(*Context, *portfolio.Document) error

// Steps lists the population passes in the order Populate runs them.
var Steps = []Step{Hero, Socials, About, Sections, Skills, Contact}

// Populate runs every step. The first missing anchor stops the run; the
// steps already applied stay applied.
func Populate(c *Context, doc *portfolio.Document) error {
	for _, step := range Steps {
		if err := step(c, doc); err != nil {
			return err
		}
	}
	return nil
}

// Hero writes the name, title and profile image, and the footer name.
func Hero(c *Context, doc *portfolio.Document) error {
	p := doc.Personal

	name, err := c.anchor(c.Anchors.HeroName)
	if err != nil {
		return err
	}
	dom.SetText(name, p.Name.String())

	title, err := c.anchor(c.Anchors.HeroTitle)
	if err != nil {
		return err
	}
	dom.SetText(title, p.Title.String())

	img, err := c.anchor(c.Anchors.HeroImage)
	if err != nil {
		return err
	}
	dom.SetAttr(img, "src", SafeImageURL(p.ProfileImage.String()))
	dom.SetAttr(img, "alt", p.Name.String())

	footer, err := c.anchor(c.Anchors.FooterName)
	if err != nil {
		return err
	}
	dom.SetText(footer, p.Name.String())
	return nil
}

// socialLink describes one fixed social anchor.
type socialLink struct {
	label string
	icon  string
	href  func(portfolio.SocialLinks) portfolio.Text
}

var socialLinks = []socialLink{
	{"GitHub", "fa-github", func(s portfolio.SocialLinks) portfolio.Text { return s.GitHub }},
	{"LinkedIn", "fa-linkedin", func(s portfolio.SocialLinks) portfolio.Text { return s.LinkedIn }},
	{"Twitter", "fa-twitter", func(s portfolio.SocialLinks) portfolio.Text { return s.Twitter }},
}

// Socials replaces the social container with one anchor per known network.
// Missing links still get an anchor, with an empty href.
func Socials(c *Context, doc *portfolio.Document) error {
	container, err := c.anchor(c.Anchors.Socials)
	if err != nil {
		return err
	}
	var anchors []*html.Node
	for _, s := range socialLinks {
		anchors = append(anchors, dom.Element("a", []html.Attribute{
			dom.A("href", SafeURL(s.href(doc.Personal.SocialLinks).String())),
			dom.A("target", "_blank"),
			dom.A("rel", "noopener noreferrer"),
			dom.A("aria-label", s.label),
		}, dom.Element("i", []html.Attribute{dom.A("class", "fab "+s.icon)})))
	}
	dom.ReplaceChildren(container, anchors...)
	return nil
}

// About writes the about text, as plain text or as rendered markdown.
func About(c *Context, doc *portfolio.Document) error {
	container, err := c.anchor(c.Anchors.About)
	if err != nil {
		return err
	}
	if c.AboutFormat != FormatMarkdown || c.markdown == nil {
		dom.SetText(container, doc.About.String())
		return nil
	}

	var buf bytes.Buffer
	if err := c.markdown.Convert([]byte(doc.About), &buf); err != nil {
		c.Logger.Warn("markdown conversion failed, using plain text", "error", err)
		dom.SetText(container, doc.About.String())
		return nil
	}
	nodes, err := dom.ParseFragment(buf.String(), container)
	if err != nil {
		c.Logger.Warn("markdown fragment rejected, using plain text", "error", err)
		dom.SetText(container, doc.About.String())
		return nil
	}
	dom.ReplaceChildren(container, nodes...)
	return nil
}

// Sections replaces the section holder with one section per document section.
func Sections(c *Context, doc *portfolio.Document) error {
	holder, err := c.anchor(c.Anchors.Sections)
	if err != nil {
		return err
	}
	var sections []*html.Node
	for _, s := range doc.AllSections() {
		sections = append(sections, section(s))
	}
	dom.ReplaceChildren(holder, sections...)
	return nil
}

func section(s portfolio.Section) *html.Node {
	contentClass := "section-content"
	if s.IsGrid {
		contentClass += " " + GridClass
	}
	var cards []*html.Node
	for _, it := range s.List {
		cards = append(cards, card(it))
	}
	content := dom.Element("div", []html.Attribute{dom.A("class", contentClass)}, cards...)

	return dom.Element("section",
		[]html.Attribute{dom.A("id", s.ID.String()), dom.A("class", SectionClass)},
		dom.Element("h2", []html.Attribute{dom.A("class", "section-title")}, dom.TextNode(s.Title.String())),
		content,
	)
}

// card builds one item card holding only the fields the item has.
func card(it portfolio.Item) *html.Node {
	var image *html.Node
	if it.Image != "" {
		image = dom.Element("img", []html.Attribute{
			dom.A("src", SafeImageURL(it.Image.String())),
			dom.A("alt", it.Title.String()),
		})
	}

	body := dom.Element("div", []html.Attribute{dom.A("class", "item-card-content")},
		textElement("h3", "item-title", it.Title),
		textElement("p", "item-company", it.Company),
		textElement("p", "item-date", it.Date),
		dateRange(it.From, it.To),
		textElement("p", "item-description", it.Description),
		tags(it.Tags),
		links(it.LiveLink, it.CodeLink),
	)
	return dom.Element("article", []html.Attribute{dom.A("class", "item-card")}, image, body)
}

// textElement returns nil for empty text so the fragment is left out.
func textElement(tag, class string, text portfolio.Text) *html.Node {
	if text == "" {
		return nil
	}
	return dom.Element(tag, []html.Attribute{dom.A("class", class)}, dom.TextNode(text.String()))
}

func dateRange(from, to portfolio.Text) *html.Node {
	if from == "" && to == "" {
		return nil
	}
	var parts []*html.Node
	if from != "" {
		parts = append(parts, dom.Element("span", []html.Attribute{dom.A("class", "item-from")}, dom.TextNode("From: "+from.String())))
	}
	if to != "" {
		parts = append(parts, dom.Element("span", []html.Attribute{dom.A("class", "item-to")}, dom.TextNode("To: "+to.String())))
	}
	return dom.Element("p", []html.Attribute{dom.A("class", "item-range")}, parts...)
}

func tags(list []portfolio.Text) *html.Node {
	if len(list) == 0 {
		return nil
	}
	spans := make([]*html.Node, 0, len(list))
	for _, t := range list {
		spans = append(spans, dom.Element("span", nil, dom.TextNode(t.String())))
	}
	return dom.Element("div", []html.Attribute{dom.A("class", "item-tags")}, spans...)
}

func links(live, code portfolio.Text) *html.Node {
	if live == "" && code == "" {
		return nil
	}
	var anchors []*html.Node
	if live != "" {
		anchors = append(anchors, externalLink(live, "View Live"))
	}
	if code != "" {
		anchors = append(anchors, externalLink(code, "View Code"))
	}
	return dom.Element("div", []html.Attribute{dom.A("class", "item-links")}, anchors...)
}

func externalLink(href portfolio.Text, label string) *html.Node {
	return dom.Element("a", []html.Attribute{
		dom.A("href", SafeURL(href.String())),
		dom.A("target", "_blank"),
		dom.A("rel", "noopener noreferrer"),
	}, dom.TextNode(label))
}

// Skills replaces the skills container with one badge per skill.
func Skills(c *Context, doc *portfolio.Document) error {
	container, err := c.anchor(c.Anchors.Skills)
	if err != nil {
		return err
	}
	badges := make([]*html.Node, 0, len(doc.Skills))
	for _, s := range doc.Skills {
		badges = append(badges, dom.Element("div", []html.Attribute{dom.A("class", "skill-badge")}, dom.TextNode(s.String())))
	}
	dom.ReplaceChildren(container, badges...)
	return nil
}

// Contact points the contact link at the email address.
func Contact(c *Context, doc *portfolio.Document) error {
	link, err := c.anchor(c.Anchors.Contact)
	if err != nil {
		return err
	}
	dom.SetAttr(link, "href", "mailto:"+doc.Personal.Email.String())
	return nil
}

// SafeURL returns raw unless it carries a scheme other than http, https or
// mailto, in which case it returns "#". Relative references pass through.
func SafeURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "#"
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto":
		return raw
	default:
		return "#"
	}
}

// SafeImageURL is SafeURL for image sources, which may also be inline
// data:image/ URLs.
func SafeImageURL(raw string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(raw)), "data:image/") {
		return raw
	}
	return SafeURL(raw)
}
