package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/Zachkp/folio/internal/dom"
	"github.com/Zachkp/folio/internal/portfolio"
	"github.com/Zachkp/folio/web"
)

func template(t *testing.T) *html.Node {
	t.Helper()
	doc, err := dom.Parse(bytes.NewReader(web.Template()))
	require.NoError(t, err)
	return doc
}

func decode(t *testing.T, js string) *portfolio.Document {
	t.Helper()
	doc, err := portfolio.Decode([]byte(js))
	require.NoError(t, err)
	return doc
}

func texts(nodes []*html.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, dom.Text(n))
	}
	return out
}

func TestPopulateWellFormedDocument(t *testing.T) {
	page := template(t)
	doc := decode(t, string(web.Sample()))

	require.NoError(t, Populate(NewContext(page), doc))

	assert.Equal(t, "Zach Kordas-Potter", dom.Text(dom.ByID(page, "hero-name")))
	assert.Equal(t, "Software Developer", dom.Text(dom.ByID(page, "hero-title")))
	assert.Equal(t, "Zach Kordas-Potter", dom.Text(dom.ByID(page, "footer-name")))
	src, _ := dom.Attr(dom.ByID(page, "hero-img"), "src")
	assert.Equal(t, "images/profile.jpg", src)
	assert.Contains(t, dom.Text(dom.ByID(page, "about-text")), "useful and fun")

	assert.Equal(t, []string{"Go", "JavaScript", "SQL", "HTMX", "Linux"},
		texts(dom.ByClass(page, "skill-badge")))

	titles := texts(dom.ByClass(dom.ByID(page, "main-sections"), "item-title"))
	assert.Equal(t, []string{"Presentation Expert", "Terminal Mail", "Portfolio", "Bachelor of Computer Science"}, titles)

	href, _ := dom.Attr(dom.ByID(page, "contact-email"), "href")
	assert.Equal(t, "mailto:hello@example.com", href)
}

func TestSectionsExperienceExample(t *testing.T) {
	page := template(t)
	doc := decode(t, `{"sections": [{"sectionId": "exp", "sectionTitle": "Experience", "isGridList": false,
		"list": [{"title": "Engineer", "company": "Acme", "from": "2020", "to": "2022"}]}]}`)

	require.NoError(t, Sections(NewContext(page), doc))

	sec := dom.ByID(page, "exp")
	require.NotNil(t, sec)
	assert.True(t, dom.HasClass(sec, SectionClass))
	assert.Equal(t, "Experience", dom.Text(dom.ByTag(sec, "h2")))

	content := dom.ByClass(sec, "section-content")
	require.Len(t, content, 1)
	assert.False(t, dom.HasClass(content[0], GridClass))

	cards := dom.ByClass(sec, "item-card")
	require.Len(t, cards, 1)
	text := dom.Text(cards[0])
	for _, want := range []string{"Engineer", "Acme", "From: 2020", "To: 2022"} {
		assert.Contains(t, text, want)
	}
}

func TestCardOmitsMissingFragments(t *testing.T) {
	page := template(t)
	doc := decode(t, `{"sections": [{"sectionId": "p", "sectionTitle": "P", "isGridList": true,
		"list": [{"title": "Bare"}, {"title": "Tagged", "tags": ["go"], "code_link": "https://x.dev"}]}]}`)

	require.NoError(t, Sections(NewContext(page), doc))

	cards := dom.ByClass(page, "item-card")
	require.Len(t, cards, 2)
	assert.True(t, dom.HasClass(dom.ByClass(page, "section-content")[0], GridClass))

	bare := cards[0]
	assert.Empty(t, dom.ByClass(bare, "item-tags"))
	assert.Empty(t, dom.ByClass(bare, "item-links"))
	assert.Empty(t, dom.ByClass(bare, "item-range"))
	assert.Empty(t, dom.ByClass(bare, "item-description"))
	assert.Nil(t, dom.ByTag(bare, "img"))

	tagged := cards[1]
	assert.Equal(t, []string{"go"}, texts(dom.ByClass(tagged, "item-tags")))
	linkBox := dom.ByClass(tagged, "item-links")
	require.Len(t, linkBox, 1)
	assert.Equal(t, "View Code", dom.Text(linkBox[0]))
}

func TestUserFieldsAreNotInterpretedAsMarkup(t *testing.T) {
	page := template(t)
	doc := decode(t, `{"personal": {"name": "<b>bold</b>"},
		"sections": [{"sectionId": "x", "sectionTitle": "<img src=x onerror=alert(1)>",
		"list": [{"title": "<script>alert(1)</script>", "tags": ["<i>t</i>"],
		"live_link": "javascript:alert(1)"}]}]}`)

	require.NoError(t, Populate(NewContext(page), doc))

	out := dom.String(page)
	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.NotContains(t, out, "<img src=x")
	assert.NotContains(t, out, "javascript:")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Equal(t, "<b>bold</b>", dom.Text(dom.ByID(page, "hero-name")))
	assert.Nil(t, dom.ByTag(dom.ByID(page, "hero-name"), "b"))
}

func TestSocialsHaveFixedCardinality(t *testing.T) {
	page := template(t)
	doc := decode(t, `{"personal": {"social_links": {"github": "https://github.com/a", "myspace": "https://m"}}}`)

	require.NoError(t, Socials(NewContext(page), doc))

	var anchors []*html.Node
	for c := dom.ByID(page, "hero-socials").FirstChild; c != nil; c = c.NextSibling {
		anchors = append(anchors, c)
	}
	require.Len(t, anchors, 3)
	href, _ := dom.Attr(anchors[0], "href")
	assert.Equal(t, "https://github.com/a", href)
	href, ok := dom.Attr(anchors[2], "href")
	assert.True(t, ok)
	assert.Empty(t, href)
	label, _ := dom.Attr(anchors[1], "aria-label")
	assert.Equal(t, "LinkedIn", label)
}

func TestMissingFieldsRenderEmpty(t *testing.T) {
	page := template(t)
	require.NoError(t, Populate(NewContext(page), decode(t, `{}`)))

	assert.Empty(t, dom.Text(dom.ByID(page, "hero-name")))
	assert.Nil(t, dom.ByID(page, "main-sections").FirstChild)
	assert.Nil(t, dom.ByID(page, "skills-container").FirstChild)
	href, _ := dom.Attr(dom.ByID(page, "contact-email"), "href")
	assert.Equal(t, "mailto:", href)
}

func TestMissingAnchorStopsRemainingSteps(t *testing.T) {
	page, err := dom.Parse(strings.NewReader(`<html><body>
		<h1 id="hero-name"></h1><p id="hero-title"></p><img id="hero-img"><span id="footer-name"></span>
		<div id="skills-container"></div></body></html>`))
	require.NoError(t, err)

	err = Populate(NewContext(page), decode(t, `{"personal": {"name": "Ada"}, "skills": ["Go"]}`))
	require.ErrorIs(t, err, ErrMissingAnchor)
	assert.Contains(t, err.Error(), "#hero-socials")

	assert.Equal(t, "Ada", dom.Text(dom.ByID(page, "hero-name")))
	assert.Nil(t, dom.ByID(page, "skills-container").FirstChild)
}

func TestAboutMarkdown(t *testing.T) {
	page := template(t)
	doc := decode(t, `{"about": "I like **Go**.\n\n<script>x()</script>"}`)

	require.NoError(t, About(NewContext(page, WithAboutFormat(FormatMarkdown)), doc))

	about := dom.ByID(page, "about-text")
	strong := dom.ByTag(about, "strong")
	require.NotNil(t, strong)
	assert.Equal(t, "Go", dom.Text(strong))
	assert.Nil(t, dom.ByTag(about, "script"))
}

func TestProjectsFallbackRendersGrid(t *testing.T) {
	page := template(t)
	doc := decode(t, `{"projects": [{"title": "One", "tags": ["a", "b"]}]}`)

	require.NoError(t, Sections(NewContext(page), doc))

	sec := dom.ByID(page, portfolio.ProjectsSectionID)
	require.NotNil(t, sec)
	assert.Equal(t, "Projects", dom.Text(dom.ByTag(sec, "h2")))
	assert.True(t, dom.HasClass(dom.ByClass(sec, "section-content")[0], GridClass))
}

func TestSafeURL(t *testing.T) {
	cases := map[string]string{
		"":                        "",
		"https://example.com/a":   "https://example.com/a",
		"http://example.com":      "http://example.com",
		"mailto:a@b.c":            "mailto:a@b.c",
		"images/me.png":           "images/me.png",
		"/abs/path":               "/abs/path",
		"javascript:alert(1)":     "#",
		" JavaScript:alert(1)":    "#",
		"data:text/html;base64,x": "#",
	}
	for in, want := range cases {
		assert.Equal(t, want, SafeURL(in), "input %q", in)
	}
}

func TestSafeImageURLAllowsInlineImages(t *testing.T) {
	png := "data:image/png;base64,iVBORw0KGgo="
	assert.Equal(t, png, SafeImageURL(png))
	assert.Equal(t, "images/me.png", SafeImageURL("images/me.png"))
	assert.Equal(t, "#", SafeImageURL("data:text/html;base64,x"))
	assert.Equal(t, "#", SafeImageURL("javascript:alert(1)"))
	assert.Equal(t, "#", SafeURL(png), "links never take data URLs")

	page := template(t)
	doc := decode(t, `{"personal": {"profile_image": "`+png+`"},
		"sections": [{"sectionId": "p", "list": [{"title": "x", "image": "`+png+`"}]}]}`)
	require.NoError(t, Populate(NewContext(page), doc))

	src, _ := dom.Attr(dom.ByID(page, "hero-img"), "src")
	assert.Equal(t, png, src)
	src, _ = dom.Attr(dom.ByTag(dom.ByID(page, "p"), "img"), "src")
	assert.Equal(t, png, src)
}
