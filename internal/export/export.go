// Package export turns a rendered portfolio page into Markdown.
package export

import (
	"errors"
	"fmt"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"

	"github.com/Zachkp/folio/internal/dom"
)

// ErrNoContent is returned when the page has neither <main> nor <body>.
var ErrNoContent = errors.New("export: page has no content root")

// Markdown converts the page's <main> element, or <body> when there is
// none. Images with an empty source and the theme toggle are left out.
func Markdown(page *html.Node) ([]byte, error) {
	root := dom.ByTag(page, "main")
	if root == nil {
		root = dom.ByTag(page, "body")
	}
	if root == nil {
		return nil, ErrNoContent
	}

	root = dom.Clone(root)
	strip(root)

	out, err := htmltomarkdown.ConvertNode(root)
	if err != nil {
		return nil, fmt.Errorf("convert to markdown: %w", err)
	}
	return out, nil
}

func strip(root *html.Node) {
	var drop []*html.Node
	dom.Walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		switch n.Data {
		case "img":
			if src, _ := dom.Attr(n, "src"); src == "" {
				drop = append(drop, n)
			}
		case "input", "script":
			drop = append(drop, n)
		}
		return true
	})
	for _, n := range drop {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
}
