// Package web bundles the default page template, a sample portfolio
// document and the static assets the page links to.
package web

import (
	"embed"
	"io/fs"
)

//go:embed index.html data.json static
var files embed.FS

// TemplateName is the bundled page template.
const TemplateName = "index.html"

// SampleDocument is the bundled example portfolio document.
const SampleDocument = "data.json"

// Template returns the bundled page template.
func Template() []byte {
	data, err := files.ReadFile(TemplateName)
	if err != nil {
		panic("web: bundled template missing: " + err.Error())
	}
	return data
}

// Sample returns the bundled example portfolio document.
func Sample() []byte {
	data, err := files.ReadFile(SampleDocument)
	if err != nil {
		panic("web: bundled sample missing: " + err.Error())
	}
	return data
}

// Static returns the static asset tree rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic("web: bundled static tree missing: " + err.Error())
	}
	return sub
}
