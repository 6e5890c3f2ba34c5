// Package portfolio holds the Portfolio Document: the JSON file describing a
// person, their sections of work and their skills. Nothing in it is
// validated; missing fields decode to empty values.
package portfolio

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Text is a scalar JSON field carried as a string. Strings, numbers and
// booleans are accepted; null and missing fields are empty.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*t = Text(data)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*t = Text(n.String())
	}
	return nil
}

// String returns the text.
func (t Text) String() string { return string(t) }

// Flag is a boolean JSON field that also accepts "true"/"false" strings
// and numbers; anything unrecognised is false.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	var t Text
	if err := t.UnmarshalJSON(data); err != nil {
		return err
	}
	if n, err := strconv.ParseFloat(string(t), 64); err == nil {
		*f = n != 0
		return nil
	}
	b, _ := strconv.ParseBool(string(t))
	*f = Flag(b)
	return nil
}

// Document is the whole portfolio.
type Document struct {
	Personal Personal  `json:"personal"`
	About    Text      `json:"about"`
	Skills   []Text    `json:"skills"`
	Sections []Section `json:"sections"`

	// Projects is the fixed projects grid of the older single-section layout.
	// It is only used when Sections is absent.
	Projects []Item `json:"projects"`
}

// Personal identifies the person the portfolio belongs to.
type Personal struct {
	Name         Text        `json:"name"`
	Title        Text        `json:"title"`
	ProfileImage Text        `json:"profile_image"`
	Email        Text        `json:"email"`
	SocialLinks  SocialLinks `json:"social_links"`
}

// SocialLinks lists the known social profiles. Unknown keys are dropped.
type SocialLinks struct {
	GitHub   Text `json:"github"`
	LinkedIn Text `json:"linkedin"`
	Twitter  Text `json:"twitter"`
}

// Section is a titled group of items, optionally laid out as a grid.
type Section struct {
	ID     Text   `json:"sectionId"`
	Title  Text   `json:"sectionTitle"`
	IsGrid Flag   `json:"isGridList"`
	List   []Item `json:"list"`
}

// Item is one card: a project, a job, a degree.
type Item struct {
	Title       Text   `json:"title"`
	Company     Text   `json:"company"`
	Date        Text   `json:"date"`
	From        Text   `json:"from"`
	To          Text   `json:"to"`
	Description Text   `json:"description"`
	Image       Text   `json:"image"`
	Tags        []Text `json:"tags"`
	LiveLink    Text   `json:"live_link"`
	CodeLink    Text   `json:"code_link"`
}

// ProjectsSectionID is the section id given to a bare projects list.
const ProjectsSectionID = "projects"

// AllSections returns the sections to render in document order. A document
// with no sections but a projects list yields a single grid section.
func (d *Document) AllSections() []Section {
	if d.Sections != nil || d.Projects == nil {
		return d.Sections
	}
	return []Section{{
		ID:     ProjectsSectionID,
		Title:  "Projects",
		IsGrid: true,
		List:   d.Projects,
	}}
}

// Decode parses a document from JSON. Only malformed JSON, or a list or
// object where a scalar belongs, is an error.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Err: err}
	}
	return &doc, nil
}
