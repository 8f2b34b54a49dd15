// Package dom implements feature pages over parsed HTML documents.
package dom

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/clintrovert/prbranches/internal/feature"
)

// Document is a parsed HTML page
type Document struct {
	doc *goquery.Document
}

// Parse reads an HTML document
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Document{doc: doc}, nil
}

// ParseString parses an HTML document held in a string
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// QueryAll returns every element matching selector in document order
func (d *Document) QueryAll(_ context.Context, selector string) ([]feature.Element, error) {
	var elements []feature.Element
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, element{sel: s})
	})
	return elements, nil
}

// Find exposes the underlying selection, mostly for inspection in tests
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Render writes the document as HTML
func (d *Document) Render(w io.Writer) error {
	for _, n := range d.doc.Nodes {
		if err := html.Render(w, n); err != nil {
			return fmt.Errorf("failed to render document: %w", err)
		}
	}
	return nil
}

// String renders the document, returning "" if rendering fails
func (d *Document) String() string {
	var sb strings.Builder
	if err := d.Render(&sb); err != nil {
		return ""
	}
	return sb.String()
}

type element struct {
	sel *goquery.Selection
}

func (e element) ID() string {
	id, _ := e.sel.Attr("id")
	return id
}

func (e element) Query(_ context.Context, selector string) (feature.Element, error) {
	found := e.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, nil
	}
	return element{sel: found}, nil
}

func (e element) AppendHTML(_ context.Context, fragment string) error {
	e.sel.AppendHtml(fragment)
	return nil
}
