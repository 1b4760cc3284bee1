// Package markup implements plugin.Document on top of goquery.
package markup

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ramkansal/tagscout/pkg/plugin"
)

// Document is a parsed HTML page. Script and noscript elements are collected
// once at parse time so repeated traversal is cheap.
type Document struct {
	scripts   []plugin.Element
	noscripts []plugin.Element
}

// Parse parses an HTML string.
func Parse(html string) (*Document, error) {
	return ParseReader(strings.NewReader(html))
}

// ParseReader parses HTML from r.
func ParseReader(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	return &Document{
		scripts:   collect(doc, "script"),
		noscripts: collect(doc, "noscript"),
	}, nil
}

func (d *Document) Scripts() []plugin.Element { return d.scripts }

func (d *Document) NoScripts() []plugin.Element { return d.noscripts }

// collect reads the attributes the vendor matchers care about.
// Script and noscript bodies are raw text to the parser, so Text returns the
// inline code (or the fallback markup) verbatim.
func collect(doc *goquery.Document, tag string) []plugin.Element {
	var elems []plugin.Element
	doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		id, _ := s.Attr("id")
		class, _ := s.Attr("class")
		elems = append(elems, plugin.Element{
			Tag:     tag,
			Src:     strings.TrimSpace(src),
			Content: s.Text(),
			ID:      strings.TrimSpace(id),
			Class:   strings.TrimSpace(class),
		})
	})
	return elems
}
