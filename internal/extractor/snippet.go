package extractor

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/ramkansal/tagscout/pkg/plugin"
	"golang.org/x/net/html"
)

// ErrNoIdentifier is returned when an extractor finds neither a vendor id
// nor any raw markup to fall back on.
var ErrNoIdentifier = errors.New("no identifier, src or inline content found")

// idPlaceholder is substituted with the vendor id in canonical templates.
const idPlaceholder = "{{id}}"

func render(tmpl, id string) string {
	return strings.ReplaceAll(tmpl, idPlaceholder, id)
}

// findID returns the first capture group of the first regex that matches one
// of sources, or the whole match when the regex has no group.
func findID(res []*regexp.Regexp, sources ...string) string {
	for _, src := range sources {
		if src == "" {
			continue
		}
		for _, re := range res {
			m := re.FindStringSubmatch(src)
			if m == nil {
				continue
			}
			if len(m) > 1 {
				return m[1]
			}
			return m[0]
		}
	}
	return ""
}

// noscriptContents returns the raw content of every <noscript> element.
func noscriptContents(doc plugin.Document) []string {
	if doc == nil {
		return nil
	}
	var out []string
	for _, ns := range doc.NoScripts() {
		out = append(out, ns.Content)
	}
	return out
}

// fallback degrades to the element's own markup when no vendor id was found:
// an async loader for the resolved src, otherwise the inline code verbatim.
func fallback(el plugin.Element, base *url.URL) (plugin.Snippet, error) {
	if el.Src != "" {
		src := resolveURL(base, el.Src)
		if src == "" {
			src = el.Src
		}
		return plugin.Snippet{
			ScriptCode: `<script async src="` + html.EscapeString(src) + `"></script>`,
		}, nil
	}
	if strings.TrimSpace(el.Content) != "" {
		return plugin.Snippet{ScriptCode: "<script>" + el.Content + "</script>"}, nil
	}
	return plugin.Snippet{}, ErrNoIdentifier
}

// resolveURL resolves a potentially relative URL against a base URL.
func resolveURL(base *url.URL, raw string) string {
	if base == nil {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// lookup widens where an extractor searches for the vendor id.
type lookup uint8

const (
	withNoscript lookup = 1 << iota
	withPageScripts
)

const elementOnly lookup = 0

// idExtractor builds the common extractor shape: look for the id in the
// element (and, depending on scope, elsewhere on the page), render the
// canonical template, else degrade.
func idExtractor(ids []*regexp.Regexp, scope lookup, build func(id string) plugin.Snippet) ExtractFunc {
	return func(el plugin.Element, doc plugin.Document, base *url.URL) (plugin.Snippet, error) {
		sources := []string{el.Src, el.Content}
		if scope&withNoscript != 0 {
			sources = append(sources, noscriptContents(doc)...)
		}
		if scope&withPageScripts != 0 && doc != nil {
			for _, s := range doc.Scripts() {
				sources = append(sources, s.Src, s.Content)
			}
		}
		if id := findID(ids, sources...); id != "" {
			return build(id), nil
		}
		return fallback(el, base)
	}
}
