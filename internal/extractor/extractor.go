// Package extractor holds the vendor signature table and the extractors that
// turn a matched script element into a canonical embed snippet.
package extractor

import (
	"net/url"
	"regexp"

	"github.com/ramkansal/tagscout/pkg/plugin"
	"github.com/samber/lo"
)

// ExtractFunc synthesizes the canonical embed code for a matched element.
type ExtractFunc func(el plugin.Element, doc plugin.Document, base *url.URL) (plugin.Snippet, error)

// Pattern is the signature of one vendor: the regexes that recognize its
// markup and the extractor that normalizes it.
type Pattern struct {
	Name     string
	Category plugin.Category
	Src      []*regexp.Regexp
	Content  []*regexp.Regexp
	ID       []*regexp.Regexp
	Class    []*regexp.Regexp
	Extract  ExtractFunc
}

// Matches reports whether any regex of any attribute type matches el.
func (p *Pattern) Matches(el plugin.Element) bool {
	return anyMatch(p.Src, el.Src) ||
		anyMatch(p.Content, el.Content) ||
		anyMatch(p.ID, el.ID) ||
		anyMatch(p.Class, el.Class)
}

func anyMatch(res []*regexp.Regexp, value string) bool {
	if value == "" {
		return false
	}
	for _, re := range res {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}

// Registry holds the vendor patterns in match order. It is never mutated
// after construction and may be shared between goroutines.
type Registry struct {
	patterns []Pattern
}

// NewRegistry creates a registry with all built-in vendors followed by extra.
func NewRegistry(extra ...Pattern) *Registry {
	patterns := []Pattern{
		googleAnalytics4,
		googleAnalyticsUniversal,
		googleTagManager,
		facebookPixel,
		microsoftClarity,
		hotjar,
		linkedInInsight,
		tiktokPixel,
		googleAds,
		intercom,
		zendeskChat,
	}
	patterns = append(patterns, extra...)
	return &Registry{patterns: patterns}
}

// Patterns returns a copy of the registered patterns in match order.
func (r *Registry) Patterns() []Pattern {
	out := make([]Pattern, len(r.patterns))
	copy(out, r.patterns)
	return out
}

// Names returns the vendor names of all registered patterns.
func (r *Registry) Names() []string {
	return lo.Map(r.patterns, func(p Pattern, _ int) string { return p.Name })
}

// Lookup returns the pattern registered under name.
func (r *Registry) Lookup(name string) (Pattern, bool) {
	for _, p := range r.patterns {
		if p.Name == name {
			return p, true
		}
	}
	return Pattern{}, false
}
