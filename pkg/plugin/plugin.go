// Package plugin defines the public types and interfaces of tagscout.
// External tools can import this package to consume discovery results,
// plug in their own fetchers or output writers, or feed pre-parsed markup
// into the engine without forking the project.
package plugin

import (
	"context"
	"fmt"
	"time"
)

// ---------- Consent categories ----------

// Category is the consent bucket a discovered script belongs to.
type Category string

const (
	CategoryStrictlyNecessary    Category = "strictly-necessary"
	CategoryFunctionality        Category = "functionality"
	CategoryTrackingPerformance  Category = "tracking-performance"
	CategoryTargetingAdvertising Category = "targeting-advertising"
)

// Categories returns every consent category in banner order.
func Categories() []Category {
	return []Category{
		CategoryStrictlyNecessary,
		CategoryFunctionality,
		CategoryTrackingPerformance,
		CategoryTargetingAdvertising,
	}
}

// Valid reports whether c is one of the fixed consent categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryStrictlyNecessary, CategoryFunctionality,
		CategoryTrackingPerformance, CategoryTargetingAdvertising:
		return true
	}
	return false
}

// ---------- Core Data Types ----------

// TrackingScript is one detected vendor integration.
type TrackingScript struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Category   Category `json:"category"`
	ScriptCode string   `json:"scriptCode"`
	BodyCode   string   `json:"bodyCode,omitempty"`
	Enabled    bool     `json:"enabled"`
}

// Snippet is the markup an extractor synthesizes for a vendor.
type Snippet struct {
	ScriptCode string
	BodyCode   string
}

// DiscoveryResult is the outcome of a single discovery run.
type DiscoveryResult struct {
	Scripts   []TrackingScript `json:"scripts"`
	Warnings  []string         `json:"warnings"`
	FetchedAt time.Time        `json:"fetchedAt"`
}

// NewDiscoveryResult returns an empty result stamped with fetchedAt.
// Both slices are non-nil so the result always serializes as arrays.
func NewDiscoveryResult(fetchedAt time.Time) *DiscoveryResult {
	return &DiscoveryResult{
		Scripts:   []TrackingScript{},
		Warnings:  []string{},
		FetchedAt: fetchedAt,
	}
}

// Warn appends a formatted warning.
func (r *DiscoveryResult) Warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Find returns the script detected for the named vendor.
func (r *DiscoveryResult) Find(name string) (TrackingScript, bool) {
	for _, s := range r.Scripts {
		if s.Name == name {
			return s, true
		}
	}
	return TrackingScript{}, false
}

// ByCategory buckets the detected scripts by consent category, preserving
// detection order within each bucket.
func (r *DiscoveryResult) ByCategory() map[Category][]TrackingScript {
	buckets := make(map[Category][]TrackingScript)
	for _, s := range r.Scripts {
		buckets[s.Category] = append(buckets[s.Category], s)
	}
	return buckets
}

// Element is a single <script> or <noscript> element of a fetched page.
type Element struct {
	Tag     string
	Src     string
	Content string
	ID      string
	Class   string
}

// PageData represents a fetched web page.
type PageData struct {
	URL           string        `json:"url"`
	FinalURL      string        `json:"final_url"`
	StatusCode    int           `json:"status_code"`
	ContentType   string        `json:"content_type"`
	HTML          string        `json:"-"`
	ResponseSize  int           `json:"response_size"`
	FetchedAt     time.Time     `json:"fetched_at"`
	FetchDuration time.Duration `json:"fetch_duration"`
	FetcherUsed   string        `json:"fetcher_used"`
}

// ---------- Plugin Interfaces ----------

// Fetcher defines how pages are retrieved.
type Fetcher interface {
	// Name returns a human-readable identifier for this fetcher.
	Name() string

	// Fetch retrieves the page at the given URL. Implementations bound the
	// call by their configured timeout and by ctx.
	Fetch(ctx context.Context, url string) (*PageData, error)

	// Close releases any resources held by the fetcher.
	Close() error
}

// Document offers read-only traversal over a parsed HTML page.
type Document interface {
	// Scripts returns every <script> element in document order.
	Scripts() []Element

	// NoScripts returns every <noscript> element in document order.
	NoScripts() []Element
}

// OutputWriter defines how discovery results are persisted by the CLI.
type OutputWriter interface {
	// Name returns a human-readable identifier for this writer.
	Name() string

	// Write stores a single discovery result.
	Write(result *DiscoveryResult) error
}
