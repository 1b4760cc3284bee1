// Package discovery finds third-party tracking vendors on a web page and
// synthesizes normalized embed snippets for each of them.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ramkansal/tagscout/internal/extractor"
	"github.com/ramkansal/tagscout/internal/fetcher"
	"github.com/ramkansal/tagscout/internal/markup"
	"github.com/ramkansal/tagscout/pkg/plugin"
	"github.com/rs/zerolog"
)

// NoScriptsWarning is reported when a scanned page matched no vendor.
const NoScriptsWarning = "No common tracking scripts detected. You may need to add them manually."

// Engine runs discovery: fetch, parse, match, extract, aggregate.
// It holds no per-run state and is safe for concurrent use once Init returns.
type Engine struct {
	config   *Config
	fetcher  plugin.Fetcher
	registry *extractor.Registry
	log      zerolog.Logger
	now      func() time.Time
	newID    func() string

	initOnce sync.Once
	initErr  error
}

// New creates an Engine with the given configuration.
func New(config *Config, opts ...Option) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	// Init may switch the fetcher mode; keep the caller's config untouched.
	cfg := *config
	cfg.CustomHeaders = append([]string(nil), config.CustomHeaders...)
	e := &Engine{
		config: &cfg,
		log:    zerolog.Nop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = extractor.NewRegistry()
	}
	e.log = e.log.With().Str("component", "discovery").Logger()
	return e
}

// Init builds the fetcher selected by the config unless one was supplied.
// A browser that cannot be launched falls back to plain HTTP. Only the first
// call does any work.
func (e *Engine) Init() error {
	e.initOnce.Do(func() { e.initErr = e.init() })
	return e.initErr
}

func (e *Engine) init() error {
	if e.fetcher != nil {
		return nil
	}

	if e.config.FetcherMode == FetcherBrowser {
		bf, err := fetcher.NewBrowserFetcher(fetcher.BrowserFetcherConfig{
			Timeout:         e.config.Timeout,
			SettleDelay:     e.config.SettleDelay,
			MaxResponseSize: e.config.MaxResponseSize,
			UserAgent:       e.config.UserAgent,
			Logger:          e.log,
		})
		if err == nil {
			e.fetcher = bf
			return nil
		}
		e.log.Warn().Err(err).Msg("browser fetcher unavailable, falling back to http")
		e.config.FetcherMode = FetcherHTTP
	}

	hf, err := fetcher.NewHTTPFetcher(fetcher.HTTPFetcherConfig{
		Timeout:          e.config.Timeout,
		UserAgent:        e.config.UserAgent,
		MaxResponseSize:  e.config.MaxResponseSize,
		Proxy:            e.config.Proxy,
		CustomHeaders:    e.config.CustomHeaders,
		DisableRedirects: e.config.DisableRedirects,
		Logger:           e.log,
	})
	if err != nil {
		return fmt.Errorf("init http fetcher: %w", err)
	}
	e.fetcher = hf
	return nil
}

// Registry returns the vendor registry the engine matches against.
func (e *Engine) Registry() *extractor.Registry { return e.registry }

// FetcherName reports which fetcher Init selected.
func (e *Engine) FetcherName() string {
	if e.fetcher == nil {
		return ""
	}
	return e.fetcher.Name()
}

// Discover fetches rawURL and reports the tracking vendors embedded in it.
//
// The returned result is always well-formed. Fetch and extraction failures
// are reported through its Warnings; the only error returned wraps
// ErrInvalidInput, for a URL that could not be normalized.
func (e *Engine) Discover(ctx context.Context, rawURL string) (*plugin.DiscoveryResult, error) {
	result := plugin.NewDiscoveryResult(e.now().UTC())

	target, err := NormalizeURL(rawURL)
	if err != nil {
		result.Warn("%s", capitalize(err.Error()))
		return result, err
	}

	if err := e.Init(); err != nil {
		result.Warn("Failed to fetch %s: %v", target, err)
		return result, nil
	}

	result.FetchedAt = e.now().UTC()
	page, err := e.fetcher.Fetch(ctx, target.String())
	if err != nil {
		e.log.Warn().Str("url", target.String()).Err(err).Msg("fetch failed")
		result.Warn("Failed to fetch %s: %v", target, err)
		return result, nil
	}

	base := target
	if final, err := url.Parse(page.FinalURL); err == nil && final.Host != "" {
		base = final
	}

	e.scan(result, page.HTML, base)
	return result, nil
}

// DiscoverHTML runs the match and aggregate stages on markup that has
// already been fetched. pageURL is used to resolve relative script sources
// and may be empty.
func (e *Engine) DiscoverHTML(html, pageURL string) *plugin.DiscoveryResult {
	result := plugin.NewDiscoveryResult(e.now().UTC())

	var base *url.URL
	if pageURL != "" {
		if u, err := NormalizeURL(pageURL); err == nil {
			base = u
		} else {
			result.Warn("Ignoring page URL: %v", err)
		}
	}

	e.scan(result, html, base)
	return result
}

// scan parses html and appends one TrackingScript per matched vendor.
func (e *Engine) scan(result *plugin.DiscoveryResult, html string, base *url.URL) {
	doc, err := markup.Parse(html)
	if err != nil {
		result.Warn("Failed to parse page: %v", err)
		return
	}

	patterns := e.registry.Patterns()
	matched := make(map[string]bool, len(patterns))

	for _, el := range doc.Scripts() {
		for i := range patterns {
			p := &patterns[i]
			if matched[p.Name] || !p.Matches(el) {
				continue
			}
			matched[p.Name] = true

			snippet, err := runExtractor(p, el, doc, base)
			if err != nil {
				e.log.Warn().Str("vendor", p.Name).Err(err).Msg("extraction failed")
				result.Warn("Failed to extract %s: %v", p.Name, err)
				continue
			}

			e.log.Debug().Str("vendor", p.Name).Str("category", string(p.Category)).Msg("vendor matched")
			result.Scripts = append(result.Scripts, plugin.TrackingScript{
				ID:         e.newID(),
				Name:       p.Name,
				Category:   p.Category,
				ScriptCode: snippet.ScriptCode,
				BodyCode:   snippet.BodyCode,
				Enabled:    true,
			})
		}
	}

	if len(result.Scripts) == 0 {
		result.Warn("%s", NoScriptsWarning)
	}
}

// runExtractor isolates a single vendor's extractor: a panic or an empty
// snippet becomes an error instead of aborting the scan.
func runExtractor(p *extractor.Pattern, el plugin.Element, doc plugin.Document, base *url.URL) (snippet plugin.Snippet, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor panic: %v", r)
		}
	}()

	if p.Extract == nil {
		return plugin.Snippet{}, errors.New("no extractor registered")
	}
	if !p.Category.Valid() {
		return plugin.Snippet{}, fmt.Errorf("invalid category %q", p.Category)
	}

	snippet, err = p.Extract(el, doc, base)
	if err != nil {
		return plugin.Snippet{}, err
	}
	if strings.TrimSpace(snippet.ScriptCode) == "" {
		return plugin.Snippet{}, errors.New("extractor produced empty script code")
	}
	return snippet, nil
}

// Close releases the fetcher.
func (e *Engine) Close() error {
	if e.fetcher != nil {
		return e.fetcher.Close()
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
