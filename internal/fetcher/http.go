package fetcher

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/ramkansal/tagscout/pkg/plugin"
	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
)

// ErrFetchFailed is wrapped by every error a fetcher returns: transport
// failures, timeouts, non-success statuses and non-text responses alike.
var ErrFetchFailed = errors.New("fetch failed")

const (
	DefaultTimeout         = 15 * time.Second
	DefaultMaxResponseSize = 5 << 20
	DefaultUserAgent       = "Mozilla/5.0 (compatible; tagscout/1.0; +https://github.com/ramkansal/tagscout)"
)

// HTTPFetcher uses Colly for plain HTTP page fetching.
type HTTPFetcher struct {
	collector *colly.Collector
	headers   map[string]string
	timeout   time.Duration
	log       zerolog.Logger
}

// HTTPFetcherConfig holds configuration for the HTTP fetcher.
type HTTPFetcherConfig struct {
	Timeout          time.Duration
	UserAgent        string
	MaxResponseSize  int
	Proxy            string
	CustomHeaders    []string
	DisableRedirects bool
	Logger           zerolog.Logger
}

// NewHTTPFetcher creates a new Colly-based HTTP fetcher.
func NewHTTPFetcher(cfg HTTPFetcherConfig) (*HTTPFetcher, error) {
	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
	)

	c.UserAgent = cfg.UserAgent
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	c.IgnoreRobotsTxt = true
	// Every response reaches OnResponse; visit decides what counts as success.
	c.ParseHTTPErrorResponse = true

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	// The client timeout covers dialing, headers and the body read.
	c.SetRequestTimeout(timeout)

	c.MaxBodySize = cfg.MaxResponseSize
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = DefaultMaxResponseSize
	}

	// Consent walls often redirect through a cookie-setting hop first.
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	c.SetCookieJar(jar)

	if cfg.Proxy != "" {
		if err := c.SetProxy(cfg.Proxy); err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", cfg.Proxy, err)
		}
	}

	if cfg.DisableRedirects {
		c.SetRedirectHandler(func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		})
	}

	return &HTTPFetcher{
		collector: c,
		headers:   parseHeaders(cfg.CustomHeaders),
		timeout:   timeout,
		log:       cfg.Logger.With().Str("component", "fetcher").Str("fetcher", "http").Logger(),
	}, nil
}

func (f *HTTPFetcher) Name() string { return "http" }

// Fetch retrieves targetURL. The call never outlives the configured timeout
// or ctx, whichever ends first.
func (f *HTTPFetcher) Fetch(ctx context.Context, targetURL string) (*plugin.PageData, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	type outcome struct {
		page *plugin.PageData
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		page, err := f.visit(ctx, targetURL)
		done <- outcome{page, err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			f.log.Warn().Str("url", targetURL).Err(out.err).Msg("fetch failed")
			return nil, out.err
		}
		f.log.Debug().
			Str("url", targetURL).
			Int("status", out.page.StatusCode).
			Int("bytes", out.page.ResponseSize).
			Dur("duration", out.page.FetchDuration).
			Msg("fetched")
		return out.page, nil
	case <-ctx.Done():
		f.log.Warn().Str("url", targetURL).Err(ctx.Err()).Msg("fetch abandoned")
		return nil, fmt.Errorf("%w: %s: %w", ErrFetchFailed, targetURL, ctx.Err())
	}
}

func (f *HTTPFetcher) visit(ctx context.Context, targetURL string) (*plugin.PageData, error) {
	start := time.Now()

	page := &plugin.PageData{
		URL:         targetURL,
		FinalURL:    targetURL,
		FetcherUsed: "http",
		FetchedAt:   start,
	}

	// Clone the collector for this individual fetch so callbacks don't leak
	// between concurrent calls. Clones share the transport and cookie jar but
	// not callbacks.
	c := f.collector.Clone()
	c.Context = ctx

	if len(f.headers) > 0 {
		c.OnRequest(func(r *colly.Request) {
			for k, v := range f.headers {
				r.Headers.Set(k, v)
			}
		})
	}

	var respErr error

	c.OnResponse(func(r *colly.Response) {
		page.StatusCode = r.StatusCode
		page.FinalURL = r.Request.URL.String()
		page.ContentType = r.Headers.Get("Content-Type")
		page.ResponseSize = len(r.Body)

		if r.StatusCode < 200 || r.StatusCode > 299 {
			respErr = fmt.Errorf("HTTP %d", r.StatusCode)
			return
		}
		if !isTextual(page.ContentType, r.Body) {
			respErr = fmt.Errorf("unsupported content type %q", page.ContentType)
			return
		}
		page.HTML = string(r.Body)
	})

	c.OnError(func(r *colly.Response, err error) {
		respErr = err
		if r != nil {
			page.StatusCode = r.StatusCode
			if r.StatusCode != 0 {
				respErr = fmt.Errorf("HTTP %d: %w", r.StatusCode, err)
			}
		}
	})

	err := c.Visit(targetURL)
	c.Wait()
	page.FetchDuration = time.Since(start)

	if respErr != nil {
		err = respErr
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if page.StatusCode < 200 || page.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrFetchFailed, page.StatusCode)
	}
	return page, nil
}

func (f *HTTPFetcher) Close() error {
	return nil
}

// isTextual accepts HTML, XHTML and other text responses. A missing header
// falls back to content sniffing.
func isTextual(contentType string, body []byte) bool {
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	}
	switch {
	case strings.HasPrefix(mediaType, "text/"):
		return true
	case mediaType == "application/xhtml+xml", mediaType == "application/xml":
		return true
	}
	return false
}

// parseHeaders turns "Key: Value" strings into a header map.
func parseHeaders(raw []string) map[string]string {
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		parts := strings.SplitN(h, ":", 2)
		if len(parts) == 2 {
			headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return headers
}
