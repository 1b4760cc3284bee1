package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ramkansal/tagscout/pkg/plugin"
	"github.com/rs/zerolog"
)

// BrowserFetcher uses Rod (headless Chrome) for sites that inject their tags
// from JavaScript.
type BrowserFetcher struct {
	browser     *rod.Browser
	timeout     time.Duration
	settleDelay time.Duration
	maxBodySize int
	userAgent   string
	log         zerolog.Logger
}

// BrowserFetcherConfig holds configuration for the browser fetcher.
type BrowserFetcherConfig struct {
	Timeout         time.Duration
	SettleDelay     time.Duration
	MaxResponseSize int
	UserAgent       string
	Logger          zerolog.Logger
}

// NewBrowserFetcher launches a headless browser and connects to it.
func NewBrowserFetcher(cfg BrowserFetcherConfig) (*BrowserFetcher, error) {
	u, err := launcher.New().
		Headless(true).
		Set("no-sandbox").
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	settle := cfg.SettleDelay
	if settle <= 0 {
		settle = 2 * time.Second
	}
	maxBody := cfg.MaxResponseSize
	if maxBody <= 0 {
		maxBody = DefaultMaxResponseSize
	}

	return &BrowserFetcher{
		browser:     browser,
		timeout:     timeout,
		settleDelay: settle,
		maxBodySize: maxBody,
		userAgent:   cfg.UserAgent,
		log:         cfg.Logger.With().Str("component", "fetcher").Str("fetcher", "browser").Logger(),
	}, nil
}

func (f *BrowserFetcher) Name() string { return "browser" }

func (f *BrowserFetcher) Fetch(ctx context.Context, targetURL string) (*plugin.PageData, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()

	page := &plugin.PageData{
		URL:         targetURL,
		FinalURL:    targetURL,
		FetcherUsed: "browser",
		FetchedAt:   start,
	}

	rodPage, err := f.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("%w: open page: %w", ErrFetchFailed, err)
	}
	defer rodPage.Close()

	// Every call on the page below is bounded by ctx.
	rodPage = rodPage.Context(ctx)

	if f.userAgent != "" {
		_ = rodPage.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent: f.userAgent,
		})
	}

	// Capture the document response so status and content type are real.
	var navErr error
	wait := rodPage.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		page.StatusCode = e.Response.Status
		page.ContentType = e.Response.MIMEType
		return true
	})

	if err := rodPage.Navigate(targetURL); err != nil {
		return nil, fmt.Errorf("%w: navigate %s: %w", ErrFetchFailed, targetURL, err)
	}
	wait()

	if page.StatusCode != 0 && (page.StatusCode < 200 || page.StatusCode > 299) {
		return nil, fmt.Errorf("%w: HTTP %d", ErrFetchFailed, page.StatusCode)
	}
	if page.ContentType != "" && !isTextual(page.ContentType, nil) {
		return nil, fmt.Errorf("%w: unsupported content type %q", ErrFetchFailed, page.ContentType)
	}

	if err := rodPage.WaitLoad(); err != nil {
		navErr = err
	}
	// Tag managers inject vendor scripts shortly after load.
	if navErr == nil {
		_ = rodPage.WaitStable(f.settleDelay)
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetchFailed, targetURL, ctx.Err())
	}

	if info, err := rodPage.Info(); err == nil {
		page.FinalURL = info.URL
	}

	html, err := rodPage.HTML()
	if err != nil {
		return nil, fmt.Errorf("%w: read rendered html: %w", ErrFetchFailed, err)
	}
	if len(html) > f.maxBodySize {
		html = html[:f.maxBodySize]
	}
	page.HTML = html
	page.ResponseSize = len(html)
	if page.StatusCode == 0 {
		page.StatusCode = 200
	}
	page.FetchDuration = time.Since(start)

	if navErr != nil {
		f.log.Debug().Str("url", targetURL).Err(navErr).Msg("page did not finish loading")
	}
	f.log.Debug().
		Str("url", targetURL).
		Int("status", page.StatusCode).
		Int("bytes", page.ResponseSize).
		Dur("duration", page.FetchDuration).
		Msg("rendered")
	return page, nil
}

func (f *BrowserFetcher) Close() error {
	if f.browser != nil {
		return f.browser.Close()
	}
	return nil
}
