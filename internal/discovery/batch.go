package discovery

import (
	"context"

	"github.com/ramkansal/tagscout/pkg/plugin"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds DiscoverAll when the caller passes no limit.
const DefaultConcurrency = 4

// BatchResult pairs an input URL with its discovery outcome.
type BatchResult struct {
	URL    string
	Result *plugin.DiscoveryResult
	Err    error
}

// DiscoverAll runs Discover for every URL with at most concurrency fetches in
// flight. Results come back in input order. A failing URL never cancels its
// siblings; only ctx does.
func (e *Engine) DiscoverAll(ctx context.Context, urls []string, concurrency int) []BatchResult {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	out := make([]BatchResult, len(urls))

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, u := range urls {
		out[i].URL = u
		if ctx.Err() != nil {
			result := plugin.NewDiscoveryResult(e.now().UTC())
			result.Warn("Failed to fetch %s: %v", u, ctx.Err())
			out[i].Result = result
			continue
		}

		g.Go(func() error {
			out[i].Result, out[i].Err = e.Discover(ctx, u)
			return nil
		})
	}

	_ = g.Wait()
	e.log.Debug().Int("urls", len(urls)).Int("concurrency", concurrency).Msg("batch done")
	return out
}
