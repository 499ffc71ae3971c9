package requestmanager

import (
	"context"

	"github.com/rohmanhakim/docs-crawler/internal/model"
)

// Fetcher is the capability both backends implement: static HTTP+HTML
// (internal/fetcher) and headless browser (internal/dynamicfetcher). The
// manager's dispatch step picks one based on
// options.Javascript() and never inspects which concrete type it got.
type Fetcher interface {
	Fetch(ctx context.Context, target model.ScrapingTarget, options model.ScrapingOptions) model.ProcessingResult
}

// cleanupFetcher is the optional capability a Fetcher backend may implement
// to release resources it holds open across requests (the dynamic fetcher's
// browser pool). Checked with a type assertion the same way
// metadata.DispatchObserver is, since not every Fetcher needs it.
type cleanupFetcher interface {
	Cleanup() error
}
