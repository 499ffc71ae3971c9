package fetcher

import (
	"context"

	"github.com/rohmanhakim/docs-crawler/internal/model"
)

// HtmlFetcher implements requestmanager.Fetcher for options.Javascript() ==
// false. It is structurally compatible by its Fetch signature alone;
// internal/requestmanager never imports this package directly.
type staticFetcherContract interface {
	Fetch(ctx context.Context, target model.ScrapingTarget, options model.ScrapingOptions) model.ProcessingResult
}

var _ staticFetcherContract = (*HtmlFetcher)(nil)
