package dynamicfetcher

import (
	"context"

	"github.com/rohmanhakim/docs-crawler/internal/model"
)

// dynamicFetcherContract mirrors requestmanager.Fetcher so this package can
// assert structural compatibility without importing internal/requestmanager.
type dynamicFetcherContract interface {
	Fetch(ctx context.Context, target model.ScrapingTarget, options model.ScrapingOptions) model.ProcessingResult
}

var _ dynamicFetcherContract = (*DynamicFetcher)(nil)
