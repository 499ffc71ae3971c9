package dynamicfetcher

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohmanhakim/docs-crawler/internal/browserpool"
	"github.com/rohmanhakim/docs-crawler/internal/metadata"
	"github.com/rohmanhakim/docs-crawler/internal/model"
)

func mustParseURL(t *testing.T, raw string) url.URL {
	t.Helper()
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	return *parsed
}

func TestFetch_FailsWhenPoolClosed(t *testing.T) {
	pool := browserpool.NewPool("test-agent", metadata.NoopSink{})
	require.NoError(t, pool.Cleanup())

	fetcher := NewDynamicFetcher(pool, metadata.NoopSink{}, nil)
	target := model.NewScrapingTarget("t1", "Closed Pool Course", mustParseURL(t, "https://example.invalid/course"), model.PriorityMedium, "directory")

	result := fetcher.Fetch(context.Background(), target, model.DefaultScrapingOptions())

	assert.False(t, result.Success())
	require.Len(t, result.Errors(), 1)
	assert.Equal(t, model.ErrorTypeBrowser, result.Errors()[0].Type())
	assert.True(t, result.Errors()[0].Retryable())
}

func TestClassifyRenderError_MapsDeadlineExceeded(t *testing.T) {
	assert.Equal(t, ErrCauseTimeout, classifyRenderError(context.DeadlineExceeded))
}

func TestClassifyRenderError_DefaultsToNavigationFailed(t *testing.T) {
	assert.Equal(t, ErrCauseNavigationFailed, classifyRenderError(assertErr{}))
}

func TestDeadlineOr_UsesContextDeadlineWhenSet(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.Equal(t, deadline, deadlineOr(ctx, time.Minute))
}

func TestDeadlineOr_FallsBackWithoutDeadline(t *testing.T) {
	before := time.Now()
	got := deadlineOr(context.Background(), 10*time.Second)
	assert.True(t, got.After(before))
	assert.True(t, got.Before(before.Add(11*time.Second)))
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
