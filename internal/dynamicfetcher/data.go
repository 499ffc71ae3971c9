package dynamicfetcher

import "context"

// ScreenshotSink persists a rendered page capture and returns the path it
// was written to. internal/storage implements
// this; it is declared here, not imported, so this package never depends on
// a concrete storage backend.
type ScreenshotSink interface {
	Save(ctx context.Context, targetID string, data []byte) (string, error)
}

// blockedResourceTypes names the resource types the hijack router drops on
// every dynamic fetch: stylesheets, fonts, and media never affect the
// extracted text/links, and skipping their download and decode is most of
// the latency win headless fetching buys over loading a page for real.
var blockedResourceTypes = []string{"Stylesheet", "Font", "Media"}

const (
	defaultUserAgent        = "golfscrape/1.0 (+https://example.invalid/bot)"
	selectorWaitTimeout     = 10_000 // ms, bounded best-effort wait for WaitForSelector
	secondIdleWaitTimeout   = 2_000  // ms, best-effort second stability wait after waitTimeMs
)
