package metadata

import "time"

// MetadataSink is the observability port every other package writes crawl
// events through. Implementations MUST treat every method as fire-and-forget
// logging: a MetadataSink must never return an error that changes caller
// control flow, and callers must never branch on what a sink does with a
// record.
type MetadataSink interface {
	// RecordFetch records one fetch attempt against fetchUrl.
	RecordFetch(
		fetchUrl string,
		httpStatus int,
		duration time.Duration,
		contentType string,
		retryCount int,
		crawlDepth int,
	)

	// RecordAssetFetch records one asset (image) download attempt.
	RecordAssetFetch(
		assetUrl string,
		httpStatus int,
		duration time.Duration,
		retryCount int,
	)

	// RecordArtifact records a filesystem write (screenshot, exported doc).
	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)

	// RecordError records a classified failure. cause is for observability
	// only and must never be used by callers to decide retry/abort behavior.
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		errString string,
		attrs []Attribute,
	)
}

// DispatchObserver is the additional observability surface the request
// manager, robots cache, and browser pool write through. Kept separate from
// MetadataSink so packages untouched by this expansion keep satisfying the
// original four-method port with their existing test doubles.
type DispatchObserver interface {
	// RecordRobotsCheck records a robots policy cache lookup outcome.
	RecordRobotsCheck(host string, outcome RobotsCacheOutcome, allowed bool)

	// RecordDispatch records a single request manager dispatch decision:
	// how long a request waited in queue before being sent to a fetcher.
	RecordDispatch(host string, method FetchMethod, queueWait time.Duration, attempt int)

	// RecordBreakerTransition records a circuit breaker state change for a host.
	RecordBreakerTransition(host string, transition BreakerTransition)

	// RecordPoolEvent records a browser pool session lifecycle event
	// (acquired, released, recycled, crashed).
	RecordPoolEvent(event string, sessionID string, attrs []Attribute)
}

// CrawlFinalizer records the terminal, derived summary of a completed batch
// of requests. It must be called exactly once per batch, after the batch
// has fully drained, and must never read back metadata to decide anything.
type CrawlFinalizer interface {
	RecordFinalCrawlStats(
		totalPages int,
		totalErrors int,
		totalAssets int,
		duration time.Duration,
	)
}
