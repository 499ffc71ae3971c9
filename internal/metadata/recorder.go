package metadata

import (
	"time"

	"github.com/rs/zerolog"
)

/*
Metadata Collected
- Fetch timestamps
- HTTP status codes
- Content hashes
- Crawl depth
- Queue wait / dispatch timing
- Circuit breaker transitions
- Browser pool session lifecycle

Logging Goals
- Debuggable crawl behavior
- Post-run auditability
- Failure diagnostics

Structured logging is preferred.

Allowed:
- Primitive values
- Timestamps
- URLs (as values, not objects with behavior)
- Hashes
- Status codes
- Durations
- Identifiers (page ID, crawl ID, session ID)
*/

// Recorder is the zerolog-backed MetadataSink/CrawlFinalizer. It never
// returns an error and never blocks a caller's control flow; every method
// is a best-effort structured log line.
type Recorder struct {
	log zerolog.Logger
}

func NewRecorder(log zerolog.Logger) Recorder {
	return Recorder{log: log}
}

func (r Recorder) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	retryCount int,
	crawlDepth int,
) {
	r.log.Info().
		Str("event", "fetch").
		Str("url", fetchUrl).
		Int("http_status", httpStatus).
		Dur("duration", duration).
		Str("content_type", contentType).
		Int("retry_count", retryCount).
		Int("crawl_depth", crawlDepth).
		Msg("fetch completed")
}

func (r Recorder) RecordAssetFetch(
	assetUrl string,
	httpStatus int,
	duration time.Duration,
	retryCount int,
) {
	r.log.Debug().
		Str("event", "asset_fetch").
		Str("url", assetUrl).
		Int("http_status", httpStatus).
		Dur("duration", duration).
		Int("retry_count", retryCount).
		Msg("asset fetch completed")
}

func (r Recorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	event := r.log.Info().
		Str("event", "artifact").
		Str("kind", kind.String()).
		Str("path", path)
	attachAttrs(event, attrs)
	event.Msg("artifact written")
}

func (r Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errString string,
	attrs []Attribute,
) {
	event := r.log.Error().
		Str("event", "error").
		Time("observed_at", observedAt).
		Str("package", packageName).
		Str("action", action).
		Str("cause", cause.String()).
		Str("error", errString)
	attachAttrs(event, attrs)
	event.Msg("classified error recorded")
}

func (r Recorder) RecordRobotsCheck(host string, outcome RobotsCacheOutcome, allowed bool) {
	r.log.Debug().
		Str("event", "robots_check").
		Str("host", host).
		Str("cache", string(outcome)).
		Bool("allowed", allowed).
		Msg("robots policy evaluated")
}

func (r Recorder) RecordDispatch(host string, method FetchMethod, queueWait time.Duration, attempt int) {
	r.log.Debug().
		Str("event", "dispatch").
		Str("host", host).
		Str("method", string(method)).
		Dur("queue_wait", queueWait).
		Int("attempt", attempt).
		Msg("request dispatched")
}

func (r Recorder) RecordBreakerTransition(host string, transition BreakerTransition) {
	r.log.Warn().
		Str("event", "breaker_transition").
		Str("host", host).
		Str("transition", string(transition)).
		Msg("circuit breaker state changed")
}

func (r Recorder) RecordPoolEvent(event string, sessionID string, attrs []Attribute) {
	entry := r.log.Debug().
		Str("event", "pool_"+event).
		Str("session_id", sessionID)
	attachAttrs(entry, attrs)
	entry.Msg("browser pool event")
}

func (r Recorder) RecordFinalCrawlStats(
	totalPages int,
	totalErrors int,
	totalAssets int,
	duration time.Duration,
) {
	r.log.Info().
		Str("event", "crawl_finalized").
		Int("total_pages", totalPages).
		Int("total_errors", totalErrors).
		Int("total_assets", totalAssets).
		Dur("duration", duration).
		Msg("crawl batch finished")
}

func attachAttrs(event *zerolog.Event, attrs []Attribute) {
	for _, a := range attrs {
		event.Str(string(a.Key), a.Value)
	}
}

// NoopSink discards every event. It satisfies MetadataSink, DispatchObserver,
// and CrawlFinalizer so package tests can construct collaborators without
// standing up a Recorder.
type NoopSink struct{}

func (NoopSink) RecordFetch(string, int, time.Duration, string, int, int)      {}
func (NoopSink) RecordAssetFetch(string, int, time.Duration, int)              {}
func (NoopSink) RecordArtifact(ArtifactKind, string, []Attribute)              {}
func (NoopSink) RecordError(time.Time, string, string, ErrorCause, string, []Attribute) {}
func (NoopSink) RecordRobotsCheck(string, RobotsCacheOutcome, bool)            {}
func (NoopSink) RecordDispatch(string, FetchMethod, time.Duration, int)        {}
func (NoopSink) RecordBreakerTransition(string, BreakerTransition)             {}
func (NoopSink) RecordPoolEvent(string, string, []Attribute)                   {}
func (NoopSink) RecordFinalCrawlStats(int, int, int, time.Duration)            {}
