package metadata

import (
	"time"
)

type FetchEvent struct {
	fetchUrl    string
	httpStatus  int
	duration    time.Duration
	contentType string
	retryCount  int
	crawlDepth  int
}

/*
crawlStats
  - Represents a terminal, derived summary of a completed crawl
  - Contains only aggregate counts and durations
  - Is computed by the scheduler after crawl termination
  - Is recorded exactly once
  - Must not influence scheduling, retries, or crawl termination
  - Must be constructed without reading metadata
*/
type crawlStats struct {
	totalPages  int
	totalErrors int
	totalAssets int
	durationMs  int64
}

type ArtifactRecord struct {
	kind       ArtifactKind
	path       string
	observedAt time.Time
	attrs      []Attribute
}

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, metrics, reporting).

	Rules:
	 - ErrorCause is for observability only.
	 - It must never be used to derive retry, continuation, or abort decisions.
	 - Any use of metadata.ErrorCause outside logging, metrics, or reporting is a design violation.
	 - ErrorCause MUST NOT influence control flow.
	 - ErrorCause MUST NOT be used for retry, continuation, or abort decisions.
	 - ErrorCause values MUST have stable, package-agnostic semantics.
	 - Pipeline packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.
	Non-goals:
	 - ErrorCause does not encode severity.
	 - ErrorCause does not imply retryability.
	 - ErrorCause does not imply crawl termination.
	 - ErrorCause does not imply correctness of downstream behavior.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown

Meaning:
  - The failure does not map cleanly to any known category.
  - Used as a safe fallback.

Examples:
  - Unexpected internal errors
  - Unclassified third-party library failures

# CauseNetworkFailure

Meaning:
  - Failure caused by network transport or remote availability.

Examples:
  - TCP timeouts
  - DNS resolution failures
  - Connection resets
  - robots.txt fetch timeout

# CausePolicyDisallow

Meaning:
  - Crawling was disallowed by an explicit policy or rule.

Examples:
  - robots.txt disallow
  - HTTP 403 / 401 interpreted as access denial
  - rate-limit enforcement

# CauseContentInvalid

Meaning:
  - Content was fetched but could not be processed meaningfully.

Examples:
  - Non-HTML responses
  - Empty or unextractable document bodies
  - Broken DOM preventing extraction

# CauseStorageFailure

Meaning:
  - Failure while persisting crawl artifacts.

Examples:
  - Disk full
  - Write permission errors
  - Filesystem I/O failures

# CauseInvariantViolation

Meaning:
  - A system-level invariant was violated.

Examples:
  - Multiple H1s in a document
  - Impossible crawl depth
  - Internal consistency checks failing
*/
const (
	CauseUnknown = iota
	CauseNetworkFailure
	CausePolicyDisallow
	CauseContentInvalid
	CauseStorageFailure
	CauseInvariantViolation
	CauseRetryFailure
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CausePolicyDisallow:
		return "policy_disallow"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseStorageFailure:
		return "storage_failure"
	case CauseInvariantViolation:
		return "invariant_violation"
	case CauseRetryFailure:
		return "retry_failure"
	default:
		return "unknown"
	}
}

// ArtifactKind classifies an ArtifactRecord for observability grouping.
type ArtifactKind int

const (
	ArtifactMarkdown ArtifactKind = iota
	ArtifactAsset
	ArtifactScreenshot
)

func (k ArtifactKind) String() string {
	switch k {
	case ArtifactMarkdown:
		return "markdown"
	case ArtifactAsset:
		return "asset"
	case ArtifactScreenshot:
		return "screenshot"
	default:
		return "unknown"
	}
}

type ErrorRecord struct {
	packageName string
	action      string
	cause       ErrorCause
	errorString string
	observedAt  time.Time
	attrs       []Attribute
}

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrTime          AttributeKey = "time"
	AttrURL           AttributeKey = "url"
	AttrHost          AttributeKey = "host"
	AttrPath          AttributeKey = "path"
	AttrDepth         AttributeKey = "depth"
	AttrField         AttributeKey = "field"
	AttrHTTPStatus    AttributeKey = "http_status"
	AttrAssetURL      AttributeKey = "asset_url"
	AttrWritePath     AttributeKey = "write_path"
	AttrMessage       AttributeKey = "message"
	AttrRetryAttempt  AttributeKey = "retry_attempt"
	AttrBreakerState  AttributeKey = "breaker_state"
	AttrPoolSession   AttributeKey = "pool_session"
	AttrScreenshot    AttributeKey = "screenshot_path"
	AttrRobotsCache   AttributeKey = "robots_cache"
	AttrDispatchDelay AttributeKey = "dispatch_delay_ms"
)

// FetchMethod distinguishes which backend (static HTTP or headless browser)
// produced a FetchEvent; mirrors model.FetchMethod without importing it, to
// keep this package dependency-free for every other package to depend on.
type FetchMethod string

const (
	FetchMethodStatic  FetchMethod = "static"
	FetchMethodDynamic FetchMethod = "dynamic"
)

// RobotsCacheOutcome classifies a robots policy lookup for RecordRobotsCheck.
type RobotsCacheOutcome string

const (
	RobotsCacheHit  RobotsCacheOutcome = "hit"
	RobotsCacheMiss RobotsCacheOutcome = "miss"
)

// BreakerTransition names a circuit breaker state change for RecordBreakerTransition.
type BreakerTransition string

const (
	BreakerClosedToOpen     BreakerTransition = "closed_to_open"
	BreakerOpenToHalfOpen   BreakerTransition = "open_to_half_open"
	BreakerHalfOpenToClosed BreakerTransition = "half_open_to_closed"
	BreakerHalfOpenToOpen   BreakerTransition = "half_open_to_open"
)
