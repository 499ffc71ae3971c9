package model

/*
ScrapingTarget and ScrapingOptions are the immutable request descriptors a
caller hands to the request manager's addRequest operation.
They carry no behavior; construction is the only way to obtain one, following
the unexported-fields-plus-getters data carrier shape used throughout this
module.
*/

import (
	"net/url"
	"strings"
)

// Priority orders RequestSlots within the priority queue: higher values
// dispatch first among slots that are simultaneously dispatchable.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParsePriority maps a case-insensitive priority name to its Priority value.
// An unrecognized name defaults to PriorityMedium.
func ParsePriority(s string) Priority {
	switch strings.ToLower(s) {
	case "low":
		return PriorityLow
	case "high":
		return PriorityHigh
	case "critical":
		return PriorityCritical
	default:
		return PriorityMedium
	}
}

// ScrapingTarget is an immutable request descriptor. id must be unique
// within a single manager instance while in-flight; url must be parseable.
type ScrapingTarget struct {
	id         string
	name       string
	url        url.URL
	priority   Priority
	sourceType string
}

func NewScrapingTarget(id, name string, targetURL url.URL, priority Priority, sourceType string) ScrapingTarget {
	return ScrapingTarget{
		id:         id,
		name:       name,
		url:        targetURL,
		priority:   priority,
		sourceType: sourceType,
	}
}

func (t ScrapingTarget) ID() string           { return t.id }
func (t ScrapingTarget) Name() string         { return t.name }
func (t ScrapingTarget) URL() url.URL         { return t.url }
func (t ScrapingTarget) Priority() Priority   { return t.priority }
func (t ScrapingTarget) SourceType() string   { return t.sourceType }
func (t ScrapingTarget) Host() string         { return t.url.Hostname() }
func (t ScrapingTarget) Origin() string       { return t.url.Scheme + "://" + t.url.Host }

// Viewport is the dynamic fetcher's page dimensions, default 1280x720.
type Viewport struct {
	Width  int
	Height int
}

// DefaultViewport returns the default 1280x720 viewport, overridable per request.
func DefaultViewport() Viewport {
	return Viewport{Width: 1280, Height: 720}
}

// ScrapingOptions are per-request overrides; every field is optional
// and the manager supplies defaults for zero values.
type ScrapingOptions struct {
	timeoutMs       int
	userAgent       string
	javascript      bool
	waitForSelector string
	waitTimeMs      int
	screenshots     bool
	viewport        Viewport
}

// NewScrapingOptions builds ScrapingOptions from caller-supplied overrides.
// A zero Viewport is replaced with DefaultViewport().
func NewScrapingOptions(timeoutMs int, userAgent string, javascript bool, waitForSelector string, waitTimeMs int, screenshots bool, viewport Viewport) ScrapingOptions {
	if viewport == (Viewport{}) {
		viewport = DefaultViewport()
	}
	return ScrapingOptions{
		timeoutMs:       timeoutMs,
		userAgent:       userAgent,
		javascript:      javascript,
		waitForSelector: waitForSelector,
		waitTimeMs:      waitTimeMs,
		screenshots:     screenshots,
		viewport:        viewport,
	}
}

// DefaultScrapingOptions returns the manager's defaults: static backend,
// no selector wait, no screenshots, default viewport.
func DefaultScrapingOptions() ScrapingOptions {
	return NewScrapingOptions(30_000, "", false, "", 2_000, false, DefaultViewport())
}

func (o ScrapingOptions) TimeoutMs() int           { return o.timeoutMs }
func (o ScrapingOptions) UserAgent() string        { return o.userAgent }
func (o ScrapingOptions) Javascript() bool         { return o.javascript }
func (o ScrapingOptions) WaitForSelector() string  { return o.waitForSelector }
func (o ScrapingOptions) WaitTimeMs() int          { return o.waitTimeMs }
func (o ScrapingOptions) Screenshots() bool        { return o.screenshots }
func (o ScrapingOptions) Viewport() Viewport       { return o.viewport }

// WithUserAgent returns a copy of o with userAgent replaced, used by the
// static/dynamic fetchers to fall back to a configured default when a
// caller left the field blank.
func (o ScrapingOptions) WithUserAgent(userAgent string) ScrapingOptions {
	o.userAgent = userAgent
	return o
}
