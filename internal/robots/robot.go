package robots

import (
	"context"
	"net/url"
	"time"

	"github.com/rohmanhakim/docs-crawler/internal/metadata"
	"github.com/rohmanhakim/docs-crawler/internal/robots/cache"
)

/*
CachedRobot

Responsibilities:
- Own a RobotsFetcher and the user agent it decides on behalf of
- Turn a target URL into an allow/disallow Decision, fetching and caching
  robots.txt as needed along the way
- Report failures to fetch or parse robots.txt through the MetadataSink

Robots checks occur before a URL enters the frontier.

CachedRobot is a small value type so callers can pass it around by value;
Init/InitWithCache populate its fields in place and must be called before
Decide.
*/
type CachedRobot struct {
	metadataSink metadata.MetadataSink
	userAgent    string
	cache        cache.Cache
	fetcher      *RobotsFetcher
}

// NewCachedRobot creates a CachedRobot reporting through metadataSink.
// Init or InitWithCache must be called before Decide.
func NewCachedRobot(metadataSink metadata.MetadataSink) CachedRobot {
	return CachedRobot{metadataSink: metadataSink}
}

// Init prepares the robot with userAgent and a fresh in-memory cache.
func (r *CachedRobot) Init(userAgent string) {
	r.InitWithCache(userAgent, cache.NewMemoryCache())
}

// InitWithCache prepares the robot with userAgent and a caller-supplied cache.
func (r *CachedRobot) InitWithCache(userAgent string, customCache cache.Cache) {
	r.userAgent = userAgent
	r.cache = customCache
	r.fetcher = NewRobotsFetcher(r.metadataSink, userAgent, customCache)
}

// Decide reports whether target may be crawled under this robot's user
// agent, fetching and caching robots.txt for target's host as needed.
func (r CachedRobot) Decide(target url.URL) (Decision, *RobotsError) {
	scheme := target.Scheme
	if scheme == "" {
		scheme = "https"
	}

	// Look the host up before Fetch fills the cache, so the recorded outcome
	// says whether robots.txt was already cached.
	_, observed := r.metadataSink.(metadata.DispatchObserver)
	cacheHit := false
	if observed && r.cache != nil {
		_, cacheHit = r.cache.Get(cacheKey(scheme, target.Host))
	}

	result, fetchErr := r.fetcher.Fetch(context.Background(), scheme, target.Host)
	if fetchErr != nil {
		r.recordFetchError(target.Host, fetchErr)
		return Decision{}, fetchErr
	}

	rs := MapResponseToRuleSet(result.Response, r.userAgent, result.FetchedAt)
	decision := decideFromRuleSet(rs, target)

	r.recordRobotsCheck(target.Host, cacheHit, decision.Allowed)

	return decision, nil
}

// GetRobotsInfo reports what this robot currently knows about host's
// robots.txt, fetching and caching it first if necessary.
func (r CachedRobot) GetRobotsInfo(host string) (RobotsInfo, *RobotsError) {
	result, fetchErr := r.fetcher.Fetch(context.Background(), "https", host)
	if fetchErr != nil {
		r.recordFetchError(host, fetchErr)
		return RobotsInfo{Host: host}, fetchErr
	}

	info := RobotsInfo{
		Host:        host,
		Exists:      !result.Response.IsEmpty(),
		Groups:      result.Response.UserAgents,
		Sitemaps:    result.Response.Sitemaps,
		LastChecked: result.FetchedAt,
	}
	if group := result.Response.GetGroupForUserAgent(r.userAgent); group != nil && group.CrawlDelay != nil {
		info.CrawlDelay = *group.CrawlDelay
	}
	return info, nil
}

// ClearCache clears this robot's robots.txt cache. With no arguments it
// clears every cached host; with one host argument it clears only that
// host's entries.
func (r CachedRobot) ClearCache(host ...string) {
	if r.cache == nil {
		return
	}
	if len(host) == 0 {
		if clearer, ok := r.cache.(interface{ Clear() }); ok {
			clearer.Clear()
		}
		return
	}
	for _, h := range host {
		r.cache.ClearHost(h)
	}
}

// GetCacheStats reports this robot's cache size and lifetime hit/miss counts.
func (r CachedRobot) GetCacheStats() cache.Stats {
	if r.cache == nil {
		return cache.Stats{}
	}
	return r.cache.Stats()
}

func (r CachedRobot) recordFetchError(host string, err *RobotsError) {
	if r.metadataSink == nil {
		return
	}
	r.metadataSink.RecordError(
		time.Now(),
		"robots",
		"decide",
		mapRobotsErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{metadata.NewAttr(metadata.AttrHost, host)},
	)
}

// recordRobotsCheck reports whether this decision was served from cache:
// hit is true when the host's robots.txt was already cached before Decide
// fetched it.
func (r CachedRobot) recordRobotsCheck(host string, hit bool, allowed bool) {
	observer, ok := r.metadataSink.(metadata.DispatchObserver)
	if !ok || r.cache == nil {
		return
	}
	outcome := metadata.RobotsCacheMiss
	if hit {
		outcome = metadata.RobotsCacheHit
	}
	observer.RecordRobotsCheck(host, outcome, allowed)
}
