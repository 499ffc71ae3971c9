/*
Package requestmanager implements the single admission point a caller submits
a ScrapingTarget through. It owns the pieces the rest of the module
only defines primitives for: the robots gate, one priority queue per host,
per-host politeness delay, a circuit breaker, and retry-with-backoff, before
dispatching to whichever Fetcher backend the request calls for.

A single-control-plane shape: one admission choke point, numbered pipeline
stages, generalized here from BFS-frontier crawling to a priority-queue
dispatcher over independently-submitted targets.
*/
package requestmanager

import (
	"context"
	"math/rand"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rohmanhakim/docs-crawler/internal/metadata"
	"github.com/rohmanhakim/docs-crawler/internal/model"
	"github.com/rohmanhakim/docs-crawler/internal/robots"
	"github.com/rohmanhakim/docs-crawler/pkg/circuitbreaker"
	"github.com/rohmanhakim/docs-crawler/pkg/limiter"
	"github.com/rohmanhakim/docs-crawler/pkg/timeutil"
)

// robotsChecker is satisfied by robots.CachedRobot (a value type, so it
// implements this by value) and lets tests substitute a fake.
type robotsChecker interface {
	Decide(target url.URL) (robots.Decision, *robots.RobotsError)
}

// Manager is safe for concurrent use by multiple goroutines. Distinct hosts
// dispatch in parallel; each host's own requests are strictly serialized by
// that host's dispatcher goroutine.
type Manager struct {
	params Params

	robotsGate     robotsChecker
	rateLimiter    limiter.RateLimiter
	breaker        circuitbreaker.Breaker
	staticFetcher  Fetcher
	dynamicFetcher Fetcher
	metadataSink   metadata.MetadataSink

	rngMu sync.Mutex
	rng   *rand.Rand

	mu         sync.Mutex
	hostQueues map[string]*hostQueue
	stats      Stats

	// inFlight counts submissions that have been enqueued but not yet
	// finished, incremented once per AddRequest call (not per retry
	// re-push) and decremented once in finish. popDispatchable removes an
	// item from its hostQueue the instant dispatch begins, so summing
	// hostQueue lengths alone would miss a request mid-sleep or mid-fetch;
	// Cleanup needs this counter to know when everything has truly settled.
	inFlight int32

	// closed is set by Cleanup to reject any AddRequest submitted after
	// cleanup began draining the queues.
	closed int32
}

// NewManager builds a Manager. staticFetcher handles options.Javascript()
// == false, dynamicFetcher handles == true.
func NewManager(
	params Params,
	robotsGate robotsChecker,
	rateLimiter limiter.RateLimiter,
	breaker circuitbreaker.Breaker,
	staticFetcher Fetcher,
	dynamicFetcher Fetcher,
	metadataSink metadata.MetadataSink,
) *Manager {
	rateLimiter.SetBaseDelay(params.DefaultCrawlDelay)
	return &Manager{
		params:         params,
		robotsGate:     robotsGate,
		rateLimiter:    rateLimiter,
		breaker:        breaker,
		staticFetcher:  staticFetcher,
		dynamicFetcher: dynamicFetcher,
		metadataSink:   metadataSink,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
		hostQueues:     make(map[string]*hostQueue),
		stats:          Stats{Hosts: make(map[string]HostStats)},
	}
}

// AddRequest is the manager's sole entry point. It
// blocks until target has been dispatched to completion: a terminal success,
// a hard failure (robots denial, 404/403/410, exhausted retries), or ctx
// being canceled.
func (m *Manager) AddRequest(ctx context.Context, target model.ScrapingTarget, options model.ScrapingOptions) model.ProcessingResult {
	targetURL := target.URL()

	if atomic.LoadInt32(&m.closed) != 0 {
		return model.NewProcessingResult(targetURL.String()).
			WithSuccess(false).
			WithError(model.NewScrapingError(model.ErrorTypeNetwork, "manager_closed", "manager is draining and refuses new submissions", targetURL.String(), false))
	}

	decision, robotsErr := m.robotsGate.Decide(targetURL)

	crawlDelay := m.params.DefaultCrawlDelay
	if robotsErr != nil {
		// The robots check itself is terminal for this submission: it
		// is never retried. The robots fetch failure fails open rather
		// than failing the request, at double the default delay.
		crawlDelay = m.params.RobotsErrorDelay
	} else if !decision.Allowed {
		return m.robotsDenied(targetURL)
	} else if decision.CrawlDelay > crawlDelay {
		crawlDelay = decision.CrawlDelay
	}

	item := &queueItem{
		target:     target,
		options:    options,
		enqueuedAt: time.Now(),
		crawlDelay: crawlDelay,
		resultCh:   make(chan model.ProcessingResult, 1),
	}

	atomic.AddInt32(&m.inFlight, 1)
	m.enqueue(target.Host(), item)

	select {
	case result := <-item.resultCh:
		return result
	case <-ctx.Done():
		return model.NewProcessingResult(targetURL.String()).
			WithSuccess(false).
			WithError(model.NewScrapingError(model.ErrorTypeTimeout, "context_canceled", ctx.Err().Error(), targetURL.String(), false))
	}
}

func (m *Manager) robotsDenied(targetURL url.URL) model.ProcessingResult {
	return model.NewProcessingResult(targetURL.String()).
		WithSuccess(false).
		WithError(model.NewScrapingError(model.ErrorTypeRobots, "robots_disallow", "disallowed by robots.txt", targetURL.String(), false))
}

// enqueue registers item under host's queue and spawns a dispatcher for that
// host if one is not already running.
func (m *Manager) enqueue(host string, item *queueItem) {
	m.mu.Lock()
	q, exists := m.hostQueues[host]
	if !exists {
		q = newHostQueue()
		m.hostQueues[host] = q
	}
	needsDispatcher := !q.dispatcherRunning
	q.dispatcherRunning = true
	m.mu.Unlock()

	q.push(item)

	if needsDispatcher {
		go m.runHostDispatcher(host, q)
	}
}

// runHostDispatcher pulls dispatchable items for host one at a time until
// the queue drains, then deregisters itself. A new enqueue arriving right as
// the queue looks empty re-spawns a dispatcher, guarded by m.mu so the two
// never race into believing no dispatcher is running.
func (m *Manager) runHostDispatcher(host string, q *hostQueue) {
	for {
		item, wait, ok := q.popDispatchable()
		if !ok {
			if q.len() == 0 {
				m.mu.Lock()
				if q.len() == 0 {
					q.dispatcherRunning = false
					m.mu.Unlock()
					return
				}
				m.mu.Unlock()
				continue
			}
			select {
			case <-time.After(wait):
			case <-q.wake:
			}
			continue
		}
		m.dispatch(host, q, item)
	}
}

// dispatch runs the admission pipeline's remaining steps for one queue item: circuit breaker check,
// domain-gate delay, dispatch to the selected Fetcher, and retry scheduling.
func (m *Manager) dispatch(host string, q *hostQueue, item *queueItem) {
	if !m.breaker.Allow(host) {
		m.finish(item, model.NewProcessingResult(item.target.URL().String()).
			WithSuccess(false).
			WithError(model.NewScrapingError(model.ErrorTypeNetwork, "circuit_open", "circuit breaker open for host", item.target.URL().String(), false)))
		return
	}

	m.rateLimiter.SetCrawlDelay(host, item.crawlDelay)
	if wait := m.rateLimiter.ResolveDelay(host); wait > 0 {
		time.Sleep(wait)
	}
	m.rateLimiter.MarkLastFetchAsNow(host)

	fetcher := m.staticFetcher
	method := metadata.FetchMethodStatic
	if item.options.Javascript() {
		fetcher = m.dynamicFetcher
		method = metadata.FetchMethodDynamic
	}
	m.recordDispatch(host, method, time.Since(item.enqueuedAt), item.attempt+1)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout(item.options))
	start := time.Now()
	result := fetcher.Fetch(ctx, item.target, item.options)
	cancel()
	result = result.WithProcessingTime(time.Since(start))

	if result.Success() || !lastErrorRetryable(result) || item.attempt+1 >= m.params.RetryMaxAttempts {
		m.recordBreakerOutcome(host, result.Success())
		m.finish(item, result)
		return
	}

	item.attempt++
	m.recordBreakerOutcome(host, false)
	item.deferredUntil = time.Now().Add(m.nextBackoff(item.attempt))
	q.push(item)
}

func (m *Manager) nextBackoff(attempt int) time.Duration {
	m.rngMu.Lock()
	rng := *m.rng
	m.rngMu.Unlock()
	return timeutil.ExponentialBackoffDelay(attempt, 0, rng, m.params.backoffParam())
}

func (m *Manager) recordBreakerOutcome(host string, success bool) {
	before := m.breaker.State(host)
	if success {
		m.breaker.RecordSuccess(host)
	} else {
		m.breaker.RecordFailure(host)
	}
	after := m.breaker.State(host)
	if before == after {
		return
	}

	observer, ok := m.metadataSink.(metadata.DispatchObserver)
	if !ok {
		return
	}

	var transition metadata.BreakerTransition
	switch {
	case before == circuitbreaker.StateClosed && after == circuitbreaker.StateOpen:
		transition = metadata.BreakerClosedToOpen
	case before == circuitbreaker.StateOpen && after == circuitbreaker.StateHalfOpen:
		transition = metadata.BreakerOpenToHalfOpen
	case before == circuitbreaker.StateHalfOpen && after == circuitbreaker.StateClosed:
		transition = metadata.BreakerHalfOpenToClosed
	case before == circuitbreaker.StateHalfOpen && after == circuitbreaker.StateOpen:
		transition = metadata.BreakerHalfOpenToOpen
	default:
		return
	}
	observer.RecordBreakerTransition(host, transition)
}

func (m *Manager) recordDispatch(host string, method metadata.FetchMethod, queueWait time.Duration, attempt int) {
	observer, ok := m.metadataSink.(metadata.DispatchObserver)
	if !ok {
		return
	}
	observer.RecordDispatch(host, method, queueWait, attempt)
}

func (m *Manager) finish(item *queueItem, result model.ProcessingResult) {
	host := item.target.Host()

	m.mu.Lock()
	m.stats.TotalRequests++
	if result.Success() {
		m.stats.TotalSuccess++
	} else {
		m.stats.TotalFailures++
	}
	hs := m.stats.Hosts[host]
	hs.RequestCount++
	if result.Success() {
		hs.Success++
	} else {
		hs.Failure++
	}
	hs.LastRequestAt = time.Now()
	n := float64(hs.RequestCount)
	hs.AvgResponseTimeMs += (float64(result.ProcessingTime().Milliseconds()) - hs.AvgResponseTimeMs) / n
	m.stats.Hosts[host] = hs
	m.mu.Unlock()

	item.resultCh <- result
	atomic.AddInt32(&m.inFlight, -1)
}

// GetStats returns a snapshot of aggregate and per-host accounting.
func (m *Manager) GetStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	hostsCopy := make(map[string]HostStats, len(m.stats.Hosts))
	for k, v := range m.stats.Hosts {
		hostsCopy[k] = v
	}
	return Stats{
		TotalRequests: m.stats.TotalRequests,
		TotalSuccess:  m.stats.TotalSuccess,
		TotalFailures: m.stats.TotalFailures,
		Hosts:         hostsCopy,
	}
}

// Reset clears accounting, breaker, and rate-limiter backoff state for every
// host seen so far. Callers must only invoke it between batches, never while
// requests are in flight for those hosts.
func (m *Manager) Reset() {
	m.mu.Lock()
	hosts := make([]string, 0, len(m.stats.Hosts))
	for host := range m.stats.Hosts {
		hosts = append(hosts, host)
	}
	m.stats = Stats{Hosts: make(map[string]HostStats)}
	m.mu.Unlock()

	for _, host := range hosts {
		m.breaker.Reset(host)
		m.rateLimiter.ResetBackoff(host)
	}
}

// Cleanup refuses any further AddRequest submissions, blocks until every
// host dispatcher has drained its in-flight queue, then releases the dynamic
// fetcher's resources if it exposes a Cleanup method.
func (m *Manager) Cleanup() {
	atomic.StoreInt32(&m.closed, 1)

	for atomic.LoadInt32(&m.inFlight) != 0 {
		time.Sleep(50 * time.Millisecond)
	}

	if cleaner, ok := m.dynamicFetcher.(cleanupFetcher); ok {
		cleaner.Cleanup()
	}
}

func lastErrorRetryable(result model.ProcessingResult) bool {
	errs := result.Errors()
	if len(errs) == 0 {
		return false
	}
	return errs[len(errs)-1].Retryable()
}

func fetchTimeout(options model.ScrapingOptions) time.Duration {
	ms := options.TimeoutMs()
	if ms <= 0 {
		ms = 30_000
	}
	return time.Duration(ms) * time.Millisecond
}
