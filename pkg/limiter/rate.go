package limiter

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rohmanhakim/docs-crawler/pkg/timeutil"
)

// defaultBackoffParam is the default retry schedule: 1s initial delay,
// doubling each attempt, capped at 30s.
var defaultBackoffParam = timeutil.NewBackoffParam(1*time.Second, 2.0, 30*time.Second)

// RateLimiter is the per-host politeness gate used by the request manager's
// domain gate (component D). Responsibilities:
//   - Bookkeep each hostname's last fetch timestamp.
//   - Compute the effective delay for a host from base delay, robots
//     crawl-delay, and any backoff currently in effect.
//   - Track backoff state independently of delay resolution so a caller can
//     reset it on success without touching crawl-delay or base-delay config.
type RateLimiter interface {
	SetBaseDelay(baseDelay time.Duration)
	SetJitter(jitter time.Duration)
	SetRandomSeed(randomSeed int64)
	SetBackoffParam(param timeutil.BackoffParam)
	SetCrawlDelay(host string, delay time.Duration)
	Backoff(host string)
	ResetBackoff(host string)
	MarkLastFetchAsNow(host string)
	SetRNG(rng interface{})
	ResolveDelay(host string) time.Duration
}

type ConcurrentRateLimiter struct {
	mu           sync.RWMutex
	rngMu        sync.Mutex
	baseDelay    time.Duration
	jitter       time.Duration
	backoffParam timeutil.BackoffParam
	hostTimings  map[string]hostTiming
	rng          *rand.Rand
}

func NewConcurrentRateLimiter() *ConcurrentRateLimiter {
	return &ConcurrentRateLimiter{
		hostTimings:  make(map[string]hostTiming),
		backoffParam: defaultBackoffParam,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ConcurrentRateLimiter) SetBaseDelay(baseDelay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.baseDelay = baseDelay
}

func (r *ConcurrentRateLimiter) SetJitter(jitter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jitter = jitter
}

func (r *ConcurrentRateLimiter) SetRandomSeed(randomSeed int64) {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()

	r.rng = rand.New(rand.NewSource(randomSeed))
}

// SetBackoffParam overrides the exponential-backoff schedule used by Backoff.
// Defaults to a 1s/2.0x/30s schedule if never called.
func (r *ConcurrentRateLimiter) SetBackoffParam(param timeutil.BackoffParam) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.backoffParam = param
}

// SetCrawlDelay sets the robots-derived crawl delay for a host, separate
// from the globally configured base delay.
func (r *ConcurrentRateLimiter) SetCrawlDelay(host string, delay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	currentHostTiming, exists := r.hostTimings[host]
	if exists {
		currentHostTiming.crawlDelay = delay
		r.hostTimings[host] = currentHostTiming
	} else {
		r.hostTimings[host] = hostTiming{
			crawlDelay: delay,
		}
	}
}

// Backoff triggers exponential backoff for the given host, incrementing the
// backoff counter and recomputing the backoff delay.
func (r *ConcurrentRateLimiter) Backoff(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	currentHostTiming, exists := r.hostTimings[host]
	nextCount := 1
	if exists {
		nextCount = currentHostTiming.backoffCount + 1
	}

	currentHostTiming.backoffCount = nextCount
	currentHostTiming.backoffDelay = r.exponentialBackoffDelay(nextCount)
	r.hostTimings[host] = currentHostTiming
}

// exponentialBackoffDelay computes the current backoff delay for a count.
// Caller must hold r.mu.
func (r *ConcurrentRateLimiter) exponentialBackoffDelay(backoffCount int) time.Duration {
	rng := r.rngSnapshot()
	return timeutil.ExponentialBackoffDelay(backoffCount, r.jitter, rng, r.backoffParam)
}

// rngSnapshot returns a copy of the current RNG, lazily initializing one if
// none has been set (e.g. via SetRNG(nil *rand.Rand)).
func (r *ConcurrentRateLimiter) rngSnapshot() rand.Rand {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()

	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return *r.rng
}

// ResetBackoff clears backoff state for a host, called after a successful
// request so the next failure starts the schedule from the first step.
func (r *ConcurrentRateLimiter) ResetBackoff(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	currentHostTiming, exists := r.hostTimings[host]
	if exists {
		currentHostTiming.backoffCount = 0
		currentHostTiming.backoffDelay = 0
		r.hostTimings[host] = currentHostTiming
	}
}

// MarkLastFetchAsNow records that a fetch to host is starting now.
func (r *ConcurrentRateLimiter) MarkLastFetchAsNow(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	currentHostTiming, exists := r.hostTimings[host]
	if exists {
		currentHostTiming.lastFetchAt = time.Now()
		r.hostTimings[host] = currentHostTiming
	} else {
		r.hostTimings[host] = hostTiming{
			lastFetchAt: time.Now(),
		}
	}
}

// SetRNG allows injecting a custom random number generator for deterministic
// tests. A nil *rand.Rand is accepted and lazily replaced on next use.
func (r *ConcurrentRateLimiter) SetRNG(rng interface{}) {
	randImpl, ok := rng.(*rand.Rand)
	if !ok {
		return
	}

	r.rngMu.Lock()
	r.rng = randImpl
	r.rngMu.Unlock()
}

// ResolveDelay computes the remaining wait before host may be dispatched
// again: max(baseDelay, crawlDelay, backoffDelay) + jitter, minus time
// already elapsed since the last fetch, floored at zero.
func (r *ConcurrentRateLimiter) ResolveDelay(host string) time.Duration {
	r.mu.RLock()
	currentHostTiming, exists := r.hostTimings[host]
	base := r.baseDelay
	jitter := r.jitter
	r.mu.RUnlock()

	if !exists {
		return 0
	}

	delays := []time.Duration{base, currentHostTiming.crawlDelay, currentHostTiming.backoffDelay}
	finalDelay := timeutil.MaxDuration(delays)
	finalDelay += timeutil.ComputeJitter(jitter, r.rngSnapshot())

	elapsed := time.Since(currentHostTiming.lastFetchAt)
	if elapsed < finalDelay {
		return finalDelay - elapsed
	}

	return 0
}

func (r *ConcurrentRateLimiter) BaseDelay() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.baseDelay
}

func (r *ConcurrentRateLimiter) Jitter() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.jitter
}

func (r *ConcurrentRateLimiter) RNG() *rand.Rand {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return r.rng
}

func (r *ConcurrentRateLimiter) HostTimings() map[string]hostTiming {
	r.mu.RLock()
	defer r.mu.RUnlock()

	copyMap := make(map[string]hostTiming, len(r.hostTimings))
	for k, v := range r.hostTimings {
		copyMap[k] = v
	}
	return copyMap
}
