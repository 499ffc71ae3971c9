package circuitbreaker

import (
	"sync"
	"time"
)

// State is the breaker's lifecycle stage for a single domain.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Params configures the failure threshold and recovery window shared by
// every domain tracked by a Breaker.
type Params struct {
	Threshold    int
	ResetTimeout time.Duration
}

// NewParams builds breaker Params. A threshold below 1 or a non-positive
// resetTimeout falls back to the default (5 failures, 60s).
func NewParams(threshold int, resetTimeout time.Duration) Params {
	if threshold < 1 {
		threshold = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 60 * time.Second
	}
	return Params{Threshold: threshold, ResetTimeout: resetTimeout}
}

// domainState is the per-host breaker record. probing guards half-open so
// only one caller gets to test recovery at a time.
type domainState struct {
	state         State
	failures      int
	lastFailureAt time.Time
	probing       bool
}

// Breaker is the per-domain circuit breaker used by the request manager's
// dispatch step. One Breaker instance tracks every host the
// manager has seen; callers key every operation by host.
type Breaker interface {
	Allow(host string) bool
	RecordSuccess(host string)
	RecordFailure(host string)
	State(host string) State
	Reset(host string)
}

type ConcurrentBreaker struct {
	mu     sync.Mutex
	params Params
	states map[string]domainState
}

func NewConcurrentBreaker(params Params) *ConcurrentBreaker {
	return &ConcurrentBreaker{
		params: params,
		states: make(map[string]domainState),
	}
}

// Allow reports whether a dispatch to host may proceed. A host never seen
// before, or sitting closed, is always allowed. A host sitting open is
// rejected until resetTimeout has elapsed since its last failure, at which
// point it transitions to half-open and admits exactly one probe.
func (b *ConcurrentBreaker) Allow(host string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, exists := b.states[host]
	if !exists {
		return true
	}

	switch st.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(st.lastFailureAt) < b.params.ResetTimeout {
			return false
		}
		st.state = StateHalfOpen
		st.probing = true
		b.states[host] = st
		return true
	case StateHalfOpen:
		if st.probing {
			return false
		}
		st.probing = true
		b.states[host] = st
		return true
	default:
		return true
	}
}

// RecordSuccess clears failure state for host. A successful probe in
// half-open resets the breaker to closed.
func (b *ConcurrentBreaker) RecordSuccess(host string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.states[host]; !exists {
		return
	}
	delete(b.states, host)
}

// RecordFailure increments the failure count for host. Reaching the
// configured threshold opens the breaker; a failed half-open probe reopens
// it immediately regardless of the accumulated failure count.
func (b *ConcurrentBreaker) RecordFailure(host string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := b.states[host]

	if st.state == StateHalfOpen {
		st.state = StateOpen
		st.probing = false
		st.lastFailureAt = time.Now()
		b.states[host] = st
		return
	}

	st.failures++
	st.lastFailureAt = time.Now()
	if st.failures >= b.params.Threshold {
		st.state = StateOpen
	}
	b.states[host] = st
}

// State reports the current breaker state for host, StateClosed for a host
// never seen before.
func (b *ConcurrentBreaker) State(host string) State {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.states[host].state
}

// Reset clears all breaker state for host, as if it had never failed.
func (b *ConcurrentBreaker) Reset(host string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.states, host)
}
