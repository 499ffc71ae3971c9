package circuitbreaker_test

import (
	"testing"
	"time"

	"github.com/rohmanhakim/docs-crawler/pkg/circuitbreaker"
)

func TestNewParams_Defaults(t *testing.T) {
	p := circuitbreaker.NewParams(0, 0)
	if p.Threshold != 5 {
		t.Errorf("default Threshold = %d, want 5", p.Threshold)
	}
	if p.ResetTimeout != 60*time.Second {
		t.Errorf("default ResetTimeout = %v, want 60s", p.ResetTimeout)
	}
}

func TestBreaker_AllowsUnseenHost(t *testing.T) {
	b := circuitbreaker.NewConcurrentBreaker(circuitbreaker.NewParams(5, 60*time.Second))

	if !b.Allow("fresh.example") {
		t.Error("expected unseen host to be allowed")
	}
	if b.State("fresh.example") != circuitbreaker.StateClosed {
		t.Errorf("state = %v, want closed", b.State("fresh.example"))
	}
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := circuitbreaker.NewConcurrentBreaker(circuitbreaker.NewParams(5, 60*time.Second))
	host := "failing.example"

	for i := 0; i < 5; i++ {
		if !b.Allow(host) {
			t.Fatalf("request %d: expected allow before breaker trips", i+1)
		}
		b.RecordFailure(host)
	}

	if b.State(host) != circuitbreaker.StateOpen {
		t.Fatalf("state after 5 failures = %v, want open", b.State(host))
	}
	if b.Allow(host) {
		t.Error("6th request should be rejected while breaker is open")
	}
}

func TestBreaker_RejectsFastWhileOpen(t *testing.T) {
	b := circuitbreaker.NewConcurrentBreaker(circuitbreaker.NewParams(5, 60*time.Second))
	host := "slow-reject.example"

	for i := 0; i < 5; i++ {
		b.Allow(host)
		b.RecordFailure(host)
	}

	start := time.Now()
	allowed := b.Allow(host)
	elapsed := time.Since(start)

	if allowed {
		t.Fatal("expected rejection while open")
	}
	if elapsed > 50*time.Millisecond {
		t.Errorf("Allow took %v, want under 50ms", elapsed)
	}
}

func TestBreaker_HalfOpenAfterResetTimeout(t *testing.T) {
	b := circuitbreaker.NewConcurrentBreaker(circuitbreaker.NewParams(5, 20*time.Millisecond))
	host := "recovering.example"

	for i := 0; i < 5; i++ {
		b.Allow(host)
		b.RecordFailure(host)
	}
	if !b.Allow(host) {
		// resetTimeout not elapsed yet
	} else {
		t.Fatal("expected rejection immediately after tripping")
	}

	time.Sleep(30 * time.Millisecond)

	if !b.Allow(host) {
		t.Fatal("expected a single probe to be allowed once resetTimeout elapses")
	}
	if b.State(host) != circuitbreaker.StateHalfOpen {
		t.Errorf("state after probe admitted = %v, want half-open", b.State(host))
	}

	// A second concurrent probe must be rejected.
	if b.Allow(host) {
		t.Error("expected only one probe to be admitted in half-open")
	}
}

func TestBreaker_SuccessInHalfOpenClosesBreaker(t *testing.T) {
	b := circuitbreaker.NewConcurrentBreaker(circuitbreaker.NewParams(5, 10*time.Millisecond))
	host := "heals.example"

	for i := 0; i < 5; i++ {
		b.Allow(host)
		b.RecordFailure(host)
	}

	time.Sleep(15 * time.Millisecond)

	if !b.Allow(host) {
		t.Fatal("expected probe to be admitted")
	}
	b.RecordSuccess(host)

	if b.State(host) != circuitbreaker.StateClosed {
		t.Errorf("state after successful probe = %v, want closed", b.State(host))
	}
	if !b.Allow(host) {
		t.Error("expected closed breaker to allow subsequent requests")
	}
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	b := circuitbreaker.NewConcurrentBreaker(circuitbreaker.NewParams(5, 10*time.Millisecond))
	host := "relapses.example"

	for i := 0; i < 5; i++ {
		b.Allow(host)
		b.RecordFailure(host)
	}

	time.Sleep(15 * time.Millisecond)

	if !b.Allow(host) {
		t.Fatal("expected probe to be admitted")
	}
	b.RecordFailure(host)

	if b.State(host) != circuitbreaker.StateOpen {
		t.Errorf("state after failed probe = %v, want open", b.State(host))
	}
	if b.Allow(host) {
		t.Error("expected breaker to reject again immediately after a failed probe")
	}
}

func TestBreaker_SuccessBelowThresholdResetsFailureCount(t *testing.T) {
	b := circuitbreaker.NewConcurrentBreaker(circuitbreaker.NewParams(5, 60*time.Second))
	host := "intermittent.example"

	b.RecordFailure(host)
	b.RecordFailure(host)
	b.RecordFailure(host)
	b.RecordSuccess(host)

	for i := 0; i < 4; i++ {
		if !b.Allow(host) {
			t.Fatalf("request %d: expected allow, failure count should have reset on success", i+1)
		}
		b.RecordFailure(host)
	}

	if b.State(host) != circuitbreaker.StateClosed {
		t.Errorf("state = %v, want closed (only 4 failures since reset)", b.State(host))
	}
}

func TestBreaker_ResetClearsState(t *testing.T) {
	b := circuitbreaker.NewConcurrentBreaker(circuitbreaker.NewParams(5, 60*time.Second))
	host := "manually-reset.example"

	for i := 0; i < 5; i++ {
		b.Allow(host)
		b.RecordFailure(host)
	}
	if b.State(host) != circuitbreaker.StateOpen {
		t.Fatalf("setup: state = %v, want open", b.State(host))
	}

	b.Reset(host)

	if b.State(host) != circuitbreaker.StateClosed {
		t.Errorf("state after Reset = %v, want closed", b.State(host))
	}
	if !b.Allow(host) {
		t.Error("expected allow immediately after Reset")
	}
}

func TestBreaker_IndependentPerHost(t *testing.T) {
	b := circuitbreaker.NewConcurrentBreaker(circuitbreaker.NewParams(5, 60*time.Second))

	for i := 0; i < 5; i++ {
		b.Allow("bad.example")
		b.RecordFailure("bad.example")
	}

	if b.State("bad.example") != circuitbreaker.StateOpen {
		t.Fatalf("bad.example state = %v, want open", b.State("bad.example"))
	}
	if !b.Allow("good.example") {
		t.Error("expected unrelated host to remain unaffected")
	}
}

func TestOpenError(t *testing.T) {
	err := &circuitbreaker.OpenError{Host: "blocked.example"}

	if err.IsRetryable() {
		t.Error("expected OpenError to be non-retryable")
	}
	if !contains(err.Error(), "circuit") {
		t.Errorf("error message = %q, want it to contain 'circuit'", err.Error())
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
