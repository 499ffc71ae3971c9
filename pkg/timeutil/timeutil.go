package timeutil

import (
	"math/rand"
	"time"
)

// DurationPtr is a helper function to create a pointer to a time.Duration
func DurationPtr(d time.Duration) *time.Duration {
	return &d
}

// MaxDuration returns the largest duration in durations. Negative durations are
// compared normally (the "least negative" wins if every value is negative). An
// empty slice returns the zero duration. The input slice is never mutated.
func MaxDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	max := durations[0]
	for _, d := range durations[1:] {
		if d > max {
			max = d
		}
	}
	return max
}

// ComputeJitter returns a uniformly distributed random duration in [0, max).
// A zero or negative max returns 0 without consulting rng.
func ComputeJitter(max time.Duration, rng rand.Rand) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rng.Int63n(int64(max)))
}

// ExponentialBackoffDelay computes the delay before the next retry attempt.
//
// backoffCount is the 1-indexed attempt number that just failed (the first
// failure is backoffCount=1). The base delay grows as
// initialDuration * multiplier^(backoffCount-1), capped at maxDuration, and a
// uniform jitter in [0, jitter) is added on top. backoffCount <= 0 is treated
// as 1; negative jitter is treated as 0.
func ExponentialBackoffDelay(backoffCount int, jitter time.Duration, rng rand.Rand, param BackoffParam) time.Duration {
	if backoffCount < 1 {
		backoffCount = 1
	}

	exponent := backoffCount - 1
	delay := float64(param.InitialDuration())
	for i := 0; i < exponent; i++ {
		delay *= param.Multiplier()
	}

	backoff := time.Duration(delay)
	if max := param.MaxDuration(); max > 0 && backoff > max {
		backoff = max
	}

	if jitter > 0 {
		backoff += ComputeJitter(jitter, rng)
	}

	if backoff < 0 {
		return 0
	}
	return backoff
}
