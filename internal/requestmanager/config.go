package requestmanager

import (
	"time"

	"github.com/rohmanhakim/docs-crawler/pkg/circuitbreaker"
	"github.com/rohmanhakim/docs-crawler/pkg/timeutil"
)

// Params configures the request manager's politeness, retry, and breaker
// behavior. Use NewParams to get the module's numeric defaults;
// fields are exported so a caller building from internal/config can override
// individual ones.
type Params struct {
	// DefaultCrawlDelay is the floor applied to every host absent a more
	// specific robots.txt crawl-delay.
	DefaultCrawlDelay time.Duration

	// RobotsErrorDelay replaces DefaultCrawlDelay when the robots policy
	// cache itself could not be fetched (network/5xx) for a host.
	RobotsErrorDelay time.Duration

	// Retry schedule: backoff(n) = min(RetryMaxDelay, RetryBaseDelay*RetryFactor^(n-1)).
	RetryBaseDelay   time.Duration
	RetryFactor      float64
	RetryMaxDelay    time.Duration
	RetryMaxAttempts int

	BreakerParams circuitbreaker.Params
}

// NewParams returns the manager's spec defaults.
func NewParams() Params {
	return Params{
		DefaultCrawlDelay: 2000 * time.Millisecond,
		RobotsErrorDelay:  4000 * time.Millisecond,
		RetryBaseDelay:    1000 * time.Millisecond,
		RetryFactor:       2.0,
		RetryMaxDelay:     10 * time.Second,
		RetryMaxAttempts:  3,
		BreakerParams:     circuitbreaker.NewParams(5, 60*time.Second),
	}
}

func (p Params) backoffParam() timeutil.BackoffParam {
	return timeutil.NewBackoffParam(p.RetryBaseDelay, p.RetryFactor, p.RetryMaxDelay)
}
