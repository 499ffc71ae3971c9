package circuitbreaker

import (
	"fmt"

	"github.com/rohmanhakim/docs-crawler/pkg/failure"
)

// OpenError is returned by a caller-side Allow(host) == false check. It is
// always fatal for the current dispatch attempt: the dispatcher fails fast
// rather than retrying while a breaker is open.
type OpenError struct {
	Host string
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit breaker open for host %s", e.Host)
}

func (e *OpenError) Severity() failure.Severity {
	return failure.SeverityFatal
}

func (e *OpenError) IsRetryable() bool {
	return false
}
