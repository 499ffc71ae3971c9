package browserpool

import (
	"fmt"

	"github.com/rohmanhakim/docs-crawler/pkg/failure"
)

type PoolErrorCause string

const (
	ErrCauseLaunchFailed  PoolErrorCause = "browser launch failed"
	ErrCausePoolClosed    PoolErrorCause = "pool closed"
	ErrCauseAcquireFailed PoolErrorCause = "page acquisition failed"
)

// PoolError is browserpool's classified failure. Launch/acquire failures are
// always treated as retryable by callers one layer up (the request manager
// retries the whole dispatch); a closed pool is terminal.
type PoolError struct {
	Message   string
	Retryable bool
	Cause     PoolErrorCause
}

func (e *PoolError) Error() string {
	return fmt.Sprintf("browserpool error: %s: %s", e.Cause, e.Message)
}

func (e *PoolError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}
