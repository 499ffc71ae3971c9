package dynamicfetcher

import (
	"fmt"

	"github.com/rohmanhakim/docs-crawler/internal/metadata"
	"github.com/rohmanhakim/docs-crawler/internal/model"
	"github.com/rohmanhakim/docs-crawler/pkg/failure"
)

type FetchErrorCause string

const (
	ErrCausePoolAcquireFailed FetchErrorCause = "browser pool acquire failed"
	ErrCauseNavigationFailed  FetchErrorCause = "navigation failed"
	ErrCauseContentReadFailed FetchErrorCause = "failed to read rendered content"
	ErrCauseTimeout           FetchErrorCause = "timeout"
)

// FetchError is the dynamic fetcher's classified failure. Like the static
// fetcher, this package never retries internally; the request manager is the
// sole retry authority.
type FetchError struct {
	Message   string
	Retryable bool
	Cause     FetchErrorCause
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("dynamicfetcher error: %s: %s", e.Cause, e.Message)
}

func (e *FetchError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *FetchError) toScrapingError(url string) model.ScrapingError {
	errType := model.ErrorTypeBrowser
	if e.Cause == ErrCauseTimeout {
		errType = model.ErrorTypeTimeout
	}
	return model.NewScrapingError(errType, string(e.Cause), e.Message, url, e.Retryable)
}

func mapFetchErrorToMetadataCause(err *FetchError) metadata.ErrorCause {
	if err.Cause == ErrCauseTimeout {
		return metadata.CauseNetworkFailure
	}
	return metadata.CauseUnknown
}
