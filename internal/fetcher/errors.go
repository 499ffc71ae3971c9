package fetcher

import (
	"fmt"

	"github.com/rohmanhakim/docs-crawler/internal/metadata"
	"github.com/rohmanhakim/docs-crawler/internal/model"
	"github.com/rohmanhakim/docs-crawler/pkg/failure"
)

type FetchErrorCause string

const (
	ErrCauseTimeout               FetchErrorCause = "timeout"
	ErrCauseNetworkFailure        FetchErrorCause = "network issues"
	ErrCauseReadResponseBodyError FetchErrorCause = "failed to read response body"
	ErrCauseContentTypeInvalid    FetchErrorCause = "non-HTML content"
	ErrCauseRedirectLimitExceeded FetchErrorCause = "reached redirect limit"
	ErrCauseRequestPageGone       FetchErrorCause = "not found / forbidden / gone"
	ErrCauseRequestTooMany        FetchErrorCause = "too many requests"
	ErrCauseRequest5xx            FetchErrorCause = "5xx"
)

// FetchError is the static fetcher's classified failure, per the protocol
// table in html.go. The request manager is the sole retry authority; this
// fetcher makes exactly one HTTP attempt per Fetch call and only reports
// whether that attempt is worth retrying.
type FetchError struct {
	Message    string
	Retryable  bool
	Cause      FetchErrorCause
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetcher error: %s", e.Cause)
}

func (e *FetchError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// toScrapingError maps this fetcher-local failure to the canonical taxonomy
// every ProcessingResult carries.
func (e *FetchError) toScrapingError(url string) model.ScrapingError {
	errType := model.ErrorTypeNetwork
	if e.Cause == ErrCauseTimeout {
		errType = model.ErrorTypeTimeout
	}
	se := model.NewScrapingError(errType, string(e.Cause), e.Message, url, e.Retryable)
	if e.StatusCode != 0 {
		se = se.WithStatusCode(e.StatusCode)
	}
	return se
}

// mapFetchErrorToMetadataCause maps fetcher-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapFetchErrorToMetadataCause(err *FetchError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseTimeout:
		return metadata.CauseNetworkFailure
	case ErrCauseRequestTooMany:
		return metadata.CausePolicyDisallow
	case ErrCauseRequestPageGone:
		return metadata.CausePolicyDisallow
	default:
		return metadata.CauseUnknown
	}
}
