package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/rohmanhakim/docs-crawler/internal/extractor"
	"github.com/rohmanhakim/docs-crawler/internal/metadata"
	"github.com/rohmanhakim/docs-crawler/internal/model"
	"github.com/rohmanhakim/docs-crawler/internal/sanitizer"
)

/*
Responsibilities

- Perform a single HTTP GET with a bounded redirect chain
- Apply headers and a per-request timeout
- Classify the response against the protocol table below
- Hand successful HTML bodies to the extraction cascade

Fetch Semantics

- Only successful (2xx) HTML responses are extracted
- Non-HTML content is discarded
- 404/403/410 are hard failures, never retried
- Every other non-2xx or transport error is reported retryable
- The fetcher never retries on its own; that authority belongs entirely to
  the request manager
*/

const defaultUserAgent = "golfscrape/1.0 (+https://example.invalid/bot)"

type HtmlFetcher struct {
	metadataSink metadata.MetadataSink
	extractor    extractor.CourseExtractor
	sanitizer    sanitizer.HtmlSanitizer
	httpClient   *http.Client
}

func NewHtmlFetcher(metadataSink metadata.MetadataSink) HtmlFetcher {
	return HtmlFetcher{
		metadataSink: metadataSink,
		extractor:    extractor.NewCourseExtractor(metadataSink),
		sanitizer:    sanitizer.NewHTMLSanitizer(metadataSink),
		httpClient:   &http.Client{CheckRedirect: limitRedirects},
	}
}

// NewHtmlFetcherWithStealthTLS builds an HtmlFetcher whose transport presents
// a Chrome-accurate TLS ClientHello (fetch.stealthTLS), for hosts that
// fingerprint-block Go's default TLS stack.
func NewHtmlFetcherWithStealthTLS(metadataSink metadata.MetadataSink) HtmlFetcher {
	return HtmlFetcher{
		metadataSink: metadataSink,
		extractor:    extractor.NewCourseExtractor(metadataSink),
		sanitizer:    sanitizer.NewHTMLSanitizer(metadataSink),
		httpClient:   &http.Client{CheckRedirect: limitRedirects, Transport: newStealthTransport()},
	}
}

func limitRedirects(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	return nil
}

func (h *HtmlFetcher) Fetch(ctx context.Context, target model.ScrapingTarget, options model.ScrapingOptions) model.ProcessingResult {
	targetURL := target.URL()
	userAgent := options.UserAgent()
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	timeout := time.Duration(options.TimeoutMs()) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	body, finalURL, redirects, statusCode, contentType, fetchErr := h.performFetch(fetchCtx, targetURL, userAgent)
	duration := time.Since(start)

	h.metadataSink.RecordFetch(targetURL.String(), statusCode, duration, contentType, 0, 0)

	meta := model.ResultMetadata{
		Method:       model.FetchMethodStatic,
		FinalURL:     finalURL.String(),
		Redirects:    redirectsAsStrings(redirects),
		ResponseSize: len(body),
	}

	if fetchErr != nil {
		h.recordFetchError(targetURL, fetchErr)
		return model.NewProcessingResult(targetURL.String()).
			WithSuccess(false).
			WithError(fetchErr.toScrapingError(targetURL.String())).
			WithMetadata(meta).
			WithProcessingTime(duration)
	}

	cleanedBody, sanitizeWarning := h.sanitizeBody(body)

	data, contact, images, warnings, extractErr := h.extractor.Extract(finalURL, cleanedBody, target.Name())
	result := model.NewProcessingResult(targetURL.String()).WithMetadata(meta).WithProcessingTime(duration)
	if sanitizeWarning != "" {
		result = result.WithWarning(sanitizeWarning)
	}

	if extractErr != nil {
		return result.
			WithSuccess(false).
			WithError(model.NewScrapingError(model.ErrorTypeParsing, "extraction_failed", extractErr.Error(), targetURL.String(), false))
	}

	confidence := model.Confidence(data, contact, images)
	result = result.
		WithSuccess(true).
		WithData(data).
		WithContact(contact).
		WithImages(images).
		WithConfidence(confidence)

	for _, w := range warnings {
		result = result.WithWarning(w)
	}

	return result
}

func (h *HtmlFetcher) recordFetchError(fetchUrl url.URL, err *FetchError) {
	h.metadataSink.RecordError(
		time.Now(),
		"fetcher",
		"HtmlFetcher.Fetch",
		mapFetchErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, fetchUrl.String()),
		},
	)
}

// performFetch makes exactly one logical request (redirects followed by the
// stdlib client are not separate attempts). It always returns the final URL
// reached, even on failure, since metadata.redirects/finalUrl are reported
// regardless of outcome.
func (h *HtmlFetcher) performFetch(ctx context.Context, fetchUrl url.URL, userAgent string) ([]byte, url.URL, []redirectHop, int, string, *FetchError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchUrl.String(), nil)
	if err != nil {
		return nil, fetchUrl, nil, 0, "", &FetchError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseNetworkFailure,
		}
	}

	for key, value := range requestHeaders(userAgent) {
		req.Header.Set(key, value)
	}

	var redirects []redirectHop
	prevURL := fetchUrl
	hookedClient := *h.httpClient
	hookedClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		redirects = append(redirects, redirectHop{from: prevURL, to: *req.URL})
		prevURL = *req.URL
		return limitRedirects(req, via)
	}

	resp, err := hookedClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, prevURL, redirects, 0, "", &FetchError{
				Message:   "request timed out",
				Retryable: true,
				Cause:     ErrCauseTimeout,
			}
		}
		if isRedirectLimitErr(err) {
			return nil, prevURL, redirects, 0, "", &FetchError{
				Message:   fmt.Sprintf("redirect chain exceeded %d hops", maxRedirects),
				Retryable: false,
				Cause:     ErrCauseRedirectLimitExceeded,
			}
		}
		return nil, prevURL, redirects, 0, "", &FetchError{
			Message:   fmt.Sprintf("request failed: %v", err),
			Retryable: true,
			Cause:     ErrCauseNetworkFailure,
		}
	}
	defer resp.Body.Close()

	finalURL := *resp.Request.URL
	contentType := resp.Header.Get("Content-Type")

	switch {
	case resp.StatusCode == 404 || resp.StatusCode == 403 || resp.StatusCode == 410:
		return nil, finalURL, redirects, resp.StatusCode, contentType, &FetchError{
			Message:    fmt.Sprintf("hard failure status %d", resp.StatusCode),
			Retryable:  false,
			Cause:      ErrCauseRequestPageGone,
			StatusCode: resp.StatusCode,
		}

	case resp.StatusCode == 429:
		return nil, finalURL, redirects, resp.StatusCode, contentType, &FetchError{
			Message:    "rate limited (429)",
			Retryable:  true,
			Cause:      ErrCauseRequestTooMany,
			StatusCode: resp.StatusCode,
		}

	case resp.StatusCode >= 500:
		return nil, finalURL, redirects, resp.StatusCode, contentType, &FetchError{
			Message:    fmt.Sprintf("server error: %d", resp.StatusCode),
			Retryable:  true,
			Cause:      ErrCauseRequest5xx,
			StatusCode: resp.StatusCode,
		}

	case resp.StatusCode >= 400:
		// Other non-2xx are treated as retryable, unlike the three
		// hard-failure codes above.
		return nil, finalURL, redirects, resp.StatusCode, contentType, &FetchError{
			Message:    fmt.Sprintf("client error: %d", resp.StatusCode),
			Retryable:  true,
			Cause:      ErrCauseNetworkFailure,
			StatusCode: resp.StatusCode,
		}

	case resp.StatusCode >= 300:
		return nil, finalURL, redirects, resp.StatusCode, contentType, &FetchError{
			Message:    fmt.Sprintf("unresolved redirect status: %d", resp.StatusCode),
			Retryable:  true,
			Cause:      ErrCauseNetworkFailure,
			StatusCode: resp.StatusCode,
		}
	}

	if !isHTMLContent(contentType) {
		return nil, finalURL, redirects, resp.StatusCode, contentType, &FetchError{
			Message:    fmt.Sprintf("non-HTML content type: %s", contentType),
			Retryable:  false,
			Cause:      ErrCauseContentTypeInvalid,
			StatusCode: resp.StatusCode,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, finalURL, redirects, resp.StatusCode, contentType, &FetchError{
			Message:   fmt.Sprintf("failed to read response body: %v", err),
			Retryable: true,
			Cause:     ErrCauseReadResponseBodyError,
		}
	}

	return body, finalURL, redirects, resp.StatusCode, contentType, nil
}

func isRedirectLimitErr(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return strings.Contains(urlErr.Err.Error(), "stopped after")
	}
	return false
}

func redirectsAsStrings(hops []redirectHop) []string {
	if len(hops) == 0 {
		return nil
	}
	out := make([]string, len(hops))
	for i, hop := range hops {
		out[i] = hop.String()
	}
	return out
}

func isHTMLContent(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.Contains(contentType, "text/html") ||
		strings.Contains(contentType, "application/xhtml")
}

func requestHeaders(userAgent string) map[string]string {
	return map[string]string{
		"User-Agent":      userAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
		"Accept-Encoding": "gzip, deflate, br",
		"DNT":             "1",
		"Connection":      "keep-alive",
	}
}

// sanitizeBody runs the structural cleanup pass (heading renumbering,
// empty/duplicate node removal) ahead of extraction. A parse or sanitize
// failure is never fatal to the fetch - the extraction cascade still runs
// against the original body, just without the cleanup, and a warning is
// surfaced instead.
func (h *HtmlFetcher) sanitizeBody(body []byte) ([]byte, string) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return body, "sanitize: failed to parse HTML for cleanup, using raw body"
	}

	sanitized, sanitizeErr := h.sanitizer.Sanitize(doc)
	if sanitizeErr != nil {
		return body, fmt.Sprintf("sanitize: %s, using raw body", sanitizeErr.Error())
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, sanitized.ContentNode()); err != nil {
		return body, "sanitize: failed to re-render cleaned HTML, using raw body"
	}
	return buf.Bytes(), ""
}
