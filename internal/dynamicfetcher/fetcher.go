package dynamicfetcher

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	xhtml "golang.org/x/net/html"

	"github.com/rohmanhakim/docs-crawler/internal/browserpool"
	"github.com/rohmanhakim/docs-crawler/internal/extractor"
	"github.com/rohmanhakim/docs-crawler/internal/metadata"
	"github.com/rohmanhakim/docs-crawler/internal/model"
	"github.com/rohmanhakim/docs-crawler/internal/sanitizer"
)

/*
Responsibilities
- Acquire a page from the browser pool, render the target, and tear it down
  on every exit path
- Apply the content-ready strategy: wait for a caller-supplied selector, then
  the caller's settle time, then a best-effort second stability wait
- Hand the rendered HTML to the same extraction cascade the static fetcher
  uses, so both backends agree on what "extracted" means
- Never retry internally - the request manager is the sole retry authority

*/
type DynamicFetcher struct {
	pool           *browserpool.Pool
	metadataSink   metadata.MetadataSink
	extractor      extractor.CourseExtractor
	sanitizer      sanitizer.HtmlSanitizer
	screenshotSink ScreenshotSink
}

func NewDynamicFetcher(pool *browserpool.Pool, metadataSink metadata.MetadataSink, screenshotSink ScreenshotSink) DynamicFetcher {
	return DynamicFetcher{
		pool:           pool,
		metadataSink:   metadataSink,
		extractor:      extractor.NewCourseExtractor(metadataSink),
		sanitizer:      sanitizer.NewHTMLSanitizer(metadataSink),
		screenshotSink: screenshotSink,
	}
}

func (f *DynamicFetcher) Fetch(ctx context.Context, target model.ScrapingTarget, options model.ScrapingOptions) model.ProcessingResult {
	start := time.Now()

	timeoutMs := options.TimeoutMs()
	if timeoutMs <= 0 {
		timeoutMs = 30_000
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	userAgent := options.UserAgent()
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	sess, pg, err := f.pool.Acquire(ctx)
	if err != nil {
		fetchErr := &FetchError{Message: err.Error(), Retryable: true, Cause: ErrCausePoolAcquireFailed}
		return f.failureResult(target.URL(), fetchErr, time.Since(start))
	}
	defer f.pool.Release(sess, pg)

	rawHTML, finalURL, screenshots, warnings, fetchErr := f.render(ctx, pg.Page(), target, options, userAgent)

	duration := time.Since(start)
	f.metadataSink.RecordFetch(finalURL.String(), 0, duration, "text/html", 0, 0)

	if fetchErr != nil {
		f.recordFetchError(finalURL, fetchErr)
		return f.failureResult(finalURL, fetchErr, duration)
	}

	cleanedHTML, sanitizeWarning := f.sanitizeBody(rawHTML)
	if sanitizeWarning != "" {
		warnings = append(warnings, sanitizeWarning)
	}

	data, contact, images, extractWarnings, classifiedErr := f.extractor.Extract(finalURL, cleanedHTML, target.Name())

	result := model.NewProcessingResult(finalURL.String())
	if classifiedErr != nil {
		// Extraction failing after a successful navigation is degradable: the
		// result still succeeds, named after the target, with a warning.
		result = result.
			WithSuccess(true).
			WithData(model.CourseBasicInfo{Name: target.Name()}).
			WithWarning("extraction failed: " + classifiedErr.Error())
	} else {
		result = result.
			WithSuccess(true).
			WithData(data).
			WithContact(contact).
			WithImages(images).
			WithConfidence(model.Confidence(data, contact, images))
		for _, w := range extractWarnings {
			result = result.WithWarning(w)
		}
	}
	for _, w := range warnings {
		result = result.WithWarning(w)
	}

	return result.
		WithProcessingTime(duration).
		WithMetadata(model.ResultMetadata{
			Method:       model.FetchMethodDynamic,
			FinalURL:     finalURL.String(),
			ResponseSize: len(rawHTML),
			Screenshots:  screenshots,
		})
}

// render drives one rod.Page through header setup, hijacking, navigation,
// the content-ready wait strategy, and optional screenshot capture. Every
// exit path leaves the page navigated but never closes it - that is the
// pool's job on Release.
func (f *DynamicFetcher) render(
	ctx context.Context,
	page *rod.Page,
	target model.ScrapingTarget,
	options model.ScrapingOptions,
	userAgent string,
) ([]byte, url.URL, []string, []string, *FetchError) {
	finalURL := target.URL()
	var warnings []string

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: userAgent}); err != nil {
		warnings = append(warnings, "failed to set user agent: "+err.Error())
	}

	viewport := options.Viewport()
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewport.Width,
		Height:            viewport.Height,
		DeviceScaleFactor: 1,
		Mobile:            false,
	}); err != nil {
		warnings = append(warnings, "failed to set viewport: "+err.Error())
	}

	router := installHijack(page, blockedResourceTypes)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	bound := page.Context(ctx)

	timeout := time.Until(deadlineOr(ctx, 30*time.Second))
	if navErr := bound.Timeout(timeout).Navigate(target.URL().String()); navErr != nil {
		return nil, finalURL, nil, nil, &FetchError{
			Message:   navErr.Error(),
			Retryable: true,
			Cause:     classifyRenderError(navErr),
		}
	}

	f.waitForContentReady(bound, options)

	if info, infoErr := page.Info(); infoErr == nil && info != nil {
		if parsed, parseErr := url.Parse(info.URL); parseErr == nil {
			finalURL = *parsed
		}
	}

	var screenshots []string
	if options.Screenshots() && f.screenshotSink != nil {
		if shot, shotErr := page.Screenshot(true, nil); shotErr == nil {
			if path, saveErr := f.screenshotSink.Save(ctx, target.ID(), shot); saveErr == nil {
				screenshots = append(screenshots, path)
			} else {
				warnings = append(warnings, "screenshot save failed: "+saveErr.Error())
			}
		} else {
			warnings = append(warnings, "screenshot capture failed: "+shotErr.Error())
		}
	}

	rawHTML, htmlErr := bound.HTML()
	if htmlErr != nil {
		return nil, finalURL, nil, warnings, &FetchError{
			Message:   htmlErr.Error(),
			Retryable: true,
			Cause:     ErrCauseContentReadFailed,
		}
	}

	return []byte(rawHTML), finalURL, screenshots, warnings, nil
}

// waitForContentReady applies its readiness strategy in order: an optional bounded
// selector wait, the caller's settle time, then a best-effort second
// stability wait. Every step is best-effort - a slow or absent selector
// never fails the fetch, since the page may render useful content without it.
func (f *DynamicFetcher) waitForContentReady(page *rod.Page, options model.ScrapingOptions) {
	if selector := options.WaitForSelector(); selector != "" {
		el, err := page.Timeout(selectorWaitTimeout * time.Millisecond).Element(selector)
		if err == nil {
			_ = el.WaitVisible()
		}
	}

	if waitMs := options.WaitTimeMs(); waitMs > 0 {
		time.Sleep(time.Duration(waitMs) * time.Millisecond)
	}

	_ = page.Timeout(secondIdleWaitTimeout * time.Millisecond).WaitDOMStable(300*time.Millisecond, 0.1)
}

func classifyRenderError(err error) FetchErrorCause {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrCauseTimeout
	}
	return ErrCauseNavigationFailed
}

func deadlineOr(ctx context.Context, fallback time.Duration) time.Time {
	if deadline, ok := ctx.Deadline(); ok {
		return deadline
	}
	return time.Now().Add(fallback)
}

// Cleanup releases the browser pool backing this fetcher. It satisfies
// requestmanager's optional dynamic-fetcher cleanup hook.
func (f *DynamicFetcher) Cleanup() error {
	return f.pool.Cleanup()
}

func (f *DynamicFetcher) recordFetchError(finalURL url.URL, err *FetchError) {
	f.metadataSink.RecordError(
		time.Now(),
		"dynamicfetcher",
		"DynamicFetcher.Fetch",
		mapFetchErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{metadata.NewAttr(metadata.AttrURL, finalURL.String())},
	)
}

func (f *DynamicFetcher) failureResult(target url.URL, err *FetchError, duration time.Duration) model.ProcessingResult {
	return model.NewProcessingResult(target.String()).
		WithSuccess(false).
		WithError(err.toScrapingError(target.String())).
		WithProcessingTime(duration)
}

// sanitizeBody mirrors internal/fetcher's pre-extraction cleanup pass so
// both backends feed the extraction cascade the same kind of cleaned DOM.
// Failures here never fail the fetch; extraction falls back to the raw
// rendered HTML.
func (f *DynamicFetcher) sanitizeBody(rawHTML []byte) ([]byte, string) {
	doc, err := xhtml.Parse(bytes.NewReader(rawHTML))
	if err != nil {
		return rawHTML, "sanitize: failed to parse rendered HTML for cleanup, using raw body"
	}

	sanitized, sanitizeErr := f.sanitizer.Sanitize(doc)
	if sanitizeErr != nil {
		return rawHTML, "sanitize: " + sanitizeErr.Error() + ", using raw body"
	}

	var buf bytes.Buffer
	if err := xhtml.Render(&buf, sanitized.ContentNode()); err != nil {
		return rawHTML, "sanitize: failed to re-render cleaned HTML, using raw body"
	}
	return buf.Bytes(), ""
}
