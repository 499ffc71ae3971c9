package browserpool

import (
	"time"

	"github.com/go-rod/rod"
)

// Pool parameters.
const (
	maxBrowsers        = 3
	maxPagesPerBrowser = 5
	sessionTimeout     = 30 * time.Minute
	pageTimeout        = 30 * time.Second
	maxRequestsPerSession = 50
	idleSweepInterval  = 5 * time.Minute
)

// session wraps one launched browser with the bookkeeping the acquisition
// algorithm needs: how many requests it has served, when it was last picked,
// and the pages it currently owns.
type session struct {
	id           string
	browser      *rod.Browser
	createdAt    time.Time
	lastUsed     time.Time
	requestCount int
	pages        []*pageHandle
}

func (s *session) reusable(now time.Time) bool {
	return s.requestCount < maxRequestsPerSession && now.Sub(s.lastUsed) < sessionTimeout
}

// ID identifies the session for logging; callers outside this package only
// ever hold a session as the opaque handle Acquire/Release pass around.
func (s *session) ID() string { return s.id }

// pageHandle wraps one rod.Page with the busy flag the page acquisition
// step mutates; pages are never shared concurrently.
type pageHandle struct {
	id       string
	page     *rod.Page
	busy     bool
	lastUsed time.Time
}

// Page exposes the underlying rod.Page so callers (the dynamic fetcher) can
// drive navigation directly; the pool itself never inspects page content.
func (p *pageHandle) Page() *rod.Page { return p.page }

// PageTimeout reports the pool's per-page timeout constant. The dynamic
// fetcher does not read it; its deadline comes from the request options.
func PageTimeout() time.Duration { return pageTimeout }

// Stats is the pool's getBrowserStats() surface.
type Stats struct {
	ActiveSessions int
	TotalSessions  int64
}
