package browserpool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/sync/errgroup"

	"github.com/rohmanhakim/docs-crawler/internal/metadata"
)

/*
Pool is the browser-pool half of the dynamic fetch path: a bounded set of
headless-browser sessions, each holding a bounded set of pages, reused
across dispatches rather than spawned per request.

Session acquisition:
 1. Reuse any session with requestCount < maxRequestsPerSession and
    now-lastUsed < sessionTimeout.
 2. Else, if under maxBrowsers, launch a new session.
 3. Else, evict the session with the smallest lastUsed and replace it.

All three steps are serialized under mu; the browser launch itself may run
outside the lock once a slot has been reserved, since launch is the slow
part and must not block other acquirers from picking a reusable session in
the meantime.
*/
type Pool struct {
	mu          sync.Mutex
	sessions    []*session
	userAgent   string
	headless    bool
	executablePath string
	metadataSink metadata.MetadataSink

	closed        atomic.Bool
	totalSessions atomic.Int64
	nextID        atomic.Int64

	stopSweep chan struct{}
	sweepDone chan struct{}
}

func NewPool(userAgent string, metadataSink metadata.MetadataSink) *Pool {
	return NewPoolWithExecutable(userAgent, "", metadataSink)
}

// NewPoolWithExecutable is NewPool with a caller-supplied browser binary
// path (the fetch.browserExecutablePath config key), for environments
// without a go-rod-downloadable Chromium. An empty path keeps go-rod's
// default auto-download/locate behavior.
func NewPoolWithExecutable(userAgent string, executablePath string, metadataSink metadata.MetadataSink) *Pool {
	p := &Pool{
		userAgent:      userAgent,
		headless:       true,
		executablePath: executablePath,
		metadataSink:   metadataSink,
		stopSweep:      make(chan struct{}),
		sweepDone:      make(chan struct{}),
	}
	go p.idleSweepLoop()
	return p
}

// Acquire reserves a session and a free page within it, launching or
// evicting as needed.
// The returned page must be released via Release.
func (p *Pool) Acquire(ctx context.Context) (*session, *pageHandle, error) {
	if p.closed.Load() {
		return nil, nil, &PoolError{Message: "pool is closed", Retryable: false, Cause: ErrCausePoolClosed}
	}

	sess, needsLaunch, evicted, err := p.reserveSessionSlot()
	if err != nil {
		return nil, nil, err
	}

	if evicted != nil {
		p.closeSessionBrowser(evicted)
	}

	if needsLaunch {
		browser, launchErr := p.launchBrowser(ctx)
		if launchErr != nil {
			p.removeSession(sess)
			return nil, nil, &PoolError{
				Message:   launchErr.Error(),
				Retryable: true,
				Cause:     ErrCauseLaunchFailed,
			}
		}
		sess.browser = browser
	}

	page, err := p.acquirePage(sess)
	if err != nil {
		return nil, nil, &PoolError{Message: err.Error(), Retryable: true, Cause: ErrCauseAcquireFailed}
	}

	p.recordPoolEvent("acquired", sess.id)

	return sess, page, nil
}

// recordPoolEvent reports through metadata.DispatchObserver when the
// configured sink implements it; not every MetadataSink does.
func (p *Pool) recordPoolEvent(event, sessionID string) {
	if p.metadataSink == nil {
		return
	}
	if observer, ok := p.metadataSink.(metadata.DispatchObserver); ok {
		observer.RecordPoolEvent(event, sessionID, nil)
	}
}

// reserveSessionSlot performs the acquisition algorithm's steps 1-3 under the lock, but does not
// launch the browser itself; it returns whether the caller must do so
// and, on eviction, the evicted session so its browser can be closed
// outside the lock.
func (p *Pool) reserveSessionSlot() (sess *session, needsLaunch bool, evicted *session, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()

	for _, s := range p.sessions {
		if s.reusable(now) {
			s.lastUsed = now
			s.requestCount++
			return s, false, nil, nil
		}
	}

	if len(p.sessions) < maxBrowsers {
		sess = p.newSessionLocked(now)
		p.sessions = append(p.sessions, sess)
		return sess, true, nil, nil
	}

	oldestIdx := 0
	for i, s := range p.sessions {
		if s.lastUsed.Before(p.sessions[oldestIdx].lastUsed) {
			oldestIdx = i
		}
	}
	evicted = p.sessions[oldestIdx]
	sess = p.newSessionLocked(now)
	p.sessions[oldestIdx] = sess
	return sess, true, evicted, nil
}

func (p *Pool) newSessionLocked(now time.Time) *session {
	id := p.nextID.Add(1)
	p.totalSessions.Add(1)
	return &session{
		id:           fmt.Sprintf("session-%d", id),
		createdAt:    now,
		lastUsed:     now,
		requestCount: 1,
	}
}

// acquirePage implements the page-acquisition step: reuse a free page,
// else create up to maxPagesPerBrowser, else evict the oldest by lastUsed.
func (p *Pool) acquirePage(sess *session) (*pageHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, pg := range sess.pages {
		if !pg.busy {
			pg.busy = true
			pg.lastUsed = time.Now()
			return pg, nil
		}
	}

	if len(sess.pages) < maxPagesPerBrowser {
		rodPage, err := sess.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
		if err != nil {
			return nil, fmt.Errorf("create page: %w", err)
		}
		pg := &pageHandle{
			id:       fmt.Sprintf("%s-page-%d", sess.id, len(sess.pages)+1),
			page:     rodPage,
			busy:     true,
			lastUsed: time.Now(),
		}
		sess.pages = append(sess.pages, pg)
		return pg, nil
	}

	oldestIdx := 0
	for i, pg := range sess.pages {
		if !pg.busy && pg.lastUsed.Before(sess.pages[oldestIdx].lastUsed) {
			oldestIdx = i
		}
	}
	evicted := sess.pages[oldestIdx]
	evicted.page.Close()
	rodPage, err := sess.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("recreate page: %w", err)
	}
	evicted.page = rodPage
	evicted.busy = true
	evicted.lastUsed = time.Now()
	return evicted, nil
}

// Release marks a page free. The session's requestCount was already charged
// at acquisition.
func (p *Pool) Release(sess *session, pg *pageHandle) {
	p.mu.Lock()
	pg.busy = false
	pg.lastUsed = time.Now()
	p.mu.Unlock()

	p.recordPoolEvent("released", sess.id)
}

func (p *Pool) launchBrowser(ctx context.Context) (*rod.Browser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	l := launcher.New().
		Headless(p.headless).
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-dev-shm-usage").
		Set("disable-gpu-sandbox").
		Set("disable-blink-features", "AutomationControlled").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("mute-audio")

	if p.executablePath != "" {
		l = l.Bin(p.executablePath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	return browser, nil
}

func (p *Pool) closeSessionBrowser(sess *session) {
	for _, pg := range sess.pages {
		pg.page.Close()
	}
	if sess.browser != nil {
		sess.browser.Close()
	}
	p.recordPoolEvent("recycled", sess.id)
}

func (p *Pool) removeSession(target *session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, s := range p.sessions {
		if s == target {
			p.sessions = append(p.sessions[:i], p.sessions[i+1:]...)
			return
		}
	}
}

// idleSweepLoop closes sessions/pages idle past sessionTimeout every
// idleSweepInterval. Resources marked busy are never closed.
func (p *Pool) idleSweepLoop() {
	defer close(p.sweepDone)
	ticker := time.NewTicker(idleSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopSweep:
			return
		case <-ticker.C:
			p.sweepIdle()
		}
	}
}

func (p *Pool) sweepIdle() {
	now := time.Now()

	p.mu.Lock()
	var toClose []*session
	kept := p.sessions[:0]
	for _, s := range p.sessions {
		if now.Sub(s.lastUsed) >= sessionTimeout && !sessionBusy(s) {
			toClose = append(toClose, s)
			continue
		}
		kept = append(kept, s)
	}
	p.sessions = kept
	p.mu.Unlock()

	for _, s := range toClose {
		p.closeSessionBrowser(s)
	}
}

func sessionBusy(s *session) bool {
	for _, pg := range s.pages {
		if pg.busy {
			return true
		}
	}
	return false
}

// Stats reports getBrowserStats().
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		ActiveSessions: len(p.sessions),
		TotalSessions:  p.totalSessions.Load(),
	}
}

// Cleanup marks the pool closed, stops the idle sweep and closes every
// session. Session browsers are closed in parallel, at most four at a time.
func (p *Pool) Cleanup() error {
	if p.closed.Swap(true) {
		return nil
	}
	close(p.stopSweep)
	<-p.sweepDone

	p.mu.Lock()
	sessions := p.sessions
	p.sessions = nil
	p.mu.Unlock()

	eg := new(errgroup.Group)
	eg.SetLimit(4)
	for _, s := range sessions {
		s := s
		eg.Go(func() error {
			p.closeSessionBrowser(s)
			return nil
		})
	}
	return eg.Wait()
}
