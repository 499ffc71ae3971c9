package requestmanager

import (
	"sync"
	"time"

	"github.com/rohmanhakim/docs-crawler/internal/model"
)

// queueItem is one in-flight addRequest call waiting for its host's turn.
type queueItem struct {
	target        model.ScrapingTarget
	options       model.ScrapingOptions
	enqueuedAt    time.Time
	deferredUntil time.Time
	attempt       int
	crawlDelay    time.Duration
	resultCh      chan model.ProcessingResult
}

// hostQueue holds every pending request for one host, ordered by priority
// (descending) then enqueue time (ascending) among dispatchable slots
// (deferredUntil <= now).
// dispatcherRunning is only ever read or written while the owning Manager
// holds its own mutex, never q.mu - it's manager-registration state, not
// queue content.
type hostQueue struct {
	mu                sync.Mutex
	items             []*queueItem
	wake              chan struct{}
	dispatcherRunning bool
}

func newHostQueue() *hostQueue {
	return &hostQueue{wake: make(chan struct{}, 1)}
}

func (q *hostQueue) push(item *queueItem) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
	q.signal()
}

func (q *hostQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *hostQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// popDispatchable removes and returns the best dispatchable item. If none
// are dispatchable yet (every item is still deferred), it returns ok=false
// and the duration until the earliest deferredUntil among the remaining
// items, so the caller knows how long it may sleep before checking again.
func (q *hostQueue) popDispatchable() (item *queueItem, wait time.Duration, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, 0, false
	}

	now := time.Now()
	bestIdx := -1
	var earliestWait time.Duration

	for i, it := range q.items {
		if !it.deferredUntil.After(now) {
			if bestIdx == -1 || betterCandidate(it, q.items[bestIdx]) {
				bestIdx = i
			}
			continue
		}
		if until := it.deferredUntil.Sub(now); earliestWait == 0 || until < earliestWait {
			earliestWait = until
		}
	}

	if bestIdx == -1 {
		if earliestWait <= 0 {
			earliestWait = 10 * time.Millisecond
		}
		return nil, earliestWait, false
	}

	item = q.items[bestIdx]
	q.items = append(q.items[:bestIdx], q.items[bestIdx+1:]...)
	return item, 0, true
}

// betterCandidate reports whether a should dispatch ahead of b: higher
// priority first, earlier enqueue time breaks ties.
func betterCandidate(a, b *queueItem) bool {
	if a.target.Priority() != b.target.Priority() {
		return a.target.Priority() > b.target.Priority()
	}
	return a.enqueuedAt.Before(b.enqueuedAt)
}
