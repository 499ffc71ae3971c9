package timeutil

import "time"

// Sleeper abstracts time.Sleep so callers can inject a fake in tests instead
// of actually blocking for the full duration.
type Sleeper interface {
	Sleep(d time.Duration)
}

// RealSleeper sleeps for the full requested duration.
type RealSleeper struct{}

func NewRealSleeper() RealSleeper {
	return RealSleeper{}
}

func (RealSleeper) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	time.Sleep(d)
}
