package game

import "time"

// Timer is a pending scheduled call.
type Timer interface {
	// Stop cancels the call. It reports false if the call already ran or was
	// stopped.
	Stop() bool
}

// Clock schedules delayed calls. The real clock runs f on its own goroutine.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock schedules with time.AfterFunc.
type SystemClock struct{}

// AfterFunc implements Clock.
func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// tasks tracks the timers owned by one attempt so they can be cancelled together.
type tasks struct {
	timers []Timer
}

func (t *tasks) add(tm Timer) {
	t.timers = append(t.timers, tm)
}

func (t *tasks) stopAll() {
	for _, tm := range t.timers {
		tm.Stop()
	}
	t.timers = nil
}
