package clock

import (
	"sync"
	"time"
)

// Clock abstracts wall time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

// Now returns the current time using the system clock.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Fake is a manually advanced Clock.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}
