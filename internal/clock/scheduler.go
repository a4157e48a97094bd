package clock

import (
	"sort"
	"time"
)

// Scheduler runs callbacks at points in logical time. Time only moves when
// the owner calls Advance, so callbacks never run concurrently with the owner.
// It is not safe for concurrent use; the game serializes access.
type Scheduler struct {
	now    time.Time
	seq    uint64
	timers []*Timer
}

type Timer struct {
	s        *Scheduler
	deadline time.Time
	seq      uint64
	fn       func()
	done     bool
}

func NewScheduler(start time.Time) *Scheduler {
	return &Scheduler{now: start}
}

func (s *Scheduler) Now() time.Time {
	return s.now
}

func (s *Scheduler) AfterFunc(d time.Duration, fn func()) *Timer {
	if d < 0 {
		d = 0
	}
	s.seq++
	t := &Timer{s: s, deadline: s.now.Add(d), seq: s.seq, fn: fn}
	i := sort.Search(len(s.timers), func(i int) bool {
		return s.timers[i].deadline.After(t.deadline)
	})
	s.timers = append(s.timers, nil)
	copy(s.timers[i+1:], s.timers[i:])
	s.timers[i] = t
	return t
}

func (s *Scheduler) Pending() int {
	return len(s.timers)
}

func (s *Scheduler) NextDeadline() (time.Time, bool) {
	if len(s.timers) == 0 {
		return time.Time{}, false
	}
	return s.timers[0].deadline, true
}

// Advance moves logical time forward by d, firing due callbacks in deadline
// order. Callbacks observe Now() equal to their own deadline and may
// schedule further callbacks, which fire in the same call if they fall due.
func (s *Scheduler) Advance(d time.Duration) {
	if d < 0 {
		return
	}
	target := s.now.Add(d)
	for len(s.timers) > 0 && !s.timers[0].deadline.After(target) {
		t := s.timers[0]
		s.timers = s.timers[1:]
		t.done = true
		if t.deadline.After(s.now) {
			s.now = t.deadline
		}
		t.fn()
	}
	s.now = target
}

// Stop cancels the callback. It reports whether the call prevented it from
// firing.
func (t *Timer) Stop() bool {
	if t == nil || t.done {
		return false
	}
	t.done = true
	timers := t.s.timers
	for i, other := range timers {
		if other == t {
			t.s.timers = append(timers[:i], timers[i+1:]...)
			break
		}
	}
	return true
}

func (t *Timer) Deadline() time.Time {
	return t.deadline
}

func (t *Timer) Active() bool {
	return t != nil && !t.done
}
