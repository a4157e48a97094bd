package game

import (
	"log/slog"
	"time"

	"articlegen/internal/clock"
	"articlegen/internal/config"
	"articlegen/internal/num"
)

type IdlePhase string

const (
	IdleActive    IdlePhase = "active"
	IdleWinding   IdlePhase = "winding"
	IdleCompleted IdlePhase = "completed"
)

type Granter interface {
	Grant(num.Number)
}

// IdleTimer rewards sustained inactivity. A single repeating check advances it
// once per interval of visible logical time.
type IdleTimer struct {
	sched   *clock.Scheduler
	granter Granter
	sink    EventSink
	logger  *slog.Logger

	grace    float64
	complete float64
	every    time.Duration
	reward   num.Number

	visible         bool
	phase           IdlePhase
	idleSeconds     float64
	progressSeconds float64
	completedCount  int
	check           *clock.Timer
}

func NewIdleTimer(sched *clock.Scheduler, rules config.IdleRules, granter Granter, sink EventSink, logger *slog.Logger) *IdleTimer {
	if logger == nil {
		logger = slog.Default()
	}
	t := &IdleTimer{
		sched:    sched,
		granter:  granter,
		sink:     sinkOrNop(sink),
		logger:   logger,
		grace:    rules.GraceSeconds,
		complete: rules.CompleteSeconds,
		every:    seconds(rules.CheckEverySeconds),
		reward:   num.FromInt(rules.Reward),
		visible:  true,
		phase:    IdleActive,
	}
	t.schedule()
	return t
}

func (t *IdleTimer) Phase() IdlePhase         { return t.phase }
func (t *IdleTimer) ProgressSeconds() float64 { return t.progressSeconds }
func (t *IdleTimer) CompleteSeconds() float64 { return t.complete }
func (t *IdleTimer) CompletedCount() int      { return t.completedCount }
func (t *IdleTimer) IdleSeconds() float64     { return t.idleSeconds }
func (t *IdleTimer) Visible() bool            { return t.visible }

func (t *IdleTimer) Progress() float64 {
	if t.complete <= 0 {
		return 0
	}
	p := t.progressSeconds / t.complete
	if p > 1 {
		return 1
	}
	return p
}

// SetVisible freezes or resumes accrual. Accumulated progress is kept.
func (t *IdleTimer) SetVisible(visible bool) {
	t.visible = visible
}

// OnUserAction restarts the grace window. Checks already due have fired by
// the time an action arrives, so a completed cycle has been granted before
// this can cancel anything.
func (t *IdleTimer) OnUserAction() {
	if t.phase == IdleWinding {
		t.sink.Emit(Event{Kind: EventIdleInterrupted, Seconds: t.progressSeconds})
		t.logger.Debug("idle cycle interrupted", "progress_seconds", t.progressSeconds)
	}
	t.phase = IdleActive
	t.idleSeconds = 0
	t.progressSeconds = 0
	t.schedule()
}

// Reset cancels the pending check and starts over from a clean state.
func (t *IdleTimer) Reset() {
	t.phase = IdleActive
	t.idleSeconds = 0
	t.progressSeconds = 0
	t.completedCount = 0
	t.schedule()
}

// restore resumes saved progress. Any progress means the gauge was winding.
func (t *IdleTimer) restore(completed int, progress float64) {
	t.Reset()
	if completed > 0 {
		t.completedCount = completed
	}
	if progress > 0 {
		t.phase = IdleWinding
		t.idleSeconds = t.grace + progress
		t.progressSeconds = progress
	}
}

func (t *IdleTimer) schedule() {
	t.check.Stop()
	t.check = t.sched.AfterFunc(t.every, t.tick)
}

func (t *IdleTimer) tick() {
	t.check = t.sched.AfterFunc(t.every, t.tick)
	if !t.visible {
		return
	}
	step := t.every.Seconds()
	t.idleSeconds += step

	switch t.phase {
	case IdleCompleted:
		t.phase = IdleActive
	case IdleActive:
		if t.idleSeconds >= t.grace {
			t.phase = IdleWinding
			t.progressSeconds = 0
			t.sink.Emit(Event{Kind: EventIdleWinding})
		}
	case IdleWinding:
		t.progressSeconds += step
		if t.progressSeconds >= t.complete {
			t.completeCycle()
		}
	}
}

func (t *IdleTimer) completeCycle() {
	t.granter.Grant(t.reward)
	t.completedCount++
	t.phase = IdleCompleted
	t.progressSeconds = 0
	t.sink.Emit(Event{Kind: EventIdleCompleted, Amount: t.reward, Count: t.completedCount})
	t.logger.Info("idle cycle completed", "completed_count", t.completedCount)
}
