package game

import (
	"testing"
	"time"

	"articlegen/internal/num"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdleGraceWindow(t *testing.T) {
	g, events, _ := newTestGame(t)

	g.Tick(29 * time.Second)
	assert.Equal(t, IdleActive, g.Snapshot().Idle.Phase)
	assert.InDelta(t, 29.0, g.Snapshot().Idle.IdleSeconds, 1e-9)

	g.Tick(time.Second)
	assert.Equal(t, IdleWinding, g.Snapshot().Idle.Phase)
	assert.Equal(t, 1, events.count(EventIdleWinding))
}

func TestIdleCompletionGrantsMetaCurrency(t *testing.T) {
	g, events, _ := newTestGame(t)

	g.Tick(30 * time.Second)
	g.Tick(3599 * time.Second)
	snap := g.Snapshot()
	require.Equal(t, IdleWinding, snap.Idle.Phase)
	assert.InDelta(t, 3599.0/3600.0, snap.Idle.Progress, 1e-9)
	assert.True(t, snap.Prestige.MetaCurrency.IsZero())

	g.Tick(time.Second)
	snap = g.Snapshot()
	assert.Equal(t, IdleCompleted, snap.Idle.Phase)
	assert.Equal(t, 1, snap.Idle.CompletedCount)
	assert.True(t, snap.Prestige.MetaCurrency.Equal(num.One))
	assert.Equal(t, 1, events.count(EventIdleCompleted))

	g.Tick(time.Second)
	assert.Equal(t, IdleActive, g.Snapshot().Idle.Phase)
	g.Tick(time.Second)
	assert.Equal(t, IdleWinding, g.Snapshot().Idle.Phase, "still idle, so winding resumes")
}

func TestIdleInterruption(t *testing.T) {
	g, events, _ := newTestGame(t)
	g.Tick(130 * time.Second)
	require.Equal(t, IdleWinding, g.Snapshot().Idle.Phase)
	require.Equal(t, 100.0, g.Snapshot().Idle.ProgressSeconds)

	g.NotifyUserAction()
	snap := g.Snapshot()
	assert.Equal(t, IdleActive, snap.Idle.Phase)
	assert.Zero(t, snap.Idle.ProgressSeconds)
	assert.Equal(t, 1, events.count(EventIdleInterrupted))

	g.Tick(29 * time.Second)
	assert.Equal(t, IdleActive, g.Snapshot().Idle.Phase, "grace restarts from the action")

	g.NotifyUserAction()
	assert.Equal(t, 1, events.count(EventIdleInterrupted), "actions while active are not interruptions")
}

func TestIdleFreezesWhileHidden(t *testing.T) {
	g, _, _ := newTestGame(t)
	g.Tick(40 * time.Second)
	require.Equal(t, 10.0, g.Snapshot().Idle.ProgressSeconds)

	g.SetVisible(false)
	g.Tick(2 * time.Hour)
	snap := g.Snapshot()
	assert.Equal(t, 10.0, snap.Idle.ProgressSeconds)
	assert.Equal(t, IdleWinding, snap.Idle.Phase)
	assert.Zero(t, snap.Idle.CompletedCount)

	g.SetVisible(true)
	g.Tick(5 * time.Second)
	assert.Equal(t, 15.0, g.Snapshot().Idle.ProgressSeconds)
}

func TestIdleCompletionBeatsSimultaneousAction(t *testing.T) {
	g, events, _ := newTestGame(t)
	g.Tick(3630 * time.Second)
	g.NotifyUserAction()

	snap := g.Snapshot()
	assert.True(t, snap.Prestige.MetaCurrency.Equal(num.One))
	assert.Equal(t, 1, snap.Idle.CompletedCount)
	assert.Zero(t, events.count(EventIdleInterrupted))
}

func TestIdleKeepsOneCheckPending(t *testing.T) {
	g, _, _ := newTestGame(t)
	for i := 0; i < 50; i++ {
		g.NotifyUserAction()
		g.Tick(300 * time.Millisecond)
	}
	assert.Equal(t, 2, g.sched.Pending(), "one idle check plus one bonus spawn")
	assert.True(t, g.idle.check.Active())
}

func TestIdleRestoreResumesWinding(t *testing.T) {
	g, _, _ := newTestGame(t)
	g.idle.restore(4, 3590)
	assert.Equal(t, IdleWinding, g.idle.Phase())

	g.Tick(10 * time.Second)
	snap := g.Snapshot()
	assert.Equal(t, 5, snap.Idle.CompletedCount)
	assert.True(t, snap.Prestige.MetaCurrency.Equal(num.One))
}
