package game

import (
	"math/rand/v2"
	"testing"
	"time"

	"articlegen/internal/clock"
	"articlegen/internal/config"
	"articlegen/internal/num"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBonus(t *testing.T, seed uint64) (*BonusScheduler, *clock.Scheduler, *eventLog) {
	t.Helper()
	sched := clock.NewScheduler(testStart)
	events := &eventLog{}
	b := NewBonusScheduler(sched, config.DefaultBalance().Bonus, rand.New(rand.NewPCG(seed, seed)), events, nil)
	return b, sched, events
}

func TestBonusSpawnDelayWithinRange(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		b, sched, _ := newTestBonus(t, seed)
		delay := b.nextSpawnAt.Sub(sched.Now())
		require.GreaterOrEqual(t, delay, 60*time.Second)
		require.LessOrEqual(t, delay, 180*time.Second)
		assert.Equal(t, 1, sched.Pending())
	}
}

func TestBonusExpiresUnclaimed(t *testing.T) {
	b, sched, events := newTestBonus(t, 7)
	sched.Advance(b.nextSpawnAt.Sub(sched.Now()))
	require.True(t, b.Visible())
	assert.Equal(t, 15, b.VisibleRemainingSeconds())
	assert.Equal(t, 0, b.SecondsUntilSpawn(), "no spawn pending while visible")

	sched.Advance(15 * time.Second)
	assert.Equal(t, BonusDormant, b.Phase())
	assert.False(t, b.Claim())
	assert.Equal(t, 1, events.count(EventBonusExpired))
	assert.Equal(t, 1, sched.Pending())
	assert.GreaterOrEqual(t, b.SecondsUntilSpawn(), 60)
}

func TestBonusClaimBoostsForFixedWindow(t *testing.T) {
	b, sched, events := newTestBonus(t, 9)
	assert.False(t, b.Claim(), "nothing visible yet")

	sched.Advance(b.nextSpawnAt.Sub(sched.Now()))
	sched.Advance(14 * time.Second)
	require.True(t, b.Claim())
	assert.True(t, b.YieldMultiplier().Equal(num.FromInt(108)))
	assert.Equal(t, 1, sched.Pending(), "only the boost end is pending")

	sched.Advance(29*time.Second + 999*time.Millisecond)
	assert.True(t, b.Boosted())
	assert.Equal(t, 1, b.BoostRemainingSeconds())

	sched.Advance(time.Millisecond)
	assert.False(t, b.Boosted())
	assert.True(t, b.YieldMultiplier().Equal(num.One))
	assert.Equal(t, 1, events.count(EventBoostEnded))
	assert.Equal(t, 1, sched.Pending())
	assert.Positive(t, b.SecondsUntilSpawn())
}

func TestBonusResetCancelsEverything(t *testing.T) {
	b, sched, _ := newTestBonus(t, 3)
	sched.Advance(b.nextSpawnAt.Sub(sched.Now()))
	require.True(t, b.Claim())

	b.Reset()
	b.Reset()
	assert.Equal(t, BonusDormant, b.Phase())
	assert.Equal(t, 1, sched.Pending())
	assert.Zero(t, b.BoostRemainingSeconds())
}
