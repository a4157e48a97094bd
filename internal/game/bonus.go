package game

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"articlegen/internal/clock"
	"articlegen/internal/config"
	"articlegen/internal/num"
)

type BonusPhase string

const (
	BonusDormant BonusPhase = "dormant"
	BonusVisible BonusPhase = "visible"
	BonusBoosted BonusPhase = "boosted"
)

// BonusScheduler spawns a clickable bonus at random intervals. Claiming it
// boosts all production for a fixed window. Only one cycle runs at a time.
type BonusScheduler struct {
	sched  *clock.Scheduler
	rng    *rand.Rand
	sink   EventSink
	logger *slog.Logger

	minDelay time.Duration
	maxDelay time.Duration
	window   time.Duration
	boostFor time.Duration
	factor   num.Number

	phase        BonusPhase
	spawn        *clock.Timer
	expire       *clock.Timer
	boostEnd     *clock.Timer
	nextSpawnAt  time.Time
	visibleUntil time.Time
	boostEndsAt  time.Time
	claimed      int
}

func NewBonusScheduler(sched *clock.Scheduler, rules config.BonusRules, rng *rand.Rand, sink EventSink, logger *slog.Logger) *BonusScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	b := &BonusScheduler{
		sched:    sched,
		rng:      rng,
		sink:     sinkOrNop(sink),
		logger:   logger,
		minDelay: seconds(rules.MinIntervalSeconds),
		maxDelay: seconds(rules.MaxIntervalSeconds),
		window:   seconds(rules.VisibleSeconds),
		boostFor: seconds(rules.BoostSeconds),
		factor:   num.FromFloat(rules.BoostMultiplier),
		phase:    BonusDormant,
	}
	b.scheduleSpawn()
	return b
}

func (b *BonusScheduler) Phase() BonusPhase  { return b.phase }
func (b *BonusScheduler) Visible() bool      { return b.phase == BonusVisible }
func (b *BonusScheduler) Boosted() bool      { return b.phase == BonusBoosted }
func (b *BonusScheduler) Factor() num.Number { return b.factor }
func (b *BonusScheduler) Claimed() int       { return b.claimed }

func (b *BonusScheduler) YieldMultiplier() num.Number {
	if b.phase == BonusBoosted {
		return b.factor
	}
	return num.One
}

// BoostRemainingSeconds rounds up so a running boost never shows 0.
func (b *BonusScheduler) BoostRemainingSeconds() int {
	if b.phase != BonusBoosted {
		return 0
	}
	return ceilSeconds(b.boostEndsAt.Sub(b.sched.Now()))
}

func (b *BonusScheduler) VisibleRemainingSeconds() int {
	if b.phase != BonusVisible {
		return 0
	}
	return ceilSeconds(b.visibleUntil.Sub(b.sched.Now()))
}

func (b *BonusScheduler) SecondsUntilSpawn() int {
	if !b.spawn.Active() {
		return 0
	}
	return ceilSeconds(b.nextSpawnAt.Sub(b.sched.Now()))
}

// Claim turns a visible bonus into a boost. It reports false when nothing is
// visible.
func (b *BonusScheduler) Claim() bool {
	if b.phase != BonusVisible {
		return false
	}
	b.expire.Stop()
	b.phase = BonusBoosted
	b.claimed++
	b.boostEndsAt = b.sched.Now().Add(b.boostFor)
	b.boostEnd = b.sched.AfterFunc(b.boostFor, b.onBoostEnd)
	b.sink.Emit(Event{Kind: EventBonusClaimed, Amount: b.factor, Seconds: b.boostFor.Seconds()})
	b.logger.Info("bonus claimed", "multiplier", b.factor.String(), "seconds", b.boostFor.Seconds())
	return true
}

func (b *BonusScheduler) Reset() {
	b.spawn.Stop()
	b.expire.Stop()
	b.boostEnd.Stop()
	b.phase = BonusDormant
	b.visibleUntil = time.Time{}
	b.boostEndsAt = time.Time{}
	b.scheduleSpawn()
}

func (b *BonusScheduler) scheduleSpawn() {
	delay := b.minDelay
	if span := b.maxDelay - b.minDelay; span > 0 {
		delay += time.Duration(b.rng.Int64N(int64(span) + 1))
	}
	b.spawn.Stop()
	b.nextSpawnAt = b.sched.Now().Add(delay)
	b.spawn = b.sched.AfterFunc(delay, b.onSpawn)
}

func (b *BonusScheduler) onSpawn() {
	b.phase = BonusVisible
	b.visibleUntil = b.sched.Now().Add(b.window)
	b.expire = b.sched.AfterFunc(b.window, b.onExpire)
	b.sink.Emit(Event{Kind: EventBonusSpawned, Seconds: b.window.Seconds()})
	b.logger.Debug("bonus spawned", "visible_seconds", b.window.Seconds())
}

func (b *BonusScheduler) onExpire() {
	b.phase = BonusDormant
	b.visibleUntil = time.Time{}
	b.sink.Emit(Event{Kind: EventBonusExpired})
	b.scheduleSpawn()
}

func (b *BonusScheduler) onBoostEnd() {
	b.phase = BonusDormant
	b.boostEndsAt = time.Time{}
	b.sink.Emit(Event{Kind: EventBoostEnded})
	b.scheduleSpawn()
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
