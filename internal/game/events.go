package game

import (
	"time"

	"articlegen/internal/num"
)

type EventKind string

const (
	EventUnitPurchased       EventKind = "unit_purchased"
	EventMultiplierUnlocked  EventKind = "multiplier_unlocked"
	EventMultiplierPurchased EventKind = "multiplier_purchased"
	EventPrestige            EventKind = "prestige"
	EventModifierPurchased   EventKind = "modifier_purchased"
	EventIdleWinding         EventKind = "idle_winding"
	EventIdleInterrupted     EventKind = "idle_interrupted"
	EventIdleCompleted       EventKind = "idle_completed"
	EventBonusSpawned        EventKind = "bonus_spawned"
	EventBonusExpired        EventKind = "bonus_expired"
	EventBonusClaimed        EventKind = "bonus_claimed"
	EventBoostEnded          EventKind = "boost_ended"
	EventOfflineCredited     EventKind = "offline_credited"
	EventReset               EventKind = "reset"
)

// Event describes one state transition. Fields not relevant to the kind are
// left zero.
type Event struct {
	Kind    EventKind  `json:"kind"`
	At      time.Time  `json:"at"`
	Slot    string     `json:"slot,omitempty"`
	ID      string     `json:"id,omitempty"`
	UnitID  int        `json:"unit_id,omitempty"`
	Count   int        `json:"count,omitempty"`
	Amount  num.Number `json:"amount"`
	Seconds float64    `json:"seconds,omitempty"`
}

// EventSink receives events while the game lock is held. Implementations must
// not call back into the Game and should return quickly.
type EventSink interface {
	Emit(Event)
}

type NopSink struct{}

func (NopSink) Emit(Event) {}

type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

type stampingSink struct {
	now  func() time.Time
	next EventSink
}

func (s stampingSink) Emit(e Event) {
	if e.At.IsZero() {
		e.At = s.now()
	}
	s.next.Emit(e)
}

func sinkOrNop(s EventSink) EventSink {
	if s == nil {
		return NopSink{}
	}
	return s
}
