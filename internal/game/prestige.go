package game

import (
	"fmt"

	"articlegen/internal/config"
	"articlegen/internal/num"
)

type Run interface {
	BalanceThisRun() num.Number
	ResetForPrestige()
}

// Modifier is a permanent, meta-currency bought rule change.
type Modifier struct {
	ID          string
	Name        string
	Description string
	Cost        num.Number
	Effect      string
	Value       num.Number
	Owned       bool
}

// Ledger holds meta-progression that survives prestige resets.
type Ledger struct {
	metaCurrency  num.Number
	prestigeCount int
	catalog       []*Modifier
	byID          map[string]*Modifier

	threshold   num.Number
	base        num.Number
	defaultCost num.Number
	sink        EventSink
}

func NewLedger(b config.Balance, sink EventSink) *Ledger {
	l := &Ledger{
		byID:        make(map[string]*Modifier, len(b.Modifiers)),
		threshold:   num.FromFloat(b.Prestige.Threshold),
		base:        num.FromFloat(b.Prestige.Base),
		defaultCost: num.FromFloat(b.Economy.CostMultiplier),
		sink:        sinkOrNop(sink),
	}
	for _, spec := range b.Modifiers {
		m := &Modifier{
			ID:          spec.ID,
			Name:        spec.Name,
			Description: spec.Description,
			Cost:        num.FromFloat(spec.Cost),
			Effect:      spec.Effect,
			Value:       num.FromFloat(spec.Value),
		}
		l.catalog = append(l.catalog, m)
		l.byID[m.ID] = m
	}
	return l
}

func (l *Ledger) MetaCurrency() num.Number { return l.metaCurrency }
func (l *Ledger) PrestigeCount() int       { return l.prestigeCount }
func (l *Ledger) Threshold() num.Number    { return l.threshold }
func (l *Ledger) Modifiers() []*Modifier   { return l.catalog }

func (l *Ledger) Owns(id string) bool {
	m, ok := l.byID[id]
	return ok && m.Owned
}

func (l *Ledger) Eligible(run Run) bool {
	return run.BalanceThisRun().GTE(l.threshold)
}

// PreviewGain is floor(cbrt(balanceThisRun / base)), never negative.
func (l *Ledger) PreviewGain(run Run) num.Number {
	return run.BalanceThisRun().Div(l.base).Cbrt().Floor().ClampZero()
}

// Commit converts the run into meta-currency and resets it.
func (l *Ledger) Commit(run Run) (num.Number, error) {
	if !l.Eligible(run) {
		return num.Zero, ErrNotEligible
	}
	gain := l.PreviewGain(run)
	l.metaCurrency = l.metaCurrency.Add(gain)
	l.prestigeCount++
	run.ResetForPrestige()
	l.sink.Emit(Event{Kind: EventPrestige, Amount: gain, Count: l.prestigeCount})
	return gain, nil
}

// PurchaseModifier buys a permanent modifier once. Owning it already or being
// short on meta-currency reports false without spending anything.
func (l *Ledger) PurchaseModifier(id string) (bool, error) {
	m, ok := l.byID[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownModifier, id)
	}
	if m.Owned || l.metaCurrency.LT(m.Cost) {
		return false, nil
	}
	l.metaCurrency = l.metaCurrency.Sub(m.Cost).ClampZero()
	m.Owned = true
	l.sink.Emit(Event{Kind: EventModifierPurchased, ID: m.ID, Amount: m.Cost})
	return true, nil
}

func (l *Ledger) Grant(amount num.Number) {
	l.metaCurrency = l.metaCurrency.Add(amount.ClampZero())
}

func (l *Ledger) CostMultiplier() num.Number {
	out := l.defaultCost
	for _, m := range l.catalog {
		if m.Owned && m.Effect == config.EffectCostScaling && m.Value.LT(out) {
			out = m.Value
		}
	}
	return out
}

func (l *Ledger) ClickMultiplier() num.Number {
	return l.YieldMultiplier()
}

func (l *Ledger) YieldMultiplier() num.Number {
	out := num.One
	for _, m := range l.catalog {
		if m.Owned && m.Effect == config.EffectYieldMultiplier {
			out = out.Mul(m.Value)
		}
	}
	return out
}

func (l *Ledger) FullOfflineEfficiency() bool {
	for _, m := range l.catalog {
		if m.Owned && m.Effect == config.EffectOfflineEfficiency {
			return true
		}
	}
	return false
}

func (l *Ledger) reset() {
	l.metaCurrency = num.Zero
	l.prestigeCount = 0
	for _, m := range l.catalog {
		m.Owned = false
	}
}
