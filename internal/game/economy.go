package game

import (
	"fmt"

	"articlegen/internal/config"
	"articlegen/internal/num"
)

// Rules supplies the global knobs the economy threads into its formulas.
type Rules interface {
	CostMultiplier() num.Number
	ClickMultiplier() num.Number
}

// YieldModifier scales total production. All modifiers multiply together.
type YieldModifier interface {
	YieldMultiplier() num.Number
}

type nominalRules struct {
	cost num.Number
}

func (r nominalRules) CostMultiplier() num.Number  { return r.cost }
func (r nominalRules) ClickMultiplier() num.Number { return num.One }

type Economy struct {
	balance         num.Number
	balanceThisRun  num.Number
	lifetimeBalance num.Number
	clickCount      int64
	playTimeSeconds float64

	units       []*Unit
	multipliers []*Multiplier
	byUnit      [][]*Multiplier
	byID        map[string]*Multiplier

	rules     Rules
	modifiers []YieldModifier
	sink      EventSink
	offline   config.OfflineRules
	maxBulk   int
}

func NewEconomy(b config.Balance, rules Rules, sink EventSink, modifiers ...YieldModifier) *Economy {
	if rules == nil {
		rules = nominalRules{cost: num.FromFloat(b.Economy.CostMultiplier)}
	}
	e := &Economy{
		units:     make([]*Unit, 0, len(b.Units)),
		byUnit:    make([][]*Multiplier, 0, len(b.Units)),
		byID:      make(map[string]*Multiplier),
		rules:     rules,
		modifiers: modifiers,
		sink:      sinkOrNop(sink),
		offline:   b.Offline,
		maxBulk:   b.Economy.MaxBulkPurchase,
	}
	for _, spec := range b.Units {
		e.units = append(e.units, newUnit(spec, b.Economy.MaxBulkPurchase))
		ms := newMultipliers(spec, b.MultiplierTiers)
		e.byUnit = append(e.byUnit, ms)
		for _, m := range ms {
			e.multipliers = append(e.multipliers, m)
			e.byID[m.ID] = m
		}
	}
	return e
}

func (e *Economy) Balance() num.Number         { return e.balance }
func (e *Economy) BalanceThisRun() num.Number  { return e.balanceThisRun }
func (e *Economy) LifetimeBalance() num.Number { return e.lifetimeBalance }
func (e *Economy) ClickCount() int64           { return e.clickCount }
func (e *Economy) PlayTimeSeconds() float64    { return e.playTimeSeconds }

func (e *Economy) Unit(id int) (*Unit, error) {
	if id < 0 || id >= len(e.units) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUnit, id)
	}
	return e.units[id], nil
}

func (e *Economy) Multiplier(id string) (*Multiplier, error) {
	m, ok := e.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMultiplier, id)
	}
	return m, nil
}

func (e *Economy) Units() []*Unit             { return e.units }
func (e *Economy) Multipliers() []*Multiplier { return e.multipliers }

func (e *Economy) CostMultiplier() num.Number {
	return e.rules.CostMultiplier()
}

func (e *Economy) AppliedMultiplier(unitID int) num.Number {
	out := num.One
	if unitID < 0 || unitID >= len(e.byUnit) {
		return out
	}
	for _, m := range e.byUnit[unitID] {
		if m.Purchased {
			out = out.Mul(m.Factor)
		}
	}
	return out
}

func (e *Economy) GlobalMultiplier() num.Number {
	out := num.One
	for _, m := range e.modifiers {
		out = out.Mul(m.YieldMultiplier())
	}
	return out
}

func (e *Economy) UnitYield(u *Unit) num.Number {
	return u.YieldPerSecond(e.AppliedMultiplier(u.ID).Mul(e.GlobalMultiplier()))
}

func (e *Economy) TotalYield() num.Number {
	total := num.Zero
	for _, u := range e.units {
		total = total.Add(u.YieldPerSecond(e.AppliedMultiplier(u.ID)))
	}
	return total.Mul(e.GlobalMultiplier())
}

// ClickPower never drops below one article per click.
func (e *Economy) ClickPower() num.Number {
	if len(e.units) == 0 {
		return num.One.Mul(e.rules.ClickMultiplier())
	}
	owned := e.units[0].Owned
	if owned < 1 {
		owned = 1
	}
	return num.FromInt(int64(owned)).Mul(e.AppliedMultiplier(0)).Mul(e.rules.ClickMultiplier())
}

func (e *Economy) Advance(dt float64) {
	if dt <= 0 {
		return
	}
	e.credit(e.TotalYield().MulFloat(dt))
	e.playTimeSeconds += dt
}

func (e *Economy) Click() num.Number {
	power := e.ClickPower()
	e.credit(power)
	e.clickCount++
	return power
}

func (e *Economy) Quote(id int, mode PurchaseMode) (int, num.Number, error) {
	u, err := e.Unit(id)
	if err != nil {
		return 0, num.Zero, err
	}
	if !mode.valid(e.maxBulk) {
		return 0, num.Zero, fmt.Errorf("%w: %s", ErrInvalidPurchaseMode, mode)
	}
	m := e.CostMultiplier()
	count := int(mode)
	if mode == BuyMax {
		count = u.MaxAffordable(e.balance, m)
		if count == 0 {
			return 0, u.UnitCost(u.Owned, m), nil
		}
	}
	return count, u.CostOf(u.Owned, count, m), nil
}

// PurchaseUnit buys the full request or nothing. Insufficient funds is a zero
// count, not an error.
func (e *Economy) PurchaseUnit(id int, mode PurchaseMode) (int, num.Number, error) {
	u, err := e.Unit(id)
	if err != nil {
		return 0, num.Zero, err
	}
	if !mode.valid(e.maxBulk) {
		return 0, num.Zero, fmt.Errorf("%w: %s", ErrInvalidPurchaseMode, mode)
	}
	bought, spent := u.Purchase(e.balance, mode, e.CostMultiplier())
	if bought == 0 {
		return 0, num.Zero, nil
	}
	e.balance = e.balance.Sub(spent).ClampZero()
	e.sink.Emit(Event{Kind: EventUnitPurchased, UnitID: u.ID, Count: bought, Amount: spent})
	for _, m := range e.byUnit[u.ID] {
		if m.Refresh(u.Owned) {
			e.sink.Emit(Event{Kind: EventMultiplierUnlocked, ID: m.ID, UnitID: u.ID})
		}
	}
	return bought, spent, nil
}

func (e *Economy) PurchaseMultiplier(id string) (bool, error) {
	m, err := e.Multiplier(id)
	if err != nil {
		return false, err
	}
	u := e.units[m.UnitID]
	ok, cost := m.TryPurchase(e.balance, u)
	if !ok {
		return false, nil
	}
	e.balance = e.balance.Sub(cost).ClampZero()
	e.sink.Emit(Event{Kind: EventMultiplierPurchased, ID: m.ID, UnitID: u.ID, Amount: cost})
	return true, nil
}

// ApplyOfflineElapsed credits production for time spent away. Absences under
// the minimum are ignored; longer ones are clamped to the window and scaled by
// the efficiency. It returns the amount credited and the seconds counted.
func (e *Economy) ApplyOfflineElapsed(elapsed float64, fullEfficiency bool) (num.Number, float64) {
	if elapsed < e.offline.MinSeconds {
		return num.Zero, 0
	}
	window, efficiency := e.offline.MaxSeconds, e.offline.Efficiency
	if fullEfficiency {
		window, efficiency = e.offline.ExtendedMaxSeconds, e.offline.FullEfficiency
	}
	if elapsed > window {
		elapsed = window
	}
	earned := e.TotalYield().MulFloat(elapsed).MulFloat(efficiency).ClampZero()
	e.credit(earned)
	e.sink.Emit(Event{Kind: EventOfflineCredited, Amount: earned, Seconds: elapsed})
	return earned, elapsed
}

// ResetForPrestige clears the run. Lifetime balance and play time survive.
func (e *Economy) ResetForPrestige() {
	e.balance = num.Zero
	e.balanceThisRun = num.Zero
	e.clickCount = 0
	for _, u := range e.units {
		u.Owned = 0
	}
	for _, m := range e.multipliers {
		m.reset()
	}
}

func (e *Economy) credit(amount num.Number) {
	amount = amount.ClampZero()
	if amount.IsZero() {
		return
	}
	e.balance = e.balance.Add(amount)
	e.balanceThisRun = e.balanceThisRun.Add(amount)
	e.lifetimeBalance = e.lifetimeBalance.Add(amount)
}

func (e *Economy) resetAll() {
	e.ResetForPrestige()
	e.lifetimeBalance = num.Zero
	e.playTimeSeconds = 0
}
