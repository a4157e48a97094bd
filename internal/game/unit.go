package game

import (
	"articlegen/internal/config"
	"articlegen/internal/num"
)

// Unit is a production entity: geometric purchase cost, linear output.
type Unit struct {
	ID          int
	Prefix      string
	Name        string
	Description string
	BaseCost    num.Number
	BaseOutput  num.Number
	Owned       int

	maxBulk int
}

func newUnit(spec config.UnitSpec, maxBulk int) *Unit {
	return &Unit{
		ID:          spec.ID,
		Prefix:      spec.Prefix,
		Name:        spec.Name,
		Description: spec.Description,
		BaseCost:    num.FromFloat(spec.BaseCost),
		BaseOutput:  num.FromFloat(spec.BaseOutput),
		maxBulk:     maxBulk,
	}
}

// UnitCost is the price of the unit at position index (0-based):
// floor(baseCost * m^index). Every other cost is built from it.
func (u *Unit) UnitCost(index int, m num.Number) num.Number {
	return u.BaseCost.Mul(m.Pow(index)).Floor()
}

// CostOf sums the individual prices of howMany units starting after owned.
func (u *Unit) CostOf(owned, howMany int, m num.Number) num.Number {
	total := num.Zero
	for k := 0; k < howMany; k++ {
		total = total.Add(u.UnitCost(owned+k, m))
	}
	return total
}

// MaxAffordable walks the price series until the balance runs out, stopping at
// the bulk cap.
func (u *Unit) MaxAffordable(balance num.Number, m num.Number) int {
	total := num.Zero
	k := 0
	for k < u.maxBulk {
		next := total.Add(u.UnitCost(u.Owned+k, m))
		if next.GT(balance) {
			break
		}
		total = next
		k++
	}
	return k
}

// Purchase buys the requested count or nothing at all. It returns the number
// bought and what they cost; the caller deducts the cost.
func (u *Unit) Purchase(balance num.Number, mode PurchaseMode, m num.Number) (int, num.Number) {
	count := int(mode)
	if mode == BuyMax {
		count = u.MaxAffordable(balance, m)
	}
	if count <= 0 {
		return 0, num.Zero
	}
	cost := u.CostOf(u.Owned, count, m)
	if balance.LT(cost) {
		return 0, num.Zero
	}
	u.Owned += count
	return count, cost
}

func (u *Unit) YieldPerSecond(multiplier num.Number) num.Number {
	if u.Owned == 0 {
		return num.Zero
	}
	return u.BaseOutput.MulInt(int64(u.Owned)).Mul(multiplier)
}
