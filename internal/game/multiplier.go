package game

import (
	"fmt"

	"articlegen/internal/config"
	"articlegen/internal/num"
)

// Multiplier is a one-shot boost to one unit's output, unlocked by owning
// RequiredOwned of that unit.
type Multiplier struct {
	ID            string
	UnitID        int
	Tier          int
	Name          string
	RequiredOwned int
	Factor        num.Number
	CostFactor    num.Number
	Unlocked      bool
	Purchased     bool
}

func multiplierID(prefix string, requiredOwned int) string {
	return fmt.Sprintf("%s_%d", prefix, requiredOwned)
}

func newMultipliers(spec config.UnitSpec, tiers []config.MultiplierTier) []*Multiplier {
	out := make([]*Multiplier, 0, len(spec.Multipliers))
	for i, name := range spec.Multipliers {
		tier := tiers[i]
		out = append(out, &Multiplier{
			ID:            multiplierID(spec.Prefix, tier.RequiredOwned),
			UnitID:        spec.ID,
			Tier:          i,
			Name:          name,
			RequiredOwned: tier.RequiredOwned,
			Factor:        num.FromFloat(tier.Factor),
			CostFactor:    num.FromFloat(tier.CostFactor),
		})
	}
	return out
}

func (m *Multiplier) Cost(u *Unit) num.Number {
	return u.BaseCost.Mul(m.CostFactor)
}

// Refresh unlocks the multiplier once owned reaches the threshold. It reports
// whether this call did the unlocking.
func (m *Multiplier) Refresh(owned int) bool {
	if m.Unlocked || owned < m.RequiredOwned {
		return false
	}
	m.Unlocked = true
	return true
}

// TryPurchase marks the multiplier purchased when it is unlocked, not yet
// bought and affordable. The caller deducts the returned cost.
func (m *Multiplier) TryPurchase(balance num.Number, u *Unit) (bool, num.Number) {
	if m.Purchased || !m.Unlocked {
		return false, num.Zero
	}
	cost := m.Cost(u)
	if balance.LT(cost) {
		return false, num.Zero
	}
	m.Purchased = true
	return true, cost
}

func (m *Multiplier) reset() {
	m.Unlocked = false
	m.Purchased = false
}
