package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed balance.yaml
var defaultBalance []byte

// Balance holds every tunable number of the game: unit catalog, multiplier
// tiers, permanent modifiers and the timing constants of the side systems.
type Balance struct {
	Version         string           `yaml:"version" json:"version"`
	Economy         EconomyRules     `yaml:"economy" json:"economy"`
	Prestige        PrestigeRules    `yaml:"prestige" json:"prestige"`
	Idle            IdleRules        `yaml:"idle" json:"idle"`
	Bonus           BonusRules       `yaml:"bonus" json:"bonus"`
	Offline         OfflineRules     `yaml:"offline" json:"offline"`
	MultiplierTiers []MultiplierTier `yaml:"multiplier_tiers" json:"multiplier_tiers"`
	Units           []UnitSpec       `yaml:"units" json:"units"`
	Modifiers       []ModifierSpec   `yaml:"modifiers" json:"modifiers"`
}

type EconomyRules struct {
	CostMultiplier  float64 `yaml:"cost_multiplier" json:"cost_multiplier"`
	MaxBulkPurchase int     `yaml:"max_bulk_purchase" json:"max_bulk_purchase"`
}

type PrestigeRules struct {
	Threshold float64 `yaml:"threshold" json:"threshold"`
	Base      float64 `yaml:"base" json:"base"`
}

type IdleRules struct {
	GraceSeconds      float64 `yaml:"grace_seconds" json:"grace_seconds"`
	CompleteSeconds   float64 `yaml:"complete_seconds" json:"complete_seconds"`
	CheckEverySeconds float64 `yaml:"check_every_seconds" json:"check_every_seconds"`
	Reward            int64   `yaml:"reward" json:"reward"`
}

type BonusRules struct {
	MinIntervalSeconds float64 `yaml:"min_interval_seconds" json:"min_interval_seconds"`
	MaxIntervalSeconds float64 `yaml:"max_interval_seconds" json:"max_interval_seconds"`
	VisibleSeconds     float64 `yaml:"visible_seconds" json:"visible_seconds"`
	BoostSeconds       float64 `yaml:"boost_seconds" json:"boost_seconds"`
	BoostMultiplier    float64 `yaml:"boost_multiplier" json:"boost_multiplier"`
}

type OfflineRules struct {
	MinSeconds         float64 `yaml:"min_seconds" json:"min_seconds"`
	MaxSeconds         float64 `yaml:"max_seconds" json:"max_seconds"`
	ExtendedMaxSeconds float64 `yaml:"extended_max_seconds" json:"extended_max_seconds"`
	Efficiency         float64 `yaml:"efficiency" json:"efficiency"`
	FullEfficiency     float64 `yaml:"full_efficiency" json:"full_efficiency"`
}

type MultiplierTier struct {
	RequiredOwned int     `yaml:"required_owned" json:"required_owned"`
	Factor        float64 `yaml:"factor" json:"factor"`
	CostFactor    float64 `yaml:"cost_factor" json:"cost_factor"`
}

type UnitSpec struct {
	ID          int      `yaml:"id" json:"id"`
	Prefix      string   `yaml:"prefix" json:"prefix"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	BaseCost    float64  `yaml:"base_cost" json:"base_cost"`
	BaseOutput  float64  `yaml:"base_output" json:"base_output"`
	Multipliers []string `yaml:"multipliers" json:"multipliers"`
}

// Effect kinds understood by the prestige ledger.
const (
	EffectYieldMultiplier   = "yield_multiplier"
	EffectOfflineEfficiency = "offline_efficiency"
	EffectCostScaling       = "cost_scaling"
)

type ModifierSpec struct {
	ID          string  `yaml:"id" json:"id"`
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description"`
	Cost        float64 `yaml:"cost" json:"cost"`
	Effect      string  `yaml:"effect" json:"effect"`
	Value       float64 `yaml:"value" json:"value"`
}

var ErrInvalidBalance = errors.New("invalid balance")

// DefaultBalance returns the embedded balance. It panics only if the embedded
// document is broken, which the tests guard against.
func DefaultBalance() Balance {
	b, err := ParseBalance(defaultBalance)
	if err != nil {
		panic(fmt.Sprintf("embedded balance: %v", err))
	}
	return b
}

func ParseBalance(raw []byte) (Balance, error) {
	var b Balance
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return Balance{}, fmt.Errorf("decode balance: %w", err)
	}
	if err := b.Validate(); err != nil {
		return Balance{}, err
	}
	return b, nil
}

// LoadBalance reads a balance file, or returns the embedded default when path
// is empty.
func LoadBalance(path string) (Balance, error) {
	if path == "" {
		return DefaultBalance(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Balance{}, fmt.Errorf("read balance file: %w", err)
	}
	return ParseBalance(raw)
}

func (b Balance) Validate() error {
	if len(b.Units) == 0 {
		return fmt.Errorf("%w: no units", ErrInvalidBalance)
	}
	if b.Economy.CostMultiplier <= 1 {
		return fmt.Errorf("%w: cost_multiplier must be > 1", ErrInvalidBalance)
	}
	if b.Economy.MaxBulkPurchase <= 0 {
		return fmt.Errorf("%w: max_bulk_purchase must be > 0", ErrInvalidBalance)
	}
	if b.Prestige.Base <= 0 || b.Prestige.Threshold <= 0 {
		return fmt.Errorf("%w: prestige threshold and base must be > 0", ErrInvalidBalance)
	}
	if b.Idle.GraceSeconds <= 0 || b.Idle.CompleteSeconds <= 0 || b.Idle.CheckEverySeconds <= 0 {
		return fmt.Errorf("%w: idle timings must be > 0", ErrInvalidBalance)
	}
	if b.Bonus.MinIntervalSeconds <= 0 || b.Bonus.MaxIntervalSeconds < b.Bonus.MinIntervalSeconds {
		return fmt.Errorf("%w: bonus interval range", ErrInvalidBalance)
	}
	if b.Bonus.VisibleSeconds <= 0 || b.Bonus.BoostSeconds <= 0 || b.Bonus.BoostMultiplier < 1 {
		return fmt.Errorf("%w: bonus window", ErrInvalidBalance)
	}
	seen := make(map[int]bool, len(b.Units))
	prefixes := make(map[string]bool, len(b.Units))
	for i, u := range b.Units {
		if u.ID != i {
			return fmt.Errorf("%w: unit ids must be dense and ordered, got %d at %d", ErrInvalidBalance, u.ID, i)
		}
		if seen[u.ID] || prefixes[u.Prefix] || u.Prefix == "" {
			return fmt.Errorf("%w: duplicate or empty unit %d", ErrInvalidBalance, u.ID)
		}
		seen[u.ID] = true
		prefixes[u.Prefix] = true
		if u.BaseCost <= 0 || u.BaseOutput < 0 {
			return fmt.Errorf("%w: unit %d cost/output", ErrInvalidBalance, u.ID)
		}
		if len(u.Multipliers) > len(b.MultiplierTiers) {
			return fmt.Errorf("%w: unit %d names more multipliers than tiers", ErrInvalidBalance, u.ID)
		}
	}
	ids := make(map[string]bool, len(b.Modifiers))
	for _, m := range b.Modifiers {
		if m.ID == "" || ids[m.ID] {
			return fmt.Errorf("%w: duplicate or empty modifier %q", ErrInvalidBalance, m.ID)
		}
		ids[m.ID] = true
		switch m.Effect {
		case EffectYieldMultiplier, EffectOfflineEfficiency:
		case EffectCostScaling:
			if m.Value <= 1 {
				return fmt.Errorf("%w: modifier %s cost scaling must be > 1", ErrInvalidBalance, m.ID)
			}
		default:
			return fmt.Errorf("%w: modifier %s has unknown effect %q", ErrInvalidBalance, m.ID, m.Effect)
		}
	}
	return nil
}
