package game

import "articlegen/internal/num"

// Snapshot is a consistent read of every accessor, taken under the game lock.
type Snapshot struct {
	Balance         num.Number       `json:"balance"`
	BalanceThisRun  num.Number       `json:"balance_this_run"`
	LifetimeBalance num.Number       `json:"lifetime_balance"`
	TotalYield      num.Number       `json:"total_yield"`
	ClickPower      num.Number       `json:"click_power"`
	CostMultiplier  num.Number       `json:"cost_multiplier"`
	ClickCount      int64            `json:"click_count"`
	PlayTimeSeconds float64          `json:"play_time_seconds"`
	Units           []UnitView       `json:"units"`
	Multipliers     []MultiplierView `json:"multipliers"`
	Prestige        PrestigeView     `json:"prestige"`
	Idle            IdleView         `json:"idle"`
	Bonus           BonusView        `json:"bonus"`
}

type UnitView struct {
	ID                int        `json:"id"`
	Prefix            string     `json:"prefix"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	Owned             int        `json:"owned"`
	NextCost          num.Number `json:"next_cost"`
	YieldPerSecond    num.Number `json:"yield_per_second"`
	AppliedMultiplier num.Number `json:"applied_multiplier"`
}

type MultiplierView struct {
	ID            string     `json:"id"`
	UnitID        int        `json:"unit_id"`
	Name          string     `json:"name"`
	RequiredOwned int        `json:"required_owned"`
	Factor        num.Number `json:"factor"`
	Cost          num.Number `json:"cost"`
	Unlocked      bool       `json:"unlocked"`
	Purchased     bool       `json:"purchased"`
}

type PrestigeView struct {
	Eligible      bool           `json:"eligible"`
	PreviewGain   num.Number     `json:"preview_gain"`
	Threshold     num.Number     `json:"threshold"`
	MetaCurrency  num.Number     `json:"meta_currency"`
	PrestigeCount int            `json:"prestige_count"`
	Modifiers     []ModifierView `json:"modifiers"`
}

type ModifierView struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Cost        num.Number `json:"cost"`
	Owned       bool       `json:"owned"`
}

type IdleView struct {
	Phase           IdlePhase `json:"phase"`
	Progress        float64   `json:"progress"`
	ProgressSeconds float64   `json:"progress_seconds"`
	CompleteSeconds float64   `json:"complete_seconds"`
	CompletedCount  int       `json:"completed_count"`
	IdleSeconds     float64   `json:"idle_seconds"`
	Visible         bool      `json:"visible"`
}

type BonusView struct {
	Phase                   BonusPhase `json:"phase"`
	Visible                 bool       `json:"visible"`
	Boosted                 bool       `json:"boosted"`
	Multiplier              num.Number `json:"multiplier"`
	BoostFactor             num.Number `json:"boost_factor"`
	ClaimedCount            int        `json:"claimed_count"`
	BoostRemainingSeconds   int        `json:"boost_remaining_seconds"`
	VisibleRemainingSeconds int        `json:"visible_remaining_seconds"`
	NextSpawnSeconds        int        `json:"next_spawn_seconds"`
}

// OfflineReport describes the catch-up credited on load.
type OfflineReport struct {
	Earned  num.Number `json:"earned"`
	Seconds float64    `json:"seconds"`
}

// LoadReport is the outcome of loading a save into a game.
type LoadReport struct {
	Warnings []string      `json:"warnings,omitempty"`
	Offline  OfflineReport `json:"offline"`
	Fresh    bool          `json:"fresh"`
}
