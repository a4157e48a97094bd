package game

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"articlegen/internal/clock"
	"articlegen/internal/config"
	"articlegen/internal/num"
)

type Options struct {
	Balance config.Balance
	Clock   clock.Clock
	// Start is the logical start time of the scheduler. Defaults to Clock.Now().
	Start  time.Time
	Rand   *rand.Rand
	Sink   EventSink
	Logger *slog.Logger
}

// Game assembles the economy, the prestige ledger and the two timed
// subsystems around one logical scheduler. All methods are safe for
// concurrent use; one mutex serializes writers and readers.
type Game struct {
	mu     sync.Mutex
	logger *slog.Logger
	wall   clock.Clock
	sched  *clock.Scheduler
	sink   EventSink

	balance config.Balance
	econ    *Economy
	ledger  *Ledger
	idle    *IdleTimer
	bonus   *BonusScheduler
}

func New(opts Options) *Game {
	if len(opts.Balance.Units) == 0 {
		opts.Balance = config.DefaultBalance()
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Start.IsZero() {
		opts.Start = opts.Clock.Now()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x61727469636c65))
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	g := &Game{
		logger:  opts.Logger,
		wall:    opts.Clock,
		sched:   clock.NewScheduler(opts.Start),
		balance: opts.Balance,
	}
	g.sink = stampingSink{now: g.wall.Now, next: sinkOrNop(opts.Sink)}
	g.ledger = NewLedger(opts.Balance, g.sink)
	g.bonus = NewBonusScheduler(g.sched, opts.Balance.Bonus, opts.Rand, g.sink, opts.Logger)
	g.econ = NewEconomy(opts.Balance, g.ledger, g.sink, g.ledger, g.bonus)
	g.idle = NewIdleTimer(g.sched, opts.Balance.Idle, g.ledger, g.sink, opts.Logger)
	return g
}

func (g *Game) Balance() config.Balance {
	return g.balance
}

// Tick advances logical time by dt. Production for each stretch between
// scheduled deadlines is credited before the callbacks at its end fire.
func (g *Game) Tick(dt time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tickLocked(dt)
}

func (g *Game) tickLocked(dt time.Duration) {
	for dt > 0 {
		step := dt
		if next, ok := g.sched.NextDeadline(); ok {
			if until := next.Sub(g.sched.Now()); until < step {
				step = max(until, 0)
			}
		}
		g.econ.Advance(step.Seconds())
		g.sched.Advance(step)
		dt -= step
	}
}

func (g *Game) Click() num.Number {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.idle.OnUserAction()
	return g.econ.Click()
}

func (g *Game) PurchaseUnit(id int, mode PurchaseMode) (int, num.Number, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.idle.OnUserAction()
	bought, spent, err := g.econ.PurchaseUnit(id, mode)
	if err != nil {
		return 0, num.Zero, err
	}
	if bought > 0 {
		g.logger.Debug("units purchased", "unit", id, "count", bought, "spent", spent.String())
	}
	return bought, spent, nil
}

func (g *Game) Quote(id int, mode PurchaseMode) (int, num.Number, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.econ.Quote(id, mode)
}

func (g *Game) PurchaseMultiplier(id string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.idle.OnUserAction()
	return g.econ.PurchaseMultiplier(id)
}

// PurchaseCheapestMultiplier buys the cheapest affordable unlocked
// multiplier. It returns the id bought, or "" when nothing was affordable.
func (g *Game) PurchaseCheapestMultiplier() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.idle.OnUserAction()

	var best *Multiplier
	var bestCost num.Number
	for _, m := range g.econ.multipliers {
		if !m.Unlocked || m.Purchased {
			continue
		}
		cost := m.Cost(g.econ.units[m.UnitID])
		if cost.GT(g.econ.balance) {
			continue
		}
		if best == nil || cost.LT(bestCost) {
			best, bestCost = m, cost
		}
	}
	if best == nil {
		return ""
	}
	if ok, _ := g.econ.PurchaseMultiplier(best.ID); !ok {
		return ""
	}
	return best.ID
}

func (g *Game) CommitPrestige() (num.Number, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.idle.OnUserAction()
	gain, err := g.ledger.Commit(g.econ)
	if err != nil {
		return num.Zero, err
	}
	g.bonus.Reset()
	g.logger.Info("prestige committed",
		"gain", gain.String(),
		"meta_currency", g.ledger.MetaCurrency().String(),
		"prestige_count", g.ledger.PrestigeCount(),
	)
	return gain, nil
}

func (g *Game) PurchasePermanentModifier(id string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.idle.OnUserAction()
	ok, err := g.ledger.PurchaseModifier(id)
	if ok {
		g.logger.Info("permanent modifier purchased", "modifier", id)
	}
	return ok, err
}

func (g *Game) ClaimBonusEvent() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.idle.OnUserAction()
	return g.bonus.Claim()
}

// NotifyUserAction records input that does not otherwise touch the game.
func (g *Game) NotifyUserAction() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.idle.OnUserAction()
}

func (g *Game) SetVisible(visible bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.idle.SetVisible(visible)
}

func (g *Game) ApplyOfflineElapsed(elapsed float64) OfflineReport {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.applyOfflineLocked(elapsed)
}

func (g *Game) applyOfflineLocked(elapsed float64) OfflineReport {
	earned, counted := g.econ.ApplyOfflineElapsed(elapsed, g.ledger.FullOfflineEfficiency())
	if counted > 0 {
		g.logger.Info("offline production credited", "seconds", counted, "earned", earned.String())
	}
	return OfflineReport{Earned: earned, Seconds: counted}
}

// Reset wipes the game, meta-progression included, and restarts both timed
// subsystems.
func (g *Game) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetLocked()
	g.sink.Emit(Event{Kind: EventReset})
	g.logger.Info("game reset")
}

func (g *Game) resetLocked() {
	g.econ.resetAll()
	g.ledger.reset()
	g.idle.Reset()
	g.bonus.Reset()
}

func (g *Game) Save() SaveState {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := SaveState{
		Version: SaveVersion,
		SavedAt: g.wall.Now().UTC(),
		Stats: SavedStats{
			Balance:         g.econ.balance,
			BalanceThisRun:  g.econ.balanceThisRun,
			LifetimeBalance: g.econ.lifetimeBalance,
			ClickCount:      g.econ.clickCount,
			PlayTimeSeconds: g.econ.playTimeSeconds,
		},
		Units:       make([]SavedUnit, 0, len(g.econ.units)),
		Multipliers: []string{},
		Prestige: SavedPrestige{
			MetaCurrency:  g.ledger.metaCurrency,
			PrestigeCount: g.ledger.prestigeCount,
			Modifiers:     []string{},
		},
		Idle: SavedIdle{
			CompletedCount:  g.idle.completedCount,
			ProgressSeconds: g.idle.progressSeconds,
		},
	}
	for _, u := range g.econ.units {
		s.Units = append(s.Units, SavedUnit{ID: u.ID, Owned: u.Owned})
	}
	for _, m := range g.econ.multipliers {
		if m.Purchased {
			s.Multipliers = append(s.Multipliers, m.ID)
		}
	}
	for _, m := range g.ledger.catalog {
		if m.Owned {
			s.Prestige.Modifiers = append(s.Prestige.Modifiers, m.ID)
		}
	}
	return s
}

func (g *Game) Restore(s SaveState) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.restoreLocked(s)
}

// Load decodes raw, restores it and credits offline production since the
// save was written. Input that is not a save leaves a fresh game and returns
// ErrCorruptSave.
func (g *Game) Load(raw []byte) (LoadReport, error) {
	s, warnings, err := DecodeSave(raw)
	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.resetLocked()
		g.logger.Warn("save unreadable, starting fresh", "error", err)
		return LoadReport{Fresh: true}, err
	}
	warnings = append(warnings, g.restoreLocked(s)...)
	for _, w := range warnings {
		g.logger.Warn("save field recovered", "detail", w)
	}
	report := LoadReport{Warnings: warnings}
	if !s.SavedAt.IsZero() {
		report.Offline = g.applyOfflineLocked(g.wall.Now().Sub(s.SavedAt).Seconds())
	}
	return report, nil
}

func (g *Game) restoreLocked(s SaveState) []string {
	d := decoder{}
	g.resetLocked()

	e := g.econ
	e.balance = clampSaved(&d, "stats.balance", s.Stats.Balance)
	e.balanceThisRun = clampSaved(&d, "stats.balance_this_run", s.Stats.BalanceThisRun)
	e.lifetimeBalance = clampSaved(&d, "stats.lifetime_balance", s.Stats.LifetimeBalance)
	if e.lifetimeBalance.LT(e.balanceThisRun) {
		d.warnf("stats.lifetime_balance: below balance_this_run, raised")
		e.lifetimeBalance = e.balanceThisRun
	}
	e.clickCount = max(s.Stats.ClickCount, 0)
	e.playTimeSeconds = max(s.Stats.PlayTimeSeconds, 0)

	for _, su := range s.Units {
		u, err := e.Unit(su.ID)
		if err != nil {
			d.warnf("units: %v, dropped", err)
			continue
		}
		if su.Owned < 0 {
			d.warnf("units[%d]: negative owned count, zeroed", su.ID)
			continue
		}
		if su.Owned > MaxSavedOwned {
			d.warnf("units[%d]: owned count %d too large, capped at %d", su.ID, su.Owned, MaxSavedOwned)
			u.Owned = MaxSavedOwned
			continue
		}
		u.Owned = su.Owned
	}
	for _, m := range e.multipliers {
		m.Refresh(e.units[m.UnitID].Owned)
	}
	for _, id := range s.Multipliers {
		m, err := e.Multiplier(id)
		if err != nil {
			d.warnf("multipliers: %v, dropped", err)
			continue
		}
		if !m.Unlocked {
			d.warnf("multipliers: %s not unlocked, dropped", id)
			continue
		}
		m.Purchased = true
	}

	l := g.ledger
	l.metaCurrency = clampSaved(&d, "prestige.meta_currency", s.Prestige.MetaCurrency)
	l.prestigeCount = max(s.Prestige.PrestigeCount, 0)
	for _, id := range s.Prestige.Modifiers {
		m, ok := l.byID[id]
		if !ok {
			d.warnf("prestige.modifiers: %v: %s, dropped", ErrUnknownModifier, id)
			continue
		}
		m.Owned = true
	}

	g.idle.restore(max(s.Idle.CompletedCount, 0), max(s.Idle.ProgressSeconds, 0))
	return d.warnings
}

func clampSaved(d *decoder, field string, v num.Number) num.Number {
	if v.Sign() < 0 {
		d.warnf("%s: negative, zeroed", field)
		return num.Zero
	}
	return v
}

func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	e := g.econ
	cm := e.CostMultiplier()
	s := Snapshot{
		Balance:         e.balance,
		BalanceThisRun:  e.balanceThisRun,
		LifetimeBalance: e.lifetimeBalance,
		TotalYield:      e.TotalYield(),
		ClickPower:      e.ClickPower(),
		CostMultiplier:  cm,
		ClickCount:      e.clickCount,
		PlayTimeSeconds: e.playTimeSeconds,
		Units:           make([]UnitView, 0, len(e.units)),
		Multipliers:     make([]MultiplierView, 0, len(e.multipliers)),
		Prestige: PrestigeView{
			Eligible:      g.ledger.Eligible(e),
			PreviewGain:   g.ledger.PreviewGain(e),
			Threshold:     g.ledger.Threshold(),
			MetaCurrency:  g.ledger.MetaCurrency(),
			PrestigeCount: g.ledger.PrestigeCount(),
		},
		Idle: IdleView{
			Phase:           g.idle.Phase(),
			Progress:        g.idle.Progress(),
			ProgressSeconds: g.idle.ProgressSeconds(),
			CompleteSeconds: g.idle.CompleteSeconds(),
			CompletedCount:  g.idle.CompletedCount(),
			IdleSeconds:     g.idle.IdleSeconds(),
			Visible:         g.idle.Visible(),
		},
		Bonus: BonusView{
			Phase:                   g.bonus.Phase(),
			Visible:                 g.bonus.Visible(),
			Boosted:                 g.bonus.Boosted(),
			Multiplier:              g.bonus.YieldMultiplier(),
			BoostFactor:             g.bonus.Factor(),
			ClaimedCount:            g.bonus.Claimed(),
			BoostRemainingSeconds:   g.bonus.BoostRemainingSeconds(),
			VisibleRemainingSeconds: g.bonus.VisibleRemainingSeconds(),
			NextSpawnSeconds:        g.bonus.SecondsUntilSpawn(),
		},
	}
	for _, u := range e.units {
		s.Units = append(s.Units, UnitView{
			ID:                u.ID,
			Prefix:            u.Prefix,
			Name:              u.Name,
			Description:       u.Description,
			Owned:             u.Owned,
			NextCost:          u.UnitCost(u.Owned, cm),
			YieldPerSecond:    e.UnitYield(u),
			AppliedMultiplier: e.AppliedMultiplier(u.ID),
		})
	}
	for _, m := range e.multipliers {
		s.Multipliers = append(s.Multipliers, MultiplierView{
			ID:            m.ID,
			UnitID:        m.UnitID,
			Name:          m.Name,
			RequiredOwned: m.RequiredOwned,
			Factor:        m.Factor,
			Cost:          m.Cost(e.units[m.UnitID]),
			Unlocked:      m.Unlocked,
			Purchased:     m.Purchased,
		})
	}
	for _, m := range g.ledger.Modifiers() {
		s.Prestige.Modifiers = append(s.Prestige.Modifiers, ModifierView{
			ID:          m.ID,
			Name:        m.Name,
			Description: m.Description,
			Cost:        m.Cost,
			Owned:       m.Owned,
		})
	}
	return s
}
