package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"articlegen/internal/clock"
	"articlegen/internal/config"
	"articlegen/internal/game"
	"articlegen/internal/store"

	"github.com/google/uuid"
)

type Options struct {
	Store         store.Store
	Balance       config.Balance
	Clock         clock.Clock
	Sink          game.EventSink
	Logger        *slog.Logger
	TickEvery     time.Duration
	AutoSaveEvery time.Duration
	// Seed fixes game randomness for tests. Zero seeds from the clock.
	Seed uint64
}

// Host keeps live games in memory, advances them in real time and writes
// them back to the store.
type Host struct {
	opts   Options
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	slot     string
	game     *game.Game
	lastTick time.Time
}

func New(opts Options) *Host {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Sink == nil {
		opts.Sink = game.NopSink{}
	}
	if opts.TickEvery <= 0 {
		opts.TickEvery = time.Second
	}
	if opts.AutoSaveEvery <= 0 {
		opts.AutoSaveEvery = 30 * time.Second
	}
	if len(opts.Balance.Units) == 0 {
		opts.Balance = config.DefaultBalance()
	}
	return &Host{
		opts:     opts,
		logger:   opts.Logger,
		sessions: make(map[string]*session),
	}
}

func (h *Host) newGame(slot string) *game.Game {
	seed := h.opts.Seed
	if seed == 0 {
		seed = uint64(h.opts.Clock.Now().UnixNano())
	}
	next := h.opts.Sink
	g := game.New(game.Options{
		Balance: h.opts.Balance,
		Clock:   h.opts.Clock,
		Rand:    rand.New(rand.NewPCG(seed, uint64(len(slot)))),
		Sink: game.SinkFunc(func(e game.Event) {
			e.Slot = slot
			next.Emit(e)
		}),
		Logger: h.logger.With("slot", slot),
	})
	// Hosted games stay hidden until a client reports itself in the foreground.
	g.SetVisible(false)
	return g
}

func (h *Host) Get(ctx context.Context, slot string) (*game.Game, error) {
	return h.open(ctx, slot, false)
}

// Open is Get that starts a fresh game when the slot has no save.
func (h *Host) Open(ctx context.Context, slot string) (*game.Game, error) {
	return h.open(ctx, slot, true)
}

func (h *Host) open(ctx context.Context, slot string, create bool) (*game.Game, error) {
	if err := store.ValidateSlot(slot); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sessions[slot]; ok {
		return s.game, nil
	}

	g := h.newGame(slot)
	raw, err := h.opts.Store.Load(ctx, slot)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if !create {
			return nil, err
		}
		h.logger.Info("starting new game", "slot", slot)
	case err != nil:
		return nil, err
	default:
		// An unreadable save leaves g fresh; the next autosave overwrites it.
		report, _ := g.Load(raw)
		if report.Offline.Seconds > 0 {
			h.logger.Info("offline catch-up", "slot", slot, "seconds", report.Offline.Seconds, "earned", report.Offline.Earned.String())
		}
	}
	h.sessions[slot] = &session{slot: slot, game: g, lastTick: h.opts.Clock.Now()}
	return g, nil
}

func (h *Host) Create(ctx context.Context) (string, *game.Game, error) {
	slot := uuid.NewString()
	g, err := h.Open(ctx, slot)
	if err != nil {
		return "", nil, err
	}
	if err := h.Save(ctx, slot); err != nil {
		return "", nil, err
	}
	return slot, g, nil
}

func (h *Host) Import(ctx context.Context, raw []byte) (string, game.LoadReport, error) {
	if _, _, err := game.DecodeSave(raw); err != nil {
		return "", game.LoadReport{}, err
	}
	slot := uuid.NewString()
	if err := h.opts.Store.Save(ctx, slot, raw); err != nil {
		return "", game.LoadReport{}, err
	}
	g := h.newGame(slot)
	report, err := g.Load(raw)
	if err != nil {
		return "", report, err
	}
	h.mu.Lock()
	h.sessions[slot] = &session{slot: slot, game: g, lastTick: h.opts.Clock.Now()}
	h.mu.Unlock()
	return slot, report, h.Save(ctx, slot)
}

// Delete resets the live game, cancelling its timers, and removes the save.
func (h *Host) Delete(ctx context.Context, slot string) error {
	if err := store.ValidateSlot(slot); err != nil {
		return err
	}
	h.mu.Lock()
	s, live := h.sessions[slot]
	delete(h.sessions, slot)
	h.mu.Unlock()
	if live {
		s.game.Reset()
	}
	err := h.opts.Store.Delete(ctx, slot)
	if errors.Is(err, store.ErrNotFound) && live {
		return nil
	}
	return err
}

func (h *Host) List(ctx context.Context) ([]string, error) {
	saved, err := h.opts.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(saved))
	for _, slot := range saved {
		seen[slot] = true
	}
	h.mu.Lock()
	for slot := range h.sessions {
		if !seen[slot] {
			saved = append(saved, slot)
		}
	}
	h.mu.Unlock()
	sort.Strings(saved)
	return saved, nil
}

func (h *Host) Save(ctx context.Context, slot string) error {
	h.mu.Lock()
	s, ok := h.sessions[slot]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrNotFound, slot)
	}
	raw, err := game.EncodeSave(s.game.Save())
	if err != nil {
		return err
	}
	return h.opts.Store.Save(ctx, slot, raw)
}

func (h *Host) Export(ctx context.Context, slot string) (string, error) {
	g, err := h.Get(ctx, slot)
	if err != nil {
		return "", err
	}
	raw, err := game.EncodeSave(g.Save())
	if err != nil {
		return "", err
	}
	return store.EncodeExport(raw), nil
}

func (h *Host) Tick() {
	now := h.opts.Clock.Now()
	for _, s := range h.snapshotSessions() {
		dt := now.Sub(s.lastTick)
		s.lastTick = now
		if dt > 0 {
			s.game.Tick(dt)
		}
	}
}

// Flush saves every live game. It keeps going past failures and returns
// them joined.
func (h *Host) Flush(ctx context.Context) error {
	var errs []error
	for _, s := range h.snapshotSessions() {
		if err := h.Save(ctx, s.slot); err != nil {
			errs = append(errs, fmt.Errorf("save %s: %w", s.slot, err))
		}
	}
	return errors.Join(errs...)
}

// Run ticks and autosaves until ctx is done, then flushes once more.
func (h *Host) Run(ctx context.Context) error {
	tick := time.NewTicker(h.opts.TickEvery)
	defer tick.Stop()
	autosave := time.NewTicker(h.opts.AutoSaveEvery)
	defer autosave.Stop()

	h.logger.Info("host running", "tick_every", h.opts.TickEvery.String(), "autosave_every", h.opts.AutoSaveEvery.String())
	for {
		select {
		case <-ctx.Done():
			h.Tick()
			flushCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := h.Flush(flushCtx); err != nil {
				h.logger.Error("final flush failed", "err", err)
				return err
			}
			h.logger.Info("host stopped")
			return nil
		case <-tick.C:
			h.Tick()
		case <-autosave.C:
			if err := h.Flush(ctx); err != nil {
				h.logger.Error("autosave failed", "err", err)
				continue
			}
			h.logger.Debug("autosave complete")
		}
	}
}

func (h *Host) snapshotSessions() []*session {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s)
	}
	return out
}
