package notify

import (
	"context"
	"log/slog"
	"sync"

	"articlegen/internal/config"
	"articlegen/internal/game"
)

// Build returns the sink a server process should hand to its games: the
// log sink, plus Discord when a token and channel are configured. The
// Discord sender runs until ctx is done.
func Build(ctx context.Context, cfg config.NotifyConfig, logger *slog.Logger) (game.EventSink, error) {
	sinks := Multi{NewLogSink(logger)}
	if cfg.DiscordToken == "" || cfg.DiscordChannel == "" {
		return sinks, nil
	}
	d, err := NewDiscord(cfg.DiscordToken, cfg.DiscordChannel, logger)
	if err != nil {
		return nil, err
	}
	go d.Run(ctx)
	return append(sinks, d), nil
}

type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(e game.Event) {
	level := slog.LevelDebug
	if notable(e.Kind) {
		level = slog.LevelInfo
	}
	attrs := []any{"kind", string(e.Kind)}
	if e.Slot != "" {
		attrs = append(attrs, "slot", e.Slot)
	}
	if e.ID != "" {
		attrs = append(attrs, "id", e.ID)
	}
	if e.Count != 0 {
		attrs = append(attrs, "count", e.Count)
	}
	if !e.Amount.IsZero() {
		attrs = append(attrs, "amount", e.Amount.String())
	}
	if e.Seconds != 0 {
		attrs = append(attrs, "seconds", e.Seconds)
	}
	s.logger.Log(context.Background(), level, "game event", attrs...)
}

type Multi []game.EventSink

func (m Multi) Emit(e game.Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(e)
		}
	}
}

type Recorder struct {
	mu     sync.Mutex
	events []game.Event
}

func (r *Recorder) Emit(e game.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *Recorder) Events() []game.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]game.Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) Count(kind game.EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func notable(kind game.EventKind) bool {
	switch kind {
	case game.EventPrestige, game.EventIdleCompleted, game.EventBonusClaimed,
		game.EventOfflineCredited, game.EventModifierPurchased, game.EventReset:
		return true
	default:
		return false
	}
}
