package tui

import (
	"sync"

	"articlegen/internal/game"
	"articlegen/internal/notify"
)

const feedSize = 5

// Feed is an event sink that keeps the last few notable messages for the
// status panel.
type Feed struct {
	mu    sync.Mutex
	lines []string
}

func (f *Feed) Emit(e game.Event) {
	switch e.Kind {
	case game.EventIdleWinding, game.EventMultiplierUnlocked, game.EventUnitPurchased,
		game.EventMultiplierPurchased:
		return
	}
	line := notify.Format(e)
	f.mu.Lock()
	f.lines = append(f.lines, line)
	if len(f.lines) > feedSize {
		f.lines = f.lines[len(f.lines)-feedSize:]
	}
	f.mu.Unlock()
}

func (f *Feed) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.lines))
	copy(out, f.lines)
	return out
}
