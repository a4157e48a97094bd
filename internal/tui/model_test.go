package tui

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"
	"time"

	"articlegen/internal/clock"
	"articlegen/internal/game"
	"articlegen/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T) (Model, *game.Game, store.Store) {
	t.Helper()
	st, err := store.NewFile(t.TempDir())
	require.NoError(t, err)
	feed := &Feed{}
	g := game.New(game.Options{
		Clock:  clock.NewFake(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)),
		Rand:   rand.New(rand.NewPCG(1, 2)),
		Sink:   feed,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return New(Options{Game: g, Store: st, Slot: "tui", Feed: feed}), g, st
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestKeysDriveTheGame(t *testing.T) {
	m, g, _ := newTestModel(t)
	space := tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	for i := 0; i < 15; i++ {
		m = send(m, space)
	}
	assert.Equal(t, int64(15), g.Snapshot().ClickCount)

	m = send(m, runes("1"))
	assert.Equal(t, 1, g.Snapshot().Units[0].Owned)
	assert.Contains(t, m.status, "bought 1")

	m = send(m, runes("2"))
	assert.Equal(t, "not enough articles", m.status)

	m = send(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, game.PurchaseMode(10), m.mode)

	m = send(m, runes("p"))
	assert.False(t, m.confirm)
	assert.Contains(t, m.status, "need")

	m = send(m, runes("b"))
	assert.Equal(t, "no bell to ring", m.status)

	m = send(m, tea.KeyMsg{Type: tea.KeyF1})
	assert.Equal(t, "cannot buy "+g.Snapshot().Prestige.Modifiers[0].Name, m.status)
}

func TestFocusControlsZenVisibility(t *testing.T) {
	m, g, _ := newTestModel(t)
	g.SetVisible(false)
	require.NotNil(t, m.Init())
	assert.True(t, g.Snapshot().Idle.Visible)

	m = send(m, tea.BlurMsg{})
	assert.False(t, g.Snapshot().Idle.Visible)
	send(m, tea.FocusMsg{})
	assert.True(t, g.Snapshot().Idle.Visible)
}

func TestFrameTicksTheGame(t *testing.T) {
	m, g, _ := newTestModel(t)
	before := g.Snapshot().PlayTimeSeconds
	send(m, frameMsg(m.lastFrame.Add(2*time.Second)))
	assert.InDelta(t, before+2, g.Snapshot().PlayTimeSeconds, 1e-9)
}

func TestQuitSaves(t *testing.T) {
	m, _, st := newTestModel(t)
	m = send(m, runes(" "))
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	raw, err := st.Load(context.Background(), "tui")
	require.NoError(t, err)
	s, _, err := game.DecodeSave(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.Stats.ClickCount)
}

func TestViewRenders(t *testing.T) {
	m, _, _ := newTestModel(t)
	out := m.View()
	assert.Contains(t, out, "ARTICLE GENERATOR")
	assert.Contains(t, out, "Zen")
}
