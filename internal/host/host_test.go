package host

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"articlegen/internal/clock"
	"articlegen/internal/game"
	"articlegen/internal/notify"
	"articlegen/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHost(t *testing.T, st store.Store, wall *clock.Fake) (*Host, *notify.Recorder) {
	t.Helper()
	rec := &notify.Recorder{}
	return New(Options{
		Store:  st,
		Clock:  wall,
		Sink:   rec,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Seed:   7,
	}), rec
}

func newFileStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewFile(t.TempDir())
	require.NoError(t, err)
	return st
}

func TestOpenCreatesAndGetRequiresSave(t *testing.T) {
	ctx := context.Background()
	wall := clock.NewFake(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	h, _ := newTestHost(t, newFileStore(t), wall)

	_, err := h.Get(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = h.Open(ctx, "../escape")
	require.ErrorIs(t, err, store.ErrInvalidSlot)

	g, err := h.Open(ctx, "alpha")
	require.NoError(t, err)
	again, err := h.Get(ctx, "alpha")
	require.NoError(t, err)
	assert.Same(t, g, again)

	slots, err := h.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, slots)
}

func TestTickUsesWallElapsedAndTagsEvents(t *testing.T) {
	ctx := context.Background()
	wall := clock.NewFake(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	h, rec := newTestHost(t, newFileStore(t), wall)

	g, err := h.Open(ctx, "alpha")
	require.NoError(t, err)
	for i := 0; i < 15; i++ {
		g.Click()
	}
	n, _, err := g.PurchaseUnit(0, game.PurchaseMode(1))
	require.NoError(t, err)
	require.Equal(t, 1, n)
	before := g.Snapshot().Balance

	wall.Advance(10 * time.Second)
	h.Tick()
	after := g.Snapshot().Balance
	assert.True(t, after.GT(before), "balance did not grow: %s -> %s", before, after)

	events := rec.Events()
	require.NotEmpty(t, events)
	for _, e := range events {
		assert.Equal(t, "alpha", e.Slot)
	}
	assert.Equal(t, 1, rec.Count(game.EventUnitPurchased))
}

func TestSaveReloadCreditsOfflineTime(t *testing.T) {
	ctx := context.Background()
	st := newFileStore(t)
	wall := clock.NewFake(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	h, _ := newTestHost(t, st, wall)

	g, err := h.Open(ctx, "alpha")
	require.NoError(t, err)
	for i := 0; i < 15; i++ {
		g.Click()
	}
	_, _, err = g.PurchaseUnit(0, game.PurchaseMode(1))
	require.NoError(t, err)
	require.NoError(t, h.Flush(ctx))

	wall.Advance(2 * time.Hour)
	fresh, rec := newTestHost(t, st, wall)
	loaded, err := fresh.Get(ctx, "alpha")
	require.NoError(t, err)
	snap := loaded.Snapshot()
	assert.Equal(t, 1, snap.Units[0].Owned)
	assert.True(t, snap.Balance.Sign() > 0)
	assert.Equal(t, 1, rec.Count(game.EventOfflineCredited))
}

func TestCreateImportExportDelete(t *testing.T) {
	ctx := context.Background()
	wall := clock.NewFake(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	h, _ := newTestHost(t, newFileStore(t), wall)

	slot, g, err := h.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, store.ValidateSlot(slot))
	g.Click()

	exported, err := h.Export(ctx, slot)
	require.NoError(t, err)
	raw, err := store.DecodeExport(exported)
	require.NoError(t, err)

	copySlot, report, err := h.Import(ctx, raw)
	require.NoError(t, err)
	assert.NotEqual(t, slot, copySlot)
	assert.False(t, report.Fresh)
	imported, err := h.Get(ctx, copySlot)
	require.NoError(t, err)
	assert.Equal(t, int64(1), imported.Snapshot().ClickCount)

	_, _, err = h.Import(ctx, []byte("not a save"))
	require.ErrorIs(t, err, game.ErrCorruptSave)

	require.NoError(t, h.Delete(ctx, slot))
	_, err = h.Get(ctx, slot)
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, h.Delete(ctx, slot), store.ErrNotFound)
}

func TestRunFlushesOnShutdown(t *testing.T) {
	st := newFileStore(t)
	wall := clock.NewFake(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	h, _ := newTestHost(t, st, wall)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := h.Open(ctx, "alpha")
	require.NoError(t, err)
	cancel()
	require.NoError(t, h.Run(ctx))

	_, err = st.Load(context.Background(), "alpha")
	require.NoError(t, err)
}

func TestHeadlessSlotEarnsNoIdleReward(t *testing.T) {
	ctx := context.Background()
	wall := clock.NewFake(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	h, rec := newTestHost(t, newFileStore(t), wall)

	g, err := h.Open(ctx, "alpha")
	require.NoError(t, err)
	tick := func(n int) {
		for i := 0; i < n; i++ {
			wall.Advance(time.Second)
			h.Tick()
		}
	}

	tick(3 * 3630)
	snap := g.Snapshot()
	assert.False(t, snap.Idle.Visible)
	assert.Zero(t, snap.Idle.CompletedCount)
	assert.True(t, snap.Prestige.MetaCurrency.IsZero())
	assert.Zero(t, rec.Count(game.EventIdleCompleted))

	g.SetVisible(true)
	tick(3700)
	assert.Equal(t, 1, g.Snapshot().Idle.CompletedCount)
	assert.Equal(t, 1, rec.Count(game.EventIdleCompleted))
}
