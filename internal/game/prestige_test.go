package game

import (
	"testing"

	"articlegen/internal/config"
	"articlegen/internal/num"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRun struct {
	balance num.Number
	resets  int
}

func (r *fakeRun) BalanceThisRun() num.Number { return r.balance }
func (r *fakeRun) ResetForPrestige() {
	r.balance = num.Zero
	r.resets++
}

func TestEligibilityThreshold(t *testing.T) {
	l := NewLedger(config.DefaultBalance(), nil)
	assert.True(t, l.Eligible(&fakeRun{balance: num.MustParse("5.67e9")}))
	assert.False(t, l.Eligible(&fakeRun{balance: num.MustParse("5.669e9")}))
}

func TestPreviewGainIsMonotonic(t *testing.T) {
	l := NewLedger(config.DefaultBalance(), nil)
	tests := []struct {
		balance string
		want    string
	}{
		{balance: "0", want: "0"},
		{balance: "999999999", want: "0"},
		{balance: "1e9", want: "1"},
		{balance: "7.9e9", want: "1"},
		{balance: "8e9", want: "2"},
		{balance: "2.7e10", want: "3"},
		{balance: "1e12", want: "10"},
		{balance: "1e15", want: "100"},
		{balance: "1e309", want: "1e100"},
	}
	prev := num.Zero
	for _, tc := range tests {
		got := l.PreviewGain(&fakeRun{balance: num.MustParse(tc.balance)})
		if !got.Equal(num.MustParse(tc.want)) {
			t.Fatalf("balance=%s got=%s want=%s", tc.balance, got, tc.want)
		}
		require.True(t, got.GTE(prev), "balance=%s", tc.balance)
		prev = got
	}
}

func TestCommit(t *testing.T) {
	events := &eventLog{}
	l := NewLedger(config.DefaultBalance(), events)

	run := &fakeRun{balance: num.MustParse("5.669e9")}
	_, err := l.Commit(run)
	require.ErrorIs(t, err, ErrNotEligible)
	assert.Zero(t, run.resets)

	run.balance = num.MustParse("2.7e10")
	gain, err := l.Commit(run)
	require.NoError(t, err)
	assert.True(t, gain.Equal(num.FromInt(3)))
	assert.True(t, l.MetaCurrency().Equal(num.FromInt(3)))
	assert.Equal(t, 1, l.PrestigeCount())
	assert.Equal(t, 1, run.resets)
	assert.Equal(t, 1, events.count(EventPrestige))
}

func TestPurchaseModifier(t *testing.T) {
	l := NewLedger(config.DefaultBalance(), nil)

	_, err := l.PurchaseModifier("free_lunch")
	require.ErrorIs(t, err, ErrUnknownModifier)

	ok, err := l.PurchaseModifier("multithread_samsara")
	require.NoError(t, err)
	assert.False(t, ok, "cannot afford")

	l.Grant(num.FromInt(12))
	ok, err = l.PurchaseModifier("multithread_samsara")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, l.MetaCurrency().Equal(num.FromInt(2)))

	ok, err = l.PurchaseModifier("multithread_samsara")
	require.NoError(t, err)
	assert.False(t, ok, "already owned")
	assert.True(t, l.MetaCurrency().Equal(num.FromInt(2)))

	assert.True(t, l.YieldMultiplier().Equal(num.FromInt(2)))
	assert.True(t, l.ClickMultiplier().Equal(num.FromInt(2)))
}

func TestModifiersFeedEconomy(t *testing.T) {
	b := config.DefaultBalance()
	l := NewLedger(b, nil)
	e := NewEconomy(b, l, nil, l)
	e.units[1].Owned = 10

	u0 := e.units[0]
	assert.True(t, u0.UnitCost(5, e.CostMultiplier()).Equal(num.FromInt(30)))
	assert.True(t, e.ClickPower().Equal(num.One))

	l.Grant(num.FromInt(1000))
	for _, id := range []string{"multithread_samsara", "serverless_nirvana", "shiki_soku_ze_kuu"} {
		ok, err := l.PurchaseModifier(id)
		require.NoError(t, err)
		require.True(t, ok, id)
	}

	assert.True(t, e.CostMultiplier().Equal(num.MustParse("1.14")))
	assert.True(t, u0.UnitCost(5, e.CostMultiplier()).Equal(num.FromInt(28)))
	assert.True(t, e.ClickPower().Equal(num.FromInt(2)))
	assert.True(t, e.TotalYield().Equal(num.FromInt(20)))
	assert.True(t, l.FullOfflineEfficiency())
}

func TestPrestigeResetPreservesMetaProgression(t *testing.T) {
	g, _, _ := newTestGame(t)
	g.ledger.Grant(num.FromInt(10))
	ok, err := g.PurchasePermanentModifier("multithread_samsara")
	require.NoError(t, err)
	require.True(t, ok)

	g.econ.credit(num.MustParse("1e12"))
	_, _, err = g.PurchaseUnit(0, 50)
	require.NoError(t, err)
	require.NotEmpty(t, g.PurchaseCheapestMultiplier())

	gain, err := g.CommitPrestige()
	require.NoError(t, err)
	assert.True(t, gain.Equal(num.FromInt(10)))

	snap := g.Snapshot()
	assert.True(t, snap.LifetimeBalance.Equal(num.MustParse("1e12")))
	assert.True(t, snap.Prestige.MetaCurrency.Equal(num.FromInt(10)))
	assert.Equal(t, 1, snap.Prestige.PrestigeCount)
	assert.True(t, snap.Prestige.Modifiers[0].Owned)
	assert.True(t, snap.Balance.IsZero())
	assert.True(t, snap.BalanceThisRun.IsZero())
	for _, u := range snap.Units {
		assert.Zero(t, u.Owned)
	}
	for _, m := range snap.Multipliers {
		assert.False(t, m.Unlocked || m.Purchased, m.ID)
	}
}
