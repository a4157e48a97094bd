package game

import (
	"testing"

	"articlegen/internal/config"
	"articlegen/internal/num"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedModifier struct {
	factor num.Number
}

func (m fixedModifier) YieldMultiplier() num.Number { return m.factor }

func newTestEconomy(t *testing.T, modifiers ...YieldModifier) (*Economy, *eventLog) {
	t.Helper()
	events := &eventLog{}
	return NewEconomy(config.DefaultBalance(), nil, events, modifiers...), events
}

func TestPurchaseUnitDeductsExactBulkCost(t *testing.T) {
	e, events := newTestEconomy(t)
	e.credit(num.FromInt(100))

	count, quote, err := e.Quote(0, 3)
	require.NoError(t, err)
	require.Equal(t, 3, count)

	bought, spent, err := e.PurchaseUnit(0, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, bought)
	assert.True(t, spent.Equal(quote))
	assert.True(t, e.Balance().Equal(num.FromInt(49)))
	assert.True(t, e.LifetimeBalance().Equal(num.FromInt(100)), "spending never lowers lifetime")
	assert.Equal(t, 1, events.count(EventUnitPurchased))

	bought, spent, err = e.PurchaseUnit(0, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, bought)
	assert.True(t, spent.IsZero())
	assert.Equal(t, 3, e.units[0].Owned)
	assert.True(t, e.Balance().Equal(num.FromInt(49)))
}

func TestPurchaseUnitErrors(t *testing.T) {
	e, _ := newTestEconomy(t)
	_, _, err := e.PurchaseUnit(42, 1)
	require.ErrorIs(t, err, ErrUnknownUnit)
	_, _, err = e.PurchaseUnit(0, 5000)
	require.ErrorIs(t, err, ErrInvalidPurchaseMode)
	_, err = e.PurchaseMultiplier("nope_10")
	require.ErrorIs(t, err, ErrUnknownMultiplier)
}

func TestPurchaseUnlocksMultipliers(t *testing.T) {
	e, events := newTestEconomy(t)
	e.credit(num.FromInt(1_000_000))
	_, _, err := e.PurchaseUnit(0, 10)
	require.NoError(t, err)

	m, err := e.Multiplier("manual_10")
	require.NoError(t, err)
	assert.True(t, m.Unlocked)
	assert.Equal(t, 1, events.count(EventMultiplierUnlocked))

	before := e.Balance()
	ok, err := e.PurchaseMultiplier("manual_10")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, e.Balance().Equal(before.Sub(num.FromInt(1500))))

	ok, err = e.PurchaseMultiplier("manual_10")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, e.Balance().Equal(before.Sub(num.FromInt(1500))), "second purchase never deducts")
	assert.True(t, e.AppliedMultiplier(0).Equal(num.FromInt(2)))
}

func TestTotalYieldStacksModifiers(t *testing.T) {
	e, _ := newTestEconomy(t, fixedModifier{factor: num.FromInt(3)}, fixedModifier{factor: num.FromInt(5)})
	e.units[0].Owned = 2
	e.units[2].Owned = 1
	for _, m := range e.byUnit[2][:2] {
		m.Unlocked, m.Purchased = true, true
	}
	// (2*1 + 1*8*4) * 15
	assert.True(t, e.TotalYield().Equal(num.FromInt(510)), "got %s", e.TotalYield())
	assert.True(t, e.ClickPower().Equal(num.FromInt(2)), "clicks ignore yield modifiers")
}

func TestOfflineCatchUp(t *testing.T) {
	e, events := newTestEconomy(t)
	e.units[1].Owned = 10

	tests := []struct {
		name    string
		elapsed float64
		full    bool
		earned  string
		counted float64
	}{
		{name: "below minimum", elapsed: 59, earned: "0", counted: 0},
		{name: "at minimum", elapsed: 60, earned: "300", counted: 60},
		{name: "clamped", elapsed: 1e9, earned: "432000", counted: 86400},
		{name: "extended", elapsed: 1e9, full: true, earned: "2592000", counted: 259200},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			before := e.Balance()
			earned, counted := e.ApplyOfflineElapsed(tc.elapsed, tc.full)
			assert.True(t, earned.Equal(num.MustParse(tc.earned)), "earned=%s", earned)
			assert.Equal(t, tc.counted, counted)
			assert.True(t, e.Balance().Equal(before.Add(earned)))
		})
	}
	assert.Equal(t, 3, events.count(EventOfflineCredited))
}

func TestResetForPrestigeKeepsLifetimeAndPlayTime(t *testing.T) {
	e, _ := newTestEconomy(t)
	e.credit(num.FromInt(1_000_000))
	_, _, err := e.PurchaseUnit(0, 10)
	require.NoError(t, err)
	ok, err := e.PurchaseMultiplier("manual_10")
	require.NoError(t, err)
	require.True(t, ok)
	e.Click()
	e.Advance(12)

	lifetime := e.LifetimeBalance()
	e.ResetForPrestige()

	assert.True(t, e.Balance().IsZero())
	assert.True(t, e.BalanceThisRun().IsZero())
	assert.Zero(t, e.ClickCount())
	assert.True(t, e.LifetimeBalance().Equal(lifetime))
	assert.Equal(t, 12.0, e.PlayTimeSeconds())
	for _, u := range e.Units() {
		assert.Zero(t, u.Owned)
	}
	for _, m := range e.Multipliers() {
		assert.False(t, m.Unlocked, m.ID)
		assert.False(t, m.Purchased, m.ID)
	}
}
