package game

import (
	"testing"

	"articlegen/internal/config"
	"articlegen/internal/num"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUnit(t *testing.T, id int) *Unit {
	t.Helper()
	b := config.DefaultBalance()
	return newUnit(b.Units[id], b.Economy.MaxBulkPurchase)
}

func TestCostOfMatchesSeriesTerms(t *testing.T) {
	u := testUnit(t, 0)
	m := num.FromFloat(1.15)

	tests := []struct {
		owned int
		want  string
	}{
		{owned: 0, want: "15"},
		{owned: 1, want: "17"},
		{owned: 2, want: "19"},
		{owned: 5, want: "30"},
	}
	for _, tc := range tests {
		got := u.CostOf(tc.owned, 1, m)
		if !got.Equal(num.MustParse(tc.want)) {
			t.Fatalf("owned=%d got=%s want=%s", tc.owned, got, tc.want)
		}
		require.True(t, got.Equal(u.UnitCost(tc.owned, m)))
	}

	for _, owned := range []int{0, 7, 120} {
		sum := num.Zero
		for k := 0; k < 25; k++ {
			sum = sum.Add(u.CostOf(owned+k, 1, m))
		}
		assert.True(t, sum.Equal(u.CostOf(owned, 25, m)), "owned=%d", owned)
	}
}

func TestPurchaseIsAtomic(t *testing.T) {
	u := testUnit(t, 0)
	m := num.FromFloat(1.15)

	bought, spent := u.Purchase(num.FromInt(50), 3, m)
	assert.Equal(t, 0, bought)
	assert.True(t, spent.IsZero())
	assert.Equal(t, 0, u.Owned)

	bought, spent = u.Purchase(num.FromInt(51), 3, m)
	assert.Equal(t, 3, bought)
	assert.True(t, spent.Equal(num.FromInt(51)))
	assert.Equal(t, 3, u.Owned)
}

func TestMaxAffordable(t *testing.T) {
	u := testUnit(t, 0)
	m := num.FromFloat(1.15)

	assert.Equal(t, 0, u.MaxAffordable(num.FromInt(14), m))
	assert.Equal(t, 2, u.MaxAffordable(num.FromInt(50), m))
	assert.Equal(t, 3, u.MaxAffordable(num.FromInt(51), m))
	assert.Equal(t, 1000, u.MaxAffordable(num.MustParse("1e300"), m))

	bought, spent := u.Purchase(num.FromInt(50), BuyMax, m)
	assert.Equal(t, 2, bought)
	assert.True(t, spent.Equal(num.FromInt(32)))
}

func TestYieldPerSecond(t *testing.T) {
	u := testUnit(t, 2)
	assert.True(t, u.YieldPerSecond(num.FromInt(4)).IsZero())
	u.Owned = 3
	assert.True(t, u.YieldPerSecond(num.FromInt(4)).Equal(num.FromInt(96)))
}

func TestParsePurchaseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    PurchaseMode
		wantErr bool
	}{
		{in: "1", want: 1},
		{in: "x10", want: 10},
		{in: "100", want: 100},
		{in: "MAX", want: BuyMax},
		{in: "", want: 1},
		{in: "0", wantErr: true},
		{in: "-3", wantErr: true},
		{in: "lots", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParsePurchaseMode(tc.in)
		if tc.wantErr {
			require.ErrorIs(t, err, ErrInvalidPurchaseMode, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
	assert.Equal(t, PurchaseMode(10), PurchaseMode(1).Next())
	assert.Equal(t, PurchaseMode(1), BuyMax.Next())
	assert.Equal(t, "max", BuyMax.String())
}

func TestMultiplierTryPurchaseIsIdempotent(t *testing.T) {
	b := config.DefaultBalance()
	u := newUnit(b.Units[0], b.Economy.MaxBulkPurchase)
	m := newMultipliers(b.Units[0], b.MultiplierTiers)[0]
	require.Equal(t, "manual_10", m.ID)

	ok, _ := m.TryPurchase(num.FromInt(1_000_000), u)
	assert.False(t, ok, "locked")

	assert.False(t, m.Refresh(9))
	assert.True(t, m.Refresh(10))
	assert.False(t, m.Refresh(50), "already unlocked")

	ok, _ = m.TryPurchase(num.FromInt(1499), u)
	assert.False(t, ok, "unaffordable")

	ok, cost := m.TryPurchase(num.FromInt(1500), u)
	assert.True(t, ok)
	assert.True(t, cost.Equal(num.FromInt(1500)))

	ok, cost = m.TryPurchase(num.FromInt(1_000_000), u)
	assert.False(t, ok)
	assert.True(t, cost.IsZero())
}
