package coupon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComputePercent(t *testing.T) {
	rule := Rule{Kind: KindPercent, Value: 2000}
	require.Equal(t, int64(510), Compute(2550, rule))
}

func TestComputeFixedCapsAtAmount(t *testing.T) {
	rule := Rule{Kind: KindFixed, Value: 1000}
	require.Equal(t, int64(1000), Compute(2550, rule))
	require.Equal(t, int64(400), Compute(400, rule))
	require.Zero(t, Compute(0, rule))
}

func TestValidate(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	require.ErrorIs(t, Rule{ExpiresAt: &past}.Validate(now, 5000), ErrExpired)
	require.ErrorIs(t, Rule{MinSpend: 5000, ExpiresAt: &future}.Validate(now, 4999), ErrMinimumSpendUnmet)
	require.NoError(t, Rule{MinSpend: 5000, ExpiresAt: &future}.Validate(now, 5000))
}

func TestParseCatalog(t *testing.T) {
	rules, err := ParseCatalog(" welcome10:percent:1000 , SHIP5:fixed:500:2500,")
	require.NoError(t, err)
	require.Equal(t, []Rule{
		{Code: "WELCOME10", Kind: KindPercent, Value: 1000},
		{Code: "SHIP5", Kind: KindFixed, Value: 500, MinSpend: 2500},
	}, rules)

	for _, bad := range []string{"X:percent", "X:bogus:10", "X:percent:20000", "X:fixed:-1", "X:fixed:10:abc", ":fixed:10"} {
		_, err := ParseCatalog(bad)
		require.Error(t, err, bad)
	}
}

func TestComputeLargeAmountsStayInRange(t *testing.T) {
	amount := int64(1 << 53)
	require.Equal(t, amount/10, Compute(amount, Rule{Kind: KindPercent, Value: 1000}))
	require.Equal(t, amount, Compute(amount, Rule{Kind: KindPercent, Value: 10000}))
	require.Equal(t, amount, Compute(amount, Rule{Kind: KindPercent, Value: 25000}))
	require.Equal(t, int64(9_999_999), Compute(99_999_999, Rule{Kind: KindPercent, Value: 1000}))
}
