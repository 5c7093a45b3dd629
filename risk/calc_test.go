package risk

import (
	"testing"

	"github.com/rustyeddy/fxlot/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecompute(t *testing.T) {
	t.Parallel()

	in := PositionInputs{
		Balance:         dec("1000000"),
		RiskPercent:     dec("2.5"),
		StopLossPips:    25,
		Traded:          market.USD,
		BalanceCurrency: market.BalanceJPY,
		Leverage:        500,
	}

	got, err := Recompute(in, market.DefaultRates())
	require.NoError(t, err)

	assert.Equal(t, "1.00", got.LotSize.StringFixed(2))
	assert.Equal(t, "25000", got.RiskAmount.String())
	assert.Equal(t, "338.94", got.MaxLotSize.StringFixed(2))
	assert.True(t, got.MarginRatio.Applicable)
	assert.Equal(t, "3389.37", got.MarginRatio.Percent.StringFixed(2))
}

func TestRecompute_FollowsRateTable(t *testing.T) {
	t.Parallel()

	in := PositionInputs{
		Balance:         dec("10000"),
		RiskPercent:     dec("2"),
		StopLossPips:    20,
		Traded:          market.JPY,
		BalanceCurrency: market.BalanceUSD,
		Leverage:        100,
	}

	before, err := Recompute(in, market.DefaultRates())
	require.NoError(t, err)

	m := market.DefaultRates().Map()
	m[market.USD] = dec("100.00")
	tbl, err := market.NewRateTable(m)
	require.NoError(t, err)

	after, err := Recompute(in, tbl)
	require.NoError(t, err)

	assert.Equal(t, "1.47", before.LotSize.StringFixed(2))
	// pip value 10.00 at 100 JPY per USD: 200 / (20 * 10)
	assert.Equal(t, "1.00", after.LotSize.StringFixed(2))
	assert.False(t, after.MarginRatio.Applicable)
}

func TestRecompute_UnknownCurrency(t *testing.T) {
	t.Parallel()

	in := PositionInputs{Traded: market.Currency("XAU"), BalanceCurrency: market.BalanceJPY}
	_, err := Recompute(in, market.DefaultRates())
	assert.ErrorIs(t, err, market.ErrUnknownCurrency)
}
