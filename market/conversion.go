package market

import (
	"github.com/shopspring/decimal"
)

// ConvertBalance converts amount between the two balance currencies using
// the table's USD/JPY rate.
//
//	JPY -> USD: amount / USDJPY, 2 decimals
//	USD -> JPY: amount * USDJPY, whole yen
//
// A table without a usable USD rate yields zero.
func ConvertBalance(amount decimal.Decimal, from, to BalanceCurrency, rates RateTable) decimal.Decimal {
	if from == to {
		return amount
	}

	usdjpy := rates.USDJPY()
	if !usdjpy.IsPositive() {
		return decimal.Zero
	}

	if from == BalanceJPY {
		return to.Round(amount.Div(usdjpy))
	}
	return to.Round(amount.Mul(usdjpy))
}
