package risk

// JPY balance: a pip on any JPY-quoted pair is worth a flat 1,000 JPY per lot.
// USD balance: 10 USD per lot, except USD/JPY where the 0.01 JPY pip is
// converted at the current USD/JPY rate.

import (
	"github.com/rustyeddy/fxlot/market"
	"github.com/shopspring/decimal"
)

const LotUnits = 100_000

var (
	lotUnits          = decimal.NewFromInt(LotUnits)
	hundred           = decimal.NewFromInt(100)
	jpyPipSize        = decimal.RequireFromString("0.01")
	jpyPipValuePerLot = decimal.NewFromInt(1000)
	usdPipValuePerLot = decimal.NewFromInt(10)
)

// PositionInputs is everything the sizer and margin model need.
type PositionInputs struct {
	Balance         decimal.Decimal
	RiskPercent     decimal.Decimal // 2.5 means 2.5%
	StopLossPips    int64
	Traded          market.Currency
	BalanceCurrency market.BalanceCurrency
	Leverage        int
}

type Sizing struct {
	LotSize              decimal.Decimal
	RiskAmount           decimal.Decimal
	RiskAmountEquivalent decimal.Decimal // RiskAmount in the other balance currency
	PipValue             decimal.Decimal // per standard lot, in the balance currency
}

// PipValue returns the value of one pip per standard lot in the balance
// currency.
func PipValue(traded market.Currency, balance market.BalanceCurrency, rates market.RateTable) (decimal.Decimal, error) {
	if _, err := rates.Get(traded); err != nil {
		return decimal.Zero, err
	}
	if balance == market.BalanceJPY {
		return jpyPipValuePerLot, nil
	}
	if traded != market.JPY {
		return usdPipValuePerLot, nil
	}

	usdjpy, err := rates.Get(market.USD)
	if err != nil {
		return decimal.Zero, err
	}
	if !usdjpy.IsPositive() {
		return decimal.Zero, nil
	}
	return lotUnits.Mul(jpyPipSize).Div(usdjpy).Round(2), nil
}

// RiskAmount is balance * riskPercent / 100 rounded to the balance currency.
func RiskAmount(in PositionInputs) decimal.Decimal {
	return in.BalanceCurrency.Round(in.Balance.Mul(in.RiskPercent).Div(hundred))
}

// SizePosition computes the lot size that loses RiskAmount when the stop is
// hit. A zero stop, or a non-positive pip value, sizes to 0.00.
func SizePosition(in PositionInputs, rates market.RateTable) (Sizing, error) {
	pipValue, err := PipValue(in.Traded, in.BalanceCurrency, rates)
	if err != nil {
		return Sizing{}, err
	}

	s := Sizing{
		LotSize:    decimal.Zero,
		RiskAmount: RiskAmount(in),
		PipValue:   pipValue,
	}
	s.RiskAmountEquivalent = market.ConvertBalance(s.RiskAmount, in.BalanceCurrency, in.BalanceCurrency.Other(), rates)

	if in.StopLossPips <= 0 || !pipValue.IsPositive() {
		return s, nil
	}

	lot := s.RiskAmount.Div(decimal.NewFromInt(in.StopLossPips).Mul(pipValue)).Round(2)
	if lot.IsPositive() {
		s.LotSize = lot
	}
	return s, nil
}
