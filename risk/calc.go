package risk

import (
	"github.com/rustyeddy/fxlot/market"
	"github.com/shopspring/decimal"
)

// Result is the full derived view of a set of inputs. It carries no
// identity and is rebuilt from scratch on every call to Recompute.
type Result struct {
	LotSize              decimal.Decimal
	RiskAmount           decimal.Decimal
	RiskAmountEquivalent decimal.Decimal
	PipValue             decimal.Decimal
	MaxLotSize           decimal.Decimal
	MarginRatio          MarginRatio
}

// Recompute runs the sizer and the margin model against one rate table.
// Callers invoke it after any input edit or rate table replacement.
func Recompute(in PositionInputs, rates market.RateTable) (Result, error) {
	sizing, err := SizePosition(in, rates)
	if err != nil {
		return Result{}, err
	}

	maxLot, err := MaxLotSize(in, rates)
	if err != nil {
		return Result{}, err
	}

	ratio, err := MarginRatioFor(in, sizing.LotSize, rates)
	if err != nil {
		return Result{}, err
	}

	return Result{
		LotSize:              sizing.LotSize,
		RiskAmount:           sizing.RiskAmount,
		RiskAmountEquivalent: sizing.RiskAmountEquivalent,
		PipValue:             sizing.PipValue,
		MaxLotSize:           maxLot,
		MarginRatio:          ratio,
	}, nil
}
