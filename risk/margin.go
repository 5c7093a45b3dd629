package risk

import (
	"github.com/rustyeddy/fxlot/market"
	"github.com/shopspring/decimal"
)

var (
	maxLotDivisorJPY = decimal.NewFromInt(10_000)
	criticalBelow    = decimal.NewFromInt(100)
	safeFrom         = decimal.NewFromInt(200)
)

// Band classifies a margin ratio for display.
type Band int

const (
	BandNone Band = iota
	BandCritical
	BandWarning
	BandSafe
)

func (b Band) String() string {
	switch b {
	case BandCritical:
		return "critical"
	case BandWarning:
		return "warning"
	case BandSafe:
		return "safe"
	default:
		return "none"
	}
}

// MarginRatio is the projected margin level of a position. When Applicable
// is false Percent is zero and has no meaning.
type MarginRatio struct {
	Percent    decimal.Decimal
	Applicable bool
}

func (m MarginRatio) Band() Band {
	switch {
	case !m.Applicable:
		return BandNone
	case m.Percent.LessThan(criticalBelow):
		return BandCritical
	case m.Percent.LessThan(safeFrom):
		return BandWarning
	default:
		return BandSafe
	}
}

// MaxLotSize is the largest position the balance supports at the given
// leverage. Leverage exposure is not modelled for JPY itself, which reports 0.
func MaxLotSize(in PositionInputs, rates market.RateTable) (decimal.Decimal, error) {
	rate, err := rates.Get(in.Traded)
	if err != nil {
		return decimal.Zero, err
	}
	if in.Traded == market.JPY || in.Leverage <= 0 {
		return decimal.Zero, nil
	}

	buying := in.Balance.Mul(decimal.NewFromInt(int64(in.Leverage)))

	var maxLot decimal.Decimal
	if in.BalanceCurrency == market.BalanceUSD {
		maxLot = buying.Div(lotUnits)
	} else {
		if !rate.IsPositive() {
			return decimal.Zero, nil
		}
		maxLot = buying.Div(rate.Mul(maxLotDivisorJPY))
	}

	maxLot = maxLot.Round(2)
	if !maxLot.IsPositive() {
		return decimal.Zero, nil
	}
	return maxLot, nil
}

// RequiredMargin is the margin, in the balance currency, needed to hold
// lotSize lots of the traded currency at the given leverage.
func RequiredMargin(in PositionInputs, lotSize decimal.Decimal, rates market.RateTable) (decimal.Decimal, error) {
	rate, err := rates.Get(in.Traded)
	if err != nil {
		return decimal.Zero, err
	}
	if in.Leverage <= 0 {
		return decimal.Zero, nil
	}

	leverage := decimal.NewFromInt(int64(in.Leverage))
	position := lotSize.Mul(lotUnits)

	switch {
	case in.BalanceCurrency == market.BalanceJPY:
		return position.Mul(rate).Div(leverage), nil
	case in.Traded == market.USD:
		return position.Div(leverage), nil
	default:
		usdjpy := rates.USDJPY()
		if !usdjpy.IsPositive() {
			return decimal.Zero, nil
		}
		return position.Mul(rate).Div(leverage).Div(usdjpy), nil
	}
}

// MarginRatioFor projects balance / required margin * 100 for a position of
// lotSize. It is not applicable for JPY, for empty positions and whenever
// the required margin comes out as zero.
func MarginRatioFor(in PositionInputs, lotSize decimal.Decimal, rates market.RateTable) (MarginRatio, error) {
	if _, err := rates.Get(in.Traded); err != nil {
		return MarginRatio{}, err
	}
	if in.Traded == market.JPY || !lotSize.IsPositive() {
		return MarginRatio{}, nil
	}

	required, err := RequiredMargin(in, lotSize, rates)
	if err != nil {
		return MarginRatio{}, err
	}
	if !required.IsPositive() {
		return MarginRatio{}, nil
	}

	return MarginRatio{
		Percent:    in.Balance.Div(required).Mul(hundred).Round(2),
		Applicable: true,
	}, nil
}
