// Package calc is the boundary between raw calculator input and the
// numeric engine. A Request holds the text as typed; a View holds every
// string a caller needs to render the result.
package calc

import (
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/fxlot/input"
	"github.com/rustyeddy/fxlot/market"
	"github.com/rustyeddy/fxlot/pricing"
	"github.com/rustyeddy/fxlot/risk"
	"github.com/shopspring/decimal"
)

// ErrInvalidRequest wraps every rejected selection. Free text fields are
// never rejected; they are coerced to zero instead.
var ErrInvalidRequest = errors.New("invalid request")

const (
	notApplicable   = "N/A"
	lastUpdatedForm = "2006/1/2 15:04"
)

type Request struct {
	Balance         string          `json:"balance"`
	BalanceCurrency string          `json:"balance_currency"`
	StopLossPips    string          `json:"stop_loss_pips"`
	RiskPercent     decimal.Decimal `json:"risk_percent"`
	Traded          string          `json:"traded"`
	Leverage        int             `json:"leverage"`
}

type View struct {
	Balance              string `json:"balance"`
	BalanceCurrency      string `json:"balance_currency"`
	Traded               string `json:"traded"`
	RiskPercent          string `json:"risk_percent"`
	StopLossPips         int64  `json:"stop_loss_pips"`
	Leverage             int    `json:"leverage"`
	LotSize              string `json:"lot_size"`
	RiskAmount           string `json:"risk_amount"`
	RiskAmountEquivalent string `json:"risk_amount_equivalent"`
	EquivalentCurrency   string `json:"equivalent_currency"`
	PipValue             string `json:"pip_value"`
	MaxLotSize           string `json:"max_lot_size"`
	MarginRatio          string `json:"margin_ratio"`
	MarginBand           string `json:"margin_band"`
	Rate                 string `json:"rate"`
	LastUpdated          string `json:"last_updated"`
	FetchError           string `json:"fetch_error,omitempty"`
}

// Inputs validates the selections in req and normalizes its text fields.
func (req Request) Inputs() (risk.PositionInputs, error) {
	bc, err := market.ParseBalanceCurrency(req.BalanceCurrency)
	if err != nil {
		return risk.PositionInputs{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	traded, err := market.ParseCurrency(req.Traded)
	if err != nil {
		return risk.PositionInputs{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if !input.ValidRiskPercent(req.RiskPercent) {
		return risk.PositionInputs{}, fmt.Errorf("%w: %w: %s", ErrInvalidRequest, input.ErrRiskPercent, req.RiskPercent)
	}
	if !input.ValidLeverage(req.Leverage) {
		return risk.PositionInputs{}, fmt.Errorf("%w: %w: %d", ErrInvalidRequest, input.ErrLeverage, req.Leverage)
	}

	return risk.PositionInputs{
		Balance:         input.ParseBalance(req.Balance, bc),
		RiskPercent:     req.RiskPercent,
		StopLossPips:    input.ParseStopLossPips(req.StopLossPips),
		Traded:          traded,
		BalanceCurrency: bc,
		Leverage:        req.Leverage,
	}, nil
}

// Evaluate recomputes req against the rate table held by snap.
func Evaluate(req Request, snap pricing.Snapshot) (View, error) {
	in, err := req.Inputs()
	if err != nil {
		return View{}, err
	}

	res, err := risk.Recompute(in, snap.Rates)
	if err != nil {
		return View{}, err
	}

	rate, err := snap.Rates.Get(in.Traded)
	if err != nil {
		return View{}, err
	}

	other := in.BalanceCurrency.Other()
	v := View{
		Balance:              input.FormatBalance(in.BalanceCurrency.Round(in.Balance), in.BalanceCurrency),
		BalanceCurrency:      in.BalanceCurrency.String(),
		Traded:               in.Traded.String(),
		RiskPercent:          in.RiskPercent.StringFixed(1) + "%",
		StopLossPips:         in.StopLossPips,
		Leverage:             in.Leverage,
		LotSize:              input.FormatLots(res.LotSize),
		RiskAmount:           input.FormatAmount(res.RiskAmount, in.BalanceCurrency),
		RiskAmountEquivalent: input.FormatAmount(res.RiskAmountEquivalent, other),
		EquivalentCurrency:   other.String(),
		PipValue:             input.FormatAmount(res.PipValue, in.BalanceCurrency),
		MaxLotSize:           input.FormatLots(res.MaxLotSize),
		MarginRatio:          notApplicable,
		MarginBand:           res.MarginRatio.Band().String(),
		Rate:                 FormatRate(in.Traded, rate),
		LastUpdated:          FormatUpdated(snap.UpdatedAt),
	}
	if res.MarginRatio.Applicable {
		v.MarginRatio = input.FormatPercent(res.MarginRatio.Percent)
	}
	return v, nil
}

// FormatRate renders the price line for c: "USD/JPY = 147.52", "JPY = 1.0000".
func FormatRate(c market.Currency, rate decimal.Decimal) string {
	if c == market.JPY {
		return fmt.Sprintf("%s = %s", c.Pair(), rate.StringFixed(4))
	}
	return fmt.Sprintf("%s = %s", c.Pair(), rate.StringFixed(2))
}

// FormatUpdated renders a last-updated time as "2025/7/1 09:30", or "-"
// when the table was never stamped.
func FormatUpdated(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(lastUpdatedForm)
}

// SwitchBalanceCurrency converts the balance text typed in from into the
// text shown after switching the unit to to. Only a strictly positive
// balance is converted; anything else renders as zero in the new unit.
func SwitchBalanceCurrency(balance string, from, to market.BalanceCurrency, rates market.RateTable) string {
	v := input.ParseBalance(balance, from)
	if !v.IsPositive() {
		return input.FormatBalance(decimal.Zero, to)
	}
	return input.FormatBalance(market.ConvertBalance(v, from, to, rates), to)
}
