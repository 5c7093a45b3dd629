// market/rates.go
package market

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RateTable holds the price of every Currency in JPY per one unit.
// A RateTable is immutable once built; replace it, never patch it.
type RateTable struct {
	rates map[Currency]decimal.Decimal
}

var defaultRates = map[Currency]string{
	JPY: "1.0000",
	USD: "147.52",
	EUR: "159.83",
	GBP: "186.45",
	AUD: "96.38",
	NZD: "89.72",
	CAD: "108.34",
	CHF: "163.91",
}

// DefaultRates returns the static seed used until a fetch succeeds.
func DefaultRates() RateTable {
	m := make(map[Currency]decimal.Decimal, len(defaultRates))
	for c, s := range defaultRates {
		m[c] = decimal.RequireFromString(s)
	}
	return RateTable{rates: m}
}

// NewRateTable validates rates and copies them into a new table.
// JPY is always pinned to 1; every other code must be present and positive.
func NewRateTable(rates map[Currency]decimal.Decimal) (RateTable, error) {
	m := make(map[Currency]decimal.Decimal, len(Currencies))
	m[JPY] = decimal.NewFromInt(1)

	for c, r := range rates {
		if !c.Valid() {
			return RateTable{}, fmt.Errorf("%w: %q", ErrUnknownCurrency, c)
		}
		if c == JPY {
			if !r.Equal(decimal.NewFromInt(1)) {
				return RateTable{}, fmt.Errorf("JPY rate must be 1, got %s", r)
			}
			continue
		}
		if !r.IsPositive() {
			return RateTable{}, fmt.Errorf("rate for %s must be positive, got %s", c, r)
		}
		m[c] = r
	}

	for _, c := range Quoted {
		if _, ok := m[c]; !ok {
			return RateTable{}, fmt.Errorf("rate for %s is missing", c)
		}
	}
	return RateTable{rates: m}, nil
}

// Get returns the JPY price of one unit of c.
func (t RateTable) Get(c Currency) (decimal.Decimal, error) {
	r, ok := t.rates[c]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownCurrency, c)
	}
	return r, nil
}

// USDJPY is the JPY price of one US dollar, zero for an empty table.
func (t RateTable) USDJPY() decimal.Decimal {
	return t.rates[USD]
}

func (t RateTable) Len() int {
	return len(t.rates)
}

// Map returns a copy of the table contents.
func (t RateTable) Map() map[Currency]decimal.Decimal {
	m := make(map[Currency]decimal.Decimal, len(t.rates))
	for c, r := range t.rates {
		m[c] = r
	}
	return m
}

// Equal reports whether both tables hold the same rates.
func (t RateTable) Equal(o RateTable) bool {
	if len(t.rates) != len(o.rates) {
		return false
	}
	for c, r := range t.rates {
		or, ok := o.rates[c]
		if !ok || !or.Equal(r) {
			return false
		}
	}
	return true
}
