// market/currency.go
package market

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnknownCurrency is returned for any code outside the supported set.
var ErrUnknownCurrency = errors.New("unknown currency")

// Currency is the traded leg of a pair quoted against JPY.
type Currency string

const (
	JPY Currency = "JPY"
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	AUD Currency = "AUD"
	NZD Currency = "NZD"
	CAD Currency = "CAD"
	CHF Currency = "CHF"
)

// Currencies lists every tradable currency in display order.
var Currencies = []Currency{JPY, USD, EUR, GBP, AUD, NZD, CAD, CHF}

// Quoted lists the currencies whose JPY rate has to be fetched.
var Quoted = []Currency{USD, EUR, GBP, AUD, NZD, CAD, CHF}

func (c Currency) Valid() bool {
	for _, k := range Currencies {
		if k == c {
			return true
		}
	}
	return false
}

func (c Currency) String() string { return string(c) }

// Pair returns the display name of the pair against JPY ("USD/JPY").
// JPY on its own has no pair.
func (c Currency) Pair() string {
	if c == JPY {
		return string(JPY)
	}
	return string(c) + "/" + string(JPY)
}

// ParseCurrency accepts codes case-insensitively.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, s)
	}
	return c, nil
}

// BalanceCurrency is the denomination of the trading account.
type BalanceCurrency string

const (
	BalanceJPY BalanceCurrency = "JPY"
	BalanceUSD BalanceCurrency = "USD"
)

var BalanceCurrencies = []BalanceCurrency{BalanceJPY, BalanceUSD}

func (b BalanceCurrency) Valid() bool {
	return b == BalanceJPY || b == BalanceUSD
}

func (b BalanceCurrency) String() string { return string(b) }

// Places is the number of decimals amounts in b are kept to.
func (b BalanceCurrency) Places() int32 {
	if b == BalanceUSD {
		return 2
	}
	return 0
}

// Round rounds d to the precision of b, half away from zero.
func (b BalanceCurrency) Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(b.Places())
}

// Other returns the opposite balance currency.
func (b BalanceCurrency) Other() BalanceCurrency {
	if b == BalanceUSD {
		return BalanceJPY
	}
	return BalanceUSD
}

// Currency maps the balance denomination onto the traded enumeration.
func (b BalanceCurrency) Currency() Currency {
	return Currency(b)
}

func ParseBalanceCurrency(s string) (BalanceCurrency, error) {
	b := BalanceCurrency(strings.ToUpper(strings.TrimSpace(s)))
	if !b.Valid() {
		return "", fmt.Errorf("%w: balance currency %q", ErrUnknownCurrency, s)
	}
	return b, nil
}
