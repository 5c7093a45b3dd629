// Package input turns raw text typed into the calculator into numbers and
// renders numbers back to the text shown next to the inputs.
//
// Parsing never fails: malformed text is coerced to zero so that a result
// can always be rendered.
package input

import (
	"strconv"
	"strings"

	"github.com/rustyeddy/fxlot/market"
	"github.com/shopspring/decimal"
)

// ParseBalance reads an account balance typed in unit.
//
// JPY keeps digits only (thousands separators and anything else are
// dropped). USD keeps digits and the first decimal point; later points are
// dropped. Empty or unparsable text yields zero.
func ParseBalance(raw string, unit market.BalanceCurrency) decimal.Decimal {
	var s string
	if unit == market.BalanceUSD {
		s = keepDecimal(raw)
	} else {
		s = keepDigits(raw)
	}
	if s == "" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatBalance renders v in unit: JPY as a grouped integer ("1,000,000"),
// USD with exactly two decimals ("10000.00").
func FormatBalance(v decimal.Decimal, unit market.BalanceCurrency) string {
	if unit == market.BalanceUSD {
		return v.StringFixed(2)
	}
	return groupThousands(v.Round(0).String())
}

// ParseStopLossPips keeps the digits of raw. Empty or overflowing input is 0.
func ParseStopLossPips(raw string) int64 {
	s := keepDigits(raw)
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// FormatLots renders a lot size with two decimals.
func FormatLots(v decimal.Decimal) string {
	return v.StringFixed(2)
}

// FormatPercent renders a percentage with two decimals and a % sign.
func FormatPercent(v decimal.Decimal) string {
	return v.StringFixed(2) + "%"
}

// FormatAmount renders an amount in unit with grouping in both currencies
// ("25,000" / "1,234.56").
func FormatAmount(v decimal.Decimal, unit market.BalanceCurrency) string {
	if unit == market.BalanceUSD {
		s := v.StringFixed(2)
		i := strings.IndexByte(s, '.')
		return groupThousands(s[:i]) + s[i:]
	}
	return groupThousands(v.Round(0).String())
}

func keepDigits(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func keepDecimal(raw string) string {
	var b strings.Builder
	seenPoint := false
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' && !seenPoint:
			seenPoint = true
			b.WriteRune(r)
		}
	}

	s := b.String()
	if s == "." {
		return ""
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	return strings.TrimSuffix(s, ".")
}

func groupThousands(digits string) string {
	neg := strings.HasPrefix(digits, "-")
	digits = strings.TrimPrefix(digits, "-")

	n := len(digits)
	if n <= 3 {
		if neg {
			return "-" + digits
		}
		return digits
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 && !(neg && b.Len() == 1) {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
