package input

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrRiskPercent = errors.New("risk percent must be between 0.5 and 30.0 in 0.5 steps")
	ErrLeverage    = errors.New("unsupported leverage")
)

// Leverages are the selectable leverage multiples.
var Leverages = []int{1, 2, 5, 10, 25, 50, 100, 200, 400, 500, 888, 1000}

var (
	riskMin  = decimal.RequireFromString("0.5")
	riskMax  = decimal.NewFromInt(30)
	riskStep = decimal.RequireFromString("0.5")
)

// RiskSteps returns the selectable risk percentages 0.5, 1.0, ... 30.0.
func RiskSteps() []decimal.Decimal {
	n := riskMax.Div(riskStep).IntPart()
	steps := make([]decimal.Decimal, 0, n)
	for i := int64(1); i <= n; i++ {
		steps = append(steps, riskStep.Mul(decimal.NewFromInt(i)))
	}
	return steps
}

// ValidRiskPercent reports whether p is one of RiskSteps.
func ValidRiskPercent(p decimal.Decimal) bool {
	if p.LessThan(riskMin) || p.GreaterThan(riskMax) {
		return false
	}
	return p.Mod(riskStep).IsZero()
}

// ParseRiskPercent reads "2.5" or "2.5%".
func ParseRiskPercent(raw string) (decimal.Decimal, error) {
	s := strings.TrimSuffix(strings.TrimSpace(raw), "%")
	p, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrRiskPercent, raw)
	}
	if !ValidRiskPercent(p) {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrRiskPercent, p)
	}
	return p, nil
}

func ValidLeverage(l int) bool {
	for _, v := range Leverages {
		if v == l {
			return true
		}
	}
	return false
}

// ParseLeverage reads "500", "500x" or "1:500".
func ParseLeverage(raw string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimSuffix(s, "x")
	s = strings.TrimPrefix(s, "1:")
	l, err := strconv.Atoi(s)
	if err != nil || !ValidLeverage(l) {
		return 0, fmt.Errorf("%w: %q", ErrLeverage, raw)
	}
	return l, nil
}
