package calc

import (
	"fmt"

	"github.com/rustyeddy/fxlot/market"
	"github.com/rustyeddy/fxlot/pricing"
)

// Engine evaluates requests against whatever table the store holds at the
// moment of the call.
type Engine struct {
	store   *pricing.RateStore
	fetcher *pricing.Fetcher
}

// NewEngine builds an engine over store. fetcher may be nil; when set its
// last error is reported on every View.
func NewEngine(store *pricing.RateStore, fetcher *pricing.Fetcher) *Engine {
	return &Engine{store: store, fetcher: fetcher}
}

func (e *Engine) Evaluate(req Request) (View, error) {
	v, err := Evaluate(req, e.store.Load())
	if err != nil {
		return View{}, err
	}
	if e.fetcher != nil {
		v.FetchError = e.fetcher.Status().LastError
	}
	return v, nil
}

// SwitchBalanceCurrency parses both unit codes and converts balance with
// the current table.
func (e *Engine) SwitchBalanceCurrency(balance, from, to string) (string, error) {
	f, err := market.ParseBalanceCurrency(from)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	t, err := market.ParseBalanceCurrency(to)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return SwitchBalanceCurrency(balance, f, t, e.store.Load().Rates), nil
}

func (e *Engine) Snapshot() pricing.Snapshot {
	return e.store.Load()
}
