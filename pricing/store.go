package pricing

import (
	"sync/atomic"
	"time"

	"github.com/rustyeddy/fxlot/market"
)

// Snapshot is a rate table together with the time it became current.
type Snapshot struct {
	Rates     market.RateTable
	UpdatedAt time.Time
}

// RateStore holds the current Snapshot. Replace swaps the whole snapshot
// in one atomic store, so a Load sees either the old table or the new one.
type RateStore struct {
	cur atomic.Pointer[Snapshot]
}

func NewRateStore(rates market.RateTable, at time.Time) *RateStore {
	s := &RateStore{}
	s.Replace(rates, at)
	return s
}

func (s *RateStore) Load() Snapshot {
	if p := s.cur.Load(); p != nil {
		return *p
	}
	return Snapshot{Rates: market.DefaultRates()}
}

func (s *RateStore) Replace(rates market.RateTable, at time.Time) {
	s.cur.Store(&Snapshot{Rates: rates, UpdatedAt: at})
}
