// journal/journal.go
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/fxlot/market"
	"github.com/rustyeddy/fxlot/pricing"
)

// ErrNoSnapshots is returned by Latest on an empty journal.
var ErrNoSnapshots = errors.New("no rate snapshots recorded")

// RateSnapshot is one successful rate fetch as stored in the journal.
type RateSnapshot struct {
	ID        string
	FetchedAt time.Time
	Rates     market.RateTable
}

// Snapshot converts the record back into a store snapshot.
func (r RateSnapshot) Snapshot() pricing.Snapshot {
	return pricing.Snapshot{Rates: r.Rates, UpdatedAt: r.FetchedAt}
}

type Journal interface {
	pricing.Recorder
	Latest(ctx context.Context) (RateSnapshot, error)
	List(ctx context.Context, limit int) ([]RateSnapshot, error)
	Close() error
}
