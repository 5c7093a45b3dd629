package pricing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/fxlot/market"
	"github.com/rustyeddy/fxlot/quote"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// DefaultRequestDelay is the spacing the free quote tier requires.
const DefaultRequestDelay = 12 * time.Second

// QuoteSource returns the price of one unit of from in to.
type QuoteSource interface {
	ExchangeRate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// Recorder persists successful fetches.
type Recorder interface {
	RecordRates(ctx context.Context, snap Snapshot) error
}

type FetchErrorKind int

const (
	RequestFailed FetchErrorKind = iota
	RateLimited
	AlreadyInProgress
)

func (k FetchErrorKind) String() string {
	switch k {
	case RateLimited:
		return "rate_limited"
	case AlreadyInProgress:
		return "already_in_progress"
	default:
		return "request_failed"
	}
}

// FetchError is returned by Fetch. Its message is meant for the user.
type FetchError struct {
	Kind     FetchErrorKind
	Currency market.Currency
	Err      error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case RateLimited:
		return "rate limit reached, try again in a minute"
	case AlreadyInProgress:
		return "a rate update is already in progress"
	default:
		if e.Err != nil {
			return fmt.Sprintf("failed to fetch %s/JPY rate: %v", e.Currency, e.Err)
		}
		return fmt.Sprintf("failed to fetch %s/JPY rate", e.Currency)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsKind reports whether err is a *FetchError of kind k.
func IsKind(err error, k FetchErrorKind) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == k
}

// Status describes the fetcher for display next to the rate table.
type Status struct {
	InProgress  bool
	LastError   string
	LastSuccess time.Time
}

// Fetcher refreshes a RateStore from a QuoteSource, one currency at a
// time. A fetch either replaces the whole table or leaves it untouched.
type Fetcher struct {
	source   QuoteSource
	store    *RateStore
	limiter  *rate.Limiter
	recorder Recorder
	now      func() time.Time
	log      zerolog.Logger

	busy atomic.Bool

	mu     sync.Mutex
	status Status
}

type FetcherOption func(*Fetcher)

// WithRecorder saves every successful snapshot.
func WithRecorder(r Recorder) FetcherOption {
	return func(f *Fetcher) { f.recorder = r }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) FetcherOption {
	return func(f *Fetcher) { f.now = now }
}

// NewFetcher builds a fetcher whose requests are at least delay apart.
// A zero delay disables spacing.
func NewFetcher(source QuoteSource, store *RateStore, delay time.Duration, log zerolog.Logger, opts ...FetcherOption) *Fetcher {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}

	f := &Fetcher{
		source:  source,
		store:   store,
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
		log:     log.With().Str("component", "rate_fetcher").Logger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch requests every quoted currency against JPY in order and, when all
// succeed, swaps the new table into the store. The first failure aborts
// the run and the store keeps its previous table.
//
// Once started a fetch is not interrupted by ctx; a caller that no longer
// wants the result simply ignores it.
func (f *Fetcher) Fetch(ctx context.Context) (market.RateTable, error) {
	if !f.busy.CompareAndSwap(false, true) {
		return market.RateTable{}, &FetchError{Kind: AlreadyInProgress}
	}
	defer f.busy.Store(false)

	f.setInProgress()
	return f.run(ctx)
}

// FetchAsync starts a fetch in the background and returns at once. It
// fails with AlreadyInProgress exactly when Fetch would. done, when not
// nil, receives the outcome.
func (f *Fetcher) FetchAsync(ctx context.Context, done func(market.RateTable, error)) error {
	if !f.busy.CompareAndSwap(false, true) {
		return &FetchError{Kind: AlreadyInProgress}
	}

	f.setInProgress()
	go func() {
		tbl, err := f.run(ctx)
		f.busy.Store(false)
		if done != nil {
			done(tbl, err)
		}
	}()
	return nil
}

func (f *Fetcher) run(ctx context.Context) (market.RateTable, error) {
	ctx = context.WithoutCancel(ctx)

	tbl, err := f.fetchAll(ctx)
	if err != nil {
		f.finish(err, time.Time{})
		f.log.Warn().Err(err).Msg("Rate fetch failed, keeping previous rates")
		return market.RateTable{}, err
	}

	at := f.now()
	f.store.Replace(tbl, at)
	f.finish(nil, at)

	f.log.Info().
		Str("usdjpy", tbl.USDJPY().StringFixed(2)).
		Time("updated_at", at).
		Msg("Rates updated")

	if f.recorder != nil {
		if err := f.recorder.RecordRates(ctx, Snapshot{Rates: tbl, UpdatedAt: at}); err != nil {
			f.log.Warn().Err(err).Msg("Failed to record rate snapshot")
		}
	}

	return tbl, nil
}

func (f *Fetcher) fetchAll(ctx context.Context) (market.RateTable, error) {
	rates := make(map[market.Currency]decimal.Decimal, len(market.Quoted))

	for _, c := range market.Quoted {
		if err := f.limiter.Wait(ctx); err != nil {
			return market.RateTable{}, &FetchError{Kind: RequestFailed, Currency: c, Err: err}
		}

		f.log.Debug().Str("currency", string(c)).Msg("Requesting quote")

		r, err := f.source.ExchangeRate(ctx, string(c), string(market.JPY))
		if err != nil {
			if errors.Is(err, quote.ErrRateLimited) {
				return market.RateTable{}, &FetchError{Kind: RateLimited, Currency: c, Err: err}
			}
			return market.RateTable{}, &FetchError{Kind: RequestFailed, Currency: c, Err: err}
		}
		rates[c] = r.Round(2)
	}

	tbl, err := market.NewRateTable(rates)
	if err != nil {
		return market.RateTable{}, &FetchError{Kind: RequestFailed, Err: err}
	}
	return tbl, nil
}

// Status reports whether a fetch is running and how the last one ended.
func (f *Fetcher) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *Fetcher) setInProgress() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.InProgress = true
}

func (f *Fetcher) finish(err error, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.status.InProgress = false
	if err != nil {
		f.status.LastError = err.Error()
		return
	}
	f.status.LastError = ""
	f.status.LastSuccess = at
}
