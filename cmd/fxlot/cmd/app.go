package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/fxlot/config"
	"github.com/rustyeddy/fxlot/internal/logger"
	"github.com/rustyeddy/fxlot/journal"
	"github.com/rustyeddy/fxlot/pricing"
	"github.com/rustyeddy/fxlot/quote"
)

// app is the wiring shared by every subcommand.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	journal *journal.SQLite
	store   *pricing.RateStore
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		c, err := config.LoadFromFile(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	}

	if err := cfg.ApplyEnv(envFile); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newApp loads the configuration, opens the journal when enabled and seeds
// the rate store from the newest journaled snapshot, falling back to the
// configured table.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg: cfg,
		log: logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty}),
	}
	logger.SetGlobalLogger(a.log)

	seed, err := cfg.RateTable()
	if err != nil {
		return nil, err
	}
	a.store = pricing.NewRateStore(seed, time.Now())

	if !cfg.Journal.Enabled {
		return a, nil
	}

	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	a.journal = j

	last, err := j.Latest(ctx)
	switch {
	case errors.Is(err, journal.ErrNoSnapshots):
		a.log.Debug().Msg("Rate journal is empty, using configured rates")
	case err != nil:
		a.log.Warn().Err(err).Msg("Failed to read latest rate snapshot, using configured rates")
	default:
		a.store.Replace(last.Rates, last.FetchedAt)
		a.log.Debug().Str("snapshot", last.ID).Msg("Seeded rates from journal")
	}
	return a, nil
}

// fetcher builds the rate fetcher. It fails without an API key.
func (a *app) fetcher() (*pricing.Fetcher, error) {
	p := a.cfg.Provider
	if p.APIKey == "" {
		return nil, fmt.Errorf("no API key: set provider.api_key or FXLOT_API_KEY")
	}

	delay, err := p.ParseRequestDelay()
	if err != nil {
		return nil, err
	}
	timeout, err := p.ParseTimeout()
	if err != nil {
		return nil, err
	}

	opts := []quote.Option{quote.WithBaseURL(p.BaseURL)}
	if timeout > 0 {
		opts = append(opts, quote.WithTimeout(timeout))
	}
	client := quote.NewClient(p.APIKey, opts...)

	var fopts []pricing.FetcherOption
	if a.journal != nil {
		fopts = append(fopts, pricing.WithRecorder(a.journal))
	}
	return pricing.NewFetcher(client, a.store, delay, a.log, fopts...), nil
}

func (a *app) Close() error {
	if a.journal != nil {
		return a.journal.Close()
	}
	return nil
}
