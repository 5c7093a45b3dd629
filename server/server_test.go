package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/fxlot/calc"
	"github.com/rustyeddy/fxlot/journal"
	"github.com/rustyeddy/fxlot/market"
	"github.com/rustyeddy/fxlot/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seededAt = time.Date(2025, 7, 1, 9, 5, 0, 0, time.UTC)

// gateSource answers every request with rate once release is closed.
type gateSource struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
	rate    decimal.Decimal
}

func newGateSource(rate string) *gateSource {
	return &gateSource{
		started: make(chan struct{}),
		release: make(chan struct{}),
		rate:    decimal.RequireFromString(rate),
	}
}

func (g *gateSource) ExchangeRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	g.once.Do(func() { close(g.started) })
	<-g.release
	return g.rate, nil
}

type testEnv struct {
	srv     *Server
	store   *pricing.RateStore
	fetcher *pricing.Fetcher
	journal *journal.SQLite
}

func newTestEnv(t *testing.T, src pricing.QuoteSource) *testEnv {
	t.Helper()

	j, err := journal.NewSQLite(filepath.Join(t.TempDir(), "rates.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	store := pricing.NewRateStore(market.DefaultRates(), seededAt)
	var f *pricing.Fetcher
	if src != nil {
		f = pricing.NewFetcher(src, store, 0, zerolog.Nop(), pricing.WithRecorder(j))
	}

	cfg := Config{
		Addr:    ":0",
		Version: "test",
		Log:     zerolog.Nop(),
		Engine:  calc.NewEngine(store, f),
		Fetcher: f,
		Journal: j,
	}

	return &testEnv{srv: New(cfg), store: store, fetcher: f, journal: j}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestOptions(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/options", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Currencies        []string `json:"currencies"`
		BalanceCurrencies []string `json:"balance_currencies"`
		RiskPercents      []string `json:"risk_percents"`
		Leverages         []int    `json:"leverages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, []string{"JPY", "USD", "EUR", "GBP", "AUD", "NZD", "CAD", "CHF"}, body.Currencies)
	assert.Equal(t, []string{"JPY", "USD"}, body.BalanceCurrencies)
	require.Len(t, body.RiskPercents, 60)
	assert.Equal(t, "0.5", body.RiskPercents[0])
	assert.Equal(t, "30.0", body.RiskPercents[59])
	assert.Contains(t, body.Leverages, 888)
}

func TestRates(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/rates", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[ratesResponse](t, rec)
	assert.Len(t, body.Rates, 8)
	assert.Equal(t, "1.0000", body.Rates["JPY"])
	assert.Equal(t, "147.52", body.Rates["USD"])
	assert.Equal(t, "2025-07-01T09:05:00Z", body.UpdatedAt)
	assert.Equal(t, "2025/7/1 09:05", body.LastUpdated)
	assert.Nil(t, body.Fetch)
}

func TestRefreshNotConfigured(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/rates/refresh", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	src := newGateSource("150.00")
	env := newTestEnv(t, src)

	rec := env.do(t, http.MethodPost, "/api/rates/refresh", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	<-src.started

	rec = env.do(t, http.MethodPost, "/api/rates/refresh", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already in progress")

	rec = env.do(t, http.MethodGet, "/api/rates", nil)
	body := decode[ratesResponse](t, rec)
	require.NotNil(t, body.Fetch)
	assert.True(t, body.Fetch.InProgress)

	close(src.release)
	assert.Eventually(t, func() bool {
		return env.store.Load().Rates.USDJPY().Equal(decimal.RequireFromString("150.00"))
	}, 2*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return !env.fetcher.Status().InProgress
	}, 2*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		rec := env.do(t, http.MethodGet, "/api/rates/history", nil)
		return rec.Code == http.StatusOK && len(decode[[]snapshotResponse](t, rec)) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHistory(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		snap := pricing.Snapshot{Rates: market.DefaultRates(), UpdatedAt: seededAt.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, env.journal.RecordRates(ctx, snap))
	}

	rec := env.do(t, http.MethodGet, "/api/rates/history?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[[]snapshotResponse](t, rec)
	require.Len(t, body, 2)
	assert.Equal(t, "2025-07-01T09:07:00Z", body[0].FetchedAt)
	assert.Equal(t, "147.52", body[0].Rates["USD"])

	rec = env.do(t, http.MethodGet, "/api/rates/history?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalc(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/calc", map[string]any{
		"balance":          "1,000,000",
		"balance_currency": "JPY",
		"stop_loss_pips":   "25",
		"risk_percent":     2.5,
		"traded":           "USD",
		"leverage":         500,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	view := decode[calc.View](t, rec)
	assert.Equal(t, "1.00", view.LotSize)
	assert.Equal(t, "25,000", view.RiskAmount)
	assert.Equal(t, "169.47", view.RiskAmountEquivalent)
	assert.Equal(t, "338.94", view.MaxLotSize)
	assert.Equal(t, "3389.37%", view.MarginRatio)
	assert.Equal(t, "safe", view.MarginBand)
}

func TestCalcRejectsBadInput(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/calc", map[string]any{
		"balance_currency": "JPY",
		"risk_percent":     2.5,
		"traded":           "XAU",
		"leverage":         500,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown currency")

	req := httptest.NewRequest(http.MethodPost, "/api/calc", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConvert(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/convert", convertRequest{Balance: "1,000,000", From: "JPY", To: "usd"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[convertResponse](t, rec)
	assert.Equal(t, "6778.74", body.Balance)
	assert.Equal(t, "USD", body.Currency)

	rec = env.do(t, http.MethodPost, "/api/convert", convertRequest{Balance: "0", From: "USD", To: "JPY"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", decode[convertResponse](t, rec).Balance)

	rec = env.do(t, http.MethodPost, "/api/convert", convertRequest{Balance: "10", From: "USD", To: "EUR"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/calc", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")

	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
