package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rustyeddy/fxlot/market"
	"github.com/rustyeddy/fxlot/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func fetchedTable(t *testing.T, usd string) market.RateTable {
	t.Helper()

	m := market.DefaultRates().Map()
	m[market.USD] = decimal.RequireFromString(usd)
	tbl, err := market.NewRateTable(m)
	require.NoError(t, err)
	return tbl
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('rate_snapshots','snapshot_rates')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	assert.True(t, found["rate_snapshots"])
	assert.True(t, found["snapshot_rates"])
}

func TestSQLiteRecordRates(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	ctx := context.Background()

	at := time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC)
	snap := pricing.Snapshot{Rates: fetchedTable(t, "150.25"), UpdatedAt: at}

	require.NoError(t, j.RecordRates(ctx, snap))
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var (
		snapshotID string
		fetchedAt  time.Time
	)
	err = db.QueryRow(`SELECT snapshot_id, fetched_at FROM rate_snapshots LIMIT 1`).Scan(&snapshotID, &fetchedAt)
	require.NoError(t, err)
	assert.Len(t, snapshotID, 26)
	assert.True(t, fetchedAt.Equal(at))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM snapshot_rates WHERE snapshot_id = ?`, snapshotID).Scan(&count))
	assert.Equal(t, len(market.Currencies), count)

	var usd string
	require.NoError(t, db.QueryRow(`SELECT jpy_per_unit FROM snapshot_rates WHERE snapshot_id = ? AND currency = 'USD'`, snapshotID).Scan(&usd))
	assert.Equal(t, "150.25", usd)
}

func TestSQLiteLatestEmpty(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	_, err := j.Latest(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshots)
}

func TestSQLiteLatestAndList(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })
	ctx := context.Background()

	base := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	usd := []string{"146.10", "147.00", "148.75"}
	for i, u := range usd {
		snap := pricing.Snapshot{
			Rates:     fetchedTable(t, u),
			UpdatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, j.RecordRates(ctx, snap))
	}

	latest, err := j.Latest(ctx)
	require.NoError(t, err)
	assert.True(t, latest.FetchedAt.Equal(base.Add(2*time.Hour)))
	assert.Equal(t, "148.75", latest.Rates.USDJPY().StringFixed(2))
	assert.Equal(t, len(market.Currencies), latest.Rates.Len())

	snap := latest.Snapshot()
	assert.True(t, snap.Rates.Equal(latest.Rates))
	assert.True(t, snap.UpdatedAt.Equal(latest.FetchedAt))

	recs, err := j.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "148.75", recs[0].Rates.USDJPY().StringFixed(2))
	assert.Equal(t, "147.00", recs[1].Rates.USDJPY().StringFixed(2))
	assert.Greater(t, recs[0].ID, recs[1].ID)

	all, err := j.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLiteRatesSurviveReopen(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	ctx := context.Background()

	want := fetchedTable(t, "151.05")
	require.NoError(t, j.RecordRates(ctx, pricing.Snapshot{Rates: want, UpdatedAt: time.Now()}))
	require.NoError(t, j.Close())

	j2, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j2.Close() })

	got, err := j2.Latest(ctx)
	require.NoError(t, err)
	assert.True(t, want.Equal(got.Rates))
}
