package journal

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rustyeddy/fxlot/market"
	"github.com/rustyeddy/fxlot/pkg/id"
	"github.com/rustyeddy/fxlot/pricing"
	"github.com/shopspring/decimal"
)

type SQLite struct {
	db *sql.DB
}

var _ Journal = (*SQLite)(nil)

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

// RecordRates stores snap under a new ULID derived from its update time,
// so snapshot ids sort in fetch order.
func (j *SQLite) RecordRates(ctx context.Context, snap pricing.Snapshot) error {
	sid := id.At(snap.UpdatedAt)

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO rate_snapshots (snapshot_id, fetched_at)
		VALUES (?, ?)`,
		sid, snap.UpdatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	for c, r := range snap.Rates.Map() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO snapshot_rates (snapshot_id, currency, jpy_per_unit)
			VALUES (?, ?, ?)`,
			sid, string(c), r.String(),
		); err != nil {
			return fmt.Errorf("insert %s rate: %w", c, err)
		}
	}

	return tx.Commit()
}

// Latest returns the most recent snapshot or ErrNoSnapshots.
func (j *SQLite) Latest(ctx context.Context) (RateSnapshot, error) {
	recs, err := j.List(ctx, 1)
	if err != nil {
		return RateSnapshot{}, err
	}
	if len(recs) == 0 {
		return RateSnapshot{}, ErrNoSnapshots
	}
	return recs[0], nil
}

// List returns up to limit snapshots, newest first.
func (j *SQLite) List(ctx context.Context, limit int) ([]RateSnapshot, error) {
	if limit <= 0 {
		limit = 1
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT snapshot_id, fetched_at
		FROM rate_snapshots
		ORDER BY snapshot_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}

	var out []RateSnapshot
	for rows.Next() {
		var rec RateSnapshot
		if err := rows.Scan(&rec.ID, &rec.FetchedAt); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range out {
		tbl, err := j.loadRates(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Rates = tbl
	}
	return out, nil
}

func (j *SQLite) loadRates(ctx context.Context, snapshotID string) (market.RateTable, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT currency, jpy_per_unit
		FROM snapshot_rates
		WHERE snapshot_id = ?`, snapshotID)
	if err != nil {
		return market.RateTable{}, err
	}
	defer rows.Close()

	rates := make(map[market.Currency]decimal.Decimal)
	for rows.Next() {
		var code, value string
		if err := rows.Scan(&code, &value); err != nil {
			return market.RateTable{}, err
		}
		c, err := market.ParseCurrency(code)
		if err != nil {
			return market.RateTable{}, fmt.Errorf("snapshot %s: %w", snapshotID, err)
		}
		r, err := decimal.NewFromString(value)
		if err != nil {
			return market.RateTable{}, fmt.Errorf("snapshot %s: rate %s: %w", snapshotID, code, err)
		}
		rates[c] = r
	}
	if err := rows.Err(); err != nil {
		return market.RateTable{}, err
	}

	tbl, err := market.NewRateTable(rates)
	if err != nil {
		return market.RateTable{}, fmt.Errorf("snapshot %s: %w", snapshotID, err)
	}
	return tbl, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
