// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS rate_snapshots (
	snapshot_id TEXT PRIMARY KEY,
	fetched_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_rates (
	snapshot_id TEXT NOT NULL REFERENCES rate_snapshots(snapshot_id),
	currency TEXT NOT NULL,
	jpy_per_unit TEXT NOT NULL,
	PRIMARY KEY (snapshot_id, currency)
);

CREATE INDEX IF NOT EXISTS idx_rate_snapshots_fetched_at ON rate_snapshots(fetched_at);
`
