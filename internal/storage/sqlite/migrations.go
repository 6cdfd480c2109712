package sqlite

import "database/sql"

// schema holds the snapshot table. Each row is one keyed JSON document;
// the cap table lives under storage.SnapshotKey.
const schema = `
CREATE TABLE IF NOT EXISTS state (
    key TEXT PRIMARY KEY,
    payload BLOB NOT NULL,
    saved_at INTEGER NOT NULL
);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
