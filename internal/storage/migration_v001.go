package storage

import "database/sql"

// migrateV001 creates the client state schema. Every statement uses
// IF NOT EXISTS for idempotency.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		// ── Tables ──────────────────────────────────────────────

		`CREATE TABLE IF NOT EXISTS client_state (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS recent_files (
			file_id        TEXT PRIMARY KEY,
			filename       TEXT NOT NULL DEFAULT '',
			browser_type   TEXT NOT NULL DEFAULT '',
			total_entries  INTEGER NOT NULL DEFAULT 0,
			uploaded_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_opened_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// ── Indexes ────────────────────────────────────────────

		`CREATE INDEX IF NOT EXISTS idx_recent_files_opened ON recent_files(last_opened_at)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
