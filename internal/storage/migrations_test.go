package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// Every pooled connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, kind, name string) bool {
	t.Helper()
	var got string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = ? AND name = ?", kind, name).Scan(&got)
	if err == sql.ErrNoRows {
		return false
	}
	require.NoError(t, err)
	return true
}

func TestMigrationRunner_CreatesClientSchema(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewMigrationRunner(db).Run())

	for _, table := range []string{"client_state", "recent_files", "schema_migrations"} {
		assert.True(t, tableExists(t, db, "table", table), "table %s", table)
	}
	assert.True(t, tableExists(t, db, "index", "idx_recent_files_opened"))
}

func TestMigrationRunner_RunTwiceRecordsOnce(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewMigrationRunner(db).Run())
	require.NoError(t, NewMigrationRunner(db).Run())

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, len(migrations), count)

	var name string
	require.NoError(t, db.QueryRow("SELECT name FROM schema_migrations WHERE version = 1").Scan(&name))
	assert.Equal(t, "client_state", name)
}

func TestMigrationRunner_SkipsRecordedVersions(t *testing.T) {
	db := openTestDB(t)
	calls := 0
	r := &MigrationRunner{db: db, migrations: []migration{
		{Version: 1, Name: "first", Apply: func(tx *sql.Tx) error { calls++; return nil }},
	}}
	require.NoError(t, r.Run())
	require.NoError(t, r.Run())
	assert.Equal(t, 1, calls)
}

func TestMigrationRunner_FailedStepRollsBack(t *testing.T) {
	db := openTestDB(t)
	r := &MigrationRunner{db: db, migrations: []migration{
		{Version: 1, Name: "broken", Apply: func(tx *sql.Tx) error {
			if _, err := tx.Exec("CREATE TABLE half_done (id INTEGER)"); err != nil {
				return err
			}
			_, err := tx.Exec("NOT SQL")
			return err
		}},
	}}

	err := r.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply migration 1 (broken)")
	assert.False(t, tableExists(t, db, "table", "half_done"))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Zero(t, count)
}

func TestMigrationRunner_FileDatabaseUsesWAL(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, NewMigrationRunner(db).Run())

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestMigrationRunner_ClientStateKeyUnique(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewMigrationRunner(db).Run())

	_, err := db.Exec("INSERT INTO client_state (key, value) VALUES ('k', 'a')")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO client_state (key, value) VALUES ('k', 'b')")
	assert.Error(t, err, "duplicate keys must be rejected")
}

func TestAppliedSchemaVersion(t *testing.T) {
	store := openTestStore(t)
	v, err := store.AppliedSchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion(), v)
	assert.Equal(t, 1, v)
}
