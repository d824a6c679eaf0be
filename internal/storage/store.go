package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Store defines the durable client-side state used by histview.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error

	ActiveFileID(ctx context.Context) (string, error)
	SetActiveFileID(ctx context.Context, fileID string) error
	ClearActiveFileID(ctx context.Context) error

	RecordFile(ctx context.Context, rec FileRecord) error
	TouchFile(ctx context.Context, fileID string, at time.Time) error
	GetFile(ctx context.Context, fileID string) (*FileRecord, error)
	ListFiles(ctx context.Context, limit int) ([]FileRecord, error)
	ForgetFile(ctx context.Context, fileID string) error

	Close() error
}

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	// Prepared statements
	getState    *sql.Stmt
	setState    *sql.Stmt
	deleteState *sql.Stmt
	upsertFile  *sql.Stmt
	getFile     *sql.Stmt
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.getState, err = s.db.Prepare(`SELECT value FROM client_state WHERE key = ?`)
	if err != nil {
		return err
	}

	s.setState, err = s.db.Prepare(`
		INSERT INTO client_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`)
	if err != nil {
		return err
	}

	s.deleteState, err = s.db.Prepare(`DELETE FROM client_state WHERE key = ?`)
	if err != nil {
		return err
	}

	s.upsertFile, err = s.db.Prepare(`
		INSERT INTO recent_files (file_id, filename, browser_type, total_entries, uploaded_at, last_opened_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_id) DO UPDATE SET
			filename       = excluded.filename,
			browser_type   = excluded.browser_type,
			total_entries  = excluded.total_entries,
			last_opened_at = excluded.last_opened_at
	`)
	if err != nil {
		return err
	}

	s.getFile, err = s.db.Prepare(`
		SELECT file_id, filename, browser_type, total_entries, uploaded_at, last_opened_at
		FROM recent_files WHERE file_id = ?
	`)
	if err != nil {
		return err
	}

	return nil
}

// parseTimestamp tries several common SQLite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05.999999999-07:00",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

// tsLayout has a fixed-width fraction so stored values sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

// Get returns the value stored under key. The bool reports whether the key exists.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.getState.QueryRowContext(ctx, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get state %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	if _, err := s.setState.ExecContext(ctx, key, value, formatTimestamp(time.Now())); err != nil {
		return fmt.Errorf("set state %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.deleteState.ExecContext(ctx, key); err != nil {
		return fmt.Errorf("delete state %q: %w", key, err)
	}
	return nil
}

// ActiveFileID returns the persisted file id, or "" when none is set.
func (s *SQLiteStore) ActiveFileID(ctx context.Context) (string, error) {
	id, _, err := s.Get(ctx, KeyCurrentFileID)
	return id, err
}

// SetActiveFileID persists fileID as the active file.
func (s *SQLiteStore) SetActiveFileID(ctx context.Context, fileID string) error {
	if fileID == "" {
		return fmt.Errorf("empty file id")
	}
	return s.Set(ctx, KeyCurrentFileID, fileID)
}

// ClearActiveFileID forgets the active file id.
func (s *SQLiteStore) ClearActiveFileID(ctx context.Context) error {
	return s.Delete(ctx, KeyCurrentFileID)
}

// RecordFile inserts or refreshes a recent-file record. UploadedAt is kept
// from the first insert.
func (s *SQLiteStore) RecordFile(ctx context.Context, rec FileRecord) error {
	if rec.FileID == "" {
		return fmt.Errorf("empty file id")
	}
	now := time.Now()
	if rec.UploadedAt.IsZero() {
		rec.UploadedAt = now
	}
	if rec.LastOpenedAt.IsZero() {
		rec.LastOpenedAt = now
	}

	_, err := s.upsertFile.ExecContext(ctx,
		rec.FileID, rec.Filename, rec.BrowserType, rec.TotalEntries,
		formatTimestamp(rec.UploadedAt), formatTimestamp(rec.LastOpenedAt),
	)
	if err != nil {
		return fmt.Errorf("record file: %w", err)
	}
	return nil
}

// TouchFile updates last_opened_at for a known file. Unknown ids are ignored.
func (s *SQLiteStore) TouchFile(ctx context.Context, fileID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE recent_files SET last_opened_at = ? WHERE file_id = ?",
		formatTimestamp(at), fileID,
	)
	if err != nil {
		return fmt.Errorf("touch file: %w", err)
	}
	return nil
}

// GetFile returns the record for fileID or ErrNotFound.
func (s *SQLiteStore) GetFile(ctx context.Context, fileID string) (*FileRecord, error) {
	var rec FileRecord
	var uploaded, opened string

	err := s.getFile.QueryRowContext(ctx, fileID).Scan(
		&rec.FileID, &rec.Filename, &rec.BrowserType, &rec.TotalEntries, &uploaded, &opened,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("file %s: %w", fileID, ErrNotFound)
		}
		return nil, fmt.Errorf("get file: %w", err)
	}

	rec.UploadedAt, _ = parseTimestamp(uploaded)
	rec.LastOpenedAt, _ = parseTimestamp(opened)
	return &rec, nil
}

// ListFiles returns recent files, most recently opened first.
func (s *SQLiteStore) ListFiles(ctx context.Context, limit int) ([]FileRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT file_id, filename, browser_type, total_entries, uploaded_at, last_opened_at
		FROM recent_files
		ORDER BY last_opened_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	files := []FileRecord{}
	for rows.Next() {
		var rec FileRecord
		var uploaded, opened string
		if err := rows.Scan(
			&rec.FileID, &rec.Filename, &rec.BrowserType, &rec.TotalEntries, &uploaded, &opened,
		); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		rec.UploadedAt, _ = parseTimestamp(uploaded)
		rec.LastOpenedAt, _ = parseTimestamp(opened)
		files = append(files, rec)
	}

	return files, rows.Err()
}

// ForgetFile removes a recent-file record, and clears the active id when it
// points at the same file.
func (s *SQLiteStore) ForgetFile(ctx context.Context, fileID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, "DELETE FROM recent_files WHERE file_id = ?", fileID)
	if err != nil {
		return fmt.Errorf("forget file: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return err
	}

	res, err = tx.ExecContext(ctx,
		"DELETE FROM client_state WHERE key = ? AND value = ?",
		KeyCurrentFileID, fileID,
	)
	if err != nil {
		return fmt.Errorf("clear active file: %w", err)
	}
	cleared, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if removed == 0 && cleared == 0 {
		return fmt.Errorf("file %s: %w", fileID, ErrNotFound)
	}

	return tx.Commit()
}

// AppliedSchemaVersion returns the newest migration recorded in the
// database, or 0 for a database that was never migrated.
func (s *SQLiteStore) AppliedSchemaVersion(ctx context.Context) (int, error) {
	var v sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(v.Int64), nil
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{
		s.getState, s.setState, s.deleteState, s.upsertFile, s.getFile,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
