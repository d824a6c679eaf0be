package cli

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/histview/internal/api"
	"github.com/runnerr0/histview/internal/apitest"
	"github.com/runnerr0/histview/internal/config"
	"github.com/runnerr0/histview/internal/storage"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// setupEnv wires an env against a fake API server and an in-memory state store.
func setupEnv(t *testing.T) (*env, *apitest.Server) {
	t.Helper()

	srv := apitest.New(t)
	client, err := api.NewClient(srv.URL, 5*time.Second, nil)
	require.NoError(t, err)

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, storage.NewMigrationRunner(db).Run())
	store, err := storage.NewSQLiteStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := config.DefaultConfig()
	cfg.Server.URL = srv.URL
	cfg.Paging.PageSize = 10
	cfg.Export.Dir = t.TempDir()

	e := newEnv(cfg, client, store, nil)
	e.statePath = ":memory:"
	return e, srv
}

// activate registers a sample file on the server and makes it active.
func activate(t *testing.T, e *env, srv *apitest.Server) string {
	t.Helper()
	id := srv.AddFile(apitest.SampleDataset(25))
	require.NoError(t, e.store.SetActiveFileID(context.Background(), id))
	return id
}

// writeArtifact creates a stand-in history file.
func writeArtifact(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("SQLite format 3\x00"), 0644))
	return path
}
