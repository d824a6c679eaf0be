package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/runnerr0/histview/internal/api"
	"github.com/runnerr0/histview/internal/config"
	"github.com/runnerr0/histview/internal/logging"
	"github.com/runnerr0/histview/internal/session"
	"github.com/runnerr0/histview/internal/storage"
)

// env is everything a command needs at run time.
type env struct {
	cfg       *config.Config
	statePath string
	client    *api.Client
	store     *storage.SQLiteStore
	ctrl      *session.Controller
	logger    *slog.Logger

	closers []io.Closer
}

// Close releases the store, database and log file.
func (e *env) Close() error {
	var first error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// newSession returns an idle session sized by the config.
func (e *env) newSession() session.Session {
	return session.New(e.cfg.Paging.PageSize)
}

// loadConfig reads the config file named by --config (or the default) and
// applies the global flag overrides.
func loadConfig(g *GlobalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.Config != "" {
		path, perr := config.ExpandPath(g.Config)
		if perr != nil {
			return nil, perr
		}
		cfg, err = config.LoadOrCreateAt(path)
	} else {
		cfg, err = config.LoadOrCreate()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if g.Server != "" {
		cfg.Server.URL = g.Server
	}
	if g.PageSize != 0 {
		cfg.Paging.PageSize = g.PageSize
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openStateStore opens the client state database at path, runs migrations,
// and returns a ready-to-use store and the underlying *sql.DB.
func openStateStore(path string) (*storage.SQLiteStore, *sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("create state directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	runner := storage.NewMigrationRunner(db)
	if err := runner.Run(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	store, err := storage.NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create store: %w", err)
	}

	return store, db, nil
}

// openEnv builds the runtime from config and global flags.
func openEnv(g *GlobalFlags) (*env, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}

	statePath := g.DBPath
	if statePath == "" {
		if statePath, err = cfg.StatePath(); err != nil {
			return nil, err
		}
	} else if statePath, err = config.ExpandPath(statePath); err != nil {
		return nil, err
	}

	logPath, err := cfg.LogPath()
	if err != nil {
		return nil, err
	}
	logger, logCloser := logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		File:       logPath,
		MaxSizeMB:  cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		Verbose:    g.Verbose,
		Mirror:     os.Stderr,
	})

	client, err := api.NewClient(cfg.Server.URL, cfg.Server.Timeout(), logger)
	if err != nil {
		logCloser.Close()
		return nil, err
	}

	store, db, err := openStateStore(statePath)
	if err != nil {
		logCloser.Close()
		return nil, err
	}

	e := newEnv(cfg, client, store, logger)
	e.statePath = statePath
	e.closers = []io.Closer{logCloser, db, store}
	return e, nil
}

// newEnv wires an env from already-open parts.
func newEnv(cfg *config.Config, client *api.Client, store *storage.SQLiteStore, logger *slog.Logger) *env {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &env{
		cfg:    cfg,
		client: client,
		store:  store,
		ctrl:   session.NewController(client, store, logger),
		logger: logger,
	}
}

// withEnv opens the runtime, runs fn and closes it again.
func withEnv(g *GlobalFlags, fn func(ctx context.Context, e *env) error) error {
	e, err := openEnv(g)
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(context.Background(), e)
}

// jsonOutput reports whether --json was given.
func jsonOutput(g *GlobalFlags) bool {
	return g != nil && g.JSON
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// userError shows the user-facing message of an API failure while keeping
// the original error reachable through errors.Is and errors.As.
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }

func (e *userError) Unwrap() error { return e.err }

// loadError turns a failed upload or page load into the message shown to
// the user. An unknown file id gets a hint about what to do next. Errors
// that did not come from the server are returned unchanged.
func loadError(err error) error {
	var (
		transport *api.TransportError
		server    *api.ServerError
	)
	switch {
	case api.IsInvalidFileID(err):
		msg := api.UserMessage(err) + " (the server no longer has this file; run `histview upload FILE` again)"
		return &userError{msg: msg, err: err}
	case errors.As(err, &transport), errors.As(err, &server):
		return &userError{msg: api.UserMessage(err), err: err}
	default:
		return err
	}
}
