package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/runnerr0/histview/internal/api"
	"github.com/runnerr0/histview/internal/storage"
)

// ErrNoActiveFile is returned when an operation needs a file id and none is
// set in the session or the state store.
var ErrNoActiveFile = errors.New("no active file: upload a history file first")

// Client is the part of the API the controller drives.
type Client interface {
	Upload(ctx context.Context, path string, page, pageSize int) (api.HistoryPage, error)
	LoadPage(ctx context.Context, fileID string, page, pageSize int) (api.HistoryPage, error)
	FetchSyncInfo(ctx context.Context, fileID string) (*api.SyncInfo, error)
}

// StateStore is the durable state the controller keeps in step with the session.
type StateStore interface {
	ActiveFileID(ctx context.Context) (string, error)
	SetActiveFileID(ctx context.Context, fileID string) error
	ForgetFile(ctx context.Context, fileID string) error
	RecordFile(ctx context.Context, rec storage.FileRecord) error
	TouchFile(ctx context.Context, fileID string, at time.Time) error
}

// Result is the outcome of running a Ticket.
type Result struct {
	Ticket Ticket
	Page   api.HistoryPage
	Err    error
}

// Controller performs the I/O behind session transitions. The session value
// itself is owned by the caller.
type Controller struct {
	client Client
	store  StateStore
	logger *slog.Logger
	now    func() time.Time
}

// NewController wires a controller. A nil logger discards output.
func NewController(client Client, store StateStore, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{client: client, store: store, logger: logger, now: time.Now}
}

// ActiveFileID returns the session's file id, falling back to the persisted
// one.
func (c *Controller) ActiveFileID(ctx context.Context, s Session) (string, error) {
	if s.FileID != "" {
		return s.FileID, nil
	}
	id, err := c.store.ActiveFileID(ctx)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", ErrNoActiveFile
	}
	return id, nil
}

// Fetch performs the request for t. It does not touch any state, so it is
// safe to run off the UI loop.
func (c *Controller) Fetch(ctx context.Context, t Ticket) Result {
	var (
		p   api.HistoryPage
		err error
	)
	switch t.Op {
	case OpUpload:
		p, err = c.client.Upload(ctx, t.Path, t.Page, t.PageSize)
	default:
		p, err = c.client.LoadPage(ctx, t.FileID, t.Page, t.PageSize)
	}
	return Result{Ticket: t, Page: p, Err: err}
}

// Apply folds r into s and brings the state store in line with the result.
// Stale results leave s unchanged.
func (c *Controller) Apply(ctx context.Context, s Session, r Result) Session {
	t := r.Ticket
	log := c.logger.With("op", t.Op.String(), "gen", t.Gen)

	if r.Err != nil {
		next, ok := s.Fail(t, r.Err)
		if !ok {
			log.Debug("dropping stale failure", "current_gen", s.Gen, "error", r.Err)
			return s
		}
		if api.IsInvalidFileID(r.Err) {
			log.Warn("server no longer knows file, clearing it", "file_id", t.FileID)
			c.forget(ctx, t.FileID)
		} else {
			log.Warn("load failed", "file_id", t.FileID, "page", t.Page, "error", r.Err)
		}
		return next
	}

	next, ok := s.Complete(t, r.Page)
	if !ok {
		log.Debug("dropping stale response", "current_gen", s.Gen, "page", r.Page.Page)
		return s
	}

	c.persist(ctx, t, next.Page)
	log.Info("page loaded",
		"file_id", next.FileID, "page", next.CurrentPage, "total_pages", next.TotalPages,
		"entries", len(next.Page.Entries))
	return next
}

func (c *Controller) persist(ctx context.Context, t Ticket, p *api.HistoryPage) {
	if p.FileID == "" {
		return
	}
	if err := c.store.SetActiveFileID(ctx, p.FileID); err != nil {
		c.logger.Warn("persist active file id", "error", err)
	}

	now := c.now()
	if t.Op == OpUpload {
		rec := storage.FileRecord{
			FileID:       p.FileID,
			Filename:     filepath.Base(t.Path),
			BrowserType:  p.BrowserType,
			TotalEntries: p.TotalEntries,
			UploadedAt:   now,
			LastOpenedAt: now,
		}
		if err := c.store.RecordFile(ctx, rec); err != nil {
			c.logger.Warn("record recent file", "error", err)
		}
		return
	}
	if err := c.store.TouchFile(ctx, p.FileID, now); err != nil {
		c.logger.Warn("touch recent file", "error", err)
	}
}

func (c *Controller) forget(ctx context.Context, fileID string) {
	if fileID == "" {
		return
	}
	err := c.store.ForgetFile(ctx, fileID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		c.logger.Warn("clear stale file id", "file_id", fileID, "error", err)
	}
}

// Resume reloads page 1 of the persisted file id. With nothing persisted it
// returns s unchanged and ErrNoActiveFile.
func (c *Controller) Resume(ctx context.Context, s Session) (Session, error) {
	id, err := c.store.ActiveFileID(ctx)
	if err != nil {
		return s, err
	}
	if id == "" {
		return s, ErrNoActiveFile
	}
	next, t := s.BeginResume(id)
	return c.run(ctx, next, t)
}

// Upload sends the file at path and loads its first page.
func (c *Controller) Upload(ctx context.Context, s Session, path string) (Session, error) {
	next, t := s.BeginUpload(path)
	return c.run(ctx, next, t)
}

// LoadPage loads page of the active file, consulting the state store when
// the session has no file yet.
func (c *Controller) LoadPage(ctx context.Context, s Session, page int) (Session, error) {
	if s.FileID == "" {
		id, err := c.ActiveFileID(ctx, s)
		if err != nil {
			return s, err
		}
		s.FileID = id
	}
	next, t, ok := s.BeginPage(page)
	if !ok {
		return s, ErrNoActiveFile
	}
	return c.run(ctx, next, t)
}

func (c *Controller) run(ctx context.Context, s Session, t Ticket) (Session, error) {
	r := c.Fetch(ctx, t)
	return c.Apply(ctx, s, r), r.Err
}

// SyncInfo fetches sync metadata. Failures are logged and returned for the
// caller to show inline; they never affect the session.
func (c *Controller) SyncInfo(ctx context.Context, fileID string) (*api.SyncInfo, error) {
	info, err := c.client.FetchSyncInfo(ctx, fileID)
	if err != nil {
		c.logger.Warn("sync info unavailable", "file_id", fileID, "error", err)
		return nil, err
	}
	return info, nil
}
