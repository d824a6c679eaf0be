// Package session holds the viewer state machine. A Session is a plain
// value: transitions return a new Session and never touch shared state.
package session

import (
	"github.com/runnerr0/histview/internal/api"
)

// Phase is where the session is in its load cycle.
type Phase int

const (
	Idle Phase = iota
	Loading
	Loaded
	LoadFailed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case LoadFailed:
		return "load_failed"
	default:
		return "unknown"
	}
}

// Op is the kind of load a Ticket stands for.
type Op int

const (
	OpUpload Op = iota
	OpPage
	OpResume
)

func (o Op) String() string {
	switch o {
	case OpUpload:
		return "upload"
	case OpPage:
		return "page"
	case OpResume:
		return "resume"
	default:
		return "unknown"
	}
}

// Ticket describes one load request. Gen ties the eventual response back to
// the transition that started it.
type Ticket struct {
	Gen      uint64
	Op       Op
	FileID   string
	Path     string
	Page     int
	PageSize int
}

// Session is the viewer state.
type Session struct {
	Phase Phase

	// FileID is the active server file id, "" when none.
	FileID string
	// Page is the most recent successful load. It survives a failed page
	// change so the previous table stays on screen.
	Page *api.HistoryPage

	CurrentPage int
	TotalPages  int
	PageSize    int

	// Gen increases on every transition into Loading.
	Gen uint64
	// Err is the failure behind LoadFailed.
	Err error
}

// New returns an idle session.
func New(pageSize int) Session {
	return Session{Phase: Idle, PageSize: pageSize}
}

// Current returns the loaded page, or nil unless the session is Loaded.
func (s Session) Current() *api.HistoryPage {
	if s.Phase != Loaded {
		return nil
	}
	return s.Page
}

// Pending reports whether t is the load the session is waiting for.
func (s Session) Pending(t Ticket) bool {
	return s.Phase == Loading && t.Gen == s.Gen
}

func (s Session) begin(t Ticket) (Session, Ticket) {
	s.Gen++
	s.Phase = Loading
	s.Err = nil
	t.Gen = s.Gen
	t.PageSize = s.PageSize
	return s, t
}

// BeginUpload starts uploading the artifact at path. Uploads always land on
// page 1.
func (s Session) BeginUpload(path string) (Session, Ticket) {
	return s.begin(Ticket{Op: OpUpload, Path: path, Page: 1})
}

// BeginResume starts reloading page 1 of a file id persisted by an earlier run.
func (s Session) BeginResume(fileID string) (Session, Ticket) {
	s.FileID = fileID
	return s.begin(Ticket{Op: OpResume, FileID: fileID, Page: 1})
}

// BeginPage starts loading another page of the active file. page is clamped
// to the known page range. ok is false when no file is active.
func (s Session) BeginPage(page int) (Session, Ticket, bool) {
	if s.FileID == "" {
		return s, Ticket{}, false
	}
	if s.TotalPages > 0 && page > s.TotalPages {
		page = s.TotalPages
	}
	if page < 1 {
		page = 1
	}
	next, t := s.begin(Ticket{Op: OpPage, FileID: s.FileID, Page: page})
	return next, t, true
}

// Complete applies a successful response. Responses for anything but the
// latest ticket are ignored and ok is false.
func (s Session) Complete(t Ticket, p api.HistoryPage) (Session, bool) {
	if !s.Pending(t) {
		return s, false
	}

	total := max(p.TotalPages, 1)
	cur := p.Page
	if cur < 1 {
		cur = 1
	}
	if cur > total {
		cur = total
	}
	p.TotalPages = total
	p.Page = cur

	s.Phase = Loaded
	s.Page = &p
	s.Err = nil
	if p.FileID != "" {
		s.FileID = p.FileID
	}
	s.CurrentPage = cur
	s.TotalPages = total
	if p.PageSize > 0 {
		s.PageSize = p.PageSize
	}
	return s, true
}

// Fail applies a failed response. An unknown file id sends the session back
// to Idle with no active file; any other error leaves it in LoadFailed.
// Stale tickets are ignored and ok is false.
func (s Session) Fail(t Ticket, err error) (Session, bool) {
	if !s.Pending(t) {
		return s, false
	}

	if api.IsInvalidFileID(err) {
		s.Phase = Idle
		s.FileID = ""
		s.Page = nil
		s.CurrentPage = 0
		s.TotalPages = 0
		s.Err = err
		return s, true
	}

	s.Phase = LoadFailed
	s.Err = err
	return s, true
}

// Dismiss clears a reported error. A LoadFailed session with a page still on
// screen returns to Loaded; without one it returns to Idle.
func (s Session) Dismiss() Session {
	s.Err = nil
	if s.Phase == LoadFailed {
		if s.Page != nil {
			s.Phase = Loaded
		} else {
			s.Phase = Idle
		}
	}
	return s
}
