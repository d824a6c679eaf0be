// Package tui is the interactive history browser. Network calls run as
// tea.Cmds and come back as messages; the session value only changes inside
// Update.
package tui

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/runnerr0/histview/internal/api"
	"github.com/runnerr0/histview/internal/config"
	"github.com/runnerr0/histview/internal/render"
	"github.com/runnerr0/histview/internal/session"
	"github.com/runnerr0/histview/internal/stats"
)

// StatusClearDelay is how long a successful export message stays up.
const StatusClearDelay = 5 * time.Second

// Tab is a panel of the browser.
type Tab int

const (
	TabHistory Tab = iota
	TabDomains
	TabDownloads
	TabSync
)

var tabNames = []string{"History", "Domains", "Downloads", "Sync"}

func (t Tab) String() string {
	if int(t) < len(tabNames) {
		return tabNames[t]
	}
	return "?"
}

type inputMode int

const (
	modeBrowse inputMode = iota
	modeSearch
	modeUpload
)

// StatusKind is the tone of the export status line.
type StatusKind int

const (
	StatusNone StatusKind = iota
	StatusInfo
	StatusSuccess
	StatusError
)

// Status is the inline export status.
type Status struct {
	Kind StatusKind
	Text string
}

// Exporter runs the unified export.
type Exporter interface {
	Export(ctx context.Context, req api.ExportRequest) (api.ExportResult, error)
}

// Options configures a Model.
type Options struct {
	Controller *session.Controller
	Exporter   Exporter
	Logger     *slog.Logger
	// Context bounds every request started from the UI. Defaults to
	// context.Background.
	Context context.Context

	PageSize       int
	ExportDir      string
	ExportFormat   string
	ExportDataType string
	// StatusTTL overrides StatusClearDelay.
	StatusTTL time.Duration
}

type syncState struct {
	fileID string
	info   *api.SyncInfo
	err    error
	loaded bool
}

// Model is the bubbletea model behind `histview browse`.
type Model struct {
	ctrl     *session.Controller
	exporter Exporter
	logger   *slog.Logger
	ctx      context.Context

	sess    session.Session
	domains stats.DomainStats
	sync    syncState

	tab      Tab
	mode     inputMode
	search   textinput.Model
	upload   textinput.Model
	query    string
	expanded map[int]bool
	selected int

	// linkCursor indexes the pagination links of the current page, or -1.
	linkCursor int

	exportDir string
	formatIdx int
	typeIdx   int
	status    Status
	statusID  int
	statusTTL time.Duration

	spinner spinner.Model
	help    help.Model
	keys    KeyMap

	width  int
	height int
}

// New builds the browser model.
func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	ttl := opts.StatusTTL
	if ttl <= 0 {
		ttl = StatusClearDelay
	}
	pageSize := opts.PageSize
	if pageSize < 1 {
		pageSize = config.DefaultConfig().Paging.PageSize
	}
	exportDir := opts.ExportDir
	if exportDir == "" {
		exportDir = "."
	}

	search := textinput.New()
	search.Placeholder = "Search title, URL, time or domain"
	search.Prompt = "/ "
	search.CharLimit = 256

	upload := textinput.New()
	upload.Placeholder = "~/Library/Application Support/Google/Chrome/Default/History"
	upload.Prompt = "File: "
	upload.CharLimit = 4096

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = render.TitleStyle

	return Model{
		ctrl:       opts.Controller,
		exporter:   opts.Exporter,
		logger:     logger,
		ctx:        ctx,
		sess:       session.New(pageSize),
		search:     search,
		upload:     upload,
		expanded:   make(map[int]bool),
		linkCursor: -1,
		exportDir:  exportDir,
		formatIdx:  indexOf(config.ExportFormats, opts.ExportFormat),
		typeIdx:    indexOf(config.ExportDataTypes, opts.ExportDataType),
		statusTTL:  ttl,
		spinner:    sp,
		help:       help.New(),
		keys:       DefaultKeyMap(),
	}
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return 0
}

// Session returns the current session value.
func (m Model) Session() session.Session { return m.sess }

// Tab returns the active panel.
func (m Model) Tab() Tab { return m.tab }

// Status returns the export status line.
func (m Model) Status() Status { return m.status }

// Query returns the active search term.
func (m Model) Query() string { return m.query }

// Init resumes the persisted file, if any.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.resumeCmd())
}

func (m Model) exportFormat() string   { return config.ExportFormats[m.formatIdx] }
func (m Model) exportDataType() string { return config.ExportDataTypes[m.typeIdx] }
