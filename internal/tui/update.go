package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/runnerr0/histview/internal/api"
	"github.com/runnerr0/histview/internal/config"
	"github.com/runnerr0/histview/internal/pagination"
	"github.com/runnerr0/histview/internal/render"
	"github.com/runnerr0/histview/internal/session"
	"github.com/runnerr0/histview/internal/stats"
)

// resumeMsg carries the persisted file id found at startup.
type resumeMsg struct {
	fileID string
	err    error
}

// loadedMsg is the outcome of an upload or page fetch.
type loadedMsg struct {
	result session.Result
}

// syncMsg is the outcome of a sync-info fetch for fileID.
type syncMsg struct {
	fileID string
	info   *api.SyncInfo
	err    error
}

// exportDoneMsg is the outcome of an export.
type exportDoneMsg struct {
	path string
	err  error
}

// clearStatusMsg clears the export status if it is still status id.
type clearStatusMsg struct {
	id int
}

func (m Model) resumeCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	if ctrl == nil {
		return nil
	}
	return func() tea.Msg {
		id, err := ctrl.ActiveFileID(ctx, session.Session{})
		return resumeMsg{fileID: id, err: err}
	}
}

func (m Model) fetchCmd(t session.Ticket) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return loadedMsg{result: ctrl.Fetch(ctx, t)}
	}
}

func (m Model) syncCmd(fileID string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		info, err := ctrl.SyncInfo(ctx, fileID)
		return syncMsg{fileID: fileID, info: info, err: err}
	}
}

func (m Model) exportCmd(req api.ExportRequest) tea.Cmd {
	exporter, ctx, dir := m.exporter, m.ctx, m.exportDir
	return func() tea.Msg {
		res, err := exporter.Export(ctx, req)
		if err != nil {
			return exportDoneMsg{err: err}
		}
		path, err := res.Save(dir)
		return exportDoneMsg{path: path, err: err}
	}
}

func clearStatusCmd(id int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.search.Width = max(msg.Width-4, 10)
		m.upload.Width = max(msg.Width-8, 10)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case resumeMsg:
		if msg.fileID == "" {
			if msg.err != nil && !errors.Is(msg.err, session.ErrNoActiveFile) {
				m.logger.Warn("read persisted file id", "error", msg.err)
			}
			return m, nil
		}
		m.logger.Info("resuming persisted file", "file_id", msg.fileID)
		var t session.Ticket
		m.sess, t = m.sess.BeginResume(msg.fileID)
		return m, m.fetchCmd(t)

	case loadedMsg:
		return m.applyLoad(msg.result)

	case syncMsg:
		if msg.fileID != m.sess.FileID {
			return m, nil
		}
		m.sync = syncState{fileID: msg.fileID, info: msg.info, err: msg.err, loaded: true}
		return m, nil

	case exportDoneMsg:
		m.statusID++
		if msg.err != nil {
			m.logger.Warn("export failed", "error", msg.err)
			m.status = Status{Kind: StatusError, Text: "Export failed: " + api.UserMessage(msg.err)}
			return m, nil
		}
		m.logger.Info("export saved", "path", msg.path)
		m.status = Status{Kind: StatusSuccess, Text: "Export completed: " + msg.path}
		return m, clearStatusCmd(m.statusID, m.statusTTL)

	case clearStatusMsg:
		if msg.id == m.statusID {
			m.status = Status{}
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) applyLoad(r session.Result) (tea.Model, tea.Cmd) {
	if !m.sess.Pending(r.Ticket) {
		m.logger.Debug("ignoring stale response", "gen", r.Ticket.Gen, "current_gen", m.sess.Gen)
		return m, nil
	}
	prevFile := m.sync.fileID
	m.sess = m.ctrl.Apply(m.ctx, m.sess, r)

	switch m.sess.Phase {
	case session.Loaded:
		m.domains = stats.Aggregate(m.sess.Page.Entries)
		m.expanded = make(map[int]bool)
		m.selected = 0
		m.linkCursor = -1
		if r.Ticket.Op == session.OpUpload || prevFile != m.sess.FileID {
			m.sync = syncState{fileID: m.sess.FileID}
			return m, m.syncCmd(m.sess.FileID)
		}
	case session.Idle:
		m.domains = stats.DomainStats{}
		m.sync = syncState{}
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// A load error blocks everything until it is dismissed.
	if m.sess.Err != nil {
		switch {
		case key.Matches(msg, m.keys.Confirm), key.Matches(msg, m.keys.Cancel):
			m.sess = m.sess.Dismiss()
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		}
		return m, nil
	}

	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeUpload:
		return m.handleUploadKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.NextTab):
		m.tab = (m.tab + 1) % Tab(len(tabNames))
	case key.Matches(msg, m.keys.PrevTab):
		m.tab = (m.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames))
	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.search.SetValue(m.query)
		m.search.CursorEnd()
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Upload):
		m.mode = modeUpload
		return m, m.upload.Focus()
	case key.Matches(msg, m.keys.Reload):
		return m.goToPage(m.sess.CurrentPage, true)
	case key.Matches(msg, m.keys.NextPage):
		return m.goToPage(m.sess.CurrentPage+1, false)
	case key.Matches(msg, m.keys.PrevPage):
		return m.goToPage(m.sess.CurrentPage-1, false)
	case key.Matches(msg, m.keys.FirstPage):
		return m.goToPage(1, false)
	case key.Matches(msg, m.keys.LastPage):
		return m.goToPage(m.sess.TotalPages, false)
	case key.Matches(msg, m.keys.Export):
		return m.startExport()
	case key.Matches(msg, m.keys.Format):
		m.formatIdx = (m.formatIdx + 1) % len(config.ExportFormats)
	case key.Matches(msg, m.keys.DataType):
		m.typeIdx = (m.typeIdx + 1) % len(config.ExportDataTypes)
	case m.tab == TabHistory:
		return m.handleLinksKey(msg)
	case m.tab == TabDownloads:
		m.handleDownloadsKey(msg)
	}
	return m, nil
}

// pageLinks is the pagination bar of the loaded page.
func (m Model) pageLinks() []pagination.Link {
	if m.sess.Page == nil {
		return nil
	}
	return pagination.Calculate(m.sess.CurrentPage, m.sess.TotalPages)
}

// handleLinksKey moves the cursor over the pagination bar and follows the
// focused link.
func (m Model) handleLinksKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	links := m.pageLinks()
	if len(links) == 0 {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.PrevLink):
		m.linkCursor = pagination.Step(links, m.linkCursor, -1)
	case key.Matches(msg, m.keys.NextLink):
		m.linkCursor = pagination.Step(links, m.linkCursor, +1)
	case key.Matches(msg, m.keys.Follow):
		if m.linkCursor < 0 || m.linkCursor >= len(links) || !links[m.linkCursor].Navigable() {
			return m, nil
		}
		page := links[m.linkCursor].Page
		m.linkCursor = -1
		return m.goToPage(page, false)
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.mode = modeBrowse
		m.search.Blur()
		m.search.SetValue("")
		m.setQuery("")
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		m.mode = modeBrowse
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.setQuery(m.search.Value())
	return m, cmd
}

func (m *Model) setQuery(q string) {
	if q == m.query {
		return
	}
	m.query = q
	m.expanded = make(map[int]bool)
	m.selected = 0
}

func (m Model) handleUploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.mode = modeBrowse
		m.upload.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		raw := strings.TrimSpace(m.upload.Value())
		if raw == "" {
			return m, nil
		}
		path, err := config.ExpandPath(raw)
		if err != nil {
			path = raw
		}
		m.mode = modeBrowse
		m.upload.Blur()
		m.upload.SetValue("")
		m.logger.Info("uploading history file", "path", path)
		var t session.Ticket
		m.sess, t = m.sess.BeginUpload(path)
		m.tab = TabHistory
		return m, m.fetchCmd(t)
	}
	var cmd tea.Cmd
	m.upload, cmd = m.upload.Update(msg)
	return m, cmd
}

// goToPage starts loading page. Out of range targets and the current page
// are ignored unless force is set.
func (m Model) goToPage(page int, force bool) (tea.Model, tea.Cmd) {
	if m.sess.FileID == "" || m.sess.Page == nil {
		return m, nil
	}
	if page < 1 || page > m.sess.TotalPages {
		return m, nil
	}
	if page == m.sess.CurrentPage && !force {
		return m, nil
	}
	next, t, ok := m.sess.BeginPage(page)
	if !ok {
		return m, nil
	}
	m.sess = next
	return m, m.fetchCmd(t)
}

func (m *Model) handleDownloadsKey(msg tea.KeyMsg) {
	n := len(m.downloadItems())
	if n == 0 {
		return
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		m.selected = max(m.selected-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.selected = min(m.selected+1, n-1)
	case key.Matches(msg, m.keys.Toggle):
		m.expanded[m.selected] = !m.expanded[m.selected]
	}
}

func (m Model) downloadItems() []render.DownloadItem {
	p := m.sess.Page
	if p == nil {
		return nil
	}
	return render.FilterDownloads(render.JoinSources(p.Downloads, p.DownloadSources), m.query)
}

func (m Model) startExport() (tea.Model, tea.Cmd) {
	m.statusID++
	if m.sess.FileID == "" || m.sess.Page == nil {
		m.status = Status{Kind: StatusError, Text: "No file loaded. Upload a history file first."}
		return m, nil
	}
	if m.exporter == nil {
		m.status = Status{Kind: StatusError, Text: "Export is not available"}
		return m, nil
	}

	req := api.ExportRequest{
		FileID:   m.sess.FileID,
		Format:   m.exportFormat(),
		DataType: m.exportDataType(),
	}
	if m.query != "" && req.DataType == "history" {
		req.Filters.Search = m.query
	}
	m.status = Status{Kind: StatusInfo, Text: fmt.Sprintf("Exporting %s as %s...", req.DataType, strings.ToUpper(req.Format))}
	m.logger.Info("export requested", "file_id", req.FileID, "format", req.Format, "data_type", req.DataType)
	return m, m.exportCmd(req)
}
