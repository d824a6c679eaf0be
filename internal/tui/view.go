package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/runnerr0/histview/internal/api"
	"github.com/runnerr0/histview/internal/render"
	"github.com/runnerr0/histview/internal/session"
)

var (
	tabStyle       = lipgloss.NewStyle().Padding(0, 2).Foreground(render.ColorMuted)
	activeTabStyle = lipgloss.NewStyle().Padding(0, 2).Bold(true).
			Foreground(render.ColorAccent).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(render.ColorAccent)
	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(render.ColorDanger).
			Padding(1, 3)
)

// View implements tea.Model.
func (m Model) View() string {
	sections := []string{m.headerView()}

	if m.sess.Err != nil {
		sections = append(sections, m.modalView())
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	sections = append(sections, m.bodyView())
	if line := m.inputView(); line != "" {
		sections = append(sections, line)
	}
	sections = append(sections, m.exportView(), m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) headerView() string {
	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		if Tab(i) == m.tab {
			tabs[i] = activeTabStyle.Render(name)
		} else {
			tabs[i] = tabStyle.Render(name)
		}
	}
	title := render.TitleStyle.Render("histview")
	if m.sess.Phase == session.Loading {
		title += " " + m.spinner.View() + render.MutedStyle.Render(" Loading...")
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...))
}

func (m Model) modalView() string {
	heading := "Error"
	if api.IsInvalidFileID(m.sess.Err) {
		heading = "File no longer available"
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		render.ErrorStyle.Render(heading),
		"",
		api.UserMessage(m.sess.Err),
		"",
		render.MutedStyle.Render("Press enter to dismiss"),
	)
	box := modalStyle.Render(body)
	if m.width > 0 {
		return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, box)
	}
	return box
}

func (m Model) bodyView() string {
	p := m.sess.Page
	switch m.tab {
	case TabDomains:
		return render.Domains(m.domains)
	case TabDownloads:
		if p == nil {
			return render.NotLoaded()
		}
		expanded := m.expanded
		return render.Downloads(m.downloadItems(), render.DownloadsOptions{
			Expanded: func(i int) bool { return expanded[i] },
			Selected: m.selected,
		})
	case TabSync:
		return m.syncView()
	}

	if p == nil {
		return render.NotLoaded()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		render.Summary(p),
		"",
		render.FilteredEntries(p.Entries, m.query, m.width),
		render.PaginationFocus(m.pageLinks(), m.linkCursor),
	)
}

func (m Model) syncView() string {
	if m.sess.Page == nil {
		return render.NotLoaded()
	}
	if !m.sync.loaded {
		return render.MutedStyle.Render("Loading sync information...")
	}
	if m.sync.err != nil {
		return render.SyncNotice(api.UserMessage(m.sync.err))
	}
	return render.Sync(m.sync.info)
}

func (m Model) inputView() string {
	switch m.mode {
	case modeSearch:
		return m.search.View()
	case modeUpload:
		return m.upload.View()
	}
	if m.query != "" {
		return render.MutedStyle.Render("search: " + m.query)
	}
	return ""
}

func (m Model) exportView() string {
	settings := render.MutedStyle.Render(fmt.Sprintf("Export: %s · %s → %s",
		strings.ToUpper(m.exportFormat()), m.exportDataType(), m.exportDir))

	var status string
	switch m.status.Kind {
	case StatusInfo:
		status = render.MutedStyle.Render("ℹ " + m.status.Text)
	case StatusSuccess:
		status = render.SuccessStyle.Render("✓ " + m.status.Text)
	case StatusError:
		status = render.ErrorStyle.Render("✗ " + m.status.Text)
	default:
		return settings
	}
	return lipgloss.JoinVertical(lipgloss.Left, settings, status)
}
