package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/runnerr0/histview/internal/api"
	"github.com/runnerr0/histview/internal/format"
	"github.com/runnerr0/histview/internal/pagination"
	"github.com/runnerr0/histview/internal/stats"
)

// Summary renders the header above the history table.
func Summary(p *api.HistoryPage) string {
	if p == nil {
		return NotLoaded()
	}
	totalPages := max(p.TotalPages, 1)
	lines := []string{
		TitleStyle.Render("Browser History"),
		field("Browser", format.BrowserLabel(p.BrowserType)),
		field("Total entries", format.Count(p.TotalEntries)),
		field("Page", fmt.Sprintf("%d of %d", p.Page, totalPages)),
		field("File ID", MutedStyle.Render(p.FileID)),
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Entries renders history rows as a table. width <= 0 leaves the table at
// its natural width.
func Entries(entries []api.HistoryEntry, width int) string {
	if len(entries) == 0 {
		return emptyState(NoEntriesMessage)
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			format.Or(e.Title, format.Unknown),
			format.Truncate(e.URL, format.TableURLWidth),
			e.VisitTime,
			e.Domain,
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(MutedStyle).
		Headers("Title", "URL", "Visit Time", "Domain").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeadingStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	if width > 0 {
		t = t.Width(width)
	}
	return t.String()
}

// FilteredEntries renders entries matching query, telling an empty page
// apart from a search that matched nothing.
func FilteredEntries(entries []api.HistoryEntry, query string, width int) string {
	if len(entries) == 0 || strings.TrimSpace(query) == "" {
		return Entries(entries, width)
	}
	matched := FilterEntries(entries, query)
	if len(matched) == 0 {
		return emptyState(NoMatchesMessage, MutedStyle.Render("search: "+query))
	}
	return Entries(matched, width)
}

// Pagination renders the link bar. The active page is highlighted and
// disabled arrows are dimmed.
func Pagination(links []pagination.Link) string {
	return PaginationFocus(links, -1)
}

// PaginationFocus renders the link bar with links[focus] bracketed as the
// link enter will follow. A focus of -1 marks nothing.
func PaginationFocus(links []pagination.Link, focus int) string {
	parts := make([]string, 0, len(links))
	for i, l := range links {
		var s string
		switch l.Kind {
		case pagination.Prev:
			s = "«"
		case pagination.Next:
			s = "»"
		case pagination.Ellipsis:
			s = "…"
		default:
			s = strconv.Itoa(l.Page)
		}
		switch {
		case l.Active:
			s = ActiveStyle.Render(" " + s + " ")
		case i == focus:
			s = FocusStyle.Render("[" + s + "]")
		case l.Disabled || l.Kind == pagination.Ellipsis:
			s = MutedStyle.Render(s)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

// Domains renders the top-domains panel.
func Domains(s stats.DomainStats) string {
	switch s.State {
	case stats.Pending:
		return NotLoaded()
	case stats.Empty:
		return lipgloss.JoinVertical(lipgloss.Left,
			HeadingStyle.Render("Top Domains"),
			emptyState(NoDomainsMessage),
		)
	}

	width := 0
	for _, d := range s.Top {
		width = max(width, lipgloss.Width(d.Domain))
	}
	maxCount := s.Top[0].Count

	lines := []string{HeadingStyle.Render("Top Domains")}
	for _, d := range s.Top {
		bar := strings.Repeat("█", max(1, d.Count*20/maxCount))
		lines = append(lines, fmt.Sprintf("%-*s %s %s",
			width, d.Domain,
			lipgloss.NewStyle().Foreground(ColorAccent).Render(bar),
			MutedStyle.Render(strconv.Itoa(d.Count)),
		))
	}
	lines = append(lines, MutedStyle.Render(fmt.Sprintf("%s visits across %d domains", format.Count(int64(s.Total())), len(s.Top))))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
