package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/runnerr0/histview/internal/api"
	"github.com/runnerr0/histview/internal/format"
)

var cardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorMuted).
	Padding(0, 1)

// SyncNotice renders a non-blocking warning for a failed sync-info fetch.
func SyncNotice(msg string) string {
	return WarningStyle.Render("⚠ Sync information unavailable: " + msg)
}

// Sync renders the sync panel. Account, settings and synced visits are
// drawn independently, so a missing section never hides the others.
func Sync(info *api.SyncInfo) string {
	if info.IsEmpty() {
		return emptyState("🔄", NoSyncMessage, NoSyncDetail)
	}

	var sections []string
	if info.AccountInfo != nil {
		sections = append(sections, accountCard(info.AccountInfo))
	}
	if info.SyncSettings != nil {
		sections = append(sections, settingsCard(info.SyncSettings))
	}
	if len(info.SyncedVisits) > 0 {
		sections = append(sections, visitsCard(info.SyncedVisits))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func accountCard(a *api.AccountInfo) string {
	lines := []string{
		TitleStyle.Render("Sync Account Information"),
		field("Email", format.Or(a.Email, format.NotAvailable)),
		field("Account Name", format.Or(a.Name, format.NotAvailable)),
		field("Account Type", format.Or(a.AccountType, format.NotAvailable)),
		field("Last Sync Time", format.Or(a.LastSyncTime, format.NotAvailable)),
	}
	if a.Note != "" {
		lines = append(lines, MutedStyle.Render(a.Note))
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func settingsCard(s *api.SyncSettings) string {
	lines := []string{
		TitleStyle.Render("Sync Settings"),
		field("Sync Enabled", format.YesNo(s.Enabled)),
		field("First Sync Time", format.Or(s.FirstSyncTime, format.NotAvailable)),
		field("Last Sync Time", format.Or(s.LastSyncTime, format.NotAvailable)),
	}
	if len(s.DataTypes) > 0 {
		types := make([]string, len(s.DataTypes))
		for i, dt := range s.DataTypes {
			if dt.Enabled {
				types[i] = SuccessStyle.Render(dt.Name + " ✓")
			} else {
				types[i] = MutedStyle.Render(dt.Name + " ✗")
			}
		}
		lines = append(lines, LabelStyle.Render("Synchronized Data Types"), strings.Join(types, "  "))
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func visitsCard(visits []api.SyncedVisit) string {
	rows := make([][]string, len(visits))
	for i, v := range visits {
		rows[i] = []string{
			format.Or(v.Title, format.Unknown),
			format.Truncate(v.URL, format.TableURLWidth),
			v.VisitTime,
			sourceBadge(v.SourceDesc),
		}
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(MutedStyle).
		Headers("Title", "URL", "Visit Time", "Source").
		Rows(rows...)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render("Synchronized Visits"),
		t.String(),
	))
}
