// Package render turns API payloads into terminal text. Every function is
// pure: it reads its inputs and returns a string.
package render

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/runnerr0/histview/internal/format"
)

// Palette
var (
	ColorAccent  = lipgloss.AdaptiveColor{Light: "#5A4FCF", Dark: "#7AA2F7"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	ColorSuccess = lipgloss.Color("#22C55E")
	ColorWarning = lipgloss.Color("#F59E0B")
	ColorDanger  = lipgloss.Color("#EF4444")
	ColorPrimary = lipgloss.Color("#3B82F6")
	ColorGray    = lipgloss.Color("#6B7280")
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	HeadingStyle = lipgloss.NewStyle().Bold(true)
	LabelStyle   = lipgloss.NewStyle().Bold(true)
	MutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorDanger).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	ActiveStyle  = lipgloss.NewStyle().Bold(true).Reverse(true)
	FocusStyle   = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(ColorAccent)

	emptyStyle = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true).Padding(1, 2)
)

var badgeColors = map[format.Badge]lipgloss.TerminalColor{
	format.BadgeSuccess:   ColorSuccess,
	format.BadgeWarning:   ColorWarning,
	format.BadgeSecondary: ColorGray,
	format.BadgePrimary:   ColorPrimary,
	format.BadgeDanger:    ColorDanger,
}

// Badge renders text as a coloured tag.
func Badge(b format.Badge, text string) string {
	c, ok := badgeColors[b]
	if !ok {
		c = ColorGray
	}
	return lipgloss.NewStyle().Foreground(c).Bold(true).Render("[" + text + "]")
}

var sourceColors = map[format.SourceClass]lipgloss.TerminalColor{
	format.SourceSynced:    ColorPrimary,
	format.SourceBrowsed:   ColorSuccess,
	format.SourceExtension: ColorWarning,
	format.SourceImported:  ColorGray,
}

func sourceBadge(desc string) string {
	c, ok := sourceColors[format.ClassifySource(desc)]
	if !ok {
		return desc
	}
	return lipgloss.NewStyle().Foreground(c).Render(desc)
}

// Empty-state messages. These differ from NotLoaded, which means nothing has
// been fetched yet.
const (
	NotLoadedMessage   = "No history loaded. Upload a Chrome/Edge History or Firefox places.sqlite file to begin."
	NoEntriesMessage   = "No history entries found"
	NoMatchesMessage   = "No entries match the current search"
	NoDomainsMessage   = "No domain statistics available"
	NoDownloadsMessage = "No download history found"
	NoSyncMessage      = "No synchronization information found"
	NoSyncDetail       = "Browser synchronization data not detected in the analyzed file"
)

// NotLoaded is the placeholder shown before any page has loaded.
func NotLoaded() string {
	return emptyStyle.Render(NotLoadedMessage)
}

func emptyState(lines ...string) string {
	return emptyStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func field(label, value string) string {
	return LabelStyle.Render(label+":") + " " + value
}
