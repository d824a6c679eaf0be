package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/runnerr0/histview/internal/api"
	"github.com/runnerr0/histview/internal/format"
)

// DownloadItem is a download with the candidate source pages joined to it.
type DownloadItem struct {
	Download api.Download
	Sources  []api.DownloadSource
}

// JoinSources attaches source groups to downloads by filename. When several
// groups share a filename the last one wins. Downloads without a filename
// never match.
func JoinSources(downloads []api.Download, groups []api.DownloadSourceGroup) []DownloadItem {
	byName := make(map[string]api.DownloadSourceGroup, len(groups))
	for _, g := range groups {
		byName[g.Filename] = g
	}

	items := make([]DownloadItem, len(downloads))
	for i, d := range downloads {
		items[i] = DownloadItem{Download: d}
		if d.Filename == "" {
			continue
		}
		if g, ok := byName[d.Filename]; ok {
			items[i].Sources = g.Sources
		}
	}
	return items
}

// DownloadsOptions controls the downloads panel.
type DownloadsOptions struct {
	// Expanded reports whether item i shows its sources. Nil collapses all.
	Expanded func(i int) bool
	// Selected is the highlighted item, or -1.
	Selected int
}

// Downloads renders the downloads panel. Source pages are hidden behind a
// toggle unless expanded.
func Downloads(items []DownloadItem, opts DownloadsOptions) string {
	if len(items) == 0 {
		return emptyState("📥", NoDownloadsMessage)
	}

	blocks := make([]string, 0, len(items))
	for i, it := range items {
		expanded := opts.Expanded != nil && opts.Expanded(i)
		block := downloadBlock(it, expanded)
		if i == opts.Selected {
			block = lipgloss.NewStyle().
				Border(lipgloss.ThickBorder(), false, false, false, true).
				BorderForeground(ColorAccent).
				Render(block)
		} else {
			block = lipgloss.NewStyle().PaddingLeft(1).Render(block)
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n")
}

func downloadBlock(it DownloadItem, expanded bool) string {
	d := it.Download

	title := format.FileTypeIcon(d.Filename) + " " + HeadingStyle.Render(format.Or(d.Filename, format.UnknownFile))
	if d.Status != "" {
		title += " " + Badge(format.StatusBadge(d.Status), d.Status)
	}

	meta := []string{"🕒 " + format.Or(d.DownloadTime, format.UnknownTime)}
	if d.FileSize > 0 {
		meta = append(meta, format.FileSize(int64(d.FileSize)))
	}
	if d.MimeType != "" {
		meta = append(meta, d.MimeType)
	}

	lines := []string{
		title,
		MutedStyle.Render(strings.Join(meta, "  ·  ")),
		"🔗 " + format.Truncate(d.URL, format.DownloadURLWidth),
	}

	if len(it.Sources) > 0 {
		if !expanded {
			lines = append(lines, MutedStyle.Render(fmt.Sprintf("▸ Show download sources (%d)", len(it.Sources))))
		} else {
			lines = append(lines, MutedStyle.Render("▾ Hide download sources"), LabelStyle.Render("Source Pages"))
			for _, s := range it.Sources {
				lines = append(lines,
					"  "+format.Or(s.Title, format.UnknownPage)+" "+Badge(format.MatchTypeBadge(s.MatchType), format.MatchTypeLabel(s.MatchType)),
					"    "+format.Truncate(s.URL, format.DownloadURLWidth),
					"    "+MutedStyle.Render(s.Time),
				)
			}
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
