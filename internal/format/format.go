// Package format holds the small text helpers shared by the render layer,
// the CLI and the TUI.
package format

import (
	"path"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

// Truncation widths used across views.
const (
	TableURLWidth    = 50
	DownloadURLWidth = 80
)

// Placeholders for absent values.
const (
	Unknown      = "Unknown"
	NotAvailable = "Not available"
	UnknownFile  = "Unknown file"
	UnknownTime  = "Unknown time"
	UnknownPage  = "Unknown Page"
	UnknownSize  = "Unknown size"
)

// Badge is a semantic colour for a label.
type Badge string

const (
	BadgeSuccess   Badge = "success"
	BadgeWarning   Badge = "warning"
	BadgeSecondary Badge = "secondary"
	BadgePrimary   Badge = "primary"
	BadgeDanger    Badge = "danger"
)

// Truncate shortens s to max runes and appends "..." when it was cut.
func Truncate(s string, max int) string {
	if s == "" || max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "..."
}

// Or returns s, or fallback when s is blank.
func Or(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FileSize renders a byte count with one decimal in 1024-based units.
// Zero or negative sizes are unknown.
func FileSize(bytes int64) string {
	if bytes <= 0 {
		return UnknownSize
	}
	size := float64(bytes)
	unit := 0
	for size >= 1024 && unit < len(sizeUnits)-1 {
		size /= 1024
		unit++
	}
	return strconv.FormatFloat(size, 'f', 1, 64) + " " + sizeUnits[unit]
}

// Count renders n with thousands separators.
func Count(n int64) string {
	return humanize.Comma(n)
}

// Ago renders t relative to now, e.g. "3 hours ago".
func Ago(t time.Time) string {
	if t.IsZero() {
		return Unknown
	}
	return humanize.Time(t)
}

// MatchTypeLabel is the display name of a download source match type.
// Unrecognised values are shown as-is.
func MatchTypeLabel(matchType string) string {
	switch matchType {
	case "same_domain":
		return "Same Domain"
	case "file_pattern":
		return "File Pattern"
	case "temporal":
		return "Temporal"
	default:
		return matchType
	}
}

// MatchTypeBadge is the colour of a match type label.
func MatchTypeBadge(matchType string) Badge {
	switch matchType {
	case "same_domain":
		return BadgeSuccess
	case "file_pattern":
		return BadgeWarning
	case "temporal":
		return BadgeSecondary
	default:
		return BadgePrimary
	}
}

// StatusBadge is the colour of a download status.
func StatusBadge(status string) Badge {
	switch status {
	case "completed":
		return BadgeSuccess
	case "failed", "interrupted":
		return BadgeDanger
	case "in_progress":
		return BadgePrimary
	case "canceled":
		return BadgeWarning
	default:
		return BadgeSecondary
	}
}

var iconsByExt = map[string]string{}

func init() {
	groups := []struct {
		icon string
		exts []string
	}{
		{"🖼️", []string{"jpg", "jpeg", "png", "gif", "bmp", "webp", "svg"}},
		{"🎬", []string{"mp4", "avi", "mov", "wmv", "flv", "webm"}},
		{"🎵", []string{"mp3", "wav", "ogg", "flac", "m4a"}},
		{"🗜️", []string{"zip", "rar", "7z", "tar", "gz"}},
		{"📕", []string{"pdf"}},
		{"📊", []string{"doc", "docx", "ppt", "pptx", "xls", "xlsx"}},
		{"⚙️", []string{"exe", "msi", "app"}},
	}
	for _, g := range groups {
		for _, ext := range g.exts {
			iconsByExt[ext] = g.icon
		}
	}
}

// DefaultIcon is used for unrecognised or missing extensions.
const DefaultIcon = "📄"

// FileTypeIcon picks an icon from the filename extension.
func FileTypeIcon(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if icon, ok := iconsByExt[ext]; ok {
		return icon
	}
	return DefaultIcon
}

// SourceClass groups a synced-visit source description.
type SourceClass string

const (
	SourceSynced    SourceClass = "synced"
	SourceBrowsed   SourceClass = "browsed"
	SourceExtension SourceClass = "extension"
	SourceImported  SourceClass = "imported"
	SourceOther     SourceClass = ""
)

// ClassifySource maps a source description to its class.
func ClassifySource(desc string) SourceClass {
	switch {
	case strings.Contains(desc, "Synchronised"):
		return SourceSynced
	case strings.Contains(desc, "User browsed"):
		return SourceBrowsed
	case strings.Contains(desc, "Extension"):
		return SourceExtension
	case strings.Contains(desc, "Imported"):
		return SourceImported
	default:
		return SourceOther
	}
}

// BrowserLabel names the browser family that produced an artifact.
func BrowserLabel(browserType string) string {
	if browserType == "firefox" {
		return "Firefox"
	}
	return "Chrome/Edge"
}

// YesNo renders a boolean setting.
func YesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
