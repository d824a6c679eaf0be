package render

import (
	"strings"

	"github.com/runnerr0/histview/internal/api"
	"github.com/runnerr0/histview/internal/format"
)

// FilterEntries keeps entries whose title, URL, visit time or domain contain
// query, ignoring case. A blank query keeps everything. The input slice is
// not modified.
func FilterEntries(entries []api.HistoryEntry, query string) []api.HistoryEntry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return entries
	}
	out := make([]api.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if anyContains(q, e.Title, e.URL, e.VisitTime, e.Domain) {
			out = append(out, e)
		}
	}
	return out
}

// FilterDownloads keeps items whose filename, URL, MIME type, status or
// source pages contain query, ignoring case.
func FilterDownloads(items []DownloadItem, query string) []DownloadItem {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}
	out := make([]DownloadItem, 0, len(items))
	for _, it := range items {
		d := it.Download
		parts := []string{
			d.Filename, d.URL, d.DownloadTime, d.MimeType, d.Status,
			format.FileSize(int64(d.FileSize)),
		}
		for _, s := range it.Sources {
			parts = append(parts, s.Title, s.URL)
		}
		if anyContains(q, parts...) {
			out = append(out, it)
		}
	}
	return out
}

// anyContains reports whether a single field contains q. q is lower case.
func anyContains(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
