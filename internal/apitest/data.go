package apitest

import (
	"fmt"
	"time"

	"github.com/runnerr0/histview/internal/api"
)

var sampleDomains = []string{"github.com", "news.ycombinator.com", "pkg.go.dev", "github.com", "example.org"}

// SampleDataset builds a Chrome-flavoured dataset with n history entries,
// a few downloads, and full sync info. Two source groups share the
// filename "report.pdf" so join collisions can be exercised.
func SampleDataset(n int) Dataset {
	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	entries := make([]api.HistoryEntry, n)
	for i := range entries {
		dom := sampleDomains[i%len(sampleDomains)]
		entries[i] = api.HistoryEntry{
			ID:         int64(i + 1),
			Title:      fmt.Sprintf("Page %d", i+1),
			URL:        fmt.Sprintf("https://%s/item/%d", dom, i+1),
			VisitTime:  base.Add(time.Duration(i) * time.Minute).Format("2006-01-02 15:04:05"),
			VisitCount: int64(i%3 + 1),
			Domain:     dom,
		}
	}

	return Dataset{
		BrowserType: "chrome",
		Entries:     entries,
		Downloads: []api.Download{
			{Filename: "report.pdf", URL: "https://example.org/report.pdf", DownloadTime: "2026-09-01 09:00:00", FileSize: 1536, MimeType: "application/pdf", Status: api.StatusCompleted},
			{Filename: "setup.exe", URL: "https://github.com/releases/setup.exe", DownloadTime: "2026-09-01 09:30:00", FileSize: 0, Status: api.StatusInterrupted},
			{Filename: "", URL: "https://pkg.go.dev/archive.zip", DownloadTime: "2026-09-01 10:00:00", FileSize: 2 << 20, MimeType: "application/zip", Status: api.StatusInProgress},
		},
		DownloadSources: []api.DownloadSourceGroup{
			{Filename: "report.pdf", Sources: []api.DownloadSource{
				{Title: "Reports", URL: "https://example.org/reports", Time: "2026-09-01 08:59:00", MatchType: api.MatchSameDomain},
			}},
			{Filename: "setup.exe", Sources: []api.DownloadSource{
				{Title: "Releases", URL: "https://github.com/releases", Time: "2026-09-01 09:29:00", MatchType: api.MatchFilePattern},
			}},
			{Filename: "report.pdf", Sources: []api.DownloadSource{
				{Title: "Mail", URL: "https://mail.example.org/", Time: "2026-09-01 08:58:00", MatchType: api.MatchTemporal},
			}},
		},
		SyncInfo: &api.SyncInfo{
			AccountInfo: &api.AccountInfo{Email: "user@example.org", Name: "Test User", AccountType: "consumer", LastSyncTime: "2026-09-01 07:00:00"},
			SyncSettings: &api.SyncSettings{
				Enabled:       true,
				FirstSyncTime: "2025-01-01 00:00:00",
				LastSyncTime:  "2026-09-01 07:00:00",
				DataTypes: []api.SyncDataType{
					{Name: "bookmarks", Enabled: true},
					{Name: "passwords", Enabled: false},
				},
			},
			SyncedVisits: []api.SyncedVisit{
				{Title: "Phone visit", URL: "https://news.ycombinator.com/", VisitTime: "2026-09-01 06:00:00", SourceDesc: "Synced"},
				{Title: "Local visit", URL: "https://pkg.go.dev/", VisitTime: "2026-09-01 06:05:00", SourceDesc: "Browsed"},
			},
		},
	}
}
