package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Download statuses reported by the server.
const (
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
	StatusInterrupted = "interrupted"
	StatusInProgress  = "in_progress"
	StatusCanceled    = "canceled"
	StatusUnknown     = "unknown"
)

// How a candidate source page was matched to a download.
const (
	MatchSameDomain  = "same_domain"
	MatchFilePattern = "file_pattern"
	MatchTemporal    = "temporal"
)

// HistoryPage is one page of an uploaded artifact, as returned by
// POST /upload and GET /get_page.
type HistoryPage struct {
	FileID          string                `json:"file_id"`
	BrowserType     string                `json:"browser_type"`
	TotalEntries    int64                 `json:"total_entries"`
	Page            int                   `json:"page"`
	PageSize        int                   `json:"page_size"`
	TotalPages      int                   `json:"total_pages"`
	Entries         []HistoryEntry        `json:"entries"`
	Downloads       []Download            `json:"downloads"`
	DownloadSources []DownloadSourceGroup `json:"download_sources"`
	SyncInfo        *SyncInfo             `json:"sync_info,omitempty"`
}

// HistoryEntry is a single visited URL.
type HistoryEntry struct {
	ID         int64  `json:"id,omitempty"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	VisitTime  string `json:"visit_time"`
	VisitCount int64  `json:"visit_count,omitempty"`
	Domain     string `json:"domain"`
}

// Download is a browser download record.
type Download struct {
	Filename     string   `json:"filename"`
	URL          string   `json:"url"`
	Referrer     string   `json:"referrer,omitempty"`
	DownloadTime string   `json:"download_time"`
	FileSize     FileSize `json:"file_size"`
	MimeType     string   `json:"mime_type"`
	Status       string   `json:"status"`
}

// DownloadSourceGroup lists candidate pages a download may have come from.
// It is joined to a Download by Filename.
type DownloadSourceGroup struct {
	Filename string           `json:"filename"`
	Sources  []DownloadSource `json:"sources"`
}

// DownloadSource is one candidate source page.
type DownloadSource struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Time      string `json:"time"`
	MatchType string `json:"match_type"`
}

// SyncInfo holds browser-account synchronisation metadata. Each part is optional.
type SyncInfo struct {
	AccountInfo  *AccountInfo  `json:"account_info,omitempty"`
	SyncSettings *SyncSettings `json:"sync_settings,omitempty"`
	SyncedVisits []SyncedVisit `json:"synced_visits,omitempty"`
}

// AccountInfo is the signed-in browser account.
type AccountInfo struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	AccountType  string `json:"account_type"`
	LastSyncTime string `json:"last_sync_time"`
	Note         string `json:"note,omitempty"`
}

// SyncSettings describes which data types the browser syncs.
type SyncSettings struct {
	Enabled       bool           `json:"enabled"`
	FirstSyncTime string         `json:"first_sync_time"`
	LastSyncTime  string         `json:"last_sync_time"`
	DataTypes     []SyncDataType `json:"data_types"`
}

// SyncDataType is one syncable data type and whether it is on.
type SyncDataType struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// SyncedVisit is a visit annotated with where it came from.
type SyncedVisit struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	VisitTime  string `json:"visit_time"`
	SourceDesc string `json:"source_desc"`
}

// IsEmpty reports whether none of the three sections carry data.
func (s *SyncInfo) IsEmpty() bool {
	if s == nil {
		return true
	}
	return s.AccountInfo == nil && s.SyncSettings == nil && len(s.SyncedVisits) == 0
}

// SyncInfoResponse is the body of GET /get_sync_info.
type SyncInfoResponse struct {
	FileID      string    `json:"file_id"`
	BrowserType string    `json:"browser_type"`
	SyncInfo    *SyncInfo `json:"sync_info"`
}

// DownloadsResponse is the body of GET /get_downloads.
type DownloadsResponse struct {
	FileID          string                `json:"file_id"`
	BrowserType     string                `json:"browser_type"`
	Downloads       []Download            `json:"downloads"`
	DownloadSources []DownloadSourceGroup `json:"download_sources"`
}

// ExportFilters narrows an export. Empty fields are omitted.
type ExportFilters struct {
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Domain    string `json:"domain,omitempty"`
	Search    string `json:"search,omitempty"`
}

// ExportRequest is the JSON body of POST /api/export.
type ExportRequest struct {
	FileID   string        `json:"file_id"`
	Format   string        `json:"format"`
	DataType string        `json:"data_type"`
	Filters  ExportFilters `json:"filters"`
}

// SuggestedFilename returns browser_{dataType}_{fileId}.{format}.
func (r ExportRequest) SuggestedFilename() string {
	return fmt.Sprintf("browser_%s_%s.%s", r.DataType, r.FileID, r.Format)
}

// ExportResult is a successful export payload.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Save writes the payload into dir under its filename and returns the path.
// Directory components in Filename are dropped.
func (r ExportResult) Save(dir string) (string, error) {
	name := filepath.Base(r.Filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "", fmt.Errorf("export has no filename")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, r.Data, 0644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// FileSize is a byte count that the server sends either as a JSON number
// or as a numeric string. Zero means unknown.
type FileSize int64

// UnmarshalJSON accepts numbers, numeric strings, and null.
func (f *FileSize) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
		if len(b) == 0 {
			*f = 0
			return nil
		}
	}

	n, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		// Non-numeric sizes render as unknown.
		*f = 0
		return nil
	}
	*f = FileSize(n)
	return nil
}
