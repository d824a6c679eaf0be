// Package apitest runs an in-process fake of the history analysis server
// for tests.
package apitest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/runnerr0/histview/internal/api"
)

// DefaultPageSize matches the real server's default.
const DefaultPageSize = 1000

// Dataset is everything the server knows about one uploaded artifact.
type Dataset struct {
	BrowserType     string
	Entries         []api.HistoryEntry
	Downloads       []api.Download
	DownloadSources []api.DownloadSourceGroup
	SyncInfo        *api.SyncInfo
}

// Failure is a canned response returned instead of the normal handler.
type Failure struct {
	Status      int
	ContentType string
	Body        string
}

// Request is one request the server received.
type Request struct {
	Method    string
	Path      string
	RequestID string
}

// Upload is one received upload.
type Upload struct {
	Filename string
	Size     int64
	Page     int
	PageSize int
}

// Server is a fake history API backed by in-memory datasets.
type Server struct {
	URL string

	srv *httptest.Server

	mu       sync.Mutex
	files    map[string]Dataset
	next     Dataset
	failures map[string]Failure
	delays   map[string]time.Duration
	requests []Request
	uploads  []Upload
}

// New starts a server and stops it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		files:    make(map[string]Dataset),
		next:     SampleDataset(25),
		failures: make(map[string]Failure),
		delays:   make(map[string]time.Duration),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(s.record)

	e.POST("/upload", s.handleUpload)
	e.GET("/get_page", s.handleGetPage)
	e.GET("/get_sync_info", s.handleSyncInfo)
	e.GET("/get_downloads", s.handleDownloads)
	e.POST("/api/export", s.handleExport)
	e.GET("/export/:id", s.handleLegacy("history"))
	e.GET("/export_downloads/:id", s.handleLegacy("downloads"))
	e.GET("/export_sync_data/:id", s.handleLegacy("sync"))

	s.srv = httptest.NewServer(e)
	s.URL = s.srv.URL
	t.Cleanup(s.srv.Close)

	return s
}

// SetUploadDataset sets what the next uploads will produce.
func (s *Server) SetUploadDataset(d Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = d
}

// AddFile registers d as an already-uploaded artifact and returns its id.
func (s *Server) AddFile(d Dataset) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.files[id] = d
	return id
}

// Forget drops a file id, as the real server does after a restart.
func (s *Server) Forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, id)
}

// Fail makes every request to route return f until cleared with Clear.
// route is the registered pattern, e.g. "/api/export" or "/export/:id".
func (s *Server) Fail(route string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.ContentType == "" {
		f.ContentType = echo.MIMEApplicationJSON
	}
	s.failures[route] = f
}

// Delay holds responses on route for d, or until the client gives up.
func (s *Server) Delay(route string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[route] = d
}

// Clear removes all failures and delays.
func (s *Server) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]Failure)
	s.delays = make(map[string]time.Duration)
}

// Requests returns a copy of the request log.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Uploads returns a copy of the upload log.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:    req.Method,
			Path:      req.URL.Path,
			RequestID: req.Header.Get(api.RequestIDHeader),
		})
		failure, failing := s.failures[c.Path()]
		delay := s.delays[c.Path()]
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-req.Context().Done():
				return req.Context().Err()
			}
		}
		if failing {
			return c.Blob(failure.Status, failure.ContentType, []byte(failure.Body))
		}
		return next(c)
	}
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

func (s *Server) handleUpload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "No file part")
	}
	if fh.Filename == "" {
		return errorJSON(c, http.StatusBadRequest, "No selected file")
	}
	src, err := fh.Open()
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}
	size, _ := io.Copy(io.Discard, src)
	src.Close()

	page := formInt(c.FormValue("page"), 1)
	pageSize := formInt(c.FormValue("page_size"), DefaultPageSize)

	s.mu.Lock()
	id := uuid.NewString()
	d := s.next
	s.files[id] = d
	s.uploads = append(s.uploads, Upload{Filename: fh.Filename, Size: size, Page: page, PageSize: pageSize})
	s.mu.Unlock()

	return c.JSON(http.StatusOK, buildPage(id, d, page, pageSize))
}

func (s *Server) handleGetPage(c echo.Context) error {
	d, id, ok := s.lookup(c.QueryParam("file_id"))
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "Invalid file ID")
	}
	page := formInt(c.QueryParam("page"), 1)
	pageSize := formInt(c.QueryParam("page_size"), DefaultPageSize)
	return c.JSON(http.StatusOK, buildPage(id, d, page, pageSize))
}

func (s *Server) handleSyncInfo(c echo.Context) error {
	d, id, ok := s.lookup(c.QueryParam("file_id"))
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "Invalid file ID")
	}
	return c.JSON(http.StatusOK, api.SyncInfoResponse{FileID: id, BrowserType: d.BrowserType, SyncInfo: d.SyncInfo})
}

func (s *Server) handleDownloads(c echo.Context) error {
	d, id, ok := s.lookup(c.QueryParam("file_id"))
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "Invalid file ID")
	}
	return c.JSON(http.StatusOK, api.DownloadsResponse{
		FileID:          id,
		BrowserType:     d.BrowserType,
		Downloads:       nonNil(d.Downloads),
		DownloadSources: nonNil(d.DownloadSources),
	})
}

func (s *Server) handleExport(c echo.Context) error {
	var req api.ExportRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "No data provided")
	}
	if req.FileID == "" {
		return errorJSON(c, http.StatusBadRequest, "File ID is required")
	}
	d, _, ok := s.lookup(req.FileID)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "Invalid file ID: "+req.FileID)
	}

	format := strings.ToLower(req.Format)
	if format == "" {
		format = "csv"
	}
	dataType := strings.ToLower(req.DataType)
	if dataType == "" {
		dataType = "history"
	}

	header, rows, err := exportRows(d, dataType, req.Filters)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	if len(rows) == 0 {
		return errorJSON(c, http.StatusNotFound, fmt.Sprintf("No %s data available for export", dataType))
	}

	name := fmt.Sprintf("browser_%s_%s", dataType, req.FileID)
	switch format {
	case "json":
		items := make([]map[string]string, len(rows))
		for i, row := range rows {
			item := make(map[string]string, len(header))
			for j, h := range header {
				item[h] = row[j]
			}
			items[i] = item
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`.json"`)
		return c.JSON(http.StatusOK, items)
	case "csv", "excel":
		// No spreadsheet writer here; excel falls back to CSV like the real server.
		return sendCSV(c, name+".csv", header, rows)
	default:
		return errorJSON(c, http.StatusBadRequest, "Unsupported export format: "+format)
	}
}

func (s *Server) handleLegacy(kind string) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		d, _, ok := s.lookup(id)
		if !ok {
			return errorJSON(c, http.StatusBadRequest, "Invalid file ID: "+id)
		}

		var header []string
		var rows [][]string
		var name string
		switch kind {
		case "history":
			header, rows, _ = exportRows(d, "history", api.ExportFilters{})
			name = "browser_history_" + id + ".csv"
		case "downloads":
			header, rows, _ = exportRows(d, "downloads", api.ExportFilters{})
			name = "browser_downloads_" + id + ".csv"
		case "sync":
			if d.SyncInfo == nil {
				return errorJSON(c, http.StatusNotFound, "No sync data available")
			}
			header = []string{"url", "title", "visit_time", "source_desc"}
			for _, v := range d.SyncInfo.SyncedVisits {
				rows = append(rows, []string{v.URL, v.Title, v.VisitTime, v.SourceDesc})
			}
			name = "browser_sync_" + id + ".csv"
		}
		if len(rows) == 0 {
			return errorJSON(c, http.StatusNotFound, "No entries available for export")
		}
		return sendCSV(c, name, header, rows)
	}
}

func (s *Server) lookup(id string) (Dataset, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.files[id]
	return d, id, ok
}

func buildPage(id string, d Dataset, page, pageSize int) api.HistoryPage {
	total := len(d.Entries)
	totalPages := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return api.HistoryPage{
		FileID:          id,
		BrowserType:     d.BrowserType,
		TotalEntries:    int64(total),
		Page:            page,
		PageSize:        pageSize,
		TotalPages:      totalPages,
		Entries:         nonNil(d.Entries[start:end]),
		Downloads:       nonNil(d.Downloads),
		DownloadSources: nonNil(d.DownloadSources),
		SyncInfo:        d.SyncInfo,
	}
}

func exportRows(d Dataset, dataType string, f api.ExportFilters) ([]string, [][]string, error) {
	switch dataType {
	case "history":
		header := []string{"url", "title", "visit_time", "domain"}
		var rows [][]string
		for _, e := range d.Entries {
			if f.Domain != "" && e.Domain != f.Domain {
				continue
			}
			if f.Search != "" && !strings.Contains(strings.ToLower(e.Title+" "+e.URL), strings.ToLower(f.Search)) {
				continue
			}
			rows = append(rows, []string{e.URL, e.Title, e.VisitTime, e.Domain})
		}
		return header, rows, nil
	case "domains":
		header := []string{"domain", "visit_count"}
		counts := map[string]int{}
		var order []string
		for _, e := range d.Entries {
			if e.Domain == "" {
				continue
			}
			if counts[e.Domain] == 0 {
				order = append(order, e.Domain)
			}
			counts[e.Domain]++
		}
		var rows [][]string
		for _, dom := range order {
			rows = append(rows, []string{dom, strconv.Itoa(counts[dom])})
		}
		return header, rows, nil
	case "downloads":
		header := []string{"filename", "url", "download_time", "file_size", "mime_type", "status"}
		var rows [][]string
		for _, dl := range d.Downloads {
			rows = append(rows, []string{
				dl.Filename, dl.URL, dl.DownloadTime,
				strconv.FormatInt(int64(dl.FileSize), 10), dl.MimeType, dl.Status,
			})
		}
		return header, rows, nil
	case "timeline":
		header := []string{"date", "visit_count"}
		counts := map[string]int{}
		var order []string
		for _, e := range d.Entries {
			day := e.VisitTime
			if len(day) >= 10 {
				day = day[:10]
			}
			if counts[day] == 0 {
				order = append(order, day)
			}
			counts[day]++
		}
		var rows [][]string
		for _, day := range order {
			rows = append(rows, []string{day, strconv.Itoa(counts[day])})
		}
		return header, rows, nil
	default:
		return nil, nil, fmt.Errorf("Unsupported data type: %s", dataType)
	}
}

func sendCSV(c echo.Context, filename string, header []string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(header) //nolint:errcheck
	w.WriteAll(rows) //nolint:errcheck

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
}

func formInt(v string, def int) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
