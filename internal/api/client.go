package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds every request when the caller does not set one.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response is read.
const maxErrorBody = 1024 * 1024

// RequestIDHeader carries a per-request id so client and server logs line up.
const RequestIDHeader = "X-Request-ID"

// Client talks to the history analysis server.
type Client struct {
	BaseURL *url.URL
	HTTP    *http.Client

	logger *slog.Logger
}

// NewClient constructs a client for the server at base. A zero timeout
// means DefaultTimeout; a nil logger discards output.
func NewClient(base string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parse server url: %q is not absolute", base)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		BaseURL: u,
		HTTP:    &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// Upload sends the artifact at path and returns the requested page of it.
func (c *Client) Upload(ctx context.Context, path string, page, pageSize int) (HistoryPage, error) {
	f, err := os.Open(path)
	if err != nil {
		return HistoryPage{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	return c.UploadReader(ctx, filepath.Base(path), f, page, pageSize)
}

// UploadReader is Upload for content that is not on disk.
func (c *Client) UploadReader(ctx context.Context, name string, r io.Reader, page, pageSize int) (HistoryPage, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeUploadForm(mw, name, r, page, pageSize)
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/upload", nil), pr)
	if err != nil {
		pr.Close()
		return HistoryPage{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.fetchPage(req, "upload", "")
}

func writeUploadForm(mw *multipart.Writer, name string, r io.Reader, page, pageSize int) error {
	if err := mw.WriteField("page", strconv.Itoa(clampPage(page))); err != nil {
		return err
	}
	if pageSize > 0 {
		if err := mw.WriteField("page_size", strconv.Itoa(pageSize)); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, r); err != nil {
		return err
	}
	return mw.Close()
}

// LoadPage fetches one page of a previously uploaded artifact. An unknown
// id yields *InvalidFileIDError.
func (c *Client) LoadPage(ctx context.Context, fileID string, page, pageSize int) (HistoryPage, error) {
	q := url.Values{}
	q.Set("file_id", fileID)
	q.Set("page", strconv.Itoa(clampPage(page)))
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/get_page", q), nil)
	if err != nil {
		return HistoryPage{}, err
	}
	return c.fetchPage(req, "load page", fileID)
}

// FetchSyncInfo returns the sync metadata for fileID, or nil when the
// server has none.
func (c *Client) FetchSyncInfo(ctx context.Context, fileID string) (*SyncInfo, error) {
	q := url.Values{}
	q.Set("file_id", fileID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/get_sync_info", q), nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		SyncInfoResponse
		Error string `json:"error"`
	}
	if err := c.doJSON(req, "sync info", fileID, &out); err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, classify(http.StatusOK, out.Error, fileID)
	}
	if out.SyncInfo.IsEmpty() {
		return nil, nil
	}
	return out.SyncInfo, nil
}

// FetchDownloads returns the downloads and their source groups for fileID.
func (c *Client) FetchDownloads(ctx context.Context, fileID string) (DownloadsResponse, error) {
	q := url.Values{}
	q.Set("file_id", fileID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/get_downloads", q), nil)
	if err != nil {
		return DownloadsResponse{}, err
	}

	var out struct {
		DownloadsResponse
		Error string `json:"error"`
	}
	if err := c.doJSON(req, "downloads", fileID, &out); err != nil {
		return DownloadsResponse{}, err
	}
	if out.Error != "" {
		return DownloadsResponse{}, classify(http.StatusOK, out.Error, fileID)
	}
	return out.DownloadsResponse, nil
}

// Export runs the unified export. On success the payload is returned with
// the suggested filename; the caller decides where to write it.
func (c *Client) Export(ctx context.Context, er ExportRequest) (ExportResult, error) {
	b, err := json.Marshal(er)
	if err != nil {
		return ExportResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/export", nil), bytes.NewReader(b))
	if err != nil {
		return ExportResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.download(req, "export", er.FileID)
	if err != nil {
		return ExportResult{}, err
	}
	res.Filename = er.SuggestedFilename()
	return res, nil
}

// LegacyKind selects one of the direct-download export endpoints.
type LegacyKind string

const (
	LegacyHistory   LegacyKind = "history"
	LegacyDownloads LegacyKind = "downloads"
	LegacySync      LegacyKind = "sync"
)

var legacyPaths = map[LegacyKind]string{
	LegacyHistory:   "/export/",
	LegacyDownloads: "/export_downloads/",
	LegacySync:      "/export_sync_data/",
}

// LegacyExport fetches a CSV from one of the older per-type endpoints.
func (c *Client) LegacyExport(ctx context.Context, kind LegacyKind, fileID string) (ExportResult, error) {
	prefix, ok := legacyPaths[kind]
	if !ok {
		return ExportResult{}, fmt.Errorf("unknown legacy export %q", kind)
	}

	u := c.BaseURL.ResolveReference(&url.URL{Path: prefix + fileID, RawPath: prefix + url.PathEscape(fileID)})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return ExportResult{}, err
	}

	res, err := c.download(req, "export", fileID)
	if err != nil {
		return ExportResult{}, err
	}
	if res.Filename == "" {
		res.Filename = fmt.Sprintf("browser_%s_%s.csv", kind, fileID)
	}
	return res, nil
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := c.BaseURL.ResolveReference(&url.URL{Path: path})
	if q != nil {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) fetchPage(req *http.Request, op, fileID string) (HistoryPage, error) {
	var out struct {
		HistoryPage
		Error string `json:"error"`
	}
	if err := c.doJSON(req, op, fileID, &out); err != nil {
		return HistoryPage{}, err
	}
	if out.Error != "" {
		return HistoryPage{}, classify(http.StatusOK, out.Error, fileID)
	}
	return out.HistoryPage, nil
}

// send performs req, tagging it with a request id and logging the outcome.
// Non-2xx responses are turned into typed errors.
func (c *Client) send(req *http.Request, op, fileID string) (*http.Response, error) {
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Warn("request failed",
			"method", req.Method, "path", req.URL.Path, "request_id", reqID,
			"duration", elapsed, "error", err)
		return nil, &TransportError{Op: op, Err: err}
	}

	c.logger.Debug("request",
		"method", req.Method, "path", req.URL.Path, "request_id", reqID,
		"status", resp.StatusCode, "duration", elapsed)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	buf, _ := ioReadAllLimit(resp.Body, maxErrorBody)
	if msg, ok := errorMessage(buf); ok {
		c.logger.Warn("server error",
			"path", req.URL.Path, "request_id", reqID, "status", resp.StatusCode, "error", msg)
		return nil, classify(resp.StatusCode, msg, fileID)
	}
	c.logger.Warn("unexpected status",
		"path", req.URL.Path, "request_id", reqID, "status", resp.StatusCode)
	return nil, &TransportError{Op: op, Status: resp.StatusCode}
}

func (c *Client) doJSON(req *http.Request, op, fileID string, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.send(req, op, fileID)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) download(req *http.Request, op, fileID string) (ExportResult, error) {
	resp, err := c.send(req, op, fileID)
	if err != nil {
		return ExportResult{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return ExportResult{}, &TransportError{Op: op, Err: err}
	}

	ct := resp.Header.Get("Content-Type")
	if isJSON(ct) {
		// A JSON export body is data unless it is an error object.
		if msg, ok := errorMessage(data); ok {
			return ExportResult{}, classify(resp.StatusCode, msg, fileID)
		}
	}

	return ExportResult{
		Filename:    attachmentName(resp.Header.Get("Content-Disposition")),
		ContentType: ct,
		Data:        data,
	}, nil
}

// errorMessage extracts a non-empty "error" string from a JSON object body.
func errorMessage(body []byte) (string, bool) {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", false
	}
	if payload.Error == "" {
		return "", false
	}
	return payload.Error, true
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "application/json")
	}
	return mt == "application/json"
}

func attachmentName(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil || params["filename"] == "" {
		return ""
	}
	return filepath.Base(params["filename"])
}

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func ioReadAllLimit(r io.Reader, max int64) ([]byte, error) {
	buf := &bytes.Buffer{}
	if max <= 0 {
		return io.ReadAll(r)
	}
	_, err := io.CopyN(buf, r, max+1)
	if err != nil && err != io.EOF {
		return nil, err
	}
	b := buf.Bytes()
	if int64(len(b)) > max {
		return b[:max], nil
	}
	return b, nil
}
