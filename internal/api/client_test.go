package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/runnerr0/histview/internal/api"
	"github.com/runnerr0/histview/internal/apitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, srv *apitest.Server) *api.Client {
	t.Helper()
	c, err := api.NewClient(srv.URL, 5*time.Second, nil)
	require.NoError(t, err)
	return c
}

func writeArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "History")
	require.NoError(t, os.WriteFile(path, []byte("SQLite format 3\x00fake"), 0644))
	return path
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	_, err := api.NewClient("localhost:5002", 0, nil)
	assert.Error(t, err)

	c, err := api.NewClient("http://127.0.0.1:5002", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, api.DefaultTimeout, c.HTTP.Timeout)
}

func TestUpload_ThenLoadPageOne_SameEntries(t *testing.T) {
	srv := apitest.New(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	uploaded, err := c.Upload(ctx, writeArtifact(t), 1, 10)
	require.NoError(t, err)
	require.NotEmpty(t, uploaded.FileID)
	assert.Equal(t, 1, uploaded.Page)
	assert.Equal(t, 3, uploaded.TotalPages)
	assert.Equal(t, int64(25), uploaded.TotalEntries)
	require.Len(t, uploaded.Entries, 10)

	page, err := c.LoadPage(ctx, uploaded.FileID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, uploaded.Entries, page.Entries)

	ups := srv.Uploads()
	require.Len(t, ups, 1)
	assert.Equal(t, "History", ups[0].Filename)
	assert.Equal(t, 10, ups[0].PageSize)
	assert.Greater(t, ups[0].Size, int64(0))
}

func TestUpload_MissingFile(t *testing.T) {
	srv := apitest.New(t)
	c := newTestClient(t, srv)

	_, err := c.Upload(context.Background(), filepath.Join(t.TempDir(), "nope"), 1, 10)
	require.Error(t, err)
	assert.Empty(t, srv.Requests(), "nothing should reach the server")
}

func TestUpload_ServerErrorShownVerbatim(t *testing.T) {
	srv := apitest.New(t)
	srv.Fail("/upload", apitest.Failure{Status: http.StatusInternalServerError, Body: `{"error":"Error processing chrome history: file is not a database"}`})
	c := newTestClient(t, srv)

	_, err := c.Upload(context.Background(), writeArtifact(t), 1, 10)
	require.Error(t, err)

	var se *api.ServerError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Status)
	assert.Equal(t, "Error processing chrome history: file is not a database", api.UserMessage(err))
	assert.False(t, api.IsInvalidFileID(err))
}

func TestLoadPage_LaterPage(t *testing.T) {
	srv := apitest.New(t)
	id := srv.AddFile(apitest.SampleDataset(25))
	c := newTestClient(t, srv)

	page, err := c.LoadPage(context.Background(), id, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Page)
	require.Len(t, page.Entries, 5)
	assert.Equal(t, "Page 21", page.Entries[0].Title)
}

func TestLoadPage_UnknownID(t *testing.T) {
	srv := apitest.New(t)
	c := newTestClient(t, srv)

	_, err := c.LoadPage(context.Background(), "gone", 1, 10)
	require.Error(t, err)
	assert.True(t, api.IsInvalidFileID(err))
	assert.Equal(t, "Invalid file ID", api.UserMessage(err))

	var invalid *api.InvalidFileIDError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "gone", invalid.FileID)

	// Still a server-reported error
	var se *api.ServerError
	assert.True(t, errors.As(err, &se))
}

func TestLoadPage_Timeout(t *testing.T) {
	srv := apitest.New(t)
	id := srv.AddFile(apitest.SampleDataset(3))
	srv.Delay("/get_page", 2*time.Second)

	c, err := api.NewClient(srv.URL, 50*time.Millisecond, nil)
	require.NoError(t, err)

	_, err = c.LoadPage(context.Background(), id, 1, 10)
	require.Error(t, err)

	var te *api.TransportError
	require.True(t, errors.As(err, &te))
	assert.True(t, te.Timeout())
	assert.Equal(t, "load page timed out", api.UserMessage(err))
}

func TestLoadPage_ConnectionRefused(t *testing.T) {
	srv := apitest.New(t)
	c := newTestClient(t, srv)
	c.BaseURL.Host = "127.0.0.1:1"

	_, err := c.LoadPage(context.Background(), "x", 1, 10)
	var te *api.TransportError
	require.True(t, errors.As(err, &te))
	assert.Zero(t, te.Status)
	assert.False(t, api.IsInvalidFileID(err))
}

func TestRequestsCarryUniqueRequestID(t *testing.T) {
	srv := apitest.New(t)
	id := srv.AddFile(apitest.SampleDataset(3))
	c := newTestClient(t, srv)
	ctx := context.Background()

	_, err := c.LoadPage(ctx, id, 1, 10)
	require.NoError(t, err)
	_, err = c.FetchSyncInfo(ctx, id)
	require.NoError(t, err)

	reqs := srv.Requests()
	require.Len(t, reqs, 2)
	assert.NotEmpty(t, reqs[0].RequestID)
	assert.NotEmpty(t, reqs[1].RequestID)
	assert.NotEqual(t, reqs[0].RequestID, reqs[1].RequestID)
}

func TestFetchSyncInfo(t *testing.T) {
	srv := apitest.New(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	withSync := srv.AddFile(apitest.SampleDataset(3))
	info, err := c.FetchSyncInfo(ctx, withSync)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "user@example.org", info.AccountInfo.Email)
	assert.Len(t, info.SyncedVisits, 2)

	d := apitest.SampleDataset(3)
	d.SyncInfo = nil
	without := srv.AddFile(d)
	info, err = c.FetchSyncInfo(ctx, without)
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestFetchDownloads(t *testing.T) {
	srv := apitest.New(t)
	id := srv.AddFile(apitest.SampleDataset(3))
	c := newTestClient(t, srv)

	res, err := c.FetchDownloads(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, res.FileID)
	assert.Len(t, res.Downloads, 3)
	assert.Len(t, res.DownloadSources, 3)
	assert.Equal(t, api.FileSize(1536), res.Downloads[0].FileSize)
}

func TestExport_CSVSuccess(t *testing.T) {
	srv := apitest.New(t)
	id := srv.AddFile(apitest.SampleDataset(5))
	c := newTestClient(t, srv)

	res, err := c.Export(context.Background(), api.ExportRequest{FileID: id, Format: "csv", DataType: "history"})
	require.NoError(t, err)
	assert.Equal(t, "browser_history_"+id+".csv", res.Filename)
	assert.True(t, strings.HasPrefix(string(res.Data), "url,title,visit_time,domain\n"))
	assert.Contains(t, res.ContentType, "text/csv")
}

func TestExport_JSONPayloadIsNotAnError(t *testing.T) {
	srv := apitest.New(t)
	id := srv.AddFile(apitest.SampleDataset(5))
	c := newTestClient(t, srv)

	res, err := c.Export(context.Background(), api.ExportRequest{FileID: id, Format: "json", DataType: "domains"})
	require.NoError(t, err)
	assert.Equal(t, "browser_domains_"+id+".json", res.Filename)

	var rows []map[string]string
	require.NoError(t, json.Unmarshal(res.Data, &rows))
	assert.NotEmpty(t, rows)
}

func TestExport_FiltersAreSent(t *testing.T) {
	srv := apitest.New(t)
	id := srv.AddFile(apitest.SampleDataset(10))
	c := newTestClient(t, srv)

	res, err := c.Export(context.Background(), api.ExportRequest{
		FileID: id, Format: "csv", DataType: "history",
		Filters: api.ExportFilters{Domain: "pkg.go.dev"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(res.Data)), "\n")
	// header + 2 of 10 sample entries are on pkg.go.dev
	assert.Len(t, lines, 3)
	for _, l := range lines[1:] {
		assert.Contains(t, l, "pkg.go.dev")
	}
}

func TestExport_ServerErrorMessageVerbatim(t *testing.T) {
	srv := apitest.New(t)
	id := srv.AddFile(apitest.SampleDataset(5))
	srv.Fail("/api/export", apitest.Failure{Status: http.StatusInternalServerError, Body: `{"error":"disk full"}`})
	c := newTestClient(t, srv)

	_, err := c.Export(context.Background(), api.ExportRequest{FileID: id, Format: "csv", DataType: "history"})
	require.Error(t, err)
	assert.Equal(t, "disk full", api.UserMessage(err))

	var se *api.ServerError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Status)
}

func TestExport_NonJSONFailure(t *testing.T) {
	srv := apitest.New(t)
	id := srv.AddFile(apitest.SampleDataset(5))
	srv.Fail("/api/export", apitest.Failure{Status: http.StatusBadGateway, ContentType: "text/html", Body: "<h1>Bad Gateway</h1>"})
	c := newTestClient(t, srv)

	_, err := c.Export(context.Background(), api.ExportRequest{FileID: id, Format: "csv", DataType: "history"})
	var te *api.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusBadGateway, te.Status)
	assert.Equal(t, "export failed with status 502", api.UserMessage(err))
}

func TestExport_NoData(t *testing.T) {
	srv := apitest.New(t)
	d := apitest.SampleDataset(5)
	d.Downloads = nil
	id := srv.AddFile(d)
	c := newTestClient(t, srv)

	_, err := c.Export(context.Background(), api.ExportRequest{FileID: id, Format: "csv", DataType: "downloads"})
	require.Error(t, err)
	assert.Equal(t, "No downloads data available for export", api.UserMessage(err))
}

func TestExport_InvalidFileID(t *testing.T) {
	srv := apitest.New(t)
	c := newTestClient(t, srv)

	_, err := c.Export(context.Background(), api.ExportRequest{FileID: "stale", Format: "csv", DataType: "history"})
	assert.True(t, api.IsInvalidFileID(err))
	assert.Equal(t, "Invalid file ID: stale", api.UserMessage(err))
}

func TestLegacyExport(t *testing.T) {
	srv := apitest.New(t)
	id := srv.AddFile(apitest.SampleDataset(5))
	c := newTestClient(t, srv)
	ctx := context.Background()

	tests := []struct {
		kind     api.LegacyKind
		filename string
		header   string
	}{
		{api.LegacyHistory, "browser_history_" + id + ".csv", "url,title"},
		{api.LegacyDownloads, "browser_downloads_" + id + ".csv", "filename,url"},
		{api.LegacySync, "browser_sync_" + id + ".csv", "url,title,visit_time,source_desc"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			res, err := c.LegacyExport(ctx, tt.kind, id)
			require.NoError(t, err)
			assert.Equal(t, tt.filename, res.Filename)
			assert.True(t, strings.HasPrefix(string(res.Data), tt.header))
		})
	}

	_, err := c.LegacyExport(ctx, "bogus", id)
	assert.Error(t, err)
}
