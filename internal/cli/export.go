package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/runnerr0/histview/internal/api"
	"github.com/runnerr0/histview/internal/config"
)

const dateLayout = "2006-01-02"

var legacyKinds = map[string]api.LegacyKind{
	"history":   api.LegacyHistory,
	"downloads": api.LegacyDownloads,
	"sync":      api.LegacySync,
}

type exportJSON struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
	Bytes    int    `json:"bytes"`
	Format   string `json:"format"`
	DataType string `json:"data_type"`
	Legacy   bool   `json:"legacy,omitempty"`
}

// Execute implements the go-flags Commander interface for ExportCommand.
func (c *ExportCommand) Execute(args []string) error {
	return withEnv(c.globals, c.executeWith)
}

// request builds the export request from flags, falling back to config.
func (c *ExportCommand) request(cfg *config.Config, fileID string) (api.ExportRequest, error) {
	req := api.ExportRequest{
		FileID:   fileID,
		Format:   strings.ToLower(c.Format),
		DataType: strings.ToLower(c.DataType),
		Filters: api.ExportFilters{
			StartDate: c.StartDate,
			EndDate:   c.EndDate,
			Domain:    c.Domain,
			Search:    c.Search,
		},
	}
	if req.Format == "" {
		req.Format = cfg.Export.Format
	}
	if req.DataType == "" {
		req.DataType = cfg.Export.DataType
	}

	if !contains(config.ExportFormats, req.Format) {
		return req, fmt.Errorf("unknown --format %q (want one of %s)", req.Format, strings.Join(config.ExportFormats, ", "))
	}
	if !contains(config.ExportDataTypes, req.DataType) {
		return req, fmt.Errorf("unknown --type %q (want one of %s)", req.DataType, strings.Join(config.ExportDataTypes, ", "))
	}
	for flag, v := range map[string]string{"--start-date": c.StartDate, "--end-date": c.EndDate} {
		if v == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, v); err != nil {
			return req, fmt.Errorf("invalid %s %q: use YYYY-MM-DD", flag, v)
		}
	}
	return req, nil
}

func (c *ExportCommand) executeWith(ctx context.Context, e *env) error {
	id, err := e.ctrl.ActiveFileID(ctx, e.newSession())
	if err != nil {
		return err
	}

	dir := c.Out
	if dir == "" {
		dir = e.cfg.Export.Dir
	}
	if dir, err = config.ExpandPath(dir); err != nil {
		return err
	}

	var (
		res api.ExportResult
		out exportJSON
	)
	if c.Legacy {
		dataType := strings.ToLower(c.DataType)
		if dataType == "" {
			dataType = "history"
		}
		kind, ok := legacyKinds[dataType]
		if !ok {
			return fmt.Errorf("--legacy supports --type history, downloads or sync, not %q", dataType)
		}
		res, err = e.client.LegacyExport(ctx, kind, id)
		out = exportJSON{Format: "csv", DataType: dataType, Legacy: true}
	} else {
		var req api.ExportRequest
		if req, err = c.request(e.cfg, id); err != nil {
			return err
		}
		e.logger.Info("export requested", "file_id", id, "format", req.Format, "data_type", req.DataType)
		res, err = e.client.Export(ctx, req)
		out = exportJSON{Format: req.Format, DataType: req.DataType}
	}
	if err != nil {
		return fmt.Errorf("export failed: %s", api.UserMessage(err))
	}

	path, err := res.Save(dir)
	if err != nil {
		return err
	}
	out.Path = path
	out.Filename = res.Filename
	out.Bytes = len(res.Data)

	if jsonOutput(c.globals) {
		return printJSON(out)
	}
	fmt.Printf("Export completed: %s (%s)\n", path, humanize.IBytes(uint64(len(res.Data))))
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
