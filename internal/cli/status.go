package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/runnerr0/histview/internal/format"
	"github.com/runnerr0/histview/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version        string `json:"version"`
	ServerURL      string `json:"server_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	PageSize       int    `json:"page_size"`
	StatePath      string `json:"state_path"`
	StateSizeBytes int64  `json:"state_size_bytes"`
	SchemaVersion  int    `json:"schema_version"`
	ActiveFileID   string `json:"active_file_id,omitempty"`
	ActiveFilename string `json:"active_filename,omitempty"`
	RecentFiles    int    `json:"recent_files"`
	ExportDir      string `json:"export_dir"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	return withEnv(c.globals, c.executeWith)
}

// executeWith reports client state without contacting the server.
func (c *StatusCommand) executeWith(ctx context.Context, e *env) error {
	active, err := e.store.ActiveFileID(ctx)
	if err != nil {
		return fmt.Errorf("read active file: %w", err)
	}
	schema, err := e.store.AppliedSchemaVersion(ctx)
	if err != nil {
		return err
	}
	files, err := e.store.ListFiles(ctx, 1000)
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}

	out := statusJSON{
		Version:        c.version,
		ServerURL:      e.cfg.Server.URL,
		TimeoutSeconds: e.cfg.Server.TimeoutSeconds,
		PageSize:       e.cfg.Paging.PageSize,
		StatePath:      e.statePath,
		StateSizeBytes: fileSize(e.statePath),
		SchemaVersion:  schema,
		ActiveFileID:   active,
		RecentFiles:    len(files),
		ExportDir:      e.cfg.Export.Dir,
	}
	if active != "" {
		if rec, err := e.store.GetFile(ctx, active); err == nil {
			out.ActiveFilename = rec.Filename
		}
	}

	if jsonOutput(c.globals) {
		return printJSON(out)
	}
	printStatusHuman(out, files)
	return nil
}

func printStatusHuman(out statusJSON, files []storage.FileRecord) {
	fmt.Println("histview Status")
	fmt.Println("===============")
	fmt.Printf("Version:       %s\n", out.Version)
	fmt.Printf("Server:        %s (timeout %ds)\n", out.ServerURL, out.TimeoutSeconds)
	fmt.Printf("Page size:     %s\n", format.Count(int64(out.PageSize)))
	fmt.Printf("State DB:      %s (%s, schema v%d)\n", out.StatePath, humanize.Bytes(uint64(out.StateSizeBytes)), out.SchemaVersion)
	fmt.Printf("Export dir:    %s\n", out.ExportDir)

	fmt.Println()
	switch {
	case out.ActiveFileID == "":
		fmt.Println("Active file:   none")
	case out.ActiveFilename != "":
		fmt.Printf("Active file:   %s (%s)\n", out.ActiveFileID, out.ActiveFilename)
	default:
		fmt.Printf("Active file:   %s\n", out.ActiveFileID)
	}
	fmt.Printf("Recent files:  %d\n", out.RecentFiles)
	if len(files) > 0 {
		fmt.Printf("Last opened:   %s\n", format.Ago(files[0].LastOpenedAt))
	}
}

// fileSize returns the size of path in bytes, or 0 when it cannot be read.
func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
