package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/runnerr0/histview/internal/format"
	"github.com/runnerr0/histview/internal/render"
	"github.com/runnerr0/histview/internal/storage"
)

type fileJSON struct {
	FileID       string `json:"file_id"`
	Filename     string `json:"filename"`
	BrowserType  string `json:"browser_type"`
	TotalEntries int64  `json:"total_entries"`
	UploadedAt   string `json:"uploaded_at"`
	LastOpenedAt string `json:"last_opened_at"`
	Active       bool   `json:"active"`
}

// Execute implements the go-flags Commander interface for FilesCommand.
func (c *FilesCommand) Execute(args []string) error {
	return withEnv(c.globals, c.executeWith)
}

func (c *FilesCommand) executeWith(ctx context.Context, e *env) error {
	files, err := e.store.ListFiles(ctx, c.Limit)
	if err != nil {
		return err
	}
	active, err := e.store.ActiveFileID(ctx)
	if err != nil {
		return err
	}

	if jsonOutput(c.globals) {
		out := make([]fileJSON, len(files))
		for i, f := range files {
			out[i] = fileJSON{
				FileID:       f.FileID,
				Filename:     f.Filename,
				BrowserType:  f.BrowserType,
				TotalEntries: f.TotalEntries,
				UploadedAt:   f.UploadedAt.UTC().Format(time.RFC3339),
				LastOpenedAt: f.LastOpenedAt.UTC().Format(time.RFC3339),
				Active:       f.FileID == active,
			}
		}
		return printJSON(out)
	}

	if len(files) == 0 {
		fmt.Println("No recent files. Upload one with `histview upload FILE`.")
		return nil
	}

	fmt.Println("Recent Files")
	fmt.Println("============")
	for _, f := range files {
		marker := " "
		if f.FileID == active {
			marker = "*"
		}
		fmt.Printf("%s %-36s  %-20s  %-12s %10s entries  opened %s\n",
			marker,
			f.FileID,
			format.Truncate(format.Or(f.Filename, format.UnknownFile), 20),
			format.BrowserLabel(f.BrowserType),
			format.Count(f.TotalEntries),
			format.Ago(f.LastOpenedAt),
		)
	}
	return nil
}

// Execute implements the go-flags Commander interface for UseCommand.
func (c *UseCommand) Execute(args []string) error {
	if c.Args.FileID == "" {
		return fmt.Errorf("use requires a file ID (see `histview files`)")
	}
	return withEnv(c.globals, c.executeWith)
}

// executeWith persists the id and resumes it, so an id the server has
// dropped is cleared again straight away.
func (c *UseCommand) executeWith(ctx context.Context, e *env) error {
	if err := e.store.SetActiveFileID(ctx, c.Args.FileID); err != nil {
		return err
	}
	s, err := e.ctrl.Resume(ctx, e.newSession())
	if err != nil {
		return loadError(err)
	}

	if jsonOutput(c.globals) {
		return printJSON(toPageJSON(s.Page, ""))
	}
	fmt.Println(render.Summary(s.Page))
	return nil
}

// Execute implements the go-flags Commander interface for ForgetCommand.
func (c *ForgetCommand) Execute(args []string) error {
	return withEnv(c.globals, c.executeWith)
}

func (c *ForgetCommand) executeWith(ctx context.Context, e *env) error {
	id := c.Args.FileID
	if id == "" {
		if err := e.store.ClearActiveFileID(ctx); err != nil {
			return err
		}
		fmt.Println("Cleared active file.")
		return nil
	}

	err := e.store.ForgetFile(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("file %s is not in recent files", id)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Forgot %s.\n", id)
	return nil
}
