package cli

import (
	"context"
	"fmt"

	"github.com/runnerr0/histview/internal/api"
	"github.com/runnerr0/histview/internal/pagination"
	"github.com/runnerr0/histview/internal/render"
	"github.com/runnerr0/histview/internal/session"
)

// pageJSON is the JSON output for upload, page, resume and use.
type pageJSON struct {
	FileID       string             `json:"file_id"`
	BrowserType  string             `json:"browser_type"`
	TotalEntries int64              `json:"total_entries"`
	Page         int                `json:"page"`
	PageSize     int                `json:"page_size"`
	TotalPages   int                `json:"total_pages"`
	Search       string             `json:"search,omitempty"`
	Entries      []api.HistoryEntry `json:"entries"`
}

// Execute implements the go-flags Commander interface for UploadCommand.
func (c *UploadCommand) Execute(args []string) error {
	if c.Args.File == "" {
		return fmt.Errorf("upload requires a FILE argument")
	}
	return withEnv(c.globals, c.executeWith)
}

func (c *UploadCommand) executeWith(ctx context.Context, e *env) error {
	e.logger.Info("uploading history file", "path", c.Args.File)
	s, err := e.ctrl.Upload(ctx, e.newSession(), c.Args.File)
	if err != nil {
		return loadError(err)
	}
	if c.Page > 1 {
		if s, err = e.ctrl.LoadPage(ctx, s, c.Page); err != nil {
			return loadError(err)
		}
	}
	return printPage(c.globals, s, c.Search)
}

// Execute implements the go-flags Commander interface for PageCommand.
func (c *PageCommand) Execute(args []string) error {
	return withEnv(c.globals, c.executeWith)
}

func (c *PageCommand) executeWith(ctx context.Context, e *env) error {
	n := c.Args.Page
	if n < 1 {
		n = 1
	}
	s, err := e.ctrl.LoadPage(ctx, e.newSession(), n)
	if err != nil {
		return loadError(err)
	}
	return printPage(c.globals, s, c.Search)
}

// Execute implements the go-flags Commander interface for ResumeCommand.
func (c *ResumeCommand) Execute(args []string) error {
	return withEnv(c.globals, c.executeWith)
}

func (c *ResumeCommand) executeWith(ctx context.Context, e *env) error {
	s, err := e.ctrl.Resume(ctx, e.newSession())
	if err != nil {
		return loadError(err)
	}

	if jsonOutput(c.globals) {
		return printJSON(toPageJSON(s.Page, ""))
	}
	fmt.Println(render.Summary(s.Page))
	fmt.Println(render.Pagination(pagination.Calculate(s.CurrentPage, s.TotalPages)))
	return nil
}

func toPageJSON(p *api.HistoryPage, search string) pageJSON {
	entries := p.Entries
	if search != "" {
		entries = render.FilterEntries(entries, search)
	}
	if entries == nil {
		entries = []api.HistoryEntry{}
	}
	return pageJSON{
		FileID:       p.FileID,
		BrowserType:  p.BrowserType,
		TotalEntries: p.TotalEntries,
		Page:         p.Page,
		PageSize:     p.PageSize,
		TotalPages:   p.TotalPages,
		Search:       search,
		Entries:      entries,
	}
}

// printPage writes a loaded page as a summary, the entries table and the
// pagination bar, or as JSON.
func printPage(g *GlobalFlags, s session.Session, search string) error {
	p := s.Current()
	if p == nil {
		return fmt.Errorf("no page loaded")
	}
	if jsonOutput(g) {
		return printJSON(toPageJSON(p, search))
	}

	fmt.Println(render.Summary(p))
	fmt.Println()
	fmt.Println(render.FilteredEntries(p.Entries, search, 0))
	fmt.Println(render.Pagination(pagination.Calculate(s.CurrentPage, s.TotalPages)))
	return nil
}
