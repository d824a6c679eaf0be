package cli

import (
	"context"
	"fmt"

	"github.com/runnerr0/histview/internal/api"
	"github.com/runnerr0/histview/internal/render"
	"github.com/runnerr0/histview/internal/stats"
)

type domainsJSON struct {
	FileID  string              `json:"file_id"`
	Page    int                 `json:"page"`
	State   string              `json:"state"`
	Total   int                 `json:"total"`
	Domains []stats.DomainCount `json:"domains"`
}

// Execute implements the go-flags Commander interface for DomainsCommand.
func (c *DomainsCommand) Execute(args []string) error {
	return withEnv(c.globals, c.executeWith)
}

func (c *DomainsCommand) executeWith(ctx context.Context, e *env) error {
	s, err := e.ctrl.LoadPage(ctx, e.newSession(), max(c.Page, 1))
	if err != nil {
		return loadError(err)
	}
	ds := stats.Aggregate(s.Page.Entries)

	if jsonOutput(c.globals) {
		top := ds.Top
		if top == nil {
			top = []stats.DomainCount{}
		}
		return printJSON(domainsJSON{FileID: s.FileID, Page: s.CurrentPage, State: ds.State.String(), Total: ds.Total(), Domains: top})
	}
	fmt.Println(render.Domains(ds))
	return nil
}

type downloadJSON struct {
	api.Download
	Sources []api.DownloadSource `json:"sources"`
}

// Execute implements the go-flags Commander interface for DownloadsCommand.
func (c *DownloadsCommand) Execute(args []string) error {
	return withEnv(c.globals, c.executeWith)
}

func (c *DownloadsCommand) executeWith(ctx context.Context, e *env) error {
	id, err := e.ctrl.ActiveFileID(ctx, e.newSession())
	if err != nil {
		return err
	}
	res, err := e.client.FetchDownloads(ctx, id)
	if err != nil {
		return loadError(err)
	}
	items := render.FilterDownloads(render.JoinSources(res.Downloads, res.DownloadSources), c.Search)

	if jsonOutput(c.globals) {
		out := make([]downloadJSON, len(items))
		for i, it := range items {
			out[i] = downloadJSON{Download: it.Download, Sources: it.Sources}
			if out[i].Sources == nil {
				out[i].Sources = []api.DownloadSource{}
			}
		}
		return printJSON(out)
	}

	expand := c.Expand
	fmt.Println(render.Downloads(items, render.DownloadsOptions{
		Expanded: func(int) bool { return expand },
		Selected: -1,
	}))
	return nil
}

type syncJSON struct {
	FileID   string        `json:"file_id"`
	SyncInfo *api.SyncInfo `json:"sync_info"`
	Error    string        `json:"error,omitempty"`
}

// Execute implements the go-flags Commander interface for SyncCommand.
func (c *SyncCommand) Execute(args []string) error {
	return withEnv(c.globals, c.executeWith)
}

// executeWith prints the sync panel. A failed fetch is reported inline and
// does not fail the command.
func (c *SyncCommand) executeWith(ctx context.Context, e *env) error {
	id, err := e.ctrl.ActiveFileID(ctx, e.newSession())
	if err != nil {
		return err
	}
	info, err := e.ctrl.SyncInfo(ctx, id)

	if jsonOutput(c.globals) {
		out := syncJSON{FileID: id, SyncInfo: info}
		if err != nil {
			out.Error = api.UserMessage(err)
		}
		return printJSON(out)
	}
	if err != nil {
		fmt.Println(render.SyncNotice(api.UserMessage(err)))
		return nil
	}
	fmt.Println(render.Sync(info))
	return nil
}
