package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/runnerr0/histview/internal/config"
	"github.com/runnerr0/histview/internal/tui"
)

// Execute implements the go-flags Commander interface for BrowseCommand.
func (c *BrowseCommand) Execute(args []string) error {
	return withEnv(c.globals, c.executeWith)
}

// model builds the browser model for e.
func (c *BrowseCommand) model(ctx context.Context, e *env) (tui.Model, error) {
	dir, err := config.ExpandPath(e.cfg.Export.Dir)
	if err != nil {
		return tui.Model{}, err
	}
	return tui.New(tui.Options{
		Controller:     e.ctrl,
		Exporter:       e.client,
		Logger:         e.logger,
		Context:        ctx,
		PageSize:       e.cfg.Paging.PageSize,
		ExportDir:      dir,
		ExportFormat:   e.cfg.Export.Format,
		ExportDataType: e.cfg.Export.DataType,
	}), nil
}

func (c *BrowseCommand) executeWith(ctx context.Context, e *env) error {
	m, err := c.model(ctx, e)
	if err != nil {
		return err
	}
	e.logger.Info("starting browser", "server", e.cfg.Server.URL, "version", c.version)
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("browser: %w", err)
	}
	return nil
}
