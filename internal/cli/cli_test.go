package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goflags "github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/histview/internal/apitest"
)

// parseOnly parses args without running the matched command.
func parseOnly(t *testing.T, args ...string) (*GlobalFlags, *commands, error) {
	t.Helper()
	p, g, c := buildParser("test")
	p.Options &^= goflags.PrintErrors
	p.CommandHandler = func(goflags.Commander, []string) error { return nil }
	_, err := p.ParseArgs(args)
	return g, c, err
}

func TestVersionFlag(t *testing.T) {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := RunWithArgs("0.1.0-test", []string{"--version"})

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	output := buf.String()

	assert.NoError(t, err)
	assert.Contains(t, output, "histview 0.1.0-test")
}

func TestVersionOutputFormat(t *testing.T) {
	output := captureOutput(t, func() {
		_ = RunWithArgs("1.2.3", []string{"--version"})
	})
	assert.Equal(t, "histview 1.2.3", strings.TrimSpace(output))
}

func TestAllSubcommandsExist(t *testing.T) {
	expected := []string{
		"upload", "page", "resume", "domains", "downloads", "sync",
		"export", "files", "use", "forget", "status", "browse",
	}
	parser, _, _ := buildParser("test")

	for _, name := range expected {
		cmd := parser.Find(name)
		assert.NotNil(t, cmd, "subcommand %q should exist", name)
	}
}

func TestUnknownSubcommandFails(t *testing.T) {
	_, _, err := parseOnly(t, "nonexistent")
	require.Error(t, err)
}

func TestHelpFlagDoesNotError(t *testing.T) {
	captureOutput(t, func() {
		err := RunWithArgs("test", []string{"--help"})
		assert.NoError(t, err)
	})
}

func TestGlobalFlags(t *testing.T) {
	g, _, err := parseOnly(t,
		"--json", "--verbose", "--config", "/tmp/test.yaml",
		"--server", "http://history.local:5002", "--page-size", "50", "--db-path", "/tmp/state.db",
		"status")
	require.NoError(t, err)
	assert.True(t, g.JSON)
	assert.True(t, g.Verbose)
	assert.Equal(t, "/tmp/test.yaml", g.Config)
	assert.Equal(t, "http://history.local:5002", g.Server)
	assert.Equal(t, 50, g.PageSize)
	assert.Equal(t, "/tmp/state.db", g.DBPath)
}

func TestUploadArgs(t *testing.T) {
	_, c, err := parseOnly(t, "upload", "--page", "3", "/tmp/History")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/History", c.Upload.Args.File)
	assert.Equal(t, 3, c.Upload.Page)
}

func TestPageArgs(t *testing.T) {
	_, c, err := parseOnly(t, "page", "--search", "github", "4")
	require.NoError(t, err)
	assert.Equal(t, 4, c.Page.Args.Page)
	assert.Equal(t, "github", c.Page.Search)

	_, c, err = parseOnly(t, "page")
	require.NoError(t, err)
	assert.Equal(t, 0, c.Page.Args.Page)
}

func TestPageRejectsNonNumeric(t *testing.T) {
	_, _, err := parseOnly(t, "page", "two")
	require.Error(t, err)
}

func TestExportFlags(t *testing.T) {
	_, c, err := parseOnly(t, "export",
		"--format", "json", "--type", "domains",
		"--start-date", "2026-01-01", "--end-date", "2026-02-01",
		"--domain", "github.com", "--search", "go", "--out", "/tmp/out", "--legacy")
	require.NoError(t, err)
	assert.Equal(t, "json", c.Export.Format)
	assert.Equal(t, "domains", c.Export.DataType)
	assert.Equal(t, "2026-01-01", c.Export.StartDate)
	assert.Equal(t, "2026-02-01", c.Export.EndDate)
	assert.Equal(t, "github.com", c.Export.Domain)
	assert.Equal(t, "go", c.Export.Search)
	assert.Equal(t, "/tmp/out", c.Export.Out)
	assert.True(t, c.Export.Legacy)
}

func TestDefaults(t *testing.T) {
	_, c, err := parseOnly(t, "files")
	require.NoError(t, err)
	assert.Equal(t, 20, c.Files.Limit)

	_, c, err = parseOnly(t, "domains")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Domains.Page)
}

func TestUploadRequiresFile(t *testing.T) {
	err := RunWithArgs("test", []string{"upload"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a FILE")
}

func TestUseRequiresID(t *testing.T) {
	err := RunWithArgs("test", []string{"use"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a file ID")
}

// End to end through the real parser, config file, state database and log
// file, against the fake server.
func TestRunWithArgs_UploadThenFiles(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	srv := apitest.New(t)

	cfgPath := filepath.Join(home, "cfg", "config.yaml")
	dbPath := filepath.Join(home, "state", "state.db")
	global := []string{"--config", cfgPath, "--db-path", dbPath, "--server", srv.URL, "--page-size", "10"}
	artifact := writeArtifact(t, "History")

	out := captureOutput(t, func() {
		err := RunWithArgs("test", append(append([]string{}, global...), "upload", artifact))
		require.NoError(t, err)
	})
	assert.Contains(t, out, "Browser History")
	assert.FileExists(t, cfgPath)
	assert.FileExists(t, dbPath)

	out = captureOutput(t, func() {
		err := RunWithArgs("test", append(append([]string{}, global...), "--json", "files"))
		require.NoError(t, err)
	})
	var files []fileJSON
	require.NoError(t, json.Unmarshal([]byte(out), &files))
	require.Len(t, files, 1)
	assert.Equal(t, "History", files[0].Filename)
	assert.True(t, files[0].Active)

	out = captureOutput(t, func() {
		err := RunWithArgs("test", append(append([]string{}, global...), "status"))
		require.NoError(t, err)
	})
	assert.Contains(t, out, files[0].FileID)
	assert.Contains(t, out, "Recent files:  1")
}

func TestRunWithArgs_InvalidConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cfgPath := filepath.Join(home, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("paging:\n  page_size: 0\n"), 0644))

	err := RunWithArgs("test", []string{"--config", cfgPath, "status"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLoadConfig_FlagOverridesInvalidFileValue(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("paging:\n  page_size: 0\n"), 0644))

	_, err := loadConfig(&GlobalFlags{Config: cfgPath})
	require.Error(t, err)
	assert.Equal(t, "invalid config: paging.page_size must be >= 1, got 0", err.Error())

	cfg, err := loadConfig(&GlobalFlags{Config: cfgPath, PageSize: 50})
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Paging.PageSize)
}
