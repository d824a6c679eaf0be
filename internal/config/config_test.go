package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://127.0.0.1:5002", cfg.Server.URL)
	assert.Equal(t, 30, cfg.Server.TimeoutSeconds)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout())
	assert.Equal(t, 1000, cfg.Paging.PageSize)
	assert.Equal(t, "~/.config/histview", cfg.Storage.Path)
	assert.Equal(t, "state.db", cfg.Storage.SQLiteFile)
	assert.Equal(t, ".", cfg.Export.Dir)
	assert.Equal(t, "csv", cfg.Export.Format)
	assert.Equal(t, "history", cfg.Export.DataType)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "histview.log", cfg.Logging.File)
	assert.Equal(t, 10, cfg.Logging.MaxSize)
	assert.Equal(t, 3, cfg.Logging.MaxBackups)
	assert.NoError(t, cfg.Validate())
}

func TestLoadValidYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yamlContent := `
server:
  url: "http://history.local:8080"
  timeout_seconds: 5
paging:
  page_size: 250
export:
  format: "json"
logging:
  level: "debug"
`
	err := os.WriteFile(cfgPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	// Overridden values
	assert.Equal(t, "http://history.local:8080", cfg.Server.URL)
	assert.Equal(t, 5, cfg.Server.TimeoutSeconds)
	assert.Equal(t, 250, cfg.Paging.PageSize)
	assert.Equal(t, "json", cfg.Export.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Non-overridden values remain defaults
	assert.Equal(t, "history", cfg.Export.DataType)
	assert.Equal(t, "~/.config/histview", cfg.Storage.Path)
	assert.Equal(t, 3, cfg.Logging.MaxBackups)
}

func TestLoadInvalidYAMLReturnsError(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	err := os.WriteFile(cfgPath, []byte(":::not valid yaml{{{"), 0644)
	require.NoError(t, err)

	_, err = Load(cfgPath)
	assert.Error(t, err)
}

func TestLoadNonExistentFileReturnsError(t *testing.T) {
	_, err := Load("/tmp/nonexistent_path_12345/config.yaml")
	assert.Error(t, err)
}

func TestValidateRejectsLoadedValues(t *testing.T) {
	cases := map[string]string{
		"zero page size":   "paging:\n  page_size: 0\n",
		"zero timeout":     "server:\n  timeout_seconds: 0\n",
		"empty server url": "server:\n  url: \"\"\n",
		"unknown format":   "export:\n  format: \"xml\"\n",
		"unknown type":     "export:\n  data_type: \"cookies\"\n",
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			cfgPath := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0644))

			cfg, err := Load(cfgPath)
			require.NoError(t, err, "Load only parses")
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadOrCreateCreatesDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sub", "deep", "config.yaml")

	cfg, err := LoadOrCreateAt(cfgPath)
	require.NoError(t, err)

	// Should return defaults
	assert.Equal(t, 1000, cfg.Paging.PageSize)
	assert.Equal(t, "http://127.0.0.1:5002", cfg.Server.URL)

	// File should now exist on disk
	_, statErr := os.Stat(cfgPath)
	assert.NoError(t, statErr)

	// File should be valid YAML loadable again
	cfg2, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, cfg.Paging.PageSize, cfg2.Paging.PageSize)
	assert.Equal(t, cfg.Server.URL, cfg2.Server.URL)
}

func TestLoadOrCreateLoadsExistingFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	err := os.WriteFile(cfgPath, []byte("paging:\n  page_size: 50\n"), 0644)
	require.NoError(t, err)

	cfg, err := LoadOrCreateAt(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Paging.PageSize)
	// Other fields remain defaults
	assert.Equal(t, "csv", cfg.Export.Format)
}

func TestStatePathAndLogPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Path = "/var/lib/histview"

	p, err := cfg.StatePath()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/histview/state.db", p)

	lp, err := cfg.LogPath()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/histview/histview.log", lp)

	cfg.Logging.File = "/tmp/hv.log"
	lp, err = cfg.LogPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/hv.log", lp)

	cfg.Logging.File = ""
	lp, err = cfg.LogPath()
	require.NoError(t, err)
	assert.Empty(t, lp)
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	p, err := ExpandPath("~/x/y")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x", "y"), p)

	p, err = ExpandPath("/abs/path")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", p)
}
