package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PLACEMENT_ENV_FILE", filepath.Join(dir, "missing.env"))
	for _, key := range []string{
		"PLACEMENT_CONFIG_PATH", "PLACEMENT_SERVER_PORT", "PLACEMENT_STORE_BACKEND",
		"PLACEMENT_SPREADSHEET_ID", "PLACEMENT_CACHE_TTL", "PLACEMENT_TRANSPORT", "PLACEMENT_REVIEW_STATUS",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, BackendLocal, cfg.Store.Backend)
	require.Equal(t, 5*time.Minute, cfg.Gateway.CacheTTL)
	require.Equal(t, 3, cfg.Gateway.MaxAttempts)
	require.Equal(t, time.Second, cfg.Gateway.RetryBaseDelay)
	require.Equal(t, 30*time.Second, cfg.Gateway.CallTimeout)
	require.Equal(t, 100, cfg.Gateway.BatchSize)
	require.Equal(t, 200*time.Millisecond, cfg.Distribution.Pacing)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
store:
  backend: sheets
  spreadsheet_id: from-file
gateway:
  cache_ttl: 2m
distribution:
  review_status: New
`), 0o600))
	t.Setenv("PLACEMENT_CONFIG_PATH", path)
	t.Setenv("PLACEMENT_SPREADSHEET_ID", "from-env")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, BackendSheets, cfg.Store.Backend)
	require.Equal(t, "from-env", cfg.Store.SpreadsheetID)
	require.Equal(t, 2*time.Minute, cfg.Gateway.CacheTTL)
	require.Equal(t, "New", cfg.Distribution.ReviewStatus)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("PLACEMENT_TRANSPORT=STDIO\n"), 0o600))
	t.Setenv("PLACEMENT_ENV_FILE", envFile)
	t.Cleanup(func() { os.Unsetenv("PLACEMENT_TRANSPORT") })
	os.Unsetenv("PLACEMENT_TRANSPORT")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, TransportStdio, cfg.Transport.Mode)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"bad port":          {"PLACEMENT_SERVER_PORT": "eighty"},
		"bad duration":      {"PLACEMENT_CACHE_TTL": "soon"},
		"sheets without id": {"PLACEMENT_STORE_BACKEND": "sheets"},
		"unknown backend":   {"PLACEMENT_STORE_BACKEND": "postgres"},
		"unknown transport": {"PLACEMENT_TRANSPORT": "grpc"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			isolate(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}
