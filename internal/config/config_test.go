package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaults_AreValid(t *testing.T) {
	require.NoError(t, Defaults().Validate())
}

func TestValidate_BackendURL(t *testing.T) {
	cfg := Defaults()

	cfg.BackendURL = "not a url"
	require.Error(t, cfg.Validate())

	cfg.BackendURL = "ftp://example.com"
	require.Error(t, cfg.Validate())

	cfg.BackendURL = "https://books.example.com:8443"
	require.NoError(t, cfg.Validate())
}

func TestValidate_LogLevel(t *testing.T) {
	cfg := Defaults()
	cfg.Log.Level = "verbose"
	require.Error(t, cfg.Validate())

	cfg.Log.Level = "debug"
	require.NoError(t, cfg.Validate())
}

func TestValidate_TelemetryEndpointRequiredForOTLP(t *testing.T) {
	cfg := Defaults()
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.Exporter = "otlp"
	require.Error(t, cfg.Validate())

	cfg.Telemetry.Endpoint = "localhost:4317"
	require.NoError(t, cfg.Validate())
}

func TestValidate_ThemeMode(t *testing.T) {
	cfg := Defaults()
	cfg.Theme.Mode = "sepia"
	require.Error(t, cfg.Validate())

	cfg.Theme.Mode = "dark"
	require.NoError(t, cfg.Validate())
}

func TestDefaultConfigTemplate_IsValidYAML(t *testing.T) {
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(DefaultConfigTemplate()), &doc))

	require.Equal(t, "http://localhost:8000", doc["backend_url"])
	require.Contains(t, doc, "timeouts")
	require.Contains(t, doc, "log")
	require.Contains(t, doc, "telemetry")

	timeouts, ok := doc["timeouts"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "120s", timeouts["generation"])
}

func TestWriteDefaultConfig_CreatesFileAndParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "backend_url")

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
