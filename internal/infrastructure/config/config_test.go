package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTolerances(t *testing.T) {
	// Act
	tol := DefaultTolerances()

	// Assert
	assert.Equal(t, 0.0, tol.Quantity)
	assert.Equal(t, 0.01, tol.Price)
	assert.Equal(t, 0.02, tol.NetAmount)
	assert.Equal(t, 0.0, tol.Tax)
}

func TestLoad_ValidFile(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
tolerances:
  net_amount: 0.05
storage:
  database_path: /tmp/runs.db
api:
  port: 9090
columns:
  extra_synonyms:
    "art.nr.": article_code
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	// Act
	cfg, err := Load(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 0.05, cfg.Tolerances.NetAmount)
	assert.Equal(t, "/tmp/runs.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, "article_code", cfg.Columns.ExtraSynonyms["art.nr."])
	// Untouched sections keep their defaults.
	assert.Equal(t, "Vergelijking", cfg.Report.DetailSheetName)
	assert.Equal(t, "info", cfg.Observability.Logging.Level)
}

func TestLoad_ExpandsEnvironmentVariables(t *testing.T) {
	// Arrange
	t.Setenv("FACTUURCHECK_TEST_DB", "/data/expanded.db")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "storage:\n  database_path: ${FACTUURCHECK_TEST_DB}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	// Act
	cfg, err := Load(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "/data/expanded.db", cfg.Storage.DatabasePath)
}

func TestLoad_MissingFile(t *testing.T) {
	// Act
	_, err := Load("/nonexistent/config.yaml")

	// Assert
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	// Arrange
	t.Setenv("FACTUURCHECK_DB_PATH", "/data/env.db")
	t.Setenv("FACTUURCHECK_PORT", "7070")
	t.Setenv("LOG_LEVEL", "debug")

	// Act
	cfg := LoadFromEnv()

	// Assert
	assert.Equal(t, "/data/env.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 7070, cfg.API.Port)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
}

func TestLoadOrEnvWithPath_FallsBackToEnv(t *testing.T) {
	// Arrange
	t.Setenv("FACTUURCHECK_REPORT_PATH", "/tmp/out.xlsx")

	// Act
	cfg := LoadOrEnvWithPath("/nonexistent/config.yaml")

	// Assert
	assert.Equal(t, "/tmp/out.xlsx", cfg.Report.OutputPath)
}
