package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FILES", "")
	t.Setenv("POSCLEAN_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "_clean", cfg.FileSuffix)
	assert.Equal(t, []string{"item.csv", "promotion.csv", "sales.csv", "supermarkets.csv"}, cfg.Files)
	assert.Equal(t, "utf-8", cfg.SourceEncoding)
	assert.GreaterOrEqual(t, cfg.NormalizeWorkers, 1)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("POSCLEAN_CONFIG", "")
	t.Setenv("FILES", "item.csv, sales.csv ,")
	t.Setenv("NORMALIZE_WORKERS", "3")
	t.Setenv("CSV_BOM", "yes")
	t.Setenv("HTTP_MAX_ATTEMPTS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"item.csv", "sales.csv"}, cfg.Files)
	assert.Equal(t, 3, cfg.NormalizeWorkers)
	assert.True(t, cfg.CSVBOM)
	assert.Equal(t, 5, cfg.HTTPMaxAttempts)
}

func TestLoadYAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "posclean.yaml")
	blob := []byte(`zip_url: https://example.test/dunnhumby.zip
extracted_to: ` + filepath.Join(dir, "raw") + `
processed_to: ` + filepath.Join(dir, "clean") + `
file_suffix: _norm
files:
  - item.csv
`)
	require.NoError(t, os.WriteFile(path, blob, 0o644))
	t.Setenv("POSCLEAN_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://example.test/dunnhumby.zip", cfg.SourceURL)
	assert.Equal(t, filepath.Join(dir, "raw"), cfg.RawDir)
	assert.Equal(t, "_norm", cfg.FileSuffix)
	assert.Equal(t, []string{"item.csv"}, cfg.Files)
	assert.NoError(t, cfg.Validate())
}

func TestLoadTOMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "posclean.toml")
	blob := []byte(`zip_url = "https://example.test/retail.zip"
extracted_to = '` + filepath.Join(dir, "raw") + `'
source_encoding = "windows-1252"
csv_bom = true
files = ["item.csv", "promotion.csv"]
`)
	require.NoError(t, os.WriteFile(path, blob, 0o644))
	t.Setenv("POSCLEAN_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://example.test/retail.zip", cfg.SourceURL)
	assert.Equal(t, filepath.Join(dir, "raw"), cfg.RawDir)
	assert.Equal(t, "windows-1252", cfg.SourceEncoding)
	assert.True(t, cfg.CSVBOM)
	assert.Equal(t, []string{"item.csv", "promotion.csv"}, cfg.Files)
}

func TestLoadMissingOverlay(t *testing.T) {
	t.Setenv("POSCLEAN_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("POSCLEAN_CONFIG", "")
	cfg, err := Load()
	require.NoError(t, err)

	cfg.SourceEncoding = "ebcdic"
	assert.Error(t, cfg.Validate())

	cfg.SourceEncoding = "utf-8"
	cfg.Files = nil
	assert.Error(t, cfg.Validate())

	cfg.Files = []string{"item.csv"}
	cfg.SourceURL = "not a url"
	assert.Error(t, cfg.Validate())
}
