package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posclean/internal/config"
)

func testApp(t *testing.T) (*App, config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Config{
		DBPath:              filepath.Join(dir, "app.db"),
		ArchiveDir:          filepath.Join(dir, "archives"),
		RawDir:              filepath.Join(dir, "raw"),
		CleanDir:            filepath.Join(dir, "clean"),
		OutputDir:           filepath.Join(dir, "out"),
		FileSuffix:          "_clean",
		Files:               []string{"item.csv"},
		SourceEncoding:      "utf-8",
		NormalizeWorkers:    1,
		HTTPTimeoutMs:       1000,
		HTTPRateLimitRPS:    1,
		HTTPMaxAttempts:     1,
		ListenerIntervalSec: 60,
		LogLevel:            "error",
		LogFormat:           "text",
	}
	return &App{loadConfig: func() (config.Config, error) { return cfg, nil }}, cfg
}

func execute(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(app)
	out := bytes.NewBuffer(nil)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "posclean", cmd.Use)

	for _, name := range []string{"source:fetch", "tables:process", "items:normalize", "export:xlsx", "source:listen", "run"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestNormalizeCommand(t *testing.T) {
	app, cfg := testApp(t)
	input := filepath.Join(cfg.RawDir, "item.csv")
	require.NoError(t, os.MkdirAll(cfg.RawDir, 0o755))
	require.NoError(t, os.WriteFile(input, []byte("code,descrption,type,brand,size\n1,Milk,dairy,Farm,GAL\n2,Bread,bakery,Mill,EACH\n"), 0o644))
	output := filepath.Join(cfg.OutputDir, "item.csv")
	xlsx := filepath.Join(cfg.OutputDir, "item.xlsx")

	out, err := execute(t, app, "items:normalize", "--input", input, "--output", output, "--xlsx", xlsx)
	require.NoError(t, err)
	assert.Contains(t, out, "rows=2 sized=1 noted=1 unparseable=0")
	assert.FileExists(t, output)
	assert.FileExists(t, xlsx)
}

func TestNormalizeCommandRequiresPaths(t *testing.T) {
	app, _ := testApp(t)
	_, err := execute(t, app, "items:normalize", "--input", "x.csv")
	assert.ErrorContains(t, err, "--input and --output are required")
}

func TestProcessAndExportCommands(t *testing.T) {
	app, cfg := testApp(t)
	require.NoError(t, os.MkdirAll(cfg.RawDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.RawDir, "item.csv"), []byte("code,descrption,type,brand,size\n1,Ham,meat,Hill,6 LB 11 OZ\n"), 0o644))

	out, err := execute(t, app, "tables:process")
	require.NoError(t, err)
	assert.Contains(t, out, "item.csv rows=1 unparseable=0 stored=1 ok")
	assert.FileExists(t, filepath.Join(cfg.CleanDir, "item_clean.csv"))

	xlsx := filepath.Join(cfg.OutputDir, "items.xlsx")
	out, err = execute(t, app, "export:xlsx", "--out", xlsx)
	require.NoError(t, err)
	assert.Contains(t, out, "exported 1 items")
	assert.FileExists(t, xlsx)
}

func TestExportWithoutItems(t *testing.T) {
	app, cfg := testApp(t)
	_, err := execute(t, app, "export:xlsx", "--out", filepath.Join(cfg.OutputDir, "items.xlsx"))
	assert.ErrorContains(t, err, "no stored items")
}

func TestFetchRequiresSourceURL(t *testing.T) {
	app, _ := testApp(t)
	_, err := execute(t, app, "source:fetch")
	assert.ErrorContains(t, err, "SOURCE_URL")
}
