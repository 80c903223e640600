package cli

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowgen/config"
	"flowgen/internal/domain"
	"flowgen/internal/usecase"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "info", "json")
	l.Debug("hidden")
	l.Warn("skipping unreadable file", "path", "a.tsx")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"path":"a.tsx"`)
}

func TestWriteOutput(t *testing.T) {
	var stdout bytes.Buffer
	require.NoError(t, writeOutput(&stdout, "-", "flowchart TD\n"))
	assert.Equal(t, "flowchart TD\n", stdout.String())

	path := filepath.Join(t.TempDir(), "docs", "flow.md")
	require.NoError(t, writeOutput(&stdout, path, "doc"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "doc", string(data))
}

func TestOpenForestStore_ResetsOnConfigChange(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	var status bytes.Buffer

	st, err := openForestStore(&status, cfg, dir)
	require.NoError(t, err)
	require.NoError(t, st.Close())
	assert.Empty(t, status.String())

	changed := config.DefaultConfig()
	changed.Scan.Extensions = []string{"vue"}
	st, err = openForestStore(&status, changed, dir)
	require.NoError(t, err)
	defer st.Close()
	assert.Contains(t, status.String(), "scan configuration changed")

	check, err := st.CheckMigration(changed)
	require.NoError(t, err)
	assert.False(t, check.NeedsRebuild)
	assert.False(t, check.NeedsMigration)
}

func TestPrintSummary_ListsSkippedFiles(t *testing.T) {
	forest := &domain.Forest{Skipped: []string{"pages/Broken.tsx"}}

	var buf bytes.Buffer
	printSummary(&buf, &usecase.FlowResult{Forest: forest}, 0)

	assert.Contains(t, buf.String(), "Components:     0")
	assert.Contains(t, buf.String(), "Skipped 1 unreadable file(s)")
	assert.Contains(t, buf.String(), "pages/Broken.tsx")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "<1s", formatDuration(0))
	assert.Equal(t, "42s", formatDuration(42*time.Second))
	assert.Equal(t, "2m5s", formatDuration(125*time.Second))
}

func TestResolveOutput(t *testing.T) {
	assert.Equal(t, "component-flow.md", resolveOutput("component-flow.md", "", false))
	assert.Equal(t, "component-flow.json", resolveOutput("component-flow.md", "", true))
	assert.Equal(t, "docs/flow.json", resolveOutput("docs/flow", "", true))
	assert.Equal(t, "-", resolveOutput("-", "", true))
	assert.Equal(t, "out.md", resolveOutput("component-flow.md", "out.md", true))
}

// runCLI executes the root command with fresh flag values and returns the
// combined output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfgFile, rootDir, logLevel = "", "", ""
	genRemote, genOwner, genRepo, genRef, genSubpath = false, "", "", "", ""
	genOutput, genJSON, genNoStore, genKey, genDirection = "", false, false, "", ""
	renderForest, renderKey, renderOutput, renderDirection, renderBare = "", "", "-", "", false
	forestsJSON, forestsDelete = false, ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestGenerateSubdir_StoresUnderRootDir(t *testing.T) {
	work := t.TempDir()
	web := filepath.Join(work, "web")
	require.NoError(t, os.MkdirAll(filepath.Join(web, "pages"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(web, "components"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(web, "pages", "Home.tsx"),
		[]byte("import Button from '../components/Button'\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(web, "components", "Button.tsx"),
		[]byte("export default function Button() { return null }\n"), 0644))

	_, err := runCLI(t, "--dir", work, "generate", web, "-o", filepath.Join(work, "flow.md"), "--key", "web")
	require.NoError(t, err)

	assert.FileExists(t, config.ForestDBPath(work))
	assert.NoDirExists(t, filepath.Join(web, ".flowgen"))

	out, err := runCLI(t, "--dir", work, "forests", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"key": "web"`)

	out, err = runCLI(t, "--dir", work, "render", "--key", "web", "--bare")
	require.NoError(t, err)
	assert.Contains(t, out, "Button -->|relates to| Home")
}
