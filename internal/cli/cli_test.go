package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/formulary/internal/logging"
	"github.com/mesh-intelligence/formulary/internal/paths"
	"github.com/mesh-intelligence/formulary/internal/refdata"
	"github.com/mesh-intelligence/formulary/internal/search"
	"github.com/mesh-intelligence/formulary/internal/store"
	"github.com/mesh-intelligence/formulary/pkg/types"
)

// testEnv isolates one CLI run from the user's configuration.
type testEnv struct {
	t         *testing.T
	ConfigDir string
	DataDir   string
}

// result holds the output of one CLI invocation.
type result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	for _, key := range []string{paths.EnvConfigDir, paths.EnvDataDir, "FORMULARY_BACKEND", "FORMULARY_DSN", "FORMULARY_LOG_LEVEL", "FORMULARY_LOG_FORMAT"} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	return &testEnv{
		t:         t,
		ConfigDir: filepath.Join(dir, "config"),
		DataDir:   filepath.Join(dir, "data"),
	}
}

// runWithInput runs the CLI with the env's directories and stdin.
func (e *testEnv) runWithInput(stdin io.Reader, args ...string) result {
	e.t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetArgs(append([]string{"--config-dir", e.ConfigDir, "--data-dir", e.DataDir}, args...))
	root.SetIn(stdin)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintln(&stderr, "Error:", err)
	}
	return result{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: exitCode(err)}
}

func (e *testEnv) run(args ...string) result {
	e.t.Helper()
	return e.runWithInput(strings.NewReader(""), args...)
}

func (e *testEnv) mustRun(args ...string) result {
	e.t.Helper()
	r := e.run(args...)
	require.Equal(e.t, exitSuccess, r.ExitCode, "formulary %v\nstderr: %s", args, r.Stderr)
	return r
}

func parseJSON[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), "output: %s", s)
	return v
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	r := env.mustRun("version")
	assert.Contains(t, r.Stdout, "formulary 0.1.0")
	assert.NoDirExists(t, env.DataDir)
}

func TestInit(t *testing.T) {
	env := newTestEnv(t)

	r := env.mustRun("init")
	assert.Contains(t, r.Stdout, "Formulary initialized at "+env.DataDir)
	assert.FileExists(t, filepath.Join(env.ConfigDir, configFileExt))
	assert.FileExists(t, paths.DatabasePath(env.DataDir))

	names := parseJSON[[]string](t, env.mustRun("--json", "categories").Stdout)
	assert.Empty(t, names)
}

func TestInit_Starter(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("init", "--starter")

	names := parseJSON[[]string](t, env.mustRun("--json", "categories").Stdout)
	assert.Equal(t, []string{"Analgesics", "Antibiotics", "Vaccines", "Allergens"}, names)

	r := env.mustRun("init", "--starter")
	assert.Contains(t, r.Stdout, "starter lists skipped")
	doc := parseJSON[types.Document](t, env.mustRun("--json", "show").Stdout)
	_, _, items := doc.Counts()
	assert.Equal(t, 31, items, "second init must not duplicate items")
}

func TestInit_KeepsExistingConfig(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.MkdirAll(env.ConfigDir, 0o755))
	cfgPath := filepath.Join(env.ConfigDir, configFileExt)
	require.NoError(t, os.WriteFile(cfgPath, []byte("backend: sqlite\nlog_level: warn\n"), 0o644))

	env.mustRun("init")
	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "backend: sqlite\nlog_level: warn\n", string(data))
}

func TestAddShowRemove(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("init")

	assert.Contains(t, env.mustRun("add", "category", "Analgesics").Stdout, "Added")
	env.mustRun("add", "group", "Analgesics", "NSAIDs")
	env.mustRun("add", "item", "Analgesics", "NSAIDs", "Ibuprofen", "400", "mg")
	env.mustRun("add", "item", "Analgesics", "NSAIDs", "Naproxen")

	r := env.mustRun("add", "category", "Analgesics")
	assert.Contains(t, r.Stdout, "Unchanged")
	changed := parseJSON[map[string]bool](t, env.mustRun("--json", "add", "group", "Missing", "NSAIDs").Stdout)
	assert.False(t, changed["changed"])

	out := env.mustRun("show", "Analgesics").Stdout
	assert.Equal(t, "Analgesics\n  NSAIDs\n    - Ibuprofen 400 mg\n    - Naproxen\n", out)

	env.mustRun("remove", "item", "Analgesics", "NSAIDs", "Ibuprofen", "400", "mg")
	doc := parseJSON[types.Document](t, env.mustRun("--json", "show").Stdout)
	require.Len(t, doc.Categories, 1)
	assert.Equal(t, []string{"Naproxen"}, doc.Categories[0].Groups[0].Items)

	r = env.run("remove", "item", "Analgesics", "NSAIDs", "Ibuprofen")
	assert.Equal(t, exitUserError, r.ExitCode)
	assert.Contains(t, r.Stderr, "not found")

	r = env.run("show", "Vaccines")
	assert.Equal(t, exitUserError, r.ExitCode)
}

func TestExportImport(t *testing.T) {
	for _, ext := range []string{"yaml", "toml", "jsonl"} {
		t.Run(ext, func(t *testing.T) {
			src := newTestEnv(t)
			src.mustRun("init", "--starter")
			file := filepath.Join(t.TempDir(), "lists."+ext)
			r := src.mustRun("export", file)
			assert.Contains(t, r.Stdout, "Exported 4 categories")
			assert.FileExists(t, file)

			dst := newTestEnv(t)
			dst.mustRun("init")
			dst.mustRun("import", file)

			want := src.mustRun("--json", "show").Stdout
			got := dst.mustRun("--json", "show").Stdout
			assert.JSONEq(t, want, got)
		})
	}
}

func TestImport_Stdin(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("init")

	in := `{"name":"Vaccines","groups":[{"title":"Routine","items":["MMR","Influenza"]}]}` + "\n"
	r := env.runWithInput(strings.NewReader(in), "import", "-", "--format", "jsonl")
	require.Equal(t, exitSuccess, r.ExitCode, r.Stderr)
	assert.Contains(t, r.Stdout, "Imported 1 categories, 1 groups, 2 items")

	r = env.runWithInput(strings.NewReader(in), "import", "-")
	assert.Equal(t, exitUserError, r.ExitCode)
	assert.Contains(t, r.Stderr, "--format")
}

func TestExport_Stdout(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("init", "--starter")

	r := env.mustRun("export", "-", "--format", "yaml")
	assert.Contains(t, r.Stdout, "name: Analgesics")

	r = env.run("export", "lists.xml")
	assert.Equal(t, exitUserError, r.ExitCode)
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("init", "--starter")

	hits := parseJSON[[]search.Hit](t, env.mustRun("--json", "search", "amox").Stdout)
	require.NotEmpty(t, hits)
	assert.Equal(t, "Amoxicillin", hits[0].Item)
	assert.Equal(t, "Antibiotics", hits[0].Category)
	assert.Equal(t, "Penicillins", hits[0].Group)

	r := env.mustRun("search", "zzzzzz")
	assert.Contains(t, r.Stdout, "No matches")
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("init")

	stored := parseJSON[types.HistoryEntry](t, env.mustRun("--json", "history", "add",
		"--section", "plan", "--patient", "P-1", "Ibuprofen", "400", "mg").Stdout)
	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, "Ibuprofen 400 mg", stored.Content)
	env.mustRun("history", "add", "--section", "allergies", "Penicillin")

	entries := parseJSON[[]types.HistoryEntry](t, env.mustRun("--json", "history", "list").Stdout)
	require.Len(t, entries, 2)
	assert.ElementsMatch(t, []string{"plan", "allergies"}, []string{entries[0].Section, entries[1].Section})

	r := env.run("history", "add", "Penicillin")
	assert.Equal(t, exitUserError, r.ExitCode, "section is required")
	r = env.run("history", "add", "--section", "plan", " ")
	assert.Equal(t, exitUserError, r.ExitCode)
}

func TestConfig_DataDirFromFile(t *testing.T) {
	env := newTestEnv(t)
	dataDir := filepath.Join(t.TempDir(), "from-config")
	require.NoError(t, os.MkdirAll(env.ConfigDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.ConfigDir, configFileExt),
		[]byte("backend: sqlite\ndata_dir: "+dataDir+"\n"), 0o644))

	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetArgs([]string{"--config-dir", env.ConfigDir, "init"})
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	require.NoError(t, root.Execute(), stderr.String())
	assert.FileExists(t, paths.DatabasePath(dataDir))
}

func TestConfig_Errors(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.MkdirAll(env.ConfigDir, 0o755))
	cfgPath := filepath.Join(env.ConfigDir, configFileExt)

	require.NoError(t, os.WriteFile(cfgPath, []byte("log_level: loud\n"), 0o644))
	assert.Equal(t, exitUserError, env.run("categories").ExitCode)

	require.NoError(t, os.WriteFile(cfgPath, []byte("backend: postgres\n"), 0o644))
	r := env.run("categories")
	assert.Equal(t, exitSysError, r.ExitCode)
	assert.Contains(t, r.Stderr, types.ErrStoreUnavailable.Error())

	require.NoError(t, os.WriteFile(cfgPath, []byte("backend: [unterminated\n"), 0o644))
	assert.Equal(t, exitSysError, env.run("categories").ExitCode)
}

func TestConfig_LogLevel(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("init", "--starter")

	r := env.mustRun("categories")
	assert.NotContains(t, r.Stderr, "loaded reference data")

	r = env.mustRun("--verbose", "categories")
	assert.Contains(t, r.Stderr, "level=DEBUG")
	assert.Contains(t, r.Stderr, "loaded reference data")

	t.Setenv("FORMULARY_LOG_LEVEL", "debug")
	t.Setenv("FORMULARY_LOG_FORMAT", "json")
	r = env.mustRun("categories")
	assert.Contains(t, r.Stderr, `"msg":"loaded reference data"`)
}

func TestInit_User(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_DATA_HOME applies on linux only")
	}
	env := newTestEnv(t)
	xdg := t.TempDir()
	t.Setenv("XDG_DATA_HOME", xdg)

	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetArgs([]string{"--config-dir", env.ConfigDir, "init", "--user"})
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	require.NoError(t, root.Execute(), stderr.String())

	dataDir := filepath.Join(xdg, "formulary")
	assert.FileExists(t, paths.DatabasePath(dataDir))
	cfg, err := os.ReadFile(filepath.Join(env.ConfigDir, configFileExt))
	require.NoError(t, err)
	assert.Contains(t, string(cfg), "data_dir: "+dataDir)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitSuccess},
		{"user", userError("bad"), exitUserError},
		{"system", sysError("broken"), exitSysError},
		{"store unavailable", fmt.Errorf("open: %w", types.ErrStoreUnavailable), exitSysError},
		{"commit failed", types.ErrCommitFailed, exitSysError},
		{"load failed", types.ErrLoadFailed, exitSysError},
		{"other", errors.New("unknown flag"), exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestRun(t *testing.T) {
	newTestEnv(t)
	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitSuccess, run(context.Background(), []string{"version"}, &stdout, &stderr))
	assert.Equal(t, exitUserError, run(context.Background(), []string{"no-such-command"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Error:")
}

func TestWatchReload(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustRun("init", "--starter")

	var logs bytes.Buffer
	a := &app{logger: logging.New(logging.Config{Out: &logs})}
	s, err := store.Open(ctx, types.Config{Backend: types.BackendSQLite, DataDir: env.DataDir}, store.ReferenceSchema)
	require.NoError(t, err)
	repo := refdata.New(s)

	a.reload(ctx, repo)
	assert.Contains(t, logs.String(), "reloaded reference data")
	assert.Contains(t, logs.String(), "categories=4")

	logs.Reset()
	require.NoError(t, repo.AddCategory(ctx, "Draft"))
	a.reload(ctx, repo)
	assert.Contains(t, logs.String(), "reload skipped")

	logs.Reset()
	repo.Invalidate()
	require.NoError(t, s.Close())
	a.reload(ctx, repo)
	assert.Contains(t, logs.String(), "level=ERROR")
	assert.NotContains(t, logs.String(), "categories=")
}

func TestMetricsMux(t *testing.T) {
	reg := prometheus.NewRegistry()
	refdata.NewMetrics(reg)

	srv := httptest.NewServer(metricsMux(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "formulary_pending_changes")
}
