package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/modclash/internal/platform"
	"github.com/sdejongh/modclash/pkg/cache"
	"github.com/sdejongh/modclash/pkg/config"
	"github.com/sdejongh/modclash/pkg/conflict"
	"github.com/sdejongh/modclash/pkg/logging"
	"github.com/sdejongh/modclash/pkg/output"
)

// testEnv isolates config, state and cache directories and provides a
// quiet config file
type testEnv struct {
	t       *testing.T
	dir     string
	root    string
	cfgPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("AppData", filepath.Join(dir, "config"))
	t.Setenv("LocalAppData", filepath.Join(dir, "cache"))

	cfg := config.Default()
	cfg.Cache.Backend = cache.BackendMemory
	cfg.Output.Progress = false
	cfg.Output.Color = false
	cfg.Output.Quiet = true
	cfgPath := filepath.Join(dir, "modclash.yaml")
	require.NoError(t, config.SaveToFile(cfg, cfgPath))

	env := &testEnv{t: t, dir: dir, root: filepath.Join(dir, "lml"), cfgPath: cfgPath}
	env.writeMod("ModA", "stream/horse.ytd", "texture a")
	env.writeMod("ModB", "stream/horse.ytd", "texture b")
	env.writeMod("ModB", "x.meta", "<meta/>")
	env.writeMod("ModC", "x.meta", "<meta/>")
	env.writeMod("ModC", "readme.txt", "only here")
	return env
}

func (e *testEnv) writeMod(mod, rel, content string) {
	e.t.Helper()
	p := filepath.Join(e.root, mod, filepath.FromSlash(rel))
	require.NoError(e.t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(e.t, os.WriteFile(p, []byte(content), 0644))
}

// run executes the command line with the test config
func (e *testEnv) run(args ...string) error {
	cmd := NewRootCommand()
	cmd.SetArgs(append([]string{"--config", e.cfgPath, "--quiet"}, args...))
	return cmd.ExecuteContext(context.Background())
}

// output executes the command line and returns what it wrote to stdout
func (e *testEnv) output(args ...string) (string, error) {
	var buf bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&buf)
	cmd.SetArgs(append([]string{"--config", e.cfgPath, "--quiet"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// scanJSON runs a scan and decodes its JSON report
func (e *testEnv) scanJSON(args ...string) *output.JSONReport {
	e.t.Helper()
	report := filepath.Join(e.dir, "report.json")
	require.NoError(e.t, e.run(append([]string{"scan", "--root", e.root, "--report", report}, args...)...))

	data, err := os.ReadFile(report)
	require.NoError(e.t, err)
	var doc output.JSONReport
	require.NoError(e.t, json.Unmarshal(data, &doc))
	return &doc
}

func TestScanReport(t *testing.T) {
	env := newTestEnv(t)
	doc := env.scanJSON()

	require.Len(t, doc.ActiveConflicts, 2)
	assert.Equal(t, "Medium", doc.ActiveConflicts["stream/horse.ytd"].Severity)
	assert.Equal(t, []string{"ModA", "ModB"}, doc.ActiveConflicts["stream/horse.ytd"].Mods)
	assert.Equal(t, "High", doc.ActiveConflicts["x.meta"].Severity)
	assert.Empty(t, doc.ExcludedFiles)
	assert.Equal(t, "success", doc.Metadata.Status)
}

func TestScanCheckIdentical(t *testing.T) {
	env := newTestEnv(t)
	doc := env.scanJSON("--check-identical")

	require.NotNil(t, doc.ActiveConflicts["x.meta"].Identical)
	assert.True(t, *doc.ActiveConflicts["x.meta"].Identical)
	require.NotNil(t, doc.ActiveConflicts["stream/horse.ytd"].Identical)
	assert.False(t, *doc.ActiveConflicts["stream/horse.ytd"].Identical)
}

func TestScanSessionExclusions(t *testing.T) {
	env := newTestEnv(t)
	doc := env.scanJSON("--exclude-pattern", "**/*.ytd")

	assert.Len(t, doc.ActiveConflicts, 1)
	assert.Contains(t, doc.ExcludedFiles, "stream/horse.ytd")

	// nothing was persisted
	doc = env.scanJSON()
	assert.Len(t, doc.ActiveConflicts, 2)
}

func TestScanInvalidRoot(t *testing.T) {
	env := newTestEnv(t)
	err := env.run("scan", "--root", filepath.Join(env.dir, "missing"))

	var pathErr *platform.PathError
	assert.ErrorAs(t, err, &pathErr)
}

func TestScanInvalidFlags(t *testing.T) {
	env := newTestEnv(t)
	assert.ErrorContains(t, env.run("scan", "--root", env.root, "--sort", "size"), "invalid sort key")
	assert.ErrorContains(t, env.run("scan", "--root", env.root, "--severity", "critical"), "invalid severity")
	assert.Error(t, env.run("scan", "--root", env.root, "-o", "xml"))
}

func TestExcludeCommands(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.run("exclude", "add", "--root", env.root, "stream/horse.ytd"))
	doc := env.scanJSON()
	assert.Len(t, doc.ActiveConflicts, 1)
	assert.Contains(t, doc.ExcludedFiles, "stream/horse.ytd")
	assert.Equal(t, 1, doc.Metadata.ExcludedFiles)

	require.NoError(t, env.run("exclude", "add", "--root", env.root, "--pattern", "**/*.meta"))
	doc = env.scanJSON()
	assert.Empty(t, doc.ActiveConflicts)

	require.NoError(t, env.run("exclude", "remove", "--root", env.root, "x.meta"))
	doc = env.scanJSON()
	assert.Contains(t, doc.ActiveConflicts, "x.meta")

	require.NoError(t, env.run("exclude", "clear", "--root", env.root))
	doc = env.scanJSON()
	assert.Len(t, doc.ActiveConflicts, 2)

	assert.Error(t, env.run("exclude", "add", "--root", env.root))
}

func TestDiffCommand(t *testing.T) {
	env := newTestEnv(t)

	assert.NoError(t, env.run("diff", "--root", env.root, "--path", "stream/horse.ytd"))
	assert.NoError(t, env.run("diff", "--root", env.root, "--path", "x.meta", "--quick"))
	assert.NoError(t, env.run("diff", "--root", env.root, "--path", "x.meta", "--unified", "--search", "meta"))
	assert.ErrorContains(t, env.run("diff", "--root", env.root, "--path", "readme.txt"), "not a conflict")
}

func TestDiffCommandBinaryPair(t *testing.T) {
	env := newTestEnv(t)
	texture := "DDS \x00\x01\x02"
	env.writeMod("ModA", "stream/same.ytd", texture)
	env.writeMod("ModB", "stream/same.ytd", texture)
	env.writeMod("ModA", "stream/other.ytd", texture)
	env.writeMod("ModB", "stream/other.ytd", texture+"\x03")

	out, err := env.output("diff", "--root", env.root, "--path", "stream/same.ytd")
	require.NoError(t, err)
	assert.Contains(t, out, "Binary files cannot be compared line by line\n")
	assert.Contains(t, out, "The files are byte-identical\n")

	out, err = env.output("diff", "--root", env.root, "--path", "stream/other.ytd")
	require.NoError(t, err)
	assert.Contains(t, out, "Binary files cannot be compared line by line\n")
	assert.Contains(t, out, "The files differ: ")
}

func TestBackupCommands(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.run("backup", "create", "--root", env.root, "snapshot"))
	archive := filepath.Join(env.dir, "LML_Backups", "snapshot.zip")
	require.FileExists(t, archive)
	require.NoError(t, env.run("backup", "list", "--root", env.root))

	require.NoError(t, os.RemoveAll(filepath.Join(env.root, "ModA")))
	require.NoError(t, env.run("backup", "restore", "--root", env.root, "--yes", "--bandwidth", "100M", "snapshot"))
	assert.FileExists(t, filepath.Join(env.root, "ModA", "stream", "horse.ytd"))

	assert.Error(t, env.run("backup", "restore", "--root", env.root, "--yes", "missing"))
	assert.Error(t, env.run("backup", "create", "--root", env.root, "--bandwidth", "fast"))
}

func TestConfigInit(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.dir, "fresh.toml")

	require.NoError(t, env.run("config", "init", "--root", env.root, path))
	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, env.root, cfg.Scan.Root)

	assert.ErrorContains(t, env.run("config", "init", path), "already exists")

	// scan.root from the config replaces --root
	env.cfgPath = path
	require.NoError(t, env.run("scan", "--no-cache"))
}

func TestPickMods(t *testing.T) {
	env := newTestEnv(t)
	cfg, err := config.LoadFromFile(env.cfgPath)
	require.NoError(t, err)

	ctx := context.Background()
	engine, cleanup, err := newEngine(ctx, cfg, logging.NewNullLogger(), false)
	require.NoError(t, err)
	defer cleanup()
	_, err = engine.Scan(ctx, env.root, conflict.ScanOptions{MaxWorkers: cfg.Scan.MaxWorkers})
	require.NoError(t, err)

	left, right, err := pickMods(engine, "x.meta", "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"ModB", "ModC"}, []string{left, right})

	left, right, err = pickMods(engine, "x.meta", "", "ModB")
	require.NoError(t, err)
	assert.Equal(t, []string{"ModC", "ModB"}, []string{left, right})
}

func TestExitError(t *testing.T) {
	err := &ExitError{Code: 3}
	assert.Equal(t, "exit status 3", err.Error())
	assert.Nil(t, err.Unwrap())
}
