package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/evanschultz/treeview/internal/adapters/specfile"
	"github.com/evanschultz/treeview/internal/config"
	"github.com/evanschultz/treeview/internal/domain"
	"github.com/evanschultz/treeview/internal/tui"
)

// TestMain sets deterministic environment defaults for CLI tests.
func TestMain(m *testing.M) {
	_ = os.Setenv("TREEVIEW_DEV_MODE", "false")
	os.Exit(m.Run())
}

// fakeProgram returns immediately without running a terminal loop.
type fakeProgram struct {
	runErr error
}

func (f fakeProgram) Run() (tea.Model, error) {
	return nil, f.runErr
}

// scriptedProgram drives the model with messages instead of a terminal.
type scriptedProgram struct {
	model tea.Model
	runFn func(tea.Model) (tea.Model, error)
}

func (p scriptedProgram) Run() (tea.Model, error) {
	if p.runFn == nil {
		return p.model, nil
	}
	return p.runFn(p.model)
}

func stubProgram(t *testing.T, factory func(tea.Model) program) {
	t.Helper()
	orig := programFactory
	t.Cleanup(func() { programFactory = orig })
	programFactory = factory
}

func writeItemsFile(t *testing.T, path string) {
	t.Helper()
	content := `items:
  - label: Fruit
    children:
      - label: Apple
        value: apple
      - label: Pear
        value: pear
        checked: false
  - label: Veg
    children:
      - label: Carrot
        value: carrot
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func labelsOf(specs []domain.NodeSpec) []string {
	out := make([]string, 0, len(specs))
	for _, spec := range specs {
		out = append(out, spec.Label)
	}
	return out
}

// TestRunVersion verifies behavior for the covered scenario.
func TestRunVersion(t *testing.T) {
	var out strings.Builder
	if err := run(context.Background(), []string{"--version"}, &out, io.Discard); err != nil {
		t.Fatalf("run(version) error = %v", err)
	}
	if !strings.Contains(out.String(), version) {
		t.Fatalf("expected version output, got %q", out.String())
	}
}

// TestRunStartsProgram verifies behavior for the covered scenario.
func TestRunStartsProgram(t *testing.T) {
	var started tea.Model
	stubProgram(t, func(m tea.Model) program {
		started = m
		return fakeProgram{}
	})

	tmp := t.TempDir()
	err := run(context.Background(), []string{"--db", filepath.Join(tmp, "treeview.db"), "--config", filepath.Join(tmp, "missing.toml")}, io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if _, ok := started.(tui.Model); !ok {
		t.Fatalf("expected tui.Model, got %T", started)
	}
}

// TestRunProgramErrorIsReturned verifies behavior for the covered scenario.
func TestRunProgramErrorIsReturned(t *testing.T) {
	stubProgram(t, func(tea.Model) program { return fakeProgram{runErr: io.ErrUnexpectedEOF} })

	tmp := t.TempDir()
	err := run(context.Background(), []string{"--db", filepath.Join(tmp, "treeview.db"), "--config", filepath.Join(tmp, "missing.toml")}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "run tui program") {
		t.Fatalf("expected wrapped program error, got %v", err)
	}
}

// TestRunInvalidFlag verifies behavior for the covered scenario.
func TestRunInvalidFlag(t *testing.T) {
	err := run(context.Background(), []string{"--unknown-flag"}, io.Discard, io.Discard)
	if err == nil {
		t.Fatal("expected flag parse error")
	}
}

// TestRunUnknownCommand verifies behavior for the covered scenario.
func TestRunUnknownCommand(t *testing.T) {
	err := run(context.Background(), []string{"unknown-command"}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

// TestRunPathsCommand verifies behavior for the covered scenario.
func TestRunPathsCommand(t *testing.T) {
	var out strings.Builder
	if err := run(context.Background(), []string{"--app", "treex", "--dev", "paths"}, &out, io.Discard); err != nil {
		t.Fatalf("run(paths) error = %v", err)
	}
	output := out.String()
	for _, want := range []string{"app: treex", "dev_mode: true", "treex-dev", "items: "} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected %q in paths output, got %q", want, output)
		}
	}
}

// TestRunImportExportCatalog verifies behavior for the covered scenario.
func TestRunImportExportCatalog(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "treeview.db")
	cfgPath := filepath.Join(tmp, "missing.toml")
	inPath := filepath.Join(tmp, "items.yaml")
	writeItemsFile(t, inPath)

	base := []string{"--db", dbPath, "--config", cfgPath}
	if err := run(context.Background(), append(base, "import", "--in", inPath), io.Discard, io.Discard); err != nil {
		t.Fatalf("run(import) error = %v", err)
	}

	outPath := filepath.Join(tmp, "out.toml")
	if err := run(context.Background(), append(base, "export", "--out", outPath), io.Discard, io.Discard); err != nil {
		t.Fatalf("run(export) error = %v", err)
	}
	specs, err := specfile.Load(outPath, "")
	if err != nil {
		t.Fatalf("specfile.Load() error = %v", err)
	}
	if got := labelsOf(specs); len(got) != 2 || got[0] != "Fruit" || got[1] != "Veg" {
		t.Fatalf("unexpected exported roots %#v", got)
	}
	if got := labelsOf(specs[0].Children); len(got) != 2 || got[1] != "Pear" {
		t.Fatalf("unexpected exported children %#v", got)
	}
	if pear := specs[0].Children[1]; pear.Checked == nil || *pear.Checked {
		t.Fatal("expected Pear exported unchecked")
	}

	var stdout bytes.Buffer
	if err := run(context.Background(), append(base, "export", "--filter", "carr"), &stdout, io.Discard); err != nil {
		t.Fatalf("run(export --filter) error = %v", err)
	}
	filtered, err := specfile.Decode(stdout.Bytes(), specfile.FormatJSON)
	if err != nil {
		t.Fatalf("Decode(stdout) error = %v", err)
	}
	if got := labelsOf(filtered); len(got) != 1 || got[0] != "Veg" {
		t.Fatalf("expected only Veg in filtered export, got %#v", got)
	}
}

// TestRunImportErrors verifies behavior for the covered scenario.
func TestRunImportErrors(t *testing.T) {
	tmp := t.TempDir()
	base := []string{"--db", filepath.Join(tmp, "treeview.db"), "--config", filepath.Join(tmp, "missing.toml")}

	if err := run(context.Background(), append(base, "import"), io.Discard, io.Discard); err == nil || !strings.Contains(err.Error(), "--in is required") {
		t.Fatalf("expected missing --in error, got %v", err)
	}
	if err := run(context.Background(), append(base, "import", "--in", filepath.Join(tmp, "nope.json")), io.Discard, io.Discard); err == nil {
		t.Fatal("expected missing import file error")
	}
	bad := filepath.Join(tmp, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"items":[{"label":""}]}`), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := run(context.Background(), append(base, "import", "--in", bad), io.Discard, io.Discard); err == nil {
		t.Fatal("expected invalid item spec error")
	}
}

// TestRunItemsFileMode verifies behavior for the covered scenario.
func TestRunItemsFileMode(t *testing.T) {
	tmp := t.TempDir()
	itemsPath := filepath.Join(tmp, "items.yaml")
	writeItemsFile(t, itemsPath)

	stubProgram(t, func(m tea.Model) program {
		return scriptedProgram{model: m, runFn: func(model tea.Model) (tea.Model, error) {
			model, _ = model.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
			for _, msg := range []tea.Msg{
				tea.KeyPressMsg{Code: 'j', Text: "j"},
				tea.KeyPressMsg{Code: 'x', Text: "x"},
			} {
				model, _ = model.Update(msg)
			}
			_, cmd := model.Update(tea.KeyPressMsg{Code: 's', Mod: tea.ModCtrl})
			if cmd == nil {
				t.Fatal("expected save command")
			}
			model, _ = model.Update(cmd())
			return model, nil
		}}
	})

	args := []string{"--db", filepath.Join(tmp, "treeview.db"), "--config", filepath.Join(tmp, "missing.toml"), "--items", itemsPath}
	if err := run(context.Background(), args, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(--items) error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmp, "treeview.db")); err == nil {
		t.Fatal("expected no database opened in item file mode")
	}

	specs, err := specfile.Load(itemsPath, "")
	if err != nil {
		t.Fatalf("specfile.Load() error = %v", err)
	}
	if got := labelsOf(specs); len(got) != 1 || got[0] != "Fruit" {
		t.Fatalf("expected Veg deleted and saved, got %#v", got)
	}
}

// TestRunItemsEnvOverride verifies behavior for the covered scenario.
func TestRunItemsEnvOverride(t *testing.T) {
	tmp := t.TempDir()
	itemsPath := filepath.Join(tmp, "env-items.json")
	t.Setenv("TREEVIEW_ITEMS", itemsPath)
	t.Setenv("TREEVIEW_CONFIG", filepath.Join(tmp, "missing.toml"))
	t.Setenv("TREEVIEW_DB_PATH", filepath.Join(tmp, "env.db"))

	inPath := filepath.Join(tmp, "items.yaml")
	writeItemsFile(t, inPath)
	if err := run(context.Background(), []string{"import", "--in", inPath}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(import) error = %v", err)
	}
	specs, err := specfile.Load(itemsPath, "")
	if err != nil {
		t.Fatalf("expected import written to the env item file, got %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(specs))
	}
	if _, err := os.Stat(filepath.Join(tmp, "env.db")); err == nil {
		t.Fatal("expected item file mode to skip the database")
	}
}

// TestRunRejectsInvalidConfig verifies behavior for the covered scenario.
func TestRunRejectsInvalidConfig(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "treeview.toml")
	if err := os.WriteFile(cfgPath, []byte("[logging]\nlevel = \"loud\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	err := run(context.Background(), []string{"--db", filepath.Join(tmp, "treeview.db"), "--config", cfgPath, "export"}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "logging.level") {
		t.Fatalf("expected invalid logging level error, got %v", err)
	}
}

// TestRunTUIModeWritesRuntimeLogsToFileOnly verifies TUI runtime logs stay out of stderr and persist to the dev log file.
func TestRunTUIModeWritesRuntimeLogsToFileOnly(t *testing.T) {
	stubProgram(t, func(tea.Model) program { return fakeProgram{} })

	workspace := t.TempDir()
	t.Chdir(workspace)

	var stderr bytes.Buffer
	args := []string{"--dev", "--db", filepath.Join(workspace, "treeview.db"), "--config", filepath.Join(workspace, "missing.toml")}
	if err := run(context.Background(), args, io.Discard, &stderr); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if got := strings.TrimSpace(stderr.String()); got != "" {
		t.Fatalf("expected no runtime stderr output in TUI mode, got %q", got)
	}

	logDir := filepath.Join(workspace, ".treeview", "log")
	entries, err := os.ReadDir(logDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	var logPath string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".log") {
			logPath = filepath.Join(logDir, entry.Name())
			break
		}
	}
	if logPath == "" {
		t.Fatalf("expected a .log file in %s", logDir)
	}
	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(content), "starting tui program loop") {
		t.Fatalf("expected runtime log file to include TUI lifecycle entries, got %q", content)
	}
}

// TestParseBoolEnv verifies behavior for the covered scenario.
func TestParseBoolEnv(t *testing.T) {
	t.Setenv("TREEVIEW_BOOL_TEST", "true")
	if got, ok := parseBoolEnv("TREEVIEW_BOOL_TEST"); !ok || !got {
		t.Fatalf("expected true bool env parse, got value=%t ok=%t", got, ok)
	}
	t.Setenv("TREEVIEW_BOOL_TEST", "not-bool")
	if _, ok := parseBoolEnv("TREEVIEW_BOOL_TEST"); ok {
		t.Fatal("expected invalid bool env to return ok=false")
	}
}

// TestParserFor verifies config parser names map to event parsers.
func TestParserFor(t *testing.T) {
	for _, kind := range []config.ParserKind{config.ParserValues, config.ParserSelection, config.ParserDownline, ""} {
		if parserFor(kind) == nil {
			t.Fatalf("expected parser for %q", kind)
		}
	}
	cfg := config.Default("/tmp/treeview.db")
	cfg.Text.Language = "vi"
	ctl, err := newController(cfg)
	if err != nil {
		t.Fatalf("newController() error = %v", err)
	}
	if ctl.All().Label != "Tất cả" {
		t.Fatalf("expected Vietnamese All label, got %q", ctl.All().Label)
	}
}

// TestWorkspaceRootFromUsesNearestMarker verifies workspace-root resolution behavior.
func TestWorkspaceRootFromUsesNearestMarker(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/test\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	nested := filepath.Join(root, "cmd", "treeview")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if got := workspaceRootFrom(nested); filepath.Clean(got) != filepath.Clean(root) {
		t.Fatalf("expected workspace root %q, got %q", root, got)
	}
}

// TestDevLogFilePath verifies log file naming.
func TestDevLogFilePath(t *testing.T) {
	dir := t.TempDir()
	got, err := devLogFilePath(dir, "my app/x", time.Date(2026, 2, 22, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("devLogFilePath() error = %v", err)
	}
	if want := filepath.Join(dir, "my-app-x-20260222.log"); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if sanitizeLogFileStem("  ") != "treeview" {
		t.Fatal("expected default stem for blank app name")
	}
}

// TestRuntimeLoggerCanMuteConsoleSink verifies behavior for the covered scenario.
func TestRuntimeLoggerCanMuteConsoleSink(t *testing.T) {
	var console bytes.Buffer
	cfg := config.Default("/tmp/treeview.db").Logging

	logger, err := newRuntimeLogger(&console, "treeview", false, cfg, func() time.Time {
		return time.Date(2026, 2, 23, 12, 0, 0, 0, time.UTC)
	})
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}

	logger.Info("before")
	logger.SetConsoleEnabled(false)
	logger.Info("during")
	logger.SetConsoleEnabled(true)
	logger.Info("after")
	logger.Debug("hidden")

	out := console.String()
	if !strings.Contains(out, "before") || !strings.Contains(out, "after") {
		t.Fatalf("expected console log entries, got %q", out)
	}
	if strings.Contains(out, "during") || strings.Contains(out, "hidden") {
		t.Fatalf("expected muted and below-level entries omitted, got %q", out)
	}
}
