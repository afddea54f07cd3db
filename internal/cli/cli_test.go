package cli

import (
	"bytes"
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/atomtree/pkg/config"
	"github.com/matzehuels/atomtree/pkg/observability"
	"github.com/matzehuels/atomtree/pkg/pipeline"
	"github.com/matzehuels/atomtree/pkg/snapshot"
	"github.com/matzehuels/atomtree/pkg/tree"
	"github.com/matzehuels/atomtree/pkg/visualizer"
)

const sampleJSON = `{"A": 1, "B": {"C": 2}}`

// captureStdout redirects status output to a buffer for the rest of the test.
func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })
	return &buf
}

// isolate points the config and cache directories at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	return dir
}

// execute runs the root command with args and returns its cobra output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeSnapshot(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// =============================================================================
// render
// =============================================================================

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		output  string
		formats []string
		want    map[string]string
	}{
		{
			name:    "single format explicit output",
			input:   "state.json",
			output:  "out/tree.svg",
			formats: []string{"svg"},
			want:    map[string]string{"svg": "out/tree.svg"},
		},
		{
			name:    "named after input",
			input:   "dir/state.json",
			formats: []string{"svg", "png"},
			want:    map[string]string{"svg": "dir/state.svg", "png": "dir/state.png"},
		},
		{
			name:    "json tree never replaces the snapshot",
			input:   "state.json",
			formats: []string{"json"},
			want:    map[string]string{"json": "state.tree.json"},
		},
		{
			name:    "stdin",
			input:   "-",
			formats: []string{"dot"},
			want:    map[string]string{"dot": "snapshot.dot"},
		},
		{
			name:    "multiple formats with base path",
			input:   "state.json",
			output:  "render/out.svg",
			formats: []string{"svg", "nodelink.svg"},
			want:    map[string]string{"svg": "render/out.svg", "nodelink.svg": "render/out.nodelink.svg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputPaths(tt.input, tt.output, tt.formats)
			if len(got) != len(tt.want) {
				t.Fatalf("outputPaths() = %v, want %v", got, tt.want)
			}
			for f, p := range tt.want {
				if got[f] != p {
					t.Errorf("outputPaths()[%s] = %q, want %q", f, got[f], p)
				}
			}
		})
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.svg")

	if err := writeFile(path, []byte("first")); err != nil {
		t.Fatalf("writeFile() error: %v", err)
	}
	if err := writeFile(path, []byte("second")); err != nil {
		t.Fatalf("writeFile() overwrite error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want %q", data, "second")
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0o644 {
		t.Errorf("mode = %v, want 0644", info.Mode().Perm())
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("leftover temp files: %v", entries)
	}
}

func TestPipelineOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Canvas.Width = 800

	opts := pipelineOptions(cfg, renderOpts{formats: []string{"png"}, scale: 2, fit: true})
	if opts.Width != 800 || opts.Height != cfg.Canvas.Height {
		t.Errorf("size = %vx%v", opts.Width, opts.Height)
	}
	if !opts.Fit || opts.FitPadding != defaultFitPadding || opts.Scale != 2 {
		t.Errorf("opts = %+v", opts)
	}
	if opts.Visualizer.Initial == nil || opts.Visualizer.Initial.K != 1 {
		t.Errorf("initial = %v", opts.Visualizer.Initial)
	}
}

func TestRenderCommand(t *testing.T) {
	dir := isolate(t)
	out := captureStdout(t)
	input := writeSnapshot(t, dir, "state.json", sampleJSON)

	if _, err := execute(t, "render", input, "-f", "svg,json", "--no-cache"); err != nil {
		t.Fatalf("render error: %v", err)
	}

	svg, err := os.ReadFile(filepath.Join(dir, "state.svg"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Errorf("svg output = %.80q", svg)
	}

	f, err := os.Open(filepath.Join(dir, "state.tree.json"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	root, err := snapshot.ReadTree(f)
	if err != nil {
		t.Fatalf("ReadTree() error: %v", err)
	}
	if root.Count() != 4 {
		t.Errorf("tree nodes = %d, want 4", root.Count())
	}

	if s := out.String(); !strings.Contains(s, "state.json") || !strings.Contains(s, "4 nodes") {
		t.Errorf("status output = %q", s)
	}
}

func TestRenderCommandErrors(t *testing.T) {
	dir := isolate(t)
	captureStdout(t)
	input := writeSnapshot(t, dir, "state.json", sampleJSON)
	bad := writeSnapshot(t, dir, "bad.json", `[1, 2]`)

	tests := []struct {
		name string
		args []string
	}{
		{"missing file", []string{"render", filepath.Join(dir, "nope.json")}},
		{"unknown format", []string{"render", input, "-f", "gif"}},
		{"not an object", []string{"render", bad, "--no-cache"}},
		{"no args", []string{"render"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// =============================================================================
// watch
// =============================================================================

func TestDrawingWriter(t *testing.T) {
	cfg := config.Default()
	dir := t.TempDir()

	tests := []struct {
		name  string
		file  string
		magic string
	}{
		{"svg", "out.svg", "<svg"},
		{"png", "out.PNG", "\x89PNG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			w := &drawingWriter{
				vis:    visualizer.New(cfg.NewCanvas(), cfg.ToOptions(nil)),
				path:   path,
				logger: newLogger(io.Discard, LogInfo),
			}
			ctx := context.Background()
			snap := snapshot.Snapshot{"A": 1, "B": map[string]any{"C": 2}}

			if err := w.emit(ctx, snap); err != nil {
				t.Fatalf("emit() error: %v", err)
			}
			if err := w.emit(ctx, snap); err != nil {
				t.Fatalf("emit() unchanged error: %v", err)
			}
			if err := w.emit(ctx, snapshot.Snapshot{"": 1}); err != nil {
				t.Fatalf("emit() rejected snapshot should not stop the feed: %v", err)
			}
			if w.writes != 1 {
				t.Errorf("writes = %d, want 1", w.writes)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(data), tt.magic) {
				t.Errorf("output %.40q does not contain %q", data, tt.magic)
			}
		})
	}
}

func TestDrawingWriterUnmounted(t *testing.T) {
	cfg := config.Default()
	canvas := cfg.NewCanvas()
	canvas.Unmount()
	w := &drawingWriter{
		vis:    visualizer.New(canvas, cfg.ToOptions(nil)),
		path:   filepath.Join(t.TempDir(), "out.svg"),
		logger: newLogger(io.Discard, LogInfo),
	}
	if err := w.emit(context.Background(), snapshot.Snapshot{"A": 1}); err == nil {
		t.Error("emit() on an unmounted canvas should stop the feed")
	}
}

func TestWatchRequiresInput(t *testing.T) {
	isolate(t)
	if _, err := execute(t, "watch"); err == nil {
		t.Error("watch without a file or --redis should fail")
	}
	if _, err := execute(t, "view"); err == nil {
		t.Error("view without a file or --redis should fail")
	}
}

// =============================================================================
// config
// =============================================================================

func TestConfigCommands(t *testing.T) {
	dir := isolate(t)
	captureStdout(t)
	path := filepath.Join(dir, "config", appName, "config.toml")

	out, err := execute(t, "config", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != path {
		t.Errorf("config path = %q, want %q", out, path)
	}

	if _, err := execute(t, "config", "init"); err != nil {
		t.Fatalf("config init error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	// An edited file survives init without --force.
	if err := os.WriteFile(path, []byte("[zoom]\nmax_scale = 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "config", "init"); err != nil {
		t.Fatal(err)
	}
	out, err = execute(t, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	var shown config.Config
	if _, err := toml.Decode(out, &shown); err != nil {
		t.Fatalf("config show is not TOML: %v\n%s", err, out)
	}
	if shown.Zoom.MaxScale != 4 {
		t.Errorf("max_scale = %v, want 4", shown.Zoom.MaxScale)
	}

	if _, err := execute(t, "config", "init", "--force"); err != nil {
		t.Fatal(err)
	}
	out, _ = execute(t, "config", "show")
	if !strings.Contains(out, "max_scale = 8.0") {
		t.Errorf("--force did not restore defaults:\n%s", out)
	}
}

func TestConfigFlag(t *testing.T) {
	dir := isolate(t)
	path := writeSnapshot(t, dir, "custom.toml", "[canvas]\nwidth = 320.0\n")

	out, err := execute(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "width = 320.0") {
		t.Errorf("config show ignored --config:\n%s", out)
	}

	bad := writeSnapshot(t, dir, "bad.toml", "[zoom]\nmin_scale = -1.0\n")
	if _, err := execute(t, "--config", bad, "config", "show"); err == nil {
		t.Error("invalid config should fail")
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		out, err := execute(t, "completion", shell)
		if err != nil {
			t.Errorf("completion %s error: %v", shell, err)
			continue
		}
		if !strings.Contains(out, appName) {
			t.Errorf("completion %s output does not mention %s", shell, appName)
		}
	}
	if _, err := execute(t, "completion", "tcsh"); err == nil {
		t.Error("unknown shell should fail")
	}
}

func TestCacheCommands(t *testing.T) {
	dir := isolate(t)
	captureStdout(t)
	input := writeSnapshot(t, dir, "state.json", sampleJSON)

	if _, err := execute(t, "render", input); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != filepath.Join(dir, "cache", appName) {
		t.Errorf("cache path = %q", out)
	}
	if _, err := execute(t, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
}

func TestRenderUsesCache(t *testing.T) {
	dir := isolate(t)
	input := writeSnapshot(t, dir, "state.json", sampleJSON)

	for i, wantCached := range []bool{false, true} {
		out := captureStdout(t)
		if _, err := execute(t, "render", input, "-f", pipeline.FormatSVG); err != nil {
			t.Fatal(err)
		}
		if got := strings.Contains(out.String(), iconCached); got != wantCached {
			t.Errorf("run %d cached = %v, want %v: %q", i, got, wantCached, out.String())
		}
	}
}

// =============================================================================
// view
// =============================================================================

func newViewer(t *testing.T) ViewerModel {
	t.Helper()
	cfg := config.Default()
	opts := cfg.ToOptions(nil)
	vis := visualizer.New(cfg.NewCanvas(), opts)
	m := NewViewerModel(vis, *opts.Initial, defaultFitPadding)
	if len(m.Rows) != 0 {
		t.Fatalf("rows before first cycle = %d", len(m.Rows))
	}

	res, err := vis.Update(context.Background(), snapshot.Snapshot{"A": 1, "B": map[string]any{"C": 2}})
	next, _ := m.Update(cycleMsg{res: res, err: err})
	return next.(ViewerModel)
}

func key(m ViewerModel, k string) ViewerModel {
	next, _ := m.handleKey(k)
	return next.(ViewerModel)
}

func TestViewerRows(t *testing.T) {
	m := newViewer(t)

	want := []viewRow{
		{index: 0, depth: 0, name: tree.DefaultRootName},
		{index: 1, depth: 1, name: "A", leaf: true},
		{index: 2, depth: 1, name: "B"},
		{index: 3, depth: 2, name: "C", leaf: true},
	}
	if len(m.Rows) != len(want) {
		t.Fatalf("rows = %+v", m.Rows)
	}
	for i, r := range want {
		if m.Rows[i] != r {
			t.Errorf("row %d = %+v, want %+v", i, m.Rows[i], r)
		}
	}

	m = key(m, "k")
	if m.Cursor != 0 {
		t.Errorf("cursor moved above the first row: %d", m.Cursor)
	}
	for range 10 {
		m = key(m, "j")
	}
	if m.Cursor != 3 {
		t.Errorf("cursor = %d, want 3", m.Cursor)
	}
	if !strings.Contains(m.View(), "C") {
		t.Error("view does not list node C")
	}
}

func TestViewerPopup(t *testing.T) {
	m := newViewer(t)
	m = key(m, "down")
	m = key(m, "enter")

	if m.Hovered != 1 {
		t.Fatalf("hovered = %d, want 1", m.Hovered)
	}
	if got := m.vis.Popups(); len(got) != 1 || got[0] != "popup-1" {
		t.Errorf("popups = %v", got)
	}
	id, body := m.popup()
	if id != "popup-1" || !strings.Contains(body, `"value"`) {
		t.Errorf("popup() = %q, %q", id, body)
	}
	if !strings.Contains(m.View(), "popup-1") {
		t.Error("view does not show the popup")
	}

	m = key(m, " ")
	if m.Hovered != -1 || len(m.vis.Popups()) != 0 {
		t.Errorf("popup still shown: %d %v", m.Hovered, m.vis.Popups())
	}

	// A new snapshot drops popups.
	m = key(m, "enter")
	res, err := m.vis.Update(context.Background(), snapshot.Snapshot{"A": 5})
	next, _ := m.Update(cycleMsg{res: res, err: err})
	m = next.(ViewerModel)
	if m.Hovered != -1 || len(m.Rows) != 2 {
		t.Errorf("after reload: hovered %d, rows %d", m.Hovered, len(m.Rows))
	}
}

func TestViewerZoomAndPan(t *testing.T) {
	m := newViewer(t)

	m = key(m, "+")
	if k := m.vis.Viewport().K; math.Abs(k-math.Sqrt2) > 1e-9 {
		t.Errorf("K after zoom in = %v, want √2", k)
	}
	m = key(m, "-")
	if k := m.vis.Viewport().K; math.Abs(k-1) > 1e-9 {
		t.Errorf("K after zoom out = %v, want 1", k)
	}

	before := m.vis.Viewport()
	m = key(m, "l")
	if got := m.vis.Viewport(); got.X != before.X-panStep || got.Y != before.Y {
		t.Errorf("pan right = %v from %v", got, before)
	}
	for range 20 {
		m = key(m, "+")
	}
	if k := m.vis.Viewport().K; k != 8 {
		t.Errorf("K = %v, want clamp to 8", k)
	}
}

func TestViewerFitAnimation(t *testing.T) {
	m := newViewer(t)
	target := m.vis.Fit(defaultFitPadding)

	next, cmd := m.handleKey("f")
	m = next.(ViewerModel)
	if cmd == nil || m.anim == nil {
		t.Fatal("fit should start an animation")
	}

	deadline := time.Now().Add(5 * time.Second)
	for m.anim != nil && time.Now().Before(deadline) {
		next, _ = m.Update(frameMsg(time.Now()))
		m = next.(ViewerModel)
	}
	if !m.vis.Viewport().Equal(target, 1e-9) {
		t.Errorf("viewport = %v, want %v", m.vis.Viewport(), target)
	}

	next, _ = m.handleKey("r")
	m = next.(ViewerModel)
	for m.anim != nil {
		next, _ = m.Update(frameMsg(time.Now()))
		m = next.(ViewerModel)
	}
	if !m.vis.Viewport().Equal(m.initial, 1e-9) {
		t.Errorf("reset viewport = %v, want %v", m.vis.Viewport(), m.initial)
	}
}

func TestViewerCycleError(t *testing.T) {
	m := newViewer(t)
	res, err := m.vis.Update(context.Background(), snapshot.Snapshot{"": 1})
	if err == nil {
		t.Fatal("expected invalid snapshot")
	}
	next, _ := m.Update(cycleMsg{res: res, err: err})
	m = next.(ViewerModel)
	if len(m.Rows) != 4 {
		t.Errorf("rows after failed cycle = %d, want previous 4", len(m.Rows))
	}
	if m.err == nil {
		t.Error("error not reported")
	}
}

func TestLogHooks(t *testing.T) {
	t.Cleanup(observability.Reset)

	var buf bytes.Buffer
	c := New(&buf, LogDebug)
	c.registerHooks()

	observability.Gesture().OnPopup("popup-1", true)
	observability.Cache().OnCacheHit(context.Background(), "png")
	observability.HTTP().OnResponse(context.Background(), "GET", "/canvas.svg", 200, time.Millisecond)

	out := buf.String()
	for _, want := range []string{"popup-1", "cache hit", "/canvas.svg"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
