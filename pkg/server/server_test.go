package server

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/matzehuels/atomtree/pkg/cache"
	"github.com/matzehuels/atomtree/pkg/observability"
	"github.com/matzehuels/atomtree/pkg/snapshot"
	"github.com/matzehuels/atomtree/pkg/surface"
	"github.com/matzehuels/atomtree/pkg/viewport"
	"github.com/matzehuels/atomtree/pkg/visualizer"
)

const sampleJSON = `{"A": 1, "B": {"C": 2}}`

func newTestServer(t *testing.T, opts Options) (*Server, *httptest.Server, *surface.Canvas) {
	t.Helper()
	c := surface.NewCanvas("", 600, 1100)
	srv, err := New(visualizer.New(c, visualizer.Options{}), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts, c
}

func do(t *testing.T, method, url, contentType, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

func TestHealth(t *testing.T) {
	_, ts, _ := newTestServer(t, Options{})
	resp, body := do(t, http.MethodGet, ts.URL+"/healthz", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := decode[map[string]any](t, body)
	if got["status"] != "ok" || got["cycles"] != float64(0) || got["mounted"] != true {
		t.Errorf("healthz = %v", got)
	}
}

func TestNewRejectsUnencodableSurface(t *testing.T) {
	vis := visualizer.New(bareSurface{surface.NewCanvas("", 10, 10)}, visualizer.Options{})
	if _, err := New(vis, Options{}); err == nil {
		t.Error("New should reject a surface without encoders")
	}
}

// bareSurface hides the encoders of the wrapped canvas.
type bareSurface struct{ surface.Surface }

func TestSnapshotAndSVG(t *testing.T) {
	_, ts, c := newTestServer(t, Options{})

	resp, body := do(t, http.MethodPost, ts.URL+"/snapshot", "application/json", sampleJSON)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /snapshot = %d %s", resp.StatusCode, body)
	}
	res := decode[visualizer.Result](t, body)
	if res.Skipped || res.Nodes != 4 {
		t.Errorf("result = %+v", res)
	}

	_, body = do(t, http.MethodPost, ts.URL+"/snapshot", "application/yaml", "B:\n  C: 2\nA: 1\n")
	if res := decode[visualizer.Result](t, body); !res.Skipped {
		t.Errorf("equal YAML snapshot should skip: %+v", res)
	}

	resp, body = do(t, http.MethodGet, ts.URL+"/canvas.svg", "", "")
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if n := strings.Count(string(body), "<circle"); n != 4 {
		t.Errorf("svg has %d circles, want 4", n)
	}
	if n := strings.Count(string(body), "<path"); n != 3 {
		t.Errorf("svg has %d paths, want 3", n)
	}
	if string(body) != c.SVG() {
		t.Error("served svg differs from the canvas")
	}
}

func TestSnapshotErrors(t *testing.T) {
	_, ts, _ := newTestServer(t, Options{})
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"not an object", `[1, 2]`, http.StatusBadRequest, "INVALID_SNAPSHOT"},
		{"malformed", `{"A":`, http.StatusBadRequest, "INVALID_SNAPSHOT"},
		{"bad node name", `{"": 1}`, http.StatusBadRequest, "INVALID_SNAPSHOT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, ts.URL+"/snapshot", "application/json", tt.body)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d (%s)", resp.StatusCode, tt.status, body)
			}
			if got := decode[errorResponse](t, body); got.Code != tt.code {
				t.Errorf("code = %q, want %q", got.Code, tt.code)
			}
		})
	}
}

func TestViewport(t *testing.T) {
	_, ts, _ := newTestServer(t, Options{})
	do(t, http.MethodPost, ts.URL+"/snapshot", "application/json", sampleJSON)

	resp, body := do(t, http.MethodPut, ts.URL+"/viewport", "application/json", `{"x": 10, "y": 20, "k": 20}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT /viewport = %d %s", resp.StatusCode, body)
	}
	want := viewport.Transform{X: 10, Y: 20, K: 8}
	if got := decode[viewport.Transform](t, body); got != want {
		t.Errorf("applied = %+v, want %+v", got, want)
	}

	_, body = do(t, http.MethodGet, ts.URL+"/viewport", "", "")
	if got := decode[viewport.Transform](t, body); got != want {
		t.Errorf("GET /viewport = %+v, want %+v", got, want)
	}

	resp, _ = do(t, http.MethodPut, ts.URL+"/viewport", "application/json", `{"k": "big"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad body status = %d", resp.StatusCode)
	}
}

func TestEventsHoverAndPopups(t *testing.T) {
	_, ts, _ := newTestServer(t, Options{})
	do(t, http.MethodPost, ts.URL+"/snapshot", "application/json", sampleJSON)

	// A sits at (1100, -300) under the identity transform.
	resp, body := do(t, http.MethodPost, ts.URL+"/events", "application/json",
		`[{"kind": "move", "x": 1100, "y": -300}]`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /events = %d %s", resp.StatusCode, body)
	}
	got := decode[eventsResponse](t, body)
	if got.Dispatched != 1 || len(got.Popups) != 1 || got.Popups[0] != "popup-1" {
		t.Errorf("events = %+v", got)
	}

	_, body = do(t, http.MethodGet, ts.URL+"/popups", "", "")
	if popups := decode[[]string](t, body); len(popups) != 1 {
		t.Errorf("popups = %v", popups)
	}

	_, body = do(t, http.MethodPost, ts.URL+"/events", "application/json",
		`[{"kind": "move", "x": 500, "y": 500}]`)
	if got := decode[eventsResponse](t, body); len(got.Popups) != 0 {
		t.Errorf("popups after leave = %v", got.Popups)
	}

	resp, _ = do(t, http.MethodPost, ts.URL+"/events", "application/json", `[{"kind": "teleport"}]`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown kind status = %d", resp.StatusCode)
	}
}

func TestEventsWheelZoom(t *testing.T) {
	_, ts, _ := newTestServer(t, Options{})
	do(t, http.MethodPost, ts.URL+"/snapshot", "application/json", sampleJSON)

	_, body := do(t, http.MethodPost, ts.URL+"/events", "application/json",
		`[{"kind": "wheel", "x": 0, "y": 0, "delta_y": -500}]`)
	if got := decode[eventsResponse](t, body); got.Viewport.K != 2 {
		t.Errorf("viewport after wheel = %+v, want K=2", got.Viewport)
	}
}

type cacheRecorder struct {
	observability.NoopCacheHooks
	mu        sync.Mutex
	hits, set int
}

func (r *cacheRecorder) OnCacheHit(context.Context, string) {
	r.mu.Lock()
	r.hits++
	r.mu.Unlock()
}

func (r *cacheRecorder) OnCacheSet(context.Context, string, int) {
	r.mu.Lock()
	r.set++
	r.mu.Unlock()
}

func TestPNGCache(t *testing.T) {
	rec := &cacheRecorder{}
	observability.SetCacheHooks(rec)
	defer observability.Reset()

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_, ts, _ := newTestServer(t, Options{Cache: fc})
	do(t, http.MethodPost, ts.URL+"/snapshot", "application/json", sampleJSON)

	resp, first := do(t, http.MethodGet, ts.URL+"/canvas.png", "", "")
	if resp.StatusCode != http.StatusOK || !bytes.HasPrefix(first, []byte("\x89PNG")) {
		t.Fatalf("GET /canvas.png = %d, %d bytes", resp.StatusCode, len(first))
	}
	_, second := do(t, http.MethodGet, ts.URL+"/canvas.png", "", "")
	if !bytes.Equal(first, second) {
		t.Error("cached png differs")
	}
	if rec.set != 1 || rec.hits != 1 {
		t.Errorf("cache set %d hits %d, want 1 and 1", rec.set, rec.hits)
	}

	resp, _ = do(t, http.MethodGet, ts.URL+"/canvas.png?scale=0", "", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("scale=0 status = %d", resp.StatusCode)
	}
}

func TestEmit(t *testing.T) {
	srv, _, c := newTestServer(t, Options{})
	ctx := context.Background()

	if err := srv.Emit(ctx, snapshot.Snapshot{"A": 1}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if c.Count("circle") != 2 {
		t.Errorf("circles = %d, want 2", c.Count("circle"))
	}

	// Non-fatal cycle errors are logged, not returned.
	if err := srv.Emit(ctx, snapshot.Snapshot{"\x00": 1}); err != nil {
		t.Errorf("Emit(bad) = %v, want nil", err)
	}

	c.Unmount()
	if err := srv.Emit(ctx, snapshot.Snapshot{"B": 2}); err == nil {
		t.Error("Emit on an unmounted surface should fail")
	}
}

func TestStream(t *testing.T) {
	srv, ts, _ := newTestServer(t, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	readEvent := func() string {
		t.Helper()
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		// data line and blank separator
		_, _ = r.ReadString('\n')
		_, _ = r.ReadString('\n')
		return strings.TrimSpace(line)
	}

	if ev := readEvent(); ev != "event: connected" {
		t.Fatalf("first event = %q", ev)
	}
	if srv.Hub().ClientCount() != 1 {
		t.Errorf("ClientCount = %d", srv.Hub().ClientCount())
	}

	do(t, http.MethodPost, ts.URL+"/snapshot", "application/json", sampleJSON)
	if ev := readEvent(); ev != "event: changed" {
		t.Errorf("event = %q, want changed", ev)
	}

	// The hover applies before the bad pointer rejects the rest of the batch.
	resp, body := do(t, http.MethodPost, ts.URL+"/events", "application/json",
		`[{"kind": "move", "x": 1100, "y": -300}, {"kind": "move", "pointer": 42}]`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("POST /events = %d %s", resp.StatusCode, body)
	}
	if ev := readEvent(); ev != "event: changed" {
		t.Errorf("event after partial batch = %q, want changed", ev)
	}
	_, body = do(t, http.MethodGet, ts.URL+"/popups", "", "")
	if popups := decode[[]string](t, body); len(popups) != 1 {
		t.Errorf("popups = %v", popups)
	}
}

func TestServeListenerShutdown(t *testing.T) {
	srv, _, _ := newTestServer(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, "127.0.0.1:0") }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve = %v, want nil after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not shut down")
	}
}
