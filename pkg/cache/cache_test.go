package cache

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()
	if _, ok := c.(NullCache); !ok {
		t.Fatalf("NewNullCache() = %T", c)
	}

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache.Get should always return a nil miss")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Errorf("Get(missing) = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("<svg/>"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "<svg/>" {
		t.Errorf("Get(k) = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry should be gone after Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	if err := c.Set(ctx, "k", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	if err := c.Set(ctx, "k", []byte("x"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit %v, err %v; want miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("entries after Clear = %d", len(entries))
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestHashJSONIgnoresMapOrder(t *testing.T) {
	a := map[string]any{"x": 1, "y": map[string]any{"b": 2, "a": 1}}
	b := map[string]any{"y": map[string]any{"a": 1, "b": 2}, "x": 1}

	ha, err := HashJSON(a)
	if err != nil {
		t.Fatalf("HashJSON: %v", err)
	}
	hb, _ := HashJSON(b)
	if ha != hb {
		t.Error("equal maps should hash equally")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	svg := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg"})
	png := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "png"})
	if svg == png {
		t.Error("different formats should produce different keys")
	}
	if !strings.HasPrefix(svg, "artifact:svg:") {
		t.Errorf("ArtifactKey = %s", svg)
	}

	zoomed := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg", Viewport: "translate(0,0) scale(2)"})
	if zoomed == svg {
		t.Error("viewport should be part of the key")
	}
	if k.ArtifactKey("other", ArtifactKeyOpts{Format: "svg"}) == svg {
		t.Error("content hash should be part of the key")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "canvas:")
	key := scoped.ArtifactKey("h", ArtifactKeyOpts{Format: "png"})
	if !strings.HasPrefix(key, "canvas:artifact:png:") {
		t.Errorf("ScopedKeyer key should be prefixed: %s", key)
	}

	// nil inner falls back to the default keyer
	if got := NewScopedKeyer(nil, "p:").ArtifactKey("h", ArtifactKeyOpts{Format: "png"}); got != "p:"+NewDefaultKeyer().ArtifactKey("h", ArtifactKeyOpts{Format: "png"}) {
		t.Errorf("unexpected key with nil inner: %s", got)
	}
}
