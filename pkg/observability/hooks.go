// Package observability provides hooks for metrics, tracing, and logging.
//
// Render cycles, gestures, cache lookups and HTTP requests report to
// package-level hooks. Every hook defaults to a no-op, so libraries can call
// them unconditionally and hosts opt in by registering their own
// implementation at startup.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetCycleHooks(&myCycleHooks{})
//	    observability.SetGestureHooks(&myGestureHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Cycle().OnCycleStart(ctx, id, nodeCount)
//	// ... layout and render ...
//	observability.Cycle().OnCycleComplete(ctx, id, nodeCount, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Cycle Hooks
// =============================================================================

// CycleHooks receives events from render cycles.
type CycleHooks interface {
	// OnCycleStart is called once the snapshot has been converted.
	OnCycleStart(ctx context.Context, cycleID string, nodeCount int)

	// OnCycleSkip is called when a snapshot equals the one already drawn.
	OnCycleSkip(ctx context.Context, cycleID string)

	// OnCycleComplete is called after layout and render, or on failure.
	OnCycleComplete(ctx context.Context, cycleID string, nodeCount int, duration time.Duration, err error)
}

// =============================================================================
// Gesture Hooks
// =============================================================================

// GestureHooks receives events from the interaction layer.
type GestureHooks interface {
	// OnZoom records a committed viewport change. kind is one of
	// "wheel", "dblclick", "pinch", "pan" or "set".
	OnZoom(kind string, x, y, k float64)

	// OnDrag records the end of a node drag.
	OnDrag(index int, x, y float64)

	// OnPopup records a popup being shown or removed.
	OnPopup(id string, shown bool)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP server.
type HTTPHooks interface {
	// OnRequest records an incoming HTTP request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records the response status and latency.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopCycleHooks is a no-op implementation of CycleHooks.
type NoopCycleHooks struct{}

func (NoopCycleHooks) OnCycleStart(context.Context, string, int) {}
func (NoopCycleHooks) OnCycleSkip(context.Context, string)       {}
func (NoopCycleHooks) OnCycleComplete(context.Context, string, int, time.Duration, error) {
}

// NoopGestureHooks is a no-op implementation of GestureHooks.
type NoopGestureHooks struct{}

func (NoopGestureHooks) OnZoom(string, float64, float64, float64) {}
func (NoopGestureHooks) OnDrag(int, float64, float64)             {}
func (NoopGestureHooks) OnPopup(string, bool)                     {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	cycleHooks   CycleHooks   = NoopCycleHooks{}
	gestureHooks GestureHooks = NoopGestureHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	httpHooks    HTTPHooks    = NoopHTTPHooks{}
	hooksMu      sync.RWMutex
)

// SetCycleHooks registers custom render cycle hooks.
// This should be called once at application startup.
func SetCycleHooks(h CycleHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cycleHooks = h
	}
}

// SetGestureHooks registers custom gesture hooks.
func SetGestureHooks(h GestureHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		gestureHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Cycle returns the registered render cycle hooks.
func Cycle() CycleHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cycleHooks
}

// Gesture returns the registered gesture hooks.
func Gesture() GestureHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return gestureHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	cycleHooks = NoopCycleHooks{}
	gestureHooks = NoopGestureHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
