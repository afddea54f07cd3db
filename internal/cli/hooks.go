package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/atomtree/pkg/observability"
)

// logHooks reports observability events as debug log lines.
type logHooks struct {
	observability.NoopCycleHooks
	logger *log.Logger
}

// registerHooks routes cycle, gesture, cache and HTTP events to the CLI
// logger. They only show with -v.
func (c *CLI) registerHooks() {
	h := &logHooks{logger: c.Logger}
	observability.SetCycleHooks(h)
	observability.SetGestureHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func (h *logHooks) OnCycleSkip(_ context.Context, id string) {
	h.logger.Debug("cycle skipped", "cycle", id)
}

func (h *logHooks) OnZoom(kind string, x, y, k float64) {
	h.logger.Debug("zoom", "gesture", kind, "x", x, "y", y, "k", k)
}

func (h *logHooks) OnDrag(index int, x, y float64) {
	h.logger.Debug("drag", "node", index, "x", x, "y", y)
}

func (h *logHooks) OnPopup(id string, shown bool) {
	h.logger.Debug("popup", "id", id, "shown", shown)
}

func (h *logHooks) OnCacheHit(_ context.Context, key string) {
	h.logger.Debug("cache hit", "key", key)
}

func (h *logHooks) OnCacheMiss(_ context.Context, key string) {
	h.logger.Debug("cache miss", "key", key)
}

func (h *logHooks) OnCacheSet(_ context.Context, key string, size int) {
	h.logger.Debug("cache set", "key", key, "bytes", size)
}

func (h *logHooks) OnRequest(_ context.Context, method, path string) {}

func (h *logHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.logger.Debug("request", "method", method, "path", path, "status", status, "duration", d)
}
