package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// Hub fans canvas change notifications out to server-sent event clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[chan uint64]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[chan uint64]struct{})}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Notify sends version to every client. Clients that have not consumed the
// previous notification keep it and miss this one.
func (h *Hub) Notify(version uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.clients {
		select {
		case ch <- version:
		default:
		}
	}
}

func (h *Hub) subscribe() chan uint64 {
	ch := make(chan uint64, 1)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(ch chan uint64) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

// ServeSSE streams change events until the request or ctx ends.
func (h *Hub) ServeSSE(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ctx.Done():
			return
		case v := <-ch:
			fmt.Fprintf(w, "event: changed\ndata: {\"version\":%d}\n\n", v)
			flusher.Flush()
		}
	}
}
