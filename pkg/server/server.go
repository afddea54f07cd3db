package server

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/atomtree/pkg/buildinfo"
	"github.com/matzehuels/atomtree/pkg/cache"
	"github.com/matzehuels/atomtree/pkg/errors"
	"github.com/matzehuels/atomtree/pkg/observability"
	"github.com/matzehuels/atomtree/pkg/snapshot"
	"github.com/matzehuels/atomtree/pkg/surface"
	"github.com/matzehuels/atomtree/pkg/viewport"
	"github.com/matzehuels/atomtree/pkg/visualizer"
)

const (
	maxBodyBytes = 8 << 20
	maxPNGScale  = 8
	shutdownWait = 5 * time.Second
)

// Drawing is a surface that can be encoded. [surface.Canvas] implements it.
type Drawing interface {
	surface.Surface
	WriteSVG(w io.Writer) error
	WritePNG(w io.Writer, opts ...surface.PNGOption) error
	Version() uint64
}

// Options configures a [Server].
type Options struct {
	// Cache stores PNG encodings. Defaults to cache.NullCache.
	Cache cache.Cache
	// Keyer defaults to a keyer scoped by the surface id.
	Keyer cache.Keyer
	// PNGTTL is the lifetime of cached PNGs. Zero never expires.
	PNGTTL time.Duration
	Logger *log.Logger
}

// Server serves one visualizer.
type Server struct {
	vis     *visualizer.Visualizer
	drawing Drawing
	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
	logger  *log.Logger
	hub     *Hub

	// done ends open event streams on shutdown.
	done context.Context
	stop context.CancelFunc
}

// New returns a server for vis. The visualizer's surface must be a [Drawing].
func New(vis *visualizer.Visualizer, opts Options) (*Server, error) {
	d, ok := vis.Surface().(Drawing)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupported, "surface %q cannot be encoded", vis.Surface().ID())
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewScopedKeyer(nil, d.ID()+":")
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	done, stop := context.WithCancel(context.Background())
	return &Server{
		vis:     vis,
		drawing: d,
		cache:   opts.Cache,
		keyer:   opts.Keyer,
		ttl:     opts.PNGTTL,
		logger:  opts.Logger,
		hub:     NewHub(),
		done:    done,
		stop:    stop,
	}, nil
}

// Hub returns the change notification hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Get("/canvas.svg", s.handleSVG)
	r.Get("/canvas.png", s.handlePNG)
	r.Get("/viewport", s.handleGetViewport)
	r.Put("/viewport", s.handlePutViewport)
	r.Post("/snapshot", s.handleSnapshot)
	r.Post("/events", s.handleEvents)
	r.Get("/popups", s.handlePopups)
	r.Get("/stream", func(w http.ResponseWriter, r *http.Request) {
		s.hub.ServeSSE(s.done, w, r)
	})
	return r
}

// Emit draws snap and notifies stream clients when the drawing changed.
// Only errors that leave the surface unusable are returned, so a feed keeps
// running past a bad snapshot.
func (s *Server) Emit(ctx context.Context, snap snapshot.Snapshot) error {
	res, err := s.vis.Update(ctx, snap)
	if err != nil {
		if errors.Fatal(err) || stderrors.Is(err, context.Canceled) {
			return err
		}
		s.logger.Warn("snapshot rejected", "err", err)
		return nil
	}
	if !res.Skipped {
		s.notify()
	}
	return nil
}

// Serve listens on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is canceled.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) notify() {
	s.hub.Notify(s.version())
}

func (s *Server) version() uint64 {
	var v uint64
	_ = s.vis.Do(func(surface.Surface) error {
		v = s.drawing.Version()
		return nil
	})
	return v
}

// =============================================================================
// Middleware
// =============================================================================

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path, status, dur)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", status, "duration", dur)
	})
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"mounted": s.drawing.Mounted(),
		"cycles":  s.vis.Cycles(),
		"build":   buildinfo.Get(),
	})
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.vis.Do(func(surface.Surface) error { return s.drawing.WriteSVG(&buf) }); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handlePNG(w http.ResponseWriter, r *http.Request) {
	scale := 1.0
	if q := r.URL.Query().Get("scale"); q != "" {
		v, err := strconv.ParseFloat(q, 64)
		if err != nil || v <= 0 || v > maxPNGScale {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "scale must be in (0, %d], got %q", maxPNGScale, q))
			return
		}
		scale = v
	}

	ctx := r.Context()
	var out []byte
	err := s.vis.Do(func(surface.Surface) error {
		var svg bytes.Buffer
		if err := s.drawing.WriteSVG(&svg); err != nil {
			return err
		}
		key := s.keyer.ArtifactKey(cache.Hash(svg.Bytes()), cache.ArtifactKeyOpts{Format: "png", Scale: scale})

		if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			observability.Cache().OnCacheHit(ctx, "png")
			out = data
			return nil
		}
		observability.Cache().OnCacheMiss(ctx, "png")

		var png bytes.Buffer
		if err := s.drawing.WritePNG(&png, surface.WithScale(scale)); err != nil {
			return err
		}
		out = png.Bytes()
		if err := s.cache.Set(ctx, key, out, s.ttl); err != nil {
			s.logger.Warn("png not cached", "err", err)
			return nil
		}
		observability.Cache().OnCacheSet(ctx, "png", len(out))
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(out)
}

func (s *Server) handleGetViewport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.vis.Viewport())
}

func (s *Server) handlePutViewport(w http.ResponseWriter, r *http.Request) {
	var t viewport.Transform
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&t); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode viewport"))
		return
	}
	applied := s.vis.SetViewport(t)
	s.notify()
	writeJSON(w, http.StatusOK, applied)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}
	format := snapshot.FormatJSON
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		format = snapshot.FormatYAML
	}
	snap, err := snapshot.Decode(data, format)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.vis.Update(r.Context(), snap)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !res.Skipped {
		s.notify()
	}
	writeJSON(w, http.StatusOK, res)
}

// eventsResponse reports the interaction state after a batch of inputs.
type eventsResponse struct {
	Dispatched int                `json:"dispatched"`
	Viewport   viewport.Transform `json:"viewport"`
	Popups     []string           `json:"popups"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var inputs []surface.Input
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&inputs); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode events"))
		return
	}

	before := s.version()
	n := 0
	for _, in := range inputs {
		if err := s.vis.Dispatch(in); err != nil {
			// Events before the failing one stay applied.
			if s.version() != before {
				s.notify()
			}
			s.writeError(w, err)
			return
		}
		n++
	}
	if s.version() != before {
		s.notify()
	}

	popups := s.vis.Popups()
	if popups == nil {
		popups = []string{}
	}
	writeJSON(w, http.StatusOK, eventsResponse{Dispatched: n, Viewport: s.vis.Viewport(), Popups: popups})
}

func (s *Server) handlePopups(w http.ResponseWriter, r *http.Request) {
	popups := s.vis.Popups()
	if popups == nil {
		popups = []string{}
	}
	writeJSON(w, http.StatusOK, popups)
}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"error"`
}

func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidSnapshot:
		return http.StatusBadRequest
	case errors.ErrCodeConvertFailed, errors.ErrCodeCyclicHierarchy,
		errors.ErrCodeInvalidHierarchy, errors.ErrCodeDuplicateID:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeSurfaceUnmounted:
		return http.StatusServiceUnavailable
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorResponse{Code: string(errors.GetCode(err)), Message: errors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
