package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/atomtree/pkg/cache"
	"github.com/matzehuels/atomtree/pkg/errors"
	"github.com/matzehuels/atomtree/pkg/observability"
	"github.com/matzehuels/atomtree/pkg/render/nodelink"
	"github.com/matzehuels/atomtree/pkg/snapshot"
	"github.com/matzehuels/atomtree/pkg/surface"
	"github.com/matzehuels/atomtree/pkg/tree"
	"github.com/matzehuels/atomtree/pkg/visualizer"
)

// Runner executes the pipeline with caching.
//
// The Runner is stateless except for the cache and logger, so one Runner
// can serve concurrent renders with different options. Cache keys cover the
// snapshot content and every option except a custom converter; callers that
// swap converters should use a scoped keyer or set Refresh.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute converts snap, lays it out and renders every requested format.
// Artifacts come from the cache when all of them are present.
func (r *Runner) Execute(ctx context.Context, snap snapshot.Snapshot, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	hash, err := snap.Hash()
	if err != nil {
		return nil, err
	}
	result := &Result{SnapshotHash: hash}

	if !opts.Refresh {
		if artifacts, ok := r.cached(ctx, hash, &opts); ok {
			root, err := convert(snap, opts.Visualizer)
			if err != nil {
				return nil, err
			}
			result.Root = root
			result.Artifacts = artifacts
			result.Stats.NodeCount = root.Count()
			result.Stats.LinkCount = root.Count() - 1
			result.CacheInfo.RenderHit = true
			r.Logger.Debug("artifacts cached", "formats", opts.Formats, "hash", hash[:12])
			return result, nil
		}
	}

	start := time.Now()
	canvas := surface.NewCanvas(opts.CanvasID, opts.Width, opts.Height)
	vopts := opts.Visualizer
	if vopts.Logger == nil {
		vopts.Logger = opts.Logger
	}
	vis := visualizer.New(canvas, vopts)
	res, err := vis.Update(ctx, snap)
	if err != nil {
		return nil, err
	}
	if opts.Fit {
		vis.SetViewport(vis.Fit(opts.FitPadding))
	}
	result.Root = vis.Root()
	result.Viewport = vis.Viewport()
	result.Stats.NodeCount = res.Nodes
	result.Stats.LinkCount = len(vis.Hierarchy().Links())

	result.Artifacts = make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := r.encode(ctx, format, canvas, vis.Hierarchy(), &opts)
		if err != nil {
			return nil, err
		}
		result.Artifacts[format] = data

		key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, ArtifactTTL); err != nil {
			r.Logger.Warn("artifact not cached", "format", format, "err", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, format, len(data))
	}
	result.Stats.RenderTime = time.Since(start)

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"nodes", result.Stats.NodeCount,
		"duration", result.Stats.RenderTime)
	return result, nil
}

// cached returns every requested artifact from the cache, or false if any
// is missing.
func (r *Runner) cached(ctx context.Context, hash string, opts *Options) (map[string][]byte, bool) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			observability.Cache().OnCacheMiss(ctx, format)
			return nil, false
		}
		observability.Cache().OnCacheHit(ctx, format)
		artifacts[format] = data
	}
	return artifacts, true
}

func (r *Runner) encode(ctx context.Context, format string, c *surface.Canvas, h *tree.Hierarchy, opts *Options) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatSVG:
		if err := c.WriteSVG(&buf); err != nil {
			return nil, err
		}
	case FormatPNG:
		if err := c.WritePNG(&buf, surface.WithScale(opts.Scale)); err != nil {
			return nil, err
		}
	case FormatDOT:
		buf.WriteString(nodelink.ToDOT(h, nodelink.Options{Detailed: opts.Detailed}))
	case FormatNodelink:
		return nodelink.RenderSVG(ctx, nodelink.ToDOT(h, nodelink.Options{Detailed: opts.Detailed}))
	case FormatNodePNG:
		return nodelink.RenderPNG(ctx, nodelink.ToDOT(h, nodelink.Options{Detailed: opts.Detailed}))
	case FormatJSON:
		if err := snapshot.WriteTree(h.Root().Node, &buf); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", format)
	}
	return buf.Bytes(), nil
}

// convert builds the rooted tree the visualizer would draw.
func convert(snap snapshot.Snapshot, opts visualizer.Options) (*tree.Node, error) {
	fn := opts.Converter
	if fn == nil {
		fn = snapshot.ToNodes
	}
	children, err := fn(snap)
	if err != nil {
		return nil, err
	}
	return tree.NewRoot(opts.RootName, children), nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
