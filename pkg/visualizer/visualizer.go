package visualizer

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/atomtree/pkg/cache"
	"github.com/matzehuels/atomtree/pkg/errors"
	"github.com/matzehuels/atomtree/pkg/interact"
	"github.com/matzehuels/atomtree/pkg/layout"
	"github.com/matzehuels/atomtree/pkg/observability"
	"github.com/matzehuels/atomtree/pkg/render"
	"github.com/matzehuels/atomtree/pkg/surface"
	"github.com/matzehuels/atomtree/pkg/tree"
	"github.com/matzehuels/atomtree/pkg/viewport"
)

// Dispatcher is implemented by surfaces that accept raw input.
type Dispatcher interface {
	Dispatch(in surface.Input) error
}

// Result describes one cycle.
type Result struct {
	CycleID  string             `json:"cycle_id"`
	Skipped  bool               `json:"skipped"`
	Nodes    int                `json:"nodes"`
	Duration time.Duration      `json:"duration"`
	Viewport viewport.Transform `json:"viewport"`
}

// Visualizer drives render cycles on one surface.
type Visualizer struct {
	mu      sync.Mutex
	surface surface.Surface
	opts    Options
	logger  *log.Logger
	state   *viewport.State

	snapshot  any
	hash      string
	root      *tree.Node
	hierarchy *tree.Hierarchy
	scene     *render.Scene
	layer     *interact.Layer
	cycles    int
}

// New returns a visualizer for s. Nothing is drawn until the first Update.
func New(s surface.Surface, opts Options) *Visualizer {
	opts = opts.withDefaults()
	initial := opts.initial()
	if initial.IsZero() {
		opts.Logger.Warn("initial zoom scale is 0; the tree stays invisible until the viewport is set")
	}
	if opts.DragDeadZone > 0 {
		if dz, ok := s.(interface{ SetDragDeadZone(float64) }); ok {
			dz.SetDragDeadZone(opts.DragDeadZone)
		}
	}
	return &Visualizer{
		surface: s,
		opts:    opts,
		logger:  opts.Logger,
		state:   viewport.NewState(initial),
	}
}

// Update draws snap unless it equals the snapshot last drawn.
func (v *Visualizer) Update(ctx context.Context, snap any) (Result, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	hash, err := cache.HashJSON(snap)
	if err != nil {
		v.logger.Debug("snapshot not hashable; change detection off", "err", err)
		hash = ""
	}
	if hash != "" && hash == v.hash && v.scene != nil {
		id := uuid.NewString()
		observability.Cycle().OnCycleSkip(ctx, id)
		v.logger.Debug("snapshot unchanged", "cycle", id)
		return Result{CycleID: id, Skipped: true, Nodes: v.hierarchy.Len(), Viewport: v.state.Read()}, nil
	}
	return v.cycle(ctx, snap, hash)
}

// Refresh redraws the last snapshot unconditionally. Drag overrides and
// popups are discarded; the viewport survives.
func (v *Visualizer) Refresh(ctx context.Context) (Result, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cycle(ctx, v.snapshot, v.hash)
}

// cycle runs one full rebuild. The caller holds v.mu.
func (v *Visualizer) cycle(ctx context.Context, snap any, hash string) (res Result, err error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	res.CycleID = uuid.NewString()
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		observability.Cycle().OnCycleComplete(ctx, res.CycleID, res.Nodes, res.Duration, err)
		if err != nil {
			v.logger.Error("cycle failed", "cycle", res.CycleID, "err", err)
		}
	}()

	if err := v.mounted(); err != nil {
		return res, err
	}

	// The live transform must be read before the surface is cleared.
	initial := v.state.Read()

	children, err := v.opts.Converter(snap)
	if err != nil {
		if errors.GetCode(err) == "" {
			err = errors.Wrap(errors.ErrCodeConvertFailed, err, "convert snapshot")
		}
		return res, err
	}
	root := tree.NewRoot(v.opts.RootName, children)
	h, err := tree.NewHierarchy(root)
	if err != nil {
		return res, err
	}
	res.Nodes = h.Len()
	observability.Cycle().OnCycleStart(ctx, res.CycleID, res.Nodes)

	lay := layout.Tidy(h, v.opts.Layout)
	scene, err := render.Render(v.surface, lay, initial, v.opts.Style)
	if err != nil {
		return res, err
	}
	layer := interact.Bind(v.surface, scene, v.state, interact.Options{
		Constraints: v.opts.Constraints,
		Logger:      v.logger,
		NoDrag:      v.opts.NoDrag,
		NoZoom:      v.opts.NoZoom,
		NoHover:     v.opts.NoHover,
	})

	v.snapshot, v.hash = snap, hash
	v.root, v.hierarchy, v.scene, v.layer = root, h, scene, layer
	v.cycles++
	res.Viewport = initial

	v.logger.Debug("cycle complete",
		"cycle", res.CycleID,
		"nodes", res.Nodes,
		"links", len(lay.Links),
		"viewport", initial,
		"duration", time.Since(start))
	return res, nil
}

// mounted reports why the surface cannot be drawn on, if anything.
func (v *Visualizer) mounted() error {
	if v.surface == nil {
		return errors.New(errors.ErrCodeSurfaceUnmounted, "no surface attached")
	}
	if !v.surface.Mounted() {
		return errors.New(errors.ErrCodeSurfaceUnmounted, "surface %q is not mounted", v.surface.ID())
	}
	return nil
}

// Dispatch feeds a raw input event to the surface.
func (v *Visualizer) Dispatch(in surface.Input) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.surface == nil {
		return errors.New(errors.ErrCodeSurfaceUnmounted, "no surface attached")
	}
	d, ok := v.surface.(Dispatcher)
	if !ok {
		return errors.New(errors.ErrCodeUnsupported, "surface %q does not accept input", v.surface.ID())
	}
	return d.Dispatch(in)
}

// Viewport returns the current viewport transform.
func (v *Visualizer) Viewport() viewport.Transform {
	return v.state.Read()
}

// SetViewport applies t under the zoom constraints and returns the transform
// actually applied. Before the first cycle it only sets the initial
// transform.
func (v *Visualizer) SetViewport(t viewport.Transform) viewport.Transform {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.layer != nil && v.mounted() == nil {
		return v.layer.ZoomTo(t)
	}
	t = v.opts.Constraints.Constrain(t)
	v.state.Write(t)
	return t
}

// Fit returns the transform that shows the whole tree, or the identity
// transform before the first cycle.
func (v *Visualizer) Fit(pad float64) viewport.Transform {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.scene == nil {
		return viewport.Identity
	}
	b := v.scene.Layout.Bounds
	return v.opts.Constraints.Fit(viewport.Rect{MinX: b.MinX, MinY: b.MinY, MaxX: b.MaxX, MaxY: b.MaxY}, pad)
}

// Do runs fn with exclusive access to the surface, e.g. to encode it.
func (v *Visualizer) Do(fn func(s surface.Surface) error) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.surface == nil {
		return errors.New(errors.ErrCodeSurfaceUnmounted, "no surface attached")
	}
	return fn(v.surface)
}

// Surface returns the drawing surface.
func (v *Visualizer) Surface() surface.Surface { return v.surface }

// Scene returns the current scene, or nil before the first cycle.
func (v *Visualizer) Scene() *render.Scene {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scene
}

// Layer returns the current interaction layer, or nil before the first
// cycle.
func (v *Visualizer) Layer() *interact.Layer {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.layer
}

// Root returns the root node of the current tree.
func (v *Visualizer) Root() *tree.Node {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.root
}

// Hierarchy returns the hierarchy of the current tree.
func (v *Visualizer) Hierarchy() *tree.Hierarchy {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.hierarchy
}

// Popups returns the ids of the popups currently shown.
func (v *Visualizer) Popups() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.layer == nil {
		return nil
	}
	return v.layer.Popups()
}

// Cycles returns the number of completed cycles.
func (v *Visualizer) Cycles() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cycles
}
