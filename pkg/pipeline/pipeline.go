// Package pipeline renders a snapshot to files in one shot.
//
// The interactive visualizer keeps a live surface between snapshots; the
// pipeline instead runs a single convert → layout → render cycle on a fresh
// canvas and encodes the result in the requested formats. The CLI `render`
// and `watch` commands share it, and artifacts are cached by snapshot
// content so repeated renders of the same state are free.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, snap, pipeline.Options{
//	    Formats: []string{pipeline.FormatSVG, pipeline.FormatPNG},
//	    Fit:     true,
//	})
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts[pipeline.FormatSVG]
package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/atomtree/pkg/cache"
	"github.com/matzehuels/atomtree/pkg/errors"
	"github.com/matzehuels/atomtree/pkg/surface"
	"github.com/matzehuels/atomtree/pkg/tree"
	"github.com/matzehuels/atomtree/pkg/viewport"
	"github.com/matzehuels/atomtree/pkg/visualizer"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultFitPadding is the margin kept around the tree by Fit.
	DefaultFitPadding = 50.0

	// DefaultScale is the PNG pixel density.
	DefaultScale = 1.0

	// ArtifactTTL is the lifetime of cached artifacts.
	ArtifactTTL = 7 * 24 * time.Hour
)

// Format constants for output formats.
const (
	FormatSVG      = "svg"
	FormatPNG      = "png"
	FormatDOT      = "dot"
	FormatNodelink = "nodelink.svg"
	FormatNodePNG  = "nodelink.png"
	FormatJSON     = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:      true,
	FormatPNG:      true,
	FormatDOT:      true,
	FormatNodelink: true,
	FormatNodePNG:  true,
	FormatJSON:     true,
}

var formatList = []string{FormatSVG, FormatPNG, FormatDOT, FormatNodelink, FormatNodePNG, FormatJSON}

// =============================================================================
// Options
// =============================================================================

// Options configures one pipeline run.
type Options struct {
	// Formats defaults to svg.
	Formats []string

	// Canvas size and id. Zero values use the 600×1100 box with id "canvas".
	CanvasID string
	Width    float64
	Height   float64

	// Visualizer carries the layout, style, zoom and converter settings.
	Visualizer visualizer.Options

	// Fit replaces the initial viewport with one showing the whole tree.
	Fit        bool
	FitPadding float64

	// Scale is the PNG pixel density.
	Scale float64

	// Detailed lists node data in DOT labels.
	Detailed bool

	// Refresh skips cache reads; results are still written.
	Refresh bool

	Logger *log.Logger

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Root is the converted tree, including the synthetic root.
	Root *tree.Node

	// SnapshotHash is the content hash of the input snapshot.
	SnapshotHash string

	// Viewport is the zoom transform the drawing was rendered under.
	Viewport viewport.Transform

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	LinkCount  int
	RenderTime time.Duration
}

// CacheInfo tracks cache use.
type CacheInfo struct {
	RenderHit bool // every artifact came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format %q (must be one of: %s)",
			format, strings.Join(formatList, ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and applies defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Width < 0 || o.Height < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "canvas size must not be negative")
	}
	if o.Width == 0 {
		o.Width = viewport.DefaultWidth
	}
	if o.Height == 0 {
		o.Height = viewport.DefaultHeight
	}
	if o.CanvasID == "" {
		o.CanvasID = surface.DefaultID
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.FitPadding <= 0 {
		o.FitPadding = DefaultFitPadding
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.Visualizer.Style = o.Visualizer.Style.WithDefaults()
	o.validated = true
	return nil
}

// ArtifactKeyOpts returns the cache key options for format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	style, _ := cache.HashJSON(o.Visualizer.Style)

	vp := "identity"
	switch {
	case o.Fit:
		vp = fmt.Sprintf("fit:%g", o.FitPadding)
	case o.Visualizer.Initial != nil:
		vp = o.Visualizer.Initial.String()
	}
	c := o.Visualizer.Constraints.WithDefaults()
	vp += fmt.Sprintf(" [%g,%g]", c.MinScale, c.MaxScale)

	opts := cache.ArtifactKeyOpts{
		Format:   format,
		Viewport: vp,
		Style:    style,
		Layout: fmt.Sprintf("%s:%gx%g/%gx%g/%s", o.CanvasID, o.Width, o.Height,
			o.Visualizer.Layout.NodeWidth, o.Visualizer.Layout.NodeHeight, o.Visualizer.RootName),
	}
	switch format {
	case FormatPNG:
		opts.Scale = o.Scale
	case FormatDOT, FormatNodelink, FormatNodePNG:
		opts.Detailed = o.Detailed
	}
	return opts
}
