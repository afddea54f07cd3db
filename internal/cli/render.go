package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/atomtree/pkg/config"
	"github.com/matzehuels/atomtree/pkg/pipeline"
	"github.com/matzehuels/atomtree/pkg/snapshot"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file path (or base path for multiple outputs)
	formats  []string // svg, png, dot, nodelink.svg, nodelink.png, json
	scale    float64  // PNG pixels per logical unit
	fit      bool     // zoom to show the whole tree
	detailed bool     // list node data in DOT labels
	yaml     bool     // read stdin as YAML
	noCache  bool
	refresh  bool
}

// renderCommand creates the render command for one-shot renders.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{scale: pipeline.DefaultScale}

	cmd := &cobra.Command{
		Use:   "render [snapshot]",
		Short: "Render a snapshot to SVG, PNG or DOT",
		Long: `Render a JSON or YAML snapshot file once. Use "-" to read the snapshot
from stdin.

Outputs are cached by snapshot content; --refresh re-renders and --no-cache
bypasses the cache entirely.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats, err := parseFormats(formatsStr)
			if err != nil {
				return err
			}
			opts.formats = formats
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot, nodelink.svg, nodelink.png, json (comma-separated)")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG pixels per logical unit")
	cmd.Flags().BoolVar(&opts.fit, "fit", false, "zoom so the whole tree is visible")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "list node data in DOT labels")
	cmd.Flags().BoolVar(&opts.yaml, "yaml", false, "read stdin as YAML")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached outputs")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	snap, err := readSnapshot(input, opts.yaml)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spin := newSpinner(ctx, "Rendering "+filepath.Base(input)+"...")
	spin.Start()
	result, err := runner.Execute(ctx, snap, pipelineOptions(cfg, opts))
	if err != nil {
		spin.StopWithError("Render failed")
		return err
	}

	paths := outputPaths(input, opts.output, opts.formats)
	for _, format := range opts.formats {
		if err := writeFile(paths[format], result.Artifacts[format]); err != nil {
			spin.StopWithError("Write failed")
			return err
		}
	}
	spin.StopWithSuccess("Rendered " + filepath.Base(input))
	prog.done("rendered",
		"nodes", result.Stats.NodeCount,
		"formats", len(opts.formats),
		"cached", result.CacheInfo.RenderHit)

	for _, format := range opts.formats {
		printFile(paths[format])
	}
	printStats(result.Stats.NodeCount, result.Stats.LinkCount, result.CacheInfo.RenderHit)
	if opts.fit && !result.CacheInfo.RenderHit {
		printKeyValue("Viewport", result.Viewport.String())
	}
	return nil
}

// pipelineOptions merges the config file with the render flags.
func pipelineOptions(cfg *config.Config, opts renderOpts) pipeline.Options {
	return pipeline.Options{
		Formats:    opts.formats,
		CanvasID:   cfg.Canvas.ID,
		Width:      cfg.Canvas.Width,
		Height:     cfg.Canvas.Height,
		Visualizer: cfg.ToOptions(nil),
		Fit:        opts.fit,
		FitPadding: defaultFitPadding,
		Scale:      opts.scale,
		Detailed:   opts.detailed,
		Refresh:    opts.refresh,
	}
}

// readSnapshot loads the snapshot at path, or from stdin for "-".
func readSnapshot(path string, yaml bool) (snapshot.Snapshot, error) {
	if path == "-" {
		format := snapshot.FormatJSON
		if yaml {
			format = snapshot.FormatYAML
		}
		return snapshot.Read(os.Stdin, format)
	}
	return snapshot.Import(path)
}

// outputPaths maps each format to its output file. A single format writes to
// output as given; multiple formats append their extension to the base path.
// Without output, files are named after the input; the json tree gets a
// ".tree.json" suffix so it never replaces a JSON snapshot.
func outputPaths(input, output string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if output != "" && len(formats) == 1 {
		paths[formats[0]] = output
		return paths
	}

	base := output
	if base == "" {
		base = "snapshot"
		if input != "-" {
			base = strings.TrimSuffix(input, filepath.Ext(input))
		}
	} else {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	for _, f := range formats {
		ext := f
		if f == pipeline.FormatJSON {
			ext = "tree.json"
		}
		paths[f] = base + "." + ext
	}
	return paths
}

// writeFile writes data next to path and renames it into place, so readers
// never see a partial file.
func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
