package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/atomtree/pkg/errors"
	"github.com/matzehuels/atomtree/pkg/snapshot"
	"github.com/matzehuels/atomtree/pkg/surface"
	"github.com/matzehuels/atomtree/pkg/visualizer"
)

// watchOpts holds the command-line flags for the watch command.
type watchOpts struct {
	output string
	feed   feedOpts
}

// watchCommand re-renders the output file whenever the snapshot changes.
func (c *CLI) watchCommand() *cobra.Command {
	var opts watchOpts

	cmd := &cobra.Command{
		Use:   "watch [snapshot]",
		Short: "Re-render a snapshot whenever it changes",
		Long: `Watch a snapshot file, a redis channel, or both, and rewrite the output
drawing after every change. The viewport is kept across redraws and
unchanged snapshots are skipped.

The output format follows the extension of --output (.svg or .png).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" && !opts.feed.redis {
				return errors.New(errors.ErrCodeInvalidInput, "nothing to watch: pass a snapshot file or --redis")
			}
			if opts.output == "" {
				opts.output = "atomtree.svg"
				if path != "" {
					opts.output = strings.TrimSuffix(path, filepath.Ext(path)) + ".svg"
				}
			}
			return c.runWatch(cmd.Context(), path, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output drawing (.svg or .png)")
	cmd.Flags().BoolVar(&opts.feed.redis, "redis", false, "subscribe to the configured redis channel")
	cmd.Flags().StringVar(&opts.feed.redisChannel, "redis-channel", "", "redis channel (overrides config)")

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, path string, opts watchOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	srcs, cleanup, err := c.sources(cfg, path, opts.feed)
	if err != nil {
		return err
	}
	defer cleanup()

	c.registerHooks()
	vis := visualizer.New(cfg.NewCanvas(), cfg.ToOptions(c.Logger))
	w := &drawingWriter{vis: vis, path: opts.output, logger: c.Logger}

	target := path
	if opts.feed.redis {
		target = strings.TrimPrefix(target+" + redis", " + ")
	}
	printInfo("Watching %s", StyleHighlight.Render(target))
	printFile(opts.output)

	g, ctx := errgroup.WithContext(ctx)
	for _, src := range srcs {
		g.Go(func() error { return src.Run(ctx, w.emit) })
	}
	return g.Wait()
}

// drawingWriter draws each snapshot and writes the canvas to a file.
type drawingWriter struct {
	vis    *visualizer.Visualizer
	path   string
	logger *log.Logger

	mu     sync.Mutex
	writes int
}

func (w *drawingWriter) emit(ctx context.Context, snap snapshot.Snapshot) error {
	res, err := w.vis.Update(ctx, snap)
	if err != nil {
		if errors.Fatal(err) {
			return err
		}
		w.logger.Debug("snapshot rejected", "err", err)
		printWarning("Snapshot rejected: %s", errors.UserMessage(err))
		return nil
	}
	if res.Skipped {
		return nil
	}

	var buf bytes.Buffer
	err = w.vis.Do(func(s surface.Surface) error {
		c, ok := s.(*surface.Canvas)
		if !ok {
			return errors.New(errors.ErrCodeUnsupported, "surface %q cannot be encoded", s.ID())
		}
		if strings.EqualFold(filepath.Ext(w.path), ".png") {
			return c.WritePNG(&buf)
		}
		return c.WriteSVG(&buf)
	})
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := writeFile(w.path, buf.Bytes()); err != nil {
		return err
	}
	w.writes++
	w.logger.Info("redrawn", "nodes", res.Nodes, "cycle", res.CycleID, "duration", res.Duration)
	return nil
}
