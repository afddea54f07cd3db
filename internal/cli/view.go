package cli

import (
	"context"
	stderrors "errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/atomtree/pkg/errors"
	"github.com/matzehuels/atomtree/pkg/snapshot"
	"github.com/matzehuels/atomtree/pkg/visualizer"
)

// viewCommand opens the interactive terminal viewer.
func (c *CLI) viewCommand() *cobra.Command {
	var feed feedOpts

	cmd := &cobra.Command{
		Use:   "view [snapshot]",
		Short: "Browse a snapshot tree in the terminal",
		Long: `Open an interactive viewer over a snapshot. Select a leaf and press enter
to show its data, zoom with +/- and pan with h/l/J/K. The tree reloads
whenever the file changes or a snapshot arrives on the redis channel.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" && !feed.redis {
				return errors.New(errors.ErrCodeInvalidInput, "nothing to view: pass a snapshot file or --redis")
			}
			return c.runView(cmd.Context(), path, feed)
		},
	}

	cmd.Flags().BoolVar(&feed.redis, "redis", false, "subscribe to the configured redis channel")
	cmd.Flags().StringVar(&feed.redisChannel, "redis-channel", "", "redis channel (overrides config)")

	return cmd
}

func (c *CLI) runView(ctx context.Context, path string, feed feedOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	// The terminal belongs to the viewer; only errors reach the log.
	quiet := &CLI{Logger: newLogger(os.Stderr, log.ErrorLevel), configPath: c.configPath}
	srcs, cleanup, err := quiet.sources(cfg, path, feed)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := cfg.ToOptions(quiet.Logger)
	vis := visualizer.New(cfg.NewCanvas(), opts)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewViewerModel(vis, *opts.Initial, defaultFitPadding), tea.WithContext(ctx), tea.WithAltScreen())

	emit := func(ctx context.Context, snap snapshot.Snapshot) error {
		res, err := vis.Update(ctx, snap)
		if err != nil && errors.Fatal(err) {
			return err
		}
		p.Send(cycleMsg{res: res, err: err})
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range srcs {
		g.Go(func() error {
			err := src.Run(gctx, emit)
			if err != nil && !stderrors.Is(err, context.Canceled) {
				p.Quit()
			}
			return err
		})
	}

	_, runErr := p.Run()
	cancel()
	if err := g.Wait(); err != nil && !stderrors.Is(err, context.Canceled) {
		return err
	}
	if stderrors.Is(runErr, tea.ErrProgramKilled) {
		return nil
	}
	return runErr
}
