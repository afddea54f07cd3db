package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/atomtree/pkg/cache"
	"github.com/matzehuels/atomtree/pkg/server"
	"github.com/matzehuels/atomtree/pkg/visualizer"
)

// pngTTL bounds how long served PNGs stay in the file cache.
const pngTTL = 24 * time.Hour

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr    string
	noCache bool
	feed    feedOpts
}

// serveCommand exposes a live visualizer over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve [snapshot]",
		Short: "Serve an interactive canvas over HTTP",
		Long: `Serve a live canvas. Snapshots arrive from the optional snapshot file,
from redis with --redis, or through POST /snapshot. Pointer input goes to
POST /events and the drawing is read from /canvas.svg and /canvas.png.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return c.runServe(cmd.Context(), path, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "do not cache PNG encodings on disk")
	cmd.Flags().BoolVar(&opts.feed.redis, "redis", false, "subscribe to the configured redis channel")
	cmd.Flags().StringVar(&opts.feed.redisChannel, "redis-channel", "", "redis channel (overrides config)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, path string, opts serveOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.addr == "" {
		opts.addr = cfg.Server.Addr
	}
	srcs, cleanup, err := c.sources(cfg, path, opts.feed)
	if err != nil {
		return err
	}
	defer cleanup()

	pngCache, err := newPNGCache(opts.noCache)
	if err != nil {
		return err
	}
	defer pngCache.Close()

	c.registerHooks()
	vis := visualizer.New(cfg.NewCanvas(), cfg.ToOptions(c.Logger))
	srv, err := server.New(vis, server.Options{
		Cache:  pngCache,
		PNGTTL: pngTTL,
		Logger: c.Logger,
	})
	if err != nil {
		return err
	}

	printSuccess("Serving %s", StyleLink.Render("http://"+opts.addr+"/canvas.svg"))
	printDetail("events: POST /events · snapshots: POST /snapshot · stream: GET /stream")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(ctx, opts.addr) })
	for _, src := range srcs {
		g.Go(func() error { return src.Run(ctx, srv.Emit) })
	}
	return g.Wait()
}

// newPNGCache returns the server's PNG cache below the CLI cache directory.
func newPNGCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(filepath.Join(dir, "png"))
}
