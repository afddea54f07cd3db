// Package cli implements the atomtree command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/atomtree/pkg/buildinfo"
	"github.com/matzehuels/atomtree/pkg/cache"
	"github.com/matzehuels/atomtree/pkg/config"
	"github.com/matzehuels/atomtree/pkg/errors"
	"github.com/matzehuels/atomtree/pkg/pipeline"
	"github.com/matzehuels/atomtree/pkg/source"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "atomtree"

	// defaultFitPadding is the margin kept around the tree by --fit.
	defaultFitPadding = 50.0
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath overrides the default config file location.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Atomtree draws state snapshots as interactive trees",
		Long:         `Atomtree lays out a snapshot of application state as a tidy tree and renders it to SVG or PNG, live in a browser, or in the terminal. Drag nodes, zoom and pan, and hover leaves to inspect their data.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.Path()+")")

	// Register all subcommands
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config & Runner Factory
// =============================================================================

// loadConfig reads the config file named by --config, or the default one.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.configPath != "" {
		return config.LoadFile(c.configPath)
	}
	return config.Load()
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// feedOpts selects the snapshot sources of watch and serve.
type feedOpts struct {
	redis        bool
	redisChannel string
}

// sources builds the snapshot feeds: a file watch when path is set and a
// redis subscription when requested.
func (c *CLI) sources(cfg *config.Config, path string, f feedOpts) ([]source.Source, func(), error) {
	var srcs []source.Source
	cleanup := func() {}

	if path != "" {
		fs := source.NewFileSource(path, c.Logger)
		if d := cfg.Watch.Debounce.Duration; d > 0 {
			fs.Debounce = d
		}
		srcs = append(srcs, fs)
	}
	if f.redis {
		rc := cfg.Redis
		if f.redisChannel != "" {
			rc.Channel = f.redisChannel
		}
		rs, err := source.NewRedisSource(rc, c.Logger)
		if err != nil {
			return nil, cleanup, errors.Wrap(errors.ErrCodeInvalidConfig, err, "redis source")
		}
		srcs = append(srcs, rs)
		cleanup = func() { _ = rs.Close() }
	}
	return srcs, cleanup, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/atomtree/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
// Formats are matched case-insensitively.
func parseFormats(s string) ([]string, error) {
	if s == "" {
		return []string{pipeline.FormatSVG}, nil
	}
	var formats []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if err := pipeline.ValidateFormat(f); err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}
