package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/hanhandi-git/flowchartRenderer/internal/config"
	"github.com/hanhandi-git/flowchartRenderer/pkg/buildinfo"
	"github.com/hanhandi-git/flowchartRenderer/pkg/cache"
	"github.com/hanhandi-git/flowchartRenderer/pkg/render"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "flowchart"

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

	// Config is loaded before any subcommand runs.
	Config     config.Config
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Flowchart converts diagram text to node graphs and back",
		Long: `Flowchart reads Mermaid-style flowcharts and Graphviz DOT, extracts the node graph
they describe, writes graphs back out in either dialect, and renders both to SVG, PNG
or PDF. It can also watch a file or serve a live editing API.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/flowchart/config.toml)")

	root.AddCommand(c.extractCommand())
	root.AddCommand(c.emitCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.examplesCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Renderer Factory
// =============================================================================

// newRenderer builds the cached renderer used by render, watch and serve.
// The returned cache must be closed by the caller.
func (c *CLI) newRenderer(ctx context.Context, noCache bool) (*render.Cached, cache.Cache, error) {
	store, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, nil, err
	}
	d := render.NewDispatcher(
		render.NewGraphvizRenderer(c.Logger),
		render.NewMermaidRenderer(c.Config.Mermaid, c.Logger),
	)
	return render.NewCached(d, store, nil, c.Logger), store, nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil && c.Config.Cache == config.CacheFile {
		c.Logger.Warn("Render cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return c.Config.OpenCache(ctx, dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/flowchart/).
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
