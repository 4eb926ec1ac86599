package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hanhandi-git/flowchartRenderer/internal/server"
	"github.com/hanhandi-git/flowchartRenderer/pkg/render"
)

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversion, rendering and live editing API",
		Long: `Serve starts an HTTP server with JSON endpoints for extraction, emission, conversion
and rendering, plus a websocket endpoint that runs one editing session per connection.

The listen address and cache backend come from the config file or the
FLOWCHART_ADDR and FLOWCHART_CACHE environment variables unless overridden here.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				c.Config.Addr = addr
			}
			return c.runServe(cmd.Context(), noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the render cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, noCache bool) error {
	logger := loggerFromContext(ctx)

	r, store, err := c.newRenderer(ctx, noCache)
	if err != nil {
		return err
	}
	defer store.Close()

	if !render.NewMermaidRenderer(c.Config.Mermaid, nil).Available() {
		logger.Warnf("%s not found; flowchart rendering will fail until the Mermaid CLI is installed", c.Config.Mermaid)
	}
	logger.Info("Starting server", "addr", c.Config.Addr, "cache", c.Config.Cache, "debounce", c.Config.Debounce)

	server.RegisterLogHooks(logger)
	srv := server.New(server.Options{
		Renderer: r,
		Logger:   logger,
		Quiet:    c.Config.Debounce,
		Resolve:  c.Config.ResolveMode(),
	})
	return srv.ListenAndServe(ctx, c.Config.Addr)
}
