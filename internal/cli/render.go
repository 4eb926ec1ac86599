package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hanhandi-git/flowchartRenderer/pkg/diagram"
	"github.com/hanhandi-git/flowchartRenderer/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	dialect string          // source dialect; inferred from the extension if empty
	output  string          // output file path (or base path for multiple formats)
	formats []render.Format // output formats: svg, png, pdf
	theme   string          // Graphviz or Mermaid theme
	engine  string          // Graphviz layout engine
	scale   float64         // PNG scale factor
	noCache bool            // bypass the render cache
}

// renderCommand creates the render command for generating images.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{scale: 2}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a diagram to SVG, PNG or PDF",
		Long: `Render lays out DOT with Graphviz and flowchart (Mermaid) text with the Mermaid CLI.

PNG and PDF output is converted from SVG with rsvg-convert.`,
		Example: `  flowchart render graph.dot --theme dark --engine neato
  flowchart render process.mmd -f svg,png -o out/process`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats, err := parseFormats(formatsStr)
			if err != nil {
				return err
			}
			opts.formats = formats
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.dialect, "dialect", "d", "", "source dialect: flowchart, dot (default: from extension)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf (comma-separated)")
	cmd.Flags().StringVar(&opts.theme, "theme", "", "theme (graphviz: default, dark, colorful, monochrome, blueprint; mermaid: default, forest, dark, neutral, base)")
	cmd.Flags().StringVar(&opts.engine, "engine", "", "graphviz layout engine: "+strings.Join(render.Engines, ", "))
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the render cache")

	return cmd
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to [svg].
func parseFormats(s string) ([]render.Format, error) {
	if s == "" {
		return []render.Format{render.FormatSVG}, nil
	}
	var out []render.Format
	for _, part := range strings.Split(s, ",") {
		f, err := render.ParseFormat(part)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// outputPath returns the file for format f: the output flag itself for a
// single format, otherwise base.ext.
func outputPath(output, input string, f render.Format, single bool) string {
	if single && output != "" {
		return output
	}
	return basePath(output, input) + "." + string(f)
}

func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	d, err := resolveDialect(opts.dialect, input)
	if err != nil {
		return err
	}
	src, err := readInput(input)
	if err != nil {
		return err
	}

	r, store, err := c.newRenderer(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer store.Close()

	req := render.Request{Source: string(src), Dialect: d, Theme: opts.theme, Engine: opts.engine}
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s", input))
	spinner.Start()
	svg, err := r.Render(ctx, req)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()
	logger.Debugf("Rendered SVG: %d bytes", len(svg))

	single := len(opts.formats) == 1
	for _, f := range opts.formats {
		data, err := r.Export(ctx, svg, f, opts.scale)
		if err != nil {
			return err
		}
		path := outputPath(opts.output, input, f, single)
		if err := writeOutput(path, nil, data); err != nil {
			return err
		}
		printFile(path)
	}
	prog.done(fmt.Sprintf("Rendered %s", describe(d)), "formats", len(opts.formats))
	return nil
}

func describe(d diagram.Dialect) string {
	if d == diagram.DOT {
		return "Graphviz diagram"
	}
	return "Mermaid diagram"
}
