package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/radovskyb/watcher"
	"github.com/spf13/cobra"

	"github.com/hanhandi-git/flowchartRenderer/pkg/editor"
	"github.com/hanhandi-git/flowchartRenderer/pkg/render"
)

// pollInterval is how often the watched file is checked for changes.
const pollInterval = 100 * time.Millisecond

// watchOpts holds the command-line flags for the watch command.
type watchOpts struct {
	dialect string
	output  string
	format  string
	theme   string
	engine  string
	noCache bool
}

// watchCommand creates the watch command, which re-renders a diagram each
// time its source file changes.
func (c *CLI) watchCommand() *cobra.Command {
	var opts watchOpts

	cmd := &cobra.Command{
		Use:   "watch [file]",
		Short: "Re-render a diagram whenever its file changes",
		Long: `Watch feeds every saved version of a file into an editing session and renders the
text once edits have settled for the configured debounce interval.`,
		Example: `  flowchart watch process.mmd -o process.svg`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.dialect, "dialect", "d", "", "source dialect: flowchart, dot (default: from extension)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: input with the format extension)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "svg", "output format: svg, png, pdf")
	cmd.Flags().StringVar(&opts.theme, "theme", "", "diagram theme")
	cmd.Flags().StringVar(&opts.engine, "engine", "", "graphviz layout engine")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the render cache")

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, input string, opts watchOpts) error {
	logger := loggerFromContext(ctx)

	d, err := resolveDialect(opts.dialect, input)
	if err != nil {
		return err
	}
	format, err := render.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	req, err := render.Normalize(render.Request{Dialect: d, Theme: opts.theme, Engine: opts.engine})
	if err != nil {
		return err
	}
	src, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	r, store, err := c.newRenderer(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rw := &renderWorker{
		r:      r,
		req:    req,
		format: format,
		output: outputPath(opts.output, input, format, true),
		logger: logger,
		queue:  make(chan string, 1),
	}
	go rw.run(ctx)

	session, err := editor.New(string(src), editor.Options{
		Dialect: d,
		Quiet:   c.Config.Debounce,
		Resolve: c.Config.ResolveMode(),
		Logger:  logger,
		OnUpdate: func(u editor.Update) {
			reportDiagnostics(ctx, input, u.Diagnostics)
			logger.Infof("Extracted %d nodes, %d edges", len(u.Graph.Nodes), len(u.Graph.Edges))
			rw.request(u.Text)
		},
	})
	if err != nil {
		return err
	}
	defer session.Close()

	snap := session.Snapshot()
	reportDiagnostics(ctx, input, snap.Diagnostics)
	rw.request(snap.Text)

	w := watcher.New()
	w.SetMaxEvents(1)
	w.FilterOps(watcher.Write, watcher.Create, watcher.Rename, watcher.Move)
	if err := w.Add(input); err != nil {
		return fmt.Errorf("watch %s: %w", input, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				w.Close()
				return
			case ev := <-w.Event:
				logger.Debug("file changed", "op", ev.Op, "path", ev.Path)
				data, err := os.ReadFile(input)
				if err != nil {
					logger.Warnf("read %s: %v", input, err)
					continue
				}
				if err := session.SetText(string(data)); err != nil {
					logger.Warnf("%s: %v", input, err)
				}
			case err := <-w.Error:
				if errors.Is(err, watcher.ErrWatchedFileDeleted) {
					logger.Warnf("%s was deleted", input)
					continue
				}
				logger.Error("watcher", "err", err)
			case <-w.Closed:
				return
			}
		}
	}()

	printInfo("Watching %s %s %s", StyleValue.Render(input), StyleDim.Render(iconArrow), StyleValue.Render(rw.output))
	printDetail("Press Ctrl+C to stop")
	if err := w.Start(pollInterval); err != nil {
		return err
	}
	return nil
}

// renderWorker renders the most recent text it was given and writes the
// result to output. Older queued texts are dropped.
type renderWorker struct {
	r      *render.Cached
	req    render.Request
	format render.Format
	output string
	logger *log.Logger
	queue  chan string
}

func (rw *renderWorker) request(text string) {
	for {
		select {
		case rw.queue <- text:
			return
		default:
		}
		select {
		case <-rw.queue:
		default:
		}
	}
}

func (rw *renderWorker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-rw.queue:
			if err := rw.render(ctx, text); err != nil && ctx.Err() == nil {
				rw.logger.Error("render failed", "err", err)
			}
		}
	}
}

func (rw *renderWorker) render(ctx context.Context, text string) error {
	prog := newProgress(rw.logger)
	req := rw.req
	req.Source = text
	svg, err := rw.r.Render(ctx, req)
	if err != nil {
		return err
	}
	data, err := rw.r.Export(ctx, svg, rw.format, 2)
	if err != nil {
		return err
	}
	if err := writeOutput(rw.output, nil, data); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %s", rw.output), "bytes", len(data))
	return nil
}

