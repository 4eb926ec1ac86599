package render

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	ferrors "github.com/hanhandi-git/flowchartRenderer/pkg/errors"
)

// DefaultMermaidCommand is the Mermaid CLI executable looked up on PATH.
const DefaultMermaidCommand = "mmdc"

// MermaidRenderer renders Mermaid source by running the Mermaid CLI.
type MermaidRenderer struct {
	command string
	logger  *log.Logger
}

// NewMermaidRenderer returns a renderer that runs command, or
// [DefaultMermaidCommand] when command is empty.
func NewMermaidRenderer(command string, logger *log.Logger) *MermaidRenderer {
	if command == "" {
		command = DefaultMermaidCommand
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &MermaidRenderer{command: command, logger: logger}
}

// Available reports whether the Mermaid CLI can be found.
func (r *MermaidRenderer) Available() bool {
	_, err := exec.LookPath(r.command)
	return err == nil
}

// Render writes req.Source to a temporary file, runs the CLI on it and
// returns the SVG it produced. CLI errors are returned with its stderr.
func (r *MermaidRenderer) Render(ctx context.Context, req Request) ([]byte, error) {
	path, err := exec.LookPath(r.command)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeRender, err,
			"mermaid rendering requires the Mermaid CLI. Install with:\n  npm install -g @mermaid-js/mermaid-cli")
	}

	dir, err := os.MkdirTemp("", "flowchart-mmdc-")
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInternal, err, "create temp dir")
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "input.mmd")
	out := filepath.Join(dir, "output.svg")
	if err := os.WriteFile(in, []byte(req.Source), 0o600); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInternal, err, "write mermaid input")
	}

	theme := req.Theme
	if theme == "" {
		theme = DefaultTheme
	}
	cmd := exec.CommandContext(ctx, path, "--quiet", "-i", in, "-o", out, "-t", theme, "-b", "transparent")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.logger.Debug("running mermaid cli", "command", path, "theme", theme)
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ferrors.Wrap(ferrors.ErrCodeRender, ctxErr, "mermaid")
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, ferrors.Wrap(ferrors.ErrCodeRender, errors.New(msg), "mermaid")
	}

	svg, err := os.ReadFile(out)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeRender, err, "mermaid produced no output")
	}
	return svg, nil
}
