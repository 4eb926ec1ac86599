package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hanhandi-git/flowchartRenderer/pkg/diagram"
)

// readInput reads path, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// resolveDialect returns the dialect named by flag, or the one implied by
// the extension of path.
func resolveDialect(flag, path string) (diagram.Dialect, error) {
	if flag != "" {
		return diagram.ParseDialect(flag)
	}
	if d, ok := diagram.DialectFromPath(path); ok {
		return d, nil
	}
	return "", fmt.Errorf("cannot infer dialect of %q; pass --dialect flowchart|dot", path)
}

// nopCloser wraps a writer that must not be closed, such as stdout.
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// openOutput returns a writer for path, or w when path is empty.
func openOutput(path string, w io.Writer) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{w}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}

// writeOutput writes data to path, or to w when path is empty.
func writeOutput(path string, w io.Writer, data []byte) error {
	out, err := openOutput(path, w)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// basePath strips a known extension from output, or derives the base from
// input when output is empty.
func basePath(output, input string) string {
	if output == "" {
		if input == "-" {
			return "diagram"
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	switch strings.TrimPrefix(ext, ".") {
	case "svg", "png", "pdf":
		return strings.TrimSuffix(output, ext)
	}
	return output
}
