package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	ferrors "github.com/hanhandi-git/flowchartRenderer/pkg/errors"
)

// Format is an output image format.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

// Formats returns all output formats.
func Formats() []Format { return []Format{FormatSVG, FormatPNG, FormatPDF} }

// ParseFormat parses a format name. An empty string selects SVG.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))); f {
	case "":
		return FormatSVG, nil
	case FormatSVG, FormatPNG, FormatPDF:
		return f, nil
	}
	return "", ferrors.New(ferrors.ErrCodeInvalidFormat, "unknown format %q (use svg, png or pdf)", s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	default:
		return "image/svg+xml"
	}
}

// Export converts svg to format. SVG is returned unchanged.
func Export(ctx context.Context, svg []byte, format Format, scale float64) ([]byte, error) {
	switch format {
	case FormatSVG, "":
		return svg, nil
	case FormatPNG:
		return ToPNG(ctx, svg, scale)
	case FormatPDF:
		return ToPDF(ctx, svg)
	}
	return nil, ferrors.New(ferrors.ErrCodeInvalidFormat, "unknown format %q", format)
}

// ToPDF converts SVG bytes to PDF using rsvg-convert.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return rsvgConvert(ctx, svg, "pdf")
}

// ToPNG converts SVG bytes to PNG using rsvg-convert with the given scale factor.
// Scale of 2.0 produces a 2x resolution image; scale <= 0 means 1.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	return rsvgConvert(ctx, svg, "png", "-z", fmt.Sprintf("%.2f", scale))
}

// rsvgConvert shells out to rsvg-convert for format conversion.
func rsvgConvert(ctx context.Context, svg []byte, format string, extraArgs ...string) ([]byte, error) {
	if _, err := exec.LookPath("rsvg-convert"); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeExport, err,
			"%s export requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin", format)
	}

	args := append([]string{"-f", format}, extraArgs...)
	cmd := exec.CommandContext(ctx, "rsvg-convert", args...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(errBuf.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, ferrors.Wrap(ferrors.ErrCodeExport, errors.New(msg), "rsvg-convert %s", format)
	}
	return out.Bytes(), nil
}
