package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Keyer builds cache keys. Implementations must be deterministic.
type Keyer interface {
	// RenderKey identifies the SVG rendering of a source document.
	RenderKey(opts RenderKeyOpts) string

	// ExportKey identifies a raster or PDF conversion of an SVG.
	ExportKey(svgHash string, opts ExportKeyOpts) string
}

// RenderKeyOpts are the inputs of a render.
type RenderKeyOpts struct {
	Dialect string `json:"dialect"`
	Theme   string `json:"theme"`
	Engine  string `json:"engine"`
	Source  string `json:"source"`
}

// ExportKeyOpts are the inputs of an export.
type ExportKeyOpts struct {
	Format string  `json:"format"`
	Scale  float64 `json:"scale"`
}

// DefaultKeyer hashes all inputs with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a [DefaultKeyer].
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// RenderKey returns "render:<sha256>".
func (DefaultKeyer) RenderKey(opts RenderKeyOpts) string {
	return hashKey("render", opts.Dialect, opts.Theme, opts.Engine, opts.Source)
}

// ExportKey returns "export:<sha256>".
func (DefaultKeyer) ExportKey(svgHash string, opts ExportKeyOpts) string {
	return hashKey("export", svgHash, opts.Format, opts.Scale)
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns "prefix:<sha256>" over parts. Each part is written with
// its length so that ("ab", "c") and ("a", "bc") differ.
func hashKey(prefix string, parts ...any) string {
	h := sha256.New()
	for _, p := range parts {
		s := fmt.Sprint(p)
		fmt.Fprintf(h, "%d:%s;", len(s), s)
	}
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))
}
