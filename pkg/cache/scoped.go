package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments can
// share one Redis database without seeing each other's entries.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "flowchart:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// RenderKey generates a prefixed render key.
func (k *ScopedKeyer) RenderKey(opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(opts)
}

// ExportKey generates a prefixed export key.
func (k *ScopedKeyer) ExportKey(svgHash string, opts ExportKeyOpts) string {
	return k.prefix + k.inner.ExportKey(svgHash, opts)
}
