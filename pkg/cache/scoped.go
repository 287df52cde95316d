package cache

// ScopedKeyer wraps a Keyer with a prefix so several servers can share one
// Redis instance without seeing each other's entries.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "winscope:staging:")
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

// TraceKey generates a prefixed key for an uploaded trace.
func (k *ScopedKeyer) TraceKey(id string) string {
	return k.prefix + k.inner.TraceKey(id)
}

// RectsKey generates a prefixed key for derived rectangles.
func (k *ScopedKeyer) RectsKey(traceHash string, opts RectsKeyOpts) string {
	return k.prefix + k.inner.RectsKey(traceHash, opts)
}

// ArtifactKey generates a prefixed key for rendered output.
func (k *ScopedKeyer) ArtifactKey(rectsHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(rectsHash, opts)
}
