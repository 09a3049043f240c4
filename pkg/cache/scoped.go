package cache

// ScopedKeyer prefixes every key of an inner Keyer, isolating deployments
// that share one Redis database:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner. A nil inner means [DefaultKeyer]; an empty
// prefix returns inner unchanged.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	if prefix == "" {
		return inner
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// SVGKey returns the inner key with the prefix prepended.
func (k *ScopedKeyer) SVGKey(imageHash string, opts SVGKeyOpts) string {
	return k.prefix + k.inner.SVGKey(imageHash, opts)
}
