// Package cache stores rendered SVG artifacts so repeated traces of the same
// image with the same options skip the tracer.
//
// Three backends implement [Cache]:
//   - [NullCache]: caching disabled
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [RedisCache]: shared cache for server deployments
//
// Keys come from a [Keyer]. [DefaultKeyer] hashes the image digest together
// with every option that affects the traced output; [ScopedKeyer] adds a
// prefix so several deployments can share one Redis database.
package cache

import (
	"context"
	"time"
)

// TTLSVG is the default lifetime of a cached SVG.
const TTLSVG = 24 * time.Hour

// Cache is a byte-oriented key/value store with per-entry expiry.
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// SVGKeyOpts lists every tracing option that changes the unstyled SVG.
// Styling is applied after the cache and is deliberately absent.
type SVGKeyOpts struct {
	Threshold    int     `json:"threshold"`
	TurnPolicy   string  `json:"turnpolicy"`
	AlphaMax     float64 `json:"alphamax"`
	TurdSize     int     `json:"turdsize"`
	Size         int     `json:"size"`
	OptiCurve    bool    `json:"opticurve"`
	OptTolerance float64 `json:"opttolerance"`
	Background   string  `json:"background"`
	Invert       bool    `json:"invert"`
	Passes       int     `json:"passes"`
	Autocrop     bool    `json:"autocrop"`
}

// Keyer builds cache keys.
type Keyer interface {
	SVGKey(imageHash string, opts SVGKeyOpts) string
}

// DefaultKeyer produces "svg:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SVGKey hashes the image digest with opts.
func (DefaultKeyer) SVGKey(imageHash string, opts SVGKeyOpts) string {
	return hashKey("svg", imageHash, opts)
}
