package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/sherafyk/vectorize-svc/pkg/cache"
	"github.com/sherafyk/vectorize-svc/pkg/observability"
	"github.com/sherafyk/vectorize-svc/pkg/svg"
)

const cacheKeyType = "svg"

// Result is the output of [Runner.Execute].
type Result struct {
	// SVG is the styled document.
	SVG string
	// ImageHash is the SHA-256 of the input bytes.
	ImageHash string
	Stats     Stats
	// CacheHit is true when the unstyled document came from the cache.
	CacheHit bool
}

// Runner executes the pipeline with caching, deduplication of identical
// in-flight work and a cap on concurrent traces. A Runner is safe for
// concurrent use.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	// TTL is the lifetime of cached documents.
	TTL time.Duration

	sem   *semaphore.Weighted
	group singleflight.Group
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// means [cache.DefaultKeyer] and maxConcurrent <= 0 means one trace per CPU.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger, maxConcurrent int) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.NumCPU()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    cache.TTLSVG,
		sem:    semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// artifact is the cached form of a trace.
type artifact struct {
	SVG   string `json:"svg"`
	Stats Stats  `json:"stats"`
}

// Execute vectorizes data and applies style. ctx bounds the wait for a
// trace slot; a trace that has started always runs to completion.
func (r *Runner) Execute(ctx context.Context, data []byte, opts Options, style svg.Style) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	hash := cache.Hash(data)
	key := r.Keyer.SVGKey(hash, opts.KeyOpts())

	art, hit, err := r.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if !hit {
		art, err = r.traceShared(ctx, key, hash, data, opts)
		if err != nil {
			return nil, err
		}
	}

	doc := art.SVG
	if !style.IsZero() {
		if doc, err = svg.ApplyStyle(doc, style); err != nil {
			return nil, err
		}
	}

	return &Result{
		SVG:       doc,
		ImageHash: hash,
		Stats:     art.Stats,
		CacheHit:  hit,
	}, nil
}

func (r *Runner) lookup(ctx context.Context, key string) (artifact, bool, error) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache lookup failed", "err", err)
		return artifact{}, false, nil
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, cacheKeyType)
		return artifact{}, false, nil
	}
	var art artifact
	if err := json.Unmarshal(data, &art); err != nil || art.SVG == "" {
		r.Logger.Debug("discarding corrupt cache entry", "key", key)
		return artifact{}, false, nil
	}
	observability.Cache().OnCacheHit(ctx, cacheKeyType)
	return art, true, nil
}

// traceShared joins an identical in-flight trace if there is one. If the
// leader gave up waiting for a slot while this caller is still live, the
// work is retried under this caller.
func (r *Runner) traceShared(ctx context.Context, key, hash string, data []byte, opts Options) (artifact, error) {
	for {
		v, err, shared := r.group.Do(key, func() (any, error) {
			return r.traceAndStore(ctx, key, hash, data, opts)
		})
		if err != nil {
			if shared && isContextErr(err) && ctx.Err() == nil {
				continue
			}
			return artifact{}, err
		}
		return v.(artifact), nil
	}
}

func (r *Runner) traceAndStore(ctx context.Context, key, hash string, data []byte, opts Options) (artifact, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return artifact{}, err
	}
	defer r.sem.Release(1)

	// Past this point nothing observes ctx cancellation.
	ctx = context.WithoutCancel(ctx)

	observability.Trace().OnTraceStart(ctx, hash)
	start := time.Now()
	traced, err := Trace(data, opts)
	observability.Trace().OnTraceComplete(ctx, hash, curves(traced), time.Since(start), err)
	if err != nil {
		return artifact{}, err
	}

	art := artifact{SVG: traced.SVG, Stats: traced.Stats}
	r.Logger.Info("traced image",
		"hash", short(hash),
		"size", opts.Size,
		"curves", traced.Stats.Curves,
		"segments", traced.Stats.Segments,
		"duration", traced.Stats.TraceTime)

	if raw, err := json.Marshal(art); err == nil {
		if err := r.Cache.Set(ctx, key, raw, r.TTL); err != nil {
			r.Logger.Warn("cache store failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, cacheKeyType, len(raw))
		}
	}
	return art, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func curves(t *Traced) int {
	if t == nil {
		return 0
	}
	return t.Stats.Curves
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
