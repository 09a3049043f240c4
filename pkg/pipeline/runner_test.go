package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sherafyk/vectorize-svc/pkg/cache"
	verrors "github.com/sherafyk/vectorize-svc/pkg/errors"
	"github.com/sherafyk/vectorize-svc/pkg/observability"
	"github.com/sherafyk/vectorize-svc/pkg/svg"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

type countingTraceHooks struct {
	observability.NoopTraceHooks
	started atomic.Int32
}

func (h *countingTraceHooks) OnTraceStart(context.Context, string) { h.started.Add(1) }

func newFileRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(c, nil, quietLogger(), 2)
}

func TestNewRunner_Defaults(t *testing.T) {
	r := NewRunner(nil, nil, nil, 0)
	if _, ok := r.Cache.(*cache.NullCache); !ok {
		t.Errorf("default cache = %T, want *cache.NullCache", r.Cache)
	}
	if _, ok := r.Keyer.(cache.DefaultKeyer); !ok {
		t.Errorf("default keyer = %T", r.Keyer)
	}
	if r.Logger == nil || r.sem == nil || r.TTL != cache.TTLSVG {
		t.Error("runner not fully initialized")
	}
}

func TestRunner_CachesUnstyledDocument(t *testing.T) {
	ctx := context.Background()
	r := newFileRunner(t)
	data := encode(t, "png", sampleImage())

	first, err := r.Execute(ctx, data, DefaultOptions(), svg.Style{Fill: "#ff0000"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if first.CacheHit {
		t.Error("first run should miss")
	}
	if !strings.Contains(first.SVG, `fill="#ff0000"`) {
		t.Errorf("style not applied: %s", first.SVG)
	}
	if first.ImageHash != cache.Hash(data) {
		t.Errorf("ImageHash = %s", first.ImageHash)
	}

	second, err := r.Execute(ctx, data, DefaultOptions(), svg.Style{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !second.CacheHit {
		t.Error("second run should hit")
	}
	if strings.Contains(second.SVG, `fill="#ff0000"`) {
		t.Error("style leaked into the cached document")
	}
	if second.Stats.Curves != first.Stats.Curves || second.Stats.Width != 2 {
		t.Errorf("cached stats mismatch: %+v vs %+v", second.Stats, first.Stats)
	}

	want, err := Vectorize(data, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if second.SVG != want {
		t.Error("cached document differs from a direct trace")
	}
}

func TestRunner_OptionsChangeKey(t *testing.T) {
	ctx := context.Background()
	r := newFileRunner(t)
	data := encode(t, "png", sampleImage())

	if _, err := r.Execute(ctx, data, DefaultOptions(), svg.Style{}); err != nil {
		t.Fatal(err)
	}
	opts := DefaultOptions()
	opts.Size = 100
	res, err := r.Execute(ctx, data, opts, svg.Style{})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheHit {
		t.Error("different size must not share a cache entry")
	}
	if !strings.Contains(res.SVG, `width="100"`) {
		t.Errorf("unexpected document: %s", res.SVG)
	}
}

func TestRunner_Stroke(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger(), 1)
	res, err := r.Execute(context.Background(), encode(t, "png", sampleImage()), DefaultOptions(),
		svg.Style{Stroke: "#000000", StrokeWidth: svg.Width(2)})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.SVG, `stroke="#000000"`) || !strings.Contains(res.SVG, `stroke-width="2"`) {
		t.Errorf("stroke not applied: %s", res.SVG)
	}
}

func TestRunner_Errors(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger(), 1)
	ctx := context.Background()

	_, err := r.Execute(ctx, []byte("bad"), DefaultOptions(), svg.Style{})
	if !verrors.Is(err, verrors.ErrCodeInvalidImage) {
		t.Errorf("expected INVALID_IMAGE, got %v", err)
	}

	opts := DefaultOptions()
	opts.Threshold = 300
	_, err = r.Execute(ctx, encode(t, "png", sampleImage()), opts, svg.Style{})
	if !verrors.Is(err, verrors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestRunner_ConcurrentIdenticalRequests(t *testing.T) {
	hooks := &countingTraceHooks{}
	observability.SetTraceHooks(hooks)
	t.Cleanup(observability.Reset)

	r := NewRunner(nil, nil, quietLogger(), 2)
	data := encode(t, "png", blob(64, 64))

	const n = 8
	results := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.Execute(context.Background(), data, DefaultOptions(), svg.Style{})
			if err == nil {
				results[i] = res.SVG
			}
			errs[i] = err
		}()
	}
	wg.Wait()

	for i := range n {
		if errs[i] != nil {
			t.Fatalf("request %d: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Errorf("request %d produced a different document", i)
		}
	}
	if got := hooks.started.Load(); got < 1 || got > n {
		t.Errorf("traces started = %d", got)
	}
}

func TestRunner_WaitHonorsContext(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger(), 1)
	if err := r.sem.Acquire(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	defer r.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.Execute(ctx, encode(t, "png", sampleImage()), DefaultOptions(), svg.Style{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded while waiting for a slot, got %v", err)
	}
}

type failingCache struct{ cache.NullCache }

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("backend down")
}

func TestRunner_CacheFailureIsNotFatal(t *testing.T) {
	r := NewRunner(&failingCache{}, nil, quietLogger(), 1)
	res, err := r.Execute(context.Background(), encode(t, "png", sampleImage()), DefaultOptions(), svg.Style{})
	if err != nil {
		t.Fatalf("cache failure should fall back to tracing: %v", err)
	}
	if res.CacheHit || !strings.Contains(res.SVG, "<svg") {
		t.Errorf("unexpected result: %+v", res)
	}
}
