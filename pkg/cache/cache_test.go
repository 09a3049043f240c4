package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache should never hit")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	base := SVGKeyOpts{Threshold: 128, TurnPolicy: "minority", AlphaMax: 1, TurdSize: 2, Size: 250, OptiCurve: true, OptTolerance: 0.2, Passes: 1}

	key := k.SVGKey("abc", base)
	if !strings.HasPrefix(key, "svg:") || len(key) != len("svg:")+64 {
		t.Errorf("unexpected key format: %s", key)
	}
	if key != k.SVGKey("abc", base) {
		t.Error("SVGKey should be deterministic")
	}
	if key == k.SVGKey("abd", base) {
		t.Error("different image hashes should produce different keys")
	}

	variants := []func(*SVGKeyOpts){
		func(o *SVGKeyOpts) { o.Threshold = 127 },
		func(o *SVGKeyOpts) { o.TurnPolicy = "black" },
		func(o *SVGKeyOpts) { o.AlphaMax = 0.5 },
		func(o *SVGKeyOpts) { o.TurdSize = 0 },
		func(o *SVGKeyOpts) { o.Size = 100 },
		func(o *SVGKeyOpts) { o.OptiCurve = false },
		func(o *SVGKeyOpts) { o.OptTolerance = 0.3 },
		func(o *SVGKeyOpts) { o.Background = "#fff" },
		func(o *SVGKeyOpts) { o.Invert = true },
		func(o *SVGKeyOpts) { o.Passes = 2 },
		func(o *SVGKeyOpts) { o.Autocrop = true },
	}
	for i, mutate := range variants {
		opts := base
		mutate(&opts)
		if k.SVGKey("abc", opts) == key {
			t.Errorf("variant %d should change the key", i)
		}
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "staging:")

	want := "staging:" + inner.SVGKey("h", SVGKeyOpts{})
	if got := scoped.SVGKey("h", SVGKeyOpts{}); got != want {
		t.Errorf("SVGKey = %s, want %s", got, want)
	}

	if _, ok := NewScopedKeyer(inner, "").(DefaultKeyer); !ok {
		t.Error("empty prefix should return the inner keyer")
	}
	if got := NewScopedKeyer(nil, "p:").SVGKey("h", SVGKeyOpts{}); !strings.HasPrefix(got, "p:svg:") {
		t.Errorf("nil inner should fall back to DefaultKeyer: %s", got)
	}
}

// exerciseCache runs the behavior every backend shares.
func exerciseCache(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("<svg/>"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "<svg/>" {
		t.Fatalf("Get(k) = %q, %v, %v", data, hit, err)
	}

	if err := c.Set(ctx, "k", []byte("<svg></svg>"), 0); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	if data, _, _ := c.Get(ctx, "k"); string(data) != "<svg></svg>" {
		t.Errorf("overwrite not visible: %q", data)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry should be gone after Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of missing key should succeed: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	exerciseCache(t, c)
}

func TestFileCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if err := c.Set(ctx, "k", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed from disk")
	}
}

func TestFileCache_Corrupt(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry should be a clean miss, got hit %v err %v", hit, err)
	}
}

func TestFileCache_Clear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatalf("Set(%s): %v", k, err)
		}
	}
	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("cache dir should be empty, has %d entries", len(entries))
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("cache root should survive Clear: %v", err)
	}
}

func TestRedisCache(t *testing.T) {
	s := miniredis.RunT(t)

	c, err := NewRedisCache(context.Background(), "redis://"+s.Addr())
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	exerciseCache(t, c)
}

func TestRedisCache_TTL(t *testing.T) {
	ctx := context.Background()
	s := miniredis.RunT(t)

	c, err := NewRedisCache(ctx, "redis://"+s.Addr())
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("x"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ttl := s.TTL("k"); ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m", ttl)
	}
	s.FastForward(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry should expire")
	}
}

func TestRedisCache_BadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "http://not-redis"); err == nil {
		t.Error("expected error for non-redis URL")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	s := miniredis.RunT(t)

	tests := []struct {
		name    string
		opts    Options
		wantErr error
		check   func(Cache) bool
	}{
		{"default", Options{}, nil, func(c Cache) bool { _, ok := c.(*NullCache); return ok }},
		{"none", Options{Backend: BackendNone}, nil, func(c Cache) bool { _, ok := c.(*NullCache); return ok }},
		{"file", Options{Backend: BackendFile, Dir: t.TempDir()}, nil, func(c Cache) bool { _, ok := c.(*FileCache); return ok }},
		{"redis", Options{Backend: BackendRedis, RedisURL: "redis://" + s.Addr()}, nil, func(c Cache) bool { _, ok := c.(*RedisCache); return ok }},
		{"unknown", Options{Backend: "memcached"}, ErrUnknownBackend, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Open(ctx, tt.opts)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Open error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer c.Close()
			if !tt.check(c) {
				t.Errorf("Open returned %T", c)
			}
		})
	}

	if c, err := Open(ctx, Options{Backend: BackendFile}); err == nil || c != nil {
		t.Errorf("file backend without dir should fail with a nil cache, got %v, %v", c, err)
	}
}
