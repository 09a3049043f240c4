// Package observability lets a binary plug metrics or tracing into the
// vectorize pipeline without the libraries depending on any backend.
//
// Three hook interfaces cover the interesting events:
//   - [TraceHooks]: one trace of one image
//   - [CacheHooks]: SVG artifact cache lookups and writes
//   - [HTTPHooks]: outgoing requests made when fetching remote images
//
// Each has a no-op default. main registers real implementations once at
// startup:
//
//	observability.SetTraceHooks(promTraceHooks{})
//
// and libraries emit events through the getters:
//
//	observability.Trace().OnTraceStart(ctx, imageHash)
package observability

import (
	"context"
	"sync"
	"time"
)

// TraceHooks receives events from the tracing pipeline.
type TraceHooks interface {
	OnTraceStart(ctx context.Context, imageHash string)
	OnTraceComplete(ctx context.Context, imageHash string, curves int, duration time.Duration, err error)
}

// CacheHooks receives events from artifact cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from the remote image fetcher.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	// OnError records a transport failure (DNS, connect, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

type NoopTraceHooks struct{}

func (NoopTraceHooks) OnTraceStart(context.Context, string)                                 {}
func (NoopTraceHooks) OnTraceComplete(context.Context, string, int, time.Duration, error) {}

type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

var (
	hooksMu    sync.RWMutex
	traceHooks TraceHooks = NoopTraceHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
)

// SetTraceHooks registers h. nil is ignored.
func SetTraceHooks(h TraceHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		traceHooks = h
	}
}

// SetCacheHooks registers h. nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers h. nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

func Trace() TraceHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return traceHooks
}

func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores the no-op hooks. Tests use it to undo registrations.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	traceHooks = NoopTraceHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
