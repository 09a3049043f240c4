// Package api is the HTTP boundary of the vectorize service.
//
// Routes:
//
//	POST /vectorize   multipart "image" upload or ?image_url=
//	GET  /vectorize   ?image_url= (required)
//	GET  /healthz     liveness probe
//	GET  /version     build information
//
// Tracing options, style and download are read from the query string; see
// [parseRequest]. Errors are JSON bodies of the form
// {"detail": "...", "code": "INVALID_INPUT"}.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sherafyk/vectorize-svc/pkg/fetch"
	"github.com/sherafyk/vectorize-svc/pkg/pipeline"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// Options configures a [Server].
type Options struct {
	Runner  *pipeline.Runner
	Fetcher *fetch.Client
	Logger  *log.Logger
	// Token, when non-empty, is required on every /vectorize request.
	Token string
	// MaxUploadBytes caps the size of an uploaded image.
	MaxUploadBytes int64
}

// Server serves the vectorize API. It holds no mutable state of its own and
// is safe for concurrent use.
type Server struct {
	runner    *pipeline.Runner
	fetcher   *fetch.Client
	logger    *log.Logger
	token     string
	maxUpload int64
}

// New creates a server. Missing dependencies get defaults: an uncached
// runner, a fetch client with the default limits and log.Default().
func New(opts Options) *Server {
	s := &Server{
		runner:    opts.Runner,
		fetcher:   opts.Fetcher,
		logger:    opts.Logger,
		token:     opts.Token,
		maxUpload: opts.MaxUploadBytes,
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger, 0)
	}
	if s.maxUpload <= 0 {
		s.maxUpload = fetch.DefaultMaxBytes
	}
	if s.fetcher == nil {
		s.fetcher = fetch.NewClient(fetch.DefaultTimeout, s.maxUpload)
	}
	return s
}

// Handler returns the routed handler with all middleware installed.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "Not Found", Code: codeNotFound})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Detail: "Method Not Allowed", Code: codeMethodNotAllowed})
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)

	r.Group(func(r chi.Router) {
		r.Use(s.auth)
		r.Get("/vectorize", s.handleVectorize)
		r.Post("/vectorize", s.handleVectorize)
	})
	return r
}

// ListenAndServe listens on addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully,
// letting in-flight requests finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel}),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("listening", "addr", ln.Addr().String(), "auth", s.token != "")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
