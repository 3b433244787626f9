// Package web serves the prediction form, batch uploads, export downloads,
// and a small JSON API over the current artifact bundle.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/crimson-sun/cropcast/internal/artifacts"
	"github.com/crimson-sun/cropcast/internal/export"
	"github.com/crimson-sun/cropcast/internal/pipeline"
)

//go:embed templates
var templateFS embed.FS

const (
	defaultMaxUploadBytes  = 32 << 20 // 32MB
	defaultShutdownTimeout = 10 * time.Second
	displayDecimals        = 2
)

// Settings holds the HTTP listener configuration.
type Settings struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Option customizes server construction.
type Option func(*Server)

// WithMaxUploadBytes bounds request bodies. Default: 32MB.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// Server holds the handlers. It is safe for concurrent use.
type Server struct {
	store    *artifacts.Store
	pipeline *pipeline.Pipeline
	exports  *export.Store
	maxBytes int64
	page     *template.Template
	mux      *http.ServeMux
}

// New wires the handlers to the artifact store, the batch pipeline, and the
// export store.
func New(store *artifacts.Store, pl *pipeline.Pipeline, exports *export.Store, opts ...Option) (*Server, error) {
	page, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("web: parse templates: %w", err)
	}
	s := &Server{
		store:    store,
		pipeline: pl,
		exports:  exports,
		maxBytes: defaultMaxUploadBytes,
		page:     page,
		mux:      http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /predict", s.handlePredict)
	s.mux.HandleFunc("POST /batch", s.handleBatch)
	s.mux.HandleFunc("GET /exports/{id}/{name}", s.handleDownload)
	s.mux.HandleFunc("GET /api/classes", s.handleAPIClasses)
	s.mux.HandleFunc("POST /api/predict", s.handleAPIPredict)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	return s, nil
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	return logRequests(s.mux)
}

// ListenAndServe listens on st.Addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, st Settings) error {
	ln, err := net.Listen("tcp", st.Addr)
	if err != nil {
		return fmt.Errorf("web: listen %s: %w", st.Addr, err)
	}
	return s.Serve(ctx, ln, st)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully, waiting up to st.ShutdownTimeout for in-flight requests.
func (s *Server) Serve(ctx context.Context, ln net.Listener, st Settings) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  st.ReadTimeout,
		WriteTimeout: st.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	slog.Info("http server listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return fmt.Errorf("web: serve: %w", err)
	case <-ctx.Done():
	}

	timeout := st.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	slog.Info("http server draining")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web: shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web: serve: %w", err)
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
