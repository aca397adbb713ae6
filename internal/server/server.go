// Package server hosts lesson widgets that run outside the process: it
// exposes the page's variables over HTTP and streams their changes over
// WebSocket.
package server

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/lessonvars/internal/errors"
	"github.com/vango-dev/lessonvars/internal/metrics"
	"github.com/vango-dev/lessonvars/pkg/binding"
	"github.com/vango-dev/lessonvars/pkg/page"
	"github.com/vango-dev/lessonvars/pkg/registry"
)

// Options configures the server. Zero fields take the defaults below.
type Options struct {
	// Addr is the listen address for Run (default "localhost:4000").
	Addr string

	// SendBuffer is the number of frames queued per connection before the
	// connection is dropped (default 64).
	SendBuffer int

	// WriteTimeout bounds each WebSocket write (default 10s).
	WriteTimeout time.Duration

	// PingInterval is the heartbeat period (default 30s). A client that
	// does not answer within two intervals is disconnected.
	PingInterval time.Duration

	// MaxMessageSize caps incoming frames (default 64 KiB).
	MaxMessageSize int64

	// ShutdownTimeout bounds graceful shutdown (default 5s).
	ShutdownTimeout time.Duration

	// AllowedOrigins lists origins allowed to open a WebSocket. Empty
	// means same origin; "*" allows any.
	AllowedOrigins []string

	// WaveSamples is the resolution of the wave in /api/lesson (default 64).
	WaveSamples int

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics, if set, is updated with connection counts and served on
	// /metrics.
	Metrics *metrics.Collector

	// Tracer defaults to the global provider's tracer.
	Tracer trace.Tracer
}

func (o *Options) applyDefaults() {
	if o.Addr == "" {
		o.Addr = "localhost:4000"
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = 64 << 10
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = 5 * time.Second
	}
	if o.WaveSamples <= 0 {
		o.WaveSamples = 64
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Tracer == nil {
		o.Tracer = otel.Tracer(binding.TracerName)
	}
}

func (o Options) pongWait() time.Duration {
	return 2 * o.PingInterval
}

// Server serves one page.
type Server struct {
	page     *page.Page
	opts     Options
	logger   *slog.Logger
	hub      *Hub
	upgrader websocket.Upgrader
	router   chi.Router
}

// New creates a server for p.
func New(p *page.Page, opts Options) *Server {
	opts.applyDefaults()
	s := &Server{
		page:   p,
		opts:   opts,
		logger: opts.Logger.With("component", "server"),
		hub:    newHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
	}
	s.router = s.routes()
	return s
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		// Upgrader falls back to its same-origin check.
		return nil
	}
	if slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(tracing(s.opts.Tracer))
	r.Use(requestLogger(s.logger))
	r.Use(recoverer(s.logger))

	r.Get("/healthz", s.healthz)
	r.Get("/ws", s.handleWebSocket)

	r.Route("/api", func(r chi.Router) {
		r.Get("/lesson", s.getLesson)
		r.Get("/variables", s.listVariables)
		r.Get("/variables/{name}", s.getVariable)
		r.Put("/variables/{name}", s.putVariable)
	})

	if s.opts.Metrics != nil {
		r.Handle("/metrics", s.opts.Metrics.Handler())
	}
	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the connection hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// NotifyReload tells every client that the declarations changed.
func (s *Server) NotifyReload(reg *registry.Registry) {
	s.hub.Broadcast(Frame{Op: OpReload, Variables: reg.Names()})
}

// NotifyError tells every client that a declaration reload failed.
func (s *Server) NotifyError(err error) {
	s.hub.Broadcast(errorFrame("", errors.Code(err), err.Error()))
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := newConn(s, ws)
	s.hub.add(c)
	if s.opts.Metrics != nil {
		s.opts.Metrics.ConnectionOpened()
	}
	c.logger.Info("widget connected", "remote", r.RemoteAddr)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump()
	}()

	defer func() {
		c.close("client gone")
		<-writerDone
		s.hub.remove(c)
		if s.opts.Metrics != nil {
			s.opts.Metrics.ConnectionClosed()
		}
		c.logger.Info("widget disconnected")
	}()

	c.enqueue(Frame{Op: OpHello, ID: c.id})
	c.readPump(r.Context())
}

// Run listens on Options.Addr and serves until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then closes every WebSocket
// and waits up to Options.ShutdownTimeout for open requests.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by http.Server.
	s.hub.CloseAll()
	err := httpServer.Shutdown(shutdownCtx)
	<-errCh
	if err != nil {
		s.logger.Error("shutdown error", "error", err)
		return err
	}
	s.logger.Info("server shutdown complete")
	return nil
}
