package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alpensichtung/feinstaubalarm/internal/metrics"
	"github.com/alpensichtung/feinstaubalarm/internal/store"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// This prevents goroutine leaks when clients are slow or disconnected.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	// shutdownTimeout bounds graceful shutdown after the context is cancelled.
	shutdownTimeout = 5 * time.Second
)

// Server exposes the watch-mode state over HTTP.
//
// Server provides these endpoints:
//   - GET /healthz: Liveness probe
//   - GET /api/readings: Latest reading of every sensor as JSON
//   - GET /api/decision: Latest decision as JSON (404 before the first run)
//   - GET /api/sse: Server-Sent Events stream of readings and decisions
//   - GET /metrics: Prometheus exposition (when metrics are enabled)
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	store      store.Store
	metrics    *metrics.Metrics
	port       int
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - st: Store holding readings and decisions
//   - m: Prometheus metrics, or nil to disable /metrics
//   - port: TCP port to listen on
//   - logger: Logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(st store.Store, m *metrics.Metrics, port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:   st,
		metrics: m,
		port:    port,
		logger:  logger,
	}
}

// Handler returns the router serving all endpoints.
func (s *Server) Handler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)

	mux.Get("/healthz", s.handleHealth)
	mux.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/readings", s.metrics.WrapHandler("/api/readings", http.HandlerFunc(s.handleReadings)))
		r.Method(http.MethodGet, "/decision", s.metrics.WrapHandler("/api/decision", http.HandlerFunc(s.handleDecision)))
		r.Get("/sse", s.handleSSE)
	})
	if s.metrics != nil {
		mux.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// BaseContext derives all request contexts from the server context.
		// When ctx is cancelled, all request contexts are also cancelled,
		// enabling graceful shutdown of long-running handlers like SSE.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	// shutdown on context cancellation
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	s.logger.Info("http server listening", "port", s.port)
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadings returns the latest readings as JSON.
func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.Readings())
}

// handleDecision returns the latest decision as JSON.
func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	decision, ok := s.store.Decision()
	if !ok {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no decision yet"})
		return
	}
	s.writeJSON(w, http.StatusOK, decision)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// handleSSE streams readings and decisions via Server-Sent Events.
//
// The handler uses write deadlines to prevent goroutine leaks when clients are
// slow or disconnected. Without deadlines, a blocked Fprintf call would prevent
// the handler from detecting context cancellation or channel closure.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)

	// track if write deadlines are supported (may not be for some ResponseWriter impls)
	deadlinesSupported := true

	writeAndFlush := func(event store.Event) error {
		data, err := json.Marshal(event)
		if err != nil {
			return nil
		}

		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
			return err
		}

		// ResponseController.Flush respects the write deadline
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	// send current state first
	for _, reading := range s.store.Readings() {
		if err := writeAndFlush(store.Event{Type: store.EventReading, Reading: &reading}); err != nil {
			return
		}
	}
	if decision, ok := s.store.Decision(); ok {
		if err := writeAndFlush(store.Event{Type: store.EventDecision, Decision: &decision}); err != nil {
			return
		}
	}

	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := writeAndFlush(event); err != nil {
				return
			}

		case <-r.Context().Done():
			// request context is derived from server context via BaseContext,
			// so this fires on both client disconnect AND server shutdown
			return
		}
	}
}
