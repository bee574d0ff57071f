package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/agleyzer/hlsselect/internal/render"
	"github.com/agleyzer/hlsselect/internal/selector"
	"github.com/agleyzer/hlsselect/internal/variant"
)

// Server serves selections from a parsed master playlist
type Server struct {
	playlist *variant.Playlist
	defaults selector.Options
	port     int
	logger   *slog.Logger

	httpServer *http.Server
}

// New creates a new HTTP server. defaults apply to every request unless a
// query parameter overrides them.
func New(playlist *variant.Playlist, defaults selector.Options, port int, logger *slog.Logger) *Server {
	return &Server{
		playlist: playlist,
		defaults: defaults,
		port:     port,
		logger:   logger,
	}
}

// Handler returns the request router wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Register handlers
	mux.HandleFunc("/playlist.m3u8", s.handlePlaylist)
	mux.HandleFunc("/variants", s.handleVariants)
	mux.HandleFunc("/health", s.handleHealth)

	return s.loggingMiddleware(mux)
}

// Start starts the HTTP server and blocks until ctx is canceled
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)

	// Start server in a goroutine
	go func() {
		s.logger.Info("starting HTTP server", "port", s.port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	// Wait for context cancellation or a listener failure
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}

	// Graceful shutdown
	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}

// handlePlaylist serves the selected variants as a master playlist
func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	s.serveSelection(w, r, render.FormatM3U8)
}

// handleVariants serves the selected variants as JSON
func (s *Server) handleVariants(w http.ResponseWriter, r *http.Request) {
	s.serveSelection(w, r, render.FormatJSON)
}

func (s *Server) serveSelection(w http.ResponseWriter, r *http.Request, format render.Format) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q, err := parseQuery(r.URL.Query(), s.defaults)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var selected []*variant.Variant
	if q.best {
		if v, ok := selector.Best(s.playlist, q.options); ok {
			selected = append(selected, v)
		}
	} else {
		selected = selector.Select(s.playlist, q.options)
	}

	var buf bytes.Buffer
	if err := render.Write(&buf, format, s.playlist, selected, false); err != nil {
		s.logger.Error("failed to render selection", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// handleHealth serves health check information
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status": "ok",
		"stats": map[string]int{
			"variants":   len(s.playlist.Variants),
			"groups":     len(s.playlist.Renditions),
			"renditions": s.playlist.RenditionCount(),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(health)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap the response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)

		s.logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"query", r.URL.RawQuery,
			"remote", r.RemoteAddr,
			"status", wrapped.statusCode,
			"duration", duration,
		)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
