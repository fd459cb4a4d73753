package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Server wraps http.Server with graceful shutdown and health endpoints.
type Server struct {
	// Addr is the address to listen on, for example ":8080".
	Addr string
	// Mux is the request multiplexer. Health endpoints are registered on it.
	Mux *http.ServeMux
	// Ready reports whether the service is ready to accept work. It must be
	// non-blocking. Nil means always ready.
	Ready func() bool
	// Log is used for server lifecycle messages.
	Log zerolog.Logger
}

// ListenAndServe starts the server and blocks until ctx is canceled or the
// server fails. On cancellation it shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.registerHealth()

	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Log.Info().Str("addr", s.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// registerHealth registers the liveness and readiness endpoints. Both answer
// from local state and never block on the runtime.
func (s *Server) registerHealth() {
	s.Mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		OK(w)
	})
	s.Mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if s.Ready != nil && !s.Ready() {
			RespondJSONError(s.Log, w, fmt.Errorf("runtime %w", ErrServiceUnavailable))
			return
		}
		OK(w)
	})
}
