package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	scribeErrors "github.com/bashhack/scribe/internal/errors"
)

// Server exposes /metrics and /healthz over HTTP.
type Server struct {
	server   *http.Server
	listener net.Listener
}

// Listen binds addr and prepares a Server for m.
func Listen(addr string, m *Metrics) (*Server, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	var lc net.ListenConfig
	listener, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, scribeErrors.Wrapf(err, "listen on %s", addr)
	}

	return &Server{
		server:   &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		listener: listener,
	}, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve handles requests until ctx ends, then shuts the server down.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(s.listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return scribeErrors.Wrap(err, "metrics server stopped")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return scribeErrors.Wrap(err, "shutdown metrics server")
		}
		return nil
	}
}
