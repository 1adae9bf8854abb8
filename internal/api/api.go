// Package api provides the HTTP surface of BotEngine.
//
// It exposes the webhook verification (GET) and delivery (POST) endpoints of
// the messaging provider plus a health endpoint. Deliveries are always
// acknowledged with 200 regardless of internal processing outcome, to
// prevent upstream retry storms.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Default server configuration.
const (
	DefaultAddr            = ":8080"
	DefaultShutdownTimeout = 5 * time.Second
)

// Dispatcher is the engine surface the API layer needs.
type Dispatcher interface {
	ProcessWebhook(ctx context.Context, body []byte)
}

// Server serves the webhook endpoints.
type Server struct {
	verifyToken string
	dispatcher  Dispatcher
	httpServer  *http.Server
}

// NewServer creates a Server. The verify token is required: webhook
// verification cannot work without it.
func NewServer(addr, verifyToken string, dispatcher Dispatcher) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	s := &Server{
		verifyToken: verifyToken,
		dispatcher:  dispatcher,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.webhookHandler)
	mux.HandleFunc("/health", s.healthHandler)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the server fails.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("BotEngine API listening", "addr", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		slog.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
