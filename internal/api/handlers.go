// Package api provides the webhook HTTP handlers.
package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
)

// maxWebhookBody bounds the accepted delivery payload size.
const maxWebhookBody = 1 << 20

func (s *Server) webhookHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.verifyHandler(w, r)
	case http.MethodPost:
		s.deliveryHandler(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// verifyHandler implements the provider's subscription handshake: echo the
// challenge when the mode and token match, 403 otherwise.
func (s *Server) verifyHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode == "subscribe" && token == s.verifyToken {
		slog.Info("Webhook verification succeeded")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(challenge)); err != nil {
			slog.Error("Failed to write verification challenge", "error", err)
		}
		return
	}

	slog.Warn("Webhook verification failed", "mode", mode)
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte("Verification failed"))
}

// deliveryHandler accepts a webhook delivery and always acks with 200; the
// provider re-delivers anything it considers unacknowledged and the dedup
// filter absorbs the repeats.
func (s *Server) deliveryHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		slog.Error("Failed to read webhook body", "error", err)
	} else {
		s.dispatcher.ProcessWebhook(r.Context(), body)
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "service": "botengine"})
}
