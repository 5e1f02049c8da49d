package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/orchestrator"
)

// WebhookHandler processes a verified webhook body.
type WebhookHandler interface {
	Handle(ctx context.Context, body []byte) orchestrator.Response
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	resp := s.handler.Handle(r.Context(), body)
	writeJSON(r.Context(), w, resp.StatusCode, resp.Body)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.FromContext(ctx).Error(err, "failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(orchestrator.ErrorBody{
		Detail:    detail,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
