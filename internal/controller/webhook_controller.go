// internal/controller/webhook_controller.go
package controller

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	appErrors "github.com/socialify/inbox-backend/internal/errors"
	"github.com/socialify/inbox-backend/internal/service"
)

// WebhookController terminates the provider's webhook callbacks: the GET
// subscription handshake and the POST message deliveries.
type WebhookController struct {
	IngestService *service.IngestService
	VerifyToken   string
	Logger        *zap.Logger
}

// Verify answers the subscription handshake. The provider sends its verify
// token and expects the challenge echoed back verbatim on a match.
func (c *WebhookController) Verify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode != "subscribe" || subtle.ConstantTimeCompare([]byte(token), []byte(c.VerifyToken)) != 1 {
		c.Logger.Warn("webhook verification rejected", zap.String("mode", mode))
		http.Error(w, "verification failed", http.StatusForbidden)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(challenge))
}

// Receive ingests one webhook delivery. Only a payload that fails shape
// validation is refused; per-message failures are collected and the delivery
// is still acknowledged so the provider does not retry the whole batch.
func (c *WebhookController) Receive(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	result, err := c.IngestService.Ingest(r.Context(), raw)
	if err != nil {
		var validation *appErrors.ValidationError
		if errors.As(err, &validation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		c.Logger.Error("webhook ingestion failed", zap.Error(err))
		http.Error(w, "ingestion failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
