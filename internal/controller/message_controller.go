// internal/controller/message_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	appErrors "github.com/socialify/inbox-backend/internal/errors"
	"github.com/socialify/inbox-backend/internal/service"
)

type MessageController struct {
	SendService *service.SendService
	Logger      *zap.Logger
}

// tenantID reads the caller's tenant from the X-Tenant-ID header. The edge
// proxy fills it in from the session; an absent or malformed value is a bad
// request here.
func tenantID(r *http.Request) (int64, error) {
	raw := r.Header.Get("X-Tenant-ID")
	if raw == "" {
		return 0, appErrors.NewValidationError("missing X-Tenant-ID header")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.NewValidationError("invalid X-Tenant-ID header")
	}
	return id, nil
}

// SendMessage sends a text message through the tenant's own connected number.
func (c *MessageController) SendMessage(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body struct {
		PhoneNumberID string `json:"phone_number_id"`
		To            string `json:"to"`
		Body          string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if body.PhoneNumberID == "" || body.To == "" || body.Body == "" {
		http.Error(w, "phone_number_id, to and body are required", http.StatusBadRequest)
		return
	}

	result, err := c.SendService.Send(r.Context(), tenant, body.PhoneNumberID, body.To, body.Body)
	if err != nil {
		c.writeSendError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// writeSendError maps the send failure modes onto HTTP statuses. The
// provider's rejection body travels back to the caller verbatim.
func (c *MessageController) writeSendError(w http.ResponseWriter, err error) {
	var (
		notFound *appErrors.RoutingNotFoundError
		authz    *appErrors.AuthorizationError
		decrypt  *appErrors.CredentialDecryptionError
		provider *appErrors.ProviderAPIError
	)
	switch {
	case errors.As(err, &notFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &authz):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.As(err, &decrypt):
		// The stored credential cannot be opened; the tenant has to
		// reconnect the account.
		http.Error(w, "stored credential is unusable, reconnect the account", http.StatusUnauthorized)
	case errors.As(err, &provider):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":           "provider rejected the message",
			"provider_status": provider.StatusCode,
			"provider_body":   json.RawMessage(providerBody(provider.Body)),
		})
	default:
		c.Logger.Error("send failed", zap.Error(err))
		http.Error(w, "send failed", http.StatusInternalServerError)
	}
}

// providerBody keeps the provider response embeddable: non-JSON bodies get
// quoted as a JSON string.
func providerBody(body string) []byte {
	if json.Valid([]byte(body)) {
		return []byte(body)
	}
	quoted, _ := json.Marshal(body)
	return quoted
}
