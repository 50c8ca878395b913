// internal/handler/message_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	appErrors "github.com/socialify/inbox-backend/internal/errors"
	"github.com/socialify/inbox-backend/internal/repository"
)

// MessageHandler serves the inbox read side.
type MessageHandler struct {
	MessageRepo repository.MessageRepositoryInterface
}

func NewMessageHandler(repo repository.MessageRepositoryInterface) *MessageHandler {
	return &MessageHandler{MessageRepo: repo}
}

func requestTenantID(r *http.Request) (int64, error) {
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

// ListMessagesHandler returns the tenant's messages newest first, optionally
// filtered to one connected phone number.
func (h *MessageHandler) ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
	tenantID, err := requestTenantID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	page := 1
	pageSize := 20
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if ps, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && ps > 0 && ps <= 100 {
		pageSize = ps
	}

	var phoneRecordID *int64
	if raw := r.URL.Query().Get("phone_record_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "invalid phone_record_id", http.StatusBadRequest)
			return
		}
		phoneRecordID = &id
	}

	messages, total, err := h.MessageRepo.ListByTenant(tenantID, phoneRecordID, pageSize, (page-1)*pageSize)
	if err != nil {
		http.Error(w, "failed to fetch messages: "+err.Error(), http.StatusInternalServerError)
		return
	}

	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data": messages,
		"pagination": map[string]interface{}{
			"page":        page,
			"page_size":   pageSize,
			"total_count": total,
			"total_pages": totalPages,
		},
	})
}
