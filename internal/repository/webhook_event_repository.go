// internal/repository/webhook_event_repository.go
package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/socialify/inbox-backend/internal/errors"
	"github.com/socialify/inbox-backend/internal/model"
)

type WebhookEventRepositoryInterface interface {
	Insert(ev *model.WebhookEvent) error
	MarkProcessed(id int64) error
}

// WebhookEventRepository stores the write-only delivery audit trail. Failures
// here never abort ingestion.
type WebhookEventRepository struct {
	DB *sql.DB
}

func (r *WebhookEventRepository) Insert(ev *model.WebhookEvent) error {
	query := `
        INSERT INTO webhook_events (webhook_id, event_type, payload, processed)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
	err := r.DB.QueryRow(query, ev.WebhookID, ev.EventType, []byte(ev.Payload), ev.Processed).Scan(&ev.ID)
	if err != nil {
		return appErrors.NewPersistenceError("insert webhook event", err)
	}
	return nil
}

func (r *WebhookEventRepository) MarkProcessed(id int64) error {
	query := `UPDATE webhook_events SET processed = TRUE, processed_at = $1 WHERE id = $2`
	_, err := r.DB.Exec(query, time.Now().UTC(), id)
	if err != nil {
		return appErrors.NewPersistenceError("mark webhook event processed", err)
	}
	return nil
}
