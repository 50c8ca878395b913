// internal/repository/message_repository.go
package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/socialify/inbox-backend/internal/errors"
	"github.com/socialify/inbox-backend/internal/model"
)

type MessageRepositoryInterface interface {
	// InsertIgnoreDuplicate persists a new message record. Returns
	// appErrors.ErrDuplicateMessage when a record for
	// (tenant_id, provider_message_id) already exists; the insert and the
	// duplicate check are one atomic statement.
	InsertIgnoreDuplicate(msg *model.Message) error
	GetByID(id int64) (*model.Message, error)
	UpdateEnrichment(id int64, priority, context string, confidence float64) error
	UpdateDeliveryStatus(tenantID int64, providerMessageID, status string, at time.Time) error
	ListByTenant(tenantID int64, phoneRecordID *int64, limit, offset int) ([]model.Message, int, error)
}

type MessageRepository struct {
	DB *sql.DB
}

func (r *MessageRepository) InsertIgnoreDuplicate(msg *model.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	// The unique constraint on (tenant_id, provider_message_id) makes
	// concurrent redelivery safe: the losing insert returns no row.
	query := `
        INSERT INTO messages
            (tenant_id, waba_record_id, phone_record_id, provider_message_id,
             direction, contact_phone, contact_name, message_type, template_name,
             content_hash, status, ai_processed, created_at, sent_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, FALSE, $12, $13)
        ON CONFLICT (tenant_id, provider_message_id) DO NOTHING
        RETURNING id
    `
	err := r.DB.QueryRow(
		query,
		msg.TenantID,
		msg.WabaRecordID,
		msg.PhoneRecordID,
		msg.ProviderMessageID,
		msg.Direction,
		msg.ContactPhone,
		msg.ContactName,
		msg.MessageType,
		msg.TemplateName,
		msg.ContentHash,
		msg.Status,
		msg.CreatedAt,
		msg.SentAt,
	).Scan(&msg.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.ErrDuplicateMessage
		}
		return appErrors.NewPersistenceError("insert message", err)
	}
	return nil
}

func (r *MessageRepository) GetByID(id int64) (*model.Message, error) {
	query := `
        SELECT id, tenant_id, waba_record_id, phone_record_id, provider_message_id,
               direction, contact_phone, contact_name, message_type, template_name,
               content_hash, status, ai_processed, predicted_priority,
               predicted_context, prediction_confidence, created_at, sent_at,
               delivered_at, read_at
        FROM messages WHERE id = $1
    `
	var msg model.Message
	err := r.DB.QueryRow(query, id).Scan(
		&msg.ID, &msg.TenantID, &msg.WabaRecordID, &msg.PhoneRecordID, &msg.ProviderMessageID,
		&msg.Direction, &msg.ContactPhone, &msg.ContactName, &msg.MessageType, &msg.TemplateName,
		&msg.ContentHash, &msg.Status, &msg.AIProcessed, &msg.PredictedPriority,
		&msg.PredictedContext, &msg.PredictionConfidence, &msg.CreatedAt, &msg.SentAt,
		&msg.DeliveredAt, &msg.ReadAt,
	)
	if err != nil {
		return nil, appErrors.NewPersistenceError("get message", err)
	}
	return &msg, nil
}

// UpdateEnrichment writes classification results exactly once: the
// ai_processed guard makes a second write a no-op.
func (r *MessageRepository) UpdateEnrichment(id int64, priority, context string, confidence float64) error {
	query := `
        UPDATE messages
        SET ai_processed = TRUE, predicted_priority = $1, predicted_context = $2, prediction_confidence = $3
        WHERE id = $4 AND ai_processed = FALSE
    `
	_, err := r.DB.Exec(query, priority, context, confidence, id)
	if err != nil {
		return appErrors.NewPersistenceError("update enrichment", err)
	}
	return nil
}

// UpdateDeliveryStatus applies a provider status transition (sent, delivered,
// read, failed) to an outbound message, stamping the matching timestamp.
func (r *MessageRepository) UpdateDeliveryStatus(tenantID int64, providerMessageID, status string, at time.Time) error {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	var err error
	switch status {
	case model.StatusSent:
		_, err = r.DB.Exec(`UPDATE messages SET status = $1, sent_at = $2 WHERE tenant_id = $3 AND provider_message_id = $4`,
			status, at, tenantID, providerMessageID)
	case model.StatusDelivered:
		_, err = r.DB.Exec(`UPDATE messages SET status = $1, delivered_at = $2 WHERE tenant_id = $3 AND provider_message_id = $4`,
			status, at, tenantID, providerMessageID)
	case model.StatusRead:
		_, err = r.DB.Exec(`UPDATE messages SET status = $1, read_at = $2 WHERE tenant_id = $3 AND provider_message_id = $4`,
			status, at, tenantID, providerMessageID)
	default:
		_, err = r.DB.Exec(`UPDATE messages SET status = $1 WHERE tenant_id = $2 AND provider_message_id = $3`,
			status, tenantID, providerMessageID)
	}
	if err != nil {
		return appErrors.NewPersistenceError("update delivery status", err)
	}
	return nil
}

func (r *MessageRepository) ListByTenant(tenantID int64, phoneRecordID *int64, limit, offset int) ([]model.Message, int, error) {
	query := `
        SELECT id, tenant_id, waba_record_id, phone_record_id, provider_message_id,
               direction, contact_phone, contact_name, message_type, template_name,
               content_hash, status, ai_processed, predicted_priority,
               predicted_context, prediction_confidence, created_at, sent_at,
               delivered_at, read_at
        FROM messages
        WHERE tenant_id = $1 AND ($2::bigint IS NULL OR phone_record_id = $2)
        ORDER BY created_at DESC
        LIMIT $3 OFFSET $4
    `
	rows, err := r.DB.Query(query, tenantID, phoneRecordID, limit, offset)
	if err != nil {
		return nil, 0, appErrors.NewPersistenceError("list messages", err)
	}
	defer rows.Close()

	messages := []model.Message{}
	for rows.Next() {
		var msg model.Message
		if err := rows.Scan(
			&msg.ID, &msg.TenantID, &msg.WabaRecordID, &msg.PhoneRecordID, &msg.ProviderMessageID,
			&msg.Direction, &msg.ContactPhone, &msg.ContactName, &msg.MessageType, &msg.TemplateName,
			&msg.ContentHash, &msg.Status, &msg.AIProcessed, &msg.PredictedPriority,
			&msg.PredictedContext, &msg.PredictionConfidence, &msg.CreatedAt, &msg.SentAt,
			&msg.DeliveredAt, &msg.ReadAt,
		); err != nil {
			return nil, 0, appErrors.NewPersistenceError("scan message", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, appErrors.NewPersistenceError("list messages", err)
	}

	countQuery := `
        SELECT COUNT(*) FROM messages
        WHERE tenant_id = $1 AND ($2::bigint IS NULL OR phone_record_id = $2)
    `
	var total int
	if err := r.DB.QueryRow(countQuery, tenantID, phoneRecordID).Scan(&total); err != nil {
		return nil, 0, appErrors.NewPersistenceError("count messages", err)
	}

	return messages, total, nil
}
