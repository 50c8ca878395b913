// internal/model/message.go
package model

import "time"

// Message direction values.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Message status values. Inbound records go received -> (enrichment) with
// AIProcessed flipping to true; outbound records walk sent -> delivered ->
// read via provider status updates, or end in failed.
const (
	StatusReceived  = "received"
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
	StatusFailed    = "failed"
)

// Message is one inbound or outbound message. Only privacy-safe metadata is
// stored: a one-way content hash, never raw message text or media payloads.
// (tenant_id, provider_message_id) is unique; reprocessing the same webhook
// delivery must not create a second row.
type Message struct {
	ID                int64  `db:"id" json:"id"`
	TenantID          int64  `db:"tenant_id" json:"tenant_id"`
	WabaRecordID      int64  `db:"waba_record_id" json:"waba_record_id"`
	PhoneRecordID     int64  `db:"phone_record_id" json:"phone_record_id"`
	ProviderMessageID string `db:"provider_message_id" json:"provider_message_id"`
	Direction         string `db:"direction" json:"direction"`
	ContactPhone      string `db:"contact_phone" json:"contact_phone"`
	ContactName       string `db:"contact_name" json:"contact_name,omitempty"`
	MessageType       string `db:"message_type" json:"message_type"`
	TemplateName      string `db:"template_name" json:"template_name,omitempty"`
	ContentHash       string `db:"content_hash" json:"content_hash,omitempty"`
	Status            string `db:"status" json:"status"`

	AIProcessed          bool     `db:"ai_processed" json:"ai_processed"`
	PredictedPriority    *string  `db:"predicted_priority" json:"predicted_priority,omitempty"`
	PredictedContext     *string  `db:"predicted_context" json:"predicted_context,omitempty"`
	PredictionConfidence *float64 `db:"prediction_confidence" json:"prediction_confidence,omitempty"`

	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	SentAt      *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	DeliveredAt *time.Time `db:"delivered_at" json:"delivered_at,omitempty"`
	ReadAt      *time.Time `db:"read_at" json:"read_at,omitempty"`
}
