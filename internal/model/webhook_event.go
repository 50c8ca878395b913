// internal/model/webhook_event.go
package model

import (
	"encoding/json"
	"time"
)

// WebhookEvent is the write-only audit record of one processed webhook
// delivery. The pipeline never reads these back; they exist for diagnostics.
type WebhookEvent struct {
	ID          int64           `db:"id" json:"id"`
	WebhookID   string          `db:"webhook_id" json:"webhook_id"`
	EventType   string          `db:"event_type" json:"event_type"`
	Payload     json.RawMessage `db:"payload" json:"payload"`
	Processed   bool            `db:"processed" json:"processed"`
	ReceivedAt  time.Time       `db:"received_at" json:"received_at"`
	ProcessedAt *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
}
