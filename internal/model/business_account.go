// internal/model/business_account.go
package model

import "time"

// BusinessAccount is one provider-registered WhatsApp Business Account (WABA)
// owned by exactly one tenant. Credentials are stored as opaque vault output
// and never leave the vault decrypted outside a single send operation.
type BusinessAccount struct {
	ID           int64  `db:"id" json:"id"`
	TenantID     int64  `db:"tenant_id" json:"tenant_id"`
	WabaID       string `db:"waba_id" json:"waba_id"`
	BusinessName string `db:"business_name" json:"business_name"`
	MetaUserID   string `db:"meta_user_id" json:"-"`

	AccessTokenEncrypted  string     `db:"access_token_encrypted" json:"-"`
	RefreshTokenEncrypted string     `db:"refresh_token_encrypted" json:"-"`
	TokenExpiresAt        *time.Time `db:"token_expires_at" json:"-"`

	IsActive          bool       `db:"is_active" json:"is_active"`
	WebhookConfigured bool       `db:"webhook_configured" json:"webhook_configured"`
	ConnectedAt       time.Time  `db:"connected_at" json:"connected_at"`
	LastSync          *time.Time `db:"last_sync" json:"last_sync,omitempty"`
}
