// internal/repository/tenant_repository.go
package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/socialify/inbox-backend/internal/errors"
	"github.com/socialify/inbox-backend/internal/model"
)

// TenantRepositoryInterface is the tenant directory: it resolves the webhook
// routing key (provider phone number id) to the owning tenant.
type TenantRepositoryInterface interface {
	ResolvePhoneNumberID(phoneNumberID string) (*model.TenantRoute, error)
	GetBusinessAccount(id int64) (*model.BusinessAccount, error)
	TouchLastSync(wabaRecordID int64) error
	ListAccounts(tenantID int64) ([]model.BusinessAccount, error)
	ListPhoneNumbers(wabaRecordID int64) ([]model.PhoneNumber, error)
}

type TenantRepository struct {
	DB *sql.DB
}

// ResolvePhoneNumberID maps a provider phone number id to its tenant route.
// Only active business accounts are eligible: a phone number under a
// deactivated account resolves to RoutingNotFound, same as an unknown one.
func (r *TenantRepository) ResolvePhoneNumberID(phoneNumberID string) (*model.TenantRoute, error) {
	query := `
        SELECT ba.tenant_id, ba.id, pn.id
        FROM phone_numbers pn
        JOIN business_accounts ba ON ba.id = pn.waba_record_id
        WHERE pn.phone_number_id = $1 AND ba.is_active = TRUE
    `
	var route model.TenantRoute
	err := r.DB.QueryRow(query, phoneNumberID).Scan(&route.TenantID, &route.WabaRecordID, &route.PhoneRecordID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewRoutingNotFound(phoneNumberID)
		}
		return nil, appErrors.NewPersistenceError("resolve phone number", err)
	}
	return &route, nil
}

func (r *TenantRepository) GetBusinessAccount(id int64) (*model.BusinessAccount, error) {
	query := `
        SELECT id, tenant_id, waba_id, business_name, meta_user_id,
               access_token_encrypted, refresh_token_encrypted, token_expires_at,
               is_active, webhook_configured, connected_at, last_sync
        FROM business_accounts WHERE id = $1
    `
	var ba model.BusinessAccount
	err := r.DB.QueryRow(query, id).Scan(
		&ba.ID, &ba.TenantID, &ba.WabaID, &ba.BusinessName, &ba.MetaUserID,
		&ba.AccessTokenEncrypted, &ba.RefreshTokenEncrypted, &ba.TokenExpiresAt,
		&ba.IsActive, &ba.WebhookConfigured, &ba.ConnectedAt, &ba.LastSync,
	)
	if err != nil {
		return nil, appErrors.NewPersistenceError("get business account", err)
	}
	return &ba, nil
}

// TouchLastSync records webhook activity on the business account.
func (r *TenantRepository) TouchLastSync(wabaRecordID int64) error {
	query := `UPDATE business_accounts SET last_sync = $1 WHERE id = $2`
	_, err := r.DB.Exec(query, time.Now().UTC(), wabaRecordID)
	if err != nil {
		return appErrors.NewPersistenceError("touch last sync", err)
	}
	return nil
}

func (r *TenantRepository) ListAccounts(tenantID int64) ([]model.BusinessAccount, error) {
	query := `
        SELECT id, tenant_id, waba_id, business_name, is_active,
               webhook_configured, connected_at, last_sync
        FROM business_accounts
        WHERE tenant_id = $1
        ORDER BY connected_at DESC
    `
	rows, err := r.DB.Query(query, tenantID)
	if err != nil {
		return nil, appErrors.NewPersistenceError("list accounts", err)
	}
	defer rows.Close()

	accounts := []model.BusinessAccount{}
	for rows.Next() {
		var ba model.BusinessAccount
		if err := rows.Scan(
			&ba.ID, &ba.TenantID, &ba.WabaID, &ba.BusinessName, &ba.IsActive,
			&ba.WebhookConfigured, &ba.ConnectedAt, &ba.LastSync,
		); err != nil {
			return nil, appErrors.NewPersistenceError("scan account", err)
		}
		accounts = append(accounts, ba)
	}
	return accounts, rows.Err()
}

func (r *TenantRepository) ListPhoneNumbers(wabaRecordID int64) ([]model.PhoneNumber, error) {
	query := `
        SELECT id, waba_record_id, phone_number_id, phone_number, display_name, status, is_verified
        FROM phone_numbers
        WHERE waba_record_id = $1
        ORDER BY id
    `
	rows, err := r.DB.Query(query, wabaRecordID)
	if err != nil {
		return nil, appErrors.NewPersistenceError("list phone numbers", err)
	}
	defer rows.Close()

	phones := []model.PhoneNumber{}
	for rows.Next() {
		var pn model.PhoneNumber
		if err := rows.Scan(&pn.ID, &pn.WabaRecordID, &pn.PhoneNumberID, &pn.PhoneNumber, &pn.DisplayName, &pn.Status, &pn.IsVerified); err != nil {
			return nil, appErrors.NewPersistenceError("scan phone number", err)
		}
		phones = append(phones, pn)
	}
	return phones, rows.Err()
}
