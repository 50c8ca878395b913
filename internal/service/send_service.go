// internal/service/send_service.go
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/socialify/inbox-backend/internal/cache"
	appErrors "github.com/socialify/inbox-backend/internal/errors"
	"github.com/socialify/inbox-backend/internal/model"
	"github.com/socialify/inbox-backend/internal/provider"
	"github.com/socialify/inbox-backend/internal/repository"
	"github.com/socialify/inbox-backend/internal/vault"
	"github.com/socialify/inbox-backend/internal/webhook"
)

// CredentialOpener decrypts stored credential blobs. Satisfied by
// *vault.Vault.
type CredentialOpener interface {
	Decrypt(blob string) (vault.Credential, error)
}

// SendService is the outbound message gateway: it sends through the calling
// tenant's own credentials and records the result.
type SendService struct {
	TenantRepo  repository.TenantRepositoryInterface
	MessageRepo repository.MessageRepositoryInterface
	Vault       CredentialOpener
	Sender      provider.SenderInterface
	Cache       cache.InvalidatorInterface
	Logger      *zap.Logger
}

type SendResult struct {
	ProviderMessageID string `json:"provider_message_id"`
	Status            string `json:"status"`
}

// Send resolves the phone number, checks the caller owns it, decrypts the
// account credential for this one call, sends, and persists the outbound
// record. Failed sends are not retried; the provider error goes back to the
// caller verbatim.
func (s *SendService) Send(ctx context.Context, tenantID int64, phoneNumberID, to, body string) (*SendResult, error) {
	route, err := s.TenantRepo.ResolvePhoneNumberID(phoneNumberID)
	if err != nil {
		return nil, err
	}
	if route.TenantID != tenantID {
		s.Logger.Warn("send rejected: phone number owned by another tenant",
			zap.Int64("tenant_id", tenantID),
			zap.String("phone_number_id", phoneNumberID),
		)
		return nil, appErrors.NewAuthorizationError(tenantID, phoneNumberID)
	}

	account, err := s.TenantRepo.GetBusinessAccount(route.WabaRecordID)
	if err != nil {
		return nil, err
	}

	// Decrypted fresh per send, discarded with this call's stack. A decrypt
	// failure means the tenant must reconnect, never "no credential".
	cred, err := s.Vault.Decrypt(account.AccessTokenEncrypted)
	if err != nil {
		return nil, err
	}

	providerMessageID, err := s.Sender.SendText(ctx, phoneNumberID, to, body, cred.AccessToken)
	if err != nil {
		return nil, err
	}

	fingerprint := webhook.Fingerprint(webhook.Message{
		Type: "text",
		Text: &struct {
			Body string `json:"body"`
		}{Body: body},
	})

	now := time.Now().UTC()
	msg := &model.Message{
		TenantID:          tenantID,
		WabaRecordID:      route.WabaRecordID,
		PhoneRecordID:     route.PhoneRecordID,
		ProviderMessageID: providerMessageID,
		Direction:         model.DirectionOutbound,
		ContactPhone:      to,
		MessageType:       string(webhook.KindText),
		ContentHash:       fingerprint,
		Status:            model.StatusSent,
		SentAt:            &now,
	}
	if err := s.MessageRepo.InsertIgnoreDuplicate(msg); err != nil && !errors.Is(err, appErrors.ErrDuplicateMessage) {
		// The provider accepted the message; losing the record is a
		// diagnostics gap, not a failed send.
		s.Logger.Error("outbound record persist failed",
			zap.String("provider_message_id", providerMessageID),
			zap.Int64("tenant_id", tenantID),
			zap.Error(err),
		)
	} else if s.Cache != nil {
		if err := s.Cache.InvalidateTenant(ctx, tenantID); err != nil {
			s.Logger.Warn("cache invalidation failed after send",
				zap.Int64("tenant_id", tenantID),
				zap.Error(err),
			)
		}
	}

	s.Logger.Info("message sent",
		zap.Int64("tenant_id", tenantID),
		zap.String("phone_number_id", phoneNumberID),
		zap.String("provider_message_id", providerMessageID),
	)
	return &SendResult{ProviderMessageID: providerMessageID, Status: model.StatusSent}, nil
}
