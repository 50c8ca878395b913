// internal/service/ingest_service.go
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/socialify/inbox-backend/internal/cache"
	appErrors "github.com/socialify/inbox-backend/internal/errors"
	"github.com/socialify/inbox-backend/internal/model"
	"github.com/socialify/inbox-backend/internal/queue"
	"github.com/socialify/inbox-backend/internal/repository"
	"github.com/socialify/inbox-backend/internal/webhook"
)

// Per-item outcome statuses.
const (
	OutcomeProcessed = "processed"
	OutcomeDuplicate = "duplicate"
	OutcomeError     = "error"
)

type IngestService struct {
	TenantRepo  repository.TenantRepositoryInterface
	MessageRepo repository.MessageRepositoryInterface
	WebhookRepo repository.WebhookEventRepositoryInterface
	Cache       cache.InvalidatorInterface
	Queue       queue.Queue
	Logger      *zap.Logger
}

// MessageOutcome is the per-item result of a webhook batch.
type MessageOutcome struct {
	ProviderMessageID string `json:"provider_message_id,omitempty"`
	PhoneNumberID     string `json:"phone_number_id,omitempty"`
	TenantID          int64  `json:"tenant_id,omitempty"`
	Status            string `json:"status"`
	Error             string `json:"error,omitempty"`
}

type IngestResult struct {
	ProcessedCount int              `json:"processed_count"`
	DuplicateCount int              `json:"duplicate_count"`
	ErrorCount     int              `json:"error_count"`
	Outcomes       []MessageOutcome `json:"outcomes"`
}

func (r *IngestResult) addError(outcome MessageOutcome) {
	outcome.Status = OutcomeError
	r.ErrorCount++
	r.Outcomes = append(r.Outcomes, outcome)
}

// Ingest processes one webhook delivery. Shape validation failure is fatal
// and nothing is written; every later failure is per-item, collected into the
// result so the HTTP layer can still acknowledge the delivery.
func (s *IngestService) Ingest(ctx context.Context, raw []byte) (*IngestResult, error) {
	payload, err := webhook.Parse(raw)
	if err != nil {
		return nil, err
	}

	audit := &model.WebhookEvent{
		WebhookID: uuid.NewString(),
		EventType: "messages",
		Payload:   raw,
	}
	if err := s.WebhookRepo.Insert(audit); err != nil {
		// Audit trail is diagnostics only.
		s.Logger.Warn("webhook audit insert failed", zap.Error(err))
	}

	result := &IngestResult{Outcomes: []MessageOutcome{}}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			s.processValue(ctx, change.Value, result)
		}
	}

	if audit.ID != 0 {
		if err := s.WebhookRepo.MarkProcessed(audit.ID); err != nil {
			s.Logger.Warn("webhook audit update failed", zap.Error(err))
		}
	}

	s.Logger.Info("webhook delivery processed",
		zap.Int("processed", result.ProcessedCount),
		zap.Int("duplicates", result.DuplicateCount),
		zap.Int("errors", result.ErrorCount),
	)
	return result, nil
}

func (s *IngestService) processValue(ctx context.Context, value webhook.Value, result *IngestResult) {
	phoneNumberID := value.Metadata.PhoneNumberID
	if phoneNumberID == "" {
		s.Logger.Warn("webhook value without phone_number_id, skipping")
		result.addError(MessageOutcome{Error: "missing phone_number_id routing key"})
		return
	}

	route, err := s.TenantRepo.ResolvePhoneNumberID(phoneNumberID)
	if err != nil {
		var notFound *appErrors.RoutingNotFoundError
		if errors.As(err, &notFound) {
			s.Logger.Warn("no tenant route for webhook value",
				zap.String("phone_number_id", phoneNumberID),
			)
		} else {
			s.Logger.Error("tenant resolution failed",
				zap.String("phone_number_id", phoneNumberID),
				zap.Error(err),
			)
		}
		result.addError(MessageOutcome{PhoneNumberID: phoneNumberID, Error: err.Error()})
		return
	}

	if err := s.TenantRepo.TouchLastSync(route.WabaRecordID); err != nil {
		s.Logger.Warn("last sync update failed", zap.Int64("waba_record_id", route.WabaRecordID), zap.Error(err))
	}

	// Delivery state transitions for outbound messages ride the same change.
	for _, st := range value.Statuses {
		if err := s.MessageRepo.UpdateDeliveryStatus(route.TenantID, st.ID, st.Status, webhook.StatusTime(st)); err != nil {
			s.Logger.Warn("status update failed",
				zap.String("provider_message_id", st.ID),
				zap.String("status", st.Status),
				zap.Error(err),
			)
		}
	}

	wrote := false
	for _, m := range value.Messages {
		if s.processMessage(route, phoneNumberID, value, m, result) {
			wrote = true
		}
	}

	if wrote && s.Cache != nil {
		if err := s.Cache.InvalidateTenant(ctx, route.TenantID); err != nil {
			s.Logger.Warn("cache invalidation failed after ingest",
				zap.Int64("tenant_id", route.TenantID),
				zap.Error(err),
			)
		}
	}
}

// processMessage persists one inbound message and schedules enrichment.
// Returns true when a new record was written.
func (s *IngestService) processMessage(route *model.TenantRoute, phoneNumberID string, value webhook.Value, m webhook.Message, result *IngestResult) bool {
	kind := webhook.KindOf(m)

	msg := &model.Message{
		TenantID:          route.TenantID,
		WabaRecordID:      route.WabaRecordID,
		PhoneRecordID:     route.PhoneRecordID,
		ProviderMessageID: m.ID,
		Direction:         model.DirectionInbound,
		ContactPhone:      m.From,
		ContactName:       webhook.ContactName(value, m.From),
		MessageType:       string(kind),
		TemplateName:      webhook.TemplateName(m),
		ContentHash:       webhook.Fingerprint(m),
		Status:            model.StatusReceived,
	}
	if ts := webhook.SentTime(m); !ts.IsZero() {
		msg.SentAt = &ts
	}

	if err := s.MessageRepo.InsertIgnoreDuplicate(msg); err != nil {
		if errors.Is(err, appErrors.ErrDuplicateMessage) {
			// Same delivery seen before: no second write, no second dispatch.
			result.DuplicateCount++
			result.Outcomes = append(result.Outcomes, MessageOutcome{
				ProviderMessageID: m.ID,
				PhoneNumberID:     phoneNumberID,
				TenantID:          route.TenantID,
				Status:            OutcomeDuplicate,
			})
			return false
		}
		s.Logger.Error("message persist failed",
			zap.String("provider_message_id", m.ID),
			zap.Int64("tenant_id", route.TenantID),
			zap.Error(err),
		)
		result.addError(MessageOutcome{
			ProviderMessageID: m.ID,
			PhoneNumberID:     phoneNumberID,
			TenantID:          route.TenantID,
			Error:             err.Error(),
		})
		return false
	}

	s.Queue.Dispatch(queue.EnrichmentJob{
		MessageRecordID: msg.ID,
		TenantID:        route.TenantID,
		SubjectPreview:  webhook.Preview(m),
		Source:          "whatsapp",
	})

	result.ProcessedCount++
	result.Outcomes = append(result.Outcomes, MessageOutcome{
		ProviderMessageID: m.ID,
		PhoneNumberID:     phoneNumberID,
		TenantID:          route.TenantID,
		Status:            OutcomeProcessed,
	})
	return true
}
