// internal/service/enrich_service.go
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/socialify/inbox-backend/internal/ai"
	"github.com/socialify/inbox-backend/internal/cache"
	"github.com/socialify/inbox-backend/internal/queue"
	"github.com/socialify/inbox-backend/internal/repository"
)

// EnrichService classifies one stored message through the prediction
// collaborator and writes the result back exactly once. It runs on the
// dispatcher's workers (or cmd/worker), never inside an ingestion request,
// and uses its own repository access.
type EnrichService struct {
	MessageRepo repository.MessageRepositoryInterface
	Classifier  ai.ClassifierInterface
	Cache       cache.InvalidatorInterface
	Logger      *zap.Logger
}

// HandleJob is the queue.Handler. Any failure leaves the record with
// ai_processed=false; it is never retried automatically.
func (s *EnrichService) HandleJob(ctx context.Context, job queue.EnrichmentJob) error {
	msg, err := s.MessageRepo.GetByID(job.MessageRecordID)
	if err != nil {
		return err
	}
	if msg.AIProcessed {
		// Already enriched (e.g. queue delivered the job twice).
		return nil
	}

	prediction, err := s.Classifier.Predict(ctx, ai.PredictRequest{
		SubjectPreview: job.SubjectPreview,
		SenderDomain:   job.SenderDomain,
		Source:         job.Source,
		TenantID:       job.TenantID,
	})
	if err != nil {
		return err
	}

	if err := s.MessageRepo.UpdateEnrichment(msg.ID, prediction.Priority, prediction.Context, prediction.Confidence); err != nil {
		return err
	}

	if s.Cache != nil {
		if err := s.Cache.InvalidateTenant(ctx, job.TenantID); err != nil {
			s.Logger.Warn("cache invalidation failed after enrichment",
				zap.Int64("tenant_id", job.TenantID),
				zap.Error(err),
			)
		}
	}

	s.Logger.Info("message enriched",
		zap.Int64("message_record_id", msg.ID),
		zap.Int64("tenant_id", job.TenantID),
		zap.String("priority", prediction.Priority),
	)
	return nil
}
