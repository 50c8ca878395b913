// internal/ai/classifier.go
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ClassifierInterface is the external prediction collaborator. It only ever
// sees non-sensitive preview fields, never message bodies or media.
type ClassifierInterface interface {
	Predict(ctx context.Context, req PredictRequest) (*Prediction, error)
}

type PredictRequest struct {
	SubjectPreview string `json:"subject_preview"`
	SenderDomain   string `json:"sender_domain"`
	Source         string `json:"source"`
	TenantID       int64  `json:"tenant_id"`
}

type Prediction struct {
	Priority   string  `json:"priority"`
	Context    string  `json:"context"`
	Confidence float64 `json:"confidence"`
}

type Classifier struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClassifier builds the prediction client. The timeout bounds every call:
// a slow collaborator must not pin enrichment workers.
func NewClassifier(baseURL string, timeout time.Duration, logger *zap.Logger) *Classifier {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Classifier{http: client, logger: logger}
}

func (c *Classifier) Predict(ctx context.Context, req PredictRequest) (*Prediction, error) {
	var prediction Prediction
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&prediction).
		Post("/predict")
	if err != nil {
		return nil, fmt.Errorf("prediction call failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("prediction service returned status %d", resp.StatusCode())
	}

	c.logger.Debug("prediction received",
		zap.Int64("tenant_id", req.TenantID),
		zap.String("priority", prediction.Priority),
		zap.Float64("confidence", prediction.Confidence),
	)
	return &prediction, nil
}

var _ ClassifierInterface = (*Classifier)(nil)
