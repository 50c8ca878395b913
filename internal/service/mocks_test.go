package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/socialify/inbox-backend/internal/ai"
	appErrors "github.com/socialify/inbox-backend/internal/errors"
	"github.com/socialify/inbox-backend/internal/model"
	"github.com/socialify/inbox-backend/internal/queue"
)

// Mock repositories and collaborators, shared across the service tests.

type mockTenantRepo struct {
	routes   map[string]*model.TenantRoute
	accounts map[int64]*model.BusinessAccount
	synced   []int64
}

func newMockTenantRepo() *mockTenantRepo {
	return &mockTenantRepo{
		routes:   map[string]*model.TenantRoute{},
		accounts: map[int64]*model.BusinessAccount{},
	}
}

func (m *mockTenantRepo) ResolvePhoneNumberID(phoneNumberID string) (*model.TenantRoute, error) {
	if route, ok := m.routes[phoneNumberID]; ok {
		return route, nil
	}
	return nil, appErrors.NewRoutingNotFound(phoneNumberID)
}

func (m *mockTenantRepo) GetBusinessAccount(id int64) (*model.BusinessAccount, error) {
	if ba, ok := m.accounts[id]; ok {
		return ba, nil
	}
	return nil, appErrors.NewPersistenceError("get business account", fmt.Errorf("no account %d", id))
}

func (m *mockTenantRepo) TouchLastSync(wabaRecordID int64) error {
	m.synced = append(m.synced, wabaRecordID)
	return nil
}

func (m *mockTenantRepo) ListAccounts(tenantID int64) ([]model.BusinessAccount, error) {
	return nil, nil
}

func (m *mockTenantRepo) ListPhoneNumbers(wabaRecordID int64) ([]model.PhoneNumber, error) {
	return nil, nil
}

type mockMessageRepo struct {
	mu       sync.Mutex
	nextID   int64
	byKey    map[string]*model.Message
	byID     map[int64]*model.Message
	statuses []string

	failInsertFor string // provider message id whose insert should fail
	enriched      map[int64]ai.Prediction
}

func newMockMessageRepo() *mockMessageRepo {
	return &mockMessageRepo{
		byKey:    map[string]*model.Message{},
		byID:     map[int64]*model.Message{},
		enriched: map[int64]ai.Prediction{},
	}
}

func msgKey(tenantID int64, providerMessageID string) string {
	return fmt.Sprintf("%d/%s", tenantID, providerMessageID)
}

func (m *mockMessageRepo) InsertIgnoreDuplicate(msg *model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if msg.ProviderMessageID == m.failInsertFor {
		return appErrors.NewPersistenceError("insert message", fmt.Errorf("write failed"))
	}

	key := msgKey(msg.TenantID, msg.ProviderMessageID)
	if _, exists := m.byKey[key]; exists {
		return appErrors.ErrDuplicateMessage
	}

	m.nextID++
	msg.ID = m.nextID
	stored := *msg
	m.byKey[key] = &stored
	m.byID[msg.ID] = &stored
	return nil
}

func (m *mockMessageRepo) GetByID(id int64) (*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := m.byID[id]; ok {
		copied := *msg
		return &copied, nil
	}
	return nil, appErrors.NewPersistenceError("get message", fmt.Errorf("no message %d", id))
}

func (m *mockMessageRepo) UpdateEnrichment(id int64, priority, context string, confidence float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.byID[id]
	if !ok {
		return appErrors.NewPersistenceError("update enrichment", fmt.Errorf("no message %d", id))
	}
	if msg.AIProcessed {
		return nil
	}
	msg.AIProcessed = true
	msg.PredictedPriority = &priority
	msg.PredictedContext = &context
	msg.PredictionConfidence = &confidence
	m.enriched[id] = ai.Prediction{Priority: priority, Context: context, Confidence: confidence}
	return nil
}

func (m *mockMessageRepo) UpdateDeliveryStatus(tenantID int64, providerMessageID, status string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, msgKey(tenantID, providerMessageID)+":"+status)
	if msg, ok := m.byKey[msgKey(tenantID, providerMessageID)]; ok {
		msg.Status = status
	}
	return nil
}

func (m *mockMessageRepo) ListByTenant(tenantID int64, phoneRecordID *int64, limit, offset int) ([]model.Message, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Message{}
	for _, msg := range m.byKey {
		if msg.TenantID == tenantID {
			out = append(out, *msg)
		}
	}
	return out, len(out), nil
}

func (m *mockMessageRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byKey)
}

type mockWebhookRepo struct {
	inserted  int
	processed int
}

func (m *mockWebhookRepo) Insert(ev *model.WebhookEvent) error {
	m.inserted++
	ev.ID = int64(m.inserted)
	return nil
}

func (m *mockWebhookRepo) MarkProcessed(id int64) error {
	m.processed++
	return nil
}

type mockQueue struct {
	mu   sync.Mutex
	jobs []queue.EnrichmentJob
}

func (m *mockQueue) Dispatch(job queue.EnrichmentJob) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
	return true
}

func (m *mockQueue) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

type mockSender struct {
	calls  int
	lastTo string
	nextID string
	err    error
}

func (m *mockSender) SendText(ctx context.Context, phoneNumberID, to, body, accessToken string) (string, error) {
	m.calls++
	m.lastTo = to
	if m.err != nil {
		return "", m.err
	}
	return m.nextID, nil
}

func (m *mockSender) SendTemplate(ctx context.Context, phoneNumberID, to, templateName, languageCode, accessToken string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.nextID, nil
}

type mockClassifier struct {
	prediction *ai.Prediction
	err        error
	calls      int
}

func (m *mockClassifier) Predict(ctx context.Context, req ai.PredictRequest) (*ai.Prediction, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.prediction, nil
}

type mockCache struct {
	mu          sync.Mutex
	invalidated []int64
}

func (m *mockCache) InvalidateTenant(ctx context.Context, tenantID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, tenantID)
	return nil
}
