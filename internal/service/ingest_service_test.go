package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/socialify/inbox-backend/internal/errors"
	"github.com/socialify/inbox-backend/internal/model"
)

func setupIngest(t *testing.T) (*IngestService, *mockTenantRepo, *mockMessageRepo, *mockWebhookRepo, *mockQueue, *mockCache) {
	t.Helper()
	tenants := newMockTenantRepo()
	messages := newMockMessageRepo()
	webhooks := &mockWebhookRepo{}
	q := &mockQueue{}
	c := &mockCache{}
	svc := &IngestService{
		TenantRepo:  tenants,
		MessageRepo: messages,
		WebhookRepo: webhooks,
		Cache:       c,
		Queue:       q,
		Logger:      zap.NewNop(),
	}
	return svc, tenants, messages, webhooks, q, c
}

func webhookBody(phoneNumberID string, messageIDs ...string) []byte {
	body := `{"object":"whatsapp_business_account","entry":[{"id":"waba-1","changes":[{"field":"messages","value":{` +
		`"messaging_product":"whatsapp",` +
		`"metadata":{"display_phone_number":"15550001111","phone_number_id":"` + phoneNumberID + `"},` +
		`"contacts":[{"wa_id":"5511999990000","profile":{"name":"Ana"}}],` +
		`"messages":[`
	for i, id := range messageIDs {
		if i > 0 {
			body += ","
		}
		body += `{"id":"` + id + `","from":"5511999990000","timestamp":"1714000000","type":"text","text":{"body":"hello ` + id + `"}}`
	}
	return []byte(body + `]}}]}]}`)
}

func TestIngestPersistsAndDispatches(t *testing.T) {
	svc, tenants, messages, webhooks, q, c := setupIngest(t)
	tenants.routes["111"] = &model.TenantRoute{TenantID: 7, WabaRecordID: 3, PhoneRecordID: 5}

	result, err := svc.Ingest(context.Background(), webhookBody("111", "wamid.A"))
	require.NoError(t, err)

	assert.Equal(t, 1, result.ProcessedCount)
	assert.Equal(t, 0, result.DuplicateCount)
	assert.Equal(t, 0, result.ErrorCount)

	require.Equal(t, 1, messages.count())
	stored := messages.byKey[msgKey(7, "wamid.A")]
	require.NotNil(t, stored)
	assert.Equal(t, model.DirectionInbound, stored.Direction)
	assert.Equal(t, model.StatusReceived, stored.Status)
	assert.Equal(t, "Ana", stored.ContactName)
	assert.NotEmpty(t, stored.ContentHash, "content fingerprint should be stored")
	assert.Equal(t, int64(3), stored.WabaRecordID)
	assert.Equal(t, int64(5), stored.PhoneRecordID)

	require.Equal(t, 1, q.count())
	job := q.jobs[0]
	assert.Equal(t, stored.ID, job.MessageRecordID)
	assert.Equal(t, int64(7), job.TenantID)
	assert.Equal(t, "hello wamid.A", job.SubjectPreview)

	assert.Equal(t, []int64{3}, tenants.synced)
	assert.Equal(t, []int64{7}, c.invalidated)
	assert.Equal(t, 1, webhooks.inserted)
	assert.Equal(t, 1, webhooks.processed)
}

func TestIngestDuplicateDeliveryIsIdempotent(t *testing.T) {
	svc, tenants, messages, _, q, _ := setupIngest(t)
	tenants.routes["111"] = &model.TenantRoute{TenantID: 7, WabaRecordID: 3, PhoneRecordID: 5}

	body := webhookBody("111", "wamid.A")

	first, err := svc.Ingest(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, 1, first.ProcessedCount)

	second, err := svc.Ingest(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, 0, second.ProcessedCount)
	assert.Equal(t, 1, second.DuplicateCount)
	assert.Equal(t, 0, second.ErrorCount)
	require.Len(t, second.Outcomes, 1)
	assert.Equal(t, OutcomeDuplicate, second.Outcomes[0].Status)

	assert.Equal(t, 1, messages.count(), "redelivery must not create a second record")
	assert.Equal(t, 1, q.count(), "redelivery must not dispatch a second enrichment")
}

func TestIngestUnknownPhoneNumberCollectsError(t *testing.T) {
	svc, _, messages, _, q, _ := setupIngest(t)

	result, err := svc.Ingest(context.Background(), webhookBody("999", "wamid.A"))
	require.NoError(t, err, "routing failures are per-item, the delivery is still acknowledged")

	assert.Equal(t, 0, result.ProcessedCount)
	assert.Equal(t, 1, result.ErrorCount)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, OutcomeError, result.Outcomes[0].Status)
	assert.Equal(t, "999", result.Outcomes[0].PhoneNumberID)

	assert.Equal(t, 0, messages.count())
	assert.Equal(t, 0, q.count())
}

func TestIngestBatchContinuesPastFailures(t *testing.T) {
	svc, tenants, messages, _, q, _ := setupIngest(t)
	tenants.routes["111"] = &model.TenantRoute{TenantID: 7, WabaRecordID: 3, PhoneRecordID: 5}

	// Five values in one delivery; the third one has no routing key.
	values := ""
	for i := 1; i <= 5; i++ {
		if i > 1 {
			values += ","
		}
		phoneNumberID := `"111"`
		if i == 3 {
			phoneNumberID = `""`
		}
		values += fmt.Sprintf(`{"field":"messages","value":{"messaging_product":"whatsapp","metadata":{"phone_number_id":%s},"messages":[{"id":"wamid.%d","from":"5511999990000","timestamp":"1714000000","type":"text","text":{"body":"msg %d"}}]}}`, phoneNumberID, i, i)
	}
	body := []byte(`{"object":"whatsapp_business_account","entry":[{"id":"waba-1","changes":[` + values + `]}]}`)

	result, err := svc.Ingest(context.Background(), body)
	require.NoError(t, err)

	assert.Equal(t, 4, result.ProcessedCount)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Equal(t, 4, messages.count())
	assert.Equal(t, 4, q.count())
}

func TestIngestTwoTenantsStayIsolated(t *testing.T) {
	svc, tenants, messages, _, _, c := setupIngest(t)
	tenants.routes["111"] = &model.TenantRoute{TenantID: 7, WabaRecordID: 3, PhoneRecordID: 5}
	tenants.routes["222"] = &model.TenantRoute{TenantID: 8, WabaRecordID: 4, PhoneRecordID: 6}

	body := []byte(`{"object":"whatsapp_business_account","entry":[{"id":"waba-1","changes":[` +
		`{"field":"messages","value":{"messaging_product":"whatsapp","metadata":{"phone_number_id":"111"},"messages":[{"id":"wamid.A","from":"551","timestamp":"1714000000","type":"text","text":{"body":"a"}}]}},` +
		`{"field":"messages","value":{"messaging_product":"whatsapp","metadata":{"phone_number_id":"222"},"messages":[{"id":"wamid.B","from":"552","timestamp":"1714000000","type":"text","text":{"body":"b"}}]}}` +
		`]}]}`)

	result, err := svc.Ingest(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, 2, result.ProcessedCount)

	a := messages.byKey[msgKey(7, "wamid.A")]
	b := messages.byKey[msgKey(8, "wamid.B")]
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, int64(7), a.TenantID)
	assert.Equal(t, int64(8), b.TenantID)
	assert.ElementsMatch(t, []int64{7, 8}, c.invalidated)
}

func TestIngestMalformedPayloadIsFatal(t *testing.T) {
	svc, _, messages, webhooks, _, _ := setupIngest(t)

	for _, raw := range [][]byte{
		[]byte(`not json`),
		[]byte(`{"object":"whatsapp_business_account","entry":[]}`),
	} {
		result, err := svc.Ingest(context.Background(), raw)
		require.Error(t, err)
		assert.Nil(t, result)

		var validation *appErrors.ValidationError
		assert.ErrorAs(t, err, &validation)
	}

	assert.Equal(t, 0, messages.count(), "nothing may be written for a rejected payload")
	assert.Equal(t, 0, webhooks.inserted)
}

func TestIngestPersistFailureIsPerItem(t *testing.T) {
	svc, tenants, messages, _, q, _ := setupIngest(t)
	tenants.routes["111"] = &model.TenantRoute{TenantID: 7, WabaRecordID: 3, PhoneRecordID: 5}
	messages.failInsertFor = "wamid.B"

	result, err := svc.Ingest(context.Background(), webhookBody("111", "wamid.A", "wamid.B", "wamid.C"))
	require.NoError(t, err)

	assert.Equal(t, 2, result.ProcessedCount)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Equal(t, 2, q.count(), "failed persist must not enqueue enrichment")
}

func TestIngestAppliesStatusUpdates(t *testing.T) {
	svc, tenants, messages, _, _, _ := setupIngest(t)
	tenants.routes["111"] = &model.TenantRoute{TenantID: 7, WabaRecordID: 3, PhoneRecordID: 5}

	body := []byte(`{"object":"whatsapp_business_account","entry":[{"id":"waba-1","changes":[{"field":"messages","value":{` +
		`"messaging_product":"whatsapp","metadata":{"phone_number_id":"111"},` +
		`"statuses":[{"id":"wamid.OUT","status":"delivered","timestamp":"1714000100","recipient_id":"5511999990000"}]` +
		`}}]}]}`)

	result, err := svc.Ingest(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ProcessedCount)
	assert.Equal(t, []string{"7/wamid.OUT:delivered"}, messages.statuses)
}

func TestIngestSkipsNonMessageChanges(t *testing.T) {
	svc, tenants, messages, _, _, _ := setupIngest(t)
	tenants.routes["111"] = &model.TenantRoute{TenantID: 7, WabaRecordID: 3, PhoneRecordID: 5}

	body := []byte(`{"object":"whatsapp_business_account","entry":[{"id":"waba-1","changes":[` +
		`{"field":"account_update","value":{"messaging_product":"whatsapp","metadata":{"phone_number_id":"111"}}}` +
		`]}]}`)

	result, err := svc.Ingest(context.Background(), body)
	require.NoError(t, err)
	assert.Empty(t, result.Outcomes)
	assert.Equal(t, 0, messages.count())
}
