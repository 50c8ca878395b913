package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/socialify/inbox-backend/internal/errors"
)

func setupTenantRepo(t *testing.T) (*TenantRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &TenantRepository{DB: db}, mock
}

func TestResolvePhoneNumberIDFound(t *testing.T) {
	repo, mock := setupTenantRepo(t)

	mock.ExpectQuery("SELECT ba.tenant_id, ba.id, pn.id").
		WithArgs("111222333").
		WillReturnRows(sqlmock.NewRows([]string{"tenant_id", "id", "id"}).AddRow(7, 3, 5))

	route, err := repo.ResolvePhoneNumberID("111222333")
	require.NoError(t, err)
	assert.Equal(t, int64(7), route.TenantID)
	assert.Equal(t, int64(3), route.WabaRecordID)
	assert.Equal(t, int64(5), route.PhoneRecordID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolvePhoneNumberIDNotFound(t *testing.T) {
	repo, mock := setupTenantRepo(t)

	// Unknown numbers and numbers under deactivated accounts both come back
	// with no row; the caller cannot tell them apart.
	mock.ExpectQuery("SELECT ba.tenant_id, ba.id, pn.id").
		WithArgs("999").
		WillReturnError(sql.ErrNoRows)

	route, err := repo.ResolvePhoneNumberID("999")
	require.Error(t, err)
	assert.Nil(t, route)

	var notFound *appErrors.RoutingNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "999", notFound.PhoneNumberID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolvePhoneNumberIDQueryFailure(t *testing.T) {
	repo, mock := setupTenantRepo(t)

	mock.ExpectQuery("SELECT ba.tenant_id, ba.id, pn.id").
		WithArgs("111").
		WillReturnError(sql.ErrConnDone)

	_, err := repo.ResolvePhoneNumberID("111")
	require.Error(t, err)

	var persistence *appErrors.PersistenceError
	assert.ErrorAs(t, err, &persistence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTouchLastSync(t *testing.T) {
	repo, mock := setupTenantRepo(t)

	mock.ExpectExec("UPDATE business_accounts SET last_sync").
		WithArgs(sqlmock.AnyArg(), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.TouchLastSync(3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAccounts(t *testing.T) {
	repo, mock := setupTenantRepo(t)

	connected := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "tenant_id", "waba_id", "business_name", "is_active",
		"webhook_configured", "connected_at", "last_sync",
	}).
		AddRow(3, 7, "waba-123", "Acme Corp", true, true, connected, nil).
		AddRow(4, 7, "waba-456", "Acme Retail", false, false, connected, nil)

	mock.ExpectQuery("FROM business_accounts").WithArgs(int64(7)).WillReturnRows(rows)

	accounts, err := repo.ListAccounts(7)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "waba-123", accounts[0].WabaID)
	assert.False(t, accounts[1].IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}
