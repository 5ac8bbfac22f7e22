package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/commercive/backend/internal/domain/payout"
	"github.com/commercive/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockPayoutRepository(t *testing.T) (*GormPayoutRequestRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	ledgerRepo := NewGormLedgerRepository(gormDB)
	return NewGormPayoutRequestRepository(gormDB, ledgerRepo), mock, mockDB
}

func payoutRows(id, tenantID, affiliateID uuid.UUID, status payout.RequestStatus, amount decimal.Decimal, version int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "tenant_id", "affiliate_id", "affiliate_name", "amount", "currency",
		"method", "status", "version", "created_at", "updated_at",
	}).AddRow(id, tenantID, affiliateID, "Jane Doe", amount, "USD",
		payout.MethodPaypal, status, version, time.Now(), time.Now())
}

func TestGormPayoutRequestRepository_Create(t *testing.T) {
	t.Run("inserts a new request", func(t *testing.T) {
		repo, mock, mockDB := newMockPayoutRepository(t)
		defer mockDB.Close()

		req, err := payout.NewRequest(uuid.New(), uuid.New(), "Jane Doe",
			decimal.NewFromInt(100), "USD", payout.MethodPaypal, "jane@example.com", nil)
		require.NoError(t, err)

		mock.ExpectExec(`INSERT INTO "payout_requests"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(context.Background(), req))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPayoutRequestRepository_FindByID(t *testing.T) {
	t.Run("finds existing request", func(t *testing.T) {
		repo, mock, mockDB := newMockPayoutRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		tenantID := uuid.New()
		affiliateID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "payout_requests" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, id, 1).
			WillReturnRows(payoutRows(id, tenantID, affiliateID, payout.StatusRequested, decimal.NewFromInt(100), 1))

		req, err := repo.FindByID(context.Background(), tenantID, id)

		require.NoError(t, err)
		assert.Equal(t, payout.StatusRequested, req.Status)
		assert.Equal(t, affiliateID, req.AffiliateID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing request", func(t *testing.T) {
		repo, mock, mockDB := newMockPayoutRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "payout_requests"`).
			WillReturnError(gorm.ErrRecordNotFound)

		req, err := repo.FindByID(context.Background(), uuid.New(), uuid.New())

		assert.Nil(t, req)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPayoutRequestRepository_Save(t *testing.T) {
	t.Run("saves with version check", func(t *testing.T) {
		repo, mock, mockDB := newMockPayoutRepository(t)
		defer mockDB.Close()

		req, err := payout.NewRequest(uuid.New(), uuid.New(), "Jane Doe",
			decimal.NewFromInt(100), "USD", payout.MethodPaypal, "jane@example.com", nil)
		require.NoError(t, err)
		require.NoError(t, req.Approve(uuid.New()))

		mock.ExpectExec(`UPDATE "payout_requests" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Save(context.Background(), req))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports a lost optimistic lock race", func(t *testing.T) {
		repo, mock, mockDB := newMockPayoutRepository(t)
		defer mockDB.Close()

		req, err := payout.NewRequest(uuid.New(), uuid.New(), "Jane Doe",
			decimal.NewFromInt(100), "USD", payout.MethodPaypal, "jane@example.com", nil)
		require.NoError(t, err)
		require.NoError(t, req.Approve(uuid.New()))

		mock.ExpectExec(`UPDATE "payout_requests" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = repo.Save(context.Background(), req)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPayoutRequestRepository_MarkPaid(t *testing.T) {
	t.Run("pairs the paid transition with the ledger adjustment", func(t *testing.T) {
		repo, mock, mockDB := newMockPayoutRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		tenantID := uuid.New()
		affiliateID := uuid.New()
		operatorID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "payout_requests" WHERE tenant_id = \$1 AND id = \$2`).
			WithArgs(tenantID, id, 1).
			WillReturnRows(payoutRows(id, tenantID, affiliateID, payout.StatusApproved, decimal.NewFromInt(75), 2))
		mock.ExpectExec(`UPDATE "payout_requests" SET .* WHERE tenant_id = \$\d+ AND id = \$\d+ AND status = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE "ledger_entries" SET .* AND gross_commission - paid_amount >= \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		paid, err := repo.MarkPaid(context.Background(), tenantID, id, operatorID, "TXN-555")

		require.NoError(t, err)
		assert.Equal(t, payout.StatusPaid, paid.Status)
		assert.Equal(t, "TXN-555", paid.PaymentRef)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects a request that is not approved", func(t *testing.T) {
		repo, mock, mockDB := newMockPayoutRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		tenantID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "payout_requests"`).
			WithArgs(tenantID, id, 1).
			WillReturnRows(payoutRows(id, tenantID, uuid.New(), payout.StatusRequested, decimal.NewFromInt(75), 1))
		mock.ExpectRollback()

		paid, err := repo.MarkPaid(context.Background(), tenantID, id, uuid.New(), "TXN-1")

		assert.Nil(t, paid)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back the transition when the ledger guard fails", func(t *testing.T) {
		repo, mock, mockDB := newMockPayoutRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		tenantID := uuid.New()
		affiliateID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "payout_requests"`).
			WithArgs(tenantID, id, 1).
			WillReturnRows(payoutRows(id, tenantID, affiliateID, payout.StatusApproved, decimal.NewFromInt(9999), 2))
		mock.ExpectExec(`UPDATE "payout_requests" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE "ledger_entries" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "ledger_entries"`).
			WithArgs(tenantID, affiliateID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectRollback()

		paid, err := repo.MarkPaid(context.Background(), tenantID, id, uuid.New(), "TXN-2")

		assert.Nil(t, paid)
		assert.ErrorIs(t, err, shared.ErrLedgerInvariant)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPayoutRequestRepository_List(t *testing.T) {
	t.Run("applies status filter and stable ordering", func(t *testing.T) {
		repo, mock, mockDB := newMockPayoutRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		status := payout.StatusRequested

		mock.ExpectQuery(`SELECT count\(\*\) FROM "payout_requests" WHERE tenant_id = \$1 AND status = \$2`).
			WithArgs(tenantID, status).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`SELECT \* FROM "payout_requests" WHERE tenant_id = \$1 AND status = \$2 ORDER BY amount DESC, created_at ASC, id ASC`).
			WithArgs(tenantID, status, 10).
			WillReturnRows(payoutRows(uuid.New(), tenantID, uuid.New(), status, decimal.NewFromInt(10), 1))

		requests, total, err := repo.List(context.Background(), tenantID, payout.Filter{
			Status:  &status,
			SortBy:  "amount",
			SortDir: shared.SortDesc,
			Page:    shared.Page{Number: 1, Size: 10},
		})

		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, requests, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
