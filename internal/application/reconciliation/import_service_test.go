package reconciliation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/commercive/backend/internal/domain/affiliate"
	"github.com/commercive/backend/internal/domain/ledger"
	"github.com/commercive/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAffiliateRepo struct {
	identities []*affiliate.Identity
}

func (f *fakeAffiliateRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*affiliate.Identity, error) {
	for _, ident := range f.identities {
		if ident.ID == id {
			return ident, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeAffiliateRepo) FindApprovedForTenant(ctx context.Context, tenantID uuid.UUID) ([]*affiliate.Identity, error) {
	out := make([]*affiliate.Identity, 0, len(f.identities))
	for _, ident := range f.identities {
		if ident.IsApproved() {
			out = append(out, ident)
		}
	}
	return out, nil
}

type fakeLedgerRepo struct {
	merges     []ledger.MergeRequest
	seenOrders map[string]bool
	entries    map[uuid.UUID]*ledger.Entry
	mergeErr   error
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{
		seenOrders: make(map[string]bool),
		entries:    make(map[uuid.UUID]*ledger.Entry),
	}
}

func (f *fakeLedgerRepo) FindByAffiliate(ctx context.Context, tenantID, affiliateID uuid.UUID) (*ledger.Entry, error) {
	if e, ok := f.entries[affiliateID]; ok {
		return e, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeLedgerRepo) List(ctx context.Context, tenantID uuid.UUID, filter ledger.Filter) ([]*ledger.Entry, int64, error) {
	out := make([]*ledger.Entry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

func (f *fakeLedgerRepo) ListAll(ctx context.Context, tenantID uuid.UUID, filter ledger.Filter) ([]*ledger.Entry, error) {
	entries, _, err := f.List(ctx, tenantID, filter)
	return entries, err
}

func (f *fakeLedgerRepo) Merge(ctx context.Context, req ledger.MergeRequest) error {
	if f.mergeErr != nil {
		return f.mergeErr
	}
	if f.seenOrders[req.OrderID] {
		return shared.ErrAlreadyReconciled
	}
	entry, ok := f.entries[req.AffiliateID]
	if ok && entry.Currency != req.Currency {
		return shared.ErrCurrencyMismatch
	}
	if !ok {
		entry, _ = ledger.NewEntry(req.TenantID, req.AffiliateID, req.Currency)
		entry.AffiliateName = req.AffiliateName
		f.entries[req.AffiliateID] = entry
	}
	f.seenOrders[req.OrderID] = true
	f.merges = append(f.merges, req)
	return entry.ApplyOrders(req.OrderCount, req.Gross)
}

func (f *fakeLedgerRepo) AdjustPaid(ctx context.Context, tenantID, affiliateID uuid.UUID, amount decimal.Decimal) error {
	entry, ok := f.entries[affiliateID]
	if !ok {
		return shared.ErrNotFound
	}
	return entry.MarkPaid(amount)
}

func (f *fakeLedgerRepo) AdjustGross(ctx context.Context, tenantID, affiliateID uuid.UUID, delta decimal.Decimal) error {
	entry, ok := f.entries[affiliateID]
	if !ok {
		return shared.ErrNotFound
	}
	return entry.AdjustGross(delta)
}

func (f *fakeLedgerRepo) FindReconciledOrders(ctx context.Context, tenantID, affiliateID uuid.UUID, page shared.Page) ([]*ledger.ReconciledOrder, int64, error) {
	return nil, 0, nil
}

type fakeBatchRepo struct {
	batches   map[uuid.UUID]*ledger.ImportBatch
	unmatched map[uuid.UUID]*ledger.UnmatchedRow
}

func newFakeBatchRepo() *fakeBatchRepo {
	return &fakeBatchRepo{
		batches:   make(map[uuid.UUID]*ledger.ImportBatch),
		unmatched: make(map[uuid.UUID]*ledger.UnmatchedRow),
	}
}

func (f *fakeBatchRepo) CreateBatch(ctx context.Context, batch *ledger.ImportBatch) error {
	f.batches[batch.ID] = batch
	return nil
}

func (f *fakeBatchRepo) SaveBatch(ctx context.Context, batch *ledger.ImportBatch) error {
	f.batches[batch.ID] = batch
	return nil
}

func (f *fakeBatchRepo) FindBatchByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.ImportBatch, error) {
	if b, ok := f.batches[id]; ok {
		return b, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeBatchRepo) ListBatches(ctx context.Context, tenantID uuid.UUID, page shared.Page) ([]*ledger.ImportBatch, int64, error) {
	out := make([]*ledger.ImportBatch, 0, len(f.batches))
	for _, b := range f.batches {
		out = append(out, b)
	}
	return out, int64(len(out)), nil
}

func (f *fakeBatchRepo) CreateUnmatchedRow(ctx context.Context, row *ledger.UnmatchedRow) error {
	f.unmatched[row.ID] = row
	return nil
}

func (f *fakeBatchRepo) FindUnmatchedRowByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.UnmatchedRow, error) {
	if r, ok := f.unmatched[id]; ok {
		return r, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeBatchRepo) ListUnassigned(ctx context.Context, tenantID uuid.UUID, page shared.Page) ([]*ledger.UnmatchedRow, int64, error) {
	out := make([]*ledger.UnmatchedRow, 0, len(f.unmatched))
	for _, r := range f.unmatched {
		if !r.Assigned {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeBatchRepo) SaveUnmatchedRow(ctx context.Context, row *ledger.UnmatchedRow) error {
	f.unmatched[row.ID] = row
	return nil
}

func approvedIdentity(tenantID uuid.UUID, name, code string) *affiliate.Identity {
	ident := &affiliate.Identity{
		BaseEntity:  shared.NewBaseEntity(),
		TenantID:    tenantID,
		DisplayName: name,
		Status:      affiliate.StatusApproved,
	}
	if code != "" {
		ident.CustomerCode = &code
	}
	return ident
}

const importHeader = "order_date,customer_code,affiliate_name,affiliate_id,commission_per_order,commission_type,order_number_range,quantity_of_orders,invoice_total\n"

func newImportFixture(identities ...*affiliate.Identity) (*ImportService, *fakeLedgerRepo, *fakeBatchRepo) {
	ledgerRepo := newFakeLedgerRepo()
	batchRepo := newFakeBatchRepo()
	svc := NewImportService(&fakeAffiliateRepo{identities: identities}, ledgerRepo, batchRepo, "USD", 100)
	return svc, ledgerRepo, batchRepo
}

func TestImportService_ImportCommissions(t *testing.T) {
	tenantID := uuid.New()
	operatorID := uuid.New()

	t.Run("imports matched rows and merges them", func(t *testing.T) {
		jane := approvedIdentity(tenantID, "Jane Doe", "AFF-001")
		acme := approvedIdentity(tenantID, "Acme Media", "")
		svc, ledgerRepo, batchRepo := newImportFixture(jane, acme)

		file := importHeader +
			"2026-01-15,AFF-001,Jane Doe,,2.50,per_order,ORD-1001,10,\n" +
			"2026-01-16,,Acme Media,,5,percentage,ORD-2001,1,1234.56\n"

		result, err := svc.ImportCommissions(context.Background(), tenantID, operatorID, "jan.csv", int64(len(file)), strings.NewReader(file))
		require.NoError(t, err)

		assert.Equal(t, 2, result.TotalRows)
		assert.Equal(t, 2, result.AcceptedRows)
		assert.Equal(t, 0, result.InvalidRows)
		assert.Equal(t, 0, result.UnmatchedRows)

		require.Len(t, ledgerRepo.merges, 2)
		assert.Equal(t, jane.ID, ledgerRepo.merges[0].AffiliateID)
		assert.True(t, ledgerRepo.merges[0].Gross.Equal(decimal.RequireFromString("25.00")))
		assert.Equal(t, acme.ID, ledgerRepo.merges[1].AffiliateID)
		assert.True(t, ledgerRepo.merges[1].Gross.Equal(decimal.RequireFromString("61.73")))

		batch := batchRepo.batches[result.BatchID]
		require.NotNil(t, batch)
		assert.Equal(t, ledger.BatchStatusCompleted, batch.Status)
		assert.Equal(t, 2, batch.AcceptedRows)
	})

	t.Run("rejects duplicate order id within the batch", func(t *testing.T) {
		jane := approvedIdentity(tenantID, "Jane Doe", "AFF-001")
		svc, ledgerRepo, _ := newImportFixture(jane)

		file := importHeader +
			"2026-01-15,AFF-001,Jane Doe,,2.50,per_order,ORD-1001,10,\n" +
			"2026-01-15,AFF-001,Jane Doe,,2.50,per_order,ORD-1001,10,\n"

		result, err := svc.ImportCommissions(context.Background(), tenantID, operatorID, "jan.csv", int64(len(file)), strings.NewReader(file))
		require.NoError(t, err)

		assert.Equal(t, 1, result.AcceptedRows)
		assert.Equal(t, 1, result.InvalidRows)
		require.Len(t, ledgerRepo.merges, 1)
		require.Len(t, result.Rejections, 1)
		assert.Equal(t, "DUPLICATE_ORDER_ID_IN_BATCH", result.Rejections[0].Reason)
	})

	t.Run("reports replayed order id as already reconciled", func(t *testing.T) {
		jane := approvedIdentity(tenantID, "Jane Doe", "AFF-001")
		svc, _, _ := newImportFixture(jane)

		file := importHeader + "2026-01-15,AFF-001,Jane Doe,,2.50,per_order,ORD-1001,10,\n"

		first, err := svc.ImportCommissions(context.Background(), tenantID, operatorID, "jan.csv", int64(len(file)), strings.NewReader(file))
		require.NoError(t, err)
		assert.Equal(t, 1, first.AcceptedRows)

		second, err := svc.ImportCommissions(context.Background(), tenantID, operatorID, "jan-again.csv", int64(len(file)), strings.NewReader(file))
		require.NoError(t, err)
		assert.Equal(t, 0, second.AcceptedRows)
		assert.Equal(t, 1, second.AlreadyReconciled)
		require.Len(t, second.Rejections, 1)
		assert.Equal(t, "ALREADY_RECONCILED", second.Rejections[0].Reason)
	})

	t.Run("parks rows naming an unapproved affiliate as unmatched", func(t *testing.T) {
		pending := approvedIdentity(tenantID, "Pending Partner", "AFF-009")
		pending.Status = affiliate.StatusPending
		svc, ledgerRepo, batchRepo := newImportFixture(pending)

		file := importHeader + "2026-01-15,AFF-009,Pending Partner,,2.50,per_order,ORD-7001,3,\n"

		result, err := svc.ImportCommissions(context.Background(), tenantID, operatorID, "jan.csv", int64(len(file)), strings.NewReader(file))
		require.NoError(t, err)

		assert.Equal(t, 0, result.AcceptedRows)
		assert.Equal(t, 1, result.UnmatchedRows)
		assert.Empty(t, ledgerRepo.merges)
		require.Len(t, batchRepo.unmatched, 1)
	})

	t.Run("rejects a row whose currency differs from the ledger entry", func(t *testing.T) {
		jane := approvedIdentity(tenantID, "Jane Doe", "AFF-001")
		svc, ledgerRepo, _ := newImportFixture(jane)

		header := strings.TrimSuffix(importHeader, "\n") + ",currency\n"
		file := header +
			"2026-01-15,AFF-001,Jane Doe,,2.50,per_order,ORD-8001,10,,USD\n" +
			"2026-01-16,AFF-001,Jane Doe,,2.50,per_order,ORD-8002,10,,EUR\n"

		result, err := svc.ImportCommissions(context.Background(), tenantID, operatorID, "jan.csv", int64(len(file)), strings.NewReader(file))
		require.NoError(t, err)

		assert.Equal(t, 1, result.AcceptedRows)
		assert.Equal(t, 1, result.InvalidRows)
		require.Len(t, ledgerRepo.merges, 1)
		require.Len(t, result.Rejections, 1)
		assert.Equal(t, "CURRENCY_MISMATCH", result.Rejections[0].Reason)
	})

	t.Run("parks unmatched rows for manual assignment", func(t *testing.T) {
		jane := approvedIdentity(tenantID, "Jane Doe", "AFF-001")
		svc, ledgerRepo, batchRepo := newImportFixture(jane)

		file := importHeader + "2026-01-15,,Unknown Partner,,2.50,per_order,ORD-3001,4,\n"

		result, err := svc.ImportCommissions(context.Background(), tenantID, operatorID, "jan.csv", int64(len(file)), strings.NewReader(file))
		require.NoError(t, err)

		assert.Equal(t, 0, result.AcceptedRows)
		assert.Equal(t, 1, result.UnmatchedRows)
		assert.Empty(t, ledgerRepo.merges)
		require.Len(t, batchRepo.unmatched, 1)
		for _, row := range batchRepo.unmatched {
			assert.Equal(t, "Unknown Partner", row.AffiliateName)
			assert.Equal(t, "10", row.Gross)
			assert.False(t, row.AmbiguousMatch)
		}
	})

	t.Run("treats ambiguous names as unmatched rather than guessing", func(t *testing.T) {
		a := approvedIdentity(tenantID, "Jane Doe", "")
		b := approvedIdentity(tenantID, "jane  doe", "")
		svc, ledgerRepo, batchRepo := newImportFixture(a, b)

		file := importHeader + "2026-01-15,,Jane Doe,,2.50,per_order,ORD-4001,2,\n"

		result, err := svc.ImportCommissions(context.Background(), tenantID, operatorID, "jan.csv", int64(len(file)), strings.NewReader(file))
		require.NoError(t, err)

		assert.Equal(t, 1, result.UnmatchedRows)
		assert.Empty(t, ledgerRepo.merges)
		require.Len(t, result.Rejections, 1)
		assert.Equal(t, "AMBIGUOUS_AFFILIATE", result.Rejections[0].Reason)
		for _, row := range batchRepo.unmatched {
			assert.True(t, row.AmbiguousMatch)
		}
	})

	t.Run("counts invalid rows without aborting the import", func(t *testing.T) {
		jane := approvedIdentity(tenantID, "Jane Doe", "AFF-001")
		svc, _, _ := newImportFixture(jane)

		file := importHeader +
			"2026-01-15,AFF-001,Jane Doe,,not-a-number,per_order,ORD-5001,10,\n" +
			"2026-01-15,AFF-001,Jane Doe,,2.50,per_order,ORD-5002,10,\n"

		result, err := svc.ImportCommissions(context.Background(), tenantID, operatorID, "jan.csv", int64(len(file)), strings.NewReader(file))
		require.NoError(t, err)

		assert.Equal(t, 1, result.InvalidRows)
		assert.Equal(t, 1, result.AcceptedRows)
	})

	t.Run("fails the whole upload when required columns are missing", func(t *testing.T) {
		svc, _, batchRepo := newImportFixture()

		file := "order_date,affiliate_name\n2026-01-15,Jane Doe\n"

		_, err := svc.ImportCommissions(context.Background(), tenantID, operatorID, "broken.csv", int64(len(file)), strings.NewReader(file))
		require.Error(t, err)

		require.Len(t, batchRepo.batches, 1)
		for _, batch := range batchRepo.batches {
			assert.Equal(t, ledger.BatchStatusFailed, batch.Status)
		}
	})

	t.Run("marks the batch cancelled when the context is cancelled", func(t *testing.T) {
		jane := approvedIdentity(tenantID, "Jane Doe", "AFF-001")
		svc, _, batchRepo := newImportFixture(jane)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		file := importHeader + "2026-01-15,AFF-001,Jane Doe,,2.50,per_order,ORD-6001,1,\n"

		_, err := svc.ImportCommissions(ctx, tenantID, operatorID, "jan.csv", int64(len(file)), strings.NewReader(file))
		require.ErrorIs(t, err, context.Canceled)

		for _, batch := range batchRepo.batches {
			assert.Equal(t, ledger.BatchStatusCancelled, batch.Status)
		}
	})
}

func TestImportService_AssignUnmatched(t *testing.T) {
	tenantID := uuid.New()
	operatorID := uuid.New()

	seedUnmatched := func(batchRepo *fakeBatchRepo) *ledger.UnmatchedRow {
		row := &ledger.UnmatchedRow{
			BaseEntity:    shared.NewBaseEntity(),
			TenantID:      tenantID,
			BatchID:       uuid.New(),
			LineNumber:    3,
			AffiliateName: "Unknown Partner",
			OrderID:       "ORD-9001",
			OrderCount:    4,
			Gross:         "10.00",
			Currency:      "USD",
		}
		batchRepo.unmatched[row.ID] = row
		return row
	}

	t.Run("assigns the row and merges it into the ledger", func(t *testing.T) {
		jane := approvedIdentity(tenantID, "Jane Doe", "AFF-001")
		svc, ledgerRepo, batchRepo := newImportFixture(jane)
		row := seedUnmatched(batchRepo)

		err := svc.AssignUnmatched(context.Background(), tenantID, row.ID, jane.ID, operatorID)
		require.NoError(t, err)

		assert.True(t, row.Assigned)
		require.Len(t, ledgerRepo.merges, 1)
		assert.Equal(t, jane.ID, ledgerRepo.merges[0].AffiliateID)
		assert.Equal(t, "ORD-9001", ledgerRepo.merges[0].OrderID)
		assert.True(t, ledgerRepo.merges[0].Gross.Equal(decimal.RequireFromString("10.00")))
	})

	t.Run("refuses an unapproved affiliate", func(t *testing.T) {
		pending := approvedIdentity(tenantID, "Pending Partner", "")
		pending.Status = affiliate.StatusPending
		svc, ledgerRepo, batchRepo := newImportFixture(pending)
		row := seedUnmatched(batchRepo)

		err := svc.AssignUnmatched(context.Background(), tenantID, row.ID, pending.ID, operatorID)
		require.Error(t, err)
		assert.Empty(t, ledgerRepo.merges)
		assert.False(t, row.Assigned)
	})

	t.Run("refuses a second assignment of the same row", func(t *testing.T) {
		jane := approvedIdentity(tenantID, "Jane Doe", "AFF-001")
		svc, ledgerRepo, batchRepo := newImportFixture(jane)
		row := seedUnmatched(batchRepo)

		require.NoError(t, svc.AssignUnmatched(context.Background(), tenantID, row.ID, jane.ID, operatorID))
		err := svc.AssignUnmatched(context.Background(), tenantID, row.ID, jane.ID, operatorID)
		require.Error(t, err)
		assert.Len(t, ledgerRepo.merges, 1)
	})

	t.Run("leaves the row unassigned when the merge fails", func(t *testing.T) {
		jane := approvedIdentity(tenantID, "Jane Doe", "AFF-001")
		svc, ledgerRepo, batchRepo := newImportFixture(jane)
		row := seedUnmatched(batchRepo)
		ledgerRepo.mergeErr = errors.New("connection reset by peer")

		err := svc.AssignUnmatched(context.Background(), tenantID, row.ID, jane.ID, operatorID)
		require.Error(t, err)

		assert.False(t, row.Assigned)
		assert.Empty(t, ledgerRepo.merges)
	})

	t.Run("resolves the row when its order id was reconciled in the meantime", func(t *testing.T) {
		jane := approvedIdentity(tenantID, "Jane Doe", "AFF-001")
		svc, ledgerRepo, batchRepo := newImportFixture(jane)
		row := seedUnmatched(batchRepo)
		ledgerRepo.seenOrders[row.OrderID] = true

		err := svc.AssignUnmatched(context.Background(), tenantID, row.ID, jane.ID, operatorID)
		require.NoError(t, err)

		assert.True(t, row.Assigned)
		assert.Empty(t, ledgerRepo.merges)
	})

	t.Run("unknown row id", func(t *testing.T) {
		jane := approvedIdentity(tenantID, "Jane Doe", "AFF-001")
		svc, _, _ := newImportFixture(jane)

		err := svc.AssignUnmatched(context.Background(), tenantID, uuid.New(), jane.ID, operatorID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
