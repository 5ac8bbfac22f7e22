package reconciliation

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/commercive/backend/internal/domain/ledger"
	"github.com/commercive/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sortedLedgerRepo pages over an in-memory entry set with the same total
// order the SQL layer produces: the sort key first, then created_at and id
// as tie-breaks. Rows inserted between page fetches therefore never shift
// rows that were already emitted.
type sortedLedgerRepo struct {
	entries []*ledger.Entry
}

func (f *sortedLedgerRepo) List(ctx context.Context, tenantID uuid.UUID, filter ledger.Filter) ([]*ledger.Entry, int64, error) {
	sorted := make([]*ledger.Entry, len(f.entries))
	copy(sorted, f.entries)
	desc := filter.SortDir == shared.SortDesc
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.AffiliateName != b.AffiliateName {
			if desc {
				return a.AffiliateName > b.AffiliateName
			}
			return a.AffiliateName < b.AffiliateName
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})

	offset := filter.Page.Offset()
	if offset > len(sorted) {
		offset = len(sorted)
	}
	end := offset + filter.Page.Size
	if end > len(sorted) {
		end = len(sorted)
	}
	return sorted[offset:end], int64(len(sorted)), nil
}

func (f *sortedLedgerRepo) FindByAffiliate(ctx context.Context, tenantID, affiliateID uuid.UUID) (*ledger.Entry, error) {
	return nil, shared.ErrNotFound
}

func (f *sortedLedgerRepo) ListAll(ctx context.Context, tenantID uuid.UUID, filter ledger.Filter) ([]*ledger.Entry, error) {
	entries, _, err := f.List(ctx, tenantID, filter)
	return entries, err
}

func (f *sortedLedgerRepo) Merge(ctx context.Context, req ledger.MergeRequest) error {
	return nil
}

func (f *sortedLedgerRepo) AdjustPaid(ctx context.Context, tenantID, affiliateID uuid.UUID, amount decimal.Decimal) error {
	return nil
}

func (f *sortedLedgerRepo) AdjustGross(ctx context.Context, tenantID, affiliateID uuid.UUID, delta decimal.Decimal) error {
	return nil
}

func (f *sortedLedgerRepo) FindReconciledOrders(ctx context.Context, tenantID, affiliateID uuid.UUID, page shared.Page) ([]*ledger.ReconciledOrder, int64, error) {
	return nil, 0, nil
}

func entryAt(tenantID uuid.UUID, name string, createdAt time.Time) *ledger.Entry {
	e := &ledger.Entry{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		AffiliateID:         uuid.New(),
		AffiliateName:       name,
		GrossCommission:     decimal.NewFromInt(100),
		PaidAmount:          decimal.Zero,
		Currency:            "USD",
	}
	e.CreatedAt = createdAt
	e.UpdatedAt = createdAt
	return e
}

func TestLedgerService_ListLedger(t *testing.T) {
	tenantID := uuid.New()
	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

	t.Run("pages stay stable when a row is inserted between fetches", func(t *testing.T) {
		repo := &sortedLedgerRepo{}
		for i := 0; i < 5; i++ {
			repo.entries = append(repo.entries, entryAt(tenantID, "Acme Media", base.Add(time.Duration(i)*time.Minute)))
		}
		existing := make(map[uuid.UUID]bool)
		for _, e := range repo.entries {
			existing[e.AffiliateID] = true
		}
		svc := NewLedgerService(repo)

		query := func(number int) ListQuery {
			return ListQuery{SortBy: "affiliate_name", SortDir: "asc", Page: shared.Page{Number: number, Size: 2}}
		}

		first, err := svc.ListLedger(context.Background(), tenantID, query(1))
		require.NoError(t, err)
		require.Len(t, first.Items, 2)

		// A merge lands between the operator's page fetches. The new entry
		// shares the sort key but carries a later created_at, so it sorts
		// after every pre-existing row with that name.
		late := entryAt(tenantID, "Acme Media", base.Add(time.Hour))
		repo.entries = append(repo.entries, late)

		second, err := svc.ListLedger(context.Background(), tenantID, query(2))
		require.NoError(t, err)
		third, err := svc.ListLedger(context.Background(), tenantID, query(3))
		require.NoError(t, err)

		seen := make(map[uuid.UUID]int)
		for _, page := range []shared.Paginated[LedgerEntryDTO]{first, second, third} {
			for _, item := range page.Items {
				seen[item.AffiliateID]++
			}
		}
		for id := range existing {
			assert.Equal(t, 1, seen[id], "pre-existing row must appear exactly once across pages")
		}
		assert.Equal(t, 1, seen[late.AffiliateID])
		require.NotEmpty(t, third.Items)
		assert.Equal(t, late.AffiliateID, third.Items[len(third.Items)-1].AffiliateID)
	})

	t.Run("identical sort keys fall back to creation order", func(t *testing.T) {
		repo := &sortedLedgerRepo{}
		older := entryAt(tenantID, "Jane Doe", base)
		newer := entryAt(tenantID, "Jane Doe", base.Add(time.Minute))
		repo.entries = append(repo.entries, newer, older)
		svc := NewLedgerService(repo)

		result, err := svc.ListLedger(context.Background(), tenantID, ListQuery{
			SortBy:  "affiliate_name",
			SortDir: "asc",
			Page:    shared.Page{Number: 1, Size: 10},
		})
		require.NoError(t, err)
		require.Len(t, result.Items, 2)
		assert.Equal(t, older.AffiliateID, result.Items[0].AffiliateID)
		assert.Equal(t, newer.AffiliateID, result.Items[1].AffiliateID)
	})
}
