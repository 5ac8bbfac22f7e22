package ledger

import (
	"context"
	"time"

	"github.com/commercive/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MergeRequest carries one matched import row into the ledger
type MergeRequest struct {
	TenantID      uuid.UUID
	AffiliateID   uuid.UUID
	AffiliateName string // denormalized onto the entry for sorting and export
	BatchID       uuid.UUID
	OrderID       string
	OrderCount    int64
	Gross         decimal.Decimal
	Currency      string
	OrderDate     time.Time
}

// Filter contains filter and sort options for listing ledger entries
type Filter struct {
	AffiliateName string // substring match against the denormalized name
	SortBy        string // affiliate_name, gross_commission, paid_amount, order_count, updated_at
	SortDir       shared.SortDirection
	Page          shared.Page
}

// Repository persists ledger entries and their seen-order-id index.
//
// Merge and AdjustPaid are the two serialization points of the engine: both
// must be atomic conditional updates so that concurrent imports or payouts
// from independent sessions cannot lose updates or break the non-negative
// outstanding invariant.
type Repository interface {
	// FindByAffiliate finds the ledger entry for an affiliate, or
	// shared.ErrNotFound if no matched row has ever created one
	FindByAffiliate(ctx context.Context, tenantID, affiliateID uuid.UUID) (*Entry, error)

	// List returns a stable-ordered page of entries plus the total count
	List(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]*Entry, int64, error)

	// ListAll streams every entry matching the filter in the same order as
	// List, for export. The page settings in the filter are ignored.
	ListAll(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]*Entry, error)

	// Merge folds one order line into the affiliate's entry, creating the
	// entry lazily. Idempotent per order id: a replay returns
	// shared.ErrAlreadyReconciled and leaves totals untouched. A merge in
	// a currency other than the entry's fails with
	// shared.ErrCurrencyMismatch without recording the order id.
	Merge(ctx context.Context, req MergeRequest) error

	// AdjustPaid atomically increments the paid amount, failing with
	// shared.ErrLedgerInvariant if outstanding would go negative. Called
	// only by the payout store on Paid transitions.
	AdjustPaid(ctx context.Context, tenantID, affiliateID uuid.UUID, amount decimal.Decimal) error

	// AdjustGross applies a manual gross correction under the same
	// non-negative outstanding guard
	AdjustGross(ctx context.Context, tenantID, affiliateID uuid.UUID, delta decimal.Decimal) error

	// FindReconciledOrders returns the dedup records for an affiliate,
	// newest first
	FindReconciledOrders(ctx context.Context, tenantID, affiliateID uuid.UUID, page shared.Page) ([]*ReconciledOrder, int64, error)
}
