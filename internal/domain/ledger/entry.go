package ledger

import (
	"time"

	"github.com/commercive/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entry is the per-affiliate commission aggregate. One entry exists per
// affiliate (created lazily on the first matched import row) and carries the
// running totals the payout workflow settles against.
//
// Invariant: Outstanding() is never negative. Operations that would violate
// this are rejected, never clamped.
type Entry struct {
	shared.TenantAggregateRoot
	AffiliateID     uuid.UUID
	AffiliateName   string // last seen display name, refreshed on every merge
	OrderCount      int64
	GrossCommission decimal.Decimal
	PaidAmount      decimal.Decimal
	Currency        string
}

// NewEntry creates a zeroed ledger entry for an affiliate
func NewEntry(tenantID, affiliateID uuid.UUID, currency string) (*Entry, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if affiliateID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_AFFILIATE", "Affiliate ID cannot be empty")
	}
	if currency == "" {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency cannot be empty")
	}
	return &Entry{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		AffiliateID:         affiliateID,
		OrderCount:          0,
		GrossCommission:     decimal.Zero,
		PaidAmount:          decimal.Zero,
		Currency:            currency,
	}, nil
}

// Outstanding returns the balance still owed to the affiliate
func (e *Entry) Outstanding() decimal.Decimal {
	return e.GrossCommission.Sub(e.PaidAmount)
}

// ApplyOrders folds a reconciled order line into the running totals.
// Deduplication by order id happens at the store boundary; by the time this
// is called the line is known to be new.
func (e *Entry) ApplyOrders(orderCount int64, grossDelta decimal.Decimal) error {
	if orderCount < 0 {
		return shared.NewDomainError("INVALID_ORDER_COUNT", "Order count cannot be negative")
	}
	if grossDelta.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Gross commission delta cannot be negative")
	}
	e.OrderCount += orderCount
	e.GrossCommission = e.GrossCommission.Add(grossDelta)
	e.Touch()
	e.IncrementVersion()
	return nil
}

// AdjustGross applies a manual operator correction to the gross total.
// Downward corrections that would drive outstanding below zero are rejected.
func (e *Entry) AdjustGross(delta decimal.Decimal) error {
	adjusted := e.GrossCommission.Add(delta)
	if adjusted.Sub(e.PaidAmount).IsNegative() {
		return shared.ErrLedgerInvariant
	}
	e.GrossCommission = adjusted
	e.Touch()
	e.IncrementVersion()
	return nil
}

// MarkPaid records a disbursement against the outstanding balance.
// Fails, without mutating, if the amount exceeds outstanding.
func (e *Entry) MarkPaid(amount decimal.Decimal) error {
	if amount.IsNegative() || amount.IsZero() {
		return shared.NewDomainError("INVALID_AMOUNT", "Paid amount must be positive")
	}
	if amount.GreaterThan(e.Outstanding()) {
		return shared.ErrLedgerInvariant
	}
	e.PaidAmount = e.PaidAmount.Add(amount)
	e.Touch()
	e.IncrementVersion()
	return nil
}

// Zero resets the totals. Entries are never deleted, only zeroed.
func (e *Entry) Zero() {
	e.OrderCount = 0
	e.GrossCommission = decimal.Zero
	e.PaidAmount = decimal.Zero
	e.Touch()
	e.IncrementVersion()
}

// ReconciledOrder is the seen-order-id record backing merge idempotence.
// One row exists per (tenant, order id); a second import of the same order
// id is reported as already reconciled and not folded in again, even when
// the replay names a different affiliate.
type ReconciledOrder struct {
	shared.BaseEntity
	TenantID    uuid.UUID
	AffiliateID uuid.UUID
	OrderID     string
	BatchID     uuid.UUID
	OrderCount  int64
	Gross       decimal.Decimal
	OrderDate   time.Time
}

// NewReconciledOrder creates the dedup record for a merged order line
func NewReconciledOrder(tenantID, affiliateID, batchID uuid.UUID, orderID string, orderCount int64, gross decimal.Decimal, orderDate time.Time) (*ReconciledOrder, error) {
	if orderID == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_ID", "Order ID cannot be empty")
	}
	if gross.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Gross commission cannot be negative")
	}
	return &ReconciledOrder{
		BaseEntity:  shared.NewBaseEntity(),
		TenantID:    tenantID,
		AffiliateID: affiliateID,
		OrderID:     orderID,
		BatchID:     batchID,
		OrderCount:  orderCount,
		Gross:       gross,
		OrderDate:   orderDate,
	}, nil
}
