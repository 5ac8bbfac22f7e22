package payout

import (
	"context"
	"time"

	"github.com/commercive/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter contains filter, sort and page options for listing payout requests.
// The sort key is always totally ordered at the store: ties are broken by
// creation timestamp then identifier, so pages stay stable under concurrent
// inserts.
type Filter struct {
	AffiliateID   *uuid.UUID
	AffiliateName string // substring match, case-insensitive
	Status        *RequestStatus
	DateFrom      *time.Time
	DateTo        *time.Time
	SortBy        string // created_at, amount, affiliate_name
	SortDir       shared.SortDirection
	Page          shared.Page
}

// Repository persists payout requests
type Repository interface {
	// Create creates a new payout request
	Create(ctx context.Context, req *Request) error

	// FindByID finds a payout request by ID within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Request, error)

	// Save persists state-machine mutations with an optimistic version
	// check, returning shared.ErrConcurrencyConflict on a lost race
	Save(ctx context.Context, req *Request) error

	// List returns a stable-ordered page plus the total count
	List(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]*Request, int64, error)

	// ListAll streams every request matching the filter in the same order
	// as List, for export. The page settings in the filter are ignored.
	ListAll(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]*Request, error)

	// MarkPaid performs the Approved -> Paid transition paired atomically
	// with the ledger paid-amount adjustment. Returns
	// shared.ErrInvalidTransition if the request is no longer approved and
	// shared.ErrLedgerInvariant if the ledger guard fails; in both cases
	// nothing is applied.
	MarkPaid(ctx context.Context, tenantID, requestID, operatorID uuid.UUID, paymentRef string) (*Request, error)
}
