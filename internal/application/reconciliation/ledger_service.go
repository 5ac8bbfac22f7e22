package reconciliation

import (
	"context"

	"github.com/commercive/backend/internal/domain/ledger"
	"github.com/commercive/backend/internal/domain/shared"
	"github.com/commercive/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerService serves the reconciliation views over the aggregated ledger
type LedgerService struct {
	ledgerRepo ledger.Repository
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(ledgerRepo ledger.Repository) *LedgerService {
	return &LedgerService{ledgerRepo: ledgerRepo}
}

// ListQuery carries the list filters taken from the request
type ListQuery struct {
	AffiliateName string
	SortBy        string
	SortDir       string
	Page          shared.Page
}

// ListLedger returns a stable-ordered page of ledger entries
func (s *LedgerService) ListLedger(ctx context.Context, tenantID uuid.UUID, query ListQuery) (shared.Paginated[LedgerEntryDTO], error) {
	page := query.Page.Normalize()
	entries, total, err := s.ledgerRepo.List(ctx, tenantID, ledger.Filter{
		AffiliateName: query.AffiliateName,
		SortBy:        query.SortBy,
		SortDir:       shared.SortDirection(query.SortDir),
		Page:          page,
	})
	if err != nil {
		return shared.Paginated[LedgerEntryDTO]{}, err
	}

	dtos := make([]LedgerEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toLedgerEntryDTO(e)
	}
	return shared.NewPaginated(dtos, total, page.Number, page.Size), nil
}

// GetAffiliateSummary returns one affiliate's ledger position together with
// its most recent reconciled orders
func (s *LedgerService) GetAffiliateSummary(ctx context.Context, tenantID, affiliateID uuid.UUID, orderPage shared.Page) (*AffiliateSummaryDTO, error) {
	entry, err := s.ledgerRepo.FindByAffiliate(ctx, tenantID, affiliateID)
	if err != nil {
		return nil, err
	}

	orders, _, err := s.ledgerRepo.FindReconciledOrders(ctx, tenantID, affiliateID, orderPage.Normalize())
	if err != nil {
		return nil, err
	}

	recent := make([]ReconciledOrderDTO, len(orders))
	for i, o := range orders {
		recent[i] = ReconciledOrderDTO{
			OrderID:    o.OrderID,
			OrderCount: o.OrderCount,
			Gross:      o.Gross,
			OrderDate:  o.OrderDate,
			BatchID:    o.BatchID,
			MergedAt:   o.CreatedAt,
		}
	}

	return &AffiliateSummaryDTO{
		Entry:        toLedgerEntryDTO(entry),
		RecentOrders: recent,
	}, nil
}

// AdjustGross applies a manual operator correction to an affiliate's gross
// total. The non-negative outstanding guard is enforced by the store.
func (s *LedgerService) AdjustGross(ctx context.Context, tenantID, affiliateID, operatorID uuid.UUID, delta decimal.Decimal) error {
	if delta.IsZero() {
		return shared.NewDomainError("INVALID_AMOUNT", "Adjustment delta cannot be zero")
	}
	if err := s.ledgerRepo.AdjustGross(ctx, tenantID, affiliateID, delta); err != nil {
		return err
	}
	logger.L(ctx).Info("ledger gross adjusted",
		zap.String("affiliate_id", affiliateID.String()),
		zap.String("operator_id", operatorID.String()),
		zap.String("delta", delta.String()),
	)
	return nil
}

func toLedgerEntryDTO(e *ledger.Entry) LedgerEntryDTO {
	return LedgerEntryDTO{
		AffiliateID:     e.AffiliateID,
		AffiliateName:   e.AffiliateName,
		OrderCount:      e.OrderCount,
		GrossCommission: e.GrossCommission,
		PaidAmount:      e.PaidAmount,
		Outstanding:     e.Outstanding(),
		Currency:        e.Currency,
		UpdatedAt:       e.UpdatedAt,
	}
}
