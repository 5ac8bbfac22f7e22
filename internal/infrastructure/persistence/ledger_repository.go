package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/commercive/backend/internal/domain/ledger"
	"github.com/commercive/backend/internal/domain/shared"
	"github.com/commercive/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLedgerRepository implements ledger.Repository using GORM
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// FindByAffiliate finds the ledger entry for an affiliate
func (r *GormLedgerRepository) FindByAffiliate(ctx context.Context, tenantID, affiliateID uuid.UUID) (*ledger.Entry, error) {
	var model models.LedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND affiliate_id = ?", tenantID, affiliateID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns a stable-ordered page of entries plus the total count
func (r *GormLedgerRepository) List(ctx context.Context, tenantID uuid.UUID, filter ledger.Filter) ([]*ledger.Entry, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Where("tenant_id = ?", tenantID)

	if filter.AffiliateName != "" {
		query = query.Where("affiliate_name ILIKE ?", "%"+filter.AffiliateName+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.SortBy, LedgerSortFields, "affiliate_name")
	sortOrder := ValidateSortOrder(string(filter.SortDir))
	if sortField == "outstanding" {
		sortField = "(gross_commission - paid_amount)"
	}
	// Secondary keys keep pages stable when the sort key has ties
	orderBy := fmt.Sprintf("%s %s, created_at ASC, id ASC", sortField, sortOrder)

	page := filter.Page.Normalize()
	var modelList []models.LedgerEntryModel
	if err := query.
		Order(orderBy).
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&modelList).Error; err != nil {
		return nil, 0, err
	}

	entries := make([]*ledger.Entry, len(modelList))
	for i := range modelList {
		entries[i] = modelList[i].ToDomain()
	}
	return entries, total, nil
}

// ListAll returns every entry matching the filter in List order, unpaged
func (r *GormLedgerRepository) ListAll(ctx context.Context, tenantID uuid.UUID, filter ledger.Filter) ([]*ledger.Entry, error) {
	query := r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Where("tenant_id = ?", tenantID)

	if filter.AffiliateName != "" {
		query = query.Where("affiliate_name ILIKE ?", "%"+filter.AffiliateName+"%")
	}

	sortField := ValidateSortField(filter.SortBy, LedgerSortFields, "affiliate_name")
	sortOrder := ValidateSortOrder(string(filter.SortDir))
	if sortField == "outstanding" {
		sortField = "(gross_commission - paid_amount)"
	}

	var modelList []models.LedgerEntryModel
	if err := query.
		Order(fmt.Sprintf("%s %s, created_at ASC, id ASC", sortField, sortOrder)).
		Find(&modelList).Error; err != nil {
		return nil, err
	}

	entries := make([]*ledger.Entry, len(modelList))
	for i := range modelList {
		entries[i] = modelList[i].ToDomain()
	}
	return entries, nil
}

// Merge folds one order line into the affiliate's entry. The seen-order-id
// insert and the totals update run in one transaction; the unique index on
// (tenant_id, order_id) makes a replayed order id a no-op detected by
// RowsAffected.
func (r *GormLedgerRepository) Merge(ctx context.Context, req ledger.MergeRequest) error {
	if req.OrderID == "" {
		return shared.NewDomainError("INVALID_ORDER_ID", "Order ID cannot be empty")
	}
	if req.Gross.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Gross commission cannot be negative")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seen, err := ledger.NewReconciledOrder(
			req.TenantID, req.AffiliateID, req.BatchID,
			req.OrderID, req.OrderCount, req.Gross, req.OrderDate,
		)
		if err != nil {
			return err
		}

		var seenModel models.ReconciledOrderModel
		seenModel.FromDomain(seen)

		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "order_id"}},
			DoNothing: true,
		}).Create(&seenModel)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrAlreadyReconciled
		}

		entry, err := ledger.NewEntry(req.TenantID, req.AffiliateID, req.Currency)
		if err != nil {
			return err
		}
		var entryModel models.LedgerEntryModel
		entryModel.FromDomain(entry, req.AffiliateName)

		// Lazily create the zeroed entry; an existing one wins the conflict
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "affiliate_id"}},
			DoNothing: true,
		}).Create(&entryModel).Error; err != nil {
			return err
		}

		// The entry exists in this transaction, so zero rows means the
		// stored currency does not match and the merge must roll back.
		result = tx.Model(&models.LedgerEntryModel{}).
			Where("tenant_id = ? AND affiliate_id = ? AND currency = ?", req.TenantID, req.AffiliateID, req.Currency).
			Updates(map[string]interface{}{
				"order_count":      gorm.Expr("order_count + ?", req.OrderCount),
				"gross_commission": gorm.Expr("gross_commission + ?", req.Gross),
				"affiliate_name":   req.AffiliateName,
				"version":          gorm.Expr("version + 1"),
				"updated_at":       gorm.Expr("NOW()"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrCurrencyMismatch
		}
		return nil
	})
}

// AdjustPaid atomically increments the paid amount under the non-negative
// outstanding guard. The guard lives in the WHERE clause so concurrent
// payouts serialize at the row without a read-modify-write race.
func (r *GormLedgerRepository) AdjustPaid(ctx context.Context, tenantID, affiliateID uuid.UUID, amount decimal.Decimal) error {
	if amount.IsNegative() || amount.IsZero() {
		return shared.NewDomainError("INVALID_AMOUNT", "Paid amount must be positive")
	}
	return r.adjustPaidWithDB(ctx, r.db, tenantID, affiliateID, amount)
}

// AdjustPaidTx is AdjustPaid running on an existing transaction, used by the
// payout store to pair the ledger adjustment with the Paid transition.
func (r *GormLedgerRepository) AdjustPaidTx(ctx context.Context, tx *gorm.DB, tenantID, affiliateID uuid.UUID, amount decimal.Decimal) error {
	if amount.IsNegative() || amount.IsZero() {
		return shared.NewDomainError("INVALID_AMOUNT", "Paid amount must be positive")
	}
	return r.adjustPaidWithDB(ctx, tx, tenantID, affiliateID, amount)
}

func (r *GormLedgerRepository) adjustPaidWithDB(ctx context.Context, db *gorm.DB, tenantID, affiliateID uuid.UUID, amount decimal.Decimal) error {
	result := db.WithContext(ctx).Model(&models.LedgerEntryModel{}).
		Where("tenant_id = ? AND affiliate_id = ? AND gross_commission - paid_amount >= ?",
			tenantID, affiliateID, amount).
		Updates(map[string]interface{}{
			"paid_amount": gorm.Expr("paid_amount + ?", amount),
			"version":     gorm.Expr("version + 1"),
			"updated_at":  gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Distinguish a missing entry from a guard failure
		var count int64
		if err := db.WithContext(ctx).Model(&models.LedgerEntryModel{}).
			Where("tenant_id = ? AND affiliate_id = ?", tenantID, affiliateID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrLedgerInvariant
	}
	return nil
}

// AdjustGross applies a manual gross correction under the same guard
func (r *GormLedgerRepository) AdjustGross(ctx context.Context, tenantID, affiliateID uuid.UUID, delta decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}).
		Where("tenant_id = ? AND affiliate_id = ? AND gross_commission + ? - paid_amount >= 0",
			tenantID, affiliateID, delta).
		Updates(map[string]interface{}{
			"gross_commission": gorm.Expr("gross_commission + ?", delta),
			"version":          gorm.Expr("version + 1"),
			"updated_at":       gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}).
			Where("tenant_id = ? AND affiliate_id = ?", tenantID, affiliateID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrLedgerInvariant
	}
	return nil
}

// FindReconciledOrders returns the dedup records for an affiliate, newest first
func (r *GormLedgerRepository) FindReconciledOrders(ctx context.Context, tenantID, affiliateID uuid.UUID, page shared.Page) ([]*ledger.ReconciledOrder, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ReconciledOrderModel{}).
		Where("tenant_id = ? AND affiliate_id = ?", tenantID, affiliateID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page = page.Normalize()
	var modelList []models.ReconciledOrderModel
	if err := query.
		Order("order_date DESC, created_at DESC, id ASC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&modelList).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]*ledger.ReconciledOrder, len(modelList))
	for i := range modelList {
		orders[i] = modelList[i].ToDomain()
	}
	return orders, total, nil
}
