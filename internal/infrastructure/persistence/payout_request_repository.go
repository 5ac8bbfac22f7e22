package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/commercive/backend/internal/domain/payout"
	"github.com/commercive/backend/internal/domain/shared"
	"github.com/commercive/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPayoutRequestRepository implements payout.Repository using GORM
type GormPayoutRequestRepository struct {
	db     *gorm.DB
	ledger *GormLedgerRepository
}

// NewGormPayoutRequestRepository creates a new GormPayoutRequestRepository.
// The ledger repository is needed to pair Paid transitions with the ledger
// paid-amount adjustment in one transaction.
func NewGormPayoutRequestRepository(db *gorm.DB, ledgerRepo *GormLedgerRepository) *GormPayoutRequestRepository {
	return &GormPayoutRequestRepository{db: db, ledger: ledgerRepo}
}

// Create creates a new payout request
func (r *GormPayoutRequestRepository) Create(ctx context.Context, req *payout.Request) error {
	model := models.PayoutRequestModelFromDomain(req)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByID finds a payout request by ID within a tenant
func (r *GormPayoutRequestRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*payout.Request, error) {
	var model models.PayoutRequestModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save persists state-machine mutations with an optimistic version check
func (r *GormPayoutRequestRepository) Save(ctx context.Context, req *payout.Request) error {
	model := models.PayoutRequestModelFromDomain(req)

	result := r.db.WithContext(ctx).
		Model(&models.PayoutRequestModel{}).
		Where("id = ? AND version = ?", req.ID, req.Version-1).
		Updates(map[string]interface{}{
			"amount":        model.Amount,
			"method":        model.Method,
			"payee_address": model.PayeeAddress,
			"status":        model.Status,
			"note":          model.Note,
			"approved_at":   model.ApprovedAt,
			"approved_by":   model.ApprovedBy,
			"rejected_at":   model.RejectedAt,
			"rejected_by":   model.RejectedBy,
			"reject_reason": model.RejectReason,
			"paid_at":       model.PaidAt,
			"paid_by":       model.PaidBy,
			"payment_ref":   model.PaymentRef,
			"version":       model.Version,
			"updated_at":    model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// List returns a stable-ordered page plus the total count
func (r *GormPayoutRequestRepository) List(ctx context.Context, tenantID uuid.UUID, filter payout.Filter) ([]*payout.Request, int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx).
		Model(&models.PayoutRequestModel{}).
		Where("tenant_id = ?", tenantID), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	var modelList []models.PayoutRequestModel
	if err := query.
		Order(r.orderBy(filter)).
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&modelList).Error; err != nil {
		return nil, 0, err
	}

	return toRequests(modelList), total, nil
}

// ListAll returns every request matching the filter in the same order as
// List, ignoring pagination. Used by the export flow.
func (r *GormPayoutRequestRepository) ListAll(ctx context.Context, tenantID uuid.UUID, filter payout.Filter) ([]*payout.Request, error) {
	query := r.applyFilter(r.db.WithContext(ctx).
		Model(&models.PayoutRequestModel{}).
		Where("tenant_id = ?", tenantID), filter)

	var modelList []models.PayoutRequestModel
	if err := query.Order(r.orderBy(filter)).Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toRequests(modelList), nil
}

// MarkPaid performs the Approved -> Paid transition paired atomically with
// the ledger paid-amount adjustment. The conditional status check in the
// UPDATE serializes concurrent settlement attempts on the same request.
func (r *GormPayoutRequestRepository) MarkPaid(ctx context.Context, tenantID, requestID, operatorID uuid.UUID, paymentRef string) (*payout.Request, error) {
	var paid *payout.Request

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.PayoutRequestModel
		if err := tx.Where("tenant_id = ? AND id = ?", tenantID, requestID).
			First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		req := model.ToDomain()
		if err := req.MarkPaid(operatorID, paymentRef); err != nil {
			return err
		}

		result := tx.Model(&models.PayoutRequestModel{}).
			Where("tenant_id = ? AND id = ? AND status = ?", tenantID, requestID, payout.StatusApproved).
			Updates(map[string]interface{}{
				"status":      payout.StatusPaid,
				"paid_at":     req.PaidAt,
				"paid_by":     req.PaidBy,
				"payment_ref": req.PaymentRef,
				"version":     gorm.Expr("version + 1"),
				"updated_at":  req.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrInvalidTransition
		}

		if err := r.ledger.AdjustPaidTx(ctx, tx, tenantID, req.AffiliateID, req.Amount); err != nil {
			return err
		}

		paid = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

func (r *GormPayoutRequestRepository) applyFilter(query *gorm.DB, filter payout.Filter) *gorm.DB {
	if filter.AffiliateID != nil {
		query = query.Where("affiliate_id = ?", *filter.AffiliateID)
	}
	if filter.AffiliateName != "" {
		query = query.Where("affiliate_name ILIKE ?", "%"+filter.AffiliateName+"%")
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.DateFrom != nil {
		query = query.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("created_at <= ?", *filter.DateTo)
	}
	return query
}

func (r *GormPayoutRequestRepository) orderBy(filter payout.Filter) string {
	sortField := ValidateSortField(filter.SortBy, PayoutSortFields, "created_at")
	sortOrder := ValidateSortOrder(string(filter.SortDir))
	return fmt.Sprintf("%s %s, created_at ASC, id ASC", sortField, sortOrder)
}

func toRequests(modelList []models.PayoutRequestModel) []*payout.Request {
	requests := make([]*payout.Request, len(modelList))
	for i := range modelList {
		requests[i] = modelList[i].ToDomain()
	}
	return requests
}
