package persistence

import (
	"context"
	"errors"

	"github.com/commercive/backend/internal/domain/ledger"
	"github.com/commercive/backend/internal/domain/shared"
	"github.com/commercive/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBatchRepository implements ledger.BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// CreateBatch creates a running batch record
func (r *GormBatchRepository) CreateBatch(ctx context.Context, batch *ledger.ImportBatch) error {
	var model models.ImportBatchModel
	model.FromDomain(batch)
	return r.db.WithContext(ctx).Create(&model).Error
}

// SaveBatch persists batch completion with an optimistic version check
func (r *GormBatchRepository) SaveBatch(ctx context.Context, batch *ledger.ImportBatch) error {
	var model models.ImportBatchModel
	model.FromDomain(batch)

	result := r.db.WithContext(ctx).
		Model(&models.ImportBatchModel{}).
		Where("id = ? AND version = ?", batch.ID, batch.Version-1).
		Updates(map[string]interface{}{
			"total_rows":         model.TotalRows,
			"accepted_rows":      model.AcceptedRows,
			"already_reconciled": model.AlreadyReconciled,
			"unmatched_rows":     model.UnmatchedRows,
			"invalid_rows":       model.InvalidRows,
			"status":             model.Status,
			"rejections":         model.Rejections,
			"completed_at":       model.CompletedAt,
			"version":            model.Version,
			"updated_at":         model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// FindBatchByID finds a batch by ID within a tenant
func (r *GormBatchRepository) FindBatchByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.ImportBatch, error) {
	var model models.ImportBatchModel
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

// ListBatches returns batches newest first
func (r *GormBatchRepository) ListBatches(ctx context.Context, tenantID uuid.UUID, page shared.Page) ([]*ledger.ImportBatch, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ImportBatchModel{}).
		Where("tenant_id = ?", tenantID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page = page.Normalize()
	var modelList []models.ImportBatchModel
	if err := query.
		Order("started_at DESC, id ASC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&modelList).Error; err != nil {
		return nil, 0, err
	}

	batches := make([]*ledger.ImportBatch, len(modelList))
	for i := range modelList {
		batches[i] = modelList[i].ToDomain()
	}
	return batches, total, nil
}

// CreateUnmatchedRow stores a row for manual assignment
func (r *GormBatchRepository) CreateUnmatchedRow(ctx context.Context, row *ledger.UnmatchedRow) error {
	var model models.UnmatchedRowModel
	model.FromDomain(row)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindUnmatchedRowByID finds an unmatched row by ID within a tenant
func (r *GormBatchRepository) FindUnmatchedRowByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.UnmatchedRow, error) {
	var model models.UnmatchedRowModel
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

// ListUnassigned returns rows still awaiting manual assignment
func (r *GormBatchRepository) ListUnassigned(ctx context.Context, tenantID uuid.UUID, page shared.Page) ([]*ledger.UnmatchedRow, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.UnmatchedRowModel{}).
		Where("tenant_id = ? AND assigned = ?", tenantID, false)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page = page.Normalize()
	var modelList []models.UnmatchedRowModel
	if err := query.
		Order("created_at ASC, id ASC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&modelList).Error; err != nil {
		return nil, 0, err
	}

	rows := make([]*ledger.UnmatchedRow, len(modelList))
	for i := range modelList {
		rows[i] = modelList[i].ToDomain()
	}
	return rows, total, nil
}

// SaveUnmatchedRow persists assignment state. The assigned guard in the
// WHERE clause makes double assignment from racing operators impossible.
func (r *GormBatchRepository) SaveUnmatchedRow(ctx context.Context, row *ledger.UnmatchedRow) error {
	result := r.db.WithContext(ctx).
		Model(&models.UnmatchedRowModel{}).
		Where("tenant_id = ? AND id = ? AND assigned = ?", row.TenantID, row.ID, false).
		Updates(map[string]interface{}{
			"assigned":    row.Assigned,
			"assigned_to": row.AssignedTo,
			"assigned_by": row.AssignedBy,
			"assigned_at": row.AssignedAt,
			"updated_at":  row.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}
