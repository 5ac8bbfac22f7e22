package persistence

import (
	"context"
	"errors"

	"github.com/commercive/backend/internal/domain/affiliate"
	"github.com/commercive/backend/internal/domain/shared"
	"github.com/commercive/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAffiliateRepository implements affiliate.Repository using GORM.
// The affiliates table belongs to the identity subsystem; this repository
// only reads from it.
type GormAffiliateRepository struct {
	db *gorm.DB
}

// NewGormAffiliateRepository creates a new GormAffiliateRepository
func NewGormAffiliateRepository(db *gorm.DB) *GormAffiliateRepository {
	return &GormAffiliateRepository{db: db}
}

// FindByID finds an affiliate identity by ID within a tenant
func (r *GormAffiliateRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*affiliate.Identity, error) {
	var model models.AffiliateModel
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

// FindApprovedForTenant returns only approved affiliates
func (r *GormAffiliateRepository) FindApprovedForTenant(ctx context.Context, tenantID uuid.UUID) ([]*affiliate.Identity, error) {
	var modelList []models.AffiliateModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, affiliate.StatusApproved).
		Order("display_name ASC").
		Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toIdentities(modelList), nil
}

func toIdentities(modelList []models.AffiliateModel) []*affiliate.Identity {
	identities := make([]*affiliate.Identity, len(modelList))
	for i := range modelList {
		identities[i] = modelList[i].ToDomain()
	}
	return identities
}
