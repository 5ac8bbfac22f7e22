package models

import (
	"github.com/commercive/backend/internal/domain/affiliate"
	"github.com/google/uuid"
)

// AffiliateModel is the persistence model for affiliate identities.
// The identity subsystem owns this table; the reconciliation engine reads it.
type AffiliateModel struct {
	BaseModel
	TenantID     uuid.UUID        `gorm:"type:uuid;not null;index:idx_affiliates_tenant"`
	CustomerCode *string          `gorm:"type:varchar(64);index:idx_affiliates_tenant_code"`
	DisplayName  string           `gorm:"type:varchar(255);not null"`
	PaypalEmail  *string          `gorm:"type:varchar(255)"`
	Status       affiliate.Status `gorm:"type:varchar(20);not null;default:'PENDING'"`
}

// TableName returns the table name for GORM
func (AffiliateModel) TableName() string {
	return "affiliates"
}

// ToDomain converts the persistence model to a domain Identity
func (m *AffiliateModel) ToDomain() *affiliate.Identity {
	return &affiliate.Identity{
		BaseEntity:   m.BaseModel.ToDomain(),
		TenantID:     m.TenantID,
		CustomerCode: m.CustomerCode,
		DisplayName:  m.DisplayName,
		PaypalEmail:  m.PaypalEmail,
		Status:       m.Status,
	}
}
