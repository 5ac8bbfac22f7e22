package models

import (
	"time"

	"github.com/commercive/backend/internal/domain/payout"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutRequestModel is the persistence model for payout requests
type PayoutRequestModel struct {
	TenantAggregateModel
	AffiliateID   uuid.UUID            `gorm:"type:uuid;not null;index:idx_payouts_tenant_affiliate"`
	AffiliateName string               `gorm:"type:varchar(255);not null;index"`
	Amount        decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Currency      string               `gorm:"type:varchar(3);not null;default:'USD'"`
	Method        payout.PaymentMethod `gorm:"type:varchar(20);not null"`
	PayeeAddress  string               `gorm:"type:varchar(255)"`
	Status        payout.RequestStatus `gorm:"type:varchar(20);not null;default:'REQUESTED';index"`
	Note          string               `gorm:"type:varchar(500)"`
	RequestedBy   *uuid.UUID           `gorm:"type:uuid"`
	ApprovedAt    *time.Time           `gorm:"type:timestamptz"`
	ApprovedBy    *uuid.UUID           `gorm:"type:uuid"`
	RejectedAt    *time.Time           `gorm:"type:timestamptz"`
	RejectedBy    *uuid.UUID           `gorm:"type:uuid"`
	RejectReason  string               `gorm:"type:varchar(500)"`
	PaidAt        *time.Time           `gorm:"type:timestamptz"`
	PaidBy        *uuid.UUID           `gorm:"type:uuid"`
	PaymentRef    string               `gorm:"type:varchar(128)"`
}

// TableName returns the table name for GORM
func (PayoutRequestModel) TableName() string {
	return "payout_requests"
}

// ToDomain converts the persistence model to a domain Request
func (m *PayoutRequestModel) ToDomain() *payout.Request {
	req := &payout.Request{
		AffiliateID:   m.AffiliateID,
		AffiliateName: m.AffiliateName,
		Amount:        m.Amount,
		Currency:      m.Currency,
		Method:        m.Method,
		PayeeAddress:  m.PayeeAddress,
		Status:        m.Status,
		Note:          m.Note,
		RequestedBy:   m.RequestedBy,
		ApprovedAt:    m.ApprovedAt,
		ApprovedBy:    m.ApprovedBy,
		RejectedAt:    m.RejectedAt,
		RejectedBy:    m.RejectedBy,
		RejectReason:  m.RejectReason,
		PaidAt:        m.PaidAt,
		PaidBy:        m.PaidBy,
		PaymentRef:    m.PaymentRef,
	}
	m.PopulateTenantAggregateRoot(&req.TenantAggregateRoot)
	return req
}

// FromDomain populates the persistence model from a domain Request
func (m *PayoutRequestModel) FromDomain(r *payout.Request) {
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	m.AffiliateID = r.AffiliateID
	m.AffiliateName = r.AffiliateName
	m.Amount = r.Amount
	m.Currency = r.Currency
	m.Method = r.Method
	m.PayeeAddress = r.PayeeAddress
	m.Status = r.Status
	m.Note = r.Note
	m.RequestedBy = r.RequestedBy
	m.ApprovedAt = r.ApprovedAt
	m.ApprovedBy = r.ApprovedBy
	m.RejectedAt = r.RejectedAt
	m.RejectedBy = r.RejectedBy
	m.RejectReason = r.RejectReason
	m.PaidAt = r.PaidAt
	m.PaidBy = r.PaidBy
	m.PaymentRef = r.PaymentRef
}

// PayoutRequestModelFromDomain creates a new persistence model from a domain Request
func PayoutRequestModelFromDomain(r *payout.Request) *PayoutRequestModel {
	m := &PayoutRequestModel{}
	m.FromDomain(r)
	return m
}
