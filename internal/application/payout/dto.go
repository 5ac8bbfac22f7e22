package payout

import (
	"time"

	"github.com/commercive/backend/internal/domain/payout"
	"github.com/commercive/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequestDTO is the view model for one payout request
type RequestDTO struct {
	ID            uuid.UUID       `json:"id"`
	AffiliateID   uuid.UUID       `json:"affiliate_id"`
	AffiliateName string          `json:"affiliate_name"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Method        string          `json:"method"`
	PayeeAddress  string          `json:"payee_address,omitempty"`
	Status        string          `json:"status"`
	Note          string          `json:"note,omitempty"`
	RequestedBy   *uuid.UUID      `json:"requested_by,omitempty"`
	ApprovedAt    *time.Time      `json:"approved_at,omitempty"`
	ApprovedBy    *uuid.UUID      `json:"approved_by,omitempty"`
	RejectedAt    *time.Time      `json:"rejected_at,omitempty"`
	RejectedBy    *uuid.UUID      `json:"rejected_by,omitempty"`
	RejectReason  string          `json:"reject_reason,omitempty"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	PaidBy        *uuid.UUID      `json:"paid_by,omitempty"`
	PaymentRef    string          `json:"payment_ref,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version"`
}

// CreateRequestCommand carries the inputs for raising a payout request
type CreateRequestCommand struct {
	AffiliateID  uuid.UUID
	Amount       decimal.Decimal
	Method       string
	PayeeAddress string
	Note         string
	RequestedBy  *uuid.UUID // nil when affiliate-initiated
}

// ListQuery carries the list filters taken from the request
type ListQuery struct {
	AffiliateID   *uuid.UUID
	AffiliateName string
	Status        string
	DateFrom      *time.Time
	DateTo        *time.Time
	SortBy        string
	SortDir       string
	Page          shared.Page
}

func toRequestDTO(r *payout.Request) RequestDTO {
	return RequestDTO{
		ID:            r.ID,
		AffiliateID:   r.AffiliateID,
		AffiliateName: r.AffiliateName,
		Amount:        r.Amount,
		Currency:      r.Currency,
		Method:        string(r.Method),
		PayeeAddress:  r.PayeeAddress,
		Status:        string(r.Status),
		Note:          r.Note,
		RequestedBy:   r.RequestedBy,
		ApprovedAt:    r.ApprovedAt,
		ApprovedBy:    r.ApprovedBy,
		RejectedAt:    r.RejectedAt,
		RejectedBy:    r.RejectedBy,
		RejectReason:  r.RejectReason,
		PaidAt:        r.PaidAt,
		PaidBy:        r.PaidBy,
		PaymentRef:    r.PaymentRef,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		Version:       r.Version,
	}
}
