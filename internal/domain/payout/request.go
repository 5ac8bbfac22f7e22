package payout

import (
	"fmt"
	"time"

	"github.com/commercive/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequestStatus represents the lifecycle state of a payout request
type RequestStatus string

const (
	// StatusRequested is the initial state of every payout request
	StatusRequested RequestStatus = "REQUESTED"
	// StatusApproved means an operator has cleared the request for payment
	StatusApproved RequestStatus = "APPROVED"
	// StatusPaid is terminal: the disbursement has settled against the ledger
	StatusPaid RequestStatus = "PAID"
	// StatusRejected is terminal
	StatusRejected RequestStatus = "REJECTED"
)

// String returns the string representation of RequestStatus
func (s RequestStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a known value
func (s RequestStatus) IsValid() bool {
	switch s {
	case StatusRequested, StatusApproved, StatusPaid, StatusRejected:
		return true
	}
	return false
}

// IsTerminal returns true for states with no outgoing transitions
func (s RequestStatus) IsTerminal() bool {
	return s == StatusPaid || s == StatusRejected
}

// PaymentMethod is how the disbursement will be sent
type PaymentMethod string

const (
	MethodPaypal PaymentMethod = "PAYPAL"
	MethodZelle  PaymentMethod = "ZELLE"
	MethodWise   PaymentMethod = "WISE"
	MethodBank   PaymentMethod = "BANK"
)

// IsValid returns true if the payment method is a known value
func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodPaypal, MethodZelle, MethodWise, MethodBank:
		return true
	}
	return false
}

// Request is one ask-for-payment event against an affiliate's outstanding
// balance. Requests are never deleted; rejected and paid requests are
// retained for audit. All mutation goes through the state machine:
//
//	REQUESTED -> APPROVED -> PAID
//	REQUESTED -> REJECTED
//	APPROVED  -> REJECTED  (approval reversal)
//
// PAID is never reversible; a paid request can only be annotated.
type Request struct {
	shared.TenantAggregateRoot
	AffiliateID   uuid.UUID
	AffiliateName string // denormalized for display and export
	Amount        decimal.Decimal
	Currency      string
	Method        PaymentMethod
	PayeeAddress  string // paypal email, zelle phone, IBAN etc.
	Status        RequestStatus
	Note          string
	RequestedBy   *uuid.UUID // nil when affiliate-initiated
	ApprovedAt    *time.Time
	ApprovedBy    *uuid.UUID
	RejectedAt    *time.Time
	RejectedBy    *uuid.UUID
	RejectReason  string
	PaidAt        *time.Time
	PaidBy        *uuid.UUID
	PaymentRef    string // bank/paypal transaction reference
}

// NewRequest creates a payout request in the Requested state.
// requestedBy is the operator for manual entries and nil when the affiliate
// raised the request themselves.
func NewRequest(
	tenantID, affiliateID uuid.UUID,
	affiliateName string,
	amount decimal.Decimal,
	currency string,
	method PaymentMethod,
	payeeAddress string,
	requestedBy *uuid.UUID,
) (*Request, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if affiliateID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_AFFILIATE", "Affiliate ID cannot be empty")
	}
	if affiliateName == "" {
		return nil, shared.NewDomainError("INVALID_AFFILIATE_NAME", "Affiliate name cannot be empty")
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Requested amount must be positive")
	}
	if currency == "" {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency cannot be empty")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	}

	return &Request{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		AffiliateID:         affiliateID,
		AffiliateName:       affiliateName,
		Amount:              amount,
		Currency:            currency,
		Method:              method,
		PayeeAddress:        payeeAddress,
		Status:              StatusRequested,
		RequestedBy:         requestedBy,
	}, nil
}

// Approve transitions Requested -> Approved
func (r *Request) Approve(approvedBy uuid.UUID) error {
	if r.Status != StatusRequested {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot approve payout request in %s status", r.Status))
	}
	if approvedBy == uuid.Nil {
		return shared.NewDomainError("INVALID_OPERATOR", "Approving operator ID is required")
	}

	now := time.Now()
	r.Status = StatusApproved
	r.ApprovedAt = &now
	r.ApprovedBy = &approvedBy
	r.UpdatedAt = now
	r.IncrementVersion()
	return nil
}

// Reject transitions Requested -> Rejected, or reverses an approval
// (Approved -> Rejected). Paid requests are never rejectable.
func (r *Request) Reject(rejectedBy uuid.UUID, reason string) error {
	if r.Status != StatusRequested && r.Status != StatusApproved {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot reject payout request in %s status", r.Status))
	}
	if rejectedBy == uuid.Nil {
		return shared.NewDomainError("INVALID_OPERATOR", "Rejecting operator ID is required")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Reject reason is required")
	}

	now := time.Now()
	r.Status = StatusRejected
	r.RejectedAt = &now
	r.RejectedBy = &rejectedBy
	r.RejectReason = reason
	r.UpdatedAt = now
	r.IncrementVersion()
	return nil
}

// CanMarkPaid reports whether the Paid transition is currently allowed.
// The transition itself is performed at the store boundary, paired
// atomically with the ledger adjustment.
func (r *Request) CanMarkPaid() error {
	if r.Status != StatusApproved {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot mark paid from %s status; request must be approved first", r.Status))
	}
	return nil
}

// MarkPaid transitions Approved -> Paid. Callers must have already settled
// the paired ledger adjustment; this only records the transition.
func (r *Request) MarkPaid(paidBy uuid.UUID, paymentRef string) error {
	if err := r.CanMarkPaid(); err != nil {
		return err
	}
	if paidBy == uuid.Nil {
		return shared.NewDomainError("INVALID_OPERATOR", "Paying operator ID is required")
	}

	now := time.Now()
	r.Status = StatusPaid
	r.PaidAt = &now
	r.PaidBy = &paidBy
	r.PaymentRef = paymentRef
	r.UpdatedAt = now
	r.IncrementVersion()
	return nil
}

// Annotate sets the operator note. Allowed in every state, including Paid;
// annotation is the only mutation a paid request accepts.
func (r *Request) Annotate(note string) error {
	if len(note) > 500 {
		return shared.NewDomainError("INVALID_NOTE", "Note cannot exceed 500 characters")
	}
	r.Note = note
	r.Touch()
	r.IncrementVersion()
	return nil
}

// UpdateAmount edits the requested amount while still in Requested state
func (r *Request) UpdateAmount(amount decimal.Decimal) error {
	if r.Status != StatusRequested {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot edit amount of payout request in %s status", r.Status))
	}
	if amount.IsNegative() || amount.IsZero() {
		return shared.NewDomainError("INVALID_AMOUNT", "Requested amount must be positive")
	}
	r.Amount = amount
	r.Touch()
	r.IncrementVersion()
	return nil
}
