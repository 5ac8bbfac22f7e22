package affiliate

import (
	"github.com/commercive/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Status represents the approval status of an affiliate account.
// The identity subsystem owns the lifecycle; this engine only reads it.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsValid returns true if the status is a known value
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Identity is the canonical affiliate record as exposed by the identity
// subsystem. It is a read model: the reconciliation engine matches imported
// rows against it and never mutates it.
type Identity struct {
	shared.BaseEntity
	TenantID     uuid.UUID
	CustomerCode *string // external customer/payment identifier, nil until provisioned
	DisplayName  string
	PaypalEmail  *string
	Status       Status
}

// IsApproved returns true if the affiliate may accrue commission
func (i *Identity) IsApproved() bool {
	return i.Status == StatusApproved
}

// HasCustomerCode returns true if an external customer code has been provisioned
func (i *Identity) HasCustomerCode() bool {
	return i.CustomerCode != nil && *i.CustomerCode != ""
}
