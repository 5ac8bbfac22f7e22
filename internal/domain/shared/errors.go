package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidTransition   = NewDomainError("INVALID_TRANSITION", "Transition not allowed from current state")
	ErrAlreadyReconciled   = NewDomainError("ALREADY_RECONCILED", "Order has already been reconciled")
	ErrLedgerInvariant     = NewDomainError("LEDGER_INVARIANT_VIOLATION", "Operation would drive outstanding balance below zero")
	ErrCurrencyMismatch    = NewDomainError("CURRENCY_MISMATCH", "Amount currency does not match the ledger entry currency")
)
