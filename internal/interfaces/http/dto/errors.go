package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidTransition is used when a state machine move is not allowed
	ErrCodeInvalidTransition = "ERR_INVALID_TRANSITION"
	// ErrCodeAlreadyReconciled is used when an order id was merged by an earlier upload
	ErrCodeAlreadyReconciled = "ERR_ALREADY_RECONCILED"
	// ErrCodeLedgerInvariant is used when an operation would drive outstanding below zero
	ErrCodeLedgerInvariant = "ERR_LEDGER_INVARIANT"
	// ErrCodeBusinessRule is used for other business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
)

// Input error codes
const (
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	ErrCodeUnreadableFile  = "ERR_UNREADABLE_FILE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidTransition: http.StatusUnprocessableEntity,
	ErrCodeAlreadyReconciled: http.StatusConflict,
	ErrCodeLedgerInvariant:   http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:      http.StatusUnprocessableEntity,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeUnreadableFile:  http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to the API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":                  ErrCodeNotFound,
	"ALREADY_EXISTS":             ErrCodeAlreadyExists,
	"INVALID_INPUT":              ErrCodeInvalidInput,
	"CONCURRENCY_CONFLICT":       ErrCodeConcurrencyConflict,
	"INVALID_TRANSITION":         ErrCodeInvalidTransition,
	"ALREADY_RECONCILED":         ErrCodeAlreadyReconciled,
	"LEDGER_INVARIANT_VIOLATION": ErrCodeLedgerInvariant,
	"CURRENCY_MISMATCH":          ErrCodeBusinessRule,
	"ALREADY_ASSIGNED":           ErrCodeConflict,
	"AFFILIATE_NOT_APPROVED":     ErrCodeBusinessRule,
	"AMOUNT_EXCEEDS_OUTSTANDING": ErrCodeBusinessRule,
	"NO_LEDGER_ENTRY":            ErrCodeBusinessRule,
	"MISSING_COLUMNS":            ErrCodeUnreadableFile,
	"INVALID_AMOUNT":             ErrCodeInvalidInput,
	"INVALID_ORDER_ID":           ErrCodeInvalidInput,
	"INVALID_STATUS":             ErrCodeInvalidInput,
	"INVALID_PAYMENT_METHOD":     ErrCodeInvalidInput,
	"INVALID_FILE_NAME":          ErrCodeInvalidInput,
	"INVALID_FILE_SIZE":          ErrCodeInvalidInput,
	"INVALID_OPERATOR":           ErrCodeInvalidInput,
	"INVALID_NOTE":               ErrCodeInvalidInput,
	"INVALID_REASON":             ErrCodeInvalidInput,
	"UNAUTHORIZED":               ErrCodeUnauthorized,
	"FORBIDDEN":                  ErrCodeForbidden,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Unknown codes pass through unchanged and resolve to 500 at GetHTTPStatus.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
