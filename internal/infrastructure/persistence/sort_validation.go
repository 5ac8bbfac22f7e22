package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// LedgerSortFields contains allowed sort fields for ledger entries
var LedgerSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"affiliate_name":   true,
	"order_count":      true,
	"gross_commission": true,
	"paid_amount":      true,
	"outstanding":      true,
}

// PayoutSortFields contains allowed sort fields for payout requests
var PayoutSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"affiliate_name": true,
	"amount":         true,
	"status":         true,
	"method":         true,
	"approved_at":    true,
	"paid_at":        true,
}

// BatchSortFields contains allowed sort fields for import batches
var BatchSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"file_name":    true,
	"status":       true,
	"total_rows":   true,
	"started_at":   true,
	"completed_at": true,
}
