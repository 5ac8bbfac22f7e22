package reconciliation

import (
	"time"

	"github.com/commercive/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImportResult is the summary returned to the operator after an upload
type ImportResult struct {
	BatchID           uuid.UUID                `json:"batch_id"`
	FileName          string                   `json:"file_name"`
	TotalRows         int                      `json:"total_rows"`
	AcceptedRows      int                      `json:"accepted_rows"`
	AlreadyReconciled int                      `json:"already_reconciled"`
	UnmatchedRows     int                      `json:"unmatched_rows"`
	InvalidRows       int                      `json:"invalid_rows"`
	Rejections        []ledger.RejectionDetail `json:"rejections,omitempty"`
	RejectionSummary  string                   `json:"rejection_summary,omitempty"`
}

// LedgerEntryDTO is the view model for one ledger row
type LedgerEntryDTO struct {
	AffiliateID     uuid.UUID       `json:"affiliate_id"`
	AffiliateName   string          `json:"affiliate_name"`
	OrderCount      int64           `json:"order_count"`
	GrossCommission decimal.Decimal `json:"gross_commission"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	Outstanding     decimal.Decimal `json:"outstanding"`
	Currency        string          `json:"currency"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ReconciledOrderDTO is the view model for one reconciled order line
type ReconciledOrderDTO struct {
	OrderID    string          `json:"order_id"`
	OrderCount int64           `json:"order_count"`
	Gross      decimal.Decimal `json:"gross"`
	OrderDate  time.Time       `json:"order_date"`
	BatchID    uuid.UUID       `json:"batch_id"`
	MergedAt   time.Time       `json:"merged_at"`
}

// AffiliateSummaryDTO combines an affiliate's ledger position with its
// recent reconciled orders
type AffiliateSummaryDTO struct {
	Entry        LedgerEntryDTO       `json:"entry"`
	RecentOrders []ReconciledOrderDTO `json:"recent_orders"`
}

// UnmatchedRowDTO is the view model for a row awaiting manual assignment
type UnmatchedRowDTO struct {
	ID             uuid.UUID `json:"id"`
	BatchID        uuid.UUID `json:"batch_id"`
	LineNumber     int       `json:"line_number"`
	AffiliateRef   string    `json:"affiliate_ref,omitempty"`
	AffiliateName  string    `json:"affiliate_name"`
	OrderID        string    `json:"order_id"`
	OrderCount     int64     `json:"order_count"`
	Gross          string    `json:"gross"`
	Currency       string    `json:"currency"`
	OrderDate      time.Time `json:"order_date"`
	AmbiguousMatch bool      `json:"ambiguous_match"`
	CreatedAt      time.Time `json:"created_at"`
}

// BatchDTO is the view model for an import batch audit record
type BatchDTO struct {
	ID                uuid.UUID  `json:"id"`
	FileName          string     `json:"file_name"`
	FileSize          int64      `json:"file_size"`
	TotalRows         int        `json:"total_rows"`
	AcceptedRows      int        `json:"accepted_rows"`
	AlreadyReconciled int        `json:"already_reconciled"`
	UnmatchedRows     int        `json:"unmatched_rows"`
	InvalidRows       int        `json:"invalid_rows"`
	Status            string     `json:"status"`
	UploadedBy        uuid.UUID  `json:"uploaded_by"`
	StartedAt         time.Time  `json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

func toBatchDTO(b *ledger.ImportBatch) BatchDTO {
	return BatchDTO{
		ID:                b.ID,
		FileName:          b.FileName,
		FileSize:          b.FileSize,
		TotalRows:         b.TotalRows,
		AcceptedRows:      b.AcceptedRows,
		AlreadyReconciled: b.AlreadyReconciled,
		UnmatchedRows:     b.UnmatchedRows,
		InvalidRows:       b.InvalidRows,
		Status:            string(b.Status),
		UploadedBy:        b.UploadedBy,
		StartedAt:         b.StartedAt,
		CompletedAt:       b.CompletedAt,
	}
}

func toUnmatchedRowDTO(r *ledger.UnmatchedRow) UnmatchedRowDTO {
	return UnmatchedRowDTO{
		ID:             r.ID,
		BatchID:        r.BatchID,
		LineNumber:     r.LineNumber,
		AffiliateRef:   r.AffiliateRef,
		AffiliateName:  r.AffiliateName,
		OrderID:        r.OrderID,
		OrderCount:     r.OrderCount,
		Gross:          r.Gross,
		Currency:       r.Currency,
		OrderDate:      r.OrderDate,
		AmbiguousMatch: r.AmbiguousMatch,
		CreatedAt:      r.CreatedAt,
	}
}
