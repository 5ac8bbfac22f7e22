package ledger

import (
	"context"
	"time"

	"github.com/commercive/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BatchStatus represents the status of an import batch
type BatchStatus string

const (
	BatchStatusRunning   BatchStatus = "running"
	BatchStatusCompleted BatchStatus = "completed"
	BatchStatusFailed    BatchStatus = "failed"
	BatchStatusCancelled BatchStatus = "cancelled"
)

// IsValid checks if the status is valid
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusRunning, BatchStatusCompleted, BatchStatusFailed, BatchStatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true if this is a terminal state
func (s BatchStatus) IsTerminal() bool {
	return s != BatchStatusRunning
}

// RejectionDetail records one rejected row for the upload report
type RejectionDetail struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// ImportBatch is the audit record for one upload. Every upload ends with a
// persisted summary: accepted count, rejection counts by reason, and the
// unmatched rows left for manual assignment.
type ImportBatch struct {
	shared.TenantAggregateRoot
	FileName          string
	FileSize          int64
	TotalRows         int
	AcceptedRows      int
	AlreadyReconciled int
	UnmatchedRows     int
	InvalidRows       int
	Status            BatchStatus
	Rejections        []RejectionDetail
	UploadedBy        uuid.UUID
	StartedAt         time.Time
	CompletedAt       *time.Time
}

// NewImportBatch creates a running batch record for an upload
func NewImportBatch(tenantID, uploadedBy uuid.UUID, fileName string, fileSize int64) (*ImportBatch, error) {
	if fileName == "" {
		return nil, shared.NewDomainError("INVALID_FILE_NAME", "File name cannot be empty")
	}
	if fileSize < 0 {
		return nil, shared.NewDomainError("INVALID_FILE_SIZE", "File size cannot be negative")
	}
	if uploadedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OPERATOR", "Uploading operator ID is required")
	}
	return &ImportBatch{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		FileName:            fileName,
		FileSize:            fileSize,
		Status:              BatchStatusRunning,
		Rejections:          make([]RejectionDetail, 0),
		UploadedBy:          uploadedBy,
		StartedAt:           time.Now(),
	}, nil
}

// Complete finalizes the batch with its counters
func (b *ImportBatch) Complete(total, accepted, alreadyReconciled, unmatched, invalid int, rejections []RejectionDetail) {
	now := time.Now()
	b.TotalRows = total
	b.AcceptedRows = accepted
	b.AlreadyReconciled = alreadyReconciled
	b.UnmatchedRows = unmatched
	b.InvalidRows = invalid
	b.Rejections = rejections
	b.Status = BatchStatusCompleted
	b.CompletedAt = &now
	b.UpdatedAt = now
	b.IncrementVersion()
}

// Fail marks the batch as failed after a whole-file parse error, recording
// how many rows were parsed before the failure
func (b *ImportBatch) Fail(rowsParsed int, rejections []RejectionDetail) {
	now := time.Now()
	b.TotalRows = rowsParsed
	b.Rejections = rejections
	b.Status = BatchStatusFailed
	b.CompletedAt = &now
	b.UpdatedAt = now
	b.IncrementVersion()
}

// Cancel marks the batch as cancelled (operator abort or context cancellation)
func (b *ImportBatch) Cancel() {
	now := time.Now()
	b.Status = BatchStatusCancelled
	b.CompletedAt = &now
	b.UpdatedAt = now
	b.IncrementVersion()
}

// RejectedRows returns the total number of rows excluded from aggregation
func (b *ImportBatch) RejectedRows() int {
	return b.AlreadyReconciled + b.UnmatchedRows + b.InvalidRows
}

// UnmatchedRow is an imported row that could not be resolved to an affiliate.
// It is kept for the operator's manual assignment flow instead of being
// silently dropped.
type UnmatchedRow struct {
	shared.BaseEntity
	TenantID       uuid.UUID
	BatchID        uuid.UUID
	LineNumber     int
	AffiliateRef   string // customer code as imported
	AffiliateName  string // display name as imported
	OrderID        string
	OrderCount     int64
	Gross          string // decimal string, parsed again on assignment
	Currency       string
	OrderDate      time.Time
	Assigned       bool
	AssignedTo     *uuid.UUID
	AssignedBy     *uuid.UUID
	AssignedAt     *time.Time
	AmbiguousMatch bool // true when two affiliates shared the normalized name
}

// MarkAssigned records the operator's manual affiliate assignment
func (u *UnmatchedRow) MarkAssigned(affiliateID, operatorID uuid.UUID) error {
	if u.Assigned {
		return shared.NewDomainError("ALREADY_ASSIGNED", "Row has already been assigned to an affiliate")
	}
	if affiliateID == uuid.Nil || operatorID == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "Affiliate and operator IDs are required")
	}
	now := time.Now()
	u.Assigned = true
	u.AssignedTo = &affiliateID
	u.AssignedBy = &operatorID
	u.AssignedAt = &now
	u.UpdatedAt = now
	return nil
}

// BatchRepository persists import batches and unmatched rows
type BatchRepository interface {
	// CreateBatch creates a running batch record
	CreateBatch(ctx context.Context, batch *ImportBatch) error

	// SaveBatch persists batch completion
	SaveBatch(ctx context.Context, batch *ImportBatch) error

	// FindBatchByID finds a batch by ID within a tenant
	FindBatchByID(ctx context.Context, tenantID, id uuid.UUID) (*ImportBatch, error)

	// ListBatches returns batches newest first
	ListBatches(ctx context.Context, tenantID uuid.UUID, page shared.Page) ([]*ImportBatch, int64, error)

	// CreateUnmatchedRow stores a row for manual assignment
	CreateUnmatchedRow(ctx context.Context, row *UnmatchedRow) error

	// FindUnmatchedRowByID finds an unmatched row by ID within a tenant
	FindUnmatchedRowByID(ctx context.Context, tenantID, id uuid.UUID) (*UnmatchedRow, error)

	// ListUnassigned returns rows still awaiting manual assignment
	ListUnassigned(ctx context.Context, tenantID uuid.UUID, page shared.Page) ([]*UnmatchedRow, int64, error)

	// SaveUnmatchedRow persists assignment state
	SaveUnmatchedRow(ctx context.Context, row *UnmatchedRow) error
}
