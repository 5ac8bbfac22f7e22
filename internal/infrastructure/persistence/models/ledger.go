package models

import (
	"encoding/json"
	"time"

	"github.com/commercive/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntryModel is the persistence model for per-affiliate commission totals
type LedgerEntryModel struct {
	TenantAggregateModel
	AffiliateID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_tenant_affiliate,priority:2"`
	AffiliateName   string          `gorm:"type:varchar(255);not null;index"`
	OrderCount      int64           `gorm:"not null;default:0"`
	GrossCommission decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PaidAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Currency        string          `gorm:"type:varchar(3);not null;default:'USD'"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain Entry
func (m *LedgerEntryModel) ToDomain() *ledger.Entry {
	entry := &ledger.Entry{
		AffiliateID:     m.AffiliateID,
		AffiliateName:   m.AffiliateName,
		OrderCount:      m.OrderCount,
		GrossCommission: m.GrossCommission,
		PaidAmount:      m.PaidAmount,
		Currency:        m.Currency,
	}
	m.PopulateTenantAggregateRoot(&entry.TenantAggregateRoot)
	return entry
}

// FromDomain populates the persistence model from a domain Entry
func (m *LedgerEntryModel) FromDomain(e *ledger.Entry, affiliateName string) {
	m.FromDomainTenantAggregateRoot(e.TenantAggregateRoot)
	m.AffiliateID = e.AffiliateID
	m.AffiliateName = affiliateName
	m.OrderCount = e.OrderCount
	m.GrossCommission = e.GrossCommission
	m.PaidAmount = e.PaidAmount
	m.Currency = e.Currency
}

// ReconciledOrderModel is the seen-order-id index backing merge idempotence.
// The unique index on (tenant, order id) is what makes replays detectable.
type ReconciledOrderModel struct {
	BaseModel
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_reconciled_tenant_order,priority:1"`
	OrderID     string          `gorm:"type:varchar(128);not null;uniqueIndex:idx_reconciled_tenant_order,priority:2"`
	AffiliateID uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderCount  int64           `gorm:"not null"`
	Gross       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	OrderDate   time.Time       `gorm:"type:date;not null"`
}

// TableName returns the table name for GORM
func (ReconciledOrderModel) TableName() string {
	return "reconciled_orders"
}

// ToDomain converts the persistence model to a domain ReconciledOrder
func (m *ReconciledOrderModel) ToDomain() *ledger.ReconciledOrder {
	return &ledger.ReconciledOrder{
		BaseEntity:  m.BaseModel.ToDomain(),
		TenantID:    m.TenantID,
		AffiliateID: m.AffiliateID,
		OrderID:     m.OrderID,
		BatchID:     m.BatchID,
		OrderCount:  m.OrderCount,
		Gross:       m.Gross,
		OrderDate:   m.OrderDate,
	}
}

// FromDomain populates the persistence model from a domain ReconciledOrder
func (m *ReconciledOrderModel) FromDomain(o *ledger.ReconciledOrder) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.TenantID = o.TenantID
	m.AffiliateID = o.AffiliateID
	m.OrderID = o.OrderID
	m.BatchID = o.BatchID
	m.OrderCount = o.OrderCount
	m.Gross = o.Gross
	m.OrderDate = o.OrderDate
}

// ImportBatchModel is the persistence model for upload audit records
type ImportBatchModel struct {
	TenantAggregateModel
	FileName          string             `gorm:"type:varchar(255);not null"`
	FileSize          int64              `gorm:"not null;default:0"`
	TotalRows         int                `gorm:"not null;default:0"`
	AcceptedRows      int                `gorm:"not null;default:0"`
	AlreadyReconciled int                `gorm:"not null;default:0"`
	UnmatchedRows     int                `gorm:"not null;default:0"`
	InvalidRows       int                `gorm:"not null;default:0"`
	Status            ledger.BatchStatus `gorm:"type:varchar(20);not null;default:'running'"`
	Rejections        string             `gorm:"type:jsonb;default:'[]'"`
	UploadedBy        uuid.UUID          `gorm:"type:uuid;not null;index"`
	StartedAt         time.Time          `gorm:"type:timestamptz;not null"`
	CompletedAt       *time.Time         `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (ImportBatchModel) TableName() string {
	return "import_batches"
}

// ToDomain converts the persistence model to a domain ImportBatch
func (m *ImportBatchModel) ToDomain() *ledger.ImportBatch {
	batch := &ledger.ImportBatch{
		FileName:          m.FileName,
		FileSize:          m.FileSize,
		TotalRows:         m.TotalRows,
		AcceptedRows:      m.AcceptedRows,
		AlreadyReconciled: m.AlreadyReconciled,
		UnmatchedRows:     m.UnmatchedRows,
		InvalidRows:       m.InvalidRows,
		Status:            m.Status,
		UploadedBy:        m.UploadedBy,
		StartedAt:         m.StartedAt,
		CompletedAt:       m.CompletedAt,
	}
	m.PopulateTenantAggregateRoot(&batch.TenantAggregateRoot)

	batch.Rejections = make([]ledger.RejectionDetail, 0)
	if m.Rejections != "" {
		_ = json.Unmarshal([]byte(m.Rejections), &batch.Rejections)
	}
	return batch
}

// FromDomain populates the persistence model from a domain ImportBatch
func (m *ImportBatchModel) FromDomain(b *ledger.ImportBatch) {
	m.FromDomainTenantAggregateRoot(b.TenantAggregateRoot)
	m.FileName = b.FileName
	m.FileSize = b.FileSize
	m.TotalRows = b.TotalRows
	m.AcceptedRows = b.AcceptedRows
	m.AlreadyReconciled = b.AlreadyReconciled
	m.UnmatchedRows = b.UnmatchedRows
	m.InvalidRows = b.InvalidRows
	m.Status = b.Status
	m.UploadedBy = b.UploadedBy
	m.StartedAt = b.StartedAt
	m.CompletedAt = b.CompletedAt

	if data, err := json.Marshal(b.Rejections); err == nil {
		m.Rejections = string(data)
	} else {
		m.Rejections = "[]"
	}
}

// UnmatchedRowModel is the persistence model for rows awaiting manual assignment
type UnmatchedRowModel struct {
	BaseModel
	TenantID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_unmatched_tenant"`
	BatchID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	LineNumber     int        `gorm:"not null"`
	AffiliateRef   string     `gorm:"type:varchar(64)"`
	AffiliateName  string     `gorm:"type:varchar(255);not null"`
	OrderID        string     `gorm:"type:varchar(128);not null"`
	OrderCount     int64      `gorm:"not null"`
	Gross          string     `gorm:"type:varchar(32);not null"`
	Currency       string     `gorm:"type:varchar(3);not null;default:'USD'"`
	OrderDate      time.Time  `gorm:"type:date;not null"`
	Assigned       bool       `gorm:"not null;default:false;index"`
	AssignedTo     *uuid.UUID `gorm:"type:uuid"`
	AssignedBy     *uuid.UUID `gorm:"type:uuid"`
	AssignedAt     *time.Time `gorm:"type:timestamptz"`
	AmbiguousMatch bool       `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (UnmatchedRowModel) TableName() string {
	return "unmatched_rows"
}

// ToDomain converts the persistence model to a domain UnmatchedRow
func (m *UnmatchedRowModel) ToDomain() *ledger.UnmatchedRow {
	return &ledger.UnmatchedRow{
		BaseEntity:     m.BaseModel.ToDomain(),
		TenantID:       m.TenantID,
		BatchID:        m.BatchID,
		LineNumber:     m.LineNumber,
		AffiliateRef:   m.AffiliateRef,
		AffiliateName:  m.AffiliateName,
		OrderID:        m.OrderID,
		OrderCount:     m.OrderCount,
		Gross:          m.Gross,
		Currency:       m.Currency,
		OrderDate:      m.OrderDate,
		Assigned:       m.Assigned,
		AssignedTo:     m.AssignedTo,
		AssignedBy:     m.AssignedBy,
		AssignedAt:     m.AssignedAt,
		AmbiguousMatch: m.AmbiguousMatch,
	}
}

// FromDomain populates the persistence model from a domain UnmatchedRow
func (m *UnmatchedRowModel) FromDomain(r *ledger.UnmatchedRow) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.TenantID = r.TenantID
	m.BatchID = r.BatchID
	m.LineNumber = r.LineNumber
	m.AffiliateRef = r.AffiliateRef
	m.AffiliateName = r.AffiliateName
	m.OrderID = r.OrderID
	m.OrderCount = r.OrderCount
	m.Gross = r.Gross
	m.Currency = r.Currency
	m.OrderDate = r.OrderDate
	m.Assigned = r.Assigned
	m.AssignedTo = r.AssignedTo
	m.AssignedBy = r.AssignedBy
	m.AssignedAt = r.AssignedAt
	m.AmbiguousMatch = r.AmbiguousMatch
}
