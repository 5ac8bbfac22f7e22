package reconciliation

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/commercive/backend/internal/domain/ledger"
	"github.com/commercive/backend/internal/domain/shared"
	"github.com/commercive/backend/internal/infrastructure/csvimport"
	"github.com/google/uuid"
)

// ExportService writes reconciliation views out as CSV. Exports honor the
// same filters and sort keys as the list views, so what the operator sees is
// what the file contains.
type ExportService struct {
	ledgerRepo ledger.Repository
}

// NewExportService creates a new ExportService
func NewExportService(ledgerRepo ledger.Repository) *ExportService {
	return &ExportService{ledgerRepo: ledgerRepo}
}

var ledgerExportHeader = []string{
	"affiliate_id",
	"affiliate_name",
	"order_count",
	"gross_commission",
	"paid_amount",
	"outstanding",
	"currency",
	"updated_at",
}

// ExportLedgerCSV streams the filtered ledger view to w as CSV
func (s *ExportService) ExportLedgerCSV(ctx context.Context, tenantID uuid.UUID, query ListQuery, w io.Writer) error {
	entries, err := s.ledgerRepo.ListAll(ctx, tenantID, ledger.Filter{
		AffiliateName: query.AffiliateName,
		SortBy:        query.SortBy,
		SortDir:       shared.SortDirection(query.SortDir),
	})
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ledgerExportHeader); err != nil {
		return err
	}
	for _, e := range entries {
		record := []string{
			e.AffiliateID.String(),
			e.AffiliateName,
			strconv.FormatInt(e.OrderCount, 10),
			e.GrossCommission.StringFixed(2),
			e.PaidAmount.StringFixed(2),
			e.Outstanding().StringFixed(2),
			e.Currency,
			e.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTemplateCSV writes the upload template merchants fill in, with one
// example row per commission type
func (s *ExportService) WriteTemplateCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	rows := [][]string{
		{
			csvimport.ColOrderDate,
			csvimport.ColCustomerCode,
			csvimport.ColAffiliateName,
			csvimport.ColAffiliateID,
			csvimport.ColCommissionRate,
			csvimport.ColCommissionType,
			csvimport.ColOrderRef,
			csvimport.ColOrderQuantity,
			csvimport.ColInvoiceTotal,
			csvimport.ColCurrency,
		},
		{"2026-01-15", "AFF-001", "Jane Doe", "", "2.50", "per_order", "ORD-1001-1010", "10", "", ""},
		{"2026-01-15", "", "Acme Media", "", "5", "percentage", "ORD-2001", "1", "1234.56", "USD"},
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
