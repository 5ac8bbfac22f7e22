package reconciliation

import (
	"context"
	"errors"
	"io"

	"github.com/commercive/backend/internal/domain/affiliate"
	"github.com/commercive/backend/internal/domain/ledger"
	"github.com/commercive/backend/internal/domain/shared"
	"github.com/commercive/backend/internal/domain/shared/valueobject"
	"github.com/commercive/backend/internal/infrastructure/csvimport"
	"github.com/commercive/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ImportService runs commission uploads end to end: parse, match, merge.
// Each upload leaves an ImportBatch audit record whatever the outcome.
type ImportService struct {
	affiliateRepo     affiliate.Repository
	ledgerRepo        ledger.Repository
	batchRepo         ledger.BatchRepository
	defaultCurrency   string
	maxRejectionsKept int
}

// NewImportService creates a new ImportService
func NewImportService(
	affiliateRepo affiliate.Repository,
	ledgerRepo ledger.Repository,
	batchRepo ledger.BatchRepository,
	defaultCurrency string,
	maxRejectionsKept int,
) *ImportService {
	if defaultCurrency == "" {
		defaultCurrency = string(valueobject.DefaultCurrency)
	}
	return &ImportService{
		affiliateRepo:     affiliateRepo,
		ledgerRepo:        ledgerRepo,
		batchRepo:         batchRepo,
		defaultCurrency:   defaultCurrency,
		maxRejectionsKept: maxRejectionsKept,
	}
}

// ImportCommissions processes one uploaded commission file. Row-level
// problems are collected and reported; only a structurally unreadable file
// aborts the run. The returned result mirrors the persisted batch record.
func (s *ImportService) ImportCommissions(
	ctx context.Context,
	tenantID, operatorID uuid.UUID,
	fileName string,
	fileSize int64,
	file io.Reader,
) (*ImportResult, error) {
	log := logger.L(ctx)

	batch, err := ledger.NewImportBatch(tenantID, operatorID, fileName, fileSize)
	if err != nil {
		return nil, err
	}
	if err := s.batchRepo.CreateBatch(ctx, batch); err != nil {
		return nil, err
	}

	parser, err := csvimport.NewParser(file)
	if err != nil {
		return s.failBatch(ctx, batch, csvimport.NewParseError(err, 0))
	}
	if err := parser.ParseHeader(); err != nil {
		return s.failBatch(ctx, batch, csvimport.NewParseError(err, 0))
	}
	if missing := parser.MissingHeaders(csvimport.RequiredColumns); len(missing) > 0 {
		return s.failBatch(ctx, batch, csvimport.NewParseError(
			shared.NewDomainError("MISSING_COLUMNS", "Upload is missing required columns: "+joinColumns(missing)), 0))
	}

	identities, err := s.affiliateRepo.FindApprovedForTenant(ctx, tenantID)
	if err != nil {
		return s.failBatch(ctx, batch, err)
	}
	matcher := affiliate.NewMatcher(identities)
	deduper := csvimport.NewBatchDeduper()
	rejections := csvimport.NewRejectionList(s.maxRejectionsKept)

	var total, accepted, alreadyReconciled, unmatched, invalid int

	for {
		if err := ctx.Err(); err != nil {
			batch.Cancel()
			_ = s.batchRepo.SaveBatch(ctx, batch)
			return nil, err
		}

		row, err := parser.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			return s.failBatch(ctx, batch, csvimport.NewParseError(err, parser.RowsRead()))
		}
		total++

		imported, rejection := csvimport.MapRow(row)
		if rejection != nil {
			invalid++
			rejections.Add(*rejection)
			continue
		}
		if rejection := deduper.Check(imported); rejection != nil {
			invalid++
			rejections.Add(*rejection)
			continue
		}

		currency := imported.Currency
		if currency == "" {
			currency = s.defaultCurrency
		}

		identity, outcome := matcher.Resolve(imported.CustomerCode, imported.AffiliateName)
		switch outcome {
		case affiliate.MatchedByCode, affiliate.MatchedByName:
			err := s.ledgerRepo.Merge(ctx, ledger.MergeRequest{
				TenantID:      tenantID,
				AffiliateID:   identity.ID,
				AffiliateName: identity.DisplayName,
				BatchID:       batch.ID,
				OrderID:       imported.OrderID,
				OrderCount:    imported.OrderCount,
				Gross:         imported.Gross,
				Currency:      currency,
				OrderDate:     imported.OrderDate,
			})
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, shared.ErrAlreadyReconciled):
				alreadyReconciled++
				rejections.AddField(imported.Line, csvimport.ColOrderRef,
					csvimport.ReasonAlreadyReconciled,
					"order was reconciled by a previous upload", imported.OrderID)
			case errors.Is(err, shared.ErrCurrencyMismatch):
				invalid++
				rejections.AddField(imported.Line, csvimport.ColCurrency,
					csvimport.ReasonCurrencyMismatch,
					"currency differs from the affiliate's ledger currency", currency)
			default:
				return s.failBatch(ctx, batch, err)
			}

		case affiliate.Unmatched, affiliate.AmbiguousName:
			unmatched++
			reason := csvimport.ReasonUnmatched
			message := "no affiliate matches this row"
			if outcome == affiliate.AmbiguousName {
				reason = csvimport.ReasonAmbiguousMatch
				message = "more than one affiliate shares this name"
			}
			rejections.AddField(imported.Line, csvimport.ColAffiliateName, reason, message, imported.AffiliateName)

			unmatchedRow := &ledger.UnmatchedRow{
				BaseEntity:     shared.NewBaseEntity(),
				TenantID:       tenantID,
				BatchID:        batch.ID,
				LineNumber:     imported.Line,
				AffiliateRef:   imported.CustomerCode,
				AffiliateName:  imported.AffiliateName,
				OrderID:        imported.OrderID,
				OrderCount:     imported.OrderCount,
				Gross:          imported.Gross.String(),
				Currency:       currency,
				OrderDate:      imported.OrderDate,
				AmbiguousMatch: outcome == affiliate.AmbiguousName,
			}
			if err := s.batchRepo.CreateUnmatchedRow(ctx, unmatchedRow); err != nil {
				return s.failBatch(ctx, batch, err)
			}
		}
	}

	batch.Complete(total, accepted, alreadyReconciled, unmatched, invalid, toRejectionDetails(rejections.All()))
	if err := s.batchRepo.SaveBatch(ctx, batch); err != nil {
		return nil, err
	}

	log.Info("commission import completed",
		zap.String("batch_id", batch.ID.String()),
		zap.String("file_name", fileName),
		zap.Int("total_rows", total),
		zap.Int("accepted_rows", accepted),
		zap.Int("already_reconciled", alreadyReconciled),
		zap.Int("unmatched_rows", unmatched),
		zap.Int("invalid_rows", invalid),
	)

	return &ImportResult{
		BatchID:           batch.ID,
		FileName:          fileName,
		TotalRows:         total,
		AcceptedRows:      accepted,
		AlreadyReconciled: alreadyReconciled,
		UnmatchedRows:     unmatched,
		InvalidRows:       invalid,
		Rejections:        batch.Rejections,
		RejectionSummary:  rejections.Summary(),
	}, nil
}

// failBatch records a whole-file failure on the batch and propagates the error
func (s *ImportService) failBatch(ctx context.Context, batch *ledger.ImportBatch, cause error) (*ImportResult, error) {
	rowsParsed := 0
	var parseErr *csvimport.ParseError
	if errors.As(cause, &parseErr) {
		rowsParsed = parseErr.RowsParsed
	}
	batch.Fail(rowsParsed, nil)
	if err := s.batchRepo.SaveBatch(ctx, batch); err != nil {
		logger.L(ctx).Error("failed to persist failed batch",
			zap.String("batch_id", batch.ID.String()), zap.Error(err))
	}
	return nil, cause
}

// AssignUnmatched resolves one unmatched row to an affiliate chosen by the
// operator and merges it into the ledger. The merge runs first and the row is
// marked assigned only once the ledger accepted the order, so a failed merge
// leaves the row open for another attempt. An order id that was reconciled in
// the meantime still resolves the row without merging again.
func (s *ImportService) AssignUnmatched(ctx context.Context, tenantID, rowID, affiliateID, operatorID uuid.UUID) error {
	row, err := s.batchRepo.FindUnmatchedRowByID(ctx, tenantID, rowID)
	if err != nil {
		return err
	}
	if row.Assigned {
		return shared.NewDomainError("ALREADY_ASSIGNED", "Row has already been assigned to an affiliate")
	}

	identity, err := s.affiliateRepo.FindByID(ctx, tenantID, affiliateID)
	if err != nil {
		return err
	}
	if !identity.IsApproved() {
		return shared.NewDomainError("AFFILIATE_NOT_APPROVED", "Cannot assign commission to an unapproved affiliate")
	}

	gross, err := decimal.NewFromString(row.Gross)
	if err != nil {
		return shared.NewDomainError("INVALID_AMOUNT", "Stored gross amount is not parsable")
	}

	err = s.ledgerRepo.Merge(ctx, ledger.MergeRequest{
		TenantID:      tenantID,
		AffiliateID:   affiliateID,
		AffiliateName: identity.DisplayName,
		BatchID:       row.BatchID,
		OrderID:       row.OrderID,
		OrderCount:    row.OrderCount,
		Gross:         gross,
		Currency:      row.Currency,
		OrderDate:     row.OrderDate,
	})
	if err != nil && !errors.Is(err, shared.ErrAlreadyReconciled) {
		return err
	}

	if err := row.MarkAssigned(affiliateID, operatorID); err != nil {
		return err
	}
	return s.batchRepo.SaveUnmatchedRow(ctx, row)
}

// ListUnassigned returns unmatched rows awaiting manual assignment
func (s *ImportService) ListUnassigned(ctx context.Context, tenantID uuid.UUID, page shared.Page) (shared.Paginated[UnmatchedRowDTO], error) {
	page = page.Normalize()
	rows, total, err := s.batchRepo.ListUnassigned(ctx, tenantID, page)
	if err != nil {
		return shared.Paginated[UnmatchedRowDTO]{}, err
	}
	dtos := make([]UnmatchedRowDTO, len(rows))
	for i, r := range rows {
		dtos[i] = toUnmatchedRowDTO(r)
	}
	return shared.NewPaginated(dtos, total, page.Number, page.Size), nil
}

// GetBatch returns one import batch audit record
func (s *ImportService) GetBatch(ctx context.Context, tenantID, batchID uuid.UUID) (*BatchDTO, error) {
	batch, err := s.batchRepo.FindBatchByID(ctx, tenantID, batchID)
	if err != nil {
		return nil, err
	}
	dto := toBatchDTO(batch)
	return &dto, nil
}

// ListBatches returns import batches newest first
func (s *ImportService) ListBatches(ctx context.Context, tenantID uuid.UUID, page shared.Page) (shared.Paginated[BatchDTO], error) {
	page = page.Normalize()
	batches, total, err := s.batchRepo.ListBatches(ctx, tenantID, page)
	if err != nil {
		return shared.Paginated[BatchDTO]{}, err
	}
	dtos := make([]BatchDTO, len(batches))
	for i, b := range batches {
		dtos[i] = toBatchDTO(b)
	}
	return shared.NewPaginated(dtos, total, page.Number, page.Size), nil
}

func toRejectionDetails(rows []csvimport.RowRejection) []ledger.RejectionDetail {
	details := make([]ledger.RejectionDetail, len(rows))
	for i, r := range rows {
		details[i] = ledger.RejectionDetail{
			Row:     r.Line,
			Column:  r.Column,
			Reason:  string(r.Reason),
			Message: r.Message,
			Value:   r.Value,
		}
	}
	return details
}

func joinColumns(cols []string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}
