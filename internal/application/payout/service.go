package payout

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/commercive/backend/internal/domain/affiliate"
	"github.com/commercive/backend/internal/domain/ledger"
	"github.com/commercive/backend/internal/domain/payout"
	"github.com/commercive/backend/internal/domain/shared"
	"github.com/commercive/backend/internal/domain/shared/valueobject"
	"github.com/commercive/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service coordinates the payout request workflow. Approval and rejection are
// plain state-machine edits; the Paid transition is delegated to the store so
// it settles atomically against the ledger.
type Service struct {
	payoutRepo    payout.Repository
	ledgerRepo    ledger.Repository
	affiliateRepo affiliate.Repository
}

// NewService creates a new payout Service
func NewService(payoutRepo payout.Repository, ledgerRepo ledger.Repository, affiliateRepo affiliate.Repository) *Service {
	return &Service{
		payoutRepo:    payoutRepo,
		ledgerRepo:    ledgerRepo,
		affiliateRepo: affiliateRepo,
	}
}

// Create raises a payout request against an affiliate's outstanding balance.
// The outstanding check here is advisory; the hard guard runs when the
// request is eventually marked paid.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, cmd CreateRequestCommand) (*RequestDTO, error) {
	identity, err := s.affiliateRepo.FindByID(ctx, tenantID, cmd.AffiliateID)
	if err != nil {
		return nil, err
	}
	if !identity.IsApproved() {
		return nil, shared.NewDomainError("AFFILIATE_NOT_APPROVED", "Cannot raise a payout for an unapproved affiliate")
	}

	entry, err := s.ledgerRepo.FindByAffiliate(ctx, tenantID, cmd.AffiliateID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NO_LEDGER_ENTRY", "Affiliate has no reconciled commission to pay out")
		}
		return nil, err
	}
	currency, err := valueobject.ParseCurrency(entry.Currency)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_AMOUNT", err.Error())
	}
	requested, err := valueobject.NewMoney(cmd.Amount, currency)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_AMOUNT", err.Error())
	}
	outstanding, err := valueobject.NewMoney(entry.Outstanding(), currency)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_AMOUNT", err.Error())
	}
	if exceeds, err := requested.GreaterThan(outstanding); err != nil || exceeds {
		return nil, shared.NewDomainError("AMOUNT_EXCEEDS_OUTSTANDING", "Requested amount exceeds the outstanding balance")
	}

	method := payout.PaymentMethod(strings.ToUpper(strings.TrimSpace(cmd.Method)))
	payeeAddress := cmd.PayeeAddress
	if payeeAddress == "" && method == payout.MethodPaypal && identity.PaypalEmail != nil {
		payeeAddress = *identity.PaypalEmail
	}

	req, err := payout.NewRequest(
		tenantID, cmd.AffiliateID, identity.DisplayName,
		cmd.Amount, entry.Currency, method, payeeAddress, cmd.RequestedBy,
	)
	if err != nil {
		return nil, err
	}
	if cmd.Note != "" {
		if err := req.Annotate(cmd.Note); err != nil {
			return nil, err
		}
	}

	if err := s.payoutRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("payout request created",
		zap.String("request_id", req.ID.String()),
		zap.String("affiliate_id", cmd.AffiliateID.String()),
		zap.String("amount", cmd.Amount.String()),
		zap.String("method", string(method)),
	)

	dto := toRequestDTO(req)
	return &dto, nil
}

// Get returns one payout request
func (s *Service) Get(ctx context.Context, tenantID, requestID uuid.UUID) (*RequestDTO, error) {
	req, err := s.payoutRepo.FindByID(ctx, tenantID, requestID)
	if err != nil {
		return nil, err
	}
	dto := toRequestDTO(req)
	return &dto, nil
}

// List returns a stable-ordered page of payout requests
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, query ListQuery) (shared.Paginated[RequestDTO], error) {
	filter, err := toFilter(query)
	if err != nil {
		return shared.Paginated[RequestDTO]{}, err
	}

	requests, total, err := s.payoutRepo.List(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[RequestDTO]{}, err
	}

	dtos := make([]RequestDTO, len(requests))
	for i, r := range requests {
		dtos[i] = toRequestDTO(r)
	}
	return shared.NewPaginated(dtos, total, filter.Page.Number, filter.Page.Size), nil
}

// Approve clears a requested payout for payment
func (s *Service) Approve(ctx context.Context, tenantID, requestID, operatorID uuid.UUID) (*RequestDTO, error) {
	return s.mutate(ctx, tenantID, requestID, func(req *payout.Request) error {
		return req.Approve(operatorID)
	})
}

// Reject declines a requested payout or reverses an approval
func (s *Service) Reject(ctx context.Context, tenantID, requestID, operatorID uuid.UUID, reason string) (*RequestDTO, error) {
	return s.mutate(ctx, tenantID, requestID, func(req *payout.Request) error {
		return req.Reject(operatorID, reason)
	})
}

// Annotate sets the operator note on a request in any state
func (s *Service) Annotate(ctx context.Context, tenantID, requestID uuid.UUID, note string) (*RequestDTO, error) {
	return s.mutate(ctx, tenantID, requestID, func(req *payout.Request) error {
		return req.Annotate(note)
	})
}

// UpdateAmount edits the requested amount while still in Requested state
func (s *Service) UpdateAmount(ctx context.Context, tenantID, requestID uuid.UUID, amount decimal.Decimal) (*RequestDTO, error) {
	return s.mutate(ctx, tenantID, requestID, func(req *payout.Request) error {
		return req.UpdateAmount(amount)
	})
}

// MarkPaid settles an approved request. The store pairs the status flip with
// the ledger paid-amount adjustment in one transaction, so either both apply
// or neither does.
func (s *Service) MarkPaid(ctx context.Context, tenantID, requestID, operatorID uuid.UUID, paymentRef string) (*RequestDTO, error) {
	req, err := s.payoutRepo.MarkPaid(ctx, tenantID, requestID, operatorID, paymentRef)
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("payout request paid",
		zap.String("request_id", requestID.String()),
		zap.String("operator_id", operatorID.String()),
		zap.String("amount", req.Amount.String()),
		zap.String("payment_ref", paymentRef),
	)

	dto := toRequestDTO(req)
	return &dto, nil
}

func (s *Service) mutate(ctx context.Context, tenantID, requestID uuid.UUID, fn func(*payout.Request) error) (*RequestDTO, error) {
	req, err := s.payoutRepo.FindByID(ctx, tenantID, requestID)
	if err != nil {
		return nil, err
	}
	if err := fn(req); err != nil {
		return nil, err
	}
	if err := s.payoutRepo.Save(ctx, req); err != nil {
		return nil, err
	}
	dto := toRequestDTO(req)
	return &dto, nil
}

var payoutExportHeader = []string{
	"request_id",
	"affiliate_id",
	"affiliate_name",
	"amount",
	"currency",
	"method",
	"payee_address",
	"status",
	"payment_ref",
	"requested_at",
	"paid_at",
}

// ExportCSV streams the filtered payout list to w as CSV, in the same order
// as the list view
func (s *Service) ExportCSV(ctx context.Context, tenantID uuid.UUID, query ListQuery, w io.Writer) error {
	filter, err := toFilter(query)
	if err != nil {
		return err
	}

	requests, err := s.payoutRepo.ListAll(ctx, tenantID, filter)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(payoutExportHeader); err != nil {
		return err
	}
	for _, r := range requests {
		paidAt := ""
		if r.PaidAt != nil {
			paidAt = r.PaidAt.Format("2006-01-02 15:04:05")
		}
		record := []string{
			r.ID.String(),
			r.AffiliateID.String(),
			r.AffiliateName,
			r.Amount.StringFixed(2),
			r.Currency,
			string(r.Method),
			r.PayeeAddress,
			string(r.Status),
			r.PaymentRef,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			paidAt,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func toFilter(query ListQuery) (payout.Filter, error) {
	filter := payout.Filter{
		AffiliateID:   query.AffiliateID,
		AffiliateName: query.AffiliateName,
		DateFrom:      query.DateFrom,
		DateTo:        query.DateTo,
		SortBy:        query.SortBy,
		SortDir:       shared.SortDirection(query.SortDir),
		Page:          query.Page.Normalize(),
	}
	if query.Status != "" {
		status := payout.RequestStatus(strings.ToUpper(strings.TrimSpace(query.Status)))
		if !status.IsValid() {
			return payout.Filter{}, shared.NewDomainError("INVALID_STATUS", "Unknown payout request status")
		}
		filter.Status = &status
	}
	return filter, nil
}
