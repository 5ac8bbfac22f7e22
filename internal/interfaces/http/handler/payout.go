package handler

import (
	"time"

	payoutapp "github.com/commercive/backend/internal/application/payout"
	"github.com/commercive/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutHandler handles the payout request workflow
type PayoutHandler struct {
	BaseHandler
	payoutService *payoutapp.Service
}

// NewPayoutHandler creates a new PayoutHandler
func NewPayoutHandler(payoutService *payoutapp.Service) *PayoutHandler {
	return &PayoutHandler{payoutService: payoutService}
}

// CreatePayoutRequest carries the inputs for raising a payout request
type CreatePayoutRequest struct {
	AffiliateID  string `json:"affiliate_id" binding:"required,uuid"`
	Amount       string `json:"amount" binding:"required"`
	Method       string `json:"method" binding:"required"`
	PayeeAddress string `json:"payee_address"`
	Note         string `json:"note"`
}

// Create raises a payout request
func (h *PayoutHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.BadRequest(c, "Invalid user ID")
		return
	}

	var req CreatePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	affiliateID, err := uuid.Parse(req.AffiliateID)
	if err != nil {
		h.BadRequest(c, "Invalid affiliate ID")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.BadRequest(c, "amount must be a decimal value")
		return
	}

	dto, err := h.payoutService.Create(c.Request.Context(), tenantID, payoutapp.CreateRequestCommand{
		AffiliateID:  affiliateID,
		Amount:       amount,
		Method:       req.Method,
		PayeeAddress: req.PayeeAddress,
		Note:         req.Note,
		RequestedBy:  &userID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto)
}

// payoutListQuery binds payout-specific list filters
type payoutListQuery struct {
	AffiliateID string `form:"affiliate_id" binding:"omitempty,uuid"`
	Status      string `form:"status"`
	DateFrom    string `form:"date_from"`
	DateTo      string `form:"date_to"`
}

func (h *PayoutHandler) buildListQuery(c *gin.Context) (payoutapp.ListQuery, error) {
	req, err := parseListRequest(c)
	if err != nil {
		return payoutapp.ListQuery{}, err
	}
	var extra payoutListQuery
	if err := c.ShouldBindQuery(&extra); err != nil {
		return payoutapp.ListQuery{}, err
	}

	query := payoutapp.ListQuery{
		AffiliateName: req.Search,
		Status:        extra.Status,
		SortBy:        req.SortBy,
		SortDir:       req.SortDir,
		Page:          shared.Page{Number: req.Page, Size: req.PageSize},
	}
	if extra.AffiliateID != "" {
		id, err := uuid.Parse(extra.AffiliateID)
		if err != nil {
			return payoutapp.ListQuery{}, err
		}
		query.AffiliateID = &id
	}
	if extra.DateFrom != "" {
		from, err := time.Parse("2006-01-02", extra.DateFrom)
		if err != nil {
			return payoutapp.ListQuery{}, err
		}
		query.DateFrom = &from
	}
	if extra.DateTo != "" {
		to, err := time.Parse("2006-01-02", extra.DateTo)
		if err != nil {
			return payoutapp.ListQuery{}, err
		}
		// Include the whole end day
		to = to.Add(24*time.Hour - time.Nanosecond)
		query.DateTo = &to
	}
	return query, nil
}

// List returns a stable-ordered page of payout requests
func (h *PayoutHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	query, err := h.buildListQuery(c)
	if err != nil {
		h.BadRequest(c, "Invalid list parameters")
		return
	}

	page, err := h.payoutService.List(c.Request.Context(), tenantID, query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get returns one payout request
func (h *PayoutHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	requestID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid request ID")
		return
	}

	dto, err := h.payoutService.Get(c.Request.Context(), tenantID, requestID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto)
}

// Approve clears a requested payout for payment
func (h *PayoutHandler) Approve(c *gin.Context) {
	h.transition(c, func(tenantID, requestID, userID uuid.UUID) (*payoutapp.RequestDTO, error) {
		return h.payoutService.Approve(c.Request.Context(), tenantID, requestID, userID)
	})
}

// RejectPayoutRequest carries the rejection reason
type RejectPayoutRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Reject declines a payout request or reverses an approval
func (h *PayoutHandler) Reject(c *gin.Context) {
	var req RejectPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "reason is required")
		return
	}
	h.transition(c, func(tenantID, requestID, userID uuid.UUID) (*payoutapp.RequestDTO, error) {
		return h.payoutService.Reject(c.Request.Context(), tenantID, requestID, userID, req.Reason)
	})
}

// MarkPaidRequest carries the payment reference recorded on settlement
type MarkPaidRequest struct {
	PaymentRef string `json:"payment_ref"`
}

// MarkPaid settles an approved payout against the ledger
func (h *PayoutHandler) MarkPaid(c *gin.Context) {
	var req MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		h.BadRequest(c, "Invalid request body")
		return
	}
	h.transition(c, func(tenantID, requestID, userID uuid.UUID) (*payoutapp.RequestDTO, error) {
		return h.payoutService.MarkPaid(c.Request.Context(), tenantID, requestID, userID, req.PaymentRef)
	})
}

// AnnotateRequest carries the operator note
type AnnotateRequest struct {
	Note string `json:"note" binding:"required"`
}

// Annotate sets the operator note on a request
func (h *PayoutHandler) Annotate(c *gin.Context) {
	var req AnnotateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "note is required")
		return
	}
	h.transition(c, func(tenantID, requestID, userID uuid.UUID) (*payoutapp.RequestDTO, error) {
		return h.payoutService.Annotate(c.Request.Context(), tenantID, requestID, req.Note)
	})
}

// UpdateAmountRequest carries an amount edit for a requested payout
type UpdateAmountRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// UpdateAmount edits the requested amount while still in Requested state
func (h *PayoutHandler) UpdateAmount(c *gin.Context) {
	var req UpdateAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "amount is required")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.BadRequest(c, "amount must be a decimal value")
		return
	}
	h.transition(c, func(tenantID, requestID, userID uuid.UUID) (*payoutapp.RequestDTO, error) {
		return h.payoutService.UpdateAmount(c.Request.Context(), tenantID, requestID, amount)
	})
}

// Export streams the filtered payout list as CSV
func (h *PayoutHandler) Export(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	query, err := h.buildListQuery(c)
	if err != nil {
		h.BadRequest(c, "Invalid list parameters")
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="payouts.csv"`)
	if err := h.payoutService.ExportCSV(c.Request.Context(), tenantID, query, c.Writer); err != nil {
		_ = c.Error(err)
	}
}

func (h *PayoutHandler) transition(c *gin.Context, fn func(tenantID, requestID, userID uuid.UUID) (*payoutapp.RequestDTO, error)) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.BadRequest(c, "Invalid user ID")
		return
	}
	requestID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid request ID")
		return
	}

	dto, err := fn(tenantID, requestID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto)
}

// RegisterRoutes registers payout routes
func (h *PayoutHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payouts := rg.Group("/payouts")
	{
		payouts.POST("", h.Create)
		payouts.GET("", h.List)
		payouts.GET("/export", h.Export)
		payouts.GET("/:id", h.Get)
		payouts.POST("/:id/approve", h.Approve)
		payouts.POST("/:id/reject", h.Reject)
		payouts.POST("/:id/pay", h.MarkPaid)
		payouts.PUT("/:id/note", h.Annotate)
		payouts.PUT("/:id/amount", h.UpdateAmount)
	}
}
