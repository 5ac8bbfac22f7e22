package handler

import (
	"net/http"

	"github.com/commercive/backend/internal/application/reconciliation"
	"github.com/commercive/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// LedgerHandler serves the reconciliation ledger views
type LedgerHandler struct {
	BaseHandler
	ledgerService *reconciliation.LedgerService
	exportService *reconciliation.ExportService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *reconciliation.LedgerService, exportService *reconciliation.ExportService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
		exportService: exportService,
	}
}

// ListLedger returns a stable-ordered page of ledger entries
func (h *LedgerHandler) ListLedger(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	req, err := parseListRequest(c)
	if err != nil {
		h.BadRequest(c, "Invalid list parameters")
		return
	}

	page, err := h.ledgerService.ListLedger(c.Request.Context(), tenantID, reconciliation.ListQuery{
		AffiliateName: req.Search,
		SortBy:        req.SortBy,
		SortDir:       req.SortDir,
		Page:          shared.Page{Number: req.Page, Size: req.PageSize},
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetAffiliateSummary returns one affiliate's ledger position with recent orders
func (h *LedgerHandler) GetAffiliateSummary(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	affiliateID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid affiliate ID")
		return
	}
	req, err := parseListRequest(c)
	if err != nil {
		h.BadRequest(c, "Invalid list parameters")
		return
	}

	summary, err := h.ledgerService.GetAffiliateSummary(c.Request.Context(), tenantID, affiliateID,
		shared.Page{Number: req.Page, Size: req.PageSize})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// AdjustGrossRequest carries a manual gross correction
type AdjustGrossRequest struct {
	Delta string `json:"delta" binding:"required"`
}

// AdjustGross applies a manual gross correction to an affiliate's entry
func (h *LedgerHandler) AdjustGross(c *gin.Context) {
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
	affiliateID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid affiliate ID")
		return
	}

	var req AdjustGrossRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "delta is required")
		return
	}
	delta, err := decimal.NewFromString(req.Delta)
	if err != nil {
		h.BadRequest(c, "delta must be a decimal amount")
		return
	}

	if err := h.ledgerService.AdjustGross(c.Request.Context(), tenantID, affiliateID, userID, delta); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportLedger streams the filtered ledger view as CSV
func (h *LedgerHandler) ExportLedger(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	req, err := parseListRequest(c)
	if err != nil {
		h.BadRequest(c, "Invalid list parameters")
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="ledger.csv"`)
	err = h.exportService.ExportLedgerCSV(c.Request.Context(), tenantID, reconciliation.ListQuery{
		AffiliateName: req.Search,
		SortBy:        req.SortBy,
		SortDir:       req.SortDir,
	}, c.Writer)
	if err != nil {
		// Headers may already be written; nothing sensible to send but a log entry
		_ = c.Error(err)
	}
}

// RegisterRoutes registers ledger routes
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	ledger := rg.Group("/ledger")
	{
		ledger.GET("", h.ListLedger)
		ledger.GET("/export", h.ExportLedger)
		ledger.GET("/affiliates/:id", h.GetAffiliateSummary)
		ledger.POST("/affiliates/:id/adjust", h.AdjustGross)
	}
}
