package handler

import (
	"errors"
	"net/http"

	"github.com/commercive/backend/internal/application/reconciliation"
	"github.com/commercive/backend/internal/domain/shared"
	"github.com/commercive/backend/internal/infrastructure/csvimport"
	"github.com/commercive/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReconciliationHandler handles commission upload and batch operations
type ReconciliationHandler struct {
	BaseHandler
	importService *reconciliation.ImportService
	exportService *reconciliation.ExportService
	maxFileSize   int64
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(
	importService *reconciliation.ImportService,
	exportService *reconciliation.ExportService,
	maxFileSize int64,
) *ReconciliationHandler {
	return &ReconciliationHandler{
		importService: importService,
		exportService: exportService,
		maxFileSize:   maxFileSize,
	}
}

// UploadCommissions processes a commission CSV upload
func (h *ReconciliationHandler) UploadCommissions(c *gin.Context) {
	ctx := c.Request.Context()

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

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	if header.Size > h.maxFileSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "file exceeds the maximum upload size")
		return
	}

	contentType := header.Header.Get("Content-Type")
	switch contentType {
	case "", "text/csv", "text/plain", "application/octet-stream", "application/vnd.ms-excel":
	default:
		h.Error(c, http.StatusUnsupportedMediaType, dto.ErrCodeBadRequest, "file must be a CSV file")
		return
	}

	result, err := h.importService.ImportCommissions(ctx, tenantID, userID, header.Filename, header.Size, file)
	if err != nil {
		var parseErr *csvimport.ParseError
		if errors.As(err, &parseErr) {
			h.Error(c, http.StatusUnprocessableEntity, dto.ErrCodeUnreadableFile, parseErr.Error())
			return
		}
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GetBatch returns one import batch audit record
func (h *ReconciliationHandler) GetBatch(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	batchID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid batch ID")
		return
	}

	batch, err := h.importService.GetBatch(c.Request.Context(), tenantID, batchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// ListBatches returns import batches newest first
func (h *ReconciliationHandler) ListBatches(c *gin.Context) {
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

	page, err := h.importService.ListBatches(c.Request.Context(), tenantID, shared.Page{Number: req.Page, Size: req.PageSize})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ListUnmatched returns rows awaiting manual affiliate assignment
func (h *ReconciliationHandler) ListUnmatched(c *gin.Context) {
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

	page, err := h.importService.ListUnassigned(c.Request.Context(), tenantID, shared.Page{Number: req.Page, Size: req.PageSize})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// AssignUnmatchedRequest carries the operator's manual affiliate assignment
type AssignUnmatchedRequest struct {
	AffiliateID string `json:"affiliate_id" binding:"required,uuid"`
}

// AssignUnmatched resolves one unmatched row to the chosen affiliate
func (h *ReconciliationHandler) AssignUnmatched(c *gin.Context) {
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
	rowID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid row ID")
		return
	}

	var req AssignUnmatchedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "affiliate_id is required")
		return
	}
	affiliateID, err := uuid.Parse(req.AffiliateID)
	if err != nil {
		h.BadRequest(c, "Invalid affiliate ID")
		return
	}

	if err := h.importService.AssignUnmatched(c.Request.Context(), tenantID, rowID, affiliateID, userID); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadTemplate serves the upload template CSV
func (h *ReconciliationHandler) DownloadTemplate(c *gin.Context) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="commission_template.csv"`)
	if err := h.exportService.WriteTemplateCSV(c.Writer); err != nil {
		h.InternalError(c, "Failed to write template")
	}
}

// RegisterRoutes registers reconciliation routes
func (h *ReconciliationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	imports := rg.Group("/imports")
	{
		imports.POST("/commissions", h.UploadCommissions)
		imports.GET("/commissions/template", h.DownloadTemplate)
		imports.GET("/batches", h.ListBatches)
		imports.GET("/batches/:id", h.GetBatch)
		imports.GET("/unmatched", h.ListUnmatched)
		imports.POST("/unmatched/:id/assign", h.AssignUnmatched)
	}
}
