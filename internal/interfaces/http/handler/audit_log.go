package handler

import (
	auditapp "github.com/crm/backend/internal/application/audit"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLogHandler handles audited deletion and audit trail API endpoints
type AuditLogHandler struct {
	BaseHandler
	auditService *auditapp.AuditTrailService
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(auditService *auditapp.AuditTrailService) *AuditLogHandler {
	return &AuditLogHandler{
		auditService: auditService,
	}
}

// RegisterRoutes registers audit routes on the given group
func (h *AuditLogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.DELETE("/records/:table/:id", h.DeleteRecord)

	auditLogs := rg.Group("/audit-logs")
	{
		auditLogs.GET("", h.List)
		auditLogs.GET("/:id", h.GetByID)
	}
}

// DeleteRecord handles DELETE /records/:table/:id. The record and its owned
// child rows are snapshotted into the audit trail before removal.
func (h *AuditLogHandler) DeleteRecord(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	tableName := c.Param("table")
	recordID := c.Param("id")

	var req auditapp.DeleteRecordRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	entries, err := h.auditService.DeleteRecord(c.Request.Context(), actor, tableName, recordID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, entries)
}

// List handles GET /audit-logs
func (h *AuditLogHandler) List(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter auditapp.AuditLogListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	entries, total, err := h.auditService.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, entries, total, filter.Page, filter.PageSize)
}

// GetByID handles GET /audit-logs/:id
func (h *AuditLogHandler) GetByID(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid audit log entry ID format")
		return
	}

	entry, err := h.auditService.GetByID(c.Request.Context(), actor, entryID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, entry)
}
