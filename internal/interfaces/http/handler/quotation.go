package handler

import (
	salesapp "github.com/crm/backend/internal/application/sales"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// QuotationHandler handles quotation-related API endpoints
type QuotationHandler struct {
	BaseHandler
	quotationService  *salesapp.QuotationService
	conversionService *salesapp.ConversionService
}

// NewQuotationHandler creates a new QuotationHandler
func NewQuotationHandler(quotationService *salesapp.QuotationService, conversionService *salesapp.ConversionService) *QuotationHandler {
	return &QuotationHandler{
		quotationService:  quotationService,
		conversionService: conversionService,
	}
}

// RegisterRoutes registers quotation routes on the given group
func (h *QuotationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	quotations := rg.Group("/quotations")
	{
		quotations.POST("", h.Create)
		quotations.GET("", h.List)
		quotations.GET("/summary", h.StatusSummary)
		quotations.GET("/number/:number", h.GetByNumber)
		quotations.GET("/:id", h.GetByID)
		quotations.PUT("/:id", h.Update)
		quotations.POST("/:id/items", h.AddItem)
		quotations.PUT("/:id/items/:item_id", h.UpdateItem)
		quotations.DELETE("/:id/items/:item_id", h.RemoveItem)
		quotations.POST("/:id/transition", h.Transition)
		quotations.POST("/:id/duplicate", h.Duplicate)
		quotations.POST("/:id/convert", h.Convert)
	}
}

// Create handles POST /quotations
func (h *QuotationHandler) Create(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req salesapp.CreateQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	quotation, err := h.quotationService.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, quotation)
}

// GetByID handles GET /quotations/:id
func (h *QuotationHandler) GetByID(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	quotationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid quotation ID format")
		return
	}

	quotation, err := h.quotationService.GetByID(c.Request.Context(), actor, quotationID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, quotation)
}

// GetByNumber handles GET /quotations/number/:number
func (h *QuotationHandler) GetByNumber(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	number := c.Param("number")
	if number == "" {
		h.BadRequest(c, "Quotation number is required")
		return
	}

	quotation, err := h.quotationService.GetByNumber(c.Request.Context(), actor, number)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, quotation)
}

// List handles GET /quotations
func (h *QuotationHandler) List(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter salesapp.QuotationListFilter
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

	quotations, total, err := h.quotationService.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, quotations, total, filter.Page, filter.PageSize)
}

// StatusSummary handles GET /quotations/summary
func (h *QuotationHandler) StatusSummary(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	summary, err := h.quotationService.StatusSummary(c.Request.Context(), actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

// Update handles PUT /quotations/:id
func (h *QuotationHandler) Update(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	quotationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid quotation ID format")
		return
	}

	var req salesapp.UpdateQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	quotation, err := h.quotationService.Update(c.Request.Context(), actor, quotationID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, quotation)
}

// AddItem handles POST /quotations/:id/items
func (h *QuotationHandler) AddItem(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	quotationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid quotation ID format")
		return
	}

	var req salesapp.AddQuotationItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	quotation, err := h.quotationService.AddItem(c.Request.Context(), actor, quotationID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, quotation)
}

// UpdateItem handles PUT /quotations/:id/items/:item_id
func (h *QuotationHandler) UpdateItem(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	quotationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid quotation ID format")
		return
	}

	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	var req salesapp.UpdateQuotationItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	quotation, err := h.quotationService.UpdateItem(c.Request.Context(), actor, quotationID, itemID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, quotation)
}

// RemoveItem handles DELETE /quotations/:id/items/:item_id
func (h *QuotationHandler) RemoveItem(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	quotationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid quotation ID format")
		return
	}

	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	quotation, err := h.quotationService.RemoveItem(c.Request.Context(), actor, quotationID, itemID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, quotation)
}

// Transition handles POST /quotations/:id/transition
func (h *QuotationHandler) Transition(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	quotationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid quotation ID format")
		return
	}

	var req salesapp.TransitionQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	quotation, err := h.quotationService.Transition(c.Request.Context(), actor, quotationID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, quotation)
}

// Duplicate handles POST /quotations/:id/duplicate
func (h *QuotationHandler) Duplicate(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	quotationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid quotation ID format")
		return
	}

	// Body is optional, an empty request duplicates with a recomputed validity window
	var req salesapp.DuplicateQuotationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	quotation, err := h.quotationService.Duplicate(c.Request.Context(), actor, quotationID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, quotation)
}

// Convert handles POST /quotations/:id/convert
func (h *QuotationHandler) Convert(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	quotationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid quotation ID format")
		return
	}

	order, err := h.conversionService.Convert(c.Request.Context(), actor, quotationID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, order)
}
