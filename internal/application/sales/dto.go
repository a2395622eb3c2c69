package sales

import (
	"time"

	"github.com/crm/backend/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Quotation DTOs ====================

// CreateQuotationRequest represents a request to create a quotation
type CreateQuotationRequest struct {
	CompanyID     uuid.UUID                  `json:"company_id" binding:"required"`
	ContactID     uuid.UUID                  `json:"contact_id" binding:"required"`
	OpportunityID *uuid.UUID                 `json:"opportunity_id"`
	ValidUntil    time.Time                  `json:"valid_until" binding:"required"`
	Items         []CreateQuotationItemInput `json:"items"`
	Discount      *decimal.Decimal           `json:"discount"`
}

// CreateQuotationItemInput represents an item in the create quotation request
type CreateQuotationItemInput struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	Description string          `json:"description" binding:"required,min=1,max=500"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// AddQuotationItemRequest represents a request to add an item to a quotation
type AddQuotationItemRequest struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	Description string          `json:"description" binding:"required,min=1,max=500"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// UpdateQuotationItemRequest represents a request to update a quotation item
type UpdateQuotationItemRequest struct {
	Quantity  *decimal.Decimal `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	TaxRate   *decimal.Decimal `json:"tax_rate"`
}

// UpdateQuotationRequest represents a request to update quotation-level fields
type UpdateQuotationRequest struct {
	OpportunityID *uuid.UUID       `json:"opportunity_id"`
	ValidUntil    *time.Time       `json:"valid_until"`
	Discount      *decimal.Decimal `json:"discount"`
}

// TransitionQuotationRequest represents a requested status transition
type TransitionQuotationRequest struct {
	Status string `json:"status" binding:"required"`
}

// DuplicateQuotationRequest represents a request to duplicate a quotation
type DuplicateQuotationRequest struct {
	ValidUntil *time.Time `json:"valid_until"`
}

// QuotationListFilter represents filter options for quotation lists
type QuotationListFilter struct {
	Search    string                 `form:"search"`
	CompanyID *uuid.UUID             `form:"company_id"`
	ContactID *uuid.UUID             `form:"contact_id"`
	Status    *sales.QuotationStatus `form:"status"`
	StartDate *time.Time             `form:"start_date"`
	EndDate   *time.Time             `form:"end_date"`
	Page      int                    `form:"page" binding:"omitempty,min=1"`
	PageSize  int                    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string                 `form:"order_by"`
	OrderDir  string                 `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// QuotationItemResponse represents a quotation line item in API responses
type QuotationItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// QuotationResponse represents a quotation in API responses
type QuotationResponse struct {
	ID            uuid.UUID               `json:"id"`
	TenantID      uuid.UUID               `json:"tenant_id"`
	Number        string                  `json:"number"`
	CompanyID     uuid.UUID               `json:"company_id"`
	ContactID     uuid.UUID               `json:"contact_id"`
	OpportunityID *uuid.UUID              `json:"opportunity_id,omitempty"`
	Items         []QuotationItemResponse `json:"items"`
	ItemCount     int                     `json:"item_count"`
	Subtotal      decimal.Decimal         `json:"subtotal"`
	Tax           decimal.Decimal         `json:"tax"`
	Discount      decimal.Decimal         `json:"discount"`
	Total         decimal.Decimal         `json:"total"`
	Status        string                  `json:"status"`
	ValidUntil    time.Time               `json:"valid_until"`
	SalesOrderID  *uuid.UUID              `json:"sales_order_id,omitempty"`
	SentAt        *time.Time              `json:"sent_at,omitempty"`
	AcceptedAt    *time.Time              `json:"accepted_at,omitempty"`
	RejectedAt    *time.Time              `json:"rejected_at,omitempty"`
	ExpiredAt     *time.Time              `json:"expired_at,omitempty"`
	ConvertedAt   *time.Time              `json:"converted_at,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
	Version       int                     `json:"version"`
}

// QuotationListItemResponse represents a quotation in list responses
type QuotationListItemResponse struct {
	ID         uuid.UUID       `json:"id"`
	Number     string          `json:"number"`
	CompanyID  uuid.UUID       `json:"company_id"`
	ContactID  uuid.UUID       `json:"contact_id"`
	ItemCount  int             `json:"item_count"`
	Total      decimal.Decimal `json:"total"`
	Status     string          `json:"status"`
	ValidUntil time.Time       `json:"valid_until"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// QuotationStatusSummary represents quotation counts by status
type QuotationStatusSummary struct {
	Draft     int64 `json:"draft"`
	Sent      int64 `json:"sent"`
	Accepted  int64 `json:"accepted"`
	Rejected  int64 `json:"rejected"`
	Expired   int64 `json:"expired"`
	Converted int64 `json:"converted"`
	Total     int64 `json:"total"`
}

// ToQuotationItemResponse converts a domain item to a response DTO
func ToQuotationItemResponse(item *sales.QuotationItem) QuotationItemResponse {
	return QuotationItemResponse{
		ID:          item.ID,
		ProductID:   item.ProductID,
		Description: item.Description,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		TaxRate:     item.TaxRate,
		Subtotal:    item.Subtotal,
	}
}

// ToQuotationResponse converts a domain quotation to a response DTO
func ToQuotationResponse(q *sales.Quotation) QuotationResponse {
	items := make([]QuotationItemResponse, len(q.Items))
	for i := range q.Items {
		items[i] = ToQuotationItemResponse(&q.Items[i])
	}
	return QuotationResponse{
		ID:            q.ID,
		TenantID:      q.TenantID,
		Number:        q.Number,
		CompanyID:     q.CompanyID,
		ContactID:     q.ContactID,
		OpportunityID: q.OpportunityID,
		Items:         items,
		ItemCount:     q.ItemCount(),
		Subtotal:      q.Subtotal,
		Tax:           q.Tax,
		Discount:      q.Discount,
		Total:         q.Total,
		Status:        q.Status.String(),
		ValidUntil:    q.ValidUntil,
		SalesOrderID:  q.SalesOrderID,
		SentAt:        q.SentAt,
		AcceptedAt:    q.AcceptedAt,
		RejectedAt:    q.RejectedAt,
		ExpiredAt:     q.ExpiredAt,
		ConvertedAt:   q.ConvertedAt,
		CreatedAt:     q.CreatedAt,
		UpdatedAt:     q.UpdatedAt,
		Version:       q.Version,
	}
}

// ToQuotationListItemResponses converts domain quotations to list DTOs
func ToQuotationListItemResponses(quotations []sales.Quotation) []QuotationListItemResponse {
	responses := make([]QuotationListItemResponse, len(quotations))
	for i := range quotations {
		q := &quotations[i]
		responses[i] = QuotationListItemResponse{
			ID:         q.ID,
			Number:     q.Number,
			CompanyID:  q.CompanyID,
			ContactID:  q.ContactID,
			ItemCount:  q.ItemCount(),
			Total:      q.Total,
			Status:     q.Status.String(),
			ValidUntil: q.ValidUntil,
			CreatedAt:  q.CreatedAt,
			UpdatedAt:  q.UpdatedAt,
		}
	}
	return responses
}

// ==================== Sales order DTOs ====================

// CreateSalesOrderRequest represents a request to create an order directly
type CreateSalesOrderRequest struct {
	CompanyID     uuid.UUID              `json:"company_id" binding:"required"`
	ContactID     uuid.UUID              `json:"contact_id" binding:"required"`
	OpportunityID *uuid.UUID             `json:"opportunity_id"`
	Items         []CreateOrderItemInput `json:"items"`
	Discount      *decimal.Decimal       `json:"discount"`
}

// CreateOrderItemInput represents an item in the create order request
type CreateOrderItemInput struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	Description string          `json:"description" binding:"required,min=1,max=500"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// AddOrderItemRequest represents a request to add an item to an order
type AddOrderItemRequest struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	Description string          `json:"description" binding:"required,min=1,max=500"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// UpdateOrderItemRequest represents a request to update an order item
type UpdateOrderItemRequest struct {
	Quantity  *decimal.Decimal `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// TransitionOrderRequest represents a requested order status transition
type TransitionOrderRequest struct {
	Status       string `json:"status" binding:"required"`
	CancelReason string `json:"cancel_reason"`
}

// SalesOrderListFilter represents filter options for order lists
type SalesOrderListFilter struct {
	Search    string             `form:"search"`
	CompanyID *uuid.UUID         `form:"company_id"`
	ContactID *uuid.UUID         `form:"contact_id"`
	Status    *sales.OrderStatus `form:"status"`
	StartDate *time.Time         `form:"start_date"`
	EndDate   *time.Time         `form:"end_date"`
	Page      int                `form:"page" binding:"omitempty,min=1"`
	PageSize  int                `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string             `form:"order_by"`
	OrderDir  string             `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// OrderItemResponse represents an order line item in API responses
type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// SalesOrderResponse represents a sales order in API responses
type SalesOrderResponse struct {
	ID                uuid.UUID           `json:"id"`
	TenantID          uuid.UUID           `json:"tenant_id"`
	OrderNumber       string              `json:"order_number"`
	SourceQuotationID *uuid.UUID          `json:"source_quotation_id,omitempty"`
	CompanyID         uuid.UUID           `json:"company_id"`
	ContactID         uuid.UUID           `json:"contact_id"`
	OpportunityID     *uuid.UUID          `json:"opportunity_id,omitempty"`
	Items             []OrderItemResponse `json:"items"`
	ItemCount         int                 `json:"item_count"`
	Subtotal          decimal.Decimal     `json:"subtotal"`
	Tax               decimal.Decimal     `json:"tax"`
	Discount          decimal.Decimal     `json:"discount"`
	Total             decimal.Decimal     `json:"total"`
	Status            string              `json:"status"`
	ProcessingAt      *time.Time          `json:"processing_at,omitempty"`
	DeliveredAt       *time.Time          `json:"delivered_at,omitempty"`
	CompletedAt       *time.Time          `json:"completed_at,omitempty"`
	CancelledAt       *time.Time          `json:"cancelled_at,omitempty"`
	CancelReason      string              `json:"cancel_reason,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	Version           int                 `json:"version"`
}

// SalesOrderListItemResponse represents a sales order in list responses
type SalesOrderListItemResponse struct {
	ID                uuid.UUID       `json:"id"`
	OrderNumber       string          `json:"order_number"`
	SourceQuotationID *uuid.UUID      `json:"source_quotation_id,omitempty"`
	CompanyID         uuid.UUID       `json:"company_id"`
	ContactID         uuid.UUID       `json:"contact_id"`
	ItemCount         int             `json:"item_count"`
	Total             decimal.Decimal `json:"total"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// SalesOrderStatusSummary represents order counts by status
type SalesOrderStatusSummary struct {
	New        int64 `json:"new"`
	Processing int64 `json:"processing"`
	Delivered  int64 `json:"delivered"`
	Completed  int64 `json:"completed"`
	Cancelled  int64 `json:"cancelled"`
	Total      int64 `json:"total"`
}

// ToOrderItemResponse converts a domain item to a response DTO
func ToOrderItemResponse(item *sales.OrderItem) OrderItemResponse {
	return OrderItemResponse{
		ID:          item.ID,
		ProductID:   item.ProductID,
		Description: item.Description,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		TaxRate:     item.TaxRate,
		Subtotal:    item.Subtotal,
	}
}

// ToSalesOrderResponse converts a domain sales order to a response DTO
func ToSalesOrderResponse(o *sales.SalesOrder) SalesOrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i := range o.Items {
		items[i] = ToOrderItemResponse(&o.Items[i])
	}
	return SalesOrderResponse{
		ID:                o.ID,
		TenantID:          o.TenantID,
		OrderNumber:       o.OrderNumber,
		SourceQuotationID: o.SourceQuotationID,
		CompanyID:         o.CompanyID,
		ContactID:         o.ContactID,
		OpportunityID:     o.OpportunityID,
		Items:             items,
		ItemCount:         o.ItemCount(),
		Subtotal:          o.Subtotal,
		Tax:               o.Tax,
		Discount:          o.Discount,
		Total:             o.Total,
		Status:            o.Status.String(),
		ProcessingAt:      o.ProcessingAt,
		DeliveredAt:       o.DeliveredAt,
		CompletedAt:       o.CompletedAt,
		CancelledAt:       o.CancelledAt,
		CancelReason:      o.CancelReason,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
		Version:           o.Version,
	}
}

// ToSalesOrderListItemResponses converts domain orders to list DTOs
func ToSalesOrderListItemResponses(orders []sales.SalesOrder) []SalesOrderListItemResponse {
	responses := make([]SalesOrderListItemResponse, len(orders))
	for i := range orders {
		o := &orders[i]
		responses[i] = SalesOrderListItemResponse{
			ID:                o.ID,
			OrderNumber:       o.OrderNumber,
			SourceQuotationID: o.SourceQuotationID,
			CompanyID:         o.CompanyID,
			ContactID:         o.ContactID,
			ItemCount:         o.ItemCount(),
			Total:             o.Total,
			Status:            o.Status.String(),
			CreatedAt:         o.CreatedAt,
			UpdatedAt:         o.UpdatedAt,
		}
	}
	return responses
}

// ==================== Invoice DTOs ====================

// InvoiceListFilter represents filter options for invoice lists
type InvoiceListFilter struct {
	Status   *sales.InvoiceStatus `form:"status"`
	Page     int                  `form:"page" binding:"omitempty,min=1"`
	PageSize int                  `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string               `form:"order_by"`
	OrderDir string               `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID            uuid.UUID       `json:"id"`
	TenantID      uuid.UUID       `json:"tenant_id"`
	InvoiceNumber string          `json:"invoice_number"`
	OrderID       uuid.UUID       `json:"order_id"`
	Status        string          `json:"status"`
	Total         decimal.Decimal `json:"total"`
	IssuedAt      time.Time       `json:"issued_at"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version"`
}

// ToInvoiceResponse converts a domain invoice to a response DTO
func ToInvoiceResponse(inv *sales.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:            inv.ID,
		TenantID:      inv.TenantID,
		InvoiceNumber: inv.InvoiceNumber,
		OrderID:       inv.OrderID,
		Status:        inv.Status.String(),
		Total:         inv.Total,
		IssuedAt:      inv.IssuedAt,
		PaidAt:        inv.PaidAt,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
		Version:       inv.Version,
	}
}

// ToInvoiceResponses converts domain invoices to response DTOs
func ToInvoiceResponses(invoices []sales.Invoice) []InvoiceResponse {
	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = ToInvoiceResponse(&invoices[i])
	}
	return responses
}
