package sales

import (
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeSalesOrder = "SalesOrder"

// Event type constants
const (
	EventTypeSalesOrderCreated       = "SalesOrderCreated"
	EventTypeSalesOrderStatusChanged = "SalesOrderStatusChanged"
)

// SalesOrderCreatedEvent is raised when a new sales order is created,
// whether directly or through quotation conversion
type SalesOrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID           uuid.UUID       `json:"order_id"`
	OrderNumber       string          `json:"order_number"`
	CompanyID         uuid.UUID       `json:"company_id"`
	SourceQuotationID *uuid.UUID      `json:"source_quotation_id,omitempty"`
	Total             decimal.Decimal `json:"total"`
}

// NewSalesOrderCreatedEvent creates a new SalesOrderCreatedEvent
func NewSalesOrderCreatedEvent(order *SalesOrder) *SalesOrderCreatedEvent {
	return &SalesOrderCreatedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeSalesOrderCreated, AggregateTypeSalesOrder, order.ID, order.TenantID),
		OrderID:           order.ID,
		OrderNumber:       order.OrderNumber,
		CompanyID:         order.CompanyID,
		SourceQuotationID: order.SourceQuotationID,
		Total:             order.Total,
	}
}

// SalesOrderStatusChangedEvent is raised on every order status transition
type SalesOrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID   `json:"order_id"`
	OrderNumber    string      `json:"order_number"`
	PreviousStatus OrderStatus `json:"previous_status"`
	NewStatus      OrderStatus `json:"new_status"`
	CancelReason   string      `json:"cancel_reason,omitempty"`
}

// NewSalesOrderStatusChangedEvent creates a new SalesOrderStatusChangedEvent
func NewSalesOrderStatusChangedEvent(order *SalesOrder, previous OrderStatus) *SalesOrderStatusChangedEvent {
	return &SalesOrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesOrderStatusChanged, AggregateTypeSalesOrder, order.ID, order.TenantID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		PreviousStatus:  previous,
		NewStatus:       order.Status,
		CancelReason:    order.CancelReason,
	}
}
