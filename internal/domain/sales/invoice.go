package sales

import (
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the payment status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusUnpaid InvoiceStatus = "UNPAID"
	InvoiceStatusPaid   InvoiceStatus = "PAID"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	return s == InvoiceStatusUnpaid || s == InvoiceStatusPaid
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// Invoice is the billing document derived 1:1 from a sales order. Its total
// is frozen at creation time and is not recomputed if the order later changes.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber string
	OrderID       uuid.UUID
	Status        InvoiceStatus
	Total         decimal.Decimal
	IssuedAt      time.Time
	PaidAt        *time.Time
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates a new unpaid invoice for a sales order, mirroring the
// order total at this moment
func NewInvoice(tenantID uuid.UUID, invoiceNumber string, order *SalesOrder) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewValidationError("Invoice number cannot be empty")
	}
	if order == nil {
		return nil, shared.NewValidationError("Invoice requires a sales order")
	}
	if order.IsCancelled() {
		return nil, shared.NewConflictError("Cannot invoice a cancelled order")
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       invoiceNumber,
		OrderID:             order.ID,
		Status:              InvoiceStatusUnpaid,
		Total:               order.Total,
		IssuedAt:            time.Now(),
	}

	inv.AddDomainEvent(NewInvoiceIssuedEvent(inv))

	return inv, nil
}

// MarkPaid flips the invoice to PAID. The operation is idempotent: marking an
// already-paid invoice paid again is a no-op, not an error. Returns true when
// the status actually changed.
func (inv *Invoice) MarkPaid() bool {
	if inv.Status == InvoiceStatusPaid {
		return false
	}

	now := time.Now()
	inv.Status = InvoiceStatusPaid
	inv.PaidAt = &now
	inv.UpdatedAt = now

	inv.AddDomainEvent(NewInvoicePaidEvent(inv))

	return true
}

// IsPaid returns true if the invoice has been paid
func (inv *Invoice) IsPaid() bool {
	return inv.Status == InvoiceStatusPaid
}

// GetTotalMoney returns the invoice total as Money
func (inv *Invoice) GetTotalMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(inv.Total)
}

// Aggregate type constant
const AggregateTypeInvoice = "Invoice"

// Event type constants
const (
	EventTypeInvoiceIssued = "InvoiceIssued"
	EventTypeInvoicePaid   = "InvoicePaid"
)

// InvoiceIssuedEvent is raised when an invoice is created for an order
type InvoiceIssuedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	OrderID       uuid.UUID       `json:"order_id"`
	Total         decimal.Decimal `json:"total"`
}

// NewInvoiceIssuedEvent creates a new InvoiceIssuedEvent
func NewInvoiceIssuedEvent(inv *Invoice) *InvoiceIssuedEvent {
	return &InvoiceIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceIssued, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		OrderID:         inv.OrderID,
		Total:           inv.Total,
	}
}

// InvoicePaidEvent is raised when an invoice transitions to PAID
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	OrderID       uuid.UUID       `json:"order_id"`
	Total         decimal.Decimal `json:"total"`
}

// NewInvoicePaidEvent creates a new InvoicePaidEvent
func NewInvoicePaidEvent(inv *Invoice) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaid, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		OrderID:         inv.OrderID,
		Total:           inv.Total,
	}
}
