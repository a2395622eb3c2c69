package sales

import (
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeQuotation = "Quotation"

// Event type constants
const (
	EventTypeQuotationCreated    = "QuotationCreated"
	EventTypeQuotationSent       = "QuotationSent"
	EventTypeQuotationAccepted   = "QuotationAccepted"
	EventTypeQuotationRejected   = "QuotationRejected"
	EventTypeQuotationExpired    = "QuotationExpired"
	EventTypeQuotationConverted  = "QuotationConverted"
	EventTypeQuotationDuplicated = "QuotationDuplicated"
)

// QuotationCreatedEvent is raised when a new quotation is created
type QuotationCreatedEvent struct {
	shared.BaseDomainEvent
	QuotationID uuid.UUID `json:"quotation_id"`
	Number      string    `json:"number"`
	CompanyID   uuid.UUID `json:"company_id"`
	ContactID   uuid.UUID `json:"contact_id"`
}

// NewQuotationCreatedEvent creates a new QuotationCreatedEvent
func NewQuotationCreatedEvent(q *Quotation) *QuotationCreatedEvent {
	return &QuotationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuotationCreated, AggregateTypeQuotation, q.ID, q.TenantID),
		QuotationID:     q.ID,
		Number:          q.Number,
		CompanyID:       q.CompanyID,
		ContactID:       q.ContactID,
	}
}

// QuotationSentEvent is raised when a quotation is sent to the customer
type QuotationSentEvent struct {
	shared.BaseDomainEvent
	QuotationID uuid.UUID       `json:"quotation_id"`
	Number      string          `json:"number"`
	ContactID   uuid.UUID       `json:"contact_id"`
	Total       decimal.Decimal `json:"total"`
}

// NewQuotationSentEvent creates a new QuotationSentEvent
func NewQuotationSentEvent(q *Quotation) *QuotationSentEvent {
	return &QuotationSentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuotationSent, AggregateTypeQuotation, q.ID, q.TenantID),
		QuotationID:     q.ID,
		Number:          q.Number,
		ContactID:       q.ContactID,
		Total:           q.Total,
	}
}

// QuotationAcceptedEvent is raised when the customer accepts a quotation
type QuotationAcceptedEvent struct {
	shared.BaseDomainEvent
	QuotationID uuid.UUID       `json:"quotation_id"`
	Number      string          `json:"number"`
	Total       decimal.Decimal `json:"total"`
}

// NewQuotationAcceptedEvent creates a new QuotationAcceptedEvent
func NewQuotationAcceptedEvent(q *Quotation) *QuotationAcceptedEvent {
	return &QuotationAcceptedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuotationAccepted, AggregateTypeQuotation, q.ID, q.TenantID),
		QuotationID:     q.ID,
		Number:          q.Number,
		Total:           q.Total,
	}
}

// QuotationRejectedEvent is raised when the customer rejects a quotation
type QuotationRejectedEvent struct {
	shared.BaseDomainEvent
	QuotationID uuid.UUID `json:"quotation_id"`
	Number      string    `json:"number"`
}

// NewQuotationRejectedEvent creates a new QuotationRejectedEvent
func NewQuotationRejectedEvent(q *Quotation) *QuotationRejectedEvent {
	return &QuotationRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuotationRejected, AggregateTypeQuotation, q.ID, q.TenantID),
		QuotationID:     q.ID,
		Number:          q.Number,
	}
}

// QuotationExpiredEvent is raised when a sent quotation passes its valid-until date
type QuotationExpiredEvent struct {
	shared.BaseDomainEvent
	QuotationID uuid.UUID `json:"quotation_id"`
	Number      string    `json:"number"`
}

// NewQuotationExpiredEvent creates a new QuotationExpiredEvent
func NewQuotationExpiredEvent(q *Quotation) *QuotationExpiredEvent {
	return &QuotationExpiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuotationExpired, AggregateTypeQuotation, q.ID, q.TenantID),
		QuotationID:     q.ID,
		Number:          q.Number,
	}
}

// QuotationConvertedEvent is raised when a quotation is converted into a sales order
type QuotationConvertedEvent struct {
	shared.BaseDomainEvent
	QuotationID  uuid.UUID       `json:"quotation_id"`
	Number       string          `json:"number"`
	SalesOrderID uuid.UUID       `json:"sales_order_id"`
	Total        decimal.Decimal `json:"total"`
}

// NewQuotationConvertedEvent creates a new QuotationConvertedEvent
func NewQuotationConvertedEvent(q *Quotation, salesOrderID uuid.UUID) *QuotationConvertedEvent {
	return &QuotationConvertedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuotationConverted, AggregateTypeQuotation, q.ID, q.TenantID),
		QuotationID:     q.ID,
		Number:          q.Number,
		SalesOrderID:    salesOrderID,
		Total:           q.Total,
	}
}

// QuotationDuplicatedEvent is raised when a quotation is duplicated
type QuotationDuplicatedEvent struct {
	shared.BaseDomainEvent
	SourceQuotationID uuid.UUID `json:"source_quotation_id"`
	QuotationID       uuid.UUID `json:"quotation_id"`
	Number            string    `json:"number"`
}

// NewQuotationDuplicatedEvent creates a new QuotationDuplicatedEvent
func NewQuotationDuplicatedEvent(duplicate *Quotation, sourceID uuid.UUID) *QuotationDuplicatedEvent {
	return &QuotationDuplicatedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeQuotationDuplicated, AggregateTypeQuotation, duplicate.ID, duplicate.TenantID),
		SourceQuotationID: sourceID,
		QuotationID:       duplicate.ID,
		Number:            duplicate.Number,
	}
}
