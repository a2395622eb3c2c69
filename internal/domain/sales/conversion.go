package sales

import (
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// BuildSalesOrder derives a sales order from an accepted quotation: company,
// contact and opportunity references are copied, and every line item is deep
// copied with a fresh identity but identical quantity, price and tax rate.
// The returned order is not persisted; the conversion pipeline stores it and
// flips the quotation to CONVERTED in one transaction.
func (q *Quotation) BuildSalesOrder(orderNumber string, createdBy uuid.UUID) (*SalesOrder, error) {
	if !q.IsAccepted() {
		return nil, shared.NewConflictError("Only an accepted quotation can be converted to a sales order")
	}
	if len(q.Items) == 0 {
		return nil, shared.NewConflictError("Cannot convert a quotation without items")
	}

	order, err := NewSalesOrder(q.TenantID, orderNumber, q.CompanyID, q.ContactID, createdBy)
	if err != nil {
		return nil, err
	}
	order.SourceQuotationID = &q.ID
	order.OpportunityID = q.OpportunityID

	for idx := range q.Items {
		src := &q.Items[idx]
		if _, err := order.AddItem(src.ProductID, src.Description, src.Quantity, valueobject.NewMoneyUSD(src.UnitPrice), src.TaxRate); err != nil {
			return nil, err
		}
	}

	if q.Discount.IsPositive() {
		if err := order.ApplyDiscount(valueobject.NewMoneyUSD(q.Discount)); err != nil {
			return nil, err
		}
	}

	return order, nil
}

// BuildDuplicate produces a new DRAFT quotation carrying the source's
// company, contact, opportunity, discount and deep-copied line items. The
// duplicate shares no mutable state with the source: editing one never
// affects the other.
func (q *Quotation) BuildDuplicate(number string, createdBy uuid.UUID, validUntil time.Time) (*Quotation, error) {
	if validUntil.IsZero() {
		validUntil = q.ValidUntil
	}

	duplicate, err := NewQuotation(q.TenantID, number, q.CompanyID, q.ContactID, validUntil, createdBy)
	if err != nil {
		return nil, err
	}
	duplicate.OpportunityID = q.OpportunityID

	for idx := range q.Items {
		src := &q.Items[idx]
		if _, err := duplicate.AddItem(src.ProductID, src.Description, src.Quantity, valueobject.NewMoneyUSD(src.UnitPrice), src.TaxRate); err != nil {
			return nil, err
		}
	}

	if q.Discount.IsPositive() {
		if err := duplicate.ApplyDiscount(valueobject.NewMoneyUSD(q.Discount)); err != nil {
			return nil, err
		}
	}

	duplicate.AddDomainEvent(NewQuotationDuplicatedEvent(duplicate, q.ID))

	return duplicate, nil
}
