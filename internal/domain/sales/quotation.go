package sales

import (
	"fmt"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuotationStatus represents the status of a quotation
type QuotationStatus string

const (
	QuotationStatusDraft     QuotationStatus = "DRAFT"
	QuotationStatusSent      QuotationStatus = "SENT"
	QuotationStatusAccepted  QuotationStatus = "ACCEPTED"
	QuotationStatusRejected  QuotationStatus = "REJECTED"
	QuotationStatusExpired   QuotationStatus = "EXPIRED"
	QuotationStatusConverted QuotationStatus = "CONVERTED"
)

// IsValid checks if the status is a valid QuotationStatus
func (s QuotationStatus) IsValid() bool {
	switch s {
	case QuotationStatusDraft, QuotationStatusSent, QuotationStatusAccepted,
		QuotationStatusRejected, QuotationStatusExpired, QuotationStatusConverted:
		return true
	}
	return false
}

// String returns the string representation of QuotationStatus
func (s QuotationStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s QuotationStatus) CanTransitionTo(target QuotationStatus) bool {
	switch s {
	case QuotationStatusDraft:
		return target == QuotationStatusSent
	case QuotationStatusSent:
		return target == QuotationStatusAccepted ||
			target == QuotationStatusRejected ||
			target == QuotationStatusExpired
	case QuotationStatusAccepted:
		// ACCEPTED is terminal for the quotation itself; CONVERTED is only
		// reachable through the conversion pipeline
		return target == QuotationStatusConverted
	case QuotationStatusRejected, QuotationStatusExpired, QuotationStatusConverted:
		return false
	}
	return false
}

// QuotationItem represents a line item in a quotation
type QuotationItem struct {
	ID          uuid.UUID
	QuotationID uuid.UUID
	ProductID   uuid.UUID
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal // fraction, e.g. 0.10 for 10%
	Subtotal    decimal.Decimal // Quantity * UnitPrice
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for GORM
func (QuotationItem) TableName() string {
	return "quotation_items"
}

// NewQuotationItem creates a new quotation line item
func NewQuotationItem(quotationID, productID uuid.UUID, description string, quantity decimal.Decimal, unitPrice valueobject.Money, taxRate decimal.Decimal) (*QuotationItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("Product ID cannot be empty")
	}
	if description == "" {
		return nil, shared.NewValidationError("Item description cannot be empty")
	}
	if err := ValidateLineAmounts(quantity, unitPrice.Amount(), taxRate); err != nil {
		return nil, err
	}

	now := time.Now()
	return &QuotationItem{
		ID:          uuid.New(),
		QuotationID: quotationID,
		ProductID:   productID,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice.Amount(),
		TaxRate:     taxRate,
		Subtotal:    LineSubtotal(quantity, unitPrice.Amount()),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// UpdateQuantity updates the item quantity and recalculates the line subtotal
func (i *QuotationItem) UpdateQuantity(quantity decimal.Decimal) error {
	if err := ValidateLineAmounts(quantity, i.UnitPrice, i.TaxRate); err != nil {
		return err
	}
	i.Quantity = quantity
	i.Subtotal = LineSubtotal(quantity, i.UnitPrice)
	i.UpdatedAt = time.Now()
	return nil
}

// UpdateUnitPrice updates the unit price and recalculates the line subtotal
func (i *QuotationItem) UpdateUnitPrice(unitPrice valueobject.Money) error {
	if err := ValidateLineAmounts(i.Quantity, unitPrice.Amount(), i.TaxRate); err != nil {
		return err
	}
	i.UnitPrice = unitPrice.Amount()
	i.Subtotal = LineSubtotal(i.Quantity, i.UnitPrice)
	i.UpdatedAt = time.Now()
	return nil
}

// UpdateTaxRate updates the tax rate of the line
func (i *QuotationItem) UpdateTaxRate(taxRate decimal.Decimal) error {
	if err := ValidateLineAmounts(i.Quantity, i.UnitPrice, taxRate); err != nil {
		return err
	}
	i.TaxRate = taxRate
	i.UpdatedAt = time.Now()
	return nil
}

// lineAmounts returns the arithmetic view of the item
func (i *QuotationItem) lineAmounts() LineAmounts {
	return LineAmounts{Quantity: i.Quantity, UnitPrice: i.UnitPrice, TaxRate: i.TaxRate}
}

// Quotation represents a priced proposal document sent to a prospective
// customer. It is the aggregate root owning its line items and drives the
// quotation half of the commercial-document lifecycle.
type Quotation struct {
	shared.TenantAggregateRoot
	Number        string
	CompanyID     uuid.UUID
	ContactID     uuid.UUID
	OpportunityID *uuid.UUID
	Items         []QuotationItem `gorm:"foreignKey:QuotationID"`
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	Status        QuotationStatus
	ValidUntil    time.Time
	SalesOrderID  *uuid.UUID // set when the quotation has been converted
	SentAt        *time.Time
	AcceptedAt    *time.Time
	RejectedAt    *time.Time
	ExpiredAt     *time.Time
	ConvertedAt   *time.Time
}

// TableName returns the table name for GORM
func (Quotation) TableName() string {
	return "quotations"
}

// NewQuotation creates a new quotation in DRAFT status
func NewQuotation(tenantID uuid.UUID, number string, companyID, contactID uuid.UUID, validUntil time.Time, createdBy uuid.UUID) (*Quotation, error) {
	if number == "" {
		return nil, shared.NewValidationError("Quotation number cannot be empty")
	}
	if companyID == uuid.Nil {
		return nil, shared.NewValidationError("Company ID cannot be empty")
	}
	if contactID == uuid.Nil {
		return nil, shared.NewValidationError("Contact ID cannot be empty")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewValidationError("Creator must be an authenticated user")
	}
	if validUntil.IsZero() {
		return nil, shared.NewValidationError("Valid-until date is required")
	}

	q := &Quotation{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, createdBy),
		Number:              number,
		CompanyID:           companyID,
		ContactID:           contactID,
		Items:               make([]QuotationItem, 0),
		Subtotal:            decimal.Zero,
		Tax:                 decimal.Zero,
		Discount:            decimal.Zero,
		Total:               decimal.Zero,
		Status:              QuotationStatusDraft,
		ValidUntil:          validUntil,
	}

	q.AddDomainEvent(NewQuotationCreatedEvent(q))

	return q, nil
}

// SetOpportunity links the quotation to an upstream opportunity
func (q *Quotation) SetOpportunity(opportunityID uuid.UUID) error {
	if opportunityID == uuid.Nil {
		return shared.NewValidationError("Opportunity ID cannot be empty")
	}
	q.OpportunityID = &opportunityID
	q.Touch()
	return nil
}

// AddItem adds a new line item. Only allowed in DRAFT status.
func (q *Quotation) AddItem(productID uuid.UUID, description string, quantity decimal.Decimal, unitPrice valueobject.Money, taxRate decimal.Decimal) (*QuotationItem, error) {
	if !q.CanModify() {
		return nil, shared.NewConflictError("Cannot add items to a non-draft quotation")
	}

	item, err := NewQuotationItem(q.ID, productID, description, quantity, unitPrice, taxRate)
	if err != nil {
		return nil, err
	}

	q.Items = append(q.Items, *item)
	if err := q.recalculateTotals(); err != nil {
		q.Items = q.Items[:len(q.Items)-1]
		return nil, err
	}
	q.Touch()

	return item, nil
}

// UpdateItemQuantity updates the quantity of an existing item.
// Only allowed in DRAFT status.
func (q *Quotation) UpdateItemQuantity(itemID uuid.UUID, quantity decimal.Decimal) error {
	if !q.CanModify() {
		return shared.NewConflictError("Cannot update items of a non-draft quotation")
	}

	for idx := range q.Items {
		if q.Items[idx].ID == itemID {
			if err := q.Items[idx].UpdateQuantity(quantity); err != nil {
				return err
			}
			if err := q.recalculateTotals(); err != nil {
				return err
			}
			q.Touch()
			return nil
		}
	}

	return shared.NewDomainError("NOT_FOUND", "Quotation item not found")
}

// UpdateItemPrice updates the unit price of an existing item.
// Only allowed in DRAFT status.
func (q *Quotation) UpdateItemPrice(itemID uuid.UUID, unitPrice valueobject.Money) error {
	if !q.CanModify() {
		return shared.NewConflictError("Cannot update items of a non-draft quotation")
	}

	for idx := range q.Items {
		if q.Items[idx].ID == itemID {
			if err := q.Items[idx].UpdateUnitPrice(unitPrice); err != nil {
				return err
			}
			if err := q.recalculateTotals(); err != nil {
				return err
			}
			q.Touch()
			return nil
		}
	}

	return shared.NewDomainError("NOT_FOUND", "Quotation item not found")
}

// UpdateItemTaxRate updates the tax rate of an existing item.
// Only allowed in DRAFT status.
func (q *Quotation) UpdateItemTaxRate(itemID uuid.UUID, taxRate decimal.Decimal) error {
	if !q.CanModify() {
		return shared.NewConflictError("Cannot update items of a non-draft quotation")
	}

	for idx := range q.Items {
		if q.Items[idx].ID == itemID {
			if err := q.Items[idx].UpdateTaxRate(taxRate); err != nil {
				return err
			}
			if err := q.recalculateTotals(); err != nil {
				return err
			}
			q.Touch()
			return nil
		}
	}

	return shared.NewDomainError("NOT_FOUND", "Quotation item not found")
}

// RemoveItem removes a line item. Only allowed in DRAFT status.
func (q *Quotation) RemoveItem(itemID uuid.UUID) error {
	if !q.CanModify() {
		return shared.NewConflictError("Cannot remove items from a non-draft quotation")
	}

	for idx, item := range q.Items {
		if item.ID == itemID {
			q.Items = append(q.Items[:idx], q.Items[idx+1:]...)
			if err := q.recalculateTotals(); err != nil {
				return err
			}
			q.Touch()
			return nil
		}
	}

	return shared.NewDomainError("NOT_FOUND", "Quotation item not found")
}

// ApplyDiscount applies a document-level discount. Only allowed in DRAFT status.
func (q *Quotation) ApplyDiscount(discount valueobject.Money) error {
	if !q.CanModify() {
		return shared.NewConflictError("Cannot apply discount to a non-draft quotation")
	}
	if discount.IsNegative() {
		return shared.NewValidationError("Discount cannot be negative")
	}
	if discount.Amount().GreaterThan(q.Subtotal) {
		return shared.NewValidationError("Discount cannot exceed subtotal")
	}

	q.Discount = discount.Amount()
	if err := q.recalculateTotals(); err != nil {
		return err
	}
	q.Touch()
	return nil
}

// Send transitions the quotation from DRAFT to SENT.
// Requires at least one line item.
func (q *Quotation) Send() error {
	if !q.Status.CanTransitionTo(QuotationStatusSent) {
		return shared.NewConflictError(fmt.Sprintf("Cannot send quotation in %s status", q.Status))
	}
	if len(q.Items) == 0 {
		return shared.NewConflictError("Cannot send a quotation without items")
	}

	now := time.Now()
	q.Status = QuotationStatusSent
	q.SentAt = &now
	q.UpdatedAt = now

	q.AddDomainEvent(NewQuotationSentEvent(q))

	return nil
}

// Accept marks a sent quotation as accepted by the customer
func (q *Quotation) Accept() error {
	if !q.Status.CanTransitionTo(QuotationStatusAccepted) {
		return shared.NewConflictError(fmt.Sprintf("Cannot accept quotation in %s status", q.Status))
	}

	now := time.Now()
	q.Status = QuotationStatusAccepted
	q.AcceptedAt = &now
	q.UpdatedAt = now

	q.AddDomainEvent(NewQuotationAcceptedEvent(q))

	return nil
}

// Reject marks a sent quotation as rejected by the customer
func (q *Quotation) Reject() error {
	if !q.Status.CanTransitionTo(QuotationStatusRejected) {
		return shared.NewConflictError(fmt.Sprintf("Cannot reject quotation in %s status", q.Status))
	}

	now := time.Now()
	q.Status = QuotationStatusRejected
	q.RejectedAt = &now
	q.UpdatedAt = now

	q.AddDomainEvent(NewQuotationRejectedEvent(q))

	return nil
}

// MarkExpired transitions a sent quotation to EXPIRED
func (q *Quotation) MarkExpired() error {
	if !q.Status.CanTransitionTo(QuotationStatusExpired) {
		return shared.NewConflictError(fmt.Sprintf("Cannot expire quotation in %s status", q.Status))
	}

	now := time.Now()
	q.Status = QuotationStatusExpired
	q.ExpiredAt = &now
	q.UpdatedAt = now

	q.AddDomainEvent(NewQuotationExpiredEvent(q))

	return nil
}

// ExpireIfPastDue applies lazy expiry: a SENT quotation whose valid-until
// date has passed becomes EXPIRED. Returns true if the status changed.
// Evaluated on read; there is no background timer.
func (q *Quotation) ExpireIfPastDue(now time.Time) bool {
	if q.Status != QuotationStatusSent {
		return false
	}
	if !now.After(q.ValidUntil) {
		return false
	}
	// Transition cannot fail from SENT
	_ = q.MarkExpired()
	return true
}

// MarkConverted records the successful conversion into a sales order.
// Only reachable from ACCEPTED; this is the guard against double conversion.
func (q *Quotation) MarkConverted(salesOrderID uuid.UUID) error {
	if !q.Status.CanTransitionTo(QuotationStatusConverted) {
		return shared.NewConflictError(fmt.Sprintf("Cannot convert quotation in %s status", q.Status))
	}
	if salesOrderID == uuid.Nil {
		return shared.NewValidationError("Sales order ID cannot be empty")
	}

	now := time.Now()
	q.Status = QuotationStatusConverted
	q.SalesOrderID = &salesOrderID
	q.ConvertedAt = &now
	q.UpdatedAt = now

	q.AddDomainEvent(NewQuotationConvertedEvent(q, salesOrderID))

	return nil
}

// TransitionTo applies an externally requested status transition
func (q *Quotation) TransitionTo(target QuotationStatus) error {
	switch target {
	case QuotationStatusSent:
		return q.Send()
	case QuotationStatusAccepted:
		return q.Accept()
	case QuotationStatusRejected:
		return q.Reject()
	case QuotationStatusExpired:
		return q.MarkExpired()
	case QuotationStatusConverted:
		return shared.NewConflictError("Conversion is only reachable through the conversion pipeline")
	default:
		return shared.NewValidationError(fmt.Sprintf("Unknown quotation status %q", target))
	}
}

// recalculateTotals recalculates the quotation totals from its items
func (q *Quotation) recalculateTotals() error {
	lines := make([]LineAmounts, len(q.Items))
	for idx := range q.Items {
		lines[idx] = q.Items[idx].lineAmounts()
	}

	// A discount set earlier may exceed the new subtotal; clamp it rather than
	// leaving the totals stale
	totals, err := CalculateTotals(lines, q.Discount)
	if err != nil {
		q.Discount = decimal.Zero
		totals, err = CalculateTotals(lines, q.Discount)
		if err != nil {
			return err
		}
	}

	q.Subtotal = totals.Subtotal
	q.Tax = totals.Tax
	q.Total = totals.Total
	return nil
}

// ItemCount returns the number of line items
func (q *Quotation) ItemCount() int {
	return len(q.Items)
}

// GetItem returns an item by its ID
func (q *Quotation) GetItem(itemID uuid.UUID) *QuotationItem {
	for idx := range q.Items {
		if q.Items[idx].ID == itemID {
			return &q.Items[idx]
		}
	}
	return nil
}

// IsDraft returns true if the quotation is in draft status
func (q *Quotation) IsDraft() bool {
	return q.Status == QuotationStatusDraft
}

// IsAccepted returns true if the quotation has been accepted
func (q *Quotation) IsAccepted() bool {
	return q.Status == QuotationStatusAccepted
}

// IsConverted returns true if the quotation has been converted to an order
func (q *Quotation) IsConverted() bool {
	return q.Status == QuotationStatusConverted
}

// IsTerminal returns true if no further status transitions are possible
func (q *Quotation) IsTerminal() bool {
	return q.Status == QuotationStatusRejected ||
		q.Status == QuotationStatusExpired ||
		q.Status == QuotationStatusConverted
}

// CanModify returns true if items and discount can still be edited
func (q *Quotation) CanModify() bool {
	return q.IsDraft()
}

// GetTotalMoney returns the document total as Money
func (q *Quotation) GetTotalMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(q.Total)
}
