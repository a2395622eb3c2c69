package sales

import (
	"fmt"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of a sales order
type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "NEW"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusNew, OrderStatusProcessing, OrderStatusDelivered,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// Fulfilment is strictly sequential; cancellation is reachable from any
// non-terminal state.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusNew:
		return target == OrderStatusProcessing || target == OrderStatusCancelled
	case OrderStatusProcessing:
		return target == OrderStatusDelivered || target == OrderStatusCancelled
	case OrderStatusDelivered:
		return target == OrderStatusCompleted || target == OrderStatusCancelled
	case OrderStatusCompleted, OrderStatusCancelled:
		return false
	}
	return false
}

// OrderItem represents a line item in a sales order, mirroring the shape of
// a quotation line item
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal
	Subtotal    decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// NewOrderItem creates a new order line item
func NewOrderItem(orderID, productID uuid.UUID, description string, quantity decimal.Decimal, unitPrice valueobject.Money, taxRate decimal.Decimal) (*OrderItem, error) {
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
	return &OrderItem{
		ID:          uuid.New(),
		OrderID:     orderID,
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
func (i *OrderItem) UpdateQuantity(quantity decimal.Decimal) error {
	if err := ValidateLineAmounts(quantity, i.UnitPrice, i.TaxRate); err != nil {
		return err
	}
	i.Quantity = quantity
	i.Subtotal = LineSubtotal(quantity, i.UnitPrice)
	i.UpdatedAt = time.Now()
	return nil
}

// UpdateUnitPrice updates the unit price and recalculates the line subtotal
func (i *OrderItem) UpdateUnitPrice(unitPrice valueobject.Money) error {
	if err := ValidateLineAmounts(i.Quantity, unitPrice.Amount(), i.TaxRate); err != nil {
		return err
	}
	i.UnitPrice = unitPrice.Amount()
	i.Subtotal = LineSubtotal(i.Quantity, i.UnitPrice)
	i.UpdatedAt = time.Now()
	return nil
}

// lineAmounts returns the arithmetic view of the item
func (i *OrderItem) lineAmounts() LineAmounts {
	return LineAmounts{Quantity: i.Quantity, UnitPrice: i.UnitPrice, TaxRate: i.TaxRate}
}

// SalesOrder represents a confirmed commitment to fulfil, either derived from
// an accepted quotation or created directly
type SalesOrder struct {
	shared.TenantAggregateRoot
	OrderNumber       string
	SourceQuotationID *uuid.UUID
	CompanyID         uuid.UUID
	ContactID         uuid.UUID
	OpportunityID     *uuid.UUID
	Items             []OrderItem `gorm:"foreignKey:OrderID"`
	Subtotal          decimal.Decimal
	Tax               decimal.Decimal
	Discount          decimal.Decimal
	Total             decimal.Decimal
	Status            OrderStatus
	ProcessingAt      *time.Time
	DeliveredAt       *time.Time
	CompletedAt       *time.Time
	CancelledAt       *time.Time
	CancelReason      string
}

// TableName returns the table name for GORM
func (SalesOrder) TableName() string {
	return "sales_orders"
}

// NewSalesOrder creates a new sales order in NEW status
func NewSalesOrder(tenantID uuid.UUID, orderNumber string, companyID, contactID uuid.UUID, createdBy uuid.UUID) (*SalesOrder, error) {
	if orderNumber == "" {
		return nil, shared.NewValidationError("Order number cannot be empty")
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

	order := &SalesOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, createdBy),
		OrderNumber:         orderNumber,
		CompanyID:           companyID,
		ContactID:           contactID,
		Items:               make([]OrderItem, 0),
		Subtotal:            decimal.Zero,
		Tax:                 decimal.Zero,
		Discount:            decimal.Zero,
		Total:               decimal.Zero,
		Status:              OrderStatusNew,
	}

	order.AddDomainEvent(NewSalesOrderCreatedEvent(order))

	return order, nil
}

// AddItem adds a new line item. Only allowed in NEW status.
func (o *SalesOrder) AddItem(productID uuid.UUID, description string, quantity decimal.Decimal, unitPrice valueobject.Money, taxRate decimal.Decimal) (*OrderItem, error) {
	if !o.CanModify() {
		return nil, shared.NewConflictError("Cannot add items to an order that has started fulfilment")
	}

	item, err := NewOrderItem(o.ID, productID, description, quantity, unitPrice, taxRate)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	if err := o.recalculateTotals(); err != nil {
		o.Items = o.Items[:len(o.Items)-1]
		return nil, err
	}
	o.Touch()

	return item, nil
}

// UpdateItemQuantity updates the quantity of an existing item.
// Only allowed in NEW status.
func (o *SalesOrder) UpdateItemQuantity(itemID uuid.UUID, quantity decimal.Decimal) error {
	if !o.CanModify() {
		return shared.NewConflictError("Cannot update items of an order that has started fulfilment")
	}

	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			if err := o.Items[idx].UpdateQuantity(quantity); err != nil {
				return err
			}
			if err := o.recalculateTotals(); err != nil {
				return err
			}
			o.Touch()
			return nil
		}
	}

	return shared.NewDomainError("NOT_FOUND", "Order item not found")
}

// UpdateItemPrice updates the unit price of an existing item.
// Only allowed in NEW status.
func (o *SalesOrder) UpdateItemPrice(itemID uuid.UUID, unitPrice valueobject.Money) error {
	if !o.CanModify() {
		return shared.NewConflictError("Cannot update items of an order that has started fulfilment")
	}

	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			if err := o.Items[idx].UpdateUnitPrice(unitPrice); err != nil {
				return err
			}
			if err := o.recalculateTotals(); err != nil {
				return err
			}
			o.Touch()
			return nil
		}
	}

	return shared.NewDomainError("NOT_FOUND", "Order item not found")
}

// RemoveItem removes a line item. Only allowed in NEW status.
func (o *SalesOrder) RemoveItem(itemID uuid.UUID) error {
	if !o.CanModify() {
		return shared.NewConflictError("Cannot remove items from an order that has started fulfilment")
	}

	for idx, item := range o.Items {
		if item.ID == itemID {
			o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
			if err := o.recalculateTotals(); err != nil {
				return err
			}
			o.Touch()
			return nil
		}
	}

	return shared.NewDomainError("NOT_FOUND", "Order item not found")
}

// ApplyDiscount applies a document-level discount. Only allowed in NEW status.
func (o *SalesOrder) ApplyDiscount(discount valueobject.Money) error {
	if !o.CanModify() {
		return shared.NewConflictError("Cannot apply discount to an order that has started fulfilment")
	}
	if discount.IsNegative() {
		return shared.NewValidationError("Discount cannot be negative")
	}
	if discount.Amount().GreaterThan(o.Subtotal) {
		return shared.NewValidationError("Discount cannot exceed subtotal")
	}

	o.Discount = discount.Amount()
	if err := o.recalculateTotals(); err != nil {
		return err
	}
	o.Touch()
	return nil
}

// StartProcessing transitions the order from NEW to PROCESSING
func (o *SalesOrder) StartProcessing() error {
	if !o.Status.CanTransitionTo(OrderStatusProcessing) {
		return shared.NewConflictError(fmt.Sprintf("Cannot start processing order in %s status", o.Status))
	}
	if len(o.Items) == 0 {
		return shared.NewConflictError("Cannot process an order without items")
	}

	now := time.Now()
	o.Status = OrderStatusProcessing
	o.ProcessingAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(NewSalesOrderStatusChangedEvent(o, OrderStatusNew))

	return nil
}

// MarkDelivered transitions the order from PROCESSING to DELIVERED
func (o *SalesOrder) MarkDelivered() error {
	if !o.Status.CanTransitionTo(OrderStatusDelivered) {
		return shared.NewConflictError(fmt.Sprintf("Cannot mark order delivered in %s status", o.Status))
	}

	now := time.Now()
	previous := o.Status
	o.Status = OrderStatusDelivered
	o.DeliveredAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(NewSalesOrderStatusChangedEvent(o, previous))

	return nil
}

// Complete transitions the order from DELIVERED to COMPLETED
func (o *SalesOrder) Complete() error {
	if !o.Status.CanTransitionTo(OrderStatusCompleted) {
		return shared.NewConflictError(fmt.Sprintf("Cannot complete order in %s status", o.Status))
	}

	now := time.Now()
	previous := o.Status
	o.Status = OrderStatusCompleted
	o.CompletedAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(NewSalesOrderStatusChangedEvent(o, previous))

	return nil
}

// Cancel cancels the order from any non-terminal state
func (o *SalesOrder) Cancel(reason string) error {
	if !o.Status.CanTransitionTo(OrderStatusCancelled) {
		return shared.NewConflictError(fmt.Sprintf("Cannot cancel order in %s status", o.Status))
	}
	if reason == "" {
		return shared.NewValidationError("Cancel reason is required")
	}

	now := time.Now()
	previous := o.Status
	o.Status = OrderStatusCancelled
	o.CancelledAt = &now
	o.CancelReason = reason
	o.UpdatedAt = now

	o.AddDomainEvent(NewSalesOrderStatusChangedEvent(o, previous))

	return nil
}

// TransitionTo applies an externally requested status transition
func (o *SalesOrder) TransitionTo(target OrderStatus, cancelReason string) error {
	switch target {
	case OrderStatusProcessing:
		return o.StartProcessing()
	case OrderStatusDelivered:
		return o.MarkDelivered()
	case OrderStatusCompleted:
		return o.Complete()
	case OrderStatusCancelled:
		return o.Cancel(cancelReason)
	default:
		return shared.NewValidationError(fmt.Sprintf("Unknown order status %q", target))
	}
}

// recalculateTotals recalculates the order totals from its items
func (o *SalesOrder) recalculateTotals() error {
	lines := make([]LineAmounts, len(o.Items))
	for idx := range o.Items {
		lines[idx] = o.Items[idx].lineAmounts()
	}

	totals, err := CalculateTotals(lines, o.Discount)
	if err != nil {
		o.Discount = decimal.Zero
		totals, err = CalculateTotals(lines, o.Discount)
		if err != nil {
			return err
		}
	}

	o.Subtotal = totals.Subtotal
	o.Tax = totals.Tax
	o.Total = totals.Total
	return nil
}

// ItemCount returns the number of line items
func (o *SalesOrder) ItemCount() int {
	return len(o.Items)
}

// GetItem returns an item by its ID
func (o *SalesOrder) GetItem(itemID uuid.UUID) *OrderItem {
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			return &o.Items[idx]
		}
	}
	return nil
}

// IsNew returns true if the order has not started fulfilment
func (o *SalesOrder) IsNew() bool {
	return o.Status == OrderStatusNew
}

// IsCompleted returns true if the order is completed
func (o *SalesOrder) IsCompleted() bool {
	return o.Status == OrderStatusCompleted
}

// IsCancelled returns true if the order is cancelled
func (o *SalesOrder) IsCancelled() bool {
	return o.Status == OrderStatusCancelled
}

// IsTerminal returns true if the order is completed or cancelled
func (o *SalesOrder) IsTerminal() bool {
	return o.IsCompleted() || o.IsCancelled()
}

// CanModify returns true if items and discount can still be edited
func (o *SalesOrder) CanModify() bool {
	return o.IsNew()
}

// GetTotalMoney returns the document total as Money
func (o *SalesOrder) GetTotalMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(o.Total)
}
