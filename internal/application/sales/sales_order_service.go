package sales

import (
	"context"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/numbering"
	"github.com/crm/backend/internal/domain/sales"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// SalesOrderService handles sales order business operations
type SalesOrderService struct {
	orderRepo      sales.SalesOrderRepository
	numbers        *numbering.Generator
	eventPublisher shared.EventPublisher
}

// NewSalesOrderService creates a new SalesOrderService
func NewSalesOrderService(orderRepo sales.SalesOrderRepository, numbers *numbering.Generator) *SalesOrderService {
	return &SalesOrderService{
		orderRepo: orderRepo,
		numbers:   numbers,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *SalesOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a sales order directly, without a source quotation
func (s *SalesOrderService) Create(ctx context.Context, actor identity.Actor, req CreateSalesOrderRequest) (*SalesOrderResponse, error) {
	if err := identity.Authorize(actor, identity.OpOrderCreate, identity.Resource{Type: "order", TenantID: actor.TenantID}); err != nil {
		return nil, err
	}

	orderNumber, err := s.numbers.NextNumber(ctx, actor.TenantID, numbering.DocumentTypeSalesOrder)
	if err != nil {
		return nil, err
	}

	order, err := sales.NewSalesOrder(actor.TenantID, orderNumber, req.CompanyID, req.ContactID, actor.UserID)
	if err != nil {
		return nil, err
	}
	order.OpportunityID = req.OpportunityID

	for _, item := range req.Items {
		unitPrice := valueobject.NewMoneyUSD(item.UnitPrice)
		if _, err := order.AddItem(item.ProductID, item.Description, item.Quantity, unitPrice, item.TaxRate); err != nil {
			return nil, err
		}
	}

	if req.Discount != nil {
		if err := order.ApplyDiscount(valueobject.NewMoneyUSD(*req.Discount)); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, order)

	response := ToSalesOrderResponse(order)
	return &response, nil
}

// GetByID retrieves a sales order by ID
func (s *SalesOrderService) GetByID(ctx context.Context, actor identity.Actor, orderID uuid.UUID) (*SalesOrderResponse, error) {
	if err := identity.Authorize(actor, identity.OpOrderRead, identity.Resource{Type: "order", TenantID: actor.TenantID}); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.FindByIDForTenant(ctx, actor.TenantID, orderID)
	if err != nil {
		return nil, err
	}
	response := ToSalesOrderResponse(order)
	return &response, nil
}

// GetByOrderNumber retrieves a sales order by order number
func (s *SalesOrderService) GetByOrderNumber(ctx context.Context, actor identity.Actor, orderNumber string) (*SalesOrderResponse, error) {
	if err := identity.Authorize(actor, identity.OpOrderRead, identity.Resource{Type: "order", TenantID: actor.TenantID}); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.FindByOrderNumber(ctx, actor.TenantID, orderNumber)
	if err != nil {
		return nil, err
	}
	response := ToSalesOrderResponse(order)
	return &response, nil
}

// List retrieves sales orders with filtering and pagination
func (s *SalesOrderService) List(ctx context.Context, actor identity.Actor, filter SalesOrderListFilter) ([]SalesOrderListItemResponse, int64, error) {
	if err := identity.Authorize(actor, identity.OpOrderRead, identity.Resource{Type: "order", TenantID: actor.TenantID}); err != nil {
		return nil, 0, err
	}

	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Search = filter.Search

	if filter.CompanyID != nil {
		domainFilter.Filters["company_id"] = *filter.CompanyID
	}
	if filter.ContactID != nil {
		domainFilter.Filters["contact_id"] = *filter.ContactID
	}
	if filter.Status != nil {
		domainFilter.Filters["status"] = string(*filter.Status)
	}
	if filter.StartDate != nil {
		domainFilter.Filters["start_date"] = *filter.StartDate
	}
	if filter.EndDate != nil {
		domainFilter.Filters["end_date"] = *filter.EndDate
	}

	orders, err := s.orderRepo.FindAllForTenant(ctx, actor.TenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.orderRepo.CountForTenant(ctx, actor.TenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToSalesOrderListItemResponses(orders), total, nil
}

// StatusSummary returns order counts per status
func (s *SalesOrderService) StatusSummary(ctx context.Context, actor identity.Actor) (*SalesOrderStatusSummary, error) {
	if err := identity.Authorize(actor, identity.OpOrderRead, identity.Resource{Type: "order", TenantID: actor.TenantID}); err != nil {
		return nil, err
	}

	summary := &SalesOrderStatusSummary{}
	counts := []struct {
		status sales.OrderStatus
		target *int64
	}{
		{sales.OrderStatusNew, &summary.New},
		{sales.OrderStatusProcessing, &summary.Processing},
		{sales.OrderStatusDelivered, &summary.Delivered},
		{sales.OrderStatusCompleted, &summary.Completed},
		{sales.OrderStatusCancelled, &summary.Cancelled},
	}
	for _, c := range counts {
		count, err := s.orderRepo.CountByStatus(ctx, actor.TenantID, c.status)
		if err != nil {
			return nil, err
		}
		*c.target = count
		summary.Total += count
	}
	return summary, nil
}

// AddItem adds a line item to an order (only in NEW status)
func (s *SalesOrderService) AddItem(ctx context.Context, actor identity.Actor, orderID uuid.UUID, req AddOrderItemRequest) (*SalesOrderResponse, error) {
	if err := identity.Authorize(actor, identity.OpOrderUpdate, identity.Resource{Type: "order", TenantID: actor.TenantID}); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.FindByIDForTenant(ctx, actor.TenantID, orderID)
	if err != nil {
		return nil, err
	}

	unitPrice := valueobject.NewMoneyUSD(req.UnitPrice)
	if _, err := order.AddItem(req.ProductID, req.Description, req.Quantity, unitPrice, req.TaxRate); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	response := ToSalesOrderResponse(order)
	return &response, nil
}

// UpdateItem updates a line item on an order (only in NEW status)
func (s *SalesOrderService) UpdateItem(ctx context.Context, actor identity.Actor, orderID, itemID uuid.UUID, req UpdateOrderItemRequest) (*SalesOrderResponse, error) {
	if err := identity.Authorize(actor, identity.OpOrderUpdate, identity.Resource{Type: "order", TenantID: actor.TenantID}); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.FindByIDForTenant(ctx, actor.TenantID, orderID)
	if err != nil {
		return nil, err
	}

	if req.Quantity != nil {
		if err := order.UpdateItemQuantity(itemID, *req.Quantity); err != nil {
			return nil, err
		}
	}
	if req.UnitPrice != nil {
		if err := order.UpdateItemPrice(itemID, valueobject.NewMoneyUSD(*req.UnitPrice)); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	response := ToSalesOrderResponse(order)
	return &response, nil
}

// RemoveItem removes a line item from an order (only in NEW status)
func (s *SalesOrderService) RemoveItem(ctx context.Context, actor identity.Actor, orderID, itemID uuid.UUID) (*SalesOrderResponse, error) {
	if err := identity.Authorize(actor, identity.OpOrderUpdate, identity.Resource{Type: "order", TenantID: actor.TenantID}); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.FindByIDForTenant(ctx, actor.TenantID, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.RemoveItem(itemID); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	response := ToSalesOrderResponse(order)
	return &response, nil
}

// Transition applies a status transition requested by the client
func (s *SalesOrderService) Transition(ctx context.Context, actor identity.Actor, orderID uuid.UUID, req TransitionOrderRequest) (*SalesOrderResponse, error) {
	if err := identity.Authorize(actor, identity.OpOrderTransition, identity.Resource{Type: "order", TenantID: actor.TenantID}); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.FindByIDForTenant(ctx, actor.TenantID, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.TransitionTo(sales.OrderStatus(req.Status), req.CancelReason); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, order)

	response := ToSalesOrderResponse(order)
	return &response, nil
}

func (s *SalesOrderService) publishEvents(ctx context.Context, order *sales.SalesOrder) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range order.GetDomainEvents() {
		// Event handling is best-effort; failures must not fail the operation
		_ = s.eventPublisher.Publish(ctx, event)
	}
	order.ClearDomainEvents()
}
