package sales

import (
	"context"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/numbering"
	"github.com/crm/backend/internal/domain/sales"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ConversionService turns accepted quotations into sales orders. The write is
// delegated to a ConversionRepository that commits the quotation's status
// flip, the new order and its items in one transaction, so a conversion is
// either fully visible or not at all.
type ConversionService struct {
	quotationRepo  sales.QuotationRepository
	conversionRepo sales.ConversionRepository
	numbers        *numbering.Generator
	eventPublisher shared.EventPublisher
}

// NewConversionService creates a new ConversionService
func NewConversionService(quotationRepo sales.QuotationRepository, conversionRepo sales.ConversionRepository, numbers *numbering.Generator) *ConversionService {
	return &ConversionService{
		quotationRepo:  quotationRepo,
		conversionRepo: conversionRepo,
		numbers:        numbers,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *ConversionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Convert converts an accepted quotation into a new sales order. The
// quotation flips to CONVERTED and records the order reference; converting a
// quotation twice fails with CONFLICT, also under concurrency.
func (s *ConversionService) Convert(ctx context.Context, actor identity.Actor, quotationID uuid.UUID) (*SalesOrderResponse, error) {
	if err := identity.Authorize(actor, identity.OpQuotationConvert, identity.Resource{Type: "quotation", TenantID: actor.TenantID}); err != nil {
		return nil, err
	}

	quotation, err := s.quotationRepo.FindByIDForTenant(ctx, actor.TenantID, quotationID)
	if err != nil {
		return nil, err
	}

	orderNumber, err := s.numbers.NextNumber(ctx, actor.TenantID, numbering.DocumentTypeSalesOrder)
	if err != nil {
		return nil, err
	}

	order, err := quotation.BuildSalesOrder(orderNumber, actor.UserID)
	if err != nil {
		return nil, err
	}

	if err := quotation.MarkConverted(order.ID); err != nil {
		return nil, err
	}

	if err := s.conversionRepo.ConvertQuotation(ctx, quotation, order); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, quotation, order)

	response := ToSalesOrderResponse(order)
	return &response, nil
}

func (s *ConversionService) publishEvents(ctx context.Context, quotation *sales.Quotation, order *sales.SalesOrder) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range quotation.GetDomainEvents() {
		_ = s.eventPublisher.Publish(ctx, event)
	}
	quotation.ClearDomainEvents()
	for _, event := range order.GetDomainEvents() {
		_ = s.eventPublisher.Publish(ctx, event)
	}
	order.ClearDomainEvents()
}
