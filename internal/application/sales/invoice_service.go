package sales

import (
	"context"
	"errors"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/numbering"
	"github.com/crm/backend/internal/domain/sales"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// InvoiceService handles invoice business operations. An invoice is created
// lazily the first time an order's billing is accessed; its total is frozen
// at that moment and never recomputed.
type InvoiceService struct {
	invoiceRepo    sales.InvoiceRepository
	orderRepo      sales.SalesOrderRepository
	numbers        *numbering.Generator
	eventPublisher shared.EventPublisher
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(invoiceRepo sales.InvoiceRepository, orderRepo sales.SalesOrderRepository, numbers *numbering.Generator) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		orderRepo:   orderRepo,
		numbers:     numbers,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// GetByID retrieves an invoice by ID
func (s *InvoiceService) GetByID(ctx context.Context, actor identity.Actor, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	if err := identity.Authorize(actor, identity.OpInvoiceRead, identity.Resource{Type: "invoice", TenantID: actor.TenantID}); err != nil {
		return nil, err
	}

	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, actor.TenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// GetOrCreateForOrder returns the invoice for a sales order, issuing it on
// first access with the order's current total
func (s *InvoiceService) GetOrCreateForOrder(ctx context.Context, actor identity.Actor, orderID uuid.UUID) (*InvoiceResponse, error) {
	if err := identity.Authorize(actor, identity.OpInvoiceRead, identity.Resource{Type: "invoice", TenantID: actor.TenantID}); err != nil {
		return nil, err
	}

	invoice, err := s.invoiceRepo.FindByOrderID(ctx, actor.TenantID, orderID)
	if err == nil {
		response := ToInvoiceResponse(invoice)
		return &response, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	order, err := s.orderRepo.FindByIDForTenant(ctx, actor.TenantID, orderID)
	if err != nil {
		return nil, err
	}

	invoiceNumber, err := s.numbers.NextNumber(ctx, actor.TenantID, numbering.DocumentTypeInvoice)
	if err != nil {
		return nil, err
	}

	invoice, err = sales.NewInvoice(actor.TenantID, invoiceNumber, order)
	if err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		// A concurrent first access may have issued the invoice between the
		// lookup and the insert; the unique order key makes the loser re-read.
		if errors.Is(err, shared.ErrAlreadyExists) {
			existing, findErr := s.invoiceRepo.FindByOrderID(ctx, actor.TenantID, orderID)
			if findErr != nil {
				return nil, findErr
			}
			response := ToInvoiceResponse(existing)
			return &response, nil
		}
		return nil, err
	}

	s.publishEvents(ctx, invoice)

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// List retrieves invoices with filtering and pagination
func (s *InvoiceService) List(ctx context.Context, actor identity.Actor, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	if err := identity.Authorize(actor, identity.OpInvoiceRead, identity.Resource{Type: "invoice", TenantID: actor.TenantID}); err != nil {
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
	if filter.Status != nil {
		domainFilter.Filters["status"] = string(*filter.Status)
	}

	invoices, err := s.invoiceRepo.FindAllForTenant(ctx, actor.TenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.invoiceRepo.CountForTenant(ctx, actor.TenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToInvoiceResponses(invoices), total, nil
}

// MarkPaid flips an invoice to PAID. Idempotent: a second call returns the
// paid invoice without error and without a second save or event.
func (s *InvoiceService) MarkPaid(ctx context.Context, actor identity.Actor, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	if err := identity.Authorize(actor, identity.OpInvoicePay, identity.Resource{Type: "invoice", TenantID: actor.TenantID}); err != nil {
		return nil, err
	}

	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, actor.TenantID, invoiceID)
	if err != nil {
		return nil, err
	}

	if invoice.MarkPaid() {
		if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
			return nil, err
		}
		s.publishEvents(ctx, invoice)
	}

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

func (s *InvoiceService) publishEvents(ctx context.Context, invoice *sales.Invoice) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range invoice.GetDomainEvents() {
		// Event handling is best-effort; failures must not fail the operation
		_ = s.eventPublisher.Publish(ctx, event)
	}
	invoice.ClearDomainEvents()
}
