package sales

import (
	"context"
	"time"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/numbering"
	"github.com/crm/backend/internal/domain/sales"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// QuotationService handles quotation business operations
type QuotationService struct {
	quotationRepo  sales.QuotationRepository
	numbers        *numbering.Generator
	eventPublisher shared.EventPublisher
	renderer       DocumentRenderer
	dispatcher     EmailDispatcher
}

// NewQuotationService creates a new QuotationService
func NewQuotationService(quotationRepo sales.QuotationRepository, numbers *numbering.Generator) *QuotationService {
	return &QuotationService{
		quotationRepo: quotationRepo,
		numbers:       numbers,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *QuotationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetDelivery configures optional document rendering and email delivery for
// the send flow
func (s *QuotationService) SetDelivery(renderer DocumentRenderer, dispatcher EmailDispatcher) {
	s.renderer = renderer
	s.dispatcher = dispatcher
}

// Create creates a new quotation
func (s *QuotationService) Create(ctx context.Context, actor identity.Actor, req CreateQuotationRequest) (*QuotationResponse, error) {
	if err := identity.Authorize(actor, identity.OpQuotationCreate, identity.Resource{Type: "quotation", TenantID: actor.TenantID}); err != nil {
		return nil, err
	}

	number, err := s.numbers.NextNumber(ctx, actor.TenantID, numbering.DocumentTypeQuotation)
	if err != nil {
		return nil, err
	}

	quotation, err := sales.NewQuotation(actor.TenantID, number, req.CompanyID, req.ContactID, req.ValidUntil, actor.UserID)
	if err != nil {
		return nil, err
	}

	if req.OpportunityID != nil {
		if err := quotation.SetOpportunity(*req.OpportunityID); err != nil {
			return nil, err
		}
	}

	for _, item := range req.Items {
		unitPrice := valueobject.NewMoneyUSD(item.UnitPrice)
		if _, err := quotation.AddItem(item.ProductID, item.Description, item.Quantity, unitPrice, item.TaxRate); err != nil {
			return nil, err
		}
	}

	if req.Discount != nil {
		if err := quotation.ApplyDiscount(valueobject.NewMoneyUSD(*req.Discount)); err != nil {
			return nil, err
		}
	}

	if err := s.quotationRepo.Save(ctx, quotation); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, quotation)

	response := ToQuotationResponse(quotation)
	return &response, nil
}

// GetByID retrieves a quotation by ID. Lazy expiry is applied: a SENT
// quotation whose validity window has passed is flipped to EXPIRED and
// persisted before being returned.
func (s *QuotationService) GetByID(ctx context.Context, actor identity.Actor, quotationID uuid.UUID) (*QuotationResponse, error) {
	if err := identity.Authorize(actor, identity.OpQuotationRead, identity.Resource{Type: "quotation", TenantID: actor.TenantID}); err != nil {
		return nil, err
	}

	quotation, err := s.quotationRepo.FindByIDForTenant(ctx, actor.TenantID, quotationID)
	if err != nil {
		return nil, err
	}

	if err := s.expirePastDue(ctx, quotation); err != nil {
		return nil, err
	}

	response := ToQuotationResponse(quotation)
	return &response, nil
}

// GetByNumber retrieves a quotation by its display number
func (s *QuotationService) GetByNumber(ctx context.Context, actor identity.Actor, number string) (*QuotationResponse, error) {
	if err := identity.Authorize(actor, identity.OpQuotationRead, identity.Resource{Type: "quotation", TenantID: actor.TenantID}); err != nil {
		return nil, err
	}

	quotation, err := s.quotationRepo.FindByNumber(ctx, actor.TenantID, number)
	if err != nil {
		return nil, err
	}

	if err := s.expirePastDue(ctx, quotation); err != nil {
		return nil, err
	}

	response := ToQuotationResponse(quotation)
	return &response, nil
}

// List retrieves quotations with filtering and pagination
func (s *QuotationService) List(ctx context.Context, actor identity.Actor, filter QuotationListFilter) ([]QuotationListItemResponse, int64, error) {
	if err := identity.Authorize(actor, identity.OpQuotationRead, identity.Resource{Type: "quotation", TenantID: actor.TenantID}); err != nil {
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

	quotations, err := s.quotationRepo.FindAllForTenant(ctx, actor.TenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	// Past-due SENT quotations are listed as EXPIRED; the flip is persisted
	// on the next individual read.
	now := time.Now()
	for idx := range quotations {
		quotations[idx].ExpireIfPastDue(now)
	}

	total, err := s.quotationRepo.CountForTenant(ctx, actor.TenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToQuotationListItemResponses(quotations), total, nil
}

// StatusSummary returns quotation counts per status
func (s *QuotationService) StatusSummary(ctx context.Context, actor identity.Actor) (*QuotationStatusSummary, error) {
	if err := identity.Authorize(actor, identity.OpQuotationRead, identity.Resource{Type: "quotation", TenantID: actor.TenantID}); err != nil {
		return nil, err
	}

	summary := &QuotationStatusSummary{}
	counts := []struct {
		status sales.QuotationStatus
		target *int64
	}{
		{sales.QuotationStatusDraft, &summary.Draft},
		{sales.QuotationStatusSent, &summary.Sent},
		{sales.QuotationStatusAccepted, &summary.Accepted},
		{sales.QuotationStatusRejected, &summary.Rejected},
		{sales.QuotationStatusExpired, &summary.Expired},
		{sales.QuotationStatusConverted, &summary.Converted},
	}
	for _, c := range counts {
		count, err := s.quotationRepo.CountByStatus(ctx, actor.TenantID, c.status)
		if err != nil {
			return nil, err
		}
		*c.target = count
		summary.Total += count
	}
	return summary, nil
}

// Update updates quotation-level fields (only in DRAFT status)
func (s *QuotationService) Update(ctx context.Context, actor identity.Actor, quotationID uuid.UUID, req UpdateQuotationRequest) (*QuotationResponse, error) {
	if err := identity.Authorize(actor, identity.OpQuotationUpdate, identity.Resource{Type: "quotation", TenantID: actor.TenantID}); err != nil {
		return nil, err
	}

	quotation, err := s.quotationRepo.FindByIDForTenant(ctx, actor.TenantID, quotationID)
	if err != nil {
		return nil, err
	}

	if !quotation.CanModify() {
		return nil, shared.NewConflictError("Quotation can only be modified in draft status")
	}

	if req.OpportunityID != nil {
		if err := quotation.SetOpportunity(*req.OpportunityID); err != nil {
			return nil, err
		}
	}
	if req.ValidUntil != nil {
		quotation.ValidUntil = *req.ValidUntil
	}
	if req.Discount != nil {
		if err := quotation.ApplyDiscount(valueobject.NewMoneyUSD(*req.Discount)); err != nil {
			return nil, err
		}
	}

	if err := s.quotationRepo.SaveWithLock(ctx, quotation); err != nil {
		return nil, err
	}

	response := ToQuotationResponse(quotation)
	return &response, nil
}

// AddItem adds a line item to a quotation
func (s *QuotationService) AddItem(ctx context.Context, actor identity.Actor, quotationID uuid.UUID, req AddQuotationItemRequest) (*QuotationResponse, error) {
	if err := identity.Authorize(actor, identity.OpQuotationUpdate, identity.Resource{Type: "quotation", TenantID: actor.TenantID}); err != nil {
		return nil, err
	}

	quotation, err := s.quotationRepo.FindByIDForTenant(ctx, actor.TenantID, quotationID)
	if err != nil {
		return nil, err
	}

	unitPrice := valueobject.NewMoneyUSD(req.UnitPrice)
	if _, err := quotation.AddItem(req.ProductID, req.Description, req.Quantity, unitPrice, req.TaxRate); err != nil {
		return nil, err
	}

	if err := s.quotationRepo.SaveWithLock(ctx, quotation); err != nil {
		return nil, err
	}

	response := ToQuotationResponse(quotation)
	return &response, nil
}

// UpdateItem updates a line item on a quotation
func (s *QuotationService) UpdateItem(ctx context.Context, actor identity.Actor, quotationID, itemID uuid.UUID, req UpdateQuotationItemRequest) (*QuotationResponse, error) {
	if err := identity.Authorize(actor, identity.OpQuotationUpdate, identity.Resource{Type: "quotation", TenantID: actor.TenantID}); err != nil {
		return nil, err
	}

	quotation, err := s.quotationRepo.FindByIDForTenant(ctx, actor.TenantID, quotationID)
	if err != nil {
		return nil, err
	}

	if req.Quantity != nil {
		if err := quotation.UpdateItemQuantity(itemID, *req.Quantity); err != nil {
			return nil, err
		}
	}
	if req.UnitPrice != nil {
		if err := quotation.UpdateItemPrice(itemID, valueobject.NewMoneyUSD(*req.UnitPrice)); err != nil {
			return nil, err
		}
	}
	if req.TaxRate != nil {
		if err := quotation.UpdateItemTaxRate(itemID, *req.TaxRate); err != nil {
			return nil, err
		}
	}

	if err := s.quotationRepo.SaveWithLock(ctx, quotation); err != nil {
		return nil, err
	}

	response := ToQuotationResponse(quotation)
	return &response, nil
}

// RemoveItem removes a line item from a quotation
func (s *QuotationService) RemoveItem(ctx context.Context, actor identity.Actor, quotationID, itemID uuid.UUID) (*QuotationResponse, error) {
	if err := identity.Authorize(actor, identity.OpQuotationUpdate, identity.Resource{Type: "quotation", TenantID: actor.TenantID}); err != nil {
		return nil, err
	}

	quotation, err := s.quotationRepo.FindByIDForTenant(ctx, actor.TenantID, quotationID)
	if err != nil {
		return nil, err
	}

	if err := quotation.RemoveItem(itemID); err != nil {
		return nil, err
	}

	if err := s.quotationRepo.SaveWithLock(ctx, quotation); err != nil {
		return nil, err
	}

	response := ToQuotationResponse(quotation)
	return &response, nil
}

// Transition applies a status transition requested by the client
func (s *QuotationService) Transition(ctx context.Context, actor identity.Actor, quotationID uuid.UUID, req TransitionQuotationRequest) (*QuotationResponse, error) {
	if err := identity.Authorize(actor, identity.OpQuotationTransition, identity.Resource{Type: "quotation", TenantID: actor.TenantID}); err != nil {
		return nil, err
	}

	quotation, err := s.quotationRepo.FindByIDForTenant(ctx, actor.TenantID, quotationID)
	if err != nil {
		return nil, err
	}

	// A past-due quotation expires before the requested transition is
	// evaluated, so accepting it fails with a conflict.
	if err := s.expirePastDue(ctx, quotation); err != nil {
		return nil, err
	}

	target := sales.QuotationStatus(req.Status)
	if err := quotation.TransitionTo(target); err != nil {
		return nil, err
	}

	if err := s.quotationRepo.SaveWithLock(ctx, quotation); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, quotation)

	if target == sales.QuotationStatusSent {
		s.deliverQuotation(ctx, quotation)
	}

	response := ToQuotationResponse(quotation)
	return &response, nil
}

// Duplicate creates a new DRAFT quotation copied from an existing one
func (s *QuotationService) Duplicate(ctx context.Context, actor identity.Actor, quotationID uuid.UUID, req DuplicateQuotationRequest) (*QuotationResponse, error) {
	if err := identity.Authorize(actor, identity.OpQuotationDuplicate, identity.Resource{Type: "quotation", TenantID: actor.TenantID}); err != nil {
		return nil, err
	}

	source, err := s.quotationRepo.FindByIDForTenant(ctx, actor.TenantID, quotationID)
	if err != nil {
		return nil, err
	}

	number, err := s.numbers.NextNumber(ctx, actor.TenantID, numbering.DocumentTypeQuotation)
	if err != nil {
		return nil, err
	}

	validUntil := time.Time{}
	if req.ValidUntil != nil {
		validUntil = *req.ValidUntil
	}

	duplicate, err := source.BuildDuplicate(number, actor.UserID, validUntil)
	if err != nil {
		return nil, err
	}

	if err := s.quotationRepo.Save(ctx, duplicate); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, duplicate)

	response := ToQuotationResponse(duplicate)
	return &response, nil
}

// deliverQuotation renders and emails the quotation when delivery is
// configured. Delivery failures do not fail the transition.
func (s *QuotationService) deliverQuotation(ctx context.Context, quotation *sales.Quotation) {
	if s.renderer == nil || s.dispatcher == nil {
		return
	}
	document, err := s.renderer.RenderQuotation(ctx, quotation.ID)
	if err != nil {
		return
	}
	defer document.Close()
	_ = s.dispatcher.SendDocument(ctx, quotation.ContactID, "Quotation "+quotation.Number, document)
}

// expirePastDue applies lazy expiry to a loaded quotation and persists the
// status flip when it happens
func (s *QuotationService) expirePastDue(ctx context.Context, quotation *sales.Quotation) error {
	if !quotation.ExpireIfPastDue(time.Now()) {
		return nil
	}
	if err := s.quotationRepo.SaveWithLock(ctx, quotation); err != nil {
		return err
	}
	s.publishEvents(ctx, quotation)
	return nil
}

func (s *QuotationService) publishEvents(ctx context.Context, quotation *sales.Quotation) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range quotation.GetDomainEvents() {
		// Event handling is best-effort; failures must not fail the operation
		_ = s.eventPublisher.Publish(ctx, event)
	}
	quotation.ClearDomainEvents()
}
