package sales

import (
	"context"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// QuotationRepository defines the interface for quotation persistence
type QuotationRepository interface {
	// FindByID finds a quotation by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Quotation, error)

	// FindByIDForTenant finds a quotation by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Quotation, error)

	// FindByNumber finds a quotation by its display number for a tenant
	FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*Quotation, error)

	// FindAllForTenant finds all quotations for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Quotation, error)

	// Save creates or updates a quotation together with its items in one transaction
	Save(ctx context.Context, quotation *Quotation) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, quotation *Quotation) error

	// CountForTenant counts quotations for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// CountByStatus counts quotations by status for a tenant
	CountByStatus(ctx context.Context, tenantID uuid.UUID, status QuotationStatus) (int64, error)
}

// SalesOrderRepository defines the interface for sales order persistence
type SalesOrderRepository interface {
	// FindByID finds a sales order by ID
	FindByID(ctx context.Context, id uuid.UUID) (*SalesOrder, error)

	// FindByIDForTenant finds a sales order by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*SalesOrder, error)

	// FindByOrderNumber finds a sales order by order number for a tenant
	FindByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*SalesOrder, error)

	// FindByQuotation finds the order generated from a quotation, if any
	FindByQuotation(ctx context.Context, tenantID, quotationID uuid.UUID) (*SalesOrder, error)

	// FindAllForTenant finds all sales orders for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]SalesOrder, error)

	// Save creates or updates a sales order together with its items in one transaction
	Save(ctx context.Context, order *SalesOrder) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, order *SalesOrder) error

	// CountForTenant counts sales orders for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// CountByStatus counts sales orders by status for a tenant
	CountByStatus(ctx context.Context, tenantID uuid.UUID, status OrderStatus) (int64, error)
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByID finds an invoice by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByIDForTenant finds an invoice by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// FindByOrderID finds the invoice attached to a sales order, if any
	FindByOrderID(ctx context.Context, tenantID, orderID uuid.UUID) (*Invoice, error)

	// FindAllForTenant finds all invoices for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Invoice, error)

	// Save creates or updates an invoice
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, invoice *Invoice) error

	// CountForTenant counts invoices for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
}

// ConversionRepository persists the quotation-to-order conversion as a single
// atomic unit: the quotation's check-and-set to CONVERTED, the new order and
// all of its items either all become visible together or not at all. A
// concurrent conversion of the same quotation must observe the status guard
// and fail with a CONFLICT error.
type ConversionRepository interface {
	ConvertQuotation(ctx context.Context, quotation *Quotation, order *SalesOrder) error
}
