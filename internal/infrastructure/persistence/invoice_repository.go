package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crm/backend/internal/domain/sales"
	"github.com/crm/backend/internal/domain/shared"
)

// GormInvoiceRepository implements sales.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

var invoiceSortColumns = map[string]bool{
	"invoice_number": true,
	"status":         true,
	"total":          true,
	"issued_at":      true,
	"created_at":     true,
}

// FindByID finds an invoice by its ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Invoice, error) {
	var invoice sales.Invoice
	if err := r.db.WithContext(ctx).First(&invoice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindByIDForTenant finds an invoice by ID within a tenant
func (r *GormInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sales.Invoice, error) {
	var invoice sales.Invoice
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindByOrderID finds the invoice attached to a sales order, if any
func (r *GormInvoiceRepository) FindByOrderID(ctx context.Context, tenantID, orderID uuid.UUID) (*sales.Invoice, error) {
	var invoice sales.Invoice
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindAllForTenant finds all invoices for a tenant with filtering
func (r *GormInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]sales.Invoice, error) {
	var invoices []sales.Invoice
	query := r.db.WithContext(ctx).Model(&sales.Invoice{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilters(query, filter)
	query = applyOrdering(query, filter, invoiceSortColumns)
	query = applyPagination(query, filter)

	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// Save creates or updates an invoice. Inserting a second invoice for the
// same order violates the per-tenant order key and reports ALREADY_EXISTS.
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *sales.Invoice) error {
	if err := r.db.WithContext(ctx).Save(invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *sales.Invoice) error {
	currentVersion := invoice.Version
	invoice.Version++
	invoice.UpdatedAt = time.Now()

	result := r.db.WithContext(ctx).Model(&sales.Invoice{}).
		Where("id = ? AND version = ?", invoice.ID, currentVersion).
		Updates(map[string]interface{}{
			"invoice_number": invoice.InvoiceNumber,
			"order_id":       invoice.OrderID,
			"status":         invoice.Status,
			"total":          invoice.Total,
			"issued_at":      invoice.IssuedAt,
			"paid_at":        invoice.PaidAt,
			"version":        invoice.Version,
			"updated_at":     invoice.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		invoice.Version = currentVersion
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// CountForTenant counts invoices for a tenant with optional filters
func (r *GormInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&sales.Invoice{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilters(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilters applies search and field filters without pagination
func (r *GormInvoiceRepository) applyFilters(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("LOWER(invoice_number) LIKE LOWER(?)", pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "order_id":
			query = query.Where("order_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("issued_at >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("issued_at <= ?", t)
			}
		}
	}

	return query
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ sales.InvoiceRepository = (*GormInvoiceRepository)(nil)
