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

// GormQuotationRepository implements sales.QuotationRepository using GORM
type GormQuotationRepository struct {
	db *gorm.DB
}

// NewGormQuotationRepository creates a new GormQuotationRepository
func NewGormQuotationRepository(db *gorm.DB) *GormQuotationRepository {
	return &GormQuotationRepository{db: db}
}

var quotationSortColumns = map[string]bool{
	"number":      true,
	"status":      true,
	"total":       true,
	"valid_until": true,
	"created_at":  true,
	"updated_at":  true,
}

// FindByID finds a quotation by its ID
func (r *GormQuotationRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Quotation, error) {
	var quotation sales.Quotation
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&quotation, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &quotation, nil
}

// FindByIDForTenant finds a quotation by ID within a tenant
func (r *GormQuotationRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sales.Quotation, error) {
	var quotation sales.Quotation
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&quotation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &quotation, nil
}

// FindByNumber finds a quotation by its display number for a tenant
func (r *GormQuotationRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*sales.Quotation, error) {
	var quotation sales.Quotation
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND number = ?", tenantID, number).
		First(&quotation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &quotation, nil
}

// FindAllForTenant finds all quotations for a tenant with filtering
func (r *GormQuotationRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]sales.Quotation, error) {
	var quotations []sales.Quotation
	query := r.db.WithContext(ctx).Model(&sales.Quotation{}).
		Preload("Items").
		Where("tenant_id = ?", tenantID)
	query = r.applyFilters(query, filter)
	query = applyOrdering(query, filter, quotationSortColumns)
	query = applyPagination(query, filter)

	if err := query.Find(&quotations).Error; err != nil {
		return nil, err
	}
	return quotations, nil
}

// Save creates or updates a quotation together with its items in one transaction
func (r *GormQuotationRepository) Save(ctx context.Context, quotation *sales.Quotation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(quotation).Error; err != nil {
			return err
		}
		return saveQuotationItems(tx, quotation)
	})
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormQuotationRepository) SaveWithLock(ctx context.Context, quotation *sales.Quotation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		currentVersion := quotation.Version
		quotation.Version++
		quotation.UpdatedAt = time.Now()

		result := tx.Model(&sales.Quotation{}).
			Where("id = ? AND version = ?", quotation.ID, currentVersion).
			Updates(map[string]interface{}{
				"number":         quotation.Number,
				"company_id":     quotation.CompanyID,
				"contact_id":     quotation.ContactID,
				"opportunity_id": quotation.OpportunityID,
				"subtotal":       quotation.Subtotal,
				"tax":            quotation.Tax,
				"discount":       quotation.Discount,
				"total":          quotation.Total,
				"status":         quotation.Status,
				"valid_until":    quotation.ValidUntil,
				"sales_order_id": quotation.SalesOrderID,
				"sent_at":        quotation.SentAt,
				"accepted_at":    quotation.AcceptedAt,
				"rejected_at":    quotation.RejectedAt,
				"expired_at":     quotation.ExpiredAt,
				"converted_at":   quotation.ConvertedAt,
				"version":        quotation.Version,
				"updated_at":     quotation.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			quotation.Version = currentVersion
			return shared.ErrConcurrencyConflict
		}

		return saveQuotationItems(tx, quotation)
	})
}

// CountForTenant counts quotations for a tenant with optional filters
func (r *GormQuotationRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&sales.Quotation{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilters(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus counts quotations by status for a tenant
func (r *GormQuotationRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, status sales.QuotationStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&sales.Quotation{}).
		Where("tenant_id = ? AND status = ?", tenantID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilters applies search and field filters without pagination
func (r *GormQuotationRepository) applyFilters(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("LOWER(number) LIKE LOWER(?)", pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "company_id":
			query = query.Where("company_id = ?", value)
		case "contact_id":
			query = query.Where("contact_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at <= ?", t)
			}
		}
	}

	return query
}

// saveQuotationItems reconciles the item rows with the aggregate's item list
func saveQuotationItems(tx *gorm.DB, quotation *sales.Quotation) error {
	currentItemIDs := make([]uuid.UUID, len(quotation.Items))
	for i, item := range quotation.Items {
		currentItemIDs[i] = item.ID
	}

	if len(currentItemIDs) > 0 {
		if err := tx.Where("quotation_id = ? AND id NOT IN ?", quotation.ID, currentItemIDs).
			Delete(&sales.QuotationItem{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("quotation_id = ?", quotation.ID).
			Delete(&sales.QuotationItem{}).Error; err != nil {
			return err
		}
	}

	for i := range quotation.Items {
		quotation.Items[i].QuotationID = quotation.ID
		if err := tx.Save(&quotation.Items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// Ensure GormQuotationRepository implements QuotationRepository
var _ sales.QuotationRepository = (*GormQuotationRepository)(nil)
