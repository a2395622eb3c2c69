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

// GormSalesOrderRepository implements sales.SalesOrderRepository using GORM
type GormSalesOrderRepository struct {
	db *gorm.DB
}

// NewGormSalesOrderRepository creates a new GormSalesOrderRepository
func NewGormSalesOrderRepository(db *gorm.DB) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{db: db}
}

var orderSortColumns = map[string]bool{
	"order_number": true,
	"status":       true,
	"total":        true,
	"created_at":   true,
	"updated_at":   true,
}

// FindByID finds a sales order by its ID
func (r *GormSalesOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.SalesOrder, error) {
	var order sales.SalesOrder
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByIDForTenant finds a sales order by ID within a tenant
func (r *GormSalesOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sales.SalesOrder, error) {
	var order sales.SalesOrder
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByOrderNumber finds a sales order by order number for a tenant
func (r *GormSalesOrderRepository) FindByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*sales.SalesOrder, error) {
	var order sales.SalesOrder
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND order_number = ?", tenantID, orderNumber).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByQuotation finds the order generated from a quotation, if any
func (r *GormSalesOrderRepository) FindByQuotation(ctx context.Context, tenantID, quotationID uuid.UUID) (*sales.SalesOrder, error) {
	var order sales.SalesOrder
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND source_quotation_id = ?", tenantID, quotationID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindAllForTenant finds all sales orders for a tenant with filtering
func (r *GormSalesOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]sales.SalesOrder, error) {
	var orders []sales.SalesOrder
	query := r.db.WithContext(ctx).Model(&sales.SalesOrder{}).
		Preload("Items").
		Where("tenant_id = ?", tenantID)
	query = r.applyFilters(query, filter)
	query = applyOrdering(query, filter, orderSortColumns)
	query = applyPagination(query, filter)

	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Save creates or updates a sales order together with its items in one transaction
func (r *GormSalesOrderRepository) Save(ctx context.Context, order *sales.SalesOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(order).Error; err != nil {
			return err
		}
		return saveOrderItems(tx, order)
	})
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormSalesOrderRepository) SaveWithLock(ctx context.Context, order *sales.SalesOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		currentVersion := order.Version
		order.Version++
		order.UpdatedAt = time.Now()

		result := tx.Model(&sales.SalesOrder{}).
			Where("id = ? AND version = ?", order.ID, currentVersion).
			Updates(map[string]interface{}{
				"order_number":        order.OrderNumber,
				"source_quotation_id": order.SourceQuotationID,
				"company_id":          order.CompanyID,
				"contact_id":          order.ContactID,
				"opportunity_id":      order.OpportunityID,
				"subtotal":            order.Subtotal,
				"tax":                 order.Tax,
				"discount":            order.Discount,
				"total":               order.Total,
				"status":              order.Status,
				"processing_at":       order.ProcessingAt,
				"delivered_at":        order.DeliveredAt,
				"completed_at":        order.CompletedAt,
				"cancelled_at":        order.CancelledAt,
				"cancel_reason":       order.CancelReason,
				"version":             order.Version,
				"updated_at":          order.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			order.Version = currentVersion
			return shared.ErrConcurrencyConflict
		}

		return saveOrderItems(tx, order)
	})
}

// CountForTenant counts sales orders for a tenant with optional filters
func (r *GormSalesOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&sales.SalesOrder{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilters(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus counts sales orders by status for a tenant
func (r *GormSalesOrderRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, status sales.OrderStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&sales.SalesOrder{}).
		Where("tenant_id = ? AND status = ?", tenantID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilters applies search and field filters without pagination
func (r *GormSalesOrderRepository) applyFilters(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("LOWER(order_number) LIKE LOWER(?)", pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "company_id":
			query = query.Where("company_id = ?", value)
		case "contact_id":
			query = query.Where("contact_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "source_quotation_id":
			query = query.Where("source_quotation_id = ?", value)
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

// saveOrderItems reconciles the item rows with the aggregate's item list
func saveOrderItems(tx *gorm.DB, order *sales.SalesOrder) error {
	currentItemIDs := make([]uuid.UUID, len(order.Items))
	for i, item := range order.Items {
		currentItemIDs[i] = item.ID
	}

	if len(currentItemIDs) > 0 {
		if err := tx.Where("order_id = ? AND id NOT IN ?", order.ID, currentItemIDs).
			Delete(&sales.OrderItem{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("order_id = ?", order.ID).
			Delete(&sales.OrderItem{}).Error; err != nil {
			return err
		}
	}

	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		if err := tx.Save(&order.Items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// Ensure GormSalesOrderRepository implements SalesOrderRepository
var _ sales.SalesOrderRepository = (*GormSalesOrderRepository)(nil)
