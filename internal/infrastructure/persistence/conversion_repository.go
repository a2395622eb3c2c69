package persistence

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/crm/backend/internal/domain/sales"
	"github.com/crm/backend/internal/domain/shared"
)

// GormConversionRepository persists a quotation-to-order conversion atomically.
// The quotation row is flipped ACCEPTED to CONVERTED with a version guard in
// the same transaction that inserts the order and its items, so a concurrent
// conversion of the same quotation loses the check-and-set and rolls back.
type GormConversionRepository struct {
	db *gorm.DB
}

// NewGormConversionRepository creates a new GormConversionRepository
func NewGormConversionRepository(db *gorm.DB) *GormConversionRepository {
	return &GormConversionRepository{db: db}
}

// ConvertQuotation writes the converted quotation and the new order as one unit.
// The quotation passed in must already carry CONVERTED status and the order
// reference; its Version still holds the value read from storage.
func (r *GormConversionRepository) ConvertQuotation(ctx context.Context, quotation *sales.Quotation, order *sales.SalesOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		currentVersion := quotation.Version
		quotation.Version++
		quotation.UpdatedAt = time.Now()

		update := tx.Model(&sales.Quotation{}).
			Where("id = ? AND version = ? AND status = ?",
				quotation.ID, currentVersion, string(sales.QuotationStatusAccepted)).
			Updates(map[string]interface{}{
				"status":         quotation.Status,
				"sales_order_id": quotation.SalesOrderID,
				"converted_at":   quotation.ConvertedAt,
				"version":        quotation.Version,
				"updated_at":     quotation.UpdatedAt,
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			quotation.Version = currentVersion
			return shared.NewConflictError("Quotation was converted or modified concurrently")
		}

		if err := tx.Omit("Items").Create(order).Error; err != nil {
			return err
		}
		for i := range order.Items {
			order.Items[i].OrderID = order.ID
			if err := tx.Create(&order.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Ensure GormConversionRepository implements ConversionRepository
var _ sales.ConversionRepository = (*GormConversionRepository)(nil)
