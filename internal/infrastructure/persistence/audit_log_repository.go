package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crm/backend/internal/domain/audit"
	"github.com/crm/backend/internal/domain/shared"
)

// GormAuditLogRepository implements audit.AuditLogRepository using GORM.
// Entries are append-only; there is no update or delete path.
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

var auditSortColumns = map[string]bool{
	"table_name": true,
	"removed_at": true,
	"created_at": true,
}

// Create appends an audit entry
func (r *GormAuditLogRepository) Create(ctx context.Context, entry *audit.AuditLogEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindByIDForTenant finds an audit entry by ID for a tenant
func (r *GormAuditLogRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*audit.AuditLogEntry, error) {
	var entry audit.AuditLogEntry
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// FindAllForTenant lists audit entries for a tenant, optionally filtered
func (r *GormAuditLogRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]audit.AuditLogEntry, error) {
	var entries []audit.AuditLogEntry
	query := r.db.WithContext(ctx).Model(&audit.AuditLogEntry{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilters(query, filter)
	query = applyOrdering(query, filter, auditSortColumns)
	query = applyPagination(query, filter)

	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// CountForTenant counts audit entries for a tenant with optional filters
func (r *GormAuditLogRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&audit.AuditLogEntry{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilters(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilters applies field filters without pagination
func (r *GormAuditLogRepository) applyFilters(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "table_name":
			query = query.Where("table_name = ?", value)
		case "record_id":
			query = query.Where("record_id = ?", value)
		case "deleted_by":
			query = query.Where("deleted_by = ?", value)
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("removed_at >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("removed_at <= ?", t)
			}
		}
	}
	return query
}

// Ensure GormAuditLogRepository implements AuditLogRepository
var _ audit.AuditLogRepository = (*GormAuditLogRepository)(nil)
