package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crm/backend/internal/domain/audit"
	"github.com/crm/backend/internal/domain/shared"
)

// auditedTable describes a deletable table and its owned child table, if any
type auditedTable struct {
	childTable string
	childFK    string
}

// auditedTables is the closed set of tables the deletion pipeline accepts.
// Anything else is rejected up front, deletion never touches arbitrary tables.
var auditedTables = map[string]auditedTable{
	"quotations":   {childTable: "quotation_items", childFK: "quotation_id"},
	"sales_orders": {childTable: "order_items", childFK: "order_id"},
	"invoices":     {},
}

// GormDeletionRecorder implements audit.DeletionRecorder. The snapshot
// entries and the row deletions commit in one transaction, so an audit entry
// exists exactly when the deletion is visible.
type GormDeletionRecorder struct {
	db *gorm.DB
}

// NewGormDeletionRecorder creates a new GormDeletionRecorder
func NewGormDeletionRecorder(db *gorm.DB) *GormDeletionRecorder {
	return &GormDeletionRecorder{db: db}
}

// DeleteWithSnapshot snapshots and removes the record identified by
// (tableName, recordID), cascading to owned child rows. Returns the created
// audit entries, parent first.
func (r *GormDeletionRecorder) DeleteWithSnapshot(ctx context.Context, tenantID uuid.UUID, tableName, recordID string, deletedBy uuid.UUID, reason string) ([]audit.AuditLogEntry, error) {
	spec, ok := auditedTables[tableName]
	if !ok {
		return nil, shared.NewValidationError(fmt.Sprintf("Table %q is not eligible for audited deletion", tableName))
	}

	var entries []audit.AuditLogEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parent map[string]interface{}
		if err := tx.Table(tableName).
			Where("tenant_id = ? AND id = ?", tenantID, recordID).
			Take(&parent).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		parentEntry, err := audit.NewAuditLogEntry(tenantID, tableName, recordID, parent, deletedBy, reason)
		if err != nil {
			return err
		}
		entries = append(entries, *parentEntry)

		if spec.childTable != "" {
			var children []map[string]interface{}
			if err := tx.Table(spec.childTable).
				Where(spec.childFK+" = ?", recordID).
				Find(&children).Error; err != nil {
				return err
			}

			for _, child := range children {
				childEntry, err := audit.NewAuditLogEntry(
					tenantID, spec.childTable, fmt.Sprint(child["id"]), child, deletedBy, reason)
				if err != nil {
					return err
				}
				entries = append(entries, *childEntry)
			}

			if err := tx.Exec(
				"DELETE FROM "+spec.childTable+" WHERE "+spec.childFK+" = ?", recordID,
			).Error; err != nil {
				return err
			}
		}

		result := tx.Exec(
			"DELETE FROM "+tableName+" WHERE tenant_id = ? AND id = ?", tenantID, recordID,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		for i := range entries {
			if err := tx.Create(&entries[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Ensure GormDeletionRecorder implements DeletionRecorder
var _ audit.DeletionRecorder = (*GormDeletionRecorder)(nil)
