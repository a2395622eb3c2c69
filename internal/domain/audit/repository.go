package audit

import (
	"context"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AuditLogRepository defines read and append access to the audit trail.
// There is deliberately no update or delete: entries are immutable.
type AuditLogRepository interface {
	// Create appends an audit entry
	Create(ctx context.Context, entry *AuditLogEntry) error

	// FindByIDForTenant finds an audit entry by ID for a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*AuditLogEntry, error)

	// FindAllForTenant lists audit entries for a tenant, optionally filtered
	// by table name through filter.Filters["table_name"]
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]AuditLogEntry, error)

	// CountForTenant counts audit entries for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
}

// DeletionRecorder removes an audited record and captures its snapshot in the
// same transaction. The audit entries (one for the record, one per cascaded
// child row) are committed in the same atomic unit as the delete: if the
// deletion is visible, the audit entries are visible.
type DeletionRecorder interface {
	// DeleteWithSnapshot snapshots and removes the record identified by
	// (tableName, recordID), cascading to owned child rows. Returns the
	// created audit entries, parent first.
	DeleteWithSnapshot(ctx context.Context, tenantID uuid.UUID, tableName, recordID string, deletedBy uuid.UUID, reason string) ([]AuditLogEntry, error)
}
