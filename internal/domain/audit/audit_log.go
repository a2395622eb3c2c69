package audit

import (
	"maps"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AuditLogEntry is an immutable snapshot of a record captured at deletion
// time. Every field of the record as it existed immediately before deletion
// is preserved; entries are never updated or removed.
type AuditLogEntry struct {
	shared.BaseEntity
	TenantID    uuid.UUID      `gorm:"type:uuid;not null;index"`
	SourceTable string         `gorm:"column:table_name;not null;index"`
	RecordID    string         `gorm:"not null;index"`
	RecordData  map[string]any `gorm:"serializer:json;not null"`
	DeletedBy   uuid.UUID      `gorm:"type:uuid;not null"`
	RemovedAt   time.Time      `gorm:"not null"`
	Reason      string
}

// TableName maps the entity to its table
func (AuditLogEntry) TableName() string {
	return "audit_log_entries"
}

// NewAuditLogEntry creates a new audit log entry for a record about to be
// deleted. The snapshot is copied so later mutation of the source map cannot
// alter the entry.
func NewAuditLogEntry(tenantID uuid.UUID, tableName, recordID string, snapshot map[string]any, deletedBy uuid.UUID, reason string) (*AuditLogEntry, error) {
	if tableName == "" {
		return nil, shared.NewValidationError("Table name cannot be empty")
	}
	if recordID == "" {
		return nil, shared.NewValidationError("Record ID cannot be empty")
	}
	if len(snapshot) == 0 {
		return nil, shared.NewValidationError("Record snapshot cannot be empty")
	}
	if deletedBy == uuid.Nil {
		return nil, shared.NewValidationError("Deleting user must be an authenticated user")
	}

	data := make(map[string]any, len(snapshot))
	maps.Copy(data, snapshot)

	return &AuditLogEntry{
		BaseEntity:  shared.NewBaseEntity(),
		TenantID:    tenantID,
		SourceTable: tableName,
		RecordID:    recordID,
		RecordData:  data,
		DeletedBy:   deletedBy,
		RemovedAt:   time.Now(),
		Reason:      reason,
	}, nil
}

// Snapshot returns a copy of the captured record data
func (e *AuditLogEntry) Snapshot() map[string]any {
	result := make(map[string]any, len(e.RecordData))
	maps.Copy(result, e.RecordData)
	return result
}
