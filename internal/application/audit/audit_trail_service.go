package audit

import (
	"context"
	"time"

	"github.com/crm/backend/internal/domain/audit"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AuditTrailService intercepts permanent deletions and exposes the read side
// of the audit log. The snapshot and the delete commit atomically; a record is
// never gone without its audit entry being queryable.
type AuditTrailService struct {
	auditRepo audit.AuditLogRepository
	recorder  audit.DeletionRecorder
}

// NewAuditTrailService creates a new AuditTrailService
func NewAuditTrailService(auditRepo audit.AuditLogRepository, recorder audit.DeletionRecorder) *AuditTrailService {
	return &AuditTrailService{
		auditRepo: auditRepo,
		recorder:  recorder,
	}
}

// DeleteRecord snapshots and permanently removes an audited record, cascading
// to owned child rows with one audit entry per removed row
func (s *AuditTrailService) DeleteRecord(ctx context.Context, actor identity.Actor, tableName, recordID, reason string) ([]AuditLogEntryResponse, error) {
	if err := identity.Authorize(actor, identity.OpRecordDelete, identity.Resource{Type: tableName, TenantID: actor.TenantID}); err != nil {
		return nil, err
	}

	entries, err := s.recorder.DeleteWithSnapshot(ctx, actor.TenantID, tableName, recordID, actor.UserID, reason)
	if err != nil {
		return nil, err
	}

	return ToAuditLogEntryResponses(entries), nil
}

// GetByID retrieves a single audit entry
func (s *AuditTrailService) GetByID(ctx context.Context, actor identity.Actor, entryID uuid.UUID) (*AuditLogEntryResponse, error) {
	if err := identity.Authorize(actor, identity.OpAuditRead, identity.Resource{Type: "audit_log", TenantID: actor.TenantID}); err != nil {
		return nil, err
	}

	entry, err := s.auditRepo.FindByIDForTenant(ctx, actor.TenantID, entryID)
	if err != nil {
		return nil, err
	}

	response := ToAuditLogEntryResponse(entry)
	return &response, nil
}

// List retrieves audit entries for the tenant, optionally filtered by the
// source table
func (s *AuditTrailService) List(ctx context.Context, actor identity.Actor, filter AuditLogListFilter) ([]AuditLogEntryResponse, int64, error) {
	if err := identity.Authorize(actor, identity.OpAuditRead, identity.Resource{Type: "audit_log", TenantID: actor.TenantID}); err != nil {
		return nil, 0, err
	}

	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.TableName != "" {
		domainFilter.Filters["table_name"] = filter.TableName
	}

	entries, err := s.auditRepo.FindAllForTenant(ctx, actor.TenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.auditRepo.CountForTenant(ctx, actor.TenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToAuditLogEntryResponses(entries), total, nil
}

// ==================== DTOs ====================

// DeleteRecordRequest represents a request to delete an audited record
type DeleteRecordRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// AuditLogListFilter represents filter options for audit log lists
type AuditLogListFilter struct {
	TableName string `form:"table_name"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// AuditLogEntryResponse represents an audit log entry in API responses
type AuditLogEntryResponse struct {
	ID         uuid.UUID      `json:"id"`
	TenantID   uuid.UUID      `json:"tenant_id"`
	TableName  string         `json:"table_name"`
	RecordID   string         `json:"record_id"`
	RecordData map[string]any `json:"record_data"`
	DeletedBy  uuid.UUID      `json:"deleted_by"`
	RemovedAt  time.Time      `json:"removed_at"`
	Reason     string         `json:"reason,omitempty"`
}

// ToAuditLogEntryResponse converts a domain entry to a response DTO
func ToAuditLogEntryResponse(entry *audit.AuditLogEntry) AuditLogEntryResponse {
	return AuditLogEntryResponse{
		ID:         entry.ID,
		TenantID:   entry.TenantID,
		TableName:  entry.SourceTable,
		RecordID:   entry.RecordID,
		RecordData: entry.Snapshot(),
		DeletedBy:  entry.DeletedBy,
		RemovedAt:  entry.RemovedAt,
		Reason:     entry.Reason,
	}
}

// ToAuditLogEntryResponses converts domain entries to response DTOs
func ToAuditLogEntryResponses(entries []audit.AuditLogEntry) []AuditLogEntryResponse {
	responses := make([]AuditLogEntryResponse, len(entries))
	for i := range entries {
		responses[i] = ToAuditLogEntryResponse(&entries[i])
	}
	return responses
}
