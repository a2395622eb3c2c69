package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	auditapp "github.com/crm/backend/internal/application/audit"
	"github.com/crm/backend/internal/domain/audit"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAuditLogRepository implements audit.AuditLogRepository for testing
type MockAuditLogRepository struct {
	mock.Mock
}

func (m *MockAuditLogRepository) Create(ctx context.Context, entry *audit.AuditLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditLogRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*audit.AuditLogEntry, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.AuditLogEntry), args.Error(1)
}

func (m *MockAuditLogRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]audit.AuditLogEntry, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]audit.AuditLogEntry), args.Error(1)
}

func (m *MockAuditLogRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockDeletionRecorder implements audit.DeletionRecorder for testing
type MockDeletionRecorder struct {
	mock.Mock
}

func (m *MockDeletionRecorder) DeleteWithSnapshot(ctx context.Context, tenantID uuid.UUID, tableName, recordID string, deletedBy uuid.UUID, reason string) ([]audit.AuditLogEntry, error) {
	args := m.Called(ctx, tenantID, tableName, recordID, deletedBy, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]audit.AuditLogEntry), args.Error(1)
}

func newAuditTestRouter(t *testing.T, repo *MockAuditLogRepository, recorder *MockDeletionRecorder, actor identity.Actor) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	service := auditapp.NewAuditTrailService(repo, recorder)
	h := NewAuditLogHandler(service)

	router := gin.New()
	api := router.Group("/api/v1")
	api.Use(actorMiddleware(actor))
	h.RegisterRoutes(api)
	return router
}

func managerActor(tenantID uuid.UUID) identity.Actor {
	return identity.Actor{
		UserID:   uuid.New(),
		TenantID: tenantID,
		Role:     identity.RoleManager,
	}
}

func adminActor(tenantID uuid.UUID) identity.Actor {
	return identity.Actor{
		UserID:   uuid.New(),
		TenantID: tenantID,
		Role:     identity.RoleAdmin,
	}
}

func TestAuditLogHandler_DeleteRecord(t *testing.T) {
	tenantID := uuid.New()
	actor := managerActor(tenantID)
	recordID := uuid.New().String()

	entry, err := audit.NewAuditLogEntry(tenantID, "quotations", recordID,
		map[string]any{"number": "QT-2024-05001"}, actor.UserID, "customer request")
	require.NoError(t, err)

	recorder := new(MockDeletionRecorder)
	recorder.On("DeleteWithSnapshot", mock.Anything, tenantID, "quotations", recordID, actor.UserID, "customer request").
		Return([]audit.AuditLogEntry{*entry}, nil)

	router := newAuditTestRouter(t, new(MockAuditLogRepository), recorder, actor)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/records/quotations/"+recordID,
		bytes.NewReader([]byte(`{"reason":"customer request"}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	entries := resp.Data.([]any)
	require.Len(t, entries, 1)
	first := entries[0].(map[string]any)
	assert.Equal(t, "quotations", first["table_name"])
	assert.Equal(t, recordID, first["record_id"])

	recorder.AssertExpectations(t)
}

func TestAuditLogHandler_DeleteRecord_SalesRoleForbidden(t *testing.T) {
	tenantID := uuid.New()
	actor := salesActor(tenantID)

	router := newAuditTestRouter(t, new(MockAuditLogRepository), new(MockDeletionRecorder), actor)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/records/quotations/"+uuid.New().String(), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeForbidden)
}

func TestAuditLogHandler_DeleteRecord_UnknownTable(t *testing.T) {
	tenantID := uuid.New()
	actor := managerActor(tenantID)
	recordID := uuid.New().String()

	recorder := new(MockDeletionRecorder)
	recorder.On("DeleteWithSnapshot", mock.Anything, tenantID, "users", recordID, actor.UserID, "").
		Return(nil, shared.NewValidationError("Table \"users\" is not subject to audited deletion"))

	router := newAuditTestRouter(t, new(MockAuditLogRepository), recorder, actor)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/records/users/"+recordID, nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeValidation)
}

func TestAuditLogHandler_List_FilterByTable(t *testing.T) {
	tenantID := uuid.New()
	actor := adminActor(tenantID)

	entry, err := audit.NewAuditLogEntry(tenantID, "quotations", uuid.New().String(),
		map[string]any{"number": "QT-2024-05001"}, actor.UserID, "")
	require.NoError(t, err)

	repo := new(MockAuditLogRepository)
	repo.On("FindAllForTenant", mock.Anything, tenantID, mock.MatchedBy(func(filter shared.Filter) bool {
		return filter.Filters["table_name"] == "quotations"
	})).Return([]audit.AuditLogEntry{*entry}, nil)
	repo.On("CountForTenant", mock.Anything, tenantID, mock.Anything).Return(int64(1), nil)

	router := newAuditTestRouter(t, repo, new(MockDeletionRecorder), actor)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit-logs?table_name=quotations", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)

	repo.AssertExpectations(t)
}

func TestAuditLogHandler_List_ManagerForbidden(t *testing.T) {
	tenantID := uuid.New()
	actor := managerActor(tenantID)

	router := newAuditTestRouter(t, new(MockAuditLogRepository), new(MockDeletionRecorder), actor)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit-logs", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeForbidden)
}
