package identity

import (
	"testing"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testActor(t *testing.T, role Role) Actor {
	t.Helper()
	actor, err := NewActor(uuid.New(), uuid.New(), role)
	require.NoError(t, err)
	return actor
}

func TestNewActor(t *testing.T) {
	t.Run("valid actor", func(t *testing.T) {
		userID := uuid.New()
		tenantID := uuid.New()

		actor, err := NewActor(userID, tenantID, RoleSales)
		require.NoError(t, err)

		assert.Equal(t, userID, actor.UserID)
		assert.Equal(t, tenantID, actor.TenantID)
		assert.Equal(t, RoleSales, actor.Role)
	})

	t.Run("rejects nil user", func(t *testing.T) {
		_, err := NewActor(uuid.Nil, uuid.New(), RoleSales)
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("rejects nil tenant", func(t *testing.T) {
		_, err := NewActor(uuid.New(), uuid.Nil, RoleSales)
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		_, err := NewActor(uuid.New(), uuid.New(), Role("superuser"))
		assert.Error(t, err)
	})
}

func TestAuthorize_RoleMatrix(t *testing.T) {
	tests := []struct {
		role    Role
		op      Operation
		allowed bool
	}{
		// sales can run the document lifecycle
		{RoleSales, OpQuotationCreate, true},
		{RoleSales, OpQuotationConvert, true},
		{RoleSales, OpOrderTransition, true},
		{RoleSales, OpInvoicePay, true},
		// sales can neither delete records nor read the audit trail
		{RoleSales, OpRecordDelete, false},
		{RoleSales, OpAuditRead, false},
		// manager adds deletion
		{RoleManager, OpRecordDelete, true},
		{RoleManager, OpQuotationDuplicate, true},
		{RoleManager, OpAuditRead, false},
		// admin can do everything
		{RoleAdmin, OpRecordDelete, true},
		{RoleAdmin, OpAuditRead, true},
		{RoleAdmin, OpInvoicePay, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.op), func(t *testing.T) {
			actor := testActor(t, tt.role)
			err := Authorize(actor, tt.op, Resource{Type: "quotation", TenantID: actor.TenantID})
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				var domainErr *shared.DomainError
				require.ErrorAs(t, err, &domainErr)
				assert.Equal(t, "FORBIDDEN", domainErr.Code)
			}
		})
	}
}

func TestAuthorize_TenantIsolation(t *testing.T) {
	t.Run("cross-tenant access denied for any role", func(t *testing.T) {
		for _, role := range []Role{RoleSales, RoleManager, RoleAdmin} {
			actor := testActor(t, role)
			err := Authorize(actor, OpQuotationRead, Resource{Type: "quotation", TenantID: uuid.New()})
			assert.ErrorIs(t, err, shared.ErrForbidden, "role %s", role)
		}
	})

	t.Run("nil resource tenant means no scoping check", func(t *testing.T) {
		actor := testActor(t, RoleSales)
		err := Authorize(actor, OpQuotationCreate, Resource{Type: "quotation"})
		assert.NoError(t, err)
	})
}

func TestAuthorize_AnonymousActor(t *testing.T) {
	err := Authorize(Actor{}, OpQuotationRead, Resource{})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}
