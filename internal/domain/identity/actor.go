package identity

import (
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Role represents the coarse-grained role carried by an authenticated user
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleSales   Role = "sales"
)

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleSales:
		return true
	}
	return false
}

// Actor is the authenticated identity performing an operation. Every mutation
// receives the actor explicitly; there is no fallback or default identity.
type Actor struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Role     Role
}

// NewActor creates a validated actor
func NewActor(userID, tenantID uuid.UUID, role Role) (Actor, error) {
	if userID == uuid.Nil {
		return Actor{}, shared.ErrUnauthorized
	}
	if tenantID == uuid.Nil {
		return Actor{}, shared.ErrUnauthorized
	}
	if !role.IsValid() {
		return Actor{}, shared.NewDomainError("UNAUTHORIZED", "Unknown role")
	}
	return Actor{UserID: userID, TenantID: tenantID, Role: role}, nil
}
