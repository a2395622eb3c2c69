package identity

import (
	"fmt"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Operation names a mutation or privileged read, as "<resource>:<action>"
type Operation string

const (
	OpQuotationCreate     Operation = "quotation:create"
	OpQuotationUpdate     Operation = "quotation:update"
	OpQuotationTransition Operation = "quotation:transition"
	OpQuotationConvert    Operation = "quotation:convert"
	OpQuotationDuplicate  Operation = "quotation:duplicate"
	OpQuotationRead       Operation = "quotation:read"
	OpOrderCreate         Operation = "order:create"
	OpOrderUpdate         Operation = "order:update"
	OpOrderTransition     Operation = "order:transition"
	OpOrderRead           Operation = "order:read"
	OpInvoicePay          Operation = "invoice:pay"
	OpInvoiceRead         Operation = "invoice:read"
	OpRecordDelete        Operation = "record:delete"
	OpAuditRead           Operation = "audit:read"
)

// Resource identifies the target of an operation for tenant scoping
type Resource struct {
	Type     string
	TenantID uuid.UUID
}

// rolePolicy is the single place operations are granted to roles. Every
// mutation path evaluates Authorize before executing; there are no ad hoc
// role checks at call sites.
var rolePolicy = map[Role]map[Operation]bool{
	RoleSales: {
		OpQuotationCreate:     true,
		OpQuotationUpdate:     true,
		OpQuotationTransition: true,
		OpQuotationConvert:    true,
		OpQuotationDuplicate:  true,
		OpQuotationRead:       true,
		OpOrderCreate:         true,
		OpOrderUpdate:         true,
		OpOrderTransition:     true,
		OpOrderRead:           true,
		OpInvoicePay:          true,
		OpInvoiceRead:         true,
	},
	RoleManager: {
		OpQuotationCreate:     true,
		OpQuotationUpdate:     true,
		OpQuotationTransition: true,
		OpQuotationConvert:    true,
		OpQuotationDuplicate:  true,
		OpQuotationRead:       true,
		OpOrderCreate:         true,
		OpOrderUpdate:         true,
		OpOrderTransition:     true,
		OpOrderRead:           true,
		OpInvoicePay:          true,
		OpInvoiceRead:         true,
		OpRecordDelete:        true,
	},
	// admin is handled in Authorize: all operations allowed
}

// Authorize evaluates whether the actor may perform the operation on the
// resource. Returns nil on allow, FORBIDDEN on deny. Cross-tenant access is
// always denied, regardless of role.
func Authorize(actor Actor, op Operation, resource Resource) error {
	if actor.UserID == uuid.Nil {
		return shared.ErrUnauthorized
	}
	if resource.TenantID != uuid.Nil && resource.TenantID != actor.TenantID {
		return shared.ErrForbidden
	}
	if actor.Role == RoleAdmin {
		return nil
	}
	if ops, ok := rolePolicy[actor.Role]; ok && ops[op] {
		return nil
	}
	return shared.NewDomainError("FORBIDDEN", fmt.Sprintf("Role %q may not perform %s", actor.Role, op))
}
