package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a VALIDATION error with field-level detail
func NewValidationError(message string) *DomainError {
	return NewDomainError("VALIDATION", message)
}

// NewConflictError creates a CONFLICT error for illegal state transitions
// and concurrent modification attempts
func NewConflictError(message string) *DomainError {
	return NewDomainError("CONFLICT", message)
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("VALIDATION", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError("CONFLICT", "Operation not allowed in current state")
	ErrPartialFailure      = NewDomainError("PARTIAL_FAILURE", "Multi-step operation failed and was rolled back")
)
