package sales

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// DocumentRenderer renders a commercial document into a printable stream.
// Rendering happens outside this service; implementations live at the edge.
type DocumentRenderer interface {
	RenderQuotation(ctx context.Context, quotationID uuid.UUID) (io.ReadCloser, error)
}

// EmailDispatcher delivers a rendered document to a contact. Implementations
// resolve the contact's address; a nil dispatcher disables delivery.
type EmailDispatcher interface {
	SendDocument(ctx context.Context, contactID uuid.UUID, subject string, attachment io.Reader) error
}
