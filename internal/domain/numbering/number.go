package numbering

import (
	"context"
	"fmt"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DocumentType identifies the kind of commercial document a number belongs to
type DocumentType string

const (
	DocumentTypeQuotation  DocumentType = "QUOTATION"
	DocumentTypeSalesOrder DocumentType = "SALES_ORDER"
	DocumentTypeInvoice    DocumentType = "INVOICE"
)

// IsValid checks if the document type is known
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeQuotation, DocumentTypeSalesOrder, DocumentTypeInvoice:
		return true
	}
	return false
}

// Prefix returns the display prefix used in document numbers
func (t DocumentType) Prefix() string {
	switch t {
	case DocumentTypeQuotation:
		return "QT"
	case DocumentTypeSalesOrder:
		return "SO"
	case DocumentTypeInvoice:
		return "INV"
	}
	return ""
}

// SequenceRepository allocates monotonic counters. Next must increment the
// counter for (tenant, document type, year, month) atomically across
// concurrent requests; the returned value is never handed out twice.
type SequenceRepository interface {
	Next(ctx context.Context, tenantID uuid.UUID, docType DocumentType, year int, month time.Month) (int64, error)
}

// Format renders a document number as <PREFIX>-<YEAR>-<MONTH><SEQUENCE>,
// e.g. QT-2024-05014 for the 14th quotation of May 2024
func Format(docType DocumentType, year int, month time.Month, sequence int64) string {
	return fmt.Sprintf("%s-%d-%02d%03d", docType.Prefix(), year, int(month), sequence)
}

// Generator produces unique, human-readable document numbers backed by a
// transactionally persisted per-(type, year, month) counter
type Generator struct {
	sequences SequenceRepository
	now       func() time.Time
}

// NewGenerator creates a new document number generator
func NewGenerator(sequences SequenceRepository) *Generator {
	return &Generator{
		sequences: sequences,
		now:       time.Now,
	}
}

// NewGeneratorWithClock creates a generator with a fixed clock, for tests
func NewGeneratorWithClock(sequences SequenceRepository, now func() time.Time) *Generator {
	return &Generator{
		sequences: sequences,
		now:       now,
	}
}

// NextNumber allocates the next number for the given document type. The
// counter increment is atomic, so uniqueness is structural rather than
// probabilistic.
func (g *Generator) NextNumber(ctx context.Context, tenantID uuid.UUID, docType DocumentType) (string, error) {
	if !docType.IsValid() {
		return "", shared.NewValidationError(fmt.Sprintf("Unknown document type %q", docType))
	}

	now := g.now()
	year, month := now.Year(), now.Month()

	seq, err := g.sequences.Next(ctx, tenantID, docType, year, month)
	if err != nil {
		return "", err
	}

	return Format(docType, year, month, seq), nil
}
