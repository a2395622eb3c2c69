package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crm/backend/internal/domain/numbering"
)

// GormSequenceRepository implements numbering.SequenceRepository on the
// document_sequences table. The counter increment is a single upsert with
// RETURNING, so concurrent callers serialize on the row and no value is ever
// handed out twice.
type GormSequenceRepository struct {
	db *gorm.DB
}

// NewGormSequenceRepository creates a new GormSequenceRepository
func NewGormSequenceRepository(db *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{db: db}
}

// Next atomically increments and returns the counter for
// (tenant, document type, year, month)
func (r *GormSequenceRepository) Next(ctx context.Context, tenantID uuid.UUID, docType numbering.DocumentType, year int, month time.Month) (int64, error) {
	var sequence int64
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO document_sequences (tenant_id, doc_type, year, month, counter)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT (tenant_id, doc_type, year, month)
		DO UPDATE SET counter = document_sequences.counter + 1
		RETURNING counter`,
		tenantID, string(docType), year, int(month),
	).Scan(&sequence).Error
	if err != nil {
		return 0, err
	}
	return sequence, nil
}

// Ensure GormSequenceRepository implements SequenceRepository
var _ numbering.SequenceRepository = (*GormSequenceRepository)(nil)
