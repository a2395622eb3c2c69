package numbering

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSequenceRepository is a mock implementation of SequenceRepository
type MockSequenceRepository struct {
	mock.Mock
}

func (m *MockSequenceRepository) Next(ctx context.Context, tenantID uuid.UUID, docType DocumentType, year int, month time.Month) (int64, error) {
	args := m.Called(ctx, tenantID, docType, year, month)
	return args.Get(0).(int64), args.Error(1)
}

func TestDocumentType_Prefix(t *testing.T) {
	assert.Equal(t, "QT", DocumentTypeQuotation.Prefix())
	assert.Equal(t, "SO", DocumentTypeSalesOrder.Prefix())
	assert.Equal(t, "INV", DocumentTypeInvoice.Prefix())
	assert.Equal(t, "", DocumentType("BOGUS").Prefix())
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		docType  DocumentType
		year     int
		month    time.Month
		sequence int64
		want     string
	}{
		{"quotation in may", DocumentTypeQuotation, 2024, time.May, 14, "QT-2024-05014"},
		{"first order of january", DocumentTypeSalesOrder, 2024, time.January, 1, "SO-2024-01001"},
		{"invoice in december", DocumentTypeInvoice, 2025, time.December, 230, "INV-2025-12230"},
		{"sequence beyond three digits widens", DocumentTypeQuotation, 2024, time.May, 1042, "QT-2024-051042"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.docType, tt.year, tt.month, tt.sequence))
		})
	}
}

func TestGenerator_NextNumber(t *testing.T) {
	fixedNow := time.Date(2024, time.May, 17, 10, 0, 0, 0, time.UTC)
	tenantID := uuid.New()

	t.Run("allocates from the month counter", func(t *testing.T) {
		sequences := new(MockSequenceRepository)
		sequences.On("Next", mock.Anything, tenantID, DocumentTypeQuotation, 2024, time.May).
			Return(int64(14), nil)

		gen := NewGeneratorWithClock(sequences, func() time.Time { return fixedNow })

		number, err := gen.NextNumber(context.Background(), tenantID, DocumentTypeQuotation)
		require.NoError(t, err)
		assert.Equal(t, "QT-2024-05014", number)
		sequences.AssertExpectations(t)
	})

	t.Run("counters are per month", func(t *testing.T) {
		sequences := new(MockSequenceRepository)
		sequences.On("Next", mock.Anything, tenantID, DocumentTypeInvoice, 2024, time.June).
			Return(int64(1), nil)

		june := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
		gen := NewGeneratorWithClock(sequences, func() time.Time { return june })

		number, err := gen.NextNumber(context.Background(), tenantID, DocumentTypeInvoice)
		require.NoError(t, err)
		assert.Equal(t, "INV-2024-06001", number)
	})

	t.Run("rejects unknown document type", func(t *testing.T) {
		sequences := new(MockSequenceRepository)
		gen := NewGeneratorWithClock(sequences, func() time.Time { return fixedNow })

		_, err := gen.NextNumber(context.Background(), tenantID, DocumentType("BOGUS"))
		require.Error(t, err)
		sequences.AssertNotCalled(t, "Next")
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		sequences := new(MockSequenceRepository)
		sequences.On("Next", mock.Anything, tenantID, DocumentTypeSalesOrder, 2024, time.May).
			Return(int64(0), assert.AnError)

		gen := NewGeneratorWithClock(sequences, func() time.Time { return fixedNow })

		_, err := gen.NextNumber(context.Background(), tenantID, DocumentTypeSalesOrder)
		assert.Error(t, err)
	})
}
