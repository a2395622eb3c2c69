package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crm/backend/internal/domain/sales"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/shared/valueobject"
)

func TestGormQuotationRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormQuotationRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	q := buildQuotation(t, tenantID, "QT-2024-05001")
	require.NoError(t, repo.Save(ctx, q))

	found, err := repo.FindByIDForTenant(ctx, tenantID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "QT-2024-05001", found.Number)
	assert.Equal(t, sales.QuotationStatusDraft, found.Status)
	require.Len(t, found.Items, 1)
	assert.True(t, found.Subtotal.Equal(decimal.NewFromInt(200)))
	assert.True(t, found.Total.Equal(decimal.NewFromInt(220)))
}

func TestGormQuotationRepository_FindByNumber(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormQuotationRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	q := buildQuotation(t, tenantID, "QT-2024-05007")
	require.NoError(t, repo.Save(ctx, q))

	found, err := repo.FindByNumber(ctx, tenantID, "QT-2024-05007")
	require.NoError(t, err)
	assert.Equal(t, q.ID, found.ID)

	_, err = repo.FindByNumber(ctx, tenantID, "QT-2024-05999")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormQuotationRepository_TenantIsolation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormQuotationRepository(db)
	ctx := context.Background()

	q := buildQuotation(t, uuid.New(), "QT-2024-05001")
	require.NoError(t, repo.Save(ctx, q))

	_, err := repo.FindByIDForTenant(ctx, uuid.New(), q.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormQuotationRepository_SaveReconcilesItems(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormQuotationRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	q := buildQuotation(t, tenantID, "QT-2024-05001")
	item2, err := q.AddItem(uuid.New(), "Gadget", decimal.NewFromInt(1),
		valueobject.NewMoneyUSDFromFloat(30), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, q))

	require.NoError(t, q.RemoveItem(item2.ID))
	require.NoError(t, repo.Save(ctx, q))

	found, err := repo.FindByIDForTenant(ctx, tenantID, q.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Widget", found.Items[0].Description)

	var orphans int64
	require.NoError(t, db.Table("quotation_items").
		Where("quotation_id = ?", q.ID).Count(&orphans).Error)
	assert.Equal(t, int64(1), orphans)
}

func TestGormQuotationRepository_SaveWithLock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormQuotationRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	q := buildQuotation(t, tenantID, "QT-2024-05001")
	require.NoError(t, repo.Save(ctx, q))

	t.Run("increments version on success", func(t *testing.T) {
		require.NoError(t, q.Send())
		require.NoError(t, repo.SaveWithLock(ctx, q))
		assert.Equal(t, 2, q.Version)

		found, err := repo.FindByIDForTenant(ctx, tenantID, q.ID)
		require.NoError(t, err)
		assert.Equal(t, sales.QuotationStatusSent, found.Status)
		assert.Equal(t, 2, found.Version)
	})

	t.Run("rejects stale version", func(t *testing.T) {
		stale := *q
		stale.Version = 1
		err := repo.SaveWithLock(ctx, &stale)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestGormQuotationRepository_FindAllForTenant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormQuotationRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	draft := buildQuotation(t, tenantID, "QT-2024-05001")
	require.NoError(t, repo.Save(ctx, draft))

	sent := buildQuotation(t, tenantID, "QT-2024-05002")
	require.NoError(t, sent.Send())
	require.NoError(t, repo.Save(ctx, sent))

	other := buildQuotation(t, uuid.New(), "QT-2024-05003")
	require.NoError(t, repo.Save(ctx, other))

	filter := shared.DefaultFilter()
	all, err := repo.FindAllForTenant(ctx, tenantID, filter)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filter.Filters["status"] = string(sales.QuotationStatusSent)
	sentOnly, err := repo.FindAllForTenant(ctx, tenantID, filter)
	require.NoError(t, err)
	require.Len(t, sentOnly, 1)
	assert.Equal(t, "QT-2024-05002", sentOnly[0].Number)

	count, err := repo.CountForTenant(ctx, tenantID, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	byStatus, err := repo.CountByStatus(ctx, tenantID, sales.QuotationStatusDraft)
	require.NoError(t, err)
	assert.Equal(t, int64(1), byStatus)
}
