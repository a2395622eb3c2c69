package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crm/backend/internal/domain/sales"
	"github.com/crm/backend/internal/domain/shared"
)

func TestGormSalesOrderRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSalesOrderRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	order := buildOrder(t, tenantID, "SO-2024-05001")
	require.NoError(t, repo.Save(ctx, order))

	found, err := repo.FindByOrderNumber(ctx, tenantID, "SO-2024-05001")
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	assert.Equal(t, sales.OrderStatusNew, found.Status)
	require.Len(t, found.Items, 1)
	assert.True(t, found.Total.Equal(order.Total))
}

func TestGormSalesOrderRepository_SaveWithLockTracksFulfilment(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSalesOrderRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	order := buildOrder(t, tenantID, "SO-2024-05001")
	require.NoError(t, repo.Save(ctx, order))

	require.NoError(t, order.StartProcessing())
	require.NoError(t, repo.SaveWithLock(ctx, order))

	found, err := repo.FindByIDForTenant(ctx, tenantID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.OrderStatusProcessing, found.Status)
	require.NotNil(t, found.ProcessingAt)
	assert.Equal(t, 2, found.Version)

	stale := *order
	stale.Version = 1
	err = repo.SaveWithLock(ctx, &stale)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

func TestGormSalesOrderRepository_StatusFilterAndCounts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSalesOrderRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	fresh := buildOrder(t, tenantID, "SO-2024-05001")
	require.NoError(t, repo.Save(ctx, fresh))

	cancelled := buildOrder(t, tenantID, "SO-2024-05002")
	require.NoError(t, cancelled.Cancel("customer withdrew"))
	require.NoError(t, repo.Save(ctx, cancelled))

	filter := shared.DefaultFilter()
	filter.Filters["status"] = string(sales.OrderStatusCancelled)
	got, err := repo.FindAllForTenant(ctx, tenantID, filter)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "SO-2024-05002", got[0].OrderNumber)
	assert.Equal(t, "customer withdrew", got[0].CancelReason)

	count, err := repo.CountByStatus(ctx, tenantID, sales.OrderStatusNew)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
