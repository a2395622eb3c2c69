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

func TestGormConversionRepository_ConvertQuotation(t *testing.T) {
	db := setupTestDB(t)
	quotations := NewGormQuotationRepository(db)
	orders := NewGormSalesOrderRepository(db)
	conversions := NewGormConversionRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	q := buildAcceptedQuotation(t, tenantID, "QT-2024-05001")
	require.NoError(t, quotations.Save(ctx, q))

	loaded, err := quotations.FindByIDForTenant(ctx, tenantID, q.ID)
	require.NoError(t, err)

	order, err := loaded.BuildSalesOrder("SO-2024-05001", uuid.New())
	require.NoError(t, err)
	require.NoError(t, loaded.MarkConverted(order.ID))

	require.NoError(t, conversions.ConvertQuotation(ctx, loaded, order))

	stored, err := quotations.FindByIDForTenant(ctx, tenantID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.QuotationStatusConverted, stored.Status)
	require.NotNil(t, stored.SalesOrderID)
	assert.Equal(t, order.ID, *stored.SalesOrderID)

	storedOrder, err := orders.FindByQuotation(ctx, tenantID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "SO-2024-05001", storedOrder.OrderNumber)
	assert.Equal(t, sales.OrderStatusNew, storedOrder.Status)
	require.Len(t, storedOrder.Items, 1)
	assert.True(t, storedOrder.Total.Equal(loaded.Total))
}

func TestGormConversionRepository_ConcurrentConversionLoses(t *testing.T) {
	db := setupTestDB(t)
	quotations := NewGormQuotationRepository(db)
	conversions := NewGormConversionRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	q := buildAcceptedQuotation(t, tenantID, "QT-2024-05001")
	require.NoError(t, quotations.Save(ctx, q))

	// Two readers load the same accepted quotation
	first, err := quotations.FindByIDForTenant(ctx, tenantID, q.ID)
	require.NoError(t, err)
	second, err := quotations.FindByIDForTenant(ctx, tenantID, q.ID)
	require.NoError(t, err)

	firstOrder, err := first.BuildSalesOrder("SO-2024-05001", uuid.New())
	require.NoError(t, err)
	require.NoError(t, first.MarkConverted(firstOrder.ID))
	require.NoError(t, conversions.ConvertQuotation(ctx, first, firstOrder))

	secondOrder, err := second.BuildSalesOrder("SO-2024-05002", uuid.New())
	require.NoError(t, err)
	require.NoError(t, second.MarkConverted(secondOrder.ID))

	err = conversions.ConvertQuotation(ctx, second, secondOrder)
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CONFLICT", domainErr.Code)

	// The losing order must not have been inserted
	var orderCount int64
	require.NoError(t, db.Table("sales_orders").Count(&orderCount).Error)
	assert.Equal(t, int64(1), orderCount)

	stored, err := quotations.FindByIDForTenant(ctx, tenantID, q.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.SalesOrderID)
	assert.Equal(t, firstOrder.ID, *stored.SalesOrderID)
}
