package sales

import (
	"context"
	"testing"

	"github.com/crm/backend/internal/domain/sales"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T) *sales.SalesOrder {
	t.Helper()
	order, err := sales.NewSalesOrder(testTenantID, "SO-2024-05001", testCompanyID, testContactID, testUserID)
	require.NoError(t, err)
	_, err = order.AddItem(uuid.New(), "Widget", decimal.NewFromInt(1),
		valueobject.NewMoneyUSDFromFloat(100), decimal.Zero)
	require.NoError(t, err)
	return order
}

func TestSalesOrderService_Create(t *testing.T) {
	repo := new(MockSalesOrderRepository)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*sales.SalesOrder")).Return(nil)

	service := NewSalesOrderService(repo, testGenerator(1))

	resp, err := service.Create(context.Background(), salesActor(t), CreateSalesOrderRequest{
		CompanyID: testCompanyID,
		ContactID: testContactID,
		Items: []CreateOrderItemInput{
			{ProductID: uuid.New(), Description: "Widget", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(50)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "NEW", resp.Status)
	assert.Contains(t, resp.OrderNumber, "SO-")
	assert.Nil(t, resp.SourceQuotationID)
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(150)))
	repo.AssertExpectations(t)
}

func TestSalesOrderService_Transition(t *testing.T) {
	t.Run("walks the fulfilment sequence", func(t *testing.T) {
		order := newTestOrder(t)
		repo := new(MockSalesOrderRepository)
		repo.On("FindByIDForTenant", mock.Anything, testTenantID, order.ID).Return(order, nil)
		repo.On("SaveWithLock", mock.Anything, order).Return(nil)

		service := NewSalesOrderService(repo, testGenerator(1))

		for _, status := range []string{"PROCESSING", "DELIVERED", "COMPLETED"} {
			resp, err := service.Transition(context.Background(), salesActor(t), order.ID, TransitionOrderRequest{Status: status})
			require.NoError(t, err)
			assert.Equal(t, status, resp.Status)
		}
	})

	t.Run("skipping a stage fails with conflict", func(t *testing.T) {
		order := newTestOrder(t)
		repo := new(MockSalesOrderRepository)
		repo.On("FindByIDForTenant", mock.Anything, testTenantID, order.ID).Return(order, nil)

		service := NewSalesOrderService(repo, testGenerator(1))

		_, err := service.Transition(context.Background(), salesActor(t), order.ID, TransitionOrderRequest{Status: "DELIVERED"})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "CONFLICT", domainErr.Code)
		repo.AssertNotCalled(t, "SaveWithLock")
	})

	t.Run("cancellation carries the reason", func(t *testing.T) {
		order := newTestOrder(t)
		repo := new(MockSalesOrderRepository)
		repo.On("FindByIDForTenant", mock.Anything, testTenantID, order.ID).Return(order, nil)
		repo.On("SaveWithLock", mock.Anything, order).Return(nil)

		service := NewSalesOrderService(repo, testGenerator(1))

		resp, err := service.Transition(context.Background(), salesActor(t), order.ID,
			TransitionOrderRequest{Status: "CANCELLED", CancelReason: "customer withdrew"})
		require.NoError(t, err)

		assert.Equal(t, "CANCELLED", resp.Status)
		assert.Equal(t, "customer withdrew", resp.CancelReason)
	})
}

func TestSalesOrderService_UpdateItem(t *testing.T) {
	t.Run("new order item edits recompute totals", func(t *testing.T) {
		order := newTestOrder(t)
		itemID := order.Items[0].ID

		repo := new(MockSalesOrderRepository)
		repo.On("FindByIDForTenant", mock.Anything, testTenantID, order.ID).Return(order, nil)
		repo.On("SaveWithLock", mock.Anything, order).Return(nil)

		service := NewSalesOrderService(repo, testGenerator(1))

		qty := decimal.NewFromInt(4)
		resp, err := service.UpdateItem(context.Background(), salesActor(t), order.ID, itemID, UpdateOrderItemRequest{Quantity: &qty})
		require.NoError(t, err)

		assert.True(t, resp.Total.Equal(decimal.NewFromInt(400)))
	})

	t.Run("edits rejected once processing", func(t *testing.T) {
		order := newTestOrder(t)
		require.NoError(t, order.StartProcessing())
		itemID := order.Items[0].ID

		repo := new(MockSalesOrderRepository)
		repo.On("FindByIDForTenant", mock.Anything, testTenantID, order.ID).Return(order, nil)

		service := NewSalesOrderService(repo, testGenerator(1))

		qty := decimal.NewFromInt(4)
		_, err := service.UpdateItem(context.Background(), salesActor(t), order.ID, itemID, UpdateOrderItemRequest{Quantity: &qty})

		require.Error(t, err)
		repo.AssertNotCalled(t, "SaveWithLock")
	})
}

func TestSalesOrderService_StatusSummary(t *testing.T) {
	repo := new(MockSalesOrderRepository)
	for status, count := range map[sales.OrderStatus]int64{
		sales.OrderStatusNew:        2,
		sales.OrderStatusProcessing: 1,
		sales.OrderStatusDelivered:  0,
		sales.OrderStatusCompleted:  7,
		sales.OrderStatusCancelled:  1,
	} {
		repo.On("CountByStatus", mock.Anything, testTenantID, status).Return(count, nil)
	}

	service := NewSalesOrderService(repo, testGenerator(1))

	summary, err := service.StatusSummary(context.Background(), salesActor(t))
	require.NoError(t, err)

	assert.Equal(t, int64(7), summary.Completed)
	assert.Equal(t, int64(11), summary.Total)
}
