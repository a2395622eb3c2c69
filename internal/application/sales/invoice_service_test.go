package sales

import (
	"context"
	"testing"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/sales"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestInvoice(t *testing.T, order *sales.SalesOrder) *sales.Invoice {
	t.Helper()
	inv, err := sales.NewInvoice(testTenantID, "INV-2024-05001", order)
	require.NoError(t, err)
	return inv
}

func TestInvoiceService_GetOrCreateForOrder(t *testing.T) {
	t.Run("first access issues the invoice", func(t *testing.T) {
		order := newTestOrder(t)

		invoiceRepo := new(MockInvoiceRepository)
		invoiceRepo.On("FindByOrderID", mock.Anything, testTenantID, order.ID).Return(nil, shared.ErrNotFound)
		invoiceRepo.On("Save", mock.Anything, mock.AnythingOfType("*sales.Invoice")).Return(nil)

		orderRepo := new(MockSalesOrderRepository)
		orderRepo.On("FindByIDForTenant", mock.Anything, testTenantID, order.ID).Return(order, nil)

		service := NewInvoiceService(invoiceRepo, orderRepo, testGenerator(1))

		resp, err := service.GetOrCreateForOrder(context.Background(), salesActor(t), order.ID)
		require.NoError(t, err)

		assert.Contains(t, resp.InvoiceNumber, "INV-")
		assert.Equal(t, order.ID, resp.OrderID)
		assert.Equal(t, "UNPAID", resp.Status)
		assert.True(t, resp.Total.Equal(order.Total))
		invoiceRepo.AssertExpectations(t)
	})

	t.Run("second access returns the existing invoice", func(t *testing.T) {
		order := newTestOrder(t)
		existing := newTestInvoice(t, order)

		invoiceRepo := new(MockInvoiceRepository)
		invoiceRepo.On("FindByOrderID", mock.Anything, testTenantID, order.ID).Return(existing, nil)

		orderRepo := new(MockSalesOrderRepository)
		service := NewInvoiceService(invoiceRepo, orderRepo, testGenerator(1))

		resp, err := service.GetOrCreateForOrder(context.Background(), salesActor(t), order.ID)
		require.NoError(t, err)

		assert.Equal(t, existing.InvoiceNumber, resp.InvoiceNumber)
		invoiceRepo.AssertNotCalled(t, "Save")
		orderRepo.AssertNotCalled(t, "FindByIDForTenant")
	})

	t.Run("losing a concurrent first access returns the winner's invoice", func(t *testing.T) {
		order := newTestOrder(t)
		existing := newTestInvoice(t, order)

		invoiceRepo := new(MockInvoiceRepository)
		invoiceRepo.On("FindByOrderID", mock.Anything, testTenantID, order.ID).Return(nil, shared.ErrNotFound).Once()
		invoiceRepo.On("Save", mock.Anything, mock.AnythingOfType("*sales.Invoice")).Return(shared.ErrAlreadyExists)
		invoiceRepo.On("FindByOrderID", mock.Anything, testTenantID, order.ID).Return(existing, nil).Once()

		orderRepo := new(MockSalesOrderRepository)
		orderRepo.On("FindByIDForTenant", mock.Anything, testTenantID, order.ID).Return(order, nil)

		service := NewInvoiceService(invoiceRepo, orderRepo, testGenerator(1))

		resp, err := service.GetOrCreateForOrder(context.Background(), salesActor(t), order.ID)
		require.NoError(t, err)

		assert.Equal(t, existing.InvoiceNumber, resp.InvoiceNumber)
		assert.Equal(t, existing.ID, resp.ID)
		invoiceRepo.AssertExpectations(t)
	})

	t.Run("invoice total is frozen even if order changed since", func(t *testing.T) {
		order := newTestOrder(t)
		existing := newTestInvoice(t, order)
		frozen := existing.Total

		require.NoError(t, order.UpdateItemQuantity(order.Items[0].ID, decimal.NewFromInt(9)))

		invoiceRepo := new(MockInvoiceRepository)
		invoiceRepo.On("FindByOrderID", mock.Anything, testTenantID, order.ID).Return(existing, nil)

		service := NewInvoiceService(invoiceRepo, new(MockSalesOrderRepository), testGenerator(1))

		resp, err := service.GetOrCreateForOrder(context.Background(), salesActor(t), order.ID)
		require.NoError(t, err)
		assert.True(t, resp.Total.Equal(frozen))
	})

	t.Run("cancelled order cannot be invoiced", func(t *testing.T) {
		order := newTestOrder(t)
		require.NoError(t, order.Cancel("out of stock"))

		invoiceRepo := new(MockInvoiceRepository)
		invoiceRepo.On("FindByOrderID", mock.Anything, testTenantID, order.ID).Return(nil, shared.ErrNotFound)

		orderRepo := new(MockSalesOrderRepository)
		orderRepo.On("FindByIDForTenant", mock.Anything, testTenantID, order.ID).Return(order, nil)

		service := NewInvoiceService(invoiceRepo, orderRepo, testGenerator(1))

		_, err := service.GetOrCreateForOrder(context.Background(), salesActor(t), order.ID)

		require.Error(t, err)
		invoiceRepo.AssertNotCalled(t, "Save")
	})
}

func TestInvoiceService_MarkPaid(t *testing.T) {
	t.Run("unpaid invoice flips to paid", func(t *testing.T) {
		inv := newTestInvoice(t, newTestOrder(t))

		invoiceRepo := new(MockInvoiceRepository)
		invoiceRepo.On("FindByIDForTenant", mock.Anything, testTenantID, inv.ID).Return(inv, nil)
		invoiceRepo.On("SaveWithLock", mock.Anything, inv).Return(nil)

		service := NewInvoiceService(invoiceRepo, new(MockSalesOrderRepository), testGenerator(1))

		resp, err := service.MarkPaid(context.Background(), salesActor(t), inv.ID)
		require.NoError(t, err)

		assert.Equal(t, "PAID", resp.Status)
		require.NotNil(t, resp.PaidAt)
		invoiceRepo.AssertExpectations(t)
	})

	t.Run("second mark paid is a no-op without save", func(t *testing.T) {
		inv := newTestInvoice(t, newTestOrder(t))
		inv.MarkPaid()
		inv.ClearDomainEvents()

		invoiceRepo := new(MockInvoiceRepository)
		invoiceRepo.On("FindByIDForTenant", mock.Anything, testTenantID, inv.ID).Return(inv, nil)

		service := NewInvoiceService(invoiceRepo, new(MockSalesOrderRepository), testGenerator(1))

		resp, err := service.MarkPaid(context.Background(), salesActor(t), inv.ID)
		require.NoError(t, err)

		assert.Equal(t, "PAID", resp.Status)
		invoiceRepo.AssertNotCalled(t, "SaveWithLock")
	})

	t.Run("requires pay capability", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		service := NewInvoiceService(invoiceRepo, new(MockSalesOrderRepository), testGenerator(1))

		_, err := service.MarkPaid(context.Background(), identity.Actor{}, uuid.New())

		assert.ErrorIs(t, err, shared.ErrUnauthorized)
		invoiceRepo.AssertNotCalled(t, "FindByIDForTenant")
	})
}
