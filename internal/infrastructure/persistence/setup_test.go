package persistence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/crm/backend/internal/domain/sales"
	"github.com/crm/backend/internal/domain/shared/valueobject"
)

// setupTestDB creates an in-memory SQLite database with the full schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE quotations (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			tenant_id TEXT NOT NULL,
			created_by TEXT,
			number TEXT NOT NULL,
			company_id TEXT NOT NULL,
			contact_id TEXT NOT NULL,
			opportunity_id TEXT,
			subtotal NUMERIC NOT NULL,
			tax NUMERIC NOT NULL,
			discount NUMERIC NOT NULL,
			total NUMERIC NOT NULL,
			status TEXT NOT NULL,
			valid_until DATETIME NOT NULL,
			sales_order_id TEXT,
			sent_at DATETIME,
			accepted_at DATETIME,
			rejected_at DATETIME,
			expired_at DATETIME,
			converted_at DATETIME,
			UNIQUE(tenant_id, number)
		)`,
		`CREATE TABLE quotation_items (
			id TEXT PRIMARY KEY,
			quotation_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			description TEXT NOT NULL,
			quantity NUMERIC NOT NULL,
			unit_price NUMERIC NOT NULL,
			tax_rate NUMERIC NOT NULL,
			subtotal NUMERIC NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE sales_orders (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			tenant_id TEXT NOT NULL,
			created_by TEXT,
			order_number TEXT NOT NULL,
			source_quotation_id TEXT,
			company_id TEXT NOT NULL,
			contact_id TEXT NOT NULL,
			opportunity_id TEXT,
			subtotal NUMERIC NOT NULL,
			tax NUMERIC NOT NULL,
			discount NUMERIC NOT NULL,
			total NUMERIC NOT NULL,
			status TEXT NOT NULL,
			processing_at DATETIME,
			delivered_at DATETIME,
			completed_at DATETIME,
			cancelled_at DATETIME,
			cancel_reason TEXT,
			UNIQUE(tenant_id, order_number)
		)`,
		`CREATE TABLE order_items (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			description TEXT NOT NULL,
			quantity NUMERIC NOT NULL,
			unit_price NUMERIC NOT NULL,
			tax_rate NUMERIC NOT NULL,
			subtotal NUMERIC NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE invoices (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			tenant_id TEXT NOT NULL,
			created_by TEXT,
			invoice_number TEXT NOT NULL,
			order_id TEXT NOT NULL,
			status TEXT NOT NULL,
			total NUMERIC NOT NULL,
			issued_at DATETIME NOT NULL,
			paid_at DATETIME,
			UNIQUE(tenant_id, order_id)
		)`,
		`CREATE TABLE audit_log_entries (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			tenant_id TEXT NOT NULL,
			table_name TEXT NOT NULL,
			record_id TEXT NOT NULL,
			record_data TEXT NOT NULL,
			deleted_by TEXT NOT NULL,
			removed_at DATETIME NOT NULL,
			reason TEXT
		)`,
		`CREATE TABLE document_sequences (
			tenant_id TEXT NOT NULL,
			doc_type TEXT NOT NULL,
			year INTEGER NOT NULL,
			month INTEGER NOT NULL,
			counter INTEGER NOT NULL,
			PRIMARY KEY (tenant_id, doc_type, year, month)
		)`,
	}

	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}

	return db
}

// buildQuotation creates a draft quotation with one line item
func buildQuotation(t *testing.T, tenantID uuid.UUID, number string) *sales.Quotation {
	t.Helper()

	q, err := sales.NewQuotation(
		tenantID, number, uuid.New(), uuid.New(),
		time.Now().Add(30*24*time.Hour), uuid.New(),
	)
	require.NoError(t, err)

	_, err = q.AddItem(
		uuid.New(), "Widget",
		decimal.NewFromInt(2),
		valueobject.NewMoneyUSDFromFloat(100),
		decimal.NewFromFloat(0.10),
	)
	require.NoError(t, err)

	return q
}

// buildAcceptedQuotation creates a quotation walked through SENT to ACCEPTED
func buildAcceptedQuotation(t *testing.T, tenantID uuid.UUID, number string) *sales.Quotation {
	t.Helper()

	q := buildQuotation(t, tenantID, number)
	require.NoError(t, q.Send())
	require.NoError(t, q.Accept())
	return q
}

// buildOrder creates a NEW sales order with one line item
func buildOrder(t *testing.T, tenantID uuid.UUID, orderNumber string) *sales.SalesOrder {
	t.Helper()

	order, err := sales.NewSalesOrder(tenantID, orderNumber, uuid.New(), uuid.New(), uuid.New())
	require.NoError(t, err)

	_, err = order.AddItem(
		uuid.New(), "Widget",
		decimal.NewFromInt(3),
		valueobject.NewMoneyUSDFromFloat(50),
		decimal.NewFromFloat(0.10),
	)
	require.NoError(t, err)

	return order
}
