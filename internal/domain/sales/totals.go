package sales

import (
	"github.com/crm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DocumentTotals holds the derived financial figures of a commercial document
type DocumentTotals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// LineAmounts is the arithmetic input of a single line item
type LineAmounts struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	TaxRate   decimal.Decimal
}

// ValidateLineAmounts checks the arithmetic preconditions of a line item
func ValidateLineAmounts(quantity, unitPrice, taxRate decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return shared.NewValidationError("Unit price cannot be negative")
	}
	if taxRate.IsNegative() {
		return shared.NewValidationError("Tax rate cannot be negative")
	}
	return nil
}

// LineSubtotal returns quantity * unitPrice rounded to 2 decimal places
func LineSubtotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Round(2)
}

// CalculateTotals derives document totals from its line items.
// subtotal = sum(quantity * unitPrice), tax = sum(lineSubtotal * taxRate),
// total = subtotal - discount + tax. The discount is applied once at the
// document level, never per line. All figures are rounded to 2 decimal places.
func CalculateTotals(lines []LineAmounts, discount decimal.Decimal) (DocumentTotals, error) {
	if discount.IsNegative() {
		return DocumentTotals{}, shared.NewValidationError("Discount cannot be negative")
	}

	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, line := range lines {
		if err := ValidateLineAmounts(line.Quantity, line.UnitPrice, line.TaxRate); err != nil {
			return DocumentTotals{}, err
		}
		lineSubtotal := LineSubtotal(line.Quantity, line.UnitPrice)
		subtotal = subtotal.Add(lineSubtotal)
		tax = tax.Add(lineSubtotal.Mul(line.TaxRate))
	}

	subtotal = subtotal.Round(2)
	tax = tax.Round(2)

	if discount.GreaterThan(subtotal) {
		return DocumentTotals{}, shared.NewValidationError("Discount cannot exceed subtotal")
	}

	return DocumentTotals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Sub(discount).Add(tax).Round(2),
	}, nil
}
