// Package money computes receipt totals with fixed-point decimals.
package money

import "github.com/shopspring/decimal"

// Precision of stored money values.
const (
	MoneyPlaces    int32 = 2
	TaxRatePlaces  int32 = 4
	QuantityPlaces int32 = 3
)

// Tolerance is the smallest difference treated as a mismatch between a
// submitted total and its computed value.
var Tolerance = decimal.New(1, -2)

// LineItem is a single quantity/unit price pair.
type LineItem struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// Totals holds the computed amounts of a receipt.
type Totals struct {
	Subtotal   decimal.Decimal
	TaxAmount  decimal.Decimal
	GrandTotal decimal.Decimal
}

// Round rounds half-up to the money precision.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// Subtotal returns the unrounded sum of quantity x unit price.
func Subtotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Quantity.Mul(item.UnitPrice))
	}
	return sum
}

// CalculateTotals computes subtotal, tax and grand total for the given items.
// Rounding happens only when computing tax and the grand total; the subtotal
// is reported rounded but the unrounded sum feeds the later stages.
func CalculateTotals(items []LineItem, taxEnabled bool, taxRate, discount decimal.Decimal) Totals {
	subtotal := Subtotal(items)

	tax := decimal.Zero
	if taxEnabled {
		tax = Round(subtotal.Mul(taxRate))
	}

	return Totals{
		Subtotal:   Round(subtotal),
		TaxAmount:  tax.Round(MoneyPlaces),
		GrandTotal: Round(subtotal.Add(tax).Sub(discount)),
	}
}

// Matches reports whether received is within tolerance of expected.
func Matches(expected, received decimal.Decimal) bool {
	return expected.Sub(received).Abs().LessThan(Tolerance)
}
