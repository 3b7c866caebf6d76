package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculateTotals(t *testing.T) {
	tests := []struct {
		name       string
		items      []LineItem
		taxEnabled bool
		taxRate    string
		discount   string
		subtotal   string
		tax        string
		grand      string
	}{
		{
			name:       "tax enabled",
			items:      []LineItem{{Quantity: d("2"), UnitPrice: d("10.00")}, {Quantity: d("1"), UnitPrice: d("5.00")}},
			taxEnabled: true,
			taxRate:    "0.10",
			discount:   "0.00",
			subtotal:   "25.00",
			tax:        "2.50",
			grand:      "27.50",
		},
		{
			name:       "tax disabled ignores rate",
			items:      []LineItem{{Quantity: d("3"), UnitPrice: d("1.99")}},
			taxEnabled: false,
			taxRate:    "0.16",
			discount:   "0",
			subtotal:   "5.97",
			tax:        "0.00",
			grand:      "5.97",
		},
		{
			name:       "discount subtracted",
			items:      []LineItem{{Quantity: d("1"), UnitPrice: d("100.00")}},
			taxEnabled: true,
			taxRate:    "0.0750",
			discount:   "10.00",
			subtotal:   "100.00",
			tax:        "7.50",
			grand:      "97.50",
		},
		{
			name:       "tax rounds half up",
			items:      []LineItem{{Quantity: d("1"), UnitPrice: d("0.05")}},
			taxEnabled: true,
			taxRate:    "0.1",
			discount:   "0",
			subtotal:   "0.05",
			tax:        "0.01",
			grand:      "0.06",
		},
		{
			name:       "fractional quantity",
			items:      []LineItem{{Quantity: d("1.5"), UnitPrice: d("6.67")}},
			taxEnabled: false,
			taxRate:    "0",
			discount:   "0",
			subtotal:   "10.01",
			tax:        "0.00",
			grand:      "10.01",
		},
		{
			name:     "no items",
			taxRate:  "0.2",
			discount: "0",
			subtotal: "0.00",
			tax:      "0.00",
			grand:    "0.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateTotals(tt.items, tt.taxEnabled, d(tt.taxRate), d(tt.discount))
			assert.Equal(t, tt.subtotal, got.Subtotal.StringFixed(2))
			assert.Equal(t, tt.tax, got.TaxAmount.StringFixed(2))
			assert.Equal(t, tt.grand, got.GrandTotal.StringFixed(2))
		})
	}
}

func TestCalculateTotals_TaxDisabledAlwaysZero(t *testing.T) {
	items := []LineItem{
		{Quantity: d("7.125"), UnitPrice: d("13.37")},
		{Quantity: d("0.001"), UnitPrice: d("999.99")},
	}
	for _, rate := range []string{"0", "0.05", "0.5", "1"} {
		got := CalculateTotals(items, false, d(rate), decimal.Zero)
		assert.True(t, got.TaxAmount.IsZero(), "rate %s", rate)
	}
}

func TestCalculateTotals_Deterministic(t *testing.T) {
	items := []LineItem{{Quantity: d("2.333"), UnitPrice: d("4.44")}}
	first := CalculateTotals(items, true, d("0.0825"), d("1.00"))
	second := CalculateTotals(items, true, d("0.0825"), d("1.00"))
	assert.True(t, first.Subtotal.Equal(second.Subtotal))
	assert.True(t, first.TaxAmount.Equal(second.TaxAmount))
	assert.True(t, first.GrandTotal.Equal(second.GrandTotal))
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches(d("27.50"), d("27.50")))
	assert.True(t, Matches(d("10.005"), d("10.01")))
	assert.False(t, Matches(d("27.50"), d("27.49")))
	assert.False(t, Matches(d("25.00"), d("26.00")))
}
