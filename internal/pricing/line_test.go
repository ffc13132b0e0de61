package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "%s: want %s, got %s", field, want, got.String())
}

func TestComputeReferenceLine(t *testing.T) {
	c, err := Compute(d("100"), 2, d("10"), d("18"))
	require.NoError(t, err)

	assertDecimal(t, "200", c.GrossAmount, "gross")
	assertDecimal(t, "20", c.DiscountAmount, "discount")
	assertDecimal(t, "36", c.TaxAmount, "tax")
	assertDecimal(t, "216", c.NetAmount, "net")
}

func TestComputeTaxOnPreDiscountGross(t *testing.T) {
	c, err := Compute(d("50"), 4, d("100"), d("18"))
	require.NoError(t, err)

	assert.True(t, c.DiscountAmount.Equal(c.GrossAmount))
	assertDecimal(t, "36", c.TaxAmount, "tax")
	assertDecimal(t, "36", c.NetAmount, "net")
}

func TestComputeIsPure(t *testing.T) {
	first, err := Compute(d("19.99"), 3, d("7.5"), d("18"))
	require.NoError(t, err)
	second, err := Compute(d("19.99"), 3, d("7.5"), d("18"))
	require.NoError(t, err)

	assert.Equal(t, first.GrossAmount.String(), second.GrossAmount.String())
	assert.Equal(t, first.DiscountAmount.String(), second.DiscountAmount.String())
	assert.Equal(t, first.TaxAmount.String(), second.TaxAmount.String())
	assert.Equal(t, first.NetAmount.String(), second.NetAmount.String())
}

func TestComputeKeepsFullPrecision(t *testing.T) {
	c, err := Compute(d("0.333"), 3, d("12.5"), d("5.5"))
	require.NoError(t, err)

	assertDecimal(t, "0.999", c.GrossAmount, "gross")
	assertDecimal(t, "0.124875", c.DiscountAmount, "discount")
	assertDecimal(t, "0.054945", c.TaxAmount, "tax")
	assertDecimal(t, "0.92907", c.NetAmount, "net")
	assertDecimal(t, "0.93", Round2(c.NetAmount), "rounded net")
}

func TestComputeZeroPriceAllowed(t *testing.T) {
	c, err := Compute(decimal.Zero, 1, decimal.Zero, d("18"))
	require.NoError(t, err)
	assert.True(t, c.NetAmount.IsZero())
}

func TestComputeRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name     string
		price    string
		qty      int
		discount string
		tax      string
		field    string
	}{
		{"negative price", "-1", 1, "0", "18", FieldUnitPrice},
		{"zero quantity", "10", 0, "0", "18", FieldQuantity},
		{"negative quantity", "10", -2, "0", "18", FieldQuantity},
		{"discount below range", "10", 1, "-0.01", "18", FieldDiscountRate},
		{"discount above range", "10", 1, "100.5", "18", FieldDiscountRate},
		{"tax below range", "10", 1, "0", "-5", FieldTaxRate},
		{"tax above range", "10", 1, "0", "101", FieldTaxRate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compute(d(tc.price), tc.qty, d(tc.discount), d(tc.tax))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidLineInput))

			var lineErr *LineInputError
			require.True(t, errors.As(err, &lineErr))
			assert.Equal(t, tc.field, lineErr.Field)
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestComputeLinePassesReferenceThrough(t *testing.T) {
	ref := LineRef{ArticleID: 42, Label: "Ecran 24\"", Characteristic: "IPS", TypeName: "Informatique", CategoryID: 3}
	line, err := ComputeLine(LineItem{Ref: ref, UnitPrice: d("1000"), Quantity: 1, DiscountRate: d("0"), TaxRate: d("18")})
	require.NoError(t, err)

	assert.Equal(t, ref, line.Item.Ref)
	assertDecimal(t, "1180", line.NetAmount, "net")
}

func TestComputeLinesReportsFailingIndex(t *testing.T) {
	items := []LineItem{
		{UnitPrice: d("10"), Quantity: 1, DiscountRate: d("0"), TaxRate: d("18")},
		{UnitPrice: d("10"), Quantity: 0, DiscountRate: d("0"), TaxRate: d("18")},
	}
	lines, idx, err := ComputeLines(items)
	require.ErrorIs(t, err, ErrInvalidLineInput)
	assert.Nil(t, lines)
	assert.Equal(t, 1, idx)

	lines, idx, err = ComputeLines(items[:1])
	require.NoError(t, err)
	assert.Len(t, lines, 1)
	assert.Equal(t, -1, idx)
}
