package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateEmpty(t *testing.T) {
	for _, pct := range []string{"0", "10", "100"} {
		totals, err := Aggregate(nil, d(pct))
		require.NoError(t, err)
		assert.True(t, totals.NetPayable.IsZero())
		assert.True(t, totals.TotalGross.IsZero())
		assert.True(t, totals.GlobalDiscountAmount.IsZero())
	}
}

func TestAggregateGlobalDiscount(t *testing.T) {
	c, err := Compute(d("100"), 2, d("10"), d("18"))
	require.NoError(t, err)

	totals, err := Aggregate([]LineComputation{c}, d("10"))
	require.NoError(t, err)

	assertDecimal(t, "200", totals.TotalGross, "gross")
	assertDecimal(t, "20", totals.TotalDiscount, "discount")
	assertDecimal(t, "36", totals.TotalTax, "tax")
	assertDecimal(t, "18", totals.GlobalDiscountAmount, "global discount")
	assertDecimal(t, "198", totals.NetPayable, "net payable")
	assertDecimal(t, "180", totals.NetBeforeGlobalDiscount(), "net before global")
}

func TestAggregateRejectsDiscountOutOfRange(t *testing.T) {
	for _, pct := range []string{"-1", "100.01", "250"} {
		_, err := Aggregate(nil, d(pct))
		assert.ErrorIs(t, err, ErrInvalidDiscount, pct)
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	inputs := [][4]string{
		{"12.5", "3", "5", "18"},
		{"1000", "1", "0", "0"},
		{"0.99", "7", "33.3", "9"},
		{"250", "2", "100", "18"},
	}
	var lines []LineComputation
	for _, in := range inputs {
		qty := int(d(in[1]).IntPart())
		c, err := Compute(d(in[0]), qty, d(in[2]), d(in[3]))
		require.NoError(t, err)
		lines = append(lines, c)
	}

	reference, err := Aggregate(lines, d("7.5"))
	require.NoError(t, err)

	permutations := [][]int{{3, 2, 1, 0}, {1, 3, 0, 2}, {2, 0, 3, 1}}
	for _, perm := range permutations {
		shuffled := make([]LineComputation, len(lines))
		for i, p := range perm {
			shuffled[i] = lines[p]
		}
		got, err := Aggregate(shuffled, d("7.5"))
		require.NoError(t, err)
		assert.True(t, reference.TotalGross.Equal(got.TotalGross))
		assert.True(t, reference.TotalDiscount.Equal(got.TotalDiscount))
		assert.True(t, reference.TotalTax.Equal(got.TotalTax))
		assert.True(t, reference.GlobalDiscountAmount.Equal(got.GlobalDiscountAmount))
		assert.True(t, reference.NetPayable.Equal(got.NetPayable))
	}
}

func TestAggregateLinesMatchesAggregate(t *testing.T) {
	line, err := ComputeLine(LineItem{UnitPrice: d("40"), Quantity: 5, DiscountRate: d("5"), TaxRate: d("18")})
	require.NoError(t, err)

	a, err := AggregateLines([]Line{line}, decimal.Zero)
	require.NoError(t, err)
	b, err := Aggregate([]LineComputation{line.LineComputation}, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, a.NetPayable.Equal(b.NetPayable))
	assertDecimal(t, "226", a.NetPayable, "net payable")
}
