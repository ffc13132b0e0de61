package pricing

import "github.com/shopspring/decimal"

// Aggregate sums computed lines and applies the document-level discount.
// An empty line set is valid and yields zero totals.
func Aggregate(lines []LineComputation, globalDiscountPercent decimal.Decimal) (DocumentTotals, error) {
	if !inPercentRange(globalDiscountPercent) {
		return DocumentTotals{}, ErrInvalidDiscount
	}
	totals := DocumentTotals{
		TotalGross:            decimal.Zero,
		TotalDiscount:         decimal.Zero,
		TotalTax:              decimal.Zero,
		GlobalDiscountPercent: globalDiscountPercent,
	}
	for _, l := range lines {
		totals.TotalGross = totals.TotalGross.Add(l.GrossAmount)
		totals.TotalDiscount = totals.TotalDiscount.Add(l.DiscountAmount)
		totals.TotalTax = totals.TotalTax.Add(l.TaxAmount)
	}
	base := totals.NetBeforeGlobalDiscount()
	totals.GlobalDiscountAmount = percentOf(base, globalDiscountPercent)
	totals.NetPayable = base.Sub(totals.GlobalDiscountAmount).Add(totals.TotalTax)
	return totals, nil
}

// AggregateLines is Aggregate over full lines.
func AggregateLines(lines []Line, globalDiscountPercent decimal.Decimal) (DocumentTotals, error) {
	comps := make([]LineComputation, len(lines))
	for i, l := range lines {
		comps[i] = l.LineComputation
	}
	return Aggregate(comps, globalDiscountPercent)
}
