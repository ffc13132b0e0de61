package pricing

import "github.com/shopspring/decimal"

// Compute derives the amounts of a single line.
//
// Tax is charged on the gross amount before the line discount, so a line with
// a 100% discount still carries its full tax.
func Compute(unitPrice decimal.Decimal, quantity int, discountRate, taxRate decimal.Decimal) (LineComputation, error) {
	if unitPrice.IsNegative() {
		return LineComputation{}, invalidLine(FieldUnitPrice, "must not be negative")
	}
	if quantity < 1 {
		return LineComputation{}, invalidLine(FieldQuantity, "must be at least 1")
	}
	if !inPercentRange(discountRate) {
		return LineComputation{}, invalidLine(FieldDiscountRate, "must be between 0 and 100")
	}
	if !inPercentRange(taxRate) {
		return LineComputation{}, invalidLine(FieldTaxRate, "must be between 0 and 100")
	}

	gross := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	discount := percentOf(gross, discountRate)
	tax := percentOf(gross, taxRate)
	return LineComputation{
		GrossAmount:    gross,
		DiscountAmount: discount,
		TaxAmount:      tax,
		NetAmount:      gross.Sub(discount).Add(tax),
	}, nil
}

// ComputeLine computes item and carries its reference through untouched.
func ComputeLine(item LineItem) (Line, error) {
	c, err := Compute(item.UnitPrice, item.Quantity, item.DiscountRate, item.TaxRate)
	if err != nil {
		return Line{}, err
	}
	return Line{Item: item, LineComputation: c}, nil
}

// ComputeLines computes every item, stopping at the first invalid one. The
// returned index is the position of the failing item, or -1.
func ComputeLines(items []LineItem) ([]Line, int, error) {
	lines := make([]Line, 0, len(items))
	for i, item := range items {
		line, err := ComputeLine(item)
		if err != nil {
			return nil, i, err
		}
		lines = append(lines, line)
	}
	return lines, -1, nil
}
