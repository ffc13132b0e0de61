package pricing

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLineInput reports a price, quantity, discount or tax out of range.
	ErrInvalidLineInput = errors.New("pricing: invalid line input")
	// ErrInvalidDiscount reports a document-level discount outside [0,100].
	ErrInvalidDiscount = errors.New("pricing: global discount out of range")
	// ErrInvalidID reports a document id that cannot be numbered.
	ErrInvalidID = errors.New("pricing: invalid document id")
)

// Field names carried by LineInputError.
const (
	FieldUnitPrice    = "unitPrice"
	FieldQuantity     = "quantity"
	FieldDiscountRate = "discountRate"
	FieldTaxRate      = "taxRate"
)

// LineInputError names the offending field of a rejected line.
type LineInputError struct {
	Field  string
	Reason string
}

func (e *LineInputError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidLineInput.Error(), e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidLineInput.
func (e *LineInputError) Unwrap() error {
	return ErrInvalidLineInput
}

func invalidLine(field, reason string) error {
	return &LineInputError{Field: field, Reason: reason}
}
