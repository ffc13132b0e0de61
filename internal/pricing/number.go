package pricing

import (
	"fmt"
	"strconv"
	"strings"
)

// InvoicePrefix is prepended to every invoice number.
const InvoicePrefix = "FACT-"

// InvoicePlaceholder is shown when a document id cannot be numbered.
const InvoicePlaceholder = InvoicePrefix + "???"

// FormatInvoiceNumber pads id to at least three digits: 7 -> FACT-007,
// 1042 -> FACT-1042.
func FormatInvoiceNumber(id int64) (string, error) {
	if id <= 0 {
		return "", ErrInvalidID
	}
	return fmt.Sprintf("%s%03d", InvoicePrefix, id), nil
}

// FormatInvoiceNumberString parses raw as a base-10 integer id first.
func FormatInvoiceNumberString(raw string) (string, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return "", ErrInvalidID
	}
	return FormatInvoiceNumber(id)
}

// InvoiceNumberOrPlaceholder never fails; rendering uses it.
func InvoiceNumberOrPlaceholder(raw string) string {
	n, err := FormatInvoiceNumberString(raw)
	if err != nil {
		return InvoicePlaceholder
	}
	return n
}
