package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatInvoiceNumber(t *testing.T) {
	cases := map[int64]string{
		1:    "FACT-001",
		7:    "FACT-007",
		42:   "FACT-042",
		999:  "FACT-999",
		1042: "FACT-1042",
	}
	for id, want := range cases {
		got, err := FormatInvoiceNumber(id)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestFormatInvoiceNumberRejectsNonPositive(t *testing.T) {
	for _, id := range []int64{0, -3} {
		_, err := FormatInvoiceNumber(id)
		assert.ErrorIs(t, err, ErrInvalidID)
	}
}

func TestFormatInvoiceNumberString(t *testing.T) {
	got, err := FormatInvoiceNumberString(" 7 ")
	require.NoError(t, err)
	assert.Equal(t, "FACT-007", got)

	for _, raw := range []string{"", "abc", "7.5", "0", "-3"} {
		_, err := FormatInvoiceNumberString(raw)
		assert.ErrorIs(t, err, ErrInvalidID, raw)
	}
}

func TestInvoiceNumberOrPlaceholder(t *testing.T) {
	assert.Equal(t, "FACT-012", InvoiceNumberOrPlaceholder("12"))
	assert.Equal(t, InvoicePlaceholder, InvoiceNumberOrPlaceholder("x"))
}
