package recon

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ucdlib/apfeed/internal/finance"
)

type countingLookup struct {
	MapLookup
	calls int
}

func (c *countingLookup) Payments(invoice string) ([]finance.PaymentRow, bool) {
	c.calls++
	return c.MapLookup.Payments(invoice)
}

func TestMatchGroupsConsecutiveLines(t *testing.T) {
	lookup := &countingLookup{MapLookup: MapLookup{
		"0201821": {{InvoiceNumber: "0201821", CheckNumber: "878703", EnteredDate: "20170104"}},
	}}
	m := NewMatcher(lookup, nil)

	matches := m.Match([]Line{
		{Key: "0201821~00018", InvoiceNumber: "0201821"},
		{Key: "0201821~00019", InvoiceNumber: "0201821"},
		{Key: "0201821~00020", InvoiceNumber: "0201821"},
	})

	require.Len(t, matches, 1)
	assert.Equal(t, 1, lookup.calls, "one lookup per invoice group")
	assert.Equal(t, "0201821", matches[0].InvoiceNumber)
	assert.Equal(t, []string{"0201821~00018", "0201821~00019", "0201821~00020"}, matches[0].Keys)
	assert.Equal(t, "878703", matches[0].Row.CheckNumber)
}

func TestMatchSkipsUnpaidInvoices(t *testing.T) {
	lookup := &countingLookup{MapLookup: MapLookup{
		"895350": {{InvoiceNumber: "895350", CheckNumber: "900001"}},
	}}
	m := NewMatcher(lookup, nil)

	matches := m.Match([]Line{
		{Key: "0201821~00018", InvoiceNumber: "0201821"},
		{Key: "895350~00001", InvoiceNumber: "895350"},
		{Key: "895350~00002", InvoiceNumber: "895350"},
	})

	require.Len(t, matches, 1)
	assert.Equal(t, "895350", matches[0].InvoiceNumber)
	assert.Equal(t, 2, lookup.calls)
}

func TestMatchFirstRowWins(t *testing.T) {
	lookup := MapLookup{
		"0201821": {
			{InvoiceNumber: "0201821", CheckNumber: "111111"},
			{InvoiceNumber: "0201821", CheckNumber: "222222"},
		},
	}
	matches := NewMatcher(lookup, nil).Match([]Line{
		{Key: "0201821~00018", InvoiceNumber: "0201821"},
	})

	require.Len(t, matches, 1)
	assert.Equal(t, "111111", matches[0].Row.CheckNumber)
}

func TestMatchTrimsInvoiceNumbers(t *testing.T) {
	lookup := MapLookup{
		"0201821": {{InvoiceNumber: "0201821", Amount: decimal.NewFromInt(42)}},
	}
	matches := NewMatcher(lookup, nil).Match([]Line{
		{Key: "0201821~00018", InvoiceNumber: "0201821        "},
	})
	require.Len(t, matches, 1)
}

func TestMatchEmptyInput(t *testing.T) {
	matches := NewMatcher(MapLookup{}, nil).Match(nil)
	assert.Empty(t, matches)
}
