package run

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ucdlib/apfeed/internal/checkpoint"
	"github.com/ucdlib/apfeed/internal/feed"
	"github.com/ucdlib/apfeed/internal/finance"
	"github.com/ucdlib/apfeed/internal/ils"
	"github.com/ucdlib/apfeed/internal/recon"
)

type stubInvoices struct {
	invoices []ils.Invoice
	err      error
}

func (s stubInvoices) WaitingInvoices(ctx context.Context) ([]ils.Invoice, error) {
	return s.invoices, s.err
}

type stubPayments struct {
	rows  map[string][]finance.PaymentRow
	err   error
	asked []string
}

func (s *stubPayments) PaymentsByInvoice(ctx context.Context, invoiceNumbers []string) (map[string][]finance.PaymentRow, error) {
	s.asked = invoiceNumbers
	return s.rows, s.err
}

func waiting(number, id, total string) ils.Invoice {
	var inv ils.Invoice
	inv.Number = number
	inv.ID = id
	inv.InvoiceDate = "2016-11-25Z"
	inv.Vendor = ils.Vendor{Value: "UCD0413"}
	inv.TotalAmount = json.Number(total)
	return inv
}

// seedState writes an invoice log with unpaid lines for the given
// invoice/line pairs.
func seedState(t *testing.T, path string, pairs map[string][]string) {
	t.Helper()
	state, err := checkpoint.Load(path, slog.Default())
	require.NoError(t, err)

	var records []feed.Record
	for invoice, lineNumbers := range pairs {
		for _, line := range lineNumbers {
			rec := feed.Record{
				feed.VendorInvoiceNbr: feed.Text(invoice, 15),
				feed.PaymentLineNbr:   line,
			}
			records = append(records, rec)
		}
	}
	state.Merge(records)
	require.NoError(t, state.Save())
}

func newConfirmPipeline(t *testing.T, inv InvoiceSource, pay finance.RowSource) (*ConfirmPipeline, string) {
	t.Helper()
	root := t.TempDir()
	out := filepath.Join(root, "out")
	require.NoError(t, os.MkdirAll(out, 0o755))
	return &ConfirmPipeline{
		Invoices:  inv,
		Payments:  pay,
		StatePath: filepath.Join(root, "invoices.log"),
		OutDir:    out,
		Now:       func() time.Time { return time.Date(2017, 1, 5, 8, 0, 0, 0, time.UTC) },
		Log:       slog.Default(),
	}, out
}

func TestConfirmRun(t *testing.T) {
	payments := &stubPayments{rows: map[string][]finance.PaymentRow{
		"0201821": {{
			InvoiceNumber: "0201821",
			CheckNumber:   "878703",
			EnteredDate:   "20170104",
			Amount:        decimal.RequireFromString("29.50"),
		}},
	}}
	p, _ := newConfirmPipeline(t,
		stubInvoices{invoices: []ils.Invoice{waiting("0201821", "5613731220004451", "29.50")}},
		payments)
	seedState(t, p.StatePath, map[string][]string{
		"0201821": {"00018", "00019"},
		"895350":  {"00001"},
	})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Waiting)
	assert.Equal(t, 3, summary.Unpaid)
	assert.Equal(t, 1, summary.Confirmed)
	require.NotEmpty(t, summary.File)
	assert.Equal(t, "20170105080000.input.xml", filepath.Base(summary.File))
	assert.ElementsMatch(t, []string{"0201821", "895350"}, payments.asked)

	data, err := os.ReadFile(summary.File)
	require.NoError(t, err)
	var doc recon.Document
	require.NoError(t, xml.Unmarshal(data, &doc))
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, "0201821", doc.Entries[0].InvoiceNumber)
	assert.Equal(t, "878703", doc.Entries[0].VoucherNumber)
	assert.Equal(t, "PAID", doc.Entries[0].PaymentStatus)

	// Both lines of the paid invoice left the unpaid set; the unmatched
	// invoice stays.
	state, err := checkpoint.Load(p.StatePath, nil)
	require.NoError(t, err)
	unpaid := state.UnpaidByInvoice()
	assert.Len(t, unpaid, 1)
}

func TestConfirmRunNothingUnpaid(t *testing.T) {
	p, out := newConfirmPipeline(t, stubInvoices{}, &stubPayments{})
	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Confirmed)
	assert.Empty(t, summary.File)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries, "no confirmation file when nothing confirmed")
}

func TestConfirmRunListingFailureAborts(t *testing.T) {
	p, _ := newConfirmPipeline(t, stubInvoices{err: ils.ErrPageFetch}, &stubPayments{})
	seedState(t, p.StatePath, map[string][]string{"0201821": {"00018"}})

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, ils.ErrPageFetch)
}

func TestConfirmRunPaidButNotWaiting(t *testing.T) {
	// Disbursed invoice the library system no longer lists: no
	// confirmation entry, but it still leaves the unpaid set.
	payments := &stubPayments{rows: map[string][]finance.PaymentRow{
		"895350": {{InvoiceNumber: "895350", CheckNumber: "900100", EnteredDate: "20170103"}},
	}}
	p, _ := newConfirmPipeline(t, stubInvoices{}, payments)
	seedState(t, p.StatePath, map[string][]string{"895350": {"00001"}})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Confirmed)
	assert.Empty(t, summary.File)

	state, err := checkpoint.Load(p.StatePath, nil)
	require.NoError(t, err)
	assert.Empty(t, state.UnpaidByInvoice())
}
