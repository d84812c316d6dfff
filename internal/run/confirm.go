package run

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/ucdlib/apfeed/internal/checkpoint"
	"github.com/ucdlib/apfeed/internal/feed"
	"github.com/ucdlib/apfeed/internal/finance"
	"github.com/ucdlib/apfeed/internal/ils"
	"github.com/ucdlib/apfeed/internal/logging"
	"github.com/ucdlib/apfeed/internal/recon"
)

// InvoiceSource lists the invoices the library system is waiting to see
// paid.
type InvoiceSource interface {
	WaitingInvoices(ctx context.Context) ([]ils.Invoice, error)
}

// ConfirmPipeline matches exported lines against disbursements and reports
// paid invoices back to the library system.
type ConfirmPipeline struct {
	Invoices InvoiceSource
	Payments finance.RowSource

	// StatePath is the invoice log maintained by export runs.
	StatePath string

	// OutDir receives the confirmation XML file.
	OutDir string

	// Now stands in for time.Now in tests.
	Now func() time.Time

	Log *slog.Logger
}

// ConfirmSummary reports what one confirmation run did.
type ConfirmSummary struct {
	RunID     string
	Waiting   int // invoices the library system lists as unpaid
	Unpaid    int // feed lines still awaiting payment before the run
	Confirmed int
	File      string // empty when nothing was confirmed
}

// Run looks up every invoice still unpaid in the invoice log, marks those
// the financial system has disbursed, and writes a confirmation file when
// at least one invoice was confirmed.
func (p *ConfirmPipeline) Run(ctx context.Context) (*ConfirmSummary, error) {
	log := p.Log
	var runID string
	if log == nil {
		log, runID = logging.WithRun("confirm")
	}
	summary := &ConfirmSummary{RunID: runID}

	waiting, err := p.Invoices.WaitingInvoices(ctx)
	if err != nil {
		return nil, err
	}
	summary.Waiting = len(waiting)
	waitingByNumber := make(map[string]ils.Invoice, len(waiting))
	for _, inv := range waiting {
		waitingByNumber[inv.Number] = inv
	}

	state, err := checkpoint.Load(p.StatePath, log)
	if err != nil {
		return nil, err
	}

	var lines []recon.Line
	var invoiceNumbers []string
	seen := make(map[string]bool)
	for _, key := range state.Keys() {
		entry, _ := state.Get(key)
		if entry.Paid {
			continue
		}
		number := entry.Record.InvoiceNumber()
		lines = append(lines, recon.Line{Key: key, InvoiceNumber: number})
		if !seen[number] {
			seen[number] = true
			invoiceNumbers = append(invoiceNumbers, number)
		}
	}
	summary.Unpaid = len(lines)
	if len(lines) == 0 {
		log.Info("no unpaid feed lines, nothing to confirm")
		return summary, nil
	}

	rows, err := p.Payments.PaymentsByInvoice(ctx, invoiceNumbers)
	if err != nil {
		return nil, err
	}

	matches := recon.NewMatcher(recon.MapLookup(rows), log).Match(lines)
	doc := recon.BuildConfirmations(matches, waitingByNumber, log)
	summary.Confirmed = len(doc.Entries)

	if !doc.Empty() {
		now := time.Now()
		if p.Now != nil {
			now = p.Now()
		}
		path := filepath.Join(p.OutDir, feed.BatchIDFor(now)+".input.xml")
		if err := doc.WriteFile(path); err != nil {
			return nil, err
		}
		summary.File = path
	}

	// The disbursement happened whether or not the library system still
	// lists the invoice, so every match leaves the unpaid set.
	for _, m := range matches {
		for _, key := range m.Keys {
			state.MarkPaid(key)
		}
	}
	if len(matches) > 0 {
		if err := state.Save(); err != nil {
			return nil, err
		}
	}

	log.Info("confirmation finished",
		"waiting", summary.Waiting,
		"unpaid_lines", summary.Unpaid,
		"confirmed", summary.Confirmed)
	return summary, nil
}
