package invoice

// extract.go flattens export documents into feed records. One record per
// fund allocation; one document sequence number per invoice; header and
// trailer are the file writer's job, not the extractor's.

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ucdlib/apfeed/internal/feed"
	"github.com/ucdlib/apfeed/internal/sequence"
)

// Note tokens recognized on invoices and lines. Operators use these to
// steer tax and attachment handling per invoice.
const (
	noteUseTax     = "UTAX"
	noteNoUseTax   = "NUTAX"
	noteAttach     = "ATTACH"
	noteAttachment = "ATTACHMENT"
	noteAttachTax  = "ATAX"
)

// Profile carries the feed constants stamped onto every record. Values come
// from configuration, never from the export document.
type Profile struct {
	FeedName     string
	ChartCode    string
	ObjectCode   string
	ShipState    string
	ShipZip      string
	PaymentGroup string

	// Strict enables validating formatters; malformed dates and amounts
	// then skip the record instead of degrading to blank/zero.
	Strict bool
}

// Extractor turns export documents into feed records for a single run. All
// records of a run share one batch ID; each invoice consumes one document
// sequence number.
type Extractor struct {
	profile Profile
	counter *sequence.Counter
	now     time.Time
	batchID string
	log     *slog.Logger

	// Skipped counts records dropped for malformed fields, future-dated
	// invoices included. Reported in the run summary.
	Skipped int
}

// NewExtractor builds an extractor for one run. now fixes the batch ID and
// the scheduled payment date for every record of the run.
func NewExtractor(p Profile, counter *sequence.Counter, now time.Time, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{
		profile: p,
		counter: counter,
		now:     now,
		batchID: feed.BatchIDFor(now),
		log:     log,
	}
}

// BatchID returns the batch token shared by the run's records.
func (e *Extractor) BatchID() string { return e.batchID }

// Extract walks a document and returns one record per fund allocation.
// Future-dated invoices are skipped with a warning. Individual malformed
// lines are logged and skipped; only counter persistence failures abort.
func (e *Extractor) Extract(doc *Document) ([]feed.Record, error) {
	var out []feed.Record
	for _, inv := range doc.Invoices() {
		if e.isFutureDated(&inv) {
			e.log.Warn("skipping future-dated invoice",
				"invoice", inv.Number, "invoice_date", inv.Date)
			e.Skipped++
			continue
		}

		seq, err := e.counter.Next()
		if err != nil {
			return nil, fmt.Errorf("invoice %s: %w", inv.Number, err)
		}

		recs, err := e.extractInvoice(&inv, seq)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

// isFutureDated reports whether the invoice date parses and lies after the
// run time. Unparseable dates are not treated as future; they degrade to
// blank downstream.
func (e *Extractor) isFutureDated(inv *Invoice) bool {
	for _, layout := range []string{"01/02/2006", "1/2/2006"} {
		if t, err := time.Parse(layout, strings.TrimSpace(inv.Date)); err == nil {
			return t.After(e.now)
		}
	}
	return false
}

func (e *Extractor) extractInvoice(inv *Invoice, seq int64) ([]feed.Record, error) {
	invTax, attach := e.invoiceNoteFlags(inv)

	baseTax := feed.VATTaxCode(inv.VATAmount())
	if invTax {
		baseTax = feed.TaxCodeUseTax
	}

	var out []feed.Record
	for _, line := range inv.Lines {
		tax := baseTax
		switch strings.ToUpper(strings.TrimSpace(line.Note)) {
		case noteUseTax:
			tax = feed.TaxCodeUseTax
		case noteNoUseTax:
			tax = feed.VATTaxCode(inv.VATAmount())
		}

		for _, fund := range line.Funds {
			rec, err := e.buildRecord(inv, &line, &fund, seq, tax, attach)
			if err != nil {
				e.log.Warn("skipping malformed invoice line",
					"invoice", inv.Number, "line", line.Number, "error", err)
				e.Skipped++
				continue
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

// invoiceNoteFlags scans invoice-level notes for tax and attachment
// overrides: UTAX forces use tax, ATAX forces use tax and an attachment,
// ATTACH/ATTACHMENT forces an attachment, NUTAX suppresses a use-tax
// override set by an earlier note.
func (e *Extractor) invoiceNoteFlags(inv *Invoice) (useTax, attach bool) {
	if inv.NoteList == nil {
		return false, false
	}
	for _, n := range inv.NoteList.Notes {
		switch strings.ToUpper(strings.TrimSpace(n.Content)) {
		case noteUseTax:
			useTax = true
		case noteAttachTax:
			useTax = true
			attach = true
		case noteAttach, noteAttachment:
			attach = true
		case noteNoUseTax:
			useTax = false
		}
	}
	return useTax, attach
}

func (e *Extractor) buildRecord(inv *Invoice, line *Line, fund *FundInfo, seq int64, tax string, attach bool) (feed.Record, error) {
	invDate := feed.Date(inv.Date)
	amount := feed.Amount(fund.Amount.Sum)
	if e.profile.Strict {
		var err error
		if invDate, err = feed.DateStrict(inv.Date); err != nil {
			return nil, err
		}
		if amount, err = feed.AmountStrict(fund.Amount.Sum); err != nil {
			return nil, err
		}
	}

	vendor := strings.TrimSpace(inv.VendorAdditionalCode)
	attachInd := feed.AttachmentNo
	if attach {
		attachInd = feed.AttachmentYes
	}

	rec := feed.Record{
		feed.FeedName:           feed.Text(e.profile.FeedName, 15),
		feed.BatchID:            e.batchID,
		feed.OrgDocNumber:       feed.NumberInt(seq, 7),
		feed.EmployeeInd:        feed.EmployeeIndValue,
		feed.VendorNumber:       feed.Text(vendor, 10),
		feed.VendorInvoiceNbr:   feed.Text(inv.Number, 15),
		feed.VendorInvoiceDate:  invDate,
		feed.AddrSelectVendor:   feed.Text(strings.ReplaceAll(vendor, " ", ""), 10),
		feed.VendorAddrTypeCode: addrTypeCode(vendor),
		feed.RemitName:          feed.Blank(40),
		feed.RemitAddr1:         feed.Blank(40),
		feed.RemitAddr2:         feed.Blank(40),
		feed.RemitAddr3:         feed.Blank(40),
		feed.RemitCity:          feed.Blank(40),
		feed.RemitState:         feed.Blank(2),
		feed.RemitZip:           feed.Blank(11),
		feed.RemitCountry:       feed.Blank(2),
		feed.VendorStateResInd:  feed.Blank(1),
		feed.InvReceivedDate:    feed.Blank(8),
		feed.GoodsReceivedDate:  feed.RawDate(inv.GoodsReceivedDate()),
		feed.ShipZip:            feed.Text(e.profile.ShipZip, 11),
		feed.ShipState:          feed.Text(e.profile.ShipState, 2),
		feed.PaymentGroupCode:   feed.Text(e.profile.PaymentGroup, 2),
		feed.InvFOBCode:         feed.Blank(2),
		feed.DiscountTermCode:   feed.Blank(2),
		feed.ScheduledPmtDate:   feed.WireDate(e.now),
		feed.NonCheckInd:        feed.NonCheckIndValue,
		feed.AttachmentReqInd:   attachInd,
		feed.PaymentLineNbr:     feed.Number(line.Number, 5),
		feed.ChartCode:          feed.Text(e.profile.ChartCode, 2),
		feed.AccountNumber:      feed.Text(fund.AccountCode(), 7),
		feed.SubAccountNumber:   feed.Blank(5),
		feed.ObjectCode:         feed.Text(e.profile.ObjectCode, 4),
		feed.SubObjectCode:      feed.Blank(3),
		feed.ProjectCode:        feed.Blank(10),
		feed.ReferenceID:        referenceID(line.POLineInfo),
		feed.TaxCode:            tax,
		feed.PaymentAmount:      amount,
		feed.ApplyDiscountInd:   feed.ApplyDiscValue,
		feed.EFTOverrideInd:     feed.EFTOverrideValue,
		feed.PurposeDescription: feed.Blank(120),
	}
	return rec, nil
}

// addrTypeCode is the last four characters of the trimmed vendor code,
// space-padded. Vendor codes carry the address type as a suffix.
func addrTypeCode(vendor string) string {
	if len(vendor) > 4 {
		vendor = vendor[len(vendor)-4:]
	}
	return feed.Text(vendor, 4)
}

// referenceID derives ORG_REFERENCE_ID from the purchase-order line number:
// the part before the first '-' with a '}' continuation mark appended, or
// the whole trimmed value when no separator is present. Missing PO info
// yields blank.
func referenceID(po *POLineInfo) string {
	if po == nil {
		return feed.Blank(8)
	}
	n := strings.TrimSpace(po.POLineNumber)
	if n == "" {
		return feed.Blank(8)
	}
	if idx := strings.Index(n, "-"); idx >= 0 {
		n = n[:idx] + "}"
	}
	return feed.Text(n, 8)
}
