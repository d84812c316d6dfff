// Package invoice consumes the ILS acquisition export: a nested XML tree of
// invoices produced for the finance interface. The package models the tree
// and flattens it into fixed-width feed records, one per fund allocation.
package invoice

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// Namespace is the export document namespace. Parsing matches local element
// names, so documents with or without the namespace prefix both load.
const Namespace = "http://com/exlibris/repository/acq/invoice/xmlbeans"

// Document is the root of one export file. The root element name varies
// between export profiles; only the invoice_list children matter.
type Document struct {
	XMLName      xml.Name
	InvoiceLists []InvoiceList `xml:"invoice_list"`
}

// InvoiceList groups invoices inside a document.
type InvoiceList struct {
	Invoices []Invoice `xml:"invoice"`
}

// Invoice is one vendor invoice with its line items.
type Invoice struct {
	Number               string         `xml:"invoice_number"`
	Date                 string         `xml:"invoice_date"`
	VendorCode           string         `xml:"vendor_code"`
	VendorAdditionalCode string         `xml:"vendor_additional_code"`
	VATInfo              *VATInfo       `xml:"vat_info"`
	NoteList             *NoteList      `xml:"noteList"`
	OwneredEntity        *OwneredEntity `xml:"owneredEntity"`
	Lines                []Line         `xml:"invoice_line_list>invoice_line"`
}

// Line is one invoice line; its cost may be split across several fund
// allocations, each of which becomes a separate feed record.
type Line struct {
	Number     string      `xml:"line_number"`
	Note       string      `xml:"note"`
	POLineInfo *POLineInfo `xml:"po_line_info"`
	Funds      []FundInfo  `xml:"fund_info_list>fund_info"`
}

// FundInfo is one fund allocation on a line.
type FundInfo struct {
	ExternalID string `xml:"external_id"`
	FundCode   string `xml:"fund_code"`
	Amount     Money  `xml:"amount"`
}

// Money is a currency/sum pair as exported.
type Money struct {
	Currency string `xml:"currency"`
	Sum      string `xml:"sum"`
}

// POLineInfo carries the purchase-order line reference.
type POLineInfo struct {
	POLineNumber string `xml:"po_line_number"`
}

// NoteList holds operator notes attached to an invoice.
type NoteList struct {
	Notes []Note `xml:"note"`
}

// Note is one operator note.
type Note struct {
	Content       string         `xml:"content"`
	OwneredEntity *OwneredEntity `xml:"owneredEntity"`
}

// OwneredEntity carries record-keeping metadata; only the creation date is
// used, as the goods-received date.
type OwneredEntity struct {
	CreationDate string `xml:"creationDate"`
}

// Parse reads one export document.
func Parse(r io.Reader) (*Document, error) {
	var doc Document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("invoice: parse export: %w", err)
	}
	return &doc, nil
}

// ParseFile reads one export document from disk.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("invoice: open %s: %w", path, err)
	}
	defer f.Close()
	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("invoice: %s: %w", path, err)
	}
	return doc, nil
}

// Invoices flattens all invoice lists in document order.
func (d *Document) Invoices() []Invoice {
	var out []Invoice
	for _, l := range d.InvoiceLists {
		out = append(out, l.Invoices...)
	}
	return out
}

// GoodsReceivedDate resolves the goods-received date with the documented
// fallback chain: the creation date of the first note when a note list is
// present, else the invoice's own creation date, else blank. Absence never
// fails, it only yields blank.
func (inv *Invoice) GoodsReceivedDate() string {
	if inv.NoteList != nil && len(inv.NoteList.Notes) > 0 {
		if oe := inv.NoteList.Notes[0].OwneredEntity; oe != nil && oe.CreationDate != "" {
			return oe.CreationDate
		}
	}
	if inv.OwneredEntity != nil {
		return inv.OwneredEntity.CreationDate
	}
	return ""
}

// VATAmount returns the invoice VAT amount, blank when absent.
func (inv *Invoice) VATAmount() string {
	if inv.VATInfo == nil {
		return ""
	}
	return inv.VATInfo.VATAmount
}

// VATInfo carries the invoice-level VAT summary.
type VATInfo struct {
	VATAmount string `xml:"vat_amount"`
}

// AccountCode resolves the accounting destination for a fund allocation:
// the fund's external finance-system id when present, else the fund code,
// else blank.
func (f *FundInfo) AccountCode() string {
	if strings.TrimSpace(f.ExternalID) != "" {
		return f.ExternalID
	}
	return f.FundCode
}
