package recon

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ucdlib/apfeed/internal/ils"
)

// Namespace is the schema namespace the payment system expects on the
// confirmation document.
const Namespace = "http://com/exlibris/repository/acq/xmlbeans"

// currency of every disbursement the financial system reports.
const currency = "USD"

// Document is the payment confirmation file uploaded back to the library
// system.
type Document struct {
	XMLName xml.Name       `xml:"payment_confirmation_data"`
	Xmlns   string         `xml:"xmlns,attr"`
	Entries []Confirmation `xml:"invoice_list>invoice"`
}

// Confirmation records one invoice paid by the financial system.
type Confirmation struct {
	InvoiceNumber    string        `xml:"invoice_number"`
	UniqueIdentifier string        `xml:"unique_identifier"`
	InvoiceDate      string        `xml:"invoice_date"`
	VendorCode       string        `xml:"vendor_code"`
	PaymentStatus    string        `xml:"payment_status"`
	VoucherDate      string        `xml:"payment_voucher_date"`
	VoucherNumber    string        `xml:"payment_voucher_number"`
	Amount           VoucherAmount `xml:"voucher_amount"`
}

// VoucherAmount is the paid amount with its currency.
type VoucherAmount struct {
	Currency string `xml:"currency"`
	Sum      string `xml:"sum"`
}

// BuildConfirmations turns matched invoices into a confirmation document.
// Matches whose invoice is not in the library system's waiting list are
// skipped; an amount disagreement between the two systems is logged but
// still confirmed, since the money has already moved.
func BuildConfirmations(matches []Match, waiting map[string]ils.Invoice, log *slog.Logger) *Document {
	if log == nil {
		log = slog.Default()
	}
	doc := &Document{Xmlns: Namespace}
	for _, m := range matches {
		inv, ok := waiting[m.InvoiceNumber]
		if !ok {
			log.Warn("paid invoice not in waiting list, skipping confirmation",
				"invoice", m.InvoiceNumber)
			continue
		}
		if !m.Row.Amount.Equal(inv.Total()) {
			log.Warn("paid amount differs from invoice total",
				"invoice", m.InvoiceNumber,
				"paid", m.Row.Amount.String(),
				"invoiced", inv.Total().String())
		}
		doc.Entries = append(doc.Entries, Confirmation{
			InvoiceNumber:    m.InvoiceNumber,
			UniqueIdentifier: inv.ID,
			InvoiceDate:      inv.InvoiceDateWire(),
			VendorCode:       inv.Vendor.Value,
			PaymentStatus:    "PAID",
			VoucherDate:      m.Row.EnteredDate,
			VoucherNumber:    m.Row.CheckNumber,
			Amount: VoucherAmount{
				Currency: currency,
				Sum:      m.Row.Amount.StringFixed(2),
			},
		})
	}
	return doc
}

// Empty reports whether the document confirms anything. Empty documents are
// never written.
func (d *Document) Empty() bool { return len(d.Entries) == 0 }

// WriteFile marshals the document and writes it atomically.
func (d *Document) WriteFile(path string) error {
	body, err := xml.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("recon: marshal confirmation: %w", err)
	}
	data := append([]byte(xml.Header), body...)
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".confirmation-*")
	if err != nil {
		return fmt.Errorf("recon: write confirmation: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("recon: write confirmation: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("recon: write confirmation: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("recon: write confirmation: %w", err)
	}
	return nil
}
