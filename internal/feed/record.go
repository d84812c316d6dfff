package feed

import "strings"

// Record holds one data record as formatted, exact-width field values keyed
// by field name. Records serialize directly into the JSON checkpoint log,
// so the keys are the wire field names.
type Record map[string]string

// KeySeparator joins the invoice number and line number into the composite
// line identifier used by the checkpoint store.
const KeySeparator = "~"

// Key returns the composite line identifier for the record: the trimmed
// vendor invoice number and the zero-padded payment line number. Unique per
// accounting line across runs.
func (r Record) Key() string {
	return strings.TrimSpace(r[VendorInvoiceNbr]) + KeySeparator + r[PaymentLineNbr]
}

// InvoiceNumber returns the trimmed vendor invoice number.
func (r Record) InvoiceNumber() string {
	return strings.TrimSpace(r[VendorInvoiceNbr])
}

// VendorID returns the trimmed vendor number.
func (r Record) VendorID() string {
	return strings.TrimSpace(r[VendorNumber])
}

// Clone returns a copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
