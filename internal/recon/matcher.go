// Package recon matches exported feed lines against disbursement rows from
// the financial system and builds the payment confirmation document that is
// sent back to the library system.
package recon

import (
	"log/slog"
	"strings"

	"github.com/ucdlib/apfeed/internal/finance"
)

// Line is one exported feed line awaiting payment, identified by its
// checkpoint key.
type Line struct {
	Key           string
	InvoiceNumber string
}

// PaymentLookup resolves an invoice number to its disbursement rows.
type PaymentLookup interface {
	Payments(invoice string) ([]finance.PaymentRow, bool)
}

// MapLookup adapts a bulk query result to PaymentLookup.
type MapLookup map[string][]finance.PaymentRow

func (m MapLookup) Payments(invoice string) ([]finance.PaymentRow, bool) {
	rows, ok := m[invoice]
	return rows, ok
}

// Match is one invoice whose disbursement was found: every line of the
// invoice is confirmed by the same row.
type Match struct {
	InvoiceNumber string
	Keys          []string
	Row           finance.PaymentRow
}

// Matcher pairs feed lines with disbursement rows.
type Matcher struct {
	lookup PaymentLookup
	log    *slog.Logger
}

func NewMatcher(lookup PaymentLookup, log *slog.Logger) *Matcher {
	if log == nil {
		log = slog.Default()
	}
	return &Matcher{lookup: lookup, log: log}
}

// Match scans the lines, which must be sorted by checkpoint key so that all
// lines of an invoice are consecutive, and resolves each invoice exactly
// once. An invoice with no disbursement row stays unmatched; when the
// financial system holds more than one row for an invoice the first is
// taken and the rest are logged.
func (m *Matcher) Match(lines []Line) []Match {
	var matches []Match
	for i := 0; i < len(lines); {
		invoice := strings.TrimSpace(lines[i].InvoiceNumber)
		j := i
		var keys []string
		for j < len(lines) && strings.TrimSpace(lines[j].InvoiceNumber) == invoice {
			keys = append(keys, lines[j].Key)
			j++
		}
		i = j

		rows, ok := m.lookup.Payments(invoice)
		if !ok || len(rows) == 0 {
			continue
		}
		if len(rows) > 1 {
			m.log.Warn("multiple disbursement rows for invoice, using first",
				"invoice", invoice, "rows", len(rows))
		}
		matches = append(matches, Match{
			InvoiceNumber: invoice,
			Keys:          keys,
			Row:           rows[0],
		})
	}
	return matches
}
