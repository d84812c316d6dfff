package feed

// format.go provides the per-field normalization rules for the wire format.
//
// Every formatter returns a value of exactly the requested width:
//   - text fields trim, right-pad with spaces, and truncate on the right
//   - numeric fields left-pad with zeros and keep the rightmost digits
//   - dates reformat MM/DD/YYYY to YYYYMMDD; blank stays blank (spaces),
//     never a zero date
//   - currency is scaled to cents with no decimal point; a leading '-'
//     consumes one digit position
//
// The plain functions mirror the legacy feed's tolerance: malformed input
// degrades to blank or zero. The *Strict variants return ErrInvalidDate /
// ErrInvalidAmount for callers that need validation instead of coercion.

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Fixed single-character indicators. These are constants of the current
// feed rules, not derived from invoice data.
const (
	EmployeeIndValue  = "N"
	NonCheckIndValue  = "N"
	ApplyDiscValue    = "N"
	EFTOverrideValue  = "N"
	AttachmentNo      = "N"
	AttachmentYes     = "Y"
	TaxCodeNone       = "0"
	TaxCodeVAT        = "A"
	TaxCodeUseTax     = "C"
	PaymentGroupValue = "2"
)

// Accepted input layouts for invoice dates. The export job emits
// MM/DD/YYYY but is not consistent about zero padding.
var invoiceDateLayouts = []string{"01/02/2006", "1/2/2006"}

// wireDateLayout is the on-the-wire date form.
const wireDateLayout = "20060102"

// Text trims the input, truncates it to width, and right-pads with spaces.
// Absent or blank input yields width spaces.
func Text(s string, width int) string {
	s = strings.TrimSpace(s)
	if len(s) > width {
		s = s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

// Number right-justifies the trimmed input in a zero-padded field. Input
// longer than the field keeps the rightmost width characters, matching the
// legacy rule for sequence and line numbers.
func Number(s string, width int) string {
	s = strings.TrimSpace(s)
	out := strings.Repeat("0", width) + s
	return out[len(out)-width:]
}

// NumberInt formats an integer the way Number formats strings.
func NumberInt(n int64, width int) string {
	return Number(fmt.Sprintf("%d", n), width)
}

// Date reformats an MM/DD/YYYY-style date to YYYYMMDD. Blank input yields
// eight spaces, preserving the wire distinction between "no date" and a
// zero date. Unparseable input also degrades to blank.
func Date(s string) string {
	out, err := DateStrict(s)
	if err != nil {
		return strings.Repeat(" ", 8)
	}
	return out
}

// DateStrict is Date with validation: blank input still yields spaces, but
// unparseable input returns ErrInvalidDate.
func DateStrict(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return strings.Repeat(" ", 8), nil
	}
	for _, layout := range invoiceDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(wireDateLayout), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// RawDate passes through an already-wire-form date, truncated or padded to
// eight characters. Used for dates the export job supplies preformatted,
// such as record creation dates.
func RawDate(s string) string {
	return Text(s, 8)
}

// WireDate formats a time in wire form.
func WireDate(t time.Time) string {
	return t.Format(wireDateLayout)
}

// Amount converts a decimal currency string to signed cents, zero-padded to
// twelve characters. The minus sign of a negative amount occupies the first
// position, leaving eleven digit positions. Blank or malformed input is
// treated as zero.
func Amount(s string) string {
	out, err := AmountStrict(s)
	if err != nil {
		return strings.Repeat("0", 12)
	}
	return out
}

// AmountStrict is Amount with validation; malformed input returns
// ErrInvalidAmount instead of zero.
func AmountStrict(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return strings.Repeat("0", 12), nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return AmountCents(d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()), nil
}

// AmountCents formats a signed cents value into the twelve-character wire
// field.
func AmountCents(cents int64) string {
	if cents < 0 {
		return fmt.Sprintf("-%011d", -cents)
	}
	return fmt.Sprintf("%012d", cents)
}

// VATTaxCode derives the tax code from a VAT amount: 'A' when VAT was
// charged, '0' otherwise. Blank or malformed VAT is treated as zero.
// Use-tax note overrides to 'C' are applied by the extractor, not here.
func VATTaxCode(vatAmount string) string {
	vatAmount = strings.TrimSpace(vatAmount)
	if vatAmount == "" {
		return TaxCodeNone
	}
	d, err := decimal.NewFromString(vatAmount)
	if err != nil {
		return TaxCodeNone
	}
	if d.IsPositive() {
		return TaxCodeVAT
	}
	return TaxCodeNone
}

// RecordCount formats the trailer record count, six characters zero-padded.
func RecordCount(n int) string {
	return NumberInt(int64(n), 6)
}

// Blank returns width spaces. Used for the remit-address block and other
// fields this feed never populates.
func Blank(width int) string {
	return strings.Repeat(" ", width)
}
