package feed

import "errors"

// Error taxonomy for the codec and the strict formatters. The lenient
// formatting path never returns these; extraction callers that want legacy
// blank/zero degradation use the non-Strict functions instead.
var (
	// ErrTruncatedRecord is returned by Decode when a line is shorter than
	// the layout requires.
	ErrTruncatedRecord = errors.New("feed: truncated record")

	// ErrFieldWidth is returned by Encode when a record value does not match
	// its declared field width. Formatters always produce exact widths, so
	// hitting this means a record was built by hand incorrectly.
	ErrFieldWidth = errors.New("feed: field width mismatch")

	// ErrInvalidDate is returned by the strict date formatter.
	ErrInvalidDate = errors.New("feed: invalid date")

	// ErrInvalidAmount is returned by the strict amount formatter.
	ErrInvalidAmount = errors.New("feed: invalid amount")
)
