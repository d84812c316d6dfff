// Package finance reads disbursement rows from the campus financial
// system's reporting database. Rows are keyed by the vendor-assigned
// invoice number that the export feed carried, so a confirmation run can
// look up every invoice it is still waiting on in one query.
package finance

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PaymentRow is one disbursement line as recorded by the financial system.
type PaymentRow struct {
	DocNumber     string
	DocType       string
	VendorID      string
	VendorName    string
	InvoiceNumber string
	CheckNumber   string
	Amount        decimal.Decimal
	EnteredDate   string // YYYYMMDD
}

// RowSource looks up disbursement rows for a batch of invoice numbers.
// Implementations return a map keyed by the invoice number as stored in the
// financial system, each holding that invoice's rows in entry order.
type RowSource interface {
	PaymentsByInvoice(ctx context.Context, invoiceNumbers []string) (map[string][]PaymentRow, error)
}

// DBSource is a RowSource backed by the reporting database.
type DBSource struct {
	pool *pgxpool.Pool
}

// NewDBSource wraps an existing connection pool.
func NewDBSource(pool *pgxpool.Pool) *DBSource {
	return &DBSource{pool: pool}
}

const paymentsQuery = `
SELECT doc_number, doc_type, vendor_id, vendor_name,
       invoice_number, check_number, amount, entered_date
FROM ap_disbursements
WHERE invoice_number = ANY($1)
ORDER BY invoice_number, entered_date`

// PaymentsByInvoice fetches every disbursement row whose invoice number is
// in the given set. Invoice numbers with no rows are simply absent from the
// result.
func (s *DBSource) PaymentsByInvoice(ctx context.Context, invoiceNumbers []string) (map[string][]PaymentRow, error) {
	if len(invoiceNumbers) == 0 {
		return map[string][]PaymentRow{}, nil
	}

	rows, err := s.pool.Query(ctx, paymentsQuery, invoiceNumbers)
	if err != nil {
		return nil, fmt.Errorf("finance: query disbursements: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]PaymentRow)
	for rows.Next() {
		var (
			docNumber   pgtype.Text
			docType     pgtype.Text
			vendorID    pgtype.Text
			vendorName  pgtype.Text
			invoiceNbr  pgtype.Text
			checkNumber pgtype.Text
			amount      pgtype.Numeric
			enteredDate pgtype.Date
		)
		if err := rows.Scan(&docNumber, &docType, &vendorID, &vendorName,
			&invoiceNbr, &checkNumber, &amount, &enteredDate); err != nil {
			return nil, fmt.Errorf("finance: scan disbursement row: %w", err)
		}

		row := PaymentRow{
			DocNumber:     docNumber.String,
			DocType:       docType.String,
			VendorID:      vendorID.String,
			VendorName:    vendorName.String,
			InvoiceNumber: invoiceNbr.String,
			CheckNumber:   strings.TrimSpace(checkNumber.String),
			Amount:        numericToDecimal(amount),
		}
		if enteredDate.Valid {
			row.EnteredDate = enteredDate.Time.Format("20060102")
		}
		key := strings.TrimSpace(row.InvoiceNumber)
		out[key] = append(out[key], row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("finance: read disbursement rows: %w", err)
	}
	return out, nil
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
