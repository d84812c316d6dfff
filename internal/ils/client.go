// Package ils is the client for the library system's acquisitions REST API.
// The only call this pipeline needs is the "invoices waiting for payment"
// listing, which the API caps at a fixed page size; the client fans the
// remaining pages out concurrently and fails the whole listing if any page
// fails, so a confirmation run never silently works from a partial set.
package ils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ErrPageFetch marks a failed page of the paginated invoice listing. Any
// page failure aborts the listing.
var ErrPageFetch = errors.New("ils: page fetch failed")

// StatusNotPaid is the payment status of invoices awaiting confirmation.
// The listing endpoint can return invoices in other states; those are
// filtered out with a warning.
const StatusNotPaid = "NOT_PAID"

// DefaultQuery selects invoices waiting for payment.
const DefaultQuery = "status~ready_to_be_paid"

// Invoice is one invoice as returned by the acquisitions API.
type Invoice struct {
	Number      string      `json:"number"`
	ID          string      `json:"id"`
	InvoiceDate string      `json:"invoice_date"`
	Vendor      Vendor      `json:"vendor"`
	TotalAmount json.Number `json:"total_amount"`
	Payment     Payment     `json:"payment"`
}

// Vendor is the invoice's vendor reference.
type Vendor struct {
	Value string `json:"value"`
	Desc  string `json:"desc"`
}

// Payment carries the invoice payment state.
type Payment struct {
	Status PaymentStatus `json:"payment_status"`
}

// PaymentStatus is a coded API value.
type PaymentStatus struct {
	Value string `json:"value"`
}

// Total returns the invoice total as a decimal, zero when absent or
// malformed.
func (i Invoice) Total() decimal.Decimal {
	d, err := decimal.NewFromString(i.TotalAmount.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

var isoDatePrefix = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)

// InvoiceDateWire reformats the API's ISO-ish invoice date (which may carry
// a stray zone suffix) to the wire form YYYYMMDD. Unrecognized input is
// returned unchanged.
func (i Invoice) InvoiceDateWire() string {
	m := isoDatePrefix.FindStringSubmatch(i.InvoiceDate)
	if m == nil {
		return i.InvoiceDate
	}
	return m[1] + m[2] + m[3]
}

type listResponse struct {
	TotalRecordCount int       `json:"total_record_count"`
	Invoices         []Invoice `json:"invoice"`
}

// Options configures a Client.
type Options struct {
	BaseURL string // listing endpoint, e.g. https://host/almaws/v1/acq/invoices/
	APIKey  string
	Query   string        // listing query; DefaultQuery when empty
	PageSize int          // API page cap; 100 when zero
	MaxParallel int       // fan-out bound; 20 when zero
	Timeout time.Duration // per-request timeout; 30s when zero
	Logger  *slog.Logger
}

// Client calls the acquisitions API.
type Client struct {
	baseURL  string
	apiKey   string
	query    string
	pageSize int
	parallel int
	http     *http.Client
	log      *slog.Logger
}

// NewClient builds a client from options, applying defaults.
func NewClient(opts Options) *Client {
	if opts.Query == "" {
		opts.Query = DefaultQuery
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = 20
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		baseURL:  opts.BaseURL,
		apiKey:   opts.APIKey,
		query:    opts.Query,
		pageSize: opts.PageSize,
		parallel: opts.MaxParallel,
		http:     &http.Client{Timeout: opts.Timeout},
		log:      opts.Logger,
	}
}

// WaitingInvoices lists every invoice matching the client query. The first
// page discovers the total record count; remaining pages are fetched
// concurrently and reassembled in offset order. Invoices not in NOT_PAID
// status are dropped with a warning.
func (c *Client) WaitingInvoices(ctx context.Context) ([]Invoice, error) {
	first, err := c.fetchPage(ctx, 0)
	if err != nil {
		return nil, err
	}

	invoices := first.Invoices
	if first.TotalRecordCount > c.pageSize {
		var offsets []int
		for off := c.pageSize; off < first.TotalRecordCount; off += c.pageSize {
			offsets = append(offsets, off)
		}

		pages := make([][]Invoice, len(offsets))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.parallel)
		for i, off := range offsets {
			g.Go(func() error {
				resp, err := c.fetchPage(gctx, off)
				if err != nil {
					return err
				}
				pages[i] = resp.Invoices
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		for _, page := range pages {
			invoices = append(invoices, page...)
		}
	}

	out := invoices[:0]
	for _, inv := range invoices {
		if inv.Payment.Status.Value != StatusNotPaid {
			c.log.Warn("invoice not awaiting payment, skipping",
				"invoice", inv.Number, "status", inv.Payment.Status.Value)
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

func (c *Client) fetchPage(ctx context.Context, offset int) (*listResponse, error) {
	q := url.Values{}
	q.Set("q", c.query)
	q.Set("limit", strconv.Itoa(c.pageSize))
	q.Set("offset", strconv.Itoa(offset))
	q.Set("format", "json")
	q.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: offset %d: %v", ErrPageFetch, offset, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: offset %d: %v", ErrPageFetch, offset, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: offset %d: status %d", ErrPageFetch, offset, resp.StatusCode)
	}
	var out listResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: offset %d: %v", ErrPageFetch, offset, err)
	}
	return &out, nil
}
