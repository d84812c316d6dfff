package ils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

func pageHandler(t *testing.T, total, pageSize int, fail map[int]bool) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apikey") == "" {
			http.Error(w, "missing key", http.StatusUnauthorized)
			return
		}
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if fail[offset] {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		resp := listResponse{TotalRecordCount: total}
		for i := offset; i < total && i < offset+pageSize; i++ {
			resp.Invoices = append(resp.Invoices, Invoice{
				Number:      fmt.Sprintf("INV-%03d", i),
				InvoiceDate: "2016-11-25Z",
				Payment:     Payment{Status: PaymentStatus{Value: StatusNotPaid}},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func TestWaitingInvoicesPagination(t *testing.T) {
	const total = 25
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		pageHandler(t, total, 10, nil)(w, r)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, APIKey: "k", PageSize: 10})
	got, err := c.WaitingInvoices(context.Background())
	if err != nil {
		t.Fatalf("WaitingInvoices: %v", err)
	}
	if len(got) != total {
		t.Fatalf("got %d invoices, want %d", len(got), total)
	}
	// Pages must reassemble in offset order regardless of fetch order.
	for i, inv := range got {
		want := fmt.Sprintf("INV-%03d", i)
		if inv.Number != want {
			t.Fatalf("invoice %d = %q, want %q", i, inv.Number, want)
		}
	}
	if calls.Load() != 3 {
		t.Errorf("server saw %d requests, want 3", calls.Load())
	}
}

func TestWaitingInvoicesPageFailure(t *testing.T) {
	srv := httptest.NewServer(pageHandler(t, 25, 10, map[int]bool{10: true}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, APIKey: "k", PageSize: 10})
	_, err := c.WaitingInvoices(context.Background())
	if err == nil {
		t.Fatal("expected error from failed page")
	}
	if !errors.Is(err, ErrPageFetch) {
		t.Fatalf("error %v does not wrap ErrPageFetch", err)
	}
}

func TestWaitingInvoicesFiltersPaid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := listResponse{
			TotalRecordCount: 2,
			Invoices: []Invoice{
				{Number: "A", Payment: Payment{Status: PaymentStatus{Value: StatusNotPaid}}},
				{Number: "B", Payment: Payment{Status: PaymentStatus{Value: "PAID"}}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, APIKey: "k", PageSize: 10})
	got, err := c.WaitingInvoices(context.Background())
	if err != nil {
		t.Fatalf("WaitingInvoices: %v", err)
	}
	if len(got) != 1 || got[0].Number != "A" {
		t.Fatalf("got %+v, want only invoice A", got)
	}
}

func TestWaitingInvoicesTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, APIKey: "k", Timeout: 20 * time.Millisecond})
	if _, err := c.WaitingInvoices(context.Background()); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestInvoiceDateWire(t *testing.T) {
	cases := map[string]string{
		"2016-11-25Z":          "20161125",
		"2017-01-04T00:00:00Z": "20170104",
		"":                     "",
		"garbage":              "garbage",
	}
	for in, want := range cases {
		if got := (Invoice{InvoiceDate: in}).InvoiceDateWire(); got != want {
			t.Errorf("InvoiceDateWire(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInvoiceTotal(t *testing.T) {
	var inv Invoice
	if err := json.Unmarshal([]byte(`{"number":"X","total_amount":29.5}`), &inv); err != nil {
		t.Fatal(err)
	}
	if got := inv.Total().StringFixed(2); got != "29.50" {
		t.Errorf("Total = %s, want 29.50", got)
	}
}
