package feed

import (
	"errors"
	"testing"
)

// ----------------------------------------------------------------------------
// Text / Number
// ----------------------------------------------------------------------------

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{"pads right", "MAINBKS", 10, "MAINBKS   "},
		{"trims then pads", "  MAINBKS  ", 10, "MAINBKS   "},
		{"truncates right", "GENERALLIBRARYANNEX", 15, "GENERALLIBRARYA"},
		{"blank input", "", 4, "    "},
		{"whitespace only", "   ", 4, "    "},
		{"exact width", "CA", 2, "CA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Text(tt.input, tt.width)
			if got != tt.want {
				t.Errorf("Text(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.want)
			}
			if len(got) != tt.width {
				t.Errorf("Text(%q, %d) length = %d", tt.input, tt.width, len(got))
			}
		})
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{"zero pads left", "18", 5, "00018"},
		{"trims input", " 18 ", 5, "00018"},
		{"keeps rightmost on overflow", "1234567", 5, "34567"},
		{"blank is all zeros", "", 5, "00000"},
		{"exact width", "00042", 5, "00042"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Number(tt.input, tt.width); got != tt.want {
				t.Errorf("Number(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.want)
			}
		})
	}
}

func TestNumberInt(t *testing.T) {
	if got := NumberInt(183, 7); got != "0000183" {
		t.Errorf("NumberInt(183, 7) = %q, want %q", got, "0000183")
	}
}

// ----------------------------------------------------------------------------
// Dates
// ----------------------------------------------------------------------------

func TestDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"standard", "11/25/2016", "20161125"},
		{"unpadded", "1/4/2017", "20170104"},
		{"blank stays blank", "", "        "},
		{"whitespace stays blank", "  ", "        "},
		{"garbage degrades to blank", "not-a-date", "        "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Date(tt.input); got != tt.want {
				t.Errorf("Date(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDateStrict(t *testing.T) {
	if _, err := DateStrict("13/45/2016"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("DateStrict on garbage returned %v, want ErrInvalidDate", err)
	}
	out, err := DateStrict("")
	if err != nil || out != "        " {
		t.Errorf("DateStrict(\"\") = %q, %v; blank must stay blank", out, err)
	}
}

func TestRawDate(t *testing.T) {
	if got := RawDate("20170104T081500Z"); got != "20170104" {
		t.Errorf("RawDate truncation = %q", got)
	}
	if got := RawDate(""); got != "        " {
		t.Errorf("RawDate blank = %q", got)
	}
}

// ----------------------------------------------------------------------------
// Amounts and tax codes
// ----------------------------------------------------------------------------

func TestAmount(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"zero", "0", "000000000000"},
		{"simple decimal", "12.50", "000000001250"},
		{"whole dollars", "29.50", "000000002950"},
		{"negative sign consumes a digit", "-3.00", "-00000000300"},
		{"negative larger", "-120.00", "-00000012000"},
		{"rounds to nearest cent", "10.005", "000000001001"},
		{"blank is zero", "", "000000000000"},
		{"garbage degrades to zero", "12,50", "000000000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Amount(tt.input)
			if got != tt.want {
				t.Errorf("Amount(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if len(got) != 12 {
				t.Errorf("Amount(%q) length = %d, want 12", tt.input, len(got))
			}
		})
	}
}

func TestAmountStrict(t *testing.T) {
	if _, err := AmountStrict("12,50"); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("AmountStrict on garbage returned %v, want ErrInvalidAmount", err)
	}
	out, err := AmountStrict("")
	if err != nil || out != "000000000000" {
		t.Errorf("AmountStrict(\"\") = %q, %v", out, err)
	}
}

func TestVATTaxCode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0", "0"},
		{"5.00", "A"},
		{"0.00", "0"},
		{"", "0"},
		{"-1.00", "0"},
		{"bogus", "0"},
	}
	for _, tt := range tests {
		if got := VATTaxCode(tt.input); got != tt.want {
			t.Errorf("VATTaxCode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestRecordCount(t *testing.T) {
	if got := RecordCount(4); got != "000004" {
		t.Errorf("RecordCount(4) = %q, want %q", got, "000004")
	}
	if got := RecordCount(1234567); got != "234567" {
		t.Errorf("RecordCount overflow = %q, want rightmost six", got)
	}
}
