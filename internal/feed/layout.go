// Package feed implements the fixed-width "apfeed" record format consumed
// by the campus finance system. A data record is exactly 524 characters,
// composed of 41 positional fields with no delimiters. The package provides
// the field table, per-field formatters, and the encode/decode codec.
package feed

import "fmt"

// Field names, in wire order. These double as the keys of a Record and as
// the keys of the JSON checkpoint entries, so renaming one is a format change.
const (
	FeedName           = "FEED_NM"
	BatchID            = "BATCH_ID_NBR"
	OrgDocNumber       = "ORG_DOC_NBR"
	EmployeeInd        = "EMP_IND"
	VendorNumber       = "VEND_NBR"
	VendorInvoiceNbr   = "VEND_ASSIGN_INV_NBR"
	VendorInvoiceDate  = "VEND_ASSIGN_INV_DT"
	AddrSelectVendor   = "ADDR_SELECT_VEND_NBR"
	VendorAddrTypeCode = "VEND_ADDR_TYP_CD"
	RemitName          = "PMT_REMIT_NM"
	RemitAddr1         = "PMT_REMIT_LINE_1_ADDR"
	RemitAddr2         = "PMT_REMIT_LINE_2_ADDR"
	RemitAddr3         = "PMT_REMIT_LINE_3_ADDR"
	RemitCity          = "PMT_REMIT_CITY_NM"
	RemitState         = "PMT_REMIT_ST_CD"
	RemitZip           = "PMT_REMIT_ZIP_CD"
	RemitCountry       = "PMT_REMIT_CNTRY_CD"
	VendorStateResInd  = "VEND_ST_RES_IND"
	InvReceivedDate    = "INV_RECEIVED_DT"
	GoodsReceivedDate  = "GOODS_RECEIVED_DT"
	ShipZip            = "ORG_SHP_ZIP_CD"
	ShipState          = "ORG_SHP_STATE_CD"
	PaymentGroupCode   = "PMT_GRP_CD"
	InvFOBCode         = "INV_FOB_CD"
	DiscountTermCode   = "DISC_TERM_CD"
	ScheduledPmtDate   = "SCHEDULED_PMT_DT"
	NonCheckInd        = "PMT_NON_CHECK_IND"
	AttachmentReqInd   = "ATTACHMENT_REQ_IND"
	PaymentLineNbr     = "PMT_LINE_NBR"
	ChartCode          = "FIN_COA_CD"
	AccountNumber      = "ACCOUNT_NBR"
	SubAccountNumber   = "SUB_ACCT_NBR"
	ObjectCode         = "FIN_OBJECT_CD"
	SubObjectCode      = "FIN_SUB_OBJ_CD"
	ProjectCode        = "PROJECT_CD"
	ReferenceID        = "ORG_REFERENCE_ID"
	TaxCode            = "PMT_TAX_CD"
	PaymentAmount      = "PMT_AMT"
	ApplyDiscountInd   = "APPLY_DISC_IND"
	EFTOverrideInd     = "EFT_OVERRIDE_IND"
	PurposeDescription = "AP_PMT_PURPOSE_DESC"
)

// Field is one positional slot in the wire layout.
type Field struct {
	Name   string
	Offset int
	Width  int
}

// Layout is an ordered field table. Fields must be contiguous and start at
// offset zero; Validate enforces both.
type Layout []Field

// DefaultLayout is the finance-feed record layout. Offsets and widths come
// from the AP feed file specification and must never change independently
// of the consuming finance system.
var DefaultLayout = Layout{
	{FeedName, 0, 15},
	{BatchID, 15, 14},
	{OrgDocNumber, 29, 7},
	{EmployeeInd, 36, 1},
	{VendorNumber, 37, 10},
	{VendorInvoiceNbr, 47, 15},
	{VendorInvoiceDate, 62, 8},
	{AddrSelectVendor, 70, 10},
	{VendorAddrTypeCode, 80, 4},
	{RemitName, 84, 40},
	{RemitAddr1, 124, 40},
	{RemitAddr2, 164, 40},
	{RemitAddr3, 204, 40},
	{RemitCity, 244, 40},
	{RemitState, 284, 2},
	{RemitZip, 286, 11},
	{RemitCountry, 297, 2},
	{VendorStateResInd, 299, 1},
	{InvReceivedDate, 300, 8},
	{GoodsReceivedDate, 308, 8},
	{ShipZip, 316, 11},
	{ShipState, 327, 2},
	{PaymentGroupCode, 329, 2},
	{InvFOBCode, 331, 2},
	{DiscountTermCode, 333, 2},
	{ScheduledPmtDate, 335, 8},
	{NonCheckInd, 343, 1},
	{AttachmentReqInd, 344, 1},
	{PaymentLineNbr, 345, 5},
	{ChartCode, 350, 2},
	{AccountNumber, 352, 7},
	{SubAccountNumber, 359, 5},
	{ObjectCode, 364, 4},
	{SubObjectCode, 368, 3},
	{ProjectCode, 371, 10},
	{ReferenceID, 381, 8},
	{TaxCode, 389, 1},
	{PaymentAmount, 390, 12},
	{ApplyDiscountInd, 402, 1},
	{EFTOverrideInd, 403, 1},
	{PurposeDescription, 404, 120},
}

// RecordWidth is the exact length of every encoded data record.
const RecordWidth = 524

// TotalWidth returns the sum of all field widths.
func (l Layout) TotalWidth() int {
	total := 0
	for _, f := range l {
		total += f.Width
	}
	return total
}

// Validate checks that the layout is contiguous, starts at offset zero, and
// sums to RecordWidth. Called once at codec construction.
func (l Layout) Validate() error {
	next := 0
	for _, f := range l {
		if f.Width <= 0 {
			return fmt.Errorf("layout: field %s has non-positive width %d", f.Name, f.Width)
		}
		if f.Offset != next {
			return fmt.Errorf("layout: field %s at offset %d, expected %d", f.Name, f.Offset, next)
		}
		next = f.Offset + f.Width
	}
	if next != RecordWidth {
		return fmt.Errorf("layout: total width %d, expected %d", next, RecordWidth)
	}
	return nil
}

// Lookup returns the field definition by name.
func (l Layout) Lookup(name string) (Field, bool) {
	for _, f := range l {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
