// Package purchasebook stores the tax purchase-book record that may be
// attached to one line of an invoice voucher.
package purchasebook

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/voucherdesk/internal/platform/httpx"
)

// ErrNotFound indicates a missing record.
var ErrNotFound = httpx.Tag(httpx.ErrNotFound, "purchasebook: record not found")

// ErrInvalid wraps every Validate failure.
var ErrInvalid = httpx.Tag(httpx.ErrValidation, "purchasebook: invalid record")

// ErrDuplicate indicates a record already exists for the voucher line.
var ErrDuplicate = httpx.Tag(httpx.ErrDuplicate, "purchasebook: voucher line already has a record")

// Record is a purchase-book entry linked to a voucher line.
type Record struct {
	ID                uuid.UUID `json:"id"`
	VoucherID         uuid.UUID `json:"voucher_id"`
	LineOrder         int       `json:"line_order" validate:"gte=1"`
	InvoiceDate       time.Time `json:"invoice_date" validate:"required"`
	InvoiceNumber     string    `json:"invoice_number" validate:"required,max=40"`
	AuthorizationCode string    `json:"authorization_code" validate:"max=100"`
	SupplierTaxID     string    `json:"supplier_tax_id" validate:"required,max=20"`
	SupplierName      string    `json:"supplier_name" validate:"required,max=200"`
	Amount            float64   `json:"amount" validate:"gte=0"`
	TaxCredit         float64   `json:"tax_credit" validate:"gte=0"`
	ControlCode       string    `json:"control_code,omitempty" validate:"max=20"`
	CreatedAt         time.Time `json:"created_at"`
}

// Validate checks the fields that must be present before persisting.
func (r Record) Validate() error {
	if r.LineOrder < 1 {
		return fmt.Errorf("%w: line order required", ErrInvalid)
	}
	if strings.TrimSpace(r.InvoiceNumber) == "" {
		return fmt.Errorf("%w: invoice number required", ErrInvalid)
	}
	if strings.TrimSpace(r.SupplierTaxID) == "" {
		return fmt.Errorf("%w: supplier tax id required", ErrInvalid)
	}
	if r.Amount < 0 || r.TaxCredit < 0 {
		return fmt.Errorf("%w: negative amount", ErrInvalid)
	}
	if r.TaxCredit > r.Amount {
		return fmt.Errorf("%w: tax credit exceeds amount", ErrInvalid)
	}
	return nil
}
