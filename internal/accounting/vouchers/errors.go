package vouchers

import (
	"errors"
	"fmt"

	"github.com/odyssey-erp/voucherdesk/internal/platform/httpx"
)

var (
	// ErrNotFound indicates a missing voucher.
	ErrNotFound = httpx.Tag(httpx.ErrNotFound, "vouchers: voucher not found")
	// ErrImmutable indicates a write against an approved voucher.
	ErrImmutable = httpx.Tag(httpx.ErrConflict, "vouchers: approved voucher is immutable")
	// ErrVersionConflict indicates someone else saved the voucher first.
	ErrVersionConflict = httpx.Tag(httpx.ErrConflict, "vouchers: voucher was modified concurrently")
	// ErrNotPersisted indicates an operation requiring an identity.
	ErrNotPersisted = errors.New("vouchers: voucher has not been saved")
)

// Reason is the machine readable cause of a ValidationError.
type Reason string

const (
	ReasonEmptyLines       Reason = "empty_lines"
	ReasonMissingAccount   Reason = "missing_account"
	ReasonUnbalanced       Reason = "unbalanced"
	ReasonInvalidRate      Reason = "invalid_rate"
	ReasonAmbiguousClosing Reason = "ambiguous_closing_line"
	ReasonInvalidTemplate  Reason = "invalid_template"
	ReasonInvalidLineOrder Reason = "invalid_line_order"
)

// ValidationError reports a voucher that cannot move forward.
type ValidationError struct {
	Reason  Reason
	Message string
	// DifferenceLC is |debit - credit| in local currency, set for ReasonUnbalanced.
	DifferenceLC float64
	Line         int
}

func (e *ValidationError) Error() string {
	if e.Reason == ReasonUnbalanced {
		return fmt.Sprintf("%s (difference %.2f)", e.Message, e.DifferenceLC)
	}
	return e.Message
}

// Is lets callers match any ValidationError against httpx.ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == httpx.ErrValidation
}

func newValidationError(reason Reason, msg string) *ValidationError {
	return &ValidationError{Reason: reason, Message: msg, Line: -1}
}
