package vouchers

import (
	"fmt"
	"strings"
	"time"
)

// CheckApprovable runs the approval guard. It returns a *ValidationError
// describing the first failed rule, or nil.
func CheckApprovable(v Voucher) error {
	if len(v.Lines) == 0 {
		return newValidationError(ReasonEmptyLines, "at least one line required")
	}
	for i, l := range v.Lines {
		if strings.TrimSpace(l.Account) == "" {
			verr := newValidationError(ReasonMissingAccount, "every line needs an account")
			verr.Line = i
			return verr
		}
	}
	if s := Totals(v.Lines); !s.Balanced {
		verr := newValidationError(ReasonUnbalanced, "unbalanced")
		verr.DifferenceLC = s.DifferenceLC()
		return verr
	}
	return nil
}

// CheckHeader validates the fields every saved voucher needs.
func CheckHeader(v Voucher) error {
	if v.ExchangeRate <= 0 {
		return newValidationError(ReasonInvalidRate, "exchange rate must be positive")
	}
	return ValidateTemplate(v.Lines)
}

// Approve moves a DRAFT voucher to APPROVED in memory. Persisting the
// transition is the service's job.
func Approve(v Voucher, at time.Time) (Voucher, error) {
	if v.Approved() {
		return v, ErrImmutable
	}
	if v.Status != StatusDraft && v.Status != "" {
		return v, fmt.Errorf("vouchers: cannot approve from status %q", v.Status)
	}
	if err := CheckApprovable(v); err != nil {
		return v, err
	}
	out := v.Clone()
	out.Status = StatusApproved
	out.ApprovedAt = &at
	return out, nil
}
