package vouchers

import (
	"math"

	"github.com/odyssey-erp/voucherdesk/internal/accounting/money"
)

// ReconcileThreshold is the FC difference below which nothing is adjusted.
const ReconcileThreshold = 0.005

// AdjustmentLine returns the line that absorbs FC rounding: the first line
// with a local credit, else the last line. -1 for an empty set.
func AdjustmentLine(lines []Line) int {
	for i, l := range lines {
		if l.CreditLC > 0 {
			return i
		}
	}
	return len(lines) - 1
}

// Reconcile pushes the FC debit/credit difference onto one line's FC
// credit. LC amounts are never changed. When reducing the credit would take
// it below zero the credit is cleared and the rest goes to the same line's
// FC debit, so no amount turns negative.
func Reconcile(lines []Line) []Line {
	out := cloneLines(lines)
	if len(out) == 0 {
		return out
	}
	t := Totals(out)
	diff := money.Diff(t.DebitFC, t.CreditFC)
	if math.Abs(diff) < ReconcileThreshold {
		return out
	}
	idx := AdjustmentLine(out)
	credit := money.Round2(money.Sum(out[idx].CreditFC, diff))
	if credit < 0 {
		out[idx].DebitFC = money.Round2(money.Diff(out[idx].DebitFC, credit))
		credit = 0
	}
	out[idx].CreditFC = credit
	return out
}
