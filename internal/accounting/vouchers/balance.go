package vouchers

import (
	"math"

	"github.com/odyssey-erp/voucherdesk/internal/accounting/money"
)

// BalanceTolerance absorbs residual rounding from percentage splits.
const BalanceTolerance = 0.02

// Summary holds per-currency totals of a line set.
type Summary struct {
	DebitLC  float64 `json:"debit_lc"`
	CreditLC float64 `json:"credit_lc"`
	DebitFC  float64 `json:"debit_fc"`
	CreditFC float64 `json:"credit_fc"`
	Balanced bool    `json:"balanced"`
}

// DifferenceLC returns |debit - credit| in local currency, rounded.
func (s Summary) DifferenceLC() float64 {
	return money.Round2(math.Abs(money.Diff(s.DebitLC, s.CreditLC)))
}

// DifferenceFC returns |debit - credit| in foreign currency, rounded.
func (s Summary) DifferenceFC() float64 {
	return money.Round2(math.Abs(money.Diff(s.DebitFC, s.CreditFC)))
}

// Totals sums the four amount columns and evaluates the balance check.
func Totals(lines []Line) Summary {
	dLC := make([]float64, 0, len(lines))
	cLC := make([]float64, 0, len(lines))
	dFC := make([]float64, 0, len(lines))
	cFC := make([]float64, 0, len(lines))
	for _, l := range lines {
		dLC = append(dLC, l.DebitLC)
		cLC = append(cLC, l.CreditLC)
		dFC = append(dFC, l.DebitFC)
		cFC = append(cFC, l.CreditFC)
	}
	s := Summary{
		DebitLC:  money.Sum(dLC...),
		CreditLC: money.Sum(cLC...),
		DebitFC:  money.Sum(dFC...),
		CreditFC: money.Sum(cFC...),
	}
	s.Balanced = math.Abs(money.Diff(s.DebitLC, s.CreditLC)) < BalanceTolerance &&
		math.Abs(money.Diff(s.DebitFC, s.CreditFC)) < BalanceTolerance
	return s
}
