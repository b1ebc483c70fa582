package vouchers

import (
	"errors"

	"github.com/odyssey-erp/voucherdesk/internal/accounting/money"
)

var (
	// ErrNoBaseLine indicates a templated line set without an editable base.
	ErrNoBaseLine = errors.New("vouchers: template has no base line")
	// ErrAmbiguousClosing indicates several locked 100% lines.
	ErrAmbiguousClosing = errors.New("vouchers: template has more than one closing line")
)

// Basis returns the 100% equivalent of an amount entered on a base line
// that itself represents pct percent. pct <= 0 means the base is the 100%.
func Basis(entered, pct float64) float64 {
	if pct > 0 {
		return money.Gross(entered, pct)
	}
	return entered
}

// Decompose rewrites a templated line set after the base line at idx had
// field set to value. Every derived amount is a function of the basis and
// the template percentages only, so running it again on its own output
// yields the same lines.
func Decompose(lines []Line, idx int, field Field, value, rate float64) ([]Line, error) {
	info := Classify(lines)
	if info.Ambiguous() {
		return nil, ErrAmbiguousClosing
	}
	base := info.Base
	if idx >= 0 && idx < len(lines) && lines[idx].Template.IsBase() {
		base = idx
	}
	if base < 0 {
		return nil, ErrNoBaseLine
	}

	out := cloneLines(lines)
	cur := field.Currency()
	baseMeta := out[base].Template
	side := baseMeta.Side
	if !side.Valid() {
		side = field.Side()
	}

	value = money.Round2(value)
	place(&out[base], cur, side, value)
	basis := Basis(value, baseMeta.Percentage)

	for i := range out {
		if i == base {
			continue
		}
		meta := out[i].Template
		if meta == nil || !meta.Locked {
			continue
		}
		switch {
		case meta.Percentage == 100:
			if i == info.Closing {
				place(&out[i], cur, meta.Side, money.Round2(basis))
			}
		case meta.Percentage > 0 && meta.Percentage < 100:
			place(&out[i], cur, meta.Side, money.Percent(basis, meta.Percentage))
		}
	}

	backfill(out, cur, rate)
	return out, nil
}

// place writes amount into one column of the given currency and clears
// the opposite column.
func place(l *Line, cur Currency, side Side, amount float64) {
	debit, credit := amount, 0.0
	if side == SideCredit {
		debit, credit = 0, amount
	}
	if cur == FC {
		l.DebitFC, l.CreditFC = debit, credit
		return
	}
	l.DebitLC, l.CreditLC = debit, credit
}

// backfill derives the other currency for every line from the edited one.
func backfill(lines []Line, edited Currency, rate float64) {
	for i := range lines {
		l := &lines[i]
		if edited == LC {
			l.DebitFC = money.ToFC(l.DebitLC, rate)
			l.CreditFC = money.ToFC(l.CreditLC, rate)
			continue
		}
		l.DebitLC = money.ToLC(l.DebitFC, rate)
		l.CreditLC = money.ToLC(l.CreditFC, rate)
	}
}
