package vouchers

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/odyssey-erp/voucherdesk/internal/accounting/money"
)

// Field names a user-editable line attribute.
type Field string

const (
	FieldAccount   Field = "account"
	FieldAuxiliary Field = "auxiliary"
	FieldMemo      Field = "memo"
	FieldDebitLC   Field = "debit_lc"
	FieldCreditLC  Field = "credit_lc"
	FieldDebitFC   Field = "debit_fc"
	FieldCreditFC  Field = "credit_fc"
)

// Currency distinguishes the local and foreign amount columns.
type Currency int

const (
	LC Currency = iota
	FC
)

// Monetary reports whether f is one of the four amount columns.
func (f Field) Monetary() bool {
	switch f {
	case FieldDebitLC, FieldCreditLC, FieldDebitFC, FieldCreditFC:
		return true
	}
	return false
}

// Valid reports whether f is a known field.
func (f Field) Valid() bool {
	switch f {
	case FieldAccount, FieldAuxiliary, FieldMemo:
		return true
	}
	return f.Monetary()
}

// Currency returns the currency of a monetary field.
func (f Field) Currency() Currency {
	if f == FieldDebitFC || f == FieldCreditFC {
		return FC
	}
	return LC
}

// Side returns the column of a monetary field.
func (f Field) Side() Side {
	if f == FieldCreditLC || f == FieldCreditFC {
		return SideCredit
	}
	return SideDebit
}

// Edit is one field change requested by the user.
type Edit struct {
	Line  int    `json:"line" yaml:"line"`
	Field Field  `json:"field" yaml:"field"`
	Value string `json:"value" yaml:"value"`
}

// Outcome summarises what an edit did.
type Outcome string

const (
	OutcomeApplied    Outcome = "applied"
	OutcomeDecomposed Outcome = "decomposed"
	OutcomeFallback   Outcome = "fallback"
	OutcomeRejected   Outcome = "rejected"
)

// DiagnosticCode identifies a computation anomaly.
type DiagnosticCode string

const (
	DiagApproved         DiagnosticCode = "approved_voucher"
	DiagLineOutOfRange   DiagnosticCode = "line_out_of_range"
	DiagUnknownField     DiagnosticCode = "unknown_field"
	DiagDerivedLine      DiagnosticCode = "derived_line"
	DiagLockedLine       DiagnosticCode = "locked_line"
	DiagNoBaseLine       DiagnosticCode = "no_base_line"
	DiagAmbiguousClosing DiagnosticCode = "ambiguous_closing_line"
	DiagInvalidAmount    DiagnosticCode = "invalid_amount"
)

// Diagnostic is a non-fatal note emitted while applying an edit.
type Diagnostic struct {
	Code    DiagnosticCode `json:"code"`
	Line    int            `json:"line"`
	Field   Field          `json:"field,omitempty"`
	Message string         `json:"message"`
}

// EditResult is the replacement voucher plus what happened to it.
type EditResult struct {
	Voucher     Voucher
	Outcome     Outcome
	Diagnostics []Diagnostic
}

// groupedAmount matches comma thousands grouping such as 1,234,567.89.
var groupedAmount = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d*)?$`)

// ParseAmount coerces user input to a non-negative amount. Anything that
// is not a finite non-negative number becomes 0. Commas are only accepted
// as thousands separators, so "1,5" is invalid rather than 15.
func ParseAmount(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, true
	}
	if strings.Contains(s, ",") {
		if !groupedAmount.MatchString(s) {
			return 0, false
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// ApplyEdit applies one field edit and returns the replacement voucher.
// The input voucher is never mutated.
func ApplyEdit(v Voucher, e Edit) EditResult {
	reject := func(code DiagnosticCode, msg string) EditResult {
		return EditResult{
			Voucher:     v,
			Outcome:     OutcomeRejected,
			Diagnostics: []Diagnostic{{Code: code, Line: e.Line, Field: e.Field, Message: msg}},
		}
	}
	if v.Approved() {
		return reject(DiagApproved, "voucher is approved")
	}
	if e.Line < 0 || e.Line >= len(v.Lines) {
		return reject(DiagLineOutOfRange, "line index out of range")
	}
	if !e.Field.Valid() {
		return reject(DiagUnknownField, "unknown field")
	}
	target := v.Lines[e.Line]
	if target.IsDerived {
		return reject(DiagDerivedLine, "line amounts are system computed")
	}

	out := v.Clone()
	if !e.Field.Monetary() {
		setText(&out.Lines[e.Line], e.Field, e.Value)
		return EditResult{Voucher: out, Outcome: OutcomeApplied}
	}

	var diags []Diagnostic
	amount, ok := ParseAmount(e.Value)
	if !ok {
		diags = append(diags, Diagnostic{Code: DiagInvalidAmount, Line: e.Line, Field: e.Field, Message: "amount coerced to 0"})
	}

	info := Classify(v.Lines)
	if !info.Active {
		setAmount(&out.Lines[e.Line], e.Field, amount, v.ExchangeRate)
		return EditResult{Voucher: out, Outcome: OutcomeApplied, Diagnostics: diags}
	}
	if target.Locked() {
		return reject(DiagLockedLine, "line amount is derived from the template")
	}
	if info.Ambiguous() {
		return reject(DiagAmbiguousClosing, "template has more than one closing line")
	}
	if !target.Template.IsBase() {
		// A line outside the template keeps single line behaviour.
		setAmount(&out.Lines[e.Line], e.Field, amount, v.ExchangeRate)
		if info.Base < 0 {
			diags = append(diags, Diagnostic{Code: DiagNoBaseLine, Line: e.Line, Field: e.Field, Message: "templated voucher has no base line"})
			return EditResult{Voucher: out, Outcome: OutcomeFallback, Diagnostics: diags}
		}
		return EditResult{Voucher: out, Outcome: OutcomeApplied, Diagnostics: diags}
	}

	lines, err := Decompose(v.Lines, e.Line, e.Field, amount, v.ExchangeRate)
	if err != nil {
		setAmount(&out.Lines[e.Line], e.Field, amount, v.ExchangeRate)
		diags = append(diags, Diagnostic{Code: DiagNoBaseLine, Line: e.Line, Field: e.Field, Message: err.Error()})
		return EditResult{Voucher: out, Outcome: OutcomeFallback, Diagnostics: diags}
	}
	out.Lines = Reconcile(lines)
	return EditResult{Voucher: out, Outcome: OutcomeDecomposed, Diagnostics: diags}
}

func setText(l *Line, f Field, value string) {
	switch f {
	case FieldAccount:
		l.Account = strings.TrimSpace(value)
	case FieldAuxiliary:
		l.Auxiliary = strings.TrimSpace(value)
	case FieldMemo:
		l.Memo = value
	}
}

// setAmount writes the edited column and refreshes its paired currency on
// the same line only.
func setAmount(l *Line, f Field, amount, rate float64) {
	amount = money.Round2(amount)
	switch f {
	case FieldDebitLC:
		l.DebitLC = amount
		l.DebitFC = money.ToFC(amount, rate)
	case FieldCreditLC:
		l.CreditLC = amount
		l.CreditFC = money.ToFC(amount, rate)
	case FieldDebitFC:
		l.DebitFC = amount
		l.DebitLC = money.ToLC(amount, rate)
	case FieldCreditFC:
		l.CreditFC = amount
		l.CreditLC = money.ToLC(amount, rate)
	}
}
