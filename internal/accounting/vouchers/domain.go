package vouchers

import (
	"time"

	"github.com/google/uuid"
)

// Status enumerates voucher lifecycle values.
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusApproved Status = "APPROVED"
)

// Side selects the column a template line's amount lives in.
type Side string

const (
	SideDebit  Side = "DEBIT"
	SideCredit Side = "CREDIT"
)

// Valid reports whether s is a known side.
func (s Side) Valid() bool {
	return s == SideDebit || s == SideCredit
}

// TemplateMetadata marks a line as part of a percentage template.
type TemplateMetadata struct {
	Locked     bool    `json:"locked" yaml:"locked"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
	Side       Side    `json:"side" yaml:"side"`
}

// IsClosing reports whether the metadata describes the 100% mirror line.
func (m *TemplateMetadata) IsClosing() bool {
	return m != nil && m.Locked && m.Percentage == 100
}

// IsBase reports whether the line may drive a decomposition.
func (m *TemplateMetadata) IsBase() bool {
	return m != nil && !m.Locked
}

// Line is one debit-or-credit entry of a voucher.
type Line struct {
	Account   string            `json:"account" yaml:"account"`
	Auxiliary string            `json:"auxiliary,omitempty" yaml:"auxiliary,omitempty"`
	Memo      string            `json:"memo,omitempty" yaml:"memo,omitempty"`
	DebitLC   float64           `json:"debit_lc" yaml:"debit_lc"`
	CreditLC  float64           `json:"credit_lc" yaml:"credit_lc"`
	DebitFC   float64           `json:"debit_fc" yaml:"debit_fc"`
	CreditFC  float64           `json:"credit_fc" yaml:"credit_fc"`
	Order     int               `json:"order" yaml:"order"`
	IsDerived bool              `json:"is_derived,omitempty" yaml:"is_derived,omitempty"`
	Template  *TemplateMetadata `json:"template,omitempty" yaml:"template,omitempty"`
}

// Locked reports whether the line's amounts are percentage-derived.
func (l Line) Locked() bool {
	return l.Template != nil && l.Template.Locked
}

// Header carries the descriptive voucher fields.
type Header struct {
	Origin       string    `json:"origin" yaml:"origin"`
	Type         string    `json:"type" yaml:"type"`
	EntryType    string    `json:"entry_type" yaml:"entry_type"`
	Date         time.Time `json:"date" yaml:"date"`
	PeriodMonth  int       `json:"period_month" yaml:"period_month"`
	FiscalYear   int       `json:"fiscal_year" yaml:"fiscal_year"`
	Currency     string    `json:"currency" yaml:"currency"`
	ExchangeRate float64   `json:"exchange_rate" yaml:"exchange_rate"`
	Concept      string    `json:"concept,omitempty" yaml:"concept,omitempty"`
	Counterparty string    `json:"counterparty,omitempty" yaml:"counterparty,omitempty"`
	CheckNumber  string    `json:"check_number,omitempty" yaml:"check_number,omitempty"`
}

// Voucher is a journal entry header with its ordered lines.
// A zero ID means the voucher has never been persisted.
type Voucher struct {
	ID      uuid.UUID `json:"id" yaml:"id,omitempty"`
	Number  int64     `json:"number,omitempty" yaml:"number,omitempty"`
	Version int64     `json:"version" yaml:"version,omitempty"`
	Status  Status    `json:"status" yaml:"status,omitempty"`
	Header  `yaml:",inline"`
	Lines   []Line `json:"lines" yaml:"lines"`

	ApprovedAt *time.Time `json:"approved_at,omitempty" yaml:"approved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at,omitempty" yaml:"-"`
	UpdatedAt  time.Time  `json:"updated_at,omitempty" yaml:"-"`
}

// Persisted reports whether the voucher already has an identity.
func (v Voucher) Persisted() bool {
	return v.ID != uuid.Nil
}

// Approved reports whether the voucher is immutable.
func (v Voucher) Approved() bool {
	return v.Status == StatusApproved
}

// NewVoucher returns a DRAFT voucher holding one empty line.
func NewVoucher(h Header) Voucher {
	return Voucher{
		Status: StatusDraft,
		Header: h,
		Lines:  []Line{{Order: 1}},
	}
}

// Clone returns a deep copy so callers can treat vouchers as values.
func (v Voucher) Clone() Voucher {
	out := v
	out.Lines = cloneLines(v.Lines)
	if v.ApprovedAt != nil {
		at := *v.ApprovedAt
		out.ApprovedAt = &at
	}
	return out
}

func cloneLines(lines []Line) []Line {
	if lines == nil {
		return nil
	}
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = l
		if l.Template != nil {
			meta := *l.Template
			out[i].Template = &meta
		}
	}
	return out
}

// AddLine appends an empty line. Approved vouchers are returned unchanged.
func AddLine(v Voucher) Voucher {
	if v.Approved() {
		return v
	}
	out := v.Clone()
	out.Lines = append(out.Lines, Line{Order: len(out.Lines) + 1})
	return out
}

// RemoveLine drops line idx and renumbers the rest. The last remaining
// line is never removed.
func RemoveLine(v Voucher, idx int) Voucher {
	if v.Approved() || len(v.Lines) <= 1 || idx < 0 || idx >= len(v.Lines) {
		return v
	}
	out := v.Clone()
	out.Lines = append(out.Lines[:idx], out.Lines[idx+1:]...)
	renumber(out.Lines)
	return out
}

func renumber(lines []Line) {
	for i := range lines {
		lines[i].Order = i + 1
	}
}
