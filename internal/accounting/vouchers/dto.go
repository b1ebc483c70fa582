package vouchers

import (
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/voucherdesk/internal/accounting/purchasebook"
)

type TemplateRequest struct {
	Locked     bool    `json:"locked"`
	Percentage float64 `json:"percentage" validate:"gte=0,lte=100"`
	Side       string  `json:"side" validate:"required,oneof=DEBIT CREDIT"`
}

type LineRequest struct {
	Account   string           `json:"account" validate:"max=40"`
	Auxiliary string           `json:"auxiliary" validate:"max=40"`
	Memo      string           `json:"memo" validate:"max=500"`
	DebitLC   float64          `json:"debit_lc" validate:"gte=0"`
	CreditLC  float64          `json:"credit_lc" validate:"gte=0"`
	DebitFC   float64          `json:"debit_fc" validate:"gte=0"`
	CreditFC  float64          `json:"credit_fc" validate:"gte=0"`
	IsDerived bool             `json:"is_derived"`
	Template  *TemplateRequest `json:"template,omitempty" validate:"omitempty"`
}

type VoucherRequest struct {
	ID           uuid.UUID     `json:"id"`
	Version      int64         `json:"version" validate:"gte=0"`
	Origin       string        `json:"origin" validate:"max=40"`
	Type         string        `json:"type" validate:"max=40"`
	EntryType    string        `json:"entry_type" validate:"max=40"`
	Date         time.Time     `json:"date" validate:"required"`
	PeriodMonth  int           `json:"period_month" validate:"gte=0,lte=12"`
	FiscalYear   int           `json:"fiscal_year" validate:"gte=0"`
	Currency     string        `json:"currency" validate:"max=3"`
	ExchangeRate float64       `json:"exchange_rate" validate:"required,gt=0"`
	Concept      string        `json:"concept" validate:"max=1000"`
	Counterparty string        `json:"counterparty" validate:"max=200"`
	CheckNumber  string        `json:"check_number" validate:"max=40"`
	Lines        []LineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ToVoucher converts the request into a DRAFT voucher with contiguous line order.
func (r VoucherRequest) ToVoucher() Voucher {
	v := Voucher{
		ID:      r.ID,
		Version: r.Version,
		Status:  StatusDraft,
		Header: Header{
			Origin:       r.Origin,
			Type:         r.Type,
			EntryType:    r.EntryType,
			Date:         r.Date,
			PeriodMonth:  r.PeriodMonth,
			FiscalYear:   r.FiscalYear,
			Currency:     r.Currency,
			ExchangeRate: r.ExchangeRate,
			Concept:      r.Concept,
			Counterparty: r.Counterparty,
			CheckNumber:  r.CheckNumber,
		},
		Lines: make([]Line, 0, len(r.Lines)),
	}
	for i, l := range r.Lines {
		line := Line{
			Account:   l.Account,
			Auxiliary: l.Auxiliary,
			Memo:      l.Memo,
			DebitLC:   l.DebitLC,
			CreditLC:  l.CreditLC,
			DebitFC:   l.DebitFC,
			CreditFC:  l.CreditFC,
			Order:     i + 1,
			IsDerived: l.IsDerived,
		}
		if l.Template != nil {
			line.Template = &TemplateMetadata{
				Locked:     l.Template.Locked,
				Percentage: l.Template.Percentage,
				Side:       Side(l.Template.Side),
			}
		}
		v.Lines = append(v.Lines, line)
	}
	return v
}

type EditRequest struct {
	Line  int    `json:"line" validate:"gte=0"`
	Field string `json:"field" validate:"required,oneof=account auxiliary memo debit_lc credit_lc debit_fc credit_fc"`
	Value string `json:"value"`
}

type ComposeRequest struct {
	Voucher VoucherRequest `json:"voucher"`
	Edit    EditRequest    `json:"edit"`
}

type ComposeResponse struct {
	Voucher     Voucher      `json:"voucher"`
	Totals      Summary      `json:"totals"`
	Outcome     Outcome      `json:"outcome"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

type CreateVoucherRequest struct {
	VoucherRequest
	PurchaseBook *purchasebook.Record `json:"purchase_book,omitempty" validate:"omitempty"`
}

type VoucherResponse struct {
	Voucher Voucher `json:"voucher"`
	Totals  Summary `json:"totals"`
}

func newVoucherResponse(v Voucher) VoucherResponse {
	return VoucherResponse{Voucher: v, Totals: Totals(v.Lines)}
}
