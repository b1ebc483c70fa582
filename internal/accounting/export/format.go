// Package export renders vouchers as printable PDF and XLSX documents.
package export

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/odyssey-erp/voucherdesk/internal/accounting/vouchers"
)

// LabelResolver maps account codes to display labels.
type LabelResolver interface {
	Labels(ctx context.Context, codes []string) map[string]string
}

// Options configures document rendering.
type Options struct {
	Title           string
	LocalCurrency   string
	ForeignCurrency string
	Language        language.Tag
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = "Accounting Voucher"
	}
	if o.LocalCurrency == "" {
		o.LocalCurrency = "LC"
	}
	if o.ForeignCurrency == "" {
		o.ForeignCurrency = "FC"
	}
	if o.Language == language.Und {
		o.Language = language.English
	}
	return o
}

type amounts struct {
	DebitLC  string
	CreditLC string
	DebitFC  string
	CreditFC string
}

type lineView struct {
	amounts
	Order     int
	Account   string
	Auxiliary string
	Memo      string
}

type documentView struct {
	Title           string
	Number          string
	Date            string
	Period          string
	Type            string
	Origin          string
	Counterparty    string
	CheckNumber     string
	Concept         string
	Rate            string
	Status          string
	LocalCurrency   string
	ForeignCurrency string
	Lines           []lineView
	Totals          amounts
	Balanced        bool
}

type formatter struct {
	printer *message.Printer
}

func newFormatter(tag language.Tag) formatter {
	return formatter{printer: message.NewPrinter(tag)}
}

// amount prints a two-decimal figure with grouping. Zero prints blank.
func (f formatter) amount(v float64) string {
	if v == 0 {
		return ""
	}
	return f.printer.Sprintf("%.2f", v)
}

func (f formatter) rate(v float64) string {
	return f.printer.Sprintf("%.4f", v)
}

func buildView(ctx context.Context, v vouchers.Voucher, labels LabelResolver, opts Options) documentView {
	f := newFormatter(opts.Language)
	names := resolveLabels(ctx, v, labels)

	view := documentView{
		Title:           opts.Title,
		Number:          voucherNumber(v),
		Date:            v.Date.Format("2006-01-02"),
		Period:          fmt.Sprintf("%02d/%d", v.PeriodMonth, v.FiscalYear),
		Type:            v.Type,
		Origin:          v.Origin,
		Counterparty:    v.Counterparty,
		CheckNumber:     v.CheckNumber,
		Concept:         v.Concept,
		Rate:            f.rate(v.ExchangeRate),
		Status:          string(v.Status),
		LocalCurrency:   opts.LocalCurrency,
		ForeignCurrency: foreignLabel(v, opts),
		Lines:           make([]lineView, 0, len(v.Lines)),
	}
	for _, l := range v.Lines {
		view.Lines = append(view.Lines, lineView{
			Order:     l.Order,
			Account:   names[l.Account],
			Auxiliary: l.Auxiliary,
			Memo:      l.Memo,
			amounts: amounts{
				DebitLC:  f.amount(l.DebitLC),
				CreditLC: f.amount(l.CreditLC),
				DebitFC:  f.amount(l.DebitFC),
				CreditFC: f.amount(l.CreditFC),
			},
		})
	}
	sum := vouchers.Totals(v.Lines)
	view.Totals = amounts{
		DebitLC:  f.amount(sum.DebitLC),
		CreditLC: f.amount(sum.CreditLC),
		DebitFC:  f.amount(sum.DebitFC),
		CreditFC: f.amount(sum.CreditFC),
	}
	view.Balanced = sum.Balanced
	return view
}

func resolveLabels(ctx context.Context, v vouchers.Voucher, labels LabelResolver) map[string]string {
	codes := make([]string, 0, len(v.Lines))
	for _, l := range v.Lines {
		codes = append(codes, l.Account)
	}
	if labels == nil {
		out := make(map[string]string, len(codes))
		for _, c := range codes {
			out[c] = c
		}
		return out
	}
	out := labels.Labels(ctx, codes)
	for _, c := range codes {
		if _, ok := out[c]; !ok {
			out[c] = c
		}
	}
	return out
}

func voucherNumber(v vouchers.Voucher) string {
	if v.Number > 0 {
		return fmt.Sprintf("%06d", v.Number)
	}
	return "DRAFT"
}

func foreignLabel(v vouchers.Voucher, opts Options) string {
	if c := strings.TrimSpace(v.Currency); c != "" {
		return strings.ToUpper(c)
	}
	return opts.ForeignCurrency
}
