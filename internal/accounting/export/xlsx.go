package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/voucherdesk/internal/accounting/vouchers"
)

const sheetName = "Voucher"

var lineHeaders = []string{"#", "Account", "Auxiliary", "Memo", "Debit LC", "Credit LC", "Debit FC", "Credit FC"}

// XLSX writes v into a single-sheet workbook. Amounts are stored as numbers.
func (e *Exporter) XLSX(ctx context.Context, v vouchers.Voucher) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}
	names := resolveLabels(ctx, v, e.labels)

	header := [][2]any{
		{e.opts.Title, voucherNumber(v)},
		{"Date", v.Date.Format("2006-01-02")},
		{"Period", fmt.Sprintf("%02d/%d", v.PeriodMonth, v.FiscalYear)},
		{"Type", v.Type},
		{"Counterparty", v.Counterparty},
		{"Exchange rate", v.ExchangeRate},
		{"Status", string(v.Status)},
		{"Concept", v.Concept},
	}
	row := 1
	for _, kv := range header {
		if err := f.SetSheetRow(sheetName, cell(1, row), &[]any{kv[0], kv[1]}); err != nil {
			return nil, err
		}
		row++
	}
	row++

	headers := make([]any, len(lineHeaders))
	for i, h := range lineHeaders {
		headers[i] = h
	}
	if err := f.SetSheetRow(sheetName, cell(1, row), &headers); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, cell(1, row), cell(len(lineHeaders), row), bold); err != nil {
		return nil, err
	}
	row++
	first := row

	for _, l := range v.Lines {
		values := []any{l.Order, names[l.Account], l.Auxiliary, l.Memo, l.DebitLC, l.CreditLC, l.DebitFC, l.CreditFC}
		if err := f.SetSheetRow(sheetName, cell(1, row), &values); err != nil {
			return nil, err
		}
		row++
	}

	sum := vouchers.Totals(v.Lines)
	totals := []any{"", "Totals", "", "", sum.DebitLC, sum.CreditLC, sum.DebitFC, sum.CreditFC}
	if err := f.SetSheetRow(sheetName, cell(1, row), &totals); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, cell(1, row), cell(len(lineHeaders), row), bold); err != nil {
		return nil, err
	}

	numFmt := "#,##0.00"
	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return nil, err
	}
	if row > first {
		if err := f.SetCellStyle(sheetName, cell(5, first), cell(8, row-1), amountStyle); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(sheetName, "B", "D", 28); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("export: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func cell(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "A1"
	}
	return name
}
