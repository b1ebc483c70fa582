package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/odyssey-erp/voucherdesk/internal/accounting/vouchers"
)

const templateVoucher = `date: 2024-03-15
fiscal_year: 2024
period_month: 3
currency: USD
exchange_rate: 6.96
lines:
  - account: "5101"
    template: {locked: false, percentage: 87, side: DEBIT}
  - account: "1142"
    template: {locked: true, percentage: 13, side: DEBIT}
  - account: "1101"
    template: {locked: true, percentage: 100, side: CREDIT}
`

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voucher.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestComposeDecomposesTemplate(t *testing.T) {
	path := writeFile(t, templateVoucher)

	stdout, stderr, err := run(t, "compose", "-f", path, "--set", "0.debit_lc=870")
	require.NoError(t, err)

	var v vouchers.Voucher
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &v))
	require.Len(t, v.Lines, 3)
	assert.Equal(t, 870.0, v.Lines[0].DebitLC)
	assert.Equal(t, 130.0, v.Lines[1].DebitLC)
	assert.Equal(t, 1000.0, v.Lines[2].CreditLC)
	assert.Equal(t, 143.68, v.Lines[2].CreditFC)
	assert.Contains(t, stderr, "balanced")
	assert.NotContains(t, stderr, "UNBALANCED")
}

func TestComposeReportsDiagnostics(t *testing.T) {
	path := writeFile(t, templateVoucher)

	_, stderr, err := run(t, "compose", "-f", path, "--set", "2.credit_lc=5")
	require.NoError(t, err)
	assert.Contains(t, stderr, string(vouchers.DiagLockedLine))
}

func TestComposeRejectsBadEdit(t *testing.T) {
	path := writeFile(t, templateVoucher)

	_, _, err := run(t, "compose", "-f", path, "--set", "0.amount=5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")

	_, _, err = run(t, "compose", "-f", path, "--set", "debit_lc")
	require.Error(t, err)
}

func TestComposeWritesOutputFile(t *testing.T) {
	path := writeFile(t, templateVoucher)
	target := filepath.Join(t.TempDir(), "out.yaml")

	stdout, _, err := run(t, "compose", "-f", path, "-o", target, "--add-line", "--set", "3.memo=rounding")
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	var v vouchers.Voucher
	require.NoError(t, yaml.Unmarshal(data, &v))
	require.Len(t, v.Lines, 4)
	assert.Equal(t, "rounding", v.Lines[3].Memo)
}

func TestCheckBalancedVoucher(t *testing.T) {
	path := writeFile(t, `date: 2024-03-15
exchange_rate: 6.96
lines:
  - {account: "5101", debit_lc: 1000, debit_fc: 143.68}
  - {account: "1101", credit_lc: 1000, credit_fc: 143.68}
`)
	stdout, _, err := run(t, "check", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "ok: voucher can be approved")
}

func TestCheckUnbalancedVoucher(t *testing.T) {
	path := writeFile(t, `date: 2024-03-15
exchange_rate: 6.96
lines:
  - {account: "5101", debit_lc: 1000}
  - {account: "1101", credit_lc: 999.5}
`)
	stdout, _, err := run(t, "check", "-f", path)
	require.Error(t, err)

	var verr *vouchers.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, vouchers.ReasonUnbalanced, verr.Reason)
	assert.Equal(t, 0.5, verr.DifferenceLC)
	assert.Contains(t, stdout, "UNBALANCED (difference 0.50)")
}

func TestExportHTMLAndXLSX(t *testing.T) {
	path := writeFile(t, `date: 2024-03-15
number: 12
exchange_rate: 6.96
lines:
  - {account: "5101", debit_lc: 1000, debit_fc: 143.68}
  - {account: "1101", credit_lc: 1000, credit_fc: 143.68}
`)
	stdout, _, err := run(t, "export", "-f", path, "--format", "html")
	require.NoError(t, err)
	assert.Contains(t, stdout, "000012")

	target := filepath.Join(t.TempDir(), "v.xlsx")
	_, _, err = run(t, "export", "-f", path, "--format", "xlsx", "-o", target)
	require.NoError(t, err)
	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	_, _, err = run(t, "export", "-f", path, "--format", "pdf", "--gotenberg", "")
	assert.Error(t, err)
}

func TestParseEdit(t *testing.T) {
	e, err := parseEdit("2.credit_fc=1,250.50")
	require.NoError(t, err)
	assert.Equal(t, vouchers.Edit{Line: 2, Field: vouchers.FieldCreditFC, Value: "1,250.50"}, e)

	_, err = parseEdit("x.memo=a")
	assert.Error(t, err)
}

func TestComposeRequiresExchangeRate(t *testing.T) {
	for name, rate := range map[string]string{"missing": "", "zero": "exchange_rate: 0\n", "negative": "exchange_rate: -1\n"} {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, "date: 2024-03-15\n"+rate+"lines:\n  - account: \"5101\"\n")

			_, _, err := run(t, "compose", "-f", path, "--set", "0.debit_lc=500")
			var verr *vouchers.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, vouchers.ReasonInvalidRate, verr.Reason)
		})
	}
}
