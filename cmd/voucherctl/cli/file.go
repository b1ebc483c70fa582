package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/odyssey-erp/voucherdesk/internal/accounting/vouchers"
)

// readVoucher loads a voucher from a YAML file, or stdin when path is "-".
func readVoucher(path string, stdin io.Reader) (vouchers.Voucher, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return vouchers.Voucher{}, fmt.Errorf("read voucher: %w", err)
	}
	var v vouchers.Voucher
	if err := yaml.Unmarshal(data, &v); err != nil {
		return vouchers.Voucher{}, fmt.Errorf("parse voucher: %w", err)
	}
	if v.Status == "" {
		v.Status = vouchers.StatusDraft
	}
	for i := range v.Lines {
		v.Lines[i].Order = i + 1
	}
	return v, nil
}

func writeVoucher(w io.Writer, v vouchers.Voucher) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// parseEdit reads "<line>.<field>=<value>", line being zero-based.
func parseEdit(s string) (vouchers.Edit, error) {
	target, value, ok := strings.Cut(s, "=")
	if !ok {
		return vouchers.Edit{}, fmt.Errorf("edit %q: expected <line>.<field>=<value>", s)
	}
	lineStr, field, ok := strings.Cut(target, ".")
	if !ok {
		return vouchers.Edit{}, fmt.Errorf("edit %q: expected <line>.<field>=<value>", s)
	}
	line, err := strconv.Atoi(strings.TrimSpace(lineStr))
	if err != nil {
		return vouchers.Edit{}, fmt.Errorf("edit %q: bad line index: %w", s, err)
	}
	f := vouchers.Field(strings.TrimSpace(field))
	if !f.Valid() {
		return vouchers.Edit{}, fmt.Errorf("edit %q: unknown field %s", s, field)
	}
	return vouchers.Edit{Line: line, Field: f, Value: value}, nil
}

func printTotals(w io.Writer, s vouchers.Summary) {
	status := "balanced"
	if !s.Balanced {
		status = fmt.Sprintf("UNBALANCED (difference %.2f)", s.DifferenceLC())
	}
	fmt.Fprintf(w, "debit LC %.2f  credit LC %.2f  debit FC %.2f  credit FC %.2f  %s\n",
		s.DebitLC, s.CreditLC, s.DebitFC, s.CreditFC, status)
}
