package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/voucherdesk/internal/accounting/vouchers"
)

func newComposeCmd() *cobra.Command {
	var (
		file    string
		output  string
		edits   []string
		addLine bool
	)
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Apply amount and text edits to a voucher file",
		Long: `compose applies each --set edit in order, the way the voucher editor does:
edits on a template base line decompose into the percentage lines and the
closing line, then the foreign-currency rounding is reconciled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := readVoucher(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			// Conversions need a positive rate.
			if err := vouchers.CheckHeader(v); err != nil {
				return err
			}
			if addLine {
				v = vouchers.AddLine(v)
			}
			for _, raw := range edits {
				e, err := parseEdit(raw)
				if err != nil {
					return err
				}
				res := vouchers.ApplyEdit(v, e)
				for _, d := range res.Diagnostics {
					fmt.Fprintf(cmd.ErrOrStderr(), "line %d %s: %s (%s)\n", d.Line, d.Field, d.Message, d.Code)
				}
				v = res.Voucher
			}

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := writeVoucher(f, v); err != nil {
					return err
				}
			} else if err := writeVoucher(out, v); err != nil {
				return err
			}
			printTotals(cmd.ErrOrStderr(), vouchers.Totals(v.Lines))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "voucher YAML file, - for stdin")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the result here instead of stdout")
	cmd.Flags().StringArrayVar(&edits, "set", nil, "edit as <line>.<field>=<value>, repeatable")
	cmd.Flags().BoolVar(&addLine, "add-line", false, "append an empty line before applying edits")
	return cmd
}
