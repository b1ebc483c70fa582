package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/voucherdesk/internal/accounting/vouchers"
)

func newCheckCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a voucher file for approval",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := readVoucher(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			printTotals(cmd.OutOrStdout(), vouchers.Totals(v.Lines))
			if err := vouchers.CheckHeader(v); err != nil {
				return err
			}
			if err := vouchers.CheckApprovable(v); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok: voucher can be approved")
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "voucher YAML file, - for stdin")
	return cmd
}
