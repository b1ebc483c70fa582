// Package cli implements voucherctl, an offline tool for composing,
// checking and exporting voucher files.
package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree writing results to out and
// diagnostics to errOut.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "voucherctl",
		Short: "Compose, check and export accounting vouchers",
		Long: `voucherctl works on voucher YAML files without a database.

  voucherctl compose -f v.yaml --set 0.debit_lc=1000
  voucherctl check -f v.yaml
  voucherctl export -f v.yaml --format xlsx -o v.xlsx`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.AddCommand(newComposeCmd(), newCheckCmd(), newExportCmd(), newJobsCmd())
	return root
}
