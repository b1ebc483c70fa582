package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/voucherdesk/internal/accounting/export"
	"github.com/odyssey-erp/voucherdesk/report"
)

func newExportCmd() *cobra.Command {
	var (
		file      string
		format    string
		output    string
		gotenberg string
		localCcy  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a voucher file as xlsx, html or pdf",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := readVoucher(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			var renderer export.Renderer
			if gotenberg != "" {
				renderer = report.NewClient(gotenberg)
			}
			exp, err := export.NewExporter(renderer, nil, export.Options{LocalCurrency: localCcy})
			if err != nil {
				return err
			}

			var data []byte
			switch strings.ToLower(format) {
			case "xlsx":
				data, err = exp.XLSX(cmd.Context(), v)
			case "html":
				var html string
				html, err = exp.HTML(cmd.Context(), v)
				data = []byte(html)
			case "pdf":
				if gotenberg == "" {
					return fmt.Errorf("pdf export needs --gotenberg")
				}
				data, err = exp.PDF(cmd.Context(), v)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(output, data, 0o644)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "voucher YAML file, - for stdin")
	cmd.Flags().StringVar(&format, "format", "xlsx", "xlsx, html or pdf")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, stdout when empty")
	cmd.Flags().StringVar(&gotenberg, "gotenberg", os.Getenv("GOTENBERG_URL"), "Gotenberg base URL for pdf")
	cmd.Flags().StringVar(&localCcy, "local-currency", "BOB", "local currency label")
	return cmd
}
