package main

import (
	"fmt"
	"os"

	"github.com/odyssey-erp/voucherdesk/cmd/voucherctl/cli"
)

func main() {
	if err := cli.NewRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
