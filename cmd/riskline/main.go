package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "riskline",
		Short:   "Riskline — budget-gated AI compliance analysis for flagged transactions",
		Version: version,
	}

	root.AddCommand(
		newServeCmd(),
		newBudgetCmd(),
		newUsageCmd(),
		newCacheCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
