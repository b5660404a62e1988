package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/riskline-ai/riskline/pkg/config"
	"github.com/riskline-ai/riskline/pkg/ledger"
)

func newBudgetCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Show budget spend",
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show recorded spend against the configured budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			led, err := ledger.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = led.Close() }()

			// Spend is read from the usage ledger; admission state lives
			// only inside a running server.
			tokens, cost, err := led.TotalSince(context.Background(), time.Time{})
			if err != nil {
				return err
			}

			remaining := cfg.Budget.USD - cost
			if remaining < 0 {
				remaining = 0
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "BUDGET\tSPENT\tREMAINING\tTOKENS")
			fmt.Fprintf(w, "$%.2f\t$%.6f\t$%.6f\t%d\n", cfg.Budget.USD, cost, remaining, tokens)
			return w.Flush()
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "riskline.yaml", "path to config file")
	cmd.AddCommand(statusCmd)
	return cmd
}
