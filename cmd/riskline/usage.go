package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/riskline-ai/riskline/pkg/config"
	"github.com/riskline-ai/riskline/pkg/ledger"
)

func newUsageCmd() *cobra.Command {
	var (
		configPath string
		recent     int
	)

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show inference usage statistics",
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

			ctx := context.Background()

			// Recent request view
			if recent > 0 {
				records, err := led.Recent(ctx, recent)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Println("No usage data found.")
					return nil
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "TIME\tCASE\tOPERATION\tORIGIN\tTOKENS\tCOST\tLATENCY")
				for _, r := range records {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t$%.6f\t%dms\n",
						r.CreatedAt.Format("2006-01-02T15:04:05"), r.CaseID, r.Operation, r.Origin, r.Tokens, r.CostUSD, r.LatencyMs)
				}
				return w.Flush()
			}

			// Default: usage summary
			summaries, err := led.Summary(ctx)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Println("No usage data found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "OPERATION\tMODEL\tREQUESTS\tTOKENS\tCOST")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t$%.6f\n",
					s.Operation, s.Model, s.RequestCount, s.TotalTokens, s.TotalCostUSD)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "riskline.yaml", "path to config file")
	cmd.Flags().IntVar(&recent, "recent", 0, "show the N most recent requests instead of the summary")
	return cmd
}
