package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/riskline-ai/riskline/pkg/budget"
	cachepkg "github.com/riskline-ai/riskline/pkg/cache/sqlite"
	"github.com/riskline-ai/riskline/pkg/cases"
	"github.com/riskline-ai/riskline/pkg/config"
	"github.com/riskline-ai/riskline/pkg/docstore"
	"github.com/riskline-ai/riskline/pkg/inference"
	"github.com/riskline-ai/riskline/pkg/ledger"
	"github.com/riskline-ai/riskline/pkg/orchestrator"
	"github.com/riskline-ai/riskline/pkg/prompt"
	"github.com/riskline-ai/riskline/pkg/server"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Riskline API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			led, err := ledger.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("init ledger: %w", err)
			}
			defer func() { _ = led.Close() }()

			caseStore := cases.NewSeededStore()
			docs := docstore.New(cfg.Documents.ChunkWords, cfg.Documents.ChunkOverlap)

			deps := orchestrator.Deps{
				Cases:     caseStore,
				Tracker:   budget.New(cfg.Budget.USD, cfg.Budget.CostPer1KUSD),
				Client:    inference.New(cfg.Model),
				Prompts:   prompt.New(cfg.Documents.MaxExcerptChars),
				Retriever: docs,
				Ledger:    led,
				TopK:      cfg.Documents.TopK,
			}
			if cfg.Cache.Enabled {
				cache, err := cachepkg.New(cfg.DBPath, cfg.Cache.ModelTTL, cfg.Cache.FallbackTTL)
				if err != nil {
					return fmt.Errorf("init cache: %w", err)
				}
				defer func() { _ = cache.Close() }()
				deps.Cache = cache
			}

			orch := orchestrator.New(deps)
			srv := server.New(cfg, orch, caseStore, docs, led)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Printf("starting riskline with config: %s", configPath)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "riskline.yaml", "path to config file")
	return cmd
}
