package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/capitoltrack/pvintel/enrich"
	"github.com/capitoltrack/pvintel/price"
	"github.com/capitoltrack/pvintel/price/tiingo"
	"github.com/capitoltrack/pvintel/price/yahoo"
	"github.com/capitoltrack/pvintel/source"
)

var batchLimit int

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Run one of the detail/price enrichment pipelines against unenriched rows",
}

var enrichTradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "Fetch detail pages for trades with no enrichment timestamp",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		log := newLogger()

		cfg, st, err := openStore(ctx, false)
		if err != nil {
			return err
		}
		defer st.Close()

		client := source.NewClient(log)
		out := enrich.RunTradeDetailEnrichment(ctx, log, st, client, enrichOptions(cfg, cfg.Concurrency), batchLimit)
		logOutcome(log, "trade detail enrichment", out)
		return nil
	},
}

var enrichIssuersCmd = &cobra.Command{
	Use:   "issuers",
	Short: "Fetch detail pages for issuers with no enrichment timestamp",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		log := newLogger()

		cfg, st, err := openStore(ctx, false)
		if err != nil {
			return err
		}
		defer st.Close()

		client := source.NewClient(log)
		out := enrich.RunIssuerDetailEnrichment(ctx, log, st, client, enrichOptions(cfg, cfg.Concurrency), batchLimit)
		logOutcome(log, "issuer detail enrichment", out)
		return nil
	},
}

var enrichPricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Run all three price-enrichment phases: historical, current, benchmark",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		log := newLogger()

		cfg, st, err := openStore(ctx, false)
		if err != nil {
			return err
		}
		defer st.Close()

		repo, err := openResponseCache(st)
		if err != nil {
			return err
		}

		clients := enrich.PriceClients{Primary: yahoo.NewClient(log).WithRepository(repo)}
		if cfg.TiingoAPIKey != "" {
			clients.Fallback = tiingo.NewClient(cfg.TiingoAPIKey).WithRepository(repo)
		}
		aliases := price.LoadTickerAliases()
		opts := enrichOptions(cfg, cfg.PriceConcurrency())

		historical := enrich.RunHistoricalPriceEnrichment(ctx, log, st, clients, aliases, opts, batchLimit)
		logOutcome(log, "historical price enrichment", historical)

		current := enrich.RunCurrentPriceEnrichment(ctx, log, st, clients.Primary, aliases, cfg.PriceConcurrency())
		logOutcome(log, "current price enrichment", current)

		benchmark := enrich.RunBenchmarkPriceEnrichment(ctx, log, st, clients, opts, batchLimit)
		logOutcome(log, "benchmark price enrichment", benchmark)
		return nil
	},
}

func init() {
	enrichCmd.PersistentFlags().IntVar(&batchLimit, "batch", 0, "cap the number of rows processed this run (0 = unbounded)")
	enrichCmd.AddCommand(enrichTradesCmd, enrichIssuersCmd, enrichPricesCmd)
	rootCmd.AddCommand(enrichCmd)
}
