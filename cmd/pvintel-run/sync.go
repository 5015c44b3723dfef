package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/capitoltrack/pvintel/enrich"
	"github.com/capitoltrack/pvintel/source"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Walk the disclosure site's list pages, populating raw trades, politicians, and issuers",
	Long: `sync implements the raw half of the ingestion data flow: it walks the
trade-disclosure site's paginated trades index and upserts each row's
politician, issuer, and trade, then separately walks every known
committee's roster pages and replaces each politician's committee set.`,
}

var syncTradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "Walk the trades index and upsert politicians, issuers, and trades",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		log := newLogger()

		cfg, st, err := openStore(ctx, false)
		if err != nil {
			return err
		}
		defer st.Close()

		client := source.NewClient(log)
		out := enrich.RunTradeIngestion(ctx, log, st, client, enrichOptions(cfg, cfg.Concurrency))
		logOutcome(log, "trade ingestion", out)
		return nil
	},
}

var syncCommitteesCmd = &cobra.Command{
	Use:   "committees",
	Short: "Walk every known committee's roster and replace politician committee sets",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		log := newLogger()

		cfg, st, err := openStore(ctx, false)
		if err != nil {
			return err
		}
		defer st.Close()

		client := source.NewClient(log)
		out := enrich.RunCommitteeMembershipSync(ctx, log, st, client, enrichOptions(cfg, cfg.Concurrency))
		logOutcome(log, "committee membership sync", out)
		return nil
	},
}

func init() {
	syncCmd.AddCommand(syncTradesCmd, syncCommitteesCmd)
	rootCmd.AddCommand(syncCmd)
}
