package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/capitoltrack/pvintel/enrich"
	"github.com/capitoltrack/pvintel/fec"
)

var nameFilter string

var donationsCmd = &cobra.Command{
	Use:   "donations",
	Short: "Resolve each politician's committees and walk Schedule A to the terminal page",
	Long: `donations implements spec §4.6.4: for each politician (optionally
restricted with --name), resolve their authorized committees via the
campaign-finance API and advance each committee's keyset cursor one page at
a time until the upstream reports no further page.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		log := newLogger()

		cfg, st, err := openStore(ctx, true)
		if err != nil {
			return err
		}
		defer st.Close()

		repo, err := openResponseCache(st)
		if err != nil {
			return err
		}

		client := fec.NewClient(cfg.FECAPIKey).WithRepository(repo)
		resolver := fec.NewCommitteeResolver(st, client)

		out := enrich.RunDonationIngestion(ctx, log, st, resolver, client, nameFilter,
			enrichOptions(cfg, cfg.Concurrency))
		logOutcome(log, "donation ingestion", out)
		return nil
	},
}

func init() {
	donationsCmd.Flags().StringVar(&nameFilter, "name", "", "restrict donation ingestion to politicians matching this name")
	rootCmd.AddCommand(donationsCmd)
}
