package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/capitoltrack/pvintel/cache"
	"github.com/capitoltrack/pvintel/config"
	"github.com/capitoltrack/pvintel/enrich"
	"github.com/capitoltrack/pvintel/store"
)

// logOutcome reports one pipeline run's Outcome at info level; every
// subcommand ends with a call to this so "completed normally" vs.
// "completed with N item failures" vs. "aborted by circuit breaker"
// (spec §7) is always visible on stderr.
func logOutcome(log zerolog.Logger, pipeline string, out enrich.Outcome) {
	log.Info().
		Str("run_id", out.RunID).
		Int("attempted", out.Attempted).
		Int("succeeded", out.Succeeded).
		Int("failed", out.Failed).
		Bool("aborted", out.Aborted).
		Msg(pipeline + " finished")
}

var (
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "pvintel-run",
	Short: "pvintel-run drives the congressional-trading ingestion and enrichment pipelines",
	Long: `pvintel-run is a manual smoke-test harness for the pvintel library: it
loads configuration from the environment, opens the Store, and runs one of
the sync, enrichment, or donation-ingestion pipelines against the real
upstreams. Callers embedding the library should use the pvintel packages
directly; this binary exists only to exercise them by hand.`,
}

// Execute runs the root command, exiting non-zero on any error so a shell
// script or CI smoke test can check the exit status.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug-level logging")
}

// newLogger builds the console logger every subcommand shares, honoring
// --verbose for the debug level.
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// openStore loads config (requiring the FEC API key only when
// donationsRequired) and opens the database it names.
func openStore(ctx context.Context, donationsRequired bool) (*config.Config, *store.Store, error) {
	cfg, err := config.Load(donationsRequired)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, st, nil
}

// openResponseCache builds the persistent TTL cache for external API
// responses (price quotes, FEC lookups), sharing the store's own
// connection rather than opening a second database file.
func openResponseCache(st *store.Store) (*cache.Repository, error) {
	repo := cache.NewRepository(st.DB())
	if err := repo.EnsureSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

// enrichOptions builds enrich.Options from config for a pipeline running
// at the given concurrency (callers pass cfg.Concurrency for the detail
// pipelines and cfg.PriceConcurrency() for prices, per spec §5's 3-vs-5
// default split).
func enrichOptions(cfg *config.Config, concurrency int) enrich.Options {
	return enrich.Options{
		Concurrency:      concurrency,
		RequestDelayBase: time.Duration(cfg.RequestDelayMillis) * time.Millisecond,
		FailureThreshold: cfg.MaxConsecutiveFailures,
	}
}
