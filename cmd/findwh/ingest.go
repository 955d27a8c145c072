package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/findata/findwh/internal/iodb"
	"github.com/findata/findwh/internal/ioingest"
	"github.com/findata/findwh/pkg/db"
	"github.com/spf13/cobra"
)

var (
	ingestJobs    int
	ingestNoCache bool
	ingestRefresh bool
)

func getIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [symbol...]",
		Short: "Download daily quotes and load them into the raw layer",
		Long: `Download the daily OHLC history for every ticker of the configured
universe and load it into the raw layer of the warehouse.

Each ticker runs as its own extract/transform/load pipeline with its
own database session; the number of concurrent pipelines follows
jobs_number from the settings. Downloads are cached locally, so
interrupted runs do not hit the quote provider again for symbols that
already arrived.

With symbol arguments only those symbols are ingested instead of the
configured universe.

Examples:
  findwh ingest
  findwh ingest AAPL.US MSFT.US
  findwh ingest --jobs 4 --refresh`,
		RunE: runIngest,
	}

	cmd.Flags().IntVar(&ingestJobs, "jobs", 0,
		"concurrent ingest workers (default: jobs_number from settings)")
	cmd.Flags().BoolVar(&ingestNoCache, "no-cache", false,
		"always fetch from the quote provider, bypassing the local cache")
	cmd.Flags().BoolVar(&ingestRefresh, "refresh", false,
		"refresh the core materialized views after the ingest")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := getStore().Config()
	if err != nil {
		return err
	}

	var tickers []ioingest.Ticker
	if len(args) > 0 {
		for _, symbol := range args {
			tickers = append(tickers, ioingest.Ticker{Symbol: symbol})
		}
	} else {
		tickers, err = ioingest.LoadTickers(cfg.Ingest.TickersFile)
		if err != nil {
			return err
		}
	}
	if len(tickers) == 0 {
		return fmt.Errorf("the ingest universe is empty")
	}

	var provider ioingest.QuoteProvider = ioingest.NewHTTPProvider(
		cfg.Ingest.ProviderURL)
	if !ingestNoCache {
		cache, err := ioingest.OpenCache(cfg.Ingest.CacheDir)
		if err != nil {
			return err
		}
		defer cache.Close()
		provider = &ioingest.CachingProvider{Provider: provider, Cache: cache}
	}

	jobs := ingestJobs
	if jobs < 1 {
		jobs = cfg.JobsNumber
	}

	ing := &ioingest.Ingestor{
		Provider: provider,
		NewSession: func() (db.Session, error) {
			return iodb.NewSession(getStore(), dwhName)
		},
		Jobs:          jobs,
		FailOnMissing: cfg.Ingest.FailOnMissing,
		Progress:      true,
	}

	res, err := ing.Run(ctx, tickers)
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %s datapoints for %d tickers (%d missing, %d skipped).\n",
		humanize.Comma(res.Total), res.Tickers, res.Missing, res.Skipped)

	if ingestRefresh {
		return refreshCoreViews(ctx)
	}
	return nil
}
