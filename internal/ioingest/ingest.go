package ioingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/findata/findwh/pkg/db"
	"github.com/findata/findwh/pkg/etl"
	"golang.org/x/sync/errgroup"
)

// SessionFactory creates a fresh, unopened warehouse session. Each
// ingest worker gets its own session because a session owns exactly one
// connection.
type SessionFactory func() (db.Session, error)

// Ingestor runs the OHLC pipeline for every ticker of the universe with
// bounded concurrency.
type Ingestor struct {
	Provider      QuoteProvider
	NewSession    SessionFactory
	Jobs          int
	FailOnMissing bool
	Progress      bool
	Log           *slog.Logger
}

// Summary aggregates the per-ticker run results.
type Summary struct {
	Tickers int
	Total   int64
	Missing int64
	Skipped int64
}

// Run ingests every ticker. Tickers whose extraction yields no data are
// skipped with a warning; any other failure cancels the remaining work.
func (ing *Ingestor) Run(ctx context.Context, tickers []Ticker) (Summary, error) {
	log := ing.Log
	if log == nil {
		log = slog.Default()
	}

	jobs := ing.Jobs
	if jobs < 1 {
		jobs = 1
	}

	log.Info("Starting ingest",
		"tickers", len(tickers), "jobs", jobs)

	var pbar *pb.ProgressBar
	if ing.Progress {
		pbar = newProgressBar(len(tickers), "ingest ")
		defer pbar.Finish()
	}

	var total, missing, skipped atomic.Int64

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for _, ticker := range tickers {
		ticker := ticker // per-iteration copy; required while go.mod targets go < 1.22
		g.Go(func() error {
			err := ing.runOne(gCtx, ticker, &total, &missing)
			if errors.Is(err, etl.ErrNoData) {
				log.Warn("No data for ticker, skipping",
					"symbol", ticker.Symbol)
				skipped.Add(1)
				err = nil
			}
			if pbar != nil {
				pbar.Increment()
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	res := Summary{
		Tickers: len(tickers),
		Total:   total.Load(),
		Missing: missing.Load(),
		Skipped: skipped.Load(),
	}
	log.Info("Ingest finished",
		"tickers", res.Tickers,
		"datapoints", humanize.Comma(res.Total),
		"missing", res.Missing,
		"skipped", res.Skipped,
	)
	return res, nil
}

func (ing *Ingestor) runOne(
	ctx context.Context,
	ticker Ticker,
	total, missing *atomic.Int64,
) error {
	sess, err := ing.NewSession()
	if err != nil {
		return fmt.Errorf("ticker %s: %w", ticker.Symbol, err)
	}
	if err := sess.Open(ctx); err != nil {
		return fmt.Errorf("ticker %s: %w", ticker.Symbol, err)
	}
	defer sess.Close()

	pipeline := &OHLCPipeline{
		Symbol:   ticker.Symbol,
		Provider: ing.Provider,
		Session:  sess,
	}

	runner := etl.Runner{FailOnMissing: ing.FailOnMissing}
	res, err := runner.Run(ctx, pipeline)
	if err != nil {
		if errors.Is(err, etl.ErrNoData) {
			return err
		}
		return fmt.Errorf("ticker %s: %w", ticker.Symbol, err)
	}

	total.Add(int64(res.Total))
	missing.Add(int64(res.Missing))
	return nil
}
