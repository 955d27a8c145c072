// Package etl defines the generic extract/transform/load run contract.
// A Pipeline supplies the three stages; Runner drives them strictly in
// sequence and turns the load stage's missing-row count into either
// observable metadata or a hard failure.
package etl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/findata/findwh/pkg/db"
	"github.com/google/uuid"
)

var (
	// ErrNoData is returned when extraction yields zero records. The run
	// stops before transform or load are invoked.
	ErrNoData = errors.New("could not extract data")

	// ErrMissingEntries is returned when rows could not be persisted and
	// the runner is configured to fail on missing entries.
	ErrMissingEntries = errors.New("entries could not be loaded into the database")
)

// Pipeline supplies the three user-defined ETL stages. Stages must be
// safe to rerun: the driver performs no retries and no partial commits
// across stages, so idempotency (typically via upsert semantics in Load)
// is the pipeline's responsibility.
type Pipeline interface {
	// Extract produces a tabular payload from an external source.
	Extract(ctx context.Context) (*db.Table, error)

	// Transform is a pure function from the extracted payload to a
	// load-ready payload. No side effects, no I/O.
	Transform(data *db.Table) (*db.Table, error)

	// Load writes the payload to the persistent store and returns the
	// number of rows that could not be persisted.
	Load(ctx context.Context, data *db.Table) (missing int, err error)
}

// RunResult carries the observable outcome of one ETL run.
type RunResult struct {
	RunID   uuid.UUID
	Total   int
	Missing int
}

// Metadata returns the result counters as a metadata mapping.
func (r RunResult) Metadata() map[string]any {
	return map[string]any{
		"Total datapoints":   r.Total,
		"Missing datapoints": r.Missing,
	}
}

// Runner drives a Pipeline through its stages.
type Runner struct {
	// FailOnMissing escalates a missing-row shortfall from metadata to a
	// run failure.
	FailOnMissing bool

	// Log defaults to slog.Default when nil.
	Log *slog.Logger
}

// Run executes extract, transform and load strictly in sequence. Any
// stage error propagates unchanged. Extracting zero records is fatal
// before transform or load run. After load, missing > 0 fails the run
// only when FailOnMissing is set; otherwise the shortfall is reported in
// the result.
func (r Runner) Run(ctx context.Context, p Pipeline) (RunResult, error) {
	log := r.Log
	if log == nil {
		log = slog.Default()
	}

	runID := uuid.New()
	log.Debug("Starting ETL run", "run_id", runID)

	log.Debug("Extracting data", "run_id", runID)
	extracted, err := p.Extract(ctx)
	if err != nil {
		return RunResult{}, err
	}
	if extracted.Len() == 0 {
		return RunResult{}, ErrNoData
	}

	log.Debug("Transforming data", "run_id", runID)
	transformed, err := p.Transform(extracted)
	if err != nil {
		return RunResult{}, err
	}

	log.Debug("Loading data", "run_id", runID)
	missing, err := p.Load(ctx, transformed)
	if err != nil {
		return RunResult{}, err
	}

	if missing > 0 && r.FailOnMissing {
		return RunResult{}, fmt.Errorf("%d %w", missing, ErrMissingEntries)
	}

	return RunResult{
		RunID:   runID,
		Total:   transformed.Len(),
		Missing: missing,
	}, nil
}
