package etl_test

import (
	"context"
	"errors"
	"testing"

	"github.com/findata/findwh/pkg/db"
	"github.com/findata/findwh/pkg/etl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPipeline records which stages ran and returns canned values.
type stubPipeline struct {
	extracted *db.Table
	extractErr error

	transformErr error

	missing int
	loadErr error

	extractCalled   bool
	transformCalled bool
	loadCalled      bool
}

func (s *stubPipeline) Extract(_ context.Context) (*db.Table, error) {
	s.extractCalled = true
	return s.extracted, s.extractErr
}

func (s *stubPipeline) Transform(data *db.Table) (*db.Table, error) {
	s.transformCalled = true
	if s.transformErr != nil {
		return nil, s.transformErr
	}
	return data, nil
}

func (s *stubPipeline) Load(_ context.Context, _ *db.Table) (int, error) {
	s.loadCalled = true
	return s.missing, s.loadErr
}

func threeRows() *db.Table {
	return db.NewTable(
		[]string{"price_date", "close_price"},
		[]any{"2026-01-05", 1.0},
		[]any{"2026-01-06", 2.0},
		[]any{"2026-01-07", 3.0},
	)
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("success with counts", func(t *testing.T) {
		p := &stubPipeline{extracted: threeRows(), missing: 0}
		res, err := etl.Runner{}.Run(ctx, p)
		require.NoError(t, err)

		assert.Equal(t, 3, res.Total)
		assert.Equal(t, 0, res.Missing)
		assert.NotEqual(t, res.RunID.String(), "00000000-0000-0000-0000-000000000000")
		assert.Equal(t, map[string]any{
			"Total datapoints":   3,
			"Missing datapoints": 0,
		}, res.Metadata())
	})

	t.Run("empty extraction stops before transform and load", func(t *testing.T) {
		p := &stubPipeline{extracted: db.NewTable([]string{"a"})}
		_, err := etl.Runner{}.Run(ctx, p)
		require.Error(t, err)
		assert.ErrorIs(t, err, etl.ErrNoData)
		assert.True(t, p.extractCalled)
		assert.False(t, p.transformCalled)
		assert.False(t, p.loadCalled)
	})

	t.Run("missing rows tolerated by default", func(t *testing.T) {
		p := &stubPipeline{extracted: threeRows(), missing: 2}
		res, err := etl.Runner{FailOnMissing: false}.Run(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Missing)
		assert.Equal(t, 2, res.Metadata()["Missing datapoints"])
	})

	t.Run("missing rows fatal when configured", func(t *testing.T) {
		p := &stubPipeline{extracted: threeRows(), missing: 2}
		_, err := etl.Runner{FailOnMissing: true}.Run(ctx, p)
		require.Error(t, err)
		assert.ErrorIs(t, err, etl.ErrMissingEntries)
	})

	t.Run("stage errors propagate unchanged", func(t *testing.T) {
		extractErr := errors.New("provider down")
		p := &stubPipeline{extractErr: extractErr}
		_, err := etl.Runner{}.Run(ctx, p)
		assert.ErrorIs(t, err, extractErr)

		transformErr := errors.New("bad shape")
		p = &stubPipeline{extracted: threeRows(), transformErr: transformErr}
		_, err = etl.Runner{}.Run(ctx, p)
		assert.ErrorIs(t, err, transformErr)
		assert.False(t, p.loadCalled)

		loadErr := errors.New("constraint violation")
		p = &stubPipeline{extracted: threeRows(), loadErr: loadErr}
		_, err = etl.Runner{}.Run(ctx, p)
		assert.ErrorIs(t, err, loadErr)
	})
}
