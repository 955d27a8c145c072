package ioingest

import (
	"context"
	"fmt"

	"github.com/findata/findwh/pkg/db"
	"github.com/findata/findwh/pkg/etl"
)

// Warehouse objects the ingest writes to.
const (
	RawSchema  = "raw_fin_data"
	CoreSchema = "core_fin_data"
	OHLCTable  = "ohlc_daily"

	// OHLCInsertFile is the insert template for the raw OHLC table,
	// relative to the SQL directory.
	OHLCInsertFile = "raw/dml/ohlc_daily_insert.sql"
)

// OHLCPipeline is the ETL pipeline for one symbol's daily bar history.
// Extract pulls the bars from the quote provider, Transform repairs
// inconsistent bars, Load batch-inserts them into the raw OHLC table.
type OHLCPipeline struct {
	Symbol   string
	Provider QuoteProvider
	Session  db.Session
}

var _ etl.Pipeline = (*OHLCPipeline)(nil)

func (p *OHLCPipeline) Extract(ctx context.Context) (*db.Table, error) {
	return p.Provider.DailyBars(ctx, p.Symbol)
}

// Transform repairs bars where provider values are inconsistent, a
// known artifact around split and dividend adjustments. The repair
// widens the range instead of dropping the bar: high is raised to the
// open, low is lowered to the open, and close is raised to the repaired
// low.
func (p *OHLCPipeline) Transform(data *db.Table) (*db.Table, error) {
	res := db.NewTable(data.Columns)

	for i, record := range data.Records {
		open, high, low, cls, err := barPrices(record)
		if err != nil {
			return nil, fmt.Errorf("symbol %s, record %d: %w", p.Symbol, i, err)
		}

		if open > high {
			high = open
		}
		if open < low {
			low = open
		}
		if cls < low {
			cls = low
		}

		fixed := make([]any, len(record))
		copy(fixed, record)
		fixed[1], fixed[2], fixed[3], fixed[4] = open, high, low, cls
		res.Records = append(res.Records, fixed)
	}
	return res, nil
}

// Load batch-inserts the bars through the raw insert template and
// reports rows that did not land. Conflicting days are dropped by the
// template's ON CONFLICT clause, so reruns are cheap and the shortfall
// count stays meaningful.
func (p *OHLCPipeline) Load(ctx context.Context, data *db.Table) (int, error) {
	res, err := p.Session.ExecuteInsert(ctx, data, RawSchema, OHLCTable,
		db.InsertOptions{
			Filename:      OHLCInsertFile,
			Parameters:    map[string]string{"asset_id": p.Symbol},
			WarnOnMissing: true,
		})
	if err != nil {
		return 0, err
	}

	missing, ok := res.Metadata["missing"].(int)
	if !ok {
		return 0, fmt.Errorf(
			"insert result carries no missing count for %s", p.Symbol,
		)
	}
	return missing, nil
}

func barPrices(record []any) (open, high, low, cls float64, err error) {
	if len(record) != len(BarColumns) {
		return 0, 0, 0, 0, fmt.Errorf(
			"bar has %d fields, want %d", len(record), len(BarColumns),
		)
	}

	prices := make([]float64, 4)
	for i := 1; i < 5; i++ {
		v, ok := record[i].(float64)
		if !ok {
			return 0, 0, 0, 0, fmt.Errorf(
				"%s value %v is not a number", BarColumns[i], record[i],
			)
		}
		prices[i-1] = v
	}
	return prices[0], prices[1], prices[2], prices[3], nil
}
