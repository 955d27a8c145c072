// Package ioingest fetches daily OHLC quotes from an external provider
// and loads them into the raw layer of the warehouse. This is an impure
// I/O package: it talks HTTP, reads and writes the local quote cache and
// drives database sessions.
package ioingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/findata/findwh/pkg/db"
)

// BarColumns is the canonical column order for daily bars, matching the
// column order of the raw OHLC table.
var BarColumns = []string{"date", "open", "high", "low", "close", "volume"}

// QuoteProvider supplies the full daily bar history for one symbol.
type QuoteProvider interface {
	DailyBars(ctx context.Context, symbol string) (*db.Table, error)
}

// HTTPProvider fetches daily bars from a CSV quote endpoint such as
// stooq's download URL.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

var _ QuoteProvider = (*HTTPProvider)(nil)

// NewHTTPProvider creates a provider for the given endpoint base URL.
func NewHTTPProvider(baseURL string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     slog.Default().With("provider", "http"),
	}
}

// DailyBars downloads and parses the daily history for one symbol.
func (p *HTTPProvider) DailyBars(ctx context.Context, symbol string) (*db.Table, error) {
	quoteURL := fmt.Sprintf(
		"%s/?s=%s&i=d",
		p.baseURL, url.QueryEscape(strings.ToLower(symbol)),
	)
	p.log.Debug("Fetching daily bars", "symbol", symbol, "url", quoteURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, quoteURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quotes for %q: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf(
			"quote endpoint returned %s for %q", resp.Status, symbol,
		)
	}

	return parseBarsCSV(resp.Body)
}

// parseBarsCSV reads provider CSV with a Date,Open,High,Low,Close,Volume
// header into a bar table. Dates stay as YYYY-MM-DD strings, prices
// become float64, volume becomes int64. Rows with empty price fields
// (market holidays, suspended listings) are skipped.
func parseBarsCSV(r io.Reader) (*db.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(BarColumns)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i, name := range BarColumns {
		if !strings.EqualFold(header[i], name) {
			return nil, fmt.Errorf(
				"unexpected CSV header %q, want %q", header[i], name,
			)
		}
	}

	res := db.NewTable(BarColumns)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		record, ok, err := parseBarRow(row)
		if err != nil {
			return nil, err
		}
		if ok {
			res.Records = append(res.Records, record)
		}
	}
	return res, nil
}

func parseBarRow(row []string) ([]any, bool, error) {
	for _, field := range row[1:5] {
		if strings.TrimSpace(field) == "" {
			return nil, false, nil
		}
	}

	record := make([]any, len(BarColumns))
	record[0] = row[0]

	for i := 1; i < 5; i++ {
		v, err := strconv.ParseFloat(row[i], 64)
		if err != nil {
			return nil, false, fmt.Errorf(
				"bad %s value %q on %s: %w", BarColumns[i], row[i], row[0], err,
			)
		}
		record[i] = v
	}

	var volume int64
	if field := strings.TrimSpace(row[5]); field != "" {
		v, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			// Some providers report fractional volume.
			f, ferr := strconv.ParseFloat(field, 64)
			if ferr != nil {
				return nil, false, fmt.Errorf(
					"bad volume value %q on %s: %w", field, row[0], err,
				)
			}
			v = int64(f)
		}
		volume = v
	}
	record[5] = volume
	return record, true, nil
}
