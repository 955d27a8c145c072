package ioingest

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/findata/findwh/pkg/db"

	// Pure Go SQLite driver (no CGo).
	_ "modernc.org/sqlite"
)

// cacheSchema holds the downloaded daily bars keyed by symbol and day.
// The cache survives between runs so interrupted ingests do not hit the
// provider again for symbols that already downloaded.
const cacheSchema = `
CREATE TABLE IF NOT EXISTS quotes (
	symbol   TEXT NOT NULL,
	bar_date TEXT NOT NULL,
	open     REAL NOT NULL,
	high     REAL NOT NULL,
	low      REAL NOT NULL,
	close    REAL NOT NULL,
	volume   INTEGER NOT NULL,
	PRIMARY KEY (symbol, bar_date)
)`

// QuoteCache is a local SQLite store of downloaded daily bars.
type QuoteCache struct {
	db  *sql.DB
	log *slog.Logger
}

// OpenCache creates the cache directory if needed and opens the quote
// database inside it.
func OpenCache(dir string) (*QuoteCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	path := filepath.Join(dir, "quotes.db")
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open quote cache: %w", err)
	}

	if _, err := sqlDB.Exec(cacheSchema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to create quote cache schema: %w", err)
	}

	return &QuoteCache{
		db:  sqlDB,
		log: slog.Default().With("cache", path),
	}, nil
}

// Get returns the cached bars for a symbol ordered by date. An empty
// table means a cache miss.
func (c *QuoteCache) Get(ctx context.Context, symbol string) (*db.Table, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT bar_date, open, high, low, close, volume
		 FROM quotes WHERE symbol = ? ORDER BY bar_date`,
		symbol,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read quote cache: %w", err)
	}
	defer rows.Close()

	res := db.NewTable(BarColumns)
	for rows.Next() {
		var (
			date                 string
			open, high, low, cls float64
			volume               int64
		)
		if err := rows.Scan(&date, &open, &high, &low, &cls, &volume); err != nil {
			return nil, fmt.Errorf("failed to scan cached bar: %w", err)
		}
		res.Records = append(res.Records,
			[]any{date, open, high, low, cls, volume})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Put stores the bars for a symbol, replacing days that are already
// cached.
func (c *QuoteCache) Put(ctx context.Context, symbol string, bars *db.Table) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cache transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO quotes
		 (symbol, bar_date, open, high, low, close, volume)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare cache insert: %w", err)
	}
	defer stmt.Close()

	for _, record := range bars.Records {
		args := append([]any{symbol}, record...)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to cache bar for %q: %w", symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache transaction: %w", err)
	}

	c.log.Debug("Cached daily bars", "symbol", symbol, "bars", bars.Len())
	return nil
}

// Close closes the cache database.
func (c *QuoteCache) Close() error {
	return c.db.Close()
}

// CachingProvider serves bars from the local cache and falls back to
// the wrapped provider on a miss, caching what it fetched.
type CachingProvider struct {
	Provider QuoteProvider
	Cache    *QuoteCache
}

var _ QuoteProvider = (*CachingProvider)(nil)

func (p *CachingProvider) DailyBars(ctx context.Context, symbol string) (*db.Table, error) {
	cached, err := p.Cache.Get(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if cached.Len() > 0 {
		return cached, nil
	}

	bars, err := p.Provider.DailyBars(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if err := p.Cache.Put(ctx, symbol, bars); err != nil {
		return nil, err
	}
	return bars, nil
}
