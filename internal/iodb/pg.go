package iodb

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/findata/findwh/pkg/config"
	"github.com/findata/findwh/pkg/db"

	// Registers the pgx driver with database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PGDialect implements db.Dialect for PostgreSQL via the pgx stdlib
// driver.
type PGDialect struct{}

// DSN builds the connection string from structured settings. Every space
// character is stripped from the whole string. This also mangles
// passwords or database names that legitimately contain spaces; the
// behavior is kept for compatibility with existing deployments.
func (PGDialect) DSN(cfg config.DatabaseConfig) string {
	dsn := fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName,
	)
	return strings.ReplaceAll(dsn, " ", "")
}

// Open creates a database handle. Connectivity is verified by the
// session's ping on open, not here.
func (d PGDialect) Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	sqlDB, err := sql.Open("pgx", d.DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database handle: %w", err)
	}
	return sqlDB, nil
}

// RefreshMaterializedViewStmt returns the PostgreSQL refresh statement.
func (PGDialect) RefreshMaterializedViewStmt(view string) string {
	return "REFRESH MATERIALIZED VIEW " + view
}

// Placeholder returns the positional token for a 1-based index. No
// bounds checking: 0 and negative indexes yield "$0", "$-1" literally.
func (PGDialect) Placeholder(index int) string {
	return "$" + strconv.Itoa(index)
}

// WrapStatement is a no-op: PostgreSQL needs no special wrapping for
// multi-statement text.
func (PGDialect) WrapStatement(stmt string) string {
	return stmt
}

// BatchInsertStmt executes the caller-supplied template once per record
// through a single prepared statement, values in column order.
func (PGDialect) BatchInsertStmt(
	ctx context.Context, tx *sql.Tx, stmt string, data *db.Table,
) error {
	prepared, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer prepared.Close()

	for i, record := range data.Records {
		if _, err := prepared.ExecContext(ctx, record...); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}
	return nil
}

// BatchInsert builds the engine-default insert statement with schema and
// table upper-cased and one placeholder per column, the column count
// inferred from the first record. An empty payload cannot provide a
// column count and fails rather than silently inserting zero rows.
func (d PGDialect) BatchInsert(
	ctx context.Context, tx *sql.Tx, data *db.Table, schema, table string,
) error {
	if data.Len() == 0 {
		return fmt.Errorf(
			"batch insert into %s.%s: %w", schema, table, db.ErrEmptyTable,
		)
	}

	placeholders := make([]string, len(data.Records[0]))
	for i := range placeholders {
		placeholders[i] = d.Placeholder(i + 1)
	}

	stmt := fmt.Sprintf(
		"INSERT INTO %s.%s VALUES (%s)",
		strings.ToUpper(schema),
		strings.ToUpper(table),
		strings.Join(placeholders, ", "),
	)

	return d.BatchInsertStmt(ctx, tx, stmt, data)
}
