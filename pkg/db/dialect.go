package db

import (
	"context"
	"database/sql"

	"github.com/findata/findwh/pkg/config"
)

// Dialect defines the per-engine behavior a backing database must
// implement: connection construction, statement syntax that differs
// between engines, and batch-insert execution.
//
// Design rationale:
//   - The engine is selected once, at session construction time, from the
//     configuration's declared type. Adding an engine means adding a
//     Dialect implementation, never branching on type strings deeper in
//     the call path.
//   - Batch inserts receive the transaction of the enclosing cursor scope
//     so that rollback and commit stay under the session's control.
type Dialect interface {
	// Open creates a database handle from structured settings. It does
	// not validate connectivity; the session pings on open.
	Open(cfg config.DatabaseConfig) (*sql.DB, error)

	// RefreshMaterializedViewStmt returns the engine-specific statement
	// text that refreshes the given materialized view.
	RefreshMaterializedViewStmt(view string) string

	// Placeholder returns the positional parameter token for a 1-based
	// index. Implementations are permissive: no bounds checking is done,
	// so 0 or negative indexes produce literal tokens like "$0".
	Placeholder(index int) string

	// WrapStatement wraps multi-statement SQL text if the engine requires
	// special wrapping. Most engines return the input unchanged.
	WrapStatement(stmt string) string

	// BatchInsertStmt executes a caller-supplied insert template once per
	// record of the payload, column order preserved, as a single batched
	// call inside the given transaction.
	BatchInsertStmt(ctx context.Context, tx *sql.Tx, stmt string, data *Table) error

	// BatchInsert executes the engine-default insert statement for the
	// payload. The column count is inferred from the first record, so an
	// empty payload fails with ErrEmptyTable.
	BatchInsert(ctx context.Context, tx *sql.Tx, data *Table, schema, table string) error
}
