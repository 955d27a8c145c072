package db

import "context"

// Operation names accepted by Session.Call. Generic callers (the CLI's
// DDL runner, tests) know an operation only by its name at runtime.
const (
	OpCreateSchema             = "create_schema"
	OpDropTable                = "drop_table"
	OpDropView                 = "drop_view"
	OpRefreshMatView           = "refresh_mat_view"
	OpExecuteStatement         = "execute_statement"
	OpExecuteStatementFromFile = "execute_statement_from_file"
	OpExecuteQuery             = "execute_query"
	OpExecuteQueryFromFile     = "execute_query_from_file"
	OpExecuteInsert            = "execute_insert"
)

// InsertOptions modify the behavior of ExecuteInsert.
type InsertOptions struct {
	// Filename names a SQL template with a custom insert statement. When
	// empty, the engine-default batch insert is used.
	Filename string

	// Parameters substitute {{ NAME }} placeholders in the template.
	Parameters map[string]string

	// WarnOnMissing logs a warning when fewer rows arrive than were
	// submitted. The shortfall is reported via metadata either way.
	WarnOnMissing bool
}

// CallArgs carries the arguments for a dynamically dispatched operation.
// Only the fields relevant to the named operation are read.
type CallArgs struct {
	SchemaName    string
	SchemaComment string
	TableName     string
	ViewName      string
	Materialized  bool
	Statement     string
	Filename      string
	Parameters    map[string]string
	Data          *Table
	Schema        string
	WarnOnMissing bool
}

// Session is the connection-scoped facade for warehouse operations. A
// session owns exactly one connection between Open and Close and must not
// be shared across concurrent callers; concurrent pipeline steps use
// independent sessions. Every operation runs in its own cursor scope with
// guaranteed release and rollback-on-error, and every write operation
// commits individually.
type Session interface {
	// Open acquires the session's connection. The session is unusable
	// before Open and after Close.
	Open(ctx context.Context) error

	// Close releases the connection. Closing a session without an active
	// connection is a usage error.
	Close() error

	// CreateSchema issues an idempotent "create if not exists" for the
	// schema and sets a descriptive comment, as one logical operation.
	CreateSchema(ctx context.Context, name, comment string) (*Result, error)

	// DropTable drops the table if it exists. The name may be
	// schema-qualified.
	DropTable(ctx context.Context, name string) (*Result, error)

	// DropView drops a regular or materialized view if it exists.
	DropView(ctx context.Context, name string, materialized bool) (*Result, error)

	// RefreshMatView refreshes a materialized view using the dialect's
	// refresh statement.
	RefreshMatView(ctx context.Context, view string) (*Result, error)

	// ExecuteStatement executes arbitrary statement text and commits.
	ExecuteStatement(ctx context.Context, stmt string) (*Result, error)

	// ExecuteStatementFromFile reads SQL from a template file,
	// substitutes named placeholders, splits on the multi-statement
	// delimiter and executes each segment sequentially.
	ExecuteStatementFromFile(ctx context.Context, filename string, params map[string]string) (*Result, error)

	// ExecuteQuery executes query text and materializes the full result
	// set into a Table.
	ExecuteQuery(ctx context.Context, stmt string) (*Result, error)

	// ExecuteQueryFromFile reads a query from a template file,
	// substitutes placeholders and executes it.
	ExecuteQueryFromFile(ctx context.Context, filename string, params map[string]string) (*Result, error)

	// ExecuteInsert batch-inserts the payload into schema.table with
	// before/after row-count reconciliation. The result metadata carries
	// the "missing" count; a shortfall is never an error here.
	ExecuteInsert(ctx context.Context, data *Table, schema, table string, opts InsertOptions) (*Result, error)

	// Call dispatches a named operation. Private names and unknown names
	// are rejected.
	Call(ctx context.Context, method string, args CallArgs) (*Result, error)
}
