// Package iodb implements the warehouse database contracts from pkg/db
// for PostgreSQL. This is an impure I/O package: it owns connections,
// cursors and transactions.
package iodb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/findata/findwh/internal/ioconfig"
	"github.com/findata/findwh/pkg/config"
	"github.com/findata/findwh/pkg/db"
)

// Engine discriminators recognized in database configurations.
const (
	TypePostgres  = "POSTGRES"
	TypeSnowflake = "SNOWFLAKE"
)

// Session implements db.Session. One session owns exactly one connection
// between Open and Close; concurrent pipeline steps must use independent
// sessions.
type Session struct {
	name    string
	cfg     config.DatabaseConfig
	dialect db.Dialect
	sqlDir  string

	sqlDB *sql.DB
	conn  *sql.Conn

	log *slog.Logger
}

var _ db.Session = (*Session)(nil)

// NewSession resolves the named database configuration from the settings
// store and selects the engine dialect. It fails immediately when the
// name is absent or the engine type is unrecognized; no connection is
// made until Open.
func NewSession(store *ioconfig.Store, name string) (*Session, error) {
	dbCfg, err := store.Database(name)
	if err != nil {
		return nil, err
	}

	var dialect db.Dialect
	switch strings.ToUpper(dbCfg.Type) {
	case TypePostgres:
		dialect = PGDialect{}
	case TypeSnowflake:
		return nil, fmt.Errorf("snowflake is not available in this version")
	default:
		return nil, fmt.Errorf("unknown database type: %q", dbCfg.Type)
	}

	cfg, err := store.Config()
	if err != nil {
		return nil, err
	}

	return &Session{
		name:    name,
		cfg:     dbCfg,
		dialect: dialect,
		sqlDir:  cfg.SQLDir,
		log:     slog.Default().With("db_cfg", name),
	}, nil
}

// Open acquires the session's single connection and verifies it.
func (s *Session) Open(ctx context.Context) error {
	if s.conn != nil {
		return fmt.Errorf("session %q is already open", s.name)
	}

	s.log.Debug("Connecting to database")

	sqlDB, err := s.dialect.Open(s.cfg)
	if err != nil {
		return err
	}

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		sqlDB.Close()
		return fmt.Errorf("failed to acquire connection: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		sqlDB.Close()
		return fmt.Errorf("failed to verify connection: %w", err)
	}

	s.sqlDB = sqlDB
	s.conn = conn

	s.log.Debug("Connection to database established")
	return nil
}

// Close releases the connection. Closing without an active connection is
// a usage error.
func (s *Session) Close() error {
	if s.conn == nil {
		return fmt.Errorf("close: %w", db.ErrNoConnection)
	}

	err := s.conn.Close()
	if s.sqlDB != nil {
		if dbErr := s.sqlDB.Close(); err == nil {
			err = dbErr
		}
	}
	s.conn = nil
	s.sqlDB = nil

	s.log.Debug("Connection to database was closed")
	return err
}

// withCursor runs fn inside a fresh cursor scope: it verifies an active
// connection, begins a transaction, rolls back and returns the original
// error on failure, and commits on success. Every operation that touches
// the connection goes through here, so each operation is individually
// transactional.
func (s *Session) withCursor(
	ctx context.Context,
	fn func(tx *sql.Tx) (*db.Result, error),
) (*db.Result, error) {
	if s.conn == nil {
		return nil, db.ErrNoConnection
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	res, err := fn(tx)
	if err != nil {
		s.log.Warn("Error in database operation, rolling back", "err", err)
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Warn("Rollback failed", "err", rbErr)
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return res, nil
}

// CreateSchema issues an idempotent schema creation plus a descriptive
// comment, both in one cursor scope.
func (s *Session) CreateSchema(ctx context.Context, name, comment string) (*db.Result, error) {
	sqlSchema := fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s;", name)
	sqlComment := fmt.Sprintf("COMMENT ON SCHEMA %s IS '%s';", name, comment)

	res, err := s.withCursor(ctx, func(tx *sql.Tx) (*db.Result, error) {
		s.log.Info("Executing statement", "sql", sqlSchema)
		if _, err := tx.ExecContext(ctx, sqlSchema); err != nil {
			return nil, err
		}
		s.log.Info("Executing statement", "sql", sqlComment)
		if _, err := tx.ExecContext(ctx, sqlComment); err != nil {
			return nil, err
		}
		return &db.Result{Statement: sqlSchema + "\n " + sqlComment}, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Created schema", "schema", name)
	return res, nil
}

// DropTable drops the table if it exists.
func (s *Session) DropTable(ctx context.Context, name string) (*db.Result, error) {
	stmt := "DROP TABLE IF EXISTS " + name

	res, err := s.execInCursor(ctx, stmt)
	if err != nil {
		return nil, err
	}

	s.log.Info("Dropped table", "table", name)
	return res, nil
}

// DropView drops a regular or materialized view if it exists.
func (s *Session) DropView(ctx context.Context, name string, materialized bool) (*db.Result, error) {
	var mat string
	if materialized {
		mat = " MATERIALIZED"
	}
	stmt := "DROP" + mat + " VIEW IF EXISTS " + name

	res, err := s.execInCursor(ctx, stmt)
	if err != nil {
		return nil, err
	}

	s.log.Info("Dropped view", "view", name, "materialized", materialized)
	return res, nil
}

// RefreshMatView refreshes a materialized view using the dialect's
// refresh statement.
func (s *Session) RefreshMatView(ctx context.Context, view string) (*db.Result, error) {
	stmt := s.dialect.RefreshMaterializedViewStmt(view)

	res, err := s.execInCursor(ctx, stmt)
	if err != nil {
		return nil, err
	}

	s.log.Info("Refreshed view", "view", view)
	return res, nil
}

// ExecuteStatement executes arbitrary statement text and commits.
func (s *Session) ExecuteStatement(ctx context.Context, stmt string) (*db.Result, error) {
	return s.execInCursor(ctx, s.dialect.WrapStatement(stmt))
}

// ExecuteQuery executes query text and materializes the full result set,
// column names taken from the driver's result description.
func (s *Session) ExecuteQuery(ctx context.Context, stmt string) (*db.Result, error) {
	return s.withCursor(ctx, func(tx *sql.Tx) (*db.Result, error) {
		s.log.Info("Executing query", "sql", stmt)

		rows, err := tx.QueryContext(ctx, stmt)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		columns, err := rows.Columns()
		if err != nil {
			return nil, err
		}

		table := db.NewTable(columns)
		for rows.Next() {
			values := make([]any, len(columns))
			pointers := make([]any, len(columns))
			for i := range values {
				pointers[i] = &values[i]
			}
			if err := rows.Scan(pointers...); err != nil {
				return nil, err
			}
			table.Records = append(table.Records, values)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}

		return &db.Result{Statement: stmt, Rows: table}, nil
	})
}

// ExecuteInsert batch-inserts the payload with before/after row-count
// reconciliation. The count delta cannot identify individual rows; it
// detects a net shortfall only, and assumes no concurrent writers on the
// target table during the session.
func (s *Session) ExecuteInsert(
	ctx context.Context,
	data *db.Table,
	schema, table string,
	opts db.InsertOptions,
) (*db.Result, error) {
	countStmt := fmt.Sprintf("select count(*) from %s.%s", schema, table)

	before, err := s.countRows(ctx, countStmt)
	if err != nil {
		return nil, err
	}

	if opts.Filename != "" {
		stmt, err := s.loadSQL(opts.Filename, opts.Parameters)
		if err != nil {
			return nil, err
		}
		stmt = strings.ReplaceAll(stmt, "{SCHEMA_NAME}", schema)
		stmt = strings.ReplaceAll(stmt, "{TABLE_NAME}", table)

		if data.Len() > 0 {
			_, err = s.withCursor(ctx, func(tx *sql.Tx) (*db.Result, error) {
				s.log.Debug("Executing batch insert",
					"sql", stmt, "records", data.Len())
				return nil, s.dialect.BatchInsertStmt(ctx, tx, stmt, data)
			})
			if err != nil {
				return nil, err
			}
		}
	} else {
		_, err = s.withCursor(ctx, func(tx *sql.Tx) (*db.Result, error) {
			s.log.Debug("Executing batch insert",
				"schema", schema, "table", table, "records", data.Len())
			return nil, s.dialect.BatchInsert(ctx, tx, data, schema, table)
		})
		if err != nil {
			return nil, err
		}
	}

	after, err := s.countRows(ctx, countStmt)
	if err != nil {
		return nil, err
	}

	delta := after - before
	missing := data.Len() - delta

	s.log.Info("Added datapoints",
		"inserted", delta,
		"submitted", data.Len(),
		"table", schema+"."+table,
	)
	if missing > 0 && opts.WarnOnMissing {
		s.log.Warn("Missing datapoints", "missing", missing)
	}

	return &db.Result{
		Statement: "Batch insert",
		Metadata:  map[string]any{"missing": missing},
	}, nil
}

// execInCursor executes one statement in its own cursor scope with its
// own commit.
func (s *Session) execInCursor(ctx context.Context, stmt string) (*db.Result, error) {
	return s.withCursor(ctx, func(tx *sql.Tx) (*db.Result, error) {
		s.log.Info("Executing statement", "sql", stmt)
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, err
		}
		return &db.Result{Statement: stmt}, nil
	})
}

// countRows runs a count query and returns the single integer result.
func (s *Session) countRows(ctx context.Context, stmt string) (int, error) {
	res, err := s.ExecuteQuery(ctx, stmt)
	if err != nil {
		return 0, err
	}
	if res.Rows.Len() == 0 || len(res.Rows.Records[0]) == 0 {
		return 0, fmt.Errorf("count query %q returned no rows", stmt)
	}

	switch v := res.Rows.Records[0][0].(type) {
	case int64:
		return int(v), nil
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("count query returned unexpected type %T", v)
	}
}
