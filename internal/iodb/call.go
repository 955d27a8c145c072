package iodb

import (
	"context"
	"fmt"
	"strings"

	"github.com/findata/findwh/pkg/db"
)

// methodFunc adapts one session operation to the generic Call signature.
type methodFunc func(ctx context.Context, args db.CallArgs) (*db.Result, error)

// methods maps operation names to their implementations. The map is the
// whole dispatch surface: a name not present here cannot be called
// generically, so internal helpers stay unreachable by construction.
func (s *Session) methods() map[string]methodFunc {
	return map[string]methodFunc{
		db.OpCreateSchema: func(ctx context.Context, a db.CallArgs) (*db.Result, error) {
			return s.CreateSchema(ctx, a.SchemaName, a.SchemaComment)
		},
		db.OpDropTable: func(ctx context.Context, a db.CallArgs) (*db.Result, error) {
			return s.DropTable(ctx, a.TableName)
		},
		db.OpDropView: func(ctx context.Context, a db.CallArgs) (*db.Result, error) {
			return s.DropView(ctx, a.ViewName, a.Materialized)
		},
		db.OpRefreshMatView: func(ctx context.Context, a db.CallArgs) (*db.Result, error) {
			return s.RefreshMatView(ctx, a.ViewName)
		},
		db.OpExecuteStatement: func(ctx context.Context, a db.CallArgs) (*db.Result, error) {
			return s.ExecuteStatement(ctx, a.Statement)
		},
		db.OpExecuteStatementFromFile: func(ctx context.Context, a db.CallArgs) (*db.Result, error) {
			return s.ExecuteStatementFromFile(ctx, a.Filename, a.Parameters)
		},
		db.OpExecuteQuery: func(ctx context.Context, a db.CallArgs) (*db.Result, error) {
			return s.ExecuteQuery(ctx, a.Statement)
		},
		db.OpExecuteQueryFromFile: func(ctx context.Context, a db.CallArgs) (*db.Result, error) {
			return s.ExecuteQueryFromFile(ctx, a.Filename, a.Parameters)
		},
		db.OpExecuteInsert: func(ctx context.Context, a db.CallArgs) (*db.Result, error) {
			return s.ExecuteInsert(ctx, a.Data, a.Schema, a.TableName, db.InsertOptions{
				Filename:      a.Filename,
				Parameters:    a.Parameters,
				WarnOnMissing: a.WarnOnMissing,
			})
		},
	}
}

// Call dispatches a named operation for generic callers that know the
// operation only as a runtime string. Private names are rejected before
// lookup; unknown names and operations that produce no result are
// errors.
func (s *Session) Call(ctx context.Context, method string, args db.CallArgs) (*db.Result, error) {
	s.log.Debug("Dispatching session method", "method", method)

	if strings.HasPrefix(method, "_") {
		return nil, fmt.Errorf("%q: %w", method, db.ErrPrivateMethod)
	}

	fn, ok := s.methods()[method]
	if !ok {
		return nil, fmt.Errorf("%q: %w", method, db.ErrUnknownMethod)
	}

	res, err := fn(ctx, args)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("method %q did not return a result", method)
	}
	return res, nil
}
