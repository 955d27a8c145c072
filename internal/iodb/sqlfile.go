package iodb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/findata/findwh/pkg/db"
)

// StatementDelimiter separates statements in multi-statement SQL files.
// Each segment is executed individually.
const StatementDelimiter = "-- AIF: NEW_STATEMENT --"

// loadSQL reads a SQL template relative to the configured SQL directory
// and substitutes {{ NAME }} placeholders with the given string values.
// Unresolved placeholders are left as-is. File names are lower-cased:
// placeholders like DWH_NAME are often upper case, which does not match
// the on-disk naming convention.
func (s *Session) loadSQL(filename string, params map[string]string) (string, error) {
	lower := strings.ToLower(filename)
	if lower != filename {
		s.log.Info("SQL file name was transformed to lower case", "file", lower)
	}

	path := filepath.Join(s.sqlDir, lower)
	s.log.Debug("Reading statement from file", "file", path)

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read SQL file: %w", err)
	}

	stmt := string(content)
	for name, value := range params {
		stmt = strings.ReplaceAll(stmt, "{{ "+name+" }}", value)
	}

	return stmt, nil
}

// splitStatements splits multi-statement SQL text on the delimiter and
// drops empty segments.
func splitStatements(content string) []string {
	var res []string
	for _, seg := range strings.Split(content, StatementDelimiter) {
		if seg = strings.TrimSpace(seg); seg != "" {
			res = append(res, seg)
		}
	}
	return res
}

// ExecuteStatementFromFile reads SQL from a template file, substitutes
// placeholders and executes each delimiter-separated segment in its own
// cursor scope. Per-segment metadata is merged; a merge conflict is
// logged and skipped rather than failing the call. The combined SQL text
// contains each segment terminated by ";" and a blank line.
func (s *Session) ExecuteStatementFromFile(
	ctx context.Context, filename string, params map[string]string,
) (*db.Result, error) {
	content, err := s.loadSQL(filename, params)
	if err != nil {
		return nil, err
	}

	statements := splitStatements(content)

	switch len(statements) {
	case 0:
		return &db.Result{}, nil
	case 1:
		return s.ExecuteStatement(ctx, statements[0])
	}

	merged := map[string]any{}
	var combined strings.Builder

	for _, stmt := range statements {
		res, err := s.ExecuteStatement(ctx, stmt)
		if err != nil {
			return nil, err
		}

		combined.WriteString(stmt + ";\n\n")

		if res.Metadata != nil {
			m, err := db.MergeMetadata(merged, res.Metadata)
			if err != nil {
				s.log.Warn(
					"Could not merge metadata from multiple SQL statements",
					"err", err,
				)
				continue
			}
			merged = m
		}
	}

	return &db.Result{
		Statement: strings.TrimSpace(combined.String()),
		Metadata:  merged,
	}, nil
}

// ExecuteQueryFromFile reads a query from a template file, substitutes
// placeholders and executes it.
func (s *Session) ExecuteQueryFromFile(
	ctx context.Context, filename string, params map[string]string,
) (*db.Result, error) {
	stmt, err := s.loadSQL(filename, params)
	if err != nil {
		return nil, err
	}
	return s.ExecuteQuery(ctx, stmt)
}
