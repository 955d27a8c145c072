// Package db defines the contracts for warehouse database access: the
// session facade (Session), the per-engine strategy (Dialect) and the
// value objects shared by both (Table, Result).
//
// Implementations live in internal/iodb. This package holds only pure
// types and logic so that pipeline code can depend on it without pulling
// in any driver.
package db

import "fmt"

// Table is a rectangular tabular payload with named columns and ordered
// records. Column order and record order are significant for insert-tuple
// construction; per-cell values round-trip exactly through insert and
// query operations.
type Table struct {
	Columns []string
	Records [][]any
}

// NewTable creates a Table with the given column names and records.
func NewTable(columns []string, records ...[]any) *Table {
	return &Table{Columns: columns, Records: records}
}

// Len returns the number of records. A nil table has zero records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// AppendRecord adds one record to the table. The number of values must
// match the number of columns.
func (t *Table) AppendRecord(values ...any) error {
	if len(values) != len(t.Columns) {
		return fmt.Errorf(
			"record has %d values, table has %d columns",
			len(values), len(t.Columns),
		)
	}
	t.Records = append(t.Records, values)
	return nil
}

// Cell returns the value at the given record index and column name.
func (t *Table) Cell(record int, column string) (any, error) {
	if t == nil || record < 0 || record >= len(t.Records) {
		return nil, fmt.Errorf("record index %d out of range", record)
	}
	for i, col := range t.Columns {
		if col == column {
			return t.Records[record][i], nil
		}
	}
	return nil, fmt.Errorf("unknown column %q", column)
}
