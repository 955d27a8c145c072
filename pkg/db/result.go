package db

import "fmt"

// Result holds the outcome of one session operation: the SQL text that
// was executed, optional operation-specific metadata (e.g. the number of
// missing rows after an insert) and, for query operations only, the
// materialized result table.
type Result struct {
	Statement string
	Metadata  map[string]any
	Rows      *Table
}

// MergeMetadata merges two metadata maps into a new map. A key present in
// both maps with equal values is kept once; the same key with differing
// values fails with ErrMetadataConflict rather than silently overwriting.
// Nil maps are treated as empty.
func MergeMetadata(a, b map[string]any) (map[string]any, error) {
	res := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		res[k] = v
	}
	for k, v := range b {
		if existing, ok := res[k]; ok {
			if existing != v {
				return nil, fmt.Errorf(
					"%w for key %q", ErrMetadataConflict, k,
				)
			}
			continue
		}
		res[k] = v
	}
	return res, nil
}
