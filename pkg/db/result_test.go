package db_test

import (
	"testing"

	"github.com/findata/findwh/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeMetadata(t *testing.T) {
	t.Run("disjoint keys", func(t *testing.T) {
		res, err := db.MergeMetadata(
			map[string]any{"a": 1},
			map[string]any{"b": 2},
		)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": 1, "b": 2}, res)
	})

	t.Run("same key same value", func(t *testing.T) {
		res, err := db.MergeMetadata(
			map[string]any{"a": 1},
			map[string]any{"a": 1},
		)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": 1}, res)
	})

	t.Run("same key different value", func(t *testing.T) {
		_, err := db.MergeMetadata(
			map[string]any{"a": 1},
			map[string]any{"a": 2},
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, db.ErrMetadataConflict)
		assert.Contains(t, err.Error(), `"a"`)
	})

	t.Run("nil maps", func(t *testing.T) {
		res, err := db.MergeMetadata(nil, map[string]any{"a": 1})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": 1}, res)

		res, err = db.MergeMetadata(map[string]any{"a": 1}, nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": 1}, res)

		res, err = db.MergeMetadata(nil, nil)
		require.NoError(t, err)
		assert.Empty(t, res)
	})

	t.Run("does not mutate inputs", func(t *testing.T) {
		a := map[string]any{"a": 1}
		b := map[string]any{"b": 2}
		_, err := db.MergeMetadata(a, b)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": 1}, a)
		assert.Equal(t, map[string]any{"b": 2}, b)
	})
}
