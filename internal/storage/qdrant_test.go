package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Dimension validation happens before any network call, so these run
// against an unconnected Index.

func TestUpsertEntries_DimensionMismatch(t *testing.T) {
	idx := &Index{collection: "test", dimension: 4}

	entries := []*Entry{
		{ID: "a", Vector: []float32{0.1, 0.2, 0.3, 0.4}},
		{ID: "b", Vector: []float32{0.1, 0.2}},
	}

	err := idx.UpsertEntries(context.Background(), entries)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestUpsertEntries_Empty(t *testing.T) {
	idx := &Index{collection: "test", dimension: 4}

	assert.NoError(t, idx.UpsertEntries(context.Background(), nil))
}

func TestSearch_DimensionMismatch(t *testing.T) {
	idx := &Index{collection: "test", dimension: 4}

	_, err := idx.Search(context.Background(), []float32{0.1, 0.2}, 3)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestSearch_InvalidTopK(t *testing.T) {
	idx := &Index{collection: "test", dimension: 2}

	_, err := idx.Search(context.Background(), []float32{0.1, 0.2}, 0)
	assert.Error(t, err)
}
