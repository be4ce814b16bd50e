package storage

import "errors"

var (
	// ErrIndexUnreachable indicates Qdrant could not be reached at startup.
	ErrIndexUnreachable = errors.New("vector index unreachable")

	// ErrDimensionMismatch indicates a vector whose dimensionality differs
	// from the collection's configured dimension, or an existing collection
	// configured with a different dimension than expected. Fatal: silently
	// recreating the collection would corrupt every future query.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
