package storage

// Entry is the persisted unit in the vector index: an identifier, an
// embedding vector and the chunk text plus its source metadata.
type Entry struct {
	ID         string    // UUID
	Source     string    // Source document identifier (path)
	ChunkIndex int       // Chunk position within the source document
	Text       string    // Original chunk text
	Vector     []float32 // Embedding, must match the collection dimension
}

// ScoredEntry pairs an Entry with its similarity score for a query.
type ScoredEntry struct {
	Entry *Entry
	Score float64
}
