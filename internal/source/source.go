// Package source abstracts where ingestion candidates come from: a local
// folder of documents or a directory inside a GitHub repository.
package source

import "context"

// Document is a raw source artifact identified by its path.
type Document struct {
	Path string // Stable identifier, relative to the source root
	Data []byte // Raw bytes; parsing happens per content type downstream
}

// Source lists candidate documents and fetches their contents.
type Source interface {
	// List returns the paths of all candidate documents.
	List(ctx context.Context) ([]string, error)

	// Fetch returns the document at the given path.
	Fetch(ctx context.Context, path string) (*Document, error)
}
