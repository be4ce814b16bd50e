// Package ingest orchestrates document ingestion: ledger-gated
// deduplication, parsing, chunking, embedding and vector index writes.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/khanlabs/brofessor/internal/chunker"
	"github.com/khanlabs/brofessor/internal/loader"
	"github.com/khanlabs/brofessor/internal/source"
	"github.com/khanlabs/brofessor/internal/storage"
)

// Embedder batches texts into embedding vectors.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Index persists chunk entries.
type Index interface {
	UpsertEntries(ctx context.Context, entries []*storage.Entry) error
}

// Ledger records which documents have completed ingestion.
type Ledger interface {
	IsIngested(id string) bool
	MarkIngested(id string) error
}

// ParseFunc converts raw document bytes to text based on the path's
// content type.
type ParseFunc func(path string, data []byte) (string, error)

// Result contains statistics about an ingestion run.
type Result struct {
	Candidates    int
	Ingested      int
	Skipped       int // Already in the ledger
	Unsupported   int // Unrecognized content type, silently skipped
	ChunksWritten int
	Failed        []FailedDoc
	Duration      time.Duration
}

// FailedDoc is a document that failed to ingest, with the reason. Failed
// documents are not marked in the ledger and are retried on the next run.
type FailedDoc struct {
	Path   string
	Reason string
}

// Pipeline runs document ingestion end to end. The ledger is updated only
// after the index write succeeds, so a crash mid-run never marks a
// partially written document as done.
type Pipeline struct {
	source   source.Source
	splitter *chunker.Splitter
	embedder Embedder
	index    Index
	ledger   Ledger
	parse    ParseFunc
	logger   *slog.Logger
}

// NewPipeline creates an ingestion pipeline. parse may be nil to use the
// default extension-based loader.
func NewPipeline(
	src source.Source,
	splitter *chunker.Splitter,
	embedder Embedder,
	index Index,
	ledger Ledger,
	parse ParseFunc,
	logger *slog.Logger,
) *Pipeline {
	if parse == nil {
		parse = loader.Parse
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:   src,
		splitter: splitter,
		embedder: embedder,
		index:    index,
		ledger:   ledger,
		parse:    parse,
		logger:   logger,
	}
}

// Run ingests every candidate document not already in the ledger. One
// document's failure never aborts the batch: it is recorded and the run
// continues. Re-running over an unchanged document set writes nothing.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{}

	paths, err := p.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	result.Candidates = len(paths)
	p.logger.Info("Starting ingestion", "candidates", len(paths))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if p.ledger.IsIngested(path) {
			result.Skipped++
			continue
		}

		chunks, err := p.processDocument(ctx, path)
		if err != nil {
			if errors.Is(err, loader.ErrUnsupportedType) {
				result.Unsupported++
				continue
			}
			p.logger.Warn("Failed to ingest document", "path", path, "error", err)
			result.Failed = append(result.Failed, FailedDoc{
				Path:   path,
				Reason: err.Error(),
			})
			continue
		}

		result.Ingested++
		result.ChunksWritten += chunks
	}

	result.Duration = time.Since(start)
	p.logger.Info("Ingestion complete",
		"ingested", result.Ingested,
		"skipped", result.Skipped,
		"unsupported", result.Unsupported,
		"failed", len(result.Failed),
		"chunks", result.ChunksWritten,
		"duration", result.Duration,
	)

	return result, nil
}

// processDocument handles the full path for one document and returns the
// number of chunks written.
func (p *Pipeline) processDocument(ctx context.Context, path string) (int, error) {
	doc, err := p.source.Fetch(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}

	text, err := p.parse(doc.Path, doc.Data)
	if err != nil {
		if errors.Is(err, loader.ErrUnsupportedType) {
			return 0, err
		}
		return 0, fmt.Errorf("parse: %w", err)
	}

	chunks := p.splitter.Split(text)
	p.logger.Debug("Chunked document", "path", path, "chunks", len(chunks))

	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, chunk := range chunks {
			texts[i] = chunk.Text
		}

		embeddings, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("embed: %w", err)
		}

		entries := make([]*storage.Entry, len(chunks))
		for i, chunk := range chunks {
			entries[i] = &storage.Entry{
				ID:         uuid.New().String(),
				Source:     path,
				ChunkIndex: chunk.Index,
				Text:       chunk.Text,
				Vector:     embeddings[i],
			}
		}

		if err := p.index.UpsertEntries(ctx, entries); err != nil {
			return 0, fmt.Errorf("store entries: %w", err)
		}
	}

	// Only after the index write succeeded.
	if err := p.ledger.MarkIngested(path); err != nil {
		return 0, fmt.Errorf("mark ingested: %w", err)
	}

	p.logger.Info("Ingested document", "path", path, "chunks", len(chunks))
	return len(chunks), nil
}
