// Package chat answers user queries from the vector index: embed the query,
// retrieve the most similar chunks, and ask the chat model to answer from
// that context only.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/khanlabs/brofessor/internal/storage"
)

// NoInformationReply is returned when retrieval finds nothing relevant.
// No generation call is made in that case.
const NoInformationReply = "I'm sorry, I couldn't find any relevant information."

// contextDelimiter separates retrieved chunks in the assembled context block.
const contextDelimiter = "\n\n"

// ErrRetrieval marks failures while embedding the query or searching the
// index.
var ErrRetrieval = errors.New("retrieval error")

// QueryEmbedder embeds a single query text.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher answers nearest-neighbor queries over the index.
type Searcher interface {
	Search(ctx context.Context, vector []float32, topK int) ([]*storage.ScoredEntry, error)
}

// Completer generates an answer from a system instruction and user message.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Service is the retrieval-answering service.
type Service struct {
	embedder  QueryEmbedder
	index     Searcher
	generator Completer
	topK      int
	timeout   time.Duration
}

// NewService creates a Service. topK defaults to 3 and timeout to 30s when
// not positive.
func NewService(embedder QueryEmbedder, index Searcher, generator Completer, topK int, timeout time.Duration) *Service {
	if topK < 1 {
		topK = 3
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{
		embedder:  embedder,
		index:     index,
		generator: generator,
		topK:      topK,
		timeout:   timeout,
	}
}

// Answer embeds the query, retrieves the top-K most similar chunks,
// assembles them into a context block in descending-similarity order and
// asks the chat model to answer from that context. Each external call runs
// under a bounded timeout.
func (s *Service) Answer(ctx context.Context, query string) (string, error) {
	embedCtx, cancel := context.WithTimeout(ctx, s.timeout)
	vector, err := s.embedder.Embed(embedCtx, query)
	cancel()
	if err != nil {
		return "", fmt.Errorf("%w: embed query: %v", ErrRetrieval, err)
	}

	searchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	results, err := s.index.Search(searchCtx, vector, s.topK)
	cancel()
	if err != nil {
		return "", fmt.Errorf("%w: search index: %v", ErrRetrieval, err)
	}

	contextBlock := assembleContext(results)
	if contextBlock == "" {
		return NoInformationReply, nil
	}

	system := fmt.Sprintf(
		"You are a helpful and friendly chatbot. Use the following context to "+
			"answer the user's question. If the information is not in the context, "+
			"politely say you don't know.\n\nContext:\n%s",
		contextBlock,
	)

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	answer, err := s.generator.Complete(genCtx, system, query)
	if err != nil {
		return "", err
	}

	return answer, nil
}

// assembleContext joins retrieved chunk texts in result order, which is
// already descending by similarity.
func assembleContext(results []*storage.ScoredEntry) string {
	var texts []string
	for _, r := range results {
		if r.Entry.Text != "" {
			texts = append(texts, r.Entry.Text)
		}
	}
	return strings.Join(texts, contextDelimiter)
}
