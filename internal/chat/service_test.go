package chat

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khanlabs/brofessor/internal/storage"
)

type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.vector, s.err
}

type stubSearcher struct {
	results []*storage.ScoredEntry
	err     error
}

func (s *stubSearcher) Search(ctx context.Context, vector []float32, topK int) ([]*storage.ScoredEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	if topK < len(s.results) {
		return s.results[:topK], nil
	}
	return s.results, nil
}

type stubCompleter struct {
	calls    int
	system   string
	user     string
	response string
	err      error
}

func (s *stubCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	s.calls++
	s.system = system
	s.user = user
	return s.response, s.err
}

func scoredEntry(text string, score float64) *storage.ScoredEntry {
	return &storage.ScoredEntry{
		Entry: &storage.Entry{ID: "id", Source: "doc.txt", Text: text},
		Score: score,
	}
}

func TestAnswer_EmptyIndexShortCircuits(t *testing.T) {
	completer := &stubCompleter{response: "should not be called"}
	svc := NewService(
		&stubEmbedder{vector: []float32{0.1}},
		&stubSearcher{},
		completer,
		3, 0,
	)

	answer, err := svc.Answer(context.Background(), "what is a derivative?")
	require.NoError(t, err)

	assert.Equal(t, NoInformationReply, answer)
	assert.Equal(t, 0, completer.calls, "no generation call for empty context")
}

func TestAnswer_AssemblesContextInScoreOrder(t *testing.T) {
	completer := &stubCompleter{response: "a derivative measures rate of change"}
	svc := NewService(
		&stubEmbedder{vector: []float32{0.1}},
		&stubSearcher{results: []*storage.ScoredEntry{
			scoredEntry("most relevant", 0.92),
			scoredEntry("second", 0.81),
			scoredEntry("third", 0.74),
		}},
		completer,
		3, 0,
	)

	answer, err := svc.Answer(context.Background(), "what is a derivative?")
	require.NoError(t, err)

	assert.Equal(t, "a derivative measures rate of change", answer)
	assert.Equal(t, 1, completer.calls)
	assert.Equal(t, "what is a derivative?", completer.user)
	assert.Contains(t, completer.system, "most relevant\n\nsecond\n\nthird")
	assert.Contains(t, completer.system, "politely say you don't know")
}

func TestAnswer_EmbedFailure(t *testing.T) {
	svc := NewService(
		&stubEmbedder{err: fmt.Errorf("connection refused")},
		&stubSearcher{},
		&stubCompleter{},
		3, 0,
	)

	_, err := svc.Answer(context.Background(), "query")
	assert.ErrorIs(t, err, ErrRetrieval)
}

func TestAnswer_SearchFailure(t *testing.T) {
	svc := NewService(
		&stubEmbedder{vector: []float32{0.1}},
		&stubSearcher{err: fmt.Errorf("index down")},
		&stubCompleter{},
		3, 0,
	)

	_, err := svc.Answer(context.Background(), "query")
	assert.ErrorIs(t, err, ErrRetrieval)
}

func TestAnswer_GenerationFailure(t *testing.T) {
	svc := NewService(
		&stubEmbedder{vector: []float32{0.1}},
		&stubSearcher{results: []*storage.ScoredEntry{scoredEntry("context", 0.9)}},
		&stubCompleter{err: fmt.Errorf("%w: 503", ErrGeneration)},
		3, 0,
	)

	_, err := svc.Answer(context.Background(), "query")
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestAnswer_TopKLimit(t *testing.T) {
	completer := &stubCompleter{response: "ok"}
	svc := NewService(
		&stubEmbedder{vector: []float32{0.1}},
		&stubSearcher{results: []*storage.ScoredEntry{
			scoredEntry("one", 0.9),
			scoredEntry("two", 0.8),
			scoredEntry("three", 0.7),
			scoredEntry("four", 0.6),
			scoredEntry("five", 0.5),
		}},
		completer,
		3, 0,
	)

	_, err := svc.Answer(context.Background(), "query")
	require.NoError(t, err)

	assert.NotContains(t, completer.system, "four")
	assert.NotContains(t, completer.system, "five")
}
