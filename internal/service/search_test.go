package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivesearch/internal/domain"
)

func TestSearchRejectsEmptyQuery(t *testing.T) {
	emb := &mockEmbedder{vector: []float32{1, 0, 0}}
	idx := newMockIndex()
	svc := NewSearchService(emb, idx, 5)

	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := svc.Search(context.Background(), q, 5)
		require.ErrorIs(t, err, domain.ErrInvalidQuery, "query %q", q)
	}
	assert.Equal(t, 0, emb.callCount(), "invalid queries must be rejected before embedding")
	assert.Equal(t, 0, idx.queryCalls)
}

func TestSearchPreservesIndexOrder(t *testing.T) {
	idx := newMockIndex()
	idx.hits = []domain.Match{
		{ID: "a", Score: 0.9, Metadata: domain.EntryMetadata{Title: "Alpha", Link: "https://drive.google.com/file/d/a/view"}},
		{ID: "b", Score: 0.7, Metadata: domain.EntryMetadata{Title: "Beta", Link: "https://drive.google.com/file/d/b/view"}},
		{ID: "c", Score: 0.5, Metadata: domain.EntryMetadata{Title: "Gamma", Link: "https://drive.google.com/file/d/c/view"}},
	}
	svc := NewSearchService(&mockEmbedder{vector: []float32{1, 0, 0}}, idx, 5)

	results, err := svc.Search(context.Background(), "meeting notes", 3)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{results[0].ID, results[1].ID, results[2].ID})
	assert.Equal(t, "Alpha", results[0].Title)
	assert.Equal(t, "https://drive.google.com/file/d/b/view", results[1].Link)
	assert.InDelta(t, 0.9, results[0].Score, 1e-9)
}

func TestSearchNoMatches(t *testing.T) {
	svc := NewSearchService(&mockEmbedder{vector: []float32{1, 0, 0}}, newMockIndex(), 5)

	results, err := svc.Search(context.Background(), "anything", 5)

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotNil(t, results, "no matches is an empty slice, not an error")
}

func TestSearchAppliesDefaultTopK(t *testing.T) {
	idx := newMockIndex()
	for i := 0; i < 10; i++ {
		idx.hits = append(idx.hits, domain.Match{ID: fmt.Sprintf("doc-%d", i), Score: 1 - float64(i)/10})
	}
	svc := NewSearchService(&mockEmbedder{vector: []float32{1, 0, 0}}, idx, 3)

	results, err := svc.Search(context.Background(), "anything", 0)

	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSearchEmbeddingFailure(t *testing.T) {
	emb := &mockEmbedder{embedErr: fmt.Errorf("%w: service unavailable", domain.ErrEmbedding)}
	idx := newMockIndex()
	svc := NewSearchService(emb, idx, 5)

	_, err := svc.Search(context.Background(), "anything", 5)

	require.ErrorIs(t, err, domain.ErrEmbedding)
	assert.Equal(t, 0, idx.queryCalls, "the index must not be queried after an embedding failure")
}

func TestSearchIndexFailure(t *testing.T) {
	idx := newMockIndex()
	idx.queryErr = fmt.Errorf("%w: upstream 500", domain.ErrIndex)
	svc := NewSearchService(&mockEmbedder{vector: []float32{1, 0, 0}}, idx, 5)

	_, err := svc.Search(context.Background(), "anything", 5)

	require.ErrorIs(t, err, domain.ErrIndex)
}
