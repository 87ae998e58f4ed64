package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivesearch/internal/domain"
	"drivesearch/internal/vectorindex/memory"
)

// --- Mock implementations ---

// mockSource implements domain.DocumentSource for testing.
type mockSource struct {
	mu         sync.Mutex
	refs       []domain.DocumentRef
	listErr    error
	contents   map[string]string
	fetchErrs  map[string]error
	listCalls  int
	fetchCalls int
}

func (m *mockSource) List(_ context.Context, _ domain.Credential) ([]domain.DocumentRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.refs, nil
}

func (m *mockSource) Fetch(_ context.Context, _ domain.Credential, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchCalls++
	if err, ok := m.fetchErrs[id]; ok {
		return "", err
	}
	return m.contents[id], nil
}

// mockEmbedder implements domain.Embedder for testing.
type mockEmbedder struct {
	mu       sync.Mutex
	vector   []float32
	failFor  map[string]error
	embedErr error
	calls    int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if err, ok := m.failFor[text]; ok {
		return nil, err
	}
	return m.vector, nil
}

func (m *mockEmbedder) Dimension() int { return len(m.vector) }
func (m *mockEmbedder) Model() string  { return "mock" }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockIndex implements domain.VectorIndex for testing.
type mockIndex struct {
	mu         sync.Mutex
	entries    map[string]domain.IndexedEntry
	upsertErrs map[string]error
	hits       []domain.Match
	queryErr   error
	queryCalls int
}

func newMockIndex() *mockIndex {
	return &mockIndex{entries: make(map[string]domain.IndexedEntry)}
}

func (m *mockIndex) Upsert(_ context.Context, entry domain.IndexedEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.upsertErrs[entry.ID]; ok {
		return err
	}
	m.entries[entry.ID] = entry
	return nil
}

func (m *mockIndex) Query(_ context.Context, _ []float32, k int) ([]domain.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCalls++
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if k > len(m.hits) {
		return m.hits, nil
	}
	return m.hits[:k], nil
}

func (m *mockIndex) entry(id string) (domain.IndexedEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	return e, ok
}

func (m *mockIndex) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// --- Tests ---

func TestIngestMissingCredential(t *testing.T) {
	src := &mockSource{}
	emb := &mockEmbedder{vector: []float32{1, 0, 0}}
	idx := newMockIndex()
	svc := NewIngestService(src, emb, idx, 2)

	report, err := svc.Ingest(context.Background(), "")

	require.ErrorIs(t, err, domain.ErrAuthRequired)
	assert.Nil(t, report)
	assert.Equal(t, 0, src.listCalls, "no external call before the credential check")
}

func TestIngestEmptyListShortCircuits(t *testing.T) {
	src := &mockSource{}
	emb := &mockEmbedder{vector: []float32{1, 0, 0}}
	idx := newMockIndex()
	svc := NewIngestService(src, emb, idx, 2)

	report, err := svc.Ingest(context.Background(), "token")

	require.NoError(t, err)
	assert.Equal(t, 0, report.Processed)
	assert.Equal(t, 0, report.Skipped)
	assert.Empty(t, report.Failed)
	assert.Equal(t, 0, emb.callCount(), "embedder must not be called for an empty listing")
	assert.Equal(t, 0, idx.size())
}

func TestIngestListErrorSurfaces(t *testing.T) {
	src := &mockSource{listErr: errors.New("drive unreachable")}
	svc := NewIngestService(src, &mockEmbedder{vector: []float32{1}}, newMockIndex(), 2)

	_, err := svc.Ingest(context.Background(), "token")

	require.Error(t, err)
}

func TestIngestFailureIsolation(t *testing.T) {
	const n = 5
	src := &mockSource{contents: map[string]string{}}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("doc-%d", i)
		src.refs = append(src.refs, domain.DocumentRef{ID: id, Title: "Doc " + id, Link: "https://example.com/" + id})
		src.contents[id] = "content of " + id
	}
	emb := &mockEmbedder{
		vector:  []float32{1, 0, 0},
		failFor: map[string]error{"content of doc-2": fmt.Errorf("%w: quota exceeded", domain.ErrEmbedding)},
	}
	idx := newMockIndex()
	svc := NewIngestService(src, emb, idx, 3)

	report, err := svc.Ingest(context.Background(), "token")

	require.NoError(t, err)
	assert.Equal(t, n-1, report.Processed)
	assert.Equal(t, 0, report.Skipped)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "doc-2", report.Failed[0].ID)
	assert.Contains(t, report.Failed[0].Reason, "quota exceeded")

	// every non-failing document ended up upserted
	assert.Equal(t, n-1, idx.size())
	_, ok := idx.entry("doc-2")
	assert.False(t, ok)
}

func TestIngestSkipsEmptyContent(t *testing.T) {
	src := &mockSource{
		refs: []domain.DocumentRef{
			{ID: "a", Title: "A"},
			{ID: "b", Title: "B"},
			{ID: "c", Title: "C"},
		},
		contents: map[string]string{
			"a": "real content",
			"b": "",
			"c": "   \n\t  ",
		},
	}
	emb := &mockEmbedder{vector: []float32{1, 0, 0}}
	idx := newMockIndex()
	svc := NewIngestService(src, emb, idx, 2)

	report, err := svc.Ingest(context.Background(), "token")

	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 2, report.Skipped)
	assert.Empty(t, report.Failed)
	assert.Equal(t, 1, emb.callCount(), "blank documents must never reach the embedder")
}

func TestIngestRecordsUpsertFailures(t *testing.T) {
	src := &mockSource{
		refs:     []domain.DocumentRef{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}},
		contents: map[string]string{"a": "alpha", "b": "beta"},
	}
	idx := newMockIndex()
	idx.upsertErrs = map[string]error{"b": fmt.Errorf("%w: upstream 503", domain.ErrIndex)}
	svc := NewIngestService(src, &mockEmbedder{vector: []float32{1, 0, 0}}, idx, 2)

	report, err := svc.Ingest(context.Background(), "token")

	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "b", report.Failed[0].ID)
}

func TestIngestRecordsFetchFailures(t *testing.T) {
	src := &mockSource{
		refs:      []domain.DocumentRef{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}},
		contents:  map[string]string{"a": "alpha"},
		fetchErrs: map[string]error{"b": errors.New("download failed")},
	}
	svc := NewIngestService(src, &mockEmbedder{vector: []float32{1, 0, 0}}, newMockIndex(), 2)

	report, err := svc.Ingest(context.Background(), "token")

	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "b", report.Failed[0].ID)
}

func TestIngestIdempotentReingest(t *testing.T) {
	idx, err := memory.NewIndex(3)
	require.NoError(t, err)

	src := &mockSource{
		refs:     []domain.DocumentRef{{ID: "doc-1", Title: "First title", Link: "https://drive.google.com/file/d/doc-1/view"}},
		contents: map[string]string{"doc-1": "the content"},
	}
	emb := &mockEmbedder{vector: []float32{1, 0, 0}}
	svc := NewIngestService(src, emb, idx, 1)

	_, err = svc.Ingest(context.Background(), "token")
	require.NoError(t, err)

	// second run with updated metadata replaces, never duplicates
	src.mu.Lock()
	src.refs[0].Title = "Second title"
	src.mu.Unlock()

	report, err := svc.Ingest(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)

	assert.Equal(t, 1, idx.Len(), "re-ingesting the same id must leave one entry")
	matches, err := idx.Query(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Second title", matches[0].Metadata.Title)
}
