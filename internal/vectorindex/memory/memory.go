package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"drivesearch/internal/domain"
)

// Index is an in-memory vector index using brute-force cosine similarity.
// Entries are keyed by document id; upserting an existing id replaces it.
type Index struct {
	mu        sync.RWMutex
	dimension int
	order     []string
	entries   map[string]domain.IndexedEntry
}

func NewIndex(dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: invalid index dimension %d", domain.ErrConfiguration, dimension)
	}
	return &Index{
		dimension: dimension,
		entries:   make(map[string]domain.IndexedEntry),
	}, nil
}

// Upsert inserts or replaces the entry keyed by its document id.
func (x *Index) Upsert(_ context.Context, entry domain.IndexedEntry) error {
	if len(entry.Values) != x.dimension {
		return fmt.Errorf("%w: vector dimension %d, index expects %d",
			domain.ErrConfiguration, len(entry.Values), x.dimension)
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.entries[entry.ID]; !ok {
		x.order = append(x.order, entry.ID)
	}
	x.entries[entry.ID] = entry
	return nil
}

// Query returns up to topK entries ordered by descending similarity.
// Ties keep insertion order, so ordering is stable within one call.
func (x *Index) Query(_ context.Context, vector []float32, topK int) ([]domain.Match, error) {
	if len(vector) != x.dimension {
		return nil, fmt.Errorf("%w: query vector dimension %d, index expects %d",
			domain.ErrConfiguration, len(vector), x.dimension)
	}
	if topK <= 0 {
		topK = 5
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	matches := make([]domain.Match, 0, len(x.order))
	for _, id := range x.order {
		e := x.entries[id]
		matches = append(matches, domain.Match{
			ID:       e.ID,
			Score:    dot(e.Values, vector),
			Metadata: e.Metadata,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if topK > len(matches) {
		topK = len(matches)
	}
	return matches[:topK], nil
}

// Len returns the number of stored entries.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// dot is cosine similarity for L2-normalized vectors, which OpenAI
// embeddings are.
func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
