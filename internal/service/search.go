package service

import (
	"context"
	"strings"

	"drivesearch/internal/domain"
)

// Ensure SearchService implements the interface.
var _ domain.Searcher = (*SearchService)(nil)

// SearchService answers free-text queries: embed the query, ask the vector
// index for the topK nearest entries, and surface them in the index's
// ranking order. It never re-sorts or re-scores.
type SearchService struct {
	embedder    domain.Embedder
	index       domain.VectorIndex
	defaultTopK int
}

func NewSearchService(embedder domain.Embedder, index domain.VectorIndex, defaultTopK int) *SearchService {
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	return &SearchService{
		embedder:    embedder,
		index:       index,
		defaultTopK: defaultTopK,
	}
}

// Search returns ranked matches for the query. An empty slice means no
// matches; an empty query is rejected before any external call. The index
// may return fewer than topK matches, which is not an error.
func (s *SearchService) Search(ctx context.Context, query string, topK int) ([]domain.SearchMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrInvalidQuery
	}
	if topK <= 0 {
		topK = s.defaultTopK
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	matches, err := s.index.Query(ctx, vector, topK)
	if err != nil {
		return nil, err
	}

	results := make([]domain.SearchMatch, 0, len(matches))
	for _, m := range matches {
		results = append(results, domain.SearchMatch{
			ID:    m.ID,
			Title: m.Metadata.Title,
			Link:  m.Metadata.Link,
			Score: m.Score,
		})
	}
	return results, nil
}
