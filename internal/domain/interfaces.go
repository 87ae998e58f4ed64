package domain

import "context"

// Embedder converts free text into a fixed-dimension numeric vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	Model() string
}

// VectorIndex persists vectors keyed by document id and supports top-K
// similarity search. Upsert is idempotent: the same id always replaces.
type VectorIndex interface {
	Upsert(ctx context.Context, entry IndexedEntry) error
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
}

// DocumentSource lists and fetches documents from the remote file store.
// Every call carries the caller-supplied credential.
type DocumentSource interface {
	List(ctx context.Context, cred Credential) ([]DocumentRef, error)
	Fetch(ctx context.Context, cred Credential, id string) (string, error)
}

// Ingestor drives one ingestion run over all listed documents.
type Ingestor interface {
	Ingest(ctx context.Context, cred Credential) (*Report, error)
}

// Searcher answers a free-text query with ranked matches. An empty result
// slice means no matches, which is not an error.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]SearchMatch, error)
}
