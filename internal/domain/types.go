package domain

// Credential is the opaque bearer token of a signed-in user. The pipeline
// attaches it to source calls but never inspects or refreshes it.
type Credential string

// Empty reports whether the credential is missing.
func (c Credential) Empty() bool { return c == "" }

// DocumentRef identifies a candidate document in the remote file store.
type DocumentRef struct {
	ID    string
	Title string
	Link  string
}

// EntryMetadata is the per-document metadata stored alongside a vector.
type EntryMetadata struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// IndexedEntry is one upsert unit in the vector index, keyed by the
// source document id. Re-ingesting the same id replaces the entry.
type IndexedEntry struct {
	ID       string
	Values   []float32
	Metadata EntryMetadata
}

// Match is one ranked hit returned by the vector index.
type Match struct {
	ID       string
	Score    float64
	Metadata EntryMetadata
}

// SearchMatch is a query result surfaced to the caller.
type SearchMatch struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Link  string  `json:"link"`
	Score float64 `json:"score"`
}

// Failure records one document that could not be ingested.
type Failure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Report aggregates the outcome of one ingestion run. Grouped by outcome,
// not by listing order.
type Report struct {
	Processed int       `json:"processed"`
	Skipped   int       `json:"skipped"`
	Failed    []Failure `json:"failed"`
}
