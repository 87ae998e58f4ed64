package domain

import "errors"

// Domain errors represent pipeline failures. Per-document occurrences of
// ErrEmbedding and ErrIndex during ingestion are recorded in the report and
// processing continues; everywhere else they surface to the caller.
var (
	// ErrAuthRequired indicates a missing or rejected credential.
	ErrAuthRequired = errors.New("authentication required")

	// ErrInvalidQuery indicates an empty or missing query text.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrEmbedding indicates the embedding service was unreachable,
	// rate-limited, or returned no usable vector.
	ErrEmbedding = errors.New("embedding failed")

	// ErrIndex indicates a vector index upsert or query failure.
	ErrIndex = errors.New("vector index failure")

	// ErrConfiguration indicates a dimension mismatch or missing index or
	// model configuration. Fatal, never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")
)
