package service

import (
	"context"
	"log"
	"strings"
	"sync"

	"drivesearch/internal/domain"
)

// Ensure IngestService implements the interface.
var _ domain.Ingestor = (*IngestService)(nil)

// IngestService orchestrates one ingestion run: list candidate documents,
// then per document fetch, embed, and upsert. One document's failure never
// aborts the run; every listed document is attempted and the outcome is
// aggregated into a report.
type IngestService struct {
	source   domain.DocumentSource
	embedder domain.Embedder
	index    domain.VectorIndex
	workers  int
	logger   *log.Logger
}

// NewIngestService creates an ingestion controller. workers bounds the
// per-document fan-out; values below 1 mean sequential processing.
func NewIngestService(source domain.DocumentSource, embedder domain.Embedder, index domain.VectorIndex, workers int) *IngestService {
	if workers < 1 {
		workers = 1
	}
	return &IngestService{
		source:   source,
		embedder: embedder,
		index:    index,
		workers:  workers,
		logger:   log.New(log.Writer(), "[INGEST] ", log.LstdFlags),
	}
}

// Ingest runs the pipeline for every document the credential can see.
// The report groups documents by outcome, not by listing order.
func (s *IngestService) Ingest(ctx context.Context, cred domain.Credential) (*domain.Report, error) {
	if cred.Empty() {
		return nil, domain.ErrAuthRequired
	}

	refs, err := s.source.List(ctx, cred)
	if err != nil {
		return nil, err
	}

	report := &domain.Report{Failed: []domain.Failure{}}
	if len(refs) == 0 {
		return report, nil
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.workers)
	)
	for _, ref := range refs {
		wg.Add(1)
		sem <- struct{}{}
		go func(ref domain.DocumentRef) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome, reason := s.ingestOne(ctx, cred, ref)

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeProcessed:
				report.Processed++
			case outcomeSkipped:
				report.Skipped++
			case outcomeFailed:
				report.Failed = append(report.Failed, domain.Failure{ID: ref.ID, Reason: reason})
			}
		}(ref)
	}
	wg.Wait()

	s.logger.Printf("run complete: %d processed, %d skipped, %d failed",
		report.Processed, report.Skipped, len(report.Failed))
	return report, nil
}

type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeSkipped
	outcomeFailed
)

func (s *IngestService) ingestOne(ctx context.Context, cred domain.Credential, ref domain.DocumentRef) (outcome, string) {
	content, err := s.source.Fetch(ctx, cred, ref.ID)
	if err != nil {
		s.logger.Printf("fetch %s (%s): %v", ref.ID, ref.Title, err)
		return outcomeFailed, err.Error()
	}
	if strings.TrimSpace(content) == "" {
		return outcomeSkipped, ""
	}

	vector, err := s.embedder.Embed(ctx, content)
	if err != nil {
		s.logger.Printf("embed %s (%s): %v", ref.ID, ref.Title, err)
		return outcomeFailed, err.Error()
	}

	err = s.index.Upsert(ctx, domain.IndexedEntry{
		ID:     ref.ID,
		Values: vector,
		Metadata: domain.EntryMetadata{
			Title: ref.Title,
			Link:  ref.Link,
		},
	})
	if err != nil {
		s.logger.Printf("upsert %s (%s): %v", ref.ID, ref.Title, err)
		return outcomeFailed, err.Error()
	}
	return outcomeProcessed, ""
}
