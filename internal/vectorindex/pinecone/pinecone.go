package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"drivesearch/internal/domain"
)

// Index is a minimal REST client to a single Pinecone index.
// The index must be configured with the same dimension as the embedder.
type Index struct {
	indexURL  string
	apiKey    string
	namespace string
	dimension int
	client    *http.Client
}

type Config struct {
	IndexURL  string
	APIKey    string
	Namespace string
	Dimension int
	Timeout   time.Duration
}

func NewIndex(cfg Config) (*Index, error) {
	if cfg.IndexURL == "" {
		return nil, fmt.Errorf("%w: pinecone index URL missing", domain.ErrConfiguration)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: pinecone API key missing", domain.ErrConfiguration)
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("%w: invalid index dimension %d", domain.ErrConfiguration, cfg.Dimension)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Index{
		indexURL:  cfg.IndexURL,
		apiKey:    cfg.APIKey,
		namespace: cfg.Namespace,
		dimension: cfg.Dimension,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

// Upsert inserts or replaces the entry keyed by its document id.
func (x *Index) Upsert(ctx context.Context, entry domain.IndexedEntry) error {
	if len(entry.Values) != x.dimension {
		return fmt.Errorf("%w: vector dimension %d, index expects %d",
			domain.ErrConfiguration, len(entry.Values), x.dimension)
	}
	body := map[string]any{
		"vectors": []map[string]any{
			{
				"id":     entry.ID,
				"values": entry.Values,
				"metadata": map[string]any{
					"title": entry.Metadata.Title,
					"link":  entry.Metadata.Link,
				},
			},
		},
	}
	if x.namespace != "" {
		body["namespace"] = x.namespace
	}
	if err := x.postJSON(ctx, x.indexURL+"/vectors/upsert", body, nil); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIndex, err)
	}
	return nil
}

// Query returns the topK nearest entries ordered by descending score.
// The service may return fewer matches than requested.
func (x *Index) Query(ctx context.Context, vector []float32, topK int) ([]domain.Match, error) {
	if len(vector) != x.dimension {
		return nil, fmt.Errorf("%w: query vector dimension %d, index expects %d",
			domain.ErrConfiguration, len(vector), x.dimension)
	}
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
	}
	if x.namespace != "" {
		req["namespace"] = x.namespace
	}
	var resp struct {
		Matches []struct {
			ID       string  `json:"id"`
			Score    float64 `json:"score"`
			Metadata struct {
				Title string `json:"title"`
				Link  string `json:"link"`
			} `json:"metadata"`
		} `json:"matches"`
	}
	if err := x.postJSON(ctx, x.indexURL+"/query", req, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndex, err)
	}
	matches := make([]domain.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, domain.Match{
			ID:    m.ID,
			Score: m.Score,
			Metadata: domain.EntryMetadata{
				Title: m.Metadata.Title,
				Link:  m.Metadata.Link,
			},
		})
	}
	return matches, nil
}

func (x *Index) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", x.apiKey)
	resp, err := x.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("pinecone POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		dec := json.NewDecoder(resp.Body)
		return dec.Decode(out)
	}
	return nil
}
