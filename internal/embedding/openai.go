package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"drivesearch/internal/domain"
)

// Known dimensions for the OpenAI embedding models.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// OpenAIClient is an OpenAI-compatible embeddings client implementing
// domain.Embedder. All vectors it produces share one fixed dimension.
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	model      string
	dimension  int
	client     *http.Client
	maxRetries int
}

// OpenAIConfig configures the OpenAI-compatible embeddings client.
type OpenAIConfig struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
	Dimension int
}

// NewOpenAIClient creates a new embeddings client using the provided configuration.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%w: missing API key in env %s", domain.ErrConfiguration, cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	dim := cfg.Dimension
	if dim == 0 {
		var ok bool
		if dim, ok = modelDimensions[cfg.Model]; !ok {
			return nil, fmt.Errorf("%w: unknown dimension for model %s", domain.ErrConfiguration, cfg.Model)
		}
	}
	return &OpenAIClient{
		baseURL:    cfg.BaseURL,
		apiKey:     key,
		model:      cfg.Model,
		dimension:  dim,
		client:     &http.Client{Timeout: t},
		maxRetries: 5,
	}, nil
}

// Model returns the embedding model identifier.
func (c *OpenAIClient) Model() string { return c.model }

// Dimension returns the dimensionality of the produced embedding vectors.
func (c *OpenAIClient) Dimension() int { return c.dimension }

// Embed returns an embedding vector for the given text. Transient failures
// (transport errors, 429, 5xx) are retried with exponential backoff; anything
// left over surfaces as domain.ErrEmbedding.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	type reqBody struct {
		Input string `json:"input"`
		Model string `json:"model"`
	}
	url := fmt.Sprintf("%s/embeddings", c.baseURL)
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", domain.ErrEmbedding, ctx.Err())
			case <-time.After(retryDelay(attempt - 1)):
			}
		}
		data, _ := json.Marshal(reqBody{Input: text, Model: c.model})
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			// Respect Retry-After if provided
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil {
					_ = resp.Body.Close()
					select {
					case <-ctx.Done():
						return nil, fmt.Errorf("%w: %w", domain.ErrEmbedding, ctx.Err())
					case <-time.After(time.Duration(secs) * time.Second):
					}
					lastErr = fmt.Errorf("openai embeddings failed: %s", resp.Status)
					continue
				}
			}
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("openai embeddings failed: %s", resp.Status)
			continue
		}

		if resp.StatusCode >= 300 {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("%w: openai embeddings failed: %s", domain.ErrEmbedding, resp.Status)
		}

		payload, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		var out struct {
			Data []struct {
				Embedding []float32 `json:"embedding"`
			} `json:"data"`
		}
		if err := json.Unmarshal(payload, &out); err != nil {
			lastErr = err
			continue
		}
		if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
			return nil, fmt.Errorf("%w: no embedding returned", domain.ErrEmbedding)
		}
		v := out.Data[0].Embedding
		if len(v) != c.dimension {
			return nil, fmt.Errorf("%w: model %s returned dimension %d, expected %d",
				domain.ErrConfiguration, c.model, len(v), c.dimension)
		}
		return v, nil
	}
	return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, lastErr)
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
