package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"drivesearch/internal/domain"
)

// Client talks to a running drivesearch server over its HTTP API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates an API client. token is the bearer token issued at
// login; pass it via Authorization since the TUI has no cookie jar.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Search sends the query to /api/search and returns ranked matches.
// An empty slice means the server reported no results.
func (c *Client) Search(query string, topK int) ([]domain.SearchMatch, error) {
	body, err := json.Marshal(map[string]any{"query": query, "top_k": topK})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out struct {
		Results []domain.SearchMatch `json:"results"`
		Message string               `json:"message"`
		Error   string               `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != "" {
			return nil, fmt.Errorf("search failed: %s", out.Error)
		}
		return nil, fmt.Errorf("search failed: %s", resp.Status)
	}
	return out.Results, nil
}
