package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/amityadav/refiner/internal/errs"
	"github.com/amityadav/refiner/internal/search"
)

const (
	providerName = "tavily"
	apiURL       = "https://api.tavily.com/search"
)

// Client is a Tavily Search API client
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient creates a new Tavily API client
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: apiURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// WithBaseURL points the client at a different endpoint.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

type searchRequest struct {
	Query       string `json:"query"`
	APIKey      string `json:"api_key"`
	SearchDepth string `json:"search_depth"`
	Topic       string `json:"topic"`
	MaxResults  int    `json:"max_results"`
}

type searchResponse struct {
	Query   string `json:"query"`
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Name returns the provider identifier
func (c *Client) Name() string {
	return providerName
}

// Search runs a general web search. Results keep Tavily's relevance order.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	if c.apiKey == "" {
		return nil, errs.Config("Tavily API key is not set")
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	body, err := json.Marshal(searchRequest{
		Query:       query,
		APIKey:      c.apiKey,
		SearchDepth: "basic",
		Topic:       "general",
		MaxResults:  maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Printf("[Tavily] Searching for: %q (max %d results)", query, maxResults)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errs.FromStatus(providerName, resp.StatusCode, string(msg))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := make([]search.Result, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, search.Result{
			Title:    r.Title,
			URL:      r.URL,
			Snippet:  r.Content,
			Provider: providerName,
		})
	}
	log.Printf("[Tavily] Found %d results for query: %s", len(results), query)
	return results, nil
}
