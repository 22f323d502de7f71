package articleapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/amityadav/refiner/internal/errs"
	"github.com/amityadav/refiner/internal/store"
)

// Client talks to the article REST API. It is the primary persistence path
// of the enrichment pipeline.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type commitRequest struct {
	IsUpdated      bool              `json:"isUpdated"`
	UpdatedContent string            `json:"updatedContent"`
	References     []store.Reference `json:"references"`
	LastUpdated    time.Time         `json:"lastUpdated"`
}

// ListUnprocessed fetches the oldest page of articles that are not yet updated,
// matching the store's own ListUnprocessed order.
func (c *Client) ListUnprocessed(ctx context.Context, limit int) ([]store.Article, error) {
	q := url.Values{}
	q.Set("isUpdated", "false")
	q.Set("page", "1")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("sort", "oldest")

	log.Printf("[ArticleAPI] Fetching unprocessed articles (limit %d)", limit)
	var articles []store.Article
	if err := c.do(ctx, http.MethodGet, "/articles?"+q.Encode(), nil, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

// CommitUpdate marks an article as enriched through PUT /articles/{id}.
func (c *Client) CommitUpdate(ctx context.Context, id, body string, refs []store.Reference, ts time.Time) (*store.Article, error) {
	req := commitRequest{IsUpdated: true, UpdatedContent: body, References: refs, LastUpdated: ts}
	var article store.Article
	if err := c.do(ctx, http.MethodPut, "/articles/"+url.PathEscape(id), req, &article); err != nil {
		return nil, err
	}
	log.Printf("[ArticleAPI] Article %s updated", id)
	return &article, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("article api %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("article api %s %s: %w", method, path, errs.ErrNotFound)
	case resp.StatusCode == http.StatusBadRequest:
		return errs.Validation("article api %s %s: %s", method, path, env.Message)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("article api %s %s: status %d: %s", method, path, resp.StatusCode, env.Message)
	case decodeErr != nil:
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}
