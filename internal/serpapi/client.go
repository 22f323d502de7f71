package serpapi

import (
	"context"
	"log"
	"strconv"

	"github.com/amityadav/refiner/internal/errs"
	"github.com/amityadav/refiner/internal/search"
	g "github.com/serpapi/google-search-results-golang"
)

const providerName = "serpapi"

// Client is a wrapper around the SerpApi search service
type Client struct {
	apiKey string
	fetch  func(params map[string]string, apiKey string) (map[string]interface{}, error)
}

// NewClient creates a new SerpApi client
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey: apiKey,
		fetch: func(params map[string]string, apiKey string) (map[string]interface{}, error) {
			s := g.NewGoogleSearch(params, apiKey)
			return s.GetJSON()
		},
	}
}

// Name returns the provider identifier
func (c *Client) Name() string {
	return providerName
}

// Search performs a Google search via SerpApi and returns organic results
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	if c.apiKey == "" {
		return nil, errs.Config("SerpApi API key is not set")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parameter := map[string]string{
		"engine":        "google",
		"q":             query,
		"google_domain": "google.com",
		"gl":            "us",
		"hl":            "en",
		"num":           strconv.Itoa(maxResults),
	}

	log.Printf("[SerpApi] Searching for: %q", query)
	results, err := c.fetch(parameter, c.apiKey)
	if err != nil {
		log.Printf("[SerpApi] Search failed: %v", err)
		return nil, errs.FromMessage(providerName, err.Error())
	}
	if msg, ok := results["error"].(string); ok && msg != "" {
		return nil, errs.FromMessage(providerName, msg)
	}

	list := parseOrganicResults(results)
	log.Printf("[SerpApi] Found %d organic results", len(list))
	return list, nil
}

// parseOrganicResults reads the organic_results node, keeping provider order.
func parseOrganicResults(results map[string]interface{}) []search.Result {
	organicResults, ok := results["organic_results"].([]interface{})
	if !ok {
		log.Printf("[SerpApi] No organic_results found in response")
		return []search.Result{}
	}

	list := make([]search.Result, 0, len(organicResults))
	for _, item := range organicResults {
		res, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		title, _ := res["title"].(string)
		link, _ := res["link"].(string)
		snippet, _ := res["snippet"].(string)
		if link == "" {
			continue
		}

		list = append(list, search.Result{
			Title:    title,
			URL:      link,
			Snippet:  snippet,
			Provider: providerName,
		})
	}
	return list
}
