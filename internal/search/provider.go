package search

import "context"

// Result is one ranked candidate returned by a search provider.
type Result struct {
	Title    string
	URL      string
	Snippet  string
	Provider string // "serpapi", "tavily", "scraperapi"
}

// Provider is the interface all search providers must implement
type Provider interface {
	// Name returns the provider identifier (e.g., "serpapi")
	Name() string

	// Search returns up to maxResults organic results in provider ranking order.
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}
