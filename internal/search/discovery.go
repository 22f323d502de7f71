package search

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/amityadav/refiner/internal/errs"
	"github.com/amityadav/refiner/internal/metrics"
	"github.com/amityadav/refiner/internal/retry"
	"github.com/amityadav/refiner/internal/throttle"
)

// candidatePool is how many raw results are requested per query so that
// filtering still leaves enough references.
const candidatePool = 10

// Discovery finds reference articles for a title through a search provider.
type Discovery struct {
	provider Provider
	throttle throttle.Throttle
	policy   retry.Policy
}

func NewDiscovery(provider Provider, th throttle.Throttle, policy retry.Policy) *Discovery {
	if th == nil {
		th = throttle.None
	}
	if policy.Name == "" {
		policy.Name = "search"
	}
	return &Discovery{provider: provider, throttle: th, policy: policy}
}

// FindReferences returns at most maxResults candidates for query, in provider
// ranking order, with denylisted domains and duplicate URLs removed.
func (d *Discovery) FindReferences(ctx context.Context, query string, maxResults int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errs.Validation("search query is empty")
	}
	if maxResults < 1 {
		return []Result{}, nil
	}

	start := time.Now()
	defer func() { metrics.StageDuration.WithLabelValues("search").Observe(time.Since(start).Seconds()) }()

	log.Printf("[Discovery] Searching %s for: %q", d.provider.Name(), query)
	raw, err := retry.Do(ctx, d.policy, func(ctx context.Context) ([]Result, error) {
		if err := d.throttle.Wait(ctx); err != nil {
			return nil, err
		}
		defer d.throttle.Done()
		return d.provider.Search(ctx, query, max(candidatePool, maxResults))
	})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	results := filterResults(raw)
	indicated := 0
	for _, r := range results {
		if HasArticleIndicator(r) {
			indicated++
		}
	}
	log.Printf("[Discovery] %d raw results, %d after filtering, %d with article indicators", len(raw), len(results), indicated)

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	for i, r := range results {
		log.Printf("[Discovery]   %d. %s (%s)", i+1, r.Title, r.URL)
	}
	return results, nil
}

// filterResults drops denylisted and duplicate URLs and fills in missing titles.
func filterResults(raw []Result) []Result {
	seen := make(map[string]bool, len(raw))
	out := make([]Result, 0, len(raw))
	for _, r := range raw {
		r.URL = strings.TrimSpace(r.URL)
		if r.URL == "" || Denied(r.URL) {
			continue
		}
		key := dedupeKey(r.URL)
		if seen[key] {
			continue
		}
		seen[key] = true

		r.Title = strings.TrimSpace(r.Title)
		if r.Title == "" {
			r.Title = TitleFromURL(r.URL)
		}
		out = append(out, r)
	}
	return out
}
