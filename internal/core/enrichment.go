package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/amityadav/refiner/internal/errs"
	"github.com/amityadav/refiner/internal/extractor"
	"github.com/amityadav/refiner/internal/metrics"
	"github.com/amityadav/refiner/internal/search"
	"github.com/amityadav/refiner/internal/store"
	"github.com/amityadav/refiner/internal/throttle"
	"github.com/google/uuid"
)

// ReferenceFinder discovers candidate reference URLs for a title.
type ReferenceFinder interface {
	FindReferences(ctx context.Context, query string, maxResults int) ([]search.Result, error)
}

// ContentExtractor pulls clean text from a URL. It never fails.
type ContentExtractor interface {
	Extract(ctx context.Context, url string) extractor.Content
}

// ContentSynthesizer rewrites an article from its references.
type ContentSynthesizer interface {
	Synthesize(ctx context.Context, title, original string, refs []extractor.Content) (string, error)
}

// Persistence reads pending articles and commits enrichment results.
type Persistence interface {
	ListUnprocessed(ctx context.Context, limit int) ([]store.Article, error)
	Commit(ctx context.Context, id, body string, refs []store.Reference, ts time.Time) error
}

// Options tune a pipeline run.
type Options struct {
	BatchLimit      int
	MaxReferences   int
	MinContentChars int
	// ArticleThrottle spaces successive articles within a run.
	ArticleThrottle throttle.Throttle
	// DryRun synthesizes but never persists.
	DryRun bool
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		BatchLimit:      100,
		MaxReferences:   2,
		MinContentChars: 100,
		ArticleThrottle: throttle.None,
	}
}

// EnrichmentCore drives articles one at a time through
// search, extraction, synthesis and persistence.
type EnrichmentCore struct {
	finder      ReferenceFinder
	extractor   ContentExtractor
	synthesizer ContentSynthesizer
	persistence Persistence
	opts        Options
	now         func() time.Time
}

// NewEnrichmentCore creates a new EnrichmentCore instance
func NewEnrichmentCore(finder ReferenceFinder, ext ContentExtractor, synth ContentSynthesizer, p Persistence, opts Options) *EnrichmentCore {
	def := DefaultOptions()
	if opts.BatchLimit <= 0 {
		opts.BatchLimit = def.BatchLimit
	}
	if opts.MaxReferences <= 0 {
		opts.MaxReferences = def.MaxReferences
	}
	if opts.MinContentChars <= 0 {
		opts.MinContentChars = def.MinContentChars
	}
	if opts.ArticleThrottle == nil {
		opts.ArticleThrottle = throttle.None
	}
	return &EnrichmentCore{
		finder:      finder,
		extractor:   ext,
		synthesizer: synth,
		persistence: p,
		opts:        opts,
		now:         time.Now,
	}
}

// Run enriches one batch of unprocessed articles.
func (c *EnrichmentCore) Run(ctx context.Context) (*Report, error) {
	log.Printf("[Pipeline] Fetching up to %d unprocessed articles...", c.opts.BatchLimit)
	articles, err := c.persistence.ListUnprocessed(ctx, c.opts.BatchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unprocessed articles: %w", err)
	}
	log.Printf("[Pipeline] Fetched %d articles", len(articles))
	return c.RunArticles(ctx, articles)
}

// RunArticles processes articles sequentially. A stage failure only affects
// its own article; a configuration error or cancellation stops the run and
// the partial report is returned with the error.
func (c *EnrichmentCore) RunArticles(ctx context.Context, articles []store.Article) (*Report, error) {
	report := newReport(c.now())
	defer func() { report.FinishedAt = c.now() }()

	pending := 0
	for _, a := range articles {
		if !a.IsUpdated {
			pending++
		}
	}
	log.Printf("[Pipeline] Run %s: %d articles, %d already updated, %d to process",
		report.RunID, len(articles), len(articles)-pending, pending)

	waited := false
	for i, a := range articles {
		if err := ctx.Err(); err != nil {
			log.Printf("[Pipeline] Run cancelled after %d/%d articles", i, len(articles))
			return report, err
		}
		if !a.IsUpdated {
			if waited {
				if err := c.opts.ArticleThrottle.Wait(ctx); err != nil {
					return report, err
				}
			}
			waited = true
		}

		log.Printf("[Pipeline] %s", strings.Repeat("=", 60))
		log.Printf("[Pipeline] Article %d/%d: %s", i+1, len(articles), a.Title)

		res := c.ProcessArticle(ctx, a)
		if !a.IsUpdated {
			c.opts.ArticleThrottle.Done()
		}
		report.add(res)
		metrics.ArticlesTotal.WithLabelValues(string(res.Outcome)).Inc()
		log.Printf("[Pipeline] Article %d/%d %s at %s: %s", i+1, len(articles), res.Outcome, res.Stage, res.Reason)

		if res.Err != nil && errors.Is(res.Err, errs.ErrConfig) {
			log.Printf("[Pipeline] Configuration error, aborting run: %v", res.Err)
			return report, res.Err
		}
	}
	return report, nil
}

// ProcessArticle runs the state machine for a single article. It never
// returns an error; the outcome and reason are recorded on the result.
func (c *EnrichmentCore) ProcessArticle(ctx context.Context, a store.Article) ArticleResult {
	res := ArticleResult{ArticleID: a.ID, Title: a.Title, Stage: StagePending}

	if a.IsUpdated {
		return res.finish(OutcomeSkipped, "already updated", nil)
	}

	// 1. Search
	res.Stage = StageSearching
	results, err := c.finder.FindReferences(ctx, a.Title, c.opts.MaxReferences)
	if err != nil {
		metrics.StageFailures.WithLabelValues(string(StageSearching)).Inc()
		return res.finish(OutcomeSkipped, "search failed", err)
	}
	if len(results) == 0 {
		return res.finish(OutcomeSkipped, "no search results", nil)
	}
	if len(results) > c.opts.MaxReferences {
		results = results[:c.opts.MaxReferences]
	}
	log.Printf("[Pipeline] Found %d reference URLs", len(results))

	// 2. Extract, one reference at a time
	res.Stage = StageExtracting
	var refs []extractor.Content
	for i, r := range results {
		log.Printf("[Pipeline] Extracting reference %d/%d: %s", i+1, len(results), r.URL)
		content := c.extractor.Extract(ctx, r.URL)
		if !content.Sufficient(c.opts.MinContentChars) {
			log.Printf("[Pipeline] Reference %d insufficient (%d chars, error=%v)", i+1, content.Length(), content.Error)
			continue
		}
		if strings.TrimSpace(content.Title) == "" {
			content.Title = r.Title
		}
		content.URL = r.URL
		refs = append(refs, content)
		log.Printf("[Pipeline] Reference %d usable (%d chars)", i+1, content.Length())
	}
	if len(refs) == 0 {
		metrics.StageFailures.WithLabelValues(string(StageExtracting)).Inc()
		return res.finish(OutcomeSkipped, "no usable references", nil)
	}

	// 3. Synthesize
	res.Stage = StageSynthesizing
	body, err := c.synthesizer.Synthesize(ctx, a.Title, a.Content, refs)
	if err != nil {
		metrics.StageFailures.WithLabelValues(string(StageSynthesizing)).Inc()
		return res.finish(OutcomeSkipped, "synthesis failed", err)
	}

	res.References = make([]store.Reference, len(refs))
	for i, r := range refs {
		res.References[i] = store.Reference{Title: r.Title, URL: r.URL}
	}

	if c.opts.DryRun {
		log.Printf("[Pipeline] Dry run: synthesized %d characters, not persisting", len(body))
		return res.finish(OutcomeSucceeded, "dry run, not persisted", nil)
	}

	// 4. Persist
	res.Stage = StagePersisting
	if err := c.persistence.Commit(ctx, a.ID, body, res.References, c.now().UTC()); err != nil {
		metrics.StageFailures.WithLabelValues(string(StagePersisting)).Inc()
		return res.finish(OutcomeFailed, "persistence failed", err)
	}

	return res.finish(OutcomeSucceeded, fmt.Sprintf("enriched with %d references", len(refs)), nil)
}

func newRunID() string {
	return uuid.NewString()
}
