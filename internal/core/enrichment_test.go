package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/amityadav/refiner/internal/errs"
	"github.com/amityadav/refiner/internal/extractor"
	"github.com/amityadav/refiner/internal/persistence"
	"github.com/amityadav/refiner/internal/search"
	"github.com/amityadav/refiner/internal/store"
)

type fakeFinder struct {
	results []search.Result
	err     error
	queries []string
}

func (f *fakeFinder) FindReferences(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) > maxResults {
		return f.results[:maxResults], nil
	}
	return f.results, nil
}

type fakeExtractor struct {
	pages map[string]extractor.Content
	urls  []string
}

func (f *fakeExtractor) Extract(ctx context.Context, url string) extractor.Content {
	f.urls = append(f.urls, url)
	if c, ok := f.pages[url]; ok {
		return c
	}
	return extractor.Content{URL: url, Title: "Error", Error: true}
}

type fakeSynthesizer struct {
	body  string
	err   error
	calls int
	refs  []extractor.Content
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, title, original string, refs []extractor.Content) (string, error) {
	f.calls++
	f.refs = refs
	return f.body, f.err
}

type countingThrottle struct {
	waits int
	dones int
	log   []string
}

func (c *countingThrottle) Wait(ctx context.Context) error {
	c.waits++
	c.log = append(c.log, "wait")
	return nil
}

func (c *countingThrottle) Done() {
	c.dones++
	c.log = append(c.log, "done")
}

type brokenPath struct{}

func (brokenPath) ListUnprocessed(ctx context.Context, limit int) ([]store.Article, error) {
	return nil, errors.New("connection refused")
}

func (brokenPath) CommitUpdate(ctx context.Context, id, body string, refs []store.Reference, ts time.Time) (*store.Article, error) {
	return nil, errors.New("connection refused")
}

func page(url, title string, n int) extractor.Content {
	return extractor.Content{URL: url, Title: title, Body: strings.Repeat("a", n)}
}

func twoResults() []search.Result {
	return []search.Result{
		{Title: "Ref A", URL: "https://a.example/post"},
		{Title: "Ref B", URL: "https://b.example/post"},
	}
}

func seedArticles(t *testing.T, st *store.MemoryStore, titles ...string) []*store.Article {
	t.Helper()
	var out []*store.Article
	for _, title := range titles {
		a, err := st.CreateArticle(context.Background(), &store.Article{
			Title:     title,
			Content:   "Original body of " + title,
			SourceURL: "https://beyondchats.com/blogs/" + strings.ToLower(title),
		})
		if err != nil {
			t.Fatalf("seed %q: %v", title, err)
		}
		out = append(out, a)
	}
	return out
}

func TestRunEnrichesArticle(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	seeded := seedArticles(t, st, "Chatbots")

	finder := &fakeFinder{results: twoResults()}
	ext := &fakeExtractor{pages: map[string]extractor.Content{
		"https://a.example/post": page("https://a.example/post", "A title", 150),
		"https://b.example/post": page("https://b.example/post", "B title", 150),
	}}
	synth := &fakeSynthesizer{body: "## Rewritten"}
	c := NewEnrichmentCore(finder, ext, synth, persistence.New(nil, st), DefaultOptions())

	report, err := c.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Succeeded != 1 || report.Total() != 1 {
		t.Fatalf("unexpected report: %s", report)
	}
	if finder.queries[0] != "Chatbots" {
		t.Errorf("expected the title as query, got %q", finder.queries[0])
	}

	a, _ := st.GetArticle(ctx, seeded[0].ID)
	if !a.IsUpdated || a.UpdatedContent == nil || *a.UpdatedContent != "## Rewritten" {
		t.Fatalf("article not committed: %+v", a)
	}
	want := []store.Reference{{Title: "A title", URL: "https://a.example/post"}, {Title: "B title", URL: "https://b.example/post"}}
	if len(a.References) != len(want) {
		t.Fatalf("expected %d references, got %+v", len(want), a.References)
	}
	for i := range want {
		if a.References[i] != want[i] {
			t.Errorf("reference %d: expected %+v, got %+v", i, want[i], a.References[i])
		}
	}
	if a.Content != seeded[0].Content {
		t.Error("original content must not change")
	}

	// A second run finds nothing left to do.
	report, err = c.Run(ctx)
	if err != nil || report.Total() != 0 {
		t.Errorf("expected an empty second run, got %v, %v", report, err)
	}
}

func TestShortReferenceDropped(t *testing.T) {
	st := store.NewMemoryStore()
	seeded := seedArticles(t, st, "Chatbots")

	ext := &fakeExtractor{pages: map[string]extractor.Content{
		"https://a.example/post": page("https://a.example/post", "A title", 80),
		"https://b.example/post": page("https://b.example/post", "", 150),
	}}
	synth := &fakeSynthesizer{body: "## Rewritten"}
	c := NewEnrichmentCore(&fakeFinder{results: twoResults()}, ext, synth, persistence.New(nil, st), DefaultOptions())

	res := c.ProcessArticle(context.Background(), *seeded[0])
	if res.Outcome != OutcomeSucceeded {
		t.Fatalf("expected success, got %s: %s", res.Outcome, res.Reason)
	}
	if len(ext.urls) != 2 {
		t.Errorf("both references should be fetched, got %v", ext.urls)
	}
	if len(synth.refs) != 1 || synth.refs[0].URL != "https://b.example/post" {
		t.Fatalf("expected only the long reference, got %+v", synth.refs)
	}
	// Empty extracted title falls back to the search result title.
	if res.References[0].Title != "Ref B" {
		t.Errorf("expected search title fallback, got %q", res.References[0].Title)
	}
}

func TestArticleSkipped(t *testing.T) {
	short := &fakeExtractor{pages: map[string]extractor.Content{
		"https://a.example/post": page("https://a.example/post", "A", 80),
		"https://b.example/post": page("https://b.example/post", "B", 99),
	}}
	full := &fakeExtractor{pages: map[string]extractor.Content{
		"https://a.example/post": page("https://a.example/post", "A", 150),
	}}

	tests := []struct {
		name       string
		finder     *fakeFinder
		ext        *fakeExtractor
		synth      *fakeSynthesizer
		wantStage  Stage
		wantReason string
		wantSynth  int
	}{
		{"search error", &fakeFinder{err: errs.ErrUpstream}, full, &fakeSynthesizer{body: "x"}, StageSearching, "search failed", 0},
		{"no results", &fakeFinder{}, full, &fakeSynthesizer{body: "x"}, StageSearching, "no search results", 0},
		{"no usable references", &fakeFinder{results: twoResults()}, short, &fakeSynthesizer{body: "x"}, StageExtracting, "no usable references", 0},
		{"synthesis error", &fakeFinder{results: twoResults()[:1]}, full, &fakeSynthesizer{err: errs.ErrEmptyResult}, StageSynthesizing, "synthesis failed", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.NewMemoryStore()
			seeded := seedArticles(t, st, "Chatbots")
			c := NewEnrichmentCore(tt.finder, tt.ext, tt.synth, persistence.New(nil, st), DefaultOptions())

			res := c.ProcessArticle(context.Background(), *seeded[0])
			if res.Outcome != OutcomeSkipped {
				t.Errorf("expected skipped, got %s", res.Outcome)
			}
			if res.Stage != tt.wantStage {
				t.Errorf("expected stage %s, got %s", tt.wantStage, res.Stage)
			}
			if !strings.HasPrefix(res.Reason, tt.wantReason) {
				t.Errorf("expected reason %q, got %q", tt.wantReason, res.Reason)
			}
			if tt.synth.calls != tt.wantSynth {
				t.Errorf("expected %d synthesis calls, got %d", tt.wantSynth, tt.synth.calls)
			}

			a, _ := st.GetArticle(context.Background(), seeded[0].ID)
			if a.IsUpdated {
				t.Error("skipped article must stay unprocessed")
			}
		})
	}
}

func TestPersistencePaths(t *testing.T) {
	ext := &fakeExtractor{pages: map[string]extractor.Content{
		"https://a.example/post": page("https://a.example/post", "A", 150),
	}}
	finder := &fakeFinder{results: twoResults()[:1]}

	// 1. Primary down, fallback store succeeds
	st := store.NewMemoryStore()
	seeded := seedArticles(t, st, "Chatbots")
	c := NewEnrichmentCore(finder, ext, &fakeSynthesizer{body: "body"}, persistence.New(brokenPath{}, st), DefaultOptions())
	if res := c.ProcessArticle(context.Background(), *seeded[0]); res.Outcome != OutcomeSucceeded {
		t.Errorf("expected fallback success, got %s: %s", res.Outcome, res.Reason)
	}

	// 2. Both paths down
	c = NewEnrichmentCore(finder, ext, &fakeSynthesizer{body: "body"}, persistence.New(brokenPath{}, brokenPath{}), DefaultOptions())
	res := c.ProcessArticle(context.Background(), store.Article{ID: "x", Title: "Chatbots"})
	if res.Outcome != OutcomeFailed || res.Stage != StagePersisting {
		t.Errorf("expected failed at persisting, got %s at %s", res.Outcome, res.Stage)
	}
	if !errors.Is(res.Err, errs.ErrPersistence) {
		t.Errorf("expected ErrPersistence, got %v", res.Err)
	}
}

func TestRunArticlesAlreadyUpdated(t *testing.T) {
	finder := &fakeFinder{results: twoResults()}
	th := &countingThrottle{}
	opts := DefaultOptions()
	opts.ArticleThrottle = th
	c := NewEnrichmentCore(finder, &fakeExtractor{}, &fakeSynthesizer{}, persistence.New(nil, store.NewMemoryStore()), opts)

	articles := []store.Article{
		{ID: "1", Title: "One", IsUpdated: true},
		{ID: "2", Title: "Two", IsUpdated: true},
		{ID: "3", Title: "Three", IsUpdated: true},
	}
	report, err := c.RunArticles(context.Background(), articles)
	if err != nil {
		t.Fatalf("RunArticles: %v", err)
	}
	if report.Skipped != 3 || report.Total() != 3 {
		t.Errorf("expected all skipped, got %s", report)
	}
	if len(finder.queries) != 0 || th.waits != 0 || th.dones != 0 {
		t.Errorf("expected no external calls, got %d searches and %d waits", len(finder.queries), th.waits)
	}
}

func TestArticleThrottleBetweenArticles(t *testing.T) {
	st := store.NewMemoryStore()
	seedArticles(t, st, "One", "Two", "Three")
	th := &countingThrottle{}
	opts := DefaultOptions()
	opts.ArticleThrottle = th
	c := NewEnrichmentCore(&fakeFinder{}, &fakeExtractor{}, &fakeSynthesizer{}, persistence.New(nil, st), opts)

	report, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Skipped != 3 {
		t.Errorf("expected 3 skipped, got %s", report)
	}
	if th.waits != 2 {
		t.Errorf("expected 2 waits between 3 articles, got %d", th.waits)
	}
	// The gap is measured from the end of each article.
	want := "done,wait,done,wait,done"
	if got := strings.Join(th.log, ","); got != want {
		t.Errorf("expected throttle calls %s, got %s", want, got)
	}
}

func TestConfigErrorAbortsRun(t *testing.T) {
	st := store.NewMemoryStore()
	seedArticles(t, st, "One", "Two")
	finder := &fakeFinder{err: errs.Config("SERPAPI_API_KEY is required")}
	c := NewEnrichmentCore(finder, &fakeExtractor{}, &fakeSynthesizer{}, persistence.New(nil, st), DefaultOptions())

	report, err := c.Run(context.Background())
	if !errors.Is(err, errs.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
	if report == nil || report.Total() != 1 || len(finder.queries) != 1 {
		t.Errorf("expected the run to stop after the first article, got %v", report)
	}
}

func TestDryRunDoesNotPersist(t *testing.T) {
	st := store.NewMemoryStore()
	seeded := seedArticles(t, st, "Chatbots")
	ext := &fakeExtractor{pages: map[string]extractor.Content{
		"https://a.example/post": page("https://a.example/post", "A", 150),
	}}
	opts := DefaultOptions()
	opts.DryRun = true
	c := NewEnrichmentCore(&fakeFinder{results: twoResults()[:1]}, ext, &fakeSynthesizer{body: "b"}, persistence.New(nil, st), opts)

	res := c.ProcessArticle(context.Background(), *seeded[0])
	if res.Outcome != OutcomeSucceeded || res.Reason != "dry run, not persisted" {
		t.Errorf("unexpected result: %s %q", res.Outcome, res.Reason)
	}
	a, _ := st.GetArticle(context.Background(), seeded[0].ID)
	if a.IsUpdated {
		t.Error("dry run must not write")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	finder := &fakeFinder{}
	c := NewEnrichmentCore(finder, &fakeExtractor{}, &fakeSynthesizer{}, persistence.New(nil, store.NewMemoryStore()), DefaultOptions())

	report, err := c.RunArticles(ctx, []store.Article{{ID: "1", Title: "One"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if report.Total() != 0 || len(finder.queries) != 0 {
		t.Error("no article should be processed after cancellation")
	}
}

func TestReportString(t *testing.T) {
	r := &Report{RunID: "run-1"}
	r.add(ArticleResult{Title: "A", Outcome: OutcomeSucceeded})
	r.add(ArticleResult{Title: "B", Outcome: OutcomeSkipped, Reason: "no search results"})
	r.add(ArticleResult{Title: "C", Outcome: OutcomeFailed, Reason: "persistence failed"})

	s := r.String()
	for _, want := range []string{"Succeeded: 1", "Skipped:   1", "Failed:    1", "Total:     3", "[skipped] B: no search results", "[failed] C: persistence failed"} {
		if !strings.Contains(s, want) {
			t.Errorf("report missing %q:\n%s", want, s)
		}
	}
	if strings.Contains(s, "] A:") {
		t.Error("succeeded articles are not listed")
	}
}
