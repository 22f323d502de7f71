package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amityadav/refiner/internal/errs"
	"github.com/amityadav/refiner/internal/store"
)

type brokenPath struct {
	calls int
}

func (b *brokenPath) ListUnprocessed(ctx context.Context, limit int) ([]store.Article, error) {
	b.calls++
	return nil, errors.New("connection refused")
}

func (b *brokenPath) CommitUpdate(ctx context.Context, id, body string, refs []store.Reference, ts time.Time) (*store.Article, error) {
	b.calls++
	return nil, errors.New("connection refused")
}

func seed(t *testing.T, s *store.MemoryStore) *store.Article {
	t.Helper()
	a, err := s.CreateArticle(context.Background(), &store.Article{Title: "X", Content: "body", SourceURL: "https://x.example"})
	if err != nil {
		t.Fatal(err)
	}
	return a
}

var refs = []store.Reference{{Title: "R", URL: "https://r.example"}}

func TestCommitFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	a := seed(t, mem)
	primary := &brokenPath{}

	if err := New(primary, mem).Commit(ctx, a.ID, "rewritten", refs, time.Now()); err != nil {
		t.Fatalf("expected fallback success, got %v", err)
	}
	if primary.calls != 1 {
		t.Errorf("expected primary to be tried once, got %d", primary.calls)
	}
	got, _ := mem.GetArticle(ctx, a.ID)
	if !got.IsUpdated || *got.UpdatedContent != "rewritten" {
		t.Errorf("fallback write not reflected: %+v", got)
	}
}

func TestCommitPrimaryFirst(t *testing.T) {
	ctx := context.Background()
	primary := store.NewMemoryStore()
	fallback := &brokenPath{}
	a := seed(t, primary)

	if err := New(primary, fallback).Commit(ctx, a.ID, "rewritten", refs, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fallback.calls != 0 {
		t.Error("fallback must not run when primary succeeds")
	}
}

func TestCommitBothFail(t *testing.T) {
	err := New(&brokenPath{}, &brokenPath{}).Commit(context.Background(), "id", "b", refs, time.Now())
	if !errors.Is(err, errs.ErrPersistence) {
		t.Errorf("expected persistence failure, got %v", err)
	}
}

func TestListFallsBack(t *testing.T) {
	mem := store.NewMemoryStore()
	seed(t, mem)
	got, err := New(&brokenPath{}, mem).ListUnprocessed(context.Background(), 10)
	if err != nil || len(got) != 1 {
		t.Errorf("expected fallback listing, got %d, %v", len(got), err)
	}
}
