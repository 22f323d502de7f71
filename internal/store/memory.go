package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/amityadav/refiner/internal/errs"
	"github.com/google/uuid"
)

// MemoryStore keeps articles in process memory. It backs tests and the
// --memory development mode.
type MemoryStore struct {
	mu       sync.RWMutex
	articles map[string]*Article
	seq      map[string]int
	next     int
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		articles: make(map[string]*Article),
		seq:      make(map[string]int),
		now:      time.Now,
	}
}

func (s *MemoryStore) Close() {}

func (s *MemoryStore) CreateArticle(ctx context.Context, a *Article) (*Article, error) {
	if err := ValidateArticle(a); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	c := clone(a)
	c.Normalize(now)
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles[c.ID] = c
	s.seq[c.ID] = s.next
	s.next++
	return clone(c), nil
}

func (s *MemoryStore) GetArticle(ctx context.Context, id string) (*Article, error) {
	if _, err := parseID(id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.articles[id]
	if !ok {
		return nil, fmt.Errorf("article %s: %w", id, errs.ErrNotFound)
	}
	return clone(a), nil
}

func (s *MemoryStore) UpdateArticle(ctx context.Context, id string, patch ArticlePatch) (*Article, error) {
	if _, err := parseID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[id]
	if !ok {
		return nil, fmt.Errorf("article %s: %w", id, errs.ErrNotFound)
	}
	next := clone(a)
	patch.Apply(next, s.now().UTC())
	if err := ValidateArticle(next); err != nil {
		return nil, err
	}
	s.articles[id] = next
	return clone(next), nil
}

func (s *MemoryStore) CommitUpdate(ctx context.Context, id, body string, refs []Reference, ts time.Time) (*Article, error) {
	patch, err := commitPatch(body, refs, ts)
	if err != nil {
		return nil, err
	}
	return s.UpdateArticle(ctx, id, patch)
}

func (s *MemoryStore) DeleteArticle(ctx context.Context, id string) (*Article, error) {
	if _, err := parseID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[id]
	if !ok {
		return nil, fmt.Errorf("article %s: %w", id, errs.ErrNotFound)
	}
	delete(s.articles, id)
	delete(s.seq, id)
	return a, nil
}

// ListUnprocessed returns articles not yet enriched, oldest first.
func (s *MemoryStore) ListUnprocessed(ctx context.Context, limit int) ([]Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.sorted(false)
	out := make([]Article, 0, len(all))
	for _, a := range all {
		if a.IsUpdated {
			continue
		}
		out = append(out, *clone(a))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ListArticles pages through articles, newest first unless params.Oldest is set.
func (s *MemoryStore) ListArticles(ctx context.Context, params ListParams) ([]Article, Pagination, error) {
	p := params.normalized()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*Article
	for _, a := range s.sorted(!p.Oldest) {
		if p.IsUpdated != nil && a.IsUpdated != *p.IsUpdated {
			continue
		}
		matched = append(matched, a)
	}

	out := []Article{}
	for i := p.offset(); i < len(matched) && len(out) < p.Limit; i++ {
		out = append(out, *clone(matched[i]))
	}
	return out, newPagination(p, len(matched)), nil
}

func (s *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	updated := 0
	for _, a := range s.articles {
		if a.IsUpdated {
			updated++
		}
	}
	return newStats(len(s.articles), updated), nil
}

// sorted orders by creation time, breaking ties by insertion order.
func (s *MemoryStore) sorted(newestFirst bool) []*Article {
	all := make([]*Article, 0, len(s.articles))
	for _, a := range s.articles {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if newestFirst {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if newestFirst {
			return s.seq[a.ID] > s.seq[b.ID]
		}
		return s.seq[a.ID] < s.seq[b.ID]
	})
	return all
}

func clone(a *Article) *Article {
	c := *a
	if a.ImageURL != nil {
		v := *a.ImageURL
		c.ImageURL = &v
	}
	if a.UpdatedContent != nil {
		v := *a.UpdatedContent
		c.UpdatedContent = &v
	}
	if a.LastUpdated != nil {
		v := *a.LastUpdated
		c.LastUpdated = &v
	}
	c.References = append([]Reference(nil), a.References...)
	if c.References == nil {
		c.References = []Reference{}
	}
	return &c
}
