package store

import (
	"context"
	"math"
	"time"

	"github.com/amityadav/refiner/internal/errs"
	"github.com/google/uuid"
)

type ListParams struct {
	Page      int
	Limit     int
	IsUpdated *bool
	Oldest    bool // oldest first instead of newest first
}

func (p ListParams) normalized() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}
	return p
}

func (p ListParams) offset() int {
	return (p.Page - 1) * p.Limit
}

type Pagination struct {
	CurrentPage   int  `json:"currentPage"`
	TotalPages    int  `json:"totalPages"`
	TotalArticles int  `json:"totalArticles"`
	HasNext       bool `json:"hasNext"`
	HasPrev       bool `json:"hasPrev"`
}

func newPagination(p ListParams, total int) Pagination {
	pages := int(math.Ceil(float64(total) / float64(p.Limit)))
	return Pagination{
		CurrentPage:   p.Page,
		TotalPages:    pages,
		TotalArticles: total,
		HasNext:       p.Page < pages,
		HasPrev:       p.Page > 1,
	}
}

type Stats struct {
	Total            int     `json:"total"`
	Updated          int     `json:"updated"`
	NotUpdated       int     `json:"notUpdated"`
	UpdatePercentage float64 `json:"updatePercentage"`
}

func newStats(total, updated int) Stats {
	s := Stats{Total: total, Updated: updated, NotUpdated: total - updated}
	if total > 0 {
		s.UpdatePercentage = math.Round(float64(updated)/float64(total)*10000) / 100
	}
	return s
}

type Store interface {
	// Pipeline
	ListUnprocessed(ctx context.Context, limit int) ([]Article, error)
	CommitUpdate(ctx context.Context, id, body string, refs []Reference, ts time.Time) (*Article, error)

	// Articles
	ListArticles(ctx context.Context, params ListParams) ([]Article, Pagination, error)
	GetArticle(ctx context.Context, id string) (*Article, error)
	CreateArticle(ctx context.Context, a *Article) (*Article, error)
	UpdateArticle(ctx context.Context, id string, patch ArticlePatch) (*Article, error)
	DeleteArticle(ctx context.Context, id string) (*Article, error)
	Stats(ctx context.Context) (Stats, error)

	// General
	Close()
}

func parseID(id string) (uuid.UUID, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, errs.Validation("invalid article ID format: %q", id)
	}
	return u, nil
}

func commitPatch(body string, refs []Reference, ts time.Time) (ArticlePatch, error) {
	if body == "" {
		return ArticlePatch{}, errs.Validation("synthesized body is empty")
	}
	if len(refs) == 0 {
		return ArticlePatch{}, errs.Validation("at least one reference is required")
	}
	updated := true
	return ArticlePatch{
		IsUpdated:      &updated,
		UpdatedContent: &body,
		References:     &refs,
		LastUpdated:    &ts,
	}, nil
}
