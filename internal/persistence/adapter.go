package persistence

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/amityadav/refiner/internal/errs"
	"github.com/amityadav/refiner/internal/store"
)

// Path is one way of reaching the article records.
type Path interface {
	ListUnprocessed(ctx context.Context, limit int) ([]store.Article, error)
	CommitUpdate(ctx context.Context, id, body string, refs []store.Reference, ts time.Time) (*store.Article, error)
}

// Adapter writes through the primary path and falls back to a direct store
// write when the primary fails.
type Adapter struct {
	primary  Path
	fallback Path
}

// New builds an adapter. primary may be nil, in which case every call goes
// straight to fallback.
func New(primary, fallback Path) *Adapter {
	return &Adapter{primary: primary, fallback: fallback}
}

// ListUnprocessed lists through the primary path, then the fallback.
func (a *Adapter) ListUnprocessed(ctx context.Context, limit int) ([]store.Article, error) {
	if a.primary != nil {
		articles, err := a.primary.ListUnprocessed(ctx, limit)
		if err == nil {
			return articles, nil
		}
		log.Printf("[Persistence] Primary listing failed, falling back to direct store query: %v", err)
	}
	return a.fallback.ListUnprocessed(ctx, limit)
}

// Commit records the synthesis result. Either path succeeding is success.
func (a *Adapter) Commit(ctx context.Context, id, body string, refs []store.Reference, ts time.Time) error {
	var perr error
	if a.primary != nil {
		if _, perr = a.primary.CommitUpdate(ctx, id, body, refs, ts); perr == nil {
			log.Printf("[Persistence] Article %s updated via primary path", id)
			return nil
		}
		log.Printf("[Persistence] Primary write failed, updating store directly: %v", perr)
	}

	if _, ferr := a.fallback.CommitUpdate(ctx, id, body, refs, ts); ferr != nil {
		if perr == nil {
			return fmt.Errorf("%w: %w", errs.ErrPersistence, ferr)
		}
		return fmt.Errorf("%w: primary path: %v, fallback path: %w", errs.ErrPersistence, perr, ferr)
	}
	log.Printf("[Persistence] Article %s updated via direct store write", id)
	return nil
}
