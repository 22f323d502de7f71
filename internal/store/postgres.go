package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/amityadav/refiner/internal/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const articleColumns = `id::text, title, content, author, published_date, source_url, image_url,
	is_updated, updated_content, refs, scraped_at, last_updated, created_at, updated_at`

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	db, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

func (s *PostgresStore) CreateArticle(ctx context.Context, a *Article) (*Article, error) {
	if err := ValidateArticle(a); err != nil {
		return nil, err
	}
	c := clone(a)
	c.Normalize(time.Now().UTC())
	refs, err := json.Marshal(c.References)
	if err != nil {
		return nil, fmt.Errorf("failed to encode references: %w", err)
	}

	log.Printf("[Store.CreateArticle] Inserting article: %s", c.Title)
	query := `
		INSERT INTO articles (title, content, author, published_date, source_url, image_url,
			is_updated, updated_content, refs, scraped_at, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + articleColumns
	row := s.db.QueryRow(ctx, query, c.Title, c.Content, c.Author, c.PublishedDate, c.SourceURL, c.ImageURL,
		c.IsUpdated, c.UpdatedContent, refs, c.ScrapedAt, c.LastUpdated)
	created, err := scanArticle(row)
	if err != nil {
		log.Printf("[Store.CreateArticle] Insert failed: %v", err)
		return nil, fmt.Errorf("failed to insert article: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetArticle(ctx context.Context, id string) (*Article, error) {
	if _, err := parseID(id); err != nil {
		return nil, err
	}
	row := s.db.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = $1`, id)
	a, err := scanArticle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("article %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return a, nil
}

// UpdateArticle applies patch under a row lock so the validated record and the
// written record are the same.
func (s *PostgresStore) UpdateArticle(ctx context.Context, id string, patch ArticlePatch) (*Article, error) {
	if _, err := parseID(id); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = $1 FOR UPDATE`, id)
	current, err := scanArticle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("article %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load article: %w", err)
	}

	patch.Apply(current, time.Now().UTC())
	if err := ValidateArticle(current); err != nil {
		return nil, err
	}
	refs, err := json.Marshal(current.References)
	if err != nil {
		return nil, fmt.Errorf("failed to encode references: %w", err)
	}

	query := `
		UPDATE articles
		SET title = $2, content = $3, author = $4, published_date = $5, source_url = $6, image_url = $7,
			is_updated = $8, updated_content = $9, refs = $10, last_updated = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + articleColumns
	row = tx.QueryRow(ctx, query, id, current.Title, current.Content, current.Author, current.PublishedDate,
		current.SourceURL, current.ImageURL, current.IsUpdated, current.UpdatedContent, refs, current.LastUpdated)
	updated, err := scanArticle(row)
	if err != nil {
		return nil, fmt.Errorf("failed to update article: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit article update: %w", err)
	}
	return updated, nil
}

// CommitUpdate records a synthesis result in a single statement.
func (s *PostgresStore) CommitUpdate(ctx context.Context, id, body string, refs []Reference, ts time.Time) (*Article, error) {
	if _, err := commitPatch(body, refs, ts); err != nil {
		return nil, err
	}
	if _, err := parseID(id); err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(refs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode references: %w", err)
	}

	log.Printf("[Store.CommitUpdate] Committing enrichment for article %s (%d references)", id, len(refs))
	query := `
		UPDATE articles
		SET is_updated = TRUE, updated_content = $2, refs = $3, last_updated = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + articleColumns
	a, err := scanArticle(s.db.QueryRow(ctx, query, id, body, encoded, ts))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("article %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to commit article update: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) DeleteArticle(ctx context.Context, id string) (*Article, error) {
	if _, err := parseID(id); err != nil {
		return nil, err
	}
	row := s.db.QueryRow(ctx, `DELETE FROM articles WHERE id = $1 RETURNING `+articleColumns, id)
	a, err := scanArticle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("article %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete article: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) ListUnprocessed(ctx context.Context, limit int) ([]Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE is_updated = FALSE ORDER BY created_at ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list unprocessed articles: %w", err)
	}
	return collectArticles(rows)
}

func (s *PostgresStore) ListArticles(ctx context.Context, params ListParams) ([]Article, Pagination, error) {
	p := params.normalized()

	where := ""
	args := []any{}
	if p.IsUpdated != nil {
		where = ` WHERE is_updated = $1`
		args = append(args, *p.IsUpdated)
	}

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM articles`+where, args...).Scan(&total); err != nil {
		return nil, Pagination{}, fmt.Errorf("failed to count articles: %w", err)
	}

	order := "DESC"
	if p.Oldest {
		order = "ASC"
	}
	query := fmt.Sprintf(`SELECT %s FROM articles%s ORDER BY created_at %s LIMIT $%d OFFSET $%d`,
		articleColumns, where, order, len(args)+1, len(args)+2)
	rows, err := s.db.Query(ctx, query, append(args, p.Limit, p.offset())...)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("failed to list articles: %w", err)
	}
	articles, err := collectArticles(rows)
	if err != nil {
		return nil, Pagination{}, err
	}
	return articles, newPagination(p, total), nil
}

func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	var total, updated int
	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE is_updated) FROM articles`
	if err := s.db.QueryRow(ctx, query).Scan(&total, &updated); err != nil {
		return Stats{}, fmt.Errorf("failed to compute article stats: %w", err)
	}
	return newStats(total, updated), nil
}

func scanArticle(row pgx.Row) (*Article, error) {
	var a Article
	var refs []byte
	err := row.Scan(&a.ID, &a.Title, &a.Content, &a.Author, &a.PublishedDate, &a.SourceURL, &a.ImageURL,
		&a.IsUpdated, &a.UpdatedContent, &refs, &a.ScrapedAt, &a.LastUpdated, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.References = []Reference{}
	if len(refs) > 0 {
		if err := json.Unmarshal(refs, &a.References); err != nil {
			return nil, fmt.Errorf("failed to decode references: %w", err)
		}
	}
	return &a, nil
}

func collectArticles(rows pgx.Rows) ([]Article, error) {
	defer rows.Close()
	articles := []Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read articles: %w", err)
	}
	return articles, nil
}
