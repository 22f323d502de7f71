package store

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/amityadav/refiner/internal/errs"
)

const (
	DefaultAuthor  = "Unknown Author"
	MaxTitleLength = 500
	excerptLength  = 200
)

// Reference is an external article cited by an enriched article. Only the
// title and URL are persisted.
type Reference struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type Article struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Content        string      `json:"content"`
	Author         string      `json:"author"`
	PublishedDate  time.Time   `json:"publishedDate"`
	SourceURL      string      `json:"sourceUrl"`
	ImageURL       *string     `json:"imageUrl"`
	IsUpdated      bool        `json:"isUpdated"`
	UpdatedContent *string     `json:"updatedContent"`
	References     []Reference `json:"references"`
	ScrapedAt      time.Time   `json:"scrapedAt"`
	LastUpdated    *time.Time  `json:"lastUpdated"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// Excerpt returns the first 200 characters of the content.
func (a *Article) Excerpt() string {
	if utf8.RuneCountInString(a.Content) <= excerptLength {
		return a.Content
	}
	return string([]rune(a.Content)[:excerptLength]) + "..."
}

// ArticlePatch is a partial update. Nil fields are left untouched.
type ArticlePatch struct {
	Title          *string      `json:"title,omitempty"`
	Content        *string      `json:"content,omitempty"`
	Author         *string      `json:"author,omitempty"`
	PublishedDate  *time.Time   `json:"publishedDate,omitempty"`
	SourceURL      *string      `json:"sourceUrl,omitempty"`
	ImageURL       *string      `json:"imageUrl,omitempty"`
	IsUpdated      *bool        `json:"isUpdated,omitempty"`
	UpdatedContent *string      `json:"updatedContent,omitempty"`
	References     *[]Reference `json:"references,omitempty"`
	LastUpdated    *time.Time   `json:"lastUpdated,omitempty"`
}

// Apply copies the set fields onto a. lastUpdated is stamped with now unless
// the patch carries its own.
func (p ArticlePatch) Apply(a *Article, now time.Time) {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Content != nil {
		a.Content = *p.Content
	}
	if p.Author != nil {
		a.Author = *p.Author
	}
	if p.PublishedDate != nil {
		a.PublishedDate = *p.PublishedDate
	}
	if p.SourceURL != nil {
		a.SourceURL = *p.SourceURL
	}
	if p.ImageURL != nil {
		img := *p.ImageURL
		a.ImageURL = &img
	}
	if p.IsUpdated != nil {
		a.IsUpdated = *p.IsUpdated
	}
	if p.UpdatedContent != nil {
		body := *p.UpdatedContent
		a.UpdatedContent = &body
	}
	if p.References != nil {
		a.References = append([]Reference(nil), (*p.References)...)
	}
	ts := now
	if p.LastUpdated != nil {
		ts = *p.LastUpdated
	}
	a.LastUpdated = &ts
	a.UpdatedAt = now
}

// Normalize trims string fields and fills defaults for a new article.
func (a *Article) Normalize(now time.Time) {
	a.Title = strings.TrimSpace(a.Title)
	a.SourceURL = strings.TrimSpace(a.SourceURL)
	a.Author = strings.TrimSpace(a.Author)
	if a.Author == "" {
		a.Author = DefaultAuthor
	}
	if a.PublishedDate.IsZero() {
		a.PublishedDate = now
	}
	if a.ScrapedAt.IsZero() {
		a.ScrapedAt = now
	}
	if a.References == nil {
		a.References = []Reference{}
	}
}

// ValidateArticle enforces the record shape every write must satisfy.
func ValidateArticle(a *Article) error {
	title := strings.TrimSpace(a.Title)
	switch {
	case title == "":
		return errs.Validation("article title is required")
	case utf8.RuneCountInString(title) > MaxTitleLength:
		return errs.Validation("title cannot exceed %d characters", MaxTitleLength)
	case a.Content == "":
		return errs.Validation("article content is required")
	case strings.TrimSpace(a.SourceURL) == "":
		return errs.Validation("source URL is required")
	}
	if a.IsUpdated && (a.UpdatedContent == nil || *a.UpdatedContent == "" || len(a.References) == 0) {
		return errs.Validation("an updated article needs updated content and at least one reference")
	}
	return nil
}
