package extractor

import "context"

// Renderer loads a URL and returns its DOM snapshot.
type Renderer interface {
	Name() string
	Render(ctx context.Context, url string) (*Page, error)
}

const (
	viewportWidth  = 1920
	viewportHeight = 1080
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)
