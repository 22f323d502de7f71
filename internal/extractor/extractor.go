package extractor

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/amityadav/refiner/internal/metrics"
	"github.com/amityadav/refiner/internal/throttle"
	readability "github.com/go-shiori/go-readability"
)

const (
	errorTitle = "Error loading article"
	// minFragmentChars is the shortest text fragment kept from a page.
	minFragmentChars = 30
)

// removeSelectors are stripped before title or body selection.
var removeSelectors = []string{
	"script", "style", "noscript", "iframe", "svg",
	"nav", "header", "footer", "aside",
	".advertisement", ".ads", ".sidebar", ".comments", ".social-share",
	`[class*="cookie"]`, `[class*="popup"]`, `[class*="modal"]`,
}

// titleSelectors are tried most specific first.
var titleSelectors = []string{"article h1", "h1.title", ".article-title", ".post-title", "h1"}

// contentSelectors go from semantic containers to class-name heuristics.
var contentSelectors = []string{
	"article", "main", `[role="main"]`,
	".article-content", ".post-content", ".entry-content",
	`[class*="post-content"]`, `[class*="article"]`, ".content",
}

const fragmentSelector = "p, h2, h3, h4, li"

var legalBoilerplate = regexp.MustCompile(`(?i)^(copyright|terms|privacy|cookie|©)`)

// Content is the clean text pulled from one reference URL.
type Content struct {
	Title string
	Body  string
	URL   string
	Error bool
}

// Length is the body length in characters.
func (c Content) Length() int {
	return utf8.RuneCountInString(c.Body)
}

// Sufficient reports whether the content is usable as a synthesis input.
func (c Content) Sufficient(minChars int) bool {
	return !c.Error && c.Length() >= minChars
}

// Extractor turns a URL into clean article text.
type Extractor struct {
	renderer Renderer
	throttle throttle.Throttle
}

func New(renderer Renderer, th throttle.Throttle) *Extractor {
	if th == nil {
		th = throttle.None
	}
	return &Extractor{renderer: renderer, throttle: th}
}

// Extract never fails: render or parse problems come back as a Content with
// Error set and a diagnostic body.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (c Content) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Extractor] Panic while extracting %s: %v", rawURL, r)
			c = errorContent(rawURL, fmt.Errorf("panic: %v", r))
		}
		metrics.StageDuration.WithLabelValues("extract").Observe(time.Since(start).Seconds())
	}()

	if err := e.throttle.Wait(ctx); err != nil {
		return errorContent(rawURL, err)
	}
	defer e.throttle.Done()

	log.Printf("[Extractor] Extracting content from: %s (%s)", rawURL, e.renderer.Name())
	page, err := e.renderer.Render(ctx, rawURL)
	if err != nil {
		log.Printf("[Extractor] Render failed for %s: %v", rawURL, err)
		return errorContent(rawURL, err)
	}

	c = FromPage(page)
	log.Printf("[Extractor] Extracted %d characters, title: %q", c.Length(), c.Title)
	return c
}

// FromPage runs element removal, title resolution and body resolution on a
// rendered page.
func FromPage(p *Page) Content {
	removed := p.RemoveElements(removeSelectors)

	title, _ := p.FirstText(titleSelectors)
	if title == "" {
		title = cutTitle(p.DocumentTitle())
	}

	container, matched := p.Container(contentSelectors)
	body := joinFragments(QueryText(container, fragmentSelector))
	if body == "" {
		body = readabilityText(p)
		matched = "readability"
	}
	log.Printf("[Extractor] Removed %d boilerplate nodes, body from %s", removed, matched)

	return Content{Title: title, Body: body, URL: p.URL}
}

// cutTitle keeps the part of a <title> before the first "|" or "-".
func cutTitle(t string) string {
	if i := strings.IndexAny(t, "|-"); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}

func joinFragments(fragments []string) string {
	kept := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if utf8.RuneCountInString(f) < minFragmentChars || legalBoilerplate.MatchString(f) {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, "\n\n")
}

// readabilityText is the last resort for pages whose text is not wrapped in
// paragraph, heading or list nodes.
func readabilityText(p *Page) string {
	u, err := url.Parse(p.URL)
	if err != nil {
		u = &url.URL{}
	}
	article, err := readability.FromReader(strings.NewReader(p.HTML()), u)
	if err != nil {
		return ""
	}
	lines := strings.Split(article.TextContent, "\n")
	for i, l := range lines {
		lines[i] = collapse(l)
	}
	return joinFragments(lines)
}

func errorContent(rawURL string, err error) Content {
	return Content{
		Title: errorTitle,
		Body:  fmt.Sprintf("Failed to extract content from %s: %v", rawURL, err),
		URL:   rawURL,
		Error: true,
	}
}
