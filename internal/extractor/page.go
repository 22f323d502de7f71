package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is a parsed DOM snapshot of a rendered URL.
type Page struct {
	URL string
	raw string
	doc *goquery.Document
}

// NewPage parses html captured from rawURL.
func NewPage(rawURL, html string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return &Page{URL: rawURL, raw: html, doc: doc}, nil
}

// HTML returns the markup as rendered, before any element removal.
func (p *Page) HTML() string {
	return p.raw
}

// RemoveElements deletes every node matching any of the selectors and
// reports how many were removed.
func (p *Page) RemoveElements(selectors []string) int {
	sel := p.doc.Find(strings.Join(selectors, ", "))
	n := sel.Length()
	sel.Remove()
	return n
}

// FirstText returns the text of the first selector, in order, whose first
// match has non-empty text.
func (p *Page) FirstText(selectors []string) (text, matched string) {
	for _, s := range selectors {
		if t := collapse(p.doc.Find(s).First().Text()); t != "" {
			return t, s
		}
	}
	return "", ""
}

// Container returns the first match of the first selector present on the
// page, falling back to <body>.
func (p *Page) Container(selectors []string) (*goquery.Selection, string) {
	for _, s := range selectors {
		if sel := p.doc.Find(s).First(); sel.Length() > 0 {
			return sel, s
		}
	}
	return p.doc.Find("body").First(), "body"
}

// QueryText returns the collapsed text of every node under scope matching selector.
func QueryText(scope *goquery.Selection, selector string) []string {
	var out []string
	scope.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if t := collapse(s.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// DocumentTitle returns the <title> text.
func (p *Page) DocumentTitle() string {
	return collapse(p.doc.Find("title").First().Text())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
