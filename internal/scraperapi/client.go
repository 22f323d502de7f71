package scraperapi

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/amityadav/refiner/internal/errs"
	"github.com/amityadav/refiner/internal/search"
)

const (
	providerName = "scraperapi"
	apiURL       = "https://api.scraperapi.com"
)

// Client fetches Google result pages through ScraperAPI and parses the raw HTML.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: apiURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// WithBaseURL points the client at a different endpoint.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

func (c *Client) Name() string {
	return providerName
}

func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	if c.apiKey == "" {
		return nil, errs.Config("ScraperAPI key is not set")
	}

	googleURL := "https://www.google.com/search?q=" + url.QueryEscape(query) + "&num=" + strconv.Itoa(maxResults)
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("url", googleURL)
	params.Set("render", "false")

	log.Printf("[ScraperAPI] Searching Google for: %q", query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scraperapi request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errs.FromStatus(providerName, resp.StatusCode, string(body))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search page: %w", err)
	}

	results := parseResults(doc, maxResults)
	log.Printf("[ScraperAPI] Found %d search results", len(results))
	return results, nil
}

// parseResults reads organic results from a Google result page. Anchors that
// wrap an <h3> are organic results; when the layout has none, every outbound
// link is taken in page order.
func parseResults(doc *goquery.Document, limit int) []search.Result {
	var results []search.Result
	seen := map[string]bool{}

	add := func(href, title string) bool {
		link := resolveLink(href)
		if link == "" || seen[link] {
			return true
		}
		seen[link] = true
		results = append(results, search.Result{Title: title, URL: link, Provider: providerName})
		return limit <= 0 || len(results) < limit
	}

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		h3 := a.Find("h3").First()
		if h3.Length() == 0 {
			return true
		}
		href, _ := a.Attr("href")
		return add(href, strings.TrimSpace(h3.Text()))
	})
	if len(results) > 0 {
		return results
	}

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		return add(href, "")
	})
	return results
}

// resolveLink unwraps Google's /url?q= redirects and drops links back to Google.
func resolveLink(href string) string {
	if strings.HasPrefix(href, "/url?") {
		u, err := url.Parse(href)
		if err != nil {
			return ""
		}
		href = u.Query().Get("q")
	}
	u, err := url.Parse(href)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, "google.") || strings.HasSuffix(host, "gstatic.com") {
		return ""
	}
	return u.String()
}
