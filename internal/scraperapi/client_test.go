package scraperapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amityadav/refiner/internal/errs"
)

const resultsPage = `<html><body>
<a href="https://www.google.com/preferences">Settings</a>
<div class="g"><a href="/url?q=https://blog.example.com/ai-support&amp;sa=U"><h3>AI in Support</h3></a></div>
<div class="g"><a href="https://news.example.org/chatbots"><h3>Chatbots Today</h3></a></div>
<div class="g"><a href="https://news.example.org/chatbots"><h3>Chatbots Today (dup)</h3></a></div>
<div class="g"><a href="https://third.example.net/x"><h3>Third</h3></a></div>
</body></html>`

func TestSearchParsesGoogleHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "key" {
			t.Errorf("missing api key")
		}
		if !strings.Contains(r.URL.Query().Get("url"), "q=chatbots") {
			t.Errorf("unexpected target url: %s", r.URL.Query().Get("url"))
		}
		w.Write([]byte(resultsPage))
	}))
	defer srv.Close()

	got, err := NewClient("key").WithBaseURL(srv.URL).Search(context.Background(), "chatbots", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %+v", got)
	}
	if got[0].URL != "https://blog.example.com/ai-support" || got[0].Title != "AI in Support" {
		t.Errorf("unexpected first result: %+v", got[0])
	}
	if got[1].URL != "https://news.example.org/chatbots" {
		t.Errorf("unexpected second result: %+v", got[1])
	}
}

func TestSearchFallsBackToPlainLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<a href="https://www.google.com/x">g</a><a href="https://site.com/blog/my-post">post</a>`))
	}))
	defer srv.Close()

	got, err := NewClient("key").WithBaseURL(srv.URL).Search(context.Background(), "q", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].URL != "https://site.com/blog/my-post" || got[0].Title != "" {
		t.Errorf("unexpected results: %+v", got)
	}
}

func TestSearchRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := NewClient("key").WithBaseURL(srv.URL).Search(context.Background(), "q", 10); !errors.Is(err, errs.ErrRateLimited) {
		t.Errorf("expected rate limit, got %v", err)
	}
}
