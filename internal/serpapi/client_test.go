package serpapi

import (
	"context"
	"errors"
	"testing"

	"github.com/amityadav/refiner/internal/errs"
)

func TestSearchParsesOrganicResults(t *testing.T) {
	c := NewClient("key")
	c.fetch = func(params map[string]string, apiKey string) (map[string]interface{}, error) {
		if params["q"] != "chatbots" || params["num"] != "10" {
			t.Errorf("unexpected params: %v", params)
		}
		return map[string]interface{}{
			"organic_results": []interface{}{
				map[string]interface{}{"title": "First", "link": "https://one.example/a", "snippet": "s1"},
				map[string]interface{}{"title": "No link"},
				map[string]interface{}{"link": "https://two.example/b"},
			},
		}, nil
	}

	got, err := c.Search(context.Background(), "chatbots", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Title != "First" || got[1].URL != "https://two.example/b" || got[1].Title != "" {
		t.Errorf("unexpected results: %+v", got)
	}
}

func TestSearchClassifiesErrors(t *testing.T) {
	tests := []struct {
		msg  string
		want error
	}{
		{"Invalid API key. Your API key should be here: https://serpapi.com/manage-api-key", errs.ErrProvider},
		{"Your account has run out of searches.", errs.ErrRateLimited},
		{"Google hasn't returned any results for this query.", errs.ErrUpstream},
	}
	for _, tt := range tests {
		c := NewClient("key")
		msg := tt.msg
		c.fetch = func(map[string]string, string) (map[string]interface{}, error) {
			return nil, errors.New(msg)
		}
		if _, err := c.Search(context.Background(), "q", 10); !errors.Is(err, tt.want) {
			t.Errorf("%q: expected %v, got %v", tt.msg, tt.want, err)
		}
	}
}

func TestSearchMissingKey(t *testing.T) {
	if _, err := NewClient("").Search(context.Background(), "q", 10); !errors.Is(err, errs.ErrConfig) {
		t.Errorf("expected config error, got %v", err)
	}
}
