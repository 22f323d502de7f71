package config

import (
	"errors"
	"testing"
	"time"

	"github.com/amityadav/refiner/internal/ai/models"
	"github.com/amityadav/refiner/internal/errs"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("API_BASE_URL", "")
	t.Setenv("ARTICLE_DELAY", "")
	t.Setenv("REFERENCE_DELAY", "1500")
	t.Setenv("SEARCH_PROVIDER", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("GEMINI_MODEL", "")

	cfg := Load()

	if cfg.APIBaseURL != "http://localhost:9090/api" {
		t.Errorf("unexpected API base URL: %s", cfg.APIBaseURL)
	}
	if cfg.ArticleDelay != 5*time.Second {
		t.Errorf("expected default article delay 5s, got %v", cfg.ArticleDelay)
	}
	if cfg.ReferenceDelay != 1500*time.Millisecond {
		t.Errorf("expected millisecond parsing, got %v", cfg.ReferenceDelay)
	}
	if cfg.SearchProvider != "serpapi" || cfg.LLMProvider != "gemini" {
		t.Errorf("unexpected providers: %s / %s", cfg.SearchProvider, cfg.LLMProvider)
	}
	if cfg.GeminiModel != models.TaskArticleRewriteModel {
		t.Errorf("expected default Gemini model %s, got %s", models.TaskArticleRewriteModel, cfg.GeminiModel)
	}
	if cfg.MaxReferences != 2 || cfg.MinContentChars != 100 || cfg.RetryAttempts != 3 {
		t.Errorf("unexpected pipeline defaults: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		SearchProvider: "serpapi",
		SerpAPIKey:     "serp",
		LLMProvider:    "gemini",
		GeminiAPIKey:   "gem",
		Renderer:       "chromedp",
		RetryAttempts:  3,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "missing search key", mutate: func(c *Config) { c.SerpAPIKey = "" }},
		{name: "missing tavily key", mutate: func(c *Config) { c.SearchProvider = "tavily" }},
		{name: "unknown search provider", mutate: func(c *Config) { c.SearchProvider = "bing" }},
		{name: "missing gemini key", mutate: func(c *Config) { c.GeminiAPIKey = "" }},
		{name: "missing groq key", mutate: func(c *Config) { c.LLMProvider = "groq" }},
		{name: "unknown renderer", mutate: func(c *Config) { c.Renderer = "lynx" }},
		{name: "zero attempts", mutate: func(c *Config) { c.RetryAttempts = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, errs.ErrConfig) {
				t.Errorf("expected ErrConfig, got %v", err)
			}
		})
	}
}
