package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/amityadav/refiner/internal/ai/models"
	"github.com/amityadav/refiner/internal/errs"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL  string
	Port         int
	APIBaseURL   string
	AdminAPIKey  string
	APIRateLimit int

	SearchProvider string
	SerpAPIKey     string
	TavilyAPIKey   string
	ScraperAPIKey  string

	LLMProvider    string
	GeminiAPIKey   string
	GeminiModel    string
	GroqAPIKey     string
	CerebrasAPIKey string

	Renderer      string
	ChromePath    string
	RenderTimeout time.Duration
	RenderSettle  time.Duration

	BatchLimit      int
	MaxReferences   int
	MinContentChars int
	ArticleDelay    time.Duration
	ReferenceDelay  time.Duration
	SearchDelay     time.Duration
	RetryAttempts   int
	SearchRetryBase time.Duration
	SynthRetryBase  time.Duration

	EnrichSchedule string
}

// Load loads configuration from environment variables
func Load() Config {
	port := getEnvInt("PORT", 8080)
	return Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		Port:         port,
		APIBaseURL:   strings.TrimRight(getEnv("API_BASE_URL", fmt.Sprintf("http://localhost:%d/api", port)), "/"),
		AdminAPIKey:  os.Getenv("ADMIN_API_KEY"),
		APIRateLimit: getEnvInt("API_RATE_LIMIT", 100),

		SearchProvider: strings.ToLower(getEnv("SEARCH_PROVIDER", "serpapi")),
		SerpAPIKey:     os.Getenv("SERPAPI_API_KEY"),
		TavilyAPIKey:   os.Getenv("TAVILY_API_KEY"),
		ScraperAPIKey:  os.Getenv("SCRAPER_API_KEY"),

		LLMProvider:    strings.ToLower(getEnv("LLM_PROVIDER", "gemini")),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getEnv("GEMINI_MODEL", models.TaskArticleRewriteModel),
		GroqAPIKey:     os.Getenv("GROQ_API_KEY"),
		CerebrasAPIKey: os.Getenv("CEREBRAS_API_KEY"),

		Renderer:      strings.ToLower(getEnv("RENDERER", "chromedp")),
		ChromePath:    os.Getenv("CHROME_PATH"),
		RenderTimeout: getEnvDuration("RENDER_TIMEOUT", 30*time.Second),
		RenderSettle:  getEnvDuration("RENDER_SETTLE", 2*time.Second),

		BatchLimit:      getEnvInt("PIPELINE_BATCH_LIMIT", 100),
		MaxReferences:   getEnvInt("PIPELINE_MAX_REFERENCES", 2),
		MinContentChars: getEnvInt("PIPELINE_MIN_CONTENT_CHARS", 100),
		ArticleDelay:    getEnvDuration("ARTICLE_DELAY", 5*time.Second),
		ReferenceDelay:  getEnvDuration("REFERENCE_DELAY", 2*time.Second),
		SearchDelay:     getEnvDuration("SEARCH_DELAY", 0),
		RetryAttempts:   getEnvInt("RETRY_MAX_ATTEMPTS", 3),
		SearchRetryBase: getEnvDuration("SEARCH_RETRY_BASE", 2*time.Second),
		SynthRetryBase:  getEnvDuration("SYNTH_RETRY_BASE", 3*time.Second),

		EnrichSchedule: os.Getenv("ENRICH_SCHEDULE"),
	}
}

// Validate checks that the credentials for the selected providers are present.
// A failure here is fatal to the whole run.
func (c Config) Validate() error {
	switch c.SearchProvider {
	case "serpapi":
		if c.SerpAPIKey == "" {
			return errs.Config("SERPAPI_API_KEY is required for search provider %q", c.SearchProvider)
		}
	case "tavily":
		if c.TavilyAPIKey == "" {
			return errs.Config("TAVILY_API_KEY is required for search provider %q", c.SearchProvider)
		}
	case "scraperapi":
		if c.ScraperAPIKey == "" {
			return errs.Config("SCRAPER_API_KEY is required for search provider %q", c.SearchProvider)
		}
	default:
		return errs.Config("unsupported search provider: %s (supported: serpapi, tavily, scraperapi)", c.SearchProvider)
	}

	switch c.LLMProvider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return errs.Config("GEMINI_API_KEY is required for LLM provider %q", c.LLMProvider)
		}
	case "groq":
		if c.GroqAPIKey == "" {
			return errs.Config("GROQ_API_KEY is required for LLM provider %q", c.LLMProvider)
		}
	case "cerebras":
		if c.CerebrasAPIKey == "" {
			return errs.Config("CEREBRAS_API_KEY is required for LLM provider %q", c.LLMProvider)
		}
	default:
		return errs.Config("unsupported LLM provider: %s (supported: gemini, groq, cerebras)", c.LLMProvider)
	}

	if c.Renderer != "chromedp" && c.Renderer != "http" {
		return errs.Config("unsupported renderer: %s (supported: chromedp, http)", c.Renderer)
	}
	if c.RetryAttempts < 1 {
		return errs.Config("RETRY_MAX_ATTEMPTS must be at least 1, got %d", c.RetryAttempts)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("[Config] Invalid integer for %s: %q, using %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("2s", "1m30s") or plain milliseconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	log.Printf("[Config] Invalid duration for %s: %q, using %v", key, value, defaultValue)
	return defaultValue
}
