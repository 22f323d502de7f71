package ai

import (
	"context"
	"log"

	"github.com/amityadav/refiner/internal/config"
	"github.com/amityadav/refiner/internal/errs"
)

// NewGenerator builds the generator selected by cfg.LLMProvider.
// Supported providers: "gemini", "groq", "cerebras"
func NewGenerator(ctx context.Context, cfg config.Config) (Generator, error) {
	switch cfg.LLMProvider {
	case "gemini":
		return NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case "groq":
		groq := NewGroqProvider(cfg.GroqAPIKey)
		if cfg.CerebrasAPIKey != "" {
			log.Printf("[AI] Using Groq with Cerebras fallback")
			return NewMultiProvider(groq, NewCerebrasProvider(cfg.CerebrasAPIKey)), nil
		}
		return groq, nil
	case "cerebras":
		return NewCerebrasProvider(cfg.CerebrasAPIKey), nil
	default:
		return nil, errs.Config("unsupported LLM provider: %s (supported: gemini, groq, cerebras)", cfg.LLMProvider)
	}
}
