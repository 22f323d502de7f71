package ai

import "context"

// GenerationConfig fixes the sampling parameters of one call.
type GenerationConfig struct {
	Temperature     float32
	MaxOutputTokens int32
}

// Generator defines the interface for generative-text providers
type Generator interface {
	Name() string
	// Generate returns the text of the first candidate for prompt.
	Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error)
}

// ProviderConfig holds configuration for an OpenAI-compatible provider
type ProviderConfig struct {
	Name    string
	BaseURL string
	APIKey  string
	Model   string
}
