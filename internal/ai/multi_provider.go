package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/amityadav/refiner/internal/errs"
)

// MultiProvider tries each provider in order until one produces text.
type MultiProvider struct {
	providers []Generator
}

// NewMultiProvider creates a new multi-provider orchestrator
func NewMultiProvider(providers ...Generator) *MultiProvider {
	if len(providers) == 0 {
		panic("at least one provider required")
	}
	return &MultiProvider{providers: providers}
}

func (m *MultiProvider) Name() string {
	names := make([]string, len(m.providers))
	for i, p := range m.providers {
		names[i] = p.Name()
	}
	return "Multi[" + strings.Join(names, "+") + "]"
}

// Generate falls through to the next provider on any error. When every
// provider fails the last error is returned, so a rate limit on the final
// provider stays retryable.
func (m *MultiProvider) Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	var lastErr error
	for i, provider := range m.providers {
		log.Printf("[MultiProvider] Trying %s (attempt %d/%d)...", provider.Name(), i+1, len(m.providers))
		text, err := provider.Generate(ctx, prompt, cfg)
		if err == nil {
			log.Printf("[MultiProvider] %s generated %d characters", provider.Name(), len(text))
			return text, nil
		}
		log.Printf("[MultiProvider] %s failed: %v", provider.Name(), err)
		lastErr = err
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
	}
	if errors.Is(lastErr, errs.ErrConfig) {
		return "", lastErr
	}
	return "", fmt.Errorf("all providers failed: %w", lastErr)
}
