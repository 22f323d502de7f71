package synthesis

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/amityadav/refiner/internal/ai"
	"github.com/amityadav/refiner/internal/errs"
	"github.com/amityadav/refiner/internal/extractor"
	"github.com/amityadav/refiner/internal/metrics"
	"github.com/amityadav/refiner/internal/retry"
	"github.com/amityadav/refiner/prompts"
)

const (
	// MaxInputChars bounds the original and each reference body in the prompt.
	MaxInputChars   = 3000
	Temperature     = 0.7
	MaxOutputTokens = 8192
)

// Synthesizer rewrites an article using reference articles as guidance.
type Synthesizer struct {
	gen    ai.Generator
	policy retry.Policy
}

func New(gen ai.Generator, policy retry.Policy) *Synthesizer {
	if policy.Name == "" {
		policy.Name = "synthesis"
	}
	return &Synthesizer{gen: gen, policy: policy}
}

// Synthesize returns the rewritten article body.
func (s *Synthesizer) Synthesize(ctx context.Context, title, original string, refs []extractor.Content) (string, error) {
	start := time.Now()
	defer func() { metrics.StageDuration.WithLabelValues("synthesize").Observe(time.Since(start).Seconds()) }()

	prompt := BuildPrompt(title, original, refs)
	log.Printf("[Synthesizer] Rewriting %q with %d references via %s (prompt %d chars)", title, len(refs), s.gen.Name(), len(prompt))

	cfg := ai.GenerationConfig{Temperature: Temperature, MaxOutputTokens: MaxOutputTokens}
	text, err := retry.Do(ctx, s.policy, func(ctx context.Context) (string, error) {
		text, err := s.gen.Generate(ctx, prompt, cfg)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			return "", fmt.Errorf("%s: %w", s.gen.Name(), errs.ErrEmptyResult)
		}
		return text, nil
	})
	if err != nil {
		return "", fmt.Errorf("synthesize %q: %w", title, err)
	}

	log.Printf("[Synthesizer] Generated %d characters", utf8.RuneCountInString(text))
	return text, nil
}

// BuildPrompt assembles the single rewrite instruction sent to the provider.
func BuildPrompt(title, original string, refs []extractor.Content) string {
	blocks := make([]string, len(refs))
	for i, ref := range refs {
		blocks[i] = fmt.Sprintf(prompts.ReferenceBlock, i+1, ref.Title, Truncate(ref.Body, MaxInputChars))
	}
	return fmt.Sprintf(prompts.ArticleRewrite, title, Truncate(original, MaxInputChars), strings.Join(blocks, "\n\n"), len(refs))
}

// Truncate cuts s to at most n characters.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
