package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/amityadav/refiner/internal/errs"
	"google.golang.org/genai"
)

const geminiName = "Gemini"

// GeminiProvider generates text through the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, errs.Config("GEMINI_API_KEY is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: model}, nil
}

func (g *GeminiProvider) Name() string {
	return geminiName
}

func (g *GeminiProvider) Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	log.Printf("[Gemini] Generating with %s (%d prompt chars)", g.model, len(prompt))

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(cfg.Temperature),
		MaxOutputTokens: cfg.MaxOutputTokens,
	})
	if err != nil {
		log.Printf("[Gemini] Request failed: %v", err)
		return "", classifyGeminiError(err)
	}

	text := strings.TrimSpace(firstCandidateText(resp))
	if text == "" {
		return "", fmt.Errorf("gemini returned no candidate text: %w", errs.ErrEmptyResult)
	}
	log.Printf("[Gemini] Success, response length: %d", len(text))
	return text, nil
}

// firstCandidateText joins the non-thought text parts of the first candidate.
func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range c.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return errs.FromStatus(geminiName, apiErr.Code, apiErr.Status+": "+apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return errs.FromStatus(geminiName, apiErrPtr.Code, apiErrPtr.Status+": "+apiErrPtr.Message)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errs.FromMessage(geminiName, err.Error())
}
