package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/amityadav/refiner/internal/ai/models"
	"github.com/amityadav/refiner/internal/errs"
)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []textMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int32         `json:"max_tokens,omitempty"`
}

type textMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// BaseProvider implements common functionality for OpenAI-compatible APIs
type BaseProvider struct {
	config ProviderConfig
	client *http.Client
}

// NewBaseProvider creates a new base provider
func NewBaseProvider(config ProviderConfig) *BaseProvider {
	return &BaseProvider{
		config: config,
		client: &http.Client{Timeout: 90 * time.Second},
	}
}

func (p *BaseProvider) Name() string {
	return p.config.Name
}

// Generate sends prompt as a single user message.
func (p *BaseProvider) Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	if p.config.APIKey == "" {
		return "", errs.Config("%s API key is not set", p.config.Name)
	}
	reqBody := chatRequest{
		Model:       p.config.Model,
		Messages:    []textMessage{{Role: "user", Content: prompt}},
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxOutputTokens,
	}
	return p.sendRequest(ctx, reqBody, "Generate")
}

// sendRequest handles HTTP requests to the AI provider
func (p *BaseProvider) sendRequest(ctx context.Context, reqBody chatRequest, operation string) (string, error) {
	log.Printf("[%s.%s] Sending request (model=%s)...", p.config.Name, operation, reqBody.Model)

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", p.config.Name, err)
	}
	defer resp.Body.Close()

	log.Printf("[%s.%s] Response status: %d", p.config.Name, operation, resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", errs.FromStatus(p.config.Name, resp.StatusCode, string(bodyBytes))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices: %w", p.config.Name, errs.ErrEmptyResult)
	}
	content := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%s returned empty content: %w", p.config.Name, errs.ErrEmptyResult)
	}

	log.Printf("[%s.%s] Success, response length: %d", p.config.Name, operation, len(content))
	return content, nil
}

// Convenience constructors for specific providers

// NewGroqProvider creates a Groq provider
func NewGroqProvider(apiKey string) *BaseProvider {
	return NewBaseProvider(ProviderConfig{
		Name:    "Groq",
		BaseURL: "https://api.groq.com/openai/v1/chat/completions",
		APIKey:  apiKey,
		Model:   models.TaskArticleRewriteGroqModel,
	})
}

// NewCerebrasProvider creates a Cerebras provider
func NewCerebrasProvider(apiKey string) *BaseProvider {
	return NewBaseProvider(ProviderConfig{
		Name:    "Cerebras",
		BaseURL: "https://api.cerebras.ai/v1/chat/completions",
		APIKey:  apiKey,
		Model:   models.TaskArticleRewriteCerebrasModel,
	})
}
