// Package llm talks to an OpenAI-compatible chat completions endpoint.
package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"excelytics/internal/errors"
	"excelytics/models"
	"excelytics/ports"

	"github.com/goccy/go-json"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	providerOpenAI = "openai"
	maxErrorBody   = 512
)

// Config configures the client.
type Config struct {
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	Temperature float64
}

// OpenAIClient implements ports.LLMClient. One request per call; it never
// retries.
type OpenAIClient struct {
	apiKey      string
	baseURL     string
	temperature float64
	http        *http.Client
}

var _ ports.LLMClient = (*OpenAIClient)(nil)

// NewClient builds a client; the API key is required.
func NewClient(cfg Config) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.ConfigInvalid("missing OpenAI API key")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &OpenAIClient{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		temperature: cfg.Temperature,
		http:        &http.Client{Timeout: timeout},
	}, nil
}

// Close releases idle connections.
func (c *OpenAIClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// ChatCompletion returns only the generated text.
func (c *OpenAIClient) ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (string, error) {
	resp, err := c.ChatCompletionWithUsage(ctx, model, prompt, maxTokens)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// ChatCompletionWithUsage sends one system and one user message. Every
// failure is reported as an external service error.
func (c *OpenAIClient) ChatCompletionWithUsage(ctx context.Context, model string, prompt string, maxTokens int) (*models.LLMResponse, error) {
	if strings.TrimSpace(model) == "" {
		return nil, errors.ConfigInvalid("missing model")
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	raw, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a careful data analyst. Answer in concise Markdown."},
			{Role: "user", Content: prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.ExternalServiceError(providerOpenAI, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	respRaw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.ExternalServiceError(providerOpenAI, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.ExternalServiceError(providerOpenAI, fmt.Errorf("http %d: %s", resp.StatusCode, truncate(respRaw)))
	}

	var decoded chatResponse
	if err := json.Unmarshal(respRaw, &decoded); err != nil {
		return nil, errors.ExternalServiceError(providerOpenAI, fmt.Errorf("unmarshal response: %w", err))
	}
	if decoded.Error != nil {
		return nil, errors.ExternalServiceError(providerOpenAI, fmt.Errorf("%s: %s", decoded.Error.Type, decoded.Error.Message))
	}
	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return nil, errors.ExternalServiceError(providerOpenAI, fmt.Errorf("response missing choices"))
	}

	out := &models.LLMResponse{Content: decoded.Choices[0].Message.Content}
	if decoded.Usage != nil {
		usedModel := decoded.Model
		if usedModel == "" {
			usedModel = model
		}
		out.Usage = &models.UsageData{
			PromptTokens:     decoded.Usage.PromptTokens,
			CompletionTokens: decoded.Usage.CompletionTokens,
			TotalTokens:      decoded.Usage.TotalTokens,
			Model:            usedModel,
			Provider:         providerOpenAI,
		}
	}
	return out, nil
}

func truncate(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
