package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Client is the completion-service boundary. Everything the engine knows
// about natural language comes through one of these two calls.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ChatClient implements Client against an OpenAI-compatible
// chat-completions endpoint (OpenAI, Anthropic-via-gateway, OpenRouter,
// local servers). It performs exactly one attempt per call; retry policy
// belongs to RetryWithBackoff, never to the transport.
type ChatClient struct {
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client

	mu          sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

// ChatConfig holds configuration for ChatClient.
type ChatConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration

	// MinInterval spaces out requests to stay under provider rate limits.
	MinInterval time.Duration
}

// DefaultChatConfig returns sensible defaults for an OpenAI-compatible
// endpoint. Low temperature because every call expects structured output.
func DefaultChatConfig(apiKey string) ChatConfig {
	return ChatConfig{
		APIKey:      apiKey,
		BaseURL:     "https://api.openai.com/v1",
		Model:       "gpt-4o-mini",
		MaxTokens:   2048,
		Temperature: 0.1,
		Timeout:     60 * time.Second,
		MinInterval: 500 * time.Millisecond,
	}
}

// NewChatClient creates a client with default config.
func NewChatClient(apiKey string) *ChatClient {
	return NewChatClientWithConfig(DefaultChatConfig(apiKey))
}

// NewChatClientWithConfig creates a client with custom config.
func NewChatClientWithConfig(cfg ChatConfig) *ChatClient {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &ChatClient{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		minInterval: cfg.MinInterval,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// SetModel changes the model used for completions.
func (c *ChatClient) SetModel(model string) {
	c.model = model
}

// GetModel returns the current model.
func (c *ChatClient) GetModel() string {
	return c.model
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Complete sends a prompt and returns the completion.
func (c *ChatClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system message.
func (c *ChatClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.apiKey == "" {
		return "", NewAIError(KindInvalidCredential, "API key not configured", nil)
	}

	c.pace()

	messages := make([]chatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	reqBody := chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", NewAIError(KindInvalidRequest, "failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", NewAIError(KindInvalidRequest, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", ClassifyError(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", NewAIError(KindServiceUnavailable, "failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", ClassifyStatus(resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", NewAIError(KindUnknown, "failed to parse response", err)
	}
	if parsed.Error != nil {
		return "", ClassifyError(fmt.Errorf("API error: %s", parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 {
		return "", NewAIError(KindUnknown, "no completion returned", nil)
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// pace enforces the minimum interval between requests.
func (c *ChatClient) pace() {
	if c.minInterval <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if elapsed := time.Since(c.lastRequest); elapsed < c.minInterval {
		time.Sleep(c.minInterval - elapsed)
	}
	c.lastRequest = time.Now()
}
