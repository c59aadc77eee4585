package gateway

// #region imports
import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// #endregion

// #region backend-struct

// OpenAIBackend speaks the OpenAI chat completions API. With a custom base
// URL it also serves OpenAI-compatible providers such as DeepSeek.
type OpenAIBackend struct {
	id      string
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewOpenAIBackend creates an OpenAI-compatible backend adapter.
func NewOpenAIBackend(id, apiKey, baseURL string) *OpenAIBackend {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIBackend{
		id:      id,
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// ID reports the configured backend identifier.
func (b *OpenAIBackend) ID() string { return b.id }

// #endregion

// #region wire-types

type openAIChatRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
	Messages    []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

// #endregion

// #region invoke

// Invoke sends the prompt as a single user message and returns the first
// choice's content.
func (b *OpenAIBackend) Invoke(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(openAIChatRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Messages:    []openAIMessage{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("call %s: %w", b.id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &APIError{Backend: b.id, Status: resp.StatusCode, Detail: string(detail)}
	}

	var decoded openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("backend %s returned no choices", b.id)
	}
	return decoded.Choices[0].Message.Content, nil
}

// #endregion
