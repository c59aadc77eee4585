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

// AnthropicBackend speaks the Anthropic messages API.
type AnthropicBackend struct {
	id      string
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewAnthropicBackend creates an Anthropic backend adapter.
func NewAnthropicBackend(id, apiKey, baseURL string) *AnthropicBackend {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}
	return &AnthropicBackend{
		id:      id,
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// ID reports the configured backend identifier.
func (b *AnthropicBackend) ID() string { return b.id }

// #endregion

// #region wire-types

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// #endregion

// #region invoke

// Invoke sends the prompt as a single user message and returns the first
// content block's text.
func (b *AnthropicBackend) Invoke(ctx context.Context, req Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024 // the messages API requires an explicit bound
	}
	body, err := json.Marshal(anthropicRequest{
		Model:       req.Model,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal messages request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create messages request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", b.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("call %s: %w", b.id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &APIError{Backend: b.id, Status: resp.StatusCode, Detail: string(detail)}
	}

	var decoded anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode messages response: %w", err)
	}
	if len(decoded.Content) == 0 {
		return "", fmt.Errorf("backend %s returned no content blocks", b.id)
	}
	return decoded.Content[0].Text, nil
}

// #endregion
