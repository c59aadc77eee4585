// Package gateway routes composed prompts to external language-model
// backends. Every backend is reached through one uniform Invoke capability;
// adding a provider means one adapter plus one configuration entry, with no
// change to the router's dispatch logic.
package gateway

// #region imports
import (
	"context"
	"fmt"

	"github.com/pepper-tutor/go-brain/internal/config"
	"github.com/pepper-tutor/go-brain/internal/prompt"
)

// #endregion

// #region request

// Request is the flattened call shape every backend accepts.
type Request struct {
	Model       string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// #endregion

// #region backend

// Backend is the uniform capability over all model providers.
type Backend interface {
	// ID reports the configured backend identifier.
	ID() string

	// Invoke sends the flattened prompt and returns the response text.
	Invoke(ctx context.Context, req Request) (string, error)
}

// #endregion

// #region registry

// NewBackends builds one adapter per configured backend entry, keyed by the
// entry's id. Kind selects the adapter; several entries may share a kind
// (e.g. DeepSeek is an OpenAI-compatible entry with its own base URL).
func NewBackends(cfgs map[string]config.BackendConfig) (map[string]Backend, error) {
	backends := make(map[string]Backend, len(cfgs))
	for id, cfg := range cfgs {
		switch cfg.Kind {
		case "openai":
			backends[id] = NewOpenAIBackend(id, cfg.APIKey, cfg.BaseURL)
		case "anthropic":
			backends[id] = NewAnthropicBackend(id, cfg.APIKey, cfg.BaseURL)
		case "google":
			backends[id] = NewGoogleBackend(id, cfg.APIKey, cfg.BaseURL)
		case "ollama":
			backends[id] = NewOllamaBackend(id, cfg.BaseURL)
		default:
			return nil, fmt.Errorf("backend %q has unknown kind %q", id, cfg.Kind)
		}
	}
	return backends, nil
}

// #endregion

// #region errors

// UnroutedTaskError reports a task type with no configured backend route.
// There is no implicit default backend: silently invoking an unintended
// model would be worse than failing loudly.
type UnroutedTaskError struct {
	Task prompt.TaskType
}

func (e *UnroutedTaskError) Error() string {
	return "no backend route configured for task type " + string(e.Task)
}

// APIError carries the HTTP status a backend answered with, so the caller
// can tell rate limiting apart from other backend faults.
type APIError struct {
	Backend string
	Status  int
	Detail  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend %s returned status %d: %s", e.Backend, e.Status, e.Detail)
}

// RateLimited reports whether the backend asked us to back off.
func (e *APIError) RateLimited() bool { return e.Status == 429 }

// #endregion
