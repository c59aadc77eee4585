// Package embedding provides the embedding capability used by both the
// indexer and the retriever: text in, fixed-length float vector out. Every
// engine exposes its Identity (model name + dimensionality); an index built
// with one identity must only be queried through the same identity.
package embedding

// #region imports
import (
	"context"
	"fmt"

	"github.com/pepper-tutor/go-brain/internal/config"
)

// #endregion

// #region identity

// Identity names the embedding function version. Two identities are
// interchangeable only if both fields match.
type Identity struct {
	Model string
	Dim   int
}

// String renders the identity as "model/dim" for storage and log lines.
func (id Identity) String() string {
	return fmt.Sprintf("%s/%d", id.Model, id.Dim)
}

// #endregion

// #region embedder

// Embedder converts text into a fixed-length vector.
type Embedder interface {
	// Embed produces the vector for one text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Identity reports the embedding function version this engine speaks.
	Identity() Identity
}

// #endregion

// #region factory

// New builds the configured embedding engine.
func New(cfg config.EmbedderConfig) (Embedder, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIEmbedder(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case "ollama":
		return NewOllamaEmbedder(cfg.BaseURL, cfg.Model), nil
	case "google":
		return NewGenAIEmbedder(cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown embedder provider %q", cfg.Provider)
	}
}

// #endregion
