package embedding

// #region imports
import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// #endregion

// #region embedder-struct

// Known output dimensionalities per Google embedding model.
// gemini-embedding-001 returns 3072-dim vectors unless truncation is
// requested; the older text-embedding models return 768.
var genAIDims = map[string]int{
	"gemini-embedding-001": 3072,
	"text-embedding-004":   768,
	"embedding-001":        768,
}

// GenAIEmbedder produces embeddings through Google's Gemini API.
type GenAIEmbedder struct {
	client *genai.Client
	model  string
	dim    int
}

// NewGenAIEmbedder creates a Gemini embedding engine. An empty model selects
// gemini-embedding-001. A model with an unknown dimensionality is rejected
// here rather than poisoning the index identity.
func NewGenAIEmbedder(apiKey, model string) (*GenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("genai embedder requires an api key")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}
	dim, ok := genAIDims[model]
	if !ok {
		return nil, fmt.Errorf("genai model %q has unknown dimensionality", model)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAIEmbedder{client: client, model: model, dim: dim}, nil
}

// #endregion

// #region embed

// Embed requests one embedding vector.
func (e *GenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model, contents,
		&genai.EmbedContentConfig{TaskType: "RETRIEVAL_DOCUMENT"})
	if err != nil {
		return nil, fmt.Errorf("genai embed: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("genai returned no embeddings")
	}
	return result.Embeddings[0].Values, nil
}

// Identity reports the model and dimensionality of this engine.
func (e *GenAIEmbedder) Identity() Identity {
	return Identity{Model: e.model, Dim: e.dim}
}

// #endregion
