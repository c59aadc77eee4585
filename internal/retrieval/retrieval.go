package retrieval

// #region imports
import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/pepper-tutor/go-brain/internal/embedding"
	"github.com/pepper-tutor/go-brain/internal/knowledge"
)

// #endregion

// #region retriever

// Retriever embeds queries and scans the passage arena for the top-k most
// similar passages.
type Retriever struct {
	embedder embedding.Embedder
	logger   *zap.Logger
}

// NewRetriever creates a retriever using the given embedding engine. The
// engine identity must match the identity recorded on any index it queries.
func NewRetriever(embedder embedding.Embedder, logger *zap.Logger) *Retriever {
	return &Retriever{embedder: embedder, logger: logger}
}

// #endregion

// #region retrieve

// Retrieve returns up to q.TopK passages ordered by descending similarity.
// An empty index yields an empty result, not an error. TopK above the index
// size clamps silently; a non-positive TopK is caller misuse.
func (r *Retriever) Retrieve(ctx context.Context, q Query, ix *knowledge.Index) (Result, error) {
	if q.TopK <= 0 {
		return nil, &InvalidArgumentError{Reason: fmt.Sprintf("top_k must be positive, got %d", q.TopK)}
	}

	if own := r.embedder.Identity(); own != ix.Embedder {
		return nil, &EmbeddingMismatchError{Query: own, Index: ix.Embedder}
	}

	if ix.Len() == 0 {
		return Result{}, nil
	}

	queryVec, err := r.embedder.Embed(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored := make(Result, 0, ix.Len())
	for _, p := range ix.Passages {
		scored = append(scored, Scored{Passage: p, Score: cosineSimilarity(queryVec, p.Vector)})
	}

	// Stable sort over the ordinal-ordered arena: equal scores keep
	// ingestion order, making retrieval deterministic.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	k := q.TopK
	if k > len(scored) {
		k = len(scored)
	}
	result := scored[:k]

	r.logger.Debug("retrieved passages",
		zap.String("task", q.Task),
		zap.Int("top_k", q.TopK),
		zap.Int("returned", len(result)))
	return result, nil
}

// #endregion

// #region cosine

// cosineSimilarity scores two vectors in [-1, 1]; zero-norm vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// #endregion
