// Package retrieval selects the passages most similar to a live query from
// the knowledge index.
package retrieval

// #region imports
import (
	"fmt"

	"github.com/pepper-tutor/go-brain/internal/embedding"
	"github.com/pepper-tutor/go-brain/internal/knowledge"
)

// #endregion

// #region query

// Query is one ephemeral retrieval request.
type Query struct {
	Text string
	Task string // informational, carried through for logging
	TopK int
}

// #endregion

// #region result

// Scored pairs a passage with its relevance to the query.
type Scored struct {
	Passage knowledge.Passage
	Score   float64
}

// Result is an ordered sequence of scored passages, sorted descending by
// score, ties broken by ingestion ordinal (earlier passage wins).
type Result []Scored

// #endregion

// #region errors

// InvalidArgumentError reports caller misuse, rejected before any work.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return "invalid argument: " + e.Reason
}

// EmbeddingMismatchError reports a query embedded with a different function
// identity than the index was built with. Requires a reindex to resolve.
type EmbeddingMismatchError struct {
	Query embedding.Identity
	Index embedding.Identity
}

func (e *EmbeddingMismatchError) Error() string {
	return fmt.Sprintf("embedding mismatch: query uses %s, index was built with %s", e.Query, e.Index)
}

// #endregion
