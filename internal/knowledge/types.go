// Package knowledge owns the passage arena: splitting a source document into
// overlapping windows, embedding each window, and persisting the resulting
// index so serving starts never re-embed. The index is read-only once built;
// rebuilds go through Holder's atomic swap.
package knowledge

// #region imports
import (
	"fmt"
	"sync/atomic"

	"github.com/pepper-tutor/go-brain/internal/embedding"
)

// #endregion

// #region document

// Document is a raw source text handed to the indexer.
type Document struct {
	Name string
	Text string
}

// #endregion

// #region passage

// Passage is one bounded chunk of the source document. Ordinal is the stable
// arena address and the retrieval tie-break key; the passage is immutable
// once the index is built.
type Passage struct {
	Ordinal int
	ID      string
	Text    string
	Source  string
	Vector  []float32
}

// #endregion

// #region index

// Index is the searchable arena of passages plus the identity of the
// embedding function that produced every vector in it.
type Index struct {
	Passages []Passage
	Embedder embedding.Identity
}

// Len returns the number of passages in the arena.
func (ix *Index) Len() int { return len(ix.Passages) }

// #endregion

// #region holder

// Holder publishes the current index to concurrent readers. Rebuilds prepare
// a complete replacement off to the side and install it with a single atomic
// pointer swap, so the serving path never observes a partially built index.
type Holder struct {
	current atomic.Pointer[Index]
}

// Current returns the installed index, or nil when none has been installed.
func (h *Holder) Current() *Index { return h.current.Load() }

// Swap installs a fully built index.
func (h *Holder) Swap(ix *Index) { h.current.Store(ix) }

// #endregion

// #region errors

// IngestionError reports a source document the indexer cannot work with:
// empty, unreadable, or yielding zero passages. Fatal to indexing only.
type IngestionError struct {
	Reason string
}

func (e *IngestionError) Error() string {
	return "ingestion: " + e.Reason
}

// IndexUnavailableError reports that the persisted index could not be read
// (missing or corrupt store). Serving cannot proceed on this error; it is
// distinct from a present-but-empty index, which loads fine.
type IndexUnavailableError struct {
	Cause error
}

func (e *IndexUnavailableError) Error() string {
	return fmt.Sprintf("index unavailable: %v", e.Cause)
}

func (e *IndexUnavailableError) Unwrap() error { return e.Cause }

// #endregion
