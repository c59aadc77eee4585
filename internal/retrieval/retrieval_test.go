package retrieval

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/pepper-tutor/go-brain/internal/embedding"
	"github.com/pepper-tutor/go-brain/internal/knowledge"
)

// vecEmbedder maps known texts onto fixed vectors so similarity is
// controllable from the test.
type vecEmbedder struct {
	vectors map[string][]float32
	id      embedding.Identity
}

func (e *vecEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0}, nil
}

func (e *vecEmbedder) Identity() embedding.Identity { return e.id }

func testIndex(passages ...knowledge.Passage) *knowledge.Index {
	return &knowledge.Index{
		Passages: passages,
		Embedder: embedding.Identity{Model: "stub-embed", Dim: 2},
	}
}

func newTestRetriever(vectors map[string][]float32) *Retriever {
	return NewRetriever(&vecEmbedder{
		vectors: vectors,
		id:      embedding.Identity{Model: "stub-embed", Dim: 2},
	}, zap.NewNop())
}

func TestRetrieve_TopKMustBePositive(t *testing.T) {
	r := newTestRetriever(nil)

	for _, k := range []int{0, -1} {
		_, err := r.Retrieve(context.Background(), Query{Text: "hint", TopK: k}, testIndex())
		var invalid *InvalidArgumentError
		if !errors.As(err, &invalid) {
			t.Errorf("top_k=%d: expected InvalidArgumentError, got %v", k, err)
		}
	}
}

func TestRetrieve_IdentityMismatch(t *testing.T) {
	r := newTestRetriever(nil)
	ix := &knowledge.Index{Embedder: embedding.Identity{Model: "other-model", Dim: 2}}

	_, err := r.Retrieve(context.Background(), Query{Text: "hint", TopK: 1}, ix)

	var mismatch *EmbeddingMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected EmbeddingMismatchError, got %v", err)
	}
}

func TestRetrieve_EmptyIndexIsEmptyResult(t *testing.T) {
	r := newTestRetriever(nil)

	res, err := r.Retrieve(context.Background(), Query{Text: "hint", TopK: 3}, testIndex())
	if err != nil {
		t.Fatalf("empty index must not error: %v", err)
	}
	if len(res) != 0 {
		t.Errorf("expected empty result, got %d", len(res))
	}
}

func TestRetrieve_ScoresSortedDescendingAndClamped(t *testing.T) {
	r := newTestRetriever(map[string][]float32{"hint": {1, 0}})
	ix := testIndex(
		knowledge.Passage{Ordinal: 0, Text: "far", Vector: []float32{0, 1}},
		knowledge.Passage{Ordinal: 1, Text: "near", Vector: []float32{1, 0.1}},
		knowledge.Passage{Ordinal: 2, Text: "exact", Vector: []float32{2, 0}},
	)

	res, err := r.Retrieve(context.Background(), Query{Text: "hint", TopK: 10}, ix)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 3 {
		t.Fatalf("top_k beyond index size must clamp to 3, got %d", len(res))
	}
	for i := 1; i < len(res); i++ {
		if res[i].Score > res[i-1].Score {
			t.Errorf("scores not monotonically non-increasing at %d: %v > %v", i, res[i].Score, res[i-1].Score)
		}
	}
	if res[0].Passage.Text != "exact" {
		t.Errorf("best match should be the aligned vector, got %q", res[0].Passage.Text)
	}
}

func TestRetrieve_TieBreakByIngestionOrder(t *testing.T) {
	r := newTestRetriever(map[string][]float32{"hint": {1, 0}})
	// Two passages with identical synthetic scores.
	ix := testIndex(
		knowledge.Passage{Ordinal: 0, Text: "first", Vector: []float32{1, 0}},
		knowledge.Passage{Ordinal: 1, Text: "second", Vector: []float32{1, 0}},
	)

	res, err := r.Retrieve(context.Background(), Query{Text: "hint", TopK: 2}, ix)
	if err != nil {
		t.Fatal(err)
	}
	if res[0].Passage.Ordinal != 0 || res[1].Passage.Ordinal != 1 {
		t.Errorf("equal scores must keep ingestion order, got %d then %d",
			res[0].Passage.Ordinal, res[1].Passage.Ordinal)
	}
}

func TestRetrieve_Deterministic(t *testing.T) {
	r := newTestRetriever(map[string][]float32{"hint": {0.4, 0.9}})
	ix := testIndex(
		knowledge.Passage{Ordinal: 0, Text: "a", Vector: []float32{0.2, 0.8}},
		knowledge.Passage{Ordinal: 1, Text: "b", Vector: []float32{0.9, 0.1}},
		knowledge.Passage{Ordinal: 2, Text: "c", Vector: []float32{0.5, 0.5}},
	)

	first, err := r.Retrieve(context.Background(), Query{Text: "hint", TopK: 2}, ix)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Retrieve(context.Background(), Query{Text: "hint", TopK: 2}, ix)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("identical query against identical index must return identical results")
	}
}

func TestRetrieve_BreakfastScenario(t *testing.T) {
	r := newTestRetriever(map[string][]float32{"hint": {1, 0}})
	ix := testIndex(
		knowledge.Passage{Ordinal: 0, Text: "It's a breakfast food.", Vector: []float32{1, 0}},
	)

	res, err := r.Retrieve(context.Background(), Query{Text: "hint", Task: "hint", TopK: 1}, ix)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0].Passage.Text != "It's a breakfast food." {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := cosineSimilarity([]float32{1, 0}, []float32{1, 0}); got < 0.999 {
		t.Errorf("identical vectors should score ~1, got %v", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Errorf("orthogonal vectors should score 0, got %v", got)
	}
	if got := cosineSimilarity([]float32{0, 0}, []float32{1, 1}); got != 0 {
		t.Errorf("zero vector should score 0, got %v", got)
	}
	if got := cosineSimilarity([]float32{1}, []float32{1, 0}); got != 0 {
		t.Errorf("mismatched lengths should score 0, got %v", got)
	}
}
