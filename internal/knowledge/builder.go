package knowledge

// #region imports
import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pepper-tutor/go-brain/internal/embedding"
)

// #endregion

// #region builder

// Builder runs the one-time ingestion pipeline: split, embed, assemble.
// It is never on the request-serving path.
type Builder struct {
	splitter *Splitter
	embedder embedding.Embedder
	workers  int
	logger   *zap.Logger
}

// NewBuilder wires a builder. workers bounds concurrent embedding calls;
// values below 1 are treated as 1.
func NewBuilder(splitter *Splitter, embedder embedding.Embedder, workers int, logger *zap.Logger) *Builder {
	if workers < 1 {
		workers = 1
	}
	return &Builder{
		splitter: splitter,
		embedder: embedder,
		workers:  workers,
		logger:   logger,
	}
}

// #endregion

// #region build

// Build splits the document, embeds every passage with the injected engine,
// and returns the finished index stamped with the engine identity.
func (b *Builder) Build(ctx context.Context, doc Document) (*Index, error) {
	return b.BuildAll(ctx, []Document{doc})
}

// BuildAll indexes a corpus of documents into one index. Ordinals run
// continuously across documents in the order given, so ingestion order
// stays the retrieval tie-break.
func (b *Builder) BuildAll(ctx context.Context, docs []Document) (*Index, error) {
	var passages []Passage
	for _, doc := range docs {
		if strings.TrimSpace(doc.Text) == "" {
			return nil, &IngestionError{Reason: fmt.Sprintf("document %q is empty", doc.Name)}
		}
		split := b.splitter.Split(doc.Text, doc.Name)
		if len(split) == 0 {
			return nil, &IngestionError{Reason: fmt.Sprintf("document %q yielded zero passages", doc.Name)}
		}
		for i := range split {
			split[i].Ordinal = len(passages) + i
		}
		passages = append(passages, split...)
	}
	if len(passages) == 0 {
		return nil, &IngestionError{Reason: "no documents given"}
	}

	identity := b.embedder.Identity()
	b.logger.Info("embedding passages",
		zap.Int("documents", len(docs)),
		zap.Int("passages", len(passages)),
		zap.String("embedder", identity.String()))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i := range passages {
		g.Go(func() error {
			vec, err := b.embedder.Embed(gctx, passages[i].Text)
			if err != nil {
				return fmt.Errorf("embed passage %d: %w", passages[i].Ordinal, err)
			}
			// A vector that disagrees with the declared identity would save
			// cleanly and then fail every load; reject it at build time.
			if len(vec) != identity.Dim {
				return &IngestionError{Reason: fmt.Sprintf(
					"passage %d: embedder %s returned a %d-dim vector, want %d",
					passages[i].Ordinal, identity, len(vec), identity.Dim)}
			}
			passages[i].Vector = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Index{Passages: passages, Embedder: identity}, nil
}

// #endregion
