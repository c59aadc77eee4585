// Package brain is the serving facade: it strings retrieval, prompt
// composition and backend dispatch into one Respond call, the single entry
// point the command layer talks to.
package brain

// #region imports
import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pepper-tutor/go-brain/internal/dispatch"
	"github.com/pepper-tutor/go-brain/internal/knowledge"
	"github.com/pepper-tutor/go-brain/internal/prompt"
	"github.com/pepper-tutor/go-brain/internal/retrieval"
)

// #endregion

// #region interfaces

// Retriever finds the passages most relevant to a query in an index.
type Retriever interface {
	Retrieve(ctx context.Context, q retrieval.Query, ix *knowledge.Index) (retrieval.Result, error)
}

// Composer assembles the final prompt from its parts.
type Composer interface {
	Compose(task prompt.TaskType, utterance string, res retrieval.Result, persona prompt.Persona, turns []prompt.Turn) (*prompt.Prompt, error)
}

// Dispatcher performs the routed, retried backend call.
type Dispatcher interface {
	Call(ctx context.Context, p *prompt.Prompt, task prompt.TaskType, userID string) (string, []dispatch.CallRecord, error)
}

// #endregion

// #region request-response

// Request is one learner interaction to answer.
type Request struct {
	Task        prompt.TaskType
	Utterance   string
	Persona     prompt.Persona
	RecentTurns []prompt.Turn

	// TopK overrides the configured retrieval depth when positive.
	TopK int
}

// Response is the answer plus the attempt trail that produced it.
type Response struct {
	Text     string
	Passages retrieval.Result
	Records  []dispatch.CallRecord
}

// #endregion

// #region brain

// Brain wires the pipeline stages behind one Respond call.
type Brain struct {
	holder      *knowledge.Holder
	retriever   Retriever
	composer    Composer
	dispatcher  Dispatcher
	topKDefault int
	logger      *zap.Logger
}

// New builds the serving facade. The holder may be empty at start; Respond
// fails with IndexUnavailableError until an index is installed.
func New(holder *knowledge.Holder, retriever Retriever, composer Composer, dispatcher Dispatcher, topKDefault int, logger *zap.Logger) *Brain {
	return &Brain{
		holder:      holder,
		retriever:   retriever,
		composer:    composer,
		dispatcher:  dispatcher,
		topKDefault: topKDefault,
		logger:      logger,
	}
}

// Respond runs retrieve, compose, dispatch for one learner interaction.
func (b *Brain) Respond(ctx context.Context, req Request) (*Response, error) {
	ix := b.holder.Current()
	if ix == nil {
		return nil, &knowledge.IndexUnavailableError{Cause: fmt.Errorf("no index installed")}
	}

	topK := req.TopK
	if topK <= 0 {
		topK = b.topKDefault
	}

	passages, err := b.retriever.Retrieve(ctx, retrieval.Query{
		Text: req.Utterance,
		Task: string(req.Task),
		TopK: topK,
	}, ix)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	p, err := b.composer.Compose(req.Task, req.Utterance, passages, req.Persona, req.RecentTurns)
	if err != nil {
		return nil, fmt.Errorf("compose prompt: %w", err)
	}

	text, records, err := b.dispatcher.Call(ctx, p, req.Task, req.Persona.UserID)
	if err != nil {
		return &Response{Passages: passages, Records: records}, err
	}

	b.logger.Debug("responded",
		zap.String("task", string(req.Task)),
		zap.String("user", req.Persona.UserID),
		zap.Int("passages", len(passages)),
		zap.Int("attempts", len(records)),
		zap.Int("response_len", len(text)))
	return &Response{Text: text, Passages: passages, Records: records}, nil
}

// #endregion
