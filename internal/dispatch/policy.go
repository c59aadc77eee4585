package dispatch

// #region imports
import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pepper-tutor/go-brain/internal/config"
	"github.com/pepper-tutor/go-brain/internal/gateway"
	"github.com/pepper-tutor/go-brain/internal/prompt"
)

// #endregion

// #region interfaces

// Caller performs one physical backend call. Satisfied by gateway.Router.
type Caller interface {
	Dispatch(ctx context.Context, p *prompt.Prompt, task prompt.TaskType) (string, config.Route, error)
}

// Sink receives call records. Delivery is best effort; a sink failure never
// disturbs the serving path.
type Sink interface {
	Record(ctx context.Context, rec CallRecord)
}

// NopSink discards every record.
type NopSink struct{}

func (NopSink) Record(context.Context, CallRecord) {}

// #endregion

// #region handler

// Handler applies the retry policy over a Caller and emits one CallRecord
// per physical attempt.
type Handler struct {
	caller      Caller
	sink        Sink
	maxAttempts int
	backoffBase time.Duration
	backoffCap  time.Duration
	maxRespLen  int
	logger      *zap.Logger
}

// NewHandler builds the retry handler from the dispatch configuration.
func NewHandler(caller Caller, sink Sink, cfg config.DispatchConfig, logger *zap.Logger) *Handler {
	if sink == nil {
		sink = NopSink{}
	}
	return &Handler{
		caller:      caller,
		sink:        sink,
		maxAttempts: cfg.MaxAttempts,
		backoffBase: cfg.BackoffBase.Std(),
		backoffCap:  cfg.BackoffCap.Std(),
		maxRespLen:  cfg.MaxResponseLen,
		logger:      logger,
	}
}

// Call dispatches the prompt with retries. Timeouts and rate limits are
// retried with exponential backoff up to the attempt budget; every other
// failure returns immediately. An unrouted task passes through untouched
// since no physical call was attempted.
func (h *Handler) Call(ctx context.Context, p *prompt.Prompt, task prompt.TaskType, userID string) (string, []CallRecord, error) {
	records := make([]CallRecord, 0, h.maxAttempts)

	var lastOutcome Outcome
	var lastErr error
	for attempt := 0; attempt < h.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := h.wait(ctx, attempt-1); err != nil {
				return "", records, err
			}
		}

		start := time.Now()
		text, route, err := h.caller.Dispatch(ctx, p, task)
		elapsed := time.Since(start)

		var unrouted *gateway.UnroutedTaskError
		if errors.As(err, &unrouted) {
			// Configuration fault, not a backend fault. No attempt was made
			// against any backend, so no record is emitted.
			return "", records, err
		}

		outcome, checked := classify(text, err, h.maxRespLen)
		rec := CallRecord{
			AttemptID:   uuid.NewString(),
			BackendID:   route.Backend,
			ModelID:     route.Model,
			Task:        task,
			UserID:      userID,
			StartedAt:   start,
			Duration:    elapsed,
			Outcome:     outcome,
			ResponseLen: len(text),
		}
		records = append(records, rec)
		h.sink.Record(ctx, rec)

		if outcome == OutcomeSuccess {
			return checked, records, nil
		}

		lastOutcome = outcome
		if err != nil {
			lastErr = err
		} else {
			lastErr = errors.New("backend returned an unusable response body")
		}

		if !outcome.Retryable() {
			break
		}
		h.logger.Info("retrying backend call",
			zap.String("task", string(task)),
			zap.String("outcome", string(outcome)),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", h.maxAttempts))
	}

	return "", records, &Failure{Outcome: lastOutcome, Attempts: len(records), Cause: lastErr}
}

// backoff computes base*2^retry, capped. The shift can overflow for large
// retry counts, which the cap also absorbs.
func (h *Handler) backoff(retry int) time.Duration {
	d := h.backoffBase << uint(retry)
	if d > h.backoffCap || d <= 0 {
		d = h.backoffCap
	}
	return d
}

// wait sleeps for the exponential backoff of the given retry index and
// aborts early if the context is cancelled.
func (h *Handler) wait(ctx context.Context, retry int) error {
	select {
	case <-time.After(h.backoff(retry)):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// #endregion

// #region classification

// classify maps one attempt's result onto the outcome taxonomy. A call that
// transported fine but produced an empty or oversized body counts as
// invalid_response: the caller cannot use it, so reporting success would lie.
func classify(text string, err error, maxRespLen int) (Outcome, string) {
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return OutcomeTimeout, ""
		}
		var apiErr *gateway.APIError
		if errors.As(err, &apiErr) && apiErr.RateLimited() {
			return OutcomeRateLimited, ""
		}
		return OutcomeBackendError, ""
	}
	if text == "" || len(text) > maxRespLen {
		return OutcomeInvalidResponse, ""
	}
	return OutcomeSuccess, text
}

// #endregion
