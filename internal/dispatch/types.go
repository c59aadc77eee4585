// Package dispatch wraps the gateway with the retry and classification
// policy. Every physical backend attempt produces exactly one CallRecord,
// whether it succeeded or not, so downstream analytics see retries as the
// separate calls they were.
package dispatch

// #region imports
import (
	"fmt"
	"time"

	"github.com/pepper-tutor/go-brain/internal/prompt"
)

// #endregion

// #region outcome

// Outcome classifies how one physical backend attempt ended.
type Outcome string

const (
	OutcomeSuccess         Outcome = "success"
	OutcomeTimeout         Outcome = "timeout"
	OutcomeRateLimited     Outcome = "rate_limited"
	OutcomeBackendError    Outcome = "backend_error"
	OutcomeInvalidResponse Outcome = "invalid_response"
)

// Retryable reports whether the policy may try again after this outcome.
// Only transient conditions qualify; a backend that answered with a hard
// error or a malformed body will not improve on a blind retry.
func (o Outcome) Retryable() bool {
	return o == OutcomeTimeout || o == OutcomeRateLimited
}

// #endregion

// #region call-record

// CallRecord captures one physical backend attempt.
type CallRecord struct {
	AttemptID   string
	BackendID   string
	ModelID     string
	Task        prompt.TaskType
	UserID      string
	StartedAt   time.Time
	Duration    time.Duration
	Outcome     Outcome
	ResponseLen int
}

// #endregion

// #region failure

// Failure is the terminal error after the retry budget is spent or a
// non-retryable outcome occurred.
type Failure struct {
	Outcome  Outcome
	Attempts int
	Cause    error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("dispatch failed after %d attempt(s) with outcome %s: %v", f.Attempts, f.Outcome, f.Cause)
}

func (f *Failure) Unwrap() error { return f.Cause }

// #endregion
