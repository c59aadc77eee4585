// Package prompt composes the bounded prompt sent to a model backend from
// retrieved context, the user's persona, and recent conversation state.
package prompt

// #region imports
import (
	"strings"
	"time"
)

// #endregion

// #region task-type

// TaskType names the kind of response the caller wants.
type TaskType string

const (
	TaskHint       TaskType = "hint"
	TaskGreeting   TaskType = "greeting"
	TaskEvaluation TaskType = "evaluation"
)

// #endregion

// #region persona

// AgeBand is the coarse age classification of the current user.
type AgeBand string

const (
	AgeKid   AgeBand = "kid"
	AgeAdult AgeBand = "adult"
)

// Persona describes the current user. Read-only to the core; only
// ToneDirectives influence the composed prompt.
type Persona struct {
	UserID         string
	AgeBand        AgeBand
	ToneDirectives []string
}

// #endregion

// #region turn

// Role identifies the speaker of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one conversation turn. The core only ever sees a bounded recent
// window of these, supplied by the caller.
type Turn struct {
	Role    Role
	Content string
	At      time.Time
}

// #endregion

// #region prompt

// Prompt is the composed intermediate structure handed to the model router.
// Built fresh per request, never persisted.
type Prompt struct {
	System      string
	Context     []string
	Instruction string
	Turns       []Turn
}

// Flatten renders the prompt into the single text body backends accept.
// The layout is fixed so identical prompts flatten to identical bytes.
func (p *Prompt) Flatten() string {
	var sb strings.Builder
	sb.WriteString(p.System)
	sb.WriteString("\n\n")

	if len(p.Context) > 0 {
		sb.WriteString("Relevant information from memory:\n---\n")
		sb.WriteString(strings.Join(p.Context, "\n---\n"))
		sb.WriteString("\n---\n\n")
	}

	if len(p.Turns) > 0 {
		sb.WriteString("Recent conversation:\n")
		for _, t := range p.Turns {
			sb.WriteString(string(t.Role))
			sb.WriteString(": ")
			sb.WriteString(t.Content)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(p.Instruction)
	return sb.String()
}

// #endregion

// #region errors

// UnknownTaskTypeError reports a task type with no registered template.
// This is a configuration gap, surfaced to the caller unretried.
type UnknownTaskTypeError struct {
	Task TaskType
}

func (e *UnknownTaskTypeError) Error() string {
	return "no template registered for task type " + string(e.Task)
}

// #endregion
