package prompt

// #region imports
import (
	"strings"

	"github.com/pepper-tutor/go-brain/internal/config"
	"github.com/pepper-tutor/go-brain/internal/retrieval"
)

// #endregion

// #region defaults

// neutralDirective is used when the persona carries no tone directives.
// The kid variant additionally pins vocabulary to a child's level.
const (
	neutralDirective    = "You are a helpful, friendly tutor. Speak plainly and keep answers short."
	neutralKidDirective = neutralDirective + " Use simple words a young child understands."
)

// DefaultTemplates are the built-in task instructions. Entries from the
// configuration file override or extend these.
func DefaultTemplates() map[string]string {
	return map[string]string{
		string(TaskHint): "The user just said: \"{utterance}\"\n\n" +
			"Give a single, short, helpful hint grounded in the information above. " +
			"Do NOT give away the final answer; guide the user toward it. " +
			"Keep your response to 1-3 sentences, phrased as if speaking directly to the user.",
		string(TaskGreeting): "The user just said: \"{utterance}\"\n\n" +
			"Greet the user warmly in one or two sentences and invite them to start the next puzzle.",
		string(TaskEvaluation): "The user just said: \"{utterance}\"\n\n" +
			"Judge whether the user's answer is correct given the information above. " +
			"Reply with one short sentence of encouragement if correct, or a gentle correction if not.",
	}
}

// #endregion

// #region composer

// Composer builds prompts. It is a pure function of its inputs: identical
// arguments always produce an identical Prompt.
type Composer struct {
	templates map[string]string
	budget    int
	maxTurns  int
}

// NewComposer creates a composer with the given per-task templates and
// prompt bounds.
func NewComposer(cfg config.PromptConfig, templates map[string]string) *Composer {
	return &Composer{
		templates: templates,
		budget:    cfg.ContextCharBudget,
		maxTurns:  cfg.MaxRecentTurns,
	}
}

// #endregion

// #region compose

// Compose merges retrieved passages, persona tone, and recent turns into a
// bounded prompt for the given task type.
func (c *Composer) Compose(task TaskType, utterance string, res retrieval.Result, persona Persona, turns []Turn) (*Prompt, error) {
	tmpl, ok := c.templates[string(task)]
	if !ok {
		return nil, &UnknownTaskTypeError{Task: task}
	}

	return &Prompt{
		System:      c.systemDirectives(persona),
		Context:     c.boundedContext(res),
		Instruction: strings.ReplaceAll(tmpl, "{utterance}", utterance),
		Turns:       c.recentTurns(turns),
	}, nil
}

// systemDirectives embeds the persona's tone directives verbatim. This is
// the only place persona shapes the prompt, keeping its influence auditable.
func (c *Composer) systemDirectives(persona Persona) string {
	if len(persona.ToneDirectives) == 0 {
		if persona.AgeBand == AgeKid {
			return neutralKidDirective
		}
		return neutralDirective
	}
	return strings.Join(persona.ToneDirectives, "\n")
}

// boundedContext keeps the highest-scoring passages whose total length fits
// the character budget. Passages are dropped whole, lowest score first: the
// result is always a prefix of the descending-score sequence.
func (c *Composer) boundedContext(res retrieval.Result) []string {
	var kept []string
	total := 0
	for _, s := range res {
		if total+len(s.Passage.Text) > c.budget {
			break
		}
		kept = append(kept, s.Passage.Text)
		total += len(s.Passage.Text)
	}
	return kept
}

// recentTurns keeps at most maxTurns of the newest turns, oldest first.
func (c *Composer) recentTurns(turns []Turn) []Turn {
	if c.maxTurns <= 0 || len(turns) <= c.maxTurns {
		return turns
	}
	return turns[len(turns)-c.maxTurns:]
}

// #endregion
