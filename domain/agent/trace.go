// Package agent provides the core domain model for the SQL agent: the
// reasoning trace, the action text protocol parser, and the observation
// types fed back into the model context.
package agent

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrTraceFull indicates an append beyond the configured step budget.
var ErrTraceFull = errors.New("trace step budget exhausted")

// Outcome is the terminal result of a trace.
type Outcome string

const (
	// OutcomePending means the trace is still being driven.
	OutcomePending Outcome = "pending"

	// OutcomeAnswered means a final answer was produced within budget.
	OutcomeAnswered Outcome = "answered"

	// OutcomeBudgetExhausted means the step budget ran out; FinalAnswer
	// holds a best-effort summary instead of a grounded answer.
	OutcomeBudgetExhausted Outcome = "budget_exhausted"

	// OutcomeAborted means the surrounding context was cancelled.
	OutcomeAborted Outcome = "aborted"
)

// Step is one reasoning/acting iteration. A non-degenerate step carries
// either an Action with its Observation, or a final answer — never both.
type Step struct {
	Thought     string
	Action      *ToolCall
	Observation Observation
	IsFinal     bool
	FinalText   string
}

// Block renders the step in the action text protocol, the exact form that
// is replayed into subsequent prompts.
func (s Step) Block() string {
	var b strings.Builder
	thought := s.Thought
	if thought == "" {
		thought = "(none)"
	}
	fmt.Fprintf(&b, "THOUGHT: %s\n", thought)

	if s.IsFinal {
		fmt.Fprintf(&b, "FINAL ANSWER: %s", s.FinalText)
		return b.String()
	}

	if s.Action != nil {
		fmt.Fprintf(&b, "ACTION: %s\n", s.Action)
	} else {
		b.WriteString("ACTION: N/A\n")
	}
	if s.Observation != nil {
		fmt.Fprintf(&b, "OBSERVATION: %s", s.Observation.Wire())
	} else {
		b.WriteString("OBSERVATION: (none)")
	}
	return b.String()
}

// Trace is the append-only audit log of one question. It is owned by a
// single controller for the duration of the run; its length never exceeds
// the budget it was created with.
type Trace struct {
	ID       string
	Question string
	Budget   int

	Steps       []Step
	Outcome     Outcome
	FinalAnswer string

	StartTime time.Time
	EndTime   time.Time
}

// NewTrace creates an empty trace bounded by the given step budget.
func NewTrace(id, question string, budget int) *Trace {
	return &Trace{
		ID:        id,
		Question:  question,
		Budget:    budget,
		Steps:     make([]Step, 0, budget),
		Outcome:   OutcomePending,
		StartTime: time.Now(),
	}
}

// Append adds a step, enforcing the budget invariant.
func (t *Trace) Append(s Step) error {
	if len(t.Steps) >= t.Budget {
		return ErrTraceFull
	}
	t.Steps = append(t.Steps, s)
	return nil
}

// Len returns the number of recorded steps.
func (t *Trace) Len() int {
	return len(t.Steps)
}

// HasEvidence reports whether at least one tool observation was recorded.
func (t *Trace) HasEvidence() bool {
	for _, s := range t.Steps {
		if s.Observation != nil {
			return true
		}
	}
	return false
}

// Blocks renders all steps in the action text protocol for prompt replay.
func (t *Trace) Blocks() []string {
	blocks := make([]string, len(t.Steps))
	for i, s := range t.Steps {
		blocks[i] = s.Block()
	}
	return blocks
}

// LastSteps returns up to n trailing steps.
func (t *Trace) LastSteps(n int) []Step {
	if n >= len(t.Steps) {
		return t.Steps
	}
	return t.Steps[len(t.Steps)-n:]
}

// Answer marks the trace as successfully answered.
func (t *Trace) Answer(text string) {
	t.Outcome = OutcomeAnswered
	t.FinalAnswer = text
	t.EndTime = time.Now()
}

// Exhaust marks the trace as terminated by the step budget.
func (t *Trace) Exhaust(bestEffort string) {
	t.Outcome = OutcomeBudgetExhausted
	t.FinalAnswer = bestEffort
	t.EndTime = time.Now()
}

// Abort marks the trace as cancelled by the caller.
func (t *Trace) Abort(reason string) {
	t.Outcome = OutcomeAborted
	t.FinalAnswer = reason
	t.EndTime = time.Now()
}

// IsTerminal reports whether the trace reached a terminal outcome.
func (t *Trace) IsTerminal() bool {
	return t.Outcome != OutcomePending
}

// Duration returns the wall-clock duration of the run.
func (t *Trace) Duration() time.Duration {
	if t.EndTime.IsZero() {
		return time.Since(t.StartTime)
	}
	return t.EndTime.Sub(t.StartTime)
}
