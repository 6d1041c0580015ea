package prompt

import (
	"fmt"
	"strings"

	"github.com/SooryaOmeg/sqlagent/domain/agent"
	"github.com/SooryaOmeg/sqlagent/domain/tool"
	"github.com/SooryaOmeg/sqlagent/infrastructure/llm"
)

// Builder composes provider messages from the tool catalog and the trace
// accumulated so far.
type Builder struct {
	maxObservation int
}

// NewBuilder creates a builder. maxObservationBytes truncates rendered
// observations; zero disables truncation.
func NewBuilder(maxObservationBytes int) *Builder {
	return &Builder{maxObservation: maxObservationBytes}
}

// Catalog renders the registered tools as one line per tool, the way the
// model sees them.
func Catalog(reg tool.Registry) string {
	var b strings.Builder
	for _, t := range reg.List() {
		fmt.Fprintf(&b, "- %s%s: %s\n", t.Name(), t.InputSchema().Doc(), t.Description())
	}
	return strings.TrimRight(b.String(), "\n")
}

// Build renders the full conversation for the provider: the protocol
// header and tool catalog as the system message, and the trace so far
// plus the user question as the user message.
func (b *Builder) Build(catalog string, tr *agent.Trace) []llm.Message {
	system := strings.Join([]string{
		systemHeader,
		"TOOLS:\n" + catalog,
		"EXAMPLE:\n" + fewShot,
	}, "\n\n")

	history := "(none yet)"
	if blocks := b.renderSteps(tr); len(blocks) > 0 {
		history = strings.Join(blocks, "\n")
	}

	user := strings.Join([]string{
		"CONVERSATION TRACE:\n" + history,
		"User: " + tr.Question,
		"Respond using the strict FORMAT above.",
	}, "\n\n")

	return []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
}

// renderSteps renders each trace step as a protocol block, truncating
// oversized observations so one wide SELECT cannot crowd out the rest of
// the context.
func (b *Builder) renderSteps(tr *agent.Trace) []string {
	blocks := make([]string, 0, len(tr.Steps))
	for _, step := range tr.Steps {
		if step.IsFinal {
			blocks = append(blocks, fmt.Sprintf("THOUGHT: %s\nFINAL ANSWER: %s", step.Thought, step.FinalText))
			continue
		}

		action := "N/A"
		if step.Action != nil {
			action = step.Action.String()
		}

		observation := ""
		if step.Observation != nil {
			observation = b.truncate(string(step.Observation.Wire()))
		}

		blocks = append(blocks, fmt.Sprintf("THOUGHT: %s\nACTION: %s\nOBSERVATION: %s",
			step.Thought, action, observation))
	}
	return blocks
}

func (b *Builder) truncate(s string) string {
	if b.maxObservation <= 0 || len(s) <= b.maxObservation {
		return s
	}
	return s[:b.maxObservation] + "... (truncated)"
}
