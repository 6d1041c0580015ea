package agent

import (
	"encoding/json"
	"sort"
	"strings"
)

// ToolCall is a parsed request to invoke a registered tool.
type ToolCall struct {
	Name      string
	Arguments map[string]any
}

// ArgsJSON returns the arguments encoded as a JSON object. An empty or nil
// argument map encodes as {}.
func (c ToolCall) ArgsJSON() json.RawMessage {
	if len(c.Arguments) == 0 {
		return json.RawMessage(`{}`)
	}
	raw, err := json.Marshal(c.Arguments)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return raw
}

// String renders the call in the action text protocol: name{json args}.
func (c ToolCall) String() string {
	return c.Name + string(c.ArgsJSON())
}

// Arg returns a string argument by name, trying each alias in order.
func (c ToolCall) Arg(names ...string) (string, bool) {
	for _, n := range names {
		if v, ok := c.Arguments[n]; ok {
			if s, ok := v.(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

// ArgNames returns the argument keys in sorted order.
func (c ToolCall) ArgNames() []string {
	names := make([]string, 0, len(c.Arguments))
	for n := range c.Arguments {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// StepKind tags the outcome of parsing one model response.
type StepKind int

const (
	// KindAction means the response carries a tool call to dispatch.
	KindAction StepKind = iota

	// KindFinal means the response carries a final answer.
	KindFinal

	// KindMalformed means the response could not be parsed into either;
	// the reason is surfaced to the model as a corrective observation.
	KindMalformed
)

// String returns the kind name for logging.
func (k StepKind) String() string {
	switch k {
	case KindAction:
		return "action"
	case KindFinal:
		return "final"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// ParsedStep is the tagged result of parsing raw model text. Parse never
// fails; a response that fits no shape comes back as KindMalformed with a
// human-readable reason.
type ParsedStep struct {
	Kind    StepKind
	Thought string

	// Call is set when Kind == KindAction.
	Call *ToolCall

	// FinalText is set when Kind == KindFinal.
	FinalText string

	// Reason is set when Kind == KindMalformed.
	Reason string
}

// IsFinal reports whether the step carries a non-empty final answer.
func (p ParsedStep) IsFinal() bool {
	return p.Kind == KindFinal && strings.TrimSpace(p.FinalText) != ""
}
