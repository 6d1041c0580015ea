package agent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// The action text protocol is loosely structured: a THOUGHT line, then
// either ACTION: tool_name{json args} or FINAL ANSWER: free text. Markers
// are case-insensitive and tolerant of surrounding prose, so parsing is a
// regex-assisted scan rather than a strict deserialization.

var (
	thoughtPattern = sectionPattern("THOUGHT")
	finalPattern   = sectionPattern("FINAL ANSWER")
	actionPattern  = regexp.MustCompile(`(?is)ACTION:\s*([A-Za-z_][A-Za-z0-9_]*)\s*(\{[^}]*\})?`)
)

// sectionPattern captures the content of a labeled section up to the next
// known marker or end of text.
func sectionPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(
		`(?is)` + label + `:\s*(.+?)(?:THOUGHT:|ACTION:|OBSERVATION:|FINAL ANSWER:|$)`)
}

// Parse extracts a structured step from raw model output. It never returns
// an error: unparsable input yields a KindMalformed step whose Reason is
// folded back into the conversation as a corrective observation.
//
// When both an ACTION and a non-empty FINAL ANSWER are present, the final
// answer wins.
func Parse(raw string) ParsedStep {
	thought := extractSection(thoughtPattern, raw)

	if final := extractSection(finalPattern, raw); final != "" {
		return ParsedStep{Kind: KindFinal, Thought: thought, FinalText: final}
	}

	m := actionPattern.FindStringSubmatch(raw)
	if m == nil {
		return ParsedStep{
			Kind:    KindMalformed,
			Thought: thought,
			Reason:  "no ACTION or FINAL ANSWER found; expected ACTION: tool_name{json args}",
		}
	}

	name := m[1]
	args, err := decodeArgs(m[2])
	if err != nil {
		return ParsedStep{
			Kind:    KindMalformed,
			Thought: thought,
			Reason:  fmt.Sprintf("invalid JSON in ACTION arguments: %v; use double quotes", err),
		}
	}

	return ParsedStep{
		Kind:    KindAction,
		Thought: thought,
		Call:    &ToolCall{Name: name, Arguments: args},
	}
}

// extractSection returns the trimmed content of a section, or "".
func extractSection(pattern *regexp.Regexp, raw string) string {
	m := pattern.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// decodeArgs decodes the {...} argument block into a map. A missing block
// means a zero-argument call. Single-quoted pseudo-JSON, which smaller
// models emit routinely, gets one repair attempt before giving up.
func decodeArgs(block string) (map[string]any, error) {
	block = strings.TrimSpace(block)
	if block == "" {
		return map[string]any{}, nil
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(block), &args); err == nil {
		return args, nil
	}

	repaired := repairQuotes(block)
	if err := json.Unmarshal([]byte(repaired), &args); err != nil {
		return nil, err
	}
	return args, nil
}

// repairQuotes rewrites single-quoted strings to double-quoted ones,
// leaving apostrophes that appear inside double-quoted strings alone.
func repairQuotes(block string) string {
	var out strings.Builder
	inDouble := false
	for _, r := range block {
		switch {
		case r == '"':
			inDouble = !inDouble
			out.WriteRune(r)
		case r == '\'' && !inDouble:
			out.WriteRune('"')
		default:
			out.WriteRune(r)
		}
	}
	return out.String()
}
