package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/SooryaOmeg/sqlagent/domain/agent"
	"github.com/SooryaOmeg/sqlagent/domain/tool"
	"github.com/SooryaOmeg/sqlagent/infrastructure/logging"
)

// Aliases models sometimes emit instead of the canonical names. The
// dispatcher normalizes them rather than bouncing a near-miss back.
var toolAliases = map[string]string{
	"run_query": "query_database",
}

var argAliases = map[string]map[string]string{
	"describe_table": {"table": "table_name"},
	"query_database": {"sql": "query"},
}

// Dispatcher resolves parsed tool calls against the registry and executes
// them. Every failure mode produces an observation: the reasoning loop
// treats bad calls as context for the next step, never as a crash.
type Dispatcher struct {
	registry tool.Registry
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry tool.Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Dispatch executes one tool call and always returns an observation.
func (d *Dispatcher) Dispatch(ctx context.Context, call *agent.ToolCall) agent.Observation {
	name := call.Name
	if canonical, ok := toolAliases[name]; ok {
		name = canonical
	}

	t, ok := d.registry.Get(name)
	if !ok {
		return agent.Errorf("unknown tool %q; valid tools: %s",
			call.Name, strings.Join(d.registry.Names(), ", "))
	}
	if !t.ReadOnly() {
		return agent.Errorf("tool %q is not read-only and cannot be dispatched", name)
	}

	args := normalizeArgs(name, call.Arguments)
	if err := t.InputSchema().Validate(args); err != nil {
		return agent.Errorf("invalid arguments for %s: %v", name, err)
	}

	normalized := agent.ToolCall{Name: name, Arguments: args}
	return d.execute(ctx, t, normalized)
}

func (d *Dispatcher) execute(ctx context.Context, t tool.Tool, call agent.ToolCall) (obs agent.Observation) {
	// A panicking handler folds back into the loop as an observation.
	defer func() {
		if r := recover(); r != nil {
			logging.Error().
				Add(logging.Tool(call.Name)).
				Add(logging.Str("panic", fmt.Sprintf("%v", r))).
				Msg("tool handler panicked")
			obs = agent.Errorf("tool %s failed: internal error", call.Name)
		}
	}()

	result, err := t.Execute(ctx, call.ArgsJSON())
	if err != nil {
		logging.Warn().
			Add(logging.Tool(call.Name)).
			Add(logging.ErrorField(err)).
			Msg("tool execution failed")
		return agent.Errorf("tool %s failed: %v", call.Name, err)
	}
	if result == nil {
		return agent.Errorf("tool %s returned no result", call.Name)
	}
	return result
}

func normalizeArgs(toolName string, args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}
	for from, to := range argAliases[toolName] {
		if v, ok := out[from]; ok {
			if _, exists := out[to]; !exists {
				out[to] = v
			}
			delete(out, from)
		}
	}
	return out
}
