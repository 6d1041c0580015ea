// Package application drives the reasoning loop: prompting the model,
// parsing its steps, dispatching tools and enforcing the step budget.
package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/SooryaOmeg/sqlagent/domain/agent"
	"github.com/SooryaOmeg/sqlagent/domain/tool"
	"github.com/SooryaOmeg/sqlagent/infrastructure/llm"
	"github.com/SooryaOmeg/sqlagent/infrastructure/logging"
	"github.com/SooryaOmeg/sqlagent/infrastructure/prompt"
)

// ControllerConfig configures the reasoning loop.
type ControllerConfig struct {
	Provider llm.Provider
	Registry tool.Registry

	// Model, Temperature and MaxTokens are passed through to the provider.
	Model       string
	Temperature float64
	MaxTokens   int

	// StepBudget bounds the number of reasoning steps per question.
	StepBudget int

	// MaxObservationBytes truncates observations rendered into prompts.
	MaxObservationBytes int

	// Tracer records per-step spans; nil disables span recording.
	Tracer trace.Tracer
}

// Controller owns one reasoning loop configuration and can answer many
// questions; each Run builds a fresh trace and evidence cache.
type Controller struct {
	provider    llm.Provider
	registry    tool.Registry
	dispatcher  *Dispatcher
	builder     *prompt.Builder
	catalog     string
	model       string
	temperature float64
	maxTokens   int
	stepBudget  int
	tracer      trace.Tracer
}

// DefaultStepBudget bounds runs when no budget is configured.
const DefaultStepBudget = 10

// NewController creates a controller.
func NewController(cfg ControllerConfig) *Controller {
	budget := cfg.StepBudget
	if budget <= 0 {
		budget = DefaultStepBudget
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("sqlagent")
	}
	return &Controller{
		provider:    cfg.Provider,
		registry:    cfg.Registry,
		dispatcher:  NewDispatcher(cfg.Registry),
		builder:     prompt.NewBuilder(cfg.MaxObservationBytes),
		catalog:     prompt.Catalog(cfg.Registry),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		stepBudget:  budget,
		tracer:      tracer,
	}
}

// Run answers one question with a bounded reasoning loop. The returned
// trace is always terminal; the error is non-nil only when the model
// itself was unreachable before any answer could be produced.
func (c *Controller) Run(ctx context.Context, question string) (*agent.Trace, error) {
	tr := agent.NewTrace(uuid.NewString(), question, c.stepBudget)
	cache := newEvidenceCache()

	ctx, span := c.tracer.Start(ctx, "agent.run",
		trace.WithAttributes(attribute.String("trace.id", tr.ID)))
	defer span.End()

	logging.Info().
		Add(logging.TraceID(tr.ID)).
		Add(logging.Question(question)).
		Add(logging.Int("budget", c.stepBudget)).
		Msg("run started")

	for step := 0; step < c.stepBudget; step++ {
		if err := ctx.Err(); err != nil {
			tr.Abort(fmt.Sprintf("run cancelled: %v", err))
			c.logOutcome(tr)
			return tr, nil
		}

		done, err := c.step(ctx, tr, cache, step)
		if err != nil {
			tr.Abort(fmt.Sprintf("model unreachable: %v", err))
			c.logOutcome(tr)
			return tr, err
		}
		if done {
			c.logOutcome(tr)
			return tr, nil
		}
	}

	tr.Exhaust(c.exhaustionSummary(tr))
	c.logOutcome(tr)
	return tr, nil
}

// step drives one model call. It returns done=true when the trace reached
// a terminal outcome, and an error only for provider transport failures.
func (c *Controller) step(ctx context.Context, tr *agent.Trace, cache *evidenceCache, step int) (bool, error) {
	ctx, span := c.tracer.Start(ctx, "agent.step",
		trace.WithAttributes(
			attribute.String("trace.id", tr.ID),
			attribute.Int("step", step),
		))
	defer span.End()

	start := time.Now()
	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		Model:       c.model,
		Messages:    c.builder.Build(c.catalog, tr),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return false, err
	}
	if resp.Error != nil {
		return false, resp.Error
	}

	parsed := agent.Parse(resp.Message.Content)

	logging.Debug().
		Add(logging.TraceID(tr.ID)).
		Add(logging.Step(step)).
		Add(logging.Str("kind", parsed.Kind.String())).
		Add(logging.Duration(time.Since(start))).
		Msg("model step")

	switch {
	case parsed.IsFinal():
		return c.handleFinal(tr, cache, parsed), nil

	case parsed.Kind == agent.KindAction:
		c.handleAction(ctx, tr, cache, parsed)
		return false, nil

	default:
		// Malformed: fold the reason back as a corrective observation.
		c.appendStep(tr, agent.Step{
			Thought:     parsed.Thought,
			Observation: agent.Errorf("%s", parsed.Reason),
		})
		return false, nil
	}
}

// handleFinal accepts or defers a final answer. An answer with no tool
// evidence behind it is bounced back with a corrective observation.
func (c *Controller) handleFinal(tr *agent.Trace, cache *evidenceCache, parsed agent.ParsedStep) bool {
	if !tr.HasEvidence() {
		c.appendStep(tr, agent.Step{
			Thought: parsed.Thought,
			Observation: agent.Errorf("You are answering without running any tool yet. " +
				"Please gather evidence using one ACTION before concluding."),
		})
		return false
	}

	if warning := cache.checkFinal(parsed.FinalText); warning != "" {
		logging.Warn().
			Add(logging.TraceID(tr.ID)).
			Add(logging.Str("warning", warning)).
			Msg("final answer disagrees with gathered evidence")
	}

	c.appendStep(tr, agent.Step{
		Thought:   parsed.Thought,
		IsFinal:   true,
		FinalText: parsed.FinalText,
	})
	tr.Answer(parsed.FinalText)
	return true
}

func (c *Controller) handleAction(ctx context.Context, tr *agent.Trace, cache *evidenceCache, parsed agent.ParsedStep) {
	obs := c.dispatcher.Dispatch(ctx, parsed.Call)
	cache.ingest(parsed.Call, obs)

	logging.Info().
		Add(logging.TraceID(tr.ID)).
		Add(logging.Tool(parsed.Call.Name)).
		Add(logging.Step(tr.Len())).
		Msg("tool dispatched")

	c.appendStep(tr, agent.Step{
		Thought:     parsed.Thought,
		Action:      parsed.Call,
		Observation: obs,
	})
}

// appendStep records a step; the loop never outruns the budget it also
// iterates over, so a full trace here is a programming error worth noting.
func (c *Controller) appendStep(tr *agent.Trace, s agent.Step) {
	if err := tr.Append(s); err != nil {
		logging.Error().
			Add(logging.TraceID(tr.ID)).
			Add(logging.ErrorField(err)).
			Msg("dropped step beyond budget")
	}
}

// exhaustionSummary builds the best-effort answer for a run that ran out
// of steps: what was tried last, and a nudge to refine the question.
func (c *Controller) exhaustionSummary(tr *agent.Trace) string {
	var b strings.Builder
	b.WriteString("Max step limit reached. Here's what I tried:\n")
	for _, s := range tr.LastSteps(3) {
		b.WriteString(s.Block())
		b.WriteString("\n\n")
	}
	b.WriteString("Consider refining the question or being more specific.")
	return b.String()
}

func (c *Controller) logOutcome(tr *agent.Trace) {
	logging.Info().
		Add(logging.TraceID(tr.ID)).
		Add(logging.Outcome(string(tr.Outcome))).
		Add(logging.Int("steps", tr.Len())).
		Add(logging.Duration(tr.Duration())).
		Msg("run finished")
}
