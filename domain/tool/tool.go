// Package tool defines the capability contract the agent dispatches
// against: named, schema-checked handlers producing observations.
package tool

import (
	"context"
	"encoding/json"

	"github.com/SooryaOmeg/sqlagent/domain/agent"
)

// Tool represents a registered capability the agent can invoke.
type Tool interface {
	// Name returns the stable string identifier for the tool.
	Name() string

	// Description returns a human-readable description for the catalog.
	Description() string

	// InputSchema returns the parameter schema for argument validation.
	InputSchema() Schema

	// ReadOnly reports whether the tool can mutate anything. Every tool
	// in this agent is read-only; the flag exists so the dispatcher can
	// refuse anything that is not.
	ReadOnly() bool

	// Execute runs the tool with the given JSON-encoded arguments.
	Execute(ctx context.Context, input json.RawMessage) (agent.Observation, error)
}

// Handler is the function signature for tool execution.
type Handler func(ctx context.Context, input json.RawMessage) (agent.Observation, error)

// Definition is a concrete implementation of Tool.
type Definition struct {
	name        string
	description string
	inputSchema Schema
	readOnly    bool
	handler     Handler
}

// Name returns the tool name.
func (d *Definition) Name() string { return d.name }

// Description returns the tool description.
func (d *Definition) Description() string { return d.description }

// InputSchema returns the parameter schema.
func (d *Definition) InputSchema() Schema { return d.inputSchema }

// ReadOnly reports whether the tool is read-only.
func (d *Definition) ReadOnly() bool { return d.readOnly }

// Execute runs the tool handler.
func (d *Definition) Execute(ctx context.Context, input json.RawMessage) (agent.Observation, error) {
	if d.handler == nil {
		return nil, ErrNoHandler
	}
	return d.handler(ctx, input)
}

// Builder provides a fluent API for constructing tools.
type Builder struct {
	def *Definition
}

// NewBuilder creates a new tool builder with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{def: &Definition{name: name}}
}

// WithDescription sets the tool description.
func (b *Builder) WithDescription(desc string) *Builder {
	b.def.description = desc
	return b
}

// WithInputSchema sets the parameter schema.
func (b *Builder) WithInputSchema(schema Schema) *Builder {
	b.def.inputSchema = schema
	return b
}

// ReadOnly marks the tool as read-only.
func (b *Builder) ReadOnly() *Builder {
	b.def.readOnly = true
	return b
}

// WithHandler sets the tool handler function.
func (b *Builder) WithHandler(handler Handler) *Builder {
	b.def.handler = handler
	return b
}

// Build constructs the tool definition.
func (b *Builder) Build() (Tool, error) {
	if b.def.name == "" {
		return nil, ErrEmptyName
	}
	if b.def.handler == nil {
		return nil, ErrNoHandler
	}
	return b.def, nil
}

// MustBuild constructs the tool definition or panics on error.
func (b *Builder) MustBuild() Tool {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}
