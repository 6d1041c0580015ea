package tool

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Param describes one named parameter of a tool.
type Param struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// Schema is a tool's parameter contract. Validation is deliberately
// forward-compatible: missing required arguments are rejected, extra
// arguments are ignored.
type Schema struct {
	params []Param
}

// NewSchema creates a schema from an ordered parameter list.
func NewSchema(params ...Param) Schema {
	return Schema{params: params}
}

// EmptySchema returns a schema for a zero-argument tool.
func EmptySchema() Schema {
	return Schema{}
}

// Params returns the declared parameters in declaration order.
func (s Schema) Params() []Param {
	return s.params
}

// Required returns the names of all required parameters.
func (s Schema) Required() []string {
	var names []string
	for _, p := range s.params {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// Validate checks an argument map against the schema. The only hard
// failure is a missing required argument.
func (s Schema) Validate(args map[string]any) error {
	for _, p := range s.params {
		if !p.Required {
			continue
		}
		if _, ok := args[p.Name]; !ok {
			return &MissingArgumentError{Field: p.Name}
		}
	}
	return nil
}

// Doc renders the parameter list for the tool catalog, e.g.
// (table_name: string - name of the table to describe) or ().
func (s Schema) Doc() string {
	if len(s.params) == 0 {
		return "()"
	}
	parts := make([]string, len(s.params))
	for i, p := range s.params {
		parts[i] = fmt.Sprintf("%s: %s - %s", p.Name, p.Type, p.Description)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// JSON renders the schema as a JSON Schema object, for providers that
// support structured function declarations.
func (s Schema) JSON() json.RawMessage {
	properties := make(map[string]any, len(s.params))
	for _, p := range s.params {
		properties[p.Name] = map[string]string{
			"type":        p.Type,
			"description": p.Description,
		}
	}
	obj := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if required := s.Required(); len(required) > 0 {
		obj["required"] = required
	}
	raw, _ := json.Marshal(obj)
	return raw
}

// MissingArgumentError reports a required argument absent from a call.
type MissingArgumentError struct {
	Field string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("missing required argument %q", e.Field)
}
