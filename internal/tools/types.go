// Package tools defines the Tool descriptor, the registry the reasoning loop
// dispatches through, and the two financial lookups exposed to the model.
package tools

import "context"

// Tool represents a callable function the LLM can invoke. Every tool takes a
// single string argument and always answers with text: failures are rendered
// into the returned string rather than raised.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
	Execute     func(ctx context.Context, input string) string
}

// Func is the bare invocation bound by Registry.Register.
type Func func(ctx context.Context, input string) string

// DefaultParam is the argument name used when a tool is registered without
// an explicit schema.
const DefaultParam = "input"

// StringSchema describes an object with one required string property.
func StringSchema(param, description string) map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			param: map[string]interface{}{
				"type":        "string",
				"description": description,
			},
		},
		"required": []string{param},
	}
}
