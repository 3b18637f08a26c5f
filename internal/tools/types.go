// In file: internal/tools/types.go

// Package tools exposes the USGS water data services as tools a language model
// can call. It holds the provider-agnostic tool descriptors, the registry of
// executors, and the dispatcher that validates arguments, runs a tool and
// serializes its table into a bounded text payload.
package tools

// ToolTypeFunction is the standard type for function-based tools.
const ToolTypeFunction = "function"

// Tool describes a callable function to a model. Each model client translates
// it into its provider's native tool format.
type Tool struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// Function is the name, description and parameter schema of a tool.
type Function struct {
	Name string `json:"name"`
	// Description is what the model reads when deciding whether to call the tool.
	Description string     `json:"description"`
	Parameters  JSONSchema `json:"parameters"`
}

// JSONSchema is the subset of JSON Schema used for tool parameters.
// The top-level parameters node is always of type "object".
type JSONSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Enum        []string               `json:"enum,omitempty"`
	Default     any                    `json:"default,omitempty"`

	// integerText marks a string field that also takes a bare integer, such
	// as a year; the integer reaches the tool as its decimal text.
	integerText bool
}

// ToolCall is a request from the model to run a tool.
type ToolCall struct {
	// ID matches the tool's result back to the request in the next turn.
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction holds the name and the raw JSON arguments of a call.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolResult is the outcome of one dispatch. Payload is set on success,
// Error on failure; the pair is what the model sees.
type ToolResult struct {
	Tool      string `json:"tool"`
	Success   bool   `json:"success"`
	Payload   string `json:"payload,omitempty"`
	Error     string `json:"error,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
	// Rows is the number of rows included in Payload.
	Rows int `json:"rows"`
}

// Content returns the text handed back to the model for this result.
func (r ToolResult) Content() string {
	if r.Success {
		return r.Payload
	}
	return errorPayload(r.Error)
}

// NewFunctionTool builds a Tool of type "function".
func NewFunctionTool(name, description string, parameters JSONSchema) Tool {
	return Tool{
		Type: ToolTypeFunction,
		Function: Function{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

// --- Schema helpers used by the tool definitions ---

func stringParam(description string) *JSONSchema {
	return &JSONSchema{Type: "string", Description: description}
}

func yearsParam(description string) *JSONSchema {
	return &JSONSchema{Type: "string", Description: description, integerText: true}
}

func enumParam(description string, values []string, def string) *JSONSchema {
	s := &JSONSchema{Type: "string", Description: description, Enum: values}
	if def != "" {
		s.Default = def
	}
	return s
}

func objectSchema(properties map[string]*JSONSchema, required ...string) JSONSchema {
	return JSONSchema{Type: "object", Properties: properties, Required: required}
}
