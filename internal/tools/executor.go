// In file: internal/tools/executor.go
package tools

import (
	"context"

	"github.com/dileep-u-k/waterdata-mcp/internal/nwis"
)

// ToolExecutor is implemented by every tool the registry can hold.
type ToolExecutor interface {
	// Definition returns the schema shown to the model.
	Definition() Tool

	// Execute runs the tool with arguments that already passed schema validation.
	// Semantic argument problems are reported as *ValidationError.
	Execute(ctx context.Context, args map[string]any) (*Result, error)
}

// Result is the table a tool produced plus a one-line summary for the model.
type Result struct {
	Message string
	Frame   *nwis.Frame
}
