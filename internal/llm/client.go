// In file: internal/llm/client.go
package llm

import (
	"context"
	"errors"

	"github.com/dileep-u-k/waterdata-mcp/internal/api"
	"github.com/dileep-u-k/waterdata-mcp/internal/tools"
)

// =================================================================================
// Core Data Structures
// =================================================================================

// Role represents the originator of a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// ToolCallID and Name identify the call a RoleTool message answers.
	ToolCallID string            `json:"tool_call_id,omitempty"`
	Name       string            `json:"name,omitempty"`
	ToolCalls  []*tools.ToolCall `json:"tool_calls,omitempty"`
}

// GenerationConfig controls a single model call.
type GenerationConfig struct {
	// Model is the provider's model id, e.g. "claude-3-haiku-20240307".
	Model string
	// Temperature is a pointer so that 0.0 can be told apart from unset.
	Temperature *float32
	MaxTokens   int
	TopP        *float32
}

// GenerationResult is the complete output of one model call.
type GenerationResult struct {
	Content string
	// ToolCalls holds every tool the model asked for; empty means a final answer.
	ToolCalls []*tools.ToolCall
	Usage     api.Usage
}

// ErrContextOverflow is returned when the model rejects a prompt as too long.
var ErrContextOverflow = errors.New("conversation exceeds the model context window")

// =================================================================================
// LLM Client Interface
// =================================================================================

// LLMClient is implemented by every model provider.
type LLMClient interface {
	// Generate sends the full conversation and returns the model's next turn.
	Generate(
		ctx context.Context,
		messages []Message,
		config *GenerationConfig,
		availableTools []tools.Tool,
	) (*GenerationResult, error)
}
