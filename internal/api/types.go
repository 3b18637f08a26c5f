// In file: internal/api/types.go

// Package api holds the request and response bodies shared by the gateway's
// HTTP handlers, the model clients and the command-line tools.
package api

// Usage counts the tokens spent on one or more model calls.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates another call's usage.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// AskRequest is the body of POST /api/v1/ask.
type AskRequest struct {
	Question       string `json:"question" binding:"required"`
	ConversationID string `json:"conversation_id,omitempty"`
	Model          string `json:"model,omitempty"`
}

// ToolInvocation summarizes one tool call made while answering.
type ToolInvocation struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Success   bool   `json:"success"`
	Rows      int    `json:"rows"`
	Truncated bool   `json:"truncated,omitempty"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// AskResponse is the answer to an AskRequest.
type AskResponse struct {
	Answer         string           `json:"answer"`
	ConversationID string           `json:"conversation_id"`
	ModelUsed      string           `json:"model_used"`
	ToolCalls      []ToolInvocation `json:"tool_calls"`
	Turns          int              `json:"turns"`
	Usage          Usage            `json:"usage"`
	LatencyMS      int64            `json:"latency_ms"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ToolStats are the running counters kept for one tool.
type ToolStats struct {
	Tool         string  `json:"tool"`
	Successes    int64   `json:"successes"`
	Failures     int64   `json:"failures"`
	ErrorRate    float64 `json:"error_rate"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`
}

// ServiceContext describes the data source behind the tools.
type ServiceContext struct {
	Source           string   `json:"source"`
	Description      string   `json:"description"`
	Version          string   `json:"version"`
	DocumentationURL string   `json:"documentation_url"`
	Tools            []string `json:"tools"`
}
