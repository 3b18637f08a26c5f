// In file: internal/agent/agent.go

// Package agent runs the question-answering loop: the model sees the question
// and the tool catalogue, asks for tool calls, reads their results and repeats
// until it produces a final answer or runs out of turns.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/dileep-u-k/waterdata-mcp/internal/api"
	"github.com/dileep-u-k/waterdata-mcp/internal/llm"
	"github.com/dileep-u-k/waterdata-mcp/internal/tools"
)

const (
	DefaultMaxTurns            = 5
	DefaultMaxTokens           = 1024
	DefaultContextBudgetTokens = 50000
)

// DefaultSystemPrompt frames the model as a USGS water data assistant.
const DefaultSystemPrompt = `You are an AI assistant that helps users access and analyze USGS water data.
Use the available tools whenever the question needs data from the USGS National Water Information System.
Explain what you are doing and provide insights about the data. Point out interesting patterns or anomalies.
If a tool call fails, explain the error to the user. If a result is truncated, say so and work with the rows shown.`

// ErrMaxTurns is returned when the model keeps calling tools past the turn limit.
var ErrMaxTurns = errors.New("agent reached the maximum number of turns without a final answer")

// Config controls the loop.
type Config struct {
	Model    string `yaml:"model"`
	MaxTurns int    `yaml:"max_turns"`
	// MaxTokens bounds each model reply.
	MaxTokens int `yaml:"max_tokens"`
	// ContextBudgetTokens is the estimated prompt size above which old tool
	// outputs are elided.
	ContextBudgetTokens int      `yaml:"context_budget_tokens"`
	Temperature         *float32 `yaml:"temperature"`
	SystemPrompt        string   `yaml:"system_prompt"`
}

func (c Config) withDefaults() Config {
	if c.MaxTurns <= 0 {
		c.MaxTurns = DefaultMaxTurns
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.ContextBudgetTokens <= 0 {
		c.ContextBudgetTokens = DefaultContextBudgetTokens
	}
	if strings.TrimSpace(c.SystemPrompt) == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	return c
}

// Invocation records one tool call made while answering.
type Invocation struct {
	ToolCallID string
	Name       string
	Arguments  string
	Result     tools.ToolResult
	Latency    time.Duration
}

// Summary converts the invocation into its API form.
func (i Invocation) Summary() api.ToolInvocation {
	return api.ToolInvocation{
		Name:      i.Name,
		Arguments: i.Arguments,
		Success:   i.Result.Success,
		Rows:      i.Result.Rows,
		Truncated: i.Result.Truncated,
		Error:     i.Result.Error,
		LatencyMS: i.Latency.Milliseconds(),
	}
}

// Answer is the outcome of Ask.
type Answer struct {
	Content string
	// Messages are the turns added by this question, starting with the user's
	// message; append them to the stored history.
	Messages    []llm.Message
	Invocations []Invocation
	Usage       api.Usage
	Turns       int
}

// Agent answers questions with a model and a tool dispatcher.
type Agent struct {
	client     llm.LLMClient
	dispatcher *tools.Dispatcher
	defs       []tools.Tool
	cfg        Config
}

// New creates an agent. defs are the tools offered to the model, normally
// dispatcher.Registry().Definitions().
func New(client llm.LLMClient, dispatcher *tools.Dispatcher, defs []tools.Tool, cfg Config) *Agent {
	return &Agent{client: client, dispatcher: dispatcher, defs: defs, cfg: cfg.withDefaults()}
}

// Config returns the effective configuration.
func (a *Agent) Config() Config {
	return a.cfg
}

// Ask answers question in the context of history. history holds earlier
// turns of the same conversation and is not modified.
func (a *Agent) Ask(ctx context.Context, history []llm.Message, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.New("question cannot be empty")
	}

	convo := make([]llm.Message, 0, len(history)+2)
	convo = append(convo, llm.Message{Role: llm.RoleSystem, Content: a.cfg.SystemPrompt})
	for _, m := range history {
		if m.Role != llm.RoleSystem {
			convo = append(convo, m)
		}
	}
	firstNew := len(convo)
	convo = append(convo, llm.Message{Role: llm.RoleUser, Content: question})

	genCfg := &llm.GenerationConfig{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	}
	answer := &Answer{}

	for turn := 1; turn <= a.cfg.MaxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		prompt, err := fitToBudget(convo, a.cfg.ContextBudgetTokens)
		if err != nil {
			return nil, err
		}

		res, err := a.client.Generate(ctx, prompt, genCfg, a.defs)
		if err != nil {
			return nil, fmt.Errorf("model call failed on turn %d: %w", turn, err)
		}
		answer.Usage.Add(res.Usage)
		answer.Turns = turn

		if len(res.ToolCalls) == 0 {
			convo = append(convo, llm.Message{Role: llm.RoleAssistant, Content: res.Content})
			answer.Content = res.Content
			answer.Messages = append([]llm.Message(nil), convo[firstNew:]...)
			log.Printf("✅ Answered in %d turn(s) with %d tool call(s)", turn, len(answer.Invocations))
			return answer, nil
		}

		// No turn is left to read the results, so the calls are not made.
		if turn == a.cfg.MaxTurns {
			break
		}
		convo = append(convo, llm.Message{Role: llm.RoleAssistant, Content: res.Content, ToolCalls: res.ToolCalls})
		for _, call := range res.ToolCalls {
			start := time.Now()
			result := a.dispatcher.DispatchJSON(ctx, call.Function.Name, call.Function.Arguments)
			answer.Invocations = append(answer.Invocations, Invocation{
				ToolCallID: call.ID,
				Name:       call.Function.Name,
				Arguments:  call.Function.Arguments,
				Result:     result,
				Latency:    time.Since(start),
			})
			convo = append(convo, llm.Message{
				Role:       llm.RoleTool,
				ToolCallID: call.ID,
				Name:       call.Function.Name,
				Content:    result.Content(),
			})
		}
	}

	log.Printf("❌ No final answer after %d turns", a.cfg.MaxTurns)
	return nil, fmt.Errorf("%w (%d)", ErrMaxTurns, a.cfg.MaxTurns)
}
