// In file: cmd/gateway/handler.go
package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dileep-u-k/waterdata-mcp/internal/agent"
	"github.com/dileep-u-k/waterdata-mcp/internal/api"
	"github.com/dileep-u-k/waterdata-mcp/internal/llm"
	"github.com/dileep-u-k/waterdata-mcp/internal/session"
	"github.com/dileep-u-k/waterdata-mcp/internal/tools"
	"github.com/dileep-u-k/waterdata-mcp/internal/version"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// =================================================================================
// Gateway Handler
// =================================================================================
// The gateway answers questions with the agent loop, keeps conversation history
// in the session store, and exposes the tools directly for callers that do
// their own reasoning.
// =================================================================================

// ClientFactory builds the model client for a model id.
type ClientFactory func(ctx context.Context, model string) (llm.LLMClient, error)

type GatewayHandler struct {
	newClient  ClientFactory
	dispatcher *tools.Dispatcher
	store      session.Store
	stats      session.ToolStats
	agentCfg   agent.Config
	info       api.ServiceContext

	mu      sync.Mutex
	clients map[string]llm.LLMClient
}

func NewGatewayHandler(newClient ClientFactory, dispatcher *tools.Dispatcher, store session.Store, stats session.ToolStats, agentCfg agent.Config, info api.ServiceContext) *GatewayHandler {
	return &GatewayHandler{
		newClient:  newClient,
		dispatcher: dispatcher,
		store:      store,
		stats:      stats,
		agentCfg:   agentCfg,
		info:       info,
		clients:    make(map[string]llm.LLMClient),
	}
}

// clientFor returns the cached client for model, creating it on first use.
func (h *GatewayHandler) clientFor(ctx context.Context, model string) (llm.LLMClient, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[model]; ok {
		return client, nil
	}
	client, err := h.newClient(ctx, model)
	if err != nil {
		return nil, err
	}
	h.clients[model] = client
	return client, nil
}

// HandleAsk answers a question, continuing the conversation when an id is given.
func (h *GatewayHandler) HandleAsk(c *gin.Context) {
	startTime := time.Now()
	var req api.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request: " + err.Error(), Code: "invalid_request"})
		return
	}
	ctx := c.Request.Context()

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = h.agentCfg.Model
	}
	log.Printf("--- New Question (Convo: %s, Model: %s, Question: '%.40s...') ---", conversationID, model, req.Question)

	client, err := h.clientFor(ctx, model)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: "unsupported_model"})
		return
	}

	history, err := h.store.Load(ctx, conversationID)
	if err != nil {
		log.Printf("WARNING: Failed to load history for %s: %v", conversationID, err)
	}

	cfg := h.agentCfg
	cfg.Model = model
	answer, err := agent.New(client, h.dispatcher, h.dispatcher.Registry().Definitions(), cfg).Ask(ctx, history, req.Question)
	if err != nil {
		status, code := statusForError(err)
		log.Printf("❌ Question failed (%d): %v", status, err)
		c.JSON(status, api.ErrorResponse{Error: err.Error(), Code: code})
		return
	}

	if err := h.store.Append(ctx, conversationID, answer.Messages...); err != nil {
		log.Printf("WARNING: Failed to store history for %s: %v", conversationID, err)
	}

	calls := make([]api.ToolInvocation, 0, len(answer.Invocations))
	for _, inv := range answer.Invocations {
		calls = append(calls, inv.Summary())
	}
	c.JSON(http.StatusOK, api.AskResponse{
		Answer:         answer.Content,
		ConversationID: conversationID,
		ModelUsed:      model,
		ToolCalls:      calls,
		Turns:          answer.Turns,
		Usage:          answer.Usage,
		LatencyMS:      time.Since(startTime).Milliseconds(),
	})
}

func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, llm.ErrContextOverflow):
		return http.StatusRequestEntityTooLarge, "context_overflow"
	case errors.Is(err, agent.ErrMaxTurns):
		return http.StatusGatewayTimeout, "max_turns"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusBadGateway, "model_error"
	}
}

// HandleListTools returns the tool descriptors.
func (h *GatewayHandler) HandleListTools(c *gin.Context) {
	c.JSON(http.StatusOK, h.dispatcher.Registry().Definitions())
}

// HandleCallTool dispatches a tool directly. The body is the JSON argument
// object and may be empty.
func (h *GatewayHandler) HandleCallTool(c *gin.Context) {
	name := c.Param("name")
	if _, err := h.dispatcher.Registry().Get(name); err != nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error(), Code: "tool_not_found"})
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request: " + err.Error(), Code: "invalid_request"})
		return
	}

	result := h.dispatcher.DispatchJSON(c.Request.Context(), name, string(body))
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, result)
}

// HandleToolStats returns the call counters of every registered tool.
func (h *GatewayHandler) HandleToolStats(c *gin.Context) {
	stats, err := h.stats.Stats(c.Request.Context(), h.dispatcher.Registry().Names())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error(), Code: "stats_unavailable"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *GatewayHandler) HandleContext(c *gin.Context) {
	c.JSON(http.StatusOK, h.info)
}

func (h *GatewayHandler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "build": version.Get(), "tools": h.dispatcher.Registry().Count()})
}

// newEngine wires the routes. mcpHandler serves the streamable MCP endpoint.
func newEngine(h *GatewayHandler, mcpHandler http.Handler) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())

	engine.GET("/healthz", h.HandleHealth)
	v1 := engine.Group("/api/v1")
	{
		v1.POST("/ask", h.HandleAsk)
		v1.GET("/tools", h.HandleListTools)
		v1.GET("/tools/stats", h.HandleToolStats)
		v1.POST("/tools/:name", h.HandleCallTool)
		v1.GET("/context", h.HandleContext)
	}
	if mcpHandler != nil {
		engine.Any("/mcp", gin.WrapH(mcpHandler))
	}
	return engine
}
