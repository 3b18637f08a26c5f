// In file: internal/llm/client_test.go
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dileep-u-k/waterdata-mcp/internal/tools"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/require"
)

func sampleTools() []tools.Tool {
	return []tools.Tool{
		tools.NewFunctionTool("get_daily_values", "Daily values for a site.", tools.JSONSchema{
			Type: "object",
			Properties: map[string]*tools.JSONSchema{
				"site_code": {Type: "string", Description: "USGS site number"},
				"statCd":    {Type: "string", Enum: []string{"00001", "00003"}},
			},
			Required: []string{"site_code"},
		}),
	}
}

func toolConversation() []Message {
	return []Message{
		{Role: RoleSystem, Content: "You answer hydrology questions."},
		{Role: RoleUser, Content: "What was the flow at 09415000?"},
		{Role: RoleAssistant, ToolCalls: []*tools.ToolCall{
			{ID: "call_1", Function: tools.ToolCallFunction{Name: "get_daily_values", Arguments: `{"site_code":"09415000"}`}},
			{ID: "call_2", Function: tools.ToolCallFunction{Name: "get_site_data", Arguments: `{"site_code":"09415000"}`}},
		}},
		{Role: RoleTool, ToolCallID: "call_1", Name: "get_daily_values", Content: `{"status":"success","total_rows":3}`},
		{Role: RoleTool, ToolCallID: "call_2", Name: "get_site_data", Content: "plain text"},
	}
}

// fakeProvider answers with the given status and body and captures the last request.
func fakeProvider(t *testing.T, status int, body string, calls *int32, captured *[]byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if captured != nil {
			*captured, _ = io.ReadAll(r.Body)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnthropicMessagesMapToolTurns(t *testing.T) {
	system, msgs, err := toAnthropicMessages(toolConversation())
	require.NoError(t, err)
	require.Equal(t, "You answer hydrology questions.", system)
	require.Len(t, msgs, 3)

	require.Equal(t, "assistant", msgs[1].Role)
	require.Len(t, msgs[1].Content, 2)
	require.Equal(t, "tool_use", msgs[1].Content[0].Type)
	require.JSONEq(t, `{"site_code":"09415000"}`, string(msgs[1].Content[0].Input))

	// Both results travel in one user turn.
	require.Equal(t, "user", msgs[2].Role)
	require.Len(t, msgs[2].Content, 2)
	require.Equal(t, "tool_result", msgs[2].Content[0].Type)
	require.Equal(t, "call_1", msgs[2].Content[0].ToolUseID)
	require.Equal(t, "call_2", msgs[2].Content[1].ToolUseID)
}

func TestAnthropicRejectsInvalidToolArguments(t *testing.T) {
	_, _, err := toAnthropicMessages([]Message{{Role: RoleAssistant, ToolCalls: []*tools.ToolCall{
		{ID: "bad", Function: tools.ToolCallFunction{Name: "x", Arguments: "{not json"}},
	}}})
	require.Error(t, err)
}

func TestAnthropicGenerateParsesToolUse(t *testing.T) {
	var calls int32
	var captured []byte
	srv := fakeProvider(t, http.StatusOK, `{
		"content":[{"type":"text","text":"Let me check."},
		           {"type":"tool_use","id":"toolu_1","name":"get_daily_values","input":{"site_code":"09415000"}}],
		"stop_reason":"tool_use",
		"usage":{"input_tokens":120,"output_tokens":30}}`, &calls, &captured)

	client, err := NewAnthropicClient("key", WithBaseURL(srv.URL))
	require.NoError(t, err)
	res, err := client.Generate(context.Background(), toolConversation()[:2], &GenerationConfig{}, sampleTools())
	require.NoError(t, err)

	require.Equal(t, "Let me check.", res.Content)
	require.Len(t, res.ToolCalls, 1)
	require.Equal(t, "toolu_1", res.ToolCalls[0].ID)
	require.JSONEq(t, `{"site_code":"09415000"}`, res.ToolCalls[0].Function.Arguments)
	require.Equal(t, 150, res.Usage.TotalTokens)

	var req anthropicRequest
	require.NoError(t, json.Unmarshal(captured, &req))
	require.Equal(t, DefaultAnthropicModel, req.Model)
	require.Equal(t, defaultMaxTokens, req.MaxTokens)
	require.Len(t, req.Tools, 1)
	require.Equal(t, "get_daily_values", req.Tools[0].Name)
}

func TestOpenAIGenerate(t *testing.T) {
	var calls int32
	var captured []byte
	srv := fakeProvider(t, http.StatusOK, `{
		"choices":[{"message":{"role":"assistant","content":"",
			"tool_calls":[{"id":"call_9","type":"function","function":{"name":"get_daily_values","arguments":"{\"site_code\":\"09415000\"}"}}]}}],
		"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`, &calls, &captured)

	client, err := NewOpenAIClient("key", WithBaseURL(srv.URL))
	require.NoError(t, err)
	res, err := client.Generate(context.Background(), toolConversation(), &GenerationConfig{Model: "gpt-4o-mini"}, sampleTools())
	require.NoError(t, err)
	require.Len(t, res.ToolCalls, 1)
	require.Equal(t, "call_9", res.ToolCalls[0].ID)
	require.Equal(t, 15, res.Usage.TotalTokens)

	var req openAIRequest
	require.NoError(t, json.Unmarshal(captured, &req))
	require.Equal(t, "auto", req.ToolChoice)
	require.Len(t, req.Messages, 5)
	require.Equal(t, "call_1", req.Messages[3].ToolCallID)
	require.Equal(t, tools.ToolTypeFunction, req.Messages[2].ToolCalls[0].Type)
}

func TestOpenAIRequiresModel(t *testing.T) {
	_, err := buildOpenAIPayload(nil, &GenerationConfig{}, nil)
	require.Error(t, err)
}

func TestContextOverflowIsNotRetried(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"anthropic prompt too long", http.StatusBadRequest, `{"error":{"message":"prompt is too long: 210000 tokens > 200000 maximum"}}`},
		{"openai context length", http.StatusBadRequest, `{"error":{"code":"context_length_exceeded"}}`},
		{"payload too large", http.StatusRequestEntityTooLarge, `too large`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := fakeProvider(t, tt.status, tt.body, &calls, nil)
			client, err := NewAnthropicClient("key", WithBaseURL(srv.URL), WithRetryDelay(time.Millisecond))
			require.NoError(t, err)

			_, err = client.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil, nil)
			require.True(t, errors.Is(err, ErrContextOverflow))
			require.EqualValues(t, 1, atomic.LoadInt32(&calls))
		})
	}
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := fakeProvider(t, http.StatusUnauthorized, `{"error":"bad key"}`, &calls, nil)
	client, err := NewOpenAIClient("key", WithBaseURL(srv.URL), WithRetryDelay(time.Millisecond))
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, &GenerationConfig{Model: "gpt-4o"}, nil)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrContextOverflow))
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestServerErrorIsRetried(t *testing.T) {
	var calls int32
	srv := fakeProvider(t, http.StatusServiceUnavailable, `overloaded`, &calls, nil)
	client, err := NewMistralClient("key", WithBaseURL(srv.URL), WithRetryDelay(time.Millisecond))
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, &GenerationConfig{Model: "mistral-small-latest"}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "mistral API error")
	require.EqualValues(t, maxRetries, atomic.LoadInt32(&calls))
}

func TestEmptyKeysAreRejected(t *testing.T) {
	_, err := NewAnthropicClient("")
	require.Error(t, err)
	_, err = NewOpenAIClient("")
	require.Error(t, err)
	_, err = NewMistralClient("")
	require.Error(t, err)
	_, err = NewGeminiClient(context.Background(), "")
	require.Error(t, err)
}

func TestProviderForModel(t *testing.T) {
	tests := []struct {
		model string
		want  Provider
	}{
		{"claude-3-haiku-20240307", ProviderAnthropic},
		{"gpt-4o-mini", ProviderOpenAI},
		{"o3-mini", ProviderOpenAI},
		{"gemini-1.5-flash", ProviderGemini},
		{"open-mistral-nemo", ProviderMistral},
		{"Mistral-Large-Latest", ProviderMistral},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			got, err := ProviderForModel(tt.model)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	_, err := ProviderForModel("llama-3")
	require.Error(t, err)
}

func TestNewClientForModel(t *testing.T) {
	client, err := NewClientForModel(context.Background(), "claude-3-haiku-20240307", APIKeys{Anthropic: "k"})
	require.NoError(t, err)
	require.IsType(t, &AnthropicClient{}, client)

	_, err = NewClientForModel(context.Background(), "gpt-4o", APIKeys{Anthropic: "k"})
	require.Error(t, err)
}

func TestGeminiContents(t *testing.T) {
	system, contents := toGeminiContents(toolConversation())
	require.Equal(t, "You answer hydrology questions.", system)
	require.Len(t, contents, 3)

	require.Equal(t, "model", contents[1].Role)
	call, ok := contents[1].Parts[0].(genai.FunctionCall)
	require.True(t, ok)
	require.Equal(t, "get_daily_values", call.Name)
	require.Equal(t, "09415000", call.Args["site_code"])

	require.Equal(t, "user", contents[2].Role)
	require.Len(t, contents[2].Parts, 2)
	first := contents[2].Parts[0].(genai.FunctionResponse)
	require.Equal(t, "success", first.Response["status"])
	second := contents[2].Parts[1].(genai.FunctionResponse)
	require.Equal(t, "get_site_data", second.Name)
	require.Equal(t, "plain text", second.Response["content"])
}

func TestGeminiSchemaConversion(t *testing.T) {
	decls := toGeminiTools(sampleTools())
	require.Len(t, decls, 1)
	params := decls[0].FunctionDeclarations[0].Parameters
	require.Equal(t, genai.TypeObject, params.Type)
	require.Equal(t, []string{"site_code"}, params.Required)
	require.Equal(t, genai.TypeString, params.Properties["statCd"].Type)
	require.Equal(t, []string{"00001", "00003"}, params.Properties["statCd"].Enum)
}

func TestParseGeminiResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{
			genai.Text("Checking."),
			genai.FunctionCall{Name: "get_site_data", Args: map[string]any{"site_code": "09415000"}},
		}}}},
		UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 7, CandidatesTokenCount: 3, TotalTokenCount: 10},
	}
	res, err := parseGeminiResponse(resp)
	require.NoError(t, err)
	require.Equal(t, "Checking.", res.Content)
	require.Len(t, res.ToolCalls, 1)
	require.Equal(t, "gemini-1-get_site_data", res.ToolCalls[0].ID)
	require.JSONEq(t, `{"site_code":"09415000"}`, res.ToolCalls[0].Function.Arguments)
	require.Equal(t, 10, res.Usage.TotalTokens)

	_, err = parseGeminiResponse(&genai.GenerateContentResponse{})
	require.Error(t, err)
}
