// In file: cmd/ask/main_test.go
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dileep-u-k/waterdata-mcp/internal/agent"
	"github.com/dileep-u-k/waterdata-mcp/internal/llm"
	"github.com/dileep-u-k/waterdata-mcp/internal/nwis/nwistest"
	"github.com/dileep-u-k/waterdata-mcp/internal/tools"
)

// countingModel answers every question directly with the size of its prompt,
// and fails on questions containing "fail".
type countingModel struct {
	seen []int
}

func (m *countingModel) Generate(_ context.Context, messages []llm.Message, _ *llm.GenerationConfig, _ []tools.Tool) (*llm.GenerationResult, error) {
	m.seen = append(m.seen, len(messages))
	if strings.Contains(messages[len(messages)-1].Content, "fail") {
		return nil, errors.New("model unavailable")
	}
	return &llm.GenerationResult{Content: fmt.Sprintf("prompt of %d messages", len(messages))}, nil
}

func TestRunAsksQuestionsInOrderWithSharedHistory(t *testing.T) {
	srv := nwistest.NewServer()
	t.Cleanup(srv.Close)
	registry, err := tools.NewHydroRegistry(srv.Client())
	require.NoError(t, err)
	d := tools.NewDispatcher(registry, tools.DispatcherConfig{}, nil)
	model := &countingModel{}
	a := agent.New(model, d, registry.Definitions(), agent.Config{SystemPrompt: "s"})

	var out bytes.Buffer
	failed := run(context.Background(), a, []string{"first?", "please fail", "third?"}, &out)
	require.Equal(t, 1, failed)

	// system+user, then the first exchange is replayed; the failed one is not.
	require.Equal(t, []int{2, 4, 4}, model.seen)

	text := out.String()
	first := strings.Index(text, "QUERY: first?")
	second := strings.Index(text, "QUERY: please fail")
	third := strings.Index(text, "QUERY: third?")
	require.True(t, first >= 0 && first < second && second < third, text)
	require.Contains(t, text, "ERROR: model call failed on turn 1: model unavailable")
}
