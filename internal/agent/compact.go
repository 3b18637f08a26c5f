// In file: internal/agent/compact.go
package agent

import (
	"fmt"
	"log"
	"sort"

	"github.com/dileep-u-k/waterdata-mcp/internal/llm"
	"github.com/dileep-u-k/waterdata-mcp/internal/tools"
)

// elidedToolOutput replaces tool results dropped from the prompt.
const elidedToolOutput = `{"status":"elided","message":"Earlier tool output was removed to fit the context window. Call the tool again if the data is still needed."}`

func countChars(messages []llm.Message) int {
	chars := 0
	for _, m := range messages {
		chars += len(m.Content)
		for _, tc := range m.ToolCalls {
			chars += len(tc.Function.Name) + len(tc.Function.Arguments)
		}
	}
	return chars
}

// estimateTokens approximates the prompt size at four characters per token.
func estimateTokens(messages []llm.Message) int {
	return countChars(messages) / 4
}

// fitToBudget returns messages unchanged when they fit the budget. Otherwise
// it returns a copy in which tool outputs are elided oldest first. Results
// answering the latest assistant turn are never elided, since the model has
// not read them yet; when they are still too large together they are cut
// down to share what is left of the budget.
func fitToBudget(messages []llm.Message, budget int) ([]llm.Message, error) {
	if budget <= 0 || estimateTokens(messages) <= budget {
		return messages, nil
	}

	protectFrom := len(messages)
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llm.RoleAssistant {
			protectFrom = i
			break
		}
		if messages[i].Role == llm.RoleUser {
			break
		}
	}

	out := append([]llm.Message(nil), messages...)
	elided := 0
	for i := 0; i < protectFrom; i++ {
		if out[i].Role != llm.RoleTool || out[i].Content == elidedToolOutput {
			continue
		}
		out[i].Content = elidedToolOutput
		elided++
		if estimateTokens(out) <= budget {
			log.Printf("Elided %d earlier tool output(s) to fit a budget of %d tokens", elided, budget)
			return out, nil
		}
	}

	if shrunk := shrinkPending(out[protectFrom:], budget*4-countChars(out[:protectFrom])); shrunk > 0 {
		if estimateTokens(out) <= budget {
			log.Printf("Elided %d earlier and truncated %d pending tool output(s) to fit a budget of %d tokens", elided, shrunk, budget)
			return out, nil
		}
	}

	return nil, fmt.Errorf("%w: about %d tokens against a budget of %d after eliding %d tool output(s)",
		llm.ErrContextOverflow, estimateTokens(out), budget, elided)
}

// shrinkPending truncates the tool results in pending so that pending fits in
// avail characters, and reports how many it changed. Smaller results are
// settled first so they stay whole and leave their unused share to the larger ones.
func shrinkPending(pending []llm.Message, avail int) int {
	var results []int
	for i, m := range pending {
		if m.Role == llm.RoleTool {
			results = append(results, i)
		} else {
			avail -= countChars(pending[i : i+1])
		}
	}
	if len(results) == 0 || avail <= 0 {
		return 0
	}
	sort.SliceStable(results, func(a, b int) bool {
		return len(pending[results[a]].Content) < len(pending[results[b]].Content)
	})

	shrunk := 0
	for k, i := range results {
		share := avail / (len(results) - k)
		if len(pending[i].Content) > share {
			pending[i].Content = tools.ShrinkPayload(pending[i].Content, share)
			shrunk++
		}
		avail -= len(pending[i].Content)
	}
	return shrunk
}
