// In file: internal/tools/serializer.go
package tools

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dileep-u-k/waterdata-mcp/internal/nwis"
)

// payload is the JSON document a successful tool call returns to the model.
type payload struct {
	Status       string     `json:"status"`
	Message      string     `json:"message"`
	ColumnNames  []string   `json:"column_names"`
	Data         [][]string `json:"data"`
	TotalRows    int        `json:"total_rows"`
	ReturnedRows int        `json:"returned_rows"`
	Truncated    bool       `json:"truncated"`
}

type errorDocument struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func errorPayload(message string) string {
	b, err := json.Marshal(errorDocument{Status: "error", Message: message})
	if err != nil {
		return `{"status":"error"}`
	}
	return string(b)
}

// serializer turns a tool result into a payload no longer than maxChars,
// dropping rows from the tail when needed.
type serializer struct {
	maxChars int
	maxRows  int
}

// serialize returns the payload text, the number of rows kept and whether rows were dropped.
func (s serializer) serialize(tool string, result *Result) (string, int, bool, error) {
	frame := result.Frame
	if frame == nil {
		frame = nwis.NewFrame()
	}
	frame = frame.DropEmptyColumns()
	total := frame.Len()

	limit := total
	if s.maxRows > 0 && limit > s.maxRows {
		limit = s.maxRows
	}

	render := func(n int) (string, error) {
		doc := payload{
			Status:       "success",
			Message:      summary(tool, result.Message, total, n),
			ColumnNames:  frame.Columns,
			Data:         frame.Rows[:n],
			TotalRows:    total,
			ReturnedRows: n,
			Truncated:    n < total,
		}
		if doc.ColumnNames == nil {
			doc.ColumnNames = []string{}
		}
		b, err := json.Marshal(doc)
		if err != nil {
			return "", fmt.Errorf("failed to serialize %s result: %w", tool, err)
		}
		return string(b), nil
	}

	text, err := render(limit)
	if err != nil {
		return "", 0, false, err
	}
	if s.maxChars <= 0 || len(text) <= s.maxChars {
		return text, limit, limit < total, nil
	}

	// The payload grows with the row count, so the largest fitting prefix is
	// found by binary search over [0, limit).
	var fitErr error
	n := sort.Search(limit, func(i int) bool {
		t, err := render(i + 1)
		if err != nil {
			fitErr = err
			return true
		}
		return len(t) > s.maxChars
	})
	if fitErr != nil {
		return "", 0, false, fitErr
	}
	text, err = render(n)
	if err != nil {
		return "", 0, false, err
	}
	if len(text) > s.maxChars {
		return "", 0, false, &OverflowError{Tool: tool, Size: len(text), Limit: s.maxChars}
	}
	return text, n, true, nil
}

func summary(tool, message string, total, returned int) string {
	switch {
	case total == 0:
		return fmt.Sprintf("No records found for %s with the given criteria", tool)
	case returned < total:
		if message == "" {
			return fmt.Sprintf("Output truncated: showing the first %d of %d rows", returned, total)
		}
		return fmt.Sprintf("%s. Output truncated: showing the first %d of %d rows", message, returned, total)
	case message == "":
		return fmt.Sprintf("Retrieved %d rows", total)
	}
	return message
}

const (
	removedPayload = `{"status":"truncated","message":"Output removed to fit the context window; ask for less data."}`
	minimalPayload = `{"status":"truncated"}`
)

// ShrinkPayload cuts a serialized tool result down to maxChars for a prompt
// that cannot hold it whole. Success payloads keep their columns and lose rows
// from the tail; anything else, or a payload whose header alone is too large,
// is replaced by a short truncation notice. The result can exceed maxChars
// only when maxChars is smaller than the shortest notice.
func ShrinkPayload(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}

	var doc payload
	if err := json.Unmarshal([]byte(text), &doc); err == nil && doc.Status == "success" && len(doc.ColumnNames) > 0 {
		render := func(n int) string {
			d := doc
			d.Data = doc.Data[:n]
			d.ReturnedRows = n
			d.Truncated = true
			d.Message = fmt.Sprintf("Output truncated to fit the context window: showing the first %d of %d rows", n, doc.TotalRows)
			b, err := json.Marshal(d)
			if err != nil {
				return ""
			}
			return string(b)
		}
		rows := len(doc.Data)
		n := sort.Search(rows, func(i int) bool {
			return len(render(i+1)) > maxChars
		})
		if out := render(n); out != "" && len(out) <= maxChars {
			return out
		}
	}

	if len(removedPayload) <= maxChars {
		return removedPayload
	}
	return minimalPayload
}
