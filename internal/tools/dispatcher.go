// In file: internal/tools/dispatcher.go
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"time"
)

// DefaultMaxPayloadChars bounds a serialized tool result when no limit is configured.
const DefaultMaxPayloadChars = 12000

// Recorder receives the outcome of every dispatch.
type Recorder interface {
	RecordToolCall(ctx context.Context, tool string, latency time.Duration, success bool)
}

// DispatcherConfig bounds the size of tool results.
type DispatcherConfig struct {
	MaxPayloadChars int `yaml:"max_payload_chars"`
	// MaxRows caps the rows returned regardless of size. Zero means no cap.
	MaxRows int `yaml:"max_rows"`
}

// Dispatcher validates and runs tool calls. Failures never escape as Go errors:
// every call yields a ToolResult the model can read.
type Dispatcher struct {
	registry   *Registry
	serializer serializer
	recorder   Recorder
}

// NewDispatcher creates a dispatcher over a registry. recorder may be nil.
func NewDispatcher(registry *Registry, cfg DispatcherConfig, recorder Recorder) *Dispatcher {
	if cfg.MaxPayloadChars <= 0 {
		cfg.MaxPayloadChars = DefaultMaxPayloadChars
	}
	return &Dispatcher{
		registry:   registry,
		serializer: serializer{maxChars: cfg.MaxPayloadChars, maxRows: cfg.MaxRows},
		recorder:   recorder,
	}
}

// Registry returns the registry the dispatcher runs against.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// DispatchJSON runs a tool call whose arguments are a JSON object string,
// as models send them. An empty string means no arguments.
func (d *Dispatcher) DispatchJSON(ctx context.Context, name, rawArgs string) ToolResult {
	args := map[string]any{}
	if trimmed := strings.TrimSpace(rawArgs); trimmed != "" {
		dec := json.NewDecoder(bytes.NewReader([]byte(trimmed)))
		dec.UseNumber()
		if err := dec.Decode(&args); err != nil {
			err = &ValidationError{Tool: name, Field: "arguments", Reason: fmt.Sprintf("not a JSON object: %v", err)}
			return d.finish(ctx, name, time.Now(), failed(name, err))
		}
	}
	return d.Dispatch(ctx, name, args)
}

// Dispatch runs a tool call.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]any) ToolResult {
	start := time.Now()
	if args == nil {
		args = map[string]any{}
	}

	tool, err := d.registry.Get(name)
	if err != nil {
		return d.finish(ctx, name, start, failed(name, err))
	}
	if err := validateArgs(name, args, tool.Definition().Function.Parameters); err != nil {
		return d.finish(ctx, name, start, failed(name, err))
	}

	log.Printf("🛠️ Executing tool '%s'", name)
	result, err := d.execute(ctx, name, tool, args)
	if err != nil {
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			err = &UpstreamError{Tool: name, Err: err}
		}
		log.Printf("Tool '%s' failed: %v", name, err)
		return d.finish(ctx, name, start, failed(name, err))
	}

	text, rows, truncated, err := d.serializer.serialize(name, result)
	if err != nil {
		log.Printf("Tool '%s' result rejected: %v", name, err)
		return d.finish(ctx, name, start, failed(name, err))
	}
	if truncated {
		log.Printf("Tool '%s' output truncated to %d rows", name, rows)
	}
	return d.finish(ctx, name, start, ToolResult{
		Tool:      name,
		Success:   true,
		Payload:   text,
		Truncated: truncated,
		Rows:      rows,
	})
}

// execute runs the tool, turning a panic into an error.
func (d *Dispatcher) execute(ctx context.Context, name string, tool ToolExecutor, args map[string]any) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Tool '%s' panicked: %v\n%s", name, r, debug.Stack())
			result, err = nil, fmt.Errorf("tool panicked: %v", r)
		}
	}()
	result, err = tool.Execute(ctx, args)
	if err == nil && result == nil {
		err = errors.New("tool returned no result")
	}
	return result, err
}

// finish reports the outcome to the recorder. Names the registry does not
// know are left out, so invented tool names never reach the statistics.
func (d *Dispatcher) finish(ctx context.Context, name string, start time.Time, result ToolResult) ToolResult {
	if d.recorder == nil {
		return result
	}
	if _, err := d.registry.Get(name); err != nil {
		return result
	}
	d.recorder.RecordToolCall(ctx, name, time.Since(start), result.Success)
	return result
}

func failed(name string, err error) ToolResult {
	return ToolResult{Tool: name, Success: false, Error: err.Error()}
}
