// In file: internal/tools/dispatcher_internal_test.go
package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispatchRecoversFromPanics(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubTool{name: "boom", run: func(context.Context, map[string]any) (*Result, error) {
		panic("index out of range")
	}}))
	d := NewDispatcher(r, DispatcherConfig{}, nil)

	res := d.Dispatch(context.Background(), "boom", nil)
	require.False(t, res.Success)
	require.Contains(t, res.Error, "panicked")
}

func TestDispatchKeepsValidationErrorsFromHandlers(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubTool{name: "picky", run: func(context.Context, map[string]any) (*Result, error) {
		return nil, &ValidationError{Tool: "picky", Field: "x", Reason: "is odd"}
	}}))
	require.NoError(t, r.Register(&stubTool{name: "flaky", run: func(context.Context, map[string]any) (*Result, error) {
		return nil, errors.New("connection reset")
	}}))
	d := NewDispatcher(r, DispatcherConfig{}, nil)

	res := d.Dispatch(context.Background(), "picky", nil)
	require.Equal(t, `invalid argument "x" for picky: is odd`, res.Error)

	res = d.Dispatch(context.Background(), "flaky", nil)
	require.Equal(t, "flaky failed: connection reset", res.Error)
}

func TestDispatchEmptyResultHasColumnsArray(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubTool{name: "nothing"}))
	d := NewDispatcher(r, DispatcherConfig{}, nil)

	res := d.DispatchJSON(context.Background(), "nothing", "")
	require.True(t, res.Success)
	require.Contains(t, res.Payload, `"column_names":[]`)
	require.Contains(t, res.Payload, `"data":[]`)
}
