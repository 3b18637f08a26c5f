// In file: internal/tools/errors.go
package tools

import (
	"fmt"
	"strings"
)

// ValidationError reports missing or malformed tool arguments.
type ValidationError struct {
	Tool   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Reason)
	}
	return fmt.Sprintf("invalid argument %q for %s: %s", e.Field, e.Tool, e.Reason)
}

// NotFoundError reports a call to a tool that is not registered.
type NotFoundError struct {
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool %q not found (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// UpstreamError wraps a failure of the data service behind a tool.
type UpstreamError struct {
	Tool string
	Err  error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// OverflowError reports a result that cannot fit the payload budget even
// with every row removed.
type OverflowError struct {
	Tool  string
	Size  int
	Limit int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("%s output of %d characters exceeds the %d character limit", e.Tool, e.Size, e.Limit)
}
