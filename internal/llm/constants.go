// In file: internal/llm/constants.go
package llm

import "time"

// Shared across the HTTP-based clients.
const (
	defaultTimeout    = 120 * time.Second
	maxRetries        = 3
	initialRetryDelay = 2 * time.Second
	defaultMaxTokens  = 4096
)
