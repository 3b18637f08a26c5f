// In file: internal/llm/mistral_client.go
package llm

import "errors"

const mistralAPIURL = "https://api.mistral.ai/v1/chat/completions"

// NewMistralClient creates a client for Mistral's chat-completions API, which
// follows the OpenAI wire format for messages and tool calls.
func NewMistralClient(apiKey string, opts ...Option) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("mistral API key cannot be empty")
	}
	return &OpenAIClient{provider: "mistral", apiKey: apiKey, opts: newClientOptions(mistralAPIURL, opts)}, nil
}
