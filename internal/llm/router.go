// In file: internal/llm/router.go
package llm

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// =================================================================================
// Provider Routing
// =================================================================================

// Provider names a model vendor.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGemini    Provider = "gemini"
	ProviderMistral   Provider = "mistral"
)

// APIKeys holds one credential per provider. Empty keys disable the provider.
type APIKeys struct {
	Anthropic string
	OpenAI    string
	Gemini    string
	Mistral   string
}

// modelPrefixes maps model id prefixes to the provider serving them.
var modelPrefixes = []struct {
	prefix   string
	provider Provider
}{
	{"claude", ProviderAnthropic},
	{"gpt", ProviderOpenAI},
	{"o1", ProviderOpenAI},
	{"o3", ProviderOpenAI},
	{"o4", ProviderOpenAI},
	{"gemini", ProviderGemini},
	{"mistral", ProviderMistral},
	{"open-mistral", ProviderMistral},
	{"codestral", ProviderMistral},
	{"ministral", ProviderMistral},
	{"pixtral", ProviderMistral},
}

// ProviderForModel returns the provider that serves the given model id.
func ProviderForModel(model string) (Provider, error) {
	id := strings.ToLower(strings.TrimSpace(model))
	for _, p := range modelPrefixes {
		if strings.HasPrefix(id, p.prefix) {
			return p.provider, nil
		}
	}
	return "", fmt.Errorf("no provider known for model %q", model)
}

// NewClientForModel builds the client for the provider behind model. The
// options apply to the HTTP-based clients; Gemini goes through its SDK.
func NewClientForModel(ctx context.Context, model string, keys APIKeys, opts ...Option) (LLMClient, error) {
	provider, err := ProviderForModel(model)
	if err != nil {
		return nil, err
	}
	log.Printf("Routing model %s to provider %s", model, provider)

	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(keys.Anthropic, opts...)
	case ProviderOpenAI:
		return NewOpenAIClient(keys.OpenAI, opts...)
	case ProviderMistral:
		return NewMistralClient(keys.Mistral, opts...)
	case ProviderGemini:
		return NewGeminiClient(ctx, keys.Gemini)
	}
	return nil, fmt.Errorf("provider %s is not supported", provider)
}
