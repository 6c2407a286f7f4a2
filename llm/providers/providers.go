// Package providers constructs concrete LLM clients from resolved client
// keys. It lives outside the llm package so provider SDKs stay out of the
// core message model's import graph.
package providers

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/threadline/threadline/llm"
	"github.com/threadline/threadline/llm/anthropic"
	"github.com/threadline/threadline/llm/ollama"
	"github.com/threadline/threadline/llm/openai"
)

// NewClient builds a client for the resolved key. When maxAttempts is
// greater than one the client is wrapped with retry behavior.
func NewClient(key *llm.ClientKey, maxAttempts uint64, logger zerolog.Logger) (llm.Client, error) {
	var client llm.Client
	switch key.Provider {
	case llm.ProviderAnthropic:
		anthropicClient, err := anthropic.NewAnthropicClient(key.APIKey, key.Model, logger)
		if err != nil {
			return nil, fmt.Errorf("create anthropic client: %w", err)
		}
		client = anthropicClient
	case llm.ProviderOllama:
		ollamaClient, err := ollama.NewOllamaClient(key.Host, key.Model, logger)
		if err != nil {
			return nil, fmt.Errorf("create ollama client: %w", err)
		}
		client = ollamaClient
	case llm.ProviderOpenAI:
		openaiClient, err := openai.NewOpenAIClient(key.APIKey, key.BaseURL, key.Model, key.Organization, logger)
		if err != nil {
			return nil, fmt.Errorf("create openai client: %w", err)
		}
		client = openaiClient
	default:
		return nil, fmt.Errorf("unknown provider: %s", key.Provider)
	}

	if maxAttempts > 1 {
		client = llm.NewRetryClient(client, maxAttempts, logger)
	}
	return client, nil
}

// Converter returns the message converter for a provider.
func Converter(provider string) (llm.MessageConverter, error) {
	switch provider {
	case llm.ProviderAnthropic:
		return anthropic.Converter{}, nil
	case llm.ProviderOllama:
		return ollama.Converter{}, nil
	case llm.ProviderOpenAI:
		return openai.Converter{}, nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}
