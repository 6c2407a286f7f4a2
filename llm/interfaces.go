package llm

import (
	"context"
)

// Client provides a provider-neutral interface for making LLM API calls.
// Implementations should handle provider-specific details internally.
type Client interface {
	// Complete sends a request and returns a complete response.
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// MessageConverter translates provider-neutral messages into a provider's
// wire format and back. Every provider integration package exposes one and
// must pass the conformance suite in package llmtest.
type MessageConverter interface {
	// ProviderName returns the registry name of the provider ("anthropic",
	// "openai", "ollama", ...).
	ProviderName() string

	// SupportsImages reports whether the provider accepts image content
	// blocks. Converters for text-only providers must reject image blocks
	// with an error rather than silently dropping them.
	SupportsImages() bool

	// RoundTrip converts a message to the provider format and back.
	// Conversion is lossy only in documented ways: converters may merge
	// adjacent text blocks, and may drop tool call identifiers when the
	// provider's wire format has no slot for them, but must preserve role,
	// text content, image payloads (when supported), and tool names and
	// inputs.
	RoundTrip(msg Message) (Message, error)
}

// Middleware provides hooks for decorating Client calls.
// This allows adding cross-cutting concerns like logging, retry, rate limiting, etc.
type Middleware interface {
	// BeforeRequest is called before making an API request.
	// It can modify the request or return an error to abort the request.
	BeforeRequest(ctx context.Context, req *Request) (*Request, error)

	// AfterResponse is called after receiving a response.
	// It can modify the response or return an error.
	AfterResponse(ctx context.Context, req *Request, resp *Response) (*Response, error)

	// OnError is called when an error occurs.
	// It can return a modified error or nil to use the original error.
	OnError(ctx context.Context, req *Request, err error) error
}
