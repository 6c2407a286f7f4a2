// Package llm provides a provider-neutral abstraction layer for Large Language Model (LLM) APIs.
//
// This package defines common types, interfaces, and utilities that allow the codebase
// to work with multiple LLM providers (Anthropic, OpenAI, Ollama, etc.) without being
// tightly coupled to any specific provider's SDK.
//
// # Core Concepts
//
//  1. Messages: the Message type represents a conversation message with a role
//     (system, human, ai, tool, or a custom chat role) and a sequence of
//     content blocks (text, image, tool use, tool result). Messages are the
//     output of the prompt package and the input to every provider client.
//
//  2. Client Interface: the Client interface provides Complete() for request/
//     response calls. Implementations handle provider-specific details.
//
//  3. MessageConverter: each provider integration exposes a converter between
//     neutral messages and its wire format, and must pass the conformance
//     suite in package llmtest.
//
//  4. Middleware: the Middleware interface allows adding cross-cutting
//     concerns like logging and rate limiting without modifying provider
//     implementations. RetryClient adds exponential-backoff retries.
//
//  5. Errors: the Error type provides provider-neutral error handling with
//     support for rate limits, retryable errors, and provider-specific error
//     details.
//
// Usage example:
//
//	client, err := anthropic.NewAnthropicClient(apiKey, "claude-haiku-4-5", logger)
//	client = llm.WrapWithMiddleware(client, loggingMiddleware)
//
//	req := &llm.Request{
//	    Model: "claude-haiku-4-5",
//	    Messages: []llm.Message{
//	        llm.NewHumanMessage("Hello!"),
//	    },
//	}
//	resp, err := client.Complete(ctx, req)
//
// # Extension Points
//
// To add a new LLM provider:
//  1. Implement the Client interface
//  2. Implement MessageConverter and run llmtest.RunConverterTests in the
//     provider package's tests
//  3. Translate provider-specific errors to llm.Error values
package llm
