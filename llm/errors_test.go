package llm

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestIsRateLimitError(t *testing.T) {
	err := NewRateLimitError("rate limit exceeded", nil, nil)
	if !IsRateLimitError(err) {
		t.Error("Expected IsRateLimitError to return true for rate limit error")
	}

	regularErr := NewProviderError("some error", nil)
	if IsRateLimitError(regularErr) {
		t.Error("Expected IsRateLimitError to return false for non-rate-limit error")
	}
}

func TestIsRetryableError(t *testing.T) {
	retryableErr := NewRateLimitError("rate limit", nil, nil)
	if !IsRetryableError(retryableErr) {
		t.Error("Expected IsRetryableError to return true for retryable error")
	}

	nonRetryableErr := NewProviderError("some error", nil)
	if IsRetryableError(nonRetryableErr) {
		t.Error("Expected IsRetryableError to return false for non-retryable error")
	}

	if IsRetryableError(errors.New("plain error")) {
		t.Error("Plain errors should not be retryable")
	}
}

func TestExtractRetryAfter(t *testing.T) {
	retryAfter := 5 * time.Minute
	err := NewRateLimitError("rate limit", &retryAfter, nil)
	extracted := ExtractRetryAfter(err)
	if extracted == nil {
		t.Fatal("Expected non-nil retry after")
	}
	if *extracted != retryAfter {
		t.Errorf("Expected %v, got %v", retryAfter, *extracted)
	}

	if ExtractRetryAfter(errors.New("plain")) != nil {
		t.Error("Plain errors should have no retry after")
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("the socket closed")
	err := NewProviderError("request failed", inner)
	if !errors.Is(err, inner) {
		t.Error("Expected errors.Is to find the wrapped provider error")
	}
	if err.Error() != "request failed: the socket closed" {
		t.Errorf("Unexpected error string: %q", err.Error())
	}
}

func TestErrorAsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("call failed: %w", NewInvalidRequestError("bad model", nil))
	var llmErr *Error
	if !errors.As(err, &llmErr) {
		t.Fatal("Expected errors.As to find the llm error")
	}
	if llmErr.Type != ErrorTypeInvalidRequest {
		t.Errorf("Expected invalid request type, got %v", llmErr.Type)
	}
}
