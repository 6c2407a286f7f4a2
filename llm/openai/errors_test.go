package openai

import (
	"errors"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/threadline/threadline/llm"
)

func TestTranslateErrorRateLimit(t *testing.T) {
	got := translateError(&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "slow down"})
	if !llm.IsRateLimitError(got) {
		t.Error("expected rate limit error")
	}
}

func TestTranslateErrorBadRequest(t *testing.T) {
	got := translateError(&openai.APIError{HTTPStatusCode: http.StatusBadRequest, Message: "bad params"})
	if !llm.IsInvalidRequestError(got) {
		t.Error("expected invalid request error")
	}
}

func TestTranslateErrorServerErrorRetryable(t *testing.T) {
	got := translateError(&openai.APIError{HTTPStatusCode: http.StatusBadGateway, Message: "upstream"})
	if !llm.IsRetryableError(got) {
		t.Error("server error should be retryable")
	}
}

func TestTranslateErrorNonAPIError(t *testing.T) {
	inner := errors.New("connection reset")
	got := translateError(inner)
	var llmErr *llm.Error
	if !errors.As(got, &llmErr) {
		t.Fatal("expected *llm.Error")
	}
	if llmErr.Type != llm.ErrorTypeProvider {
		t.Errorf("type = %q, want provider", llmErr.Type)
	}
	if !errors.Is(got, inner) {
		t.Error("original error not wrapped")
	}
}
