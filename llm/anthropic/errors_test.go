package anthropic

import (
	"errors"
	"net/http"
	"testing"

	anthropic "github.com/anthropics/anthropic-sdk-go"

	"github.com/threadline/threadline/llm"
)

func TestTranslateErrorRateLimit(t *testing.T) {
	got := translateError(&anthropic.Error{StatusCode: http.StatusTooManyRequests})
	if !llm.IsRateLimitError(got) {
		t.Error("expected rate limit error")
	}
	if !llm.IsRetryableError(got) {
		t.Error("rate limit error should be retryable")
	}
}

func TestTranslateErrorBadRequest(t *testing.T) {
	got := translateError(&anthropic.Error{StatusCode: http.StatusBadRequest})
	if !llm.IsInvalidRequestError(got) {
		t.Error("expected invalid request error")
	}
	if llm.IsRetryableError(got) {
		t.Error("bad request should not be retryable")
	}
}

func TestTranslateErrorServerErrorRetryable(t *testing.T) {
	got := translateError(&anthropic.Error{StatusCode: http.StatusServiceUnavailable})
	if !llm.IsRetryableError(got) {
		t.Error("server error should be retryable")
	}
	var llmErr *llm.Error
	if !errors.As(got, &llmErr) {
		t.Fatal("expected *llm.Error")
	}
	if llmErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status code = %d, want 503", llmErr.StatusCode)
	}
}

func TestTranslateErrorPassThrough(t *testing.T) {
	inner := errors.New("connection refused")
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
