package anthropic

import (
	"errors"
	"net/http"

	anthropic "github.com/anthropics/anthropic-sdk-go"

	"github.com/threadline/threadline/llm"
)

// translateError maps Anthropic SDK errors to provider-neutral llm errors.
func translateError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return llm.NewProviderError("anthropic request failed", err)
	}

	switch apiErr.StatusCode {
	case http.StatusTooManyRequests:
		return llm.NewRateLimitError("anthropic rate limit exceeded", nil, err)
	case http.StatusBadRequest:
		return llm.NewInvalidRequestError("anthropic rejected request", err)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return &llm.Error{
			Type:        llm.ErrorTypeProvider,
			Message:     "anthropic server error",
			Retryable:   true,
			StatusCode:  apiErr.StatusCode,
			ProviderErr: err,
		}
	default:
		return &llm.Error{
			Type:        llm.ErrorTypeProvider,
			Message:     "anthropic request failed",
			StatusCode:  apiErr.StatusCode,
			ProviderErr: err,
		}
	}
}
