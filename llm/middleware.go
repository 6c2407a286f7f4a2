package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// wrappedClient decorates a Client with a middleware chain.
type wrappedClient struct {
	inner      Client
	middleware []Middleware
}

// WrapWithMiddleware wraps a Client so that every call runs the given
// middleware in order: BeforeRequest outer-to-inner, AfterResponse and
// OnError inner-to-outer.
func WrapWithMiddleware(client Client, middleware ...Middleware) Client {
	if len(middleware) == 0 {
		return client
	}
	return &wrappedClient{inner: client, middleware: middleware}
}

// Complete implements Client.
func (w *wrappedClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	var err error
	for _, m := range w.middleware {
		req, err = m.BeforeRequest(ctx, req)
		if err != nil {
			return nil, err
		}
	}

	resp, err := w.inner.Complete(ctx, req)
	if err != nil {
		for i := len(w.middleware) - 1; i >= 0; i-- {
			if mwErr := w.middleware[i].OnError(ctx, req, err); mwErr != nil {
				err = mwErr
			}
		}
		return nil, err
	}

	for i := len(w.middleware) - 1; i >= 0; i-- {
		resp, err = w.middleware[i].AfterResponse(ctx, req, resp)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// RetryClient wraps a Client with exponential-backoff retries for retryable
// errors. Rate-limit errors that carry a retry-after hint wait at least that
// long before the next attempt.
type RetryClient struct {
	inner       Client
	maxAttempts uint64
	maxInterval time.Duration
	logger      zerolog.Logger
}

// NewRetryClient creates a RetryClient. maxAttempts counts the initial call,
// so 1 disables retries.
func NewRetryClient(inner Client, maxAttempts uint64, logger zerolog.Logger) *RetryClient {
	if maxAttempts == 0 {
		maxAttempts = 3
	}
	return &RetryClient{
		inner:       inner,
		maxAttempts: maxAttempts,
		maxInterval: 2 * time.Minute,
		logger:      logger.With().Str("component", "llmRetry").Logger(),
	}
}

// Complete implements Client.
func (c *RetryClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	var resp *Response

	expo := backoff.NewExponentialBackOff()
	expo.MaxInterval = c.maxInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(expo, c.maxAttempts-1), ctx)

	attempt := 0
	operation := func() error {
		attempt++
		var err error
		resp, err = c.inner.Complete(ctx, req)
		if err == nil {
			return nil
		}
		if !IsRetryableError(err) {
			return backoff.Permanent(err)
		}
		if retryAfter := ExtractRetryAfter(err); retryAfter != nil {
			c.logger.Warn().
				Int("attempt", attempt).
				Dur("retryAfter", *retryAfter).
				Msg("rate limited, honoring retry-after")
			select {
			case <-time.After(*retryAfter):
			case <-ctx.Done():
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		c.logger.Warn().Int("attempt", attempt).Err(err).Msg("retryable LLM error")
		return err
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return resp, nil
}
