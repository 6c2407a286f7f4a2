package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

// stubClient returns canned responses and records calls.
type stubClient struct {
	calls     int
	responses []*Response
	errs      []error
}

func (s *stubClient) Complete(_ context.Context, _ *Request) (*Response, error) {
	i := s.calls
	s.calls++
	var resp *Response
	var err error
	if i < len(s.responses) {
		resp = s.responses[i]
	}
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return resp, err
}

type recordingMiddleware struct {
	before, after, onError int
}

func (m *recordingMiddleware) BeforeRequest(_ context.Context, req *Request) (*Request, error) {
	m.before++
	return req, nil
}

func (m *recordingMiddleware) AfterResponse(_ context.Context, _ *Request, resp *Response) (*Response, error) {
	m.after++
	return resp, nil
}

func (m *recordingMiddleware) OnError(_ context.Context, _ *Request, err error) error {
	m.onError++
	return err
}

func TestWrapWithMiddleware(t *testing.T) {
	stub := &stubClient{responses: []*Response{{StopReason: "end_turn"}}}
	mw := &recordingMiddleware{}
	client := WrapWithMiddleware(stub, mw)

	resp, err := client.Complete(context.Background(), &Request{Model: "m"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.StopReason != "end_turn" {
		t.Errorf("Unexpected response: %+v", resp)
	}
	if mw.before != 1 || mw.after != 1 || mw.onError != 0 {
		t.Errorf("Unexpected middleware calls: %+v", mw)
	}
}

func TestWrapWithMiddlewareError(t *testing.T) {
	stub := &stubClient{errs: []error{errors.New("boom")}}
	mw := &recordingMiddleware{}
	client := WrapWithMiddleware(stub, mw)

	if _, err := client.Complete(context.Background(), &Request{}); err == nil {
		t.Fatal("Expected error")
	}
	if mw.onError != 1 || mw.after != 0 {
		t.Errorf("Unexpected middleware calls: %+v", mw)
	}
}

func TestWrapWithMiddlewareNoop(t *testing.T) {
	stub := &stubClient{}
	if got := WrapWithMiddleware(stub); got != stub {
		t.Error("No middleware should return the client unchanged")
	}
}

func TestRetryClientRetriesRetryable(t *testing.T) {
	stub := &stubClient{
		errs:      []error{NewRateLimitError("slow down", nil, nil), nil},
		responses: []*Response{nil, {StopReason: "end_turn"}},
	}
	client := NewRetryClient(stub, 3, zerolog.Nop())

	resp, err := client.Complete(context.Background(), &Request{})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp == nil || resp.StopReason != "end_turn" {
		t.Errorf("Unexpected response: %+v", resp)
	}
	if stub.calls != 2 {
		t.Errorf("Expected 2 calls, got %d", stub.calls)
	}
}

func TestRetryClientStopsOnPermanent(t *testing.T) {
	stub := &stubClient{errs: []error{NewInvalidRequestError("bad request", nil)}}
	client := NewRetryClient(stub, 3, zerolog.Nop())

	_, err := client.Complete(context.Background(), &Request{})
	var llmErr *Error
	if !errors.As(err, &llmErr) || llmErr.Type != ErrorTypeInvalidRequest {
		t.Fatalf("Expected invalid request error, got %v", err)
	}
	if stub.calls != 1 {
		t.Errorf("Non-retryable errors must not be retried, got %d calls", stub.calls)
	}
}

func TestRetryClientExhaustsAttempts(t *testing.T) {
	stub := &stubClient{errs: []error{
		NewRateLimitError("1", nil, nil),
		NewRateLimitError("2", nil, nil),
	}}
	client := NewRetryClient(stub, 2, zerolog.Nop())

	if _, err := client.Complete(context.Background(), &Request{}); err == nil {
		t.Fatal("Expected error after exhausting attempts")
	}
	if stub.calls != 2 {
		t.Errorf("Expected 2 calls, got %d", stub.calls)
	}
}
