package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/threadline/threadline/llm"
)

const defaultModel = openai.GPT4oMini

// OpenAIClient talks to the OpenAI chat completions API.
type OpenAIClient struct {
	client *openai.Client
	model  string
	logger zerolog.Logger
}

// NewOpenAIClient creates a client for the given credentials. An empty
// baseURL uses the official API endpoint; an empty model falls back to a
// sensible default.
func NewOpenAIClient(apiKey, baseURL, model, organization string, logger zerolog.Logger) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if organization != "" {
		config.OrgID = organization
	}
	if model == "" {
		model = defaultModel
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
		logger: logger.With().Str("provider", llm.ProviderOpenAI).Logger(),
	}, nil
}

// Complete implements llm.Client.
func (c *OpenAIClient) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	messages, err := ToChatMessages(req.Messages)
	if err != nil {
		return nil, err
	}
	if req.System != "" {
		messages = append([]openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		}}, messages...)
	}

	openaiReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		openaiReq.MaxTokens = int(req.MaxTokens)
	}
	if req.Temperature != nil {
		openaiReq.Temperature = float32(*req.Temperature)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openaiReq)
	if err != nil {
		return nil, translateError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, llm.NewProviderError("openai response contained no choices", nil)
	}

	choice := resp.Choices[0]
	var blocks []llm.ContentBlock
	if choice.Message.Content != "" {
		blocks = append(blocks, llm.ContentBlock{
			Type: llm.ContentBlockTypeText,
			Text: choice.Message.Content,
		})
	}
	for _, call := range choice.Message.ToolCalls {
		var input map[string]any
		if err := json.Unmarshal([]byte(call.Function.Arguments), &input); err != nil {
			input = make(map[string]any)
		}
		blocks = append(blocks, llm.ContentBlock{
			Type: llm.ContentBlockTypeToolUse,
			ToolUse: &llm.ToolUseBlock{
				ID:    call.ID,
				Name:  call.Function.Name,
				Input: input,
			},
		})
	}

	usage := &llm.Usage{
		InputTokens:  int64(resp.Usage.PromptTokens),
		OutputTokens: int64(resp.Usage.CompletionTokens),
	}
	c.logger.Debug().
		Str("model", resp.Model).
		Int64("input_tokens", usage.InputTokens).
		Int64("output_tokens", usage.OutputTokens).
		Str("stop_reason", string(choice.FinishReason)).
		Msg("completion finished")

	return &llm.Response{
		Content:    blocks,
		Usage:      usage,
		StopReason: string(choice.FinishReason),
	}, nil
}

func translateError(err error) error {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return llm.NewProviderError("openai request failed", err)
	}

	msg := fmt.Sprintf("openai: %s", apiErr.Message)
	switch {
	case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
		return llm.NewRateLimitError(msg, nil, err)
	case apiErr.HTTPStatusCode == http.StatusBadRequest:
		return llm.NewInvalidRequestError(msg, err)
	case apiErr.HTTPStatusCode >= 500:
		return &llm.Error{
			Type:        llm.ErrorTypeProvider,
			Message:     msg,
			Retryable:   true,
			StatusCode:  apiErr.HTTPStatusCode,
			ProviderErr: err,
		}
	default:
		return &llm.Error{
			Type:        llm.ErrorTypeProvider,
			Message:     msg,
			StatusCode:  apiErr.HTTPStatusCode,
			ProviderErr: err,
		}
	}
}
