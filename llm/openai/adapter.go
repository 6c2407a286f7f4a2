package openai

import (
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/threadline/threadline/llm"
)

// Converter translates provider-neutral messages to and from OpenAI's chat
// message format. It satisfies llm.MessageConverter.
type Converter struct{}

// ProviderName implements llm.MessageConverter.
func (Converter) ProviderName() string { return llm.ProviderOpenAI }

// SupportsImages implements llm.MessageConverter.
func (Converter) SupportsImages() bool { return true }

// RoundTrip implements llm.MessageConverter.
func (c Converter) RoundTrip(msg llm.Message) (llm.Message, error) {
	openaiMsg, err := ToChatMessage(msg)
	if err != nil {
		return llm.Message{}, err
	}
	return FromChatMessage(openaiMsg)
}

// ToChatMessages converts llm.Messages to OpenAI chat message format.
func ToChatMessages(msgs []llm.Message) ([]openai.ChatCompletionMessage, error) {
	result := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, msg := range msgs {
		openaiMsg, err := ToChatMessage(msg)
		if err != nil {
			return nil, fmt.Errorf("failed to convert message: %w", err)
		}
		result = append(result, openaiMsg)
	}
	return result, nil
}

// ToChatMessage converts a single llm.Message to OpenAI format. Messages
// containing image blocks use the multi-part content shape; text-only
// messages use plain string content.
func ToChatMessage(msg llm.Message) (openai.ChatCompletionMessage, error) {
	openaiMsg := openai.ChatCompletionMessage{
		Role: toOpenAIRole(msg.Role),
		Name: msg.Name,
	}

	hasImages := false
	for _, block := range msg.Content {
		if block.Type == llm.ContentBlockTypeImageURL {
			hasImages = true
			break
		}
	}

	if hasImages {
		parts := make([]openai.ChatMessagePart, 0, len(msg.Content))
		for _, block := range msg.Content {
			switch block.Type {
			case llm.ContentBlockTypeText:
				parts = append(parts, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeText,
					Text: block.Text,
				})
			case llm.ContentBlockTypeImageURL:
				if block.Image == nil {
					continue
				}
				parts = append(parts, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    block.Image.URL,
						Detail: openai.ImageURLDetail(block.Image.Detail),
					},
				})
			default:
				return openai.ChatCompletionMessage{}, llm.NewInvalidRequestError(
					fmt.Sprintf("openai: cannot mix %q blocks with image content", block.Type), nil)
			}
		}
		openaiMsg.MultiContent = parts
		return openaiMsg, nil
	}

	var content string
	var toolCalls []openai.ToolCall
	for _, block := range msg.Content {
		switch block.Type {
		case llm.ContentBlockTypeText:
			if content != "" {
				content += "\n"
			}
			content += block.Text
		case llm.ContentBlockTypeToolUse:
			if block.ToolUse != nil {
				argsJSON, err := json.Marshal(block.ToolUse.Input)
				if err != nil {
					return openai.ChatCompletionMessage{}, fmt.Errorf("failed to marshal tool input: %w", err)
				}
				toolCalls = append(toolCalls, openai.ToolCall{
					ID:   block.ToolUse.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      block.ToolUse.Name,
						Arguments: string(argsJSON),
					},
				})
			}
		case llm.ContentBlockTypeToolResult:
			if block.ToolResult != nil {
				if content != "" {
					content += "\n"
				}
				content += block.ToolResult.Content
				openaiMsg.ToolCallID = block.ToolResult.ID
			}
		default:
			return openai.ChatCompletionMessage{}, llm.NewInvalidRequestError(
				fmt.Sprintf("openai: unsupported content block type %q", block.Type), nil)
		}
	}
	openaiMsg.Content = content
	openaiMsg.ToolCalls = toolCalls
	if msg.ToolCallID != "" {
		openaiMsg.ToolCallID = msg.ToolCallID
	}
	return openaiMsg, nil
}

// FromChatMessage converts an OpenAI chat message back to an llm.Message.
func FromChatMessage(msg openai.ChatCompletionMessage) (llm.Message, error) {
	out := llm.Message{
		Role:       fromOpenAIRole(msg.Role),
		Name:       msg.Name,
		ToolCallID: msg.ToolCallID,
	}

	if len(msg.MultiContent) > 0 {
		for _, part := range msg.MultiContent {
			switch part.Type {
			case openai.ChatMessagePartTypeText:
				out.Content = append(out.Content, llm.ContentBlock{
					Type: llm.ContentBlockTypeText,
					Text: part.Text,
				})
			case openai.ChatMessagePartTypeImageURL:
				if part.ImageURL == nil {
					continue
				}
				out.Content = append(out.Content, llm.ContentBlock{
					Type: llm.ContentBlockTypeImageURL,
					Image: &llm.ImageBlock{
						URL:    part.ImageURL.URL,
						Detail: string(part.ImageURL.Detail),
					},
				})
			}
		}
		return out, nil
	}

	if msg.Role == openai.ChatMessageRoleTool {
		out.Content = append(out.Content, llm.ContentBlock{
			Type: llm.ContentBlockTypeToolResult,
			ToolResult: &llm.ToolResultBlock{
				ID:      msg.ToolCallID,
				Content: msg.Content,
			},
		})
		return out, nil
	}

	if msg.Content != "" {
		out.Content = append(out.Content, llm.ContentBlock{
			Type: llm.ContentBlockTypeText,
			Text: msg.Content,
		})
	}
	for _, call := range msg.ToolCalls {
		var input map[string]any
		if err := json.Unmarshal([]byte(call.Function.Arguments), &input); err != nil {
			input = make(map[string]any)
		}
		out.Content = append(out.Content, llm.ContentBlock{
			Type: llm.ContentBlockTypeToolUse,
			ToolUse: &llm.ToolUseBlock{
				ID:    call.ID,
				Name:  call.Function.Name,
				Input: input,
			},
		})
	}
	return out, nil
}

func toOpenAIRole(role llm.Role) string {
	switch role {
	case llm.RoleSystem:
		return openai.ChatMessageRoleSystem
	case llm.RoleAI:
		return openai.ChatMessageRoleAssistant
	case llm.RoleTool:
		return openai.ChatMessageRoleTool
	default:
		// Human and custom chat roles ride as user turns.
		return openai.ChatMessageRoleUser
	}
}

func fromOpenAIRole(role string) llm.Role {
	switch role {
	case openai.ChatMessageRoleSystem:
		return llm.RoleSystem
	case openai.ChatMessageRoleAssistant:
		return llm.RoleAI
	case openai.ChatMessageRoleTool:
		return llm.RoleTool
	default:
		return llm.RoleHuman
	}
}
