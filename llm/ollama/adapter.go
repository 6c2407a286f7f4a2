package ollama

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/threadline/threadline/llm"
)

// Converter translates provider-neutral messages to and from Ollama's chat
// message format. It satisfies llm.MessageConverter.
type Converter struct{}

// ProviderName implements llm.MessageConverter.
func (Converter) ProviderName() string { return llm.ProviderOllama }

// SupportsImages implements llm.MessageConverter. Only inline base64 images
// are supported; Ollama does not fetch remote URLs.
func (Converter) SupportsImages() bool { return true }

// RoundTrip implements llm.MessageConverter.
func (c Converter) RoundTrip(msg llm.Message) (llm.Message, error) {
	ollamaMsg, err := ToOllamaMessage(msg)
	if err != nil {
		return llm.Message{}, err
	}
	return FromOllamaMessage(ollamaMsg)
}

// ToOllamaMessages converts llm.Messages to Ollama chat message format.
func ToOllamaMessages(msgs []llm.Message) ([]api.Message, error) {
	result := make([]api.Message, 0, len(msgs))
	for _, msg := range msgs {
		ollamaMsg, err := ToOllamaMessage(msg)
		if err != nil {
			return nil, fmt.Errorf("failed to convert message: %w", err)
		}
		result = append(result, ollamaMsg)
	}
	return result, nil
}

// ToOllamaMessage converts a single llm.Message to Ollama format. Text blocks
// are concatenated into the message content; inline images become raw image
// data attachments.
func ToOllamaMessage(msg llm.Message) (api.Message, error) {
	var content string
	var images []api.ImageData
	var toolCalls []api.ToolCall

	for _, block := range msg.Content {
		switch block.Type {
		case llm.ContentBlockTypeText:
			if content != "" {
				content += "\n"
			}
			content += block.Text

		case llm.ContentBlockTypeImageURL:
			if block.Image == nil {
				continue
			}
			if !block.Image.IsInline() {
				return api.Message{}, llm.NewInvalidRequestError(
					fmt.Sprintf("ollama: remote image URLs are not supported: %q", block.Image.URL), nil)
			}
			data, err := decodeDataURI(block.Image.URL)
			if err != nil {
				return api.Message{}, llm.NewInvalidRequestError(
					fmt.Sprintf("ollama: invalid inline image: %v", err), nil)
			}
			images = append(images, data)

		case llm.ContentBlockTypeToolUse:
			if block.ToolUse != nil {
				args := make(api.ToolCallFunctionArguments)
				for k, v := range block.ToolUse.Input {
					args[k] = v
				}
				toolCalls = append(toolCalls, api.ToolCall{
					Function: api.ToolCallFunction{
						Name:      block.ToolUse.Name,
						Arguments: args,
					},
				})
			}

		case llm.ContentBlockTypeToolResult:
			if block.ToolResult != nil {
				if content != "" {
					content += "\n"
				}
				content += block.ToolResult.Content
			}

		default:
			return api.Message{}, llm.NewInvalidRequestError(
				fmt.Sprintf("ollama: unsupported content block type %q", block.Type), nil)
		}
	}

	return api.Message{
		Role:      toOllamaRole(msg),
		Content:   content,
		Images:    images,
		ToolCalls: toolCalls,
	}, nil
}

// FromOllamaMessage converts an Ollama chat message back to an llm.Message.
// Image attachments come back as inline data URIs; the original media type is
// not recorded by Ollama, so JPEG is assumed.
func FromOllamaMessage(msg api.Message) (llm.Message, error) {
	out := llm.Message{Role: fromOllamaRole(msg.Role)}

	if msg.Content != "" {
		if out.Role == llm.RoleTool {
			out.Content = append(out.Content, llm.ContentBlock{
				Type: llm.ContentBlockTypeToolResult,
				ToolResult: &llm.ToolResultBlock{
					Content: msg.Content,
				},
			})
		} else {
			out.Content = append(out.Content, llm.ContentBlock{
				Type: llm.ContentBlockTypeText,
				Text: msg.Content,
			})
		}
	}
	for _, img := range msg.Images {
		out.Content = append(out.Content, llm.ContentBlock{
			Type: llm.ContentBlockTypeImageURL,
			Image: &llm.ImageBlock{
				URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img),
			},
		})
	}
	for _, call := range msg.ToolCalls {
		block, err := FromOllamaToolCall(call)
		if err != nil {
			return llm.Message{}, err
		}
		out.Content = append(out.Content, llm.ContentBlock{
			Type:    llm.ContentBlockTypeToolUse,
			ToolUse: block,
		})
	}
	return out, nil
}

// FromOllamaToolCall converts an Ollama tool call to an llm.ToolUseBlock.
func FromOllamaToolCall(call api.ToolCall) (*llm.ToolUseBlock, error) {
	input := make(map[string]any)
	for k, v := range call.Function.Arguments {
		input[k] = v
	}
	return &llm.ToolUseBlock{
		Name:  call.Function.Name,
		Input: input,
	}, nil
}

func toOllamaRole(msg llm.Message) string {
	switch msg.Role {
	case llm.RoleSystem:
		return "system"
	case llm.RoleAI:
		return "assistant"
	case llm.RoleTool:
		return "tool"
	default:
		return "user"
	}
}

func fromOllamaRole(role string) llm.Role {
	switch role {
	case "system":
		return llm.RoleSystem
	case "assistant":
		return llm.RoleAI
	case "tool":
		return llm.RoleTool
	default:
		return llm.RoleHuman
	}
}

// decodeDataURI decodes the base64 payload of a data URI.
func decodeDataURI(uri string) ([]byte, error) {
	idx := strings.Index(uri, ";base64,")
	if !strings.HasPrefix(uri, "data:") || idx < 0 {
		return nil, fmt.Errorf("not a base64 data URI")
	}
	data, err := base64.StdEncoding.DecodeString(uri[idx+len(";base64,"):])
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return data, nil
}
