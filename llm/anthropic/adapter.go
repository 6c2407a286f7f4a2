package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"

	"github.com/threadline/threadline/llm"
)

// Converter translates provider-neutral messages to and from Anthropic's
// wire format. It satisfies llm.MessageConverter.
type Converter struct{}

// ProviderName implements llm.MessageConverter.
func (Converter) ProviderName() string { return llm.ProviderAnthropic }

// SupportsImages implements llm.MessageConverter.
func (Converter) SupportsImages() bool { return true }

// RoundTrip implements llm.MessageConverter.
func (c Converter) RoundTrip(msg llm.Message) (llm.Message, error) {
	param, err := ToMessageParam(msg)
	if err != nil {
		return llm.Message{}, err
	}
	return FromMessageParam(param)
}

// ToMessageParam converts an llm.Message to an Anthropic MessageParam.
// System messages have no message-level representation in the Anthropic API;
// they are carried in the request's System field and rejected here.
func ToMessageParam(msg llm.Message) (anthropic.MessageParam, error) {
	contentBlocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Content))
	for _, block := range msg.Content {
		switch block.Type {
		case llm.ContentBlockTypeText:
			contentBlocks = append(contentBlocks, anthropic.NewTextBlock(block.Text))
		case llm.ContentBlockTypeImageURL:
			if block.Image == nil {
				continue
			}
			imageBlock, err := toImageBlock(block.Image)
			if err != nil {
				return anthropic.MessageParam{}, err
			}
			contentBlocks = append(contentBlocks, imageBlock)
		case llm.ContentBlockTypeToolUse:
			if block.ToolUse != nil {
				contentBlocks = append(contentBlocks, anthropic.NewToolUseBlock(
					block.ToolUse.ID,
					block.ToolUse.Input,
					block.ToolUse.Name,
				))
			}
		case llm.ContentBlockTypeToolResult:
			if block.ToolResult != nil {
				contentBlocks = append(contentBlocks, anthropic.NewToolResultBlock(
					block.ToolResult.ID,
					block.ToolResult.Content,
					block.ToolResult.IsError,
				))
			}
		default:
			return anthropic.MessageParam{}, llm.NewInvalidRequestError(
				fmt.Sprintf("anthropic: unsupported content block type %q", block.Type), nil)
		}
	}

	switch msg.Role {
	case llm.RoleHuman, llm.RoleTool, llm.RoleChat:
		// Tool results and custom-role messages ride as user turns.
		return anthropic.NewUserMessage(contentBlocks...), nil
	case llm.RoleAI:
		return anthropic.NewAssistantMessage(contentBlocks...), nil
	case llm.RoleSystem:
		return anthropic.MessageParam{}, llm.NewInvalidRequestError(
			"anthropic: system messages belong in the request System field", nil)
	default:
		return anthropic.NewUserMessage(contentBlocks...), nil
	}
}

// FromMessageParam converts an Anthropic MessageParam back to an llm.Message.
// A user turn consisting solely of tool results is restored as a tool message.
func FromMessageParam(msg anthropic.MessageParam) (llm.Message, error) {
	content := make([]llm.ContentBlock, 0, len(msg.Content))
	onlyToolResults := len(msg.Content) > 0

	for _, blockUnion := range msg.Content {
		switch {
		case blockUnion.OfText != nil:
			onlyToolResults = false
			content = append(content, llm.ContentBlock{
				Type: llm.ContentBlockTypeText,
				Text: blockUnion.OfText.Text,
			})
		case blockUnion.OfImage != nil:
			onlyToolResults = false
			image, err := fromImageBlock(blockUnion.OfImage)
			if err != nil {
				return llm.Message{}, err
			}
			content = append(content, llm.ContentBlock{
				Type:  llm.ContentBlockTypeImageURL,
				Image: image,
			})
		case blockUnion.OfToolUse != nil:
			onlyToolResults = false
			var input map[string]any
			if blockUnion.OfToolUse.Input != nil {
				if inputBytes, err := json.Marshal(blockUnion.OfToolUse.Input); err == nil {
					if err := json.Unmarshal(inputBytes, &input); err != nil {
						input = make(map[string]any)
					}
				}
			}
			content = append(content, llm.ContentBlock{
				Type: llm.ContentBlockTypeToolUse,
				ToolUse: &llm.ToolUseBlock{
					ID:    blockUnion.OfToolUse.ID,
					Name:  blockUnion.OfToolUse.Name,
					Input: input,
				},
			})
		case blockUnion.OfToolResult != nil:
			var contentStr string
			for _, contentUnion := range blockUnion.OfToolResult.Content {
				if contentUnion.OfText != nil {
					contentStr += contentUnion.OfText.Text
				}
			}
			content = append(content, llm.ContentBlock{
				Type: llm.ContentBlockTypeToolResult,
				ToolResult: &llm.ToolResultBlock{
					ID:      blockUnion.OfToolResult.ToolUseID,
					Content: contentStr,
					IsError: blockUnion.OfToolResult.IsError.Value,
				},
			})
		default:
			onlyToolResults = false
		}
	}

	role := llm.RoleHuman
	switch {
	case string(msg.Role) == "assistant":
		role = llm.RoleAI
	case onlyToolResults:
		role = llm.RoleTool
	}

	out := llm.Message{Role: role, Content: content}
	if role == llm.RoleTool {
		for _, block := range content {
			if block.ToolResult != nil {
				out.ToolCallID = block.ToolResult.ID
				break
			}
		}
	}
	return out, nil
}

// ToMessageParams converts messages, splitting off leading system messages
// into the returned system prompt.
func ToMessageParams(msgs []llm.Message) (string, []anthropic.MessageParam, error) {
	var system strings.Builder
	result := make([]anthropic.MessageParam, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Role == llm.RoleSystem {
			if system.Len() > 0 {
				system.WriteString("\n")
			}
			system.WriteString(msg.TextContent())
			continue
		}
		param, err := ToMessageParam(msg)
		if err != nil {
			return "", nil, fmt.Errorf("failed to convert message: %w", err)
		}
		result = append(result, param)
	}
	return system.String(), result, nil
}

func toImageBlock(image *llm.ImageBlock) (anthropic.ContentBlockParamUnion, error) {
	if image.IsInline() {
		mediaType, data, err := splitDataURI(image.URL)
		if err != nil {
			return anthropic.ContentBlockParamUnion{}, err
		}
		return anthropic.NewImageBlockBase64(mediaType, data), nil
	}
	return anthropic.NewImageBlock(anthropic.URLImageSourceParam{URL: image.URL}), nil
}

func fromImageBlock(block *anthropic.ImageBlockParam) (*llm.ImageBlock, error) {
	source := block.Source
	switch {
	case source.OfBase64 != nil:
		return &llm.ImageBlock{
			URL: "data:" + string(source.OfBase64.MediaType) + ";base64," + source.OfBase64.Data,
		}, nil
	case source.OfURL != nil:
		return &llm.ImageBlock{URL: source.OfURL.URL}, nil
	default:
		return nil, llm.NewInvalidRequestError("anthropic: image block has no source", nil)
	}
}

// splitDataURI parses "data:<mime>;base64,<payload>" into its media type and
// payload.
func splitDataURI(uri string) (mediaType, data string, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", "", llm.NewInvalidRequestError("anthropic: not a data URI", nil)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return "", "", llm.NewInvalidRequestError("anthropic: malformed data URI", nil)
	}
	return strings.TrimSuffix(meta, ";base64"), payload, nil
}
