package llm

import (
	"encoding/json"
	"strings"
)

// Role represents the speaker category of a message in a conversation.
type Role string

const (
	RoleSystem Role = "system"
	RoleHuman  Role = "human"
	RoleAI     Role = "ai"
	RoleTool   Role = "tool"
	// RoleChat marks a message whose role is an arbitrary caller-supplied
	// string carried in Message.CustomRole.
	RoleChat Role = "chat"
)

// Message represents a single resolved message in a conversation.
// This is provider-neutral and immutable once produced by formatting.
type Message struct {
	Role       Role
	CustomRole string // Set only when Role == RoleChat
	Name       string // Optional speaker name
	ToolCallID string // Set on tool-result messages
	Content    []ContentBlock
	// AdditionalKV carries provider-specific key-value data that should be
	// passed through untouched (e.g. cache-control hints).
	AdditionalKV map[string]any
}

// ContentBlock represents a single content block within a message.
// It can be text, an image reference, a tool use, or a tool result.
type ContentBlock struct {
	Type       ContentBlockType
	Text       string           // For text blocks
	Image      *ImageBlock      // For image blocks
	ToolUse    *ToolUseBlock    // For tool use blocks
	ToolResult *ToolResultBlock // For tool result blocks
	// Extra preserves fields of block types this package does not model.
	// Unknown blocks round-trip through formatting with Extra intact.
	Extra map[string]any
}

// ContentBlockType represents the type of content block.
type ContentBlockType string

const (
	ContentBlockTypeText       ContentBlockType = "text"
	ContentBlockTypeImageURL   ContentBlockType = "image_url"
	ContentBlockTypeToolUse    ContentBlockType = "tool_use"
	ContentBlockTypeToolResult ContentBlockType = "tool_result"
)

// ImageBlock represents image content addressed by URL. Inline images use a
// data URI in URL ("data:<mime>;base64,<payload>").
type ImageBlock struct {
	URL    string
	Detail string // Optional provider hint: "low", "high", "auto", ...
}

// IsInline reports whether the image carries its payload inline as a data URI.
func (b *ImageBlock) IsInline() bool {
	return strings.HasPrefix(b.URL, "data:")
}

// ToolUseBlock represents a tool invocation request from the assistant.
type ToolUseBlock struct {
	ID    string
	Name  string
	Input map[string]any // JSON-serializable input parameters
}

// ToolResultBlock represents the result of a tool invocation.
type ToolResultBlock struct {
	ID      string
	Content string // JSON-serialized result
	IsError bool
}

// Request represents a complete LLM API request.
type Request struct {
	Model       string
	Messages    []Message
	System      string
	MaxTokens   int64
	Temperature *float64 // Optional temperature override
}

// Response represents a complete LLM API response.
type Response struct {
	Content    []ContentBlock
	Usage      *Usage
	StopReason string
}

// Usage represents token usage information from an LLM response.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// NewTextMessage creates a new message of the given role with text content.
func NewTextMessage(role Role, text string) Message {
	return Message{
		Role: role,
		Content: []ContentBlock{
			{Type: ContentBlockTypeText, Text: text},
		},
	}
}

// NewSystemMessage creates a system message with text content.
func NewSystemMessage(text string) Message { return NewTextMessage(RoleSystem, text) }

// NewHumanMessage creates a human message with text content.
func NewHumanMessage(text string) Message { return NewTextMessage(RoleHuman, text) }

// NewAIMessage creates an assistant message with text content.
func NewAIMessage(text string) Message { return NewTextMessage(RoleAI, text) }

// NewChatMessage creates a message with an arbitrary custom role string.
func NewChatMessage(role, text string) Message {
	msg := NewTextMessage(RoleChat, text)
	msg.CustomRole = role
	return msg
}

// NewToolResultMessage creates a tool message carrying a tool result block.
func NewToolResultMessage(toolCallID, content string, isError bool) Message {
	return Message{
		Role:       RoleTool,
		ToolCallID: toolCallID,
		Content: []ContentBlock{
			{
				Type:       ContentBlockTypeToolResult,
				ToolResult: &ToolResultBlock{ID: toolCallID, Content: content, IsError: isError},
			},
		},
	}
}

// RoleLabel returns the human-readable label used when rendering a
// conversation to a single string: System, Human, AI, Tool, or the custom
// role string verbatim.
func (m Message) RoleLabel() string {
	switch m.Role {
	case RoleSystem:
		return "System"
	case RoleHuman:
		return "Human"
	case RoleAI:
		return "AI"
	case RoleTool:
		return "Tool"
	case RoleChat:
		return m.CustomRole
	default:
		return string(m.Role)
	}
}

// TextContent concatenates the text of all text blocks in the message.
func (m Message) TextContent() string {
	var sb strings.Builder
	for _, block := range m.Content {
		if block.Type == ContentBlockTypeText {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

/// GetBufferString renders messages as "Label: content" lines joined by newline.
func GetBufferString(msgs []Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, m.RoleLabel()+": "+m.TextContent())
	}
	return strings.Join(lines, "\n")
}

// MergeChunks concatenates a sequence of message chunks produced by a
// streaming response into a single message. The first chunk determines role
// and metadata; adjacent text blocks are coalesced in order and other block
// kinds are appended as-is.
func MergeChunks(chunks []Message) Message {
	if len(chunks) == 0 {
		return Message{}
	}
	merged := chunks[0]
	merged.Content = nil

	var pending *strings.Builder
	flush := func() {
		if pending != nil {
			merged.Content = append(merged.Content, ContentBlock{
				Type: ContentBlockTypeText,
				Text: pending.String(),
			})
			pending = nil
		}
	}
	for _, chunk := range chunks {
		for _, block := range chunk.Content {
			if block.Type == ContentBlockTypeText {
				if pending == nil {
					pending = &strings.Builder{}
				}
				pending.WriteString(block.Text)
				continue
			}
			flush()
			merged.Content = append(merged.Content, block)
		}
	}
	flush()
	return merged
}

// ToJSON marshals a message to JSON for debugging/logging purposes.
func (m Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
