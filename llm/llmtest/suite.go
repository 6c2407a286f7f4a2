// Package llmtest provides a conformance suite for message converters.
// Each provider package runs the suite against its Converter to verify that
// provider-neutral messages survive a round trip through the provider's wire
// types with their meaning intact.
package llmtest

import (
	"reflect"
	"strings"
	"testing"

	"github.com/threadline/threadline/llm"
)

// Inline JPEG payload ("ABC" base64-encoded) used by the image cases.
const inlineImageURI = "data:image/jpeg;base64,QUJD"

// RunConverterTests runs the converter conformance suite. The contract is
// semantic, not structural: a converter may reshape blocks (for example,
// coalescing adjacent text) as long as role, text content, tool calls, and
// inline images survive the round trip.
func RunConverterTests(t *testing.T, conv llm.MessageConverter) {
	t.Helper()

	if conv.ProviderName() == "" {
		t.Fatal("ProviderName returned empty string")
	}

	t.Run("HumanText", func(t *testing.T) {
		checkTextRoundTrip(t, conv, llm.NewHumanMessage("hello there"))
	})

	t.Run("AIText", func(t *testing.T) {
		checkTextRoundTrip(t, conv, llm.NewAIMessage("general kenobi"))
	})

	t.Run("MultipleTextBlocks", func(t *testing.T) {
		msg := llm.Message{
			Role: llm.RoleHuman,
			Content: []llm.ContentBlock{
				{Type: llm.ContentBlockTypeText, Text: "first"},
				{Type: llm.ContentBlockTypeText, Text: "second"},
			},
		}
		got, err := conv.RoundTrip(msg)
		if err != nil {
			t.Fatalf("RoundTrip failed: %v", err)
		}
		if got.Role != llm.RoleHuman {
			t.Errorf("role = %q, want %q", got.Role, llm.RoleHuman)
		}
		text := got.TextContent()
		if text == "" {
			t.Fatal("text content lost in round trip")
		}
		for _, want := range []string{"first", "second"} {
			if !strings.Contains(text, want) {
				t.Errorf("text content %q missing %q", text, want)
			}
		}
	})

	t.Run("ToolUse", func(t *testing.T) {
		msg := llm.Message{
			Role: llm.RoleAI,
			Content: []llm.ContentBlock{
				{
					Type: llm.ContentBlockTypeToolUse,
					ToolUse: &llm.ToolUseBlock{
						ID:    "call_1",
						Name:  "get_weather",
						Input: map[string]any{"city": "Paris"},
					},
				},
			},
		}
		got, err := conv.RoundTrip(msg)
		if err != nil {
			t.Fatalf("RoundTrip failed: %v", err)
		}
		block := findBlock(got, llm.ContentBlockTypeToolUse)
		if block == nil || block.ToolUse == nil {
			t.Fatal("tool use block lost in round trip")
		}
		if block.ToolUse.Name != "get_weather" {
			t.Errorf("tool name = %q, want %q", block.ToolUse.Name, "get_weather")
		}
		if !reflect.DeepEqual(block.ToolUse.Input, map[string]any{"city": "Paris"}) {
			t.Errorf("tool input = %v, want %v", block.ToolUse.Input, map[string]any{"city": "Paris"})
		}
	})

	t.Run("ToolResult", func(t *testing.T) {
		msg := llm.NewToolResultMessage("call_1", "21 degrees", false)
		got, err := conv.RoundTrip(msg)
		if err != nil {
			t.Fatalf("RoundTrip failed: %v", err)
		}
		if got.Role != llm.RoleTool {
			t.Errorf("role = %q, want %q", got.Role, llm.RoleTool)
		}
		block := findBlock(got, llm.ContentBlockTypeToolResult)
		if block == nil || block.ToolResult == nil {
			t.Fatal("tool result block lost in round trip")
		}
		if block.ToolResult.Content != "21 degrees" {
			t.Errorf("tool result content = %q, want %q", block.ToolResult.Content, "21 degrees")
		}
	})

	t.Run("InlineImage", func(t *testing.T) {
		msg := llm.Message{
			Role: llm.RoleHuman,
			Content: []llm.ContentBlock{
				{
					Type:  llm.ContentBlockTypeImageURL,
					Image: &llm.ImageBlock{URL: inlineImageURI},
				},
			},
		}
		got, err := conv.RoundTrip(msg)
		if !conv.SupportsImages() {
			if err == nil {
				t.Fatal("expected error for image content, got nil")
			}
			return
		}
		if err != nil {
			t.Fatalf("RoundTrip failed: %v", err)
		}
		block := findBlock(got, llm.ContentBlockTypeImageURL)
		if block == nil || block.Image == nil {
			t.Fatal("image block lost in round trip")
		}
		if !block.Image.IsInline() {
			t.Errorf("image URL %q is not inline", block.Image.URL)
		}
		if block.Image.URL != inlineImageURI {
			t.Errorf("image URL = %q, want %q", block.Image.URL, inlineImageURI)
		}
	})
}

func checkTextRoundTrip(t *testing.T, conv llm.MessageConverter, msg llm.Message) {
	t.Helper()
	got, err := conv.RoundTrip(msg)
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	if got.Role != msg.Role {
		t.Errorf("role = %q, want %q", got.Role, msg.Role)
	}
	if got.TextContent() != msg.TextContent() {
		t.Errorf("text content = %q, want %q", got.TextContent(), msg.TextContent())
	}
}

func findBlock(msg llm.Message, typ llm.ContentBlockType) *llm.ContentBlock {
	for i := range msg.Content {
		if msg.Content[i].Type == typ {
			return &msg.Content[i]
		}
	}
	return nil
}
