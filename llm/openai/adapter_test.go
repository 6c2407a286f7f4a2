package openai

import (
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/threadline/threadline/llm"
	"github.com/threadline/threadline/llm/llmtest"
)

func TestConverterConformance(t *testing.T) {
	llmtest.RunConverterTests(t, Converter{})
}

func TestImageMessageUsesMultiContent(t *testing.T) {
	msg := llm.Message{
		Role: llm.RoleHuman,
		Content: []llm.ContentBlock{
			{Type: llm.ContentBlockTypeText, Text: "describe this"},
			{
				Type:  llm.ContentBlockTypeImageURL,
				Image: &llm.ImageBlock{URL: "https://example.com/cat.png", Detail: "low"},
			},
		},
	}
	got, err := ToChatMessage(msg)
	if err != nil {
		t.Fatalf("ToChatMessage failed: %v", err)
	}
	if got.Content != "" {
		t.Errorf("plain content = %q, want empty when multi-part", got.Content)
	}
	if len(got.MultiContent) != 2 {
		t.Fatalf("len(multiContent) = %d, want 2", len(got.MultiContent))
	}
	if got.MultiContent[0].Type != openai.ChatMessagePartTypeText {
		t.Errorf("first part type = %q, want text", got.MultiContent[0].Type)
	}
	part := got.MultiContent[1]
	if part.Type != openai.ChatMessagePartTypeImageURL || part.ImageURL == nil {
		t.Fatal("second part is not an image part")
	}
	if part.ImageURL.URL != "https://example.com/cat.png" {
		t.Errorf("url = %q, want original", part.ImageURL.URL)
	}
	if part.ImageURL.Detail != openai.ImageURLDetailLow {
		t.Errorf("detail = %q, want low", part.ImageURL.Detail)
	}
}

func TestToolCallRoundTrip(t *testing.T) {
	msg := llm.Message{
		Role: llm.RoleAI,
		Content: []llm.ContentBlock{
			{Type: llm.ContentBlockTypeText, Text: "let me check"},
			{
				Type: llm.ContentBlockTypeToolUse,
				ToolUse: &llm.ToolUseBlock{
					ID:    "call_42",
					Name:  "lookup",
					Input: map[string]any{"key": "value"},
				},
			},
		},
	}
	converted, err := ToChatMessage(msg)
	if err != nil {
		t.Fatalf("ToChatMessage failed: %v", err)
	}
	if len(converted.ToolCalls) != 1 {
		t.Fatalf("len(toolCalls) = %d, want 1", len(converted.ToolCalls))
	}
	if converted.ToolCalls[0].ID != "call_42" {
		t.Errorf("tool call id = %q, want call_42", converted.ToolCalls[0].ID)
	}

	back, err := FromChatMessage(converted)
	if err != nil {
		t.Fatalf("FromChatMessage failed: %v", err)
	}
	if back.TextContent() != "let me check" {
		t.Errorf("text = %q, want %q", back.TextContent(), "let me check")
	}
	var toolUse *llm.ToolUseBlock
	for _, block := range back.Content {
		if block.ToolUse != nil {
			toolUse = block.ToolUse
		}
	}
	if toolUse == nil {
		t.Fatal("tool use block lost")
	}
	if toolUse.ID != "call_42" || toolUse.Name != "lookup" {
		t.Errorf("tool use = %+v, want id call_42, name lookup", toolUse)
	}
	if toolUse.Input["key"] != "value" {
		t.Errorf("input = %v, want key=value", toolUse.Input)
	}
}

func TestRoleMapping(t *testing.T) {
	cases := []struct {
		role llm.Role
		want string
	}{
		{llm.RoleSystem, openai.ChatMessageRoleSystem},
		{llm.RoleHuman, openai.ChatMessageRoleUser},
		{llm.RoleAI, openai.ChatMessageRoleAssistant},
		{llm.RoleTool, openai.ChatMessageRoleTool},
		{llm.RoleChat, openai.ChatMessageRoleUser},
	}
	for _, tc := range cases {
		if got := toOpenAIRole(tc.role); got != tc.want {
			t.Errorf("toOpenAIRole(%q) = %q, want %q", tc.role, got, tc.want)
		}
	}
}
