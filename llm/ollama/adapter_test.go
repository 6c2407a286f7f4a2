package ollama

import (
	"testing"

	"github.com/threadline/threadline/llm"
	"github.com/threadline/threadline/llm/llmtest"
)

func TestConverterConformance(t *testing.T) {
	llmtest.RunConverterTests(t, Converter{})
}

func TestRemoteImageRejected(t *testing.T) {
	msg := llm.Message{
		Role: llm.RoleHuman,
		Content: []llm.ContentBlock{
			{
				Type:  llm.ContentBlockTypeImageURL,
				Image: &llm.ImageBlock{URL: "https://example.com/cat.png"},
			},
		},
	}
	if _, err := ToOllamaMessage(msg); err == nil {
		t.Fatal("expected error for remote image URL, got nil")
	}
}

func TestInlineImageDecoded(t *testing.T) {
	msg := llm.Message{
		Role: llm.RoleHuman,
		Content: []llm.ContentBlock{
			{Type: llm.ContentBlockTypeText, Text: "what is this?"},
			{
				Type:  llm.ContentBlockTypeImageURL,
				Image: &llm.ImageBlock{URL: "data:image/jpeg;base64,QUJD"},
			},
		},
	}
	got, err := ToOllamaMessage(msg)
	if err != nil {
		t.Fatalf("ToOllamaMessage failed: %v", err)
	}
	if got.Content != "what is this?" {
		t.Errorf("content = %q, want %q", got.Content, "what is this?")
	}
	if len(got.Images) != 1 {
		t.Fatalf("len(images) = %d, want 1", len(got.Images))
	}
	if string(got.Images[0]) != "ABC" {
		t.Errorf("image data = %q, want %q", got.Images[0], "ABC")
	}
}

func TestRoleMapping(t *testing.T) {
	cases := []struct {
		msg  llm.Message
		want string
	}{
		{llm.NewSystemMessage("s"), "system"},
		{llm.NewHumanMessage("h"), "user"},
		{llm.NewAIMessage("a"), "assistant"},
		{llm.NewChatMessage("narrator", "n"), "user"},
	}
	for _, tc := range cases {
		got, err := ToOllamaMessage(tc.msg)
		if err != nil {
			t.Fatalf("ToOllamaMessage failed: %v", err)
		}
		if got.Role != tc.want {
			t.Errorf("role for %q = %q, want %q", tc.msg.Role, got.Role, tc.want)
		}
	}
}

func TestParseHostDefaultsScheme(t *testing.T) {
	u, err := parseHost("localhost:11434")
	if err != nil {
		t.Fatalf("parseHost failed: %v", err)
	}
	if u.Scheme != "http" {
		t.Errorf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != "localhost:11434" {
		t.Errorf("host = %q, want localhost:11434", u.Host)
	}
}
