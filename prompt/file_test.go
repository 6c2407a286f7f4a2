package prompt

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/threadline/threadline/llm"
)

const sampleTemplateYAML = `
format: f-string
partial_variables:
  name: R2D2
messages:
  - role: system
    content: "You are an AI assistant named {name}."
  - role: placeholder
    name: history
    optional: true
    n_messages: 4
  - role: human
    content:
      - type: text
        text: "What's in this image?"
      - type: image_url
        image_url:
          url: "{img}"
          detail: low
`

func TestParseFile(t *testing.T) {
	tmpl, err := ParseFile([]byte(sampleTemplateYAML))
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if tmpl.Len() != 3 {
		t.Fatalf("Expected 3 nodes, got %d", tmpl.Len())
	}
	if got := tmpl.InputVariables(); !reflect.DeepEqual(got, []string{"img"}) {
		t.Errorf("InputVariables = %v", got)
	}
	if got := tmpl.OptionalVariables(); !reflect.DeepEqual(got, []string{"history"}) {
		t.Errorf("OptionalVariables = %v", got)
	}

	msgs, err := tmpl.FormatMessages(map[string]any{"img": "https://example.com/x.png"})
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].TextContent() != "You are an AI assistant named R2D2." {
		t.Errorf("Partial variables from file not applied: %q", msgs[0].TextContent())
	}
	img := msgs[1].Content[1].Image
	if img == nil || img.URL != "https://example.com/x.png" || img.Detail != "low" {
		t.Errorf("Unexpected image block: %+v", img)
	}
}

func TestParseFileCustomRole(t *testing.T) {
	tmpl, err := ParseFile([]byte(`
messages:
  - role: narrator
    custom: true
    content: "Meanwhile, {event}"
`))
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	msgs, err := tmpl.FormatMessages(map[string]any{"event": "it rained"})
	if err != nil {
		t.Fatal(err)
	}
	if msgs[0].Role != llm.RoleChat || msgs[0].CustomRole != "narrator" {
		t.Errorf("Unexpected message: %+v", msgs[0])
	}
}

func TestParseFileRejectsUnknownRole(t *testing.T) {
	_, err := ParseFile([]byte(`
messages:
  - role: meow
    content: x
`))
	if err == nil {
		t.Fatal("Expected error for unknown role without custom flag")
	}
}

func TestParseFileErrors(t *testing.T) {
	cases := []string{
		``,
		`messages: []`,
		"messages:\n  - content: x",
		"messages:\n  - role: placeholder",
		"messages:\n  - role: human",
	}
	for _, src := range cases {
		if _, err := ParseFile([]byte(src)); err == nil {
			t.Errorf("Expected error for %q", src)
		}
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompt.yaml")
	if err := os.WriteFile(path, []byte(sampleTemplateYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	tmpl, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if tmpl.Len() != 3 {
		t.Errorf("Expected 3 nodes, got %d", tmpl.Len())
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
