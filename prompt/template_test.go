package prompt

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/threadline/threadline/llm"
)

func TestFixedIgnoresVars(t *testing.T) {
	msg := llm.NewSystemMessage("foo")
	fixed := &Fixed{Message: msg}
	got, err := fixed.FormatMessages(context.Background(), map[string]any{"anything": "at all"})
	if err != nil {
		t.Fatalf("FormatMessages failed: %v", err)
	}
	if !reflect.DeepEqual(got, []llm.Message{msg}) {
		t.Errorf("Fixed should return its message unchanged, got %+v", got)
	}
	if len(fixed.InputVariables()) != 0 {
		t.Errorf("Fixed should require no variables")
	}
}

func TestRoleAliases(t *testing.T) {
	cases := map[string]llm.Role{
		"system":    llm.RoleSystem,
		"human":     llm.RoleHuman,
		"user":      llm.RoleHuman,
		"ai":        llm.RoleAI,
		"assistant": llm.RoleAI,
		"tool":      llm.RoleTool,
	}
	for alias, want := range cases {
		tmpl, err := NewRoleTemplate(alias, "x")
		if err != nil {
			t.Fatalf("NewRoleTemplate(%q) failed: %v", alias, err)
		}
		if tmpl.Role() != want {
			t.Errorf("Alias %q resolved to %v, want %v", alias, tmpl.Role(), want)
		}
	}
}

func TestUnrecognizedRoleRejected(t *testing.T) {
	_, err := NewRoleTemplate("meow", "x")
	var malformed *MalformedRoleError
	if !errors.As(err, &malformed) {
		t.Fatalf("Expected MalformedRoleError, got %v", err)
	}
	if malformed.Role != "meow" {
		t.Errorf("Unexpected role in error: %q", malformed.Role)
	}
}

func TestCustomRoleExplicitConstruction(t *testing.T) {
	// The explicit constructor accepts any role string, unlike the tuple
	// shorthand. The asymmetry is intentional.
	tmpl := NewCustomRoleTemplate("meow", "{q}")
	msgs, err := tmpl.FormatMessages(context.Background(), map[string]any{"q": "purr"})
	if err != nil {
		t.Fatalf("FormatMessages failed: %v", err)
	}
	if msgs[0].Role != llm.RoleChat || msgs[0].CustomRole != "meow" {
		t.Errorf("Unexpected message: %+v", msgs[0])
	}
	if msgs[0].TextContent() != "purr" {
		t.Errorf("Unexpected content: %q", msgs[0].TextContent())
	}
	if msgs[0].RoleLabel() != "meow" {
		t.Errorf("Custom role label should be verbatim, got %q", msgs[0].RoleLabel())
	}
}

func TestRoleTemplatePartialVars(t *testing.T) {
	tmpl, err := NewRoleTemplate("system", "{a}-{b}", WithPartialVars(map[string]any{"a": "frozen"}))
	if err != nil {
		t.Fatal(err)
	}
	if got := tmpl.InputVariables(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("Partial-bound names should be excluded, got %v", got)
	}

	msgs, err := tmpl.FormatMessages(context.Background(), map[string]any{"b": "free"})
	if err != nil {
		t.Fatalf("FormatMessages failed: %v", err)
	}
	if msgs[0].TextContent() != "frozen-free" {
		t.Errorf("Unexpected content: %q", msgs[0].TextContent())
	}

	// Caller-supplied values take precedence over partials.
	msgs, err = tmpl.FormatMessages(context.Background(), map[string]any{"a": "override", "b": "free"})
	if err != nil {
		t.Fatal(err)
	}
	if msgs[0].TextContent() != "override-free" {
		t.Errorf("Vars should win over partials, got %q", msgs[0].TextContent())
	}
}

func TestPlaceholderRequired(t *testing.T) {
	p := NewPlaceholder("history")
	_, err := p.FormatMessages(context.Background(), map[string]any{})
	var missing *MissingVariableError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected MissingVariableError, got %v", err)
	}

	if got := p.InputVariables(); !reflect.DeepEqual(got, []string{"history"}) {
		t.Errorf("Required placeholder should report its variable, got %v", got)
	}
}

func TestPlaceholderOptionalEmpty(t *testing.T) {
	p := &Placeholder{VariableName: "history", Optional: true}
	msgs, err := p.FormatMessages(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("Optional placeholder should not fail: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("Expected empty sequence, got %d messages", len(msgs))
	}
	if len(p.InputVariables()) != 0 {
		t.Errorf("Optional placeholder should require no variables")
	}
}

func TestPlaceholderItemCoercion(t *testing.T) {
	p := NewPlaceholder("history")
	msgs, err := p.FormatMessages(context.Background(), map[string]any{
		"history": []any{
			Pair("system", "You are an AI assistant."),
			"Hello!",
			llm.NewAIMessage("Hi."),
		},
	})
	if err != nil {
		t.Fatalf("FormatMessages failed: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Role != llm.RoleSystem || msgs[0].TextContent() != "You are an AI assistant." {
		t.Errorf("Unexpected first message: %+v", msgs[0])
	}
	if msgs[1].Role != llm.RoleHuman || msgs[1].TextContent() != "Hello!" {
		t.Errorf("Bare string should become a human message: %+v", msgs[1])
	}
	if msgs[2].Role != llm.RoleAI {
		t.Errorf("Unexpected third message: %+v", msgs[2])
	}
}

func TestPlaceholderItemsNotReResolved(t *testing.T) {
	p := NewPlaceholder("history")
	msgs, err := p.FormatMessages(context.Background(), map[string]any{
		"history": []any{Pair("user", "literal {braces} stay")},
	})
	if err != nil {
		t.Fatalf("FormatMessages failed: %v", err)
	}
	if msgs[0].TextContent() != "literal {braces} stay" {
		t.Errorf("Placeholder items must not be re-resolved: %q", msgs[0].TextContent())
	}
}

func TestPlaceholderNMessages(t *testing.T) {
	history := []llm.Message{
		llm.NewAIMessage("1"),
		llm.NewAIMessage("2"),
		llm.NewAIMessage("3"),
	}

	p := NewPlaceholder("history")
	msgs, err := p.FormatMessages(context.Background(), map[string]any{"history": history})
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Fatalf("Expected all 3 messages, got %d", len(msgs))
	}

	p = &Placeholder{VariableName: "history", NMessages: 2}
	msgs, err = p.FormatMessages(context.Background(), map[string]any{"history": history})
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].TextContent() != "2" || msgs[1].TextContent() != "3" {
		t.Errorf("Truncation should keep the last items in order: %v, %v",
			msgs[0].TextContent(), msgs[1].TextContent())
	}
}

func TestPlaceholderRejectsUnknownRoleItem(t *testing.T) {
	p := NewPlaceholder("history")
	_, err := p.FormatMessages(context.Background(), map[string]any{
		"history": []any{Pair("meow", "x")},
	})
	var malformed *MalformedRoleError
	if !errors.As(err, &malformed) {
		t.Fatalf("Expected MalformedRoleError, got %v", err)
	}
}

func TestClassifySpecKinds(t *testing.T) {
	cases := []struct {
		spec any
		kind specKind
	}{
		{"{q}", specKindBareString},
		{Pair("human", "{q}"), specKindRoleTuple},
		{Pair("placeholder", "{h}"), specKindPlaceholderTuple},
		{llm.NewHumanMessage("q"), specKindFixed},
		{NewPlaceholder("h"), specKindTemplate},
	}
	for _, tc := range cases {
		got, err := classifySpec(tc.spec)
		if err != nil {
			t.Fatalf("classifySpec(%v) failed: %v", tc.spec, err)
		}
		if got.kind != tc.kind {
			t.Errorf("classifySpec(%v) = kind %d, want %d", tc.spec, got.kind, tc.kind)
		}
	}

	if _, err := classifySpec(42); err == nil {
		t.Error("Expected error for unsupported spec type")
	}
}

func TestConvertPlaceholderTuple(t *testing.T) {
	p, err := convertPlaceholderTuple(Pair("placeholder", "{history}"), FormatFString)
	if err != nil {
		t.Fatal(err)
	}
	if p.VariableName != "history" || !p.Optional {
		t.Errorf("Bare reference form should be optional: %+v", p)
	}

	p, err = convertPlaceholderTuple(Pair("placeholder", []any{"{history}", false}), FormatFString)
	if err != nil {
		t.Fatal(err)
	}
	if p.Optional {
		t.Error("Explicit false flag should make the placeholder required")
	}

	if _, err := convertPlaceholderTuple(Pair("placeholder", "not a ref"), FormatFString); err == nil {
		t.Error("Expected error for non-reference content")
	}
	if _, err := convertPlaceholderTuple(Pair("placeholder", []any{"{h}"}), FormatFString); err == nil {
		t.Error("Expected error for wrong list length")
	}
}
