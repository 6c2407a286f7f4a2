package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/threadline/threadline/llm"
)

// MessageTemplate is a single node of a chat template. Formatting a node
// produces zero or more resolved messages.
type MessageTemplate interface {
	// FormatMessages resolves the node against the given variables.
	FormatMessages(ctx context.Context, vars map[string]any) ([]llm.Message, error)

	// InputVariables returns the variable names the node requires, after
	// subtracting its own partial bindings.
	InputVariables() []string
}

// Fixed wraps an already-resolved message. It ignores variables entirely.
type Fixed struct {
	Message llm.Message
}

// FormatMessages implements MessageTemplate.
func (f *Fixed) FormatMessages(_ context.Context, _ map[string]any) ([]llm.Message, error) {
	return []llm.Message{f.Message}, nil
}

// InputVariables implements MessageTemplate.
func (f *Fixed) InputVariables() []string { return nil }

// RoleTemplate produces one message of a fixed role from a content template.
// Content may be a plain template string or a block list (see
// normalizeContent). Immutable after construction.
type RoleTemplate struct {
	role        llm.Role
	customRole  string
	content     any
	format      TemplateFormat
	partialVars map[string]any
}

// roleAliases maps accepted role strings to canonical roles.
var roleAliases = map[string]llm.Role{
	"system":    llm.RoleSystem,
	"human":     llm.RoleHuman,
	"user":      llm.RoleHuman,
	"ai":        llm.RoleAI,
	"assistant": llm.RoleAI,
	"tool":      llm.RoleTool,
}

// rolePlaceholder is the tuple role string that introduces a placeholder.
const rolePlaceholder = "placeholder"

// NewRoleTemplate creates a RoleTemplate for a recognized role alias.
// Unrecognized role strings are rejected with *MalformedRoleError; arbitrary
// roles must go through NewCustomRoleTemplate so that a typo in a tuple can
// never silently become a custom-role message.
func NewRoleTemplate(role string, content any, opts ...TemplateOption) (*RoleTemplate, error) {
	canonical, ok := roleAliases[role]
	if !ok {
		return nil, &MalformedRoleError{Role: role}
	}
	t := &RoleTemplate{role: canonical, content: content, format: FormatFString}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// NewCustomRoleTemplate creates a RoleTemplate with an arbitrary role string,
// bypassing the alias table. This is the only way to build custom-role
// messages from templates.
func NewCustomRoleTemplate(role string, content any, opts ...TemplateOption) *RoleTemplate {
	t := &RoleTemplate{role: llm.RoleChat, customRole: role, content: content, format: FormatFString}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TemplateOption configures a RoleTemplate at construction.
type TemplateOption func(*RoleTemplate)

// WithFormat selects the placeholder syntax for the template's content.
func WithFormat(format TemplateFormat) TemplateOption {
	return func(t *RoleTemplate) { t.format = format }
}

// WithPartialVars freezes bindings into the template. They are removed from
// the template's required variables; caller-supplied values win on conflict.
func WithPartialVars(vars map[string]any) TemplateOption {
	return func(t *RoleTemplate) {
		merged := make(map[string]any, len(vars))
		for k, v := range vars {
			merged[k] = v
		}
		t.partialVars = merged
	}
}

// Role returns the canonical role the template produces.
func (t *RoleTemplate) Role() llm.Role { return t.role }

// FormatMessages implements MessageTemplate.
func (t *RoleTemplate) FormatMessages(ctx context.Context, vars map[string]any) ([]llm.Message, error) {
	merged := mergeVars(t.partialVars, vars)
	blocks, err := normalizeContent(ctx, t.content, t.format, merged)
	if err != nil {
		return nil, err
	}
	msg := llm.Message{Role: t.role, CustomRole: t.customRole, Content: blocks}
	return []llm.Message{msg}, nil
}

// InputVariables implements MessageTemplate.
func (t *RoleTemplate) InputVariables() []string {
	names := contentVariables(t.content, t.format)
	return lo.Without(names, lo.Keys(t.partialVars)...)
}

// withExtraPartials returns a copy of the template with additional frozen
// bindings. Existing partials win over the new ones.
func (t *RoleTemplate) withExtraPartials(vars map[string]any) *RoleTemplate {
	clone := *t
	clone.partialVars = mergeVars(vars, t.partialVars)
	return &clone
}

// Placeholder expands to a run of caller-supplied messages bound under
// VariableName at format time.
type Placeholder struct {
	VariableName string
	// Optional placeholders contribute zero messages when unbound instead
	// of failing.
	Optional bool
	// NMessages, when positive, keeps only the last NMessages items.
	NMessages int
}

// NewPlaceholder creates a required placeholder for the given variable.
func NewPlaceholder(variableName string) *Placeholder {
	return &Placeholder{VariableName: variableName}
}

// FormatMessages implements MessageTemplate.
func (p *Placeholder) FormatMessages(ctx context.Context, vars map[string]any) ([]llm.Message, error) {
	value, ok := vars[p.VariableName]
	if !ok || value == nil {
		if p.Optional {
			return nil, nil
		}
		return nil, &MissingVariableError{Name: p.VariableName}
	}

	items, err := messageListItems(value)
	if err != nil {
		return nil, fmt.Errorf("prompt: placeholder %q: %w", p.VariableName, err)
	}

	msgs := make([]llm.Message, 0, len(items))
	for _, item := range items {
		msg, err := CoerceMessage(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("prompt: placeholder %q: %w", p.VariableName, err)
		}
		msgs = append(msgs, msg)
	}

	if p.NMessages > 0 && len(msgs) > p.NMessages {
		msgs = msgs[len(msgs)-p.NMessages:]
	}
	return msgs, nil
}

// InputVariables implements MessageTemplate.
func (p *Placeholder) InputVariables() []string {
	if p.Optional {
		return nil
	}
	return []string{p.VariableName}
}

// Tuple is the (role, content) shorthand for building templates. Role must
// be a known alias or "placeholder"; content mirrors the shapes accepted by
// normalizeContent. For placeholders, content is the variable reference
// ("{name}") or a two-element list of name and an optional flag.
type Tuple struct {
	Role    string
	Content any
}

// Pair is a convenience constructor for Tuple.
func Pair(role string, content any) Tuple {
	return Tuple{Role: role, Content: content}
}

// specKind is a classification of a message specification. Every spec is
// classified into exactly one intent before any template node is built, so
// the asymmetry between tuple shorthand (strict role aliases) and explicit
// constructors (custom roles allowed) lives in a single decision point.
type specKind int

const (
	specKindTemplate specKind = iota // pass-through MessageTemplate
	specKindFixed                    // resolved llm.Message
	specKindBareString               // string, implicit human role template
	specKindRoleTuple                // (role, content) shorthand
	specKindPlaceholderTuple         // ("placeholder", ref) shorthand
)

type classifiedSpec struct {
	kind     specKind
	template MessageTemplate
	message  llm.Message
	text     string
	tuple    Tuple
}

// classifySpec maps an input specification to a construction intent.
func classifySpec(spec any) (classifiedSpec, error) {
	switch s := spec.(type) {
	case MessageTemplate:
		return classifiedSpec{kind: specKindTemplate, template: s}, nil
	case llm.Message:
		return classifiedSpec{kind: specKindFixed, message: s}, nil
	case string:
		return classifiedSpec{kind: specKindBareString, text: s}, nil
	case Tuple:
		if s.Role == rolePlaceholder {
			return classifiedSpec{kind: specKindPlaceholderTuple, tuple: s}, nil
		}
		return classifiedSpec{kind: specKindRoleTuple, tuple: s}, nil
	default:
		return classifiedSpec{}, fmt.Errorf("prompt: unsupported message specification %T", spec)
	}
}

// convertSpec builds a MessageTemplate from a specification.
func convertSpec(spec any, format TemplateFormat) (MessageTemplate, error) {
	classified, err := classifySpec(spec)
	if err != nil {
		return nil, err
	}

	switch classified.kind {
	case specKindTemplate:
		return classified.template, nil
	case specKindFixed:
		return &Fixed{Message: classified.message}, nil
	case specKindBareString:
		return NewRoleTemplate("human", classified.text, WithFormat(format))
	case specKindRoleTuple:
		return NewRoleTemplate(classified.tuple.Role, classified.tuple.Content, WithFormat(format))
	case specKindPlaceholderTuple:
		return convertPlaceholderTuple(classified.tuple, format)
	default:
		return nil, fmt.Errorf("prompt: unhandled specification kind %d", classified.kind)
	}
}

// convertPlaceholderTuple builds a Placeholder from the ("placeholder", ...)
// shorthand. The bare variable-reference form is optional; the explicit
// two-element form carries its own optional flag.
func convertPlaceholderTuple(tuple Tuple, format TemplateFormat) (*Placeholder, error) {
	switch content := tuple.Content.(type) {
	case string:
		name, err := placeholderVariableName(content, format)
		if err != nil {
			return nil, err
		}
		return &Placeholder{VariableName: name, Optional: true}, nil
	case []any:
		if len(content) != 2 {
			return nil, fmt.Errorf("prompt: placeholder tuple list must have 2 elements, got %d", len(content))
		}
		ref, ok := content[0].(string)
		if !ok {
			return nil, fmt.Errorf("prompt: placeholder tuple name must be a string, got %T", content[0])
		}
		optional, ok := content[1].(bool)
		if !ok {
			return nil, fmt.Errorf("prompt: placeholder tuple flag must be a bool, got %T", content[1])
		}
		name, err := placeholderVariableName(ref, format)
		if err != nil {
			return nil, err
		}
		return &Placeholder{VariableName: name, Optional: optional}, nil
	default:
		return nil, fmt.Errorf("prompt: placeholder tuple content must be a string or 2-element list, got %T", tuple.Content)
	}
}

// placeholderVariableName extracts the single variable name from a
// placeholder reference like "{history}" or "{{history}}".
func placeholderVariableName(ref string, format TemplateFormat) (string, error) {
	names := ExtractVariables(ref, format)
	bare := strings.TrimSpace(ref)
	if len(names) != 1 || !isVariableReference(bare, names[0]) {
		return "", fmt.Errorf("prompt: placeholder reference must be a single variable like \"{name}\", got %q", ref)
	}
	return names[0], nil
}

func isVariableReference(ref, name string) bool {
	return ref == "{"+name+"}" || ref == "{{"+name+"}}" || ref == "{{ "+name+" }}"
}

// contentVariables collects variable names referenced anywhere in a content
// template, in first-appearance order.
func contentVariables(content any, format TemplateFormat) []string {
	var names []string
	switch c := content.(type) {
	case string:
		names = ExtractVariables(c, format)
	case []any:
		for _, item := range c {
			switch b := item.(type) {
			case string:
				names = append(names, ExtractVariables(b, format)...)
			case map[string]any:
				names = append(names, mapVariables(b, format)...)
			case llm.ContentBlock:
				names = append(names, ExtractVariables(b.Text, format)...)
				if b.Image != nil {
					names = append(names, ExtractVariables(b.Image.URL, format)...)
				}
			}
		}
	}
	return lo.Uniq(names)
}

func mapVariables(block map[string]any, format TemplateFormat) []string {
	var names []string
	for _, value := range block {
		switch v := value.(type) {
		case string:
			names = append(names, ExtractVariables(v, format)...)
		case map[string]any:
			names = append(names, mapVariables(v, format)...)
		}
	}
	return names
}

// messageListItems coerces a placeholder binding into a list of items.
func messageListItems(value any) ([]any, error) {
	switch v := value.(type) {
	case []any:
		return v, nil
	case []llm.Message:
		items := make([]any, len(v))
		for i, m := range v {
			items[i] = m
		}
		return items, nil
	default:
		return nil, fmt.Errorf("value must be a message list, got %T", value)
	}
}

// CoerceMessage converts a message-like item into a resolved message. It
// accepts an llm.Message, a bare string (implicit human message), or a
// (role, content) Tuple. Tuple content may be multi-part; it is canonicalized
// in literal mode since placeholder items are already resolved.
func CoerceMessage(ctx context.Context, item any) (llm.Message, error) {
	switch m := item.(type) {
	case llm.Message:
		return m, nil
	case string:
		return llm.NewHumanMessage(m), nil
	case Tuple:
		canonical, ok := roleAliases[m.Role]
		if !ok {
			return llm.Message{}, &MalformedRoleError{Role: m.Role}
		}
		blocks, err := normalizeContent(ctx, m.Content, FormatFString, nil)
		if err != nil {
			return llm.Message{}, err
		}
		return llm.Message{Role: canonical, Content: blocks}, nil
	default:
		return llm.Message{}, fmt.Errorf("cannot convert %T to a message", item)
	}
}

// mergeVars merges variable maps; later maps win on conflict.
func mergeVars(maps ...map[string]any) map[string]any {
	merged := make(map[string]any)
	for _, m := range maps {
		for k, v := range m {
			merged[k] = v
		}
	}
	return merged
}
