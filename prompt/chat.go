package prompt

import (
	"context"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/threadline/threadline/llm"
)

// ChatTemplate is an ordered sequence of message template nodes plus derived
// variable sets. It is built once from a list of specifications; Append and
// Extend mutate the sequence in place, Partial returns a new instance.
//
// A ChatTemplate is meant to be used by one logical call at a time:
// concurrent Append on the same instance is not guarded.
type ChatTemplate struct {
	templates    []MessageTemplate
	format       TemplateFormat
	partialVars  map[string]any
	strict       bool
	inputVars    []string
	optionalVars []string
}

// ChatOption configures a ChatTemplate at construction.
type ChatOption func(*ChatTemplate)

// WithTemplateFormat selects the placeholder syntax for all template strings.
func WithTemplateFormat(format TemplateFormat) ChatOption {
	return func(c *ChatTemplate) { c.format = format }
}

// WithPartialVariables freezes bindings into the template. Caller-supplied
// values win on conflict.
func WithPartialVariables(vars map[string]any) ChatOption {
	return func(c *ChatTemplate) { c.partialVars = mergeVars(vars) }
}

// WithStrictValidation makes formatting reject variable sets that do not
// exactly cover the declared required and optional names.
func WithStrictValidation() ChatOption {
	return func(c *ChatTemplate) { c.strict = true }
}

// FromMessages builds a ChatTemplate from an ordered list of specifications.
// Each spec is a string (implicit human template), a (role, content) Tuple,
// a resolved llm.Message, or an existing MessageTemplate.
func FromMessages(specs []any, opts ...ChatOption) (*ChatTemplate, error) {
	c := &ChatTemplate{
		format:      FormatFString,
		partialVars: map[string]any{},
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, spec := range specs {
		t, err := convertSpec(spec, c.format)
		if err != nil {
			return nil, err
		}
		c.templates = append(c.templates, t)
	}
	c.inferVariables()
	return c, nil
}

// FromTemplate builds a single-message human template, the common case for
// simple prompts.
func FromTemplate(template string, opts ...ChatOption) (*ChatTemplate, error) {
	return FromMessages([]any{template}, opts...)
}

// InputVariables returns the sorted required variable names.
func (c *ChatTemplate) InputVariables() []string {
	out := make([]string, len(c.inputVars))
	copy(out, c.inputVars)
	return out
}

// OptionalVariables returns the sorted optional variable names (unbound
// optional placeholders).
func (c *ChatTemplate) OptionalVariables() []string {
	out := make([]string, len(c.optionalVars))
	copy(out, c.optionalVars)
	return out
}

// Len returns the number of template nodes.
func (c *ChatTemplate) Len() int { return len(c.templates) }

// At returns the node at index i as a read-only view: the underlying message
// for Fixed entries, the template node itself otherwise. Negative indices
// count from the end.
func (c *ChatTemplate) At(i int) any {
	if i < 0 {
		i += len(c.templates)
	}
	t := c.templates[i]
	if fixed, ok := t.(*Fixed); ok {
		return fixed.Message
	}
	return t
}

// Slice returns a new ChatTemplate over the nodes in [i, j), carrying the
// same format and partial bindings.
func (c *ChatTemplate) Slice(i, j int) *ChatTemplate {
	sub := &ChatTemplate{
		format:      c.format,
		partialVars: mergeVars(c.partialVars),
		strict:      c.strict,
		templates:   append([]MessageTemplate(nil), c.templates[i:j]...),
	}
	sub.inferVariables()
	return sub
}

// Append converts a specification and appends it. Variable sets are
// re-derived.
func (c *ChatTemplate) Append(spec any) error {
	t, err := convertSpec(spec, c.format)
	if err != nil {
		return err
	}
	c.templates = append(c.templates, t)
	c.inferVariables()
	return nil
}

// Extend converts and appends multiple specifications. On error the template
// is left unchanged.
func (c *ChatTemplate) Extend(specs []any) error {
	converted := make([]MessageTemplate, 0, len(specs))
	for _, spec := range specs {
		t, err := convertSpec(spec, c.format)
		if err != nil {
			return err
		}
		converted = append(converted, t)
	}
	c.templates = append(c.templates, converted...)
	c.inferVariables()
	return nil
}

// Partial returns a new template with additional bindings frozen in. The
// receiver is not mutated.
func (c *ChatTemplate) Partial(bindings map[string]any) *ChatTemplate {
	next := &ChatTemplate{
		format:      c.format,
		partialVars: mergeVars(c.partialVars, bindings),
		strict:      c.strict,
		templates:   append([]MessageTemplate(nil), c.templates...),
	}
	next.inferVariables()
	return next
}

// FormatMessages resolves the whole template against vars and returns the
// concatenated messages. Formatting is all-or-nothing: the first error
// aborts and no partial result is returned.
func (c *ChatTemplate) FormatMessages(vars map[string]any) ([]llm.Message, error) {
	return c.FormatMessagesContext(context.Background(), vars)
}

// FormatMessagesContext is FormatMessages with a context observed at
// blocking sub-steps (image file reads). Results are identical to the
// synchronous path; message order is deterministic.
func (c *ChatTemplate) FormatMessagesContext(ctx context.Context, vars map[string]any) ([]llm.Message, error) {
	merged := mergeVars(c.partialVars, vars)
	if err := c.validateVars(merged); err != nil {
		return nil, err
	}

	var msgs []llm.Message
	for _, t := range c.templates {
		formatted, err := t.FormatMessages(ctx, merged)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, formatted...)
	}
	return msgs, nil
}

// FormatMessageList formats the template with a bare message list instead of
// a variable map. The list is bound to the template's sole placeholder; with
// zero or multiple placeholders the input shape is ambiguous and an
// *InputShapeError is returned.
func (c *ChatTemplate) FormatMessageList(ctx context.Context, msgs []any) ([]llm.Message, error) {
	placeholders := lo.FilterMap(c.templates, func(t MessageTemplate, _ int) (*Placeholder, bool) {
		p, ok := t.(*Placeholder)
		return p, ok
	})
	if len(placeholders) != 1 {
		return nil, &InputShapeError{Placeholders: len(placeholders)}
	}
	return c.FormatMessagesContext(ctx, map[string]any{placeholders[0].VariableName: msgs})
}

// Format renders the resolved conversation as a single string of
// "Label: content" lines.
func (c *ChatTemplate) Format(vars map[string]any) (string, error) {
	msgs, err := c.FormatMessages(vars)
	if err != nil {
		return "", err
	}
	return llm.GetBufferString(msgs), nil
}

// validateVars checks the supplied variable set before any node is
// formatted. Required names must always be present; strict mode additionally
// rejects names outside the declared required and optional sets.
func (c *ChatTemplate) validateVars(vars map[string]any) error {
	for _, name := range c.inputVars {
		if _, ok := vars[name]; !ok {
			return &MissingVariableError{Name: name}
		}
	}
	if !c.strict {
		return nil
	}
	declared := make(map[string]bool, len(c.inputVars)+len(c.optionalVars)+len(c.partialVars))
	for _, name := range c.inputVars {
		declared[name] = true
	}
	for _, name := range c.optionalVars {
		declared[name] = true
	}
	for name := range c.partialVars {
		declared[name] = true
	}
	for name := range vars {
		if !declared[name] {
			return fmt.Errorf("prompt: unexpected variable %q", name)
		}
	}
	return nil
}

// inferVariables recomputes the required and optional variable sets. It runs
// after every structural mutation so the invariant required ∩ optional = ∅
// holds at all times.
func (c *ChatTemplate) inferVariables() {
	var required []string
	var optional []string
	for _, t := range c.templates {
		if p, ok := t.(*Placeholder); ok && p.Optional {
			optional = append(optional, p.VariableName)
			continue
		}
		required = append(required, t.InputVariables()...)
	}
	required = lo.Without(lo.Uniq(required), lo.Keys(c.partialVars)...)
	optional = lo.Without(lo.Uniq(optional), required...)
	optional = lo.Without(optional, lo.Keys(c.partialVars)...)
	sort.Strings(required)
	sort.Strings(optional)
	c.inputVars = required
	c.optionalVars = optional
}
