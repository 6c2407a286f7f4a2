package prompt

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// TemplateFormat selects the placeholder syntax used by template strings.
type TemplateFormat string

const (
	// FormatFString recognizes {name} placeholders; literal braces are
	// escaped as {{ and }}.
	FormatFString TemplateFormat = "f-string"
	// FormatMustache recognizes {{name}} placeholders; single braces are
	// literal.
	FormatMustache TemplateFormat = "mustache"
)

// Resolve substitutes variable placeholders in template according to the
// given format. It is a pure function: templates and vars are never mutated.
// A referenced name absent from vars yields a *MissingVariableError.
func Resolve(template string, format TemplateFormat, vars map[string]any) (string, error) {
	switch format {
	case FormatMustache:
		return resolveMustache(template, vars)
	case FormatFString, "":
		return resolveFString(template, vars)
	default:
		return "", fmt.Errorf("prompt: unknown template format %q", format)
	}
}

// ExtractVariables returns the distinct variable names referenced by
// template, in order of first appearance.
func ExtractVariables(template string, format TemplateFormat) []string {
	var names []string
	walkPlaceholders(template, format, func(name string) {
		names = append(names, name)
	})
	return lo.Uniq(names)
}

func resolveFString(template string, vars map[string]any) (string, error) {
	var sb strings.Builder
	sb.Grow(len(template))

	for i := 0; i < len(template); {
		c := template[i]
		switch {
		case c == '{' && i+1 < len(template) && template[i+1] == '{':
			sb.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(template) && template[i+1] == '}':
			sb.WriteByte('}')
			i += 2
		case c == '{':
			end := strings.IndexByte(template[i:], '}')
			if end < 0 {
				// Unterminated brace: keep it literal.
				sb.WriteByte(c)
				i++
				continue
			}
			name := template[i+1 : i+end]
			value, ok := vars[name]
			if !ok {
				return "", &MissingVariableError{Name: name}
			}
			sb.WriteString(stringify(value))
			i += end + 1
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), nil
}

func resolveMustache(template string, vars map[string]any) (string, error) {
	var sb strings.Builder
	sb.Grow(len(template))

	for i := 0; i < len(template); {
		if template[i] == '{' && i+1 < len(template) && template[i+1] == '{' {
			end := strings.Index(template[i:], "}}")
			if end < 0 {
				sb.WriteString(template[i:])
				break
			}
			name := strings.TrimSpace(template[i+2 : i+end])
			value, ok := vars[name]
			if !ok {
				return "", &MissingVariableError{Name: name}
			}
			sb.WriteString(stringify(value))
			i += end + 2
			continue
		}
		sb.WriteByte(template[i])
		i++
	}
	return sb.String(), nil
}

// walkPlaceholders invokes fn for every placeholder name in template, in
// order, using the same scanning rules as Resolve.
func walkPlaceholders(template string, format TemplateFormat, fn func(name string)) {
	switch format {
	case FormatMustache:
		for i := 0; i < len(template); {
			if template[i] == '{' && i+1 < len(template) && template[i+1] == '{' {
				end := strings.Index(template[i:], "}}")
				if end < 0 {
					return
				}
				fn(strings.TrimSpace(template[i+2 : i+end]))
				i += end + 2
				continue
			}
			i++
		}
	default:
		for i := 0; i < len(template); {
			switch {
			case template[i] == '{' && i+1 < len(template) && template[i+1] == '{':
				i += 2
			case template[i] == '}' && i+1 < len(template) && template[i+1] == '}':
				i += 2
			case template[i] == '{':
				end := strings.IndexByte(template[i:], '}')
				if end < 0 {
					return
				}
				fn(template[i+1 : i+end])
				i += end + 1
			default:
				i++
			}
		}
	}
}

func stringify(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}
