package prompt

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// promptFile is the on-disk YAML shape of a chat template.
type promptFile struct {
	Format          string            `yaml:"format,omitempty"`
	PartialVars     map[string]any    `yaml:"partial_variables,omitempty"`
	Messages        []promptFileEntry `yaml:"messages"`
	StrictVariables bool              `yaml:"strict_variables,omitempty"`
}

// promptFileEntry is one message specification. Role "placeholder" entries
// use Name/Optional/NMessages; every other role carries a content template.
type promptFileEntry struct {
	Role      string `yaml:"role"`
	Custom    bool   `yaml:"custom,omitempty"` // explicit custom-role construction
	Content   any    `yaml:"content,omitempty"`
	Name      string `yaml:"name,omitempty"`
	Optional  bool   `yaml:"optional,omitempty"`
	NMessages int    `yaml:"n_messages,omitempty"`
}

// LoadFile reads a chat template definition from a YAML file.
func LoadFile(path string) (*ChatTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("prompt: read template file: %w", err)
	}
	return ParseFile(data)
}

// ParseFile parses a YAML chat template definition.
func ParseFile(data []byte) (*ChatTemplate, error) {
	var file promptFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("prompt: parse template file: %w", err)
	}
	if len(file.Messages) == 0 {
		return nil, fmt.Errorf("prompt: template file has no messages")
	}

	var opts []ChatOption
	if file.Format != "" {
		opts = append(opts, WithTemplateFormat(TemplateFormat(file.Format)))
	}
	if len(file.PartialVars) > 0 {
		opts = append(opts, WithPartialVariables(file.PartialVars))
	}
	if file.StrictVariables {
		opts = append(opts, WithStrictValidation())
	}

	specs := make([]any, 0, len(file.Messages))
	for i, entry := range file.Messages {
		spec, err := entry.toSpec()
		if err != nil {
			return nil, fmt.Errorf("prompt: template file message %d: %w", i, err)
		}
		specs = append(specs, spec)
	}
	return FromMessages(specs, opts...)
}

func (e promptFileEntry) toSpec() (any, error) {
	if e.Role == "" {
		return nil, fmt.Errorf("missing role")
	}
	if e.Role == rolePlaceholder {
		if e.Name == "" {
			return nil, fmt.Errorf("placeholder needs a name")
		}
		return &Placeholder{VariableName: e.Name, Optional: e.Optional, NMessages: e.NMessages}, nil
	}
	if e.Content == nil {
		return nil, fmt.Errorf("role %q needs content", e.Role)
	}
	if e.Custom {
		return NewCustomRoleTemplate(e.Role, normalizeYAMLContent(e.Content)), nil
	}
	return Pair(e.Role, normalizeYAMLContent(e.Content)), nil
}

// normalizeYAMLContent rewrites yaml.v3's decoded shapes into the ones the
// normalizer accepts: block lists become []any of map[string]any.
func normalizeYAMLContent(content any) any {
	switch c := content.(type) {
	case []any:
		out := make([]any, len(c))
		for i, item := range c {
			out[i] = normalizeYAMLContent(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(c))
		for k, v := range c {
			out[k] = normalizeYAMLContent(v)
		}
		return out
	default:
		return content
	}
}
