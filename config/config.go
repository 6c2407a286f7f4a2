// Package config loads layered YAML configuration: built-in defaults, then
// the config file, with file values taking precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/threadline/threadline/llm"
)

// AnthropicConfig represents configuration for the Anthropic provider.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key,omitempty"`
	Model  string `yaml:"model,omitempty"`
}

// OllamaConfig represents configuration for the Ollama provider.
type OllamaConfig struct {
	Host  string `yaml:"host,omitempty"`
	Model string `yaml:"model,omitempty"`
}

// OpenAIConfig represents configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey       string `yaml:"api_key,omitempty"`
	BaseURL      string `yaml:"base_url,omitempty"`
	Model        string `yaml:"model,omitempty"`
	Organization string `yaml:"organization,omitempty"`
}

// StoreConfig represents configuration for the template store database.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"`
}

// RetryConfig represents configuration for request retries.
type RetryConfig struct {
	MaxAttempts uint64 `yaml:"max_attempts,omitempty"`
}

// Config represents the full application configuration.
type Config struct {
	// LLM provider configurations
	LLMProviders []string        `yaml:"llm_providers,omitempty"`
	Anthropic    AnthropicConfig `yaml:"anthropic,omitempty"`
	Ollama       OllamaConfig    `yaml:"ollama,omitempty"`
	OpenAI       OpenAIConfig    `yaml:"openai,omitempty"`

	// Prompt template directory for file-based templates
	PromptsDir string `yaml:"prompts_dir,omitempty"`

	Store StoreConfig `yaml:"store,omitempty"`
	Retry RetryConfig `yaml:"retry,omitempty"`

	LogLevel  string `yaml:"log_level,omitempty"`
	MaxTokens int64  `yaml:"max_tokens,omitempty"`
}

// GetConfigPath returns the default config file path.
// Can be overridden via THREADLINE_CONFIG_PATH environment variable.
func GetConfigPath() string {
	if envPath := os.Getenv("THREADLINE_CONFIG_PATH"); envPath != "" {
		return expandPath(envPath)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./.threadline/config.yaml"
	}
	return filepath.Join(homeDir, ".threadline", "config.yaml")
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

// Defaults returns the built-in default configuration.
func Defaults() Config {
	return Config{
		LLMProviders: []string{llm.ProviderAnthropic, llm.ProviderOllama, llm.ProviderOpenAI},
		Ollama: OllamaConfig{
			Host:  "http://localhost:11434",
			Model: "llama3.2:3b",
		},
		PromptsDir: "prompts",
		Store: StoreConfig{
			Path: "~/.threadline/templates.db",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
		},
		LogLevel:  "info",
		MaxTokens: 1024,
	}
}

// Load loads configuration from the given path, merged on top of defaults.
// A missing file is not an error; defaults are returned.
func Load(path string) (*Config, error) {
	defaults := Defaults()

	expandedPath := expandPath(path)
	if _, err := os.Stat(expandedPath); err != nil {
		return &defaults, nil
	}

	configYAML, err := os.ReadFile(expandedPath) //#nosec 304 -- intentional file read for config
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", expandedPath, err)
	}

	var fileConfig Config
	if err := yaml.Unmarshal(configYAML, &fileConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := mergo.Merge(&defaults, fileConfig, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}

	return &defaults, nil
}

// Save saves the configuration to the specified path.
func Save(cfg *Config, path string) error {
	expandedPath := expandPath(path)

	dir := filepath.Dir(expandedPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(expandedPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ProviderConfig converts the configuration into the shape the provider
// registry consumes.
func (c *Config) ProviderConfig() *llm.ProviderConfig {
	return &llm.ProviderConfig{
		AnthropicAPIKey: c.Anthropic.APIKey,
		OllamaHost:      c.Ollama.Host,
		OllamaModel:     c.Ollama.Model,
		OpenAIAPIKey:    c.OpenAI.APIKey,
		OpenAIBaseURL:   c.OpenAI.BaseURL,
		OpenAIModel:     c.OpenAI.Model,
		OpenAIOrg:       c.OpenAI.Organization,
	}
}

// StorePath returns the expanded template store path.
func (c *Config) StorePath() string {
	return expandPath(c.Store.Path)
}
