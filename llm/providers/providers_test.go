package providers

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/threadline/threadline/llm"
)

func TestNewClientUnknownProvider(t *testing.T) {
	_, err := NewClient(&llm.ClientKey{Provider: "carrier-pigeon"}, 1, zerolog.Nop())
	if err == nil {
		t.Fatal("expected error for unknown provider, got nil")
	}
}

func TestConverterLookup(t *testing.T) {
	for _, provider := range []string{llm.ProviderAnthropic, llm.ProviderOllama, llm.ProviderOpenAI} {
		conv, err := Converter(provider)
		if err != nil {
			t.Fatalf("Converter(%q) failed: %v", provider, err)
		}
		if conv.ProviderName() != provider {
			t.Errorf("ProviderName = %q, want %q", conv.ProviderName(), provider)
		}
	}
	if _, err := Converter("carrier-pigeon"); err == nil {
		t.Error("expected error for unknown provider, got nil")
	}
}

func TestRetryWrappingAppliedForOllama(t *testing.T) {
	key := &llm.ClientKey{Provider: llm.ProviderOllama, Host: "http://localhost:11434", Model: "llama3.2:3b"}
	client, err := NewClient(key, 3, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if _, ok := client.(*llm.RetryClient); !ok {
		t.Errorf("client type %T, want *llm.RetryClient", client)
	}
}
