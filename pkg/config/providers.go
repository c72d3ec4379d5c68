package config

import (
	"fmt"
	"os"
	"strings"
)

// ProviderPattern maps a model-name prefix to a provider.
type ProviderPattern struct {
	Prefix   string
	Provider string
}

// ProviderPatterns infers a provider from a model name.
//
//nolint:gochecknoglobals // static inference table
var ProviderPatterns = []ProviderPattern{
	{"claude", ProviderAnthropic},
	{"gpt", ProviderOpenAI},
	{"o1", ProviderOpenAI},
	{"o3", ProviderOpenAI},
	{"o4", ProviderOpenAI},
	{"gemini", ProviderGoogle},
	{"llama", ProviderOllama},
	{"mistral", ProviderOllama},
	{"qwen", ProviderOllama},
	{"phi", ProviderOllama},
	{"gemma", ProviderOllama},
	{"deepseek", ProviderOllama},
	{"tinyllama", ProviderOllama},
}

// ModelProvider returns the provider for model, honouring an explicit
// "provider/model" prefix before falling back to ProviderPatterns.
func ModelProvider(model string) (string, error) {
	if provider, _, ok := strings.Cut(model, "/"); ok {
		switch provider {
		case ProviderOllama, ProviderAnthropic, ProviderOpenAI, ProviderGoogle:
			return provider, nil
		}
	}
	lower := strings.ToLower(model)
	for i := range ProviderPatterns {
		if strings.HasPrefix(lower, ProviderPatterns[i].Prefix) {
			return ProviderPatterns[i].Provider, nil
		}
	}
	return "", fmt.Errorf("unknown model %q: no provider prefix or pattern match", model)
}

// ModelName strips an explicit "provider/" prefix.
func ModelName(model string) string {
	if provider, name, ok := strings.Cut(model, "/"); ok {
		switch provider {
		case ProviderOllama, ProviderAnthropic, ProviderOpenAI, ProviderGoogle:
			return name
		}
	}
	return model
}

// APIKeyEnv returns the environment variable (and secret name) holding the
// provider's API key. Ollama needs none.
func APIKeyEnv(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGoogle:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// APIKey resolves the credential for provider. For Ollama this is the host
// URL (config, then OLLAMA_HOST, then the default). For hosted providers the
// decrypted secrets take precedence over the environment.
func (c *Config) APIKey(provider string, secrets Secrets) (string, error) {
	if provider == ProviderOllama {
		if c.OllamaHost != "" {
			return c.OllamaHost, nil
		}
		if host := os.Getenv("OLLAMA_HOST"); host != "" {
			if !strings.Contains(host, "://") {
				host = "http://" + host
			}
			return host, nil
		}
		return DefaultOllamaHost, nil
	}

	name := APIKeyEnv(provider)
	if name == "" {
		return "", fmt.Errorf("unknown provider %q", provider)
	}
	return secrets.Get(name)
}
