package ai

import (
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// newClientConfig builds the go-openai client config of a provider.
func newClientConfig(provider, apiKey, baseURL string) (openai.ClientConfig, error) {
	switch provider {
	case ProviderOllama:
		// Ollama ignores the token but the client requires one.
		if apiKey == "" {
			apiKey = "ollama"
		}
		clientConfig := openai.DefaultConfig(apiKey)
		clientConfig.BaseURL = ollamaBaseURL(baseURL)
		return clientConfig, nil

	case ProviderOpenAI:
		clientConfig := openai.DefaultConfig(apiKey)
		if baseURL != "" {
			clientConfig.BaseURL = baseURL
		}
		return clientConfig, nil

	default:
		return openai.ClientConfig{}, fmt.Errorf("unsupported provider: %s", provider)
	}
}
