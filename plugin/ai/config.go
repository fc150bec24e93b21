package ai

import (
	"errors"
	"strings"

	"github.com/hrygo/interestgraph/internal/profile"
)

// Supported providers. Ollama is reached through its OpenAI-compatible API.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Config represents AI configuration.
type Config struct {
	Embedding EmbeddingConfig
	LLM       LLMConfig
}

// EmbeddingConfig represents vector embedding configuration.
type EmbeddingConfig struct {
	Provider   string // ollama, openai
	Model      string // llama3.1:latest
	Dimensions int    // 0 = model default
	APIKey     string
	BaseURL    string
}

// LLMConfig represents LLM configuration.
type LLMConfig struct {
	Provider    string // ollama, openai
	Model       string // llama3.1:latest
	APIKey      string
	BaseURL     string
	MaxTokens   int     // 0 = provider default
	Temperature float32 // default: 0
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Provider: p.AIProvider,
			Model:    p.AIEmbeddingModel,
			APIKey:   p.AIAPIKey,
			BaseURL:  p.AIBaseURL,
		},
		LLM: LLMConfig{
			Provider: p.AIProvider,
			Model:    p.AIChatModel,
			APIKey:   p.AIAPIKey,
			BaseURL:  p.AIBaseURL,
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Embedding.Provider == "" {
		return errors.New("embedding provider is required")
	}
	if c.Embedding.Model == "" {
		return errors.New("embedding model is required")
	}
	if c.Embedding.Provider != ProviderOllama && c.Embedding.APIKey == "" {
		return errors.New("embedding API key is required")
	}

	if c.LLM.Provider == "" {
		return errors.New("LLM provider is required")
	}
	if c.LLM.Model == "" {
		return errors.New("LLM model is required")
	}
	if c.LLM.Provider != ProviderOllama && c.LLM.APIKey == "" {
		return errors.New("LLM API key is required")
	}

	return nil
}

// ollamaNativePaths are native API endpoints that legacy configurations
// set as the server URL.
var ollamaNativePaths = []string{"/api/generate", "/api/embeddings", "/api/embed", "/api/chat"}

// ollamaBaseURL returns the OpenAI-compatible endpoint of an Ollama server.
// A native endpoint such as http://localhost:11434/api/generate is reduced
// to its server root first.
func ollamaBaseURL(base string) string {
	base = strings.TrimRight(base, "/")
	for _, path := range ollamaNativePaths {
		if strings.HasSuffix(base, path) {
			base = strings.TrimSuffix(base, path)
			break
		}
	}
	if base == "" {
		base = "http://localhost:11434"
	}
	if strings.HasSuffix(base, "/v1") {
		return base
	}
	return base + "/v1"
}
