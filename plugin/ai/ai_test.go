package ai

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/interestgraph/internal/profile"
)

// TestNewEmbeddingService tests service creation.
func TestNewEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *EmbeddingConfig
		expectError bool
	}{
		{
			name:        "Ollama config",
			cfg:         &EmbeddingConfig{Provider: "ollama", Model: "llama3.1:latest", BaseURL: "http://localhost:11434"},
			expectError: false,
		},
		{
			name:        "OpenAI config",
			cfg:         &EmbeddingConfig{Provider: "openai", Model: "text-embedding-3-small", Dimensions: 1536, APIKey: "test-key"},
			expectError: false,
		},
		{
			name:        "Unsupported provider",
			cfg:         &EmbeddingConfig{Provider: "unsupported"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewEmbeddingService(tt.cfg)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cfg.Dimensions, svc.(*embeddingService).dimensions)
		})
	}
}

func TestEmbeddingService_Embed(t *testing.T) {
	fake, srv := newFakeOpenAI(t)

	svc, err := NewEmbeddingService(&EmbeddingConfig{Provider: ProviderOllama, Model: "llama3.1:latest", BaseURL: srv.URL})
	require.NoError(t, err)

	vec, err := svc.Embed(context.Background(), "Cooking")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, []string{"/v1/embeddings"}, fake.requestedPaths())

	vectors, err := svc.(*embeddingService).embedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vectors, 2)

	empty, err := svc.(*embeddingService).embedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEmbeddingService_EmptyVector(t *testing.T) {
	fake, srv := newFakeOpenAI(t)
	fake.set(func(f *fakeOpenAI) { f.embedding = []float32{} })

	svc, err := NewEmbeddingService(&EmbeddingConfig{Provider: ProviderOllama, Model: "m", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	_, err = svc.Embed(context.Background(), "Cooking")
	assert.Error(t, err)
}

func TestEmbeddingService_ServerError(t *testing.T) {
	fake, srv := newFakeOpenAI(t)
	fake.set(func(f *fakeOpenAI) { f.status = http.StatusInternalServerError })

	svc, err := NewEmbeddingService(&EmbeddingConfig{Provider: ProviderOllama, Model: "m", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = svc.Embed(context.Background(), "Cooking")
	assert.Error(t, err)
}

func TestLLMService_Chat(t *testing.T) {
	fake, srv := newFakeOpenAI(t)
	fake.set(func(f *fakeOpenAI) { f.reply = `{"category":"Home Cooking"}` })

	svc, err := NewLLMService(&LLMConfig{Provider: ProviderOllama, Model: "llama3.1:latest", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := svc.Chat(context.Background(), FormatMessages("be terse", "classify", nil), WithJSONResponse())
	require.NoError(t, err)
	assert.Equal(t, `{"category":"Home Cooking"}`, out)

	reqs := fake.chatRequests()
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, "llama3.1:latest", req["model"])
	format, ok := req["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])

	messages, ok := req["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])
}

func TestLLMService_ChatWithoutJSON(t *testing.T) {
	fake, srv := newFakeOpenAI(t)

	svc, err := NewLLMService(&LLMConfig{Provider: ProviderOllama, Model: "m", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := svc.Chat(context.Background(), []Message{UserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "YES", out)
	_, hasFormat := fake.chatRequests()[0]["response_format"]
	assert.False(t, hasFormat)
}

func TestNewLLMService_Unsupported(t *testing.T) {
	_, err := NewLLMService(&LLMConfig{Provider: "deepseek"})
	assert.Error(t, err)
}

func TestOllamaBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		expected string
	}{
		{"empty", "", "http://localhost:11434/v1"},
		{"trailing slash", "http://gpu:11434/", "http://gpu:11434/v1"},
		{"already v1", "http://gpu:11434/v1", "http://gpu:11434/v1"},
		{"legacy generate endpoint", "http://localhost:11434/api/generate", "http://localhost:11434/v1"},
		{"legacy embeddings endpoint", "http://gpu:11434/api/embeddings/", "http://gpu:11434/v1"},
		{"chat endpoint", "http://gpu:11434/api/chat", "http://gpu:11434/v1"},
		{"path prefix kept", "http://proxy/ollama/api/generate", "http://proxy/ollama/v1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ollamaBaseURL(tt.base))
		})
	}
}

func TestNewConfigFromProfile(t *testing.T) {
	prof := &profile.Profile{
		AIProvider:       "openai",
		AIBaseURL:        "https://api.openai.com/v1",
		AIAPIKey:         "sk-test",
		AIEmbeddingModel: "text-embedding-3-small",
		AIChatModel:      "gpt-4o-mini",
	}

	cfg := NewConfigFromProfile(prof)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, "sk-test", cfg.Embedding.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "https://api.openai.com/v1", cfg.LLM.BaseURL)
	require.NoError(t, cfg.Validate())

	cfg.LLM.APIKey = ""
	assert.Error(t, cfg.Validate())
}

func TestConfigValidate_Ollama(t *testing.T) {
	cfg := NewConfigFromProfile(&profile.Profile{
		AIProvider:       "ollama",
		AIEmbeddingModel: "llama3.1:latest",
		AIChatModel:      "llama3.1:latest",
	})
	assert.NoError(t, cfg.Validate())

	cfg.Embedding.Model = ""
	assert.Error(t, cfg.Validate())
}
