package ai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// fakeOpenAI is an OpenAI-compatible server recording the requests it gets.
type fakeOpenAI struct {
	mu       sync.Mutex
	paths    []string
	chatReqs []map[string]any

	embedding []float32
	reply     string
	status    int
}

func newFakeOpenAI(t *testing.T) (*fakeOpenAI, *httptest.Server) {
	t.Helper()
	f := &fakeOpenAI{embedding: []float32{0.1, 0.2, 0.3}, reply: "YES", status: http.StatusOK}
	srv := httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeOpenAI) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.paths = append(f.paths, r.URL.Path)
	status, embedding, reply := f.status, f.embedding, f.reply
	f.mu.Unlock()

	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	if status != http.StatusOK {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/v1/embeddings":
		inputs, _ := body["input"].([]any)
		data := make([]map[string]any, len(inputs))
		for i := range inputs {
			data[i] = map[string]any{"object": "embedding", "index": i, "embedding": embedding}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": body["model"]})
	case "/v1/chat/completions":
		f.mu.Lock()
		f.chatReqs = append(f.chatReqs, body)
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  body["model"],
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			}},
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeOpenAI) set(fn func(f *fakeOpenAI)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeOpenAI) requestedPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

func (f *fakeOpenAI) chatRequests() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.chatReqs...)
}
