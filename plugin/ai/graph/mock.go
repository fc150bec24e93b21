package graph

import (
	"context"
	"errors"
	"sync"

	"github.com/hrygo/interestgraph/plugin/ai/reasoning"
	"github.com/hrygo/interestgraph/store"
)

// MockEmbedder returns fixed vectors per label and records every call.
type MockEmbedder struct {
	mu      sync.Mutex
	Vectors map[string][]float32
	Calls   map[string]int
}

// NewMockEmbedder creates a MockEmbedder. Labels without a vector fail.
func NewMockEmbedder(vectors map[string][]float32) *MockEmbedder {
	return &MockEmbedder{Vectors: vectors, Calls: make(map[string]int)}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[text]++
	vec, ok := m.Vectors[text]
	if !ok {
		return nil, errors.New("embedding unavailable")
	}
	return vec, nil
}

// MockAdjudicator answers continuation checks from a fixed table keyed by
// store.ReasoningKey. Pairs missing from the table fail.
type MockAdjudicator struct {
	mu      sync.Mutex
	Answers map[string]bool
	Calls   []string
}

// NewMockAdjudicator creates a MockAdjudicator.
func NewMockAdjudicator(answers map[string]bool) *MockAdjudicator {
	return &MockAdjudicator{Answers: answers}
}

func (m *MockAdjudicator) IsContinuation(_ context.Context, parent, child string) reasoning.Decision {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := store.ReasoningKey(parent, child)
	m.Calls = append(m.Calls, key)
	v, ok := m.Answers[key]
	if !ok {
		return reasoning.Decision{Fallback: true, Err: errors.New("model unavailable")}
	}
	return reasoning.Decision{Value: v}
}
