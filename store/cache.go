package store

import (
	"context"

	"github.com/pkg/errors"
)

// CacheDriver persists the embedding and reasoning caches.
type CacheDriver interface {
	LoadEmbeddings(ctx context.Context) (map[string][]float32, error)
	SaveEmbeddings(ctx context.Context, vectors map[string][]float32) error

	LoadDecisions(ctx context.Context) (map[string]bool, error)
	SaveDecisions(ctx context.Context, decisions map[string]bool) error

	Close() error
}

// EmbeddingCache maps a topic label to its embedding vector.
// Entries are only ever added.
type EmbeddingCache struct {
	vectors map[string][]float32
	added   int
}

// NewEmbeddingCache creates a cache seeded with vectors. Empty vectors are dropped.
func NewEmbeddingCache(vectors map[string][]float32) *EmbeddingCache {
	c := &EmbeddingCache{vectors: make(map[string][]float32, len(vectors))}
	for label, vec := range vectors {
		if len(vec) > 0 {
			c.vectors[label] = vec
		}
	}
	return c
}

// Get returns the vector of a label.
func (c *EmbeddingCache) Get(label string) ([]float32, bool) {
	vec, ok := c.vectors[label]
	return vec, ok
}

// Put stores the vector of a label unless one is already cached.
func (c *EmbeddingCache) Put(label string, vec []float32) {
	if len(vec) == 0 {
		return
	}
	if _, ok := c.vectors[label]; ok {
		return
	}
	c.vectors[label] = vec
	c.added++
}

// Len returns the number of cached labels.
func (c *EmbeddingCache) Len() int {
	return len(c.vectors)
}

// Added returns how many entries were added since creation.
func (c *EmbeddingCache) Added() int {
	return c.added
}

// Snapshot returns a shallow copy of the cache contents.
func (c *EmbeddingCache) Snapshot() map[string][]float32 {
	out := make(map[string][]float32, len(c.vectors))
	for label, vec := range c.vectors {
		out[label] = vec
	}
	return out
}

// ReasoningKey is the cache key of an ordered (parent, child) label pair.
func ReasoningKey(parent, child string) string {
	return parent + "->" + child
}

// ReasoningCache maps "parent->child" to whether child continues parent.
// Entries are only ever added.
type ReasoningCache struct {
	decisions map[string]bool
	added     int
}

// NewReasoningCache creates a cache seeded with decisions.
func NewReasoningCache(decisions map[string]bool) *ReasoningCache {
	c := &ReasoningCache{decisions: make(map[string]bool, len(decisions))}
	for key, v := range decisions {
		c.decisions[key] = v
	}
	return c
}

// Get returns the cached decision for a pair.
func (c *ReasoningCache) Get(parent, child string) (bool, bool) {
	v, ok := c.decisions[ReasoningKey(parent, child)]
	return v, ok
}

// Put stores a decision unless the pair is already cached.
func (c *ReasoningCache) Put(parent, child string, v bool) {
	key := ReasoningKey(parent, child)
	if _, ok := c.decisions[key]; ok {
		return
	}
	c.decisions[key] = v
	c.added++
}

// Len returns the number of cached pairs.
func (c *ReasoningCache) Len() int {
	return len(c.decisions)
}

// Added returns how many entries were added since creation.
func (c *ReasoningCache) Added() int {
	return c.added
}

// Snapshot returns a copy of the cache contents.
func (c *ReasoningCache) Snapshot() map[string]bool {
	out := make(map[string]bool, len(c.decisions))
	for key, v := range c.decisions {
		out[key] = v
	}
	return out
}

// LoadCaches reads both caches through the driver.
func LoadCaches(ctx context.Context, driver CacheDriver) (*EmbeddingCache, *ReasoningCache, error) {
	vectors, err := driver.LoadEmbeddings(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load embedding cache")
	}
	decisions, err := driver.LoadDecisions(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load reasoning cache")
	}
	return NewEmbeddingCache(vectors), NewReasoningCache(decisions), nil
}

// SaveCaches writes both caches through the driver, whether or not they changed.
func SaveCaches(ctx context.Context, driver CacheDriver, embeddings *EmbeddingCache, decisions *ReasoningCache) error {
	if err := driver.SaveEmbeddings(ctx, embeddings.Snapshot()); err != nil {
		return errors.Wrap(err, "failed to save embedding cache")
	}
	if err := driver.SaveDecisions(ctx, decisions.Snapshot()); err != nil {
		return errors.Wrap(err, "failed to save reasoning cache")
	}
	return nil
}
