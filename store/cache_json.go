package store

import (
	"context"
	"os"

	"github.com/pkg/errors"
)

// JSONCacheDriver keeps each cache in its own JSON document in the data dir.
type JSONCacheDriver struct {
	store *Store
}

// NewJSONCacheDriver creates a driver writing next to the other artifacts.
func NewJSONCacheDriver(s *Store) *JSONCacheDriver {
	return &JSONCacheDriver{store: s}
}

func (d *JSONCacheDriver) LoadEmbeddings(_ context.Context) (map[string][]float32, error) {
	vectors := map[string][]float32{}
	err := readJSON(d.store.Path(EmbeddingCacheFile), &vectors)
	if os.IsNotExist(errors.Cause(err)) {
		return map[string][]float32{}, nil
	}
	if err != nil {
		return nil, err
	}
	return vectors, nil
}

func (d *JSONCacheDriver) SaveEmbeddings(_ context.Context, vectors map[string][]float32) error {
	return writeJSONAtomic(d.store.Path(EmbeddingCacheFile), vectors, false)
}

func (d *JSONCacheDriver) LoadDecisions(_ context.Context) (map[string]bool, error) {
	decisions := map[string]bool{}
	err := readJSON(d.store.Path(ReasoningCacheFile), &decisions)
	if os.IsNotExist(errors.Cause(err)) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decisions, nil
}

func (d *JSONCacheDriver) SaveDecisions(_ context.Context, decisions map[string]bool) error {
	return writeJSONAtomic(d.store.Path(ReasoningCacheFile), decisions, false)
}

func (d *JSONCacheDriver) Close() error {
	return nil
}
