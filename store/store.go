package store

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Artifact file names inside the data directory.
const (
	HistoryFile        = "processed_history.json"
	MetadataFile       = "metadata_map.json"
	MetadataBackupFile = "metadata_map_backup.json"
	EmbeddingCacheFile = "embedding_cache.json"
	ReasoningCacheFile = "reasoning_cache.json"
	GraphFile          = "graph_data.json"
	CacheDBFile        = "caches.db"
)

// Store provides file access to every artifact of the pipeline.
type Store struct {
	dir string
}

// New creates a new instance of Store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the absolute location of an artifact.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// ReadHistory loads the normalized watch history.
func (s *Store) ReadHistory() ([]WatchRecord, error) {
	var records []WatchRecord
	if err := readJSON(s.Path(HistoryFile), &records); err != nil {
		return nil, errors.Wrap(err, "failed to read watch history")
	}
	return records, nil
}

// WriteHistory persists the normalized watch history.
func (s *Store) WriteHistory(records []WatchRecord) error {
	if records == nil {
		records = []WatchRecord{}
	}
	if err := writeJSONAtomic(s.Path(HistoryFile), records, true); err != nil {
		return errors.Wrap(err, "failed to write watch history")
	}
	return nil
}

// ReadMetadata loads the metadata map. A missing file yields an empty map.
func (s *Store) ReadMetadata() (*MetadataMap, error) {
	metadata := NewMetadataMap()
	err := readJSON(s.Path(MetadataFile), metadata)
	if os.IsNotExist(errors.Cause(err)) {
		return metadata, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read metadata map")
	}
	return metadata, nil
}

// WriteMetadata replaces the metadata file with a temp-file-then-rename swap.
func (s *Store) WriteMetadata(metadata *MetadataMap) error {
	if err := writeJSONAtomic(s.Path(MetadataFile), metadata, true); err != nil {
		return errors.Wrap(err, "failed to write metadata map")
	}
	return nil
}

// BackupMetadata copies the current metadata file next to it.
// It reports false when there is nothing to back up.
func (s *Store) BackupMetadata() (bool, error) {
	src := s.Path(MetadataFile)
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return false, nil
	}
	if err := copyFile(src, s.Path(MetadataBackupFile)); err != nil {
		return false, errors.Wrap(err, "failed to back up metadata map")
	}
	return true, nil
}

// WriteGraph persists the terminal graph artifact.
func (s *Store) WriteGraph(graph any) error {
	if err := writeJSONAtomic(s.Path(GraphFile), graph, true); err != nil {
		return errors.Wrap(err, "failed to write graph")
	}
	return nil
}

// EnsureDir creates the data directory when missing.
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Wrapf(err, "unable to create data folder %s", s.dir)
	}
	return nil
}
