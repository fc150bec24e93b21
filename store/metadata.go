package store

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// MusicCategoryID is the YouTube video category for music content.
const MusicCategoryID = "10"

// VideoMetadata is the enrichment record of one video.
type VideoMetadata struct {
	CategoryID   string   `json:"categoryId"`
	ChannelTitle string   `json:"channelTitle"`
	ChannelID    string   `json:"channelId"`
	Title        string   `json:"title"`
	Topics       []string `json:"topics"`
	// ChannelDescription is nil until the channel lookup ran; an empty
	// description is still a completed lookup.
	ChannelDescription *string `json:"channelDescription,omitempty"`
	LLMCategory        string  `json:"llm_category,omitempty"`
}

// IsMusic reports whether the video is music content.
func (m *VideoMetadata) IsMusic() bool {
	return m.CategoryID == MusicCategoryID
}

// HasChannelDescription reports whether channel enrichment completed.
func (m *VideoMetadata) HasChannelDescription() bool {
	return m.ChannelDescription != nil
}

// Description returns the channel description or "".
func (m *VideoMetadata) Description() string {
	if m.ChannelDescription == nil {
		return ""
	}
	return *m.ChannelDescription
}

// MetadataMap maps video id to metadata and keeps insertion order, so a file
// written by an earlier run is read back and rewritten in the same order.
type MetadataMap struct {
	keys    []string
	entries map[string]*VideoMetadata
}

// NewMetadataMap creates an empty map.
func NewMetadataMap() *MetadataMap {
	return &MetadataMap{entries: make(map[string]*VideoMetadata)}
}

// Get returns the metadata of a video.
func (m *MetadataMap) Get(id string) (*VideoMetadata, bool) {
	meta, ok := m.entries[id]
	return meta, ok
}

// Set stores metadata for a video. New ids are appended to the order;
// existing ids keep their position.
func (m *MetadataMap) Set(id string, meta *VideoMetadata) {
	if _, ok := m.entries[id]; !ok {
		m.keys = append(m.keys, id)
	}
	m.entries[id] = meta
}

// Len returns the number of videos.
func (m *MetadataMap) Len() int {
	return len(m.keys)
}

// Keys returns the video ids in insertion order.
func (m *MetadataMap) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Each calls fn for every entry in insertion order.
func (m *MetadataMap) Each(fn func(id string, meta *VideoMetadata)) {
	for _, id := range m.keys {
		fn(id, m.entries[id])
	}
}

// MarshalJSON encodes the map as a JSON object in insertion order.
func (m *MetadataMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(m.entries[id])
		if err != nil {
			return nil, errors.Wrapf(err, "encode metadata %s", id)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping the order of its keys.
func (m *MetadataMap) UnmarshalJSON(data []byte) error {
	fresh := NewMetadataMap()
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*m = *fresh
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("metadata map must be a JSON object")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := tok.(string)
		if !ok {
			return errors.Errorf("unexpected metadata key %v", tok)
		}
		meta := &VideoMetadata{}
		if err := dec.Decode(meta); err != nil {
			return errors.Wrapf(err, "decode metadata %s", id)
		}
		fresh.Set(id, meta)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*m = *fresh
	return nil
}
