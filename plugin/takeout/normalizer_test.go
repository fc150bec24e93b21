package takeout

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/interestgraph/store"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"extra params", "https://www.youtube.com/watch?list=PL1&v=a_b-c1D2e3F&t=10", "a_b-c1D2e3F"},
		{"short url", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"music url", "https://music.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"too short", "https://www.youtube.com/watch?v=abc", ""},
		{"channel url", "https://www.youtube.com/channel/UC1234567890", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractVideoID(tt.url))
		})
	}
}

func TestNormalize(t *testing.T) {
	entries := []Entry{
		{Title: "Watched Perfect Scrambled Eggs", TitleURL: "https://www.youtube.com/watch?v=AAAAAAAAAAA", Time: "2024-01-02T10:00:00.123Z"},
		{Title: "Watched a video that has been removed", Time: "2024-01-01T10:00:00Z"},
		{Title: "Visited YouTube Music", TitleURL: "https://music.youtube.com/", Time: "2024-01-01T09:00:00Z"},
		{Title: "Watched Watched It Twice", TitleURL: "https://www.youtube.com/watch?v=BBBBBBBBBBB", Time: "not a time"},
		{Title: "No prefix", TitleURL: "https://youtu.be/CCCCCCCCCCC", Time: "2023-12-31T10:00:00Z"},
	}

	got := Normalize(entries)

	assert.Equal(t, []store.WatchRecord{
		{ID: "AAAAAAAAAAA", Title: "Perfect Scrambled Eggs", Timestamp: "2024-01-02T10:00:00.123Z"},
		{ID: "BBBBBBBBBBB", Title: "Watched It Twice", Timestamp: "not a time"},
		{ID: "CCCCCCCCCCC", Title: "No prefix", Timestamp: "2023-12-31T10:00:00Z"},
	}, got)
}

func TestNormalize_Empty(t *testing.T) {
	assert.Empty(t, Normalize(nil))
	assert.NotNil(t, Normalize(nil))
}

func TestReadExport(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid export", func(t *testing.T) {
		path := filepath.Join(dir, "watch-history.json")
		content := `[
  {
    "header": "YouTube",
    "title": "Watched Sim Racing Setup Guide",
    "titleUrl": "https://www.youtube.com/watch?v=AAAAAAAAAAA",
    "subtitles": [{"name": "Racer", "url": "https://www.youtube.com/channel/UCx"}],
    "time": "2024-01-02T10:00:00.123Z",
    "products": ["YouTube"]
  }
]`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		entries, err := ReadExport(path)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "YouTube", entries[0].Header)
		assert.Equal(t, "https://www.youtube.com/watch?v=AAAAAAAAAAA", entries[0].TitleURL)
		assert.Equal(t, "AAAAAAAAAAA", Normalize(entries)[0].ID)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadExport(filepath.Join(dir, "missing.json"))
		assert.Error(t, err)
	})

	t.Run("not an array", func(t *testing.T) {
		_, err := Decode(strings.NewReader(`{"title": "x"}`))
		assert.Error(t, err)
	})
}
