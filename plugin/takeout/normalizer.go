// Package takeout reads Google Takeout YouTube watch-history exports.
package takeout

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/hrygo/interestgraph/store"
)

// watchedPrefix is prepended to every title by the export.
const watchedPrefix = "Watched "

var videoIDRE = regexp.MustCompile(`(?:v=|youtu\.be/)([a-zA-Z0-9_-]{11})`)

// Entry is one record of watch-history.json. Unknown fields are ignored.
type Entry struct {
	Header   string `json:"header,omitempty"`
	Title    string `json:"title"`
	TitleURL string `json:"titleUrl"`
	Time     string `json:"time"`
}

// ReadExport decodes a watch-history.json file.
func ReadExport(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export: %w", err)
	}
	defer f.Close()

	entries, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode export %s: %w", path, err)
	}
	return entries, nil
}

// Decode reads a JSON array of export entries.
func Decode(r io.Reader) ([]Entry, error) {
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ExtractVideoID returns the 11-character video id of a watch URL, or "".
func ExtractVideoID(rawURL string) string {
	m := videoIDRE.FindStringSubmatch(rawURL)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// Normalize converts export entries into watch records, keeping their order.
// Entries without a recognizable video id are dropped.
func Normalize(entries []Entry) []store.WatchRecord {
	records := make([]store.WatchRecord, 0, len(entries))
	for _, e := range entries {
		id := ExtractVideoID(e.TitleURL)
		if id == "" {
			continue
		}
		records = append(records, store.WatchRecord{
			ID:        id,
			Title:     strings.TrimPrefix(e.Title, watchedPrefix),
			Timestamp: e.Time,
		})
	}
	return records
}
