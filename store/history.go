package store

import (
	"time"
)

// WatchURLPrefix is the canonical watch page prefix for a video id.
const WatchURLPrefix = "https://www.youtube.com/watch?v="

// WatchRecord is one watched video of the normalized history.
type WatchRecord struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Timestamp string `json:"timestamp"`
}

// URL returns the watch page of the record's video.
func (r WatchRecord) URL() string {
	return WatchURLPrefix + r.ID
}

// Time parses the record timestamp, see ParseTimestamp.
func (r WatchRecord) Time() (time.Time, error) {
	return ParseTimestamp(r.Timestamp)
}

// timestampLayouts are the ISO-8601 forms accepted for export timestamps.
// Fractional seconds are accepted by every layout that has seconds.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	time.DateOnly,
}

// ParseTimestamp parses an ISO-8601 export timestamp. The date and time may
// be separated by "T" or a space. Timestamps without an offset are read as UTC.
func ParseTimestamp(ts string) (time.Time, error) {
	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, ts, time.UTC)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
