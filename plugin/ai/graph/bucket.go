package graph

import (
	"fmt"
	"strings"
	"time"
)

// Granularity is the calendar unit of a time bucket.
type Granularity string

const (
	GranularityMonth Granularity = "month"
	GranularityWeek  Granularity = "week"
)

// ParseGranularity accepts "month" or "week" in any case.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case GranularityMonth, GranularityWeek:
		return g, nil
	default:
		return "", fmt.Errorf("unknown granularity %q: must be month or week", s)
	}
}

// BucketKey returns "2006-01" for months and the date of the Sunday starting
// the week for weeks, both in t's own location.
func (g Granularity) BucketKey(t time.Time) string {
	if g == GranularityWeek {
		sunday := t.AddDate(0, 0, -int(t.Weekday()))
		return sunday.Format("2006-01-02")
	}
	return t.Format("2006-01")
}

// NodeID derives the node id of a label in a bucket.
func NodeID(label, bucket string) string {
	return label + "_" + bucket
}
