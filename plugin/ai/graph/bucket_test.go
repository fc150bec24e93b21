package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketKey(t *testing.T) {
	tests := []struct {
		name        string
		granularity Granularity
		timestamp   string
		want        string
	}{
		{"month", GranularityMonth, "2024-03-31T23:59:59Z", "2024-03"},
		{"month keeps local offset", GranularityMonth, "2024-03-31T23:30:00-02:00", "2024-03"},
		{"week on sunday", GranularityWeek, "2024-01-07T00:00:00Z", "2024-01-07"},
		{"week on saturday", GranularityWeek, "2024-01-13T22:00:00Z", "2024-01-07"},
		{"week across month", GranularityWeek, "2024-03-02T08:00:00Z", "2024-02-25"},
		{"week across year", GranularityWeek, "2025-01-01T08:00:00Z", "2024-12-29"},
		{"week keeps local offset", GranularityWeek, "2024-01-06T22:00:00-05:00", "2023-12-31"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := time.Parse(time.RFC3339, tt.timestamp)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tt.granularity.BucketKey(ts))
		})
	}
}

func TestParseGranularity(t *testing.T) {
	g, err := ParseGranularity(" Week ")
	require.NoError(t, err)
	assert.Equal(t, GranularityWeek, g)

	g, err = ParseGranularity("month")
	require.NoError(t, err)
	assert.Equal(t, GranularityMonth, g)

	_, err = ParseGranularity("quarter")
	assert.Error(t, err)
}

func TestNodeID(t *testing.T) {
	assert.Equal(t, "Sim Racing_2024-02", NodeID("Sim Racing", "2024-02"))
}
