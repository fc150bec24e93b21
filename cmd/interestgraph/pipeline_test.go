package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/interestgraph/internal/profile"
	"github.com/hrygo/interestgraph/plugin/ai/duplicate"
	"github.com/hrygo/interestgraph/plugin/ai/graph"
	"github.com/hrygo/interestgraph/store"
)

func testProfile(t *testing.T) *profile.Profile {
	t.Helper()
	return &profile.Profile{
		Data:                t.TempDir(),
		Granularity:         "week",
		MinViews:            2,
		SimilarityThreshold: 0.7,
		MergeThreshold:      0.95,
		ConflictFloor:       0.85,
		MaxBranchCandidates: 2,
	}
}

func TestGraphConfig(t *testing.T) {
	t.Run("profile values", func(t *testing.T) {
		cfg, err := graphConfig(testProfile(t))
		require.NoError(t, err)
		assert.Equal(t, graph.GranularityWeek, cfg.Granularity)
		assert.Equal(t, 2, cfg.MinViews)
		assert.Equal(t, 0.7, cfg.SimilarityThreshold)
		assert.Equal(t, 2, cfg.MaxBranchCandidates)
		assert.Equal(t, 0.95, cfg.Detector.MergeThreshold)
		assert.Equal(t, 0.85, cfg.Detector.ConflictFloor)
		assert.Equal(t, duplicate.DefaultConflictKeywords, cfg.Detector.Keywords)
		assert.Equal(t, graph.DefaultForbiddenTopics, cfg.ForbiddenTopics)
	})

	t.Run("rules override lists", func(t *testing.T) {
		p := testProfile(t)
		p.RulesFile = filepath.Join(p.Data, "rules.yaml")
		require.NoError(t, os.WriteFile(p.RulesFile, []byte("forbidden_topics: [Unknown, ASMR]\nconflict_keywords: [chess]\n"), 0o644))

		cfg, err := graphConfig(p)
		require.NoError(t, err)
		assert.Equal(t, []string{"unknown", "asmr"}, cfg.ForbiddenTopics)
		assert.Equal(t, []string{"chess"}, cfg.Detector.Keywords)
	})

	t.Run("invalid granularity", func(t *testing.T) {
		p := testProfile(t)
		p.Granularity = "daily"
		_, err := graphConfig(p)
		assert.Error(t, err)
	})
}

func TestNormalizeStage(t *testing.T) {
	p := testProfile(t)
	export := `[
  {"title": "Watched Knife Skills", "titleUrl": "https://www.youtube.com/watch?v=AAAAAAAAAAA", "time": "2024-01-02T10:00:00Z"},
  {"title": "Watched a video that has been removed", "time": "2024-01-01T10:00:00Z"}
]`
	require.NoError(t, os.WriteFile(filepath.Join(p.Data, defaultExportFile), []byte(export), 0o644))

	a := &app{
		profile: p,
		store:   store.New(p.Data),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		runID:   "test-run",
	}
	require.NoError(t, a.normalize(context.Background()))

	records, err := a.store.ReadHistory()
	require.NoError(t, err)
	assert.Equal(t, []store.WatchRecord{{ID: "AAAAAAAAAAA", Title: "Knife Skills", Timestamp: "2024-01-02T10:00:00Z"}}, records)

	a.input = filepath.Join(p.Data, "missing.json")
	assert.Error(t, a.normalize(context.Background()))
}

func TestEnrichStage_RequiresAPIKey(t *testing.T) {
	p := testProfile(t)
	a := &app{
		profile: p,
		store:   store.New(p.Data),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		runID:   "test-run",
	}
	err := a.enrich(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "youtube API key")
}
