package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/hrygo/interestgraph/internal/observability"
	"github.com/hrygo/interestgraph/internal/profile"
	"github.com/hrygo/interestgraph/plugin/ai"
	aiclassify "github.com/hrygo/interestgraph/plugin/ai/classify"
	"github.com/hrygo/interestgraph/plugin/ai/duplicate"
	"github.com/hrygo/interestgraph/plugin/ai/graph"
	"github.com/hrygo/interestgraph/plugin/ai/reasoning"
	"github.com/hrygo/interestgraph/plugin/takeout"
	"github.com/hrygo/interestgraph/plugin/youtube"
	"github.com/hrygo/interestgraph/server/runner/classify"
	"github.com/hrygo/interestgraph/server/runner/enrich"
	"github.com/hrygo/interestgraph/store"
	"github.com/hrygo/interestgraph/store/db"
)

// defaultExportFile is read from the data directory when --input is not set.
const defaultExportFile = "watch-history.json"

func (a *app) stage(name string) *observability.RunContext {
	rc := observability.NewRunContextWithID(a.logger, a.runID, name)
	rc.Info("stage started")
	return rc
}

func (a *app) normalize(ctx context.Context) error {
	rc := a.stage("normalize")

	input := a.input
	if input == "" {
		input = a.store.Path(defaultExportFile)
	}
	entries, err := takeout.ReadExport(input)
	if err != nil {
		rc.Error("failed to read export", err, "input", input)
		return err
	}
	records := takeout.Normalize(entries)
	if err := a.store.WriteHistory(records); err != nil {
		rc.Error("failed to write history", err)
		return err
	}

	rc.Done("stage complete", "entries", len(entries), "records", len(records))
	return ctx.Err()
}

func (a *app) enrich(ctx context.Context) error {
	rc := a.stage("enrich")

	if !a.profile.HasYouTubeAPIKey() {
		err := errors.New("youtube API key is not configured (set INTERESTGRAPH_YOUTUBE_API_KEY or YOUTUBE_API_KEY)")
		rc.Error("cannot enrich metadata", err)
		return err
	}
	client, err := youtube.NewClient(youtube.Config{
		APIKey:  a.profile.YouTubeAPIKey,
		BaseURL: a.profile.YouTubeBaseURL,
		QPS:     a.profile.YouTubeQPS,
	})
	if err != nil {
		return err
	}

	history, err := a.store.ReadHistory()
	if err != nil {
		rc.Error("failed to read history", err)
		return err
	}
	metadata, err := a.store.ReadMetadata()
	if err != nil {
		rc.Error("failed to read metadata", err)
		return err
	}

	result, err := enrich.NewRunner(a.store, client).Run(observability.WithRunContext(ctx, rc), history, metadata)
	if err != nil {
		rc.Error("metadata enrichment stopped", err, "batches", result.Batches, "fetched", result.Fetched)
		return err
	}

	rc.Done("stage complete", "requested", result.Requested, "fetched", result.Fetched, "batches", result.Batches)
	return nil
}

func (a *app) classify(ctx context.Context) error {
	rc := a.stage("classify")

	cfg := ai.NewConfigFromProfile(a.profile)
	if err := cfg.Validate(); err != nil {
		return err
	}
	llm, err := ai.NewLLMService(&cfg.LLM)
	if err != nil {
		rc.Error("failed to create chat model client", err)
		return err
	}
	classifier, err := aiclassify.NewClassifier(llm)
	if err != nil {
		return err
	}

	result, err := classify.NewRunner(a.store, classifier).Run(observability.WithRunContext(ctx, rc))
	if err != nil {
		rc.Error("channel classification stopped", err, "classified", result.Classified)
		return err
	}

	rc.Done("stage complete",
		"channels", result.Channels,
		"classified", result.Classified,
		"skipped", result.Skipped,
		"fallbacks", result.Fallbacks,
	)
	return nil
}

func (a *app) graph(ctx context.Context) error {
	rc := a.stage("graph")

	config, err := graphConfig(a.profile)
	if err != nil {
		return err
	}

	aiConfig := ai.NewConfigFromProfile(a.profile)
	if err := aiConfig.Validate(); err != nil {
		return err
	}
	embedder, err := ai.NewEmbeddingService(&aiConfig.Embedding)
	if err != nil {
		rc.Error("failed to create embedding client", err)
		return err
	}
	llm, err := ai.NewLLMService(&aiConfig.LLM)
	if err != nil {
		rc.Error("failed to create chat model client", err)
		return err
	}

	history, err := a.store.ReadHistory()
	if err != nil {
		rc.Error("failed to read history", err)
		return err
	}
	metadata, err := a.store.ReadMetadata()
	if err != nil {
		rc.Error("failed to read metadata", err)
		return err
	}

	driver, err := db.NewCacheDriver(ctx, a.profile.CacheDriver, a.store)
	if err != nil {
		return err
	}
	defer driver.Close()

	embeddings, decisions, err := store.LoadCaches(ctx, driver)
	if err != nil {
		rc.Error("failed to load caches", err, "driver", a.profile.CacheDriver)
		return err
	}
	rc.Info("caches loaded", "embeddings", embeddings.Len(), "decisions", decisions.Len())

	builder := graph.NewBuilder(config, embedder, reasoning.NewAdjudicator(llm), embeddings, decisions)
	artifact, buildErr := builder.Build(observability.WithRunContext(ctx, rc), history, metadata)

	// Cache entries are valid even when the build was interrupted.
	if err := store.SaveCaches(context.WithoutCancel(ctx), driver, embeddings, decisions); err != nil {
		rc.Error("failed to save caches", err)
		if buildErr == nil {
			return err
		}
	}
	if buildErr != nil {
		rc.Error("graph build failed", buildErr)
		return buildErr
	}

	if err := a.store.WriteGraph(artifact); err != nil {
		rc.Error("failed to write graph", err)
		return err
	}

	s := artifact.Stats
	rc.Done("stage complete",
		"nodes", s.NodesKept,
		"links", s.LinksKept,
		"branches", s.Branches,
		"merged", s.Merged,
		"conflicts", s.Conflicts,
		"missing_metadata", s.MissingMeta,
		"forbidden", s.Forbidden,
		"fallbacks", s.Fallbacks,
		"embedding_failures", s.EmbedFailures,
		"new_embeddings", embeddings.Added(),
		"new_decisions", decisions.Added(),
	)
	return nil
}

// graphConfig derives the builder configuration from the profile and its
// optional rules file.
func graphConfig(p *profile.Profile) (graph.Config, error) {
	granularity, err := graph.ParseGranularity(p.Granularity)
	if err != nil {
		return graph.Config{}, err
	}
	rules, err := profile.LoadRules(p.RulesFile)
	if err != nil {
		return graph.Config{}, err
	}

	config := graph.DefaultConfig()
	config.Granularity = granularity
	config.MinViews = p.MinViews
	config.SimilarityThreshold = p.SimilarityThreshold
	config.MaxBranchCandidates = p.MaxBranchCandidates
	config.Detector = &duplicate.Detector{
		MergeThreshold: p.MergeThreshold,
		ConflictFloor:  p.ConflictFloor,
		Keywords:       duplicate.DefaultConflictKeywords,
	}
	if len(rules.ForbiddenTopics) > 0 {
		config.ForbiddenTopics = rules.ForbiddenTopics
	}
	if len(rules.ConflictKeywords) > 0 {
		config.Detector.Keywords = rules.ConflictKeywords
	}
	if config.MinViews < 1 {
		return graph.Config{}, fmt.Errorf("invalid min views %d", config.MinViews)
	}
	return config, nil
}
