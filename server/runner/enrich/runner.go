// Package enrich attaches YouTube video and channel metadata to watched videos.
package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/hrygo/interestgraph/internal/observability"
	"github.com/hrygo/interestgraph/plugin/ai/timeout"
	"github.com/hrygo/interestgraph/plugin/youtube"
	"github.com/hrygo/interestgraph/store"
)

// VideoAPI looks up videos and channels in batches of at most youtube.MaxBatchSize.
type VideoAPI interface {
	ListVideos(ctx context.Context, ids []string) ([]youtube.Video, error)
	ListChannels(ctx context.Context, ids []string) ([]youtube.Channel, error)
}

// Result summarizes one enrichment run.
type Result struct {
	Requested int // ids needing enrichment
	Fetched   int // metadata records written
	Batches   int // batches completed
}

type Runner struct {
	store        *store.Store
	api          VideoAPI
	batchSize    int
	batchTimeout time.Duration
}

// NewRunner creates a metadata enrichment runner.
func NewRunner(store *store.Store, api VideoAPI) *Runner {
	return &Runner{
		store:        store,
		api:          api,
		batchSize:    youtube.MaxBatchSize,
		batchTimeout: timeout.MetadataBatchTimeout,
	}
}

// Run enriches every history video that is missing from metadata or lacks
// channel data, persisting metadata after each batch. The first failing batch
// stops the run; earlier batches stay persisted.
func (r *Runner) Run(ctx context.Context, history []store.WatchRecord, metadata *store.MetadataMap) (*Result, error) {
	ids := PendingIDs(history, metadata)
	result := &Result{Requested: len(ids)}
	log := observability.Logger(ctx)
	log.Info("videos to fetch", "count", len(ids))

	for i := 0; i < len(ids); i += r.batchSize {
		if err := ctx.Err(); err != nil {
			log.Info("metadata enrichment cancelled", "processed", i, "total", len(ids))
			return result, err
		}

		end := i + r.batchSize
		if end > len(ids) {
			end = len(ids)
		}

		fetched, err := r.processBatch(ctx, ids[i:end], metadata)
		if err != nil {
			log.Error("failed to process batch", "batch", result.Batches+1, "error", err)
			return result, fmt.Errorf("metadata batch %d: %w", result.Batches+1, err)
		}
		if err := r.store.WriteMetadata(metadata); err != nil {
			return result, err
		}

		result.Fetched += fetched
		result.Batches++
		log.Info("batch processed", "batch", result.Batches, "fetched", fetched, "progress", fmt.Sprintf("%d/%d", end, len(ids)))
	}
	return result, nil
}

func (r *Runner) processBatch(ctx context.Context, ids []string, metadata *store.MetadataMap) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.batchTimeout)
	defer cancel()

	videos, err := r.api.ListVideos(ctx, ids)
	if err != nil {
		return 0, err
	}

	var channelIDs []string
	seen := make(map[string]bool)
	for _, v := range videos {
		if v.ChannelID != "" && !seen[v.ChannelID] {
			seen[v.ChannelID] = true
			channelIDs = append(channelIDs, v.ChannelID)
		}
	}

	channels := make(map[string]youtube.Channel, len(channelIDs))
	if len(channelIDs) > 0 {
		list, err := r.api.ListChannels(ctx, channelIDs)
		if err != nil {
			return 0, err
		}
		for _, c := range list {
			channels[c.ID] = c
		}
	}

	for _, v := range videos {
		c := channels[v.ChannelID]
		topics := c.Topics
		if topics == nil {
			topics = []string{}
		}
		description := c.Description
		meta := &store.VideoMetadata{
			CategoryID:         v.CategoryID,
			ChannelTitle:       v.ChannelTitle,
			ChannelID:          v.ChannelID,
			Title:              v.Title,
			Topics:             topics,
			ChannelDescription: &description,
		}
		if prev, ok := metadata.Get(v.ID); ok && prev != nil {
			meta.LLMCategory = prev.LLMCategory
		}
		metadata.Set(v.ID, meta)
	}
	return len(videos), nil
}

// PendingIDs returns the distinct history ids, in history order, that are
// absent from metadata or have no channel description. Known music videos
// are skipped.
func PendingIDs(history []store.WatchRecord, metadata *store.MetadataMap) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, rec := range history {
		if seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true

		meta, ok := metadata.Get(rec.ID)
		if ok && meta != nil {
			if meta.IsMusic() || meta.HasChannelDescription() {
				continue
			}
		}
		ids = append(ids, rec.ID)
	}
	return ids
}
