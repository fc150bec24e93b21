// Package classify labels every non-music channel of the metadata map.
package classify

import (
	"context"
	"fmt"

	"github.com/hrygo/interestgraph/internal/observability"
	"github.com/hrygo/interestgraph/plugin/ai/classify"
	"github.com/hrygo/interestgraph/store"
)

const (
	defaultCheckpointEvery = 5
	maxVideoSummaries      = 3
	unknownCategory        = "N/A"
)

// ChannelClassifier names a channel. It reports failures through the result
// instead of an error.
type ChannelClassifier interface {
	Classify(ctx context.Context, req classify.Request) classify.Result
}

// Result summarizes one classification run.
type Result struct {
	Channels   int // channel groups found
	Classified int // channels labeled in this run
	Skipped    int // channels labeled by an earlier run
	Fallbacks  int // channels labeled Unknown after a failure
	BackedUp   bool
}

// ChannelGroup is every video of one channel title.
type ChannelGroup struct {
	Name        string
	IDs         []string
	Description string
	Category    string
	Videos      []string // summaries of the first videos
}

type Runner struct {
	store           *store.Store
	classifier      ChannelClassifier
	checkpointEvery int
}

// NewRunner creates a channel classification runner.
func NewRunner(store *store.Store, classifier ChannelClassifier) *Runner {
	return &Runner{
		store:           store,
		classifier:      classifier,
		checkpointEvery: defaultCheckpointEvery,
	}
}

// Run backs up the metadata file, labels every channel that has no label yet
// and writes the labels to all of its videos. Metadata is saved after every
// few newly labeled channels and once at the end, so an interrupted run
// resumes where it stopped.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	result := &Result{}
	log := observability.Logger(ctx)

	backedUp, err := r.store.BackupMetadata()
	if err != nil {
		return result, err
	}
	result.BackedUp = backedUp
	if backedUp {
		log.Info("metadata backup created", "path", r.store.Path(store.MetadataBackupFile))
	}

	metadata, err := r.store.ReadMetadata()
	if err != nil {
		return result, err
	}

	groups := GroupChannels(metadata)
	result.Channels = len(groups)
	log.Info("processing unique channels", "count", len(groups))

	pending := 0
	cancelled := func(err error) (*Result, error) {
		if saveErr := r.save(metadata, pending); saveErr != nil {
			log.Error("failed to save metadata on cancel", "error", saveErr)
		}
		return result, err
	}
	for i, group := range groups {
		if err := ctx.Err(); err != nil {
			return cancelled(err)
		}

		if first, ok := metadata.Get(group.IDs[0]); ok && first.LLMCategory != "" {
			result.Skipped++
			continue
		}

		res := r.classifier.Classify(ctx, classify.Request{
			ChannelName: group.Name,
			Category:    group.Category,
			Description: group.Description,
			Videos:      group.Videos,
		})
		// A call cut short by cancellation is not a label.
		if err := ctx.Err(); err != nil {
			return cancelled(err)
		}
		if res.Fallback {
			result.Fallbacks++
			log.Warn("channel classification failed, using fallback label", "channel", group.Name, "label", res.Label, "error", res.Err)
		}
		for _, id := range group.IDs {
			if meta, ok := metadata.Get(id); ok {
				meta.LLMCategory = res.Label
			}
		}
		result.Classified++
		pending++

		if pending >= r.checkpointEvery {
			if err := r.save(metadata, pending); err != nil {
				return result, err
			}
			pending = 0
			log.Info("channel classified", "progress", fmt.Sprintf("%d/%d", i+1, len(groups)), "channel", group.Name, "label", res.Label)
		}
	}

	if err := r.store.WriteMetadata(metadata); err != nil {
		return result, err
	}
	log.Info("classification complete", "classified", result.Classified, "skipped", result.Skipped, "fallbacks", result.Fallbacks)
	return result, nil
}

func (r *Runner) save(metadata *store.MetadataMap, pending int) error {
	if pending == 0 {
		return nil
	}
	return r.store.WriteMetadata(metadata)
}

// GroupChannels groups non-music videos by channel title in metadata order.
func GroupChannels(metadata *store.MetadataMap) []*ChannelGroup {
	var groups []*ChannelGroup
	byName := make(map[string]*ChannelGroup)

	metadata.Each(func(id string, meta *store.VideoMetadata) {
		if meta == nil || meta.IsMusic() {
			return
		}
		group, ok := byName[meta.ChannelTitle]
		if !ok {
			category := meta.CategoryID
			if category == "" {
				category = unknownCategory
			}
			group = &ChannelGroup{
				Name:        meta.ChannelTitle,
				Description: meta.Description(),
				Category:    category,
			}
			byName[meta.ChannelTitle] = group
			groups = append(groups, group)
		}
		group.IDs = append(group.IDs, id)
		if len(group.Videos) < maxVideoSummaries {
			group.Videos = append(group.Videos, classify.VideoSummary(meta.Title, meta.Topics))
		}
	})
	return groups
}
