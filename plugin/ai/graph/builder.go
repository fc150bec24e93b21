package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/hrygo/interestgraph/internal/observability"
	"github.com/hrygo/interestgraph/plugin/ai/duplicate"
	"github.com/hrygo/interestgraph/plugin/ai/reasoning"
	"github.com/hrygo/interestgraph/store"
)

const (
	defaultVideoTitle = "No Title"
	progressEvery     = 1000
)

// Embedder returns the embedding vector of a topic label.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Adjudicator decides whether child continues the earlier interest parent.
type Adjudicator interface {
	IsContinuation(ctx context.Context, parent, child string) reasoning.Decision
}

// Builder builds interest graphs. The embedding and reasoning caches are
// extended in place; callers persist them after Build.
type Builder struct {
	config      Config
	embedder    Embedder
	adjudicator Adjudicator
	embeddings  *store.EmbeddingCache
	decisions   *store.ReasoningCache
}

// NewBuilder creates a new Builder.
func NewBuilder(config Config, embedder Embedder, adjudicator Adjudicator, embeddings *store.EmbeddingCache, decisions *store.ReasoningCache) *Builder {
	if config.Detector == nil {
		config.Detector = duplicate.NewDetector()
	}
	if config.MaxBranchCandidates <= 0 {
		config.MaxBranchCandidates = DefaultConfig().MaxBranchCandidates
	}
	if config.EmbedTimeout <= 0 {
		config.EmbedTimeout = DefaultConfig().EmbedTimeout
	}
	if embeddings == nil {
		embeddings = store.NewEmbeddingCache(nil)
	}
	if decisions == nil {
		decisions = store.NewReasoningCache(nil)
	}
	return &Builder{
		config:      config,
		embedder:    embedder,
		adjudicator: adjudicator,
		embeddings:  embeddings,
		decisions:   decisions,
	}
}

// timedRecord is a history record with its parsed timestamp.
type timedRecord struct {
	store.WatchRecord
	at time.Time
}

// buildState is the mutable state of one Build call.
type buildState struct {
	log      *slog.Logger
	metadata *store.MetadataMap

	nodes     map[string]*InterestNode
	nodeOrder []string
	links     []Link

	lastNodePerTopic map[string]string
	// topicOrder lists the keys of lastNodePerTopic in first-seen order.
	topicOrder     []string
	canonicalMap   map[string]string
	branchedTopics map[string]bool

	// Per-run memory of soft failures; never persisted.
	failedEmbeddings  map[string]bool
	fallbackDecisions map[string]bool

	forbidden map[string]bool
	stats     Stats
}

func (b *Builder) newState(log *slog.Logger, metadata *store.MetadataMap) *buildState {
	forbidden := make(map[string]bool, len(b.config.ForbiddenTopics))
	for _, topic := range b.config.ForbiddenTopics {
		forbidden[strings.ToLower(strings.TrimSpace(topic))] = true
	}
	return &buildState{
		log:               log,
		metadata:          metadata,
		nodes:             make(map[string]*InterestNode),
		lastNodePerTopic:  make(map[string]string),
		canonicalMap:      make(map[string]string),
		branchedTopics:    make(map[string]bool),
		failedEmbeddings:  make(map[string]bool),
		fallbackDecisions: make(map[string]bool),
		forbidden:         forbidden,
	}
}

// Build runs the single pass over history and returns the filtered graph.
func (b *Builder) Build(ctx context.Context, history []store.WatchRecord, metadata *store.MetadataMap) (*Artifact, error) {
	start := time.Now()
	if b.config.Granularity != GranularityMonth && b.config.Granularity != GranularityWeek {
		return nil, fmt.Errorf("unknown granularity %q", b.config.Granularity)
	}
	if metadata == nil {
		metadata = store.NewMetadataMap()
	}

	state := b.newState(observability.Logger(ctx), metadata)
	state.stats.Records = len(history)

	records := make([]timedRecord, 0, len(history))
	for _, r := range history {
		at, err := r.Time()
		if err != nil {
			state.stats.BadTimestamp++
			state.log.Debug("skipping record with invalid timestamp", "id", r.ID, "timestamp", r.Timestamp)
			continue
		}
		records = append(records, timedRecord{WatchRecord: r, at: at})
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].at.Before(records[j].at)
	})

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("graph build interrupted: %w", err)
		}
		label := b.process(ctx, state, rec)

		if (i+1)%progressEvery == 0 || i == len(records)-1 {
			state.log.Debug("graph build progress",
				"percent", fmt.Sprintf("%.1f", float64(i+1)/float64(len(records))*100),
				"label", label,
			)
		}
	}

	artifact := b.finalize(state)
	artifact.Stats.Duration = time.Since(start)
	state.log.Info("interest graph built",
		"records", artifact.Stats.Records,
		"nodes", artifact.Stats.NodesKept,
		"links", artifact.Stats.LinksKept,
		"branches", artifact.Stats.Branches,
		"duration_ms", artifact.Stats.Duration.Milliseconds(),
	)
	return artifact, nil
}

// process handles one record and returns the label it resolved to.
func (b *Builder) process(ctx context.Context, state *buildState, rec timedRecord) string {
	meta, ok := b.lookup(rec.ID, state)
	if !ok {
		return ""
	}

	raw := meta.LLMCategory
	if raw == "" {
		raw = duplicate.GeneralLabel
	}
	label := b.canonicalize(ctx, state, raw)

	if state.forbidden[strings.ToLower(label)] {
		state.stats.Forbidden++
		return label
	}

	bucket := b.config.Granularity.BucketKey(rec.at)
	nodeID := NodeID(label, bucket)

	node, exists := state.nodes[nodeID]
	if !exists {
		node = &InterestNode{
			ID:     nodeID,
			Label:  label,
			Birth:  rec.Timestamp,
			Videos: []Video{},
			birth:  rec.at,
		}
		state.nodes[nodeID] = node
		state.nodeOrder = append(state.nodeOrder, nodeID)
		state.stats.NodesCreated++

		b.link(ctx, state, node)

		if _, seen := state.lastNodePerTopic[label]; !seen {
			state.topicOrder = append(state.topicOrder, label)
		}
		state.lastNodePerTopic[label] = nodeID
	}

	title := rec.Title
	if title == "" {
		title = defaultVideoTitle
	}
	node.Videos = append(node.Videos, Video{Title: title, URL: rec.URL()})
	node.Count++
	return label
}

func (b *Builder) lookup(id string, state *buildState) (*store.VideoMetadata, bool) {
	meta, ok := state.metadata.Get(id)
	if !ok || meta == nil {
		state.stats.MissingMeta++
		return nil, false
	}
	return meta, true
}

// canonicalize resolves raw to its canonical label. The first decision for a
// raw label is kept for the rest of the run.
func (b *Builder) canonicalize(ctx context.Context, state *buildState, raw string) string {
	if canonical, ok := state.canonicalMap[raw]; ok {
		return canonical
	}

	canonical := raw
	if raw == duplicate.GeneralLabel {
		state.canonicalMap[raw] = raw
		return raw
	}
	if vec, ok := b.embedding(ctx, state, raw); ok {
		for _, existing := range state.topicOrder {
			prev, ok := b.embeddings.Get(existing)
			if !ok {
				continue
			}
			score := duplicate.CosineSimilarity(vec, prev)
			verdict := b.config.Detector.Evaluate(raw, existing, score)
			if verdict == duplicate.Conflict {
				state.stats.Conflicts++
				state.log.Debug("label merge suppressed", "label", raw, "existing", existing, "score", score)
				continue
			}
			if verdict.Merge() {
				canonical = existing
				if existing != raw {
					state.stats.Merged++
					state.log.Debug("label merged", "label", raw, "into", existing, "verdict", verdict.String(), "score", score)
				}
				break
			}
		}
	}

	state.canonicalMap[raw] = canonical
	return canonical
}

// embedding returns the cached vector of label, fetching it on first use.
// A failed fetch is remembered so the label is not retried in this run.
func (b *Builder) embedding(ctx context.Context, state *buildState, label string) ([]float32, bool) {
	if vec, ok := b.embeddings.Get(label); ok {
		return vec, true
	}
	if state.failedEmbeddings[label] || b.embedder == nil {
		return nil, false
	}

	callCtx, cancel := context.WithTimeout(ctx, b.config.EmbedTimeout)
	defer cancel()

	vec, err := b.embedder.Embed(callCtx, label)
	if err == nil && len(vec) == 0 {
		err = errors.New("empty embedding")
	}
	if err != nil {
		state.failedEmbeddings[label] = true
		state.stats.EmbedFailures++
		state.log.Warn("embedding unavailable, skipping similarity for label", "label", label, "error", err)
		return nil, false
	}

	b.embeddings.Put(label, vec)
	return vec, true
}

// link attaches a newly created node: a persistence edge from the label's
// previous node, else at most one branch edge per label, else nothing.
func (b *Builder) link(ctx context.Context, state *buildState, node *InterestNode) {
	if prev, ok := state.lastNodePerTopic[node.Label]; ok {
		state.links = append(state.links, Link{
			Source: prev,
			Target: node.ID,
			Type:   LinkTypePersistence,
			Score:  1.0,
		})
		state.stats.LinksCreated++
		return
	}
	if state.branchedTopics[node.Label] {
		return
	}

	vec, ok := b.embedding(ctx, state, node.Label)
	if !ok {
		return
	}

	for _, cand := range b.branchCandidates(state, node, vec) {
		if !b.continues(ctx, state, cand.label, node.Label) {
			continue
		}
		state.links = append(state.links, Link{
			Source: cand.nodeID,
			Target: node.ID,
			Type:   LinkTypeBranch,
			Score:  roundScore(cand.score),
		})
		state.branchedTopics[node.Label] = true
		state.stats.LinksCreated++
		state.stats.Branches++
		return
	}
}

type candidate struct {
	nodeID string
	label  string
	score  float64
}

// branchCandidates scans earlier nodes of other labels and returns the best
// scoring ones above the similarity threshold.
func (b *Builder) branchCandidates(state *buildState, node *InterestNode, vec []float32) []candidate {
	var candidates []candidate
	for _, id := range state.nodeOrder {
		prev := state.nodes[id]
		if prev.Label == node.Label || !prev.birth.Before(node.birth) {
			continue
		}
		prevVec, ok := b.embeddings.Get(prev.Label)
		if !ok {
			continue
		}
		score := duplicate.CosineSimilarity(vec, prevVec)
		if score > b.config.SimilarityThreshold {
			candidates = append(candidates, candidate{nodeID: id, label: prev.Label, score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > b.config.MaxBranchCandidates {
		candidates = candidates[:b.config.MaxBranchCandidates]
	}
	return candidates
}

// continues returns the cached continuation decision for parent->child,
// asking the adjudicator on a miss. Only definitive answers are cached.
func (b *Builder) continues(ctx context.Context, state *buildState, parent, child string) bool {
	if v, ok := b.decisions.Get(parent, child); ok {
		return v
	}
	key := store.ReasoningKey(parent, child)
	if v, ok := state.fallbackDecisions[key]; ok {
		return v
	}
	if b.adjudicator == nil {
		state.fallbackDecisions[key] = false
		return false
	}

	decision := b.adjudicator.IsContinuation(ctx, parent, child)
	if decision.Fallback {
		state.fallbackDecisions[key] = false
		state.stats.Fallbacks++
		state.log.Warn("continuation check failed, treating as unrelated", "parent", parent, "child", child, "error", decision.Err)
		return false
	}
	b.decisions.Put(parent, child, decision.Value)
	return decision.Value
}

// finalize assigns time indexes and drops nodes below MinViews together with
// every link touching them.
func (b *Builder) finalize(state *buildState) *Artifact {
	bucketSet := make(map[string]bool)
	for _, id := range state.nodeOrder {
		bucketSet[b.config.Granularity.BucketKey(state.nodes[id].birth)] = true
	}
	buckets := make([]string, 0, len(bucketSet))
	for key := range bucketSet {
		buckets = append(buckets, key)
	}
	sort.Strings(buckets)
	bucketIndex := make(map[string]int, len(buckets))
	for i, key := range buckets {
		bucketIndex[key] = i
	}

	kept := make(map[string]bool)
	nodes := make([]*InterestNode, 0, len(state.nodeOrder))
	for _, id := range state.nodeOrder {
		node := state.nodes[id]
		if node.Count < b.config.MinViews {
			continue
		}
		node.TimeKey = b.config.Granularity.BucketKey(node.birth)
		node.TimeIndex = bucketIndex[node.TimeKey]
		nodes = append(nodes, node)
		kept[id] = true
	}

	links := make([]Link, 0, len(state.links))
	for _, l := range state.links {
		if kept[l.Source] && kept[l.Target] {
			links = append(links, l)
		}
	}

	stats := state.stats
	stats.NodesKept = len(nodes)
	stats.LinksKept = len(links)

	return &Artifact{
		Nodes:       nodes,
		Links:       links,
		Buckets:     buckets,
		Granularity: b.config.Granularity,
		Stats:       stats,
	}
}

func roundScore(score float64) float64 {
	return math.Round(score*1000) / 1000
}
