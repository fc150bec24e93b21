// Package graph builds the time-bucketed interest graph from labeled watch history.
package graph

import (
	"encoding/json"
	"time"

	"github.com/hrygo/interestgraph/plugin/ai/duplicate"
	"github.com/hrygo/interestgraph/plugin/ai/timeout"
)

// InterestNode aggregates the videos of one canonical label in one time bucket.
type InterestNode struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	Birth     string  `json:"birth"` // timestamp of the first video, as exported
	Count     int     `json:"count"`
	Videos    []Video `json:"videos"`
	TimeIndex int     `json:"time_index"`
	TimeKey   string  `json:"time_key"`

	birth time.Time
}

// Video is one watched video attributed to a node.
type Video struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Link connects two interest nodes.
type Link struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Type   string  `json:"type"`
	Score  float64 `json:"score"`
}

// Link types.
const (
	LinkTypePersistence = "persistence" // same label, later bucket
	LinkTypeBranch      = "branch"      // new label emerging from a related one
)

// Artifact is the persisted graph document.
type Artifact struct {
	Nodes       []*InterestNode
	Links       []Link
	Buckets     []string
	Granularity Granularity
	Stats       Stats
}

// MarshalJSON writes {nodes, links, months|weeks}.
func (a *Artifact) MarshalJSON() ([]byte, error) {
	nodes := a.Nodes
	if nodes == nil {
		nodes = []*InterestNode{}
	}
	links := a.Links
	if links == nil {
		links = []Link{}
	}
	buckets := a.Buckets
	if buckets == nil {
		buckets = []string{}
	}

	// Field order of the struct is the document order.
	if a.Granularity == GranularityWeek {
		return json.Marshal(struct {
			Nodes []*InterestNode `json:"nodes"`
			Links []Link          `json:"links"`
			Weeks []string        `json:"weeks"`
		}{nodes, links, buckets})
	}
	return json.Marshal(struct {
		Nodes  []*InterestNode `json:"nodes"`
		Links  []Link          `json:"links"`
		Months []string        `json:"months"`
	}{nodes, links, buckets})
}

// Stats summarizes a build.
type Stats struct {
	Records       int // records in the input history
	MissingMeta   int // skipped, no metadata entry
	BadTimestamp  int // skipped, unparseable timestamp
	Forbidden     int // skipped, forbidden canonical label
	Merged        int // raw labels folded into another canonical label
	Conflicts     int // merges suppressed by the keyword guard
	NodesCreated  int
	NodesKept     int
	LinksCreated  int
	LinksKept     int
	Branches      int
	Fallbacks     int // reasoning calls that degraded to "no"
	EmbedFailures int

	Duration time.Duration
}

// DefaultForbiddenTopics are canonical labels that never become nodes.
var DefaultForbiddenTopics = []string{"general", "miscellaneous", "other", "unknown", "clips", "shorts", "vlog"}

// Config contains configuration for graph building.
type Config struct {
	// Granularity selects month or Sunday-anchored week buckets.
	Granularity Granularity
	// MinViews is the minimum node count kept in the artifact.
	MinViews int
	// SimilarityThreshold is the minimum score for a branch candidate.
	SimilarityThreshold float64
	// MaxBranchCandidates limits how many candidates are adjudicated.
	MaxBranchCandidates int
	// ForbiddenTopics are matched case-insensitively against canonical labels.
	ForbiddenTopics []string
	// Detector decides label merges.
	Detector *duplicate.Detector
	// EmbedTimeout bounds every embedding call.
	EmbedTimeout time.Duration
}

// DefaultConfig returns default graph configuration.
func DefaultConfig() Config {
	return Config{
		Granularity:         GranularityMonth,
		MinViews:            3,
		SimilarityThreshold: 0.75,
		MaxBranchCandidates: 3,
		ForbiddenTopics:     DefaultForbiddenTopics,
		Detector:            duplicate.NewDetector(),
		EmbedTimeout:        timeout.EmbeddingTimeout,
	}
}
