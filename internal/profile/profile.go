package profile

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read through viper.
const EnvPrefix = "INTERESTGRAPH"

// Profile is the configuration of one pipeline invocation.
type Profile struct {
	// Data is the directory holding every artifact and cache.
	Data string

	// Logging
	LogLevel  string // INTERESTGRAPH_LOG_LEVEL (default: info)
	LogFormat string // INTERESTGRAPH_LOG_FORMAT (default: text)

	// YouTube Data API
	YouTubeAPIKey  string  // INTERESTGRAPH_YOUTUBE_API_KEY (legacy: YOUTUBE_API_KEY)
	YouTubeBaseURL string  // INTERESTGRAPH_YOUTUBE_BASE_URL (default: https://www.googleapis.com/youtube/v3)
	YouTubeQPS     float64 // INTERESTGRAPH_YOUTUBE_QPS (default: 5)

	// AI Configuration
	AIProvider       string // INTERESTGRAPH_AI_PROVIDER (default: ollama)
	AIBaseURL        string // INTERESTGRAPH_AI_BASE_URL (legacy: OLLAMA_URL, default: http://localhost:11434)
	AIAPIKey         string // INTERESTGRAPH_AI_API_KEY
	AIEmbeddingModel string // INTERESTGRAPH_AI_EMBEDDING_MODEL (default: llama3.1:latest)
	AIChatModel      string // INTERESTGRAPH_AI_CHAT_MODEL (legacy: MODEL, default: llama3.1:latest)

	// Graph Configuration
	Granularity         string  // month or week
	MinViews            int     // minimum videos per kept node
	SimilarityThreshold float64 // branch candidate floor
	MergeThreshold      float64 // duplicate label threshold
	ConflictFloor       float64 // lower bound of the related band
	MaxBranchCandidates int
	RulesFile           string // optional YAML with topic rules

	// CacheDriver stores the embedding and reasoning caches ("json" or "sqlite").
	CacheDriver string
}

// Configuration keys, shared by flags, config files and environment variables.
const (
	KeyData                = "data"
	KeyLogLevel            = "log.level"
	KeyLogFormat           = "log.format"
	KeyYouTubeAPIKey       = "youtube.api_key"
	KeyYouTubeBaseURL      = "youtube.base_url"
	KeyYouTubeQPS          = "youtube.qps"
	KeyAIProvider          = "ai.provider"
	KeyAIBaseURL           = "ai.base_url"
	KeyAIAPIKey            = "ai.api_key"
	KeyAIEmbeddingModel    = "ai.embedding_model"
	KeyAIChatModel         = "ai.chat_model"
	KeyGranularity         = "graph.granularity"
	KeyMinViews            = "graph.min_views"
	KeySimilarityThreshold = "graph.similarity_threshold"
	KeyMergeThreshold      = "graph.merge_threshold"
	KeyConflictFloor       = "graph.conflict_floor"
	KeyMaxBranchCandidates = "graph.max_branch_candidates"
	KeyRulesFile           = "graph.rules_file"
	KeyCacheDriver         = "cache.driver"
)

// SetDefaults registers the built-in defaults and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyData, "data")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyYouTubeBaseURL, "https://www.googleapis.com/youtube/v3")
	v.SetDefault(KeyYouTubeQPS, 5.0)
	v.SetDefault(KeyAIProvider, "ollama")
	v.SetDefault(KeyAIBaseURL, "http://localhost:11434")
	v.SetDefault(KeyAIEmbeddingModel, "llama3.1:latest")
	v.SetDefault(KeyAIChatModel, "llama3.1:latest")
	v.SetDefault(KeyGranularity, "month")
	v.SetDefault(KeyMinViews, 3)
	v.SetDefault(KeySimilarityThreshold, 0.75)
	v.SetDefault(KeyMergeThreshold, 0.92)
	v.SetDefault(KeyConflictFloor, 0.80)
	v.SetDefault(KeyMaxBranchCandidates, 3)
	v.SetDefault(KeyCacheDriver, "json")

	// graph.min_views -> INTERESTGRAPH_GRAPH_MIN_VIEWS
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Names used by the original scripts are still honored.
	for key, envs := range map[string][]string{
		KeyYouTubeAPIKey: {EnvPrefix + "_YOUTUBE_API_KEY", "YOUTUBE_API_KEY"},
		KeyAIBaseURL:     {EnvPrefix + "_AI_BASE_URL", "OLLAMA_URL"},
		KeyAIChatModel:   {EnvPrefix + "_AI_CHAT_MODEL", "MODEL"},
		KeyAIAPIKey:      {EnvPrefix + "_AI_API_KEY", "OPENAI_API_KEY"},
	} {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			panic(err)
		}
	}
}

// Load reads a Profile out of v.
func Load(v *viper.Viper) *Profile {
	return &Profile{
		Data:                v.GetString(KeyData),
		LogLevel:            v.GetString(KeyLogLevel),
		LogFormat:           v.GetString(KeyLogFormat),
		YouTubeAPIKey:       v.GetString(KeyYouTubeAPIKey),
		YouTubeBaseURL:      v.GetString(KeyYouTubeBaseURL),
		YouTubeQPS:          v.GetFloat64(KeyYouTubeQPS),
		AIProvider:          v.GetString(KeyAIProvider),
		AIBaseURL:           v.GetString(KeyAIBaseURL),
		AIAPIKey:            v.GetString(KeyAIAPIKey),
		AIEmbeddingModel:    v.GetString(KeyAIEmbeddingModel),
		AIChatModel:         v.GetString(KeyAIChatModel),
		Granularity:         v.GetString(KeyGranularity),
		MinViews:            v.GetInt(KeyMinViews),
		SimilarityThreshold: v.GetFloat64(KeySimilarityThreshold),
		MergeThreshold:      v.GetFloat64(KeyMergeThreshold),
		ConflictFloor:       v.GetFloat64(KeyConflictFloor),
		MaxBranchCandidates: v.GetInt(KeyMaxBranchCandidates),
		RulesFile:           v.GetString(KeyRulesFile),
		CacheDriver:         v.GetString(KeyCacheDriver),
	}
}

// HasYouTubeAPIKey reports whether the metadata API can be called.
func (p *Profile) HasYouTubeAPIKey() bool {
	return p.YouTubeAPIKey != ""
}

func checkDataDir(dataDir string) (string, error) {
	absDir, err := filepath.Abs(dataDir)
	if err != nil {
		return "", errors.Wrapf(err, "unable to resolve data folder %s", dataDir)
	}

	// Trim trailing \ or / in case user supplies
	absDir = strings.TrimRight(absDir, "\\/")
	if _, err := os.Stat(absDir); os.IsNotExist(err) {
		if err := os.MkdirAll(absDir, 0o755); err != nil {
			return "", errors.Wrapf(err, "unable to create data folder %s", absDir)
		}
	} else if err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", absDir)
	}
	return absDir, nil
}

func (p *Profile) Validate() error {
	switch p.Granularity {
	case "month", "week":
	default:
		return errors.Errorf("invalid granularity %q: must be month or week", p.Granularity)
	}
	if p.MinViews < 1 {
		return errors.Errorf("invalid min views %d: must be at least 1", p.MinViews)
	}
	for name, v := range map[string]float64{
		"similarity threshold": p.SimilarityThreshold,
		"merge threshold":      p.MergeThreshold,
		"conflict floor":       p.ConflictFloor,
	} {
		if v < -1 || v > 1 {
			return errors.Errorf("invalid %s %v: must be within [-1, 1]", name, v)
		}
	}
	if p.ConflictFloor > p.MergeThreshold {
		return errors.Errorf("conflict floor %v exceeds merge threshold %v", p.ConflictFloor, p.MergeThreshold)
	}
	if p.MaxBranchCandidates < 1 {
		p.MaxBranchCandidates = 3
	}
	if p.YouTubeQPS <= 0 {
		return errors.Errorf("invalid youtube qps %v: must be positive", p.YouTubeQPS)
	}
	switch p.CacheDriver {
	case "json", "sqlite":
	default:
		return errors.Errorf("invalid cache driver %q: must be json or sqlite", p.CacheDriver)
	}
	switch p.AIProvider {
	case "ollama":
	case "openai":
		if p.AIAPIKey == "" {
			return errors.New("AI API key is required for the openai provider")
		}
	default:
		return errors.Errorf("invalid AI provider %q: must be ollama or openai", p.AIProvider)
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	return nil
}
