// Package timeout defines centralized timeout constants for AI and API calls.
// Package timeout 定义 AI 与外部 API 调用的集中式超时常量。
package timeout

import "time"

// Per-call timeout constants. Expiry is a soft failure for the caller.
// 单次调用超时常量，超时由调用方降级处理。
const (
	// EmbeddingTimeout is the timeout for embedding one topic label.
	// EmbeddingTimeout 是单个主题标签向量生成的超时时间。
	EmbeddingTimeout = 5 * time.Second

	// ReasoningTimeout is the timeout for a branch adjudication prompt.
	// ReasoningTimeout 是分支判定提示的超时时间。
	ReasoningTimeout = 10 * time.Second

	// ClassifyTimeout is the timeout for classifying one channel.
	// ClassifyTimeout 是单个频道分类的超时时间。
	ClassifyTimeout = 15 * time.Second

	// MetadataBatchTimeout is the timeout for one metadata API request.
	// MetadataBatchTimeout 是单次元数据 API 请求的超时时间。
	MetadataBatchTimeout = 30 * time.Second
)
