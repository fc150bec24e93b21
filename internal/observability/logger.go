package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// LogFieldRunID is the field name for the pipeline run ID.
	LogFieldRunID = "run_id"
	// LogFieldStage is the field name for the pipeline stage.
	LogFieldStage = "stage"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
)

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return l, nil
}

// NewLogger builds a text or json logger writing to w and installs it as
// the slog default.
func NewLogger(level, format string, w io.Writer) (*slog.Logger, error) {
	l, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: l}
	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("invalid log format %q: must be text or json", format)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}

// RunContext represents one pipeline stage invocation with structured logging.
type RunContext struct {
	RunID     string
	Stage     string
	StartTime time.Time
	Logger    *slog.Logger
}

// NewRunContext creates a run context with a generated run ID.
func NewRunContext(logger *slog.Logger, stage string) *RunContext {
	return NewRunContextWithID(logger, uuid.New().String(), stage)
}

// NewRunContextWithID creates a run context with a specific run ID, used to
// share one ID across the stages of a full run.
func NewRunContextWithID(logger *slog.Logger, runID, stage string) *RunContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunContext{
		RunID:     runID,
		Stage:     stage,
		StartTime: time.Now(),
		Logger:    logger,
	}
}

// NextStage returns a context for the next stage of the same run.
func (r *RunContext) NextStage(stage string) *RunContext {
	return NewRunContextWithID(r.Logger, r.RunID, stage)
}

// Info logs an info message.
func (r *RunContext) Info(msg string, args ...any) {
	r.log(slog.LevelInfo, msg, args...)
}

// Debug logs a debug message.
func (r *RunContext) Debug(msg string, args ...any) {
	r.log(slog.LevelDebug, msg, args...)
}

// Warn logs a warning message.
func (r *RunContext) Warn(msg string, args ...any) {
	r.log(slog.LevelWarn, msg, args...)
}

// Error logs an error message with the error.
func (r *RunContext) Error(msg string, err error, args ...any) {
	r.log(slog.LevelError, msg, append(args, "error", err)...)
}

// Done logs the completion of the stage with its duration.
func (r *RunContext) Done(msg string, args ...any) {
	r.log(slog.LevelInfo, msg, append(args, LogFieldDuration, r.DurationMs())...)
}

// Duration returns the elapsed time since the stage started.
func (r *RunContext) Duration() time.Duration {
	return time.Since(r.StartTime)
}

// DurationMs returns the elapsed time in milliseconds.
func (r *RunContext) DurationMs() int64 {
	return r.Duration().Milliseconds()
}

func (r *RunContext) log(level slog.Level, msg string, args ...any) {
	r.Logger.With(LogFieldRunID, r.RunID, LogFieldStage, r.Stage).Log(context.Background(), level, msg, args...)
}

type ctxKey struct{}

// WithRunContext adds the run context to the context.
func WithRunContext(ctx context.Context, runCtx *RunContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, runCtx)
}

// FromContext extracts the run context from the context.
func FromContext(ctx context.Context) (*RunContext, bool) {
	runCtx, ok := ctx.Value(ctxKey{}).(*RunContext)
	return runCtx, ok
}

// Logger returns the logger of the run in ctx tagged with its run ID and
// stage, or the default logger when ctx carries no run.
func Logger(ctx context.Context) *slog.Logger {
	if rc, ok := FromContext(ctx); ok {
		return rc.Logger.With(LogFieldRunID, rc.RunID, LogFieldStage, rc.Stage)
	}
	return slog.Default()
}
