// Package classify names a YouTube channel with a short topic label.
package classify

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/hrygo/interestgraph/plugin/ai"
	"github.com/hrygo/interestgraph/plugin/ai/timeout"
)

// UnknownLabel is assigned when a channel cannot be classified.
const UnknownLabel = "Unknown"

//go:embed category.schema.json
var categorySchemaJSON string

// Request describes one channel.
type Request struct {
	ChannelName string
	Category    string   // YouTube category id
	Description string   // channel description, possibly empty
	Videos      []string // up to 3 video summaries
}

// Result is the label of a channel. Fallback is set when Label is the
// UnknownLabel default because the model call or its answer failed.
type Result struct {
	Label    string
	Fallback bool
	Err      error
}

// Classifier labels channels with a chat model.
type Classifier struct {
	llm     ai.LLMService
	schema  *jsonschema.Schema
	timeout time.Duration
}

// NewClassifier creates a Classifier using the classification timeout.
func NewClassifier(llm ai.LLMService) (*Classifier, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	if err := compiler.AddResource("category.schema.json", strings.NewReader(categorySchemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile("category.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return &Classifier{llm: llm, schema: schema, timeout: timeout.ClassifyTimeout}, nil
}

// Classify returns the label of a channel. It never fails: errors are
// reported in Result.Err with the UnknownLabel fallback.
func (c *Classifier) Classify(ctx context.Context, req Request) Result {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	answer, err := c.llm.Chat(callCtx, []ai.Message{ai.UserMessage(BuildPrompt(req))}, ai.WithJSONResponse())
	if err != nil {
		return fallback(fmt.Errorf("classify %q: %w", req.ChannelName, err))
	}

	label, err := c.parse(answer)
	if err != nil {
		return fallback(fmt.Errorf("classify %q: %w", req.ChannelName, err))
	}
	return Result{Label: label}
}

// parse validates the model answer and extracts the category.
func (c *Classifier) parse(answer string) (string, error) {
	raw := bytes.TrimSpace([]byte(stripCodeFence(answer)))
	if len(raw) == 0 {
		return "", fmt.Errorf("empty answer")
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return "", fmt.Errorf("decode answer: %w", err)
	}
	if err := c.schema.Validate(value); err != nil {
		return "", fmt.Errorf("schema validation failed: %w", err)
	}

	var out struct {
		Category string `json:"category"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("unmarshal answer: %w", err)
	}
	return strings.TrimSpace(out.Category), nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}

func fallback(err error) Result {
	return Result{Label: UnknownLabel, Fallback: true, Err: err}
}
