// Package reasoning asks the language model whether one topic grew out of another.
package reasoning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/interestgraph/plugin/ai"
	"github.com/hrygo/interestgraph/plugin/ai/timeout"
)

// Decision is the outcome of one continuation check.
type Decision struct {
	// Value is true when the child topic continues the parent.
	Value bool
	// Fallback is set when the model could not be asked and Value is the default.
	Fallback bool
	Err      error
}

// Adjudicator answers continuation questions with a chat model.
type Adjudicator struct {
	llm     ai.LLMService
	timeout time.Duration
}

// NewAdjudicator creates an Adjudicator using the reasoning timeout.
func NewAdjudicator(llm ai.LLMService) *Adjudicator {
	return &Adjudicator{llm: llm, timeout: timeout.ReasoningTimeout}
}

// Prompt returns the yes/no question asked for a parent and child topic.
func Prompt(parent, child string) string {
	return fmt.Sprintf("Does the topic '%s' represent a logical evolution, "+
		"sub-topic, or continuation of the earlier interest '%s'? "+
		"Answer only YES or NO.", child, parent)
}

// IsContinuation reports whether child is a logical continuation of parent.
// Any failure yields a negative fallback decision.
func (a *Adjudicator) IsContinuation(ctx context.Context, parent, child string) Decision {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	answer, err := a.llm.Chat(callCtx, []ai.Message{ai.UserMessage(Prompt(parent, child))})
	if err != nil {
		return Decision{Fallback: true, Err: fmt.Errorf("continuation %q -> %q: %w", parent, child, err)}
	}
	return Decision{Value: strings.Contains(strings.ToUpper(answer), "YES")}
}
