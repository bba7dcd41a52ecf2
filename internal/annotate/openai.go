// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"context"
	"fmt"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// openaiAPIBase is the OpenAI chat completions endpoint. Package-level
// var for test substitution.
var openaiAPIBase = "https://api.openai.com/v1/chat/completions"

// OpenAIBackend is the deep, higher-latency analyzer. It produces the
// structured per-paper DeepAnalysis and the two set-level outputs:
// cross-paper insights and research directions.
type OpenAIBackend struct {
	chat chatClient
}

// NewOpenAIBackend builds the deep backend from cfg. The returned
// backend reports itself unconfigured when no API key is set; callers
// treat that as "deep phase skipped", not an error.
func NewOpenAIBackend(cfg types.ModelConfig) *OpenAIBackend {
	return &OpenAIBackend{chat: newChatClient(openaiAPIBase, cfg)}
}

// Name returns the backend identifier.
func (b *OpenAIBackend) Name() string { return "openai" }

// Configured reports whether the backend has a credential.
func (b *OpenAIBackend) Configured() bool { return b.chat.configured() }

// Analyze produces a structured analysis of one paper. The reply is
// parsed tolerantly: when the structured fields cannot be extracted
// the raw reply text is preserved instead of failing.
func (b *OpenAIBackend) Analyze(ctx context.Context, p types.Paper, contextText string) (*types.DeepAnalysis, error) {
	prompt, err := renderDeepPrompt(p, contextText)
	if err != nil {
		return nil, fmt.Errorf("rendering analysis prompt: %w", err)
	}
	reply, err := b.chat.complete(ctx, prompt, true)
	if err != nil {
		return nil, err
	}
	return parseDeepAnalysis(reply), nil
}

// ExtractInsights runs one set-level call over the annotated papers
// and returns cross-paper commonalities.
func (b *OpenAIBackend) ExtractInsights(ctx context.Context, papers []types.Paper) (*types.Insights, error) {
	prompt, err := renderInsightsPrompt(papers)
	if err != nil {
		return nil, fmt.Errorf("rendering insights prompt: %w", err)
	}
	reply, err := b.chat.complete(ctx, prompt, true)
	if err != nil {
		return nil, err
	}
	return parseInsights(reply)
}

// GenerateDirections runs one set-level call producing project
// proposals that reference the identified gaps.
func (b *OpenAIBackend) GenerateDirections(ctx context.Context, paperCount int, insights types.Insights) ([]types.Direction, error) {
	prompt, err := renderDirectionsPrompt(paperCount, insights)
	if err != nil {
		return nil, fmt.Errorf("rendering directions prompt: %w", err)
	}
	reply, err := b.chat.complete(ctx, prompt, true)
	if err != nil {
		return nil, err
	}
	return parseDirections(reply)
}
