// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// groqAPIBase is the Groq OpenAI-compatible chat completions endpoint.
// Package-level var for test substitution.
var groqAPIBase = "https://api.groq.com/openai/v1/chat/completions"

// GroqBackend is the fast, low-latency summarizer. It produces the
// short per-paper FastSummary.
type GroqBackend struct {
	chat chatClient
}

// NewGroqBackend builds the fast backend from cfg. The returned
// backend reports itself unconfigured when no API key is set.
func NewGroqBackend(cfg types.ModelConfig) *GroqBackend {
	return &GroqBackend{chat: newChatClient(groqAPIBase, cfg)}
}

// Name returns the backend identifier.
func (b *GroqBackend) Name() string { return "groq" }

// Configured reports whether the backend has a credential.
func (b *GroqBackend) Configured() bool { return b.chat.configured() }

// Summarize produces a short technical summary of one paper from its
// title and abstract.
func (b *GroqBackend) Summarize(ctx context.Context, p types.Paper) (string, error) {
	prompt, err := renderFastPrompt(p)
	if err != nil {
		return "", fmt.Errorf("rendering summary prompt: %w", err)
	}
	reply, err := b.chat.complete(ctx, prompt, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}
