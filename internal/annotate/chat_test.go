// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-assistant/internal/ratelimit"
	"github.com/pdiddy/research-assistant/pkg/types"
)

func chatReply(text string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": text}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestGroqSummarize(t *testing.T) {
	var gotReq chatRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		fmt.Fprint(w, chatReply("  A crisp technical summary.  "))
	}))
	defer ts.Close()

	old := groqAPIBase
	groqAPIBase = ts.URL
	defer func() { groqAPIBase = old }()

	b := NewGroqBackend(types.ModelConfig{
		Model:       "llama-3.3-70b-versatile",
		APIKey:      "test-key",
		Temperature: 0.3,
	})
	require.True(t, b.Configured())

	summary, err := b.Summarize(context.Background(), types.Paper{
		Title:    "Diffusion Models Survey",
		Abstract: "We survey diffusion models.",
	})
	require.NoError(t, err)
	assert.Equal(t, "A crisp technical summary.", summary)

	assert.Equal(t, "llama-3.3-70b-versatile", gotReq.Model)
	require.Len(t, gotReq.Messages, 1)
	assert.Contains(t, gotReq.Messages[0].Content, "Diffusion Models Survey")
	assert.Nil(t, gotReq.ResponseFormat)
}

func TestOpenAIAnalyzeRequestsJSON(t *testing.T) {
	var gotReq chatRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		fmt.Fprint(w, chatReply(`{"methods": ["score matching"]}`))
	}))
	defer ts.Close()

	old := openaiAPIBase
	openaiAPIBase = ts.URL
	defer func() { openaiAPIBase = old }()

	b := NewOpenAIBackend(types.ModelConfig{Model: "gpt-4o", APIKey: "k"})
	da, err := b.Analyze(context.Background(), types.Paper{Title: "T", Abstract: "A"}, "1. Other (2026)")
	require.NoError(t, err)
	assert.Equal(t, []string{"score matching"}, da.Methods)

	require.NotNil(t, gotReq.ResponseFormat)
	assert.Equal(t, "json_object", gotReq.ResponseFormat.Type)
	assert.Contains(t, gotReq.Messages[0].Content, "1. Other (2026)")
}

func TestChatTransientStatusMarked(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	c := newChatClient(ts.URL, types.ModelConfig{Model: "m", APIKey: "k"})
	_, err := c.complete(context.Background(), "hi", false)
	require.Error(t, err)
	assert.True(t, ratelimit.IsTransient(err))
}

func TestChatAuthFailureNotTransient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	c := newChatClient(ts.URL, types.ModelConfig{Model: "m", APIKey: "bad"})
	_, err := c.complete(context.Background(), "hi", false)
	require.Error(t, err)
	assert.False(t, ratelimit.IsTransient(err))
}

func TestChatEmptyChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"choices": []}`)
	}))
	defer ts.Close()

	c := newChatClient(ts.URL, types.ModelConfig{Model: "m", APIKey: "k"})
	_, err := c.complete(context.Background(), "hi", false)
	assert.ErrorContains(t, err, "no choices")
}
