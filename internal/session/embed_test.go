// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

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

func TestOpenAIEmbedderOrdersByIndex(t *testing.T) {
	var gotReq embedRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		// Vectors returned out of input order; Index carries position.
		fmt.Fprint(w, `{"data": [
			{"index": 1, "embedding": [2.0, 2.0]},
			{"index": 0, "embedding": [1.0, 1.0]}
		]}`)
	}))
	defer ts.Close()

	old := openaiEmbeddingsAPIBase
	openaiEmbeddingsAPIBase = ts.URL
	defer func() { openaiEmbeddingsAPIBase = old }()

	e := NewOpenAIEmbedder(types.EmbeddingConfig{Model: "text-embedding-3-small", APIKey: "test-key"})
	require.True(t, e.Configured())

	vectors, err := e.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{1, 1}, vectors[0])
	assert.Equal(t, []float32{2, 2}, vectors[1])

	assert.Equal(t, "text-embedding-3-small", gotReq.Model)
	assert.Equal(t, []string{"first", "second"}, gotReq.Input)
}

func TestOpenAIEmbedderRateLimitedIsTransient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	old := openaiEmbeddingsAPIBase
	openaiEmbeddingsAPIBase = ts.URL
	defer func() { openaiEmbeddingsAPIBase = old }()

	e := NewOpenAIEmbedder(types.EmbeddingConfig{Model: "m", APIKey: "k"})
	_, err := e.Embed(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.True(t, ratelimit.IsTransient(err))
}

func TestOpenAIEmbedderAuthFailureNotTransient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	old := openaiEmbeddingsAPIBase
	openaiEmbeddingsAPIBase = ts.URL
	defer func() { openaiEmbeddingsAPIBase = old }()

	e := NewOpenAIEmbedder(types.EmbeddingConfig{Model: "m", APIKey: "bad"})
	_, err := e.Embed(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.False(t, ratelimit.IsTransient(err))
}

func TestOpenAIEmbedderCountMismatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data": [{"index": 0, "embedding": [1.0]}]}`)
	}))
	defer ts.Close()

	old := openaiEmbeddingsAPIBase
	openaiEmbeddingsAPIBase = ts.URL
	defer func() { openaiEmbeddingsAPIBase = old }()

	e := NewOpenAIEmbedder(types.EmbeddingConfig{Model: "m", APIKey: "k"})
	_, err := e.Embed(context.Background(), []string{"x", "y"})
	assert.ErrorContains(t, err, "want 2")
}
