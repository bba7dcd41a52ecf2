// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package arxiv

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-assistant/internal/analysis"
	"github.com/pdiddy/research-assistant/internal/annotate"
	"github.com/pdiddy/research-assistant/internal/ratelimit"
	"github.com/pdiddy/research-assistant/internal/report"
	"github.com/pdiddy/research-assistant/pkg/types"
)

type flowSummarizer struct{}

func (flowSummarizer) Name() string     { return "flow-fast" }
func (flowSummarizer) Configured() bool { return true }
func (flowSummarizer) Summarize(_ context.Context, p types.Paper) (string, error) {
	return "Summary: " + p.Title, nil
}

type flowAnalyzer struct{}

func (flowAnalyzer) Name() string     { return "flow-deep" }
func (flowAnalyzer) Configured() bool { return true }

func (flowAnalyzer) Analyze(_ context.Context, p types.Paper, _ string) (*types.DeepAnalysis, error) {
	return &types.DeepAnalysis{
		Methods:     []string{"method of " + p.ID},
		Limitations: []string{"small sample"},
	}, nil
}

func (flowAnalyzer) ExtractInsights(_ context.Context, papers []types.Paper) (*types.Insights, error) {
	return &types.Insights{
		CommonMethods: []types.InsightItem{{Item: "shared method", Details: fmt.Sprintf("%d papers", len(papers))}},
	}, nil
}

func (flowAnalyzer) GenerateDirections(_ context.Context, _ int, _ types.Insights) ([]types.Direction, error) {
	return []types.Direction{{Title: "Follow-up Study", Difficulty: "Medium"}}, nil
}

// TestResearchFlowTwoPapers drives the pipeline end to end: fetch two
// papers from a stubbed arXiv feed, annotate both layers, aggregate,
// and render the report.
func TestResearchFlowTwoPapers(t *testing.T) {
	feed := feedXML(
		atomEntryXML("2401.00001", "Sparse Attention Revisited", time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)),
		atomEntryXML("2401.00002", "Dense Retrieval Baselines", time.Date(2026, time.January, 20, 0, 0, 0, 0, time.UTC)),
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, feed)
	}))
	defer ts.Close()

	client := testClient(ts.URL, 25)
	ctx := context.Background()

	papers, skipped, err := client.Fetch(ctx, "attention retrieval", FetchOptions{MaxResults: 10})
	require.NoError(t, err)
	require.Len(t, papers, 2)
	assert.Zero(t, skipped)

	annotator := &annotate.Annotator{
		Fast: flowSummarizer{},
		Deep: flowAnalyzer{},
		Limiter: ratelimit.New(types.RateLimitConfig{
			BackoffBase:    time.Millisecond,
			BackoffCeiling: 2 * time.Millisecond,
		}),
	}

	var progress bytes.Buffer
	papers, err = annotator.Annotate(ctx, papers, true, &progress)
	require.NoError(t, err)
	for _, p := range papers {
		assert.True(t, p.Annotated())
		require.NotNil(t, p.DeepAnalysis)
	}

	insights := annotator.ExtractInsights(ctx, papers, &progress)
	directions := annotator.GenerateDirections(ctx, papers, insights, &progress)
	require.False(t, insights.IsEmpty())
	require.Len(t, directions, 1)

	result := analysis.Analyze(papers, types.AnalysisConfig{})
	// January and March observed, February zero-filled in between.
	require.Len(t, result.Temporal.ByMonth, 3)
	assert.Equal(t, 0, result.Temporal.ByMonth[1].Count)

	bundle := types.SessionBundle{
		Query:      "attention retrieval",
		CreatedAt:  time.Now().UTC(),
		Papers:     papers,
		Insights:   insights,
		Directions: directions,
	}
	out := report.Build(bundle, result)

	assert.Contains(t, out, "# Literature Review: attention retrieval")
	assert.Contains(t, out, "Sparse Attention Revisited")
	assert.Contains(t, out, "Summary: Dense Retrieval Baselines")
	assert.Contains(t, out, "- method of 2401.00001")
	assert.Contains(t, out, "### 1. Follow-up Study")
	assert.NotContains(t, out, "not available")
}
