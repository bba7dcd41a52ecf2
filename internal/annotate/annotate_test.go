// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-assistant/internal/ratelimit"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// --- mock backends ---

type mockSummarizer struct {
	configured bool
	failIDs    map[string]bool
	calls      int
}

func (m *mockSummarizer) Name() string     { return "mock-fast" }
func (m *mockSummarizer) Configured() bool { return m.configured }

func (m *mockSummarizer) Summarize(_ context.Context, p types.Paper) (string, error) {
	m.calls++
	if m.failIDs[p.ID] {
		return "", errors.New("model error")
	}
	return "summary of " + p.Title, nil
}

type mockAnalyzer struct {
	configured  bool
	failAll     bool
	rejectAll   bool
	insights    types.Insights
	insightsErr error
	directions  []types.Direction
	dirErr      error
	calls       int
}

func (m *mockAnalyzer) Name() string     { return "mock-deep" }
func (m *mockAnalyzer) Configured() bool { return m.configured }

func (m *mockAnalyzer) Analyze(_ context.Context, p types.Paper, _ string) (*types.DeepAnalysis, error) {
	m.calls++
	if m.rejectAll {
		return nil, errors.New("HTTP 401: bad key")
	}
	if m.failAll {
		return nil, ratelimit.Transient(errors.New("HTTP 500"))
	}
	return &types.DeepAnalysis{Methods: []string{"method for " + p.ID}}, nil
}

func (m *mockAnalyzer) ExtractInsights(_ context.Context, papers []types.Paper) (*types.Insights, error) {
	if m.insightsErr != nil {
		return nil, m.insightsErr
	}
	return &m.insights, nil
}

func (m *mockAnalyzer) GenerateDirections(_ context.Context, _ int, _ types.Insights) ([]types.Direction, error) {
	if m.dirErr != nil {
		return nil, m.dirErr
	}
	return m.directions, nil
}

func testAnnotator(fast Summarizer, deep Analyzer) *Annotator {
	return &Annotator{
		Fast: fast,
		Deep: deep,
		Limiter: ratelimit.New(types.RateLimitConfig{
			DefaultLimit:   types.BackendLimit{MaxRetries: 1},
			BackoffBase:    time.Millisecond,
			BackoffCeiling: 2 * time.Millisecond,
		}),
	}
}

func testPapers() []types.Paper {
	return []types.Paper{
		{ID: "2301.00001", Title: "Paper One", Abstract: "About one."},
		{ID: "2301.00002", Title: "Paper Two", Abstract: "About two."},
	}
}

// --- Annotate ---

func TestAnnotateFastAndDeep(t *testing.T) {
	fast := &mockSummarizer{configured: true}
	deep := &mockAnalyzer{configured: true}
	a := testAnnotator(fast, deep)

	var buf bytes.Buffer
	papers, err := a.Annotate(context.Background(), testPapers(), true, &buf)
	require.NoError(t, err)
	require.Len(t, papers, 2)

	for _, p := range papers {
		assert.NotEmpty(t, p.FastSummary)
		require.NotNil(t, p.DeepAnalysis)
		assert.Equal(t, []string{"method for " + p.ID}, p.DeepAnalysis.Methods)
	}
}

func TestAnnotateSinglePaperFastFailureAbsorbed(t *testing.T) {
	fast := &mockSummarizer{configured: true, failIDs: map[string]bool{"2301.00001": true}}
	a := testAnnotator(fast, nil)

	var buf bytes.Buffer
	papers, err := a.Annotate(context.Background(), testPapers(), false, &buf)
	require.NoError(t, err)

	assert.Empty(t, papers[0].FastSummary)
	assert.NotEmpty(t, papers[1].FastSummary)
	assert.Contains(t, buf.String(), "summary failed for 2301.00001")
}

func TestAnnotateDeepUnavailableDegrades(t *testing.T) {
	fast := &mockSummarizer{configured: true}
	deep := &mockAnalyzer{configured: false}
	a := testAnnotator(fast, deep)

	var buf bytes.Buffer
	papers, err := a.Annotate(context.Background(), testPapers(), true, &buf)
	require.NoError(t, err, "degraded fast-only mode is a terminal state, not an error")

	for _, p := range papers {
		assert.NotEmpty(t, p.FastSummary)
		assert.Nil(t, p.DeepAnalysis)
	}
	assert.Contains(t, buf.String(), "deep backend not configured")
}

func TestAnnotateDeepRejectedSkipsRemaining(t *testing.T) {
	fast := &mockSummarizer{configured: true}
	deep := &mockAnalyzer{configured: true, rejectAll: true}
	a := testAnnotator(fast, deep)

	var buf bytes.Buffer
	papers, err := a.Annotate(context.Background(), testPapers(), true, &buf)
	require.NoError(t, err)

	// One rejected call, then the phase is abandoned.
	assert.Equal(t, 1, deep.calls)
	for _, p := range papers {
		assert.Nil(t, p.DeepAnalysis)
	}
}

func TestAnnotateWithoutDeepRequested(t *testing.T) {
	fast := &mockSummarizer{configured: true}
	deep := &mockAnalyzer{configured: true}
	a := testAnnotator(fast, deep)

	var buf bytes.Buffer
	papers, err := a.Annotate(context.Background(), testPapers(), false, &buf)
	require.NoError(t, err)

	assert.Equal(t, 0, deep.calls)
	for _, p := range papers {
		assert.Nil(t, p.DeepAnalysis)
	}
}

func TestAnnotateContextCancelledStops(t *testing.T) {
	fast := &mockSummarizer{configured: true}
	a := testAnnotator(fast, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	_, err := a.Annotate(ctx, testPapers(), false, &buf)
	assert.ErrorIs(t, err, context.Canceled)
}

// --- set-level operations ---

func TestExtractInsightsFiltersUnannotated(t *testing.T) {
	deep := &mockAnalyzer{configured: true, insights: types.Insights{
		CommonMethods: []types.InsightItem{{Item: "transformers"}},
	}}
	a := testAnnotator(nil, deep)

	papers := []types.Paper{
		{ID: "a", FastSummary: "has one"},
		{ID: "b"}, // no annotations, excluded from aggregates
	}

	var buf bytes.Buffer
	insights := a.ExtractInsights(context.Background(), papers, &buf)
	assert.Equal(t, "transformers", insights.CommonMethods[0].Item)
}

func TestExtractInsightsBestEffort(t *testing.T) {
	deep := &mockAnalyzer{configured: true, insightsErr: errors.New("boom")}
	a := testAnnotator(nil, deep)

	papers := []types.Paper{{ID: "a", FastSummary: "s"}}

	var buf bytes.Buffer
	insights := a.ExtractInsights(context.Background(), papers, &buf)
	assert.True(t, insights.IsEmpty())
	assert.Contains(t, buf.String(), "insight extraction failed")
}

func TestExtractInsightsNoAnnotatedPapers(t *testing.T) {
	deep := &mockAnalyzer{configured: true}
	a := testAnnotator(nil, deep)

	var buf bytes.Buffer
	insights := a.ExtractInsights(context.Background(), []types.Paper{{ID: "a"}}, &buf)
	assert.True(t, insights.IsEmpty())
}

func TestGenerateDirectionsBestEffort(t *testing.T) {
	deep := &mockAnalyzer{configured: true, dirErr: errors.New("boom")}
	a := testAnnotator(nil, deep)

	papers := []types.Paper{{ID: "a", FastSummary: "s"}}
	insights := types.Insights{ResearchGaps: []types.InsightItem{{Item: "gap"}}}

	var buf bytes.Buffer
	directions := a.GenerateDirections(context.Background(), papers, insights, &buf)
	assert.Empty(t, directions)
	assert.Contains(t, buf.String(), "direction generation failed")
}

func TestGenerateDirections(t *testing.T) {
	deep := &mockAnalyzer{configured: true, directions: []types.Direction{
		{Title: "Project X", Difficulty: "Medium"},
	}}
	a := testAnnotator(nil, deep)

	papers := []types.Paper{{ID: "a", FastSummary: "s"}}
	insights := types.Insights{ResearchGaps: []types.InsightItem{{Item: "gap"}}}

	var buf bytes.Buffer
	directions := a.GenerateDirections(context.Background(), papers, insights, &buf)
	require.Len(t, directions, 1)
	assert.Equal(t, "Project X", directions[0].Title)
}

// --- prompt helpers ---

func TestPrepareContextTopFive(t *testing.T) {
	var papers []types.Paper
	for i := 0; i < 7; i++ {
		papers = append(papers, types.Paper{
			Title:     fmt.Sprintf("Paper %d", i),
			Published: time.Date(2026, time.January, i+1, 0, 0, 0, 0, time.UTC),
		})
	}
	ctx := prepareContext(papers)
	assert.Contains(t, ctx, "1. Paper 0 (2026)")
	assert.Contains(t, ctx, "5. Paper 4 (2026)")
	assert.NotContains(t, ctx, "Paper 5")
}

func TestFormatItems(t *testing.T) {
	assert.Equal(t, "None identified", formatItems(nil))

	items := []types.InsightItem{{Item: "a", Details: "d"}, {Item: "b"}}
	got := formatItems(items)
	assert.Contains(t, got, "- a: d")
	assert.Contains(t, got, "- b")
}
