// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-assistant/internal/analysis"
	"github.com/pdiddy/research-assistant/pkg/types"
)

func reportBundle() types.SessionBundle {
	return types.SessionBundle{
		Query:     "graph neural networks",
		CreatedAt: time.Date(2026, time.March, 1, 9, 30, 0, 0, time.UTC),
		Papers: []types.Paper{
			{
				ID:          "2301.00001",
				Title:       "Message Passing at Scale",
				Authors:     []string{"A. One", "B. Two"},
				Published:   time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
				URL:         "https://arxiv.org/abs/2301.00001",
				FastSummary: "Scales message passing to large graphs.",
				DeepAnalysis: &types.DeepAnalysis{
					Methods:     []string{"neighbor sampling"},
					Limitations: []string{"memory bound"},
				},
				PrimaryCategory: "cs.LG",
			},
			{
				ID:    "2301.00002",
				Title: "Unannotated Paper",
			},
		},
		Insights: types.Insights{
			CommonMethods: []types.InsightItem{{Item: "sampling", Details: "both papers"}},
		},
		Directions: []types.Direction{
			{Title: "Streaming GNNs", Motivation: "graphs change", Difficulty: "High"},
		},
	}
}

func TestBuildFullReport(t *testing.T) {
	bundle := reportBundle()
	r := analysis.Analyze(bundle.Papers, types.AnalysisConfig{})

	out := Build(bundle, r)

	assert.Contains(t, out, "# Literature Review: graph neural networks")
	assert.Contains(t, out, "Papers reviewed: 2")
	assert.Contains(t, out, "### 1. Message Passing at Scale")
	assert.Contains(t, out, "**Summary:** Scales message passing")
	assert.Contains(t, out, "- neighbor sampling")
	assert.Contains(t, out, "### Common methods")
	assert.Contains(t, out, "- **sampling**: both papers")
}

func TestBuildMarksMissingAnnotations(t *testing.T) {
	bundle := reportBundle()
	r := analysis.Analyze(bundle.Papers, types.AnalysisConfig{})

	out := Build(bundle, r)

	// The second paper has neither annotation layer.
	assert.Contains(t, out, "*Summary not available.*")
	assert.Contains(t, out, "*Deep analysis not available.*")
}

func TestBuildAllAnnotationCombos(t *testing.T) {
	papers := []types.Paper{
		{ID: "a", Title: "Both", FastSummary: "s", DeepAnalysis: &types.DeepAnalysis{Methods: []string{"m"}}},
		{ID: "b", Title: "Fast only", FastSummary: "s"},
		{ID: "c", Title: "Deep only", DeepAnalysis: &types.DeepAnalysis{Methods: []string{"m"}}},
		{ID: "d", Title: "Neither"},
	}
	bundle := types.SessionBundle{Query: "q", Papers: papers}

	out := Build(bundle, analysis.Result{})
	assert.Equal(t, 2, strings.Count(out, "*Summary not available.*"))
	assert.Equal(t, 2, strings.Count(out, "*Deep analysis not available.*"))
}

func TestBuildDeepAnalysisRawFallback(t *testing.T) {
	bundle := types.SessionBundle{
		Query: "q",
		Papers: []types.Paper{
			{ID: "a", Title: "T", DeepAnalysis: &types.DeepAnalysis{Raw: "unstructured analysis text"}},
		},
	}

	out := Build(bundle, analysis.Result{})
	assert.Contains(t, out, "**Analysis:** unstructured analysis text")
}

func TestBuildGapSectionLabeledHeuristic(t *testing.T) {
	r := analysis.Result{
		Temporal: analysis.TemporalTrends{Total: 1},
		Gaps: []analysis.Gap{
			{Kind: "category", Subject: "q-bio.NC", Details: "only 1 of 10 papers"},
		},
	}
	bundle := types.SessionBundle{Query: "q", Papers: []types.Paper{{ID: "a", Title: "T"}}}

	out := Build(bundle, r)
	assert.Contains(t, out, "## Potential Gaps")
	assert.Contains(t, out, "heuristic signals")
	assert.Contains(t, out, "Underexplored category: **q-bio.NC**")
}

func TestBuildDirections(t *testing.T) {
	out := Build(reportBundle(), analysis.Result{})
	assert.Contains(t, out, "### 1. Streaming GNNs")
	assert.Contains(t, out, "- **Motivation:** graphs change")
	assert.Contains(t, out, "- **Difficulty:** High")
	assert.NotContains(t, out, "- **Timeline:**")
}

func TestBuildComparison(t *testing.T) {
	set1 := []types.Paper{
		{ID: "a", PrimaryCategory: "cs.LG", Abstract: "a transformer",
			Published: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)},
	}
	set2 := []types.Paper{
		{ID: "b", PrimaryCategory: "cs.CV",
			Published: time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)},
	}
	cmp := analysis.Compare("diffusion", set1, "flow matching", set2)

	out := BuildComparison(cmp)
	assert.Contains(t, out, "# Topic Comparison: diffusion vs flow matching")
	assert.Contains(t, out, "| Papers | 1 | 1 |")
	assert.Contains(t, out, "## diffusion")
	assert.Contains(t, out, "## flow matching")
	assert.Contains(t, out, "| deep-learning | 1 |")
	assert.NotContains(t, out, "| generative | 0 |", "zero-count methodologies are dropped")
}

func TestSaveWritesTimestampedFile(t *testing.T) {
	dir := t.TempDir()

	path, err := Save(dir, "Graph Neural Networks!", "# report body\n")
	require.NoError(t, err)

	base := filepath.Base(path)
	assert.True(t, strings.HasPrefix(base, "graph-neural-networks-"), base)
	assert.True(t, strings.HasSuffix(base, ".md"), base)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# report body\n", string(data))
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Graph Neural Networks", "graph-neural-networks"},
		{"  spaces  everywhere  ", "spaces-everywhere"},
		{"cat:cs.LG AND ti:fancy", "cat-cs-lg-and-ti-fancy"},
		{"???", "report"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.in), tt.in)
	}
}
