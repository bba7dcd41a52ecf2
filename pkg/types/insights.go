// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research-assistant
// pipeline: fetched papers and their annotations, cross-paper insights,
// generated research directions, persisted session bundles, and the
// per-component configuration passed into constructors.
package types

// InsightItem is one entry in a cross-paper insight list: a short label
// plus free-text detail, both produced by the deep annotation backend.
type InsightItem struct {
	Item    string `json:"item" yaml:"item"`
	Details string `json:"details,omitempty" yaml:"details,omitempty"`
}

// Insights is the cross-paper aggregate derived from annotated papers.
// It is recomputed per session and always replaced wholesale, never
// partially updated.
type Insights struct {
	CommonMethods  []InsightItem `json:"common_methods,omitempty" yaml:"common_methods,omitempty"`
	DatasetsUsed   []InsightItem `json:"datasets_used,omitempty" yaml:"datasets_used,omitempty"`
	Metrics        []InsightItem `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Limitations    []InsightItem `json:"limitations,omitempty" yaml:"limitations,omitempty"`
	ResearchGaps   []InsightItem `json:"research_gaps,omitempty" yaml:"research_gaps,omitempty"`
	EmergingThemes []InsightItem `json:"emerging_themes,omitempty" yaml:"emerging_themes,omitempty"`
}

// IsEmpty reports whether no insight list has any entries.
func (in Insights) IsEmpty() bool {
	return len(in.CommonMethods) == 0 && len(in.DatasetsUsed) == 0 &&
		len(in.Metrics) == 0 && len(in.Limitations) == 0 &&
		len(in.ResearchGaps) == 0 && len(in.EmergingThemes) == 0
}

// Direction is one generated research project proposal referencing the
// gaps and limitations found across the paper set.
type Direction struct {
	Title                string `json:"title" yaml:"title"`
	Motivation           string `json:"motivation,omitempty" yaml:"motivation,omitempty"`
	Approach             string `json:"approach,omitempty" yaml:"approach,omitempty"`
	ExpectedContribution string `json:"expected_contribution,omitempty" yaml:"expected_contribution,omitempty"`
	RequiredResources    string `json:"required_resources,omitempty" yaml:"required_resources,omitempty"`
	Timeline             string `json:"timeline,omitempty" yaml:"timeline,omitempty"`
	Difficulty           string `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
}
