// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// fastSummaryTmpl asks the fast backend for a short technical summary
// of one paper from its title and abstract.
var fastSummaryTmpl = template.Must(template.New("fast-summary").Parse(`Summarize this research paper in 2-3 clear, technical sentences.

Title: {{.Title}}
Abstract: {{.Abstract}}

Focus on:
1. Main contribution or novelty
2. Methods or techniques used
3. Key results or findings

Be specific and technical. Avoid generic statements.`))

// deepAnalysisTmpl asks the deep backend for a structured per-paper
// analysis, returned as a JSON object.
var deepAnalysisTmpl = template.Must(template.New("deep-analysis").Parse(`Analyze this research paper in detail:

Title: {{.Title}}
Authors: {{.Authors}}
Published: {{.Published}}
Abstract: {{.Abstract}}

Related recent papers:
{{.Context}}

Provide a structured analysis:

1. NOVEL CONTRIBUTIONS (what's genuinely new?)
2. METHODS AND TECHNIQUES (specific algorithms, architectures, approaches)
3. KEY RESULTS (metrics, performance, findings)
4. LIMITATIONS (explicitly stated or implied)
5. RELATIONS (how it builds on or differs from related work)
6. POTENTIAL APPLICATIONS (practical use cases)

Be specific, technical, and objective. Respond with a JSON object with keys: contributions, methods, results, limitations, relations, applications (each as an array of strings). Do not include any text outside the JSON object.`))

// insightsTmpl asks the deep backend for cross-paper patterns over the
// whole annotated set in one call.
var insightsTmpl = template.Must(template.New("insights").Parse(`Analyze these {{.Count}} research papers and identify patterns:

{{.Summaries}}

Provide a comprehensive analysis:

1. COMMON METHODS: Which techniques/frameworks appear across multiple papers?
2. DATASETS USED: What datasets are commonly used? Any gaps?
3. EVALUATION METRICS: What metrics are used? Are they consistent?
4. RECURRING LIMITATIONS: What limitations appear across papers?
5. RESEARCH GAPS: What areas are underexplored?
6. EMERGING THEMES: What new directions are emerging?

Respond with a JSON object with keys: common_methods, datasets_used, metrics, limitations, research_gaps, emerging_themes (each as an array of objects with "item" and "details" fields). Do not include any text outside the JSON object.`))

// directionsTmpl asks the deep backend to propose research projects
// addressing the identified gaps and limitations.
var directionsTmpl = template.Must(template.New("directions").Parse(`Based on analysis of {{.Count}} recent papers:

Research Gaps Identified:
{{.Gaps}}

Emerging Themes:
{{.Themes}}

Common Limitations:
{{.Limitations}}

Generate 3-5 concrete research project ideas that address these gaps and limitations.

For each project, provide:
1. title: Catchy, descriptive title
2. motivation: Why this matters (2-3 sentences)
3. approach: How to tackle it (specific methods)
4. expected_contribution: What's novel
5. required_resources: Compute, data, expertise needed
6. timeline: Rough estimate (weeks/months)
7. difficulty: Low/Medium/High

Respond with a JSON object of the form {"projects": [...]} where each element has the keys above. Do not include any text outside the JSON object.`))

// renderFastPrompt fills the fast-summary template for one paper.
func renderFastPrompt(p types.Paper) (string, error) {
	var buf bytes.Buffer
	err := fastSummaryTmpl.Execute(&buf, struct {
		Title    string
		Abstract string
	}{p.Title, p.Abstract})
	return buf.String(), err
}

// renderDeepPrompt fills the deep-analysis template for one paper plus
// a context listing of related papers.
func renderDeepPrompt(p types.Paper, contextText string) (string, error) {
	authors := p.Authors
	if len(authors) > 5 {
		authors = authors[:5]
	}
	published := ""
	if !p.Published.IsZero() {
		published = p.Published.Format("2006-01-02")
	}

	var buf bytes.Buffer
	err := deepAnalysisTmpl.Execute(&buf, struct {
		Title     string
		Authors   string
		Published string
		Abstract  string
		Context   string
	}{p.Title, strings.Join(authors, ", "), published, p.Abstract, contextText})
	return buf.String(), err
}

// renderInsightsPrompt fills the cross-paper insights template.
func renderInsightsPrompt(papers []types.Paper) (string, error) {
	var summaries strings.Builder
	for i, p := range papers {
		fmt.Fprintf(&summaries, "%d. %s\n", i+1, p.Title)
		if p.FastSummary != "" {
			fmt.Fprintf(&summaries, "   Summary: %s\n", p.FastSummary)
		}
		if p.DeepAnalysis != nil && len(p.DeepAnalysis.Methods) > 0 {
			methods := p.DeepAnalysis.Methods
			if len(methods) > 3 {
				methods = methods[:3]
			}
			fmt.Fprintf(&summaries, "   Methods: %s\n", strings.Join(methods, ", "))
		}
		summaries.WriteString("\n")
	}

	var buf bytes.Buffer
	err := insightsTmpl.Execute(&buf, struct {
		Count     int
		Summaries string
	}{len(papers), summaries.String()})
	return buf.String(), err
}

// renderDirectionsPrompt fills the research-directions template from
// the extracted insights.
func renderDirectionsPrompt(paperCount int, insights types.Insights) (string, error) {
	var buf bytes.Buffer
	err := directionsTmpl.Execute(&buf, struct {
		Count       int
		Gaps        string
		Themes      string
		Limitations string
	}{
		paperCount,
		formatItems(insights.ResearchGaps),
		formatItems(insights.EmergingThemes),
		formatItems(insights.Limitations),
	})
	return buf.String(), err
}

// formatItems renders up to five insight items as prompt bullet lines.
func formatItems(items []types.InsightItem) string {
	if len(items) == 0 {
		return "None identified"
	}
	if len(items) > 5 {
		items = items[:5]
	}
	var b strings.Builder
	for _, item := range items {
		if item.Details != "" {
			fmt.Fprintf(&b, "- %s: %s\n", item.Item, item.Details)
		} else {
			fmt.Fprintf(&b, "- %s\n", item.Item)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// prepareContext builds the related-papers listing used by the deep
// analysis prompt: titles and years of the top papers in the set.
func prepareContext(papers []types.Paper) string {
	limit := len(papers)
	if limit > 5 {
		limit = 5
	}
	var b strings.Builder
	for i := 0; i < limit; i++ {
		year := ""
		if !papers[i].Published.IsZero() {
			year = fmt.Sprintf(" (%d)", papers[i].Published.Year())
		}
		fmt.Fprintf(&b, "%d. %s%s\n", i+1, papers[i].Title, year)
	}
	return strings.TrimRight(b.String(), "\n")
}
