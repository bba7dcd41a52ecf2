// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders research runs as Markdown documents.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/research-assistant/internal/analysis"
	"github.com/pdiddy/research-assistant/pkg/types"
)

const timestampLayout = "20060102-150405"

// Build renders a full literature review report for one research run.
// Every paper section states explicitly when an annotation layer is
// missing, so a degraded run still produces a readable report.
func Build(bundle types.SessionBundle, r analysis.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Literature Review: %s\n\n", bundle.Query)
	if !bundle.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "Generated: %s\n\n", bundle.CreatedAt.UTC().Format("2006-01-02 15:04 UTC"))
	}
	fmt.Fprintf(&b, "Papers reviewed: %d\n\n", len(bundle.Papers))
	if !r.Temporal.Start.IsZero() {
		fmt.Fprintf(&b, "Publication range: %s to %s\n\n",
			r.Temporal.Start.Format("2006-01-02"), r.Temporal.End.Format("2006-01-02"))
	}

	writePapers(&b, bundle.Papers)
	writeInsights(&b, bundle.Insights)
	writeAnalysis(&b, r)
	writeGaps(&b, r.Gaps)
	writeDirections(&b, bundle.Directions)

	return b.String()
}

func writePapers(b *strings.Builder, papers []types.Paper) {
	if len(papers) == 0 {
		return
	}
	fmt.Fprintf(b, "## Papers\n\n")

	for i, p := range papers {
		fmt.Fprintf(b, "### %d. %s\n\n", i+1, p.Title)

		if len(p.Authors) > 0 {
			fmt.Fprintf(b, "**Authors:** %s\n\n", joinTruncated(p.Authors, 8))
		}
		if !p.Published.IsZero() {
			fmt.Fprintf(b, "**Published:** %s", p.Published.Format("2006-01-02"))
			if p.PrimaryCategory != "" {
				fmt.Fprintf(b, " (%s)", p.PrimaryCategory)
			}
			fmt.Fprintf(b, "\n\n")
		}
		if p.URL != "" {
			fmt.Fprintf(b, "**Link:** %s\n\n", p.URL)
		}

		if p.FastSummary != "" {
			fmt.Fprintf(b, "**Summary:** %s\n\n", p.FastSummary)
		} else {
			fmt.Fprintf(b, "*Summary not available.*\n\n")
		}

		writeDeepAnalysis(b, p.DeepAnalysis)
	}
}

func writeDeepAnalysis(b *strings.Builder, da *types.DeepAnalysis) {
	if da == nil {
		fmt.Fprintf(b, "*Deep analysis not available.*\n\n")
		return
	}

	sections := []struct {
		title string
		items []string
	}{
		{"Contributions", da.Contributions},
		{"Methods", da.Methods},
		{"Results", da.Results},
		{"Limitations", da.Limitations},
		{"Related work", da.Relations},
		{"Applications", da.Applications},
	}

	wrote := false
	for _, s := range sections {
		if len(s.items) == 0 {
			continue
		}
		wrote = true
		fmt.Fprintf(b, "**%s:**\n\n", s.title)
		for _, item := range s.items {
			fmt.Fprintf(b, "- %s\n", item)
		}
		fmt.Fprintf(b, "\n")
	}

	if !wrote && da.Raw != "" {
		fmt.Fprintf(b, "**Analysis:** %s\n\n", da.Raw)
	}
}

func writeInsights(b *strings.Builder, in types.Insights) {
	if in.IsEmpty() {
		return
	}
	fmt.Fprintf(b, "## Cross-Paper Insights\n\n")

	sections := []struct {
		title string
		items []types.InsightItem
	}{
		{"Common methods", in.CommonMethods},
		{"Datasets used", in.DatasetsUsed},
		{"Evaluation metrics", in.Metrics},
		{"Shared limitations", in.Limitations},
		{"Research gaps", in.ResearchGaps},
		{"Emerging themes", in.EmergingThemes},
	}

	for _, s := range sections {
		if len(s.items) == 0 {
			continue
		}
		fmt.Fprintf(b, "### %s\n\n", s.title)
		for _, item := range s.items {
			if item.Details != "" {
				fmt.Fprintf(b, "- **%s**: %s\n", item.Item, item.Details)
			} else {
				fmt.Fprintf(b, "- **%s**\n", item.Item)
			}
		}
		fmt.Fprintf(b, "\n")
	}
}

func writeAnalysis(b *strings.Builder, r analysis.Result) {
	if r.Temporal.Total == 0 {
		return
	}
	fmt.Fprintf(b, "## Trends\n\n")

	if len(r.Temporal.ByYear) > 0 {
		fmt.Fprintf(b, "### Publications per year\n\n")
		writeCountTable(b, "Year", r.Temporal.ByYear)
	}
	if len(r.Categories.Primary) > 0 {
		fmt.Fprintf(b, "### Categories\n\n")
		writeCountTable(b, "Category", r.Categories.Primary)
	}
	if len(r.CommonTerms) > 0 {
		fmt.Fprintf(b, "### Common terms\n\n")
		var terms []string
		for _, c := range r.CommonTerms {
			terms = append(terms, fmt.Sprintf("%s (%d)", c.Label, c.Count))
		}
		fmt.Fprintf(b, "%s\n\n", strings.Join(terms, ", "))
	}
	if r.Authors.UniqueAuthors > 0 {
		fmt.Fprintf(b, "### Authors\n\n")
		fmt.Fprintf(b, "%d unique authors; average team size %.1f (min %d, max %d).\n\n",
			r.Authors.UniqueAuthors, r.Authors.AvgCollaboration,
			r.Authors.MinCollaboration, r.Authors.MaxCollaboration)
	}
	if len(r.Limitations) > 0 {
		fmt.Fprintf(b, "### Recurring limitations\n\n")
		for _, c := range r.Limitations {
			fmt.Fprintf(b, "- %s (%d)\n", c.Label, c.Count)
		}
		fmt.Fprintf(b, "\n")
	}
}

func writeGaps(b *strings.Builder, gaps []analysis.Gap) {
	if len(gaps) == 0 {
		return
	}
	fmt.Fprintf(b, "## Potential Gaps\n\n")
	fmt.Fprintf(b, "These are heuristic signals from coverage counting, not verified gaps.\n\n")
	for _, g := range gaps {
		fmt.Fprintf(b, "- Underexplored %s: **%s** (%s)\n", g.Kind, g.Subject, g.Details)
	}
	fmt.Fprintf(b, "\n")
}

func writeDirections(b *strings.Builder, directions []types.Direction) {
	if len(directions) == 0 {
		return
	}
	fmt.Fprintf(b, "## Suggested Research Directions\n\n")

	for i, d := range directions {
		fmt.Fprintf(b, "### %d. %s\n\n", i+1, d.Title)
		fields := []struct{ label, value string }{
			{"Motivation", d.Motivation},
			{"Approach", d.Approach},
			{"Expected contribution", d.ExpectedContribution},
			{"Required resources", d.RequiredResources},
			{"Timeline", d.Timeline},
			{"Difficulty", d.Difficulty},
		}
		for _, f := range fields {
			if f.value != "" {
				fmt.Fprintf(b, "- **%s:** %s\n", f.label, f.value)
			}
		}
		fmt.Fprintf(b, "\n")
	}
}

// BuildComparison renders a side-by-side report for two topics.
func BuildComparison(cmp analysis.Comparison) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Topic Comparison: %s vs %s\n\n", cmp.Topics[0], cmp.Topics[1])
	fmt.Fprintf(&b, "| | %s | %s |\n|---|---|---|\n", cmp.Topics[0], cmp.Topics[1])
	fmt.Fprintf(&b, "| Papers | %d | %d |\n", cmp.PaperCounts[0], cmp.PaperCounts[1])

	for side := 0; side < 2; side++ {
		tr := cmp.Temporal[side]
		if !tr.Start.IsZero() {
			fmt.Fprintf(&b, "| Range (%s) | %s | %s |\n", cmp.Topics[side],
				tr.Start.Format("2006-01-02"), tr.End.Format("2006-01-02"))
		}
	}
	fmt.Fprintf(&b, "\n")

	for side := 0; side < 2; side++ {
		fmt.Fprintf(&b, "## %s\n\n", cmp.Topics[side])
		if len(cmp.Categories[side].Primary) > 0 {
			fmt.Fprintf(&b, "### Categories\n\n")
			writeCountTable(&b, "Category", cmp.Categories[side].Primary)
		}
		active := activeCounts(cmp.Methodologies[side])
		if len(active) > 0 {
			fmt.Fprintf(&b, "### Methodologies\n\n")
			writeCountTable(&b, "Methodology", active)
		}
	}

	return b.String()
}

// Save writes content under dir with a slugged, timestamped filename
// and returns the written path.
func Save(dir, name, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating reports directory: %w", err)
	}
	filename := fmt.Sprintf("%s-%s.md", Slug(name), time.Now().UTC().Format(timestampLayout))
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

// Slug converts free text to a lowercase hyphenated filename stem.
func Slug(text string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "report"
	}
	if len(slug) > 60 {
		slug = strings.Trim(slug[:60], "-")
	}
	return slug
}

func writeCountTable(b *strings.Builder, label string, counts []analysis.Count) {
	fmt.Fprintf(b, "| %s | Papers |\n|---|---|\n", label)
	for _, c := range counts {
		fmt.Fprintf(b, "| %s | %d |\n", c.Label, c.Count)
	}
	fmt.Fprintf(b, "\n")
}

// activeCounts drops zero-count entries from a ranking.
func activeCounts(counts []analysis.Count) []analysis.Count {
	var active []analysis.Count
	for _, c := range counts {
		if c.Count > 0 {
			active = append(active, c)
		}
	}
	return active
}

// joinTruncated joins up to max items, appending "et al." when
// truncated.
func joinTruncated(items []string, max int) string {
	if len(items) <= max {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:max], ", ") + ", et al."
}
