// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Reserved paper IDs for chunks derived from set-level material rather
// than from a single paper.
const (
	InsightsID   = "_insights"
	DirectionsID = "_directions"
)

// Chunk is one embeddable text unit in a session index. PaperID and
// Field locate the source text inside the session bundle.
type Chunk struct {
	ID        string
	PaperID   string
	Field     string
	Content   string
	Embedding []float32
}

// bundleChunks derives the full chunk set for a bundle: per-paper
// chunks, one insights chunk, and one chunk per direction.
func bundleChunks(b types.SessionBundle) []Chunk {
	var chunks []Chunk
	for _, p := range b.Papers {
		chunks = append(chunks, paperChunks(p)...)
	}
	chunks = append(chunks, insightChunks(b.Insights)...)
	for _, d := range b.Directions {
		if text := directionText(d); text != "" {
			chunks = append(chunks, newChunk(DirectionsID, "direction", text))
		}
	}
	return chunks
}

// paperChunks derives chunks from one paper's text fields. Empty
// fields produce no chunk.
func paperChunks(p types.Paper) []Chunk {
	var chunks []Chunk
	add := func(field, content string) {
		if strings.TrimSpace(content) != "" {
			chunks = append(chunks, newChunk(p.ID, field, content))
		}
	}

	add("title", p.Title)
	add("abstract", p.Abstract)
	add("summary", p.FastSummary)

	if da := p.DeepAnalysis; da != nil {
		add("contributions", strings.Join(da.Contributions, "\n"))
		add("methods", strings.Join(da.Methods, "\n"))
		add("results", strings.Join(da.Results, "\n"))
		add("limitations", strings.Join(da.Limitations, "\n"))
		add("relations", strings.Join(da.Relations, "\n"))
		add("applications", strings.Join(da.Applications, "\n"))
		add("analysis", da.Raw)
	}
	return chunks
}

// insightChunks flattens the insights into one chunk, or none when the
// insights are empty.
func insightChunks(in types.Insights) []Chunk {
	if in.IsEmpty() {
		return nil
	}

	var b strings.Builder
	section := func(title string, items []types.InsightItem) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s:\n", title)
		for _, item := range items {
			if item.Details != "" {
				fmt.Fprintf(&b, "- %s: %s\n", item.Item, item.Details)
			} else {
				fmt.Fprintf(&b, "- %s\n", item.Item)
			}
		}
	}

	section("Common methods", in.CommonMethods)
	section("Datasets used", in.DatasetsUsed)
	section("Evaluation metrics", in.Metrics)
	section("Limitations", in.Limitations)
	section("Research gaps", in.ResearchGaps)
	section("Emerging themes", in.EmergingThemes)

	return []Chunk{newChunk(InsightsID, "insights", b.String())}
}

// directionText flattens one research direction for embedding.
func directionText(d types.Direction) string {
	if d.Title == "" {
		return ""
	}
	parts := []string{d.Title}
	for _, s := range []string{d.Motivation, d.Approach, d.ExpectedContribution} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

func newChunk(paperID, field, content string) Chunk {
	return Chunk{
		ID:      uuid.NewString(),
		PaperID: paperID,
		Field:   field,
		Content: content,
	}
}
