// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analysis computes in-process aggregates over an annotated
// paper set: temporal trends, category and author distributions,
// common terms, methodology and dataset mentions, and heuristic gap
// flags. Everything here is a pure function of its input: no external
// calls, no randomness, identical input always yields identical
// output. Ranking ties break lexically for determinism.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/research-assistant/pkg/types"
)

const (
	defaultTopTerms     = 20
	defaultGapThreshold = 0.2
	topLimitations      = 15
	topDatasets         = 10
	topAuthors          = 10
)

// Count is one (label, count) pair in a ranked distribution.
type Count struct {
	Label string `json:"label" yaml:"label"`
	Count int    `json:"count" yaml:"count"`
}

// TemporalTrends buckets papers over their publication timestamps.
// Buckets are contiguous and zero-filled across the observed range:
// given papers in January and March, February appears with count 0.
type TemporalTrends struct {
	ByMonth []Count   `json:"by_month" yaml:"by_month"`
	ByYear  []Count   `json:"by_year" yaml:"by_year"`
	Start   time.Time `json:"start" yaml:"start"`
	End     time.Time `json:"end" yaml:"end"`
	Total   int       `json:"total" yaml:"total"`
}

// CategoryDistribution counts papers per category label.
type CategoryDistribution struct {
	// Primary counts each paper's primary category once.
	Primary []Count `json:"primary" yaml:"primary"`

	// All counts every category label a paper carries.
	All []Count `json:"all" yaml:"all"`

	// Diversity is the number of distinct category labels observed.
	Diversity int `json:"diversity" yaml:"diversity"`
}

// AuthorStats summarizes author activity and collaboration sizes.
type AuthorStats struct {
	Top              []Count `json:"top" yaml:"top"`
	UniqueAuthors    int     `json:"unique_authors" yaml:"unique_authors"`
	AvgCollaboration float64 `json:"avg_collaboration" yaml:"avg_collaboration"`
	MaxCollaboration int     `json:"max_collaboration" yaml:"max_collaboration"`
	MinCollaboration int     `json:"min_collaboration" yaml:"min_collaboration"`
}

// Gap flags an underexplored area. Gaps are heuristic signals, not
// ground truth, and the report labels them as such.
type Gap struct {
	// Kind is "category", "methodology", or "temporal".
	Kind string `json:"kind" yaml:"kind"`

	// Subject names the flagged category or methodology.
	Subject string `json:"subject" yaml:"subject"`

	// Details explains the flag.
	Details string `json:"details" yaml:"details"`
}

// Result is the full aggregate over one paper set.
type Result struct {
	Temporal      TemporalTrends       `json:"temporal" yaml:"temporal"`
	Categories    CategoryDistribution `json:"categories" yaml:"categories"`
	CommonTerms   []Count              `json:"common_terms" yaml:"common_terms"`
	Authors       AuthorStats          `json:"authors" yaml:"authors"`
	Methodologies []Count              `json:"methodologies" yaml:"methodologies"`
	Datasets      []Count              `json:"datasets" yaml:"datasets"`
	Limitations   []Count              `json:"limitations" yaml:"limitations"`
	Gaps          []Gap                `json:"gaps" yaml:"gaps"`
}

// Analyze computes all aggregates over papers.
func Analyze(papers []types.Paper, cfg types.AnalysisConfig) Result {
	topTerms := cfg.TopTerms
	if topTerms <= 0 {
		topTerms = defaultTopTerms
	}
	threshold := cfg.GapThreshold
	if threshold <= 0 {
		threshold = defaultGapThreshold
	}

	r := Result{
		Temporal:      Temporal(papers),
		Categories:    Categories(papers),
		CommonTerms:   CommonTerms(papers, topTerms),
		Authors:       Authors(papers),
		Methodologies: Methodologies(papers),
		Datasets:      Datasets(papers),
		Limitations:   Limitations(papers),
	}
	r.Gaps = Gaps(papers, r, threshold)
	return r
}

// Temporal buckets papers by month and year over their publication
// timestamps, zero-filling interior buckets. Papers without a
// publication date are excluded from the buckets but counted in Total.
func Temporal(papers []types.Paper) TemporalTrends {
	trends := TemporalTrends{Total: len(papers)}

	var dated []time.Time
	for _, p := range papers {
		if !p.Published.IsZero() {
			dated = append(dated, p.Published.UTC())
		}
	}
	if len(dated) == 0 {
		return trends
	}

	sort.Slice(dated, func(i, j int) bool { return dated[i].Before(dated[j]) })
	trends.Start = dated[0]
	trends.End = dated[len(dated)-1]

	monthCounts := make(map[string]int)
	yearCounts := make(map[string]int)
	for _, d := range dated {
		monthCounts[d.Format("2006-01")]++
		yearCounts[d.Format("2006")]++
	}

	// Contiguous monthly buckets from the first to the last observed
	// month, zero-filled.
	first := time.Date(trends.Start.Year(), trends.Start.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(trends.End.Year(), trends.End.Month(), 1, 0, 0, 0, 0, time.UTC)
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		key := m.Format("2006-01")
		trends.ByMonth = append(trends.ByMonth, Count{Label: key, Count: monthCounts[key]})
	}

	for y := trends.Start.Year(); y <= trends.End.Year(); y++ {
		key := fmt.Sprintf("%d", y)
		trends.ByYear = append(trends.ByYear, Count{Label: key, Count: yearCounts[key]})
	}

	return trends
}

// Categories counts papers per category label, ranked by descending
// count with lexical tie-break.
func Categories(papers []types.Paper) CategoryDistribution {
	primary := make(map[string]int)
	all := make(map[string]int)

	for _, p := range papers {
		if p.PrimaryCategory != "" {
			primary[p.PrimaryCategory]++
		}
		for _, cat := range p.Categories {
			all[cat]++
		}
	}

	return CategoryDistribution{
		Primary:   rankCounts(primary, 0),
		All:       rankCounts(all, 0),
		Diversity: len(all),
	}
}

// CommonTerms tokenizes title, abstract, and fast summary text,
// drops stopwords, and ranks terms by frequency with lexical
// tie-break.
func CommonTerms(papers []types.Paper, topN int) []Count {
	counts := make(map[string]int)
	for _, p := range papers {
		for _, text := range []string{p.Title, p.Abstract, p.FastSummary} {
			for _, word := range tokenize(text) {
				counts[word]++
			}
		}
	}
	return rankCounts(counts, topN)
}

// Authors ranks authors by paper count and summarizes collaboration
// sizes.
func Authors(papers []types.Paper) AuthorStats {
	counts := make(map[string]int)
	var sizes []int
	for _, p := range papers {
		for _, a := range p.Authors {
			counts[a]++
		}
		if len(p.Authors) > 0 {
			sizes = append(sizes, len(p.Authors))
		}
	}

	stats := AuthorStats{
		Top:           rankCounts(counts, topAuthors),
		UniqueAuthors: len(counts),
	}
	if len(sizes) == 0 {
		return stats
	}

	sum := 0
	stats.MinCollaboration = sizes[0]
	for _, n := range sizes {
		sum += n
		if n > stats.MaxCollaboration {
			stats.MaxCollaboration = n
		}
		if n < stats.MinCollaboration {
			stats.MinCollaboration = n
		}
	}
	stats.AvgCollaboration = math.Round(float64(sum)/float64(len(sizes))*100) / 100
	return stats
}

// methodKeywords maps methodology labels to trigger keywords matched
// against title, abstract, summary, and deep-analysis methods.
var methodKeywords = map[string][]string{
	"deep-learning":          {"neural", "deep learning", "cnn", "rnn", "lstm", "transformer"},
	"machine-learning":       {"classification", "regression", "clustering", "supervised", "unsupervised"},
	"reinforcement-learning": {"reinforcement", "policy", "reward", "q-learning"},
	"optimization":           {"optimization", "gradient", "optimizer", "sgd", "adam"},
	"probabilistic":          {"bayesian", "probabilistic", "stochastic", "distribution"},
	"generative":             {"generative", "gan", "vae", "diffusion", "autoencoder"},
	"attention":              {"attention", "self-attention", "cross-attention", "multi-head"},
}

// datasetNames lists commonly mentioned benchmark datasets.
var datasetNames = []string{
	"imagenet", "coco", "mnist", "cifar", "glue", "squad",
	"wikitext", "openwebtext", "common crawl", "bookcorpus",
	"librispeech", "voxceleb", "kinetics",
	"ms marco", "natural questions", "hotpotqa",
}

// Methodologies counts papers matching each methodology keyword set.
func Methodologies(papers []types.Paper) []Count {
	counts := make(map[string]int)
	for label := range methodKeywords {
		counts[label] = 0
	}
	for _, p := range papers {
		text := paperText(p)
		for label, keywords := range methodKeywords {
			for _, kw := range keywords {
				if strings.Contains(text, kw) {
					counts[label]++
					break
				}
			}
		}
	}
	return rankCounts(counts, 0)
}

// Datasets counts papers mentioning each known dataset name.
func Datasets(papers []types.Paper) []Count {
	counts := make(map[string]int)
	for _, p := range papers {
		text := paperText(p)
		for _, name := range datasetNames {
			if strings.Contains(text, name) {
				counts[name]++
			}
		}
	}
	return rankCounts(counts, topDatasets)
}

// Limitations clusters identical limitation strings from the papers'
// deep analyses, ranked by frequency.
func Limitations(papers []types.Paper) []Count {
	counts := make(map[string]int)
	for _, p := range papers {
		if p.DeepAnalysis == nil {
			continue
		}
		for _, lim := range p.DeepAnalysis.Limitations {
			lim = strings.TrimSpace(lim)
			if lim != "" {
				counts[lim]++
			}
		}
	}
	return rankCounts(counts, topLimitations)
}

// Gaps flags categories and methodologies present in fewer than
// threshold x len(papers) papers, plus a temporal flag when the most
// recent observed year is thin. Heuristic signals only.
func Gaps(papers []types.Paper, r Result, threshold float64) []Gap {
	var gaps []Gap
	if len(papers) == 0 {
		return gaps
	}

	cutoff := threshold * float64(len(papers))

	for _, c := range r.Categories.Primary {
		if float64(c.Count) < cutoff {
			gaps = append(gaps, Gap{
				Kind:    "category",
				Subject: c.Label,
				Details: fmt.Sprintf("only %d of %d papers", c.Count, len(papers)),
			})
		}
	}
	for _, m := range r.Methodologies {
		if m.Count > 0 && float64(m.Count) < cutoff {
			gaps = append(gaps, Gap{
				Kind:    "methodology",
				Subject: m.Label,
				Details: fmt.Sprintf("only %d of %d papers", m.Count, len(papers)),
			})
		}
	}

	if n := len(r.Temporal.ByYear); n > 0 {
		recent := r.Temporal.ByYear[n-1]
		if recent.Count < 3 {
			gaps = append(gaps, Gap{
				Kind:    "temporal",
				Subject: recent.Label,
				Details: fmt.Sprintf("only %d paper(s) in %s", recent.Count, recent.Label),
			})
		}
	}

	return gaps
}

// Comparison is a side-by-side aggregate over two topics.
type Comparison struct {
	Topics        [2]string               `json:"topics" yaml:"topics"`
	PaperCounts   [2]int                  `json:"paper_counts" yaml:"paper_counts"`
	Temporal      [2]TemporalTrends       `json:"temporal" yaml:"temporal"`
	Categories    [2]CategoryDistribution `json:"categories" yaml:"categories"`
	Methodologies [2][]Count              `json:"methodologies" yaml:"methodologies"`
}

// Compare aggregates two paper sets for a topic comparison.
func Compare(topic1 string, papers1 []types.Paper, topic2 string, papers2 []types.Paper) Comparison {
	return Comparison{
		Topics:        [2]string{topic1, topic2},
		PaperCounts:   [2]int{len(papers1), len(papers2)},
		Temporal:      [2]TemporalTrends{Temporal(papers1), Temporal(papers2)},
		Categories:    [2]CategoryDistribution{Categories(papers1), Categories(papers2)},
		Methodologies: [2][]Count{Methodologies(papers1), Methodologies(papers2)},
	}
}

// stopwords excluded from term extraction.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "was": true,
	"were": true, "been": true, "being": true, "have": true, "has": true,
	"had": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "this": true, "that": true,
	"these": true, "those": true, "our": true, "they": true,
	"their": true, "with": true, "from": true, "which": true,
	"can": true, "using": true, "used": true, "not": true, "but": true,
	"its": true, "such": true, "into": true, "than": true, "also": true,
	"between": true, "based": true, "both": true, "more": true,
	"results": true, "show": true, "propose": true, "proposed": true,
	"paper": true, "approach": true, "method": true, "model": true,
	"models": true, "novel": true, "new": true,
}

// tokenize lowercases text and extracts alphabetic words of three or
// more characters, excluding stopwords.
func tokenize(text string) []string {
	var words []string
	var b strings.Builder
	flush := func() {
		if b.Len() >= 3 {
			word := b.String()
			if !stopwords[word] {
				words = append(words, word)
			}
		}
		b.Reset()
	}
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return words
}

// paperText joins a paper's searchable text fields, lowercased.
func paperText(p types.Paper) string {
	parts := []string{p.Title, p.Abstract, p.FastSummary}
	if p.DeepAnalysis != nil {
		parts = append(parts, strings.Join(p.DeepAnalysis.Methods, " "))
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// rankCounts converts a count map into a slice ordered by descending
// count, ties broken by lexical label order. A positive topN truncates
// the ranking.
func rankCounts(counts map[string]int, topN int) []Count {
	ranked := make([]Count, 0, len(counts))
	for label, n := range counts {
		ranked = append(ranked, Count{Label: label, Count: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Label < ranked[j].Label
	})
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}
