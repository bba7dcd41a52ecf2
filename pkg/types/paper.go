// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Paper holds bibliographic metadata for one fetched paper, plus the
// optional annotation fields populated by the annotation stage. The
// bibliographic fields are immutable after fetch; FastSummary and
// DeepAnalysis are filled in later and are independently optional.
type Paper struct {
	// ID is the source-assigned identifier (e.g. "2301.07041"), unique
	// within a fetch result set.
	ID string `json:"id" yaml:"id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract with newlines collapsed.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Categories lists all category labels assigned by the source.
	Categories []string `json:"categories" yaml:"categories"`

	// PrimaryCategory is the source's primary category label.
	PrimaryCategory string `json:"primary_category" yaml:"primary_category"`

	// Published is the first publication timestamp.
	Published time.Time `json:"published" yaml:"published"`

	// Updated is the latest revision timestamp.
	Updated time.Time `json:"updated,omitempty" yaml:"updated,omitempty"`

	// URL is the paper's abstract page.
	URL string `json:"url" yaml:"url"`

	// PDFURL is the direct PDF link, when the source provides one.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// DOI is set when the source reports a DOI.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// JournalRef is the journal reference for published versions.
	JournalRef string `json:"journal_ref,omitempty" yaml:"journal_ref,omitempty"`

	// Comment is the author-supplied comment field.
	Comment string `json:"comment,omitempty" yaml:"comment,omitempty"`

	// FastSummary is the short summary produced by the fast annotation
	// backend. Empty until populated; stays empty when that paper's
	// fast annotation failed.
	FastSummary string `json:"fast_summary,omitempty" yaml:"fast_summary,omitempty"`

	// DeepAnalysis is the structured record produced by the deep
	// annotation backend. Nil until populated; stays nil when the deep
	// phase was skipped or failed for this paper.
	DeepAnalysis *DeepAnalysis `json:"deep_analysis,omitempty" yaml:"deep_analysis,omitempty"`
}

// Annotated reports whether at least one annotation field is populated.
// Papers without any annotation are excluded from aggregate statistics
// but still appear in report paper lists.
func (p Paper) Annotated() bool {
	return p.FastSummary != "" || p.DeepAnalysis != nil
}

// DeepAnalysis is the structured output of the deep annotation backend
// for a single paper. All slices may be empty; when the backend's
// response could not be parsed into the structured fields, the raw
// response text is preserved in Raw instead.
type DeepAnalysis struct {
	Contributions []string `json:"contributions,omitempty" yaml:"contributions,omitempty"`
	Methods       []string `json:"methods,omitempty" yaml:"methods,omitempty"`
	Results       []string `json:"results,omitempty" yaml:"results,omitempty"`
	Limitations   []string `json:"limitations,omitempty" yaml:"limitations,omitempty"`
	Relations     []string `json:"relations,omitempty" yaml:"relations,omitempty"`
	Applications  []string `json:"applications,omitempty" yaml:"applications,omitempty"`

	// Raw holds the unparsed backend response when structured
	// extraction failed.
	Raw string `json:"raw,omitempty" yaml:"raw,omitempty"`
}
