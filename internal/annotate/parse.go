// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Model responses are untrusted free text. The parsers below extract
// the structured fields tolerantly: a JSON object is located inside
// the reply (models sometimes wrap it in prose or code fences), field
// shapes are accepted loosely, and a per-paper parse failure falls
// back to preserving the raw text rather than erroring.

// flexStrings decodes a JSON value that may be an array of strings, a
// single string, or an array of objects carrying a text field.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var asStrings []string
	if err := json.Unmarshal(data, &asStrings); err == nil {
		*f = asStrings
		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		if asString != "" {
			*f = []string{asString}
		}
		return nil
	}

	var asObjects []map[string]any
	if err := json.Unmarshal(data, &asObjects); err == nil {
		for _, obj := range asObjects {
			for _, key := range []string{"item", "text", "description"} {
				if v, ok := obj[key].(string); ok && v != "" {
					*f = append(*f, v)
					break
				}
			}
		}
		return nil
	}

	return fmt.Errorf("unsupported list shape: %s", truncateForError(data))
}

// flexItems decodes a JSON value that may be an array of
// {item, details} objects or an array of plain strings.
type flexItems []types.InsightItem

func (f *flexItems) UnmarshalJSON(data []byte) error {
	var asObjects []struct {
		Item    string `json:"item"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(data, &asObjects); err == nil {
		for _, obj := range asObjects {
			if obj.Item == "" && obj.Details == "" {
				continue
			}
			*f = append(*f, types.InsightItem{Item: obj.Item, Details: obj.Details})
		}
		return nil
	}

	var asStrings []string
	if err := json.Unmarshal(data, &asStrings); err == nil {
		for _, s := range asStrings {
			if s != "" {
				*f = append(*f, types.InsightItem{Item: s})
			}
		}
		return nil
	}

	return fmt.Errorf("unsupported item list shape: %s", truncateForError(data))
}

// parseDeepAnalysis converts a deep-backend reply into a DeepAnalysis.
// It never fails: when no JSON object can be extracted the raw reply
// is preserved in the Raw field.
func parseDeepAnalysis(text string) *types.DeepAnalysis {
	obj := extractJSONObject(text)
	if obj == "" {
		return &types.DeepAnalysis{Raw: strings.TrimSpace(text)}
	}

	var parsed struct {
		Contributions flexStrings `json:"contributions"`
		Methods       flexStrings `json:"methods"`
		Results       flexStrings `json:"results"`
		Limitations   flexStrings `json:"limitations"`
		Relations     flexStrings `json:"relations"`
		Applications  flexStrings `json:"applications"`
	}
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		return &types.DeepAnalysis{Raw: strings.TrimSpace(text)}
	}

	da := &types.DeepAnalysis{
		Contributions: parsed.Contributions,
		Methods:       parsed.Methods,
		Results:       parsed.Results,
		Limitations:   parsed.Limitations,
		Relations:     parsed.Relations,
		Applications:  parsed.Applications,
	}
	if len(da.Contributions) == 0 && len(da.Methods) == 0 && len(da.Results) == 0 &&
		len(da.Limitations) == 0 && len(da.Relations) == 0 && len(da.Applications) == 0 {
		da.Raw = strings.TrimSpace(text)
	}
	return da
}

// parseInsights converts a cross-paper insights reply into Insights.
func parseInsights(text string) (*types.Insights, error) {
	obj := extractJSONObject(text)
	if obj == "" {
		return nil, fmt.Errorf("no JSON object in insights response")
	}

	var parsed struct {
		CommonMethods  flexItems `json:"common_methods"`
		DatasetsUsed   flexItems `json:"datasets_used"`
		Metrics        flexItems `json:"metrics"`
		Limitations    flexItems `json:"limitations"`
		ResearchGaps   flexItems `json:"research_gaps"`
		EmergingThemes flexItems `json:"emerging_themes"`
	}
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		return nil, fmt.Errorf("parsing insights response: %w", err)
	}

	return &types.Insights{
		CommonMethods:  parsed.CommonMethods,
		DatasetsUsed:   parsed.DatasetsUsed,
		Metrics:        parsed.Metrics,
		Limitations:    parsed.Limitations,
		ResearchGaps:   parsed.ResearchGaps,
		EmergingThemes: parsed.EmergingThemes,
	}, nil
}

// parseDirections converts a research-directions reply into Direction
// values. It accepts both {"projects": [...]} and a bare array.
func parseDirections(text string) ([]types.Direction, error) {
	type project struct {
		Title                string `json:"title"`
		Motivation           string `json:"motivation"`
		Approach             string `json:"approach"`
		ExpectedContribution string `json:"expected_contribution"`
		RequiredResources    string `json:"required_resources"`
		Timeline             string `json:"timeline"`
		Difficulty           string `json:"difficulty"`
	}

	var projects []project

	if obj := extractJSONObject(text); obj != "" {
		var wrapper struct {
			Projects []project `json:"projects"`
		}
		if err := json.Unmarshal([]byte(obj), &wrapper); err == nil && len(wrapper.Projects) > 0 {
			projects = wrapper.Projects
		}
	}
	if projects == nil {
		if arr := extractJSONArray(text); arr != "" {
			if err := json.Unmarshal([]byte(arr), &projects); err != nil {
				return nil, fmt.Errorf("parsing directions response: %w", err)
			}
		}
	}
	if projects == nil {
		return nil, fmt.Errorf("no project list in directions response")
	}

	var directions []types.Direction
	for _, p := range projects {
		if p.Title == "" {
			continue
		}
		directions = append(directions, types.Direction{
			Title:                p.Title,
			Motivation:           p.Motivation,
			Approach:             p.Approach,
			ExpectedContribution: p.ExpectedContribution,
			RequiredResources:    p.RequiredResources,
			Timeline:             p.Timeline,
			Difficulty:           p.Difficulty,
		})
	}
	return directions, nil
}

// extractJSONObject returns the outermost {...} span in text, or ""
// when none exists.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// extractJSONArray returns the outermost [...] span in text, or ""
// when none exists.
func extractJSONArray(text string) string {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func truncateForError(data []byte) string {
	s := string(data)
	if len(s) > 80 {
		s = s[:77] + "..."
	}
	return s
}
