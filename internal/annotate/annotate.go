// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package annotate orchestrates the two annotation backends over a
// fetched paper set. The fast backend is always attempted for every
// paper; the deep backend runs only on request and only when
// configured. Each backend's calls run sequentially through the shared
// rate limiter, so two calls to the same backend are never in flight
// at once. A run that ends with fast-only annotations is a degraded
// but successful terminal state, not an error.
package annotate

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pdiddy/research-assistant/internal/ratelimit"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// Rate-limiter backend names for the two annotation phases and the
// set-level calls (which share the deep backend's budget).
const (
	FastBackend = "fast-model"
	DeepBackend = "deep-model"
)

// Summarizer is the fast annotation backend: one cheap call per paper.
type Summarizer interface {
	Name() string
	Configured() bool
	Summarize(ctx context.Context, p types.Paper) (string, error)
}

// Analyzer is the deep annotation backend. Besides the per-paper
// analysis it powers the two set-level operations.
type Analyzer interface {
	Name() string
	Configured() bool
	Analyze(ctx context.Context, p types.Paper, contextText string) (*types.DeepAnalysis, error)
	ExtractInsights(ctx context.Context, papers []types.Paper) (*types.Insights, error)
	GenerateDirections(ctx context.Context, paperCount int, insights types.Insights) ([]types.Direction, error)
}

// Annotator runs the two-phase annotation pipeline.
type Annotator struct {
	Fast    Summarizer
	Deep    Analyzer
	Limiter *ratelimit.Limiter
}

// Annotate populates annotation fields on papers in place and returns
// the same slice. The fast phase runs for every paper; a single
// paper's failure is logged to w and leaves its FastSummary empty
// without aborting the batch. The deep phase runs when wantDeep is set
// and the deep backend is configured; an unconfigured or entirely
// unavailable deep backend skips the phase with a warning. Only a
// context cancellation stops the run early.
func (a *Annotator) Annotate(ctx context.Context, papers []types.Paper, wantDeep bool, w io.Writer) ([]types.Paper, error) {
	if err := a.fastPhase(ctx, papers, w); err != nil {
		return papers, err
	}

	if !wantDeep {
		return papers, nil
	}
	if a.Deep == nil || !a.Deep.Configured() {
		fmt.Fprintf(w, "warning: deep backend not configured, skipping deep analysis\n")
		return papers, nil
	}
	if err := a.deepPhase(ctx, papers, w); err != nil {
		return papers, err
	}
	return papers, nil
}

func (a *Annotator) fastPhase(ctx context.Context, papers []types.Paper, w io.Writer) error {
	if a.Fast == nil || !a.Fast.Configured() {
		fmt.Fprintf(w, "warning: fast backend not configured, skipping summaries\n")
		return nil
	}

	fmt.Fprintf(w, "summarizing %d paper(s) via %s\n", len(papers), a.Fast.Name())
	for i := range papers {
		var summary string
		err := a.Limiter.Do(ctx, FastBackend, func(ctx context.Context) error {
			var callErr error
			summary, callErr = a.Fast.Summarize(ctx, papers[i])
			return callErr
		})
		if err != nil {
			if ctxErr(err) {
				return err
			}
			fmt.Fprintf(w, "warning: summary failed for %s: %v\n", papers[i].ID, err)
			continue
		}
		papers[i].FastSummary = summary
	}
	return nil
}

func (a *Annotator) deepPhase(ctx context.Context, papers []types.Paper, w io.Writer) error {
	contextText := prepareContext(papers)

	fmt.Fprintf(w, "analyzing %d paper(s) via %s\n", len(papers), a.Deep.Name())
	for i := range papers {
		var analysis *types.DeepAnalysis
		err := a.Limiter.Do(ctx, DeepBackend, func(ctx context.Context) error {
			var callErr error
			analysis, callErr = a.Deep.Analyze(ctx, papers[i], contextText)
			return callErr
		})
		if err != nil {
			if ctxErr(err) {
				return err
			}
			fmt.Fprintf(w, "warning: analysis failed for %s: %v\n", papers[i].ID, err)

			// A rejected credential means the whole backend is out;
			// skip the remaining papers instead of failing each one.
			var rejected *ratelimit.RejectedError
			if errors.As(err, &rejected) {
				fmt.Fprintf(w, "warning: deep backend rejected the call, skipping remaining papers\n")
				return nil
			}
			continue
		}
		papers[i].DeepAnalysis = analysis
	}
	return nil
}

// ExtractInsights derives cross-paper insights from the papers that
// carry at least one annotation. It is best-effort: any failure is
// logged and yields empty Insights.
func (a *Annotator) ExtractInsights(ctx context.Context, papers []types.Paper, w io.Writer) types.Insights {
	annotated := annotatedOnly(papers)
	if len(annotated) == 0 || a.Deep == nil || !a.Deep.Configured() {
		return types.Insights{}
	}

	var insights *types.Insights
	err := a.Limiter.Do(ctx, DeepBackend, func(ctx context.Context) error {
		var callErr error
		insights, callErr = a.Deep.ExtractInsights(ctx, annotated)
		return callErr
	})
	if err != nil {
		fmt.Fprintf(w, "warning: insight extraction failed: %v\n", err)
		return types.Insights{}
	}
	return *insights
}

// GenerateDirections produces project proposals from the insights. It
// is best-effort: any failure is logged and yields an empty list.
func (a *Annotator) GenerateDirections(ctx context.Context, papers []types.Paper, insights types.Insights, w io.Writer) []types.Direction {
	annotated := annotatedOnly(papers)
	if len(annotated) == 0 || insights.IsEmpty() || a.Deep == nil || !a.Deep.Configured() {
		return nil
	}

	var directions []types.Direction
	err := a.Limiter.Do(ctx, DeepBackend, func(ctx context.Context) error {
		var callErr error
		directions, callErr = a.Deep.GenerateDirections(ctx, len(annotated), insights)
		return callErr
	})
	if err != nil {
		fmt.Fprintf(w, "warning: direction generation failed: %v\n", err)
		return nil
	}
	return directions
}

// annotatedOnly filters to papers carrying at least one annotation.
func annotatedOnly(papers []types.Paper) []types.Paper {
	var out []types.Paper
	for _, p := range papers {
		if p.Annotated() {
			out = append(out, p)
		}
	}
	return out
}

func ctxErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
