package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/analysis"
	"github.com/pdiddy/research-assistant/internal/annotate"
	"github.com/pdiddy/research-assistant/internal/arxiv"
	"github.com/pdiddy/research-assistant/internal/ratelimit"
	"github.com/pdiddy/research-assistant/internal/report"
	"github.com/pdiddy/research-assistant/internal/session"
	"github.com/pdiddy/research-assistant/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research [query]",
	Short: "Run a full literature review for a topic",
	Long: `Research runs the whole pipeline: fetch papers from arXiv, summarize
each with the fast model, optionally analyze each with the deep model,
derive cross-paper insights and research directions, analyze trends,
and write a Markdown report.

If the deep model is not configured the run degrades to summaries only;
it never fails for that reason. Use --store to persist the run as a
named session for later similarity queries.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().Int("max-papers", 0, "maximum papers to fetch (default from config)")
	researchCmd.Flags().Int("days-back", 0, "how many days back to search (default from config)")
	researchCmd.Flags().StringSlice("categories", nil, "arXiv category filters (e.g. cs.LG,stat.ML)")
	researchCmd.Flags().Bool("no-deep", false, "skip deep analysis, insights, and directions")
	researchCmd.Flags().String("store", "", "persist the run as a named session")
	researchCmd.Flags().Bool("overwrite", false, "replace an existing session of the same name")
	researchCmd.Flags().Bool("json", false, "print the session bundle as JSON instead of a report")
	researchCmd.Flags().String("output-dir", "", "reports directory (default from config)")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	if err := arxiv.ValidateQuery(query); err != nil {
		return err
	}

	cfg := pipelineConfig()
	maxPapers, _ := cmd.Flags().GetInt("max-papers")
	if maxPapers > 0 {
		cfg.Source.MaxPapers = maxPapers
	}
	daysBack, _ := cmd.Flags().GetInt("days-back")
	if daysBack > 0 {
		cfg.Source.DaysBack = daysBack
	}
	categories, _ := cmd.Flags().GetStringSlice("categories")
	if len(categories) > 0 {
		cfg.Source.Categories = categories
	}
	noDeep, _ := cmd.Flags().GetBool("no-deep")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	if outputDir != "" {
		cfg.Output.ReportsDir = outputDir
	}

	ctx := context.Background()
	limiter := ratelimit.New(cfg.RateLimit)

	bundle, result, err := runPipeline(ctx, cfg, limiter, query, !noDeep, os.Stderr)
	if err != nil {
		return err
	}

	if storeName, _ := cmd.Flags().GetString("store"); storeName != "" {
		overwrite, _ := cmd.Flags().GetBool("overwrite")
		bundle.Name = storeName

		store := session.NewStore(cfg.Storage, session.NewOpenAIEmbedder(cfg.Embedding), limiter)
		if err := store.Store(ctx, *bundle, overwrite); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Stored session %q\n", storeName)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(bundle)
	}

	content := report.Build(*bundle, result)
	path, err := report.Save(cfg.Output.ReportsDir, query, content)
	if err != nil {
		return err
	}
	fmt.Printf("Report written to %s\n", path)
	return nil
}

// runPipeline executes fetch, annotation, insight extraction, and
// trend analysis for one query. Progress goes to w.
func runPipeline(ctx context.Context, cfg types.PipelineConfig, limiter *ratelimit.Limiter, query string, wantDeep bool, w io.Writer) (*types.SessionBundle, analysis.Result, error) {
	client := arxiv.NewClient(cfg.Source, limiter)

	fmt.Fprintf(w, "Fetching papers for %q...\n", query)
	papers, skipped, err := client.Fetch(ctx, query, arxiv.FetchOptions{
		MaxResults: cfg.Source.MaxPapers,
		DaysBack:   cfg.Source.DaysBack,
		Categories: cfg.Source.Categories,
	})
	if err != nil {
		return nil, analysis.Result{}, err
	}
	fmt.Fprintf(w, "Fetched %d paper(s)", len(papers))
	if skipped > 0 {
		fmt.Fprintf(w, " (%d malformed record(s) skipped)", skipped)
	}
	fmt.Fprintln(w)

	if len(papers) == 0 {
		return nil, analysis.Result{}, fmt.Errorf("no papers found for %q", query)
	}

	annotator := &annotate.Annotator{
		Fast:    annotate.NewGroqBackend(cfg.FastModel),
		Deep:    annotate.NewOpenAIBackend(cfg.DeepModel),
		Limiter: limiter,
	}

	papers, err = annotator.Annotate(ctx, papers, wantDeep, w)
	if err != nil {
		return nil, analysis.Result{}, err
	}

	var insights types.Insights
	var directions []types.Direction
	if wantDeep {
		insights = annotator.ExtractInsights(ctx, papers, w)
		directions = annotator.GenerateDirections(ctx, papers, insights, w)
	}

	bundle := &types.SessionBundle{
		Query:     query,
		CreatedAt: time.Now().UTC(),
		Params: types.SessionParams{
			MaxPapers:  cfg.Source.MaxPapers,
			DaysBack:   cfg.Source.DaysBack,
			Categories: cfg.Source.Categories,
		},
		Papers:     papers,
		Insights:   insights,
		Directions: directions,
	}
	return bundle, analysis.Analyze(papers, cfg.Analysis), nil
}
