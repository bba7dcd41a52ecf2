package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/analysis"
	"github.com/pdiddy/research-assistant/internal/arxiv"
	"github.com/pdiddy/research-assistant/internal/ratelimit"
	"github.com/pdiddy/research-assistant/internal/report"
	"github.com/pdiddy/research-assistant/pkg/types"
)

var compareCmd = &cobra.Command{
	Use:   "compare TOPIC1 TOPIC2",
	Short: "Compare publication activity for two topics",
	Long: `Compare fetches papers for two topics and renders a side-by-side
report of paper counts, publication ranges, categories, and methodology
mentions. No model annotation is performed.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().Int("max-papers", 0, "maximum papers to fetch per topic (default from config)")
	compareCmd.Flags().Int("days-back", 0, "how many days back to search (default from config)")
	compareCmd.Flags().String("output-dir", "", "reports directory (default from config)")

	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	topic1, topic2 := args[0], args[1]
	for _, topic := range args {
		if err := arxiv.ValidateQuery(topic); err != nil {
			return err
		}
	}

	cfg := pipelineConfig()
	if maxPapers, _ := cmd.Flags().GetInt("max-papers"); maxPapers > 0 {
		cfg.Source.MaxPapers = maxPapers
	}
	if daysBack, _ := cmd.Flags().GetInt("days-back"); daysBack > 0 {
		cfg.Source.DaysBack = daysBack
	}
	if outputDir, _ := cmd.Flags().GetString("output-dir"); outputDir != "" {
		cfg.Output.ReportsDir = outputDir
	}

	ctx := context.Background()
	client := arxiv.NewClient(cfg.Source, ratelimit.New(cfg.RateLimit))

	sets := make([][]types.Paper, 2)
	for i, topic := range args {
		fmt.Fprintf(os.Stderr, "Fetching papers for %q...\n", topic)
		papers, skipped, err := client.Fetch(ctx, topic, arxiv.FetchOptions{
			MaxResults: cfg.Source.MaxPapers,
			DaysBack:   cfg.Source.DaysBack,
			Categories: cfg.Source.Categories,
		})
		if err != nil {
			return err
		}
		if skipped > 0 {
			fmt.Fprintf(os.Stderr, "%d malformed record(s) skipped\n", skipped)
		}
		sets[i] = papers
	}

	content := report.BuildComparison(analysis.Compare(topic1, sets[0], topic2, sets[1]))
	path, err := report.Save(cfg.Output.ReportsDir, topic1+" vs "+topic2, content)
	if err != nil {
		return err
	}
	fmt.Printf("Comparison written to %s\n", path)
	return nil
}
