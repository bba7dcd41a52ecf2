package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/annotate"
	"github.com/pdiddy/research-assistant/internal/arxiv"
	"github.com/pdiddy/research-assistant/internal/ratelimit"
	"github.com/pdiddy/research-assistant/internal/session"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored research sessions",
	Long: `Session manages persisted research runs. Each session holds the
annotated papers, insights, and directions of one run plus a similarity
index over their text. Use subcommands to list, inspect, query, extend,
or delete sessions.`,
}

// --- list subcommand ---

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := sessionStore(nil)
		names, err := store.List()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No sessions stored.")
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

// --- show subcommand ---

var sessionShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Show a stored session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := sessionStore(nil)
		bundle, err := store.Load(args[0])
		if err != nil {
			return err
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(bundle)
		}

		fmt.Printf("Session:  %s\n", bundle.Name)
		fmt.Printf("Query:    %s\n", bundle.Query)
		if !bundle.CreatedAt.IsZero() {
			fmt.Printf("Created:  %s\n", bundle.CreatedAt.UTC().Format("2006-01-02 15:04 UTC"))
		}
		fmt.Printf("Papers:   %d\n", len(bundle.Papers))
		for i, p := range bundle.Papers {
			marker := " "
			if p.Annotated() {
				marker = "*"
			}
			fmt.Printf("  %s %2d. %s\n", marker, i+1, p.Title)
		}
		if len(bundle.Directions) > 0 {
			fmt.Printf("Directions:\n")
			for _, d := range bundle.Directions {
				fmt.Printf("  - %s\n", d.Title)
			}
		}
		return nil
	},
}

// --- query subcommand ---

var sessionQueryCmd = &cobra.Command{
	Use:   "query NAME TEXT...",
	Short: "Search a session by semantic similarity",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		text := strings.Join(args[1:], " ")
		top, _ := cmd.Flags().GetInt("top")

		cfg := pipelineConfig()
		limiter := ratelimit.New(cfg.RateLimit)
		store := session.NewStore(cfg.Storage, session.NewOpenAIEmbedder(cfg.Embedding), limiter)

		matches, err := store.Query(context.Background(), name, text, top)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Println("No results found.")
			return nil
		}

		for i, m := range matches {
			content := m.Chunk.Content
			if len(content) > 120 {
				content = content[:117] + "..."
			}
			fmt.Printf("%2d. [%.3f] %s/%s: %s\n", i+1, m.Score, m.Chunk.PaperID, m.Chunk.Field, content)
		}
		return nil
	},
}

// --- update subcommand ---

var sessionUpdateCmd = &cobra.Command{
	Use:   "update NAME [query]",
	Short: "Fetch fresh papers into a stored session",
	Long: `Update fetches papers again, summarizes the new ones with the fast
model, and appends them to the session. Papers already in the session
are skipped. The stored query and fetch parameters are reused unless a
new query is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSessionUpdate,
}

func runSessionUpdate(cmd *cobra.Command, args []string) error {
	name := args[0]
	ctx := context.Background()

	cfg := pipelineConfig()
	limiter := ratelimit.New(cfg.RateLimit)
	store := session.NewStore(cfg.Storage, session.NewOpenAIEmbedder(cfg.Embedding), limiter)

	bundle, err := store.Load(name)
	if err != nil {
		return err
	}

	query := bundle.Query
	if len(args) > 1 {
		query = strings.Join(args[1:], " ")
	}
	if err := arxiv.ValidateQuery(query); err != nil {
		return err
	}

	client := arxiv.NewClient(cfg.Source, limiter)
	fmt.Fprintf(os.Stderr, "Fetching papers for %q...\n", query)
	papers, skipped, err := client.Fetch(ctx, query, arxiv.FetchOptions{
		MaxResults: bundle.Params.MaxPapers,
		DaysBack:   bundle.Params.DaysBack,
		Categories: bundle.Params.Categories,
	})
	if err != nil {
		return err
	}
	if skipped > 0 {
		fmt.Fprintf(os.Stderr, "%d malformed record(s) skipped\n", skipped)
	}

	annotator := &annotate.Annotator{
		Fast:    annotate.NewGroqBackend(cfg.FastModel),
		Limiter: limiter,
	}
	papers, err = annotator.Annotate(ctx, papers, false, os.Stderr)
	if err != nil {
		return err
	}

	before := len(bundle.Papers)
	updated, err := store.Update(ctx, name, papers, nil)
	if err != nil {
		return err
	}
	fmt.Printf("Session %q now holds %d paper(s) (%d added)\n",
		name, len(updated.Papers), len(updated.Papers)-before)
	return nil
}

// --- delete subcommand ---

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a stored session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := sessionStore(nil)
		if err := store.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted session %q\n", args[0])
		return nil
	},
}

// sessionStore builds a Store for operations that do not embed.
func sessionStore(embedder session.Embedder) *session.Store {
	cfg := pipelineConfig()
	return session.NewStore(cfg.Storage, embedder, ratelimit.New(cfg.RateLimit))
}

func init() {
	sessionShowCmd.Flags().Bool("json", false, "output the session bundle as JSON")
	sessionQueryCmd.Flags().Int("top", 5, "number of results to return")

	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionQueryCmd)
	sessionCmd.AddCommand(sessionUpdateCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)

	rootCmd.AddCommand(sessionCmd)
}
