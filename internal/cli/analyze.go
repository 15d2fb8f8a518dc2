package cli

import (
	"github.com/ppiankov/landlock/internal/scrape"
	"github.com/spf13/cobra"
)

var (
	analyzeFlags   runFlags
	analyzeEntries []string
)

// analyzeCmd scrapes a city site and analyzes what it found
var analyzeCmd = &cobra.Command{
	Use:   "analyze <region-id> <base-url>",
	Short: "Scrape a city's public documents and score development feasibility",
	Long: `Analyze crawls a municipal site from per-category entry points, stores the
documents it finds, registers them, extracts cited facts and scores the region.

Without --entry the conventional sections are used (/budget, /finance,
/planning, /zoning, /development, /applications, /statistics, /demographics).

Example:
  landlock analyze springfield https://springfield.example
  landlock analyze springfield https://springfield.example --entry budget=/budget,/finance --md report.md
  landlock analyze springfield https://springfield.example --llm-provider ollama --llm-model llama3.1:8b`,
	Args: cobra.ExactArgs(2),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeFlags.register(analyzeCmd, "panel.json")
	analyzeCmd.Flags().StringArrayVar(&analyzeEntries, "entry", nil, "entry points as category=path[,path...] (repeatable)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	regionID, baseURL := args[0], args[1]

	entries := scrape.DefaultEntryPoints()
	if len(analyzeEntries) > 0 {
		parsed, err := scrape.ParseEntryPoints(analyzeEntries)
		if err != nil {
			return err
		}
		entries = parsed
	}

	ctx, cancel, env, err := analyzeFlags.openEnv(cmd)
	if err != nil {
		return err
	}
	defer cancel()
	defer func() { _ = env.Close() }()

	progress("⚙️  Scraping %s for %s...", baseURL, regionID)
	result, err := env.Runner.RunPipeline(ctx, regionID, baseURL, entries)
	if err != nil {
		return err
	}
	progress("✓ Extracted %d facts from %d citations", len(result.Facts), len(result.Citations))

	return analyzeFlags.render(cmd, result)
}
