package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/landlock/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	batchFlags   runFlags
	batchWorkers int
	outputDir    string
)

// batchCmd replays many regions from the registry in parallel
var batchCmd = &cobra.Command{
	Use:   "batch <regions-file>",
	Short: "Replay many regions from the source registry in parallel",
	Long: `Batch reads region ids (one per line, # comments allowed) and replays each
from the source registry with a bounded worker pool. Every region gets its
own JSON and Markdown report; one region failing does not stop the others.

Example:
  landlock batch regions.txt
  landlock batch regions.txt --workers 8 --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchFlags.registerAnalysis(batchCmd)
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./landlock-reports", "output directory for reports")
}

func runBatch(cmd *cobra.Command, args []string) error {
	regions, err := pipeline.ReadRegionsFromFile(args[0])
	if err != nil {
		return err
	}

	workers := batchWorkers
	if workers <= 0 {
		workers = cfg.Concurrency.Workers
	}

	ctx, cancel, env, err := batchFlags.openEnv(cmd)
	if err != nil {
		return err
	}
	defer cancel()
	defer func() { _ = env.Close() }()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	fmt.Fprintf(os.Stderr, "⚙️  Processing %d regions with %d workers...\n\n", len(regions), workers)
	results := pipeline.NewBatchProcessor(env.Runner, workers).ProcessRegions(ctx, regions)

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	failures := 0
	for _, r := range results {
		if r.Err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.RegionID, r.Err)
			continue
		}

		base := filepath.Join(outputDir, r.RegionID)
		if err := renderer.RenderJSON(r.Result.Panel, base+".json"); err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.RegionID, err)
			continue
		}
		if err := renderer.RenderMarkdown(r.Result, base+".md"); err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.RegionID, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "✓ %s: %s\n", r.RegionID, r.Result.Panel.UnderwriterAnalysis.Verdict)
	}

	fmt.Fprintf(os.Stderr, "\n  Total: %d  Success: %d  Failures: %d  Output: %s\n\n",
		len(results), len(results)-failures, failures, outputDir)
	return nil
}
