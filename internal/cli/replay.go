package cli

import (
	"github.com/spf13/cobra"
)

var replayFlags runFlags

// replayCmd re-analyzes a region from already downloaded documents
var replayCmd = &cobra.Command{
	Use:   "replay <region-id>",
	Short: "Analyze a region from the source registry without scraping",
	Long: `Replay reads the region's registered sources and runs extraction and
analysis again over the stored documents. No network access is needed
unless an LLM provider is used.

Example:
  landlock replay springfield
  landlock replay springfield --json out/springfield.json --md out/springfield.md`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayFlags.register(replayCmd, "panel.json")
}

func runReplay(cmd *cobra.Command, args []string) error {
	ctx, cancel, env, err := replayFlags.openEnv(cmd)
	if err != nil {
		return err
	}
	defer cancel()
	defer func() { _ = env.Close() }()

	result, err := env.Runner.RunFromRegistry(ctx, args[0])
	if err != nil {
		return err
	}
	return replayFlags.render(cmd, result)
}
