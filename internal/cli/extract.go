package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ppiankov/landlock/internal/extract"
	"github.com/ppiankov/landlock/internal/model"
	"github.com/ppiankov/landlock/internal/pipeline"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	extractRegion string
	extractOut    string
)

// extractOutput is the facts document written by the extract command
type extractOutput struct {
	RegionID  string                `json:"region_id"`
	Citations []model.Citation      `json:"citations"`
	Facts     []model.ExtractedFact `json:"facts"`
}

// extractCmd runs only the extractor over a local source manifest
var extractCmd = &cobra.Command{
	Use:   "extract <manifest.json>",
	Short: "Extract cited facts from stored documents listed in a manifest",
	Long: `Extract reads a JSON array of discovered sources (the registry's record
format) and writes the citations and facts extracted from their stored
documents. File paths are resolved against data.dir.

Example:
  landlock extract sources.json --region springfield --out facts.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVar(&extractRegion, "region", "", "region id (required)")
	extractCmd.Flags().StringVar(&extractOut, "out", "facts.json", "output JSON path")
	_ = extractCmd.MarkFlagRequired("region")
}

func runExtract(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return eris.Wrap(err, "extract: read manifest")
	}
	var sources []model.DiscoveredSource
	if err := json.Unmarshal(data, &sources); err != nil {
		return eris.Wrap(err, "extract: parse manifest")
	}

	citations, facts := extract.NewExtractorFromConfig(cfg).Extract(cmd.Context(), sources, extractRegion)
	progress("✓ Extracted %d facts from %d sources", len(facts), len(sources))

	out := extractOutput{RegionID: extractRegion, Citations: citations, Facts: facts}
	if err := pipeline.NewRenderer(false).RenderJSON(out, extractOut); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d citations and %d facts to %s\n", len(citations), len(facts), extractOut)
	return nil
}
