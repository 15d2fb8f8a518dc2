package cli

import (
	"context"
	"fmt"
	"net/url"
	"text/tabwriter"
	"time"

	"github.com/ppiankov/landlock/internal/pipeline"
	"github.com/ppiankov/landlock/internal/registry"
	"github.com/ppiankov/landlock/internal/validate"
	"github.com/spf13/cobra"
)

var (
	verifyOnline   bool
	verifyJSON     string
	verifyOfficial []string
)

// verifyCmd audits a region's registered sources
var verifyCmd = &cobra.Command{
	Use:   "verify <region-id>",
	Short: "Audit a region's registered sources",
	Long: `Verify checks every registered source of a region: the stored copy exists
and still matches its recorded hash, the publishing host's authority tier,
and with --online whether the document is still reachable and how old it is.

Example:
  landlock verify springfield
  landlock verify springfield --online --official springfield.example --json audit.json`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().BoolVar(&verifyOnline, "online", false, "also HEAD each source URI")
	verifyCmd.Flags().StringVar(&verifyJSON, "json", "", "write the audit as JSON")
	verifyCmd.Flags().StringSliceVar(&verifyOfficial, "official", nil, "hosts to classify as primary, such as the city's own site")
}

func runVerify(cmd *cobra.Command, args []string) error {
	regionID := args[0]
	sources, err := registry.New(cfg.Data.RegistryPath).ByRegion(regionID)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("%w: region %s", pipeline.ErrNoSources, regionID)
	}

	opts := []validate.Option{
		validate.WithWorkers(cfg.Concurrency.Workers),
		validate.WithAuthority(validate.NewAuthorityClassifier(verifyOfficial...)),
	}
	if verifyOnline {
		opts = append(opts, validate.WithOnline(cfg.Scrape.Timeout, cfg.Scrape.UserAgent))
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(len(sources)+1)*cfg.Scrape.Timeout)
	defer cancel()
	checks := validate.NewValidator(cfg.Data.Dir, opts...).Validate(ctx, sources)
	summary := validate.Summarize(checks)

	if verifyJSON != "" {
		out := map[string]any{"region_id": regionID, "summary": summary, "checks": checks}
		if err := pipeline.NewRenderer(false).RenderJSON(out, verifyJSON); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STATUS\tCATEGORY\tAUTHORITY\tAGE\tHOST\tTITLE")
	for _, c := range checks {
		status := "ok"
		switch {
		case !c.FilePresent:
			status = "missing"
		case c.HashMatches != nil && !*c.HashMatches:
			status = "modified"
		case c.IsDead:
			status = "dead"
		case c.Checked && !c.IsAccessible:
			status = "unreachable"
		case c.IsStale:
			status = "stale"
		}
		host := c.URI
		if u, err := url.Parse(c.URI); err == nil && u.Host != "" {
			host = u.Host
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%dd\t%s\t%s\n", status, c.Category, c.Authority, c.AgeDays, host, c.Title)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n%d sources: %d healthy, %d missing, %d modified, %d dead, %d stale, %d primary\n",
		summary.Total, summary.Healthy, summary.Missing, summary.Modified, summary.Dead, summary.Stale, summary.Primary)
	return nil
}
