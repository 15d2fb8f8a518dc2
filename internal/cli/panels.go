package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/ppiankov/landlock/internal/store"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var panelsLimit int

// panelsCmd lists stored panels for a region
var panelsCmd = &cobra.Command{
	Use:   "panels <region-id>",
	Short: "List stored panels for a region, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Data.StorePath == "" {
			return eris.New("panels: data.store_path is empty, panel persistence is disabled")
		}
		st, err := store.NewSQLite(cmd.Context(), cfg.Data.StorePath)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		records, err := st.List(cmd.Context(), args[0], panelsLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No stored panels for %s\n", args[0])
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tVERDICT\tFEASIBILITY\tGENERATED\tSTORED")
		for _, r := range records {
			feasibility := "n/a"
			if s := r.Panel.UnderwriterAnalysis.FeasibilityScore; s != nil {
				feasibility = fmt.Sprintf("%d", *s)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Verdict, feasibility, r.Panel.GeneratedAt, humanize.Time(r.CreatedAt))
		}
		return w.Flush()
	},
}

func init() {
	panelsCmd.Flags().IntVar(&panelsLimit, "limit", 10, "maximum panels to list (0 for all)")
	rootCmd.AddCommand(panelsCmd)
}
