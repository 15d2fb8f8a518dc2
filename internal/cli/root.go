package cli

import (
	"fmt"
	"os"

	"github.com/ppiankov/landlock/internal/config"
	"github.com/ppiankov/landlock/internal/model"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is set at build time with -ldflags "-X github.com/ppiankov/landlock/internal/cli.Version=..."
var Version = "dev"

var (
	cfgFile string
	verbose bool

	// cfg is loaded before every command runs
	cfg     *model.Config
	cfgUsed string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "landlock",
	Short: "Landlock - municipal development feasibility from public documents",
	Long: `Landlock collects a city's public budget, zoning, proposal and statistics
documents, extracts cited facts from them and scores development feasibility.

Every score, pro, con and constraint traces back to facts and to the
documents they were extracted from. Missing evidence lowers confidence;
it never turns into an invented number.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, used, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if verbose {
			c.Output.Verbose = true
			c.Log.Level = "debug"
		}
		if err := config.InitLogger(c.Log); err != nil {
			return err
		}
		cfg, cfgUsed = c, used
		if used != "" {
			zap.L().Debug("cli: using config file", zap.String("path", used))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "landlock %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.landlock/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

// progress prints a status line to stderr in verbose mode
func progress(format string, a ...any) {
	if cfg != nil && cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, format+"\n", a...)
	}
}
